package transport

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ajhager/ultramodem/internal/protocol"
)

// FileChunkSize is the size of each file chunk before it is wrapped in
// a fileFrame envelope and JSON-encoded. The JSON envelope with its
// base64-expanded data is the message payload, and must fit under
// protocol.MaxMessageLength.
const FileChunkSize = 512

// fileFrameKind distinguishes the three message shapes a file transfer
// is made of. File messages carry no type information of their own
// beyond protocol.MessageFile, so the kind travels inside the payload.
type fileFrameKind string

const (
	fileFrameMeta fileFrameKind = "meta"
	fileFrameData fileFrameKind = "data"
	fileFrameEnd  fileFrameKind = "end"
)

type fileFrame struct {
	Kind fileFrameKind `json:"kind"`
	Name string        `json:"name,omitempty"`
	Size int64         `json:"size,omitempty"`
	MD5  string        `json:"md5,omitempty"`
	Data []byte        `json:"data,omitempty"`
}

// FileMetadata describes a file transfer once its meta frame has
// arrived.
type FileMetadata struct {
	Name string
	Size int64
	MD5  string
}

// ProgressFunc reports cumulative bytes transferred against the total.
type ProgressFunc func(done, total int64)

// FileSender chunks a file into File-type messages and sends each
// reliably over a Transport, using its own sequence counter
// independent of Transport.SendText's.
type FileSender struct {
	t         *Transport
	chunkSize int
	seq       uint32
	OnProgress ProgressFunc
}

// NewFileSender returns a FileSender bound to t.
func NewFileSender(t *Transport) *FileSender {
	return &FileSender{t: t, chunkSize: FileChunkSize}
}

// SendFile streams path's contents as a meta frame, one or more data
// frames, and a final end frame. The meta frame carries the local MD5
// digest so the receiver can check it against what actually arrived.
func (fs *FileSender) SendFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("transport: open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("transport: stat %s: %w", path, err)
	}

	hash := md5.New()
	if _, err := io.Copy(hash, f); err != nil {
		return fmt.Errorf("transport: hash %s: %w", path, err)
	}
	sum := hex.EncodeToString(hash.Sum(nil))

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("transport: seek %s: %w", path, err)
	}

	if err := fs.sendFrame(fileFrame{
		Kind: fileFrameMeta,
		Name: filepath.Base(path),
		Size: info.Size(),
		MD5:  sum,
	}); err != nil {
		return fmt.Errorf("transport: send file meta: %w", err)
	}

	buf := make([]byte, fs.chunkSize)
	var sent int64
	for {
		n, err := f.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			if sendErr := fs.sendFrame(fileFrame{Kind: fileFrameData, Data: chunk}); sendErr != nil {
				return fmt.Errorf("transport: send chunk: %w", sendErr)
			}
			sent += int64(n)
			if fs.OnProgress != nil {
				fs.OnProgress(sent, info.Size())
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("transport: read %s: %w", path, err)
		}
	}

	return fs.sendFrame(fileFrame{Kind: fileFrameEnd})
}

func (fs *FileSender) sendFrame(ff fileFrame) error {
	payload, err := json.Marshal(ff)
	if err != nil {
		return fmt.Errorf("transport: marshal file frame: %w", err)
	}
	seq := fs.seq
	fs.seq++
	return fs.t.SendFile(payload, seq)
}

// FileReceiver assembles incoming File-type messages into a file on
// disk, verifying the sender's MD5 digest once the end frame arrives.
type FileReceiver struct {
	t         *Transport
	outputDir string
	OnProgress ProgressFunc
}

// NewFileReceiver returns a FileReceiver that writes into outputDir.
func NewFileReceiver(t *Transport, outputDir string) *FileReceiver {
	return &FileReceiver{t: t, outputDir: outputDir}
}

// ReceiveFile blocks until a complete file transfer has arrived (meta,
// all data chunks, end) or timeout elapses waiting for any one frame.
// It returns the destination path and the metadata reported by the
// sender.
func (fr *FileReceiver) ReceiveFile(timeout time.Duration) (string, FileMetadata, error) {
	meta, err := fr.nextFrame(timeout)
	if err != nil {
		return "", FileMetadata{}, fmt.Errorf("transport: receive file meta: %w", err)
	}
	if meta.Kind != fileFrameMeta {
		return "", FileMetadata{}, fmt.Errorf("transport: %w: expected meta frame, got %q", protocol.ErrProtocol, meta.Kind)
	}

	if err := os.MkdirAll(fr.outputDir, 0o755); err != nil {
		return "", FileMetadata{}, fmt.Errorf("transport: create output dir: %w", err)
	}
	outPath := filepath.Join(fr.outputDir, filepath.Base(meta.Name))
	out, err := os.Create(outPath)
	if err != nil {
		return "", FileMetadata{}, fmt.Errorf("transport: create %s: %w", outPath, err)
	}
	defer out.Close()

	hash := md5.New()
	var received int64

	for done := false; !done; {
		frame, err := fr.nextFrame(timeout)
		if err != nil {
			return "", FileMetadata{}, fmt.Errorf("transport: receive chunk: %w", err)
		}
		switch frame.Kind {
		case fileFrameData:
			if _, err := out.Write(frame.Data); err != nil {
				return "", FileMetadata{}, fmt.Errorf("transport: write chunk: %w", err)
			}
			hash.Write(frame.Data)
			received += int64(len(frame.Data))
			if fr.OnProgress != nil {
				fr.OnProgress(received, meta.Size)
			}
		case fileFrameEnd:
			done = true
		}
	}

	sum := hex.EncodeToString(hash.Sum(nil))
	if sum != meta.MD5 {
		return "", FileMetadata{}, fmt.Errorf("transport: md5 mismatch: got %s want %s", sum, meta.MD5)
	}

	return outPath, FileMetadata{Name: meta.Name, Size: meta.Size, MD5: meta.MD5}, nil
}

func (fr *FileReceiver) nextFrame(timeout time.Duration) (fileFrame, error) {
	msg, err := fr.t.ReceiveOne(timeout)
	if err != nil {
		return fileFrame{}, err
	}
	if msg.Header.MessageType != protocol.MessageFile {
		return fileFrame{}, fmt.Errorf("transport: %w: expected file message, got %s", protocol.ErrProtocol, msg.Header.MessageType)
	}
	var ff fileFrame
	if err := json.Unmarshal(msg.Payload, &ff); err != nil {
		return fileFrame{}, fmt.Errorf("transport: decode file frame: %w", err)
	}
	return ff, nil
}
