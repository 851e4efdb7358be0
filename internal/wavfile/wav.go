// Package wavfile reads and writes mono PCM WAV files for saving and
// replaying modulated audio without a live audio device. It supports
// 32-bit float, 16-bit int, and 32-bit int sample formats on read, and
// always writes 32-bit float (matching the modem's native sample type).
package wavfile

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

const (
	fmtPCM   = 1
	fmtFloat = 3
)

// Spec describes the format of a WAV file's samples.
type Spec struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
	Float         bool
}

// Load reads a mono WAV file at path and returns its samples converted
// to float32 in [-1, 1], regardless of the file's on-disk format.
func Load(path string) ([]float32, Spec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Spec{}, fmt.Errorf("wavfile: open %s: %w", path, err)
	}
	defer f.Close()

	var riffHeader [12]byte
	if _, err := io.ReadFull(f, riffHeader[:]); err != nil {
		return nil, Spec{}, fmt.Errorf("wavfile: read riff header: %w", err)
	}
	if string(riffHeader[0:4]) != "RIFF" || string(riffHeader[8:12]) != "WAVE" {
		return nil, Spec{}, fmt.Errorf("wavfile: %s is not a RIFF/WAVE file", path)
	}

	var spec Spec
	var audioFormat uint16
	var haveFmt bool

	for {
		var chunkHeader [8]byte
		if _, err := io.ReadFull(f, chunkHeader[:]); err != nil {
			if err == io.EOF {
				break
			}
			return nil, Spec{}, fmt.Errorf("wavfile: read chunk header: %w", err)
		}
		id := string(chunkHeader[0:4])
		size := binary.LittleEndian.Uint32(chunkHeader[4:8])

		switch id {
		case "fmt ":
			body := make([]byte, size)
			if _, err := io.ReadFull(f, body); err != nil {
				return nil, Spec{}, fmt.Errorf("wavfile: read fmt chunk: %w", err)
			}
			audioFormat = binary.LittleEndian.Uint16(body[0:2])
			spec.Channels = int(binary.LittleEndian.Uint16(body[2:4]))
			spec.SampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
			spec.BitsPerSample = int(binary.LittleEndian.Uint16(body[14:16]))
			spec.Float = audioFormat == fmtFloat
			haveFmt = true

		case "data":
			if !haveFmt {
				return nil, Spec{}, fmt.Errorf("wavfile: data chunk before fmt chunk")
			}
			data := make([]byte, size)
			if _, err := io.ReadFull(f, data); err != nil {
				return nil, Spec{}, fmt.Errorf("wavfile: read data chunk: %w", err)
			}
			samples, err := decodeSamples(data, spec)
			if err != nil {
				return nil, Spec{}, err
			}
			return samples, spec, nil

		default:
			if _, err := f.Seek(int64(size), io.SeekCurrent); err != nil {
				return nil, Spec{}, fmt.Errorf("wavfile: skip chunk %q: %w", id, err)
			}
		}

		if size%2 == 1 {
			if _, err := f.Seek(1, io.SeekCurrent); err != nil {
				return nil, Spec{}, fmt.Errorf("wavfile: skip chunk padding: %w", err)
			}
		}
	}

	return nil, Spec{}, fmt.Errorf("wavfile: %s has no data chunk", path)
}

func decodeSamples(data []byte, spec Spec) ([]float32, error) {
	if spec.Float {
		if spec.BitsPerSample != 32 {
			return nil, fmt.Errorf("wavfile: unsupported float bit depth: %d", spec.BitsPerSample)
		}
		out := make([]float32, len(data)/4)
		for i := range out {
			bits := binary.LittleEndian.Uint32(data[i*4 : i*4+4])
			out[i] = math.Float32frombits(bits)
		}
		return out, nil
	}

	switch spec.BitsPerSample {
	case 16:
		out := make([]float32, len(data)/2)
		for i := range out {
			v := int16(binary.LittleEndian.Uint16(data[i*2 : i*2+2]))
			out[i] = float32(v) / float32(math.MaxInt16)
		}
		return out, nil
	case 32:
		out := make([]float32, len(data)/4)
		for i := range out {
			v := int32(binary.LittleEndian.Uint32(data[i*4 : i*4+4]))
			out[i] = float32(v) / float32(math.MaxInt32)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("wavfile: unsupported bit depth: %d", spec.BitsPerSample)
	}
}

// Save writes samples as a mono 32-bit float WAV file at the given
// sample rate.
func Save(path string, samples []float32, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("wavfile: create %s: %w", path, err)
	}
	defer f.Close()

	const (
		channels      = 1
		bitsPerSample = 32
	)
	byteRate := sampleRate * channels * bitsPerSample / 8
	blockAlign := channels * bitsPerSample / 8
	dataSize := len(samples) * bitsPerSample / 8
	riffSize := 36 + dataSize

	var header [44]byte
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(riffSize))
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], fmtFloat)
	binary.LittleEndian.PutUint16(header[22:24], channels)
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(header[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(header[34:36], bitsPerSample)
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(dataSize))

	if _, err := f.Write(header[:]); err != nil {
		return fmt.Errorf("wavfile: write header: %w", err)
	}

	buf := make([]byte, 4)
	for _, s := range samples {
		binary.LittleEndian.PutUint32(buf, math.Float32bits(s))
		if _, err := f.Write(buf); err != nil {
			return fmt.Errorf("wavfile: write sample: %w", err)
		}
	}

	return nil
}
