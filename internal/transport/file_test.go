package transport

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFileSenderReceiver_RoundTrip(t *testing.T) {
	toB := &channel{}
	toA := &channel{}
	a := New(toB.send, toA.receive)
	b := New(toA.send, toB.receive)

	srcDir := t.TempDir()
	dstDir := t.TempDir()

	content := make([]byte, FileChunkSize*3+17)
	for i := range content {
		content[i] = byte(i % 251)
	}
	srcPath := filepath.Join(srcDir, "payload.bin")
	require.NoError(t, os.WriteFile(srcPath, content, 0o644))

	recvResult := make(chan error, 1)
	recvPath := make(chan string, 1)
	go func() {
		receiver := NewFileReceiver(b, dstDir)
		path, _, err := receiver.ReceiveFile(2 * time.Second)
		recvPath <- path
		recvResult <- err
	}()

	sender := NewFileSender(a)
	require.NoError(t, sender.SendFile(srcPath))
	require.NoError(t, <-recvResult)
	gotPath := <-recvPath

	got, err := os.ReadFile(gotPath)
	require.NoError(t, err)
	require.Equal(t, content, got)
}
