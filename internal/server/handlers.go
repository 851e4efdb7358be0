package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ajhager/ultramodem/internal/audio"
	"github.com/ajhager/ultramodem/internal/config"
	"github.com/ajhager/ultramodem/internal/transport"
)

// Handlers holds the HTTP API handlers. Each send/receive request opens
// its own AudioChannel and Transport for the duration of the transfer;
// only one transfer runs at a time, guarded by mu.
type Handlers struct {
	settings   config.Settings
	wsHub      *WSHub
	uploadDir  string
	receiveDir string

	mu      sync.Mutex
	channel *transport.AudioChannel
	logger  *log.Logger
}

// NewHandlers creates new API handlers using settings for every
// AudioChannel it opens.
func NewHandlers(settings config.Settings, uploadDir, receiveDir string) *Handlers {
	return &Handlers{
		settings:   settings,
		wsHub:      NewWSHub(),
		uploadDir:  uploadDir,
		receiveDir: receiveDir,
		logger:     log.Default().With("component", "server.handlers"),
	}
}

// HandleWebSocket handles WebSocket upgrade requests.
func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade", "err", err)
		return
	}

	h.wsHub.AddClient(conn)

	go func() {
		defer h.wsHub.RemoveClient(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

// HandleUpload handles file upload for sending.
func (h *Handlers) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, fmt.Sprintf("Parse form: %v", err), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, fmt.Sprintf("Get file: %v", err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	os.MkdirAll(h.uploadDir, 0o755)
	outPath := filepath.Join(h.uploadDir, header.Filename)
	outFile, err := os.Create(outPath)
	if err != nil {
		http.Error(w, fmt.Sprintf("Create file: %v", err), http.StatusInternalServerError)
		return
	}
	defer outFile.Close()

	written, err := io.Copy(outFile, file)
	if err != nil {
		http.Error(w, fmt.Sprintf("Save file: %v", err), http.StatusInternalServerError)
		return
	}

	h.wsHub.BroadcastLog("info", fmt.Sprintf("File uploaded: %s (%d bytes)", header.Filename, written))

	json.NewEncoder(w).Encode(map[string]interface{}{
		"filename": header.Filename,
		"size":     written,
		"status":   "uploaded",
	})
}

// HandleSend initiates sending a previously uploaded file over the
// acoustic channel.
func (h *Handlers) HandleSend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Filename string `json:"filename"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Parse request: %v", err), http.StatusBadRequest)
		return
	}

	filePath := filepath.Join(h.uploadDir, req.Filename)
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	go func() {
		h.mu.Lock()
		defer h.mu.Unlock()

		channel := transport.NewAudioChannel(h.settings.ModulationConfig())
		if err := channel.OpenDuplex(); err != nil {
			h.wsHub.BroadcastStatus("error", fmt.Sprintf("Audio open failed: %v", err))
			return
		}
		h.channel = channel
		defer func() {
			channel.Close()
			h.channel = nil
		}()

		h.wsHub.BroadcastStatus("transferring", "Sending file...")

		tp := transport.New(channel.Send, channel.Receive)
		sender := transport.NewFileSender(tp)
		sender.OnProgress = func(done, total int64) {
			h.wsHub.BroadcastProgress("transferring", fmt.Sprintf("Sending... %d/%d bytes", done, total),
				float64(done)/float64(total), done, total)
		}

		if err := sender.SendFile(filePath); err != nil {
			h.wsHub.BroadcastStatus("error", fmt.Sprintf("Send failed: %v", err))
			return
		}

		h.wsHub.BroadcastStatus("completed", "File sent successfully!")
	}()

	json.NewEncoder(w).Encode(map[string]string{"status": "sending"})
}

// HandleReceiveStart starts receiving mode.
func (h *Handlers) HandleReceiveStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	go func() {
		h.mu.Lock()
		defer h.mu.Unlock()

		channel := transport.NewAudioChannel(h.settings.ModulationConfig())
		if err := channel.OpenDuplex(); err != nil {
			h.wsHub.BroadcastStatus("error", fmt.Sprintf("Audio open failed: %v", err))
			return
		}
		h.channel = channel
		defer func() {
			channel.Close()
			h.channel = nil
		}()

		h.wsHub.BroadcastStatus("transferring", "Waiting for incoming file...")

		os.MkdirAll(h.receiveDir, 0o755)
		tp := transport.New(channel.Send, channel.Receive)
		receiver := transport.NewFileReceiver(tp, h.receiveDir)
		receiver.OnProgress = func(done, total int64) {
			h.wsHub.BroadcastProgress("transferring", fmt.Sprintf("Receiving... %d/%d bytes", done, total),
				float64(done)/float64(total), done, total)
		}

		path, meta, err := receiver.ReceiveFile(60 * time.Second)
		if err != nil {
			h.wsHub.BroadcastStatus("error", fmt.Sprintf("Receive failed: %v", err))
			return
		}

		h.wsHub.BroadcastStatus("completed", fmt.Sprintf("File received: %s (%d bytes) -> %s", meta.Name, meta.Size, path))
	}()

	json.NewEncoder(w).Encode(map[string]string{"status": "receiving"})
}

// HandleStatus returns current session status.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	status := "idle"
	h.mu.Lock()
	if h.channel != nil {
		status = "active"
	}
	h.mu.Unlock()

	json.NewEncoder(w).Encode(map[string]string{"status": status})
}

// HandleDevices lists available audio devices.
func (h *Handlers) HandleDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := audio.ListDevices()
	if err != nil {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}

	hasInput, hasOutput := false, false
	for _, d := range devices {
		hasInput = hasInput || d.MaxInputChannels > 0
		hasOutput = hasOutput || d.MaxOutputChannels > 0
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "ok",
		"devices":   devices,
		"hasInput":  hasInput,
		"hasOutput": hasOutput,
	})
}

// HandleDownload serves received files for download.
func (h *Handlers) HandleDownload(w http.ResponseWriter, r *http.Request) {
	filename := strings.TrimPrefix(r.URL.Path, "/api/download/")
	if filename == "" {
		http.Error(w, "Filename required", http.StatusBadRequest)
		return
	}

	filePath := filepath.Join(h.receiveDir, filename)
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	http.ServeFile(w, r, filePath)
}
