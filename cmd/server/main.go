package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ajhager/ultramodem/internal/audio"
	"github.com/ajhager/ultramodem/internal/config"
	"github.com/ajhager/ultramodem/internal/server"
)

func main() {
	addr := flag.String("addr", "0.0.0.0:8080", "Server address")
	uploadDir := flag.String("upload-dir", "./uploads", "Upload directory")
	receiveDir := flag.String("receive-dir", "./received", "Receive directory")
	listDevices := flag.Bool("list-devices", false, "List audio devices and exit")
	sampleRate := flag.Int("sample-rate", config.DefaultSettings().SampleRate, "Sample rate in Hz")
	freq0 := flag.Float64("freq0", config.DefaultSettings().Freq0, "Frequency for bit 0 in Hz")
	freq1 := flag.Float64("freq1", config.DefaultSettings().Freq1, "Frequency for bit 1 in Hz")
	flag.Parse()

	if err := audio.Init(); err != nil {
		log.Fatalf("Failed to initialize PortAudio: %v", err)
	}
	defer audio.Terminate()

	if *listDevices {
		if err := audio.PrintDevices(); err != nil {
			log.Fatalf("Failed to list devices: %v", err)
		}
		return
	}

	settings := config.DefaultSettings()
	settings.SampleRate = *sampleRate
	settings.Freq0 = *freq0
	settings.Freq1 = *freq1
	if err := settings.Validate(); err != nil {
		log.Fatalf("Invalid settings: %v", err)
	}

	os.MkdirAll(*uploadDir, 0o755)
	os.MkdirAll(*receiveDir, 0o755)

	handlers := server.NewHandlers(settings, *uploadDir, *receiveDir)
	srv := server.NewServer(*addr, handlers, "./web/static")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\nShutting down...")
		audio.Terminate()
		os.Exit(0)
	}()

	if err := srv.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
