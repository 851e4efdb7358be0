package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/ajhager/ultramodem/internal/transport"
)

func runSendFile(args []string) error {
	fs := pflag.NewFlagSet("send-file", pflag.ExitOnError)
	g := bindGlobalFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("ush send-file: file argument required")
	}
	path := fs.Arg(0)

	settings := g.settings()
	if err := settings.Validate(); err != nil {
		return err
	}
	cfg := settings.ModulationConfig()

	return withAudio(func() error {
		channel := transport.NewAudioChannel(cfg)
		if err := channel.OpenDuplex(); err != nil {
			return err
		}
		defer channel.Close()

		tp := transport.New(channel.Send, channel.Receive)
		sender := transport.NewFileSender(tp)
		sender.OnProgress = func(done, total int64) {
			log.Info("sending", "bytes", done, "of", total)
		}

		if err := sender.SendFile(path); err != nil {
			return fmt.Errorf("send file: %w", err)
		}
		log.Info("file sent", "path", path)
		return nil
	})
}

func runReceiveFile(args []string) error {
	fs := pflag.NewFlagSet("receive-file", pflag.ExitOnError)
	g := bindGlobalFlags(fs)
	timeoutSecs := fs.IntP("timeout", "t", 60, "Maximum time to wait for the file transfer, in seconds")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("ush receive-file: output directory argument required")
	}
	outputDir := fs.Arg(0)

	settings := g.settings()
	if err := settings.Validate(); err != nil {
		return err
	}
	cfg := settings.ModulationConfig()

	return withAudio(func() error {
		channel := transport.NewAudioChannel(cfg)
		if err := channel.OpenDuplex(); err != nil {
			return err
		}
		defer channel.Close()

		tp := transport.New(channel.Send, channel.Receive)
		receiver := transport.NewFileReceiver(tp, outputDir)
		receiver.OnProgress = func(done, total int64) {
			log.Info("receiving", "bytes", done, "of", total)
		}

		path, meta, err := receiver.ReceiveFile(time.Duration(*timeoutSecs) * time.Second)
		if err != nil {
			return fmt.Errorf("receive file: %w", err)
		}
		log.Info("file received", "path", path, "name", meta.Name, "size", meta.Size, "md5", meta.MD5)
		return nil
	})
}
