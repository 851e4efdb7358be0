package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/ajhager/ultramodem/internal/transport"
)

func runListen(args []string) error {
	fs := pflag.NewFlagSet("listen", pflag.ExitOnError)
	g := bindGlobalFlags(fs)
	timeoutSecs := fs.IntP("timeout", "t", 0, "Maximum time to listen in seconds (0 = forever)")
	threshold := fs.Float64("threshold", 0.1, "Signal detection threshold (0.0-1.0)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	settings := g.settings()
	settings.Threshold = *threshold
	if err := settings.Validate(); err != nil {
		return err
	}
	cfg := settings.ModulationConfig()

	return withAudio(func() error {
		channel := transport.NewAudioChannel(cfg)
		channel.SetDetectThreshold(*threshold)
		if err := channel.OpenInput(); err != nil {
			return err
		}
		defer channel.Close()

		log.Info("listening for messages", "threshold", *threshold)

		perCallTimeout := 2 * time.Second
		deadline := time.Time{}
		if *timeoutSecs > 0 {
			deadline = time.Now().Add(time.Duration(*timeoutSecs) * time.Second)
			log.Info("timeout set", "seconds", *timeoutSecs)
		}

		for {
			if !deadline.IsZero() && time.Now().After(deadline) {
				return fmt.Errorf("listen: timed out after %ds with no message", *timeoutSecs)
			}

			msg, err := channel.Receive(perCallTimeout)
			if err != nil {
				continue
			}

			text, err := msg.Text()
			if err != nil {
				log.Warn("received non-text message", "type", msg.Header.MessageType)
				continue
			}
			fmt.Printf("[%d] %s\n", msg.Header.SequenceNumber, text)
		}
	})
}
