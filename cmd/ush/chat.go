package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/ajhager/ultramodem/internal/protocol"
	"github.com/ajhager/ultramodem/internal/transport"
)

func runChat(args []string) error {
	fs := pflag.NewFlagSet("chat", pflag.ExitOnError)
	g := bindGlobalFlags(fs)
	username := fs.StringP("username", "u", "", "Your username for the chat")
	timeoutMin := fs.IntP("timeout", "t", 0, "Chat session timeout in minutes (0 = no limit)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" {
		*username = "ush"
	}

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

		stop := make(chan struct{})
		var stopOnce sync.Once
		closeStop := func() { stopOnce.Do(func() { close(stop) }) }
		if *timeoutMin > 0 {
			go func() {
				time.Sleep(time.Duration(*timeoutMin) * time.Minute)
				closeStop()
			}()
		}

		go tp.Listen(func(msg protocol.Message) {
			text, err := msg.Text()
			if err != nil {
				return
			}
			name, body := splitUsername(text)
			fmt.Printf("\r%s: %s\n> ", name, body)
		}, stop)

		fmt.Printf("Chat session started as %q. Type a message and press enter; Ctrl+D to quit.\n", *username)
		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				break
			}
			line := scanner.Text()
			if line == "" {
				continue
			}
			select {
			case <-stop:
				fmt.Println("chat session timed out")
				return nil
			default:
			}
			if err := tp.SendText(*username + ": " + line); err != nil {
				log.Error("send failed", "err", err)
			}
		}
		closeStop()
		return nil
	})
}

func splitUsername(text string) (name, body string) {
	if idx := strings.Index(text, ": "); idx >= 0 {
		return text[:idx], text[idx+2:]
	}
	return "peer", text
}
