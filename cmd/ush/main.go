// Command ush (ultrasonic shell) sends and receives data between
// machines using near-ultrasonic audio, with no network connection
// involved: only a speaker on one side and a microphone on the other.
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "send":
		err = runSend(args)
	case "listen":
		err = runListen(args)
	case "chat":
		err = runChat(args)
	case "send-file":
		err = runSendFile(args)
	case "receive-file":
		err = runReceiveFile(args)
	case "devices":
		err = runDevices(args)
	case "test":
		err = runTest(args)
	case "debug":
		err = runDebug(args)
	case "-h", "--help", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "ush: unknown command %q\n\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		log.Fatal(err)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `ush - ultrasonic shell

Communicate between devices using near-ultrasonic sound waves,
transmitted through speakers and received through microphones.

Usage:
  ush <command> [flags]

Commands:
  send          Send a text message
  listen        Listen for incoming messages
  chat          Start an interactive chat session
  send-file     Send a file
  receive-file  Receive a file
  devices       List available audio devices
  test          Run device/loopback/signal diagnostics
  debug         Show live audio analysis

Run "ush <command> -h" for command-specific flags.`)
}
