// Command dirtsim-audio runs the synth voice engine process: it accepts
// NoteOn/NoteOff commands over the WebSocketService and renders mixed
// samples to a real audio output device (falling back to a headless null
// device when none is available).
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/aortez/dirtsim/internal/audio"
)

var (
	port       = flag.Int("port", 6060, "WebSocket server port")
	name       = flag.String("name", "", "Server friendly name (default: hostname-dirtsim-audio)")
	device     = flag.String("device", "", "Output device name (empty tries usb, then default, then headless)")
	sampleRate = flag.Int("sample-rate", 44100, "Output sample rate in Hz")
	channels   = flag.Int("channels", 1, "Output channel count")
	noMDNS     = flag.Bool("no-mdns", false, "Disable mDNS advertisement")
)

func main() {
	flag.Parse()

	serverName := *name
	if serverName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		serverName = fmt.Sprintf("%s-dirtsim-audio", hostname)
	}

	srv, err := audio.NewServer(audio.ServerConfig{
		Port:       *port,
		Name:       serverName,
		EnableMDNS: !*noMDNS,
		DeviceName: *device,
		SampleRate: *sampleRate,
		Channels:   *channels,
		Logf:       func(format string, args ...any) { log.Printf(format, args...) },
	})
	if err != nil {
		log.Fatalf("dirtsim-audio: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Printf("dirtsim-audio: received %v, shutting down", sig)
		srv.Stop()
	}()

	if err := srv.Start(); err != nil {
		log.Fatalf("dirtsim-audio: %v", err)
	}
}
