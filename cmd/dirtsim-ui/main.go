// Command dirtsim-ui runs the UI/input process: it drives the UI state
// machine against the physics server's command surface and render stream
// and the audio process's NoteOn/NoteOff. Widget rendering is out of scope
// (§1); this binary exercises and logs the protocol for headless operation
// and testing.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aortez/dirtsim/internal/ui"
)

var (
	serverAddr = flag.String("server", "localhost:8080", "Physics server host:port")
	audioAddr  = flag.String("audio", "localhost:6060", "Audio process host:port")
	listenPort = flag.Int("port", 7070, "This process's own CLI-facing port")
	connectS   = flag.Int("connect-timeout", 5, "Connection timeout, seconds")
)

func main() {
	flag.Parse()

	process := ui.New(ui.Config{
		ServerURL:  fmt.Sprintf("ws://%s/", *serverAddr),
		AudioURL:   fmt.Sprintf("ws://%s/", *audioAddr),
		ListenPort: *listenPort,
		Logf:       func(format string, args ...any) { log.Printf(format, args...) },
	})

	if err := process.Start(); err != nil {
		log.Fatalf("dirtsim-ui: %v", err)
	}

	if err := process.Connect(time.Duration(*connectS) * time.Second); err != nil {
		log.Fatalf("dirtsim-ui: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Printf("dirtsim-ui: received %v, shutting down", sig)
		process.Stop()
	}()

	process.Run()
}
