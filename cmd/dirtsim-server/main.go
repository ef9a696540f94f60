// Command dirtsim-server runs the physics simulation process: it owns the
// scenario state machine, the render broadcaster, and the evolution
// session, and fronts all three with one WebSocketService.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/aortez/dirtsim/internal/server"
)

var (
	port   = flag.Int("port", 8080, "WebSocket server port")
	name   = flag.String("name", "", "Server friendly name (default: hostname-dirtsim-server)")
	logDir = flag.String("log-dir", ".", "Directory holding logging-config.json / .local overrides")
	noMDNS = flag.Bool("no-mdns", false, "Disable mDNS advertisement")
	noTUI  = flag.Bool("no-tui", false, "Disable the terminal status display")
	romDir = flag.String("rom-dir", "", "Directory NES scenario ROMs are resolved from (default: testdata/roms)")
)

func main() {
	flag.Parse()

	serverName := *name
	if serverName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		serverName = fmt.Sprintf("%s-dirtsim-server", hostname)
	}

	config := server.Config{
		Port:       *port,
		Name:       serverName,
		EnableMDNS: !*noMDNS,
		LogDir:     *logDir,
		UseTUI:     !*noTUI,
		RomDir:     *romDir,
	}

	srv, err := server.New(config)
	if err != nil {
		log.Fatalf("dirtsim-server: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Printf("dirtsim-server: received %v, shutting down", sig)
		srv.Stop()
	}()

	if err := srv.Start(); err != nil {
		log.Fatalf("dirtsim-server: %v", err)
	}
}
