// Command dirtsim-os-manager runs the peer-trust and remote-exec process:
// TrustPeer/UntrustPeer/TrustBundleGet/RemoteCliRun over a WebSocketService,
// backed by a persisted allowlist and this node's own SSH client identity.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/aortez/dirtsim/internal/osmanager"
)

var (
	port        = flag.Int("port", 8929, "WebSocket server port")
	name        = flag.String("name", "", "Server friendly name (default: hostname-dirtsim-os-manager)")
	workDir     = flag.String("work-dir", ".", "Directory holding the peer allowlist and client identity")
	selfHost    = flag.String("self-host", "", "This node's reachable host/IP, published via TrustBundleGet")
	selfSSHUser = flag.String("self-ssh-user", "dirtsim", "SSH user peers should connect as")
	selfSSHPort = flag.Int("self-ssh-port", 22, "SSH port peers should connect to")
	noMDNS      = flag.Bool("no-mdns", false, "Disable mDNS advertisement")
)

func main() {
	flag.Parse()

	serverName := *name
	if serverName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		serverName = fmt.Sprintf("%s-dirtsim-os-manager", hostname)
	}

	srv, err := osmanager.NewServer(osmanager.ServerConfig{
		Port:        *port,
		Name:        serverName,
		EnableMDNS:  !*noMDNS,
		WorkDir:     *workDir,
		SelfHost:    *selfHost,
		SelfSSHUser: *selfSSHUser,
		SelfSSHPort: *selfSSHPort,
		Logf:        func(format string, args ...any) { log.Printf(format, args...) },
	})
	if err != nil {
		log.Fatalf("dirtsim-os-manager: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Printf("dirtsim-os-manager: received %v, shutting down", sig)
		srv.Stop()
	}()

	if err := srv.Start(); err != nil {
		log.Fatalf("dirtsim-os-manager: %v", err)
	}
}
