// Package discovery advertises a running DirtSim process on the local
// network via mDNS (§4.8): service type `_dirtsim._tcp`, a TXT record
// naming the process's role, name-collision retry-with-suffix, and a
// clean shutdown that reports is_running=false on any failure.
package discovery

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/hashicorp/mdns"
)

const serviceType = "_dirtsim._tcp"

// Role identifies which DirtSim process is advertising.
type Role string

const (
	RolePhysics   Role = "physics"
	RoleUI        Role = "ui"
	RoleAudio     Role = "audio"
	RoleOSManager Role = "osmanager"
	RoleUnknown   Role = "unknown"
)

// Logger is the narrow logging contract this package depends on.
type Logger func(format string, args ...any)

// Config holds one advertiser's identity.
type Config struct {
	Name string
	Port int
	Role Role
	Logf Logger
}

const maxNameCollisionRetries = 8

// Manager owns one mDNS advertisement's lifetime.
type Manager struct {
	config Config
	ctx    context.Context
	cancel context.CancelFunc

	isRunning bool
}

// NewManager builds an advertiser for config. Advertise must be called to
// actually register on the network.
func NewManager(config Config) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{config: config, ctx: ctx, cancel: cancel}
}

func (m *Manager) logf(format string, args ...any) {
	if m.config.Logf != nil {
		m.config.Logf(format, args...)
	}
}

// IsRunning reports whether the advertisement loop is currently active.
func (m *Manager) IsRunning() bool { return m.isRunning }

// Advertise registers this process on mDNS, retrying under a suffixed name
// on collision and reporting is_running=false if every attempt fails.
func (m *Manager) Advertise() error {
	ips, err := getLocalIPs()
	if err != nil {
		m.isRunning = false
		return fmt.Errorf("discovery: failed to get local IPs: %w", err)
	}

	name := m.config.Name
	txt := []string{fmt.Sprintf("role=%s", m.config.Role)}

	var lastErr error
	for attempt := 0; attempt <= maxNameCollisionRetries; attempt++ {
		candidate := name
		if attempt > 0 {
			candidate = fmt.Sprintf("%s-%d", name, attempt+1)
		}

		service, err := mdns.NewMDNSService(candidate, serviceType, "", "", m.config.Port, ips, txt)
		if err != nil {
			lastErr = err
			continue
		}

		server, err := mdns.NewServer(&mdns.Config{Zone: service})
		if err != nil {
			// A collision at the service-registration layer: log and retry
			// under a suffixed name per §4.8.
			m.logf("discovery: name %q collided, retrying: %v", candidate, err)
			lastErr = err
			continue
		}

		m.isRunning = true
		m.logf("discovery: advertising %q as role=%s on port %d", candidate, m.config.Role, m.config.Port)

		go func() {
			<-m.ctx.Done()
			server.Shutdown()
			m.isRunning = false
		}()
		return nil
	}

	m.isRunning = false
	m.logf("discovery: giving up advertising %q after %d attempts: %v", name, maxNameCollisionRetries+1, lastErr)
	return fmt.Errorf("discovery: failed to advertise after %d attempts: %w", maxNameCollisionRetries+1, lastErr)
}

// ServerInfo describes a discovered peer.
type ServerInfo struct {
	Name string
	Host string
	Port int
	Role Role
}

// Browse searches once for DirtSim peers on the network, blocking for up to
// timeoutSeconds.
func Browse(timeoutSeconds int) ([]ServerInfo, error) {
	entries := make(chan *mdns.ServiceEntry, 16)
	var found []ServerInfo

	done := make(chan struct{})
	go func() {
		defer close(done)
		for entry := range entries {
			info := ServerInfo{Name: entry.Name, Port: entry.Port, Role: roleFromTXT(entry.InfoFields)}
			if entry.AddrV4 != nil {
				info.Host = entry.AddrV4.String()
			}
			found = append(found, info)
		}
	}()

	params := &mdns.QueryParam{
		Service: serviceType,
		Domain:  "local",
		Timeout: time.Duration(timeoutSeconds) * time.Second,
		Entries: entries,
	}
	if err := mdns.Query(params); err != nil {
		close(entries)
		return nil, fmt.Errorf("discovery: query failed: %w", err)
	}
	close(entries)
	<-done
	return found, nil
}

func roleFromTXT(fields []string) Role {
	for _, f := range fields {
		if len(f) > len("role=") && f[:len("role=")] == "role=" {
			switch Role(f[len("role="):]) {
			case RolePhysics:
				return RolePhysics
			case RoleUI:
				return RoleUI
			case RoleAudio:
				return RoleAudio
			case RoleOSManager:
				return RoleOSManager
			}
		}
	}
	return RoleUnknown
}

// Stop tears down the advertisement loop.
func (m *Manager) Stop() {
	m.cancel()
}

func getLocalIPs() ([]net.IP, error) {
	var ips []net.IP

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
				if ipnet.IP.To4() != nil {
					ips = append(ips, ipnet.IP)
				}
			}
		}
	}

	return ips, nil
}
