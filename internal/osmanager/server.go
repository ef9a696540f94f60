package osmanager

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/aortez/dirtsim/internal/discovery"
	"github.com/aortez/dirtsim/internal/osmanager/sshexec"
	"github.com/aortez/dirtsim/pkg/dispatch"
	"github.com/aortez/dirtsim/pkg/envelope"
	"github.com/aortez/dirtsim/pkg/wsnet"
)

// ServerConfig holds one OS-manager process's startup configuration.
type ServerConfig struct {
	Port        int
	Name        string
	EnableMDNS  bool
	WorkDir     string
	SelfHost    string
	SelfSSHUser string
	SelfSSHPort int
	Logf        func(format string, args ...any)
}

// Server fronts a Manager with the WebSocketService command table from
// §4.7: TrustPeer, UntrustPeer, TrustBundleGet, RemoteCliRun.
type Server struct {
	config  ServerConfig
	logf    func(format string, args ...any)
	manager *Manager

	wsService *wsnet.Service
	mdns      *discovery.Manager

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewServer builds the Manager and command table; it does not start
// listening until Start.
func NewServer(config ServerConfig) (*Server, error) {
	manager := NewManager(config.WorkDir, config.SelfHost, config.SelfSSHUser, config.SelfSSHPort)
	if err := manager.EnsurePermissions(); err != nil {
		return nil, err
	}

	s := &Server{
		config:  config,
		logf:    config.Logf,
		manager: manager,
		stopCh:  make(chan struct{}),
	}

	table := dispatch.NewTable()
	s.wsService = wsnet.New(table, s.logf)
	s.registerCommands()
	s.wsService.SetJSONCommandDispatcher(s.dispatchJSON)

	return s, nil
}

func (s *Server) registerCommands() {
	wsnet.RegisterHandler(s.wsService, "TrustPeer", DecodeTrustPeerCmd, EncodeAckResp,
		func(corrID uint64, cmd TrustPeerCmd, reply func(envelope.Result[AckResp])) {
			if err := s.manager.TrustPeer(cmd.Bundle); err != nil {
				reply(envelope.Error[AckResp](err.Error()))
				return
			}
			reply(envelope.Okay(AckResp{}))
		})

	wsnet.RegisterHandler(s.wsService, "UntrustPeer", DecodeUntrustPeerCmd, EncodeAckResp,
		func(corrID uint64, cmd UntrustPeerCmd, reply func(envelope.Result[AckResp])) {
			if err := s.manager.UntrustPeer(cmd.Host); err != nil {
				reply(envelope.Error[AckResp](err.Error()))
				return
			}
			reply(envelope.Okay(AckResp{}))
		})

	wsnet.RegisterHandler(s.wsService, "TrustBundleGet", DecodeTrustBundleGetCmd, EncodeTrustBundleGetResp,
		func(corrID uint64, _ TrustBundleGetCmd, reply func(envelope.Result[TrustBundleGetResp])) {
			bundle, err := s.manager.TrustBundleGet()
			if err != nil {
				reply(envelope.Error[TrustBundleGetResp](err.Error()))
				return
			}
			reply(envelope.Okay(TrustBundleGetResp{Bundle: bundle}))
		})

	wsnet.RegisterHandler(s.wsService, "RemoteCliRun", DecodeRemoteCliRunCmd, EncodeRemoteCliRunResp,
		func(corrID uint64, cmd RemoteCliRunCmd, reply func(envelope.Result[RemoteCliRunResp])) {
			result, err := sshexec.RemoteCliRun(context.Background(), s.manager.Allowlist, s.manager.Keypair, cmd.Host, cmd.Argv, cmd.TimeoutMS)
			if err != nil {
				reply(envelope.Error[RemoteCliRunResp](err.Error()))
				return
			}
			reply(envelope.Okay(RemoteCliRunResp{
				ExitCode:  int32(result.ExitCode),
				Stdout:    result.Stdout,
				Stderr:    result.Stderr,
				ElapsedMS: result.ElapsedMS,
			}))
		})
}

// dispatchJSON is the JSON-bridge half of the command table (§4.1).
func (s *Server) dispatchJSON(name string, raw []byte) (any, *envelope.ApiError) {
	switch name {
	case "TrustPeer":
		var req struct {
			Bundle PeerTrustBundle `json:"bundle"`
		}
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, &envelope.ApiError{Message: err.Error()}
		}
		if err := s.manager.TrustPeer(req.Bundle); err != nil {
			return nil, &envelope.ApiError{Message: err.Error()}
		}
		return map[string]any{"ok": true}, nil

	case "UntrustPeer":
		var req struct {
			Host string `json:"host"`
		}
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, &envelope.ApiError{Message: err.Error()}
		}
		if err := s.manager.UntrustPeer(req.Host); err != nil {
			return nil, &envelope.ApiError{Message: err.Error()}
		}
		return map[string]any{"ok": true}, nil

	case "TrustBundleGet":
		bundle, err := s.manager.TrustBundleGet()
		if err != nil {
			return nil, &envelope.ApiError{Message: err.Error()}
		}
		return map[string]any{"bundle": bundle}, nil

	case "RemoteCliRun":
		var req struct {
			Host      string   `json:"host"`
			Argv      []string `json:"argv"`
			TimeoutMS int64    `json:"timeout_ms"`
		}
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, &envelope.ApiError{Message: err.Error()}
		}
		result, err := sshexec.RemoteCliRun(context.Background(), s.manager.Allowlist, s.manager.Keypair, req.Host, req.Argv, req.TimeoutMS)
		if err != nil {
			return nil, &envelope.ApiError{Message: err.Error()}
		}
		return map[string]any{
			"exit_code":  result.ExitCode,
			"stdout":     string(result.Stdout),
			"stderr":     string(result.Stderr),
			"elapsed_ms": result.ElapsedMS,
		}, nil

	default:
		return nil, &envelope.ApiError{Message: "unknown command: " + name}
	}
}

// Start runs the WebSocket listener and mDNS advertisement until Stop is
// called or the transport fails fatally. It blocks.
func (s *Server) Start() error {
	if s.config.EnableMDNS {
		s.mdns = discovery.NewManager(discovery.Config{
			Name: s.config.Name,
			Port: s.config.Port,
			Role: discovery.RoleOSManager,
			Logf: s.logf,
		})
		if err := s.mdns.Advertise(); err != nil && s.logf != nil {
			s.logf("osmanager: mDNS advertisement failed: %v", err)
		}
	}

	listenCtx, cancelListen := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.wsService.Listen(listenCtx, s.config.Port); err != nil {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-s.stopCh:
	case err := <-errCh:
		runErr = err
	}

	cancelListen()
	if s.mdns != nil {
		s.mdns.Stop()
	}
	s.wsService.Close()
	s.wg.Wait()
	return runErr
}

// Stop requests a graceful shutdown; safe to call multiple times.
func (s *Server) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}
