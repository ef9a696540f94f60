// Package server implements the DirtSim simulation server process: the
// state machine from §4.3, its command table, render broadcast, and mDNS
// advertisement, all fronted by one pkg/wsnet.Service.
package server

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aortez/dirtsim/internal/discovery"
	"github.com/aortez/dirtsim/internal/evolution"
	"github.com/aortez/dirtsim/internal/logging"
	"github.com/aortez/dirtsim/internal/render"
	"github.com/aortez/dirtsim/internal/scenario"
	"github.com/aortez/dirtsim/internal/scenario/registry"
	"github.com/aortez/dirtsim/internal/server/states"
	"github.com/aortez/dirtsim/pkg/dispatch"
	"github.com/aortez/dirtsim/pkg/statemachine"
	"github.com/aortez/dirtsim/pkg/wsnet"
	"go.uber.org/zap"
)

// Config holds one server process's startup configuration.
type Config struct {
	Port       int
	Name       string
	EnableMDNS bool
	LogDir     string
	UseTUI     bool
	RomDir     string // NES ROM directory; empty uses the registry's default
}

const defaultTickRate = 60 // Hz, matches the UI's expected frame cadence.

// Server owns the simulation state machine, its command table, the render
// broadcaster, and the mDNS advertiser for one running process.
type Server struct {
	config Config

	logs   *logging.Registry
	logger *zap.SugaredLogger

	session    *scenario.Session
	catalog    *registry.Registry
	genomeRepo *evolution.MemoryRepository
	training   *evolution.Session

	sctx    *states.Context
	machine *statemachine.Machine[*states.Context, states.Event]

	broadcaster *render.Broadcaster
	wsService   *wsnet.Service
	mdns        *discovery.Manager

	tui *serverTUI

	timestep   atomic.Uint64 // math.Float64bits of the active SimRun's timestep
	maxSteps   atomic.Int32  // -1 = unbounded
	stepsTaken atomic.Int32
	running    atomic.Bool

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// New builds a Server from config; it does not start listening or
// advertising until Start is called.
func New(config Config) (*Server, error) {
	logCfg, err := logging.Load(config.LogDir)
	if err != nil {
		return nil, fmt.Errorf("server: load logging config: %w", err)
	}
	logs := logging.NewRegistry(logCfg)
	logger := logs.Channel("physics")

	genomeRepo := evolution.NewMemoryRepository()
	catalog := registry.NewDefault(genomeRepo, config.RomDir)

	s := &Server{
		config:     config,
		logs:       logs,
		logger:     logger,
		session:    &scenario.Session{},
		catalog:    catalog,
		genomeRepo: genomeRepo,
		training:   evolution.NewSession(genomeRepo),
		stopCh:     make(chan struct{}),
	}
	s.maxSteps.Store(-1)
	s.timestep.Store(math.Float64bits(1.0 / defaultTickRate))

	table := dispatch.NewTable()
	s.wsService = wsnet.New(table, func(format string, args ...any) {
		logger.Infof(format, args...)
	})
	s.broadcaster = render.NewBroadcaster(newWSNetSender(s.wsService))

	s.sctx = &states.Context{
		Session:     s.session,
		Registry:    s.catalog,
		Broadcaster: s.broadcaster,
		Logger:      func(format string, args ...any) { logger.Infof(format, args...) },
	}
	s.machine = states.NewMachine(s.sctx)

	s.registerCommands()
	s.wsService.SetJSONCommandDispatcher(s.dispatchJSON)
	s.wsService.OnConnect(func(conn *wsnet.Conn) {
		logger.Infof("server: connection opened: %s", conn.ID)
	})
	s.wsService.OnDisconnect(func(id wsnet.ConnID) {
		s.broadcaster.Unsubscribe(render.ConnID(id))
		logger.Infof("server: connection closed: %s", id)
	})

	return s, nil
}

// Start runs the server until Stop is called, a fatal transport error
// occurs, or the TUI requests quit. It blocks.
func (s *Server) Start() error {
	if s.config.UseTUI {
		s.tui = newServerTUI(s.config.Name, s.config.Port, s)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.tui.Run()
		}()
		time.Sleep(100 * time.Millisecond)
	}

	if s.config.EnableMDNS {
		s.mdns = discovery.NewManager(discovery.Config{
			Name: s.config.Name,
			Port: s.config.Port,
			Role: discovery.RolePhysics,
			Logf: func(format string, args ...any) { s.logger.Infof(format, args...) },
		})
		if err := s.mdns.Advertise(); err != nil {
			s.logger.Warnf("server: mDNS advertisement failed: %v", err)
		}
	}

	listenCtx, cancelListen := context.WithCancel(context.Background())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.machine.Run()
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.tickLoop()
	}()

	errCh := make(chan error, 1)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.wsService.Listen(listenCtx, s.config.Port); err != nil {
			errCh <- err
		}
	}()

	var tuiQuit <-chan struct{}
	if s.tui != nil {
		tuiQuit = s.tui.QuitChan()
	}

	var runErr error
	select {
	case <-s.stopCh:
		s.logger.Infof("server: stop requested")
	case <-tuiQuit:
		s.logger.Infof("server: TUI quit requested")
	case err := <-errCh:
		s.logger.Errorf("server: transport error: %v", err)
		runErr = err
	}

	cancelListen()
	s.machine.Stop()
	if s.tui != nil {
		s.tui.Stop()
	}
	if s.mdns != nil {
		s.mdns.Stop()
	}
	s.broadcaster.Stop()
	s.wsService.Close()
	_ = s.logs.Close()

	s.wg.Wait()
	return runErr
}

// Stop requests a graceful shutdown; safe to call multiple times.
func (s *Server) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// tickLoop drives the simulation at a fixed wall-clock cadence, posting
// Tick events only while the active SimRun hasn't exceeded its max_steps
// bound. Tick is silently dropped by every state but SimRunning and Startup
// (which advances to Idle on any event), so this loop runs for the server's whole lifetime rather than being started and
// stopped per scenario.
func (s *Server) tickLoop() {
	ticker := time.NewTicker(time.Second / defaultTickRate)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if !s.running.Load() {
				continue
			}
			max := s.maxSteps.Load()
			taken := s.stepsTaken.Add(1)
			if max >= 0 && taken > max {
				s.running.Store(false)
				s.machine.Post(states.Stop{})
				continue
			}
			s.machine.Post(states.Tick{DeltaTime: s.timestepSeconds()})
		case <-s.stopCh:
			return
		}
	}
}

func (s *Server) timestepSeconds() float64 {
	return math.Float64frombits(s.timestep.Load())
}
