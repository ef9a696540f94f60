package ui

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aortez/dirtsim/internal/render"
	"github.com/aortez/dirtsim/internal/ui/states"
	"github.com/aortez/dirtsim/pkg/dispatch"
	"github.com/aortez/dirtsim/pkg/envelope"
	"github.com/aortez/dirtsim/pkg/statemachine"
	"github.com/aortez/dirtsim/pkg/wsnet"
)

// Config holds one UI process's startup configuration.
type Config struct {
	ServerURL  string // ws://host:port for the physics server
	AudioURL   string // ws://host:port for the audio process
	ListenPort int    // this process's own CLI-facing port (§6 default 7070)
	Logf       func(format string, args ...any)
}

// Process owns the UI state machine and the two client-mode connections it
// drives: the physics server (commands + RenderMessage push) and the audio
// process (NoteOn/NoteOff).
type Process struct {
	config Config
	logf   func(format string, args ...any)

	serverSvc *wsnet.Service
	audioSvc  *wsnet.Service
	listenSvc *wsnet.Service

	ctx     *states.Context
	machine *statemachine.Machine[*states.Context, states.Event]

	framesReceived atomic.Uint64

	mu       sync.Mutex
	lastFull render.RenderMessageFull

	stopOnce sync.Once
	stopCh   chan struct{}
}

// New builds a Process; Connect must be called before Run.
func New(config Config) *Process {
	p := &Process{config: config, logf: config.Logf, stopCh: make(chan struct{})}

	audioTable := dispatch.NewTable()
	p.audioSvc = wsnet.New(audioTable, p.logf)

	serverTable := dispatch.NewTable()
	serverTable.Register("RenderMessage", func(corrID uint64, payload []byte, reply func(string, []byte)) {
		p.handleRenderPush(payload)
	})
	p.serverSvc = wsnet.New(serverTable, p.logf)

	listenTable := dispatch.NewTable()
	p.listenSvc = wsnet.New(listenTable, p.logf)
	p.registerCLICommands()
	p.listenSvc.SetJSONCommandDispatcher(p.dispatchJSON)

	p.ctx = &states.Context{Link: newAudioLink(p.audioSvc), Logger: p.logf}
	p.machine = states.NewMachine(p.ctx)

	return p
}

// registerCLICommands wires the commands dirtsim-cli's "ui" target can
// invoke directly against this process (§6): StatusGet and Screenshot.
// Screenshot always fails here since widget rendering is out of scope
// (§1); the command exists so the CLI surface is complete end-to-end.
func (p *Process) registerCLICommands() {
	wsnet.RegisterHandler(p.listenSvc, "StatusGet", decodeEmptyCmd, encodeStatusResp,
		func(corrID uint64, _ emptyCmd, reply func(envelope.Result[statusResp])) {
			reply(envelope.Okay(statusResp{
				State:          p.machine.StateName(),
				FramesReceived: p.framesReceived.Load(),
			}))
		})

	wsnet.RegisterHandler(p.listenSvc, "Screenshot", decodeEmptyCmd, encodeScreenshotResp,
		func(corrID uint64, _ emptyCmd, reply func(envelope.Result[screenshotResp])) {
			reply(envelope.Error[screenshotResp]("screenshot unavailable: headless UI process, no widget renderer"))
		})
}

// dispatchJSON is the JSON-bridge half of the CLI-facing command table
// (§4.1), mirroring registerCLICommands' binary handlers.
func (p *Process) dispatchJSON(name string, raw []byte) (any, *envelope.ApiError) {
	switch name {
	case "StatusGet":
		return map[string]any{
			"state":           p.machine.StateName(),
			"frames_received": p.framesReceived.Load(),
		}, nil

	case "Screenshot":
		return nil, &envelope.ApiError{Message: "screenshot unavailable: headless UI process, no widget renderer"}

	default:
		return nil, &envelope.ApiError{Message: "unknown command: " + name}
	}
}

// Start begins listening for CLI-facing commands on ListenPort. It does
// not block; call Run for the UI state machine's own event loop.
func (p *Process) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		if err := p.listenSvc.Listen(ctx, p.config.ListenPort); err != nil {
			errCh <- err
		}
	}()
	go func() {
		select {
		case err := <-errCh:
			if p.logf != nil {
				p.logf("ui: CLI listener failed: %v", err)
			}
		case <-p.stopCh:
		}
		cancel()
	}()
	return nil
}

// Connect dials both the audio process and the physics server, posting
// ServerConnected once the server link is up.
func (p *Process) Connect(timeout time.Duration) error {
	if err := p.audioSvc.Connect(p.config.AudioURL, timeout); err != nil {
		return err
	}
	if err := p.serverSvc.Connect(p.config.ServerURL, timeout); err != nil {
		return err
	}
	if err := p.subscribeRenderFormat(render.FormatBasic, timeout); err != nil && p.logf != nil {
		p.logf("ui: RenderFormatSet failed: %v", err)
	}
	p.machine.Post(states.ServerConnected{})
	return nil
}

// subscribeRenderFormat opts this connection into the server's render
// broadcast at the given format (§4.6).
func (p *Process) subscribeRenderFormat(format render.Format, timeout time.Duration) error {
	env := envelope.Envelope{
		CorrelationID: p.serverSvc.NextCorrelationID(),
		Kind:          envelope.KindCommand,
		Name:          "RenderFormatSet",
		Payload:       render.EncodeFormatSetCmd(format),
	}
	resp, err := p.serverSvc.SendBinaryAndReceive(env, timeout)
	if err != nil {
		return err
	}
	r := envelope.NewReader(bytes.NewReader(resp.Payload))
	ok, err := r.ReadBool()
	if err != nil {
		return err
	}
	if !ok {
		apiErr, err := envelope.DecodeApiError(r)
		if err != nil {
			return err
		}
		return errors.New(apiErr.Message)
	}
	return nil
}

// Run drives the state machine's event loop until Stop is called.
func (p *Process) Run() { p.machine.Run() }

// Stop halts the state machine, the CLI listener, and both outbound
// connections.
func (p *Process) Stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
	p.machine.Post(states.Quit{})
	p.machine.Stop()
	p.serverSvc.CloseClient()
	p.audioSvc.CloseClient()
	p.listenSvc.Close()
}

// Post forwards a UI event to the state machine, e.g. from an input
// handler the embedding cmd binary owns.
func (p *Process) Post(event states.Event) { p.machine.Post(event) }

// FramesReceived reports how many RenderMessage pushes this process has
// received since Connect, for diagnostics.
func (p *Process) FramesReceived() uint64 { return p.framesReceived.Load() }

func (p *Process) handleRenderPush(payload []byte) {
	r := envelope.NewReader(bytes.NewReader(payload))
	full, err := render.DecodeRenderMessageFull(r)
	if err != nil {
		if p.logf != nil {
			p.logf("ui: dropping malformed RenderMessage: %v", err)
		}
		return
	}
	p.framesReceived.Add(1)
	p.mu.Lock()
	p.lastFull = full
	p.mu.Unlock()
}

// LastFrame returns the most recently received render frame, if any.
func (p *Process) LastFrame() render.RenderMessageFull {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastFull
}
