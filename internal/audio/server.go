package audio

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/aortez/dirtsim/internal/audiodevice"
	"github.com/aortez/dirtsim/internal/discovery"
	"github.com/aortez/dirtsim/pkg/dispatch"
	"github.com/aortez/dirtsim/pkg/envelope"
	"github.com/aortez/dirtsim/pkg/wsnet"
)

// ServerConfig holds one audio process's startup configuration.
type ServerConfig struct {
	Port         int
	Name         string
	EnableMDNS   bool
	DeviceName   string // empty selects the device-open policy's fallback chain
	SampleRate   int
	Channels     int
	BufferFrames int
	Logf         func(format string, args ...any)
}

const defaultSampleRate = 44100
const defaultChannels = 1
const defaultBufferFrames = 512

// Server is the audio process: a voice engine, a real-time output device,
// and the WebSocketService fronting NoteOn/NoteOff/StatusGet (§4.4).
type Server struct {
	config ServerConfig
	logf   func(format string, args ...any)

	engine *Engine
	device audiodevice.Device

	wsService *wsnet.Service
	mdns      *discovery.Manager

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewServer opens the output device per the device-open policy and builds
// the command dispatch table; it does not start listening until Start.
func NewServer(config ServerConfig) (*Server, error) {
	if config.SampleRate == 0 {
		config.SampleRate = defaultSampleRate
	}
	if config.Channels == 0 {
		config.Channels = defaultChannels
	}
	if config.BufferFrames == 0 {
		config.BufferFrames = defaultBufferFrames
	}

	dev, err := audiodevice.Open(audiodevice.OpenOptions{
		ConfiguredName: config.DeviceName,
		SampleRate:     config.SampleRate,
		Channels:       config.Channels,
	})
	if err != nil {
		return nil, err
	}

	engine := NewEngine(config.SampleRate, dev.Name())
	engine.OnDroppedCommand(func(cmd Command) {
		if config.Logf != nil {
			config.Logf("audio: dropped command kind=%d, command ring full", cmd.Kind)
		}
	})

	s := &Server{
		config: config,
		logf:   config.Logf,
		engine: engine,
		device: dev,
		stopCh: make(chan struct{}),
	}

	table := dispatch.NewTable()
	s.wsService = wsnet.New(table, s.logf)
	s.registerCommands()
	s.wsService.SetJSONCommandDispatcher(s.dispatchJSON)

	return s, nil
}

func (s *Server) registerCommands() {
	wsnet.RegisterHandler(s.wsService, "NoteOn", DecodeNoteOnCmd, EncodeNoteOnResp,
		func(corrID uint64, cmd NoteOnCmd, reply func(envelope.Result[NoteOnResp])) {
			noteID, _ := s.engine.EnqueueNoteOn(NoteOnParams{
				NoteID:      cmd.NoteID,
				FrequencyHz: cmd.FrequencyHz,
				Amplitude:   cmd.Amplitude,
				AttackS:     cmd.AttackS,
				DurationS:   cmd.DurationS,
				ReleaseS:    cmd.ReleaseS,
				Waveform:    cmd.Waveform,
			})
			reply(envelope.Okay(NoteOnResp{NoteID: noteID}))
		})

	wsnet.RegisterHandler(s.wsService, "NoteOff", DecodeNoteOffCmd, EncodeAckResp,
		func(corrID uint64, cmd NoteOffCmd, reply func(envelope.Result[AckResp])) {
			s.engine.EnqueueNoteOff(cmd.NoteID)
			reply(envelope.Okay(AckResp{}))
		})

	wsnet.RegisterHandler(s.wsService, "StatusGet", DecodeStatusGetCmd, EncodeStatusGetResp,
		func(corrID uint64, _ StatusGetCmd, reply func(envelope.Result[StatusGetResp])) {
			st := s.engine.Status()
			reply(envelope.Okay(StatusGetResp{
				ActiveNotes: st.ActiveNotes,
				SampleRate:  int32(st.SampleRate),
				DeviceName:  st.DeviceName,
			}))
		})

	wsnet.RegisterHandler(s.wsService, "ListDevices", DecodeListDevicesCmd, EncodeListDevicesResp,
		func(corrID uint64, _ ListDevicesCmd, reply func(envelope.Result[ListDevicesResp])) {
			reply(envelope.Okay(ListDevicesResp{
				Names:   audiodevice.CandidateNames(),
				Current: s.engine.Status().DeviceName,
			}))
		})
}

// dispatchJSON is the JSON-bridge half of the command table (§4.1), using
// the same engine calls the binary handlers in registerCommands use.
func (s *Server) dispatchJSON(name string, raw []byte) (any, *envelope.ApiError) {
	switch name {
	case "NoteOn":
		var req struct {
			NoteID      uint32  `json:"note_id"`
			FrequencyHz float64 `json:"frequency_hz"`
			Amplitude   float64 `json:"amplitude"`
			AttackS     float64 `json:"attack_s"`
			DurationS   float64 `json:"duration_s"`
			ReleaseS    float64 `json:"release_s"`
			Waveform    uint8   `json:"waveform"`
		}
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, &envelope.ApiError{Message: err.Error()}
		}
		noteID, _ := s.engine.EnqueueNoteOn(NoteOnParams{
			NoteID:      req.NoteID,
			FrequencyHz: req.FrequencyHz,
			Amplitude:   req.Amplitude,
			AttackS:     req.AttackS,
			DurationS:   req.DurationS,
			ReleaseS:    req.ReleaseS,
			Waveform:    Waveform(req.Waveform),
		})
		return map[string]any{"ok": true, "note_id": noteID}, nil

	case "NoteOff":
		var req struct {
			NoteID uint32 `json:"note_id"`
		}
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, &envelope.ApiError{Message: err.Error()}
		}
		s.engine.EnqueueNoteOff(req.NoteID)
		return map[string]any{"ok": true}, nil

	case "StatusGet":
		st := s.engine.Status()
		notes := make([]map[string]any, 0, len(st.ActiveNotes))
		for _, n := range st.ActiveNotes {
			notes = append(notes, map[string]any{
				"note_id":        n.NoteID,
				"frequency_hz":   n.FrequencyHz,
				"amplitude":      n.Amplitude,
				"waveform":       n.Waveform,
				"envelope_state": n.EnvelopeState,
				"hold_state":     n.HoldState,
			})
		}
		return map[string]any{
			"active_notes": notes,
			"sample_rate":  st.SampleRate,
			"device_name":  st.DeviceName,
		}, nil

	case "ListDevices":
		return map[string]any{
			"names":   audiodevice.CandidateNames(),
			"current": s.engine.Status().DeviceName,
		}, nil

	default:
		return nil, &envelope.ApiError{Message: "unknown command: " + name}
	}
}

// Start runs the render loop and the WebSocket listener until Stop is
// called or the transport fails fatally. It blocks.
func (s *Server) Start() error {
	if s.config.EnableMDNS {
		s.mdns = discovery.NewManager(discovery.Config{
			Name: s.config.Name,
			Port: s.config.Port,
			Role: discovery.RoleAudio,
			Logf: s.logf,
		})
		if err := s.mdns.Advertise(); err != nil && s.logf != nil {
			s.logf("audio: mDNS advertisement failed: %v", err)
		}
	}

	listenCtx, cancelListen := context.WithCancel(context.Background())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.renderLoop()
	}()

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
	_ = s.device.Close()
	s.wg.Wait()
	return runErr
}

// Stop requests a graceful shutdown; safe to call multiple times.
func (s *Server) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// renderLoop pulls fixed-size buffers from the engine and writes them to
// the device at the cadence the device's buffer size implies, for the
// process's whole lifetime.
func (s *Server) renderLoop() {
	period := time.Second * time.Duration(s.config.BufferFrames) / time.Duration(s.config.SampleRate)
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := audiodevice.RenderInto(s.engine, s.device, s.config.BufferFrames); err != nil && s.logf != nil {
				s.logf("audio: device write failed: %v", err)
			}
		case <-s.stopCh:
			return
		}
	}
}
