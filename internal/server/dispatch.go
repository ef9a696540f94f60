package server

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/aortez/dirtsim/internal/render"
	"github.com/aortez/dirtsim/internal/server/states"
	"github.com/aortez/dirtsim/pkg/envelope"
	"github.com/aortez/dirtsim/pkg/wsnet"
)

// registerCommands wires every name in §4.2's server command table into
// s.wsService, binary form via wsnet.RegisterHandler and JSON form via
// dispatchJSON below, both funnelling into the same do* core logic so the
// two transports never diverge. Every binary response is carried as
// envelope.Result[T] per §3's "every response carries a Result" rule.
func (s *Server) registerCommands() {
	wsnet.RegisterHandler(s.wsService, "StatusGet", decodeStatusGetCmd, encodeStatusGetResp,
		func(corrID uint64, _ statusGetCmd, reply func(envelope.Result[statusGetResp])) {
			resp, err := s.doStatusGet()
			reply(toResult(resp, err))
		})

	wsnet.RegisterHandler(s.wsService, "SimRun", decodeSimRunCmd, encodeSimRunResp,
		func(corrID uint64, cmd simRunCmd, reply func(envelope.Result[simRunResp])) {
			resp, err := s.doSimRun(cmd)
			reply(toResult(resp, err))
		})

	wsnet.RegisterHandler(s.wsService, "Pause", decodeEmptyCmd, encodeAckResp,
		func(corrID uint64, _ emptyCmd, reply func(envelope.Result[ackResp])) {
			reply(toResult(s.doPause()))
		})

	wsnet.RegisterHandler(s.wsService, "Resume", decodeEmptyCmd, encodeAckResp,
		func(corrID uint64, _ emptyCmd, reply func(envelope.Result[ackResp])) {
			reply(toResult(s.doResume()))
		})

	wsnet.RegisterHandler(s.wsService, "Stop", decodeEmptyCmd, encodeAckResp,
		func(corrID uint64, _ emptyCmd, reply func(envelope.Result[ackResp])) {
			reply(toResult(s.doStop()))
		})

	wsnet.RegisterHandler(s.wsService, "EvolutionStart", decodeEmptyCmd, encodeAckResp,
		func(corrID uint64, _ emptyCmd, reply func(envelope.Result[ackResp])) {
			reply(toResult(s.doEvolutionStart()))
		})

	wsnet.RegisterHandler(s.wsService, "TrainingResultSave", decodeTrainingResultSaveCmd, encodeTrainingResultSaveResp,
		func(corrID uint64, cmd trainingResultSaveCmd, reply func(envelope.Result[trainingResultSaveResp])) {
			resp, err := s.doTrainingResultSave(cmd.IDs)
			reply(toResult(resp, err))
		})

	wsnet.RegisterHandler(s.wsService, "TrainingResultDiscard", decodeEmptyCmd, encodeAckResp,
		func(corrID uint64, _ emptyCmd, reply func(envelope.Result[ackResp])) {
			reply(toResult(s.doTrainingResultDiscard()))
		})

	wsnet.RegisterHandler(s.wsService, "Quit", decodeEmptyCmd, encodeAckResp,
		func(corrID uint64, _ emptyCmd, reply func(envelope.Result[ackResp])) {
			reply(toResult(s.doQuit()))
		})

	wsnet.RegisterHandler(s.wsService, "GetFPS", decodeEmptyCmd, encodeGetFPSResp,
		func(corrID uint64, _ emptyCmd, reply func(envelope.Result[getFPSResp])) {
			reply(toResult(s.doGetFPS()))
		})

	wsnet.RegisterHandler(s.wsService, "GetStats", decodeEmptyCmd, encodeGetStatsResp,
		func(corrID uint64, _ emptyCmd, reply func(envelope.Result[getStatsResp])) {
			reply(toResult(s.doGetStats()))
		})

	// RenderFormatSet needs the originating connection id to key the
	// broadcaster's subscriber table, so it goes through the connection-
	// aware path instead of the generic dispatch table.
	s.wsService.RegisterConnHandler("RenderFormatSet", func(conn *wsnet.Conn, corrID uint64, payload []byte) {
		cmd, err := decodeRenderFormatSetCmd(payload)
		var res envelope.Result[ackResp]
		if err != nil {
			res = envelope.Error[ackResp](err.Error())
		} else {
			s.broadcaster.Subscribe(render.ConnID(conn.ID), cmd.Format)
			res = envelope.Okay(ackResp{})
		}
		conn.SendEnvelope(envelope.Envelope{
			CorrelationID: corrID,
			Kind:          envelope.KindResponse,
			Name:          "RenderFormatSet",
			Payload:       encodeRenderFormatSetResp(res),
		})
	})
}

// toResult wraps a do* function's (value, error) pair into the wire-level
// Result every response carries, so callers never encode success/failure
// out-of-band.
func toResult[T any](v T, err error) envelope.Result[T] {
	if err != nil {
		return envelope.Error[T](err.Error())
	}
	return envelope.Okay(v)
}

func (s *Server) doStatusGet() (statusGetResp, error) {
	resp := statusGetResp{ScenarioID: s.session.ScenarioID(), Timestep: s.timestepSeconds()}
	if w, _, err := s.session.RequireGridWorld(); err == nil {
		resp.Width, resp.Height = int32(w.Width), int32(w.Height)
	} else if _, _, shim, err := s.session.RequireNesWorld(); err == nil {
		resp.Width, resp.Height = int32(shim.Width), int32(shim.Height)
	}
	return resp, nil
}

func (s *Server) doSimRun(cmd simRunCmd) (simRunResp, error) {
	if !s.catalog.IsNes(cmd.ScenarioID) {
		if _, ok := s.catalog.Lookup(cmd.ScenarioID); !ok {
			return simRunResp{}, fmt.Errorf("server: unknown scenario %q", cmd.ScenarioID)
		}
	}

	s.timestep.Store(math.Float64bits(cmd.Timestep))
	s.maxSteps.Store(cmd.MaxSteps)
	s.stepsTaken.Store(0)
	s.running.Store(true)

	s.machine.Post(states.StartScenario{ScenarioID: cmd.ScenarioID})
	return simRunResp{Running: true}, nil
}

func (s *Server) doPause() (ackResp, error) {
	s.running.Store(false)
	s.machine.Post(states.Pause{})
	return ackResp{}, nil
}

func (s *Server) doResume() (ackResp, error) {
	s.running.Store(true)
	s.machine.Post(states.Resume{})
	return ackResp{}, nil
}

func (s *Server) doStop() (ackResp, error) {
	s.running.Store(false)
	s.machine.Post(states.Stop{})
	return ackResp{}, nil
}

func (s *Server) doEvolutionStart() (ackResp, error) {
	s.training.EvolutionStart()
	s.machine.Post(states.StartEvolution{})
	return ackResp{}, nil
}

func (s *Server) doTrainingResultSave(ids []string) (trainingResultSaveResp, error) {
	result, err := s.training.TrainingResultSave(ids)
	if err != nil {
		return trainingResultSaveResp{}, err
	}
	s.machine.Post(states.TrainingResultSave{})
	return trainingResultSaveResp{Saved: result.Saved, DiscardedCount: int32(result.DiscardedCount)}, nil
}

func (s *Server) doTrainingResultDiscard() (ackResp, error) {
	s.training.TrainingResultDiscard()
	s.machine.Post(states.TrainingResultDiscard{})
	return ackResp{}, nil
}

func (s *Server) doQuit() (ackResp, error) {
	s.machine.Post(states.Quit{})
	s.Stop()
	return ackResp{}, nil
}

func (s *Server) doGetFPS() (getFPSResp, error) {
	reply := make(chan float64, 1)
	s.machine.Post(states.GetFPS{Reply: func(fps float64) { reply <- fps }})
	return getFPSResp{FPS: <-reply}, nil
}

func (s *Server) doGetStats() (getStatsResp, error) {
	reply := make(chan states.Stats, 1)
	s.machine.Post(states.GetStats{Reply: func(st states.Stats) { reply <- st }})
	st := <-reply
	return getStatsResp{FramesRendered: st.FramesRendered, ScenarioID: st.ScenarioID}, nil
}

// dispatchJSON is the JSON-bridge half of the command table (§4.1),
// unmarshaling the same raw request object each binary command decodes
// structurally, and funnelling into the identical do* core logic.
func (s *Server) dispatchJSON(name string, raw []byte) (any, *envelope.ApiError) {
	switch name {
	case "StatusGet":
		r, err := s.doStatusGet()
		if err != nil {
			return nil, &envelope.ApiError{Message: err.Error()}
		}
		return map[string]any{
			"scenario_id": r.ScenarioID,
			"width":       r.Width,
			"height":      r.Height,
			"timestep":    r.Timestep,
		}, nil

	case "SimRun":
		var req struct {
			ScenarioID string  `json:"scenario_id"`
			Timestep   float64 `json:"timestep"`
			MaxSteps   int32   `json:"max_steps"`
			MaxFrameMS int32   `json:"max_frame_ms"`
		}
		req.MaxSteps = -1
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, &envelope.ApiError{Message: err.Error()}
		}
		r, err := s.doSimRun(simRunCmd{ScenarioID: req.ScenarioID, Timestep: req.Timestep, MaxSteps: req.MaxSteps, MaxFrameMS: req.MaxFrameMS})
		if err != nil {
			return nil, &envelope.ApiError{Message: err.Error()}
		}
		return map[string]any{"running": r.Running}, nil

	case "Pause":
		s.doPause()
		return map[string]any{"ok": true}, nil

	case "Resume":
		s.doResume()
		return map[string]any{"ok": true}, nil

	case "Stop":
		s.doStop()
		return map[string]any{"ok": true}, nil

	case "EvolutionStart":
		s.doEvolutionStart()
		return map[string]any{"ok": true}, nil

	case "TrainingResultSave":
		var req struct {
			IDs []string `json:"ids"`
		}
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, &envelope.ApiError{Message: err.Error()}
		}
		r, err := s.doTrainingResultSave(req.IDs)
		if err != nil {
			return nil, &envelope.ApiError{Message: err.Error()}
		}
		return map[string]any{"saved": r.Saved, "discarded_count": r.DiscardedCount}, nil

	case "TrainingResultDiscard":
		s.doTrainingResultDiscard()
		return map[string]any{"ok": true}, nil

	case "GetFPS":
		r, _ := s.doGetFPS()
		return map[string]any{"fps": r.FPS}, nil

	case "GetStats":
		r, _ := s.doGetStats()
		return map[string]any{"frames_rendered": r.FramesRendered, "scenario_id": r.ScenarioID}, nil

	case "Quit":
		s.doQuit()
		return map[string]any{"ok": true}, nil

	default:
		return nil, &envelope.ApiError{Message: "unknown command: " + name}
	}
}
