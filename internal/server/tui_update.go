package server

import "time"

// pollTUI periodically snapshots the server's live state and pushes it to
// the TUI, independent of the state machine's own goroutine.
func (s *Server) pollTUI(t *serverTUI) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			stats, _ := s.doGetStats()
			fps, _ := s.doGetFPS()
			t.push(serverStatus{
				Name:            s.config.Name,
				Port:            s.config.Port,
				ScenarioID:      stats.ScenarioID,
				FPS:             fps.FPS,
				FramesRendered:  stats.FramesRendered,
				SubscriberCount: s.broadcaster.Count(),
			})
		case <-s.stopCh:
			return
		}
	}
}
