// Package evolution implements the training orchestration state machine
// (§4.10): Idle → RunningEvolution → UnsavedTrainingResult → Idle, with a
// genome repository dedup check on save.
package evolution

import (
	"fmt"
	"sort"
)

// Candidate is one genome produced by a completed evolution run.
type Candidate struct {
	ID       string
	Genome   []byte
	Metadata map[string]string
}

// Summary describes the run that produced the current candidate set.
type Summary struct {
	GenerationCount int
	BestFitness     float64
}

// Repository is the persistent genome store; TreeGermination's
// scenario.GenomeRepository is a read path onto the same store.
type Repository interface {
	Has(id string) bool
	Save(id string, genome []byte, metadata map[string]string) error
}

// SaveResult reports what TrainingResultSave actually did.
type SaveResult struct {
	Saved          []string
	DiscardedCount int
}

// Session holds the server-side evolution machine's state: an optional
// pending result plus the candidate set it was offered.
type Session struct {
	repo       Repository
	summary    *Summary
	candidates map[string]Candidate
	running    bool
}

// NewSession constructs an idle evolution session against repo.
func NewSession(repo Repository) *Session {
	return &Session{repo: repo}
}

// Running reports whether a RunningEvolution pass is in flight.
func (s *Session) Running() bool { return s.running }

// HasUnsavedResult reports whether the session is in UnsavedTrainingResult.
func (s *Session) HasUnsavedResult() bool { return s.summary != nil }

// EvolutionStart begins (or restarts) a run, discarding any unsaved result
// per §4.10's "EvolutionStart discards unsaved results" rule.
func (s *Session) EvolutionStart() {
	s.summary = nil
	s.candidates = nil
	s.running = true
}

// Complete transitions RunningEvolution -> UnsavedTrainingResult, recording
// the finished run's summary and candidate set.
func (s *Session) Complete(summary Summary, candidates []Candidate) {
	s.running = false
	s.summary = &summary
	s.candidates = make(map[string]Candidate, len(candidates))
	for _, c := range candidates {
		s.candidates[c.ID] = c
	}
}

// TrainingResultSave validates and persists the named candidates,
// returning to Idle on success. ids must be non-empty, all present in the
// candidate set, and none already saved in the repository; duplicate ids
// in the request are deduplicated rather than rejected.
func (s *Session) TrainingResultSave(ids []string) (SaveResult, error) {
	if s.summary == nil {
		return SaveResult{}, fmt.Errorf("no unsaved training result to save")
	}
	if len(ids) == 0 {
		return SaveResult{}, fmt.Errorf("TrainingResultSave requires at least one id")
	}

	deduped := dedup(ids)
	for _, id := range deduped {
		if _, ok := s.candidates[id]; !ok {
			return SaveResult{}, fmt.Errorf("candidate id not found: %q", id)
		}
		if s.repo.Has(id) {
			return SaveResult{}, fmt.Errorf("candidate id already saved: %q", id)
		}
	}

	for _, id := range deduped {
		c := s.candidates[id]
		if err := s.repo.Save(c.ID, c.Genome, c.Metadata); err != nil {
			return SaveResult{}, fmt.Errorf("save candidate %q: %w", id, err)
		}
	}

	result := SaveResult{Saved: deduped, DiscardedCount: len(s.candidates) - len(deduped)}
	s.summary = nil
	s.candidates = nil
	return result, nil
}

// TrainingResultDiscard drops every pending candidate and returns to Idle.
func (s *Session) TrainingResultDiscard() {
	s.summary = nil
	s.candidates = nil
}

func dedup(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
