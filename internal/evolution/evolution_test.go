package evolution

import "testing"

func newTestSession() *Session {
	return NewSession(NewMemoryRepository())
}

func TestTrainingResultSaveDedupsAndDiscardsRest(t *testing.T) {
	s := newTestSession()
	s.EvolutionStart()
	s.Complete(Summary{GenerationCount: 5, BestFitness: 0.9}, []Candidate{
		{ID: "A", Genome: []byte("a")},
		{ID: "B", Genome: []byte("b")},
		{ID: "C", Genome: []byte("c")},
	})

	result, err := s.TrainingResultSave([]string{"A", "A"})
	if err != nil {
		t.Fatalf("TrainingResultSave: %v", err)
	}
	if len(result.Saved) != 1 || result.Saved[0] != "A" {
		t.Fatalf("expected [A] saved (deduped), got %v", result.Saved)
	}
	if result.DiscardedCount != 2 {
		t.Fatalf("expected 2 discarded, got %d", result.DiscardedCount)
	}
	if s.HasUnsavedResult() {
		t.Fatal("expected session to return to Idle after save")
	}
}

func TestTrainingResultSaveUnknownIDErrors(t *testing.T) {
	s := newTestSession()
	s.EvolutionStart()
	s.Complete(Summary{}, []Candidate{{ID: "A"}})

	if _, err := s.TrainingResultSave([]string{"Z"}); err == nil {
		t.Fatal("expected error for unknown candidate id")
	}
}

func TestTrainingResultDiscardClearsSession(t *testing.T) {
	s := newTestSession()
	s.EvolutionStart()
	s.Complete(Summary{}, []Candidate{{ID: "A"}})

	s.TrainingResultDiscard()
	if s.HasUnsavedResult() {
		t.Fatal("expected no unsaved result after discard")
	}
}

func TestEvolutionStartDiscardsPendingResult(t *testing.T) {
	s := newTestSession()
	s.EvolutionStart()
	s.Complete(Summary{}, []Candidate{{ID: "A"}})

	s.EvolutionStart() // restart discards the pending result per §4.10
	if s.HasUnsavedResult() {
		t.Fatal("expected EvolutionStart to discard the pending result")
	}
	if !s.Running() {
		t.Fatal("expected a fresh run to be marked running")
	}
}

func TestSaveRejectsAlreadyPersistedCandidate(t *testing.T) {
	repo := NewMemoryRepository()
	_ = repo.Save("A", []byte("a"), nil)

	s := NewSession(repo)
	s.EvolutionStart()
	s.Complete(Summary{}, []Candidate{{ID: "A"}})

	if _, err := s.TrainingResultSave([]string{"A"}); err == nil {
		t.Fatal("expected error when candidate id already saved in the repository")
	}
}
