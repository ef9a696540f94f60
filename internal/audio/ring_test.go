package audio

import "testing"

func TestRingPushDrainOrder(t *testing.T) {
	r := NewCommandRing()
	for i := uint32(0); i < 5; i++ {
		if !r.Push(Command{Kind: CommandNoteOn, NoteOn: NoteOnParams{NoteID: i}}) {
			t.Fatalf("push %d failed", i)
		}
	}

	var got []uint32
	r.Drain(func(c Command) { got = append(got, c.NoteOn.NoteID) })

	for i, v := range got {
		if v != uint32(i) {
			t.Fatalf("expected enqueue order, got %v", got)
		}
	}
}

func TestRingDropsWhenFull(t *testing.T) {
	r := NewCommandRing()
	var dropped int
	r.OnDropped(func(Command) { dropped++ })

	for i := 0; i < ringCapacity; i++ {
		if !r.Push(Command{}) {
			t.Fatalf("push %d should have succeeded", i)
		}
	}
	if r.Push(Command{}) {
		t.Fatal("expected 129th push to be dropped")
	}
	if dropped != 1 {
		t.Fatalf("expected 1 dropped command, got %d", dropped)
	}
}

func TestRingMultiProducerCAS(t *testing.T) {
	r := NewCommandRing()
	r.AllowMultiProducer = true

	done := make(chan struct{})
	for g := 0; g < 4; g++ {
		go func(base int) {
			for i := 0; i < 16; i++ {
				r.Push(Command{NoteOn: NoteOnParams{NoteID: uint32(base*16 + i)}})
			}
			done <- struct{}{}
		}(g)
	}
	for g := 0; g < 4; g++ {
		<-done
	}

	count := 0
	r.Drain(func(Command) { count++ })
	if count != 64 {
		t.Fatalf("expected 64 commands drained, got %d", count)
	}
}
