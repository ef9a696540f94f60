package render

import (
	"sync"
	"testing"
	"time"

	"github.com/aortez/dirtsim/internal/world"
)

type fakeSender struct {
	mu  sync.Mutex
	got map[ConnID]int
}

func newFakeSender() *fakeSender { return &fakeSender{got: make(map[ConnID]int)} }

func (f *fakeSender) SendPush(connID ConnID, _ RenderMessageFull) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got[connID]++
	return nil
}

func (f *fakeSender) count(id ConnID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.got[id]
}

type packableData struct{ data *world.Data }

func (p packableData) Pack(format Format) RenderMessage { return Packer{}.Pack(p.data, format) }

func TestBroadcastDeliversToSubscribers(t *testing.T) {
	sender := newFakeSender()
	b := NewBroadcaster(sender)
	defer b.Stop()

	b.Subscribe("conn-1", FormatBasic)
	b.Subscribe("conn-2", FormatDebug)

	data := packableData{data: world.NewData(4, 4)}
	b.Broadcast("sandbox", nil, data)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if sender.count("conn-1") > 0 && sender.count("conn-2") > 0 {
			break
		}
		time.Sleep(time.Millisecond)
	}

	if sender.count("conn-1") == 0 || sender.count("conn-2") == 0 {
		t.Fatalf("expected both subscribers to receive a push, got %+v", sender.got)
	}
}

func TestBroadcastNeverBlocksOnFullQueue(t *testing.T) {
	sender := &blockingSender{release: make(chan struct{})}
	b := NewBroadcaster(sender)
	defer func() {
		close(sender.release)
		b.Stop()
	}()

	b.Subscribe("slow", FormatBasic)
	data := packableData{data: world.NewData(2, 2)}

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			b.Broadcast("sandbox", nil, data)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Broadcast blocked on a full subscriber queue")
	}
}

type blockingSender struct {
	once    sync.Once
	release chan struct{}
}

func (b *blockingSender) SendPush(ConnID, RenderMessageFull) error {
	b.once.Do(func() { <-b.release })
	return nil
}
