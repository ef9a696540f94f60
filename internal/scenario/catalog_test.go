package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aortez/dirtsim/internal/world"
)

// testRomPath writes a minimal, mapper-0 iNES header to a temp file and
// returns its path, for tests that only care that StartNesWorld accepts a
// compatible ROM.
func testRomPath(t *testing.T) string {
	t.Helper()
	var header [16]byte
	copy(header[:], "NES\x1a")
	path := filepath.Join(t.TempDir(), "test.nes")
	if err := os.WriteFile(path, header[:], 0o644); err != nil {
		t.Fatalf("write test ROM: %v", err)
	}
	return path
}

func TestSandboxDropsDirtAfterInterval(t *testing.T) {
	w := world.NewData(4, 4)
	s := NewSandbox()
	s.Setup(w)
	s.Tick(w, 0.5)

	found := false
	for _, c := range w.Cells {
		if c.Material == world.MaterialDirt {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a dirt particle to have spawned")
	}
}

func TestDamBreakBreaksAfterConfiguredDelay(t *testing.T) {
	w := world.NewData(9, 3)
	s := NewDamBreak().(*damBreakScenario)
	s.Setup(w)

	s.Tick(w, 1)
	if s.broken {
		t.Fatal("dam should not have broken yet")
	}
	s.Tick(w, 1.5)
	if !s.broken {
		t.Fatal("expected dam to break after elapsed time exceeds BreakAfterS")
	}
	for y := 0; y < w.Height; y++ {
		if w.At(s.wallX, y).Material != world.MaterialAir {
			t.Fatalf("expected wall column cleared at y=%d", y)
		}
	}
}

func TestClockSweepsPerimeter(t *testing.T) {
	w := world.NewData(4, 4)
	s := NewClock().(*clockScenario)
	s.Setup(w)
	s.Tick(w, 1)

	count := 0
	for _, c := range w.Cells {
		if c.Material == world.MaterialSeed {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly 1 marker cell, got %d", count)
	}
}

func TestSessionGridWorldLifecycle(t *testing.T) {
	var sess Session
	w := world.NewData(4, 4)
	sess.StartGridWorld("empty", w, NewEmpty())

	if sess.Kind() != KindGridWorld {
		t.Fatal("expected GridWorld kind after start")
	}
	if err := sess.Tick(0.1); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if _, _, _, err := sess.RequireNesWorld(); err == nil {
		t.Fatal("expected RequireNesWorld to fail on a grid-world session")
	}
	if err := sess.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if sess.HasSession() {
		t.Fatal("expected no session after Stop")
	}
}

func TestRequireGridWorldOnNesSessionReportsExactMessage(t *testing.T) {
	var sess Session
	if err := sess.StartNesWorld("nes_flappy_paratroopa", DisabledNesDriver{}, testRomPath(t), nil); err != nil {
		t.Fatalf("StartNesWorld: %v", err)
	}

	_, _, err := sess.RequireGridWorld()
	if err == nil || err.Error() != "Not available in NesWorld scenario" {
		t.Fatalf("expected exact NesWorld error message, got %v", err)
	}
}

func TestSessionNesWorldUsesFixedShim(t *testing.T) {
	var sess Session
	if err := sess.StartNesWorld("nes_flappy_paratroopa", DisabledNesDriver{}, testRomPath(t), nil); err != nil {
		t.Fatalf("StartNesWorld: %v", err)
	}

	_, _, shim, err := sess.RequireNesWorld()
	if err != nil {
		t.Fatalf("RequireNesWorld: %v", err)
	}
	if shim.Width != 256 || shim.Height != 240 {
		t.Fatalf("expected fixed 256x240 shim, got %dx%d", shim.Width, shim.Height)
	}

	if err := sess.Tick(1.0 / 60); err == nil {
		t.Fatal("expected DisabledNesDriver.Tick to error")
	}
}
