package scenario

import (
	"testing"

	"github.com/aortez/dirtsim/internal/world"
)

func TestStartNesWorldRejectsNonexistentRomWithoutChangingArm(t *testing.T) {
	s := &Session{}
	s.StartGridWorld("sandbox", world.NewData(4, 4), NewSandbox())

	err := s.StartNesWorld("nes_flappy_paratroopa", DisabledNesDriver{}, "/nonexistent/rom.nes", nil)
	if err == nil {
		t.Fatal("expected a nonexistent ROM path to be rejected")
	}
	if s.Kind() != KindGridWorld {
		t.Fatalf("expected the prior GridWorld arm to remain active, got %v", s.Kind())
	}
}

func TestStartNesWorldAcceptsCompatibleRom(t *testing.T) {
	var header [16]byte
	copy(header[:], "NES\x1a")
	path := writeRom(t, header)

	s := &Session{}
	if err := s.StartNesWorld("nes_flappy_paratroopa", DisabledNesDriver{}, path, nil); err != nil {
		t.Fatalf("StartNesWorld: %v", err)
	}
	if s.Kind() != KindNesWorld {
		t.Fatalf("expected KindNesWorld, got %v", s.Kind())
	}
}
