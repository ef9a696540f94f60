package registry

import "testing"

type fakeGenomeRepo struct{}

func (fakeGenomeRepo) Lookup(id string) ([]byte, bool) { return nil, false }

func TestDefaultRegistryCoversFullCatalog(t *testing.T) {
	r := NewDefault(fakeGenomeRepo{}, "")

	wantGrid := []string{
		"empty", "sandbox", "raining", "dam_break", "water_equalization",
		"benchmark", "clock", "lights", "goose_test", "tree_germination",
	}
	for _, id := range wantGrid {
		if _, ok := r.Lookup(id); !ok {
			t.Fatalf("expected grid scenario %q to be registered", id)
		}
		if r.IsNes(id) {
			t.Fatalf("%q should not be classified as NES", id)
		}
	}

	for _, id := range []string{"nes_flappy_paratroopa", "nes_super_tilt_bro"} {
		if !r.IsNes(id) {
			t.Fatalf("expected %q to be classified as NES", id)
		}
	}
}

func TestNewReturnsRunnerOrDriver(t *testing.T) {
	r := NewDefault(fakeGenomeRepo{}, "")

	runner, driver, err := r.New("sandbox")
	if err != nil || runner == nil || driver != nil {
		t.Fatalf("expected grid runner, got runner=%v driver=%v err=%v", runner, driver, err)
	}

	runner, driver, err = r.New("nes_flappy_paratroopa")
	if err != nil || runner != nil || driver == nil {
		t.Fatalf("expected NES driver, got runner=%v driver=%v err=%v", runner, driver, err)
	}

	if _, _, err := r.New("nonexistent"); err == nil {
		t.Fatal("expected error for unknown scenario id")
	}
}
