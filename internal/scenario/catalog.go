package scenario

import (
	"math/rand"

	"github.com/aortez/dirtsim/internal/world"
)

// EmptyConfig backs the Empty scenario: no parameters.
type EmptyConfig struct{}

// emptyScenario is a truly empty world with no particles.
type emptyScenario struct{ cfg EmptyConfig }

func NewEmpty() Runner { return &emptyScenario{} }

func (s *emptyScenario) Metadata() Metadata {
	return Metadata{Name: "Empty", Description: "A truly empty world with no particles.", Category: "basic"}
}
func (s *emptyScenario) Config() any                           { return s.cfg }
func (s *emptyScenario) SetConfig(cfg any, w *world.Data) error { s.cfg, _ = cfg.(EmptyConfig); return nil }
func (s *emptyScenario) Setup(w *world.Data)                    {}
func (s *emptyScenario) Reset(w *world.Data)                    { fillMaterial(w, world.MaterialAir) }
func (s *emptyScenario) Tick(w *world.Data, deltaTime float64)  {}

// SandboxConfig backs the Sandbox scenario.
type SandboxConfig struct {
	SpawnIntervalS float64
}

// sandboxScenario is the default world setup without walls: periodically
// drops dirt particles from the top.
type sandboxScenario struct {
	cfg            SandboxConfig
	rng            *rand.Rand
	timeSinceSpawn float64
}

func NewSandbox() Runner {
	return &sandboxScenario{cfg: SandboxConfig{SpawnIntervalS: 0.5}, rng: rand.New(rand.NewSource(42))}
}

func (s *sandboxScenario) Metadata() Metadata {
	return Metadata{Name: "Sandbox", Description: "The default world setup without walls.", Category: "basic"}
}
func (s *sandboxScenario) Config() any { return s.cfg }
func (s *sandboxScenario) SetConfig(cfg any, w *world.Data) error {
	if c, ok := cfg.(SandboxConfig); ok {
		s.cfg = c
	}
	return nil
}
func (s *sandboxScenario) Setup(w *world.Data) { fillMaterial(w, world.MaterialAir) }
func (s *sandboxScenario) Reset(w *world.Data) { fillMaterial(w, world.MaterialAir) }
func (s *sandboxScenario) Tick(w *world.Data, deltaTime float64) {
	s.timeSinceSpawn += deltaTime
	if s.timeSinceSpawn < s.cfg.SpawnIntervalS {
		return
	}
	s.timeSinceSpawn = 0
	x := s.rng.Intn(w.Width)
	w.Set(x, 0, world.Cell{Material: world.MaterialDirt, FillRatio: 1})
}

// RainingConfig backs the Raining scenario.
type RainingConfig struct {
	DropProbability float64
}

// rainingScenario drops randomly-placed water cells from the top row.
type rainingScenario struct {
	cfg RainingConfig
	rng *rand.Rand
}

func NewRaining() Runner {
	return &rainingScenario{cfg: RainingConfig{DropProbability: 0.1}, rng: rand.New(rand.NewSource(42))}
}

func (s *rainingScenario) Metadata() Metadata {
	return Metadata{Name: "Raining", Description: "Rain falling from the sky.", Category: "fluid"}
}
func (s *rainingScenario) Config() any { return s.cfg }
func (s *rainingScenario) SetConfig(cfg any, w *world.Data) error {
	if c, ok := cfg.(RainingConfig); ok {
		s.cfg = c
	}
	return nil
}
func (s *rainingScenario) Setup(w *world.Data) { fillMaterial(w, world.MaterialAir) }
func (s *rainingScenario) Reset(w *world.Data) { fillMaterial(w, world.MaterialAir) }
func (s *rainingScenario) Tick(w *world.Data, deltaTime float64) {
	for x := 0; x < w.Width; x++ {
		if s.rng.Float64() < s.cfg.DropProbability*deltaTime {
			w.Set(x, 0, world.Cell{Material: world.MaterialWater, FillRatio: 1})
		}
	}
}

// DamBreakConfig backs the DamBreak scenario.
type DamBreakConfig struct {
	BreakAfterS float64
}

// damBreakScenario holds water behind a stone wall that vanishes once a
// pressure-buildup timer elapses, classic fluid-dynamics demo.
type damBreakScenario struct {
	cfg         DamBreakConfig
	elapsedTime float64
	broken      bool
	wallX       int
}

func NewDamBreak() Runner { return &damBreakScenario{cfg: DamBreakConfig{BreakAfterS: 2}} }

func (s *damBreakScenario) Metadata() Metadata {
	return Metadata{Name: "DamBreak", Description: "Water held by a wall dam that breaks after pressure builds up.", Category: "fluid"}
}
func (s *damBreakScenario) Config() any { return s.cfg }
func (s *damBreakScenario) SetConfig(cfg any, w *world.Data) error {
	if c, ok := cfg.(DamBreakConfig); ok {
		s.cfg = c
	}
	return nil
}
func (s *damBreakScenario) Setup(w *world.Data) { s.Reset(w) }
func (s *damBreakScenario) Reset(w *world.Data) {
	fillMaterial(w, world.MaterialAir)
	s.elapsedTime = 0
	s.broken = false
	s.wallX = w.Width / 3
	for y := 0; y < w.Height; y++ {
		for x := 0; x < s.wallX; x++ {
			w.Set(x, y, world.Cell{Material: world.MaterialWater, FillRatio: 1})
		}
		w.Set(s.wallX, y, world.Cell{Material: world.MaterialRock, FillRatio: 1})
	}
}
func (s *damBreakScenario) Tick(w *world.Data, deltaTime float64) {
	if s.broken {
		return
	}
	s.elapsedTime += deltaTime
	if s.elapsedTime >= s.cfg.BreakAfterS {
		s.broken = true
		for y := 0; y < w.Height; y++ {
			w.Set(s.wallX, y, world.Cell{Material: world.MaterialAir})
		}
	}
}

// WaterEqualizationConfig backs the WaterEqualization scenario.
type WaterEqualizationConfig struct {
	OpeningHeight int
}

// waterEqualizationScenario demonstrates hydrostatic flow through a small
// opening between two unevenly filled columns.
type waterEqualizationScenario struct {
	cfg WaterEqualizationConfig
}

func NewWaterEqualization() Runner {
	return &waterEqualizationScenario{cfg: WaterEqualizationConfig{OpeningHeight: 1}}
}

func (s *waterEqualizationScenario) Metadata() Metadata {
	return Metadata{Name: "WaterEqualization", Description: "Hydrostatic pressure and flow between two columns.", Category: "fluid"}
}
func (s *waterEqualizationScenario) Config() any { return s.cfg }
func (s *waterEqualizationScenario) SetConfig(cfg any, w *world.Data) error {
	if c, ok := cfg.(WaterEqualizationConfig); ok {
		s.cfg = c
	}
	return nil
}
func (s *waterEqualizationScenario) Setup(w *world.Data) { s.Reset(w) }
func (s *waterEqualizationScenario) Reset(w *world.Data) {
	fillMaterial(w, world.MaterialAir)
	midX := w.Width / 2
	openingY := w.Height - s.cfg.OpeningHeight
	for y := 0; y < w.Height; y++ {
		w.Set(midX, y, world.Cell{Material: world.MaterialRock, FillRatio: 1})
	}
	for y := openingY; y < w.Height; y++ {
		w.Set(midX, y, world.Cell{Material: world.MaterialAir})
	}
	for y := w.Height / 2; y < w.Height; y++ {
		for x := 0; x < midX; x++ {
			w.Set(x, y, world.Cell{Material: world.MaterialWater, FillRatio: 1})
		}
	}
}
func (s *waterEqualizationScenario) Tick(w *world.Data, deltaTime float64) {}

// BenchmarkConfig backs the Benchmark scenario.
type BenchmarkConfig struct {
	BallRadius int
}

// benchmarkScenario is a 200x200-style world with a water pool and clay and
// sand balls above it, used for performance testing.
type benchmarkScenario struct {
	cfg BenchmarkConfig
}

func NewBenchmark() Runner { return &benchmarkScenario{cfg: BenchmarkConfig{BallRadius: 5}} }

func (s *benchmarkScenario) Metadata() Metadata {
	return Metadata{
		Name: "Benchmark", Description: "Performance testing with complex physics.",
		Category: "benchmark", RequiredWidth: 200, RequiredHeight: 200,
	}
}
func (s *benchmarkScenario) Config() any { return s.cfg }
func (s *benchmarkScenario) SetConfig(cfg any, w *world.Data) error {
	if c, ok := cfg.(BenchmarkConfig); ok {
		s.cfg = c
	}
	return nil
}
func (s *benchmarkScenario) Setup(w *world.Data) { s.Reset(w) }
func (s *benchmarkScenario) Reset(w *world.Data) {
	fillMaterial(w, world.MaterialAir)
	poolHeight := w.Height / 4
	for y := w.Height - poolHeight; y < w.Height; y++ {
		for x := 0; x < w.Width; x++ {
			w.Set(x, y, world.Cell{Material: world.MaterialWater, FillRatio: 1})
		}
	}
	s.addBall(w, w.Width/3, w.Height/4, s.cfg.BallRadius, world.MaterialClay)
	s.addBall(w, 2*w.Width/3, w.Height/4, s.cfg.BallRadius, world.MaterialSand)
}
func (s *benchmarkScenario) Tick(w *world.Data, deltaTime float64) {}

func (s *benchmarkScenario) addBall(w *world.Data, centerX, centerY, radius int, material world.Material) {
	for y := centerY - radius; y <= centerY+radius; y++ {
		for x := centerX - radius; x <= centerX+radius; x++ {
			if !w.InBounds(x, y) {
				continue
			}
			dx, dy := x-centerX, y-centerY
			if dx*dx+dy*dy <= radius*radius {
				w.Set(x, y, world.Cell{Material: material, FillRatio: 1})
			}
		}
	}
}

// ClockConfig backs the Clock scenario: no parameters beyond world size.
type ClockConfig struct{}

// clockScenario ticks a single marker cell around the world's border, a
// minimal animated scenario used for render-path smoke testing.
type clockScenario struct {
	elapsed float64
}

func NewClock() Runner { return &clockScenario{} }

func (s *clockScenario) Metadata() Metadata {
	return Metadata{Name: "Clock", Description: "A marker cell steps around the world border, one cell per second.", Category: "basic"}
}
func (s *clockScenario) Config() any                           { return ClockConfig{} }
func (s *clockScenario) SetConfig(cfg any, w *world.Data) error { return nil }
func (s *clockScenario) Setup(w *world.Data)                   { fillMaterial(w, world.MaterialAir) }
func (s *clockScenario) Reset(w *world.Data)                   { s.elapsed = 0; fillMaterial(w, world.MaterialAir) }
func (s *clockScenario) Tick(w *world.Data, deltaTime float64) {
	s.elapsed += deltaTime
	perimeter := 2 * (w.Width + w.Height)
	if perimeter == 0 {
		return
	}
	step := int(s.elapsed) % perimeter
	x, y := perimeterPoint(w, step)
	fillMaterial(w, world.MaterialAir)
	w.Set(x, y, world.Cell{Material: world.MaterialSeed, FillRatio: 1})
}

func perimeterPoint(w *world.Data, step int) (int, int) {
	switch {
	case step < w.Width:
		return step, 0
	case step < w.Width+w.Height:
		return w.Width - 1, step - w.Width
	case step < 2*w.Width+w.Height:
		return w.Width - 1 - (step - w.Width - w.Height), w.Height - 1
	default:
		return 0, w.Height - 1 - (step - 2*w.Width - w.Height)
	}
}

// LightsConfig backs the Lights scenario.
type LightsConfig struct{}

// lightsScenario lays out water, dirt, and mud bands to exercise the
// renderer's per-material lighting treatment.
type lightsScenario struct{}

func NewLights() Runner { return &lightsScenario{} }

func (s *lightsScenario) Metadata() Metadata {
	return Metadata{Name: "Lights", Description: "Test lighting system with water, dirt, and mud materials.", Category: "render"}
}
func (s *lightsScenario) Config() any                           { return LightsConfig{} }
func (s *lightsScenario) SetConfig(cfg any, w *world.Data) error { return nil }
func (s *lightsScenario) Setup(w *world.Data)                    { s.Reset(w) }
func (s *lightsScenario) Reset(w *world.Data) {
	fillMaterial(w, world.MaterialAir)
	bands := []world.Material{world.MaterialWater, world.MaterialDirt, world.MaterialMud}
	bandHeight := w.Height / len(bands)
	for i, m := range bands {
		for y := i * bandHeight; y < (i+1)*bandHeight && y < w.Height; y++ {
			for x := 0; x < w.Width; x++ {
				w.Set(x, y, world.Cell{Material: m, FillRatio: 1})
			}
		}
	}
}
func (s *lightsScenario) Tick(w *world.Data, deltaTime float64) {}

// GooseTestConfig backs the GooseTest scenario.
type GooseTestConfig struct{}

// gooseTestScenario places a single goose entity to test rigid-body
// physics integration.
type gooseTestScenario struct{ gooseID uint32 }

func NewGooseTest() Runner { return &gooseTestScenario{} }

func (s *gooseTestScenario) Metadata() Metadata {
	return Metadata{Name: "GooseTest", Description: "Simple world with a goose to test rigid body physics.", Category: "organism"}
}
func (s *gooseTestScenario) Config() any                           { return GooseTestConfig{} }
func (s *gooseTestScenario) SetConfig(cfg any, w *world.Data) error { return nil }
func (s *gooseTestScenario) Setup(w *world.Data)                    { s.Reset(w) }
func (s *gooseTestScenario) Reset(w *world.Data) {
	fillMaterial(w, world.MaterialAir)
	for y := w.Height - 2; y < w.Height; y++ {
		for x := 0; x < w.Width; x++ {
			w.Set(x, y, world.Cell{Material: world.MaterialDirt, FillRatio: 1})
		}
	}
	s.gooseID = 1
	w.Entities = append(w.Entities, world.Entity{
		ID: s.gooseID, Kind: "goose",
		Position: world.Vec2{X: float64(w.Width) / 2, Y: float64(w.Height) - 3},
	})
}
func (s *gooseTestScenario) Tick(w *world.Data, deltaTime float64) {}

// TreeGerminationConfig backs the TreeGermination scenario. GenomeID, when
// non-empty, selects a stored brain genome for the growing tree.
type TreeGerminationConfig struct {
	GenomeID string
}

// GenomeRepository is the narrow collaborator TreeGermination needs: a
// lookup from genome id to its serialized brain, supplied by
// internal/evolution's repository.
type GenomeRepository interface {
	Lookup(genomeID string) ([]byte, bool)
}

// treeGerminationScenario places a seed cell on a dirt floor in a small 9x9
// world. Tick does nothing, so the seed does not grow.
type treeGerminationScenario struct {
	repo   GenomeRepository
	cfg    TreeGerminationConfig
	treeID uint32
}

func NewTreeGermination(repo GenomeRepository) Runner {
	return &treeGerminationScenario{repo: repo}
}

func (s *treeGerminationScenario) Metadata() Metadata {
	return Metadata{
		Name: "TreeGermination", Description: "9x9 world with seed growing into balanced tree.",
		Category: "organism", RequiredWidth: 9, RequiredHeight: 9,
	}
}
func (s *treeGerminationScenario) Config() any { return s.cfg }
func (s *treeGerminationScenario) SetConfig(cfg any, w *world.Data) error {
	if c, ok := cfg.(TreeGerminationConfig); ok {
		s.cfg = c
	}
	return nil
}
func (s *treeGerminationScenario) Setup(w *world.Data) { s.Reset(w) }
func (s *treeGerminationScenario) Reset(w *world.Data) {
	fillMaterial(w, world.MaterialAir)
	for y := w.Height / 2; y < w.Height; y++ {
		for x := 0; x < w.Width; x++ {
			w.Set(x, y, world.Cell{Material: world.MaterialDirt, FillRatio: 1})
		}
	}
	s.treeID = 1
	seedX, seedY := w.Width/2, w.Height/2-1
	w.Set(seedX, seedY, world.Cell{Material: world.MaterialDirt, OrganismID: uint8(s.treeID)})
	if s.cfg.GenomeID != "" && s.repo != nil {
		s.repo.Lookup(s.cfg.GenomeID) // brain genome wiring point; organism AI is out of scope here.
	}
}
func (s *treeGerminationScenario) Tick(w *world.Data, deltaTime float64) {}

func fillMaterial(w *world.Data, m world.Material) {
	for i := range w.Cells {
		w.Cells[i] = world.Cell{Material: m}
	}
}
