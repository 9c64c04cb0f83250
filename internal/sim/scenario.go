package sim

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/ballcluster/internal/ballcluster"
	"github.com/banshee-data/ballcluster/internal/config"
)

// Scenario is a complete description of a simulation run: the arena, its
// physics, the initial balls and scheduled spawn/despawn events.
type Scenario struct {
	Name       string  `yaml:"name"`
	Width      float64 `yaml:"width"`
	Height     float64 `yaml:"height"`
	Gravity    float64 `yaml:"gravity"`
	Elasticity float64 `yaml:"elasticity"`
	Friction   float64 `yaml:"friction"`
	Balls      []Ball  `yaml:"balls"`
	Events     []Event `yaml:"events,omitempty"`
}

// Event spawns and despawns balls at the start of a tick.
type Event struct {
	Tick    uint64                 `yaml:"tick"`
	Spawn   []Ball                 `yaml:"spawn,omitempty"`
	Despawn []ballcluster.EntityID `yaml:"despawn,omitempty"`
}

// LoadScenario reads a YAML scenario file. Arena and physics keys left out
// of the file are taken from cfg.
func LoadScenario(path string, cfg *config.TuningConfig) (*Scenario, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	return ParseScenario(data, cfg)
}

// ParseScenario decodes a YAML scenario.
func ParseScenario(data []byte, cfg *config.TuningConfig) (*Scenario, error) {
	sc := &Scenario{
		Width:      cfg.GetArenaWidth(),
		Height:     cfg.GetArenaHeight(),
		Gravity:    cfg.GetGravity(),
		Elasticity: cfg.GetElasticity(),
		Friction:   cfg.GetFriction(),
	}
	if err := yaml.Unmarshal(data, sc); err != nil {
		return nil, fmt.Errorf("failed to parse scenario YAML: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario %q: %w", sc.Name, err)
	}
	sort.SliceStable(sc.Events, func(i, j int) bool { return sc.Events[i].Tick < sc.Events[j].Tick })
	return sc, nil
}

// Validate checks the scenario for duplicate initial IDs and balls placed
// outside the arena.
func (sc *Scenario) Validate() error {
	if !(sc.Width > 0) || !(sc.Height > 0) {
		return fmt.Errorf("arena must have positive size, got %fx%f", sc.Width, sc.Height)
	}
	seen := make(map[ballcluster.EntityID]bool, len(sc.Balls))
	for _, b := range sc.Balls {
		if seen[b.ID] {
			return fmt.Errorf("duplicate ball id %d", b.ID)
		}
		seen[b.ID] = true
		if err := sc.checkBall(b); err != nil {
			return err
		}
	}
	for _, ev := range sc.Events {
		for _, b := range ev.Spawn {
			if err := sc.checkBall(b); err != nil {
				return fmt.Errorf("event at tick %d: %w", ev.Tick, err)
			}
		}
	}
	return nil
}

func (sc *Scenario) checkBall(b Ball) error {
	if !(b.Radius > 0) {
		return fmt.Errorf("ball %d: radius must be positive, got %f", b.ID, b.Radius)
	}
	if b.X < 0 || b.X > sc.Width || b.Y < 0 || b.Y > sc.Height {
		return fmt.Errorf("ball %d at (%f, %f) is outside the %fx%f arena", b.ID, b.X, b.Y, sc.Width, sc.Height)
	}
	return nil
}

// RandomScenario scatters cfg's ball count over the arena using seed.
// Radii are uniform in [min_radius, max_radius] and categories uniform in
// [0, categories).
func RandomScenario(cfg *config.TuningConfig, seed int64) *Scenario {
	rng := rand.New(rand.NewSource(seed))
	sc := &Scenario{
		Name:       fmt.Sprintf("random-%d", seed),
		Width:      cfg.GetArenaWidth(),
		Height:     cfg.GetArenaHeight(),
		Gravity:    cfg.GetGravity(),
		Elasticity: cfg.GetElasticity(),
		Friction:   cfg.GetFriction(),
	}

	minR, maxR := cfg.GetMinRadius(), cfg.GetMaxRadius()
	n := cfg.GetBallCount()
	sc.Balls = make([]Ball, 0, n)
	for i := 0; i < n; i++ {
		r := minR + rng.Float64()*(maxR-minR)
		sc.Balls = append(sc.Balls, Ball{
			ID:       ballcluster.EntityID(i + 1),
			X:        r + rng.Float64()*(sc.Width-2*r),
			Y:        r + rng.Float64()*(sc.Height-2*r),
			VX:       rng.NormFloat64() * 40,
			VY:       rng.NormFloat64() * 40,
			Radius:   r,
			Category: rng.Intn(cfg.GetCategories()),
		})
	}
	return sc
}

// Build creates a World populated with the scenario's initial balls.
func (sc *Scenario) Build() (*World, error) {
	w, err := NewWorld(sc.Width, sc.Height, sc.Gravity, sc.Elasticity, sc.Friction)
	if err != nil {
		return nil, err
	}
	for _, b := range sc.Balls {
		if err := w.Spawn(b); err != nil {
			return nil, fmt.Errorf("scenario %q: %w", sc.Name, err)
		}
	}
	diagf("scenario %q: %d balls in %.0fx%.0f arena, %d events", sc.Name, len(sc.Balls), sc.Width, sc.Height, len(sc.Events))
	return w, nil
}

// ApplyEvents runs every event scheduled for tick against w. Spawning a
// live ID or despawning an absent one is logged and skipped.
func (sc *Scenario) ApplyEvents(w *World, tick uint64) {
	i := sort.Search(len(sc.Events), func(i int) bool { return sc.Events[i].Tick >= tick })
	for ; i < len(sc.Events) && sc.Events[i].Tick == tick; i++ {
		ev := sc.Events[i]
		for _, id := range ev.Despawn {
			if !w.Despawn(id) {
				opsf("tick %d: despawn of unknown ball %d skipped", tick, id)
			}
		}
		for _, b := range ev.Spawn {
			if err := w.Spawn(b); err != nil {
				opsf("tick %d: spawn skipped: %v", tick, err)
			}
		}
	}
}
