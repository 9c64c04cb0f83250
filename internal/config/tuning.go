package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// Fallback values used by the Get* methods when a field is absent.
const (
	defaultDetachThresholdSecs = 0.5
	defaultMinCellSize         = 1.0
	defaultTickRateHz          = 60.0
	defaultGravity             = -200.0
	defaultBallCount           = 200
	defaultCategories          = 4
	defaultMinRadius           = 6.0
	defaultMaxRadius           = 12.0
	defaultArenaWidth          = 800.0
	defaultArenaHeight         = 600.0
	defaultElasticity          = 0.2
	defaultFriction            = 0.6
	defaultSeed                = 1
	defaultEnableMinMembers    = 3
	defaultEnableGraceSecs     = 2.0
	defaultPlotEvery           = 0
)

// TuningConfig represents the root configuration for tuning parameters.
// Clustering keys feed the engine; the remaining keys drive the bundled
// physics simulation and its tooling. Every field is optional.
type TuningConfig struct {
	// Clustering params
	DetachThresholdSecs *float64 `json:"detach_threshold_secs,omitempty"`
	MinCellSize         *float64 `json:"min_cell_size,omitempty"`

	// Simulation params
	TickRateHz  *float64 `json:"tick_rate_hz,omitempty"`
	Gravity     *float64 `json:"gravity,omitempty"`
	BallCount   *int     `json:"ball_count,omitempty"`
	Categories  *int     `json:"categories,omitempty"`
	MinRadius   *float64 `json:"min_radius,omitempty"`
	MaxRadius   *float64 `json:"max_radius,omitempty"`
	ArenaWidth  *float64 `json:"arena_width,omitempty"`
	ArenaHeight *float64 `json:"arena_height,omitempty"`
	Elasticity  *float64 `json:"elasticity,omitempty"`
	Friction    *float64 `json:"friction,omitempty"`
	Seed        *int64   `json:"seed,omitempty"`

	// Gameplay and tooling params
	EnableMinMembers *int     `json:"enable_min_members,omitempty"`
	EnableGraceSecs  *float64 `json:"enable_grace_secs,omitempty"`
	PlotEvery        *int     `json:"plot_every,omitempty"` // 0 disables periodic plots
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }
func ptrInt64(v int64) *int64       { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field populated
// from the built-in fallbacks.
func DefaultTuningConfig() *TuningConfig {
	return &TuningConfig{
		DetachThresholdSecs: ptrFloat64(defaultDetachThresholdSecs),
		MinCellSize:         ptrFloat64(defaultMinCellSize),
		TickRateHz:          ptrFloat64(defaultTickRateHz),
		Gravity:             ptrFloat64(defaultGravity),
		BallCount:           ptrInt(defaultBallCount),
		Categories:          ptrInt(defaultCategories),
		MinRadius:           ptrFloat64(defaultMinRadius),
		MaxRadius:           ptrFloat64(defaultMaxRadius),
		ArenaWidth:          ptrFloat64(defaultArenaWidth),
		ArenaHeight:         ptrFloat64(defaultArenaHeight),
		Elasticity:          ptrFloat64(defaultElasticity),
		Friction:            ptrFloat64(defaultFriction),
		Seed:                ptrInt64(defaultSeed),
		EnableMinMembers:    ptrInt(defaultEnableMinMembers),
		EnableGraceSecs:     ptrFloat64(defaultEnableGraceSecs),
		PlotEvery:           ptrInt(defaultPlotEvery),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,          // from internal/config/
		"../../../" + DefaultConfigPath,       // from internal/ballcluster/l4persistence/
		"../../../../" + DefaultConfigPath,    // deeper packages
		"../../../../../" + DefaultConfigPath, // even deeper
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.DetachThresholdSecs != nil {
		if v := *c.DetachThresholdSecs; v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("detach_threshold_secs must be a finite non-negative number, got %f", v)
		}
	}

	if c.MinCellSize != nil && !(*c.MinCellSize > 0) {
		return fmt.Errorf("min_cell_size must be positive, got %f", *c.MinCellSize)
	}

	if c.TickRateHz != nil && !(*c.TickRateHz > 0) {
		return fmt.Errorf("tick_rate_hz must be positive, got %f", *c.TickRateHz)
	}

	if c.BallCount != nil && *c.BallCount < 0 {
		return fmt.Errorf("ball_count must be non-negative, got %d", *c.BallCount)
	}

	if c.Categories != nil && *c.Categories < 1 {
		return fmt.Errorf("categories must be at least 1, got %d", *c.Categories)
	}

	minR, maxR := c.GetMinRadius(), c.GetMaxRadius()
	if !(minR > 0) {
		return fmt.Errorf("min_radius must be positive, got %f", minR)
	}
	if maxR < minR {
		return fmt.Errorf("max_radius (%f) must be >= min_radius (%f)", maxR, minR)
	}

	if c.ArenaWidth != nil && !(*c.ArenaWidth > 0) {
		return fmt.Errorf("arena_width must be positive, got %f", *c.ArenaWidth)
	}
	if c.ArenaHeight != nil && !(*c.ArenaHeight > 0) {
		return fmt.Errorf("arena_height must be positive, got %f", *c.ArenaHeight)
	}

	if c.Elasticity != nil && (*c.Elasticity < 0 || *c.Elasticity > 1) {
		return fmt.Errorf("elasticity must be between 0 and 1, got %f", *c.Elasticity)
	}
	if c.Friction != nil && *c.Friction < 0 {
		return fmt.Errorf("friction must be non-negative, got %f", *c.Friction)
	}

	if c.EnableMinMembers != nil && *c.EnableMinMembers < 1 {
		return fmt.Errorf("enable_min_members must be at least 1, got %d", *c.EnableMinMembers)
	}
	if c.EnableGraceSecs != nil && (!(*c.EnableGraceSecs >= 0) || math.IsInf(*c.EnableGraceSecs, 0)) {
		return fmt.Errorf("enable_grace_secs must be non-negative and finite, got %f", *c.EnableGraceSecs)
	}
	if c.PlotEvery != nil && *c.PlotEvery < 0 {
		return fmt.Errorf("plot_every must be non-negative, got %d", *c.PlotEvery)
	}

	return nil
}

// GetDetachThresholdSecs returns the detach_threshold_secs value or the default.
func (c *TuningConfig) GetDetachThresholdSecs() float64 {
	if c.DetachThresholdSecs == nil {
		return defaultDetachThresholdSecs
	}
	return *c.DetachThresholdSecs
}

// GetMinCellSize returns the min_cell_size value or the default.
func (c *TuningConfig) GetMinCellSize() float64 {
	if c.MinCellSize == nil {
		return defaultMinCellSize
	}
	return *c.MinCellSize
}

// GetTickRateHz returns the tick_rate_hz value or the default.
func (c *TuningConfig) GetTickRateHz() float64 {
	if c.TickRateHz == nil {
		return defaultTickRateHz
	}
	return *c.TickRateHz
}

// GetGravity returns the gravity value or the default (world units/s², negative is down).
func (c *TuningConfig) GetGravity() float64 {
	if c.Gravity == nil {
		return defaultGravity
	}
	return *c.Gravity
}

// GetBallCount returns the ball_count value or the default.
func (c *TuningConfig) GetBallCount() int {
	if c.BallCount == nil {
		return defaultBallCount
	}
	return *c.BallCount
}

// GetCategories returns the categories value or the default.
func (c *TuningConfig) GetCategories() int {
	if c.Categories == nil {
		return defaultCategories
	}
	return *c.Categories
}

// GetMinRadius returns the min_radius value or the default.
func (c *TuningConfig) GetMinRadius() float64 {
	if c.MinRadius == nil {
		return defaultMinRadius
	}
	return *c.MinRadius
}

// GetMaxRadius returns the max_radius value or the default.
func (c *TuningConfig) GetMaxRadius() float64 {
	if c.MaxRadius == nil {
		return defaultMaxRadius
	}
	return *c.MaxRadius
}

// GetArenaWidth returns the arena_width value or the default.
func (c *TuningConfig) GetArenaWidth() float64 {
	if c.ArenaWidth == nil {
		return defaultArenaWidth
	}
	return *c.ArenaWidth
}

// GetArenaHeight returns the arena_height value or the default.
func (c *TuningConfig) GetArenaHeight() float64 {
	if c.ArenaHeight == nil {
		return defaultArenaHeight
	}
	return *c.ArenaHeight
}

// GetElasticity returns the elasticity value or the default.
func (c *TuningConfig) GetElasticity() float64 {
	if c.Elasticity == nil {
		return defaultElasticity
	}
	return *c.Elasticity
}

// GetFriction returns the friction value or the default.
func (c *TuningConfig) GetFriction() float64 {
	if c.Friction == nil {
		return defaultFriction
	}
	return *c.Friction
}

// GetSeed returns the seed value or the default.
func (c *TuningConfig) GetSeed() int64 {
	if c.Seed == nil {
		return defaultSeed
	}
	return *c.Seed
}

// GetEnableMinMembers returns the enable_min_members value or the default.
func (c *TuningConfig) GetEnableMinMembers() int {
	if c.EnableMinMembers == nil {
		return defaultEnableMinMembers
	}
	return *c.EnableMinMembers
}

// GetEnableGraceSecs returns the enable_grace_secs value or the default.
func (c *TuningConfig) GetEnableGraceSecs() float64 {
	if c.EnableGraceSecs == nil {
		return defaultEnableGraceSecs
	}
	return *c.EnableGraceSecs
}

// GetPlotEvery returns the plot_every value or the default.
func (c *TuningConfig) GetPlotEvery() int {
	if c.PlotEvery == nil {
		return defaultPlotEvery
	}
	return *c.PlotEvery
}
