package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPairCapacity    = 1 << 16
	DefaultContactCapacity = 1 << 16
	DefaultTolerance       = 1e-8
	DefaultMaxIterations   = 128
)

// Config is the tuning surface of the collision and solver core. Zero
// values mean "pick automatically" where noted.
type Config struct {
	// BroadPhase selects the acceleration structure: "bvh" or "grid".
	BroadPhase string `yaml:"broad_phase"`

	// CellSize is the grid cell edge length; 0 derives it from the
	// average primitive extent. Ignored by the BVH.
	CellSize float64 `yaml:"cell_size"`

	// Workers caps kernel parallelism; 0 uses every CPU.
	Workers int `yaml:"workers"`

	// PairCapacity and ContactCapacity size the preallocated per-step
	// buffers. Overflow surfaces as a capacity error, never truncation.
	PairCapacity    int `yaml:"pair_capacity"`
	ContactCapacity int `yaml:"contact_capacity"`

	// SolverTolerance is the relative residual threshold for the
	// constraint solve; SolverMaxIterations bounds its running time.
	SolverTolerance     float64 `yaml:"solver_tolerance"`
	SolverMaxIterations int     `yaml:"solver_max_iterations"`
}

func DefaultConfig() *Config {
	return &Config{
		BroadPhase:          "bvh",
		PairCapacity:        DefaultPairCapacity,
		ContactCapacity:     DefaultContactCapacity,
		SolverTolerance:     DefaultTolerance,
		SolverMaxIterations: DefaultMaxIterations,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate rejects nonsensical settings before any step runs.
func (c *Config) Validate() error {
	switch c.BroadPhase {
	case "bvh", "grid":
	default:
		return fmt.Errorf("unknown broad phase %q", c.BroadPhase)
	}
	if c.CellSize < 0 {
		return fmt.Errorf("cell size must be non-negative, got %g", c.CellSize)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", c.Workers)
	}
	if c.PairCapacity <= 0 {
		return fmt.Errorf("pair capacity must be positive, got %d", c.PairCapacity)
	}
	if c.ContactCapacity <= 0 {
		return fmt.Errorf("contact capacity must be positive, got %d", c.ContactCapacity)
	}
	if c.SolverTolerance <= 0 {
		return fmt.Errorf("solver tolerance must be positive, got %g", c.SolverTolerance)
	}
	if c.SolverMaxIterations <= 0 {
		return fmt.Errorf("solver max iterations must be positive, got %d", c.SolverMaxIterations)
	}
	return nil
}
