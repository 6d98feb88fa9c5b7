package config

// Presets are named starting points for common workloads. "realtime"
// trades solver accuracy for a hard iteration cap; "quality" runs the
// solve to a tight tolerance; "stress" sizes buffers for dense piles.
var Presets = map[string]*Config{
	"realtime": {
		BroadPhase:          "grid",
		PairCapacity:        DefaultPairCapacity,
		ContactCapacity:     DefaultContactCapacity,
		SolverTolerance:     1e-4,
		SolverMaxIterations: 32,
	},
	"quality": {
		BroadPhase:          "bvh",
		PairCapacity:        DefaultPairCapacity,
		ContactCapacity:     DefaultContactCapacity,
		SolverTolerance:     1e-10,
		SolverMaxIterations: 512,
	},
	"stress": {
		BroadPhase:          "bvh",
		PairCapacity:        1 << 20,
		ContactCapacity:     1 << 20,
		SolverTolerance:     DefaultTolerance,
		SolverMaxIterations: DefaultMaxIterations,
	},
}

func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}
