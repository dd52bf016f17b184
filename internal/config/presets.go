package config

// Presets are named starting points for common deployments.
var presets = map[string]*Config{
	"minimal": {
		Runtime:    "auto",
		AuxStreams: 0,
		LogLevel:   "warn",
		Sim:        SimConfig{MaxStreams: DefaultMaxStreams},
	},
	"throughput": {
		Runtime:    "auto",
		AuxStreams: 8,
		LogLevel:   "info",
		Sim:        SimConfig{MaxStreams: 128},
	},
	"debug": {
		Runtime:    "sim",
		AuxStreams: 2,
		LogLevel:   "debug",
		Sim:        SimConfig{MaxStreams: 16},
	},
}

func GetPreset(name string) *Config {
	p, ok := presets[name]
	if !ok {
		return nil
	}
	cp := *p
	return &cp
}

func ListPresets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	return names
}
