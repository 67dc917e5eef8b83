package config

import (
	"math"
	"sort"
)

func preset(system string, period float64, mean []float64, modes int, params map[string]float64) *Config {
	cfg := DefaultConfig()
	cfg.System = system
	cfg.Period = period
	cfg.Mean = mean
	cfg.Modes = modes
	cfg.Params = params
	return cfg
}

var Presets = map[string]map[string]*Config{
	"lorenz": {
		// Shortest unstable orbit of the classic attractor.
		"p1":    preset("lorenz", 1.55865, []float64{0, 0, 23.6}, 33, nil),
		"p2":    preset("lorenz", 2.30591, []float64{0, 0, 23.4}, 49, nil),
		"rho35": preset("lorenz", 1.2, nil, 33, map[string]float64{"rho": 35}),
	},
	"vanderpol": {
		"weak":   preset("vanderpol", 6.6633, []float64{0, 0}, 17, map[string]float64{"mu": 1}),
		"strong": preset("vanderpol", 7.6, []float64{0, 0}, 65, map[string]float64{"mu": 2}),
	},
	"rossler": {
		"p1": preset("rossler", 5.88, []float64{0.2, -0.9, 0.9}, 41, nil),
	},
	"viswanath": {
		// The exact cycle: radius r, period 2π.
		"unit": preset("viswanath", 2*math.Pi, []float64{0, 0}, 17, map[string]float64{"mu": 1, "r": 1}),
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(system, name string) *Config {
	systemPresets, ok := Presets[system]
	if !ok {
		return nil
	}
	cfg, ok := systemPresets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(system string) []string {
	systemPresets, ok := Presets[system]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(systemPresets))
	for name := range systemPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
