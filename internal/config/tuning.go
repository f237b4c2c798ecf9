package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/freeeve/parliament/pkg/election"
)

// weightEnv maps WEIGHT_* environment overrides onto weight fields.
var weightEnv = map[string]func(*election.Weights) *float64{
	"WEIGHT_STRONGHOLD_BONUS":       func(w *election.Weights) *float64 { return &w.StrongholdBonus },
	"WEIGHT_RIVAL_PENALTY":          func(w *election.Weights) *float64 { return &w.RivalPenalty },
	"WEIGHT_DEMOGRAPHIC":            func(w *election.Weights) *float64 { return &w.DemographicWeight },
	"WEIGHT_DEMOGRAPHIC_BASELINE":   func(w *election.Weights) *float64 { return &w.DemographicBaseline },
	"WEIGHT_AREA_BONUS":             func(w *election.Weights) *float64 { return &w.AreaBonus },
	"WEIGHT_INCUMBENT_BONUS":        func(w *election.Weights) *float64 { return &w.IncumbentBonus },
	"WEIGHT_CONTINUITY_BONUS":       func(w *election.Weights) *float64 { return &w.ContinuityBonus },
	"WEIGHT_FOCUS_PENALTY":          func(w *election.Weights) *float64 { return &w.FocusPenalty },
	"WEIGHT_MIN_VIABLE_SCORE":       func(w *election.Weights) *float64 { return &w.MinViableScore },
	"WEIGHT_RIVAL_THRESHOLD_FACTOR": func(w *election.Weights) *float64 { return &w.RivalThresholdFactor },
	"WEIGHT_MIN_FOCUS_SHARE":        func(w *election.Weights) *float64 { return &w.MinFocusShare },
}

// LoadWeights returns the default weights overlaid with the YAML file at
// path (skipped when path is empty) and then with any WEIGHT_* variables.
// Keys missing from the file keep their defaults.
func LoadWeights(path string) (election.Weights, error) {
	w := election.DefaultWeights()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return w, fmt.Errorf("read tuning file: %w", err)
		}
		if err := yaml.Unmarshal(b, &w); err != nil {
			return w, fmt.Errorf("parse tuning file %s: %w", path, err)
		}
	}
	for key, field := range weightEnv {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return w, fmt.Errorf("%s: %w", key, err)
		}
		*field(&w) = f
	}
	return w, nil
}
