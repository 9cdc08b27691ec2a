package compliance

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the detection thresholds for the error handler.
type Config struct {
	// ConfidenceThreshold is the minimum acceptable confidence for the
	// predicted category.
	ConfidenceThreshold float64 `toml:"confidence_threshold"`
	// AmbiguityGapTight flags ambiguity whenever the top-two gap is
	// below it.
	AmbiguityGapTight float64 `toml:"ambiguity_gap_tight"`
	// AmbiguityGapLoose flags ambiguity when the gap is below it and the
	// top score exceeds AmbiguityScoreFloor.
	AmbiguityGapLoose   float64 `toml:"ambiguity_gap_loose"`
	AmbiguityScoreFloor float64 `toml:"ambiguity_score_floor"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	ConfidenceThreshold string
	AmbiguityGapTight   string
	AmbiguityGapLoose   string
	AmbiguityScoreFloor string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.ConfidenceThreshold != 0 {
		c.ConfidenceThreshold = overlay.ConfidenceThreshold
	}
	if overlay.AmbiguityGapTight != 0 {
		c.AmbiguityGapTight = overlay.AmbiguityGapTight
	}
	if overlay.AmbiguityGapLoose != 0 {
		c.AmbiguityGapLoose = overlay.AmbiguityGapLoose
	}
	if overlay.AmbiguityScoreFloor != 0 {
		c.AmbiguityScoreFloor = overlay.AmbiguityScoreFloor
	}
}

func (c *Config) loadDefaults() {
	if c.ConfidenceThreshold == 0 {
		c.ConfidenceThreshold = 0.50
	}
	if c.AmbiguityGapTight == 0 {
		c.AmbiguityGapTight = 0.10
	}
	if c.AmbiguityGapLoose == 0 {
		c.AmbiguityGapLoose = 0.20
	}
	if c.AmbiguityScoreFloor == 0 {
		c.AmbiguityScoreFloor = 0.75
	}
}

func (c *Config) loadEnv(env *Env) {
	loadFloat := func(name string, dst *float64) {
		if name == "" {
			return
		}
		if v := os.Getenv(name); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				*dst = f
			}
		}
	}

	loadFloat(env.ConfidenceThreshold, &c.ConfidenceThreshold)
	loadFloat(env.AmbiguityGapTight, &c.AmbiguityGapTight)
	loadFloat(env.AmbiguityGapLoose, &c.AmbiguityGapLoose)
	loadFloat(env.AmbiguityScoreFloor, &c.AmbiguityScoreFloor)
}

func (c *Config) validate() error {
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence_threshold must be in [0, 1]: %g", c.ConfidenceThreshold)
	}
	if c.AmbiguityGapTight <= 0 || c.AmbiguityGapLoose <= 0 {
		return fmt.Errorf("ambiguity gaps must be positive")
	}
	if c.AmbiguityGapTight > c.AmbiguityGapLoose {
		return fmt.Errorf("ambiguity_gap_tight cannot exceed ambiguity_gap_loose")
	}
	if c.AmbiguityScoreFloor < 0 || c.AmbiguityScoreFloor > 1 {
		return fmt.Errorf("ambiguity_score_floor must be in [0, 1]: %g", c.AmbiguityScoreFloor)
	}
	return nil
}
