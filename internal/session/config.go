package session

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/verte-zerg/swingkiosk/internal/model"
)

// Defaults for a kiosk session.
const (
	DefaultShots                 = 10
	DefaultAnnounceDelay         = 2000 * time.Millisecond
	DefaultTickInterval          = 1500 * time.Millisecond
	DefaultFinalizeDelay         = 2000 * time.Millisecond
	DefaultTargetDistance        = 230.0
	DefaultDirectionalMultiplier = 2.0
)

// DefaultConfig returns the kiosk timing and analytics defaults.
func DefaultConfig() model.Config {
	return model.Config{
		Shots:                 DefaultShots,
		AnnounceDelay:         DefaultAnnounceDelay,
		TickInterval:          DefaultTickInterval,
		FinalizeDelay:         DefaultFinalizeDelay,
		TargetDistance:        DefaultTargetDistance,
		DirectionalMultiplier: DefaultDirectionalMultiplier,
	}
}

// ValidateConfig rejects settings the collector cannot run with.
func ValidateConfig(cfg model.Config) error {
	if cfg.Shots < 1 {
		return errors.New("shots must be at least 1")
	}
	if cfg.AnnounceDelay <= 0 || cfg.TickInterval <= 0 || cfg.FinalizeDelay <= 0 {
		return errors.New("phase delays must be positive")
	}
	if cfg.TargetDistance < 0 {
		return errors.New("target distance must be non-negative")
	}
	if cfg.DirectionalMultiplier < 0 {
		return errors.New("directional multiplier must be non-negative")
	}
	return nil
}

// ValidateProfile checks each set profile field against its option list.
// An empty profile is valid.
func ValidateProfile(p model.Profile) error {
	fields := []struct {
		name    string
		value   string
		options []string
	}{
		{"gender", p.Gender, model.Genders},
		{"age range", p.AgeRange, model.AgeRanges},
		{"handicap", p.Handicap, model.HandicapRanges},
		{"club", p.Club, model.ClubTypes},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		if !slices.Contains(f.options, f.value) {
			return fmt.Errorf("%s %q: %w", f.name, f.value, ErrInvalidProfile)
		}
	}
	return nil
}
