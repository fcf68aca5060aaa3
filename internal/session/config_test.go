package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/verte-zerg/swingkiosk/internal/model"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, ValidateConfig(cfg))
	assert.Equal(t, 10, cfg.Shots)
}

func TestValidateConfig(t *testing.T) {
	mutations := map[string]func(*model.Config){
		"zero shots":          func(c *model.Config) { c.Shots = 0 },
		"zero announce":       func(c *model.Config) { c.AnnounceDelay = 0 },
		"negative finalize":   func(c *model.Config) { c.FinalizeDelay = -1 },
		"negative target":     func(c *model.Config) { c.TargetDistance = -1 },
		"negative multiplier": func(c *model.Config) { c.DirectionalMultiplier = -0.5 },
	}
	for name, mutate := range mutations {
		cfg := DefaultConfig()
		mutate(&cfg)
		assert.Error(t, ValidateConfig(cfg), name)
	}
}
