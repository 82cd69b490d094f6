package engine

import (
	"time"

	"github.com/mindweave/mindweave/backend-go/internal/generate"
	"github.com/mindweave/mindweave/backend-go/internal/history"
	"github.com/mindweave/mindweave/backend-go/internal/layout"
	"github.com/mindweave/mindweave/backend-go/internal/store"
)

// Config holds engine tuning. The host may override the per-map parts
// (inertia, snapping, autosave) through SetSettings.
type Config struct {
	HistoryLimit    int
	SaveDelay       time.Duration
	MinDistance     float64
	FitPadding      float64
	GenerateTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		HistoryLimit:    history.DefaultLimit,
		SaveDelay:       store.DefaultSaveDelay,
		MinDistance:     layout.DefaultMinDistance,
		FitPadding:      48,
		GenerateTimeout: generate.DefaultTimeout,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = d.HistoryLimit
	}
	if c.SaveDelay <= 0 {
		c.SaveDelay = d.SaveDelay
	}
	if c.MinDistance <= 0 {
		c.MinDistance = d.MinDistance
	}
	if c.FitPadding < 0 {
		c.FitPadding = d.FitPadding
	}
	if c.GenerateTimeout <= 0 {
		c.GenerateTimeout = d.GenerateTimeout
	}
	return c
}
