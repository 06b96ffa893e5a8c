package generator

import "time"

// Config drives the synthetic profile generator.
type Config struct {
	NumProfiles   int
	MaxActivities int
	Weeks         int
	VouchChance   float64
	Seed          int64
	// Anchor is the "now" every generated timestamp is relative to.
	Anchor time.Time
}

// DefaultSeed makes the mock dataset identical across processes.
const DefaultSeed int64 = 1373

// DefaultConfig returns the settings used for the mock tier.
func DefaultConfig() Config {
	return Config{
		NumProfiles:   24,
		MaxActivities: 12,
		Weeks:         8,
		VouchChance:   0.3,
		Seed:          DefaultSeed,
	}
}
