package sampledata

import "time"

// Config controls the generated history.
type Config struct {
	Years        int       // years of history
	Members      int       // member records
	Seed         uint64    // same seed, same snapshot
	End          time.Time // last day of history; zero means 2024-12-31
	SpecialEvery int       // one special event per this many services, 0 disables
}

// DefaultConfig returns a three year history of sixty members.
func DefaultConfig() Config {
	return Config{
		Years:        3,
		Members:      60,
		Seed:         1,
		SpecialEvery: 6,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Years <= 0 {
		c.Years = d.Years
	}
	if c.Members <= 0 {
		c.Members = d.Members
	}
	if c.End.IsZero() {
		c.End = time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC)
	}
	if c.SpecialEvery < 0 {
		c.SpecialEvery = 0
	}
	return c
}
