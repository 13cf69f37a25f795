// Package analytics turns a flat task list into team workload, trend,
// resolution, bottleneck, stagnation and flow-health figures.
//
// Every function in this package is pure: the caller supplies "now" and the
// input is never mutated, so repeated runs on the same input are identical.
package analytics

import "time"

const (
	// DefaultIdealLoad is the target pending-task count per assignee.
	DefaultIdealLoad = 8
	// DefaultStaleAfter marks open tasks older than this as stale.
	DefaultStaleAfter = 7 * 24 * time.Hour
	// DefaultResolutionWindowMonths bounds the resolution-time sample.
	DefaultResolutionWindowMonths = 3
	// DefaultStagnationFallback is the stagnation threshold used when no
	// resolution samples exist yet.
	DefaultStagnationFallback = 7 * 24 * time.Hour
	// DefaultTagLimit caps the ranked tag-focus list.
	DefaultTagLimit = 8
	// DefaultLeaderboardLimit caps the completed-count leaderboard.
	DefaultLeaderboardLimit = 5
)

// Options tunes the classification thresholds. Zero values take defaults.
type Options struct {
	IdealLoad              int           `yaml:"ideal_load" json:"ideal_load"`
	StaleAfter             time.Duration `yaml:"stale_after" json:"stale_after"`
	ResolutionWindowMonths int           `yaml:"resolution_window_months" json:"resolution_window_months"`
	StagnationFallback     time.Duration `yaml:"stagnation_fallback" json:"stagnation_fallback"`
	TagLimit               int           `yaml:"tag_limit" json:"tag_limit"`
	LeaderboardLimit       int           `yaml:"leaderboard_limit" json:"leaderboard_limit"`
}

// DefaultOptions returns the thresholds used by the dashboards.
func DefaultOptions() Options {
	return Options{
		IdealLoad:              DefaultIdealLoad,
		StaleAfter:             DefaultStaleAfter,
		ResolutionWindowMonths: DefaultResolutionWindowMonths,
		StagnationFallback:     DefaultStagnationFallback,
		TagLimit:               DefaultTagLimit,
		LeaderboardLimit:       DefaultLeaderboardLimit,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.IdealLoad <= 0 {
		o.IdealLoad = d.IdealLoad
	}
	if o.StaleAfter <= 0 {
		o.StaleAfter = d.StaleAfter
	}
	if o.ResolutionWindowMonths <= 0 {
		o.ResolutionWindowMonths = d.ResolutionWindowMonths
	}
	if o.StagnationFallback <= 0 {
		o.StagnationFallback = d.StagnationFallback
	}
	if o.TagLimit <= 0 {
		o.TagLimit = d.TagLimit
	}
	if o.LeaderboardLimit <= 0 {
		o.LeaderboardLimit = d.LeaderboardLimit
	}
	return o
}
