package models

import "time"

// TierLimits holds the per-tier resource limits. A value of -1 means
// unlimited.
type TierLimits struct {
	MaxProjects        int           `yaml:"max_projects" json:"maxProjects"`
	SummariesPerPeriod int           `yaml:"summaries_per_period" json:"summariesPerPeriod"`
	SummaryPeriod      time.Duration `yaml:"summary_period" json:"summaryPeriod"`
}

// DefaultTierLimits is the built-in limit table. It can be overridden per
// tier from the tiers YAML file (see config.LoadTierLimits).
var DefaultTierLimits = map[string]TierLimits{
	TierFree: {
		MaxProjects:        1,
		SummariesPerPeriod: 1,
		SummaryPeriod:      7 * 24 * time.Hour,
	},
	TierPlus: {
		MaxProjects:        5,
		SummariesPerPeriod: 10,
		SummaryPeriod:      7 * 24 * time.Hour,
	},
}

// GetTierLimits returns the limits for a given tier, falling back to the
// free tier for unknown values.
func GetTierLimits(tier string) TierLimits {
	if limits, ok := DefaultTierLimits[tier]; ok {
		return limits
	}
	return DefaultTierLimits[TierFree]
}
