package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// Objective is the advertiser's goal for a campaign.
type Objective string

const (
	ObjectiveConversions Objective = "conversions"
	ObjectiveTraffic     Objective = "traffic"
	ObjectiveSales       Objective = "sales"
	ObjectiveLeads       Objective = "leads"
	ObjectiveAwareness   Objective = "awareness"
)

// Valid reports whether o is a known objective.
func (o Objective) Valid() bool {
	switch o {
	case ObjectiveConversions, ObjectiveTraffic, ObjectiveSales, ObjectiveLeads, ObjectiveAwareness:
		return true
	}
	return false
}

// Platform identifies a target ad platform.
type Platform string

const (
	PlatformMeta   Platform = "meta"
	PlatformTikTok Platform = "tiktok"
	PlatformGoogle Platform = "google"
)

// Valid reports whether p is a known platform.
func (p Platform) Valid() bool {
	switch p {
	case PlatformMeta, PlatformTikTok, PlatformGoogle:
		return true
	}
	return false
}

// TimeRange bounds a campaign's flight dates.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Days returns the whole number of days covered by the range, minimum 1.
func (tr TimeRange) Days() int {
	d := int(tr.End.Sub(tr.Start).Hours() / 24)
	if d < 1 {
		return 1
	}
	return d
}

// DefaultDurationDays is assumed when a spec carries no time range.
const DefaultDurationDays = 30

// CampaignSpec is the user's intent for a campaign, validated once at the
// boundary before any stage is called.
type CampaignSpec struct {
	Name           string            `json:"name"`
	Objective      Objective         `json:"objective"`
	Platforms      []Platform        `json:"platforms"`
	TotalBudget    float64           `json:"total_budget"`
	TargetCategory string            `json:"target_category"`
	TargetAudience string            `json:"target_audience"`
	TimeRange      *TimeRange        `json:"time_range,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// DurationDays derives the campaign length from the time range, defaulting to
// DefaultDurationDays when none was supplied.
func (s CampaignSpec) DurationDays() int {
	if s.TimeRange == nil {
		return DefaultDurationDays
	}
	return s.TimeRange.Days()
}

// Validate checks the spec's invariants: positive budget, known objective and
// platforms, and a non-inverted time range.
func (s CampaignSpec) Validate() error {
	if s.TotalBudget <= 0 {
		return eris.Errorf("model: total_budget must be positive, got %.2f", s.TotalBudget)
	}
	if !s.Objective.Valid() {
		return eris.Errorf("model: unknown objective %q", s.Objective)
	}
	if len(s.Platforms) == 0 {
		return eris.New("model: at least one platform is required")
	}
	for _, p := range s.Platforms {
		if !p.Valid() {
			return eris.Errorf("model: unknown platform %q", p)
		}
	}
	if s.TimeRange != nil && s.TimeRange.End.Before(s.TimeRange.Start) {
		return eris.New("model: time_range end precedes start")
	}
	return nil
}
