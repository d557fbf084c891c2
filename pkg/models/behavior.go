package models

import "time"

const (
	TimeOfDayMorning   = "morning"
	TimeOfDayAfternoon = "afternoon"
	TimeOfDayEvening   = "evening"
	TimeOfDayNight     = "night"

	DayTypeWeekday = "weekday"
	DayTypeWeekend = "weekend"

	LevelHigh   = "high"
	LevelMedium = "medium"
	LevelLow    = "low"
	LevelNone   = "none"
)

// Persona labels produced by the behavior extractor.
const (
	PersonaNewcomer             = "newcomer"
	PersonaEnthusiasticExplorer = "enthusiastic_explorer"
	PersonaLoyalRegular         = "loyal_regular"
	PersonaMorningCafeGoer      = "morning_cafe_goer"
	PersonaNightOwl             = "night_owl"
	PersonaCultureSeeker        = "culture_seeker"
	PersonaWeekendAdventurer    = "weekend_adventurer"
	PersonaExplorer             = "explorer"
	PersonaCasualVisitor        = "casual_visitor"
)

// BehaviorProfile aggregates implicit history. It is derived data and can always be recomputed.
type BehaviorProfile struct {
	UserID string `json:"user_id"`

	TotalVisits        int                `json:"total_visits"`
	TimeOfDay          map[string]float64 `json:"time_of_day"`
	DominantTimeOfDay  string             `json:"dominant_time_of_day,omitempty"`
	HourlyDistribution [24]float64        `json:"hourly_distribution"`
	WeekdayShare       float64            `json:"weekday_share"`
	WeekendShare       float64            `json:"weekend_share"`
	VisitFrequency     float64            `json:"visit_frequency"`

	CategoryCounts   map[string]int     `json:"category_counts"`
	CategoryShares   map[string]float64 `json:"category_shares"`
	DominantCategory string             `json:"dominant_category,omitempty"`
	Diversity        string             `json:"diversity"`

	VisitedPlaces  map[string]int `json:"visited_places"`
	RevisitRate    float64        `json:"revisit_rate"`
	RevisitPattern string         `json:"revisit_pattern"`

	AverageRating float64  `json:"average_rating"`
	PositiveShare float64  `json:"positive_share"`
	NegativeShare float64  `json:"negative_share"`
	Sentiment     string   `json:"sentiment"`
	TopTags       []string `json:"top_tags,omitempty"`

	SearchCount    int      `json:"search_count"`
	SearchStyle    string   `json:"search_style"`
	TopSearchTerms []string `json:"top_search_terms,omitempty"`

	Persona    string    `json:"persona"`
	ComputedAt time.Time `json:"computed_at"`
}

// IsStale reports whether the snapshot is older than maxAge.
func (b *BehaviorProfile) IsStale(now time.Time, maxAge time.Duration) bool {
	if b == nil || b.ComputedAt.IsZero() {
		return true
	}
	return now.Sub(b.ComputedAt) > maxAge
}

// HasVisits reports whether any visit history contributed to the profile.
func (b *BehaviorProfile) HasVisits() bool {
	return b != nil && b.TotalVisits > 0
}
