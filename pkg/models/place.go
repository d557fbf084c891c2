package models

// GeoPoint is a WGS84 coordinate.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// TimeRange is an opening window in local "HH:MM" form. Close before Open spans midnight.
type TimeRange struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// RecommendedFor lists the declared affinities of a place.
type RecommendedFor struct {
	MBTI      []string `json:"mbti,omitempty"`
	Mood      []string `json:"mood,omitempty"`
	TimeOfDay []string `json:"timeOfDay,omitempty"`
	DayType   []string `json:"dayType,omitempty"`
	Weather   []string `json:"weather,omitempty"`
}

// PlaceCandidate is a rankable place as read from the place store.
type PlaceCandidate struct {
	ID             string               `json:"id"`
	Name           string               `json:"name"`
	Category       string               `json:"category"`
	Tags           []string             `json:"tags,omitempty"`
	Region         string               `json:"region,omitempty"`
	Coordinates    *GeoPoint            `json:"coordinates,omitempty"`
	RecommendedFor RecommendedFor       `json:"recommendedFor"`
	OperatingHours map[string]TimeRange `json:"operatingHours,omitempty"`
	Rating         float64              `json:"rating"`
	Popularity     int                  `json:"popularity"`
}

// RankedPlace annotates a candidate for the duration of one ranking request.
type RankedPlace struct {
	Place         PlaceCandidate     `json:"place"`
	BaseScore     float64            `json:"baseScore"`
	MatchScore    float64            `json:"matchScore"`
	MatchDetails  map[string]float64 `json:"matchDetails"`
	ContextBoosts map[string]float64 `json:"contextBoosts,omitempty"`
}
