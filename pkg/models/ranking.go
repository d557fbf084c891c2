package models

import "time"

// RankContext is the situational input of one ranking request.
type RankContext struct {
	Now      time.Time `json:"now"`
	Mood     string    `json:"mood,omitempty"`
	Weather  string    `json:"weather,omitempty"`
	Region   string    `json:"region,omitempty"`
	Location *GeoPoint `json:"location,omitempty"`
}

// RankResult is the output of the ranking pipeline.
type RankResult struct {
	UserID        string        `json:"user_id"`
	Places        []RankedPlace `json:"places"`
	WeightsSource WeightSource  `json:"weights_source"`
	Weights       WeightVector  `json:"weights"`
	Persona       string        `json:"persona,omitempty"`
	Fallback      bool          `json:"fallback"`
	GeneratedAt   time.Time     `json:"generated_at"`
	Latency       time.Duration `json:"latency"`
}
