package models

import (
	"time"

	"gonum.org/v1/gonum/floats"
)

// Dimension names one of the five blend coefficients.
type Dimension string

const (
	DimensionPersonality Dimension = "personality"
	DimensionInterests   Dimension = "interests"
	DimensionTalents     Dimension = "talents"
	DimensionMood        Dimension = "mood"
	DimensionLocation    Dimension = "location"
)

// Dimensions lists every dimension in the canonical order used by Values.
var Dimensions = []Dimension{
	DimensionPersonality,
	DimensionInterests,
	DimensionTalents,
	DimensionMood,
	DimensionLocation,
}

// WeightVector holds the per-user blend coefficients. The five fields sum to 1.
type WeightVector struct {
	PersonalityAffinity float64 `json:"personalityAffinity"`
	Interests           float64 `json:"interests"`
	Talents             float64 `json:"talents"`
	Mood                float64 `json:"mood"`
	Location            float64 `json:"location"`
}

// DefaultWeights returns the starting distribution for users without history.
func DefaultWeights() WeightVector {
	return WeightVector{
		PersonalityAffinity: 0.35,
		Interests:           0.25,
		Talents:             0.15,
		Mood:                0.15,
		Location:            0.10,
	}
}

// Get returns the coefficient for a dimension.
func (w WeightVector) Get(d Dimension) float64 {
	switch d {
	case DimensionPersonality:
		return w.PersonalityAffinity
	case DimensionInterests:
		return w.Interests
	case DimensionTalents:
		return w.Talents
	case DimensionMood:
		return w.Mood
	case DimensionLocation:
		return w.Location
	default:
		return 0
	}
}

// Set overwrites the coefficient for a dimension.
func (w *WeightVector) Set(d Dimension, v float64) {
	switch d {
	case DimensionPersonality:
		w.PersonalityAffinity = v
	case DimensionInterests:
		w.Interests = v
	case DimensionTalents:
		w.Talents = v
	case DimensionMood:
		w.Mood = v
	case DimensionLocation:
		w.Location = v
	}
}

// Values returns the coefficients in Dimensions order.
func (w WeightVector) Values() []float64 {
	return []float64{w.PersonalityAffinity, w.Interests, w.Talents, w.Mood, w.Location}
}

// Sum returns the total of all coefficients.
func (w WeightVector) Sum() float64 {
	return floats.Sum(w.Values())
}

// Normalize clamps negative coefficients at zero and rescales the vector to sum to 1.
// A vector with no positive mass falls back to DefaultWeights.
func (w WeightVector) Normalize() WeightVector {
	values := w.Values()
	for i, v := range values {
		if v < 0 {
			values[i] = 0
		}
	}

	total := floats.Sum(values)
	if total <= 0 {
		return DefaultWeights()
	}
	floats.Scale(1/total, values)

	var out WeightVector
	for i, d := range Dimensions {
		out.Set(d, values[i])
	}
	return out
}

// WeightSource records where a weight vector came from.
type WeightSource string

const (
	WeightSourcePersonal      WeightSource = "personal"
	WeightSourceCollaborative WeightSource = "collaborative"
)

// WeightsResult carries a weight vector together with its provenance.
type WeightsResult struct {
	UserID     string            `json:"user_id"`
	Weights    WeightVector      `json:"weights"`
	Source     WeightSource      `json:"source"`
	Peers      []SimilarityScore `json:"peers,omitempty"`
	ComputedAt time.Time         `json:"computed_at"`
}

// IsCollaborative reports whether peer weights were blended in.
func (r WeightsResult) IsCollaborative() bool {
	return r.Source == WeightSourceCollaborative
}

// SimilarityScore describes how close a peer is to the requesting user.
type SimilarityScore struct {
	PeerUserID  string  `json:"peer_user_id"`
	Similarity  float64 `json:"similarity"`
	Personality float64 `json:"personality"`
	Interests   float64 `json:"interests"`
	Talents     float64 `json:"talents"`
}
