package models

import (
	"time"

	"github.com/google/uuid"
)

// FeedbackEvent is a single explicit rating of a place. It is never mutated once recorded.
type FeedbackEvent struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id"`
	PlaceID   string    `json:"place_id"`
	Rating    int       `json:"rating"`
	Tags      []string  `json:"tags,omitempty"`
	Category  string    `json:"category,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// LearningProfile is the persisted per-user personalization state.
type LearningProfile struct {
	UserID       string          `json:"user_id"`
	Weights      WeightVector    `json:"weights"`
	LearningRate float64         `json:"learning_rate"`
	Confidence   int             `json:"confidence"`
	History      []FeedbackEvent `json:"history"`
	Version      int64           `json:"version"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// NewLearningProfile returns the profile used before any feedback has been recorded.
func NewLearningProfile(userID string, learningRate float64) *LearningProfile {
	return &LearningProfile{
		UserID:       userID,
		Weights:      DefaultWeights(),
		LearningRate: learningRate,
		Confidence:   0,
		History:      []FeedbackEvent{},
	}
}

// AppendHistory adds an event and drops the oldest entries beyond capacity.
func (p *LearningProfile) AppendHistory(event FeedbackEvent, capacity int) {
	p.History = append(p.History, event)
	if capacity > 0 && len(p.History) > capacity {
		p.History = append([]FeedbackEvent(nil), p.History[len(p.History)-capacity:]...)
	}
}

// RecentRatings returns up to n ratings from the end of the history, oldest first.
func (p *LearningProfile) RecentRatings(n int) []float64 {
	start := len(p.History) - n
	if start < 0 {
		start = 0
	}
	ratings := make([]float64, 0, len(p.History)-start)
	for _, event := range p.History[start:] {
		ratings = append(ratings, float64(event.Rating))
	}
	return ratings
}
