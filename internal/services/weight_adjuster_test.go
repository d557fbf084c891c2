package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temcen/placerank/internal/config"
	"github.com/temcen/placerank/pkg/models"
)

func newTestAdjuster() *WeightAdjuster {
	cfg := config.DefaultRanking()
	return NewWeightAdjuster(cfg.Learning, cfg.Vocabulary)
}

func feedbackEvent(rating int, tags ...string) *models.FeedbackEvent {
	return &models.FeedbackEvent{
		ID:        uuid.New(),
		UserID:    "user-1",
		PlaceID:   "place-1",
		Rating:    rating,
		Tags:      tags,
		Timestamp: time.Now(),
	}
}

func TestWeightAdjuster_InterestTagScenario(t *testing.T) {
	adjuster := newTestAdjuster()
	profile := models.NewLearningProfile("user-1", 0.1)

	result := adjuster.Adjust(profile, feedbackEvent(5, "관심사"), nil)

	require.True(t, result.Changed)
	assert.InDelta(t, 0.1, result.LearningRate, 1e-12)
	assert.InDelta(t, 1.0, result.Emphasis[models.DimensionInterests], 1e-12)
	assert.InDelta(t, 1.0, result.Adjustment[models.DimensionInterests], 1e-12)
	assert.Zero(t, result.Adjustment[models.DimensionMood])

	assert.Greater(t, result.Weights.Interests, 0.25)
	assert.Less(t, result.Weights.PersonalityAffinity, 0.35)
	assert.InDelta(t, 1.0, result.Weights.Sum(), 1e-9)
	assert.InDelta(t, 0.35/1.1, result.Weights.Interests, 1e-9)
}

func TestWeightAdjuster_NeutralFeedbackLeavesWeights(t *testing.T) {
	adjuster := newTestAdjuster()
	profile := models.NewLearningProfile("user-1", 0.1)

	result := adjuster.Adjust(profile, feedbackEvent(3), nil)

	assert.False(t, result.Changed)
	assert.Equal(t, profile.Weights, result.Weights)
}

func TestWeightAdjuster_SumsToOne(t *testing.T) {
	adjuster := newTestAdjuster()
	place := &models.PlaceCandidate{
		ID:          "place-1",
		Region:      "seoul",
		Coordinates: &models.GeoPoint{Lat: 37.5, Lng: 127.0},
		RecommendedFor: models.RecommendedFor{
			MBTI: []string{"INFJ"},
			Mood: []string{"calm"},
		},
	}

	profile := models.NewLearningProfile("user-1", 0.1)
	ratings := []int{1, 5, 2, 4, 1, 1, 5, 3, 2, 5, 1, 1, 1}
	for _, rating := range ratings {
		event := feedbackEvent(rating, "mood", "위치", "skill")
		result := adjuster.Adjust(profile, event, place)
		adjuster.Apply(profile, event, result, time.Now())

		assert.InDelta(t, 1.0, profile.Weights.Sum(), 1e-9)
		for _, v := range profile.Weights.Values() {
			assert.GreaterOrEqual(t, v, 0.0)
		}
	}
	assert.Equal(t, len(ratings), profile.Confidence)
	assert.Len(t, profile.History, len(ratings))
}

func TestWeightAdjuster_NegativeFeedbackLowersEmphasizedDimension(t *testing.T) {
	adjuster := newTestAdjuster()
	profile := models.NewLearningProfile("user-1", 0.1)

	result := adjuster.Adjust(profile, feedbackEvent(1, "Mood"), nil)

	require.True(t, result.Changed)
	assert.Less(t, result.Weights.Mood, 0.15)
	assert.InDelta(t, 1.0, result.Weights.Sum(), 1e-9)
}

func TestWeightAdjuster_Emphasis(t *testing.T) {
	adjuster := newTestAdjuster()

	t.Run("uniform without signal", func(t *testing.T) {
		emphasis := adjuster.Emphasis(nil, nil)
		for _, d := range models.Dimensions {
			assert.InDelta(t, 0.2, emphasis[d], 1e-12)
		}
	})

	t.Run("unknown tags count as no signal", func(t *testing.T) {
		emphasis := adjuster.Emphasis([]string{"delicious"}, &models.PlaceCandidate{ID: "p"})
		assert.InDelta(t, 0.2, emphasis[models.DimensionTalents], 1e-12)
	})

	t.Run("tags and metadata combine", func(t *testing.T) {
		place := &models.PlaceCandidate{
			ID:             "p",
			Region:         "busan",
			RecommendedFor: models.RecommendedFor{TimeOfDay: []string{"morning"}},
		}
		emphasis := adjuster.Emphasis([]string{"TALENT show"}, place)

		assert.InDelta(t, 0.5, emphasis[models.DimensionTalents], 1e-12)
		assert.InDelta(t, 0.25, emphasis[models.DimensionLocation], 1e-12)
		assert.InDelta(t, 0.25, emphasis[models.DimensionInterests], 1e-12)
		assert.Zero(t, emphasis[models.DimensionMood])
	})
}

func TestWeightAdjuster_LearningRate(t *testing.T) {
	adjuster := newTestAdjuster()

	tests := []struct {
		name       string
		confidence int
		history    []int
		rating     int
		expected   float64
	}{
		{name: "new user uses max rate", confidence: 0, rating: 4, expected: 0.1},
		{name: "experienced user uses min rate", confidence: 40, rating: 4, expected: 0.02},
		{name: "midpoint interpolates", confidence: 5, rating: 4, expected: 0.1},
		{name: "upper bound interpolates", confidence: 20, rating: 4, expected: 0.02},
		{name: "halfway", confidence: 12, rating: 4, expected: 0.1 - 0.08*7.0/15.0},
		{name: "noisy rating is damped", confidence: 0, history: []int{5, 5, 5}, rating: 1, expected: 0.08},
		{name: "too little history is not damped", confidence: 0, history: []int{5, 5}, rating: 1, expected: 0.1},
		{name: "damping never drops below min rate", confidence: 50, history: []int{5, 5, 5, 5}, rating: 1, expected: 0.02},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := models.NewLearningProfile("user-1", 0.1)
			profile.Confidence = tt.confidence
			for _, rating := range tt.history {
				profile.AppendHistory(models.FeedbackEvent{Rating: rating}, 50)
			}

			assert.InDelta(t, tt.expected, adjuster.LearningRate(profile, tt.rating), 1e-12)
		})
	}
}

func TestWeightAdjuster_ApplyCapsHistoryAndConfidence(t *testing.T) {
	adjuster := newTestAdjuster()
	profile := models.NewLearningProfile("user-1", 0.1)
	profile.Confidence = 100
	for i := 0; i < 50; i++ {
		profile.AppendHistory(models.FeedbackEvent{Rating: 4}, 50)
	}

	event := feedbackEvent(5, "hobby")
	adjuster.Apply(profile, event, adjuster.Adjust(profile, event, nil), time.Now())

	assert.Equal(t, 100, profile.Confidence)
	assert.Len(t, profile.History, 50)
	assert.Equal(t, event.ID, profile.History[49].ID)
}
