package services

import (
	"math"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/temcen/placerank/internal/config"
	"github.com/temcen/placerank/pkg/models"
)

const (
	tagEmphasis      = 1.0
	metadataEmphasis = 0.5
)

// AdjustmentResult describes one online weight update.
type AdjustmentResult struct {
	Weights      models.WeightVector          `json:"weights"`
	LearningRate float64                      `json:"learning_rate"`
	Normalized   float64                      `json:"normalized_rating"`
	Emphasis     map[models.Dimension]float64 `json:"emphasis"`
	Adjustment   map[models.Dimension]float64 `json:"adjustment"`
	Changed      bool                         `json:"changed"`
}

// WeightAdjuster applies explicit feedback to a learning profile.
type WeightAdjuster struct {
	config     config.LearningConfig
	vocabulary map[models.Dimension][]string
}

// NewWeightAdjuster creates a new weight adjuster. Vocabulary keywords are folded once here.
func NewWeightAdjuster(cfg config.LearningConfig, vocabulary config.VocabularyConfig) *WeightAdjuster {
	return &WeightAdjuster{
		config: cfg,
		vocabulary: map[models.Dimension][]string{
			models.DimensionPersonality: foldTags(vocabulary.Personality),
			models.DimensionInterests:   foldTags(vocabulary.Interests),
			models.DimensionTalents:     foldTags(vocabulary.Talents),
			models.DimensionMood:        foldTags(vocabulary.Mood),
			models.DimensionLocation:    foldTags(vocabulary.Location),
		},
	}
}

// Adjust computes the updated weights for one feedback event without mutating the profile.
// place may be nil when its metadata could not be loaded.
func (a *WeightAdjuster) Adjust(
	profile *models.LearningProfile,
	event *models.FeedbackEvent,
	place *models.PlaceCandidate,
) AdjustmentResult {
	result := AdjustmentResult{
		Weights:      profile.Weights,
		LearningRate: a.LearningRate(profile, event.Rating),
		Normalized:   (float64(event.Rating) - 3) / 2,
		Emphasis:     a.Emphasis(event.Tags, place),
		Adjustment:   make(map[models.Dimension]float64, len(models.Dimensions)),
	}

	if math.Abs(result.Normalized) < a.config.NeutralThreshold {
		return result
	}

	weights := profile.Weights
	for _, d := range models.Dimensions {
		delta := result.Normalized * result.Emphasis[d]
		result.Adjustment[d] = delta
		weights.Set(d, weights.Get(d)+result.LearningRate*delta)
	}

	result.Weights = weights.Normalize()
	result.Changed = true
	return result
}

// Apply folds an adjustment into the profile: weights, rate, history and confidence.
func (a *WeightAdjuster) Apply(
	profile *models.LearningProfile,
	event *models.FeedbackEvent,
	result AdjustmentResult,
	now time.Time,
) {
	if result.Changed {
		profile.Weights = result.Weights
	}
	profile.LearningRate = result.LearningRate
	profile.AppendHistory(*event, a.config.HistorySize)
	if profile.Confidence < a.config.MaxConfidence {
		profile.Confidence++
	}
	profile.UpdatedAt = now
}

// Emphasis distributes one unit of attention across the dimensions based on feedback tags
// and place metadata. Without any signal the distribution is uniform.
func (a *WeightAdjuster) Emphasis(tags []string, place *models.PlaceCandidate) map[models.Dimension]float64 {
	raw := make([]float64, len(models.Dimensions))

	for _, tag := range foldTags(tags) {
		for i, d := range models.Dimensions {
			if a.matchesVocabulary(d, tag) {
				raw[i] += tagEmphasis
			}
		}
	}

	if place != nil {
		if len(place.RecommendedFor.MBTI) > 0 {
			raw[dimensionIndex(models.DimensionPersonality)] += metadataEmphasis
		}
		if len(place.RecommendedFor.Mood) > 0 {
			raw[dimensionIndex(models.DimensionMood)] += metadataEmphasis
		}
		if place.Coordinates != nil || place.Region != "" {
			raw[dimensionIndex(models.DimensionLocation)] += metadataEmphasis
		}
		if len(place.RecommendedFor.TimeOfDay) > 0 || len(place.RecommendedFor.DayType) > 0 {
			raw[dimensionIndex(models.DimensionInterests)] += metadataEmphasis
		}
	}

	emphasis := make(map[models.Dimension]float64, len(models.Dimensions))
	total := floats.Sum(raw)
	for i, d := range models.Dimensions {
		if total == 0 {
			emphasis[d] = 1 / float64(len(models.Dimensions))
			continue
		}
		emphasis[d] = raw[i] / total
	}
	return emphasis
}

// LearningRate decays linearly with confidence and is damped when the rating disagrees
// sharply with the user's recent ratings.
func (a *WeightAdjuster) LearningRate(profile *models.LearningProfile, rating int) float64 {
	cfg := a.config

	var rate float64
	switch {
	case profile.Confidence < cfg.LowConfidence:
		rate = cfg.MaxRate
	case profile.Confidence > cfg.HighConfidence:
		rate = cfg.MinRate
	default:
		span := float64(cfg.HighConfidence - cfg.LowConfidence)
		progress := float64(profile.Confidence-cfg.LowConfidence) / span
		rate = cfg.MaxRate - (cfg.MaxRate-cfg.MinRate)*progress
	}

	recent := profile.RecentRatings(cfg.NoiseWindow)
	if len(recent) >= cfg.NoiseMinPoints {
		if math.Abs(stat.Mean(recent, nil)-float64(rating)) > cfg.NoiseThreshold {
			rate *= cfg.NoiseDamping
		}
	}

	return math.Max(cfg.MinRate, math.Min(cfg.MaxRate, rate))
}

func (a *WeightAdjuster) matchesVocabulary(d models.Dimension, tag string) bool {
	for _, keyword := range a.vocabulary[d] {
		if strings.Contains(tag, keyword) {
			return true
		}
	}
	return false
}

func dimensionIndex(d models.Dimension) int {
	for i, candidate := range models.Dimensions {
		if candidate == d {
			return i
		}
	}
	return -1
}
