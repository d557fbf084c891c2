package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/temcen/placerank/internal/cache"
	"github.com/temcen/placerank/internal/config"
	"github.com/temcen/placerank/pkg/models"
)

// LearningStore persists learning profiles in PostgreSQL behind a read-through cache.
type LearningStore struct {
	db       PgxQuerier
	cache    cache.Store
	learning config.LearningConfig
	ttl      time.Duration
	logger   *logrus.Logger
}

// NewLearningStore creates a new learning profile store
func NewLearningStore(
	db PgxQuerier,
	store cache.Store,
	cfg *config.RankingConfig,
	logger *logrus.Logger,
) *LearningStore {
	return &LearningStore{
		db:       db,
		cache:    store,
		learning: cfg.Learning,
		ttl:      cfg.Caching.LearningProfileTTL,
		logger:   logger,
	}
}

func learningProfileKey(userID string) string {
	return fmt.Sprintf("learning_profile:%s", userID)
}

// Load returns the stored profile, or the default profile when none exists or the stored
// row cannot be decoded.
func (s *LearningStore) Load(ctx context.Context, userID string) (*models.LearningProfile, error) {
	if userID == "" {
		return nil, ErrMissingInput
	}

	key := learningProfileKey(userID)
	var cached models.LearningProfile
	if found, err := s.cache.Get(ctx, key, &cached); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("Learning profile cache read failed")
	} else if found {
		return &cached, nil
	}

	var (
		weightsJSON  []byte
		historyJSON  []byte
		learningRate float64
		confidence   int
		version      int64
		updatedAt    time.Time
	)

	query := `
		SELECT weights, learning_rate, confidence, history, version, updated_at
		FROM learning_profiles
		WHERE user_id = $1`

	err := s.db.QueryRow(ctx, query, userID).Scan(
		&weightsJSON, &learningRate, &confidence, &historyJSON, &version, &updatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return s.defaultProfile(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load learning profile: %w", err)
	}

	profile, decodeErr := s.decode(userID, weightsJSON, historyJSON, learningRate, confidence)
	if decodeErr != nil {
		s.logger.WithFields(logrus.Fields{
			"user_id": userID,
			"version": version,
		}).WithError(decodeErr).Warn("Stored learning profile is unreadable, using defaults")
		profile = s.defaultProfile(userID)
	}
	profile.Version = version
	profile.UpdatedAt = updatedAt

	if err := s.cache.Set(ctx, key, profile, s.ttl); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("Failed to cache learning profile")
	}

	return profile, nil
}

// Save writes the profile if its version still matches the stored one and bumps the version.
func (s *LearningStore) Save(ctx context.Context, profile *models.LearningProfile) error {
	if profile == nil || profile.UserID == "" {
		return ErrMissingInput
	}

	weightsJSON, err := json.Marshal(profile.Weights)
	if err != nil {
		return fmt.Errorf("failed to marshal weights: %w", err)
	}
	history := profile.History
	if history == nil {
		history = []models.FeedbackEvent{}
	}
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	updatedAt := profile.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	var affected int64
	if profile.Version == 0 {
		query := `
			INSERT INTO learning_profiles (user_id, weights, learning_rate, confidence, history, version, updated_at)
			VALUES ($1, $2, $3, $4, $5, 1, $6)
			ON CONFLICT (user_id) DO NOTHING`

		tag, err := s.db.Exec(ctx, query,
			profile.UserID, weightsJSON, profile.LearningRate, profile.Confidence, historyJSON, updatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert learning profile: %w", err)
		}
		affected = tag.RowsAffected()
	} else {
		query := `
			UPDATE learning_profiles
			SET weights = $2, learning_rate = $3, confidence = $4, history = $5,
				version = version + 1, updated_at = $6
			WHERE user_id = $1 AND version = $7`

		tag, err := s.db.Exec(ctx, query,
			profile.UserID, weightsJSON, profile.LearningRate, profile.Confidence, historyJSON, updatedAt, profile.Version)
		if err != nil {
			return fmt.Errorf("failed to update learning profile: %w", err)
		}
		affected = tag.RowsAffected()
	}

	if err := s.cache.Delete(ctx, learningProfileKey(profile.UserID)); err != nil {
		s.logger.WithError(err).WithField("user_id", profile.UserID).Warn("Failed to invalidate learning profile cache")
	}

	if affected == 0 {
		return ErrVersionConflict
	}

	profile.Version++
	profile.UpdatedAt = updatedAt
	return nil
}

func (s *LearningStore) defaultProfile(userID string) *models.LearningProfile {
	return models.NewLearningProfile(userID, s.learning.MaxRate)
}

func (s *LearningStore) decode(
	userID string,
	weightsJSON, historyJSON []byte,
	learningRate float64,
	confidence int,
) (*models.LearningProfile, error) {
	var weights models.WeightVector
	if err := json.Unmarshal(weightsJSON, &weights); err != nil {
		return nil, fmt.Errorf("invalid weights: %w", err)
	}
	for _, v := range weights.Values() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("invalid weights: non-finite component")
		}
	}

	history := []models.FeedbackEvent{}
	if len(historyJSON) > 0 {
		if err := json.Unmarshal(historyJSON, &history); err != nil {
			return nil, fmt.Errorf("invalid history: %w", err)
		}
	}

	if confidence < 0 {
		confidence = 0
	}
	if confidence > s.learning.MaxConfidence {
		confidence = s.learning.MaxConfidence
	}
	if learningRate < s.learning.MinRate || learningRate > s.learning.MaxRate {
		learningRate = s.learning.MaxRate
	}

	return &models.LearningProfile{
		UserID:       userID,
		Weights:      weights.Normalize(),
		LearningRate: learningRate,
		Confidence:   confidence,
		History:      history,
	}, nil
}
