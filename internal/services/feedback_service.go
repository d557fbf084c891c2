package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/temcen/placerank/internal/config"
	"github.com/temcen/placerank/pkg/models"
)

// FeedbackInput is the payload of one explicit rating.
type FeedbackInput struct {
	Rating    int
	Tags      []string
	Timestamp time.Time
}

// FeedbackService records explicit feedback and updates the learning profile.
type FeedbackService struct {
	feedback  FeedbackRepository
	profiles  LearningProfileRepository
	places    PlaceSource
	adjuster  *WeightAdjuster
	blender   *PeerBlender
	publisher FeedbackPublisher
	config    config.LearningConfig
	logger    *logrus.Logger
}

// NewFeedbackService creates a new feedback service. blender and publisher may be nil.
func NewFeedbackService(
	feedback FeedbackRepository,
	profiles LearningProfileRepository,
	places PlaceSource,
	adjuster *WeightAdjuster,
	blender *PeerBlender,
	publisher FeedbackPublisher,
	cfg *config.RankingConfig,
	logger *logrus.Logger,
) *FeedbackService {
	return &FeedbackService{
		feedback:  feedback,
		profiles:  profiles,
		places:    places,
		adjuster:  adjuster,
		blender:   blender,
		publisher: publisher,
		config:    cfg.Learning,
		logger:    logger,
	}
}

// RecordFeedback adjusts and saves the user's weights, logs the event, and returns the weights.
func (s *FeedbackService) RecordFeedback(
	ctx context.Context,
	userID, placeID string,
	input FeedbackInput,
) (*models.WeightsResult, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(placeID) == "" {
		return nil, ErrMissingInput
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, ErrInvalidRating
	}

	timestamp := input.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	place, err := s.places.GetPlace(ctx, placeID)
	if err != nil {
		s.logger.WithError(err).WithField("place_id", placeID).Warn("Failed to load place metadata, adjusting from tags only")
		place = nil
	}

	event := &models.FeedbackEvent{
		ID:        uuid.New(),
		UserID:    userID,
		PlaceID:   placeID,
		Rating:    input.Rating,
		Tags:      input.Tags,
		Timestamp: timestamp,
	}
	if place != nil {
		event.Category = place.Category
	}

	profile, err := s.updateProfile(ctx, event, place)
	if err != nil {
		return nil, err
	}

	if s.blender != nil {
		if err := s.blender.Invalidate(ctx, userID); err != nil {
			s.logger.WithError(err).WithField("user_id", userID).Warn("Failed to invalidate collaborative weights")
		}
	}

	// The log row exists only for events the weights have absorbed.
	if err := s.feedback.Insert(ctx, event); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"user_id":     userID,
			"feedback_id": event.ID,
		}).Error("Learning profile saved but feedback log write failed")
		return nil, fmt.Errorf("failed to record feedback: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishFeedbackRecorded(ctx, event, profile.Weights); err != nil {
			s.logger.WithError(err).WithField("feedback_id", event.ID).Warn("Failed to publish feedback event")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":    userID,
		"place_id":   placeID,
		"rating":     input.Rating,
		"confidence": profile.Confidence,
	}).Info("Recorded feedback")

	return &models.WeightsResult{
		UserID:     userID,
		Weights:    profile.Weights,
		Source:     models.WeightSourcePersonal,
		ComputedAt: profile.UpdatedAt,
	}, nil
}

// updateProfile runs load, adjust and save, retrying on version conflicts.
func (s *FeedbackService) updateProfile(
	ctx context.Context,
	event *models.FeedbackEvent,
	place *models.PlaceCandidate,
) (*models.LearningProfile, error) {
	attempts := s.config.MaxSaveAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		profile, err := s.profiles.Load(ctx, event.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to load learning profile: %w", err)
		}

		result := s.adjuster.Adjust(profile, event, place)
		s.adjuster.Apply(profile, event, result, time.Now())

		err = s.profiles.Save(ctx, profile)
		if err == nil {
			return profile, nil
		}
		if !errors.Is(err, ErrVersionConflict) {
			return nil, fmt.Errorf("failed to save learning profile: %w", err)
		}

		lastErr = err
		s.logger.WithFields(logrus.Fields{
			"user_id": event.UserID,
			"attempt": attempt,
		}).Warn("Learning profile changed concurrently, retrying")
	}

	return nil, fmt.Errorf("failed to save learning profile after %d attempts: %w", attempts, lastErr)
}
