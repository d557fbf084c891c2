package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/temcen/placerank/pkg/models"
)

// WeightService resolves the effective weights of a user.
type WeightService struct {
	profiles LearningProfileRepository
	users    UserDirectory
	blender  *PeerBlender
	logger   *logrus.Logger
}

// NewWeightService creates a new weight service
func NewWeightService(
	profiles LearningProfileRepository,
	users UserDirectory,
	blender *PeerBlender,
	logger *logrus.Logger,
) *WeightService {
	return &WeightService{
		profiles: profiles,
		users:    users,
		blender:  blender,
		logger:   logger,
	}
}

// GetWeights returns personal weights, blended with peers when the user declared a
// personality type.
func (s *WeightService) GetWeights(ctx context.Context, userID string) (*models.WeightsResult, error) {
	if userID == "" {
		return nil, ErrMissingInput
	}

	profile, err := s.profiles.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load learning profile: %w", err)
	}

	personal := &models.WeightsResult{
		UserID:     userID,
		Weights:    profile.Weights,
		Source:     models.WeightSourcePersonal,
		ComputedAt: time.Now(),
	}

	user, err := s.users.GetUserProfile(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.WithError(err).WithField("user_id", userID).Warn("Failed to load user profile, using personal weights")
		}
		return personal, nil
	}
	if user.PersonalityType == "" || s.blender == nil {
		return personal, nil
	}

	result := s.blender.Blend(ctx, user, profile.Weights)
	return &result, nil
}
