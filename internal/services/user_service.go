package services

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/temcen/placerank/pkg/models"
)

// UserService manages declared user traits.
type UserService struct {
	users  UserDirectory
	logger *logrus.Logger
}

// NewUserService creates a new user service
func NewUserService(users UserDirectory, logger *logrus.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

func (s *UserService) GetUserProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	if userID == "" {
		return nil, ErrMissingInput
	}
	return s.users.GetUserProfile(ctx, userID)
}

// UpsertUserProfile replaces the declared traits of a user.
func (s *UserService) UpsertUserProfile(
	ctx context.Context,
	userID string,
	req *models.UserProfileRequest,
) (*models.UserProfile, error) {
	if userID == "" || req == nil {
		return nil, ErrMissingInput
	}

	profile := &models.UserProfile{
		UserID:          userID,
		PersonalityType: strings.ToUpper(strings.TrimSpace(req.PersonalityType)),
		Region:          strings.TrimSpace(req.Region),
		Interests:       trimAll(req.Interests),
		Talents:         trimAll(req.Talents),
		UpdatedAt:       time.Now(),
	}

	if err := s.users.UpsertUserProfile(ctx, profile); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":          userID,
		"personality_type": profile.PersonalityType,
	}).Info("Updated user profile")

	return profile, nil
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
