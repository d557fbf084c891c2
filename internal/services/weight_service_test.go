package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/temcen/placerank/internal/cache"
	"github.com/temcen/placerank/internal/config"
	"github.com/temcen/placerank/pkg/models"
)

func TestWeightService_GetWeights(t *testing.T) {
	cfg := config.DefaultRanking()
	ctx := context.Background()

	t.Run("missing user id", func(t *testing.T) {
		service := NewWeightService(new(MockLearningProfileRepository), new(MockUserDirectory), nil, testLogger())
		_, err := service.GetWeights(ctx, "")
		assert.ErrorIs(t, err, ErrMissingInput)
	})

	t.Run("unknown user gets personal weights", func(t *testing.T) {
		profiles := new(MockLearningProfileRepository)
		users := new(MockUserDirectory)
		service := NewWeightService(profiles, users, nil, testLogger())

		profiles.On("Load", mock.Anything, "user-1").Return(models.NewLearningProfile("user-1", 0.1), nil)
		users.On("GetUserProfile", mock.Anything, "user-1").Return(nil, ErrNotFound)

		result, err := service.GetWeights(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, models.WeightSourcePersonal, result.Source)
		assert.Equal(t, models.DefaultWeights(), result.Weights)
	})

	t.Run("declared personality blends with peers", func(t *testing.T) {
		profiles := new(MockLearningProfileRepository)
		users := new(MockUserDirectory)
		peers := new(MockPeerDirectory)
		blender := NewPeerBlender(peers, profiles, cache.NewMemoryStore(), &cfg, testLogger())
		service := NewWeightService(profiles, users, blender, testLogger())

		profiles.On("Load", mock.Anything, "user-1").Return(models.NewLearningProfile("user-1", 0.1), nil)
		profiles.On("Load", mock.Anything, "peer-1").Return(&models.LearningProfile{
			UserID:  "peer-1",
			Weights: models.WeightVector{Mood: 1},
		}, nil)
		users.On("GetUserProfile", mock.Anything, "user-1").Return(&models.UserProfile{UserID: "user-1", PersonalityType: "ISTP"}, nil)
		peers.On("FetchPeerCandidates", mock.Anything, "ISTP", "user-1", 50).Return([]models.UserProfile{
			{UserID: "peer-1", PersonalityType: "ISTP"},
		}, nil)

		result, err := service.GetWeights(ctx, "user-1")
		require.NoError(t, err)
		assert.True(t, result.IsCollaborative())
		assert.InDelta(t, 0.7*0.15+0.3, result.Weights.Mood, 1e-9)
	})

	t.Run("profile load failure", func(t *testing.T) {
		profiles := new(MockLearningProfileRepository)
		service := NewWeightService(profiles, new(MockUserDirectory), nil, testLogger())
		profiles.On("Load", mock.Anything, "user-1").Return(nil, errors.New("db down"))

		_, err := service.GetWeights(ctx, "user-1")
		assert.Error(t, err)
	})
}
