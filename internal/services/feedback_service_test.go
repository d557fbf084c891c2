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

type feedbackFixture struct {
	service   *FeedbackService
	feedback  *MockFeedbackRepository
	profiles  *MockLearningProfileRepository
	places    *MockPlaceSource
	publisher *MockFeedbackPublisher
	store     *cache.MemoryStore
}

func newFeedbackFixture() *feedbackFixture {
	cfg := config.DefaultRanking()
	f := &feedbackFixture{
		feedback:  new(MockFeedbackRepository),
		profiles:  new(MockLearningProfileRepository),
		places:    new(MockPlaceSource),
		publisher: new(MockFeedbackPublisher),
		store:     cache.NewMemoryStore(),
	}
	adjuster := NewWeightAdjuster(cfg.Learning, cfg.Vocabulary)
	blender := NewPeerBlender(new(MockPeerDirectory), f.profiles, f.store, &cfg, testLogger())
	f.service = NewFeedbackService(f.feedback, f.profiles, f.places, adjuster, blender, f.publisher, &cfg, testLogger())
	return f
}

func TestFeedbackService_RecordFeedback(t *testing.T) {
	f := newFeedbackFixture()
	ctx := context.Background()

	require.NoError(t, f.store.Set(ctx, collaborativeWeightsKey("user-1"), models.WeightsResult{UserID: "user-1"}, 0))

	f.places.On("GetPlace", mock.Anything, "place-1").Return(&models.PlaceCandidate{ID: "place-1", Category: "cafe"}, nil)
	f.feedback.On("Insert", mock.Anything, mock.MatchedBy(func(e *models.FeedbackEvent) bool {
		return e.UserID == "user-1" && e.PlaceID == "place-1" && e.Rating == 5 && e.Category == "cafe"
	})).Return(nil)
	f.profiles.On("Load", mock.Anything, "user-1").Return(models.NewLearningProfile("user-1", 0.1), nil)
	f.profiles.On("Save", mock.Anything, mock.MatchedBy(func(p *models.LearningProfile) bool {
		return p.Confidence == 1 && len(p.History) == 1
	})).Return(nil)
	f.publisher.On("PublishFeedbackRecorded", mock.Anything, mock.AnythingOfType("*models.FeedbackEvent"), mock.Anything).Return(nil)

	result, err := f.service.RecordFeedback(ctx, "user-1", "place-1", FeedbackInput{Rating: 5, Tags: []string{"관심사"}})

	require.NoError(t, err)
	assert.Equal(t, models.WeightSourcePersonal, result.Source)
	assert.Greater(t, result.Weights.Interests, 0.25)
	assert.InDelta(t, 1.0, result.Weights.Sum(), 1e-9)
	assert.Equal(t, 0, f.store.Len())

	f.feedback.AssertExpectations(t)
	f.profiles.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
}

func TestFeedbackService_RetriesVersionConflict(t *testing.T) {
	f := newFeedbackFixture()

	f.places.On("GetPlace", mock.Anything, "place-1").Return(nil, errors.New("place store down"))
	f.feedback.On("Insert", mock.Anything, mock.Anything).Return(nil)
	f.profiles.On("Load", mock.Anything, "user-1").Return(models.NewLearningProfile("user-1", 0.1), nil).Once()
	f.profiles.On("Load", mock.Anything, "user-1").Return(models.NewLearningProfile("user-1", 0.1), nil).Once()
	f.profiles.On("Save", mock.Anything, mock.Anything).Return(ErrVersionConflict).Once()
	f.profiles.On("Save", mock.Anything, mock.Anything).Return(nil).Once()
	f.publisher.On("PublishFeedbackRecorded", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("kafka down"))

	result, err := f.service.RecordFeedback(context.Background(), "user-1", "place-1", FeedbackInput{Rating: 1, Tags: []string{"mood"}})

	require.NoError(t, err)
	assert.Less(t, result.Weights.Mood, 0.15)
	f.profiles.AssertNumberOfCalls(t, "Load", 2)
	f.profiles.AssertNumberOfCalls(t, "Save", 2)
}

func TestFeedbackService_GivesUpAfterMaxAttempts(t *testing.T) {
	f := newFeedbackFixture()

	f.places.On("GetPlace", mock.Anything, "place-1").Return(&models.PlaceCandidate{ID: "place-1"}, nil)
	f.profiles.On("Load", mock.Anything, "user-1").Return(models.NewLearningProfile("user-1", 0.1), nil)
	f.profiles.On("Save", mock.Anything, mock.Anything).Return(ErrVersionConflict)

	_, err := f.service.RecordFeedback(context.Background(), "user-1", "place-1", FeedbackInput{Rating: 4})

	assert.ErrorIs(t, err, ErrVersionConflict)
	f.profiles.AssertNumberOfCalls(t, "Save", 3)
	f.feedback.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	f.publisher.AssertNotCalled(t, "PublishFeedbackRecorded", mock.Anything, mock.Anything, mock.Anything)
}

func TestFeedbackService_SaveFailureLeavesNoLogRow(t *testing.T) {
	f := newFeedbackFixture()

	f.places.On("GetPlace", mock.Anything, "place-1").Return(&models.PlaceCandidate{ID: "place-1", Category: "cafe"}, nil)
	f.profiles.On("Load", mock.Anything, "user-1").Return(models.NewLearningProfile("user-1", 0.1), nil)
	f.profiles.On("Save", mock.Anything, mock.Anything).Return(errors.New("db down"))

	_, err := f.service.RecordFeedback(context.Background(), "user-1", "place-1", FeedbackInput{Rating: 5})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
	f.profiles.AssertNumberOfCalls(t, "Save", 1)
	f.feedback.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	f.publisher.AssertNotCalled(t, "PublishFeedbackRecorded", mock.Anything, mock.Anything, mock.Anything)
}

func TestFeedbackService_LogsEventAfterSave(t *testing.T) {
	f := newFeedbackFixture()

	require.NoError(t, f.store.Set(context.Background(), collaborativeWeightsKey("user-1"), models.WeightsResult{UserID: "user-1"}, 0))

	var order []string
	f.places.On("GetPlace", mock.Anything, "place-1").Return(&models.PlaceCandidate{ID: "place-1"}, nil)
	f.profiles.On("Load", mock.Anything, "user-1").Return(models.NewLearningProfile("user-1", 0.1), nil)
	f.profiles.On("Save", mock.Anything, mock.Anything).Return(nil).Run(func(mock.Arguments) { order = append(order, "save") })
	f.feedback.On("Insert", mock.Anything, mock.Anything).Return(errors.New("log unavailable")).Run(func(mock.Arguments) { order = append(order, "insert") })

	_, err := f.service.RecordFeedback(context.Background(), "user-1", "place-1", FeedbackInput{Rating: 2})

	require.Error(t, err)
	assert.Equal(t, []string{"save", "insert"}, order)
	assert.Equal(t, 0, f.store.Len())
	f.publisher.AssertNotCalled(t, "PublishFeedbackRecorded", mock.Anything, mock.Anything, mock.Anything)
}

func TestFeedbackService_Validation(t *testing.T) {
	f := newFeedbackFixture()
	ctx := context.Background()

	tests := []struct {
		name    string
		userID  string
		placeID string
		rating  int
		want    error
	}{
		{name: "missing user", userID: "", placeID: "place-1", rating: 4, want: ErrMissingInput},
		{name: "missing place", userID: "user-1", placeID: " ", rating: 4, want: ErrMissingInput},
		{name: "rating too low", userID: "user-1", placeID: "place-1", rating: 0, want: ErrInvalidRating},
		{name: "rating too high", userID: "user-1", placeID: "place-1", rating: 6, want: ErrInvalidRating},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.RecordFeedback(ctx, tt.userID, tt.placeID, FeedbackInput{Rating: tt.rating})
			assert.ErrorIs(t, err, tt.want)
		})
	}

	f.feedback.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}
