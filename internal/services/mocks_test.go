package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/temcen/placerank/pkg/models"
)

// MockLearningProfileRepository is a mock implementation
type MockLearningProfileRepository struct {
	mock.Mock
}

func (m *MockLearningProfileRepository) Load(ctx context.Context, userID string) (*models.LearningProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LearningProfile), args.Error(1)
}

func (m *MockLearningProfileRepository) Save(ctx context.Context, profile *models.LearningProfile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

// MockPlaceSource is a mock implementation
type MockPlaceSource struct {
	mock.Mock
}

func (m *MockPlaceSource) places(args mock.Arguments) ([]models.PlaceCandidate, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PlaceCandidate), args.Error(1)
}

func (m *MockPlaceSource) FetchByPersonalityType(ctx context.Context, mbti string, limit int) ([]models.PlaceCandidate, error) {
	return m.places(m.Called(ctx, mbti, limit))
}

func (m *MockPlaceSource) FetchByRegion(ctx context.Context, region string, limit int) ([]models.PlaceCandidate, error) {
	return m.places(m.Called(ctx, region, limit))
}

func (m *MockPlaceSource) FetchByMood(ctx context.Context, mood string, limit int) ([]models.PlaceCandidate, error) {
	return m.places(m.Called(ctx, mood, limit))
}

func (m *MockPlaceSource) FetchPopular(ctx context.Context, limit int) ([]models.PlaceCandidate, error) {
	return m.places(m.Called(ctx, limit))
}

func (m *MockPlaceSource) GetPlace(ctx context.Context, placeID string) (*models.PlaceCandidate, error) {
	args := m.Called(ctx, placeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PlaceCandidate), args.Error(1)
}

// MockFeedbackRepository is a mock implementation
type MockFeedbackRepository struct {
	mock.Mock
}

func (m *MockFeedbackRepository) Insert(ctx context.Context, event *models.FeedbackEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockFeedbackRepository) FetchHistory(ctx context.Context, userID string, limit int) ([]models.FeedbackEvent, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FeedbackEvent), args.Error(1)
}

// MockPeerDirectory is a mock implementation
type MockPeerDirectory struct {
	mock.Mock
}

func (m *MockPeerDirectory) FetchPeerCandidates(ctx context.Context, personalityType, excludeUserID string, limit int) ([]models.UserProfile, error) {
	args := m.Called(ctx, personalityType, excludeUserID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.UserProfile), args.Error(1)
}

// MockUserDirectory is a mock implementation
type MockUserDirectory struct {
	mock.Mock
}

func (m *MockUserDirectory) GetUserProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserProfile), args.Error(1)
}

func (m *MockUserDirectory) UpsertUserProfile(ctx context.Context, profile *models.UserProfile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

// MockBehaviorRepository is a mock implementation
type MockBehaviorRepository struct {
	mock.Mock
}

func (m *MockBehaviorRepository) FetchVisits(ctx context.Context, userID string, limit int) ([]models.VisitRecord, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.VisitRecord), args.Error(1)
}

func (m *MockBehaviorRepository) FetchSearches(ctx context.Context, userID string, limit int) ([]models.SearchRecord, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SearchRecord), args.Error(1)
}

func (m *MockBehaviorRepository) InsertVisit(ctx context.Context, visit *models.VisitRecord) error {
	args := m.Called(ctx, visit)
	return args.Error(0)
}

func (m *MockBehaviorRepository) InsertSearch(ctx context.Context, search *models.SearchRecord) error {
	args := m.Called(ctx, search)
	return args.Error(0)
}

func (m *MockBehaviorRepository) LoadSnapshot(ctx context.Context, userID string) (*models.BehaviorProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BehaviorProfile), args.Error(1)
}

func (m *MockBehaviorRepository) SaveSnapshot(ctx context.Context, profile *models.BehaviorProfile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

// MockFeedbackPublisher is a mock implementation
type MockFeedbackPublisher struct {
	mock.Mock
}

func (m *MockFeedbackPublisher) PublishFeedbackRecorded(ctx context.Context, event *models.FeedbackEvent, weights models.WeightVector) error {
	args := m.Called(ctx, event, weights)
	return args.Error(0)
}
