package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/temcen/placerank/internal/services"
	"github.com/temcen/placerank/pkg/models"
)

type MockRankingService struct {
	mock.Mock
}

func (m *MockRankingService) Rank(ctx context.Context, user *models.UserProfile, rctx models.RankContext) (*models.RankResult, error) {
	args := m.Called(ctx, user, rctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RankResult), args.Error(1)
}

type MockFeedbackService struct {
	mock.Mock
}

func (m *MockFeedbackService) RecordFeedback(ctx context.Context, userID, placeID string, input services.FeedbackInput) (*models.WeightsResult, error) {
	args := m.Called(ctx, userID, placeID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WeightsResult), args.Error(1)
}

type MockWeightService struct {
	mock.Mock
}

func (m *MockWeightService) GetWeights(ctx context.Context, userID string) (*models.WeightsResult, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WeightsResult), args.Error(1)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) GetUserProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserProfile), args.Error(1)
}

func (m *MockUserService) UpsertUserProfile(ctx context.Context, userID string, req *models.UserProfileRequest) (*models.UserProfile, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserProfile), args.Error(1)
}

type MockBehaviorService struct {
	mock.Mock
}

func (m *MockBehaviorService) GetBehaviorProfile(ctx context.Context, userID string) (*models.BehaviorProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BehaviorProfile), args.Error(1)
}

func (m *MockBehaviorService) RecordVisit(ctx context.Context, req *models.VisitRequest) (*models.VisitRecord, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VisitRecord), args.Error(1)
}

func (m *MockBehaviorService) RecordSearch(ctx context.Context, req *models.SearchRequest) (*models.SearchRecord, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SearchRecord), args.Error(1)
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func newTestContext(w *httptest.ResponseRecorder, authenticatedUser string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(w)
	if authenticatedUser != "" {
		c.Set("user_id", authenticatedUser)
	}
	return c
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error.Code
}
