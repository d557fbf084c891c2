package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/temcen/placerank/internal/services"
	"github.com/temcen/placerank/pkg/models"
)

func TestUserHandler_GetProfile(t *testing.T) {
	tests := []struct {
		name           string
		mockSetup      func(*MockUserService)
		expectedStatus int
		expectedError  string
	}{
		{
			name: "existing profile",
			mockSetup: func(m *MockUserService) {
				m.On("GetUserProfile", mock.Anything, "user-1").
					Return(&models.UserProfile{UserID: "user-1", PersonalityType: "ENFP"}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "unknown user",
			mockSetup: func(m *MockUserService) {
				m.On("GetUserProfile", mock.Anything, "user-1").Return(nil, services.ErrNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedError:  "NOT_FOUND",
		},
		{
			name: "store failure",
			mockSetup: func(m *MockUserService) {
				m.On("GetUserProfile", mock.Anything, "user-1").Return(nil, errors.New("connection reset"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "PROFILE_FAILED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(MockUserService)
			tt.mockSetup(users)

			handler := NewUserHandler(testLogger(), users)

			w := httptest.NewRecorder()
			c := newTestContext(w, "")
			c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/users/user-1/profile", nil)
			c.Params = []gin.Param{{Key: "userId", Value: "user-1"}}

			handler.GetProfile(c)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, errorCode(t, w))
			}
		})
	}
}

func TestUserHandler_UpdateProfile(t *testing.T) {
	t.Run("valid update", func(t *testing.T) {
		users := new(MockUserService)
		users.On("UpsertUserProfile", mock.Anything, "user-1", mock.MatchedBy(func(req *models.UserProfileRequest) bool {
			return req.PersonalityType == "infp" && len(req.Interests) == 2
		})).Return(&models.UserProfile{UserID: "user-1", PersonalityType: "INFP"}, nil)

		handler := NewUserHandler(testLogger(), users)

		w := httptest.NewRecorder()
		c := newTestContext(w, "user-1")
		c.Request = httptest.NewRequest(http.MethodPut, "/api/v1/users/user-1/profile",
			strings.NewReader(`{"personality_type":"infp","interests":["jazz","books"]}`))
		c.Request.Header.Set("Content-Type", "application/json")
		c.Params = []gin.Param{{Key: "userId", Value: "user-1"}}

		handler.UpdateProfile(c)

		assert.Equal(t, http.StatusOK, w.Code)
		users.AssertExpectations(t)
	})

	t.Run("invalid personality type", func(t *testing.T) {
		users := new(MockUserService)
		handler := NewUserHandler(testLogger(), users)

		w := httptest.NewRecorder()
		c := newTestContext(w, "")
		c.Request = httptest.NewRequest(http.MethodPut, "/api/v1/users/user-1/profile",
			strings.NewReader(`{"personality_type":"INFPX"}`))
		c.Request.Header.Set("Content-Type", "application/json")
		c.Params = []gin.Param{{Key: "userId", Value: "user-1"}}

		handler.UpdateProfile(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_FAILED", errorCode(t, w))
		users.AssertNotCalled(t, "UpsertUserProfile", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestWeightsHandler_Get(t *testing.T) {
	weights := new(MockWeightService)
	weights.On("GetWeights", mock.Anything, "user-1").Return(&models.WeightsResult{
		UserID:  "user-1",
		Weights: models.DefaultWeights(),
		Source:  models.WeightSourcePersonal,
	}, nil)

	handler := NewWeightsHandler(testLogger(), weights)

	w := httptest.NewRecorder()
	c := newTestContext(w, "")
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/users/user-1/weights", nil)
	c.Params = []gin.Param{{Key: "userId", Value: "user-1"}}

	handler.Get(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"personalityAffinity":0.35`)
	weights.AssertExpectations(t)
}
