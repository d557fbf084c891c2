package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/temcen/placerank/internal/services"
	"github.com/temcen/placerank/pkg/models"
)

func TestRankingHandler_Get(t *testing.T) {
	at := time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		userID         string
		authUser       string
		query          string
		mockSetup      func(*MockRankingService, *MockUserService)
		expectedStatus int
		expectedError  string
	}{
		{
			name:   "ranks with full context",
			userID: "user-1",
			query:  "?mood=calm&weather=rain&region=seoul&lat=37.5&lng=127&at=2024-05-06T09:00:00Z",
			mockSetup: func(r *MockRankingService, u *MockUserService) {
				profile := &models.UserProfile{UserID: "user-1", PersonalityType: "INFP"}
				u.On("GetUserProfile", mock.Anything, "user-1").Return(profile, nil)
				r.On("Rank", mock.Anything, profile, mock.MatchedBy(func(rctx models.RankContext) bool {
					return rctx.Mood == "calm" && rctx.Weather == "rain" && rctx.Region == "seoul" &&
						rctx.Location != nil && rctx.Location.Lat == 37.5 && rctx.Now.Equal(at)
				})).Return(&models.RankResult{UserID: "user-1"}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "unknown user ranks without traits",
			userID: "user-2",
			mockSetup: func(r *MockRankingService, u *MockUserService) {
				u.On("GetUserProfile", mock.Anything, "user-2").Return(nil, services.ErrNotFound)
				r.On("Rank", mock.Anything, &models.UserProfile{UserID: "user-2"}, mock.Anything).
					Return(&models.RankResult{UserID: "user-2", Fallback: true}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "profile lookup failure still ranks",
			userID: "user-3",
			mockSetup: func(r *MockRankingService, u *MockUserService) {
				u.On("GetUserProfile", mock.Anything, "user-3").Return(nil, errors.New("timeout"))
				r.On("Rank", mock.Anything, &models.UserProfile{UserID: "user-3"}, mock.Anything).
					Return(&models.RankResult{UserID: "user-3"}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "bad coordinates",
			userID:         "user-1",
			query:          "?lat=abc&lng=1",
			mockSetup:      func(*MockRankingService, *MockUserService) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "INVALID_QUERY_PARAM",
		},
		{
			name:           "blank user id",
			userID:         " ",
			mockSetup:      func(*MockRankingService, *MockUserService) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "INVALID_USER_ID",
		},
		{
			name:           "other user's ranking",
			userID:         "user-1",
			authUser:       "user-9",
			mockSetup:      func(*MockRankingService, *MockUserService) {},
			expectedStatus: http.StatusForbidden,
			expectedError:  "FORBIDDEN",
		},
		{
			name:   "ranking failure",
			userID: "user-1",
			mockSetup: func(r *MockRankingService, u *MockUserService) {
				u.On("GetUserProfile", mock.Anything, "user-1").Return(&models.UserProfile{UserID: "user-1"}, nil)
				r.On("Rank", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("boom"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "RANKING_FAILED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ranking := new(MockRankingService)
			users := new(MockUserService)
			tt.mockSetup(ranking, users)

			handler := NewRankingHandler(testLogger(), ranking, users)

			w := httptest.NewRecorder()
			c := newTestContext(w, tt.authUser)
			c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/rankings/x"+tt.query, nil)
			c.Params = []gin.Param{{Key: "userId", Value: tt.userID}}

			handler.Get(c)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, errorCode(t, w))
			}
			ranking.AssertExpectations(t)
			users.AssertExpectations(t)
		})
	}
}
