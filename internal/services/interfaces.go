package services

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/temcen/placerank/pkg/models"
)

// PgxQuerier is the subset of pgxpool.Pool used by the repositories. pgxmock pools satisfy it.
type PgxQuerier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// LearningProfileRepository persists per-user learning state.
type LearningProfileRepository interface {
	// Load never fails for a missing or unreadable profile; it returns the default profile.
	Load(ctx context.Context, userID string) (*models.LearningProfile, error)
	// Save returns ErrVersionConflict when the stored version differs from profile.Version.
	Save(ctx context.Context, profile *models.LearningProfile) error
}

// PlaceSource supplies candidate places.
type PlaceSource interface {
	FetchByPersonalityType(ctx context.Context, mbti string, limit int) ([]models.PlaceCandidate, error)
	FetchByRegion(ctx context.Context, region string, limit int) ([]models.PlaceCandidate, error)
	FetchByMood(ctx context.Context, mood string, limit int) ([]models.PlaceCandidate, error)
	FetchPopular(ctx context.Context, limit int) ([]models.PlaceCandidate, error)
	GetPlace(ctx context.Context, placeID string) (*models.PlaceCandidate, error)
}

// FeedbackRepository is the permanent feedback log.
type FeedbackRepository interface {
	Insert(ctx context.Context, event *models.FeedbackEvent) error
	// FetchHistory returns the newest events first.
	FetchHistory(ctx context.Context, userID string, limit int) ([]models.FeedbackEvent, error)
}

// PeerDirectory finds users sharing a personality type.
type PeerDirectory interface {
	FetchPeerCandidates(ctx context.Context, personalityType, excludeUserID string, limit int) ([]models.UserProfile, error)
}

// UserDirectory stores declared user traits.
type UserDirectory interface {
	GetUserProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	UpsertUserProfile(ctx context.Context, profile *models.UserProfile) error
}

// BehaviorRepository stores implicit signals and derived behavior snapshots.
type BehaviorRepository interface {
	FetchVisits(ctx context.Context, userID string, limit int) ([]models.VisitRecord, error)
	FetchSearches(ctx context.Context, userID string, limit int) ([]models.SearchRecord, error)
	InsertVisit(ctx context.Context, visit *models.VisitRecord) error
	InsertSearch(ctx context.Context, search *models.SearchRecord) error
	// LoadSnapshot returns nil without error when no snapshot exists.
	LoadSnapshot(ctx context.Context, userID string) (*models.BehaviorProfile, error)
	SaveSnapshot(ctx context.Context, profile *models.BehaviorProfile) error
}

// FeedbackPublisher announces recorded feedback to downstream consumers.
type FeedbackPublisher interface {
	PublishFeedbackRecorded(ctx context.Context, event *models.FeedbackEvent, weights models.WeightVector) error
}

// RankingServiceInterface is consumed by the ranking handler.
type RankingServiceInterface interface {
	Rank(ctx context.Context, user *models.UserProfile, rctx models.RankContext) (*models.RankResult, error)
}

// FeedbackServiceInterface is consumed by the feedback handler.
type FeedbackServiceInterface interface {
	RecordFeedback(ctx context.Context, userID, placeID string, input FeedbackInput) (*models.WeightsResult, error)
}

// WeightServiceInterface is consumed by the weights handler.
type WeightServiceInterface interface {
	GetWeights(ctx context.Context, userID string) (*models.WeightsResult, error)
}

// UserServiceInterface is consumed by the profile handlers.
type UserServiceInterface interface {
	GetUserProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	UpsertUserProfile(ctx context.Context, userID string, req *models.UserProfileRequest) (*models.UserProfile, error)
}

// BehaviorServiceInterface is consumed by the behavior handlers.
type BehaviorServiceInterface interface {
	GetBehaviorProfile(ctx context.Context, userID string) (*models.BehaviorProfile, error)
	RecordVisit(ctx context.Context, req *models.VisitRequest) (*models.VisitRecord, error)
	RecordSearch(ctx context.Context, req *models.SearchRequest) (*models.SearchRecord, error)
}
