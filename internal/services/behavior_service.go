package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/temcen/placerank/internal/cache"
	"github.com/temcen/placerank/internal/config"
	"github.com/temcen/placerank/pkg/models"
)

// BehaviorService keeps behavior snapshots fresh and records implicit signals.
type BehaviorService struct {
	repo      BehaviorRepository
	feedback  FeedbackRepository
	places    PlaceSource
	analytics cache.Store
	config    config.BehaviorConfig
	logger    *logrus.Logger
	now       func() time.Time
}

// NewBehaviorService creates a new behavior service. analytics memoizes extraction results
// by input hash and is owned by this service.
func NewBehaviorService(
	repo BehaviorRepository,
	feedback FeedbackRepository,
	places PlaceSource,
	analytics cache.Store,
	cfg *config.RankingConfig,
	logger *logrus.Logger,
) *BehaviorService {
	return &BehaviorService{
		repo:      repo,
		feedback:  feedback,
		places:    places,
		analytics: analytics,
		config:    cfg.Behavior,
		logger:    logger,
		now:       time.Now,
	}
}

// GetBehaviorProfile returns the persisted snapshot, recomputing it when absent or stale.
func (s *BehaviorService) GetBehaviorProfile(ctx context.Context, userID string) (*models.BehaviorProfile, error) {
	if userID == "" {
		return nil, ErrMissingInput
	}

	now := s.now()
	snapshot, err := s.repo.LoadSnapshot(ctx, userID)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("Failed to load behavior snapshot, recomputing")
	} else if snapshot != nil && !snapshot.IsStale(now, s.config.StaleAfter) {
		return snapshot, nil
	}

	return s.Refresh(ctx, userID)
}

// Refresh recomputes the behavior profile from history and persists it.
func (s *BehaviorService) Refresh(ctx context.Context, userID string) (*models.BehaviorProfile, error) {
	visits, err := s.repo.FetchVisits(ctx, userID, s.config.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch visits: %w", err)
	}

	feedback, err := s.feedback.FetchHistory(ctx, userID, s.config.HistoryLimit)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("Failed to fetch feedback for behavior profile")
		feedback = nil
	}

	searches, err := s.repo.FetchSearches(ctx, userID, s.config.HistoryLimit)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("Failed to fetch searches for behavior profile")
		searches = nil
	}

	profile := s.extract(ctx, userID, visits, feedback, searches)

	if err := s.repo.SaveSnapshot(ctx, profile); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Error("Failed to save behavior snapshot")
	}

	return profile, nil
}

// extract runs the extractor through the analytics memo.
func (s *BehaviorService) extract(
	ctx context.Context,
	userID string,
	visits []models.VisitRecord,
	feedback []models.FeedbackEvent,
	searches []models.SearchRecord,
) *models.BehaviorProfile {
	key := "behavior_analytics:" + analyticsKey(userID, visits, feedback, searches)

	var memo models.BehaviorProfile
	if found, err := s.analytics.Get(ctx, key, &memo); err == nil && found {
		return &memo
	}

	profile := ExtractBehavior(userID, visits, feedback, searches, s.now())
	if err := s.analytics.Set(ctx, key, profile, s.config.AnalyticsTTL); err != nil {
		s.logger.WithError(err).Debug("Failed to memoize behavior analytics")
	}
	return profile
}

// analyticsKey hashes the identity of every input record.
func analyticsKey(
	userID string,
	visits []models.VisitRecord,
	feedback []models.FeedbackEvent,
	searches []models.SearchRecord,
) string {
	h := (&cache.Hasher{}).Add("user:" + userID)
	for _, v := range visits {
		h.Add("v:" + v.ID.String() + ":" + v.VisitedAt.UTC().Format(time.RFC3339Nano))
	}
	for _, f := range feedback {
		h.Add("f:" + f.ID.String())
	}
	for _, q := range searches {
		h.Add("s:" + q.ID.String() + ":" + q.SearchedAt.UTC().Format(time.RFC3339Nano))
	}
	return h.Sum()
}

// RecordVisit stores a visit. The place category is looked up when available.
func (s *BehaviorService) RecordVisit(ctx context.Context, req *models.VisitRequest) (*models.VisitRecord, error) {
	if req == nil || req.UserID == "" || req.PlaceID == "" {
		return nil, ErrMissingInput
	}

	visit := &models.VisitRecord{
		ID:        uuid.New(),
		UserID:    req.UserID,
		PlaceID:   req.PlaceID,
		VisitedAt: s.now(),
	}
	if req.VisitedAt != nil {
		visit.VisitedAt = *req.VisitedAt
	}

	if place, err := s.places.GetPlace(ctx, req.PlaceID); err != nil {
		s.logger.WithError(err).WithField("place_id", req.PlaceID).Warn("Failed to load place for visit")
	} else if place != nil {
		visit.Category = place.Category
	}

	if err := s.repo.InsertVisit(ctx, visit); err != nil {
		return nil, fmt.Errorf("failed to record visit: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":  visit.UserID,
		"place_id": visit.PlaceID,
	}).Debug("Recorded visit")

	return visit, nil
}

// RecordSearch stores a search query.
func (s *BehaviorService) RecordSearch(ctx context.Context, req *models.SearchRequest) (*models.SearchRecord, error) {
	if req == nil || req.UserID == "" {
		return nil, ErrMissingInput
	}

	search := &models.SearchRecord{
		ID:         uuid.New(),
		UserID:     req.UserID,
		Query:      strings.TrimSpace(req.Query),
		Filters:    req.Filters,
		SearchedAt: s.now(),
	}
	if req.SearchedAt != nil {
		search.SearchedAt = *req.SearchedAt
	}

	if err := s.repo.InsertSearch(ctx, search); err != nil {
		return nil, fmt.Errorf("failed to record search: %w", err)
	}
	return search, nil
}
