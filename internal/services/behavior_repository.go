package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/temcen/placerank/pkg/models"
)

// BehaviorStore keeps visits, searches and behavior snapshots in PostgreSQL.
type BehaviorStore struct {
	db     PgxQuerier
	logger *logrus.Logger
}

// NewBehaviorStore creates a new behavior store
func NewBehaviorStore(db PgxQuerier, logger *logrus.Logger) *BehaviorStore {
	return &BehaviorStore{db: db, logger: logger}
}

func (s *BehaviorStore) FetchVisits(ctx context.Context, userID string, limit int) ([]models.VisitRecord, error) {
	query := `
		SELECT id, user_id, place_id, COALESCE(category, ''), visited_at
		FROM place_visits
		WHERE user_id = $1
		ORDER BY visited_at DESC
		LIMIT $2`

	rows, err := s.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("visit query failed: %w", err)
	}
	defer rows.Close()

	visits := []models.VisitRecord{}
	for rows.Next() {
		var visit models.VisitRecord
		if err := rows.Scan(&visit.ID, &visit.UserID, &visit.PlaceID, &visit.Category, &visit.VisitedAt); err != nil {
			s.logger.WithError(err).Warn("Failed to scan visit row")
			continue
		}
		visits = append(visits, visit)
	}

	return visits, rows.Err()
}

func (s *BehaviorStore) FetchSearches(ctx context.Context, userID string, limit int) ([]models.SearchRecord, error) {
	query := `
		SELECT id, user_id, query, filters, searched_at
		FROM place_searches
		WHERE user_id = $1
		ORDER BY searched_at DESC
		LIMIT $2`

	rows, err := s.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("search query failed: %w", err)
	}
	defer rows.Close()

	searches := []models.SearchRecord{}
	for rows.Next() {
		var (
			search  models.SearchRecord
			filters []byte
		)
		if err := rows.Scan(&search.ID, &search.UserID, &search.Query, &filters, &search.SearchedAt); err != nil {
			s.logger.WithError(err).Warn("Failed to scan search row")
			continue
		}
		if len(filters) > 0 {
			if err := json.Unmarshal(filters, &search.Filters); err != nil {
				s.logger.WithError(err).WithField("search_id", search.ID).Warn("Ignoring unreadable search filters")
			}
		}
		searches = append(searches, search)
	}

	return searches, rows.Err()
}

func (s *BehaviorStore) InsertVisit(ctx context.Context, visit *models.VisitRecord) error {
	query := `
		INSERT INTO place_visits (id, user_id, place_id, category, visited_at)
		VALUES ($1, $2, $3, $4, $5)`

	if _, err := s.db.Exec(ctx, query, visit.ID, visit.UserID, visit.PlaceID, visit.Category, visit.VisitedAt); err != nil {
		return fmt.Errorf("failed to insert visit: %w", err)
	}
	return nil
}

func (s *BehaviorStore) InsertSearch(ctx context.Context, search *models.SearchRecord) error {
	filters, err := json.Marshal(search.Filters)
	if err != nil {
		return fmt.Errorf("failed to marshal search filters: %w", err)
	}

	query := `
		INSERT INTO place_searches (id, user_id, query, filters, searched_at)
		VALUES ($1, $2, $3, $4, $5)`

	if _, err := s.db.Exec(ctx, query, search.ID, search.UserID, search.Query, filters, search.SearchedAt); err != nil {
		return fmt.Errorf("failed to insert search: %w", err)
	}
	return nil
}

func (s *BehaviorStore) LoadSnapshot(ctx context.Context, userID string) (*models.BehaviorProfile, error) {
	var data []byte
	err := s.db.QueryRow(ctx, `SELECT profile FROM behavior_snapshots WHERE user_id = $1`, userID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load behavior snapshot: %w", err)
	}

	var profile models.BehaviorProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("Discarding unreadable behavior snapshot")
		return nil, nil
	}
	return &profile, nil
}

func (s *BehaviorStore) SaveSnapshot(ctx context.Context, profile *models.BehaviorProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal behavior snapshot: %w", err)
	}

	query := `
		INSERT INTO behavior_snapshots (user_id, profile, computed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET profile = EXCLUDED.profile, computed_at = EXCLUDED.computed_at`

	if _, err := s.db.Exec(ctx, query, profile.UserID, data, profile.ComputedAt); err != nil {
		return fmt.Errorf("failed to save behavior snapshot: %w", err)
	}
	return nil
}
