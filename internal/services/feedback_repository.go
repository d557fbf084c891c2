package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/temcen/placerank/pkg/models"
)

// FeedbackStore is the append-only PostgreSQL feedback log.
type FeedbackStore struct {
	db     PgxQuerier
	logger *logrus.Logger
}

// NewFeedbackStore creates a new feedback store
func NewFeedbackStore(db PgxQuerier, logger *logrus.Logger) *FeedbackStore {
	return &FeedbackStore{db: db, logger: logger}
}

func (s *FeedbackStore) Insert(ctx context.Context, event *models.FeedbackEvent) error {
	query := `
		INSERT INTO place_feedback (id, user_id, place_id, rating, tags, category, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`

	tags := event.Tags
	if tags == nil {
		tags = []string{}
	}

	_, err := s.db.Exec(ctx, query,
		event.ID, event.UserID, event.PlaceID, event.Rating, tags, event.Category, event.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert feedback: %w", err)
	}
	return nil
}

func (s *FeedbackStore) FetchHistory(ctx context.Context, userID string, limit int) ([]models.FeedbackEvent, error) {
	query := `
		SELECT id, user_id, place_id, rating, tags, COALESCE(category, ''), created_at
		FROM place_feedback
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := s.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("feedback history query failed: %w", err)
	}
	defer rows.Close()

	events := []models.FeedbackEvent{}
	for rows.Next() {
		var event models.FeedbackEvent
		if err := rows.Scan(
			&event.ID, &event.UserID, &event.PlaceID, &event.Rating,
			&event.Tags, &event.Category, &event.Timestamp,
		); err != nil {
			s.logger.WithError(err).Warn("Failed to scan feedback row")
			continue
		}
		events = append(events, event)
	}

	return events, rows.Err()
}
