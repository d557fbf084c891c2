package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/temcen/placerank/pkg/models"
)

const placeColumns = `id, name, category, tags, region, latitude, longitude,
	recommended_for, operating_hours, rating, popularity`

// PlaceRepository reads candidate places from PostgreSQL.
type PlaceRepository struct {
	db     PgxQuerier
	logger *logrus.Logger
}

// NewPlaceRepository creates a new place repository
func NewPlaceRepository(db PgxQuerier, logger *logrus.Logger) *PlaceRepository {
	return &PlaceRepository{db: db, logger: logger}
}

func (r *PlaceRepository) FetchByPersonalityType(ctx context.Context, mbti string, limit int) ([]models.PlaceCandidate, error) {
	query := `SELECT ` + placeColumns + `
		FROM places
		WHERE active = true
			AND recommended_for->'mbti' ? $1
		ORDER BY rating DESC, popularity DESC
		LIMIT $2`

	return r.queryPlaces(ctx, query, strings.ToUpper(mbti), limit)
}

func (r *PlaceRepository) FetchByRegion(ctx context.Context, region string, limit int) ([]models.PlaceCandidate, error) {
	query := `SELECT ` + placeColumns + `
		FROM places
		WHERE active = true
			AND lower(region) = lower($1)
		ORDER BY rating DESC, popularity DESC
		LIMIT $2`

	return r.queryPlaces(ctx, query, region, limit)
}

func (r *PlaceRepository) FetchByMood(ctx context.Context, mood string, limit int) ([]models.PlaceCandidate, error) {
	query := `SELECT ` + placeColumns + `
		FROM places
		WHERE active = true
			AND (recommended_for->'mood' ? $1 OR $1 = ANY(tags))
		ORDER BY rating DESC, popularity DESC
		LIMIT $2`

	return r.queryPlaces(ctx, query, strings.ToLower(mood), limit)
}

func (r *PlaceRepository) FetchPopular(ctx context.Context, limit int) ([]models.PlaceCandidate, error) {
	query := `SELECT ` + placeColumns + `
		FROM places
		WHERE active = true
		ORDER BY popularity DESC, rating DESC
		LIMIT $1`

	return r.queryPlaces(ctx, query, limit)
}

func (r *PlaceRepository) GetPlace(ctx context.Context, placeID string) (*models.PlaceCandidate, error) {
	query := `SELECT ` + placeColumns + `
		FROM places
		WHERE id = $1`

	place, err := scanPlace(r.db.QueryRow(ctx, query, placeID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get place: %w", err)
	}
	return place, nil
}

func (r *PlaceRepository) queryPlaces(ctx context.Context, query string, args ...interface{}) ([]models.PlaceCandidate, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("place query failed: %w", err)
	}
	defer rows.Close()

	places := []models.PlaceCandidate{}
	for rows.Next() {
		place, err := scanPlace(rows)
		if err != nil {
			r.logger.WithError(err).Warn("Failed to scan place row")
			continue
		}
		places = append(places, *place)
	}

	return places, rows.Err()
}

func scanPlace(row pgx.Row) (*models.PlaceCandidate, error) {
	var (
		place          models.PlaceCandidate
		region         *string
		lat, lng       *float64
		recommendedFor []byte
		operatingHours []byte
	)

	err := row.Scan(
		&place.ID, &place.Name, &place.Category, &place.Tags, &region, &lat, &lng,
		&recommendedFor, &operatingHours, &place.Rating, &place.Popularity,
	)
	if err != nil {
		return nil, err
	}

	if region != nil {
		place.Region = *region
	}
	if lat != nil && lng != nil {
		place.Coordinates = &models.GeoPoint{Lat: *lat, Lng: *lng}
	}
	if len(recommendedFor) > 0 {
		if err := json.Unmarshal(recommendedFor, &place.RecommendedFor); err != nil {
			return nil, fmt.Errorf("invalid recommended_for: %w", err)
		}
	}
	if len(operatingHours) > 0 {
		if err := json.Unmarshal(operatingHours, &place.OperatingHours); err != nil {
			return nil, fmt.Errorf("invalid operating_hours: %w", err)
		}
	}

	return &place, nil
}
