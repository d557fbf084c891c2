package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/sirupsen/logrus"

	"github.com/temcen/placerank/pkg/models"
)

// UserRepository stores declared traits in PostgreSQL and mirrors them onto (:User) nodes
// in Neo4j for peer lookup. The graph mirror is skipped when no driver is configured.
type UserRepository struct {
	db     PgxQuerier
	neo4j  neo4j.DriverWithContext
	logger *logrus.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db PgxQuerier, driver neo4j.DriverWithContext, logger *logrus.Logger) *UserRepository {
	return &UserRepository{db: db, neo4j: driver, logger: logger}
}

func (r *UserRepository) GetUserProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	query := `
		SELECT user_id, COALESCE(personality_type, ''), COALESCE(region, ''), interests, talents, updated_at
		FROM user_profiles
		WHERE user_id = $1`

	var profile models.UserProfile
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&profile.UserID, &profile.PersonalityType, &profile.Region,
		&profile.Interests, &profile.Talents, &profile.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user profile: %w", err)
	}
	return &profile, nil
}

func (r *UserRepository) UpsertUserProfile(ctx context.Context, profile *models.UserProfile) error {
	query := `
		INSERT INTO user_profiles (user_id, personality_type, region, interests, talents, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			personality_type = EXCLUDED.personality_type,
			region = EXCLUDED.region,
			interests = EXCLUDED.interests,
			talents = EXCLUDED.talents,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.Exec(ctx, query,
		profile.UserID, profile.PersonalityType, profile.Region,
		nonNil(profile.Interests), nonNil(profile.Talents), profile.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert user profile: %w", err)
	}

	if r.neo4j == nil {
		return nil
	}
	if err := r.syncGraph(ctx, profile); err != nil {
		// Postgres is the source of truth; a stale graph node only affects peer lookup.
		r.logger.WithError(err).WithField("user_id", profile.UserID).Warn("Failed to sync user node to graph")
	}
	return nil
}

func (r *UserRepository) syncGraph(ctx context.Context, profile *models.UserProfile) error {
	session := r.neo4j.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		MERGE (u:User {user_id: $userId})
		SET u.personality_type = $personalityType,
			u.region = $region,
			u.interests = $interests,
			u.talents = $talents`

	_, err := session.Run(ctx, query, map[string]interface{}{
		"userId":          profile.UserID,
		"personalityType": profile.PersonalityType,
		"region":          profile.Region,
		"interests":       nonNil(profile.Interests),
		"talents":         nonNil(profile.Talents),
	})
	return err
}

// GraphPeerDirectory finds peer users in Neo4j.
type GraphPeerDirectory struct {
	neo4j  neo4j.DriverWithContext
	logger *logrus.Logger
}

// NewGraphPeerDirectory creates a new graph-backed peer directory
func NewGraphPeerDirectory(driver neo4j.DriverWithContext, logger *logrus.Logger) *GraphPeerDirectory {
	return &GraphPeerDirectory{neo4j: driver, logger: logger}
}

// FetchPeerCandidates returns users sharing the personality type, excluding one user.
func (d *GraphPeerDirectory) FetchPeerCandidates(
	ctx context.Context,
	personalityType, excludeUserID string,
	limit int,
) ([]models.UserProfile, error) {
	session := d.neo4j.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (u:User {personality_type: $personalityType})
		WHERE u.user_id <> $excludeUserId
		RETURN u.user_id AS user_id, u.personality_type AS personality_type,
			coalesce(u.region, '') AS region,
			coalesce(u.interests, []) AS interests,
			coalesce(u.talents, []) AS talents
		LIMIT $limit`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"personalityType": personalityType,
		"excludeUserId":   excludeUserID,
		"limit":           limit,
	})
	if err != nil {
		return nil, fmt.Errorf("peer query failed: %w", err)
	}

	var peers []models.UserProfile
	for result.Next(ctx) {
		record := result.Record()
		userID, _ := record.Values[0].(string)
		if userID == "" {
			continue
		}
		mbti, _ := record.Values[1].(string)
		region, _ := record.Values[2].(string)

		peers = append(peers, models.UserProfile{
			UserID:          userID,
			PersonalityType: mbti,
			Region:          region,
			Interests:       stringList(record.Values[3]),
			Talents:         stringList(record.Values[4]),
		})
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("peer query failed: %w", err)
	}

	return peers, nil
}

func stringList(value interface{}) []string {
	items, ok := value.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
