package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// postgresSchema creates the ranking tables. Every statement is idempotent.
var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS places (
		id              TEXT PRIMARY KEY,
		name            TEXT NOT NULL,
		category        TEXT NOT NULL DEFAULT '',
		tags            TEXT[] NOT NULL DEFAULT '{}',
		region          TEXT,
		latitude        DOUBLE PRECISION,
		longitude       DOUBLE PRECISION,
		recommended_for JSONB NOT NULL DEFAULT '{}',
		operating_hours JSONB NOT NULL DEFAULT '{}',
		rating          DOUBLE PRECISION NOT NULL DEFAULT 0,
		popularity      INTEGER NOT NULL DEFAULT 0,
		active          BOOLEAN NOT NULL DEFAULT true
	)`,
	`CREATE INDEX IF NOT EXISTS idx_places_popularity ON places (popularity DESC, rating DESC) WHERE active`,
	`CREATE INDEX IF NOT EXISTS idx_places_region ON places (lower(region)) WHERE active`,
	`CREATE INDEX IF NOT EXISTS idx_places_recommended_for ON places USING GIN (recommended_for)`,

	`CREATE TABLE IF NOT EXISTS user_profiles (
		user_id          TEXT PRIMARY KEY,
		personality_type TEXT,
		region           TEXT,
		interests        TEXT[] NOT NULL DEFAULT '{}',
		talents          TEXT[] NOT NULL DEFAULT '{}',
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS learning_profiles (
		user_id       TEXT PRIMARY KEY,
		weights       JSONB NOT NULL,
		learning_rate DOUBLE PRECISION NOT NULL,
		confidence    INTEGER NOT NULL DEFAULT 0,
		history       JSONB NOT NULL DEFAULT '[]',
		version       BIGINT NOT NULL DEFAULT 1,
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS place_feedback (
		id         UUID PRIMARY KEY,
		user_id    TEXT NOT NULL,
		place_id   TEXT NOT NULL,
		rating     SMALLINT NOT NULL CHECK (rating BETWEEN 1 AND 5),
		tags       TEXT[] NOT NULL DEFAULT '{}',
		category   TEXT,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_place_feedback_user ON place_feedback (user_id, created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS place_visits (
		id         UUID PRIMARY KEY,
		user_id    TEXT NOT NULL,
		place_id   TEXT NOT NULL,
		category   TEXT,
		visited_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_place_visits_user ON place_visits (user_id, visited_at DESC)`,

	`CREATE TABLE IF NOT EXISTS place_searches (
		id          UUID PRIMARY KEY,
		user_id     TEXT NOT NULL,
		query       TEXT NOT NULL DEFAULT '',
		filters     JSONB NOT NULL DEFAULT '{}',
		searched_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_place_searches_user ON place_searches (user_id, searched_at DESC)`,

	`CREATE TABLE IF NOT EXISTS behavior_snapshots (
		user_id     TEXT PRIMARY KEY,
		profile     JSONB NOT NULL,
		computed_at TIMESTAMPTZ NOT NULL
	)`,
}

// graphSchema backs the peer lookup on :User nodes.
var graphSchema = []string{
	`CREATE CONSTRAINT user_id_unique IF NOT EXISTS FOR (u:User) REQUIRE u.user_id IS UNIQUE`,
	`CREATE INDEX user_personality_type IF NOT EXISTS FOR (u:User) ON (u.personality_type)`,
}

// Migrate applies the Postgres and Neo4j schema. Postgres statements run in one transaction.
func (db *Database) Migrate(ctx context.Context) error {
	if db.PG != nil {
		err := pgx.BeginFunc(ctx, db.PG, func(tx pgx.Tx) error {
			for _, stmt := range postgresSchema {
				if _, err := tx.Exec(ctx, stmt); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to apply PostgreSQL schema: %w", err)
		}
	}

	if db.Neo4j != nil {
		session := db.Neo4j.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
		defer session.Close(ctx)

		for _, stmt := range graphSchema {
			result, err := session.Run(ctx, stmt, nil)
			if err == nil {
				_, err = result.Consume(ctx)
			}
			if err != nil {
				return fmt.Errorf("failed to apply Neo4j schema: %w", err)
			}
		}
	}

	db.logger.WithField("statements", len(postgresSchema)+len(graphSchema)).Info("Database schema up to date")
	return nil
}
