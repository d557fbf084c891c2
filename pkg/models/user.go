package models

import (
	"time"

	"github.com/google/uuid"
)

// UserProfile holds the declared traits of a user.
type UserProfile struct {
	UserID          string    `json:"user_id"`
	PersonalityType string    `json:"personality_type,omitempty"`
	Region          string    `json:"region,omitempty"`
	Interests       []string  `json:"interests,omitempty"`
	Talents         []string  `json:"talents,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type UserProfileRequest struct {
	PersonalityType string   `json:"personality_type" validate:"omitempty,len=4,alpha"`
	Region          string   `json:"region" validate:"omitempty,max=100"`
	Interests       []string `json:"interests" validate:"omitempty,max=50,dive,min=1,max=50"`
	Talents         []string `json:"talents" validate:"omitempty,max=50,dive,min=1,max=50"`
}

// VisitRecord is one implicit visit signal.
type VisitRecord struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id"`
	PlaceID   string    `json:"place_id"`
	Category  string    `json:"category,omitempty"`
	VisitedAt time.Time `json:"visited_at"`
}

// SearchRecord is one implicit search signal.
type SearchRecord struct {
	ID         uuid.UUID         `json:"id"`
	UserID     string            `json:"user_id"`
	Query      string            `json:"query"`
	Filters    map[string]string `json:"filters,omitempty"`
	SearchedAt time.Time         `json:"searched_at"`
}

type FeedbackRequest struct {
	UserID    string     `json:"user_id" validate:"required"`
	PlaceID   string     `json:"place_id" validate:"required"`
	Rating    int        `json:"rating" validate:"required,min=1,max=5"`
	Tags      []string   `json:"tags" validate:"omitempty,max=20,dive,max=50"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

type VisitRequest struct {
	UserID    string     `json:"user_id" validate:"required"`
	PlaceID   string     `json:"place_id" validate:"required"`
	VisitedAt *time.Time `json:"visited_at,omitempty"`
}

type SearchRequest struct {
	UserID     string            `json:"user_id" validate:"required"`
	Query      string            `json:"query" validate:"max=200"`
	Filters    map[string]string `json:"filters,omitempty"`
	SearchedAt *time.Time        `json:"searched_at,omitempty"`
}
