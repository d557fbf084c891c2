package services

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/temcen/placerank/internal/config"
	"github.com/temcen/placerank/pkg/models"
)

// Place source names, used for breakers, logs and metrics.
const (
	sourcePersonality = "personality"
	sourceRegion      = "region"
	sourceMood        = "mood"
	sourcePopular     = "popular"
	sourcePlace       = "place"
	sourceFeedback    = "feedback"
	sourceBehavior    = "behavior"
	sourceWeights     = "weights"
)

// BreakingPlaceSource guards every PlaceSource operation with its own circuit breaker so
// a failing query path stops being called while the others keep serving.
type BreakingPlaceSource struct {
	inner   PlaceSource
	lists   map[string]*gobreaker.CircuitBreaker[[]models.PlaceCandidate]
	lookup  *gobreaker.CircuitBreaker[*models.PlaceCandidate]
	metrics *RankingMetrics
	logger  *logrus.Logger
}

// NewBreakingPlaceSource wraps inner with circuit breakers.
func NewBreakingPlaceSource(
	inner PlaceSource,
	cfg config.BreakerConfig,
	metrics *RankingMetrics,
	logger *logrus.Logger,
) *BreakingPlaceSource {
	b := &BreakingPlaceSource{
		inner:   inner,
		lists:   make(map[string]*gobreaker.CircuitBreaker[[]models.PlaceCandidate]),
		metrics: metrics,
		logger:  logger,
	}

	for _, source := range []string{sourcePersonality, sourceRegion, sourceMood, sourcePopular} {
		b.lists[source] = gobreaker.NewCircuitBreaker[[]models.PlaceCandidate](b.settings(source, cfg))
		metrics.setBreakerState(source, 0)
	}
	b.lookup = gobreaker.NewCircuitBreaker[*models.PlaceCandidate](b.settings(sourcePlace, cfg))
	metrics.setBreakerState(sourcePlace, 0)

	return b
}

func (b *BreakingPlaceSource) settings(source string, cfg config.BreakerConfig) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        source,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			b.logger.WithFields(logrus.Fields{
				"source": name,
				"from":   from.String(),
				"to":     to.String(),
			}).Warn("Place source circuit breaker changed state")
			b.metrics.setBreakerState(name, breakerStateValue(to))
		},
	}
}

func breakerStateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

func (b *BreakingPlaceSource) FetchByPersonalityType(ctx context.Context, mbti string, limit int) ([]models.PlaceCandidate, error) {
	return b.lists[sourcePersonality].Execute(func() ([]models.PlaceCandidate, error) {
		return b.inner.FetchByPersonalityType(ctx, mbti, limit)
	})
}

func (b *BreakingPlaceSource) FetchByRegion(ctx context.Context, region string, limit int) ([]models.PlaceCandidate, error) {
	return b.lists[sourceRegion].Execute(func() ([]models.PlaceCandidate, error) {
		return b.inner.FetchByRegion(ctx, region, limit)
	})
}

func (b *BreakingPlaceSource) FetchByMood(ctx context.Context, mood string, limit int) ([]models.PlaceCandidate, error) {
	return b.lists[sourceMood].Execute(func() ([]models.PlaceCandidate, error) {
		return b.inner.FetchByMood(ctx, mood, limit)
	})
}

func (b *BreakingPlaceSource) FetchPopular(ctx context.Context, limit int) ([]models.PlaceCandidate, error) {
	return b.lists[sourcePopular].Execute(func() ([]models.PlaceCandidate, error) {
		return b.inner.FetchPopular(ctx, limit)
	})
}

// GetPlace does not count ErrNotFound as a breaker failure.
func (b *BreakingPlaceSource) GetPlace(ctx context.Context, placeID string) (*models.PlaceCandidate, error) {
	var notFound bool
	place, err := b.lookup.Execute(func() (*models.PlaceCandidate, error) {
		place, err := b.inner.GetPlace(ctx, placeID)
		if errors.Is(err, ErrNotFound) {
			notFound = true
			return nil, nil
		}
		return place, err
	})
	if notFound {
		return nil, ErrNotFound
	}
	return place, err
}
