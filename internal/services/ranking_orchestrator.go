package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/temcen/placerank/internal/config"
	"github.com/temcen/placerank/pkg/models"
)

// BehaviorProvider supplies the behavior profile used for contextual boosts.
type BehaviorProvider interface {
	GetBehaviorProfile(ctx context.Context, userID string) (*models.BehaviorProfile, error)
}

// RankingOrchestrator runs the ranking pipeline: concurrent fetch, score, re-rank, diversify.
type RankingOrchestrator struct {
	places    PlaceSource
	feedback  FeedbackRepository
	behavior  BehaviorProvider
	weights   WeightServiceInterface
	scorer    *CandidateScorer
	reranker  *ContextualReranker
	diversity *DiversityFilter
	config    *config.RankingConfig
	metrics   *RankingMetrics
	logger    *logrus.Logger
}

// NewRankingOrchestrator creates a new ranking orchestrator
func NewRankingOrchestrator(
	places PlaceSource,
	feedback FeedbackRepository,
	behavior BehaviorProvider,
	weights WeightServiceInterface,
	scorer *CandidateScorer,
	reranker *ContextualReranker,
	diversity *DiversityFilter,
	cfg *config.RankingConfig,
	metrics *RankingMetrics,
	logger *logrus.Logger,
) *RankingOrchestrator {
	return &RankingOrchestrator{
		places:    places,
		feedback:  feedback,
		behavior:  behavior,
		weights:   weights,
		scorer:    scorer,
		reranker:  reranker,
		diversity: diversity,
		config:    cfg,
		metrics:   metrics,
		logger:    logger,
	}
}

// rankInputs collects the results of the concurrent fetch phase.
type rankInputs struct {
	byPersonality []models.PlaceCandidate
	byRegion      []models.PlaceCandidate
	byMood        []models.PlaceCandidate
	feedback      []models.FeedbackEvent
	behavior      *models.BehaviorProfile
	weights       models.WeightsResult
}

// Rank orders candidate places for the user. Only a missing user id is an error; every
// upstream failure degrades to an empty input for that source.
func (o *RankingOrchestrator) Rank(
	ctx context.Context,
	user *models.UserProfile,
	rctx models.RankContext,
) (*models.RankResult, error) {
	start := time.Now()

	if user == nil || user.UserID == "" {
		o.metrics.observeRequest(outcomeError, time.Since(start).Seconds())
		return nil, ErrMissingInput
	}
	if rctx.Now.IsZero() {
		rctx.Now = start
	}

	inputs := o.fetchInputs(ctx, user, rctx)

	scored := o.scorer.Score(ScoreInput{
		ByPersonality: inputs.byPersonality,
		ByRegion:      inputs.byRegion,
		ByMood:        inputs.byMood,
		Weights:       inputs.weights.Weights,
		User:          user,
		Behavior:      inputs.behavior,
		Feedback:      inputs.feedback,
	})

	fallback := false
	if len(scored) == 0 {
		fallback = true
		scored = o.popularFallback(ctx, user.UserID)
	}

	ranked := o.reranker.Rerank(scored, inputs.behavior, rctx)
	ranked = o.diversity.EnsureCategoryDiversity(ranked)

	result := &models.RankResult{
		UserID:        user.UserID,
		Places:        ranked,
		WeightsSource: inputs.weights.Source,
		Weights:       inputs.weights.Weights,
		Fallback:      fallback,
		GeneratedAt:   time.Now(),
		Latency:       time.Since(start),
	}
	if inputs.behavior != nil {
		result.Persona = inputs.behavior.Persona
	}

	outcome := outcomeSuccess
	switch {
	case len(ranked) == 0:
		outcome = outcomeEmpty
	case fallback:
		outcome = outcomeFallback
	}
	o.metrics.observeRequest(outcome, result.Latency.Seconds())

	o.logger.WithFields(logrus.Fields{
		"user_id":  user.UserID,
		"places":   len(ranked),
		"fallback": fallback,
		"source":   inputs.weights.Source,
		"latency":  result.Latency,
	}).Debug("Generated ranking")

	return result, nil
}

// fetchInputs issues every upstream fetch concurrently under the fetch timeout.
func (o *RankingOrchestrator) fetchInputs(
	ctx context.Context,
	user *models.UserProfile,
	rctx models.RankContext,
) *rankInputs {
	fetchCtx, cancel := context.WithTimeout(ctx, o.config.FetchTimeout)
	defer cancel()

	inputs := &rankInputs{
		weights: models.WeightsResult{
			UserID:  user.UserID,
			Weights: models.DefaultWeights(),
			Source:  models.WeightSourcePersonal,
		},
	}
	limit := o.config.Scoring.CandidateLimit

	region := rctx.Region
	if region == "" {
		region = user.Region
	}

	g, gctx := errgroup.WithContext(fetchCtx)

	if user.PersonalityType != "" {
		g.Go(func() error {
			places, err := o.places.FetchByPersonalityType(gctx, user.PersonalityType, limit)
			inputs.byPersonality = o.absorb(sourcePersonality, user.UserID, places, err)
			return nil
		})
	}
	if region != "" {
		g.Go(func() error {
			places, err := o.places.FetchByRegion(gctx, region, limit)
			inputs.byRegion = o.absorb(sourceRegion, user.UserID, places, err)
			return nil
		})
	}
	if rctx.Mood != "" {
		g.Go(func() error {
			places, err := o.places.FetchByMood(gctx, rctx.Mood, limit)
			inputs.byMood = o.absorb(sourceMood, user.UserID, places, err)
			return nil
		})
	}

	g.Go(func() error {
		history, err := o.feedback.FetchHistory(gctx, user.UserID, o.config.Scoring.HistoryLimit)
		if err != nil {
			o.fetchFailed(sourceFeedback, user.UserID, err)
			return nil
		}
		inputs.feedback = history
		return nil
	})

	if o.behavior != nil {
		g.Go(func() error {
			profile, err := o.behavior.GetBehaviorProfile(gctx, user.UserID)
			if err != nil {
				o.fetchFailed(sourceBehavior, user.UserID, err)
				return nil
			}
			inputs.behavior = profile
			return nil
		})
	}

	g.Go(func() error {
		weights, err := o.weights.GetWeights(gctx, user.UserID)
		if err != nil {
			o.fetchFailed(sourceWeights, user.UserID, err)
			return nil
		}
		inputs.weights = *weights
		return nil
	})

	_ = g.Wait()
	return inputs
}

func (o *RankingOrchestrator) popularFallback(ctx context.Context, userID string) []models.RankedPlace {
	fetchCtx, cancel := context.WithTimeout(ctx, o.config.FetchTimeout)
	defer cancel()

	places, err := o.places.FetchPopular(fetchCtx, o.config.Scoring.FallbackLimit)
	if err != nil {
		o.fetchFailed(sourcePopular, userID, err)
		return []models.RankedPlace{}
	}

	o.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"places":  len(places),
	}).Warn("No personalized candidates, using popular places")

	return o.scorer.ScorePopular(places)
}

func (o *RankingOrchestrator) absorb(
	source, userID string,
	places []models.PlaceCandidate,
	err error,
) []models.PlaceCandidate {
	if err != nil {
		o.fetchFailed(source, userID, err)
		return nil
	}
	return places
}

func (o *RankingOrchestrator) fetchFailed(source, userID string, err error) {
	o.metrics.upstreamFailure(source)
	o.logger.WithError(err).WithFields(logrus.Fields{
		"user_id": userID,
		"source":  source,
	}).Warn("Upstream fetch failed, continuing without it")
}
