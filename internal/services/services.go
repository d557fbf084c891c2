package services

import (
	"github.com/sirupsen/logrus"

	"github.com/temcen/placerank/internal/cache"
	"github.com/temcen/placerank/internal/config"
	"github.com/temcen/placerank/internal/database"
	"github.com/temcen/placerank/internal/messaging"
)

type Services struct {
	Auth      *AuthService
	Health    *HealthService
	RateLimit *RateLimitService
	Publisher *messaging.FeedbackPublisher
	Metrics   *RankingMetrics
	Users     *UserService
	Weights   *WeightService
	Feedback  *FeedbackService
	Behavior  *BehaviorService
	Ranking   *RankingOrchestrator
}

func New(cfg *config.Config, logger *logrus.Logger, db *database.Database) (*Services, error) {
	ranking := &cfg.Ranking

	authService := NewAuthService(&cfg.Auth, logger, db.Redis.Hot)
	healthService := NewHealthService(logger, db)
	rateLimitService := NewRateLimitService(&cfg.Auth.RateLimit, logger, db.Redis.Hot)
	metrics := NewRankingMetrics(logger)

	// Repositories
	places := NewBreakingPlaceSource(NewPlaceRepository(db.PG, logger), ranking.Breaker, metrics, logger)
	feedbackStore := NewFeedbackStore(db.PG, logger)
	behaviorStore := NewBehaviorStore(db.PG, logger)
	users := NewUserRepository(db.PG, db.Neo4j, logger)
	peers := NewGraphPeerDirectory(db.Neo4j, logger)

	// Learning profiles live in the hot tier; collaborative weights change slowly and go warm.
	profiles := NewLearningStore(db.PG, cache.NewRedisStore(db.Redis.Hot, "placerank"), ranking, logger)
	blender := NewPeerBlender(peers, profiles, cache.NewRedisStore(db.Redis.Warm, "placerank"), ranking, logger)

	var publisher FeedbackPublisher
	var feedbackPublisher *messaging.FeedbackPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		feedbackPublisher = messaging.NewFeedbackPublisher(&cfg.Kafka, logger)
		publisher = feedbackPublisher
	} else {
		logger.Warn("No Kafka brokers configured, FeedbackRecorded events are disabled")
	}

	userService := NewUserService(users, logger)
	weightService := NewWeightService(profiles, users, blender, logger)
	behaviorService := NewBehaviorService(behaviorStore, feedbackStore, places, cache.NewMemoryStore(), ranking, logger)
	feedbackService := NewFeedbackService(
		feedbackStore, profiles, places, NewWeightAdjuster(ranking.Learning, ranking.Vocabulary),
		blender, publisher, ranking, logger,
	)

	orchestrator := NewRankingOrchestrator(
		places, feedbackStore, behaviorService, weightService,
		NewCandidateScorer(ranking.Scoring), NewContextualReranker(),
		NewDiversityFilter(&ranking.Diversity, logger),
		ranking, metrics, logger,
	)

	return &Services{
		Auth:      authService,
		Health:    healthService,
		RateLimit: rateLimitService,
		Publisher: feedbackPublisher,
		Metrics:   metrics,
		Users:     userService,
		Weights:   weightService,
		Feedback:  feedbackService,
		Behavior:  behaviorService,
		Ranking:   orchestrator,
	}, nil
}

// Close releases resources owned by the services.
func (s *Services) Close() error {
	if s.Publisher != nil {
		return s.Publisher.Close()
	}
	return nil
}
