package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Neo4j    Neo4jConfig    `mapstructure:"neo4j"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Ranking  RankingConfig  `mapstructure:"ranking"`
	Security SecurityConfig `mapstructure:"security"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	MaxConnections int           `mapstructure:"max_connections"`
	MaxIdleTime    time.Duration `mapstructure:"max_idle_time"`
	MaxLifetime    time.Duration `mapstructure:"max_lifetime"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	AutoMigrate    bool          `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Hot  RedisInstanceConfig `mapstructure:"hot"`
	Warm RedisInstanceConfig `mapstructure:"warm"`
}

type RedisInstanceConfig struct {
	URL        string        `mapstructure:"url"`
	MaxRetries int           `mapstructure:"max_retries"`
	PoolSize   int           `mapstructure:"pool_size"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type Neo4jConfig struct {
	URL      string `mapstructure:"url"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topics  struct {
		Feedback string `mapstructure:"feedback"`
	} `mapstructure:"topics"`
}

type AuthConfig struct {
	JWTSecret string            `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration     `mapstructure:"token_ttl"`
	APIKeys   map[string]string `mapstructure:"api_keys"` // key -> tier
	RateLimit RateLimitConfig   `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	Default int           `mapstructure:"default"`
	Premium int           `mapstructure:"premium"`
	Window  time.Duration `mapstructure:"window"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// RankingConfig groups every tunable of the ranking and learning pipeline.
type RankingConfig struct {
	FetchTimeout  time.Duration       `mapstructure:"fetch_timeout"`
	Learning      LearningConfig      `mapstructure:"learning"`
	Collaborative CollaborativeConfig `mapstructure:"collaborative"`
	Scoring       ScoringConfig       `mapstructure:"scoring"`
	Diversity     DiversityConfig     `mapstructure:"diversity"`
	Behavior      BehaviorConfig      `mapstructure:"behavior"`
	Caching       CachingConfig       `mapstructure:"caching"`
	Breaker       BreakerConfig       `mapstructure:"breaker"`
	Vocabulary    VocabularyConfig    `mapstructure:"vocabulary"`
}

type LearningConfig struct {
	MinRate          float64 `mapstructure:"min_rate"`
	MaxRate          float64 `mapstructure:"max_rate"`
	LowConfidence    int     `mapstructure:"low_confidence"`
	HighConfidence   int     `mapstructure:"high_confidence"`
	MaxConfidence    int     `mapstructure:"max_confidence"`
	HistorySize      int     `mapstructure:"history_size"`
	NeutralThreshold float64 `mapstructure:"neutral_threshold"`
	NoiseThreshold   float64 `mapstructure:"noise_threshold"`
	NoiseDamping     float64 `mapstructure:"noise_damping"`
	NoiseWindow      int     `mapstructure:"noise_window"`
	NoiseMinPoints   int     `mapstructure:"noise_min_points"`
	MaxSaveAttempts  int     `mapstructure:"max_save_attempts"`
}

type CollaborativeConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	PeerLimit       int           `mapstructure:"peer_limit"`
	TopPeers        int           `mapstructure:"top_peers"`
	MinSimilarity   float64       `mapstructure:"min_similarity"`
	PersonalShare   float64       `mapstructure:"personal_share"`
	ConfidenceScale float64       `mapstructure:"confidence_scale"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

type ScoringConfig struct {
	TopN             int     `mapstructure:"top_n"`
	CandidateLimit   int     `mapstructure:"candidate_limit"`
	DirectBoost      float64 `mapstructure:"direct_boost"`
	CategoryBoostCap float64 `mapstructure:"category_boost_cap"`
	BehaviorBoostCap float64 `mapstructure:"behavior_boost_cap"`
	HistoryLimit     int     `mapstructure:"history_limit"`
	FallbackLimit    int     `mapstructure:"fallback_limit"`
}

type DiversityConfig struct {
	MaxResults int `mapstructure:"max_results"`
}

type BehaviorConfig struct {
	StaleAfter   time.Duration `mapstructure:"stale_after"`
	AnalyticsTTL time.Duration `mapstructure:"analytics_ttl"`
	HistoryLimit int           `mapstructure:"history_limit"`
}

type CachingConfig struct {
	LearningProfileTTL time.Duration `mapstructure:"learning_profile_ttl"`
	CollaborativeTTL   time.Duration `mapstructure:"collaborative_ttl"`
}

type BreakerConfig struct {
	MaxRequests      uint32        `mapstructure:"max_requests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	FailureThreshold uint32        `mapstructure:"failure_threshold"`
}

// VocabularyConfig maps each weight dimension to the tag keywords that emphasize it.
type VocabularyConfig struct {
	Personality []string `mapstructure:"personality"`
	Interests   []string `mapstructure:"interests"`
	Talents     []string `mapstructure:"talents"`
	Mood        []string `mapstructure:"mood"`
	Location    []string `mapstructure:"location"`
}

type SecurityConfig struct {
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

func Load() (*Config, error) {
	viper.SetConfigName("app")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	// Set defaults
	setDefaults()

	// Environment variable overrides
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		// Config file is optional, continue with env vars and defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Ranking.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ranking configuration: %w", err)
	}

	return &config, nil
}

// Validate rejects tunables the ranking pipeline cannot run with.
func (r RankingConfig) Validate() error {
	var errs []error

	l := r.Learning
	if l.MinRate <= 0 || l.MaxRate < l.MinRate {
		errs = append(errs, fmt.Errorf("learning rates must satisfy 0 < min_rate <= max_rate (got %v, %v)", l.MinRate, l.MaxRate))
	}
	if l.LowConfidence > l.HighConfidence {
		errs = append(errs, errors.New("learning.low_confidence must not exceed learning.high_confidence"))
	}
	if l.HistorySize <= 0 {
		errs = append(errs, errors.New("learning.history_size must be positive"))
	}
	if l.MaxSaveAttempts <= 0 {
		errs = append(errs, errors.New("learning.max_save_attempts must be positive"))
	}

	c := r.Collaborative
	if c.PersonalShare < 0 || c.PersonalShare > 1 {
		errs = append(errs, fmt.Errorf("collaborative.personal_share must be within [0, 1] (got %v)", c.PersonalShare))
	}
	if c.MinSimilarity < 0 || c.MinSimilarity > 1 {
		errs = append(errs, fmt.Errorf("collaborative.min_similarity must be within [0, 1] (got %v)", c.MinSimilarity))
	}

	if r.Scoring.TopN <= 0 || r.Diversity.MaxResults <= 0 {
		errs = append(errs, errors.New("scoring.top_n and diversity.max_results must be positive"))
	}
	if r.FetchTimeout <= 0 {
		errs = append(errs, errors.New("fetch_timeout must be positive"))
	}

	return errors.Join(errs...)
}

// DefaultRanking returns the ranking configuration with every default applied.
// Tests and tools use it to avoid going through viper.
func DefaultRanking() RankingConfig {
	return RankingConfig{
		FetchTimeout: 2 * time.Second,
		Learning: LearningConfig{
			MinRate:          0.02,
			MaxRate:          0.1,
			LowConfidence:    5,
			HighConfidence:   20,
			MaxConfidence:    100,
			HistorySize:      50,
			NeutralThreshold: 0.1,
			NoiseThreshold:   1.5,
			NoiseDamping:     0.8,
			NoiseWindow:      5,
			NoiseMinPoints:   3,
			MaxSaveAttempts:  3,
		},
		Collaborative: CollaborativeConfig{
			Enabled:         true,
			PeerLimit:       50,
			TopPeers:        5,
			MinSimilarity:   0.3,
			PersonalShare:   0.7,
			ConfidenceScale: 50,
			Timeout:         1500 * time.Millisecond,
		},
		Scoring: ScoringConfig{
			TopN:             10,
			CandidateLimit:   30,
			DirectBoost:      5,
			CategoryBoostCap: 3,
			BehaviorBoostCap: 4,
			HistoryLimit:     50,
			FallbackLimit:    20,
		},
		Diversity: DiversityConfig{MaxResults: 6},
		Behavior: BehaviorConfig{
			StaleAfter:   7 * 24 * time.Hour,
			AnalyticsTTL: time.Hour,
			HistoryLimit: 500,
		},
		Caching: CachingConfig{
			LearningProfileTTL: 10 * time.Minute,
			CollaborativeTTL:   24 * time.Hour,
		},
		Breaker: BreakerConfig{
			MaxRequests:      3,
			Interval:         time.Minute,
			Timeout:          30 * time.Second,
			FailureThreshold: 5,
		},
		Vocabulary: DefaultVocabulary(),
	}
}

// DefaultVocabulary is the built-in tag keyword table.
func DefaultVocabulary() VocabularyConfig {
	return VocabularyConfig{
		Personality: []string{"성격", "성향", "mbti", "personality", "character"},
		Interests:   []string{"관심사", "관심", "취미", "interest", "hobby"},
		Talents:     []string{"재능", "특기", "기술", "talent", "skill"},
		Mood:        []string{"기분", "분위기", "감성", "mood", "vibe", "atmosphere"},
		Location:    []string{"위치", "거리", "근처", "지역", "location", "distance", "nearby"},
	}
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "development")
	viper.SetDefault("server.read_timeout", "10s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.shutdown_timeout", "30s")

	// Database defaults
	viper.SetDefault("database.max_connections", 25)
	viper.SetDefault("database.max_idle_time", "15m")
	viper.SetDefault("database.max_lifetime", "1h")
	viper.SetDefault("database.connect_timeout", "10s")
	viper.SetDefault("database.auto_migrate", true)

	// Redis defaults
	viper.SetDefault("redis.hot.max_retries", 3)
	viper.SetDefault("redis.hot.pool_size", 10)
	viper.SetDefault("redis.hot.timeout", "5s")
	viper.SetDefault("redis.warm.max_retries", 3)
	viper.SetDefault("redis.warm.pool_size", 5)
	viper.SetDefault("redis.warm.timeout", "10s")

	// Kafka defaults
	viper.SetDefault("kafka.brokers", []string{"localhost:9092"})
	viper.SetDefault("kafka.topics.feedback", "place-feedback")

	// Auth defaults
	viper.SetDefault("auth.token_ttl", "24h")
	viper.SetDefault("auth.rate_limit.default", 1000)
	viper.SetDefault("auth.rate_limit.premium", 10000)
	viper.SetDefault("auth.rate_limit.window", "1h")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")

	// Ranking defaults
	ranking := DefaultRanking()
	viper.SetDefault("ranking.fetch_timeout", ranking.FetchTimeout)

	viper.SetDefault("ranking.learning.min_rate", ranking.Learning.MinRate)
	viper.SetDefault("ranking.learning.max_rate", ranking.Learning.MaxRate)
	viper.SetDefault("ranking.learning.low_confidence", ranking.Learning.LowConfidence)
	viper.SetDefault("ranking.learning.high_confidence", ranking.Learning.HighConfidence)
	viper.SetDefault("ranking.learning.max_confidence", ranking.Learning.MaxConfidence)
	viper.SetDefault("ranking.learning.history_size", ranking.Learning.HistorySize)
	viper.SetDefault("ranking.learning.neutral_threshold", ranking.Learning.NeutralThreshold)
	viper.SetDefault("ranking.learning.noise_threshold", ranking.Learning.NoiseThreshold)
	viper.SetDefault("ranking.learning.noise_damping", ranking.Learning.NoiseDamping)
	viper.SetDefault("ranking.learning.noise_window", ranking.Learning.NoiseWindow)
	viper.SetDefault("ranking.learning.noise_min_points", ranking.Learning.NoiseMinPoints)
	viper.SetDefault("ranking.learning.max_save_attempts", ranking.Learning.MaxSaveAttempts)

	viper.SetDefault("ranking.collaborative.enabled", ranking.Collaborative.Enabled)
	viper.SetDefault("ranking.collaborative.peer_limit", ranking.Collaborative.PeerLimit)
	viper.SetDefault("ranking.collaborative.top_peers", ranking.Collaborative.TopPeers)
	viper.SetDefault("ranking.collaborative.min_similarity", ranking.Collaborative.MinSimilarity)
	viper.SetDefault("ranking.collaborative.personal_share", ranking.Collaborative.PersonalShare)
	viper.SetDefault("ranking.collaborative.confidence_scale", ranking.Collaborative.ConfidenceScale)
	viper.SetDefault("ranking.collaborative.timeout", ranking.Collaborative.Timeout)

	viper.SetDefault("ranking.scoring.top_n", ranking.Scoring.TopN)
	viper.SetDefault("ranking.scoring.candidate_limit", ranking.Scoring.CandidateLimit)
	viper.SetDefault("ranking.scoring.direct_boost", ranking.Scoring.DirectBoost)
	viper.SetDefault("ranking.scoring.category_boost_cap", ranking.Scoring.CategoryBoostCap)
	viper.SetDefault("ranking.scoring.behavior_boost_cap", ranking.Scoring.BehaviorBoostCap)
	viper.SetDefault("ranking.scoring.history_limit", ranking.Scoring.HistoryLimit)
	viper.SetDefault("ranking.scoring.fallback_limit", ranking.Scoring.FallbackLimit)

	viper.SetDefault("ranking.diversity.max_results", ranking.Diversity.MaxResults)

	viper.SetDefault("ranking.behavior.stale_after", ranking.Behavior.StaleAfter)
	viper.SetDefault("ranking.behavior.analytics_ttl", ranking.Behavior.AnalyticsTTL)
	viper.SetDefault("ranking.behavior.history_limit", ranking.Behavior.HistoryLimit)

	// Caching defaults
	viper.SetDefault("ranking.caching.learning_profile_ttl", ranking.Caching.LearningProfileTTL)
	viper.SetDefault("ranking.caching.collaborative_ttl", ranking.Caching.CollaborativeTTL)

	viper.SetDefault("ranking.breaker.max_requests", ranking.Breaker.MaxRequests)
	viper.SetDefault("ranking.breaker.interval", ranking.Breaker.Interval)
	viper.SetDefault("ranking.breaker.timeout", ranking.Breaker.Timeout)
	viper.SetDefault("ranking.breaker.failure_threshold", ranking.Breaker.FailureThreshold)

	// Tag vocabulary
	viper.SetDefault("ranking.vocabulary.personality", ranking.Vocabulary.Personality)
	viper.SetDefault("ranking.vocabulary.interests", ranking.Vocabulary.Interests)
	viper.SetDefault("ranking.vocabulary.talents", ranking.Vocabulary.Talents)
	viper.SetDefault("ranking.vocabulary.mood", ranking.Vocabulary.Mood)
	viper.SetDefault("ranking.vocabulary.location", ranking.Vocabulary.Location)

	// Security defaults
	viper.SetDefault("security.cors.allowed_origins", []string{"*"})
	viper.SetDefault("security.cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	viper.SetDefault("security.cors.allowed_headers", []string{"*"})
}
