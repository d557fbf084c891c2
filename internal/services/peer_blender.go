package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/temcen/placerank/internal/cache"
	"github.com/temcen/placerank/internal/config"
	"github.com/temcen/placerank/pkg/models"
)

const (
	personalitySimilarityWeight = 0.4
	interestSimilarityWeight    = 0.4
	talentSimilarityWeight      = 0.2
)

// PeerBlender mixes the weights of similar users into a user's personal weights.
type PeerBlender struct {
	peers    PeerDirectory
	profiles LearningProfileRepository
	cache    cache.Store
	config   config.CollaborativeConfig
	ttl      time.Duration
	logger   *logrus.Logger
}

// NewPeerBlender creates a new peer similarity blender
func NewPeerBlender(
	peers PeerDirectory,
	profiles LearningProfileRepository,
	store cache.Store,
	cfg *config.RankingConfig,
	logger *logrus.Logger,
) *PeerBlender {
	return &PeerBlender{
		peers:    peers,
		profiles: profiles,
		cache:    store,
		config:   cfg.Collaborative,
		ttl:      cfg.Caching.CollaborativeTTL,
		logger:   logger,
	}
}

func collaborativeWeightsKey(userID string) string {
	return fmt.Sprintf("collaborative_weights:%s", userID)
}

type peerWeights struct {
	similarity models.SimilarityScore
	weights    models.WeightVector
	confidence int
}

// Blend returns the personal weights mixed with peer weights. Any failure along the way
// yields the personal weights tagged as personal.
func (b *PeerBlender) Blend(
	ctx context.Context,
	user *models.UserProfile,
	personal models.WeightVector,
) models.WeightsResult {
	personalResult := models.WeightsResult{
		UserID:     user.UserID,
		Weights:    personal,
		Source:     models.WeightSourcePersonal,
		ComputedAt: time.Now(),
	}

	if !b.config.Enabled || user.PersonalityType == "" || b.peers == nil {
		return personalResult
	}

	key := collaborativeWeightsKey(user.UserID)
	var cached models.WeightsResult
	if found, err := b.cache.Get(ctx, key, &cached); err != nil {
		b.logger.WithError(err).WithField("user_id", user.UserID).Warn("Collaborative weights cache read failed")
	} else if found {
		return cached
	}

	blendCtx, cancel := context.WithTimeout(ctx, b.config.Timeout)
	defer cancel()

	candidates, err := b.peers.FetchPeerCandidates(blendCtx, user.PersonalityType, user.UserID, b.config.PeerLimit)
	if err != nil {
		b.logger.WithError(err).WithField("user_id", user.UserID).Warn("Peer lookup failed, using personal weights")
		return personalResult
	}

	similar := b.rankPeers(user, candidates)
	if len(similar) == 0 {
		return personalResult
	}

	peers := b.loadPeerWeights(blendCtx, similar)
	if len(peers) == 0 {
		return personalResult
	}

	result := models.WeightsResult{
		UserID:     user.UserID,
		Weights:    b.combine(personal, peers),
		Source:     models.WeightSourceCollaborative,
		ComputedAt: time.Now(),
	}
	for _, peer := range peers {
		result.Peers = append(result.Peers, peer.similarity)
	}

	if err := b.cache.Set(ctx, key, result, b.ttl); err != nil {
		b.logger.WithError(err).WithField("user_id", user.UserID).Warn("Failed to cache collaborative weights")
	}

	b.logger.WithFields(logrus.Fields{
		"user_id": user.UserID,
		"peers":   len(peers),
	}).Debug("Blended collaborative weights")

	return result
}

// Invalidate drops the cached blend for a user.
func (b *PeerBlender) Invalidate(ctx context.Context, userID string) error {
	return b.cache.Delete(ctx, collaborativeWeightsKey(userID))
}

// Similarity scores a peer against the user.
func (b *PeerBlender) Similarity(user, peer *models.UserProfile) models.SimilarityScore {
	score := models.SimilarityScore{
		PeerUserID: peer.UserID,
		Interests:  jaccardSimilarity(user.Interests, peer.Interests),
		Talents:    jaccardSimilarity(user.Talents, peer.Talents),
	}
	if user.PersonalityType != "" && strings.EqualFold(user.PersonalityType, peer.PersonalityType) {
		score.Personality = 1
	}
	score.Similarity = personalitySimilarityWeight*score.Personality +
		interestSimilarityWeight*score.Interests +
		talentSimilarityWeight*score.Talents
	return score
}

func (b *PeerBlender) rankPeers(user *models.UserProfile, candidates []models.UserProfile) []models.SimilarityScore {
	scores := make([]models.SimilarityScore, 0, len(candidates))
	for i := range candidates {
		if candidates[i].UserID == "" || candidates[i].UserID == user.UserID {
			continue
		}
		score := b.Similarity(user, &candidates[i])
		if score.Similarity < b.config.MinSimilarity {
			continue
		}
		scores = append(scores, score)
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Similarity != scores[j].Similarity {
			return scores[i].Similarity > scores[j].Similarity
		}
		return scores[i].PeerUserID < scores[j].PeerUserID
	})
	if len(scores) > b.config.TopPeers {
		scores = scores[:b.config.TopPeers]
	}
	return scores
}

// loadPeerWeights loads peer learning profiles concurrently. Peers that fail to load are skipped.
func (b *PeerBlender) loadPeerWeights(ctx context.Context, similar []models.SimilarityScore) []peerWeights {
	loaded := make([]*peerWeights, len(similar))

	g, gctx := errgroup.WithContext(ctx)
	for i, score := range similar {
		i, score := i, score
		g.Go(func() error {
			profile, err := b.profiles.Load(gctx, score.PeerUserID)
			if err != nil {
				b.logger.WithError(err).WithField("peer_user_id", score.PeerUserID).Warn("Failed to load peer profile")
				return nil
			}
			loaded[i] = &peerWeights{
				similarity: score,
				weights:    profile.Weights,
				confidence: profile.Confidence,
			}
			return nil
		})
	}
	_ = g.Wait()

	peers := make([]peerWeights, 0, len(loaded))
	for _, peer := range loaded {
		if peer != nil {
			peers = append(peers, *peer)
		}
	}
	return peers
}

func (b *PeerBlender) combine(personal models.WeightVector, peers []peerWeights) models.WeightVector {
	var combined models.WeightVector
	var totalFactor float64
	for _, peer := range peers {
		factor := peer.similarity.Similarity * (1 + math.Min(1, float64(peer.confidence)/b.config.ConfidenceScale))
		for _, d := range models.Dimensions {
			combined.Set(d, combined.Get(d)+factor*peer.weights.Get(d))
		}
		totalFactor += factor
	}
	if totalFactor == 0 {
		return personal
	}

	share := b.config.PersonalShare
	var blended models.WeightVector
	for _, d := range models.Dimensions {
		blended.Set(d, share*personal.Get(d)+(1-share)*combined.Get(d)/totalFactor)
	}
	return blended.Normalize()
}
