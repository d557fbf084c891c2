package services

import (
	"math"
	"sort"

	"github.com/temcen/placerank/internal/config"
	"github.com/temcen/placerank/pkg/models"
)

const positionalScale = 10.0

// Match detail keys.
const (
	detailPersonality = "personality"
	detailLocation    = "location"
	detailMood        = "mood"
	detailInterests   = "interests"
	detailTalents     = "talents"
	detailFeedback    = "feedback"
	detailCategory    = "category"
	detailBehavior    = "behavior"
	detailPopularity  = "popularity"
)

// ScoreInput bundles everything the scorer reads for one request.
type ScoreInput struct {
	ByPersonality []models.PlaceCandidate
	ByRegion      []models.PlaceCandidate
	ByMood        []models.PlaceCandidate
	Weights       models.WeightVector
	User          *models.UserProfile
	Behavior      *models.BehaviorProfile
	Feedback      []models.FeedbackEvent
}

// CandidateScorer merges candidate lists into one weighted, de-duplicated ranking.
type CandidateScorer struct {
	config config.ScoringConfig
}

// NewCandidateScorer creates a new candidate scorer
func NewCandidateScorer(cfg config.ScoringConfig) *CandidateScorer {
	return &CandidateScorer{config: cfg}
}

// Score returns at most TopN places ordered by score. Empty input yields an empty list.
func (s *CandidateScorer) Score(in ScoreInput) []models.RankedPlace {
	entries := make(map[string]*models.RankedPlace)

	addList := func(list []models.PlaceCandidate, weight float64, detail string) {
		n := float64(len(list))
		for i, place := range list {
			if place.ID == "" {
				continue
			}
			ranked, ok := entries[place.ID]
			if !ok {
				ranked = &models.RankedPlace{
					Place:        place,
					MatchDetails: make(map[string]float64),
				}
				entries[place.ID] = ranked
			}
			ranked.MatchDetails[detail] += weight * positionalScale * (n - float64(i)) / n
		}
	}

	addList(in.ByPersonality, in.Weights.PersonalityAffinity, detailPersonality)
	addList(in.ByRegion, in.Weights.Location, detailLocation)
	addList(in.ByMood, in.Weights.Mood, detailMood)

	if len(entries) == 0 {
		return []models.RankedPlace{}
	}

	latestRatings, categoryScores := s.feedbackSignals(in.Feedback)

	results := make([]models.RankedPlace, 0, len(entries))
	for _, ranked := range entries {
		place := &ranked.Place

		if in.User != nil {
			if matches := countTagMatches(in.User.Interests, place); matches > 0 {
				ranked.MatchDetails[detailInterests] = float64(matches) * in.Weights.Interests * positionalScale
			}
			if matches := countTagMatches(in.User.Talents, place); matches > 0 {
				ranked.MatchDetails[detailTalents] = float64(matches) * in.Weights.Talents * positionalScale
			}
		}

		if rating, ok := latestRatings[place.ID]; ok {
			switch {
			case rating >= 4:
				ranked.MatchDetails[detailFeedback] = s.config.DirectBoost
			case rating <= 2:
				ranked.MatchDetails[detailFeedback] = -s.config.DirectBoost
			}
		}

		if boost, ok := categoryScores[foldTag(place.Category)]; ok && boost != 0 {
			ranked.MatchDetails[detailCategory] = math.Max(-s.config.CategoryBoostCap, math.Min(s.config.CategoryBoostCap, boost))
		}

		if in.Behavior != nil && len(in.Behavior.CategoryShares) > 0 {
			if share := in.Behavior.CategoryShares[foldTag(place.Category)]; share > 0 {
				ranked.MatchDetails[detailBehavior] = math.Min(s.config.BehaviorBoostCap, s.config.BehaviorBoostCap*share)
			}
		}

		var total float64
		for _, v := range ranked.MatchDetails {
			total += v
		}
		ranked.BaseScore = total
		ranked.MatchScore = total
		results = append(results, *ranked)
	}

	sortRanked(results)
	if s.config.TopN > 0 && len(results) > s.config.TopN {
		results = results[:s.config.TopN]
	}
	return results
}

// ScorePopular assigns positional scores to a fallback list.
func (s *CandidateScorer) ScorePopular(places []models.PlaceCandidate) []models.RankedPlace {
	results := make([]models.RankedPlace, 0, len(places))
	n := float64(len(places))
	for i, place := range places {
		score := positionalScale * (n - float64(i)) / n
		results = append(results, models.RankedPlace{
			Place:        place,
			BaseScore:    score,
			MatchScore:   score,
			MatchDetails: map[string]float64{detailPopularity: score},
		})
	}
	return results
}

// feedbackSignals returns the latest rating per place and the summed (rating-3) per category.
func (s *CandidateScorer) feedbackSignals(feedback []models.FeedbackEvent) (map[string]int, map[string]float64) {
	latest := make(map[string]models.FeedbackEvent)
	categories := make(map[string]float64)
	for _, event := range feedback {
		if current, ok := latest[event.PlaceID]; !ok || event.Timestamp.After(current.Timestamp) {
			latest[event.PlaceID] = event
		}
		if category := foldTag(event.Category); category != "" {
			categories[category] += float64(event.Rating - 3)
		}
	}

	ratings := make(map[string]int, len(latest))
	for placeID, event := range latest {
		ratings[placeID] = event.Rating
	}
	return ratings, categories
}

// countTagMatches counts declared user tags that overlap a place tag or its category.
func countTagMatches(userTags []string, place *models.PlaceCandidate) int {
	placeTags := foldTags(append([]string{place.Category}, place.Tags...))
	matches := 0
	for _, tag := range foldTags(userTags) {
		for _, placeTag := range placeTags {
			if tagsOverlap(tag, placeTag) {
				matches++
				break
			}
		}
	}
	return matches
}

// sortRanked orders by MatchScore descending, ties by place ID.
func sortRanked(places []models.RankedPlace) {
	sort.SliceStable(places, func(i, j int) bool {
		if places[i].MatchScore != places[j].MatchScore {
			return places[i].MatchScore > places[j].MatchScore
		}
		return places[i].Place.ID < places[j].Place.ID
	})
}
