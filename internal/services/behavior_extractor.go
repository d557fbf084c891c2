package services

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/temcen/placerank/pkg/models"
)

const (
	highVisitFrequency = 3.0 // visits per week
	topTermCount       = 5
)

var cultureCategories = map[string]bool{
	"museum":     true,
	"gallery":    true,
	"exhibition": true,
	"theater":    true,
}

var nightlifeCategories = map[string]bool{
	"bar": true,
	"pub": true,
}

// TimeOfDayBucket maps a clock hour to its time-of-day label.
func TimeOfDayBucket(hour int) string {
	switch {
	case hour >= 5 && hour <= 10:
		return models.TimeOfDayMorning
	case hour >= 11 && hour <= 16:
		return models.TimeOfDayAfternoon
	case hour >= 17 && hour <= 21:
		return models.TimeOfDayEvening
	default:
		return models.TimeOfDayNight
	}
}

// DayType labels a timestamp as weekday or weekend.
func DayType(t time.Time) string {
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return models.DayTypeWeekend
	}
	return models.DayTypeWeekday
}

// ExtractBehavior derives a BehaviorProfile from raw implicit and explicit history.
// It is a pure function; empty input yields a neutral newcomer profile.
func ExtractBehavior(
	userID string,
	visits []models.VisitRecord,
	feedback []models.FeedbackEvent,
	searches []models.SearchRecord,
	now time.Time,
) *models.BehaviorProfile {
	profile := &models.BehaviorProfile{
		UserID:         userID,
		TimeOfDay:      make(map[string]float64),
		CategoryCounts: make(map[string]int),
		CategoryShares: make(map[string]float64),
		VisitedPlaces:  make(map[string]int),
		Diversity:      models.LevelNone,
		RevisitPattern: models.LevelNone,
		Sentiment:      "neutral",
		SearchStyle:    models.LevelNone,
		ComputedAt:     now,
	}

	extractVisitPatterns(profile, visits, now)
	extractSentiment(profile, feedback)
	extractSearchStyle(profile, searches)
	profile.Persona = classifyPersona(profile)

	return profile
}

func extractVisitPatterns(profile *models.BehaviorProfile, visits []models.VisitRecord, now time.Time) {
	profile.TotalVisits = len(visits)
	if len(visits) == 0 {
		return
	}

	total := float64(len(visits))
	bucketCounts := make(map[string]int)
	weekend := 0
	earliest := visits[0].VisitedAt

	for _, visit := range visits {
		hour := visit.VisitedAt.Hour()
		profile.HourlyDistribution[hour]++
		bucketCounts[TimeOfDayBucket(hour)]++

		if DayType(visit.VisitedAt) == models.DayTypeWeekend {
			weekend++
		}
		if visit.VisitedAt.Before(earliest) {
			earliest = visit.VisitedAt
		}

		if category := foldTag(visit.Category); category != "" {
			profile.CategoryCounts[category]++
		}
		if visit.PlaceID != "" {
			profile.VisitedPlaces[visit.PlaceID]++
		}
	}

	for hour := range profile.HourlyDistribution {
		profile.HourlyDistribution[hour] /= total
	}
	for bucket, count := range bucketCounts {
		profile.TimeOfDay[bucket] = float64(count) / total
	}
	profile.DominantTimeOfDay = dominantKey(bucketCounts)

	profile.WeekendShare = float64(weekend) / total
	profile.WeekdayShare = 1 - profile.WeekendShare

	weeks := now.Sub(earliest).Hours() / (24 * 7)
	if weeks < 1 {
		weeks = 1
	}
	profile.VisitFrequency = total / weeks

	categorized := 0
	for _, count := range profile.CategoryCounts {
		categorized += count
	}
	for category, count := range profile.CategoryCounts {
		profile.CategoryShares[category] = float64(count) / float64(categorized)
	}
	profile.DominantCategory = dominantKey(profile.CategoryCounts)

	switch distinct := len(profile.CategoryCounts); {
	case distinct >= 5:
		profile.Diversity = models.LevelHigh
	case distinct >= 3:
		profile.Diversity = models.LevelMedium
	default:
		profile.Diversity = models.LevelLow
	}

	if len(profile.VisitedPlaces) > 0 {
		revisited := 0
		for _, count := range profile.VisitedPlaces {
			if count > 1 {
				revisited++
			}
		}
		profile.RevisitRate = float64(revisited) / float64(len(profile.VisitedPlaces))
	}
	switch {
	case profile.RevisitRate > 0.5:
		profile.RevisitPattern = models.LevelHigh
	case profile.RevisitRate > 0.2:
		profile.RevisitPattern = models.LevelMedium
	case profile.RevisitRate > 0:
		profile.RevisitPattern = models.LevelLow
	default:
		profile.RevisitPattern = models.LevelNone
	}
}

func extractSentiment(profile *models.BehaviorProfile, feedback []models.FeedbackEvent) {
	if len(feedback) == 0 {
		return
	}

	var sum float64
	positive, negative := 0, 0
	tagCounts := make(map[string]int)
	for _, event := range feedback {
		sum += float64(event.Rating)
		if event.Rating >= 4 {
			positive++
		} else if event.Rating <= 2 {
			negative++
		}
		for _, tag := range foldTags(event.Tags) {
			tagCounts[tag]++
		}
	}

	total := float64(len(feedback))
	profile.AverageRating = sum / total
	profile.PositiveShare = float64(positive) / total
	profile.NegativeShare = float64(negative) / total
	switch {
	case profile.AverageRating >= 3.5:
		profile.Sentiment = "positive"
	case profile.AverageRating <= 2.5:
		profile.Sentiment = "negative"
	}
	profile.TopTags = topKeys(tagCounts, topTermCount)
}

func extractSearchStyle(profile *models.BehaviorProfile, searches []models.SearchRecord) {
	profile.SearchCount = len(searches)
	if len(searches) == 0 {
		return
	}

	filtered, tokens := 0, 0
	termCounts := make(map[string]int)
	for _, search := range searches {
		if len(search.Filters) > 0 {
			filtered++
		}
		terms := strings.Fields(foldTag(search.Query))
		tokens += len(terms)
		for _, term := range terms {
			termCounts[term]++
		}
	}

	total := float64(len(searches))
	switch {
	case float64(filtered)/total >= 0.5:
		profile.SearchStyle = "filter_driven"
	case float64(tokens)/total >= 2:
		profile.SearchStyle = "keyword_driven"
	default:
		profile.SearchStyle = "browsing"
	}
	profile.TopSearchTerms = topKeys(termCounts, topTermCount)
}

func classifyPersona(p *models.BehaviorProfile) string {
	switch {
	case !p.HasVisits():
		return models.PersonaNewcomer
	case p.Diversity == models.LevelHigh && p.VisitFrequency >= highVisitFrequency:
		return models.PersonaEnthusiasticExplorer
	case p.RevisitPattern == models.LevelHigh && p.Diversity == models.LevelLow:
		return models.PersonaLoyalRegular
	case p.DominantTimeOfDay == models.TimeOfDayMorning && p.DominantCategory == "cafe":
		return models.PersonaMorningCafeGoer
	case (p.DominantTimeOfDay == models.TimeOfDayNight || p.DominantTimeOfDay == models.TimeOfDayEvening) &&
		nightlifeCategories[p.DominantCategory]:
		return models.PersonaNightOwl
	case cultureCategories[p.DominantCategory]:
		return models.PersonaCultureSeeker
	case p.WeekendShare > 0.6:
		return models.PersonaWeekendAdventurer
	case p.Diversity == models.LevelHigh:
		return models.PersonaExplorer
	default:
		return models.PersonaCasualVisitor
	}
}

// dominantKey returns the key with the highest count; ties resolve alphabetically.
func dominantKey(counts map[string]int) string {
	best, bestCount := "", math.MinInt
	for key, count := range counts {
		if count > bestCount || (count == bestCount && key < best) {
			best, bestCount = key, count
		}
	}
	return best
}

func topKeys(counts map[string]int, n int) []string {
	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}
