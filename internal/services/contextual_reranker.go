package services

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/temcen/placerank/pkg/models"
)

const earthRadiusKm = 6371.0

// Boost keys recorded on RankedPlace.ContextBoosts.
const (
	boostTimeOfDay    = "time_of_day"
	boostDayType      = "day_type"
	boostCategory     = "category_affinity"
	boostRevisit      = "revisit"
	boostNovelty      = "novelty"
	boostPersona      = "persona"
	boostOpenNow      = "open_now"
	boostWeather      = "weather"
	boostDistance     = "distance"
	boostTimeOfDayTag = "time_of_day_tag"
	boostDayTypeTag   = "day_type_tag"
)

var outdoorCategories = map[string]bool{
	"park":     true,
	"outdoor":  true,
	"activity": true,
}

// ContextualReranker applies multiplicative boosts for the user's habits and the request
// situation. Scores are always recomputed from BaseScore so repeated runs are stable.
type ContextualReranker struct{}

// NewContextualReranker creates a new contextual re-ranker
func NewContextualReranker() *ContextualReranker {
	return &ContextualReranker{}
}

// Rerank returns a re-sorted copy of places with MatchScore = BaseScore × Π boosts.
// A negative BaseScore is raised by |BaseScore| × (Π boosts − 1) instead, so a boost
// never pushes a place down.
func (r *ContextualReranker) Rerank(
	places []models.RankedPlace,
	behavior *models.BehaviorProfile,
	rctx models.RankContext,
) []models.RankedPlace {
	now := rctx.Now
	if now.IsZero() {
		now = time.Now()
	}

	out := make([]models.RankedPlace, len(places))
	for i, ranked := range places {
		boosts := make(map[string]float64)
		if behavior.HasVisits() {
			r.behaviorBoosts(boosts, &ranked.Place, behavior, now)
		}
		r.situationBoosts(boosts, &ranked.Place, rctx, now)

		factor := 1.0
		for _, key := range sortedKeys(boosts) {
			factor *= boosts[key]
		}

		ranked.MatchScore = applyBoost(ranked.BaseScore, factor)
		ranked.ContextBoosts = boosts
		out[i] = ranked
	}

	sortRanked(out)
	return out
}

func (r *ContextualReranker) behaviorBoosts(
	boosts map[string]float64,
	place *models.PlaceCandidate,
	behavior *models.BehaviorProfile,
	now time.Time,
) {
	bucket := TimeOfDayBucket(now.Hour())
	dayType := DayType(now)
	category := foldTag(place.Category)

	// Habit boosts only apply to places that fit the current time of day.
	if declaresOrEmpty(place.RecommendedFor.TimeOfDay, bucket) {
		var share float64
		for hour, v := range behavior.HourlyDistribution {
			if TimeOfDayBucket(hour) == bucket {
				share += v
			}
		}
		if share > 0 {
			boosts[boostTimeOfDay] = 1 + 0.2*math.Min(1, share)
		}
	}

	preferred := behavior.WeekdayShare
	if dayType == models.DayTypeWeekend {
		preferred = behavior.WeekendShare
	}
	if preferred > 0.5 && declaresOrEmpty(place.RecommendedFor.DayType, dayType) {
		boosts[boostDayType] = 1.1
	}

	if share := behavior.CategoryShares[category]; share > 0 {
		boosts[boostCategory] = 1 + 0.15*math.Min(1, share)
	}

	visited := behavior.VisitedPlaces[place.ID] > 0
	switch behavior.RevisitPattern {
	case models.LevelHigh, models.LevelMedium:
		if visited {
			boosts[boostRevisit] = 1.15
		}
	default:
		if !visited {
			boosts[boostNovelty] = 1.15
		}
	}

	if factor := personaBoost(behavior, category, place.ID, now); factor != 1 {
		boosts[boostPersona] = factor
	}
}

// personaBoost is the fixed persona lookup table.
func personaBoost(behavior *models.BehaviorProfile, category, placeID string, now time.Time) float64 {
	hour := now.Hour()
	switch behavior.Persona {
	case models.PersonaMorningCafeGoer:
		if category == "cafe" && hour >= 6 && hour <= 11 {
			return 1.25
		}
	case models.PersonaNightOwl:
		if nightlifeCategories[category] && (hour >= 20 || hour < 3) {
			return 1.25
		}
	case models.PersonaWeekendAdventurer:
		if DayType(now) == models.DayTypeWeekend && outdoorCategories[category] {
			return 1.2
		}
	case models.PersonaCultureSeeker:
		if cultureCategories[category] {
			return 1.2
		}
	case models.PersonaEnthusiasticExplorer, models.PersonaExplorer:
		if category != "" && behavior.CategoryCounts[category] == 0 {
			return 1.15
		}
	case models.PersonaLoyalRegular:
		if behavior.VisitedPlaces[placeID] > 0 {
			return 1.2
		}
	}
	return 1
}

func (r *ContextualReranker) situationBoosts(
	boosts map[string]float64,
	place *models.PlaceCandidate,
	rctx models.RankContext,
	now time.Time,
) {
	if IsOpenAt(place, now) {
		boosts[boostOpenNow] = 1.1
	}

	if rctx.Weather != "" &&
		(containsFold(place.RecommendedFor.Weather, rctx.Weather) || containsFold(place.Tags, rctx.Weather)) {
		boosts[boostWeather] = 1.15
	}

	if rctx.Location != nil && place.Coordinates != nil {
		switch km := HaversineKm(*rctx.Location, *place.Coordinates); {
		case km <= 1:
			boosts[boostDistance] = 1.2
		case km <= 3:
			boosts[boostDistance] = 1.1
		case km <= 5:
			boosts[boostDistance] = 1.05
		}
	}

	if containsFold(place.RecommendedFor.TimeOfDay, TimeOfDayBucket(now.Hour())) {
		boosts[boostTimeOfDayTag] = 1.1
	}
	if containsFold(place.RecommendedFor.DayType, DayType(now)) {
		boosts[boostDayTypeTag] = 1.1
	}
}

func applyBoost(base, factor float64) float64 {
	return base + math.Abs(base)*(factor-1)
}

// IsOpenAt reports whether the place's operating hours for the weekday of t include t.
// Hours are looked up by lowercase weekday name, then "daily". Places without hours are
// never considered open.
func IsOpenAt(place *models.PlaceCandidate, t time.Time) bool {
	if len(place.OperatingHours) == 0 {
		return false
	}

	window, ok := place.OperatingHours[strings.ToLower(t.Weekday().String())]
	if !ok {
		if window, ok = place.OperatingHours["daily"]; !ok {
			return false
		}
	}

	open, okOpen := parseClock(window.Open)
	closing, okClose := parseClock(window.Close)
	if !okOpen || !okClose {
		return false
	}

	minute := t.Hour()*60 + t.Minute()
	if closing <= open {
		// Spans midnight.
		return minute >= open || minute < closing
	}
	return minute >= open && minute < closing
}

func parseClock(value string) (int, bool) {
	parsed, err := time.Parse("15:04", value)
	if err != nil {
		return 0, false
	}
	return parsed.Hour()*60 + parsed.Minute(), true
}

// HaversineKm returns the great-circle distance between two points.
func HaversineKm(a, b models.GeoPoint) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

func declaresOrEmpty(list []string, value string) bool {
	return len(list) == 0 || containsFold(list, value)
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
