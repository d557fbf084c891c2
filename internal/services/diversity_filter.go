package services

import (
	"github.com/sirupsen/logrus"

	"github.com/temcen/placerank/internal/config"
	"github.com/temcen/placerank/pkg/models"
)

// DiversityFilter caps a ranked list while spreading it across categories.
type DiversityFilter struct {
	config *config.DiversityConfig
	logger *logrus.Logger
}

// NewDiversityFilter creates a new diversity filter
func NewDiversityFilter(config *config.DiversityConfig, logger *logrus.Logger) *DiversityFilter {
	return &DiversityFilter{
		config: config,
		logger: logger,
	}
}

// EnsureCategoryDiversity expects places sorted by score. Lists at or under the cap pass
// through unchanged. Otherwise each category contributes its best place before any category
// contributes a second one.
func (df *DiversityFilter) EnsureCategoryDiversity(places []models.RankedPlace) []models.RankedPlace {
	maxResults := df.config.MaxResults
	if len(places) <= maxResults {
		return places
	}

	var categories []string
	grouped := make(map[string][]int)
	for i, p := range places {
		category := foldTag(p.Place.Category)
		if _, ok := grouped[category]; !ok {
			categories = append(categories, category)
		}
		grouped[category] = append(grouped[category], i)
	}

	selected := make([]models.RankedPlace, 0, maxResults)
	taken := make(map[string]bool, maxResults)
	take := func(idx int) {
		p := places[idx]
		if taken[p.Place.ID] || len(selected) >= maxResults {
			return
		}
		taken[p.Place.ID] = true
		selected = append(selected, p)
	}

	for _, category := range categories {
		take(grouped[category][0])
	}

	if len(categories) < maxResults {
		for idx, p := range places {
			if len(selected) >= maxResults {
				break
			}
			if grouped[foldTag(p.Place.Category)][0] == idx {
				continue
			}
			take(idx)
		}
	}

	sortRanked(selected)

	df.logger.WithFields(logrus.Fields{
		"input":      len(places),
		"output":     len(selected),
		"categories": len(categories),
	}).Debug("Applied category diversity")

	return selected
}
