package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankedPlace_JSONKeys(t *testing.T) {
	body, err := json.Marshal(RankedPlace{
		Place:         PlaceCandidate{ID: "p1", Name: "Place", Category: "cafe"},
		BaseScore:     0.5,
		MatchScore:    0.6,
		MatchDetails:  map[string]float64{"personality": 0.5},
		ContextBoosts: map[string]float64{"open_now": 1.1},
	})
	require.NoError(t, err)

	var keys map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &keys))
	for _, key := range []string{"place", "baseScore", "matchScore", "matchDetails", "contextBoosts"} {
		assert.Contains(t, keys, key)
	}
	assert.NotContains(t, keys, "base_score")
	assert.NotContains(t, keys, "context_boosts")
}
