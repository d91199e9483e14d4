// Plotshare - Garden Sharing and Community Marketplace
// Copyright 2026 Plotshare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plotshare/plotshare

package recommend

import (
	"math"

	"github.com/plotshare/plotshare/internal/models"
)

// fallbackWeight is the per-stratum share used when no preference profile
// exists for the group type.
const fallbackWeight = 0.33

// stratumCounts splits the suggestion budget across listing types. Each
// stratum gets round(weight*budget) independently; the counts are not
// renormalised, so they may sum to slightly more or less than the budget.
func stratumCounts(profile *models.PreferenceProfile, budget int) map[models.ListingType]int {
	counts := make(map[models.ListingType]int, len(models.ListingTypes))
	for _, t := range models.ListingTypes {
		w := fallbackWeight
		if profile != nil {
			w = profile.Weight(t)
		}
		counts[t] = int(math.Round(w * float64(budget)))
	}
	return counts
}
