package businessflow

import (
	"slices"

	"github.com/amirphl/trip-to-travel/app/services"
)

// RankedPhoto is a photo id with the score it was ranked by
type RankedPhoto struct {
	PhotoID    uint
	Importance float64
}

// RankByImportance orders ids by descending score. Ids without a score rank as 0.0,
// equal scores keep the input order, and scores for unknown ids are ignored.
func RankByImportance(ids []uint, scores []services.ImportanceScore) []RankedPhoto {
	byID := make(map[uint]float64, len(scores))
	for _, s := range scores {
		byID[s.ImageID] = s.Importance
	}

	ranked := make([]RankedPhoto, 0, len(ids))
	for _, id := range ids {
		ranked = append(ranked, RankedPhoto{PhotoID: id, Importance: byID[id]})
	}
	slices.SortStableFunc(ranked, func(a, b RankedPhoto) int {
		switch {
		case a.Importance > b.Importance:
			return -1
		case a.Importance < b.Importance:
			return 1
		default:
			return 0
		}
	})
	return ranked
}

// SplitTopK returns the first k ranked photos and the rest. k is clamped to [0, len(ranked)].
func SplitTopK(ranked []RankedPhoto, k int) ([]RankedPhoto, []RankedPhoto) {
	k = min(max(k, 0), len(ranked))
	return ranked[:k], ranked[k:]
}
