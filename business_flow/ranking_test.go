package businessflow

import (
	"testing"

	"github.com/amirphl/trip-to-travel/app/services"
	"github.com/stretchr/testify/assert"
)

func TestRankByImportance(t *testing.T) {
	tests := []struct {
		name   string
		ids    []uint
		scores []services.ImportanceScore
		want   []uint
	}{
		{
			name: "descending by score",
			ids:  []uint{1, 2, 3},
			scores: []services.ImportanceScore{
				{ImageID: 1, Importance: 0.2},
				{ImageID: 2, Importance: 0.9},
				{ImageID: 3, Importance: 0.5},
			},
			want: []uint{2, 3, 1},
		},
		{
			name: "ties keep input order",
			ids:  []uint{4, 5, 6},
			scores: []services.ImportanceScore{
				{ImageID: 4, Importance: 0.5},
				{ImageID: 5, Importance: 0.5},
				{ImageID: 6, Importance: 0.7},
			},
			want: []uint{6, 4, 5},
		},
		{
			name: "missing scores rank as zero",
			ids:  []uint{1, 2, 3},
			scores: []services.ImportanceScore{
				{ImageID: 3, Importance: 0.1},
			},
			want: []uint{3, 1, 2},
		},
		{
			name: "unknown ids are ignored",
			ids:  []uint{1},
			scores: []services.ImportanceScore{
				{ImageID: 99, Importance: 1},
				{ImageID: 1, Importance: 0.3},
			},
			want: []uint{1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ranked := RankByImportance(tt.ids, tt.scores)
			got := make([]uint, 0, len(ranked))
			for _, r := range ranked {
				got = append(got, r.PhotoID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRankByImportanceKeepsScores(t *testing.T) {
	ranked := RankByImportance([]uint{1, 2}, []services.ImportanceScore{{ImageID: 2, Importance: 0.8}})
	assert.Equal(t, []RankedPhoto{{PhotoID: 2, Importance: 0.8}, {PhotoID: 1, Importance: 0}}, ranked)
}

func TestSplitTopK(t *testing.T) {
	ranked := []RankedPhoto{{PhotoID: 1}, {PhotoID: 2}, {PhotoID: 3}}

	t.Run("splits at k", func(t *testing.T) {
		kept, dropped := SplitTopK(ranked, 2)
		assert.Len(t, kept, 2)
		assert.Equal(t, []RankedPhoto{{PhotoID: 3}}, dropped)
	})

	t.Run("k above length keeps everything", func(t *testing.T) {
		kept, dropped := SplitTopK(ranked, 10)
		assert.Len(t, kept, 3)
		assert.Empty(t, dropped)
	})

	t.Run("negative k drops everything", func(t *testing.T) {
		kept, dropped := SplitTopK(ranked, -1)
		assert.Empty(t, kept)
		assert.Len(t, dropped, 3)
	})
}
