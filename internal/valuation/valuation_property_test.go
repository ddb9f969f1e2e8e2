// Property-based tests for bounty valuation.
package valuation

import (
	"testing"

	"github.com/google/uuid"
	"pgregory.net/rapid"
)

// drawHunters picks hunters from a fixed pool so sets overlap with the ranking.
func drawHunters(t *rapid.T, pool []uuid.UUID, label string) []uuid.UUID {
	idx := rapid.SliceOfN(rapid.IntRange(0, len(pool)-1), 0, 30).Draw(t, label)
	out := make([]uuid.UUID, len(idx))
	for i, j := range idx {
		out[i] = pool[j]
	}
	return out
}

// TestMonotonicValuationProperty checks that adding hunters never lowers the value.
func TestMonotonicValuationProperty(t *testing.T) {
	pool := ids(25)
	ranking := NewRanking(pool[:RankingSize])

	rapid.Check(t, func(t *rapid.T) {
		base := drawHunters(t, pool, "base")
		extra := drawHunters(t, pool, "extra")
		superset := append(append([]uuid.UUID{}, base...), extra...)

		small := ComputeBountyValue(base, ranking)
		large := ComputeBountyValue(superset, ranking)
		if small > large {
			t.Fatalf("value decreased when hunters were added: %d > %d", small, large)
		}
	})
}

// TestValueBoundsProperty checks value stays between all-regular and all-top for the distinct count.
func TestValueBoundsProperty(t *testing.T) {
	pool := ids(25)
	ranking := NewRanking(pool[:RankingSize])

	rapid.Check(t, func(t *rapid.T) {
		hunters := drawHunters(t, pool, "hunters")

		distinct := make(map[uuid.UUID]struct{})
		for _, h := range hunters {
			distinct[h] = struct{}{}
		}
		n := int64(len(distinct))

		v := ComputeBountyValue(hunters, ranking)
		if v < n*RegularTierValue || v > n*TopTierValue {
			t.Fatalf("value %d outside [%d, %d] for %d hunters", v, n*RegularTierValue, n*TopTierValue, n)
		}
	})
}

// TestOrderIndependenceProperty checks hunter order does not change the value.
func TestOrderIndependenceProperty(t *testing.T) {
	pool := ids(25)
	ranking := NewRanking(pool[:RankingSize])

	rapid.Check(t, func(t *rapid.T) {
		hunters := drawHunters(t, pool, "hunters")
		reversed := make([]uuid.UUID, len(hunters))
		for i, h := range hunters {
			reversed[len(hunters)-1-i] = h
		}

		if a, b := ComputeBountyValue(hunters, ranking), ComputeBountyValue(reversed, ranking); a != b {
			t.Fatalf("order changed value: %d != %d", a, b)
		}
	})
}
