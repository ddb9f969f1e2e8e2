// Package valuation computes the point value of a target's bounty from the
// hunters chasing it and how those hunters rank by kills.
package valuation

import (
	"bytes"
	"sort"

	"github.com/google/uuid"

	"bounty-tracker/internal/model"
)

// Tier is the kill-rank bracket a hunter falls into.
type Tier string

const (
	TierTop     Tier = "top"
	TierUpper   Tier = "upper"
	TierRegular Tier = "regular"
)

// Contribution of a single hunter per tier.
const (
	TopTierValue     int64 = 1000
	UpperTierValue   int64 = 500
	RegularTierValue int64 = 150
)

const (
	// TopTierSize is the number of ranking positions in the top tier.
	TopTierSize = 3
	// RankingSize is how many killers are ranked at all; everyone else is regular.
	RankingSize = 10
)

// TierForRank maps a zero-based ranking index to its tier.
// Negative indexes mean "not ranked".
func TierForRank(index int) Tier {
	switch {
	case index < 0:
		return TierRegular
	case index < TopTierSize:
		return TierTop
	case index < RankingSize:
		return TierUpper
	default:
		return TierRegular
	}
}

// Value returns the points a hunter in this tier adds to a bounty.
func (t Tier) Value() int64 {
	switch t {
	case TierTop:
		return TopTierValue
	case TierUpper:
		return UpperTierValue
	default:
		return RegularTierValue
	}
}

// Ranking is the ordered list of top killers. The zero value ranks nobody.
type Ranking struct {
	order []uuid.UUID
	index map[uuid.UUID]int
}

// NewRanking builds a ranking from user ids already ordered by kill count.
// Only the first RankingSize distinct ids are kept.
func NewRanking(ordered []uuid.UUID) Ranking {
	r := Ranking{index: make(map[uuid.UUID]int, RankingSize)}
	for _, id := range ordered {
		if len(r.order) == RankingSize {
			break
		}
		if _, seen := r.index[id]; seen {
			continue
		}
		r.index[id] = len(r.order)
		r.order = append(r.order, id)
	}
	return r
}

// RankKillers orders users by kill count descending, breaking ties by id ascending,
// and returns the resulting ranking. limit <= 0 or above RankingSize uses RankingSize.
func RankKillers(users []*model.User, limit int) Ranking {
	if limit <= 0 || limit > RankingSize {
		limit = RankingSize
	}

	sorted := SortByKills(users)
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}

	ids := make([]uuid.UUID, len(sorted))
	for i, u := range sorted {
		ids[i] = u.ID
	}
	return NewRanking(ids)
}

// SortByKills returns the non-nil users ordered by kill count descending,
// ties broken by id ascending. The input slice is not modified.
func SortByKills(users []*model.User) []*model.User {
	sorted := make([]*model.User, 0, len(users))
	for _, u := range users {
		if u != nil {
			sorted = append(sorted, u)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].KillCount != sorted[j].KillCount {
			return sorted[i].KillCount > sorted[j].KillCount
		}
		return bytes.Compare(sorted[i].ID[:], sorted[j].ID[:]) < 0
	})
	return sorted
}

// RankOf returns the zero-based position of id, or -1 and false if unranked.
func (r Ranking) RankOf(id uuid.UUID) (int, bool) {
	i, ok := r.index[id]
	if !ok {
		return -1, false
	}
	return i, true
}

// TierOf returns the tier of a hunter in this ranking.
func (r Ranking) TierOf(id uuid.UUID) Tier {
	i, _ := r.RankOf(id)
	return TierForRank(i)
}

// IDs returns the ranked ids in order.
func (r Ranking) IDs() []uuid.UUID {
	out := make([]uuid.UUID, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of ranked killers.
func (r Ranking) Len() int {
	return len(r.order)
}

// ComputeBountyValue sums the tier value of every distinct hunter.
// A target nobody is hunting is worth 0 regardless of the amount set on its bounties.
func ComputeBountyValue(hunters []uuid.UUID, ranking Ranking) int64 {
	if len(hunters) == 0 {
		return 0
	}

	seen := make(map[uuid.UUID]struct{}, len(hunters))
	var total int64
	for _, h := range hunters {
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		total += ranking.TierOf(h).Value()
	}
	return total
}

// ValueTargets computes the value for every target in huntersByTarget.
func ValueTargets(huntersByTarget map[string][]uuid.UUID, ranking Ranking) map[string]int64 {
	values := make(map[string]int64, len(huntersByTarget))
	for target, hunters := range huntersByTarget {
		values[target] = ComputeBountyValue(hunters, ranking)
	}
	return values
}
