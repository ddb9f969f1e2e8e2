package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"bounty-tracker/internal/config"
	"bounty-tracker/internal/model"
	"bounty-tracker/internal/valuation"
)

const defaultValuationCacheSize = 1024

type cachedValue struct {
	value     int64
	timestamp time.Time
}

// ValuationService computes bounty values from live hunter participation
// and the kill leaderboard.
type ValuationService struct {
	bounties    BountyStore
	hunters     HunterStore
	users       UserStore
	cache       *lru.Cache
	ttl         time.Duration
	concurrency int
	now         func() time.Time
}

// NewValuationService creates a new ValuationService instance.
// A zero CacheTTL disables caching.
func NewValuationService(bounties BountyStore, hunters HunterStore, users UserStore, cfg config.ValuationConfig) *ValuationService {
	size := cfg.CacheSize
	if size <= 0 {
		size = defaultValuationCacheSize
	}
	cache, _ := lru.New(size)

	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	return &ValuationService{
		bounties:    bounties,
		hunters:     hunters,
		users:       users,
		cache:       cache,
		ttl:         cfg.CacheTTL,
		concurrency: concurrency,
		now:         time.Now,
	}
}

// Ranking returns the current top-killer ranking.
func (s *ValuationService) Ranking(ctx context.Context) (valuation.Ranking, error) {
	killers, err := s.users.TopKillers(ctx, valuation.RankingSize)
	if err != nil {
		return valuation.Ranking{}, fmt.Errorf("failed to load kill ranking: %w", err)
	}
	return valuation.RankKillers(killers, valuation.RankingSize), nil
}

// ValueForTarget returns the combined value of all active bounties on the
// target. Read failures are logged and value the target at 0.
func (s *ValuationService) ValueForTarget(ctx context.Context, target string) int64 {
	if v, ok := s.cached(target); ok {
		return v
	}

	ranking, err := s.Ranking(ctx)
	if err != nil {
		log.Warn().Err(err).Str("target", target).Msg("Valuation fell back to zero")
		return 0
	}
	return s.valueWithRanking(ctx, target, ranking)
}

func (s *ValuationService) valueWithRanking(ctx context.Context, target string, ranking valuation.Ranking) int64 {
	if v, ok := s.cached(target); ok {
		return v
	}

	hunters, err := s.hunters.ActiveHunterIDsForTarget(ctx, target)
	if err != nil {
		log.Warn().Err(err).Str("target", target).Msg("Valuation fell back to zero")
		return 0
	}

	value := valuation.ComputeBountyValue(hunters, ranking)
	s.store(target, value)
	return value
}

func (s *ValuationService) cached(target string) (int64, bool) {
	if s.ttl <= 0 {
		return 0, false
	}
	v, ok := s.cache.Get(target)
	if !ok {
		return 0, false
	}
	entry := v.(cachedValue)
	if s.now().Sub(entry.timestamp) >= s.ttl {
		s.cache.Remove(target)
		return 0, false
	}
	return entry.value, true
}

func (s *ValuationService) store(target string, value int64) {
	if s.ttl <= 0 {
		return
	}
	s.cache.Add(target, cachedValue{value: value, timestamp: s.now()})
}

// Invalidate drops the cached value for a target.
func (s *ValuationService) Invalidate(target string) {
	s.cache.Remove(target)
}

// Purge drops every cached value.
func (s *ValuationService) Purge() {
	s.cache.Purge()
}

// MostWanted lists targets with active bounties by computed value.
// A target whose value cannot be computed is listed at 0. limit <= 0
// returns every target.
func (s *ValuationService) MostWanted(ctx context.Context, limit int) ([]*model.MostWanted, error) {
	targets, err := s.bounties.ActiveTargets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list most wanted: %w", err)
	}

	ranking, err := s.Ranking(ctx)
	if err != nil {
		log.Warn().Err(err).Int("targets", len(targets)).Msg("Most wanted valued at zero")
		for _, t := range targets {
			t.TotalBounty = 0
		}
		return limitMostWanted(sortMostWanted(targets), limit), nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, t := range targets {
		t := t
		g.Go(func() error {
			t.TotalBounty = s.valueWithRanking(gctx, t.TargetGamertag, ranking)
			return nil
		})
	}
	// Workers never return errors; Wait only joins them.
	_ = g.Wait()

	return limitMostWanted(sortMostWanted(targets), limit), nil
}

func sortMostWanted(targets []*model.MostWanted) []*model.MostWanted {
	sort.SliceStable(targets, func(i, j int) bool {
		a, b := targets[i], targets[j]
		if a.TotalBounty != b.TotalBounty {
			return a.TotalBounty > b.TotalBounty
		}
		if a.BountyCount != b.BountyCount {
			return a.BountyCount > b.BountyCount
		}
		return a.TargetGamertag < b.TargetGamertag
	})
	return targets
}

func limitMostWanted(targets []*model.MostWanted, limit int) []*model.MostWanted {
	if limit > 0 && len(targets) > limit {
		return targets[:limit]
	}
	return targets
}

// ActiveBounties returns active bounties with BountyAmount replaced by the
// computed value of their target.
func (s *ValuationService) ActiveBounties(ctx context.Context) ([]*model.Bounty, error) {
	bounties, err := s.bounties.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active bounties: %w", err)
	}
	if len(bounties) == 0 {
		return bounties, nil
	}

	ranking, err := s.Ranking(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Active bounties valued at zero")
		for _, b := range bounties {
			b.BountyAmount = 0
		}
		return bounties, nil
	}

	values := make(map[string]int64)
	for _, b := range bounties {
		v, ok := values[b.TargetGamertag]
		if !ok {
			v = s.valueWithRanking(ctx, b.TargetGamertag, ranking)
			values[b.TargetGamertag] = v
		}
		b.BountyAmount = v
	}
	return bounties, nil
}
