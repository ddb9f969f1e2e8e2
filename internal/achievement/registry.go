package achievement

import (
	"fmt"
	"sort"
	"sync"

	"bounty-tracker/internal/model"
)

// Predicate reports whether ev satisfies a rule at the given threshold.
// It must return false for event kinds the rule does not apply to.
type Predicate func(ev Event, stats model.UserStats, threshold int64) bool

// Rule binds a requirement type to its predicate.
type Rule struct {
	Type model.RequirementType
	// DefaultThreshold is used when an achievement has no requirement value.
	DefaultThreshold int64
	Check            Predicate
}

// Registry maps requirement types to rules.
// It is safe for concurrent use.
type Registry struct {
	rules map[model.RequirementType]Rule
	mu    sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		rules: make(map[model.RequirementType]Rule),
	}
}

// NewDefaultRegistry creates a registry holding DefaultRules.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, rule := range DefaultRules() {
		// DefaultRules only contains valid rules.
		_ = r.Register(rule)
	}
	return r
}

// Register adds a rule, replacing any rule with the same type.
func (r *Registry) Register(rule Rule) error {
	if rule.Type == "" {
		return fmt.Errorf("rule requirement type cannot be empty")
	}
	if rule.Check == nil {
		return fmt.Errorf("rule %q has no predicate", rule.Type)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules[rule.Type] = rule
	return nil
}

// Get returns the rule for a requirement type.
func (r *Registry) Get(t model.RequirementType) (Rule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[t]
	return rule, ok
}

// Types returns the registered requirement types, sorted.
func (r *Registry) Types() []model.RequirementType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]model.RequirementType, 0, len(r.rules))
	for t := range r.rules {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Count returns the number of registered rules.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rules)
}

// Unregister removes the rule for t and reports whether one existed.
func (r *Registry) Unregister(t model.RequirementType) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rules[t]; ok {
		delete(r.rules, t)
		return true
	}
	return false
}

// SpeedCompletionLimitMinutes is the fixed limit for speed_completion.
const SpeedCompletionLimitMinutes = 60

// DefaultRules returns the built-in rule set.
func DefaultRules() []Rule {
	return []Rule{
		{Type: model.RequirementBountiesCompleted, Check: bountiesCompleted},
		{Type: model.RequirementBountiesCreated, Check: bountiesCreated},
		{Type: model.RequirementHuntsJoined, Check: huntsJoined},
		{Type: model.RequirementPointsEarned, Check: pointsEarned},
		{Type: model.RequirementSingleBountyValue, Check: singleBountyValue},
		{Type: model.RequirementLeaderboardRank, DefaultThreshold: 1, Check: leaderboardRank},
		{Type: model.RequirementSpeedCompletion, Check: speedCompletion},
		{Type: model.RequirementStreak24h, Check: streak24h},
	}
}

func bountiesCompleted(ev Event, stats model.UserStats, threshold int64) bool {
	e, ok := ev.(BountyCompleted)
	if !ok {
		return false
	}
	completed := stats.BountiesCompleted
	if e.TotalBountiesCompleted != nil {
		completed = *e.TotalBountiesCompleted
	}
	return completed >= threshold
}

func bountiesCreated(ev Event, _ model.UserStats, threshold int64) bool {
	e, ok := ev.(BountyCreated)
	return ok && e.TotalBountiesCreated >= threshold
}

func huntsJoined(ev Event, _ model.UserStats, threshold int64) bool {
	e, ok := ev.(HuntJoined)
	return ok && e.TotalHuntsJoined >= threshold
}

func pointsEarned(ev Event, stats model.UserStats, threshold int64) bool {
	var total *int64
	switch e := ev.(type) {
	case PointsEarned:
		total = e.TotalPoints
	case BountyCompleted:
		total = e.TotalPoints
	default:
		return false
	}
	points := stats.TotalPoints
	if total != nil {
		points = *total
	}
	return points >= threshold
}

func singleBountyValue(ev Event, _ model.UserStats, threshold int64) bool {
	e, ok := ev.(BountyCompleted)
	return ok && e.BountyValue >= threshold
}

func leaderboardRank(ev Event, _ model.UserStats, threshold int64) bool {
	e, ok := ev.(LeaderboardUpdated)
	return ok && int64(e.Position()) <= threshold
}

// speedCompletion ignores the threshold; the limit is fixed.
func speedCompletion(ev Event, _ model.UserStats, _ int64) bool {
	e, ok := ev.(SpeedCompletion)
	return ok && e.CompletionTimeMinutes >= 0 && e.CompletionTimeMinutes <= SpeedCompletionLimitMinutes
}

func streak24h(ev Event, _ model.UserStats, threshold int64) bool {
	e, ok := ev.(BountyCompleted)
	return ok && e.RecentCompletions >= threshold
}
