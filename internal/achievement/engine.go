package achievement

import (
	"github.com/google/uuid"

	"bounty-tracker/internal/model"
)

// EarnedSet holds the ids of achievements a user already has.
type EarnedSet map[uuid.UUID]struct{}

// NewEarnedSet builds an EarnedSet from ids.
func NewEarnedSet(ids ...uuid.UUID) EarnedSet {
	s := make(EarnedSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is in the set. A nil set contains nothing.
func (s EarnedSet) Has(id uuid.UUID) bool {
	_, ok := s[id]
	return ok
}

// Engine evaluates a catalog against an event using a rule registry.
type Engine struct {
	registry *Registry
}

// NewEngine creates an engine. A nil registry uses the default rules.
func NewEngine(registry *Registry) *Engine {
	if registry == nil {
		registry = NewDefaultRegistry()
	}
	return &Engine{registry: registry}
}

// Evaluate returns the catalog achievements not in earned that ev now satisfies,
// in catalog order. It has no side effects.
func (e *Engine) Evaluate(ev Event, stats model.UserStats, catalog []*model.Achievement, earned EarnedSet) []*model.Achievement {
	if ev == nil {
		return nil
	}

	var qualified []*model.Achievement
	for _, a := range catalog {
		if a == nil || earned.Has(a.ID) {
			continue
		}
		rule, ok := e.registry.Get(a.RequirementType)
		if !ok {
			continue
		}
		threshold := rule.DefaultThreshold
		if a.RequirementValue != nil {
			threshold = *a.RequirementValue
		}
		if rule.Check(ev, stats, threshold) {
			qualified = append(qualified, a)
		}
	}
	return qualified
}

// Names returns the names of achievements, preserving order.
func Names(achievements []*model.Achievement) []string {
	names := make([]string, len(achievements))
	for i, a := range achievements {
		names[i] = a.Name
	}
	return names
}
