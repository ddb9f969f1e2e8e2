package achievement

import (
	"sort"

	"bounty-tracker/internal/model"
)

// Seed describes a catalog entry inserted at startup when missing.
type Seed struct {
	Name             string
	Description      string
	Icon             string
	Category         string
	RequirementType  model.RequirementType
	RequirementValue int64
	BadgeColor       string
	Rarity           model.Rarity
	PointsReward     int64
}

// Achievement categories.
const (
	CategoryHunter    = "hunter"
	CategoryCreator   = "creator"
	CategorySocial    = "social"
	CategoryMilestone = "milestone"
)

// SeedCatalog is the built-in achievement catalog.
// Seeds are matched by name, so renaming one creates a new achievement.
var SeedCatalog = []Seed{
	// Common
	{"First Blood", "Complete your first bounty hunt", "Target", CategoryHunter, model.RequirementBountiesCompleted, 1, "#00ff88", model.RarityCommon, 10},
	{"Getting Started", "Create your first bounty", "CircleDollarSign", CategoryCreator, model.RequirementBountiesCreated, 1, "#00d4ff", model.RarityCommon, 5},
	{"Hunter Initiate", "Join your first hunt", "Crosshair", CategoryHunter, model.RequirementHuntsJoined, 1, "#00d4ff", model.RarityCommon, 5},

	// Rare
	{"Sharpshooter", "Complete 10 bounty hunts", "Crosshair", CategoryHunter, model.RequirementBountiesCompleted, 10, "#00ff88", model.RarityRare, 50},
	{"Hot Streak", "Complete 5 bounties in 24 hours", "Flame", CategoryHunter, model.RequirementStreak24h, 5, "#ff3355", model.RarityRare, 100},
	{"Generous Hunter", "Create 10 bounties", "Gift", CategoryCreator, model.RequirementBountiesCreated, 10, "#ffd500", model.RarityRare, 50},
	{"Point Collector", "Earn 500 total points", "TrendingUp", CategoryMilestone, model.RequirementPointsEarned, 500, "#ffd500", model.RarityRare, 75},

	// Epic
	{"Veteran Hunter", "Complete 50 bounty hunts", "Award", CategoryHunter, model.RequirementBountiesCompleted, 50, "#ff3355", model.RarityEpic, 200},
	{"Big Game Hunter", "Complete a bounty worth 1000+ points", "Trophy", CategoryHunter, model.RequirementSingleBountyValue, 1000, "#ff3355", model.RarityEpic, 150},
	{"Speed Demon", "Complete a bounty within 1 hour of claiming", "Zap", CategoryHunter, model.RequirementSpeedCompletion, 1, "#ffd500", model.RarityEpic, 150},
	{"Point Master", "Earn 2500 total points", "Medal", CategoryMilestone, model.RequirementPointsEarned, 2500, "#ffd500", model.RarityEpic, 250},
	{"Bounty Lord", "Create 50 bounties", "Crown", CategoryCreator, model.RequirementBountiesCreated, 50, "#00d4ff", model.RarityEpic, 200},

	// Legendary
	{"Legendary Hunter", "Complete 100 bounty hunts", "Crown", CategoryHunter, model.RequirementBountiesCompleted, 100, "#ffd500", model.RarityLegendary, 500},
	{"Point Legend", "Earn 10000 total points", "Star", CategoryMilestone, model.RequirementPointsEarned, 10000, "#ffd500", model.RarityLegendary, 1000},
	{"Apex Predator", "Reach #1 on the leaderboard", "Trophy", CategoryMilestone, model.RequirementLeaderboardRank, 1, "#ff3355", model.RarityLegendary, 500},
	// No rule evaluates safe_streak yet; the entry is displayed but never awarded.
	{"Untouchable", "Spend 30 consecutive days without an active bounty on you", "Shield", CategorySocial, "safe_streak", 30, "#00ff88", model.RarityLegendary, 750},
	{"Master Benefactor", "Create 100 bounties", "Coins", CategoryCreator, model.RequirementBountiesCreated, 100, "#00d4ff", model.RarityLegendary, 500},
}

// SortCatalog orders achievements by rarity rank, then requirement value, then name.
// This is the order Evaluate reports qualifying achievements in.
func SortCatalog(catalog []*model.Achievement) {
	sort.SliceStable(catalog, func(i, j int) bool {
		a, b := catalog[i], catalog[j]
		if ra, rb := a.Rarity.Rank(), b.Rarity.Rank(); ra != rb {
			return ra < rb
		}
		if va, vb := requirementOrZero(a), requirementOrZero(b); va != vb {
			return va < vb
		}
		return a.Name < b.Name
	})
}

func requirementOrZero(a *model.Achievement) int64 {
	if a.RequirementValue == nil {
		return 0
	}
	return *a.RequirementValue
}

// SortByRarityDesc orders achievements from legendary down to common, keeping
// the existing order within a rarity.
func SortByRarityDesc(achievements []*model.Achievement) {
	sort.SliceStable(achievements, func(i, j int) bool {
		return achievements[i].Rarity.Rank() > achievements[j].Rarity.Rank()
	})
}
