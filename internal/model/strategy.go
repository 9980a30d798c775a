package model

// Epsilon is the tolerance, in currency units, for conservation checks on
// allocated budgets and for normalized fraction sums.
const Epsilon = 0.01

// BudgetPlan is the allocation engine's output: nested splits of the total
// budget across priority tiers and individual creatives. Both maps sum to
// TotalBudget within Epsilon.
type BudgetPlan struct {
	TotalBudget        float64                  `json:"total_budget"`
	GroupAllocation    map[PriorityTier]float64 `json:"group_allocation"`
	CreativeAllocation map[string]float64       `json:"creative_allocation"`
}

// BidStrategy is a platform bidding policy.
type BidStrategy string

const (
	BidLowestCost BidStrategy = "lowest_cost"
	BidCostCap    BidStrategy = "cost_cap"
	BidCap        BidStrategy = "bid_cap"
)

// AbstractStrategy is the platform-agnostic plan: how budget fractions split
// across variants and which bidding policy the objective calls for.
type AbstractStrategy struct {
	Objective       Objective          `json:"objective"`
	BudgetSplit     map[string]float64 `json:"budget_split"`
	BiddingStrategy BidStrategy        `json:"bidding_strategy"`
	Constraints     map[string]string  `json:"constraints,omitempty"`
	Metadata        map[string]string  `json:"metadata,omitempty"`
}

// Targeting holds audience criteria for an ad-set.
type Targeting struct {
	AgeRange  string   `json:"age_range"`
	Interests []string `json:"interests"`
	Locations []string `json:"locations,omitempty"`
}

// AdSet is a budget-bearing grouping unit one level below the campaign.
type AdSet struct {
	Name        string       `json:"name"`
	Tier        PriorityTier `json:"tier"`
	Budget      float64      `json:"budget"`
	DailyBudget float64      `json:"daily_budget"`
	CreativeIDs []string     `json:"creative_ids"`
}

// StructurePolicy names the ad-set layout chosen for a budget size.
type StructurePolicy string

const (
	StructureSingleAdSet StructurePolicy = "single_adset"
	StructureMultiAdSet  StructurePolicy = "multi_adset"
)

// CampaignStructure is the rendered campaign/ad-set hierarchy.
type CampaignStructure struct {
	Policy StructurePolicy `json:"policy"`
	AdSets []AdSet         `json:"adsets"`
}

// PlatformStrategy is the plan rendered for one target platform.
type PlatformStrategy struct {
	Platform          Platform          `json:"platform"`
	CampaignStructure CampaignStructure `json:"campaign_structure"`
	OptimizationGoal  string            `json:"optimization_goal"`
	BidStrategy       BidStrategy       `json:"bid_strategy"`
	Targeting         Targeting         `json:"targeting"`
	Placements        []string          `json:"placements,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty"`
}

// Strategy bundles the abstract plan with its per-platform renderings and the
// budget plan they were derived from.
type Strategy struct {
	Abstract           AbstractStrategy   `json:"abstract_strategy"`
	PlatformStrategies []PlatformStrategy `json:"platform_strategies"`
	BudgetPlan         BudgetPlan         `json:"budget_plan"`
}
