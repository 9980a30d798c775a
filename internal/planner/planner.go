package planner

import (
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/adpilot/campaign-cli/internal/model"
)

// DefaultSmallBudgetThreshold separates single-ad-set campaigns from
// per-group structures when no threshold is configured.
const DefaultSmallBudgetThreshold = 100.0

// Planner renders a platform-specific campaign structure from an allocation.
// It is pure: no I/O, safe for concurrent use.
type Planner struct {
	smallBudgetThreshold float64
}

// New creates a Planner. A non-positive threshold falls back to the default.
func New(smallBudgetThreshold float64) *Planner {
	if smallBudgetThreshold <= 0 {
		smallBudgetThreshold = DefaultSmallBudgetThreshold
	}
	return &Planner{smallBudgetThreshold: smallBudgetThreshold}
}

// BidStrategyFor maps an objective to its bidding strategy. The mapping is a
// fixed table driven by objective alone, never by budget size.
func BidStrategyFor(objective model.Objective) model.BidStrategy {
	switch objective {
	case model.ObjectiveConversions, model.ObjectiveSales:
		return model.BidCostCap
	case model.ObjectiveTraffic:
		return model.BidLowestCost
	default:
		return model.BidLowestCost
	}
}

// optimizationGoals maps objectives to platform optimization goals.
var optimizationGoals = map[model.Objective]string{
	model.ObjectiveConversions: "OFFSITE_CONVERSIONS",
	model.ObjectiveSales:       "OFFSITE_CONVERSIONS",
	model.ObjectiveTraffic:     "LINK_CLICKS",
	model.ObjectiveLeads:       "LEAD_GENERATION",
	model.ObjectiveAwareness:   "REACH",
}

// platformPlacements lists default placements per platform.
var platformPlacements = map[model.Platform][]string{
	model.PlatformMeta:   {"facebook_feed", "instagram_feed", "instagram_stories"},
	model.PlatformTikTok: {"for_you_feed"},
	model.PlatformGoogle: {"search", "display"},
}

// PlanStructure selects the ad-set layout for one platform: a single ad-set
// below the small-budget threshold, otherwise one ad-set per non-empty
// product group carrying that group's allocation.
func (p *Planner) PlanStructure(plan *model.BudgetPlan, spec model.CampaignSpec, groups []model.ProductGroup, creatives []model.Creative, platform model.Platform) (*model.PlatformStrategy, error) {
	if plan == nil {
		return nil, eris.New("planner: nil budget plan")
	}

	days := spec.DurationDays()
	var structure model.CampaignStructure

	if plan.TotalBudget < p.smallBudgetThreshold {
		adset, err := p.singleAdSet(plan, creatives, days)
		if err != nil {
			return nil, err
		}
		structure = model.CampaignStructure{
			Policy: model.StructureSingleAdSet,
			AdSets: []model.AdSet{adset},
		}
	} else {
		adsets, err := p.perGroupAdSets(plan, groups, creatives, days)
		if err != nil {
			return nil, err
		}
		structure = model.CampaignStructure{
			Policy: model.StructureMultiAdSet,
			AdSets: adsets,
		}
	}

	return &model.PlatformStrategy{
		Platform:          platform,
		CampaignStructure: structure,
		OptimizationGoal:  optimizationGoals[spec.Objective],
		BidStrategy:       BidStrategyFor(spec.Objective),
		Targeting:         TargetingFor(spec.TargetCategory),
		Placements:        platformPlacements[platform],
		Metadata: map[string]string{
			"daily_budget": fmt.Sprintf("%.2f", plan.TotalBudget/float64(days)),
		},
	}, nil
}

func (p *Planner) singleAdSet(plan *model.BudgetPlan, creatives []model.Creative, days int) (model.AdSet, error) {
	daily := plan.TotalBudget / float64(days)
	if err := checkDailyBudget(daily, plan.TotalBudget); err != nil {
		return model.AdSet{}, err
	}
	ids := make([]string, 0, len(creatives))
	for _, c := range creatives {
		ids = append(ids, c.ID)
	}
	return model.AdSet{
		Name:        "adset-all",
		Budget:      plan.TotalBudget,
		DailyBudget: daily,
		CreativeIDs: ids,
	}, nil
}

func (p *Planner) perGroupAdSets(plan *model.BudgetPlan, groups []model.ProductGroup, creatives []model.Creative, days int) ([]model.AdSet, error) {
	byProduct := make(map[string][]string)
	for _, c := range creatives {
		byProduct[c.ProductID] = append(byProduct[c.ProductID], c.ID)
	}

	adsets := make([]model.AdSet, 0, len(groups))
	for _, g := range groups {
		budget := plan.GroupAllocation[g.Tier]
		if len(g.Products) == 0 || budget <= 0 {
			continue
		}
		var ids []string
		for _, prod := range g.Products {
			ids = append(ids, byProduct[prod.ID]...)
		}
		if len(ids) == 0 {
			// Orphaned group: its share was already redistributed by the
			// allocation engine.
			continue
		}
		daily := budget / float64(days)
		if err := checkDailyBudget(daily, plan.TotalBudget); err != nil {
			return nil, err
		}
		adsets = append(adsets, model.AdSet{
			Name:        "adset-" + string(g.Tier),
			Tier:        g.Tier,
			Budget:      budget,
			DailyBudget: daily,
			CreativeIDs: ids,
		})
	}
	if len(adsets) == 0 {
		return nil, eris.New("planner: no ad-sets could be built from the budget plan")
	}
	return adsets, nil
}

func checkDailyBudget(daily, total float64) error {
	if daily <= 0 {
		return eris.Errorf("planner: daily budget %.4f must be positive", daily)
	}
	if daily > total {
		return eris.Errorf("planner: daily budget %.2f exceeds total %.2f", daily, total)
	}
	return nil
}
