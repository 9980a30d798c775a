package allocation

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/adpilot/campaign-cli/internal/config"
	"github.com/adpilot/campaign-cli/internal/model"
)

// Precondition and invariant errors. Callers match these with eris.Is.
var (
	ErrEmptyGroups        = eris.New("allocation: no product groups")
	ErrEmptyCreatives     = eris.New("allocation: no creatives")
	ErrInvalidBudget      = eris.New("allocation: total budget must be positive")
	ErrInvariantViolation = eris.New("allocation: conservation invariant violated")
)

// Policy holds the allocation knobs. Exact weight values are configuration,
// not contract; the engine only guarantees that a higher tier always receives
// strictly more than a lower one, and that the control variant's fraction is
// at least any other variant's.
type Policy struct {
	// TierWeights maps each priority tier to its relative weight. Weights
	// must strictly decrease with tier rank.
	TierWeights map[model.PriorityTier]float64

	// ControlWeight is the relative weight of the "A" variant in the
	// abstract budget split. Non-control variants weigh 1.
	ControlWeight float64
}

// DefaultPolicy returns the 3/2/1 tier schedule with a double-weighted
// control variant.
func DefaultPolicy() Policy {
	return Policy{
		TierWeights: map[model.PriorityTier]float64{
			model.TierHigh:   3,
			model.TierMedium: 2,
			model.TierLow:    1,
		},
		ControlWeight: 2,
	}
}

// PolicyFromConfig builds a Policy from configuration, falling back to the
// defaults for missing or non-decreasing values.
func PolicyFromConfig(cfg config.AllocationConfig) Policy {
	p := DefaultPolicy()
	if cfg.ControlWeight >= 1 {
		p.ControlWeight = cfg.ControlWeight
	}
	if len(cfg.TierWeights) == 0 {
		return p
	}
	weights := make(map[model.PriorityTier]float64, len(cfg.TierWeights))
	for name, w := range cfg.TierWeights {
		weights[model.PriorityTier(name)] = w
	}
	h, hok := weights[model.TierHigh]
	m, mok := weights[model.TierMedium]
	l, lok := weights[model.TierLow]
	if hok && mok && lok && h > m && m > l && l > 0 {
		p.TierWeights = weights
	}
	return p
}

// Engine computes deterministic nested budget allocations. It holds no
// mutable state; Allocate may be called concurrently.
type Engine struct {
	policy Policy
}

// NewEngine creates an Engine with the given policy.
func NewEngine(policy Policy) *Engine {
	return &Engine{policy: policy}
}

// Allocate splits total across the priority groups and their creatives,
// preserving conservation and tier ordering. Groups whose products have no
// creatives contribute their share back to the groups that do.
func (e *Engine) Allocate(total float64, groups []model.ProductGroup, creatives []model.Creative) (*model.BudgetPlan, error) {
	if total <= 0 {
		return nil, eris.Wrapf(ErrInvalidBudget, "got %.2f", total)
	}
	if len(groups) == 0 {
		return nil, ErrEmptyGroups
	}
	if len(creatives) == 0 {
		return nil, ErrEmptyCreatives
	}

	ordered := orderByTier(groups)

	// Step 1: group-level split by tier-rank weights. Score ranges are
	// provenance and never enter the arithmetic.
	groupAlloc := make(map[model.PriorityTier]float64, len(ordered))
	var weightSum float64
	for _, g := range ordered {
		weightSum += e.tierWeight(g.Tier)
	}
	for _, g := range ordered {
		groupAlloc[g.Tier] = total * e.tierWeight(g.Tier) / weightSum
	}

	// Step 2: creative-level split, equal across the (product, variant)
	// pairs of each group.
	byGroup := creativesByTier(ordered, creatives)
	if len(byGroup) == 0 {
		return nil, eris.Wrap(ErrEmptyCreatives, "no creative belongs to any group's products")
	}

	// A group with products but no creatives must not swallow its share:
	// reassign it proportionally across the groups that do have creatives.
	redistributeOrphans(groupAlloc, byGroup)

	creativeAlloc := make(map[string]float64, len(creatives))
	for _, g := range ordered {
		members := byGroup[g.Tier]
		if len(members) == 0 {
			continue
		}
		share := groupAlloc[g.Tier] / float64(len(members))
		for _, c := range members {
			creativeAlloc[c.ID] = share
		}
	}

	plan := &model.BudgetPlan{
		TotalBudget:        total,
		GroupAllocation:    groupAlloc,
		CreativeAllocation: creativeAlloc,
	}

	// Step 4: conservation check. A violation here is a defect in the split
	// logic above, never bad input.
	if err := checkConservation(plan); err != nil {
		zap.L().Error("allocation: conservation check failed",
			zap.Float64("total_budget", total),
			zap.Int("groups", len(groups)),
			zap.Int("creatives", len(creatives)),
			zap.Error(err),
		)
		return nil, err
	}

	return plan, nil
}

// VariantSplit assigns normalized budget fractions to variant labels,
// independent of money. The control variant weighs ControlWeight, everything
// else 1, so the control's fraction is never below any single variant's.
func (e *Engine) VariantSplit(creatives []model.Creative) map[string]float64 {
	labels := make([]string, 0, 4)
	seen := make(map[string]bool)
	for _, c := range creatives {
		if !seen[c.VariantLabel] {
			seen[c.VariantLabel] = true
			labels = append(labels, c.VariantLabel)
		}
	}
	sort.Strings(labels)

	var weightSum float64
	for _, l := range labels {
		weightSum += e.variantWeight(l)
	}
	split := make(map[string]float64, len(labels))
	for _, l := range labels {
		split[l] = e.variantWeight(l) / weightSum
	}
	return split
}

func (e *Engine) tierWeight(t model.PriorityTier) float64 {
	if w, ok := e.policy.TierWeights[t]; ok && w > 0 {
		return w
	}
	// Unknown tier: rank-derived fallback keeps the schedule descending.
	return 1 / float64(t.Rank()+1)
}

func (e *Engine) variantWeight(label string) float64 {
	if label == model.ControlVariant {
		return e.policy.ControlWeight
	}
	return 1
}

// orderByTier returns groups sorted by fixed tier rank, high first. The sort
// is stable so identical inputs always produce identical output.
func orderByTier(groups []model.ProductGroup) []model.ProductGroup {
	ordered := make([]model.ProductGroup, len(groups))
	copy(ordered, groups)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Tier.Rank() < ordered[j].Tier.Rank()
	})
	return ordered
}

// creativesByTier buckets creatives under the tier of their product's group.
// Creatives whose product belongs to no group are dropped; tiers are mutually
// exclusive so a product maps to at most one tier.
func creativesByTier(groups []model.ProductGroup, creatives []model.Creative) map[model.PriorityTier][]model.Creative {
	productTier := make(map[string]model.PriorityTier)
	for _, g := range groups {
		for _, id := range g.ProductIDs() {
			productTier[id] = g.Tier
		}
	}
	byGroup := make(map[model.PriorityTier][]model.Creative, len(groups))
	for _, c := range creatives {
		tier, ok := productTier[c.ProductID]
		if !ok {
			continue
		}
		byGroup[tier] = append(byGroup[tier], c)
	}
	return byGroup
}

// redistributeOrphans moves the allocation of creative-less groups onto the
// groups that have creatives, proportionally to their existing shares.
func redistributeOrphans(groupAlloc map[model.PriorityTier]float64, byGroup map[model.PriorityTier][]model.Creative) {
	var orphaned, covered float64
	for tier, amount := range groupAlloc {
		if len(byGroup[tier]) == 0 {
			orphaned += amount
		} else {
			covered += amount
		}
	}
	if orphaned == 0 || covered == 0 {
		return
	}
	for tier := range groupAlloc {
		if len(byGroup[tier]) == 0 {
			groupAlloc[tier] = 0
			continue
		}
		groupAlloc[tier] += orphaned * groupAlloc[tier] / covered
	}
}

func checkConservation(plan *model.BudgetPlan) error {
	var groupSum, creativeSum float64
	for _, v := range plan.GroupAllocation {
		groupSum += v
	}
	for _, v := range plan.CreativeAllocation {
		creativeSum += v
	}
	if math.Abs(groupSum-plan.TotalBudget) > model.Epsilon {
		return eris.Wrapf(ErrInvariantViolation, "group sum %.4f != total %.4f", groupSum, plan.TotalBudget)
	}
	if math.Abs(creativeSum-plan.TotalBudget) > model.Epsilon {
		return eris.Wrapf(ErrInvariantViolation, "creative sum %.4f != total %.4f", creativeSum, plan.TotalBudget)
	}
	return nil
}
