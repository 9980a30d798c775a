// Package strategy hosts the strategy stage in-process: the budget
// allocation engine plus the campaign structure planner behind the same
// client interface a remote strategy service would satisfy.
package strategy

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/adpilot/campaign-cli/internal/allocation"
	"github.com/adpilot/campaign-cli/internal/model"
	"github.com/adpilot/campaign-cli/internal/planner"
	strategyclient "github.com/adpilot/campaign-cli/pkg/strategy"
)

// Local implements strategy.Client without a network hop.
type Local struct {
	engine  *allocation.Engine
	planner *planner.Planner
}

// NewLocal creates the in-process strategy stage.
func NewLocal(engine *allocation.Engine, pl *planner.Planner) *Local {
	return &Local{engine: engine, planner: pl}
}

// GenerateStrategy allocates the budget and renders one platform strategy per
// requested platform.
func (l *Local) GenerateStrategy(ctx context.Context, req strategyclient.GenerateStrategyRequest) (*strategyclient.GenerateStrategyResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	plan, err := l.engine.Allocate(req.Spec.TotalBudget, req.Groups, req.Creatives)
	if err != nil {
		return nil, err
	}

	abstract := model.AbstractStrategy{
		Objective:       req.Spec.Objective,
		BudgetSplit:     l.engine.VariantSplit(req.Creatives),
		BiddingStrategy: planner.BidStrategyFor(req.Spec.Objective),
		Constraints: map[string]string{
			"total_budget":  fmt.Sprintf("%.2f", req.Spec.TotalBudget),
			"duration_days": fmt.Sprintf("%d", req.Spec.DurationDays()),
		},
	}

	strategies := make([]model.PlatformStrategy, 0, len(req.Spec.Platforms))
	for _, platform := range req.Spec.Platforms {
		ps, err := l.planner.PlanStructure(plan, req.Spec, req.Groups, req.Creatives, platform)
		if err != nil {
			return nil, err
		}
		strategies = append(strategies, *ps)
	}

	zap.L().Debug("strategy generated",
		zap.Int("platforms", len(strategies)),
		zap.Float64("total_budget", plan.TotalBudget),
		zap.Int("creatives", len(plan.CreativeAllocation)),
	)

	return &strategyclient.GenerateStrategyResponse{
		Strategy: model.Strategy{
			Abstract:           abstract,
			PlatformStrategies: strategies,
			BudgetPlan:         *plan,
		},
	}, nil
}
