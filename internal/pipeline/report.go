package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/adpilot/campaign-cli/internal/model"
)

var moneyPrinter = message.NewPrinter(language.English)

func money(v float64) string {
	return moneyPrinter.Sprintf("%.2f", v)
}

// FormatSummary generates a human-readable summary of one pipeline run.
func FormatSummary(spec model.CampaignSpec, result *model.PipelineResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Campaign Run: %s\n", spec.Name)
	fmt.Fprintf(&b, "Run ID: %s\n", result.RunID)
	fmt.Fprintf(&b, "Status: %s\n", result.Status)
	if result.CampaignID != "" {
		fmt.Fprintf(&b, "Campaign ID: %s\n", result.CampaignID)
	}
	if result.Error != nil {
		fmt.Fprintf(&b, "Error: [%s] %s\n", result.Error.Code, result.Error.Message)
	}
	b.WriteString("\n")

	b.WriteString("## Stages\n")
	for _, s := range result.Stages {
		fmt.Fprintf(&b, "- %s: %s (%dms)\n", s.Stage, s.Status, s.Duration)
		if s.Error != nil {
			fmt.Fprintf(&b, "  Error: [%s] %s\n", s.Error.Code, s.Error.Message)
		}
	}
	b.WriteString("\n")

	b.WriteString("## Selection\n")
	fmt.Fprintf(&b, "- Products: %d in %d groups\n", len(result.SelectedProducts), len(result.ProductGroups))
	fmt.Fprintf(&b, "- Creatives: %d\n\n", len(result.Creatives))

	if result.Strategy != nil {
		writeBudgetSection(&b, spec, result.Strategy)
	}

	if result.Publish != nil {
		b.WriteString("## Publish\n")
		fmt.Fprintf(&b, "- Ad sets created: %d\n", len(result.Publish.AdSetIDs))
		fmt.Fprintf(&b, "- Ads created: %d\n", len(result.Publish.AdIDs))
		fmt.Fprintf(&b, "- Platform status: %s\n", result.Publish.Status)
	}

	return b.String()
}

func writeBudgetSection(b *strings.Builder, spec model.CampaignSpec, strat *model.Strategy) {
	fmt.Fprintf(b, "## Budget (total %s over %d days)\n", money(spec.TotalBudget), spec.DurationDays())

	tiers := make([]model.PriorityTier, 0, len(strat.BudgetPlan.GroupAllocation))
	for tier := range strat.BudgetPlan.GroupAllocation {
		tiers = append(tiers, tier)
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].Rank() < tiers[j].Rank() })
	for _, tier := range tiers {
		fmt.Fprintf(b, "- %s: %s\n", tier, money(strat.BudgetPlan.GroupAllocation[tier]))
	}
	b.WriteString("\n")

	b.WriteString("## Structure\n")
	for _, ps := range strat.PlatformStrategies {
		fmt.Fprintf(b, "- %s (%s, %s):\n", ps.Platform, ps.CampaignStructure.Policy, ps.BidStrategy)
		for _, as := range ps.CampaignStructure.AdSets {
			fmt.Fprintf(b, "  - %s: %s total, %s/day, %d creatives\n",
				as.Name, money(as.Budget), money(as.DailyBudget), len(as.CreativeIDs))
		}
	}
	b.WriteString("\n")
}
