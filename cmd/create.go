package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adpilot/campaign-cli/internal/model"
	"github.com/adpilot/campaign-cli/internal/pipeline"
)

var (
	createName      string
	createObjective string
	createBudget    float64
	createPlatforms []string
	createCategory  string
	createAudience  string
	createStart     string
	createEnd       string
	createSummary   bool
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create and publish a single campaign",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		spec, err := buildSpec()
		if err != nil {
			return err
		}

		result, err := env.Pipeline.Run(ctx, spec)
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		if createSummary {
			fmt.Println(pipeline.FormatSummary(spec, result))
		} else {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return err
			}
		}

		if result.Status == model.PipelineError {
			cmd.SilenceUsage = true
			return eris.Errorf("campaign run failed: [%s] %s", result.Error.Code, result.Error.Message)
		}

		zap.L().Info("campaign created",
			zap.String("run_id", result.RunID),
			zap.String("campaign_id", result.CampaignID),
		)
		return nil
	},
}

func buildSpec() (model.CampaignSpec, error) {
	platforms := make([]model.Platform, 0, len(createPlatforms))
	for _, p := range createPlatforms {
		platforms = append(platforms, model.Platform(p))
	}

	spec := model.CampaignSpec{
		Name:           createName,
		Objective:      model.Objective(createObjective),
		Platforms:      platforms,
		TotalBudget:    createBudget,
		TargetCategory: createCategory,
		TargetAudience: createAudience,
	}

	if createStart != "" || createEnd != "" {
		if createStart == "" || createEnd == "" {
			return spec, eris.New("both --start and --end are required for a time range")
		}
		start, err := time.Parse("2006-01-02", createStart)
		if err != nil {
			return spec, eris.Wrap(err, "parse --start")
		}
		end, err := time.Parse("2006-01-02", createEnd)
		if err != nil {
			return spec, eris.Wrap(err, "parse --end")
		}
		spec.TimeRange = &model.TimeRange{Start: start, End: end}
	}

	return spec, nil
}

func init() {
	createCmd.Flags().StringVar(&createName, "name", "", "campaign name (required)")
	createCmd.Flags().StringVar(&createObjective, "objective", "conversions", "campaign objective (conversions, traffic, awareness, sales)")
	createCmd.Flags().Float64Var(&createBudget, "budget", 0, "total campaign budget (required)")
	createCmd.Flags().StringSliceVar(&createPlatforms, "platforms", []string{"meta"}, "target platforms")
	createCmd.Flags().StringVar(&createCategory, "category", "", "product category to target")
	createCmd.Flags().StringVar(&createAudience, "audience", "", "audience description")
	createCmd.Flags().StringVar(&createStart, "start", "", "campaign start date (YYYY-MM-DD)")
	createCmd.Flags().StringVar(&createEnd, "end", "", "campaign end date (YYYY-MM-DD)")
	createCmd.Flags().BoolVar(&createSummary, "summary", false, "print a human-readable summary instead of JSON")
	_ = createCmd.MarkFlagRequired("name")
	_ = createCmd.MarkFlagRequired("budget")
	rootCmd.AddCommand(createCmd)
}
