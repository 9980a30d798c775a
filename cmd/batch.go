package main

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/adpilot/campaign-cli/internal/model"
)

var (
	batchFile  string
	batchLimit int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Create campaigns from a YAML spec file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		specs, err := loadBatchFile(batchFile)
		if err != nil {
			return err
		}

		return processBatch(ctx, specs, batchLimit, cfg.Batch.MaxConcurrentCampaigns, func(ctx context.Context, spec model.CampaignSpec) (*model.PipelineResult, error) {
			return env.Pipeline.Run(ctx, spec)
		})
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchFile, "file", "", "YAML file of campaign specs (required)")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max number of campaigns to create (0 = all)")
	_ = batchCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(batchCmd)
}

// batchEntry is one campaign in the batch file.
type batchEntry struct {
	Name      string   `yaml:"name"`
	Objective string   `yaml:"objective"`
	Budget    float64  `yaml:"budget"`
	Platforms []string `yaml:"platforms"`
	Category  string   `yaml:"category"`
	Audience  string   `yaml:"audience"`
	Start     string   `yaml:"start"`
	End       string   `yaml:"end"`
}

func loadBatchFile(path string) ([]model.CampaignSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "batch: read %s", path)
	}

	var file struct {
		Campaigns []batchEntry `yaml:"campaigns"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, eris.Wrapf(err, "batch: parse %s", path)
	}

	specs := make([]model.CampaignSpec, 0, len(file.Campaigns))
	for _, e := range file.Campaigns {
		spec, err := entryToSpec(e)
		if err != nil {
			return nil, eris.Wrapf(err, "batch: campaign %q", e.Name)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func entryToSpec(e batchEntry) (model.CampaignSpec, error) {
	platforms := make([]model.Platform, 0, len(e.Platforms))
	for _, p := range e.Platforms {
		platforms = append(platforms, model.Platform(p))
	}
	if len(platforms) == 0 {
		platforms = []model.Platform{model.PlatformMeta}
	}

	spec := model.CampaignSpec{
		Name:           e.Name,
		Objective:      model.Objective(e.Objective),
		Platforms:      platforms,
		TotalBudget:    e.Budget,
		TargetCategory: e.Category,
		TargetAudience: e.Audience,
	}

	if e.Start != "" && e.End != "" {
		start, err := time.Parse("2006-01-02", e.Start)
		if err != nil {
			return spec, eris.Wrap(err, "parse start date")
		}
		end, err := time.Parse("2006-01-02", e.End)
		if err != nil {
			return spec, eris.Wrap(err, "parse end date")
		}
		spec.TimeRange = &model.TimeRange{Start: start, End: end}
	}

	return spec, nil
}

// runFunc is the callback signature for creating one campaign.
type runFunc func(ctx context.Context, spec model.CampaignSpec) (*model.PipelineResult, error)

// processBatch applies limit, then creates campaigns concurrently. Individual
// failures are logged and counted without aborting the batch.
func processBatch(ctx context.Context, specs []model.CampaignSpec, limit, concurrency int, run runFunc) error {
	if len(specs) == 0 {
		zap.L().Info("no campaigns in batch file")
		return nil
	}

	if limit > 0 && len(specs) > limit {
		specs = specs[:limit]
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	zap.L().Info("processing batch",
		zap.Int("campaigns", len(specs)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var succeeded, failed atomic.Int64

	for _, spec := range specs {
		spec := spec
		g.Go(func() error {
			log := zap.L().With(zap.String("campaign", spec.Name))

			result, err := run(gctx, spec)
			if err != nil {
				failed.Add(1)
				log.Error("campaign run aborted", zap.Error(err))
				return nil
			}
			if result.Status == model.PipelineError {
				failed.Add(1)
				log.Error("campaign run failed",
					zap.String("code", string(result.Error.Code)),
					zap.String("message", result.Error.Message),
				)
				return nil
			}

			succeeded.Add(1)
			log.Info("campaign created",
				zap.String("run_id", result.RunID),
				zap.String("campaign_id", result.CampaignID),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "batch processing")
	}

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return nil
}
