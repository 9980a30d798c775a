package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/adpilot/campaign-cli/internal/allocation"
	"github.com/adpilot/campaign-cli/internal/monitoring"
	"github.com/adpilot/campaign-cli/internal/pipeline"
	"github.com/adpilot/campaign-cli/internal/planner"
	"github.com/adpilot/campaign-cli/internal/resilience"
	"github.com/adpilot/campaign-cli/internal/store"
	strategylocal "github.com/adpilot/campaign-cli/internal/strategy"
	"github.com/adpilot/campaign-cli/pkg/creative"
	"github.com/adpilot/campaign-cli/pkg/logs"
	"github.com/adpilot/campaign-cli/pkg/meta"
	"github.com/adpilot/campaign-cli/pkg/product"
	"github.com/adpilot/campaign-cli/pkg/strategy"
)

// pipelineEnv bundles the store and fully wired pipeline for a command.
type pipelineEnv struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
	Counter  *monitoring.StageCounter
}

func (e *pipelineEnv) Close() {
	_ = e.Store.Close()
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		path := cfg.Store.Path
		if path == "" {
			path = "campaign.db"
		}
		return store.NewSQLite(path)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func retryFor(maxRetries int) resilience.RetryConfig {
	rc := resilience.DefaultRetryConfig()
	if maxRetries > 0 {
		rc.MaxAttempts = maxRetries
	}
	return rc
}

// initStrategyClient returns the in-process strategy engine unless a remote
// strategy service is configured.
func initStrategyClient() strategy.Client {
	if cfg.Strategy.BaseURL == "" {
		engine := allocation.NewEngine(allocation.PolicyFromConfig(cfg.Allocation))
		pl := planner.New(cfg.Planner.SmallBudgetThreshold)
		return strategylocal.NewLocal(engine, pl)
	}
	return strategy.NewClient(
		strategy.WithBaseURL(cfg.Strategy.BaseURL),
		strategy.WithTimeout(time.Duration(cfg.Strategy.TimeoutSecs)*time.Second),
		strategy.WithRetry(retryFor(cfg.Strategy.MaxRetries)),
	)
}

func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	productClient := product.NewClient(
		product.WithBaseURL(cfg.Product.BaseURL),
		product.WithTimeout(time.Duration(cfg.Product.TimeoutSecs)*time.Second),
		product.WithRetry(retryFor(cfg.Product.MaxRetries)),
	)
	creativeClient := creative.NewClient(
		creative.WithBaseURL(cfg.Creative.BaseURL),
		creative.WithTimeout(time.Duration(cfg.Creative.TimeoutSecs)*time.Second),
		creative.WithRetry(retryFor(cfg.Creative.MaxRetries)),
	)
	metaClient := meta.NewClient(
		meta.WithBaseURL(cfg.Meta.BaseURL),
		meta.WithTimeout(time.Duration(cfg.Meta.TimeoutSecs)*time.Second),
		meta.WithRetry(retryFor(cfg.Meta.MaxRetries)),
		meta.WithRateLimit(cfg.Meta.RatePerSec, cfg.Meta.RateBurst),
	)
	logsClient := logs.NewClient(
		logs.WithBaseURL(cfg.Logs.BaseURL),
	)

	counter := monitoring.NewStageCounter()
	p := pipeline.New(cfg, st, productClient, creativeClient, initStrategyClient(), metaClient, logsClient, counter)

	return &pipelineEnv{Store: st, Pipeline: p, Counter: counter}, nil
}
