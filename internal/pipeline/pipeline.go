package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/adpilot/campaign-cli/internal/config"
	"github.com/adpilot/campaign-cli/internal/model"
	"github.com/adpilot/campaign-cli/internal/monitoring"
	"github.com/adpilot/campaign-cli/internal/stagehttp"
	"github.com/adpilot/campaign-cli/internal/store"
	"github.com/adpilot/campaign-cli/pkg/creative"
	"github.com/adpilot/campaign-cli/pkg/logs"
	"github.com/adpilot/campaign-cli/pkg/meta"
	"github.com/adpilot/campaign-cli/pkg/product"
	"github.com/adpilot/campaign-cli/pkg/strategy"
)

// Pipeline orchestrates the five campaign stages in fixed order. Each run is
// a single sequential control flow; concurrent requests get independent runs
// with no shared mutable state.
type Pipeline struct {
	cfg      *config.Config
	store    store.Store
	counter  *monitoring.StageCounter
	product  product.Client
	creative creative.Client
	strategy strategy.Client
	meta     meta.Client
	logs     logs.Client
}

// New creates a Pipeline with all dependencies.
func New(
	cfg *config.Config,
	st store.Store,
	productClient product.Client,
	creativeClient creative.Client,
	strategyClient strategy.Client,
	metaClient meta.Client,
	logsClient logs.Client,
	counter *monitoring.StageCounter,
) *Pipeline {
	if counter == nil {
		counter = monitoring.NewStageCounter()
	}
	return &Pipeline{
		cfg:      cfg,
		store:    st,
		counter:  counter,
		product:  productClient,
		creative: creativeClient,
		strategy: strategyClient,
		meta:     metaClient,
		logs:     logsClient,
	}
}

// Run executes the pipeline for one campaign spec. Stage failures are
// reported in the result, not as a Go error; the returned error is non-nil
// only when the run could not be recorded or the context was canceled.
func (p *Pipeline) Run(ctx context.Context, spec model.CampaignSpec) (*model.PipelineResult, error) {
	log := zap.L().With(
		zap.String("campaign", spec.Name),
		zap.String("objective", string(spec.Objective)),
		zap.Float64("budget", spec.TotalBudget),
	)

	// Validation happens before any stage call; invalid input never reaches
	// a collaborator.
	if err := spec.Validate(); err != nil {
		log.Warn("pipeline: invalid campaign spec", zap.Error(err))
		return &model.PipelineResult{
			Status: model.PipelineError,
			Error:  &model.StageError{Code: model.ErrCodeValidation, Message: err.Error()},
		}, nil
	}

	run, err := p.store.CreateRun(ctx, spec)
	if err != nil {
		return nil, err
	}
	result := &model.PipelineResult{RunID: run.ID, Status: model.PipelineSuccess}
	log = log.With(zap.String("run_id", run.ID))
	log.Info("pipeline: starting campaign run")

	setStatus := func(status model.RunStatus) {
		if statusErr := p.store.UpdateRunStatus(ctx, run.ID, status); statusErr != nil {
			log.Warn("pipeline: failed to update status", zap.Error(statusErr))
		}
	}

	// ===== Stage 1: product selection =====
	setStatus(model.RunStatusProducts)
	products, stageErr := runStage(ctx, p, log, result, model.StageProducts, func(ctx context.Context) (*product.SelectProductsResponse, error) {
		return p.product.SelectProducts(ctx, product.SelectProductsRequest{Spec: spec, Limit: 10})
	})
	if stageErr != nil {
		return p.finish(ctx, log, run.ID, result, stageErr)
	}
	result.SelectedProducts = products.Products
	result.ProductGroups = products.Groups

	// ===== Stage 2: creative generation =====
	setStatus(model.RunStatusCreatives)
	creatives, stageErr := runStage(ctx, p, log, result, model.StageCreatives, func(ctx context.Context) (*creative.GenerateCreativesResponse, error) {
		return p.creative.GenerateCreatives(ctx, creative.GenerateCreativesRequest{
			Spec:     spec,
			Products: products.Products,
			AB: creative.ABConfig{
				VariantsPerProduct: 2,
				MaxCreatives:       20,
			},
		})
	})
	if stageErr != nil {
		return p.finish(ctx, log, run.ID, result, stageErr)
	}
	result.Creatives = creatives.Creatives

	// ===== Stage 3: strategy (budget allocation + structure planning) =====
	setStatus(model.RunStatusStrategy)
	strat, stageErr := runStage(ctx, p, log, result, model.StageStrategy, func(ctx context.Context) (*strategy.GenerateStrategyResponse, error) {
		resp, err := p.strategy.GenerateStrategy(ctx, strategy.GenerateStrategyRequest{
			Spec:      spec,
			Groups:    products.Groups,
			Creatives: creatives.Creatives,
		})
		if err != nil {
			return nil, err
		}
		// A strategy with no platform renderings cannot be published.
		if len(resp.Strategy.PlatformStrategies) == 0 {
			return nil, &stagehttp.APIError{Service: "strategy", Message: "response contains no platform strategies"}
		}
		return resp, nil
	})
	if stageErr != nil {
		return p.finish(ctx, log, run.ID, result, stageErr)
	}
	result.Strategy = &strat.Strategy

	// ===== Stage 4: publish =====
	// A publish failure is terminal for deployment but the informational
	// aggregate still carries everything the earlier stages produced.
	setStatus(model.RunStatusPublishing)
	receipt, stageErr := runStage(ctx, p, log, result, model.StagePublish, func(ctx context.Context) (*meta.CreateCampaignResponse, error) {
		return p.meta.CreateCampaign(ctx, buildPublishRequest(spec, &strat.Strategy, creatives.Creatives))
	})
	if stageErr != nil {
		return p.finish(ctx, log, run.ID, result, stageErr)
	}
	result.Publish = &model.PublishReceipt{
		CampaignID: receipt.CampaignID,
		AdSetIDs:   receipt.AdSetIDs,
		AdIDs:      adIDs(receipt.Ads),
		Status:     receipt.Status,
	}
	result.CampaignID = receipt.CampaignID

	return p.finish(ctx, log, run.ID, result, nil)
}

// runStage invokes one stage, records its outcome, and converts its error to
// a tagged StageError. A canceled context aborts without classification.
func runStage[T any](ctx context.Context, p *Pipeline, log *zap.Logger, result *model.PipelineResult, stage model.Stage, fn func(ctx context.Context) (*T, error)) (*T, *model.StageError) {
	if err := ctx.Err(); err != nil {
		return nil, &model.StageError{Code: model.ErrCodeStageUnavailable, Message: "run canceled: " + err.Error()}
	}

	start := time.Now()
	payload, err := fn(ctx)
	duration := time.Since(start).Milliseconds()

	sr := model.StageResult{Stage: stage, Status: model.StageStatusComplete, Duration: duration}
	var stageErr *model.StageError
	if err != nil {
		code, msg := Classify(err)
		stageErr = &model.StageError{Code: code, Message: msg}
		sr.Status = model.StageStatusFailed
		sr.Error = stageErr
		log.Error("pipeline: stage failed",
			zap.String("stage", string(stage)),
			zap.String("code", string(code)),
			zap.Int64("duration_ms", duration),
			zap.Error(err),
		)
	} else {
		log.Info("pipeline: stage complete",
			zap.String("stage", string(stage)),
			zap.Int64("duration_ms", duration),
		)
	}

	p.counter.Record(stage, err == nil, duration, errMessage(stageErr))
	if saveErr := p.store.SaveStageResult(ctx, result.RunID, sr); saveErr != nil {
		log.Warn("pipeline: failed to save stage result", zap.Error(saveErr))
	}
	result.Stages = append(result.Stages, sr)
	return payload, stageErr
}

// finish applies the terminal status, makes the best-effort log call, and
// persists the aggregate. The log stage never changes the final status.
func (p *Pipeline) finish(ctx context.Context, log *zap.Logger, runID string, result *model.PipelineResult, stageErr *model.StageError) (*model.PipelineResult, error) {
	if stageErr != nil {
		result.Status = model.PipelineError
		result.Error = stageErr
	}

	// A canceled caller gets no log call and no further writes.
	if ctx.Err() != nil {
		result.Status = model.PipelineError
		if result.Error == nil {
			result.Error = &model.StageError{Code: model.ErrCodeStageUnavailable, Message: ctx.Err().Error()}
		}
		return result, ctx.Err()
	}

	p.logEvent(ctx, log, result)

	if err := p.store.UpdateRunResult(ctx, runID, result); err != nil {
		log.Warn("pipeline: failed to save run result", zap.Error(err))
	}

	if result.Status == model.PipelineSuccess {
		log.Info("pipeline: campaign run complete", zap.String("campaign_id", result.CampaignID))
	} else {
		log.Warn("pipeline: campaign run failed",
			zap.String("code", string(result.Error.Code)),
			zap.String("message", result.Error.Message),
		)
	}
	return result, nil
}

func (p *Pipeline) logEvent(ctx context.Context, log *zap.Logger, result *model.PipelineResult) {
	start := time.Now()
	meta := map[string]string{
		"run_id": result.RunID,
		"status": string(result.Status),
	}
	if result.CampaignID != "" {
		meta["campaign_id"] = result.CampaignID
	}
	if result.Error != nil {
		meta["error_code"] = string(result.Error.Code)
	}

	_, err := p.logs.AppendEvent(ctx, logs.AppendEventRequest{
		Timestamp: time.Now().UTC(),
		Stage:     "pipeline",
		Service:   "orchestrator",
		Success:   result.Status == model.PipelineSuccess,
		Metadata:  meta,
	})

	duration := time.Since(start).Milliseconds()
	sr := model.StageResult{Stage: model.StageLog, Status: model.StageStatusComplete, Duration: duration}
	if err != nil {
		sr.Status = model.StageStatusFailed
		sr.Error = &model.StageError{Code: model.ErrCodeStageUnavailable, Message: err.Error()}
		log.Warn("pipeline: log stage failed", zap.Error(err))
	}
	p.counter.Record(model.StageLog, err == nil, duration, errMessage(sr.Error))
	result.Stages = append(result.Stages, sr)
}

// buildPublishRequest renders the publish payload from the strategy of the
// spec's primary platform.
func buildPublishRequest(spec model.CampaignSpec, strat *model.Strategy, creatives []model.Creative) meta.CreateCampaignRequest {
	primary := strat.PlatformStrategies[0]
	for _, ps := range strat.PlatformStrategies {
		if ps.Platform == spec.Platforms[0] {
			primary = ps
			break
		}
	}

	adsets := make([]meta.AdSetSpec, 0, len(primary.CampaignStructure.AdSets))
	for _, as := range primary.CampaignStructure.AdSets {
		adsets = append(adsets, meta.AdSetSpec{
			Name:        as.Name,
			DailyBudget: as.DailyBudget,
			Targeting:   primary.Targeting,
			CreativeIDs: as.CreativeIDs,
		})
	}

	start := time.Now().UTC()
	var end string
	if spec.TimeRange != nil {
		start = spec.TimeRange.Start
		end = spec.TimeRange.End.Format("2006-01-02")
	}

	return meta.CreateCampaignRequest{
		CampaignName: spec.Name,
		Objective:    spec.Objective,
		DailyBudget:  spec.TotalBudget / float64(spec.DurationDays()),
		BidStrategy:  primary.BidStrategy,
		AdSets:       adsets,
		Creatives:    creatives,
		StartDate:    start.Format("2006-01-02"),
		EndDate:      end,
	}
}

func adIDs(ads []meta.AdResult) []string {
	ids := make([]string, 0, len(ads))
	for _, a := range ads {
		ids = append(ids, a.AdID)
	}
	return ids
}

func errMessage(e *model.StageError) string {
	if e == nil {
		return ""
	}
	return e.Message
}
