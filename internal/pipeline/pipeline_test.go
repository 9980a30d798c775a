package pipeline

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/adpilot/campaign-cli/internal/allocation"
	"github.com/adpilot/campaign-cli/internal/config"
	"github.com/adpilot/campaign-cli/internal/model"
	"github.com/adpilot/campaign-cli/internal/stagehttp"
	"github.com/adpilot/campaign-cli/pkg/creative"
	"github.com/adpilot/campaign-cli/pkg/logs"
	"github.com/adpilot/campaign-cli/pkg/meta"
	"github.com/adpilot/campaign-cli/pkg/product"
	"github.com/adpilot/campaign-cli/pkg/strategy"
)

type testEnv struct {
	store    *mockStore
	product  *mockProductClient
	creative *mockCreativeClient
	strategy *mockStrategyClient
	meta     *mockMetaClient
	logs     *mockLogsClient
	pipeline *Pipeline
}

func newTestEnv() *testEnv {
	e := &testEnv{
		store:    &mockStore{},
		product:  &mockProductClient{},
		creative: &mockCreativeClient{},
		strategy: &mockStrategyClient{},
		meta:     &mockMetaClient{},
		logs:     &mockLogsClient{},
	}
	e.pipeline = New(&config.Config{}, e.store, e.product, e.creative, e.strategy, e.meta, e.logs, nil)
	return e
}

func validSpec() model.CampaignSpec {
	return model.CampaignSpec{
		Name:        "summer-sale",
		Objective:   model.ObjectiveConversions,
		Platforms:   []model.Platform{model.PlatformMeta},
		TotalBudget: 1000,
	}
}

func productResponse() *product.SelectProductsResponse {
	return &product.SelectProductsResponse{
		Products: []model.Product{{ID: "p1", Name: "Widget"}},
		Groups: []model.ProductGroup{
			{Tier: model.TierHigh, Products: []model.Product{{ID: "p1", Name: "Widget"}}},
		},
	}
}

func creativeResponse() *creative.GenerateCreativesResponse {
	return &creative.GenerateCreativesResponse{
		Creatives: []model.Creative{
			{ID: "c1", ProductID: "p1", VariantLabel: "A"},
			{ID: "c2", ProductID: "p1", VariantLabel: "B"},
		},
	}
}

func strategyResponse() *strategy.GenerateStrategyResponse {
	return &strategy.GenerateStrategyResponse{
		Strategy: model.Strategy{
			Abstract: model.AbstractStrategy{
				Objective:       model.ObjectiveConversions,
				BiddingStrategy: model.BidCostCap,
			},
			PlatformStrategies: []model.PlatformStrategy{
				{
					Platform: model.PlatformMeta,
					CampaignStructure: model.CampaignStructure{
						Policy: model.StructureMultiAdSet,
						AdSets: []model.AdSet{
							{Name: "adset-high", Tier: model.TierHigh, Budget: 1000, DailyBudget: 33.33, CreativeIDs: []string{"c1", "c2"}},
						},
					},
					BidStrategy: model.BidCostCap,
				},
			},
			BudgetPlan: model.BudgetPlan{TotalBudget: 1000},
		},
	}
}

func (e *testEnv) expectRunBookkeeping() {
	e.store.On("CreateRun", mock.Anything, mock.AnythingOfType("model.CampaignSpec")).
		Return(&model.Run{ID: "run-001", Status: model.RunStatusQueued}, nil)
	e.store.On("UpdateRunStatus", mock.Anything, "run-001", mock.AnythingOfType("model.RunStatus")).Return(nil)
	e.store.On("SaveStageResult", mock.Anything, "run-001", mock.AnythingOfType("model.StageResult")).Return(nil)
	e.store.On("UpdateRunResult", mock.Anything, "run-001", mock.AnythingOfType("*model.PipelineResult")).Return(nil)
}

func (e *testEnv) expectLogEvent() {
	e.logs.On("AppendEvent", mock.Anything, mock.AnythingOfType("logs.AppendEventRequest")).
		Return(&logs.AppendEventResponse{EventID: "ev-1"}, nil)
}

func stageByName(t *testing.T, result *model.PipelineResult, stage model.Stage) model.StageResult {
	t.Helper()
	for _, s := range result.Stages {
		if s.Stage == stage {
			return s
		}
	}
	t.Fatalf("stage %s not found in result", stage)
	return model.StageResult{}
}

func TestRun_HappyPath(t *testing.T) {
	e := newTestEnv()
	e.expectRunBookkeeping()
	e.expectLogEvent()

	e.product.On("SelectProducts", mock.Anything, mock.AnythingOfType("product.SelectProductsRequest")).
		Return(productResponse(), nil)
	e.creative.On("GenerateCreatives", mock.Anything, mock.AnythingOfType("creative.GenerateCreativesRequest")).
		Return(creativeResponse(), nil)
	e.strategy.On("GenerateStrategy", mock.Anything, mock.AnythingOfType("strategy.GenerateStrategyRequest")).
		Return(strategyResponse(), nil)
	e.meta.On("CreateCampaign", mock.Anything, mock.AnythingOfType("meta.CreateCampaignRequest")).
		Return(&meta.CreateCampaignResponse{
			CampaignID: "camp-42",
			AdSetIDs:   []string{"as-1"},
			Ads:        []meta.AdResult{{AdID: "ad-1", CreativeID: "c1", Status: "active"}},
			Status:     "active",
		}, nil)

	result, err := e.pipeline.Run(context.Background(), validSpec())
	require.NoError(t, err)

	assert.Equal(t, model.PipelineSuccess, result.Status)
	assert.Equal(t, "camp-42", result.CampaignID)
	assert.Nil(t, result.Error)
	require.NotNil(t, result.Publish)
	assert.Equal(t, []string{"ad-1"}, result.Publish.AdIDs)

	// All five stages ran and completed.
	require.Len(t, result.Stages, 5)
	for _, stage := range []model.Stage{model.StageProducts, model.StageCreatives, model.StageStrategy, model.StagePublish, model.StageLog} {
		assert.Equal(t, model.StageStatusComplete, stageByName(t, result, stage).Status)
	}

	e.store.AssertExpectations(t)
	e.logs.AssertExpectations(t)
}

func TestRun_ValidationFailsBeforeAnyStage(t *testing.T) {
	e := newTestEnv()

	spec := validSpec()
	spec.TotalBudget = -5

	result, err := e.pipeline.Run(context.Background(), spec)
	require.NoError(t, err)

	assert.Equal(t, model.PipelineError, result.Status)
	require.NotNil(t, result.Error)
	assert.Equal(t, model.ErrCodeValidation, result.Error.Code)
	assert.Empty(t, result.Stages)

	// No collaborator and no store call happened.
	e.product.AssertNotCalled(t, "SelectProducts", mock.Anything, mock.Anything)
	e.store.AssertNotCalled(t, "CreateRun", mock.Anything, mock.Anything)
}

func TestRun_ProductFailureExitsEarlyButLogs(t *testing.T) {
	e := newTestEnv()
	e.expectRunBookkeeping()
	e.expectLogEvent()

	e.product.On("SelectProducts", mock.Anything, mock.Anything).
		Return(nil, &stagehttp.APIError{Service: "product", Code: "SELECTION_FAILED", Message: "no products match", HTTPStatus: 422})

	result, err := e.pipeline.Run(context.Background(), validSpec())
	require.NoError(t, err)

	assert.Equal(t, model.PipelineError, result.Status)
	assert.Equal(t, model.ErrCodeStageError, result.Error.Code)
	assert.Empty(t, result.CampaignID)

	// products failed, log still ran; nothing in between.
	require.Len(t, result.Stages, 2)
	assert.Equal(t, model.StageStatusFailed, stageByName(t, result, model.StageProducts).Status)
	assert.Equal(t, model.StageStatusComplete, stageByName(t, result, model.StageLog).Status)

	e.creative.AssertNotCalled(t, "GenerateCreatives", mock.Anything, mock.Anything)
	e.strategy.AssertNotCalled(t, "GenerateStrategy", mock.Anything, mock.Anything)
	e.meta.AssertNotCalled(t, "CreateCampaign", mock.Anything, mock.Anything)
	e.logs.AssertExpectations(t)
}

func TestRun_PublishFailurePreservesPriorPayloads(t *testing.T) {
	e := newTestEnv()
	e.expectRunBookkeeping()
	e.expectLogEvent()

	e.product.On("SelectProducts", mock.Anything, mock.Anything).Return(productResponse(), nil)
	e.creative.On("GenerateCreatives", mock.Anything, mock.Anything).Return(creativeResponse(), nil)
	e.strategy.On("GenerateStrategy", mock.Anything, mock.Anything).Return(strategyResponse(), nil)
	e.meta.On("CreateCampaign", mock.Anything, mock.Anything).
		Return(nil, eris.New("connection refused"))

	result, err := e.pipeline.Run(context.Background(), validSpec())
	require.NoError(t, err)

	assert.Equal(t, model.PipelineError, result.Status)
	assert.Equal(t, model.ErrCodeStageUnavailable, result.Error.Code)

	// No campaign was deployed, but everything produced so far is kept.
	assert.Empty(t, result.CampaignID)
	assert.Nil(t, result.Publish)
	assert.NotEmpty(t, result.SelectedProducts)
	assert.NotEmpty(t, result.Creatives)
	assert.NotNil(t, result.Strategy)

	assert.Equal(t, model.StageStatusFailed, stageByName(t, result, model.StagePublish).Status)
	assert.Equal(t, model.StageStatusComplete, stageByName(t, result, model.StageLog).Status)
}

func TestRun_LogFailureDoesNotChangeStatus(t *testing.T) {
	e := newTestEnv()
	e.expectRunBookkeeping()

	e.product.On("SelectProducts", mock.Anything, mock.Anything).Return(productResponse(), nil)
	e.creative.On("GenerateCreatives", mock.Anything, mock.Anything).Return(creativeResponse(), nil)
	e.strategy.On("GenerateStrategy", mock.Anything, mock.Anything).Return(strategyResponse(), nil)
	e.meta.On("CreateCampaign", mock.Anything, mock.Anything).
		Return(&meta.CreateCampaignResponse{CampaignID: "camp-7", Status: "active"}, nil)
	e.logs.On("AppendEvent", mock.Anything, mock.Anything).
		Return(nil, eris.New("logs service down"))

	result, err := e.pipeline.Run(context.Background(), validSpec())
	require.NoError(t, err)

	assert.Equal(t, model.PipelineSuccess, result.Status)
	assert.Equal(t, "camp-7", result.CampaignID)
	assert.Equal(t, model.StageStatusFailed, stageByName(t, result, model.StageLog).Status)
}

func TestRun_CancellationSkipsRemainingStages(t *testing.T) {
	e := newTestEnv()
	e.store.On("CreateRun", mock.Anything, mock.Anything).
		Return(&model.Run{ID: "run-001", Status: model.RunStatusQueued}, nil)
	e.store.On("UpdateRunStatus", mock.Anything, "run-001", mock.Anything).Return(nil)
	e.store.On("SaveStageResult", mock.Anything, "run-001", mock.Anything).Return(nil)

	ctx, cancel := context.WithCancel(context.Background())

	e.product.On("SelectProducts", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { cancel() }).
		Return(productResponse(), nil)

	result, err := e.pipeline.Run(ctx, validSpec())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, model.PipelineError, result.Status)

	// Nothing after the in-flight stage ran, including the log stage.
	e.creative.AssertNotCalled(t, "GenerateCreatives", mock.Anything, mock.Anything)
	e.logs.AssertNotCalled(t, "AppendEvent", mock.Anything, mock.Anything)
}

func TestRun_StrategyWithoutPlatformStrategiesFailsStage(t *testing.T) {
	e := newTestEnv()
	e.expectRunBookkeeping()
	e.expectLogEvent()

	e.product.On("SelectProducts", mock.Anything, mock.Anything).Return(productResponse(), nil)
	e.creative.On("GenerateCreatives", mock.Anything, mock.Anything).Return(creativeResponse(), nil)
	e.strategy.On("GenerateStrategy", mock.Anything, mock.Anything).
		Return(&strategy.GenerateStrategyResponse{Strategy: model.Strategy{}}, nil)

	var result *model.PipelineResult
	var err error
	require.NotPanics(t, func() {
		result, err = e.pipeline.Run(context.Background(), validSpec())
	})
	require.NoError(t, err)

	assert.Equal(t, model.PipelineError, result.Status)
	require.NotNil(t, result.Error)
	assert.Equal(t, model.ErrCodeStageError, result.Error.Code)
	assert.Nil(t, result.Strategy)

	assert.Equal(t, model.StageStatusFailed, stageByName(t, result, model.StageStrategy).Status)
	assert.Equal(t, model.StageStatusComplete, stageByName(t, result, model.StageLog).Status)
	e.meta.AssertNotCalled(t, "CreateCampaign", mock.Anything, mock.Anything)
}

func TestRun_StrategyEmptyGroupsClassified(t *testing.T) {
	e := newTestEnv()
	e.expectRunBookkeeping()
	e.expectLogEvent()

	e.product.On("SelectProducts", mock.Anything, mock.Anything).
		Return(&product.SelectProductsResponse{Products: []model.Product{{ID: "p1"}}}, nil)
	e.creative.On("GenerateCreatives", mock.Anything, mock.Anything).Return(creativeResponse(), nil)
	e.strategy.On("GenerateStrategy", mock.Anything, mock.Anything).
		Return(nil, eris.Wrap(allocation.ErrEmptyGroups, "strategy"))

	result, err := e.pipeline.Run(context.Background(), validSpec())
	require.NoError(t, err)

	assert.Equal(t, model.PipelineError, result.Status)
	assert.Equal(t, model.ErrCodeEmptyGroups, result.Error.Code)
}
