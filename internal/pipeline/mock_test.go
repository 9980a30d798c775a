package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/adpilot/campaign-cli/internal/model"
	"github.com/adpilot/campaign-cli/internal/store"
	"github.com/adpilot/campaign-cli/pkg/creative"
	"github.com/adpilot/campaign-cli/pkg/logs"
	"github.com/adpilot/campaign-cli/pkg/meta"
	"github.com/adpilot/campaign-cli/pkg/product"
	"github.com/adpilot/campaign-cli/pkg/strategy"
)

// --- Product Mock ---

type mockProductClient struct {
	mock.Mock
}

func (m *mockProductClient) SelectProducts(ctx context.Context, req product.SelectProductsRequest) (*product.SelectProductsResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*product.SelectProductsResponse), args.Error(1)
}

// --- Creative Mock ---

type mockCreativeClient struct {
	mock.Mock
}

func (m *mockCreativeClient) GenerateCreatives(ctx context.Context, req creative.GenerateCreativesRequest) (*creative.GenerateCreativesResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*creative.GenerateCreativesResponse), args.Error(1)
}

// --- Strategy Mock ---

type mockStrategyClient struct {
	mock.Mock
}

func (m *mockStrategyClient) GenerateStrategy(ctx context.Context, req strategy.GenerateStrategyRequest) (*strategy.GenerateStrategyResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*strategy.GenerateStrategyResponse), args.Error(1)
}

// --- Meta Mock ---

type mockMetaClient struct {
	mock.Mock
}

func (m *mockMetaClient) CreateCampaign(ctx context.Context, req meta.CreateCampaignRequest) (*meta.CreateCampaignResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*meta.CreateCampaignResponse), args.Error(1)
}

// --- Logs Mock ---

type mockLogsClient struct {
	mock.Mock
}

func (m *mockLogsClient) AppendEvent(ctx context.Context, req logs.AppendEventRequest) (*logs.AppendEventResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*logs.AppendEventResponse), args.Error(1)
}

// --- Store Mock ---

type mockStore struct {
	mock.Mock
}

func (m *mockStore) CreateRun(ctx context.Context, spec model.CampaignSpec) (*model.Run, error) {
	args := m.Called(ctx, spec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Run), args.Error(1)
}

func (m *mockStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	args := m.Called(ctx, runID, status)
	return args.Error(0)
}

func (m *mockStore) UpdateRunResult(ctx context.Context, runID string, result *model.PipelineResult) error {
	args := m.Called(ctx, runID, result)
	return args.Error(0)
}

func (m *mockStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Run), args.Error(1)
}

func (m *mockStore) ListRuns(ctx context.Context, filter store.RunFilter) ([]model.Run, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Run), args.Error(1)
}

func (m *mockStore) SaveStageResult(ctx context.Context, runID string, result model.StageResult) error {
	args := m.Called(ctx, runID, result)
	return args.Error(0)
}

func (m *mockStore) Migrate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
