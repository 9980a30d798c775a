package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adpilot/campaign-cli/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func testSpec() model.CampaignSpec {
	return model.CampaignSpec{
		Name:        "spring-sale",
		Objective:   model.ObjectiveConversions,
		Platforms:   []model.Platform{model.PlatformMeta},
		TotalBudget: 500,
	}
}

func TestSQLite_CreateAndGetRun(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, testSpec())
	require.NoError(t, err)
	require.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusQueued, run.Status)

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, "spring-sale", got.Spec.Name)
	assert.Equal(t, 500.0, got.Spec.TotalBudget)
	assert.Nil(t, got.Result)
}

func TestSQLite_GetRunNotFound(t *testing.T) {
	st := newTestStore(t)

	_, err := st.GetRun(context.Background(), "no-such-run")
	assert.Error(t, err)
}

func TestSQLite_UpdateRunStatus(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, testSpec())
	require.NoError(t, err)

	require.NoError(t, st.UpdateRunStatus(ctx, run.ID, model.RunStatusPublishing))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusPublishing, got.Status)

	assert.Error(t, st.UpdateRunStatus(ctx, "missing", model.RunStatusFailed))
}

func TestSQLite_UpdateRunResult(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, testSpec())
	require.NoError(t, err)

	result := &model.PipelineResult{
		RunID:      run.ID,
		Status:     model.PipelineSuccess,
		CampaignID: "camp-1",
		Stages: []model.StageResult{
			{Stage: model.StageProducts, Status: model.StageStatusComplete, Duration: 50},
		},
	}
	require.NoError(t, st.UpdateRunResult(ctx, run.ID, result))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, got.Status)
	require.NotNil(t, got.Result)
	assert.Equal(t, "camp-1", got.Result.CampaignID)
	require.Len(t, got.Result.Stages, 1)

	// A failed result flips the run status.
	failed := &model.PipelineResult{
		RunID:  run.ID,
		Status: model.PipelineError,
		Error:  &model.StageError{Code: model.ErrCodeStageUnavailable, Message: "down"},
	}
	require.NoError(t, st.UpdateRunResult(ctx, run.ID, failed))

	got, err = st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, got.Status)
	assert.Equal(t, model.ErrCodeStageUnavailable, got.Result.Error.Code)
}

func TestSQLite_ListRunsFilterAndLimit(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	var failedID string
	for i := 0; i < 3; i++ {
		run, err := st.CreateRun(ctx, testSpec())
		require.NoError(t, err)
		if i == 0 {
			failedID = run.ID
			require.NoError(t, st.UpdateRunStatus(ctx, run.ID, model.RunStatusFailed))
		}
	}

	all, err := st.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	failed, err := st.ListRuns(ctx, RunFilter{Status: model.RunStatusFailed})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, failedID, failed[0].ID)

	limited, err := st.ListRuns(ctx, RunFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestSQLite_SaveStageResult(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, testSpec())
	require.NoError(t, err)

	require.NoError(t, st.SaveStageResult(ctx, run.ID, model.StageResult{
		Stage:    model.StageProducts,
		Status:   model.StageStatusComplete,
		Duration: 120,
	}))
	require.NoError(t, st.SaveStageResult(ctx, run.ID, model.StageResult{
		Stage:    model.StageCreatives,
		Status:   model.StageStatusFailed,
		Duration: 30000,
		Error:    &model.StageError{Code: model.ErrCodeStageUnavailable, Message: "timeout"},
	}))

	var count int
	row := st.db.QueryRow(`SELECT COUNT(*) FROM stage_results WHERE run_id = ?`, run.ID)
	require.NoError(t, row.Scan(&count))
	assert.Equal(t, 2, count)
}
