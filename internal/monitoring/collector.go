package monitoring

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"

	"github.com/adpilot/campaign-cli/internal/model"
	"github.com/adpilot/campaign-cli/internal/store"
)

// StageStats aggregates outcomes for one pipeline stage.
type StageStats struct {
	Success   int64  `json:"success"`
	Failure   int64  `json:"failure"`
	AvgMillis int64  `json:"avg_ms"`
	LastError string `json:"last_error,omitempty"`

	totalMillis int64
}

// StageCounter records per-stage outcomes in memory. Safe for concurrent use
// by pipelines running in parallel requests.
type StageCounter struct {
	mu     sync.Mutex
	stages map[model.Stage]*StageStats
}

// NewStageCounter creates an empty counter.
func NewStageCounter() *StageCounter {
	return &StageCounter{stages: make(map[model.Stage]*StageStats)}
}

// Record adds one stage outcome.
func (c *StageCounter) Record(stage model.Stage, success bool, millis int64, errMsg string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.stages[stage]
	if !ok {
		st = &StageStats{}
		c.stages[stage] = st
	}
	if success {
		st.Success++
	} else {
		st.Failure++
		st.LastError = errMsg
	}
	st.totalMillis += millis
	if n := st.Success + st.Failure; n > 0 {
		st.AvgMillis = st.totalMillis / n
	}
}

// Snapshot returns a copy of the per-stage stats.
func (c *StageCounter) Snapshot() map[model.Stage]StageStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[model.Stage]StageStats, len(c.stages))
	for stage, st := range c.stages {
		out[stage] = *st
	}
	return out
}

// MetricsSnapshot holds a point-in-time view of pipeline health.
type MetricsSnapshot struct {
	RunsTotal    int                        `json:"runs_total"`
	RunsComplete int                        `json:"runs_complete"`
	RunsFailed   int                        `json:"runs_failed"`
	RunsQueued   int                        `json:"runs_queued"`
	FailRate     float64                    `json:"fail_rate"`
	Stages       map[model.Stage]StageStats `json:"stages"`
	CollectedAt  time.Time                  `json:"collected_at"`
}

// Collector gathers metrics from the store and the in-memory stage counter.
type Collector struct {
	store   store.Store
	counter *StageCounter
}

// NewCollector creates a metrics collector.
func NewCollector(st store.Store, counter *StageCounter) *Collector {
	return &Collector{store: st, counter: counter}
}

// Collect gathers a snapshot of pipeline metrics.
func (c *Collector) Collect(ctx context.Context) (*MetricsSnapshot, error) {
	snap := &MetricsSnapshot{
		Stages:      c.counter.Snapshot(),
		CollectedAt: time.Now().UTC(),
	}

	runs, err := c.store.ListRuns(ctx, store.RunFilter{Limit: 10000})
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list runs")
	}

	snap.RunsTotal = len(runs)
	for _, r := range runs {
		switch r.Status {
		case model.RunStatusComplete:
			snap.RunsComplete++
		case model.RunStatusFailed:
			snap.RunsFailed++
		case model.RunStatusQueued:
			snap.RunsQueued++
		}
	}
	if snap.RunsTotal > 0 {
		snap.FailRate = float64(snap.RunsFailed) / float64(snap.RunsTotal)
	}
	return snap, nil
}
