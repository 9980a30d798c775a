package model

import "time"

// RunStatus tracks a pipeline run through its stages.
type RunStatus string

const (
	RunStatusQueued     RunStatus = "queued"
	RunStatusProducts   RunStatus = "products"
	RunStatusCreatives  RunStatus = "creatives"
	RunStatusStrategy   RunStatus = "strategy"
	RunStatusPublishing RunStatus = "publishing"
	RunStatusComplete   RunStatus = "complete"
	RunStatusFailed     RunStatus = "failed"
)

// Stage names one step of the pipeline.
type Stage string

const (
	StageProducts  Stage = "products"
	StageCreatives Stage = "creatives"
	StageStrategy  Stage = "strategy"
	StagePublish   Stage = "publish"
	StageLog       Stage = "log"
)

// ErrorCode classifies pipeline and stage failures.
type ErrorCode string

const (
	// ErrCodeValidation marks malformed input caught before any stage call.
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"
	// ErrCodeEmptyGroups, ErrCodeEmptyCreatives and ErrCodeInvalidBudget are
	// allocation engine precondition failures.
	ErrCodeEmptyGroups    ErrorCode = "EMPTY_GROUPS"
	ErrCodeEmptyCreatives ErrorCode = "EMPTY_CREATIVES"
	ErrCodeInvalidBudget  ErrorCode = "INVALID_BUDGET"
	// ErrCodeStageUnavailable marks network or timeout failures reaching a
	// collaborator; ErrCodeStageError marks an explicit failure it returned.
	ErrCodeStageUnavailable ErrorCode = "STAGE_UNAVAILABLE"
	ErrCodeStageError       ErrorCode = "STAGE_ERROR"
	// ErrCodeInvariantViolation marks a conservation-check failure. Always a
	// programming defect, never retryable.
	ErrCodeInvariantViolation ErrorCode = "INTERNAL_INVARIANT_VIOLATION"
)

// StageStatus is the outcome of one stage within a run.
type StageStatus string

const (
	StageStatusComplete StageStatus = "complete"
	StageStatusFailed   StageStatus = "failed"
	StageStatusSkipped  StageStatus = "skipped"
)

// StageError is the tagged error half of a stage result.
type StageError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// StageResult records one stage call's outcome for diagnostics and persistence.
type StageResult struct {
	Stage    Stage       `json:"stage"`
	Status   StageStatus `json:"status"`
	Duration int64       `json:"duration_ms"`
	Error    *StageError `json:"error,omitempty"`
}

// PublishReceipt is the platform's acknowledgement of a deployed campaign.
type PublishReceipt struct {
	CampaignID string   `json:"campaign_id"`
	AdSetIDs   []string `json:"ad_set_ids"`
	AdIDs      []string `json:"ad_ids"`
	Status     string   `json:"status"`
}

// PipelineStatus is the terminal status of a run.
type PipelineStatus string

const (
	PipelineSuccess PipelineStatus = "success"
	PipelineError   PipelineStatus = "error"
)

// PipelineResult is the aggregate returned to the caller. On error it still
// carries every payload produced by stages that succeeded before the failure.
type PipelineResult struct {
	RunID            string          `json:"run_id"`
	Status           PipelineStatus  `json:"status"`
	CampaignID       string          `json:"campaign_id,omitempty"`
	SelectedProducts []Product       `json:"selected_products,omitempty"`
	ProductGroups    []ProductGroup  `json:"product_groups,omitempty"`
	Creatives        []Creative      `json:"creatives,omitempty"`
	Strategy         *Strategy       `json:"strategy,omitempty"`
	Publish          *PublishReceipt `json:"publish,omitempty"`
	Stages           []StageResult   `json:"stages"`
	Error            *StageError     `json:"error,omitempty"`
}

// Run is a persisted pipeline execution.
type Run struct {
	ID        string          `json:"id"`
	Spec      CampaignSpec    `json:"spec"`
	Status    RunStatus       `json:"status"`
	Result    *PipelineResult `json:"result,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
