package pipeline

import (
	"errors"

	"github.com/rotisserie/eris"

	"github.com/adpilot/campaign-cli/internal/allocation"
	"github.com/adpilot/campaign-cli/internal/model"
	"github.com/adpilot/campaign-cli/internal/stagehttp"
)

// Classify maps a stage error to the pipeline error taxonomy.
//
// Sentinel errors from the allocation engine keep their specific codes so a
// caller can tell bad input apart from a broken collaborator. An APIError
// means the collaborator answered and refused; anything else on the wire is
// treated as the stage being unreachable.
func Classify(err error) (model.ErrorCode, string) {
	switch {
	case eris.Is(err, allocation.ErrEmptyGroups):
		return model.ErrCodeEmptyGroups, err.Error()
	case eris.Is(err, allocation.ErrEmptyCreatives):
		return model.ErrCodeEmptyCreatives, err.Error()
	case eris.Is(err, allocation.ErrInvalidBudget):
		return model.ErrCodeInvalidBudget, err.Error()
	case eris.Is(err, allocation.ErrInvariantViolation):
		return model.ErrCodeInvariantViolation, err.Error()
	}

	var apiErr *stagehttp.APIError
	if errors.As(err, &apiErr) {
		if code := knownCode(apiErr.Code); code != "" {
			return code, apiErr.Message
		}
		return model.ErrCodeStageError, apiErr.Error()
	}

	return model.ErrCodeStageUnavailable, err.Error()
}

// knownCode returns the matching taxonomy code when a collaborator reports
// one of ours, empty otherwise.
func knownCode(raw string) model.ErrorCode {
	switch model.ErrorCode(raw) {
	case model.ErrCodeValidation,
		model.ErrCodeEmptyGroups,
		model.ErrCodeEmptyCreatives,
		model.ErrCodeInvalidBudget,
		model.ErrCodeInvariantViolation:
		return model.ErrorCode(raw)
	}
	return ""
}
