package handler

import (
	"strings"

	"canon/internal/patch"
	dErrors "canon/pkg/domain-errors"
)

// maxBatchSize bounds one submission. Agents proposing more than this in a
// single turn are misbehaving.
const maxBatchSize = 64

// maxMessageBytes bounds a raw user message.
const maxMessageBytes = 8 << 10

// SubmitPatchesRequest is the HTTP request body for
// POST /sessions/{sessionID}/patches.
type SubmitPatchesRequest struct {
	Patches []patch.Record `json:"patches"`
}

// Validate implements httputil.Validatable. Structural checks only; field
// level validation happens per record inside the service so one bad record
// cannot veto the batch.
func (r *SubmitPatchesRequest) Validate() error {
	if r == nil || len(r.Patches) == 0 {
		return dErrors.New(dErrors.CodeValidation, "patches must not be empty")
	}
	if len(r.Patches) > maxBatchSize {
		return dErrors.Newf(dErrors.CodeValidation, "batch exceeds %d records", maxBatchSize)
	}
	for i := range r.Patches {
		if strings.TrimSpace(r.Patches[i].Operation) == "" {
			return dErrors.Newf(dErrors.CodeValidation, "patches[%d].operation is required", i)
		}
	}
	return nil
}

// SubmitMessageRequest is the HTTP request body for
// POST /sessions/{sessionID}/messages.
type SubmitMessageRequest struct {
	Message string `json:"message"`
}

func (r *SubmitMessageRequest) Validate() error {
	if r == nil || strings.TrimSpace(r.Message) == "" {
		return dErrors.New(dErrors.CodeValidation, "message is required")
	}
	if len(r.Message) > maxMessageBytes {
		return dErrors.New(dErrors.CodeValidation, "message is too long")
	}
	return nil
}
