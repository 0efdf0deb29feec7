package provider

import (
	"context"

	"restage-service/internal/domain"
)

// SubmitInput is the normalized job description handed to any adapter. Inline
// adapters read Data/MimeType; adapters that require a public URL read ImageURL.
type SubmitInput struct {
	Prompt          string
	Data            []byte
	MimeType        string
	ImageURL        string
	UpdateFlooring  bool
	BlockDecorative bool
	RequestID       string
}

// Submission is the outcome of a submit call. Synchronous providers fill
// Images directly; asynchronous providers return a TaskID to poll.
type Submission struct {
	TaskID string
	Images []string
}

// Adapter isolates provider-specific request/response shapes from the
// orchestrator. Implementations hold no per-call state: every call is a fresh
// network round trip and CheckStatus is idempotent for a given task id.
type Adapter interface {
	Name() string
	RequiresPublicURL() bool
	Submit(ctx context.Context, in SubmitInput) (*Submission, error)
	CheckStatus(ctx context.Context, taskID string) (*domain.TaskStatus, error)
}
