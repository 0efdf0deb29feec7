package provider

import (
	"strings"
	"sync"

	"github.com/wb-go/wbf/zlog"

	"restage-service/internal/domain"
)

var stateTable = map[string]domain.TaskState{
	"success":    domain.TaskCompleted,
	"successful": domain.TaskCompleted,
	"succeed":    domain.TaskCompleted,
	"completed":  domain.TaskCompleted,
	"complete":   domain.TaskCompleted,
	"done":       domain.TaskCompleted,
	"fail":       domain.TaskFailed,
	"failed":     domain.TaskFailed,
	"error":      domain.TaskFailed,
	"processing": domain.TaskProcessing,
	"queuing":    domain.TaskProcessing,
	"queued":     domain.TaskProcessing,
	"waiting":    domain.TaskProcessing,
	"pending":    domain.TaskProcessing,
	"generating": domain.TaskProcessing,
	"running":    domain.TaskProcessing,
}

var (
	statePaths = []string{"data.state", "data.status", "state", "status"}

	imagePaths = []string{
		"resultUrls",
		"data.resultUrls",
		"data.resultJson.resultUrls",
		"resultJson.resultUrls",
		"data.response.resultUrls",
		"response.resultUrls",
		"data.images",
		"images",
		"data.imageUrls",
		"imageUrls",
		"urls",
	}

	failurePaths = []string{
		"data.failMsg", "failMsg",
		"data.failReason", "failReason",
		"data.errorMessage", "errorMessage",
		"data.error", "error",
		"msg", "message",
	}

	failureCodePaths = []string{"data.failCode", "failCode", "code"}
)

// seen tracks unrecognized raw state strings so each one is logged only once;
// control flow is unchanged (unknown states still map to processing).
var seenUnknownStates sync.Map

// NormalizeState maps a provider's raw status vocabulary onto the internal
// three-state model. Unrecognized values pass through as processing, never as
// an error: providers add intermediate state names without notice, and the
// poller's own attempt budget bounds how long that can go on.
func NormalizeState(raw string) domain.TaskState {
	key := strings.ToLower(strings.TrimSpace(raw))
	if state, ok := stateTable[key]; ok {
		return state
	}
	if key != "" {
		if _, logged := seenUnknownStates.LoadOrStore(key, struct{}{}); !logged {
			zlog.Logger.Warn().Str("raw_state", key).Msg("Unrecognized provider state, treating as processing")
		}
	}
	return domain.TaskProcessing
}

// NormalizeStatus reduces a raw status payload to the internal status model.
// A completed task whose payload yields no image list is reported as
// ErrCompletedWithoutImages rather than as a failure: it means the provider
// changed its schema, not that the restage itself went wrong.
func NormalizeStatus(payload map[string]any) (*domain.TaskStatus, error) {
	state := NormalizeState(FirstString(payload, statePaths...))

	switch state {
	case domain.TaskCompleted:
		images := FirstStringList(payload, imagePaths...)
		if len(images) == 0 {
			return nil, ErrCompletedWithoutImages
		}
		return &domain.TaskStatus{State: domain.TaskCompleted, Images: images}, nil
	case domain.TaskFailed:
		reason := FirstString(payload, failurePaths...)
		if reason == "" {
			reason = "provider reported failure without details"
		}
		if code := FirstString(payload, failureCodePaths...); code != "" {
			reason += " (code " + code + ")"
		}
		return &domain.TaskStatus{State: domain.TaskFailed, FailureReason: reason}, nil
	default:
		return &domain.TaskStatus{State: domain.TaskProcessing}, nil
	}
}
