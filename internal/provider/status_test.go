package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restage-service/internal/domain"
)

func TestNormalizeState(t *testing.T) {
	tests := []struct {
		raw  string
		want domain.TaskState
	}{
		{"success", domain.TaskCompleted},
		{"successful", domain.TaskCompleted},
		{"completed", domain.TaskCompleted},
		{"SUCCESS", domain.TaskCompleted},
		{" done ", domain.TaskCompleted},
		{"fail", domain.TaskFailed},
		{"failed", domain.TaskFailed},
		{"error", domain.TaskFailed},
		{"processing", domain.TaskProcessing},
		{"queuing", domain.TaskProcessing},
		{"generating", domain.TaskProcessing},
		{"waiting", domain.TaskProcessing},
		{"", domain.TaskProcessing},
		{"some-new-state", domain.TaskProcessing},
		{"🤷", domain.TaskProcessing},
	}

	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeState(tc.raw))
		})
	}
}

func TestNormalizeStatusCompleted(t *testing.T) {
	payload := map[string]any{
		"code": float64(200),
		"data": map[string]any{
			"state":      "success",
			"resultJson": `{"resultUrls":["http://x/1.png"]}`,
		},
	}

	status, err := NormalizeStatus(payload)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskCompleted, status.State)
	assert.Equal(t, []string{"http://x/1.png"}, status.Images)
}

func TestNormalizeStatusCompletedWithoutImages(t *testing.T) {
	payload := map[string]any{
		"data": map[string]any{"state": "success"},
	}

	_, err := NormalizeStatus(payload)
	require.ErrorIs(t, err, ErrCompletedWithoutImages)
}

func TestNormalizeStatusFailed(t *testing.T) {
	payload := map[string]any{
		"data": map[string]any{
			"state":    "fail",
			"failMsg":  "content policy violation",
			"failCode": "422",
		},
	}

	status, err := NormalizeStatus(payload)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskFailed, status.State)
	assert.Contains(t, status.FailureReason, "content policy violation")
	assert.Contains(t, status.FailureReason, "422")
}

func TestNormalizeStatusFailedWithoutReason(t *testing.T) {
	status, err := NormalizeStatus(map[string]any{"status": "failed"})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskFailed, status.State)
	assert.NotEmpty(t, status.FailureReason)
}

func TestNormalizeStatusProcessing(t *testing.T) {
	status, err := NormalizeStatus(map[string]any{"state": "generating"})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskProcessing, status.State)
	assert.Empty(t, status.Images)
}
