package provider

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wb-go/wbf/zlog"
)

func TestMain(m *testing.M) {
	zlog.Init()
	os.Exit(m.Run())
}

func TestFirstString(t *testing.T) {
	payload := map[string]any{
		"task_id": "fallback",
		"data": map[string]any{
			"taskId": "abc-123",
		},
	}

	assert.Equal(t, "abc-123", FirstString(payload, "data.taskId", "data.task_id", "task_id"))
	assert.Equal(t, "fallback", FirstString(payload, "data.task_id", "task_id"))
	assert.Equal(t, "", FirstString(payload, "data.missing", "nothing"))
}

func TestFirstStringSkipsBlank(t *testing.T) {
	payload := map[string]any{
		"id":     "  ",
		"taskId": "real",
	}

	assert.Equal(t, "real", FirstString(payload, "id", "taskId"))
}

func TestFirstStringNestedJSONString(t *testing.T) {
	payload := map[string]any{
		"data": map[string]any{
			"resultJson": `{"info":{"state":"success"}}`,
		},
	}

	assert.Equal(t, "success", FirstString(payload, "data.resultJson.info.state"))
}

func TestFirstStringList(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]any
		paths   []string
		want    []string
	}{
		{
			name:    "plain list",
			payload: map[string]any{"resultUrls": []any{"http://x/1.png", "http://x/2.png"}},
			paths:   []string{"resultUrls"},
			want:    []string{"http://x/1.png", "http://x/2.png"},
		},
		{
			name: "json string envelope",
			payload: map[string]any{
				"data": map[string]any{"resultJson": `{"resultUrls":["http://x/1.png"]}`},
			},
			paths: []string{"data.resultUrls", "data.resultJson.resultUrls"},
			want:  []string{"http://x/1.png"},
		},
		{
			name:    "terminal json array string",
			payload: map[string]any{"urls": `["http://x/1.png"]`},
			paths:   []string{"urls"},
			want:    []string{"http://x/1.png"},
		},
		{
			name:    "blank entries dropped",
			payload: map[string]any{"images": []any{"", "http://x/1.png", "  "}},
			paths:   []string{"images"},
			want:    []string{"http://x/1.png"},
		},
		{
			name:    "no match",
			payload: map[string]any{"other": 1},
			paths:   []string{"resultUrls", "images"},
			want:    nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FirstStringList(tc.payload, tc.paths...))
		})
	}
}
