package kie

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/zlog"

	"restage-service/internal/domain"
	"restage-service/internal/provider"
)

func TestMain(m *testing.M) {
	zlog.Init()
	os.Exit(m.Run())
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func newTestClient(t *testing.T, rt roundTripFunc) *Client {
	t.Helper()
	c, err := NewClient(Options{
		APIKey:     "test-key",
		HTTPClient: &http.Client{Transport: rt},
	})
	require.NoError(t, err)
	return c
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(Options{})
	require.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = NewClient(Options{APIKey: "   "})
	require.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestSubmitCreatesTask(t *testing.T) {
	var captured *http.Request
	var capturedBody createTaskRequest

	client := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		captured = r
		require.NoError(t, json.NewDecoder(r.Body).Decode(&capturedBody))
		return jsonResponse(200, `{"code":200,"data":{"taskId":"task-42"}}`), nil
	})

	sub, err := client.Submit(context.Background(), provider.SubmitInput{
		Prompt:   "stage it",
		ImageURL: "http://host/room.jpg",
	})
	require.NoError(t, err)
	assert.Equal(t, "task-42", sub.TaskID)
	assert.Empty(t, sub.Images)

	assert.Equal(t, "Bearer test-key", captured.Header.Get("Authorization"))
	assert.Contains(t, captured.URL.Path, "/api/v1/jobs/createTask")
	assert.Equal(t, "google/nano-banana-edit", capturedBody.Model)
	assert.Equal(t, []string{"http://host/room.jpg"}, capturedBody.Input.ImageURLs)
	assert.Equal(t, "stage it", capturedBody.Input.Prompt)
}

func TestSubmitTaskIDAliases(t *testing.T) {
	bodies := []string{
		`{"data":{"task_id":"t1"}}`,
		`{"data":{"id":"t1"}}`,
		`{"taskId":"t1"}`,
		`{"id":"t1"}`,
	}

	for _, body := range bodies {
		client := newTestClient(t, func(*http.Request) (*http.Response, error) {
			return jsonResponse(200, body), nil
		})
		sub, err := client.Submit(context.Background(), provider.SubmitInput{
			Prompt:   "p",
			ImageURL: "http://host/a.jpg",
		})
		require.NoError(t, err, body)
		assert.Equal(t, "t1", sub.TaskID, body)
	}
}

func TestSubmitRequiresPublicURL(t *testing.T) {
	client := newTestClient(t, func(*http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	})

	_, err := client.Submit(context.Background(), provider.SubmitInput{Prompt: "p", Data: []byte("img")})
	var provErr *provider.ProviderError
	require.ErrorAs(t, err, &provErr)
}

func TestSubmitEnvelopeError(t *testing.T) {
	client := newTestClient(t, func(*http.Request) (*http.Response, error) {
		return jsonResponse(200, `{"code":402,"msg":"insufficient credits"}`), nil
	})

	_, err := client.Submit(context.Background(), provider.SubmitInput{
		Prompt:   "p",
		ImageURL: "http://host/a.jpg",
	})

	var provErr *provider.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, 402, provErr.HTTPStatus)
	assert.Contains(t, provErr.Message, "insufficient credits")
}

func TestSubmitHTTPError(t *testing.T) {
	client := newTestClient(t, func(*http.Request) (*http.Response, error) {
		return jsonResponse(429, `{"message":"rate limit exceeded"}`), nil
	})

	_, err := client.Submit(context.Background(), provider.SubmitInput{
		Prompt:   "p",
		ImageURL: "http://host/a.jpg",
	})

	var provErr *provider.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, 429, provErr.HTTPStatus)
	assert.Contains(t, provErr.Message, "rate limit exceeded")
}

func TestSubmitMissingTaskID(t *testing.T) {
	client := newTestClient(t, func(*http.Request) (*http.Response, error) {
		return jsonResponse(200, `{"code":200,"data":{}}`), nil
	})

	_, err := client.Submit(context.Background(), provider.SubmitInput{
		Prompt:   "p",
		ImageURL: "http://host/a.jpg",
	})

	var provErr *provider.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Contains(t, provErr.Message, "no task identifier")
}

func TestCheckStatusCompleted(t *testing.T) {
	client := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		assert.Contains(t, r.URL.Path, "/api/v1/jobs/recordInfo")
		assert.Equal(t, "task-42", r.URL.Query().Get("taskId"))
		return jsonResponse(200, `{"code":200,"data":{"state":"success","resultJson":"{\"resultUrls\":[\"http://x/1.png\"]}"}}`), nil
	})

	status, err := client.CheckStatus(context.Background(), "task-42")
	require.NoError(t, err)
	assert.Equal(t, domain.TaskCompleted, status.State)
	assert.Equal(t, []string{"http://x/1.png"}, status.Images)
}

func TestCheckStatusProcessing(t *testing.T) {
	client := newTestClient(t, func(*http.Request) (*http.Response, error) {
		return jsonResponse(200, `{"code":200,"data":{"state":"generating"}}`), nil
	})

	status, err := client.CheckStatus(context.Background(), "task-42")
	require.NoError(t, err)
	assert.Equal(t, domain.TaskProcessing, status.State)
}

func TestCheckStatusFailed(t *testing.T) {
	client := newTestClient(t, func(*http.Request) (*http.Response, error) {
		return jsonResponse(200, `{"code":200,"data":{"state":"fail","failMsg":"flagged content"}}`), nil
	})

	status, err := client.CheckStatus(context.Background(), "task-42")
	require.NoError(t, err)
	assert.Equal(t, domain.TaskFailed, status.State)
	assert.Contains(t, status.FailureReason, "flagged content")
}
