package kie

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"restage-service/internal/domain"
	"restage-service/internal/provider"
)

// ErrMissingAPIKey indicates the client was constructed without credentials.
var ErrMissingAPIKey = errors.New("kie: api key is required")

const (
	createTaskPath = "/api/v1/jobs/createTask"
	recordInfoPath = "/api/v1/jobs/recordInfo"
)

// Options configures the Kie.ai jobs client.
type Options struct {
	APIKey         string
	BaseURL        string
	Model          string
	HTTPClient     *http.Client
	Logger         *zlog.Zerolog
	Retries        retry.Strategy
	RequestTimeout time.Duration
}

// Client talks to the Kie.ai asynchronous jobs API: createTask returns an
// opaque task id, recordInfo reports progress for it. The input image must be
// a publicly fetchable URL; Kie rejects inline data.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *zlog.Zerolog
	retries    retry.Strategy
}

type createTaskRequest struct {
	Model string          `json:"model"`
	Input createTaskInput `json:"input"`
}

type createTaskInput struct {
	Prompt          string   `json:"prompt"`
	ImageURLs       []string `json:"image_urls"`
	OutputFormat    string   `json:"output_format"`
	ImageSize       string   `json:"image_size"`
	UpdateFlooring  bool     `json:"update_flooring,omitempty"`
	BlockDecorative bool     `json:"block_decorative,omitempty"`
}

func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.kie.ai"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "google/nano-banana-edit"
	}
	logger := opts.Logger
	if logger == nil {
		logger = &zlog.Logger
	}
	retries := opts.Retries
	if retries.Attempts <= 0 {
		retries = retry.Strategy{Attempts: 1}
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		model:      model,
		httpClient: httpClient,
		logger:     logger,
		retries:    retries,
	}, nil
}

func (c *Client) Name() string { return "kie" }

func (c *Client) RequiresPublicURL() bool { return true }

// Submit creates a remote task and returns its identifier. The provider is
// loose about where the id lives in the response, so several known aliases
// are tried before the response is declared malformed.
func (c *Client) Submit(ctx context.Context, in provider.SubmitInput) (*provider.Submission, error) {
	imageURL := strings.TrimSpace(in.ImageURL)
	if imageURL == "" {
		return nil, &provider.ProviderError{Message: "kie: a public image url is required"}
	}
	payload := createTaskRequest{
		Model: c.model,
		Input: createTaskInput{
			Prompt:          in.Prompt,
			ImageURLs:       []string{imageURL},
			OutputFormat:    "png",
			ImageSize:       "auto",
			UpdateFlooring:  in.UpdateFlooring,
			BlockDecorative: in.BlockDecorative,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("kie: encode request: %w", err)
	}

	decoded, err := c.doJSON(ctx, http.MethodPost, c.baseURL+createTaskPath, body)
	if err != nil {
		return nil, err
	}

	taskID := provider.FirstString(decoded,
		"data.taskId", "data.task_id", "data.id", "taskId", "task_id", "id")
	if taskID == "" {
		return nil, &provider.ProviderError{Message: "kie: no task identifier in response"}
	}
	c.logger.Debug().
		Str("task_id", taskID).
		Str("request_id", in.RequestID).
		Str("model", c.model).
		Msg("kie: task created")
	return &provider.Submission{TaskID: taskID}, nil
}

// CheckStatus fetches the task record and normalizes it. Safe to call
// repeatedly with the same id.
func (c *Client) CheckStatus(ctx context.Context, taskID string) (*domain.TaskStatus, error) {
	if strings.TrimSpace(taskID) == "" {
		return nil, &provider.ProviderError{Message: "kie: task id is required"}
	}
	endpoint := c.baseURL + recordInfoPath + "?taskId=" + url.QueryEscape(taskID)
	decoded, err := c.doJSON(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	return provider.NormalizeStatus(decoded)
}

// doJSON performs one HTTP round trip, retrying transport failures with the
// configured strategy. Non-2xx responses and undecodable bodies become
// ProviderError without retry: a provider that answered is assumed to mean it.
func (c *Client) doJSON(ctx context.Context, method, endpoint string, body []byte) (map[string]any, error) {
	var resp *http.Response
	err := retry.Do(func() error {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		r, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		resp = r
		return nil
	}, c.retries)
	if err != nil {
		return nil, &provider.ProviderError{Message: fmt.Sprintf("kie: request failed: %v", err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &provider.ProviderError{Message: fmt.Sprintf("kie: read response: %v", err)}
	}

	var decoded map[string]any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil && resp.StatusCode < 300 {
			return nil, &provider.ProviderError{
				HTTPStatus: resp.StatusCode,
				Message:    "kie: undecodable response body",
			}
		}
	}

	if resp.StatusCode >= 300 {
		msg := provider.FirstString(decoded, "msg", "message", "error", "data.msg")
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		return nil, &provider.ProviderError{HTTPStatus: resp.StatusCode, Message: "kie: " + msg}
	}

	// Some Kie endpoints wrap errors in a 200 with a non-200 envelope code.
	if code, ok := decoded["code"].(float64); ok && int(code) != 200 {
		msg := provider.FirstString(decoded, "msg", "message", "error")
		return nil, &provider.ProviderError{HTTPStatus: int(code), Message: "kie: " + msg}
	}

	return decoded, nil
}

var _ provider.Adapter = (*Client)(nil)
