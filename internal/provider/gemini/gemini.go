package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"restage-service/internal/domain"
	"restage-service/internal/provider"
)

// ErrMissingAPIKey indicates the client was constructed without credentials.
var ErrMissingAPIKey = errors.New("gemini: api key is required")

const defaultModel = "gemini-2.5-flash-image"

// Options configures the Gemini image-edit client.
type Options struct {
	APIKey         string
	Model          string
	BaseURL        string
	HTTPClient     *http.Client
	Logger         *zlog.Zerolog
	Retries        retry.Strategy
	RequestTimeout time.Duration
}

// Client is the synchronous adapter: the edited image comes back in the same
// generateContent response that carried the prompt and the inline source image.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	logger     *zlog.Zerolog
	retries    retry.Strategy
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generationConfig struct {
	Temperature        float64  `json:"temperature"`
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []responsePart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// The API answers with camelCase inlineData; some proxied deployments emit
// snake_case. Both spellings are accepted.
type responsePart struct {
	Text            string      `json:"text"`
	InlineData      *inlineData `json:"inlineData"`
	InlineDataSnake *inlineData `json:"inline_data"`
}

func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 120 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	model := strings.TrimSpace(strings.TrimPrefix(opts.Model, "models/"))
	if model == "" {
		model = defaultModel
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
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
		model:      model,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
		retries:    retries,
	}, nil
}

func (c *Client) Name() string { return "gemini" }

func (c *Client) RequiresPublicURL() bool { return false }

// Submit sends the prompt and the inline source image in one call and returns
// the edited image as a data URI.
func (c *Client) Submit(ctx context.Context, in provider.SubmitInput) (*provider.Submission, error) {
	if len(in.Data) == 0 {
		return nil, &provider.ProviderError{Message: "gemini: inline image bytes are required"}
	}
	mime := strings.TrimSpace(in.MimeType)
	if mime == "" {
		mime = "image/jpeg"
	}
	payload := generateRequest{
		Contents: []content{{
			Role: "user",
			Parts: []part{
				{Text: in.Prompt},
				{InlineData: &inlineData{
					MimeType: mime,
					Data:     base64.StdEncoding.EncodeToString(in.Data),
				}},
			},
		}},
		GenerationConfig: generationConfig{
			Temperature:        0.2,
			ResponseModalities: []string{"IMAGE"},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("gemini: encode request: %w", err)
	}

	// The key goes in a header, never the URL: transport errors reproduce the
	// full request URL and would leak a query-string credential into logs.
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	var resp *http.Response
	err = retry.Do(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", c.apiKey)
		r, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		resp = r
		return nil
	}, c.retries)
	if err != nil {
		return nil, &provider.ProviderError{Message: fmt.Sprintf("gemini: request failed: %v", err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &provider.ProviderError{Message: fmt.Sprintf("gemini: read response: %v", err)}
	}

	if resp.StatusCode >= 300 {
		var failure struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.Unmarshal(raw, &failure)
		msg := failure.Error.Message
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		return nil, &provider.ProviderError{HTTPStatus: resp.StatusCode, Message: "gemini: " + msg}
	}

	var decoded generateResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, &provider.ProviderError{HTTPStatus: resp.StatusCode, Message: "gemini: undecodable response body"}
	}

	images := collectImages(decoded)
	if len(images) == 0 {
		return nil, &provider.ProviderError{HTTPStatus: resp.StatusCode, Message: "gemini: response contained no image data"}
	}
	c.logger.Debug().
		Str("request_id", in.RequestID).
		Str("model", c.model).
		Int("images", len(images)).
		Msg("gemini: image edit completed")
	return &provider.Submission{Images: images}, nil
}

// CheckStatus never applies: Gemini completes within the submit call.
func (c *Client) CheckStatus(_ context.Context, _ string) (*domain.TaskStatus, error) {
	return nil, provider.ErrNotAsync
}

func collectImages(resp generateResponse) []string {
	var images []string
	for _, cand := range resp.Candidates {
		for _, p := range cand.Content.Parts {
			data := p.InlineData
			if data == nil {
				data = p.InlineDataSnake
			}
			if data == nil || strings.TrimSpace(data.Data) == "" {
				continue
			}
			mime := data.MimeType
			if mime == "" {
				mime = "image/png"
			}
			images = append(images, fmt.Sprintf("data:%s;base64,%s", mime, data.Data))
		}
	}
	return images
}

var _ provider.Adapter = (*Client)(nil)
