package publisher

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wb-go/wbf/zlog"

	"restage-service/internal/provider"
)

const imgbbEndpoint = "https://api.imgbb.com/1/upload"

// ImgBBOptions configures the imgbb.com upload client.
type ImgBBOptions struct {
	APIKey     string
	Expiry     time.Duration
	HTTPClient *http.Client
	Logger     *zlog.Zerolog
}

// ImgBB uploads base64 image payloads to imgbb.com with a short expiration
// window, so published URLs disappear on their own shortly after the restage
// operation finishes.
type ImgBB struct {
	apiKey     string
	expiry     time.Duration
	httpClient *http.Client
	logger     *zlog.Zerolog
}

func NewImgBB(opts ImgBBOptions) *ImgBB {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	expiry := opts.Expiry
	if expiry <= 0 {
		expiry = 10 * time.Minute
	}
	logger := opts.Logger
	if logger == nil {
		logger = &zlog.Logger
	}
	return &ImgBB{
		apiKey:     strings.TrimSpace(opts.APIKey),
		expiry:     expiry,
		httpClient: httpClient,
		logger:     logger,
	}
}

func (p *ImgBB) Name() string { return "imgbb" }

func (p *ImgBB) Publish(ctx context.Context, data []byte, _ string) (string, error) {
	if p.apiKey == "" {
		return "", &PublishError{Host: p.Name(), Message: "api key not configured"}
	}
	if len(data) == 0 {
		return "", &PublishError{Host: p.Name(), Message: "empty image payload"}
	}

	form := url.Values{}
	form.Set("image", base64.StdEncoding.EncodeToString(data))

	endpoint := fmt.Sprintf("%s?key=%s&expiration=%d", imgbbEndpoint, url.QueryEscape(p.apiKey), int(p.expiry.Seconds()))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", &PublishError{Host: p.Name(), Message: redactURLError(err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", &PublishError{Host: p.Name(), Message: redactURLError(err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &PublishError{Host: p.Name(), Message: "read response: " + err.Error()}
	}
	if resp.StatusCode >= 300 {
		return "", &PublishError{
			Host:    p.Name(),
			Message: fmt.Sprintf("upload rejected with status %d", resp.StatusCode),
		}
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", &PublishError{Host: p.Name(), Message: "undecodable response body"}
	}
	publicURL := provider.FirstString(decoded, "data.url", "data.display_url", "data.image.url", "url")
	if publicURL == "" {
		return "", &PublishError{Host: p.Name(), Message: "response contained no url"}
	}

	p.logger.Debug().Str("publisher", p.Name()).Dur("expiry", p.expiry).Msg("Image published")
	return publicURL, nil
}

var _ Publisher = (*ImgBB)(nil)
