package publisher

import (
	"context"

	"github.com/wb-go/wbf/zlog"
)

// Publisher turns raw image bytes into a public, fetchable URL. Some providers
// refuse inline data and only accept a dereferenceable URL. Published URLs are
// short-lived: callers must use them within the current restage operation and
// never cache or resend them.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, data []byte, mimeType string) (string, error)
}

type disabled struct{}

func (disabled) Name() string { return "disabled" }

func (disabled) Publish(context.Context, []byte, string) (string, error) {
	return "", &PublishError{Host: "disabled", Message: "no image publisher configured"}
}

// Disabled returns a publisher that always fails with a configuration-shaped
// PublishError.
func Disabled() Publisher {
	return disabled{}
}

// Chain tries each publisher in order and returns the first success. The last
// failure wins when every publisher is down.
type Chain struct {
	publishers []Publisher
	logger     *zlog.Zerolog
}

func NewChain(logger *zlog.Zerolog, publishers ...Publisher) *Chain {
	if logger == nil {
		logger = &zlog.Logger
	}
	return &Chain{publishers: publishers, logger: logger}
}

func (c *Chain) Name() string { return "chain" }

func (c *Chain) Publish(ctx context.Context, data []byte, mimeType string) (string, error) {
	if len(c.publishers) == 0 {
		return Disabled().Publish(ctx, data, mimeType)
	}
	var lastErr error
	for _, p := range c.publishers {
		url, err := p.Publish(ctx, data, mimeType)
		if err == nil {
			return url, nil
		}
		lastErr = err
		c.logger.Warn().Err(err).Str("publisher", p.Name()).Msg("Publisher failed, trying next")
	}
	return "", lastErr
}

var _ Publisher = (*Chain)(nil)
