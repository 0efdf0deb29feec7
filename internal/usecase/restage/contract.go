package restage

import (
	"context"

	"restage-service/internal/domain"
	"restage-service/internal/poller"
	"restage-service/internal/provider"
)

type adapterSelector interface {
	Select(mode domain.TransformationMode) (provider.Adapter, error)
}

type imagePublisher interface {
	Publish(ctx context.Context, data []byte, mimeType string) (string, error)
}

type taskPoller interface {
	Poll(ctx context.Context, taskID string, check poller.CheckFunc) ([]string, error)
}

type resultStamper interface {
	Stamp(data []byte) ([]byte, error)
}
