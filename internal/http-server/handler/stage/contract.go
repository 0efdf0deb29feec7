package stage

import (
	"context"

	"github.com/wb-go/wbf/retry"

	"restage-service/internal/domain"
	restage_uc "restage-service/internal/usecase/restage"
)

type restageUsecase interface {
	Restage(ctx context.Context, req *domain.RestageRequest) (*domain.Restaged, error)
	RestageBatch(ctx context.Context, reqs []*domain.RestageRequest) []restage_uc.ItemResult
}

type imagePublisher interface {
	Publish(ctx context.Context, data []byte, mimeType string) (string, error)
}

type taskProducer interface {
	SendTask(ctx context.Context, strategy retry.Strategy, key, value []byte) error
}
