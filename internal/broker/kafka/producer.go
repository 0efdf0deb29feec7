package kafka

import (
	"context"
	"errors"

	wbkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"

	"restage-service/internal/config"
)

type ProducerClient struct {
	tasks   *wbkafka.Producer
	results *wbkafka.Producer
}

func NewProducerClient(cfg *config.Config) *ProducerClient {
	return &ProducerClient{
		tasks:   wbkafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.RestageTopic),
		results: wbkafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.ResultsTopic),
	}
}

func (p *ProducerClient) SendTask(ctx context.Context, strategy retry.Strategy, key, value []byte) error {
	return p.tasks.SendWithRetry(ctx, strategy, key, value)
}

func (p *ProducerClient) SendResult(ctx context.Context, strategy retry.Strategy, key, value []byte) error {
	return p.results.SendWithRetry(ctx, strategy, key, value)
}

func (p *ProducerClient) Close() error {
	var errs []error
	if p.tasks != nil {
		if err := p.tasks.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if p.results != nil {
		if err := p.results.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
