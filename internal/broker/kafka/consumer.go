package kafka

import (
	"context"
	"fmt"

	segkafka "github.com/segmentio/kafka-go"
	wbkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"

	"restage-service/internal/broker"
	"restage-service/internal/config"
)

type ConsumerClient struct {
	consumer *wbkafka.Consumer
}

func NewConsumerClient(cfg *config.Config) *ConsumerClient {
	return &ConsumerClient{
		consumer: wbkafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.RestageTopic, cfg.Kafka.GroupID),
	}
}

func (c *ConsumerClient) Start(ctx context.Context, out chan<- *broker.Message, strategy retry.Strategy) {
	inner := make(chan segkafka.Message)
	c.consumer.StartConsuming(ctx, inner, strategy)
	go func() {
		for msg := range inner {
			m := &broker.Message{
				Key:    msg.Key,
				Value:  msg.Value,
				Offset: msg.Offset,
				Raw:    msg,
			}
			select {
			case out <- m:
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (c *ConsumerClient) Commit(ctx context.Context, msg *broker.Message) error {
	raw, ok := msg.Raw.(segkafka.Message)
	if !ok {
		return fmt.Errorf("commit: message does not carry a kafka record")
	}
	return c.consumer.Commit(ctx, raw)
}

func (c *ConsumerClient) Close() error {
	return c.consumer.Close()
}

var _ broker.Consumer = (*ConsumerClient)(nil)
