package broker

import (
	"context"

	"github.com/wb-go/wbf/retry"
)

// Message is one consumed record. Raw keeps the underlying client message so
// the implementation can commit it.
type Message struct {
	Key    []byte
	Value  []byte
	Offset int64
	Raw    any
}

// Producer dispatches restage tasks to the worker topic and finished results
// to the results topic.
type Producer interface {
	SendTask(ctx context.Context, strategy retry.Strategy, key, value []byte) error
	SendResult(ctx context.Context, strategy retry.Strategy, key, value []byte) error
	Close() error
}

// Consumer streams restage tasks to the worker.
type Consumer interface {
	Start(ctx context.Context, out chan<- *Message, strategy retry.Strategy)
	Commit(ctx context.Context, msg *Message) error
	Close() error
}
