package kafka

import "context"

// Delivery is one change-notification message as read off the topic.
type Delivery struct {
	ID   string
	Body []byte
}

// BatchFunc receives one accumulated batch of deliveries. The driver marks
// offsets only after it returns without error; redelivery is safe because
// record processing is idempotent.
type BatchFunc func(context.Context, []Delivery) error

type Adapter interface {
	Configure(Config) error
	Run(context.Context, BatchFunc) error
	Close() error
}
