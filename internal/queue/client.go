package queue

import "context"

// Client publishes analysis jobs. The API enqueues through it and the workers
// consume what it sends.
type Client interface {
	Send(ctx context.Context, msg Message) error
}

var _ Client = (*SQSClient)(nil)
