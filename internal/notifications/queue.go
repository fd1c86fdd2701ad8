package notifications

import (
	"context"
	"encoding/json"
	"fmt"
)

// Publisher enqueues a raw message body.
type Publisher interface {
	Publish(ctx context.Context, body []byte) error
}

// QueueSender hands messages to a broker; a worker delivers them later.
type QueueSender struct {
	publisher Publisher
}

func NewQueueSender(publisher Publisher) *QueueSender {
	return &QueueSender{publisher: publisher}
}

func (s *QueueSender) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	if err := s.publisher.Publish(ctx, body); err != nil {
		return fmt.Errorf("enqueue message for %s: %w", msg.To, err)
	}
	return nil
}

// Worker delivers queued messages through the wrapped sender.
type Worker struct {
	sender Sender
}

func NewWorker(sender Sender) *Worker {
	return &Worker{sender: sender}
}

// Deliver decodes one queued body and sends it.
func (w *Worker) Deliver(ctx context.Context, body []byte) error {
	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("decode queued message: %w", err)
	}
	return w.sender.Send(ctx, msg)
}
