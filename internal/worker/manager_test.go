package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"snapfeed/internal/queue"
)

// stubConsumer is an in-memory Consumer for ack accounting tests.
type stubConsumer struct {
	ackErr   error
	ackCalls int
}

func (c *stubConsumer) EnsureGroup(ctx context.Context, stream, group string) error {
	return nil
}

func (c *stubConsumer) Read(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]queue.Message, error) {
	return nil, nil
}

func (c *stubConsumer) Ack(ctx context.Context, stream, group string, messageIDs ...string) error {
	c.ackCalls++
	return c.ackErr
}

func (c *stubConsumer) Pending(ctx context.Context, stream, group string) (int64, error) {
	return 0, nil
}

func newTestManager(consumer queue.Consumer) *Manager {
	m := NewManager(consumer, NewHandler(nil, nil, nil), ManagerConfig{})
	m.ctx, m.cancel = context.WithCancel(context.Background())
	return m
}

func TestManager_HandleMessages_CountsAcks(t *testing.T) {
	consumer := &stubConsumer{}
	m := newTestManager(consumer)

	messages := []queue.Message{
		{ID: "1-0", Event: queue.FeedEvent{Type: "bogus"}},
		{ID: "2-0", Event: queue.FeedEvent{Type: "bogus"}},
	}

	// Handler errors on unknown event types but messages are still acked.
	acked := m.handleMessages(1, messages)

	if acked != 2 {
		t.Errorf("acked = %d, want 2", acked)
	}
	if consumer.ackCalls != 2 {
		t.Errorf("ack calls = %d, want 2", consumer.ackCalls)
	}
}

func TestManager_HandleMessages_AckFailure(t *testing.T) {
	consumer := &stubConsumer{ackErr: errors.New("connection reset")}
	m := newTestManager(consumer)

	messages := []queue.Message{
		{ID: "1-0", Event: queue.FeedEvent{Type: "bogus"}},
		{ID: "2-0", Event: queue.FeedEvent{Type: "bogus"}},
	}

	// When nothing can be acked the caller must see zero, otherwise the
	// pending recovery loop would re-read the same batch forever.
	if acked := m.handleMessages(1, messages); acked != 0 {
		t.Errorf("acked = %d, want 0 when every ack fails", acked)
	}
}
