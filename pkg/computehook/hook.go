package computehook

import (
	"context"
	"sync"
	"time"

	"github.com/shardctl/controller/pkg/shardtypes"
)

// AttachmentChanged is published whenever a shard's attached location is
// confirmed to have changed.
type AttachmentChanged struct {
	TenantShardId shardtypes.TenantShardId
	Attached      *shardtypes.NodeId // nil means detached everywhere
	Timestamp     time.Time
}

// Subscriber is a channel that receives attachment-change events.
type Subscriber chan *AttachmentChanged

// Hook implements shard.ComputeHook by publishing AttachmentChanged events
// to every current subscriber. It never blocks a caller of Notify: a full
// subscriber buffer simply drops the event for that subscriber.
type Hook struct {
	mu          sync.RWMutex
	subscribers map[Subscriber]bool
	eventCh     chan *AttachmentChanged
	stopCh      chan struct{}
	stopOnce    sync.Once
}

// New creates a Hook and starts its dispatch loop.
func New() *Hook {
	h := &Hook{
		subscribers: make(map[Subscriber]bool),
		eventCh:     make(chan *AttachmentChanged, 100),
		stopCh:      make(chan struct{}),
	}
	go h.run()
	return h
}

// Stop shuts down the dispatch loop and closes every subscriber channel.
func (h *Hook) Stop() {
	h.stopOnce.Do(func() {
		close(h.stopCh)
		h.mu.Lock()
		defer h.mu.Unlock()
		for sub := range h.subscribers {
			delete(h.subscribers, sub)
			close(sub)
		}
	})
}

// Subscribe returns a new channel that receives every future
// AttachmentChanged event, buffered so a slow reader doesn't stall others.
func (h *Hook) Subscribe() Subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()
	sub := make(Subscriber, 50)
	h.subscribers[sub] = true
	return sub
}

// Unsubscribe removes and closes a subscription.
func (h *Hook) Unsubscribe(sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subscribers[sub] {
		delete(h.subscribers, sub)
		close(sub)
	}
}

// Notify implements shard.ComputeHook.
func (h *Hook) Notify(ctx context.Context, id shardtypes.TenantShardId, attached *shardtypes.NodeId) error {
	event := &AttachmentChanged{TenantShardId: id, Attached: attached, Timestamp: time.Now()}
	select {
	case h.eventCh <- event:
	case <-h.stopCh:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (h *Hook) run() {
	for {
		select {
		case event := <-h.eventCh:
			h.broadcast(event)
		case <-h.stopCh:
			return
		}
	}
}

func (h *Hook) broadcast(event *AttachmentChanged) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subscribers {
		select {
		case sub <- event:
		default:
		}
	}
}
