package pubsub

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"catalog-content-sync/internal/domain"

	"github.com/rs/zerolog"
)

// ProgressChannel is one subscription to run progress
type ProgressChannel struct {
	ID     string
	Filter *ProgressFilter
	Events chan *domain.ProgressEvent
	Done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
}

// ProgressFilter selects events by task family and state
type ProgressFilter struct {
	Families []string
	States   []domain.TaskState
}

// ProgressPubSub fans progress events out to subscribers
type ProgressPubSub struct {
	mu       sync.RWMutex
	channels map[string]*ProgressChannel
	logger   zerolog.Logger
	nextID   int64
	dropped  atomic.Int64
}

func NewProgressPubSub(logger zerolog.Logger) *ProgressPubSub {
	return &ProgressPubSub{
		channels: make(map[string]*ProgressChannel),
		logger:   logger.With().Str("component", "progress_pubsub").Logger(),
	}
}

// Subscribe registers a channel that is removed when ctx is cancelled
func (ps *ProgressPubSub) Subscribe(ctx context.Context, filter *ProgressFilter) *ProgressChannel {
	subCtx, cancel := context.WithCancel(ctx)

	ps.mu.Lock()
	ps.nextID++
	id := fmt.Sprintf("channel-%d", ps.nextID)
	channel := &ProgressChannel{
		ID:     id,
		Filter: filter,
		Events: make(chan *domain.ProgressEvent, 10),
		Done:   make(chan struct{}),
		ctx:    subCtx,
		cancel: cancel,
	}
	ps.channels[id] = channel
	ps.mu.Unlock()

	ps.logger.Debug().Str("channelId", id).Msg("Progress subscription created")

	go func() {
		<-subCtx.Done()
		ps.Unsubscribe(id)
	}()

	return channel
}

// Unsubscribe closes and removes a subscription
func (ps *ProgressPubSub) Unsubscribe(channelID string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	channel, exists := ps.channels[channelID]
	if !exists {
		return
	}

	close(channel.Events)
	close(channel.Done)
	channel.cancel()
	delete(ps.channels, channelID)

	ps.logger.Debug().Str("channelId", channelID).Msg("Progress subscription removed")
}

// Publish delivers event to every matching subscriber without blocking.
// Subscribers with a full buffer miss the event.
func (ps *ProgressPubSub) Publish(event *domain.ProgressEvent) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	for _, channel := range ps.channels {
		if !matchesFilter(event, channel.Filter) {
			continue
		}
		select {
		case channel.Events <- event:
		case <-channel.ctx.Done():
		default:
			ps.dropped.Add(1)
			ps.logger.Warn().
				Str("channelId", channel.ID).
				Str("family", event.Family).
				Msg("Channel buffer full, dropping event")
		}
	}
}

func matchesFilter(event *domain.ProgressEvent, filter *ProgressFilter) bool {
	if filter == nil {
		return true
	}
	if len(filter.Families) > 0 && !slices.Contains(filter.Families, event.Family) {
		return false
	}
	if len(filter.States) > 0 && !slices.Contains(filter.States, event.State) {
		return false
	}
	return true
}

// GetStats returns pub/sub statistics
func (ps *ProgressPubSub) GetStats() map[string]any {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	return map[string]any{
		"active_subscriptions": len(ps.channels),
		"dropped_events":       ps.dropped.Load(),
	}
}
