// Package broadcast fans a single engine actor's committed changes out to
// any number of subscribers (e.g. a notification dispatcher) without ever
// applying back-pressure to the actor. Each subscriber gets a small bounded
// buffer; a subscriber whose buffer is full misses the new change (reported
// through the DropHandler) rather than stalling the producer — the actor is
// the sole writer and must never block on a slow reader.
package broadcast

import (
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/elfiee/elfiee/pkg/model"
)

// DefaultCapacity is the default per-subscriber buffer size, matching the
// bounded ring capacity used elsewhere in the system.
const DefaultCapacity = 64

// StateChange is the payload delivered to subscribers: one archive's
// stripped (runtime-field-free) events from a single committed command.
type StateChange struct {
	FileID string
	Events []model.Event
}

// DropHandler is invoked whenever a subscriber's buffer is full and a
// StateChange is dropped for it. Wire this to a metrics counter.
type DropHandler func(fileID string, subscriberID int)

// Broadcaster is the single-producer, multi-consumer fan-out. The engine
// actor is expected to be its only caller of Publish.
type Broadcaster struct {
	mu       sync.RWMutex
	subs     map[int]chan StateChange
	nextID   int
	capacity int
	pool     *ants.Pool
	onDrop   DropHandler
}

// New creates a Broadcaster whose subscriber buffers hold capacity pending
// StateChanges each, fanning out through a bounded goroutine pool so
// publishing to many subscribers never spawns one raw goroutine per
// subscriber per event.
func New(capacity int, onDrop DropHandler) (*Broadcaster, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	pool, err := ants.NewPool(1, ants.WithNonblocking(false))
	if err != nil {
		return nil, err
	}
	return &Broadcaster{
		subs:     map[int]chan StateChange{},
		capacity: capacity,
		pool:     pool,
		onDrop:   onDrop,
	}, nil
}

// Subscribe registers a new consumer and returns its id (for Unsubscribe)
// and its receive-only channel.
func (b *Broadcaster) Subscribe() (int, <-chan StateChange) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	ch := make(chan StateChange, b.capacity)
	b.subs[id] = ch
	return id, ch
}

// Unsubscribe removes and closes a subscriber's channel.
func (b *Broadcaster) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// Publish fans change out to every current subscriber. The whole fan-out
// for one call is dispatched as a single worker-pool task that visits every
// subscriber in turn, so two successive Publish calls can never be
// delivered to the same subscriber out of commit order — only one fan-out
// task per Broadcaster is ever in flight at a time. Each per-subscriber
// send within that task is still non-blocking: a full subscriber buffer
// drops the message and reports it via onDrop rather than stalling the
// rest of the fan-out.
func (b *Broadcaster) Publish(change StateChange) {
	b.mu.RLock()
	subs := make(map[int]chan StateChange, len(b.subs))
	for id, ch := range b.subs {
		subs[id] = ch
	}
	b.mu.RUnlock()

	_ = b.pool.Submit(func() {
		for id, ch := range subs {
			select {
			case ch <- change:
			default:
				if b.onDrop != nil {
					b.onDrop(change.FileID, id)
				}
			}
		}
	})
}

// Close releases the worker pool and closes every subscriber channel.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
	b.pool.Release()
}

// DeriveResourceURIs computes the set of affected resource identifiers for
// a batch of events, the way a downstream notification consumer (an MCP
// dispatcher, a UI live-reload channel, ...) would decide what to
// re-fetch. Every batch touches "events"; capability-specific rules add
// "blocks", "block/{id}", or "grants" on top.
func DeriveResourceURIs(events []model.Event) []string {
	seen := map[string]bool{"events": true}
	order := []string{"events"}
	add := func(uri string) {
		if !seen[uri] {
			seen[uri] = true
			order = append(order, uri)
		}
	}

	for _, e := range events {
		_, capID, ok := model.SplitAttribute(e.Attribute)
		if !ok {
			continue
		}
		switch capID {
		case "core.create", "core.delete":
			add("blocks")
			add("block/" + e.Entity)
		case "core.grant", "core.revoke":
			add("grants")
		case "editor.create", "editor.delete":
			// No resource beyond the events log already covers this.
		default:
			if hasSuffix(capID, ".write") || hasSuffix(capID, ".link") ||
				capID == "core.unlink" || capID == "core.rename" ||
				capID == "core.change_type" || capID == "core.update_metadata" {
				add("block/" + e.Entity)
			}
		}
	}
	return order
}

func hasSuffix(s, suffix string) bool {
	if len(s) < len(suffix) {
		return false
	}
	return s[len(s)-len(suffix):] == suffix
}
