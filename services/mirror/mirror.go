// Package mirror keeps an in-memory copy of one store collection, refreshed
// wholesale from the collection's live snapshot feed. Writes never touch the
// mirrored state directly; the next snapshot notification is the sole source
// of truth, so readers see at most one round-trip of staleness after a write.
package mirror

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"nido/services/store"
)

// Mirror mirrors one collection, decoding each document body into T. Every
// snapshot notification fully replaces the local copy (last snapshot wins);
// there is no incremental patching or reconciliation of concurrent edits.
type Mirror[T any] struct {
	collection string

	mu    sync.RWMutex
	items []T
	ready bool

	cancel func()
	done   chan struct{}
}

// New subscribes to the collection and starts applying snapshots in delivery
// order. Documents whose bodies fail to decode are logged and skipped; a
// failed subscription leaves the mirror serving an empty, not-ready snapshot
// rather than failing hard.
func New[T any](st *store.Store, collection string) *Mirror[T] {
	m := &Mirror[T]{
		collection: collection,
		done:       make(chan struct{}),
	}

	ch, cancel, err := st.Subscribe(context.Background(), collection)
	if err != nil {
		log.Printf("[mirror] subscribe %s failed: %v", collection, err)
		close(m.done)
		m.cancel = func() {}
		return m
	}
	m.cancel = cancel

	go m.run(ch)
	return m
}

func (m *Mirror[T]) run(ch <-chan store.Snapshot) {
	defer close(m.done)
	for snap := range ch {
		m.apply(snap)
	}
}

func (m *Mirror[T]) apply(snap store.Snapshot) {
	items := make([]T, 0, len(snap.Docs))
	for _, doc := range snap.Docs {
		var item T
		if err := json.Unmarshal(doc.Body, &item); err != nil {
			log.Printf("[mirror] decode %s/%s failed: %v", m.collection, doc.ID, err)
			continue
		}
		items = append(items, item)
	}

	m.mu.Lock()
	m.items = items
	m.ready = true
	m.mu.Unlock()
}

// Snapshot returns the current mirrored items and whether at least one
// snapshot has been applied. Callers must not retain or mutate the slice
// across calls; it is replaced wholesale on every notification.
func (m *Mirror[T]) Snapshot() ([]T, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.items, m.ready
}

// Close tears down the subscription and waits for the feed to drain, so no
// orphaned listener outlives its owner.
func (m *Mirror[T]) Close() {
	m.cancel()
	<-m.done
}

// Group partitions items into status buckets. Every item lands in exactly one
// bucket keyed by its status, so bucket sizes always sum to len(items).
func Group[T any](items []T, statusOf func(T) string) map[string][]T {
	buckets := make(map[string][]T)
	for _, item := range items {
		status := statusOf(item)
		buckets[status] = append(buckets[status], item)
	}
	return buckets
}
