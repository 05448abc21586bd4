package store

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/artpar/rollout/internal/core/timeline"
)

// =============================================================================
// MemoryStore
// =============================================================================

// MemoryStore implements Store with an in-memory map. Snapshots are stored
// as serialized JSON so callers get the same copy semantics as a real
// database: mutating a returned timeline never mutates the stored one.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string][]byte
	order     []string // insertion order for stable listing
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		snapshots: make(map[string][]byte),
	}
}

// SaveTimeline stores a snapshot of the timeline.
func (s *MemoryStore) SaveTimeline(ctx context.Context, t *timeline.Timeline) error {
	snapshot, err := json.Marshal(t)
	if err != nil {
		return NewStoreError("SaveTimeline", t.ID, "failed to encode snapshot", ErrInvalidData)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.snapshots[t.ID]; !exists {
		s.order = append(s.order, t.ID)
	}
	s.snapshots[t.ID] = snapshot
	return nil
}

// GetTimeline returns a copy of the stored timeline.
func (s *MemoryStore) GetTimeline(ctx context.Context, id string) (*timeline.Timeline, error) {
	s.mu.RLock()
	snapshot, ok := s.snapshots[id]
	s.mu.RUnlock()

	if !ok {
		return nil, NewStoreError("GetTimeline", id, "not found", ErrNotFound)
	}
	return decodeSnapshot(id, snapshot)
}

// ListTimelines returns all timelines in insertion order.
func (s *MemoryStore) ListTimelines(ctx context.Context, opts ListOptions) ([]*timeline.Timeline, error) {
	return s.list(opts, func(*timeline.Timeline) bool { return true })
}

// DeleteTimeline removes a timeline.
func (s *MemoryStore) DeleteTimeline(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.snapshots[id]; !ok {
		return NewStoreError("DeleteTimeline", id, "not found", ErrNotFound)
	}
	delete(s.snapshots, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// SearchByName returns timelines whose name contains the query,
// case-insensitively.
func (s *MemoryStore) SearchByName(ctx context.Context, query string, opts ListOptions) ([]*timeline.Timeline, error) {
	q := strings.ToLower(query)
	return s.list(opts, func(t *timeline.Timeline) bool {
		return strings.Contains(strings.ToLower(t.Name), q)
	})
}

// ListByStatus returns timelines with the given status.
func (s *MemoryStore) ListByStatus(ctx context.Context, status timeline.TimelineStatus, opts ListOptions) ([]*timeline.Timeline, error) {
	return s.list(opts, func(t *timeline.Timeline) bool {
		return t.Status == status
	})
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) list(opts ListOptions, match func(*timeline.Timeline) bool) ([]*timeline.Timeline, error) {
	opts = opts.Normalize()

	s.mu.RLock()
	ids := make([]string, len(s.order))
	copy(ids, s.order)
	snapshots := make(map[string][]byte, len(ids))
	for _, id := range ids {
		snapshots[id] = s.snapshots[id]
	}
	s.mu.RUnlock()

	var result []*timeline.Timeline
	skipped := 0
	for _, id := range ids {
		t, err := decodeSnapshot(id, snapshots[id])
		if err != nil {
			return nil, err
		}
		if !match(t) {
			continue
		}
		if skipped < opts.Offset {
			skipped++
			continue
		}
		result = append(result, t)
		if len(result) >= opts.Limit {
			break
		}
	}
	return result, nil
}

func decodeSnapshot(id string, snapshot []byte) (*timeline.Timeline, error) {
	var t timeline.Timeline
	if err := json.Unmarshal(snapshot, &t); err != nil {
		return nil, NewStoreError("decodeSnapshot", id, "failed to decode snapshot", ErrInvalidData)
	}
	return &t, nil
}
