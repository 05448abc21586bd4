package store

import (
	"context"

	"github.com/artpar/rollout/internal/core/timeline"
)

// =============================================================================
// Store Interface
// =============================================================================

// Store defines the persistence contract for timelines. The engine treats
// a timeline as a plain serializable aggregate; implementations persist
// opaque snapshots and are interchangeable.
//
// Notification conditions are host code and do not survive a round trip;
// hosts re-attach them after loading.
type Store interface {
	SaveTimeline(ctx context.Context, t *timeline.Timeline) error
	GetTimeline(ctx context.Context, id string) (*timeline.Timeline, error)
	ListTimelines(ctx context.Context, opts ListOptions) ([]*timeline.Timeline, error)
	DeleteTimeline(ctx context.Context, id string) error

	SearchByName(ctx context.Context, query string, opts ListOptions) ([]*timeline.Timeline, error)
	ListByStatus(ctx context.Context, status timeline.TimelineStatus, opts ListOptions) ([]*timeline.Timeline, error)

	// Lifecycle
	Close() error
}

// =============================================================================
// Options
// =============================================================================

// ListOptions defines pagination options.
type ListOptions struct {
	Limit  int
	Offset int
}

// DefaultListOptions returns default list options.
func DefaultListOptions() ListOptions {
	return ListOptions{
		Limit:  100,
		Offset: 0,
	}
}

// Normalize ensures list options have valid values.
func (o ListOptions) Normalize() ListOptions {
	if o.Limit <= 0 {
		o.Limit = 100
	}
	if o.Limit > 1000 {
		o.Limit = 1000
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}
