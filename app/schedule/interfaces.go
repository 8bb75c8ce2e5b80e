package schedule

import (
	"context"
	"time"
)

// Store is the persistence boundary for scheduled posts. All mutation of a
// post record flows through it.
type Store interface {
	Create(ctx context.Context, post *Post) (*Post, error)
	Get(ctx context.Context, id string) (*Post, error)
	Find(ctx context.Context, filter Filter, sort Sort, limit, offset int) ([]Post, error)
	Update(ctx context.Context, id string, upd Update) (*Post, error)
	UpdateStatus(ctx context.Context, id string, to Status) (*Post, error)
	Delete(ctx context.Context, id string) error

	// FindDue returns pending posts with scheduled_at <= now, oldest first.
	FindDue(ctx context.Context, now time.Time, platform *Platform, limit int) ([]Post, error)

	// Guarded attempt-outcome writes. Each only applies while the record is
	// still pending and returns ErrConflict otherwise, so a concurrent
	// cancel cannot be overwritten by a publish result.
	MarkPublished(ctx context.Context, id, externalPostID string, at time.Time) error
	MarkRetry(ctx context.Context, id, errMsg string, nextAttemptAt, at time.Time) error
	MarkCancelled(ctx context.Context, id, errMsg string, at time.Time) error

	Stats(ctx context.Context, now time.Time) (*Stats, error)
}

// PublishClient attempts delivery of content to a platform and returns the
// external post identifier. Failures are *PublishError values.
type PublishClient interface {
	Publish(ctx context.Context, platform Platform, content string) (string, error)
}

// Clock supplies current time so due checks are testable.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

func SystemClock() Clock { return systemClock{} }
