package cache

import (
	"context"
	"log/slog"
	"time"

	"postline/app/schedule"
)

var _ schedule.Store = (*Store)(nil)

// Store decorates a schedule.Store with stats caching. Every write
// invalidates the cached stats document; reads are otherwise passed
// through untouched.
type Store struct {
	schedule.Store
	stats *StatsCache
}

func NewStore(inner schedule.Store, stats *StatsCache) *Store {
	return &Store{Store: inner, stats: stats}
}

func (s *Store) Create(ctx context.Context, post *schedule.Post) (*schedule.Post, error) {
	created, err := s.Store.Create(ctx, post)
	if err == nil {
		s.invalidate(ctx)
	}
	return created, err
}

func (s *Store) Update(ctx context.Context, id string, upd schedule.Update) (*schedule.Post, error) {
	updated, err := s.Store.Update(ctx, id, upd)
	if err == nil {
		s.invalidate(ctx)
	}
	return updated, err
}

func (s *Store) UpdateStatus(ctx context.Context, id string, to schedule.Status) (*schedule.Post, error) {
	updated, err := s.Store.UpdateStatus(ctx, id, to)
	if err == nil {
		s.invalidate(ctx)
	}
	return updated, err
}

func (s *Store) Delete(ctx context.Context, id string) error {
	err := s.Store.Delete(ctx, id)
	if err == nil {
		s.invalidate(ctx)
	}
	return err
}

func (s *Store) MarkPublished(ctx context.Context, id, externalPostID string, at time.Time) error {
	err := s.Store.MarkPublished(ctx, id, externalPostID, at)
	if err == nil {
		s.invalidate(ctx)
	}
	return err
}

func (s *Store) MarkRetry(ctx context.Context, id, errMsg string, nextAttemptAt, at time.Time) error {
	err := s.Store.MarkRetry(ctx, id, errMsg, nextAttemptAt, at)
	if err == nil {
		s.invalidate(ctx)
	}
	return err
}

func (s *Store) MarkCancelled(ctx context.Context, id, errMsg string, at time.Time) error {
	err := s.Store.MarkCancelled(ctx, id, errMsg, at)
	if err == nil {
		s.invalidate(ctx)
	}
	return err
}

func (s *Store) Stats(ctx context.Context, now time.Time) (*schedule.Stats, error) {
	if stats, ok := s.stats.Get(ctx); ok {
		return stats, nil
	}

	stats, err := s.Store.Stats(ctx, now)
	if err != nil {
		return nil, err
	}

	if err := s.stats.Set(ctx, stats); err != nil {
		slog.Warn("Failed to cache stats", "error", err)
	}
	return stats, nil
}

func (s *Store) invalidate(ctx context.Context) {
	if err := s.stats.Invalidate(ctx); err != nil {
		slog.Warn("Failed to invalidate stats cache", "error", err)
	}
}
