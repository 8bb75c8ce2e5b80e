package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"postline/app/schedule"
)

var _ schedule.Store = (*ScheduleRepository)(nil)

const postColumns = `id, post_id, platform, content, scheduled_at, status, retry_count,
       last_attempt_at, COALESCE(error_message, ''), COALESCE(external_post_id, ''),
       created_at, updated_at`

// ScheduleRepository handles database operations for scheduled posts
type ScheduleRepository struct {
	db *DB
}

// NewScheduleRepository creates a new scheduled post repository
func NewScheduleRepository(db *DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// Create inserts a new scheduled post. A missing id is generated; a missing
// status defaults to pending.
func (r *ScheduleRepository) Create(ctx context.Context, post *schedule.Post) (*schedule.Post, error) {
	if _, err := schedule.ParsePlatform(string(post.Platform)); err != nil {
		return nil, err
	}

	stored := *post
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.Status == "" {
		stored.Status = schedule.StatusPending
	} else if _, err := schedule.ParseStatus(string(stored.Status)); err != nil {
		return nil, err
	}

	now := NowUTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO scheduled_posts (
			id, post_id, platform, content, scheduled_at, status, retry_count,
			last_attempt_at, error_message, external_post_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, stored.ID, stored.PostID, stored.Platform, stored.Content, stored.ScheduledAt.UTC(),
		stored.Status, stored.RetryCount, stored.LastAttemptAt,
		nullIfEmpty(stored.ErrorMessage), nullIfEmpty(stored.ExternalPostID),
		stored.CreatedAt, stored.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduled post: %w", err)
	}

	return &stored, nil
}

// Get retrieves a scheduled post by id, or nil when it does not exist.
func (r *ScheduleRepository) Get(ctx context.Context, id string) (*schedule.Post, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+postColumns+`
		FROM scheduled_posts
		WHERE id = ?
	`, id)

	post, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scheduled post: %w", err)
	}

	return post, nil
}

// Find returns scheduled posts matching the filter, with the predicates
// pushed down to SQL rather than filtered in memory.
func (r *ScheduleRepository) Find(ctx context.Context, filter schedule.Filter, sort schedule.Sort, limit, offset int) ([]schedule.Post, error) {
	where, args := buildFilter(filter)

	if sort.Field == "" {
		sort = schedule.DefaultSort()
	}
	order := "ASC"
	if sort.Order == schedule.SortDesc {
		order = "DESC"
	}

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)

	query := fmt.Sprintf(`
		SELECT %s
		FROM scheduled_posts
		%s
		ORDER BY %s %s
		LIMIT ? OFFSET ?
	`, postColumns, where, sort.Field, order)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find scheduled posts: %w", err)
	}
	defer rows.Close()

	return collectPosts(rows)
}

// Update applies partial administrative edits. Content and scheduled time
// are only mutable while the post is pending.
func (r *ScheduleRepository) Update(ctx context.Context, id string, upd schedule.Update) (*schedule.Post, error) {
	current, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, schedule.ErrNotFound
	}

	if upd.Content == nil && upd.ScheduledAt == nil {
		return current, nil
	}
	if current.Status != schedule.StatusPending {
		return nil, schedule.ErrNotEditable
	}

	sets := []string{"updated_at = ?"}
	args := []interface{}{NowUTC()}
	if upd.Content != nil {
		sets = append(sets, "content = ?")
		args = append(args, *upd.Content)
	}
	if upd.ScheduledAt != nil {
		sets = append(sets, "scheduled_at = ?")
		args = append(args, upd.ScheduledAt.UTC())
	}
	args = append(args, id, schedule.StatusPending)

	res, err := r.db.ExecContext(ctx, fmt.Sprintf(`
		UPDATE scheduled_posts
		SET %s
		WHERE id = ? AND status = ?
	`, strings.Join(sets, ", ")), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update scheduled post: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, schedule.ErrConflict
	}

	return r.Get(ctx, id)
}

// UpdateStatus performs a manual status transition (cancel, reschedule).
// Illegal transitions fail without touching the record; retry_count is
// preserved so a rescheduled post keeps its attempt history.
func (r *ScheduleRepository) UpdateStatus(ctx context.Context, id string, to schedule.Status) (*schedule.Post, error) {
	if _, err := schedule.ParseStatus(string(to)); err != nil {
		return nil, err
	}

	current, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, schedule.ErrNotFound
	}

	if err := schedule.ValidateTransition(current.Status, to); err != nil {
		return nil, err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE scheduled_posts
		SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`, to, NowUTC(), id, current.Status)
	if err != nil {
		return nil, fmt.Errorf("failed to update status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, schedule.ErrConflict
	}

	return r.Get(ctx, id)
}

// Delete removes a scheduled post permanently.
func (r *ScheduleRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM scheduled_posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete scheduled post: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return schedule.ErrNotFound
	}
	return nil
}

// FindDue returns pending posts whose scheduled time has arrived, oldest
// first so the longest-waiting posts are never starved.
func (r *ScheduleRepository) FindDue(ctx context.Context, now time.Time, platform *schedule.Platform, limit int) ([]schedule.Post, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT ` + postColumns + `
		FROM scheduled_posts
		WHERE status = ? AND scheduled_at <= ?
	`
	args := []interface{}{schedule.StatusPending, now.UTC()}

	if platform != nil {
		query += ` AND platform = ?`
		args = append(args, *platform)
	}

	query += `
		ORDER BY scheduled_at ASC
		LIMIT ?
	`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find due posts: %w", err)
	}
	defer rows.Close()

	return collectPosts(rows)
}

// MarkPublished records a successful publish attempt. The guard on status
// keeps a concurrent cancel from being overwritten.
func (r *ScheduleRepository) MarkPublished(ctx context.Context, id, externalPostID string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE scheduled_posts
		SET status = ?, external_post_id = ?, error_message = NULL,
		    last_attempt_at = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`, schedule.StatusPublished, externalPostID, at.UTC(), at.UTC(), id, schedule.StatusPending)
	if err != nil {
		return fmt.Errorf("failed to mark published: %w", err)
	}
	return r.checkGuarded(ctx, res, id)
}

// MarkRetry records a failed attempt that will be retried: the retry count
// is incremented and the scheduled time pushed to the next attempt.
func (r *ScheduleRepository) MarkRetry(ctx context.Context, id, errMsg string, nextAttemptAt, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE scheduled_posts
		SET retry_count = retry_count + 1, error_message = ?,
		    scheduled_at = ?, last_attempt_at = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`, errMsg, nextAttemptAt.UTC(), at.UTC(), at.UTC(), id, schedule.StatusPending)
	if err != nil {
		return fmt.Errorf("failed to mark retry: %w", err)
	}
	return r.checkGuarded(ctx, res, id)
}

// MarkCancelled records a failed attempt with no retries left.
func (r *ScheduleRepository) MarkCancelled(ctx context.Context, id, errMsg string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE scheduled_posts
		SET status = ?, retry_count = retry_count + 1, error_message = ?,
		    last_attempt_at = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`, schedule.StatusCancelled, errMsg, at.UTC(), at.UTC(), id, schedule.StatusPending)
	if err != nil {
		return fmt.Errorf("failed to mark cancelled: %w", err)
	}
	return r.checkGuarded(ctx, res, id)
}

// Stats aggregates counts grouped by status and platform plus the pending
// posts due within the next 24 hours.
func (r *ScheduleRepository) Stats(ctx context.Context, now time.Time) (*schedule.Stats, error) {
	stats := &schedule.Stats{
		ByStatus:   make(map[string]int),
		ByPlatform: make(map[string]int),
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT status, COUNT(*)
		FROM scheduled_posts
		GROUP BY status
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get status counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		stats.ByStatus[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status counts: %w", err)
	}

	stats.Total = stats.ByStatus[string(schedule.StatusPending)]

	platformRows, err := r.db.QueryContext(ctx, `
		SELECT platform, COUNT(*)
		FROM scheduled_posts
		WHERE status = ?
		GROUP BY platform
	`, schedule.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to get platform counts: %w", err)
	}
	defer platformRows.Close()

	for platformRows.Next() {
		var platform string
		var count int
		if err := platformRows.Scan(&platform, &count); err != nil {
			return nil, fmt.Errorf("failed to scan platform count: %w", err)
		}
		stats.ByPlatform[platform] = count
	}
	if err := platformRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating platform counts: %w", err)
	}

	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM scheduled_posts
		WHERE status = ? AND scheduled_at >= ? AND scheduled_at <= ?
	`, schedule.StatusPending, now.UTC(), now.UTC().Add(24*time.Hour)).Scan(&stats.Upcoming24)
	if err != nil {
		return nil, fmt.Errorf("failed to get upcoming count: %w", err)
	}

	return stats, nil
}

// checkGuarded maps a zero-row guarded update to NotFound or Conflict.
func (r *ScheduleRepository) checkGuarded(ctx context.Context, res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}

	current, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if current == nil {
		return schedule.ErrNotFound
	}
	return schedule.ErrConflict
}

func buildFilter(filter schedule.Filter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, *filter.Status)
	}
	if filter.Platform != nil {
		conditions = append(conditions, "platform = ?")
		args = append(args, *filter.Platform)
	}
	if filter.PostID != "" {
		conditions = append(conditions, "post_id = ?")
		args = append(args, filter.PostID)
	}
	if filter.ScheduledAfter != nil {
		conditions = append(conditions, "scheduled_at >= ?")
		args = append(args, filter.ScheduledAfter.UTC())
	}
	if filter.ScheduledBefore != nil {
		conditions = append(conditions, "scheduled_at <= ?")
		args = append(args, filter.ScheduledBefore.UTC())
	}
	if filter.Search != "" {
		conditions = append(conditions, "LOWER(content) LIKE '%' || LOWER(?) || '%'")
		args = append(args, filter.Search)
	}

	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPost(row rowScanner) (*schedule.Post, error) {
	var post schedule.Post
	var platform, status string
	var lastAttempt sql.NullTime

	err := row.Scan(
		&post.ID, &post.PostID, &platform, &post.Content, &post.ScheduledAt,
		&status, &post.RetryCount, &lastAttempt,
		&post.ErrorMessage, &post.ExternalPostID,
		&post.CreatedAt, &post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	post.Platform = schedule.Platform(platform)
	post.Status = schedule.Status(status)
	if lastAttempt.Valid {
		t := lastAttempt.Time
		post.LastAttemptAt = &t
	}

	return &post, nil
}

func collectPosts(rows *sql.Rows) ([]schedule.Post, error) {
	var posts []schedule.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scheduled post row: %w", err)
		}
		posts = append(posts, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scheduled post rows: %w", err)
	}
	return posts, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
