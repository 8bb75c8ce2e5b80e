package schedule

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// titleContentLimit is the hard cut applied to the content portion of a
	// calendar title. The ellipsis is appended after the cut, not in place
	// of the last characters.
	titleContentLimit = 50

	// DefaultCalendarLimit caps calendar queries to bound rendering cost.
	DefaultCalendarLimit = 100
)

var titleCaser = cases.Title(language.English)

// CalendarEvent is a display-oriented projection of a scheduled post. It is
// never persisted.
type CalendarEvent struct {
	ID            string     `json:"id"`
	PostID        string     `json:"post_id"`
	Title         string     `json:"title"`
	ScheduledAt   time.Time  `json:"scheduled_at"`
	Platform      Platform   `json:"platform"`
	Content       string     `json:"content"`
	Status        Status     `json:"status"`
	RetryCount    int        `json:"retry_count"`
	LastAttemptAt *time.Time `json:"last_attempt_at,omitempty"`
	Error         string     `json:"error,omitempty"`
}

// ToCalendarEvent maps a post to its calendar projection.
func ToCalendarEvent(p Post) CalendarEvent {
	return CalendarEvent{
		ID:            p.ID,
		PostID:        p.PostID,
		Title:         eventTitle(p.Platform, p.Content),
		ScheduledAt:   p.ScheduledAt,
		Platform:      p.Platform,
		Content:       p.Content,
		Status:        p.Status,
		RetryCount:    p.RetryCount,
		LastAttemptAt: p.LastAttemptAt,
		Error:         p.ErrorMessage,
	}
}

// FindAsCalendarEvents queries the store with the same filter semantics as
// Find and projects the results, capped to bound calendar rendering cost.
func FindAsCalendarEvents(ctx context.Context, store Store, filter Filter, limit int) ([]CalendarEvent, error) {
	if limit <= 0 || limit > DefaultCalendarLimit {
		limit = DefaultCalendarLimit
	}

	posts, err := store.Find(ctx, filter, DefaultSort(), limit, 0)
	if err != nil {
		return nil, err
	}

	events := make([]CalendarEvent, 0, len(posts))
	for _, post := range posts {
		events = append(events, ToCalendarEvent(post))
	}
	return events, nil
}

func eventTitle(platform Platform, content string) string {
	runes := []rune(content)
	if len(runes) > titleContentLimit {
		content = string(runes[:titleContentLimit]) + "..."
	}
	return fmt.Sprintf("%s: %s", titleCaser.String(string(platform)), content)
}
