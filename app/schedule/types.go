package schedule

import (
	"fmt"
	"time"
)

// Platform identifies the social network a post is published to.
type Platform string

const (
	PlatformLinkedIn Platform = "linkedin"
	PlatformX        Platform = "x"
)

func ParsePlatform(s string) (Platform, error) {
	switch Platform(s) {
	case PlatformLinkedIn, PlatformX:
		return Platform(s), nil
	}
	return "", fmt.Errorf("unknown platform: %q", s)
}

func Platforms() []Platform {
	return []Platform{PlatformLinkedIn, PlatformX}
}

// Status is the lifecycle state of a scheduled post.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPublished Status = "published"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusPublished, StatusFailed, StatusCancelled:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown status: %q", s)
}

// Terminal reports whether no further automatic transition occurs from s.
func (s Status) Terminal() bool {
	return s == StatusPublished || s == StatusCancelled
}

// Post represents a scheduled post record in the database
type Post struct {
	ID             string
	PostID         string
	Platform       Platform
	Content        string
	ScheduledAt    time.Time
	Status         Status
	RetryCount     int
	LastAttemptAt  *time.Time
	ErrorMessage   string
	ExternalPostID string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Filter narrows Find queries. Nil/zero fields are ignored.
type Filter struct {
	Status          *Status
	Platform        *Platform
	PostID          string
	ScheduledAfter  *time.Time
	ScheduledBefore *time.Time
	Search          string // case-insensitive substring match over content
}

type SortField string

const (
	SortByScheduledAt SortField = "scheduled_at"
	SortByCreatedAt   SortField = "created_at"
	SortByUpdatedAt   SortField = "updated_at"
	SortByStatus      SortField = "status"
	SortByPlatform    SortField = "platform"
)

func ParseSortField(s string) (SortField, error) {
	switch SortField(s) {
	case SortByScheduledAt, SortByCreatedAt, SortByUpdatedAt, SortByStatus, SortByPlatform:
		return SortField(s), nil
	}
	return "", fmt.Errorf("unknown sort field: %q", s)
}

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(s) {
	case SortAsc, SortDesc:
		return SortOrder(s), nil
	}
	return "", fmt.Errorf("unknown sort order: %q", s)
}

type Sort struct {
	Field SortField
	Order SortOrder
}

// DefaultSort orders by scheduled time ascending, matching the due scan.
func DefaultSort() Sort {
	return Sort{Field: SortByScheduledAt, Order: SortAsc}
}

// Update carries the partial fields an administrative caller may change.
// Content and ScheduledAt are only mutable while the post is pending.
type Update struct {
	Content     *string
	ScheduledAt *time.Time
}

// Stats summarizes the store for the dashboard.
type Stats struct {
	Total      int            `json:"total"`
	ByStatus   map[string]int `json:"by_status"`
	ByPlatform map[string]int `json:"by_platform"`
	Upcoming24 int            `json:"upcoming_24h"`
}
