package api

import (
	"time"

	"postline/app/dispatch"
	"postline/app/schedule"
)

type Handler struct {
	store      schedule.Store
	dispatcher *dispatch.Dispatcher
	runner     *dispatch.Runner
	clock      schedule.Clock
}

type createPostRequest struct {
	PostID      string    `json:"post_id" binding:"required"`
	Platform    string    `json:"platform" binding:"required"`
	Content     string    `json:"content" binding:"required"`
	ScheduledAt time.Time `json:"scheduled_at" binding:"required"`
}

type updatePostRequest struct {
	Content     *string    `json:"content"`
	ScheduledAt *time.Time `json:"scheduled_at"`
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type postResponse struct {
	ID             string     `json:"id"`
	PostID         string     `json:"post_id"`
	Platform       string     `json:"platform"`
	Content        string     `json:"content"`
	ScheduledAt    time.Time  `json:"scheduled_at"`
	Status         string     `json:"status"`
	RetryCount     int        `json:"retry_count"`
	LastAttemptAt  *time.Time `json:"last_attempt_at,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	ExternalPostID string     `json:"external_post_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func toPostResponse(p *schedule.Post) postResponse {
	return postResponse{
		ID:             p.ID,
		PostID:         p.PostID,
		Platform:       string(p.Platform),
		Content:        p.Content,
		ScheduledAt:    p.ScheduledAt,
		Status:         string(p.Status),
		RetryCount:     p.RetryCount,
		LastAttemptAt:  p.LastAttemptAt,
		ErrorMessage:   p.ErrorMessage,
		ExternalPostID: p.ExternalPostID,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func toPostResponses(posts []schedule.Post) []postResponse {
	out := make([]postResponse, 0, len(posts))
	for i := range posts {
		out = append(out, toPostResponse(&posts[i]))
	}
	return out
}
