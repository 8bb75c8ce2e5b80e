package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"postline/app/dispatch"
	"postline/app/schedule"
)

func NewHandler(store schedule.Store, dispatcher *dispatch.Dispatcher,
	runner *dispatch.Runner, clock schedule.Clock) *Handler {
	return &Handler{
		store:      store,
		dispatcher: dispatcher,
		runner:     runner,
		clock:      clock,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp":  h.clock.Now().Format(time.RFC3339),
		"dispatcher": h.runner.IsRunning(),
	}

	if stats, err := h.store.Stats(c.Request.Context(), h.clock.Now()); err == nil {
		health["pending_posts"] = stats.Total
		health["database"] = "ok"
	} else {
		health["database"] = "error"
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.store.Stats(c.Request.Context(), h.clock.Now())
	if err != nil {
		slog.Error("Database error", "operation", "stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) GetCalendar(c *gin.Context) {
	filter, ok := parseFilter(c)
	if !ok {
		return
	}
	limit := parseIntQuery(c, "limit", schedule.DefaultCalendarLimit)

	events, err := schedule.FindAsCalendarEvents(c.Request.Context(), h.store, filter, limit)
	if err != nil {
		slog.Error("Database error", "operation", "calendar", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load calendar"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events, "total": len(events)})
}

func (h *Handler) ListPosts(c *gin.Context) {
	filter, ok := parseFilter(c)
	if !ok {
		return
	}
	sort, ok := parseSort(c)
	if !ok {
		return
	}
	limit := parseIntQuery(c, "limit", 50)
	offset := parseIntQuery(c, "offset", 0)

	posts, err := h.store.Find(c.Request.Context(), filter, sort, limit, offset)
	if err != nil {
		slog.Error("Database error", "operation", "find_posts", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list posts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": toPostResponses(posts), "total": len(posts)})
}

func (h *Handler) ListDuePosts(c *gin.Context) {
	var platform *schedule.Platform
	if raw := c.Query("platform"); raw != "" {
		p, err := schedule.ParsePlatform(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		platform = &p
	}
	limit := parseIntQuery(c, "limit", 10)

	posts, err := h.store.FindDue(c.Request.Context(), h.clock.Now(), platform, limit)
	if err != nil {
		slog.Error("Database error", "operation", "find_due", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list due posts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": toPostResponses(posts), "total": len(posts)})
}

func (h *Handler) CreatePost(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	platform, err := schedule.ParsePlatform(req.Platform)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.store.Create(c.Request.Context(), &schedule.Post{
		PostID:      req.PostID,
		Platform:    platform,
		Content:     req.Content,
		ScheduledAt: req.ScheduledAt,
		Status:      schedule.StatusPending,
	})
	if err != nil {
		slog.Error("Database error", "operation", "create_post", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create post"})
		return
	}

	c.JSON(http.StatusCreated, toPostResponse(post))
}

func (h *Handler) GetPost(c *gin.Context) {
	post, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		slog.Error("Database error", "operation", "get_post", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load post"})
		return
	}
	if post == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Scheduled post not found"})
		return
	}

	c.JSON(http.StatusOK, toPostResponse(post))
}

func (h *Handler) UpdatePost(c *gin.Context) {
	var req updatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.store.Update(c.Request.Context(), c.Param("id"), schedule.Update{
		Content:     req.Content,
		ScheduledAt: req.ScheduledAt,
	})
	if err != nil {
		h.writeStoreError(c, "update_post", err)
		return
	}

	c.JSON(http.StatusOK, toPostResponse(post))
}

func (h *Handler) UpdatePostStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status, err := schedule.ParseStatus(req.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.store.UpdateStatus(c.Request.Context(), c.Param("id"), status)
	if err != nil {
		h.writeStoreError(c, "update_status", err)
		return
	}

	c.JSON(http.StatusOK, toPostResponse(post))
}

func (h *Handler) DeletePost(c *gin.Context) {
	if err := h.store.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.writeStoreError(c, "delete_post", err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) DispatcherStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"running": h.runner.IsRunning()})
}

func (h *Handler) DispatcherStart(c *gin.Context) {
	h.runner.Start()
	c.JSON(http.StatusOK, gin.H{"running": h.runner.IsRunning()})
}

func (h *Handler) DispatcherStop(c *gin.Context) {
	h.runner.Stop()
	c.JSON(http.StatusOK, gin.H{"running": h.runner.IsRunning()})
}

// DispatcherRun triggers an immediate dispatch cycle and returns its report.
func (h *Handler) DispatcherRun(c *gin.Context) {
	report, err := h.dispatcher.RunCycle(c.Request.Context())
	if err != nil {
		if errors.Is(err, dispatch.ErrCycleInProgress) {
			c.JSON(http.StatusConflict, gin.H{"error": "A dispatch cycle is already running"})
			return
		}
		slog.Error("Dispatch cycle failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Dispatch cycle failed"})
		return
	}

	c.JSON(http.StatusOK, report)
}

func (h *Handler) writeStoreError(c *gin.Context, operation string, err error) {
	var invalid *schedule.InvalidTransitionError
	switch {
	case errors.Is(err, schedule.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Scheduled post not found"})
	case errors.As(err, &invalid):
		c.JSON(http.StatusConflict, gin.H{"error": invalid.Error()})
	case errors.Is(err, schedule.ErrNotEditable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, schedule.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Scheduled post changed concurrently"})
	default:
		slog.Error("Database error", "operation", operation, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}

func parseFilter(c *gin.Context) (schedule.Filter, bool) {
	var filter schedule.Filter

	if raw := c.Query("status"); raw != "" {
		status, err := schedule.ParseStatus(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return filter, false
		}
		filter.Status = &status
	}
	if raw := c.Query("platform"); raw != "" {
		platform, err := schedule.ParsePlatform(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return filter, false
		}
		filter.Platform = &platform
	}
	filter.PostID = c.Query("post_id")
	filter.Search = c.Query("search")

	for name, dest := range map[string]**time.Time{
		"scheduled_after":  &filter.ScheduledAfter,
		"scheduled_before": &filter.ScheduledBefore,
	} {
		if raw := c.Query(name); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name + ": " + err.Error()})
				return filter, false
			}
			*dest = &t
		}
	}

	return filter, true
}

func parseSort(c *gin.Context) (schedule.Sort, bool) {
	sort := schedule.DefaultSort()

	if raw := c.Query("sort_by"); raw != "" {
		field, err := schedule.ParseSortField(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return sort, false
		}
		sort.Field = field
	}
	if raw := c.Query("sort_order"); raw != "" {
		order, err := schedule.ParseSortOrder(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return sort, false
		}
		sort.Order = order
	}

	return sort, true
}

func parseIntQuery(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
