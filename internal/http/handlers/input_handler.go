// Input HTTP handlers.
//
// This file exposes the front-door endpoint for free text:
//   - POST /inputs  (classify and route; queue when the AI is offline)
//
// Handlers are transport-thin: they validate input, call application
// services, and translate results into HTTP responses. Submissions support
// the Idempotency-Key header so client retries never double-register.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ltavares/tempo-backend/internal/http/middleware"
	"github.com/ltavares/tempo-backend/internal/repo"
	"github.com/ltavares/tempo-backend/internal/services"
	"github.com/ltavares/tempo-backend/internal/utils"
)

// Handlers groups the HTTP endpoints for inputs, activities, the pending
// queue, the response cache, and daily feedbacks.
type Handlers struct {
	db       *gorm.DB
	pipeline *services.PipelineService
	acts     *services.ActivityService
	queue    *services.QueueService
	maint    *services.MaintenanceService
	rollup   *services.RollupService

	idemTTL time.Duration
}

// New constructs a Handlers instance bound to the given services.
func New(db *gorm.DB, pipeline *services.PipelineService, acts *services.ActivityService,
	queue *services.QueueService, maint *services.MaintenanceService, rollup *services.RollupService,
	idemTTL time.Duration) *Handlers {
	return &Handlers{
		db:       db,
		pipeline: pipeline,
		acts:     acts,
		queue:    queue,
		maint:    maint,
		rollup:   rollup,
		idemTTL:  idemTTL,
	}
}

// userID extracts the authenticated user id from the Gin context (set by
// upstream middleware), falling back to the X-User-ID header and finally to
// the single-user development identity.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "local-user"
}

// SubmitInputRequest is the JSON payload for submitting free text.
type SubmitInputRequest struct {
	// Text is the raw user input; intent is detected server-side.
	Text string `json:"text" binding:"required" example:"registrar: corrigir bug urgente do cliente"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// clampPagination parses and bounds page and page_size query params.
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// paginate builds the metadata block for a list response.
func paginate(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// SubmitInput godoc
// @ID          submitInput
// @Summary     Submit free text
// @Description Classifies the text and routes it: activities are registered, conversational messages get a coach reply, and inputs the offline classifier cannot handle are queued (202).
// @Tags        Inputs
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  false "User ID (demo header)"  example(user123)
// @Param       Idempotency-Key  header  string  false "Safe-retry key"
// @Param       body             body    handlers.SubmitInputRequest  true  "Input payload"
//
// @Success     200  {object}  services.SubmitResult "Reply produced"
// @Success     201  {object}  services.SubmitResult "Activity registered"
// @Success     202  {object}  services.SubmitResult "Queued for later processing"
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /inputs [post]
func (h *Handlers) SubmitInput(c *gin.Context) {
	uid := userID(c)

	if middleware.IsReplay(c) {
		if key, okKey := middleware.GetIdempotencyKey(c); okKey {
			if rec, err := repo.GetIdempotency(c.Request.Context(), h.db, uid, key, time.Now().UTC()); err == nil {
				ok(c, rec.Status, gin.H{
					"replay": true,
					"kind":   rec.RefKind,
					"ref_id": rec.RefID,
				})
				return
			}
		}
	}

	var req SubmitInputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	res, err := h.pipeline.Submit(c.Request.Context(), req.Text)
	if err != nil {
		if errors.Is(err, services.ErrEmptyInput) || errors.Is(err, services.ErrTooLong) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeSubmitFailed, err.Error())
		return
	}

	status := http.StatusOK
	switch res.Kind {
	case services.OutcomeActivity:
		status = http.StatusCreated
	case services.OutcomeQueued:
		status = http.StatusAccepted
	}

	h.recordIdempotency(c, uid, res, status)
	ok(c, status, res)
}

// recordIdempotency persists the submission outcome under the caller's
// Idempotency-Key so a retry can be served as a replay. Best effort.
func (h *Handlers) recordIdempotency(c *gin.Context, uid string, res services.SubmitResult, status int) {
	key, okKey := middleware.GetIdempotencyKey(c)
	if !okKey {
		return
	}
	refID, refKind := "", "reply"
	switch {
	case res.Activity != nil:
		refID, refKind = res.Activity.ID, "activity"
	case res.Pending != nil:
		refID, refKind = res.Pending.ID, "pending"
	}
	_, _ = repo.CreateIdempotency(context.WithoutCancel(c.Request.Context()), h.db, uid, key, refID, refKind, status, h.idemTTL)
}
