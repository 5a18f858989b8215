// Feedback (daily rollup) HTTP handlers.
//
//   - GET  /feedbacks         (list rollup records, paginated, newest first)
//   - POST /feedbacks/rollup  (run the daily rollup for a date)
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ltavares/tempo-backend/internal/domain"
	"github.com/ltavares/tempo-backend/internal/services"
)

// RollupRequest is the JSON payload for running a daily rollup.
type RollupRequest struct {
	// Date selects the day to roll up (YYYY-MM-DD); defaults to today.
	Date string `json:"date" example:"2026-08-28"`
}

// ListFeedbacksResponse wraps a page of feedbacks and pagination info.
type ListFeedbacksResponse struct {
	Feedbacks  []domain.Feedback `json:"feedbacks"`
	Pagination Pagination        `json:"pagination"`
}

// ListFeedbacks godoc
// @ID          listFeedbacks
// @Summary     List daily feedbacks (paginated)
// @Description Returns rollup records, newest date first.
// @Tags        Feedbacks
// @Produce     json
//
// @Param       page       query  int  false "Page number"    minimum(1) default(1)
// @Param       page_size  query  int  false "Items per page" minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListFeedbacksResponse
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /feedbacks [get]
func (h *Handlers) ListFeedbacks(c *gin.Context) {
	page, pageSize := clampPagination(c)

	items, total, err := h.rollup.ListPage(c.Request.Context(), page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	ok(c, http.StatusOK, ListFeedbacksResponse{
		Feedbacks:  items,
		Pagination: paginate(page, pageSize, total),
	})
}

// RunRollup godoc
// @ID          runRollup
// @Summary     Run the daily rollup
// @Description Summarizes the day's activities into a feedback record and deletes the raw rows. Requires a reachable AI endpoint.
// @Tags        Feedbacks
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.RollupRequest  false  "Target date (defaults to today)"
//
// @Success     201  {object} domain.Feedback
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "No activities for date"
// @Failure     409  {object} handlers.ErrorResponse "Rollup already exists"
// @Failure     503  {object} handlers.ErrorResponse "AI unavailable"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /feedbacks/rollup [post]
func (h *Handlers) RunRollup(c *gin.Context) {
	var req RollupRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	date := time.Now()
	if req.Date != "" {
		parsed, err := time.ParseInLocation("2006-01-02", req.Date, time.Local)
		if err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "date must be YYYY-MM-DD")
			return
		}
		date = parsed
	}

	fb, err := h.rollup.Rollup(c.Request.Context(), date)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrRollupExists):
			fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
		case errors.Is(err, services.ErrNoActivities):
			fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
		case errors.Is(err, services.ErrAIRequired):
			fail(c, http.StatusServiceUnavailable, ErrCodeAIOffline, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeRollupFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusCreated, fb)
}
