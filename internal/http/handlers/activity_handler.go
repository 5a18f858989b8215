// Activity HTTP handlers.
//
//   - GET /activities        (list, paginated)
//   - GET /activities/today  (current local day, oldest first)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ltavares/tempo-backend/internal/domain"
)

// ListActivitiesResponse wraps a page of activities and pagination info.
type ListActivitiesResponse struct {
	Activities []domain.Activity `json:"activities"`
	Pagination Pagination        `json:"pagination"`
}

// ListActivities godoc
// @ID          listActivities
// @Summary     List activities (paginated)
// @Description Returns a page of registered activities, oldest first.
// @Tags        Activities
// @Produce     json
//
// @Param       page       query  int  false "Page number"    minimum(1) default(1)
// @Param       page_size  query  int  false "Items per page" minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListActivitiesResponse
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /activities [get]
func (h *Handlers) ListActivities(c *gin.Context) {
	page, pageSize := clampPagination(c)

	items, total, err := h.acts.ListPage(c.Request.Context(), page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	ok(c, http.StatusOK, ListActivitiesResponse{
		Activities: items,
		Pagination: paginate(page, pageSize, total),
	})
}

// TodayActivities godoc
// @ID          todayActivities
// @Summary     List today's activities
// @Description Returns the current local day's activities, oldest first.
// @Tags        Activities
// @Produce     json
//
// @Success     200  {object} map[string]any
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /activities/today [get]
func (h *Handlers) TodayActivities(c *gin.Context) {
	items, err := h.acts.Today(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalMinutes := 0
	for _, a := range items {
		if a.DurationMinutes != nil {
			totalMinutes += *a.DurationMinutes
		}
	}
	ok(c, http.StatusOK, gin.H{
		"activities":    items,
		"count":         len(items),
		"total_minutes": totalMinutes,
	})
}
