// Pending-queue HTTP handlers.
//
//   - GET /queue        (pending/processed counts)
//   - PUT /queue/drain  (manual drain: one pass over the queue)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// QueueStatusResponse reports the queue depth.
type QueueStatusResponse struct {
	Pending   int64 `json:"pending"`
	Processed int64 `json:"processed"`
}

// QueueStatus godoc
// @ID          queueStatus
// @Summary     Pending queue status
// @Description Returns how many inputs are waiting and how many were already replayed.
// @Tags        Queue
// @Produce     json
//
// @Success     200  {object} handlers.QueueStatusResponse
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /queue [get]
func (h *Handlers) QueueStatus(c *gin.Context) {
	pending, processed, err := h.queue.Counts(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, QueueStatusResponse{Pending: pending, Processed: processed})
}

// DrainQueue godoc
// @ID          drainQueue
// @Summary     Drain the pending queue
// @Description Runs one drain pass: items are processed oldest first until the queue is empty or an item must stay queued (AI still unreachable).
// @Tags        Queue
// @Produce     json
//
// @Success     200  {object} services.DrainSummary
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /queue/drain [put]
func (h *Handlers) DrainQueue(c *gin.Context) {
	sum, err := h.queue.DrainAll(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeDrainFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, sum)
}
