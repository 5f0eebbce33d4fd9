package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/receiptwatch/internal/server/http/dto"
)

// OperationsHandler serves operator endpoints.
type OperationsHandler struct {
	facade   OperationsFacade
	location *time.Location
	now      func() time.Time
}

// NewOperationsHandler constructs OperationsHandler. location defines today when no date is given.
func NewOperationsHandler(facade OperationsFacade, location *time.Location) *OperationsHandler {
	if location == nil {
		location = time.UTC
	}
	return &OperationsHandler{facade: facade, location: location, now: time.Now}
}

// RunReminders handles POST /api/admin/reminders/run?date=YYYY-MM-DD.
func (h *OperationsHandler) RunReminders(c *gin.Context) {
	today := h.now().In(h.location)
	if raw := c.Query("date"); raw != "" {
		parsed, err := dto.ParseDate(raw)
		if err != nil {
			writeError(c, err)
			return
		}
		today = parsed
	}

	summary, err := h.facade.RunScheduler(c.Request.Context(), today)
	if err != nil {
		c.JSON(http.StatusInternalServerError, summary)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Health handles GET /healthz.
func (h *OperationsHandler) Health(c *gin.Context) {
	if err := h.facade.Health(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
