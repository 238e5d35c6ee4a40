package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/oolongworks/teausage/internal/service"
)

// UsageHandler exposes pipeline summaries over HTTP.
type UsageHandler struct {
	service *service.UsageService
}

func NewUsageHandler(usageService *service.UsageService) *UsageHandler {
	return &UsageHandler{service: usageService}
}

// GetDailySummary handles GET /usage/daily?from=YYYY-MM-DD&to=YYYY-MM-DD.
func (h *UsageHandler) GetDailySummary(c *gin.Context) {
	from, ok := parseDateParam(c, "from")
	if !ok {
		return
	}
	to, ok := parseDateParam(c, "to")
	if !ok {
		return
	}

	rows, err := h.service.DailySummary(c.Request.Context(), from, to)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load daily summary")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}

// GetWeekdaySummary handles GET /usage/weekday.
func (h *UsageHandler) GetWeekdaySummary(c *gin.Context) {
	rows, err := h.service.WeekdaySummary(c.Request.Context())
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load weekday summary")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}

// GetBagUsage handles GET /usage/monthly_bags.
func (h *UsageHandler) GetBagUsage(c *gin.Context) {
	rows, err := h.service.BagUsage(c.Request.Context())
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load monthly bag usage")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}

// GetRunReport handles GET /usage/report: the latest run's validation
// metrics, unknown-token audit, jelly summary and month coverage.
func (h *UsageHandler) GetRunReport(c *gin.Context) {
	report, err := h.service.RunReport()
	if err != nil {
		errorResponse(c, http.StatusNotFound, "no pipeline run report available")
		return
	}
	c.Data(http.StatusOK, "application/json", report)
}

func parseDateParam(c *gin.Context, name string) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, true
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid "+name+" date, expected YYYY-MM-DD")
		return time.Time{}, false
	}
	return t, true
}

func errorResponse(c *gin.Context, statusCode int, message string) {
	log.Error().Msg(message)
	c.JSON(statusCode, gin.H{"error": message})
}
