package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/semdin/sellerx-backend/internal/application/report"
	"github.com/semdin/sellerx-backend/internal/interfaces/http/dto"
)

// StatsHandler serves the dashboard financial metrics
type StatsHandler struct {
	BaseHandler
	stats    *report.StatsService
	location *time.Location
}

// NewStatsHandler creates a new StatsHandler
func NewStatsHandler(stats *report.StatsService, location *time.Location) *StatsHandler {
	return &StatsHandler{stats: stats, location: location}
}

// Get resolves the requested period and returns the store's metrics.
// Presets resolve against the business timezone; a custom range needs
// both bounds and is interpreted as [from, to+1d) in that zone.
func (h *StatsHandler) Get(c *gin.Context) {
	storeID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "invalid store id")
		return
	}

	var query dto.StatsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	from, to, err := h.resolveRange(query)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	stats, err := h.stats.Stats(c.Request.Context(), storeID, from, to)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}

func (h *StatsHandler) resolveRange(query dto.StatsQuery) (time.Time, time.Time, error) {
	if query.From != "" || query.To != "" {
		from, err := time.ParseInLocation(dto.LotDateFormat, query.From, h.location)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to, err := time.ParseInLocation(dto.LotDateFormat, query.To, h.location)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		return from, to.AddDate(0, 0, 1), nil
	}
	return report.PeriodRange(query.Period, time.Now(), h.location)
}
