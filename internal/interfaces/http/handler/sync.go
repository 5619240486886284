package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	appcatalog "github.com/semdin/sellerx-backend/internal/application/catalog"
	apporders "github.com/semdin/sellerx-backend/internal/application/orders"
	"github.com/semdin/sellerx-backend/internal/infrastructure/scheduler"
	"github.com/semdin/sellerx-backend/internal/interfaces/http/dto"
)

// SyncHandler exposes the manual sync and resync triggers. Syncs run
// inline and return their summaries; nothing here self-schedules.
type SyncHandler struct {
	BaseHandler
	ingest      *apporders.IngestService
	settlements *apporders.SettlementService
	resync      *apporders.ResyncService
	products    *appcatalog.ProductService
	jobs        *scheduler.StoreSyncScheduler
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(
	ingest *apporders.IngestService,
	settlements *apporders.SettlementService,
	resync *apporders.ResyncService,
	products *appcatalog.ProductService,
	jobs *scheduler.StoreSyncScheduler,
) *SyncHandler {
	return &SyncHandler{
		ingest:      ingest,
		settlements: settlements,
		resync:      resync,
		products:    products,
		jobs:        jobs,
	}
}

// SyncOrders pulls the store's order feed and ingests it
func (h *SyncHandler) SyncOrders(c *gin.Context) {
	storeID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "invalid store id")
		return
	}

	summary, err := h.ingest.Sync(c.Request.Context(), storeID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// SyncSettlements pulls and reconciles the store's settlement feeds
func (h *SyncHandler) SyncSettlements(c *gin.Context) {
	storeID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "invalid store id")
		return
	}

	summary, err := h.settlements.Sync(c.Request.Context(), storeID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// SyncProducts pulls the store's catalog and upserts products by barcode
func (h *SyncHandler) SyncProducts(c *gin.Context) {
	storeID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "invalid store id")
		return
	}

	summary, err := h.products.SyncCatalog(c.Request.Context(), storeID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// Resync recomputes cost attribution for every product of the store from
// the given cutoff day, or the full history when no cutoff is given.
func (h *SyncHandler) Resync(c *gin.Context) {
	storeID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "invalid store id")
		return
	}

	// The body is optional: an empty request resyncs the full history
	var req dto.ResyncRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, err.Error())
			return
		}
	}

	var from time.Time
	if req.From != "" {
		from, err = time.Parse(dto.LotDateFormat, req.From)
		if err != nil {
			h.BadRequest(c, "invalid from date, expected YYYY-MM-DD")
			return
		}
	}

	summary, err := h.resync.ResyncStore(c.Request.Context(), storeID, from)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// JobHistoryEntry is one completed scheduler job
type JobHistoryEntry struct {
	ID          string     `json:"id"`
	StoreID     string     `json:"store_id"`
	Kind        string     `json:"kind"`
	Status      string     `json:"status"`
	Summary     string     `json:"summary,omitempty"`
	Error       string     `json:"error,omitempty"`
	RetryCount  int        `json:"retry_count"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// JobHistory returns the scheduler's recent job history for a store
func (h *SyncHandler) JobHistory(c *gin.Context) {
	storeID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "invalid store id")
		return
	}

	jobs := h.jobs.GetJobHistoryByStore(storeID, 50)
	result := make([]JobHistoryEntry, 0, len(jobs))
	for _, job := range jobs {
		result = append(result, JobHistoryEntry{
			ID:          job.ID.String(),
			StoreID:     job.StoreID.String(),
			Kind:        string(job.Kind),
			Status:      string(job.Status),
			Summary:     job.Summary,
			Error:       job.Error,
			RetryCount:  job.RetryCount,
			StartedAt:   job.StartedAt,
			CompletedAt: job.CompletedAt,
		})
	}
	h.Success(c, result)
}
