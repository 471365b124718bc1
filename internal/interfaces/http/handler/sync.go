package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	appsync "github.com/crosslister/backend/internal/application/sync"
	"github.com/crosslister/backend/internal/domain/listing"
	"github.com/crosslister/backend/internal/infrastructure/scheduler"
	"github.com/crosslister/backend/internal/interfaces/http/dto"
)

// SyncHandler handles marketplace synchronization endpoints
type SyncHandler struct {
	BaseHandler
	coordinator *appsync.Coordinator
	sweeper     *appsync.Sweeper
	registry    listing.Registry
	scheduler   *scheduler.SweepScheduler
}

// NewSyncHandler creates a new sync handler. The scheduler may be nil when
// background sweeps are disabled; the sweep endpoints then report that.
func NewSyncHandler(
	coordinator *appsync.Coordinator,
	sweeper *appsync.Sweeper,
	registry listing.Registry,
	sched *scheduler.SweepScheduler,
	log *zap.Logger,
) *SyncHandler {
	return &SyncHandler{
		BaseHandler: NewBaseHandler(log),
		coordinator: coordinator,
		sweeper:     sweeper,
		registry:    registry,
		scheduler:   sched,
	}
}

// RegisterRoutes registers the sync routes
func (h *SyncHandler) RegisterRoutes(r *gin.RouterGroup) {
	products := r.Group("/products")
	{
		products.POST("/:id/sync", h.SyncToPlatform)
		products.POST("/:id/crosspost", h.CrossPost)
		products.POST("/:id/sold", h.MarkSold)
		products.POST("/:id/flag-sync", h.FlagForSync)
	}

	sync := r.Group("/sync")
	{
		sync.GET("/platforms", h.Platforms)
		sync.POST("/import", h.Import)
		sync.POST("/sweep", h.TriggerSweep)
		sync.GET("/runs", h.SweepRuns)
	}
}

// SyncToPlatform pushes one product to one platform
func (h *SyncHandler) SyncToPlatform(c *gin.Context) {
	productID, ok := h.bindProductID(c)
	if !ok {
		return
	}

	var req dto.SyncToPlatformRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	platform, ok := dto.ParsePlatform(req.Platform)
	if !ok {
		h.Error(c, "INVALID_PLATFORM", "Unknown platform: "+req.Platform)
		return
	}

	record, err := h.coordinator.SyncProductToPlatform(c.Request.Context(), productID, platform)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if record == nil {
		// The push failed; the record carries the error and stays flagged
		// for the next sweep.
		h.Error(c, dto.ErrCodeSyncIncomplete, "Platform push failed; the listing will be retried by the next sweep")
		return
	}

	h.Success(c, dto.ToListingResponse(record))
}

// CrossPost pushes one product to several platforms at once
func (h *SyncHandler) CrossPost(c *gin.Context) {
	productID, ok := h.bindProductID(c)
	if !ok {
		return
	}

	var req dto.CrossPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	platforms := make([]listing.Platform, 0, len(req.Platforms))
	for _, raw := range req.Platforms {
		platform, ok := dto.ParsePlatform(raw)
		if !ok {
			h.Error(c, "INVALID_PLATFORM", "Unknown platform: "+raw)
			return
		}
		platforms = append(platforms, platform)
	}

	report, err := h.coordinator.CrossPost(c.Request.Context(), productID, platforms)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, report)
}

// MarkSold records a sale and delists the product everywhere else
func (h *SyncHandler) MarkSold(c *gin.Context) {
	productID, ok := h.bindProductID(c)
	if !ok {
		return
	}

	var req dto.MarkSoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	platform, ok := dto.ParsePlatform(req.Platform)
	if !ok {
		h.Error(c, "INVALID_PLATFORM", "Unknown platform: "+req.Platform)
		return
	}

	soldAt := time.Now()
	if req.SoldAt != nil {
		soldAt = *req.SoldAt
	}

	report, err := h.coordinator.MarkProductSold(c.Request.Context(), productID, platform, req.SalePrice, req.Fees, soldAt)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, report)
}

// FlagForSync marks all of the product's listings stale
func (h *SyncHandler) FlagForSync(c *gin.Context) {
	productID, ok := h.bindProductID(c)
	if !ok {
		return
	}

	flagged, err := h.coordinator.FlagForSync(c.Request.Context(), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"flagged": flagged})
}

// Platforms lists the registered marketplace platforms
func (h *SyncHandler) Platforms(c *gin.Context) {
	platforms := h.registry.Platforms()
	result := make([]gin.H, len(platforms))
	for i, p := range platforms {
		result[i] = gin.H{
			"platform":     p.String(),
			"display_name": p.DisplayName(),
		}
	}
	h.Success(c, result)
}

// Import pulls a platform's active listings into the catalog
func (h *SyncHandler) Import(c *gin.Context) {
	var req dto.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	platform, ok := dto.ParsePlatform(req.Platform)
	if !ok {
		h.Error(c, "INVALID_PLATFORM", "Unknown platform: "+req.Platform)
		return
	}

	report, err := h.sweeper.ImportFromPlatform(c.Request.Context(), platform)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, report)
}

// TriggerSweep requests an immediate reconciliation sweep
func (h *SyncHandler) TriggerSweep(c *gin.Context) {
	if h.scheduler == nil {
		h.Error(c, "INVALID_STATE", "Background sweeps are disabled")
		return
	}

	err := h.scheduler.TriggerNow()
	switch {
	case errors.Is(err, scheduler.ErrSweepInProgress):
		h.Error(c, dto.ErrCodeSweepBusy, "A sweep is already running")
	case errors.Is(err, scheduler.ErrSchedulerNotRunning):
		h.Error(c, "INVALID_STATE", "The sweep scheduler is not running")
	case err != nil:
		h.HandleError(c, err)
	default:
		c.JSON(http.StatusAccepted, dto.NewSuccessResponse(gin.H{"triggered": true}))
	}
}

// SweepRuns returns recent sweep runs, newest first
func (h *SyncHandler) SweepRuns(c *gin.Context) {
	if h.scheduler == nil {
		h.Error(c, "INVALID_STATE", "Background sweeps are disabled")
		return
	}

	limit := 10
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.BadRequest(c, "Invalid limit")
			return
		}
		limit = parsed
	}

	h.Success(c, h.scheduler.History(limit))
}

// bindProductID binds and parses the :id parameter
func (h *SyncHandler) bindProductID(c *gin.Context) (uuid.UUID, bool) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid product ID")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return uuid.Nil, false
	}
	return id, true
}
