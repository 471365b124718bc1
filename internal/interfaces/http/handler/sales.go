package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	appsync "github.com/crosslister/backend/internal/application/sync"
	"github.com/crosslister/backend/internal/domain/sales"
	"github.com/crosslister/backend/internal/interfaces/http/dto"
)

// SalesHandler handles sale event endpoints
type SalesHandler struct {
	BaseHandler
	saleEvents sales.Repository
	emitter    appsync.SaleEmitter
}

// NewSalesHandler creates a new sales handler
func NewSalesHandler(saleEvents sales.Repository, emitter appsync.SaleEmitter, log *zap.Logger) *SalesHandler {
	return &SalesHandler{
		BaseHandler: NewBaseHandler(log),
		saleEvents:  saleEvents,
		emitter:     emitter,
	}
}

// RegisterRoutes registers the sales routes
func (h *SalesHandler) RegisterRoutes(r *gin.RouterGroup) {
	salesGroup := r.Group("/sales")
	{
		salesGroup.GET("", h.List)
		salesGroup.GET("/:id", h.Get)
		salesGroup.POST("/emissions/retry", h.RetryEmissions)
	}
}

// List returns sale events, filtered by product or sold-at time
func (h *SalesHandler) List(c *gin.Context) {
	var req dto.ListSalesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var (
		events []sales.SaleEvent
		err    error
	)
	switch {
	case req.ProductID != "":
		productID, parseErr := uuid.Parse(req.ProductID)
		if parseErr != nil {
			h.BadRequest(c, "Invalid product ID")
			return
		}
		events, err = h.saleEvents.FindByProduct(c.Request.Context(), productID)
	case req.Since != nil:
		events, err = h.saleEvents.FindSince(c.Request.Context(), *req.Since)
	default:
		events, err = h.saleEvents.FindSince(c.Request.Context(), time.Time{})
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.ToSaleEventResponses(events))
}

// Get returns one sale event
func (h *SalesHandler) Get(c *gin.Context) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid sale event ID")
		return
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		h.BadRequest(c, "Invalid sale event ID")
		return
	}

	event, err := h.saleEvents.FindByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.ToSaleEventResponse(event))
}

// RetryEmissions re-drives undelivered sale events to the ledger and export
func (h *SalesHandler) RetryEmissions(c *gin.Context) {
	completed, err := h.emitter.RetryPending(c.Request.Context())
	if err != nil {
		h.getLogger(c).Warn("Emission retry finished with errors", zap.Error(err))
	}

	h.Success(c, gin.H{"completed": completed})
}
