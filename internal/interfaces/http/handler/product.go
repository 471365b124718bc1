package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	appsync "github.com/crosslister/backend/internal/application/sync"
	"github.com/crosslister/backend/internal/domain/catalog"
	"github.com/crosslister/backend/internal/domain/listing"
	"github.com/crosslister/backend/internal/interfaces/http/dto"
)

// ProductHandler handles catalog item endpoints
type ProductHandler struct {
	BaseHandler
	products    catalog.ProductRepository
	listings    listing.Repository
	coordinator *appsync.Coordinator
}

// NewProductHandler creates a new product handler
func NewProductHandler(
	products catalog.ProductRepository,
	listings listing.Repository,
	coordinator *appsync.Coordinator,
	log *zap.Logger,
) *ProductHandler {
	return &ProductHandler{
		BaseHandler: NewBaseHandler(log),
		products:    products,
		listings:    listings,
		coordinator: coordinator,
	}
}

// RegisterRoutes registers the product routes
func (h *ProductHandler) RegisterRoutes(r *gin.RouterGroup) {
	products := r.Group("/products")
	{
		products.POST("", h.Create)
		products.GET("", h.List)
		products.GET("/:id", h.Get)
		products.PUT("/:id", h.Update)
		products.PUT("/:id/attributes", h.UpdateAttributes)
		products.PUT("/:id/images", h.UpdateImages)
		products.DELETE("/:id", h.Delete)
		products.GET("/:id/listings", h.Listings)
	}
}

// Create adds a new item to the catalog
func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	product, err := catalog.NewProduct(req.Title, req.Price)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	product.Description = req.Description
	product.SetAttributes(req.Category, req.Size, req.Condition, req.Brand, req.Color)
	if len(req.Images) > 0 {
		product.SetImages(req.Images)
	}

	if err := h.products.Save(c.Request.Context(), product); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, dto.ToProductResponse(product))
}

// List returns catalog items, optionally filtered by status.
// Without a status filter it returns the listable items.
func (h *ProductHandler) List(c *gin.Context) {
	var req dto.ListProductsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var (
		products []catalog.Product
		err      error
	)
	if req.Status != "" {
		products, err = h.products.FindByStatus(c.Request.Context(), catalog.ProductStatus(req.Status))
	} else {
		products, err = h.products.FindListable(c.Request.Context())
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.ToProductResponses(products))
}

// Get returns one catalog item
func (h *ProductHandler) Get(c *gin.Context) {
	product, ok := h.findProduct(c)
	if !ok {
		return
	}
	h.Success(c, dto.ToProductResponse(product))
}

// Update updates the item's listing content and flags its listings for sync
func (h *ProductHandler) Update(c *gin.Context) {
	product, ok := h.findProduct(c)
	if !ok {
		return
	}

	var req dto.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if err := product.Update(req.Title, req.Description, req.Price); err != nil {
		h.HandleError(c, err)
		return
	}
	if err := h.products.Save(c.Request.Context(), product); err != nil {
		h.HandleError(c, err)
		return
	}
	if _, err := h.coordinator.FlagForSync(c.Request.Context(), product.ID); err != nil {
		h.getLogger(c).Warn("Failed to flag listings for sync",
			zap.String("product_id", product.ID.String()), zap.Error(err))
	}

	h.Success(c, dto.ToProductResponse(product))
}

// UpdateAttributes sets the item attributes and flags its listings for sync
func (h *ProductHandler) UpdateAttributes(c *gin.Context) {
	product, ok := h.findProduct(c)
	if !ok {
		return
	}

	var req dto.UpdateProductAttributesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	product.SetAttributes(req.Category, req.Size, req.Condition, req.Brand, req.Color)
	if err := h.products.Save(c.Request.Context(), product); err != nil {
		h.HandleError(c, err)
		return
	}
	if _, err := h.coordinator.FlagForSync(c.Request.Context(), product.ID); err != nil {
		h.getLogger(c).Warn("Failed to flag listings for sync",
			zap.String("product_id", product.ID.String()), zap.Error(err))
	}

	h.Success(c, dto.ToProductResponse(product))
}

// UpdateImages replaces the item's images and flags its listings for sync
func (h *ProductHandler) UpdateImages(c *gin.Context) {
	product, ok := h.findProduct(c)
	if !ok {
		return
	}

	var req dto.UpdateProductImagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	product.SetImages(req.Images)
	if err := h.products.Save(c.Request.Context(), product); err != nil {
		h.HandleError(c, err)
		return
	}
	if _, err := h.coordinator.FlagForSync(c.Request.Context(), product.ID); err != nil {
		h.getLogger(c).Warn("Failed to flag listings for sync",
			zap.String("product_id", product.ID.String()), zap.Error(err))
	}

	h.Success(c, dto.ToProductResponse(product))
}

// Delete removes the item from every platform, then from the catalog
func (h *ProductHandler) Delete(c *gin.Context) {
	product, ok := h.findProduct(c)
	if !ok {
		return
	}

	if err := h.coordinator.DeleteProductEverywhere(c.Request.Context(), product.ID); err != nil {
		h.HandleError(c, err)
		return
	}
	if err := h.products.Delete(c.Request.Context(), product.ID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Listings returns the item's platform listing records
func (h *ProductHandler) Listings(c *gin.Context) {
	product, ok := h.findProduct(c)
	if !ok {
		return
	}

	records, err := h.listings.FindByProduct(c.Request.Context(), product.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.ToListingResponses(records))
}

// findProduct binds the :id parameter and loads the product, writing the
// error response itself when either step fails.
func (h *ProductHandler) findProduct(c *gin.Context) (*catalog.Product, bool) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid product ID")
		return nil, false
	}

	id, err := uuid.Parse(req.ID)
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return nil, false
	}

	product, err := h.products.FindByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return nil, false
	}

	return product, true
}
