package handler

import (
	"net/http"
	"strings"

	"erp-backend/internal/middleware"
	"erp-backend/internal/service"
	"erp-backend/pkg/pagination"
	"erp-backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type InventoryHandler struct {
	inventoryService service.InventoryService
	log              logrus.FieldLogger
}

func NewInventoryHandler(inventoryService service.InventoryService, log logrus.FieldLogger) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService, log: log}
}

func (h *InventoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	inventory := router.Group("", middleware.RequireFeature(FeatureInventory))
	{
		inventory.GET("/products", h.GetProducts)
		inventory.GET("/products/low-stock", h.GetLowStock)
		inventory.GET("/products/:id", h.GetProduct)
		inventory.POST("/products", h.CreateProduct)
		inventory.PUT("/products/:id", h.UpdateProduct)
		inventory.DELETE("/products/:id", h.DeleteProduct)
		inventory.POST("/products/:id/adjustments", h.AdjustStock)
		inventory.GET("/products/:id/movements", h.GetMovements)
		inventory.GET("/products/:id/verify", h.VerifyStock)
		inventory.GET("/stock/verify", middleware.RequireRole("admin", "manager"), h.VerifyAllStock)
	}
}

// GetProducts handles retrieving paginated inventory statuses
// @Summary      Get products
// @Description  Retrieves a paginated list of products with current stock
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Param        search  query     string  false  "Search by name or SKU"
// @Success      200    {object}  response.Response{data=response.Page{items=[]model.Product}}
// @Failure      500    {object}  response.Response
// @Router       /api/products [get]
func (h *InventoryHandler) GetProducts(c *gin.Context) {
	tenantID, _ := caller(c)
	p := pagination.Parse(c)

	products, total, err := h.inventoryService.ListProducts(c.Request.Context(), tenantID, c.Query("search"), p.Page, p.Limit)
	if err != nil {
		fail(c, h.log, "inventory", "GetProducts", err)
		return
	}
	paged(c, products, total, p)
}

// GetLowStock lists products at or below their reorder level
// @Summary      Low stock products
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.Product}
// @Router       /api/products/low-stock [get]
func (h *InventoryHandler) GetLowStock(c *gin.Context) {
	tenantID, _ := caller(c)
	products, err := h.inventoryService.ListLowStock(c.Request.Context(), tenantID)
	if err != nil {
		fail(c, h.log, "inventory", "GetLowStock", err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, products))
}

// GetProduct returns one product
// @Summary      Get product
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response{data=model.Product}
// @Failure      404  {object}  response.Response
// @Router       /api/products/{id} [get]
func (h *InventoryHandler) GetProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	tenantID, _ := caller(c)

	product, err := h.inventoryService.GetProduct(c.Request.Context(), tenantID, id)
	if err != nil {
		fail(c, h.log, "inventory", "GetProduct", err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// CreateProduct creates a new inventory product entry
// @Summary      Create product
// @Description  Creates a product. A positive opening_stock is booked as an adjustment movement.
// @Tags         inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateProductInput  true  "Create Product Payload"
// @Success      201      {object}  response.Response{data=model.Product}
// @Failure      400      {object}  response.Response
// @Failure      500      {object}  response.Response
// @Router       /api/products [post]
func (h *InventoryHandler) CreateProduct(c *gin.Context) {
	var req service.CreateProductInput
	if !bindJSON(c, &req) {
		return
	}
	tenantID, userID := caller(c)

	product, err := h.inventoryService.CreateProduct(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		fail(c, h.log, "inventory", "CreateProduct", err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, product))
}

// UpdateProduct updates an existing product's metadata
// @Summary      Update product
// @Description  Updates metadata and prices. Stock is changed only through adjustments and documents.
// @Tags         inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                      true  "Product ID"
// @Param        payload  body      service.UpdateProductInput  true  "Update Product Payload"
// @Success      200      {object}  response.Response{data=model.Product}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/products/{id} [put]
func (h *InventoryHandler) UpdateProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateProductInput
	if !bindJSON(c, &req) {
		return
	}
	tenantID, userID := caller(c)

	product, err := h.inventoryService.UpdateProduct(c.Request.Context(), tenantID, userID, id, req)
	if err != nil {
		fail(c, h.log, "inventory", "UpdateProduct", err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// DeleteProduct removes a product entry softly
// @Summary      Delete product
// @Description  Soft deletes a product by ID
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/products/{id} [delete]
func (h *InventoryHandler) DeleteProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	tenantID, userID := caller(c)

	if err := h.inventoryService.DeleteProduct(c.Request.Context(), tenantID, userID, id); err != nil {
		fail(c, h.log, "inventory", "DeleteProduct", err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Product deleted successfully"))
}

// AdjustStock books a manual stock correction
// @Summary      Adjust stock
// @Description  Writes one adjustment movement. Reusing an adjustment_id is rejected with 409.
// @Tags         inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                    true  "Product ID"
// @Param        payload  body      service.AdjustStockInput  true  "Adjustment"
// @Success      201      {object}  response.Response{data=model.StockMovement}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.Response{details=service.InsufficientStockError}
// @Router       /api/products/{id}/adjustments [post]
func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.AdjustStockInput
	if !bindJSON(c, &req) {
		return
	}
	req.Note = strings.TrimSpace(req.Note)
	tenantID, userID := caller(c)

	movement, err := h.inventoryService.AdjustStock(c.Request.Context(), tenantID, userID, id, req)
	if err != nil {
		fail(c, h.log, "inventory", "AdjustStock", err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, movement))
}

// GetMovements lists a product's movement log newest first
// @Summary      Product movements
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        id     path   string  true   "Product ID"
// @Param        page   query  int     false  "Page number (default 1)"
// @Param        limit  query  int     false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=response.Page{items=[]model.StockMovement}}
// @Router       /api/products/{id}/movements [get]
func (h *InventoryHandler) GetMovements(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	tenantID, _ := caller(c)
	p := pagination.Parse(c)

	movements, total, err := h.inventoryService.ListMovements(c.Request.Context(), tenantID, id, p.Page, p.Limit)
	if err != nil {
		fail(c, h.log, "inventory", "GetMovements", err)
		return
	}
	paged(c, movements, total, p)
}

// VerifyStock compares one product's counter with its movement log
// @Summary      Verify product stock
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response{data=service.StockDrift}
// @Router       /api/products/{id}/verify [get]
func (h *InventoryHandler) VerifyStock(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	tenantID, _ := caller(c)

	drift, err := h.inventoryService.VerifyStock(c.Request.Context(), tenantID, id)
	if err != nil {
		fail(c, h.log, "inventory", "VerifyStock", err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, drift))
}

// VerifyAllStock replays every product's movement log
// @Summary      Verify all stock
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.StockAudit}
// @Router       /api/stock/verify [get]
func (h *InventoryHandler) VerifyAllStock(c *gin.Context) {
	tenantID, _ := caller(c)

	audit, err := h.inventoryService.VerifyAllStock(c.Request.Context(), tenantID)
	if err != nil {
		fail(c, h.log, "inventory", "VerifyAllStock", err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, audit))
}
