package handler

import (
	"net/http"

	"erp-backend/internal/middleware"
	"erp-backend/internal/service"
	"erp-backend/pkg/pagination"
	"erp-backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type ReturnHandler struct {
	returnService service.ReturnService
	log           logrus.FieldLogger
}

func NewReturnHandler(returnService service.ReturnService, log logrus.FieldLogger) *ReturnHandler {
	return &ReturnHandler{returnService: returnService, log: log}
}

func (h *ReturnHandler) RegisterRoutes(router *gin.RouterGroup) {
	returns := router.Group("/returns", middleware.RequireFeature(FeatureReturns))
	{
		returns.GET("", h.ListReturns)
		returns.POST("/purchase", h.CreatePurchaseReturn)
		returns.POST("/sales", h.CreateSalesReturn)
		returns.GET("/:id", h.GetReturn)
		returns.POST("/:id/approve", middleware.RequireRole("admin", "manager"), h.ApproveReturn)
		returns.POST("/:id/reject", middleware.RequireRole("admin", "manager"), h.RejectReturn)
	}
}

// ListReturns returns paginated returns
// @Summary      List returns
// @Tags         returns
// @Security     BearerAuth
// @Produce      json
// @Param        type      query  string  false  "purchase or sales"
// @Param        status    query  string  false  "pending, approved or rejected"
// @Param        party_id  query  string  false  "Supplier or customer ID"
// @Param        page      query  int     false  "Page number (default 1)"
// @Param        limit     query  int     false  "Number of items per page (default 20)"
// @Success      200  {object}  response.Response{data=response.Page{items=[]model.Return}}
// @Router       /api/returns [get]
func (h *ReturnHandler) ListReturns(c *gin.Context) {
	filter, ok := documentFilter(c, "party_id")
	if !ok {
		return
	}
	tenantID, _ := caller(c)
	p := pagination.Parse(c)

	returns, total, err := h.returnService.ListReturns(c.Request.Context(), tenantID, filter, p.Page, p.Limit)
	if err != nil {
		fail(c, h.log, "returns", "ListReturns", err)
		return
	}
	paged(c, returns, total, p)
}

// CreatePurchaseReturn opens a return of billed goods to the supplier
// @Summary      Create purchase return
// @Tags         returns
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateReturnInput  true  "source_document_id is the bill"
// @Success      201      {object}  response.Response{data=model.Return}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/returns/purchase [post]
func (h *ReturnHandler) CreatePurchaseReturn(c *gin.Context) {
	var req service.CreateReturnInput
	if !bindJSON(c, &req) {
		return
	}
	tenantID, userID := caller(c)

	ret, err := h.returnService.CreatePurchaseReturn(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		fail(c, h.log, "returns", "CreatePurchaseReturn", err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, ret))
}

// CreateSalesReturn opens a return of invoiced goods from the customer
// @Summary      Create sales return
// @Tags         returns
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateReturnInput  true  "source_document_id is the invoice"
// @Success      201      {object}  response.Response{data=model.Return}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/returns/sales [post]
func (h *ReturnHandler) CreateSalesReturn(c *gin.Context) {
	var req service.CreateReturnInput
	if !bindJSON(c, &req) {
		return
	}
	tenantID, userID := caller(c)

	ret, err := h.returnService.CreateSalesReturn(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		fail(c, h.log, "returns", "CreateSalesReturn", err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, ret))
}

// GetReturn returns one return with its lines
// @Summary      Get return
// @Tags         returns
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Return ID"
// @Success      200  {object}  response.Response{data=model.Return}
// @Failure      404  {object}  response.Response
// @Router       /api/returns/{id} [get]
func (h *ReturnHandler) GetReturn(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	tenantID, _ := caller(c)

	ret, err := h.returnService.GetReturn(c.Request.Context(), tenantID, id)
	if err != nil {
		fail(c, h.log, "returns", "GetReturn", err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, ret))
}

// ApproveReturn approves a pending return and moves its stock
// @Summary      Approve return
// @Tags         returns
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Return ID"
// @Success      200  {object}  response.Response{data=model.Return}
// @Failure      400  {object}  response.Response
// @Failure      409  {object}  response.Response{details=service.InvalidStateError}
// @Failure      422  {object}  response.Response{details=service.InsufficientStockError}
// @Router       /api/returns/{id}/approve [post]
func (h *ReturnHandler) ApproveReturn(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	tenantID, userID := caller(c)

	ret, err := h.returnService.ApproveReturn(c.Request.Context(), tenantID, userID, id)
	if err != nil {
		fail(c, h.log, "returns", "ApproveReturn", err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, ret))
}

// RejectReturn rejects a pending return
// @Summary      Reject return
// @Tags         returns
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                     true  "Return ID"
// @Param        payload  body      service.RejectReturnInput  true  "Reason"
// @Success      200      {object}  response.Response{data=model.Return}
// @Failure      409      {object}  response.Response{details=service.InvalidStateError}
// @Router       /api/returns/{id}/reject [post]
func (h *ReturnHandler) RejectReturn(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.RejectReturnInput
	if !bindJSON(c, &req) {
		return
	}
	tenantID, userID := caller(c)

	ret, err := h.returnService.RejectReturn(c.Request.Context(), tenantID, userID, id, req)
	if err != nil {
		fail(c, h.log, "returns", "RejectReturn", err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, ret))
}
