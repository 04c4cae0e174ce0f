package handler

import (
	"net/http"

	"erp-backend/internal/middleware"
	"erp-backend/internal/model"
	"erp-backend/internal/service"
	"erp-backend/pkg/pagination"
	"erp-backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type SalesHandler struct {
	salesService   service.SalesService
	paymentService service.PaymentService
	log            logrus.FieldLogger
}

func NewSalesHandler(salesService service.SalesService, paymentService service.PaymentService, log logrus.FieldLogger) *SalesHandler {
	return &SalesHandler{salesService: salesService, paymentService: paymentService, log: log}
}

func (h *SalesHandler) RegisterRoutes(router *gin.RouterGroup) {
	sales := router.Group("", middleware.RequireFeature(FeatureSales))
	{
		sales.GET("/sales-orders", h.ListSalesOrders)
		sales.POST("/sales-orders", h.CreateSalesOrder)
		sales.GET("/sales-orders/:id", h.GetSalesOrder)
		sales.POST("/sales-orders/:id/confirm", h.ConfirmSalesOrder)
		sales.POST("/sales-orders/:id/invoice", h.GenerateInvoice)
		sales.POST("/sales-orders/:id/cancel", h.CancelSalesOrder)

		sales.GET("/invoices", h.ListInvoices)
		sales.GET("/invoices/:id", h.GetInvoice)
		sales.GET("/invoices/:id/payments", h.ListInvoicePayments)
		sales.POST("/invoices/:id/payments", h.RecordInvoicePayment)
	}
}

// ListSalesOrders returns paginated sales orders
// @Summary      List sales orders
// @Tags         sales
// @Security     BearerAuth
// @Produce      json
// @Param        status       query  string  false  "draft, confirmed, delivered or cancelled"
// @Param        customer_id  query  string  false  "Customer ID"
// @Param        page         query  int     false  "Page number (default 1)"
// @Param        limit        query  int     false  "Number of items per page (default 20)"
// @Success      200  {object}  response.Response{data=response.Page{items=[]model.SalesOrder}}
// @Router       /api/sales-orders [get]
func (h *SalesHandler) ListSalesOrders(c *gin.Context) {
	filter, ok := documentFilter(c, "customer_id")
	if !ok {
		return
	}
	tenantID, _ := caller(c)
	p := pagination.Parse(c)

	orders, total, err := h.salesService.ListSalesOrders(c.Request.Context(), tenantID, filter, p.Page, p.Limit)
	if err != nil {
		fail(c, h.log, "sales", "ListSalesOrders", err)
		return
	}
	paged(c, orders, total, p)
}

// CreateSalesOrder opens a draft order
// @Summary      Create sales order
// @Tags         sales
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateSalesOrderInput  true  "Sales order"
// @Success      201      {object}  response.Response{data=model.SalesOrder}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/sales-orders [post]
func (h *SalesHandler) CreateSalesOrder(c *gin.Context) {
	var req service.CreateSalesOrderInput
	if !bindJSON(c, &req) {
		return
	}
	tenantID, userID := caller(c)

	order, err := h.salesService.CreateSalesOrder(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		fail(c, h.log, "sales", "CreateSalesOrder", err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, order))
}

// GetSalesOrder returns one order with its lines
// @Summary      Get sales order
// @Tags         sales
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Sales order ID"
// @Success      200  {object}  response.Response{data=model.SalesOrder}
// @Failure      404  {object}  response.Response
// @Router       /api/sales-orders/{id} [get]
func (h *SalesHandler) GetSalesOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	tenantID, _ := caller(c)

	order, err := h.salesService.GetSalesOrder(c.Request.Context(), tenantID, id)
	if err != nil {
		fail(c, h.log, "sales", "GetSalesOrder", err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// ConfirmSalesOrder confirms a draft after checking stock on hand
// @Summary      Confirm sales order
// @Tags         sales
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Sales order ID"
// @Success      200  {object}  response.Response{data=model.SalesOrder}
// @Failure      409  {object}  response.Response{details=service.InvalidStateError}
// @Failure      422  {object}  response.Response{details=service.InsufficientStockError}
// @Router       /api/sales-orders/{id}/confirm [post]
func (h *SalesHandler) ConfirmSalesOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	tenantID, userID := caller(c)

	order, err := h.salesService.ConfirmSalesOrder(c.Request.Context(), tenantID, userID, id)
	if err != nil {
		fail(c, h.log, "sales", "ConfirmSalesOrder", err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// GenerateInvoice invoices a confirmed order and ships its goods
// @Summary      Generate invoice
// @Tags         sales
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true   "Sales order ID"
// @Param        payload  body      service.GenerateInvoiceInput  false  "Invoice dates"
// @Success      200      {object}  response.Response{data=service.InvoiceResult}
// @Failure      409      {object}  response.Response{details=service.InvalidStateError}
// @Failure      422      {object}  response.Response{details=service.InsufficientStockError}
// @Router       /api/sales-orders/{id}/invoice [post]
func (h *SalesHandler) GenerateInvoice(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.GenerateInvoiceInput
	if !bindOptionalJSON(c, &req) {
		return
	}
	tenantID, userID := caller(c)

	result, err := h.salesService.GenerateInvoice(c.Request.Context(), tenantID, userID, id, req)
	if err != nil {
		fail(c, h.log, "sales", "GenerateInvoice", err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// CancelSalesOrder cancels a draft or confirmed order
// @Summary      Cancel sales order
// @Tags         sales
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Sales order ID"
// @Success      200  {object}  response.Response{data=model.SalesOrder}
// @Failure      409  {object}  response.Response{details=service.InvalidStateError}
// @Router       /api/sales-orders/{id}/cancel [post]
func (h *SalesHandler) CancelSalesOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	tenantID, userID := caller(c)

	order, err := h.salesService.CancelSalesOrder(c.Request.Context(), tenantID, userID, id)
	if err != nil {
		fail(c, h.log, "sales", "CancelSalesOrder", err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// ListInvoices returns paginated invoices
// @Summary      List invoices
// @Tags         sales
// @Security     BearerAuth
// @Produce      json
// @Param        status       query  string  false  "pending, partial, paid or overdue"
// @Param        customer_id  query  string  false  "Customer ID"
// @Param        page         query  int     false  "Page number (default 1)"
// @Param        limit        query  int     false  "Number of items per page (default 20)"
// @Success      200  {object}  response.Response{data=response.Page{items=[]model.Invoice}}
// @Router       /api/invoices [get]
func (h *SalesHandler) ListInvoices(c *gin.Context) {
	filter, ok := documentFilter(c, "customer_id")
	if !ok {
		return
	}
	tenantID, _ := caller(c)
	p := pagination.Parse(c)

	invoices, total, err := h.salesService.ListInvoices(c.Request.Context(), tenantID, filter, p.Page, p.Limit)
	if err != nil {
		fail(c, h.log, "sales", "ListInvoices", err)
		return
	}
	paged(c, invoices, total, p)
}

// GetInvoice returns one invoice
// @Summary      Get invoice
// @Tags         sales
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response{data=model.Invoice}
// @Failure      404  {object}  response.Response
// @Router       /api/invoices/{id} [get]
func (h *SalesHandler) GetInvoice(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	tenantID, _ := caller(c)

	invoice, err := h.salesService.GetInvoice(c.Request.Context(), tenantID, id)
	if err != nil {
		fail(c, h.log, "sales", "GetInvoice", err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// ListInvoicePayments lists the payments received against an invoice
// @Summary      Invoice payments
// @Tags         sales
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response{data=[]model.Payment}
// @Router       /api/invoices/{id}/payments [get]
func (h *SalesHandler) ListInvoicePayments(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	tenantID, _ := caller(c)

	payments, err := h.paymentService.ListPayments(c.Request.Context(), tenantID, model.PaymentDocInvoice, id)
	if err != nil {
		fail(c, h.log, "sales", "ListInvoicePayments", err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, payments))
}

// RecordInvoicePayment records a customer payment
// @Summary      Record invoice payment
// @Tags         sales
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                      true  "Invoice ID"
// @Param        payload  body      service.RecordPaymentInput  true  "Payment"
// @Success      201      {object}  response.Response{data=service.PaymentResult}
// @Failure      400      {object}  response.Response
// @Failure      422      {object}  response.Response{details=service.OverpaymentError}
// @Router       /api/invoices/{id}/payments [post]
func (h *SalesHandler) RecordInvoicePayment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.RecordPaymentInput
	if !bindJSON(c, &req) {
		return
	}
	tenantID, userID := caller(c)

	result, err := h.paymentService.RecordInvoicePayment(c.Request.Context(), tenantID, userID, id, req)
	if err != nil {
		fail(c, h.log, "sales", "RecordInvoicePayment", err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}
