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

type PurchaseHandler struct {
	purchaseService service.PurchaseService
	paymentService  service.PaymentService
	log             logrus.FieldLogger
}

func NewPurchaseHandler(purchaseService service.PurchaseService, paymentService service.PaymentService, log logrus.FieldLogger) *PurchaseHandler {
	return &PurchaseHandler{purchaseService: purchaseService, paymentService: paymentService, log: log}
}

func (h *PurchaseHandler) RegisterRoutes(router *gin.RouterGroup) {
	purchases := router.Group("", middleware.RequireFeature(FeaturePurchases))
	{
		purchases.GET("/purchase-orders", h.ListPurchaseOrders)
		purchases.POST("/purchase-orders", h.CreatePurchaseOrder)
		purchases.GET("/purchase-orders/:id", h.GetPurchaseOrder)
		purchases.POST("/purchase-orders/:id/submit", h.SubmitPurchaseOrder)
		purchases.POST("/purchase-orders/:id/receive", h.ReceivePurchaseOrder)
		purchases.POST("/purchase-orders/:id/cancel", h.CancelPurchaseOrder)

		purchases.GET("/bills", h.ListBills)
		purchases.GET("/bills/:id", h.GetBill)
		purchases.GET("/bills/:id/payments", h.ListBillPayments)
		purchases.POST("/bills/:id/payments", h.RecordBillPayment)
	}
}

// ListPurchaseOrders returns paginated purchase orders
// @Summary      List purchase orders
// @Tags         purchases
// @Security     BearerAuth
// @Produce      json
// @Param        status       query  string  false  "draft, pending, received or cancelled"
// @Param        supplier_id  query  string  false  "Supplier ID"
// @Param        page         query  int     false  "Page number (default 1)"
// @Param        limit        query  int     false  "Number of items per page (default 20)"
// @Success      200  {object}  response.Response{data=response.Page{items=[]model.PurchaseOrder}}
// @Router       /api/purchase-orders [get]
func (h *PurchaseHandler) ListPurchaseOrders(c *gin.Context) {
	filter, ok := documentFilter(c, "supplier_id")
	if !ok {
		return
	}
	tenantID, _ := caller(c)
	p := pagination.Parse(c)

	orders, total, err := h.purchaseService.ListPurchaseOrders(c.Request.Context(), tenantID, filter, p.Page, p.Limit)
	if err != nil {
		fail(c, h.log, "purchases", "ListPurchaseOrders", err)
		return
	}
	paged(c, orders, total, p)
}

// CreatePurchaseOrder opens a draft order
// @Summary      Create purchase order
// @Tags         purchases
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreatePurchaseOrderInput  true  "Purchase order"
// @Success      201      {object}  response.Response{data=model.PurchaseOrder}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/purchase-orders [post]
func (h *PurchaseHandler) CreatePurchaseOrder(c *gin.Context) {
	var req service.CreatePurchaseOrderInput
	if !bindJSON(c, &req) {
		return
	}
	tenantID, userID := caller(c)

	order, err := h.purchaseService.CreatePurchaseOrder(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		fail(c, h.log, "purchases", "CreatePurchaseOrder", err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, order))
}

// GetPurchaseOrder returns one order with its lines
// @Summary      Get purchase order
// @Tags         purchases
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Purchase order ID"
// @Success      200  {object}  response.Response{data=model.PurchaseOrder}
// @Failure      404  {object}  response.Response
// @Router       /api/purchase-orders/{id} [get]
func (h *PurchaseHandler) GetPurchaseOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	tenantID, _ := caller(c)

	order, err := h.purchaseService.GetPurchaseOrder(c.Request.Context(), tenantID, id)
	if err != nil {
		fail(c, h.log, "purchases", "GetPurchaseOrder", err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// SubmitPurchaseOrder moves a draft to pending
// @Summary      Submit purchase order
// @Tags         purchases
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Purchase order ID"
// @Success      200  {object}  response.Response{data=model.PurchaseOrder}
// @Failure      409  {object}  response.Response{details=service.InvalidStateError}
// @Router       /api/purchase-orders/{id}/submit [post]
func (h *PurchaseHandler) SubmitPurchaseOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	tenantID, userID := caller(c)

	order, err := h.purchaseService.SubmitPurchaseOrder(c.Request.Context(), tenantID, userID, id)
	if err != nil {
		fail(c, h.log, "purchases", "SubmitPurchaseOrder", err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// ReceivePurchaseOrder books the goods and creates the bill
// @Summary      Receive purchase order
// @Tags         purchases
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                             true   "Purchase order ID"
// @Param        payload  body      service.ReceivePurchaseOrderInput  false  "Bill dates"
// @Success      200      {object}  response.Response{data=service.ReceiveResult}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response{details=service.InvalidStateError}
// @Router       /api/purchase-orders/{id}/receive [post]
func (h *PurchaseHandler) ReceivePurchaseOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.ReceivePurchaseOrderInput
	if !bindOptionalJSON(c, &req) {
		return
	}
	tenantID, userID := caller(c)

	result, err := h.purchaseService.ReceivePurchaseOrder(c.Request.Context(), tenantID, userID, id, req)
	if err != nil {
		fail(c, h.log, "purchases", "ReceivePurchaseOrder", err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// CancelPurchaseOrder cancels a draft or pending order
// @Summary      Cancel purchase order
// @Tags         purchases
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Purchase order ID"
// @Success      200  {object}  response.Response{data=model.PurchaseOrder}
// @Failure      409  {object}  response.Response{details=service.InvalidStateError}
// @Router       /api/purchase-orders/{id}/cancel [post]
func (h *PurchaseHandler) CancelPurchaseOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	tenantID, userID := caller(c)

	order, err := h.purchaseService.CancelPurchaseOrder(c.Request.Context(), tenantID, userID, id)
	if err != nil {
		fail(c, h.log, "purchases", "CancelPurchaseOrder", err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// ListBills returns paginated bills
// @Summary      List bills
// @Tags         purchases
// @Security     BearerAuth
// @Produce      json
// @Param        status       query  string  false  "pending, partial or paid"
// @Param        supplier_id  query  string  false  "Supplier ID"
// @Param        page         query  int     false  "Page number (default 1)"
// @Param        limit        query  int     false  "Number of items per page (default 20)"
// @Success      200  {object}  response.Response{data=response.Page{items=[]model.Bill}}
// @Router       /api/bills [get]
func (h *PurchaseHandler) ListBills(c *gin.Context) {
	filter, ok := documentFilter(c, "supplier_id")
	if !ok {
		return
	}
	tenantID, _ := caller(c)
	p := pagination.Parse(c)

	bills, total, err := h.purchaseService.ListBills(c.Request.Context(), tenantID, filter, p.Page, p.Limit)
	if err != nil {
		fail(c, h.log, "purchases", "ListBills", err)
		return
	}
	paged(c, bills, total, p)
}

// GetBill returns one bill
// @Summary      Get bill
// @Tags         purchases
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Bill ID"
// @Success      200  {object}  response.Response{data=model.Bill}
// @Failure      404  {object}  response.Response
// @Router       /api/bills/{id} [get]
func (h *PurchaseHandler) GetBill(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	tenantID, _ := caller(c)

	bill, err := h.purchaseService.GetBill(c.Request.Context(), tenantID, id)
	if err != nil {
		fail(c, h.log, "purchases", "GetBill", err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, bill))
}

// ListBillPayments lists the payments made against a bill
// @Summary      Bill payments
// @Tags         purchases
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Bill ID"
// @Success      200  {object}  response.Response{data=[]model.Payment}
// @Router       /api/bills/{id}/payments [get]
func (h *PurchaseHandler) ListBillPayments(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	tenantID, _ := caller(c)

	payments, err := h.paymentService.ListPayments(c.Request.Context(), tenantID, model.PaymentDocBill, id)
	if err != nil {
		fail(c, h.log, "purchases", "ListBillPayments", err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, payments))
}

// RecordBillPayment pays part or all of a bill
// @Summary      Record bill payment
// @Tags         purchases
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                      true  "Bill ID"
// @Param        payload  body      service.RecordPaymentInput  true  "Payment"
// @Success      201      {object}  response.Response{data=service.PaymentResult}
// @Failure      400      {object}  response.Response
// @Failure      422      {object}  response.Response{details=service.OverpaymentError}
// @Router       /api/bills/{id}/payments [post]
func (h *PurchaseHandler) RecordBillPayment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.RecordPaymentInput
	if !bindJSON(c, &req) {
		return
	}
	tenantID, userID := caller(c)

	result, err := h.paymentService.RecordBillPayment(c.Request.Context(), tenantID, userID, id, req)
	if err != nil {
		fail(c, h.log, "purchases", "RecordBillPayment", err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}
