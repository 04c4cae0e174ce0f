package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"erp-backend/internal/export"
	"erp-backend/internal/middleware"
	"erp-backend/internal/service"
	"erp-backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type LedgerHandler struct {
	ledgerService service.LedgerService
	log           logrus.FieldLogger
}

func NewLedgerHandler(ledgerService service.LedgerService, log logrus.FieldLogger) *LedgerHandler {
	return &LedgerHandler{ledgerService: ledgerService, log: log}
}

func (h *LedgerHandler) RegisterRoutes(router *gin.RouterGroup) {
	ledgers := router.Group("/ledgers", middleware.RequireFeature(FeatureLedgers))
	{
		ledgers.GET("/suppliers/:id", h.SupplierLedger)
		ledgers.GET("/suppliers/:id/export", h.ExportSupplierLedger)
		ledgers.GET("/customers/:id", h.CustomerLedger)
		ledgers.GET("/customers/:id/export", h.ExportCustomerLedger)
	}
}

type statementFunc func(c *gin.Context, partyID uuid.UUID, q service.LedgerQuery) (*service.Statement, error)

func (h *LedgerHandler) supplier(c *gin.Context, partyID uuid.UUID, q service.LedgerQuery) (*service.Statement, error) {
	tenantID, _ := caller(c)
	return h.ledgerService.SupplierLedger(c.Request.Context(), tenantID, partyID, q)
}

func (h *LedgerHandler) customer(c *gin.Context, partyID uuid.UUID, q service.LedgerQuery) (*service.Statement, error) {
	tenantID, _ := caller(c)
	return h.ledgerService.CustomerLedger(c.Request.Context(), tenantID, partyID, q)
}

func (h *LedgerHandler) statement(c *gin.Context, funcName string, load statementFunc) (*service.Statement, bool) {
	id, ok := pathID(c, "id")
	if !ok {
		return nil, false
	}
	q := service.LedgerQuery{From: c.Query("from"), To: c.Query("to")}

	st, err := load(c, id, q)
	if err != nil {
		fail(c, h.log, "ledger", funcName, err)
		return nil, false
	}
	return st, true
}

// SupplierLedger returns a supplier's running balance
// @Summary      Supplier ledger
// @Description  Bills debit the balance; payments and approved purchase returns credit it.
// @Tags         ledgers
// @Security     BearerAuth
// @Produce      json
// @Param        id    path   string  true   "Supplier ID"
// @Param        from  query  string  false  "First day, YYYY-MM-DD"
// @Param        to    query  string  false  "Last day, YYYY-MM-DD"
// @Success      200   {object}  response.Response{data=service.Statement}
// @Failure      400   {object}  response.Response
// @Failure      404   {object}  response.Response
// @Router       /api/ledgers/suppliers/{id} [get]
func (h *LedgerHandler) SupplierLedger(c *gin.Context) {
	if st, ok := h.statement(c, "SupplierLedger", h.supplier); ok {
		c.JSON(http.StatusOK, response.Success(http.StatusOK, st))
	}
}

// CustomerLedger returns a customer's running balance
// @Summary      Customer ledger
// @Description  Invoices debit the balance; payments and approved sales returns credit it.
// @Tags         ledgers
// @Security     BearerAuth
// @Produce      json
// @Param        id    path   string  true   "Customer ID"
// @Param        from  query  string  false  "First day, YYYY-MM-DD"
// @Param        to    query  string  false  "Last day, YYYY-MM-DD"
// @Success      200   {object}  response.Response{data=service.Statement}
// @Failure      400   {object}  response.Response
// @Failure      404   {object}  response.Response
// @Router       /api/ledgers/customers/{id} [get]
func (h *LedgerHandler) CustomerLedger(c *gin.Context) {
	if st, ok := h.statement(c, "CustomerLedger", h.customer); ok {
		c.JSON(http.StatusOK, response.Success(http.StatusOK, st))
	}
}

// ExportSupplierLedger downloads a supplier ledger
// @Summary      Export supplier ledger
// @Tags         ledgers
// @Security     BearerAuth
// @Produce      text/csv
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        id      path   string  true   "Supplier ID"
// @Param        format  query  string  false  "csv (default) or xlsx"
// @Param        from    query  string  false  "First day, YYYY-MM-DD"
// @Param        to      query  string  false  "Last day, YYYY-MM-DD"
// @Success      200
// @Failure      400     {object}  response.Response
// @Router       /api/ledgers/suppliers/{id}/export [get]
func (h *LedgerHandler) ExportSupplierLedger(c *gin.Context) {
	h.export(c, "ExportSupplierLedger", "supplier", h.supplier)
}

// ExportCustomerLedger downloads a customer ledger
// @Summary      Export customer ledger
// @Tags         ledgers
// @Security     BearerAuth
// @Produce      text/csv
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        id      path   string  true   "Customer ID"
// @Param        format  query  string  false  "csv (default) or xlsx"
// @Param        from    query  string  false  "First day, YYYY-MM-DD"
// @Param        to      query  string  false  "Last day, YYYY-MM-DD"
// @Success      200
// @Failure      400     {object}  response.Response
// @Router       /api/ledgers/customers/{id}/export [get]
func (h *LedgerHandler) ExportCustomerLedger(c *gin.Context) {
	h.export(c, "ExportCustomerLedger", "customer", h.customer)
}

// export renders the whole file before writing so a failure still gets a JSON error.
func (h *LedgerHandler) export(c *gin.Context, funcName, party string, load statementFunc) {
	format := strings.ToLower(c.DefaultQuery("format", export.FormatCSV))
	contentType, err := export.ContentType(format)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	st, ok := h.statement(c, funcName, load)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, export.LedgerSheet(st.PartyName, st.Entries)); err != nil {
		fail(c, h.log, "ledger", funcName, fmt.Errorf("render %s ledger: %w", format, err))
		return
	}

	filename := fmt.Sprintf("%s-ledger-%s.%s", party, st.PartyID, format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
