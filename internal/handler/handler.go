package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"erp-backend/internal/middleware"
	"erp-backend/internal/repository"
	"erp-backend/internal/service"
	"erp-backend/pkg/pagination"
	"erp-backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Route features a token's plan may include.
const (
	FeatureInventory = "inventory"
	FeaturePurchases = "purchases"
	FeatureSales     = "sales"
	FeatureReturns   = "returns"
	FeatureLedgers   = "ledgers"
)

// Register mounts every subsystem under /api behind RequireAuth.
func Register(router *gin.Engine, svc *service.Services, secret []byte, log logrus.FieldLogger) {
	api := router.Group("/api", middleware.RequireAuth(secret))

	NewInventoryHandler(svc.Inventory, log).RegisterRoutes(api)
	NewPurchaseHandler(svc.Purchases, svc.Payments, log).RegisterRoutes(api)
	NewSalesHandler(svc.Sales, svc.Payments, log).RegisterRoutes(api)
	NewReturnHandler(svc.Returns, log).RegisterRoutes(api)
	NewLedgerHandler(svc.Ledgers, log).RegisterRoutes(api)
	NewPartnerHandler(svc.Partners, log).RegisterRoutes(api)
	NewAuditHandler(svc.Audit, log).RegisterRoutes(api)
}

// caller returns the tenant and user of the authenticated request.
func caller(c *gin.Context) (tenantID, userID uuid.UUID) {
	id, _ := middleware.IdentityFrom(c)
	return id.TenantID, id.UserID
}

// pathID parses the :name path parameter and answers 400 when it is not a uuid.
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid "+name+": must be a UUID"))
		return uuid.Nil, false
	}
	return id, true
}

// documentFilter reads status, party_id and type query parameters.
func documentFilter(c *gin.Context, partyParam string) (repository.DocumentFilter, bool) {
	filter := repository.DocumentFilter{Status: c.Query("status"), Type: c.Query("type")}
	if raw := c.Query(partyParam); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid "+partyParam+": must be a UUID"))
			return filter, false
		}
		filter.PartyID = id
	}
	return filter, true
}

// bindJSON only decodes; field rules live in the service so every caller
// gets the same structured ValidationError.
func bindJSON(c *gin.Context, dst any) bool {
	if err := json.NewDecoder(c.Request.Body).Decode(dst); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return false
	}
	return true
}

// bindOptionalJSON accepts an empty body as the zero value.
func bindOptionalJSON(c *gin.Context, dst any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	return bindJSON(c, dst)
}

func paged(c *gin.Context, items any, total int64, p pagination.Params) {
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, items, total, p.Page, p.Limit, p.Pages(total)))
}

// StatusFor maps a service error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound), errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidState), errors.Is(err, service.ErrConsistency):
		return http.StatusConflict
	case errors.Is(err, service.ErrInsufficientStock), errors.Is(err, service.ErrOverpayment):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as an error response. Domain errors carry themselves as
// details; anything else is logged and answered with a generic message.
func fail(c *gin.Context, log logrus.FieldLogger, module, funcName string, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		log.WithFields(logrus.Fields{"module": module, "funcName": funcName, "path": c.Request.URL.Path}).WithError(err).Error("request failed")
		c.JSON(status, response.Error(status, "Internal server error"))
		return
	}
	c.JSON(status, response.ErrorWithDetails(status, err.Error(), details(err)))
}

func details(err error) any {
	var (
		verr  *service.ValidationError
		short *service.InsufficientStockError
		state *service.InvalidStateError
		cons  *service.ConsistencyError
		over  *service.OverpaymentError
		nf    *service.NotFoundError
	)
	switch {
	case errors.As(err, &verr):
		return verr.Fields
	case errors.As(err, &short):
		return short
	case errors.As(err, &state):
		return state
	case errors.As(err, &cons):
		return cons
	case errors.As(err, &over):
		return over
	case errors.As(err, &nf):
		return nf
	default:
		return nil
	}
}
