package handler

import (
	"erp-backend/internal/middleware"
	"erp-backend/internal/service"
	"erp-backend/pkg/pagination"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type AuditHandler struct {
	auditService service.AuditService
	log          logrus.FieldLogger
}

func NewAuditHandler(auditService service.AuditService, log logrus.FieldLogger) *AuditHandler {
	return &AuditHandler{auditService: auditService, log: log}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/audit-logs")
	group.Use(middleware.RequireRole("admin", "manager")) // Protect history logs
	{
		group.GET("", h.GetAuditLogs)
	}
}

// GetAuditLogs retrieves the tenant's audit trail newest first
// @Summary      Get audit logs
// @Description  Every document transition and stock change writes one entry in the same transaction.
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Number of items per page (default 20)"
// @Param        entity_id  query     string  false  "Only entries about this entity"
// @Success      200    {object}  response.Response{data=response.Page{items=[]service.AuditLogResponse}}
// @Router       /api/audit-logs [get]
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	tenantID, _ := caller(c)
	p := pagination.Parse(c)

	logs, total, err := h.auditService.ListAuditLogs(c.Request.Context(), tenantID, c.Query("entity_id"), p.Page, p.Limit)
	if err != nil {
		fail(c, h.log, "audit", "GetAuditLogs", err)
		return
	}
	paged(c, logs, total, p)
}
