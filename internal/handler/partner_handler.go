package handler

import (
	"net/http"

	"erp-backend/internal/service"
	"erp-backend/pkg/pagination"
	"erp-backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type PartnerHandler struct {
	partnerService service.PartnerService
	log            logrus.FieldLogger
}

func NewPartnerHandler(partnerService service.PartnerService, log logrus.FieldLogger) *PartnerHandler {
	return &PartnerHandler{partnerService: partnerService, log: log}
}

func (h *PartnerHandler) RegisterRoutes(router *gin.RouterGroup) {
	partners := router.Group("/partners")
	{
		partners.GET("", h.ListPartners)
		partners.POST("", h.CreatePartner)
		partners.GET("/:id", h.GetPartner)
		partners.PUT("/:id", h.UpdatePartner)
	}
}

// ListPartners returns paginated partners with optional type/search filter
// @Summary      List partners
// @Tags         partners
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default: 1)"
// @Param        limit   query     int     false  "Items per page (default: 20)"
// @Param        type    query     string  false  "Filter by type: customer, supplier, both"
// @Param        search  query     string  false  "Search by name, GSTIN, phone, email"
// @Success      200  {object}  response.Response{data=response.Page{items=[]model.Partner}}
// @Failure      400  {object}  response.Response
// @Router       /api/partners [get]
func (h *PartnerHandler) ListPartners(c *gin.Context) {
	tenantID, _ := caller(c)
	p := pagination.Parse(c)

	partners, total, err := h.partnerService.ListPartners(c.Request.Context(), tenantID, c.Query("type"), c.Query("search"), p.Page, p.Limit)
	if err != nil {
		fail(c, h.log, "partners", "ListPartners", err)
		return
	}
	paged(c, partners, total, p)
}

// CreatePartner creates a supplier or customer
// @Summary      Create partner
// @Tags         partners
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreatePartnerInput  true  "Partner"
// @Success      201      {object}  response.Response{data=model.Partner}
// @Failure      400      {object}  response.Response
// @Router       /api/partners [post]
func (h *PartnerHandler) CreatePartner(c *gin.Context) {
	var req service.CreatePartnerInput
	if !bindJSON(c, &req) {
		return
	}
	tenantID, userID := caller(c)

	partner, err := h.partnerService.CreatePartner(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		fail(c, h.log, "partners", "CreatePartner", err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, partner))
}

// GetPartner returns one partner
// @Summary      Get partner
// @Tags         partners
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Partner ID"
// @Success      200  {object}  response.Response{data=model.Partner}
// @Failure      404  {object}  response.Response
// @Router       /api/partners/{id} [get]
func (h *PartnerHandler) GetPartner(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	tenantID, _ := caller(c)

	partner, err := h.partnerService.GetPartner(c.Request.Context(), tenantID, id)
	if err != nil {
		fail(c, h.log, "partners", "GetPartner", err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, partner))
}

// UpdatePartner updates the sent fields of a partner
// @Summary      Update partner
// @Tags         partners
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                      true  "Partner ID"
// @Param        payload  body      service.UpdatePartnerInput  true  "Fields to change"
// @Success      200      {object}  response.Response{data=model.Partner}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/partners/{id} [put]
func (h *PartnerHandler) UpdatePartner(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.UpdatePartnerInput
	if !bindJSON(c, &req) {
		return
	}
	tenantID, userID := caller(c)

	partner, err := h.partnerService.UpdatePartner(c.Request.Context(), tenantID, userID, id, req)
	if err != nil {
		fail(c, h.log, "partners", "UpdatePartner", err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, partner))
}
