package service

import (
	"context"
	"encoding/json"
	"fmt"

	"erp-backend/internal/model"

	"github.com/google/uuid"
)

type AuditLogResponse struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	Action     string          `json:"action"`
	EntityID   string          `json:"entity_id"`
	EntityName string          `json:"entity_name"`
	Details    json.RawMessage `json:"details"`
	CreatedAt  string          `json:"created_at"`
}

type AuditService interface {
	ListAuditLogs(ctx context.Context, tenantID uuid.UUID, entityID string, page, limit int) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	deps Deps
}

// NewAuditService creates a new AuditService instance
func NewAuditService(deps Deps) AuditService {
	return &auditService{deps: deps.withDefaults()}
}

// ListAuditLogs returns the tenant's entries newest first, optionally for one entity.
func (s *auditService) ListAuditLogs(ctx context.Context, tenantID uuid.UUID, entityID string, page, limit int) ([]AuditLogResponse, int64, error) {
	logs, total, err := s.deps.Store.Audit.List(ctx, tenantID, entityID, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch audit logs: %w", err)
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		res = append(res, toAuditLogResponse(l))
	}
	return res, total, nil
}

func toAuditLogResponse(l model.AuditLog) AuditLogResponse {
	userID := ""
	if l.UserID != nil {
		userID = l.UserID.String()
	}
	details := json.RawMessage(l.Details)
	if !json.Valid(details) {
		details = json.RawMessage("{}")
	}
	return AuditLogResponse{
		ID:         l.ID.String(),
		UserID:     userID,
		Action:     l.Action,
		EntityID:   l.EntityID,
		EntityName: l.EntityName,
		Details:    details,
		CreatedAt:  l.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}
