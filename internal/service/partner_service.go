package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"erp-backend/internal/model"
	"erp-backend/internal/repository"

	"github.com/google/uuid"
)

// --- Partner DTOs ---

type CreatePartnerInput struct {
	Name          string `json:"name" binding:"required,max=255"`
	Type          string `json:"type" binding:"required"`
	GSTIN         string `json:"gstin" binding:"max=20"`
	ContactPerson string `json:"contact_person" binding:"max=255"`
	Phone         string `json:"phone" binding:"max=50"`
	Email         string `json:"email" binding:"max=255"`
	Address       string `json:"address"`
	PaymentTerms  *int   `json:"payment_terms" binding:"omitempty,gte=0,lte=365"`
}

type UpdatePartnerInput struct {
	Name          *string `json:"name" binding:"omitempty,min=1,max=255"`
	Type          *string `json:"type"`
	GSTIN         *string `json:"gstin" binding:"omitempty,max=20"`
	ContactPerson *string `json:"contact_person" binding:"omitempty,max=255"`
	Phone         *string `json:"phone" binding:"omitempty,max=50"`
	Email         *string `json:"email" binding:"omitempty,max=255"`
	Address       *string `json:"address"`
	PaymentTerms  *int    `json:"payment_terms" binding:"omitempty,gte=0,lte=365"`
	IsActive      *bool   `json:"is_active"`
}

// --- Interface ---

type PartnerService interface {
	CreatePartner(ctx context.Context, tenantID, userID uuid.UUID, in CreatePartnerInput) (*model.Partner, error)
	UpdatePartner(ctx context.Context, tenantID, userID, id uuid.UUID, in UpdatePartnerInput) (*model.Partner, error)
	GetPartner(ctx context.Context, tenantID, id uuid.UUID) (*model.Partner, error)
	ListPartners(ctx context.Context, tenantID uuid.UUID, partnerType, search string, page, limit int) ([]model.Partner, int64, error)
}

// --- Implementation ---

type partnerService struct {
	deps Deps
}

func NewPartnerService(deps Deps) PartnerService {
	return &partnerService{deps: deps.withDefaults()}
}

// --- Validation helpers ---

var validPartnerTypes = map[string]bool{
	model.PartnerTypeCustomer: true,
	model.PartnerTypeSupplier: true,
	model.PartnerTypeBoth:     true,
}

func checkPartnerType(verr *ValidationError, t string) {
	if !validPartnerTypes[t] {
		verr.Add("type", "must be one of: customer, supplier, both")
	}
}

func checkEmail(verr *ValidationError, email string) {
	if email == "" {
		return
	}
	if _, err := mail.ParseAddress(email); err != nil {
		verr.Add("email", "must be a valid email address")
	}
}

// requirePartner loads an active partner able to act as role on a document.
func requirePartner(ctx context.Context, repo repository.PartnerRepository, tenantID, id uuid.UUID, field, role string) (*model.Partner, error) {
	partner, err := repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, notFound(err, "partner", id)
	}
	if !partner.IsActive {
		return nil, invalid(field, "partner %s is inactive", id)
	}
	ok := partner.IsSupplier()
	if role == model.PartnerTypeCustomer {
		ok = partner.IsCustomer()
	}
	if !ok {
		return nil, invalid(field, "partner %s is not a %s", id, role)
	}
	return partner, nil
}

// --- CRUD ---

func (s *partnerService) CreatePartner(ctx context.Context, tenantID, userID uuid.UUID, in CreatePartnerInput) (*model.Partner, error) {
	verr := validateInput(in)
	checkPartnerType(verr, in.Type)
	checkEmail(verr, in.Email)
	if err := verr.OrNil(); err != nil {
		return nil, s.deps.failed(err)
	}

	terms := 30
	if in.PaymentTerms != nil {
		terms = *in.PaymentTerms
	}
	partner := &model.Partner{
		ID:            uuid.New(),
		TenantID:      tenantID,
		Name:          strings.TrimSpace(in.Name),
		Type:          in.Type,
		GSTIN:         strings.ToUpper(strings.TrimSpace(in.GSTIN)),
		ContactPerson: in.ContactPerson,
		Phone:         in.Phone,
		Email:         in.Email,
		Address:       in.Address,
		PaymentTerms:  terms,
		IsActive:      true,
	}

	err := s.deps.Store.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.deps.Store.Partners.Create(txCtx, partner); err != nil {
			return fmt.Errorf("failed to create partner: %w", err)
		}
		return writeAudit(txCtx, s.deps.Store.Audit, tenantID, userID, model.ActionCreatePartner, partner.ID.String(), partner.Name, in)
	})
	if err != nil {
		return nil, s.deps.failed(err)
	}
	return partner, nil
}

func (s *partnerService) UpdatePartner(ctx context.Context, tenantID, userID, id uuid.UUID, in UpdatePartnerInput) (*model.Partner, error) {
	verr := validateInput(in)
	if in.Type != nil {
		checkPartnerType(verr, *in.Type)
	}
	if in.Email != nil {
		checkEmail(verr, *in.Email)
	}
	if err := verr.OrNil(); err != nil {
		return nil, s.deps.failed(err)
	}

	var partner *model.Partner
	err := s.deps.Store.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		partner, err = s.deps.Store.Partners.FindByID(txCtx, tenantID, id)
		if err != nil {
			return notFound(err, "partner", id)
		}

		// Apply field updates
		if in.Name != nil {
			partner.Name = strings.TrimSpace(*in.Name)
		}
		if in.Type != nil {
			partner.Type = *in.Type
		}
		if in.GSTIN != nil {
			partner.GSTIN = strings.ToUpper(strings.TrimSpace(*in.GSTIN))
		}
		if in.ContactPerson != nil {
			partner.ContactPerson = *in.ContactPerson
		}
		if in.Phone != nil {
			partner.Phone = *in.Phone
		}
		if in.Email != nil {
			partner.Email = *in.Email
		}
		if in.Address != nil {
			partner.Address = *in.Address
		}
		if in.PaymentTerms != nil {
			partner.PaymentTerms = *in.PaymentTerms
		}
		if in.IsActive != nil {
			partner.IsActive = *in.IsActive
		}

		if err := s.deps.Store.Partners.Update(txCtx, partner); err != nil {
			return fmt.Errorf("failed to update partner: %w", err)
		}
		return writeAudit(txCtx, s.deps.Store.Audit, tenantID, userID, model.ActionUpdatePartner, partner.ID.String(), partner.Name, in)
	})
	if err != nil {
		return nil, s.deps.failed(err)
	}
	return partner, nil
}

func (s *partnerService) GetPartner(ctx context.Context, tenantID, id uuid.UUID) (*model.Partner, error) {
	partner, err := s.deps.Store.Partners.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, notFound(err, "partner", id)
	}
	return partner, nil
}

func (s *partnerService) ListPartners(ctx context.Context, tenantID uuid.UUID, partnerType, search string, page, limit int) ([]model.Partner, int64, error) {
	if partnerType != "" && !validPartnerTypes[partnerType] {
		return nil, 0, s.deps.failed(invalid("type", "must be one of: customer, supplier, both"))
	}
	partners, total, err := s.deps.Store.Partners.List(ctx, tenantID, partnerType, strings.TrimSpace(search), page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch partners: %w", err)
	}
	return partners, total, nil
}
