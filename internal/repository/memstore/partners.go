package memstore

import (
	"context"
	"slices"
	"strings"

	"erp-backend/internal/model"
	"erp-backend/internal/repository"

	"github.com/google/uuid"
)

type partnerRepo struct{ db *DB }

func (r *partnerRepo) Create(ctx context.Context, partner *model.Partner) error {
	return r.db.write(ctx, func(st *state) error {
		r.db.stamp(&partner.ID, &partner.CreatedAt, &partner.UpdatedAt)
		st.partners[partner.ID] = *partner
		return nil
	})
}

func (r *partnerRepo) Update(ctx context.Context, partner *model.Partner) error {
	return r.db.write(ctx, func(st *state) error {
		current, ok := st.partners[partner.ID]
		if !ok || current.TenantID != partner.TenantID || current.DeletedAt.Valid {
			return repository.ErrNotFound
		}
		partner.CreatedAt = current.CreatedAt
		partner.UpdatedAt = r.db.now()
		st.partners[partner.ID] = *partner
		return nil
	})
}

func (r *partnerRepo) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Partner, error) {
	var out *model.Partner
	err := r.db.read(ctx, func(st *state) error {
		p, ok := st.partners[id]
		if !ok || p.TenantID != tenantID || p.DeletedAt.Valid {
			return repository.ErrNotFound
		}
		out = &p
		return nil
	})
	return out, err
}

func (r *partnerRepo) List(ctx context.Context, tenantID uuid.UUID, partnerType, search string, page, limit int) ([]model.Partner, int64, error) {
	var all []model.Partner
	_ = r.db.read(ctx, func(st *state) error {
		for _, p := range st.partners {
			if p.TenantID != tenantID || p.DeletedAt.Valid {
				continue
			}
			if partnerType != "" && p.Type != partnerType && p.Type != model.PartnerTypeBoth {
				continue
			}
			if search != "" && !containsFold(p.Name, search) && !containsFold(p.Phone, search) &&
				!containsFold(p.Email, search) && !containsFold(p.GSTIN, search) {
				continue
			}
			all = append(all, p)
		}
		return nil
	})
	slices.SortFunc(all, func(a, b model.Partner) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return compareID(a.ID, b.ID)
	})
	return paginate(all, page, limit), int64(len(all)), nil
}
