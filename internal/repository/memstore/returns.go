package memstore

import (
	"context"
	"slices"
	"time"

	"erp-backend/internal/model"
	"erp-backend/internal/repository"

	"github.com/google/uuid"
)

type returnRepo struct{ db *DB }

func (r *returnRepo) Create(ctx context.Context, ret *model.Return) error {
	return r.db.write(ctx, func(st *state) error {
		for _, existing := range st.returns {
			if existing.TenantID == ret.TenantID && existing.ReturnNumber == ret.ReturnNumber {
				return repository.ErrDuplicate
			}
		}
		r.db.stamp(&ret.ID, &ret.CreatedAt, &ret.UpdatedAt)
		for i := range ret.Items {
			r.db.stamp(&ret.Items[i].ID, nil, nil)
			ret.Items[i].ReturnID = ret.ID
		}
		stored := *ret
		stored.Items = slices.Clone(ret.Items)
		st.returns[ret.ID] = stored
		return nil
	})
}

func (r *returnRepo) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Return, error) {
	var out *model.Return
	err := r.db.read(ctx, func(st *state) error {
		ret, ok := st.returns[id]
		if !ok || ret.TenantID != tenantID {
			return repository.ErrNotFound
		}
		ret.Items = slices.Clone(ret.Items)
		out = &ret
		return nil
	})
	return out, err
}

func (r *returnRepo) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*model.Return, error) {
	return r.FindByID(ctx, tenantID, id)
}

func (r *returnRepo) UpdateStatus(ctx context.Context, ret *model.Return) error {
	return r.db.write(ctx, func(st *state) error {
		current, ok := st.returns[ret.ID]
		if !ok || current.TenantID != ret.TenantID {
			return repository.ErrNotFound
		}
		current.Status = ret.Status
		current.RejectionReason = ret.RejectionReason
		current.DecidedBy = ret.DecidedBy
		current.DecidedAt = ret.DecidedAt
		current.UpdatedAt = r.db.now()
		ret.UpdatedAt = current.UpdatedAt
		st.returns[ret.ID] = current
		return nil
	})
}

func (r *returnRepo) List(ctx context.Context, tenantID uuid.UUID, filter repository.DocumentFilter, page, limit int) ([]model.Return, int64, error) {
	var all []model.Return
	_ = r.db.read(ctx, func(st *state) error {
		for _, ret := range st.returns {
			if ret.TenantID != tenantID ||
				(filter.Type != "" && ret.ReturnType != filter.Type) ||
				(filter.Status != "" && ret.Status != filter.Status) ||
				(filter.PartyID != uuid.Nil && ret.PartyID != filter.PartyID) {
				continue
			}
			ret.Items = slices.Clone(ret.Items)
			all = append(all, ret)
		}
		return nil
	})
	slices.SortFunc(all, func(a, b model.Return) int { return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID) })
	return paginate(all, page, limit), int64(len(all)), nil
}

func (r *returnRepo) SumApprovedQuantities(ctx context.Context, tenantID uuid.UUID, returnType string, sourceDocumentID uuid.UUID) (map[uuid.UUID]int, error) {
	sums := make(map[uuid.UUID]int)
	_ = r.db.read(ctx, func(st *state) error {
		for _, ret := range st.returns {
			if ret.TenantID != tenantID || ret.ReturnType != returnType ||
				ret.SourceDocumentID != sourceDocumentID || ret.Status != model.ReturnStatusApproved {
				continue
			}
			for _, item := range ret.Items {
				sums[item.ProductID] += item.Quantity
			}
		}
		return nil
	})
	return sums, nil
}

func (r *returnRepo) ListApprovedByParty(ctx context.Context, tenantID uuid.UUID, returnType string, partyID uuid.UUID, to *time.Time) ([]model.Return, error) {
	var out []model.Return
	_ = r.db.read(ctx, func(st *state) error {
		for _, ret := range st.returns {
			if ret.TenantID == tenantID && ret.ReturnType == returnType && ret.PartyID == partyID &&
				ret.Status == model.ReturnStatusApproved && onOrBefore(ret.ReturnDate, to) {
				ret.Items = slices.Clone(ret.Items)
				out = append(out, ret)
			}
		}
		return nil
	})
	return out, nil
}
