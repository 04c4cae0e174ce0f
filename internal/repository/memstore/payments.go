package memstore

import (
	"context"
	"slices"
	"time"

	"erp-backend/internal/model"

	"github.com/google/uuid"
)

type paymentRepo struct{ db *DB }

func (r *paymentRepo) Create(ctx context.Context, payment *model.Payment) error {
	return r.db.write(ctx, func(st *state) error {
		r.db.stamp(&payment.ID, &payment.CreatedAt, nil)
		st.payments = append(st.payments, *payment)
		return nil
	})
}

func (r *paymentRepo) ListByDocument(ctx context.Context, tenantID uuid.UUID, documentType string, documentID uuid.UUID) ([]model.Payment, error) {
	var out []model.Payment
	_ = r.db.read(ctx, func(st *state) error {
		for _, p := range st.payments {
			if p.TenantID == tenantID && p.DocumentType == documentType && p.DocumentID == documentID {
				out = append(out, p)
			}
		}
		return nil
	})
	slices.SortStableFunc(out, func(a, b model.Payment) int { return a.PaymentDate.Compare(b.PaymentDate) })
	return out, nil
}

func (r *paymentRepo) ListByParty(ctx context.Context, tenantID uuid.UUID, documentType string, partyID uuid.UUID, to *time.Time) ([]model.Payment, error) {
	var out []model.Payment
	_ = r.db.read(ctx, func(st *state) error {
		for _, p := range st.payments {
			if p.TenantID == tenantID && p.DocumentType == documentType && p.PartyID == partyID && onOrBefore(p.PaymentDate, to) {
				out = append(out, p)
			}
		}
		return nil
	})
	return out, nil
}
