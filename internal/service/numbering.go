package service

import (
	"context"
	"fmt"
	"time"

	"erp-backend/internal/repository"

	"github.com/google/uuid"
)

// DocumentNumberer issues <PREFIX>-<YYYYMMDD>-<seq> numbers that are unique
// per tenant, prefix and day. Next must run inside the transaction that
// creates the document.
type DocumentNumberer struct {
	seq repository.SequenceRepository
	now func() time.Time
}

func NewDocumentNumberer(seq repository.SequenceRepository, now func() time.Time) *DocumentNumberer {
	if now == nil {
		now = time.Now
	}
	return &DocumentNumberer{seq: seq, now: now}
}

func (n *DocumentNumberer) Next(ctx context.Context, tenantID uuid.UUID, prefix string) (string, error) {
	day := n.now().UTC().Format("20060102")
	value, err := n.seq.Next(ctx, tenantID, prefix, day)
	if err != nil {
		return "", fmt.Errorf("failed to allocate %s number: %w", prefix, err)
	}
	return fmt.Sprintf("%s-%s-%05d", prefix, day, value), nil
}
