package memstore

import (
	"context"

	"github.com/google/uuid"
)

type sequenceRepo struct{ db *DB }

func (r *sequenceRepo) Next(ctx context.Context, tenantID uuid.UUID, prefix, day string) (int64, error) {
	var value int64
	err := r.db.write(ctx, func(st *state) error {
		key := sequenceKey{tenantID: tenantID, prefix: prefix, day: day}
		st.sequences[key]++
		value = st.sequences[key]
		return nil
	})
	return value, err
}
