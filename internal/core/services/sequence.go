package services

import (
	"context"
)

// StoreSequence derives the next number from the identifiers already stored.
// It is used when no Redis sequence is configured; concurrent creations in
// the same minute may read the same count and rely on the create retry.
type StoreSequence struct {
	demands DemandRepository
}

// NewStoreSequence creates a sequence backed by the demand store
func NewStoreSequence(demands DemandRepository) *StoreSequence {
	return &StoreSequence{demands: demands}
}

// Next returns the number of stored identifiers sharing base, plus one
func (s *StoreSequence) Next(ctx context.Context, base string) (int, error) {
	n, err := s.demands.CountIDsWithBase(ctx, base)
	if err != nil {
		return 0, err
	}
	return int(n) + 1, nil
}
