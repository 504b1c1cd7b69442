package store

import (
	"github.com/google/uuid"

	"github.com/internpipe/internpipe/internal/model"
)

// NopStore is a no-op store used in dry-run mode. Nothing is persisted and
// lookups always come back empty.
type NopStore struct{}

func NewNopStore() *NopStore { return &NopStore{} }

func (s *NopStore) SaveRawBatch(batch model.Batch) (string, error) {
	if batch.ID != "" {
		return batch.ID, nil
	}
	return uuid.NewString(), nil
}

func (s *NopStore) SaveProcessedBatch(batch model.Batch) (string, error) {
	if batch.ID != "" {
		return batch.ID, nil
	}
	return uuid.NewString(), nil
}

func (s *NopStore) RawBatch(id string) (*model.Batch, error) { return nil, nil }

func (s *NopStore) ProcessedBatchByDate(date string) (*model.Batch, error) { return nil, nil }

func (s *NopStore) ProcessedBatchesInRange(startDate, endDate string) ([]model.Batch, error) {
	return nil, nil
}
