package batch

import (
	"github.com/oolongworks/teausage/internal/domain"
)

// Model converts a period's total tea-component ml into brew batches and
// leaf bags. All outputs stay fractional; rounding is left to whoever
// renders the numbers.
type Model struct {
	BatchYieldMl      float64
	LeafGramsPerBatch float64
	BagGrams          float64
}

// NewModel validates the planning constants up front. A zero or negative
// constant would turn every downstream reorder figure into noise, so the
// run has to stop here.
func NewModel(batchYieldMl, leafGramsPerBatch, bagGrams float64) (*Model, error) {
	if batchYieldMl <= 0 {
		return nil, &domain.ConfigurationError{Field: "batch_yield_ml", Reason: "must be positive"}
	}
	if leafGramsPerBatch <= 0 {
		return nil, &domain.ConfigurationError{Field: "leaf_grams_per_batch", Reason: "must be positive"}
	}
	if bagGrams <= 0 {
		return nil, &domain.ConfigurationError{Field: "bag_grams", Reason: "must be positive"}
	}
	return &Model{
		BatchYieldMl:      batchYieldMl,
		LeafGramsPerBatch: leafGramsPerBatch,
		BagGrams:          bagGrams,
	}, nil
}

// Compute derives the batch record for one (period, tea) total.
func (m *Model) Compute(period, teaKey string, teaMlTotal float64) domain.BatchYieldRecord {
	rec := domain.BatchYieldRecord{
		Period:            period,
		TeaKey:            teaKey,
		TeaMlTotal:        teaMlTotal,
		BatchYieldMl:      m.BatchYieldMl,
		LeafGramsPerBatch: m.LeafGramsPerBatch,
		BagGrams:          m.BagGrams,
	}
	rec.BatchesNeeded = teaMlTotal / m.BatchYieldMl
	rec.LeafGramsUsed = rec.BatchesNeeded * m.LeafGramsPerBatch
	rec.BagsUsed = rec.LeafGramsUsed / m.BagGrams
	return rec
}
