package service

import (
	"context"
	"fmt"

	"github.com/msomdec/result-processing/internal/domain"
)

// ResultLedger stores and updates result documents.
type ResultLedger struct {
	results domain.ResultRepository
}

// NewResultLedger creates a ResultLedger.
func NewResultLedger(results domain.ResultRepository) *ResultLedger {
	return &ResultLedger{results: results}
}

// List returns every result document in store order.
func (l *ResultLedger) List(ctx context.Context) ([]domain.Result, error) {
	results, err := l.results.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	return results, nil
}

// GetByID returns the result with id, or domain.ErrNotFound.
func (l *ResultLedger) GetByID(ctx context.Context, id string) (*domain.Result, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	return l.results.GetByID(ctx, id)
}

// Create stores doc verbatim. A client-supplied "_id" is discarded since
// identifiers are generated by the store.
func (l *ResultLedger) Create(ctx context.Context, doc map[string]any) (domain.InsertResult, error) {
	stored := make(map[string]any, len(doc))
	for k, v := range doc {
		if k == "_id" {
			continue
		}
		stored[k] = v
	}

	result := &domain.Result{Document: stored}
	if err := l.results.Create(ctx, result); err != nil {
		return domain.InsertResult{}, fmt.Errorf("create result: %w", err)
	}
	return domain.InsertResult{InsertedID: result.ID}, nil
}

// Update replaces every field in domain.ResultFields with the value from
// fields. Listed fields missing from fields are cleared to null; other keys
// in fields are ignored.
func (l *ResultLedger) Update(ctx context.Context, id string, fields map[string]any) (domain.UpdateResult, error) {
	if err := validateID(id); err != nil {
		return domain.UpdateResult{}, err
	}

	res, err := l.results.Update(ctx, id, domain.ResultPatch(fields))
	if err != nil {
		return domain.UpdateResult{}, fmt.Errorf("update result: %w", err)
	}
	return res, nil
}
