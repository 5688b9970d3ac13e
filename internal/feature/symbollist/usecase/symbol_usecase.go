// Package usecase implements the business logic for tracked symbols.
package usecase

import (
	"context"

	"indicator_backend/internal/feature/symbollist/domain/entity"
)

// SymbolRepository abstracts the persistence layer for tracked symbols.
type SymbolRepository interface {
	ListActive(ctx context.Context) ([]entity.Symbol, error)
	ListActiveCodes(ctx context.Context) ([]string, error)
}

// SymbolUsecase provides business logic for symbol operations.
type SymbolUsecase struct {
	repo SymbolRepository
}

// NewSymbolUsecase creates a new SymbolUsecase with the given repository.
func NewSymbolUsecase(r SymbolRepository) *SymbolUsecase {
	return &SymbolUsecase{repo: r}
}

// ListActiveSymbols returns all active symbols.
func (u *SymbolUsecase) ListActiveSymbols(ctx context.Context) ([]entity.Symbol, error) {
	return u.repo.ListActive(ctx)
}

// IngestTargets returns the symbols to ingest: override when non-empty,
// otherwise the active symbols from the repository.
func (u *SymbolUsecase) IngestTargets(ctx context.Context, override []string) ([]string, error) {
	if len(override) > 0 {
		return override, nil
	}
	return u.repo.ListActiveCodes(ctx)
}
