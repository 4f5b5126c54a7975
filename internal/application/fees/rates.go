package fees

import (
	"context"
	"fmt"

	"github.com/jhoicas/cuotas-api/internal/domain"
	"github.com/jhoicas/cuotas-api/internal/domain/entity"
	"github.com/jhoicas/cuotas-api/internal/domain/repository"
)

// CategoryRateResolver resuelve la tarifa vigente de la categoría del socio.
type CategoryRateResolver struct {
	categories repository.CategoryRepository
}

// NewCategoryRateResolver construye el resolver.
func NewCategoryRateResolver(categories repository.CategoryRepository) *CategoryRateResolver {
	return &CategoryRateResolver{categories: categories}
}

// Resolve devuelve la categoría con su monto base. Falla con error de validación si no hay tarifa.
func (r *CategoryRateResolver) Resolve(ctx context.Context, categoryID string) (*entity.Category, error) {
	if categoryID == "" {
		return nil, domain.NewValidationError("sin tarifa: el socio no tiene categoría asignada")
	}
	cat, err := r.categories.GetByID(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("categoría %s: %w", categoryID, err)
	}
	if cat == nil {
		return nil, domain.NewValidationError("sin tarifa: categoría %s inexistente", categoryID)
	}
	if !cat.BaseAmount.IsPositive() {
		return nil, domain.NewValidationError("sin tarifa: la categoría %s no tiene monto base", cat.Code)
	}
	return cat, nil
}

// ResolveIDs traduce referencias (id o código) a ids de categoría. Vacío = todas.
func (r *CategoryRateResolver) ResolveIDs(ctx context.Context, refs []string) ([]string, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		cat, err := r.categories.GetByID(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("categoría %s: %w", ref, err)
		}
		if cat == nil {
			if cat, err = r.categories.GetByCode(ctx, ref); err != nil {
				return nil, fmt.Errorf("categoría %s: %w", ref, err)
			}
		}
		if cat == nil {
			return nil, domain.NewNotFoundError("categoría %s no encontrada", ref)
		}
		ids = append(ids, cat.ID)
	}
	return uniqueStrings(ids), nil
}
