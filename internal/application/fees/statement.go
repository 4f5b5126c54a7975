package fees

import (
	"context"
	"fmt"

	"github.com/jhoicas/cuotas-api/internal/domain"
	"github.com/jhoicas/cuotas-api/internal/domain/repository"
)

// FeeStatement genera la liquidación en PDF de una cuota persistida.
type FeeStatement struct {
	fees       repository.FeeRepository
	items      repository.LineItemRepository
	members    repository.MemberRepository
	categories repository.CategoryRepository
	renderer   StatementRenderer
}

// NewFeeStatement construye el caso de uso.
func NewFeeStatement(
	fees repository.FeeRepository,
	items repository.LineItemRepository,
	members repository.MemberRepository,
	categories repository.CategoryRepository,
	renderer StatementRenderer,
) *FeeStatement {
	return &FeeStatement{fees: fees, items: items, members: members, categories: categories, renderer: renderer}
}

// Render devuelve el PDF y el nombre de archivo sugerido.
func (uc *FeeStatement) Render(ctx context.Context, feeID string) ([]byte, string, error) {
	fee, err := uc.fees.GetByID(ctx, feeID)
	if err != nil {
		return nil, "", fmt.Errorf("cuota %s: %w", feeID, err)
	}
	if fee == nil {
		return nil, "", domain.NewNotFoundError("cuota %s no encontrada", feeID)
	}
	items, err := uc.items.ListByFee(ctx, fee.ID)
	if err != nil {
		return nil, "", fmt.Errorf("ítems cuota %s: %w", fee.ID, err)
	}
	member, err := uc.members.GetByID(ctx, fee.MemberID)
	if err != nil {
		return nil, "", fmt.Errorf("socio %s: %w", fee.MemberID, err)
	}
	if member == nil {
		return nil, "", domain.NewNotFoundError("socio %s no encontrado", fee.MemberID)
	}
	category, err := uc.categories.GetByID(ctx, fee.CategoryID)
	if err != nil {
		return nil, "", fmt.Errorf("categoría %s: %w", fee.CategoryID, err)
	}

	pdf, err := uc.renderer.RenderFeeStatement(ctx, StatementData{
		Fee:         fee,
		Member:      member,
		Category:    category,
		Items:       items,
		Explanation: explainItems(fee, items),
	})
	if err != nil {
		return nil, "", fmt.Errorf("generar pdf: %w", err)
	}
	filename := fmt.Sprintf("cuota-%06d-%02d-%d.pdf", fee.Number, fee.Period.Month, fee.Period.Year)
	return pdf, filename, nil
}
