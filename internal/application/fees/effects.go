package fees

import (
	"context"
	"fmt"

	"github.com/jhoicas/cuotas-api/internal/domain/entity"
	domfees "github.com/jhoicas/cuotas-api/internal/domain/fees"
	"github.com/jhoicas/cuotas-api/internal/domain/repository"
)

// CollectOptions permite excluir fuentes de efectos (simulaciones y descuento global).
type CollectOptions struct {
	SkipAdjustments   bool
	IgnoreExemption   bool
	DropAdjustmentIDs []string
}

// EffectCollector reúne los efectos vigentes de un socio para un período:
// exención efectiva, ajustes activos de su ámbito y el descuento por defecto de la categoría.
type EffectCollector struct {
	adjustments repository.AdjustmentRepository
	exemptions  repository.ExemptionRepository
}

// NewEffectCollector construye el colector.
func NewEffectCollector(adjustments repository.AdjustmentRepository, exemptions repository.ExemptionRepository) *EffectCollector {
	return &EffectCollector{adjustments: adjustments, exemptions: exemptions}
}

// Collect los ajustes se evalúan en el primer día del período.
func (c *EffectCollector) Collect(ctx context.Context, member *entity.Member, category *entity.Category, period entity.Period, opts CollectOptions) ([]domfees.Effect, error) {
	var out []domfees.Effect

	if !opts.IgnoreExemption {
		list, err := c.exemptions.ListByMember(ctx, member.ID)
		if err != nil {
			return nil, fmt.Errorf("exenciones del socio %s: %w", member.ID, err)
		}
		if ex := EffectiveExemption(list, period); ex != nil {
			out = append(out, domfees.Effect{
				Kind:     domfees.KindExemption,
				Mode:     domfees.ModePercent,
				SourceID: ex.ID,
				Label:    "Exención " + ex.Reason,
				Percent:  ex.Percentage,
			})
		}
	}

	if !opts.SkipAdjustments {
		adjs, err := c.adjustments.FindActive(ctx, member.ID, category.ID, period.FirstDay())
		if err != nil {
			return nil, fmt.Errorf("ajustes del socio %s: %w", member.ID, err)
		}
		for _, a := range adjs {
			if containsString(opts.DropAdjustmentIDs, a.ID) {
				continue
			}
			out = append(out, AdjustmentEffect(a))
		}
	}

	if category.DefaultDiscount.IsPositive() {
		out = append(out, domfees.Effect{
			Kind:     domfees.KindCategoryDiscount,
			Mode:     domfees.ModePercent,
			SourceID: category.ID,
			Label:    "Descuento categoría " + category.Code,
			Percent:  category.DefaultDiscount,
		})
	}
	return out, nil
}

// AdjustmentEffect traduce un ajuste a efecto del motor. Un Value negativo es descuento;
// el motor expresa el porcentaje como descuento positivo.
func AdjustmentEffect(a *entity.Adjustment) domfees.Effect {
	kind := domfees.KindManualAdjustment
	if a.Kind == entity.AdjustmentKindAutomatic {
		kind = domfees.KindAutomaticRule
	}
	ef := domfees.Effect{Kind: kind, SourceID: a.ID, Label: a.Reason}
	switch a.Type {
	case entity.AdjustmentTypeFixed:
		ef.Mode = domfees.ModeFixed
		ef.Fixed = a.Value
	case entity.AdjustmentTypeFormula:
		ef.Mode = domfees.ModeFormula
		ef.Formula = a.Formula
	default:
		ef.Mode = domfees.ModePercent
		ef.Percent = a.Value.Neg()
	}
	return ef
}

// EffectiveExemption elige la exención que rige el período: VIGENTE primero, luego APROBADA.
func EffectiveExemption(list []*entity.Exemption, period entity.Period) *entity.Exemption {
	var approved *entity.Exemption
	for _, ex := range list {
		if !ex.Covers(period) {
			continue
		}
		switch ex.State {
		case entity.ExemptionActive:
			return ex
		case entity.ExemptionApproved:
			if approved == nil {
				approved = ex
			}
		}
	}
	return approved
}
