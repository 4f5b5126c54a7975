package fees

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/cuotas-api/internal/application/dto"
	"github.com/jhoicas/cuotas-api/internal/domain"
	"github.com/jhoicas/cuotas-api/internal/domain/entity"
	domfees "github.com/jhoicas/cuotas-api/internal/domain/fees"
	"github.com/jhoicas/cuotas-api/internal/domain/repository"
)

// MaxPreviewPeriods meses máximos de una proyección por rango.
const MaxPreviewPeriods = 24

// PreviewService simulaciones de cuotas. Usa el mismo pipeline que la generación y nunca escribe.
type PreviewService struct {
	pipeline *Pipeline
	members  repository.MemberRepository
	fees     repository.FeeRepository
	items    repository.LineItemRepository
	history  repository.HistoryRepository
}

// NewPreviewService construye el servicio.
func NewPreviewService(
	pipeline *Pipeline,
	members repository.MemberRepository,
	fees repository.FeeRepository,
	items repository.LineItemRepository,
	history repository.HistoryRepository,
) *PreviewService {
	return &PreviewService{pipeline: pipeline, members: members, fees: fees, items: items, history: history}
}

// PreviewFee calcula la cuota que se generaría para el socio y período.
func (s *PreviewService) PreviewFee(ctx context.Context, in dto.PreviewFeeRequest) (*dto.PreviewFeeResponse, error) {
	if strings.TrimSpace(in.MemberID) == "" {
		return nil, domain.NewValidationError("socio_id es obligatorio")
	}
	period, err := entity.NewPeriod(in.Month, in.Year)
	if err != nil {
		return nil, invalid(err)
	}
	comp, err := s.pipeline.Compute(ctx, ComputeInput{
		MemberID:       in.MemberID,
		CategoryID:     in.CategoryID,
		Period:         period,
		ApplyDiscounts: in.ApplyDiscounts == nil || *in.ApplyDiscounts,
	})
	if err != nil {
		return nil, err
	}
	history, err := s.history.ListByMember(ctx, comp.Member.ID)
	if err != nil {
		return nil, fmt.Errorf("historial socio %s: %w", comp.Member.ID, err)
	}
	if history == nil {
		history = []*entity.HistoryEntry{}
	}
	return &dto.PreviewFeeResponse{
		Fee:         comp.Fee,
		Breakdown:   comp.Items,
		Explanation: Explain(comp),
		Trace:       traceOf(comp),
		History:     history,
	}, nil
}

// PreviewMemberFees proyecta las cuotas del socio mes a mes entre from y to (MM-YYYY).
// Un mes sin tarifa queda con su error y no suma al resumen.
func (s *PreviewService) PreviewMemberFees(ctx context.Context, memberID, from, to string) (*dto.MemberFeesPreviewResponse, error) {
	start, err := entity.ParsePeriod(from)
	if err != nil {
		return nil, invalid(err)
	}
	end, err := entity.ParsePeriod(to)
	if err != nil {
		return nil, invalid(err)
	}
	if start.After(end) {
		return nil, domain.NewValidationError("desde %s es posterior a hasta %s", start, end)
	}
	periods := entity.PeriodRange(start, end)
	if len(periods) > MaxPreviewPeriods {
		return nil, domain.NewValidationError("el rango supera %d meses", MaxPreviewPeriods)
	}
	member, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("socio %s: %w", memberID, err)
	}
	if member == nil {
		return nil, domain.NewNotFoundError("socio %s no encontrado", memberID)
	}

	resp := &dto.MemberFeesPreviewResponse{
		Member: member,
		Fees:   make([]dto.MemberFeePreview, 0, len(periods)),
		Summary: dto.PreviewSummary{
			Total:    decimal.Zero,
			Discount: decimal.Zero,
			Average:  decimal.Zero,
		},
	}
	for _, p := range periods {
		row := dto.MemberFeePreview{Period: p}
		comp, err := s.pipeline.Compute(ctx, ComputeInput{Member: member, Period: p, ApplyDiscounts: true})
		if err != nil {
			if domain.KindOf(err) == domain.KindInternal {
				return nil, err
			}
			row.Error = err.Error()
			resp.Fees = append(resp.Fees, row)
			continue
		}
		row.Fee = comp.Fee
		row.Breakdown = comp.Items
		row.Explanation = Explain(comp)
		resp.Fees = append(resp.Fees, row)

		resp.Summary.Count++
		resp.Summary.Total = resp.Summary.Total.Add(comp.Fee.TotalAmount)
		resp.Summary.Discount = resp.Summary.Discount.Add(comp.Fee.DiscountAmount)
	}
	if resp.Summary.Count > 0 {
		resp.Summary.Average = domfees.Round(resp.Summary.Total.Div(decimal.NewFromInt(int64(resp.Summary.Count))))
	}
	return resp, nil
}

// CompareFee recalcula una cuota persistida con cambios hipotéticos y muestra la diferencia.
// Los ítems manuales de la cuota se conservan en ambos lados.
func (s *PreviewService) CompareFee(ctx context.Context, feeID string, in dto.CompareFeeRequest) (*dto.CompareFeeResponse, error) {
	fee, err := s.fees.GetByID(ctx, feeID)
	if err != nil {
		return nil, fmt.Errorf("cuota %s: %w", feeID, err)
	}
	if fee == nil {
		return nil, domain.NewNotFoundError("cuota %s no encontrada", feeID)
	}
	extra := make([]domfees.Effect, 0, len(in.ExtraAdjustments))
	for i, h := range in.ExtraAdjustments {
		adj := &entity.Adjustment{
			ID:      fmt.Sprintf("hipotetico-%d", i+1),
			Type:    h.Type,
			Kind:    h.Kind,
			Value:   h.Value,
			Formula: h.Formula,
			Reason:  h.Label,
		}
		if adj.Kind == "" {
			adj.Kind = entity.AdjustmentKindManual
		}
		if err := validateAdjustmentValue(adj, s.pipeline.MaxPercent()); err != nil {
			return nil, err
		}
		if adj.Reason == "" {
			adj.Reason = "Ajuste hipotético"
		}
		extra = append(extra, AdjustmentEffect(adj))
	}
	categoryID := in.CategoryID
	if categoryID == "" {
		categoryID = fee.CategoryID
	}
	comp, err := s.pipeline.Compute(ctx, ComputeInput{
		MemberID:       fee.MemberID,
		CategoryID:     categoryID,
		Period:         fee.Period,
		ApplyDiscounts: true,
		Collect: CollectOptions{
			IgnoreExemption:   in.IgnoreExemption,
			DropAdjustmentIDs: in.DropAdjustmentIDs,
		},
		Extra: extra,
	})
	if err != nil {
		return nil, err
	}
	items, err := s.items.ListByFee(ctx, fee.ID)
	if err != nil {
		return nil, fmt.Errorf("ítems cuota %s: %w", fee.ID, err)
	}

	after := *comp.Fee
	after.ID = fee.ID
	after.Number = fee.Number
	after.ReceiptID = fee.ReceiptID
	after.Status = fee.Status
	after.BatchID = fee.BatchID
	afterItems := append(append([]*entity.LineItem{}, comp.Items...), manualItems(items)...)
	ApplyTotals(&after, afterItems)

	return &dto.CompareFeeResponse{
		Before:     fee,
		After:      &after,
		AfterItems: afterItems,
		Diff: dto.FeeDiff{
			Base:       after.BaseAmount.Sub(fee.BaseAmount),
			Activities: after.ActivitiesAmount.Sub(fee.ActivitiesAmount),
			Discount:   after.DiscountAmount.Sub(fee.DiscountAmount),
			Total:      after.TotalAmount.Sub(fee.TotalAmount),
		},
		Explanation: Explain(comp),
	}, nil
}

func traceOf(c *Computation) []domfees.Contribution {
	if c.Result.Trace == nil {
		return []domfees.Contribution{}
	}
	return c.Result.Trace
}
