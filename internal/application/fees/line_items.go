package fees

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/cuotas-api/internal/application/dto"
	"github.com/jhoicas/cuotas-api/internal/domain"
	"github.com/jhoicas/cuotas-api/internal/domain/entity"
	domfees "github.com/jhoicas/cuotas-api/internal/domain/fees"
	"github.com/jhoicas/cuotas-api/internal/domain/repository"
	"github.com/jhoicas/cuotas-api/pkg/logger"
)

// GlobalDiscountSource id de origen del efecto de descuento global en la traza.
const GlobalDiscountSource = "descuento-global"

// LineItemComposer operaciones sobre los ítems de cuotas ya generadas.
type LineItemComposer struct {
	tx       TxRunner
	pipeline *Pipeline
	rates    *CategoryRateResolver
	fees     repository.FeeRepository
	items    repository.LineItemRepository
	receipts repository.ReceiptRepository
	log      *logger.Logger
}

// NewLineItemComposer construye el caso de uso.
func NewLineItemComposer(
	tx TxRunner,
	pipeline *Pipeline,
	rates *CategoryRateResolver,
	fees repository.FeeRepository,
	items repository.LineItemRepository,
	receipts repository.ReceiptRepository,
	log *logger.Logger,
) *LineItemComposer {
	if log == nil {
		log = logger.Nop()
	}
	return &LineItemComposer{
		tx:       tx,
		pipeline: pipeline,
		rates:    rates,
		fees:     fees,
		items:    items,
		receipts: receipts,
		log:      log.Named("items"),
	}
}

// RegenerateItems recalcula los ítems automáticos con las reglas vigentes, conserva los manuales
// y devuelve la diferencia entre el total almacenado y el recalculado.
func (c *LineItemComposer) RegenerateItems(ctx context.Context, actor, feeID string) (*dto.RegenerateItemsResponse, error) {
	fee, err := c.fees.GetByID(ctx, feeID)
	if err != nil {
		return nil, fmt.Errorf("cuota %s: %w", feeID, err)
	}
	if fee == nil {
		return nil, domain.NewNotFoundError("cuota %s no encontrada", feeID)
	}
	comp, err := c.pipeline.Compute(ctx, ComputeInput{
		MemberID:       fee.MemberID,
		CategoryID:     fee.CategoryID,
		Period:         fee.Period,
		ApplyDiscounts: true,
	})
	if err != nil {
		return nil, err
	}

	var resp *dto.RegenerateItemsResponse
	err = c.tx.Run(ctx, func(tx repository.TxRepos) error {
		cur, err := ensureEditable(ctx, tx, feeID)
		if err != nil {
			return err
		}
		all, before, err := replaceAutomatic(ctx, tx, cur, comp.Items)
		if err != nil {
			return err
		}
		prev := before.Fee.TotalAmount
		if err := Record(ctx, tx.History, &entity.HistoryEntry{
			Action:   entity.ActionFeeRecomputed,
			FeeID:    cur.ID,
			MemberID: cur.MemberID,
			Before:   entity.Snapshot(before),
			After:    entity.Snapshot(entity.FeeSnapshot{Fee: cur, Items: all}),
			Actor:    actor,
		}); err != nil {
			return err
		}
		drift := prev.Sub(cur.TotalAmount)
		resp = &dto.RegenerateItemsResponse{
			Fee:           cur,
			Items:         all,
			PreviousTotal: prev,
			NewTotal:      cur.TotalAmount,
			Drift:         drift,
			HasDrift:      !drift.IsZero(),
			Explanation:   Explain(comp),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// replaceAutomatic sustituye los ítems AUTO de la cuota por fresh y recalcula sus montos.
// Devuelve todos los ítems resultantes y el snapshot previo.
func replaceAutomatic(ctx context.Context, tx repository.TxRepos, fee *entity.Fee, fresh []*entity.LineItem) ([]*entity.LineItem, entity.FeeSnapshot, error) {
	items, err := tx.Items.ListByFee(ctx, fee.ID)
	if err != nil {
		return nil, entity.FeeSnapshot{}, fmt.Errorf("ítems cuota %s: %w", fee.ID, err)
	}
	prevFee := *fee
	before := entity.FeeSnapshot{Fee: &prevFee, Items: items}

	if err := tx.Items.DeleteAutomatic(ctx, fee.ID); err != nil {
		return nil, before, fmt.Errorf("borrar ítems automáticos: %w", err)
	}
	created := cloneItems(fresh, fee.ID)
	if err := tx.Items.CreateBatch(ctx, created); err != nil {
		return nil, before, fmt.Errorf("crear ítems: %w", err)
	}
	all := append(created, manualItems(items)...)
	ApplyTotals(fee, all)
	fee.UpdatedAt = time.Now()
	if err := tx.Fees.Update(ctx, fee); err != nil {
		return nil, before, fmt.Errorf("actualizar cuota %s: %w", fee.ID, err)
	}
	return all, before, nil
}

// ApplyGlobalDiscount vuelve a correr el motor con un porcentaje provisto por el llamador
// en lugar de los ajustes cargados. Con DryRun solo devuelve los montos.
func (c *LineItemComposer) ApplyGlobalDiscount(ctx context.Context, actor string, in dto.GlobalDiscountRequest) (*dto.GlobalDiscountResponse, error) {
	maxPct := c.pipeline.MaxPercent()
	if !in.Percent.IsPositive() || in.Percent.GreaterThan(maxPct) {
		return nil, domain.NewValidationError("porcentaje debe estar entre 0 y %s", maxPct)
	}
	targets, err := c.globalTargets(ctx, in)
	if err != nil {
		return nil, err
	}
	label := in.Label
	if label == "" {
		label = "Descuento global"
	}
	override := domfees.Effect{
		Kind:     domfees.KindManualAdjustment,
		Mode:     domfees.ModePercent,
		SourceID: GlobalDiscountSource,
		Label:    label,
		Percent:  in.Percent,
	}

	resp := &dto.GlobalDiscountResponse{DryRun: in.DryRun, Results: []dto.GlobalDiscountResult{}}
	comps := make(map[string]*Computation, len(targets))
	for _, fee := range targets {
		res := dto.GlobalDiscountResult{FeeID: fee.ID, MemberID: fee.MemberID, Before: fee.TotalAmount, After: fee.TotalAmount}
		rc, err := loadReceipt(ctx, c.receipts, fee, false)
		if err != nil {
			return nil, err
		}
		if reason := blockReason(fee, rc); reason != "" {
			res.Skipped = reason
			resp.Results = append(resp.Results, res)
			continue
		}
		comp, err := c.pipeline.Compute(ctx, ComputeInput{
			MemberID:       fee.MemberID,
			CategoryID:     fee.CategoryID,
			Period:         fee.Period,
			ApplyDiscounts: true,
			Collect:        CollectOptions{SkipAdjustments: true},
			Extra:          []domfees.Effect{override},
		})
		if err != nil {
			res.Skipped = err.Error()
			resp.Results = append(resp.Results, res)
			continue
		}
		items, err := c.items.ListByFee(ctx, fee.ID)
		if err != nil {
			return nil, fmt.Errorf("ítems cuota %s: %w", fee.ID, err)
		}
		res.After = comp.Fee.TotalAmount.Add(entity.SumManual(items))
		resp.Results = append(resp.Results, res)
		comps[fee.ID] = comp
	}
	if in.DryRun || len(comps) == 0 {
		resp.Applied = len(comps)
		return resp, nil
	}

	applied := make(map[string]decimal.Decimal, len(comps))
	err = c.tx.Run(ctx, func(tx repository.TxRepos) error {
		for _, target := range targets {
			comp, ok := comps[target.ID]
			if !ok {
				continue
			}
			cur, err := ensureEditable(ctx, tx, target.ID)
			if domain.KindOf(err) == domain.KindConflict {
				continue
			}
			if err != nil {
				return err
			}
			all, before, err := replaceAutomatic(ctx, tx, cur, comp.Items)
			if err != nil {
				return err
			}
			if err := Record(ctx, tx.History, &entity.HistoryEntry{
				Action:   entity.ActionFeeGlobalDisc,
				FeeID:    cur.ID,
				MemberID: cur.MemberID,
				Before:   entity.Snapshot(before),
				After:    entity.Snapshot(entity.FeeSnapshot{Fee: cur, Items: all}),
				Actor:    actor,
				Reason:   in.Reason,
			}); err != nil {
				return err
			}
			applied[cur.ID] = cur.TotalAmount
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for i := range resp.Results {
		r := &resp.Results[i]
		if total, ok := applied[r.FeeID]; ok {
			r.After = total
		} else if r.Skipped == "" {
			r.After = r.Before
			r.Skipped = "cuota bloqueada durante la aplicación"
		}
	}
	resp.Applied = len(applied)
	c.log.Info().Int("aplicadas", resp.Applied).Str("porcentaje", in.Percent.String()).Msg("descuento global aplicado")
	return resp, nil
}

func (c *LineItemComposer) globalTargets(ctx context.Context, in dto.GlobalDiscountRequest) ([]*entity.Fee, error) {
	if ids := uniqueStrings(in.FeeIDs); len(ids) > 0 {
		list, err := c.fees.ListByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("listar cuotas: %w", err)
		}
		if len(list) != len(ids) {
			found := make(map[string]bool, len(list))
			for _, f := range list {
				found[f.ID] = true
			}
			for _, id := range ids {
				if !found[id] {
					return nil, domain.NewNotFoundError("cuota %s no encontrada", id)
				}
			}
		}
		return list, nil
	}
	period, err := entity.NewPeriod(in.Month, in.Year)
	if err != nil {
		return nil, invalid(err)
	}
	categoryIDs, err := c.rates.ResolveIDs(ctx, in.Categories)
	if err != nil {
		return nil, err
	}
	list, err := c.fees.ListByPeriod(ctx, period, categoryIDs)
	if err != nil {
		return nil, fmt.Errorf("listar cuotas: %w", err)
	}
	return list, nil
}

// AddManualItem agrega un ítem manual; un monto negativo es un crédito.
func (c *LineItemComposer) AddManualItem(ctx context.Context, actor, feeID string, in dto.ManualItemRequest) (*dto.FeeDetailResponse, error) {
	if strings.TrimSpace(in.Description) == "" {
		return nil, domain.NewValidationError("descripcion es obligatoria")
	}
	if in.Amount.IsZero() {
		return nil, domain.NewValidationError("monto no puede ser cero")
	}

	var resp *dto.FeeDetailResponse
	err := c.tx.Run(ctx, func(tx repository.TxRepos) error {
		fee, err := ensureEditable(ctx, tx, feeID)
		if err != nil {
			return err
		}
		items, err := tx.Items.ListByFee(ctx, fee.ID)
		if err != nil {
			return fmt.Errorf("ítems cuota %s: %w", fee.ID, err)
		}
		amount := domfees.Round(in.Amount)
		item := &entity.LineItem{
			ID:           uuid.New().String(),
			FeeID:        fee.ID,
			Type:         entity.ItemTypeManual,
			CategoryCode: in.CategoryCode,
			Description:  strings.TrimSpace(in.Description),
			Amount:       amount,
			NetAmount:    amount,
			Manual:       true,
			Source:       entity.ItemSourceManual,
		}
		before := entity.Snapshot(fee)
		fee.TotalAmount = fee.TotalAmount.Add(amount)
		if fee.TotalAmount.IsNegative() {
			return domain.NewValidationError("el crédito supera el total de la cuota")
		}
		fee.UpdatedAt = time.Now()
		if err := tx.Items.CreateBatch(ctx, []*entity.LineItem{item}); err != nil {
			return fmt.Errorf("crear ítem: %w", err)
		}
		if err := tx.Fees.Update(ctx, fee); err != nil {
			return fmt.Errorf("actualizar cuota %s: %w", fee.ID, err)
		}
		if err := Record(ctx, tx.History, &entity.HistoryEntry{
			Action:   entity.ActionFeeItemAdded,
			FeeID:    fee.ID,
			MemberID: fee.MemberID,
			Before:   before,
			After:    entity.Snapshot(item),
			Actor:    actor,
			Reason:   in.Reason,
		}); err != nil {
			return err
		}
		resp = &dto.FeeDetailResponse{Fee: fee, Items: append(items, item)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// DeleteItem elimina un ítem y ajusta los montos de la cuota manteniendo
// total = base + actividades - descuento + manuales.
func (c *LineItemComposer) DeleteItem(ctx context.Context, actor, feeID, itemID string) (*dto.FeeDetailResponse, error) {
	var resp *dto.FeeDetailResponse
	err := c.tx.Run(ctx, func(tx repository.TxRepos) error {
		fee, err := ensureEditable(ctx, tx, feeID)
		if err != nil {
			return err
		}
		item, err := tx.Items.GetByID(ctx, itemID)
		if err != nil {
			return fmt.Errorf("ítem %s: %w", itemID, err)
		}
		if item == nil || item.FeeID != fee.ID {
			return domain.NewNotFoundError("ítem %s no encontrado en la cuota", itemID)
		}
		before := entity.Snapshot(entity.FeeSnapshot{Fee: fee, Items: []*entity.LineItem{item}})

		gross := grossOf(item)
		switch item.Type {
		case entity.ItemTypeBase:
			fee.BaseAmount = fee.BaseAmount.Sub(item.Amount)
		case entity.ItemTypeActivity:
			fee.ActivitiesAmount = fee.ActivitiesAmount.Sub(item.Amount)
		}
		if item.Automatic() {
			fee.DiscountAmount = fee.DiscountAmount.Sub(gross).Add(item.NetAmount)
		}
		fee.TotalAmount = fee.TotalAmount.Sub(item.NetAmount)
		if fee.TotalAmount.IsNegative() {
			return domain.NewValidationError("quitar el ítem deja la cuota con total negativo")
		}
		fee.UpdatedAt = time.Now()

		if err := tx.Items.Delete(ctx, item.ID); err != nil {
			return fmt.Errorf("borrar ítem: %w", err)
		}
		if err := tx.Fees.Update(ctx, fee); err != nil {
			return fmt.Errorf("actualizar cuota %s: %w", fee.ID, err)
		}
		if err := Record(ctx, tx.History, &entity.HistoryEntry{
			Action:   entity.ActionFeeItemDeleted,
			FeeID:    fee.ID,
			MemberID: fee.MemberID,
			Before:   before,
			After:    entity.Snapshot(fee),
			Actor:    actor,
		}); err != nil {
			return err
		}
		items, err := tx.Items.ListByFee(ctx, fee.ID)
		if err != nil {
			return fmt.Errorf("ítems cuota %s: %w", fee.ID, err)
		}
		resp = &dto.FeeDetailResponse{Fee: fee, Items: items}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
