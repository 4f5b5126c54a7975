package fees

import (
	"context"
	"fmt"
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

// DefaultChunkSize socios por transacción cuando no se configura.
const DefaultChunkSize = 50

// BatchGenerationService generación y actualización masiva de cuotas.
type BatchGenerationService struct {
	tx        TxRunner
	pipeline  *Pipeline
	members   repository.MemberRepository
	rates     *CategoryRateResolver
	chunkSize int
	metrics   *Metrics
	log       *logger.Logger
}

// NewBatchGenerationService construye el servicio. chunkSize <= 0 usa DefaultChunkSize.
func NewBatchGenerationService(
	tx TxRunner,
	pipeline *Pipeline,
	members repository.MemberRepository,
	rates *CategoryRateResolver,
	chunkSize int,
	metrics *Metrics,
	log *logger.Logger,
) *BatchGenerationService {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if log == nil {
		log = logger.Nop()
	}
	return &BatchGenerationService{
		tx:        tx,
		pipeline:  pipeline,
		members:   members,
		rates:     rates,
		chunkSize: chunkSize,
		metrics:   metrics,
		log:       log.Named("batch"),
	}
}

// GenerateBatch genera las cuotas del período para los socios activos de las categorías indicadas.
// Cada bloque de socios se persiste en su propia transacción: un fallo no revierte bloques anteriores.
func (s *BatchGenerationService) GenerateBatch(ctx context.Context, actor string, in dto.GenerateBatchRequest) (*dto.GenerateBatchResponse, error) {
	period, err := entity.NewPeriod(in.Month, in.Year)
	if err != nil {
		return nil, invalid(err)
	}
	categoryIDs, err := s.rates.ResolveIDs(ctx, in.Categories)
	if err != nil {
		return nil, err
	}
	cohort, err := s.members.ListActive(ctx, categoryIDs)
	if err != nil {
		return nil, fmt.Errorf("listar socios: %w", err)
	}
	applyDiscounts := in.ApplyDiscounts == nil || *in.ApplyDiscounts

	started := time.Now()
	resp := &dto.GenerateBatchResponse{
		BatchID: uuid.New().String(),
		Period:  period,
		Errors:  []dto.BatchError{},
		Fees:    []*entity.Fee{},
	}

	for start := 0; start < len(cohort); start += s.chunkSize {
		if err := ctx.Err(); err != nil {
			for _, m := range cohort[start:] {
				resp.Errors = append(resp.Errors, dto.BatchError{MemberID: m.ID, MemberName: m.FullName, Message: "lote: " + err.Error()})
			}
			break
		}
		end := start + s.chunkSize
		if end > len(cohort) {
			end = len(cohort)
		}
		resp.Performance.Chunks++

		comps := make([]*Computation, 0, end-start)
		for _, m := range cohort[start:end] {
			c, err := s.pipeline.Compute(ctx, ComputeInput{Member: m, Period: period, ApplyDiscounts: applyDiscounts})
			if err != nil {
				s.log.Warn().Str("socio_id", m.ID).Str("periodo", period.String()).Err(err).Msg("cuota no generada")
				resp.Errors = append(resp.Errors, dto.BatchError{MemberID: m.ID, MemberName: m.FullName, Message: err.Error()})
				continue
			}
			comps = append(comps, c)
		}
		if len(comps) == 0 {
			continue
		}

		persisted, err := s.persistChunk(ctx, actor, resp.BatchID, in.Note, comps)
		if err != nil {
			s.log.Error().Err(err).Int("socios", len(comps)).Str("lote_id", resp.BatchID).Msg("bloque revertido")
			for _, c := range comps {
				resp.Errors = append(resp.Errors, dto.BatchError{MemberID: c.Member.ID, MemberName: c.Member.FullName, Message: "lote: " + err.Error()})
			}
			continue
		}
		resp.Fees = append(resp.Fees, persisted...)
	}

	elapsed := time.Since(started)
	resp.Generated = len(resp.Fees)
	resp.Performance.Cohort = len(cohort)
	resp.Performance.DurationMs = elapsed.Milliseconds()
	if len(cohort) > 0 {
		resp.Performance.PerMemberMs = float64(elapsed.Microseconds()) / 1000 / float64(len(cohort))
	}

	s.metrics.feesGenerated(resp.Generated)
	s.metrics.generationFailed(len(resp.Errors))
	s.metrics.observeBatch(elapsed)
	s.log.Info().
		Str("lote_id", resp.BatchID).
		Str("periodo", period.String()).
		Int("socios", len(cohort)).
		Int("generadas", resp.Generated).
		Int("errores", len(resp.Errors)).
		Dur("duracion", elapsed).
		Msg("generación masiva finalizada")
	return resp, nil
}

func (s *BatchGenerationService) persistChunk(ctx context.Context, actor, batchID, note string, comps []*Computation) ([]*entity.Fee, error) {
	var out []*entity.Fee
	err := s.tx.Run(ctx, func(tx repository.TxRepos) error {
		out = make([]*entity.Fee, 0, len(comps))
		now := time.Now()
		for _, c := range comps {
			fee := *c.Fee
			number, err := tx.Fees.NextNumber(ctx)
			if err != nil {
				return fmt.Errorf("numeración: %w", err)
			}
			fee.ID = uuid.New().String()
			fee.Number = number
			fee.BatchID = batchID
			fee.Note = note
			fee.CreatedAt = now
			fee.UpdatedAt = now
			if err := tx.Fees.Create(ctx, &fee); err != nil {
				return fmt.Errorf("socio %s: %w", fee.MemberID, err)
			}
			items := cloneItems(c.Items, fee.ID)
			if err := tx.Items.CreateBatch(ctx, items); err != nil {
				return fmt.Errorf("ítems socio %s: %w", fee.MemberID, err)
			}
			if err := Record(ctx, tx.History, &entity.HistoryEntry{
				Action:   entity.ActionFeeGenerated,
				FeeID:    fee.ID,
				MemberID: fee.MemberID,
				After:    entity.Snapshot(entity.FeeSnapshot{Fee: &fee, Items: items}),
				Actor:    actor,
				Reason:   note,
			}); err != nil {
				return err
			}
			out = append(out, &fee)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateBatch aplica sobrescrituras de montos a varias cuotas en una única transacción.
// Si Total no se sobrescribe se recalcula como base + actividades - descuento + manuales;
// si se sobrescribe, el descuento absorbe la diferencia.
func (s *BatchGenerationService) UpdateBatch(ctx context.Context, actor string, in dto.UpdateBatchRequest) (*dto.UpdateBatchResponse, error) {
	ids := uniqueStrings(in.FeeIDs)
	if len(ids) == 0 {
		return nil, domain.NewValidationError("cuota_ids es obligatorio")
	}
	if in.BaseAmount == nil && in.ActivitiesAmount == nil && in.TotalAmount == nil {
		return nil, domain.NewValidationError("no hay montos para actualizar")
	}
	for name, v := range map[string]*decimal.Decimal{
		"monto_base":        in.BaseAmount,
		"monto_actividades": in.ActivitiesAmount,
		"monto_total":       in.TotalAmount,
	} {
		if v != nil && v.IsNegative() {
			return nil, domain.NewValidationError("%s no puede ser negativo", name)
		}
	}

	var updated int
	err := s.tx.Run(ctx, func(tx repository.TxRepos) error {
		fees := make([]*entity.Fee, 0, len(ids))
		for _, id := range ids {
			fee, err := ensureEditable(ctx, tx, id)
			if err != nil {
				return err
			}
			fees = append(fees, fee)
		}

		now := time.Now()
		befores := make([][]byte, len(fees))
		for i, fee := range fees {
			items, err := tx.Items.ListByFee(ctx, fee.ID)
			if err != nil {
				return fmt.Errorf("ítems cuota %s: %w", fee.ID, err)
			}
			manual := entity.SumManual(items)
			befores[i] = entity.Snapshot(fee)

			if in.BaseAmount != nil {
				fee.BaseAmount = domfees.Round(*in.BaseAmount)
			}
			if in.ActivitiesAmount != nil {
				fee.ActivitiesAmount = domfees.Round(*in.ActivitiesAmount)
			}
			gross := fee.BaseAmount.Add(fee.ActivitiesAmount).Add(manual)
			if in.TotalAmount != nil {
				fee.TotalAmount = domfees.Round(*in.TotalAmount)
				fee.DiscountAmount = gross.Sub(fee.TotalAmount)
			} else {
				fee.TotalAmount = gross.Sub(fee.DiscountAmount)
			}
			if fee.TotalAmount.IsNegative() {
				return domain.NewValidationError("cuota %d: el total resultante es negativo", fee.Number)
			}
			fee.UpdatedAt = now
		}

		if err := tx.Fees.UpdateAmounts(ctx, fees); err != nil {
			return fmt.Errorf("actualizar montos: %w", err)
		}
		for i, fee := range fees {
			if err := Record(ctx, tx.History, &entity.HistoryEntry{
				Action:   entity.ActionFeeUpdated,
				FeeID:    fee.ID,
				MemberID: fee.MemberID,
				Before:   befores[i],
				After:    entity.Snapshot(fee),
				Actor:    actor,
				Reason:   in.Reason,
			}); err != nil {
				return err
			}
		}
		updated = len(fees)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto.UpdateBatchResponse{Updated: updated}, nil
}
