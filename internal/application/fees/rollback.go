package fees

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/cuotas-api/internal/application/dto"
	"github.com/jhoicas/cuotas-api/internal/domain"
	"github.com/jhoicas/cuotas-api/internal/domain/entity"
	"github.com/jhoicas/cuotas-api/internal/domain/repository"
	"github.com/jhoicas/cuotas-api/pkg/logger"
)

// RollbackService deshace cuotas generadas. PREVIEW solo clasifica; APLICAR respalda y elimina.
type RollbackService struct {
	tx       TxRunner
	fees     repository.FeeRepository
	receipts repository.ReceiptRepository
	rates    *CategoryRateResolver
	metrics  *Metrics
	log      *logger.Logger
}

// NewRollbackService construye el servicio.
func NewRollbackService(
	tx TxRunner,
	fees repository.FeeRepository,
	receipts repository.ReceiptRepository,
	rates *CategoryRateResolver,
	metrics *Metrics,
	log *logger.Logger,
) *RollbackService {
	if log == nil {
		log = logger.Nop()
	}
	return &RollbackService{
		tx:       tx,
		fees:     fees,
		receipts: receipts,
		rates:    rates,
		metrics:  metrics,
		log:      log.Named("rollback"),
	}
}

// RollbackBatch deshace las cuotas de un período (y categorías opcionales).
func (s *RollbackService) RollbackBatch(ctx context.Context, actor string, in dto.RollbackBatchRequest) (*dto.RollbackResponse, error) {
	mode, err := parseRollbackMode(in.Mode)
	if err != nil {
		return nil, err
	}
	period, err := entity.NewPeriod(in.Month, in.Year)
	if err != nil {
		return nil, invalid(err)
	}
	categoryIDs, err := s.rates.ResolveIDs(ctx, in.Categories)
	if err != nil {
		return nil, err
	}
	list, err := s.fees.ListByPeriod(ctx, period, categoryIDs)
	if err != nil {
		return nil, fmt.Errorf("listar cuotas: %w", err)
	}
	scope := "periodo " + period.String()
	if len(in.Categories) > 0 {
		scope += " categorias " + strings.Join(in.Categories, ",")
	}
	return s.run(ctx, actor, in.Reason, mode, scope, list)
}

// RollbackFee deshace una única cuota.
func (s *RollbackService) RollbackFee(ctx context.Context, actor, feeID string, in dto.RollbackFeeRequest) (*dto.RollbackResponse, error) {
	mode, err := parseRollbackMode(in.Mode)
	if err != nil {
		return nil, err
	}
	fee, err := s.fees.GetByID(ctx, feeID)
	if err != nil {
		return nil, fmt.Errorf("cuota %s: %w", feeID, err)
	}
	if fee == nil {
		return nil, domain.NewNotFoundError("cuota %s no encontrada", feeID)
	}
	return s.run(ctx, actor, in.Reason, mode, "cuota "+fee.ID, []*entity.Fee{fee})
}

func parseRollbackMode(mode string) (string, error) {
	switch mode {
	case dto.RollbackModePreview, dto.RollbackModeApply:
		return mode, nil
	}
	return "", domain.NewValidationError("modo debe ser %s o %s", dto.RollbackModePreview, dto.RollbackModeApply)
}

func (s *RollbackService) run(ctx context.Context, actor, reason, mode, scope string, list []*entity.Fee) (*dto.RollbackResponse, error) {
	resp := &dto.RollbackResponse{
		Mode:        mode,
		Eliminables: []dto.RollbackFeeDetail{},
		Bloqueadas:  []dto.RollbackFeeDetail{},
	}
	for _, fee := range list {
		rc, err := loadReceipt(ctx, s.receipts, fee, false)
		if err != nil {
			return nil, err
		}
		d := detailOf(fee, rc)
		if d.BlockReason != "" {
			resp.Bloqueadas = append(resp.Bloqueadas, d)
		} else {
			resp.Eliminables = append(resp.Eliminables, d)
		}
	}
	resp.Stats.Total = len(list)

	if mode == dto.RollbackModePreview {
		resp.Stats.Eliminables = len(resp.Eliminables)
		resp.Stats.Bloqueadas = len(resp.Bloqueadas)
		return resp, nil
	}

	var (
		deleted, late []dto.RollbackFeeDetail
		backup        *entity.RollbackBackup
	)
	err := s.tx.Run(ctx, func(tx repository.TxRepos) error {
		deleted, late, backup = nil, nil, nil
		snaps := make([]entity.FeeSnapshot, 0, len(resp.Eliminables))

		// 1) Re-leer con bloqueo y re-clasificar: un pago concurrente mueve la cuota a bloqueadas.
		for _, candidate := range resp.Eliminables {
			fee, err := tx.Fees.LockByID(ctx, candidate.FeeID)
			if err != nil {
				return fmt.Errorf("cuota %s: %w", candidate.FeeID, err)
			}
			if fee == nil {
				continue
			}
			rc, err := loadReceipt(ctx, tx.Receipts, fee, true)
			if err != nil {
				return err
			}
			d := detailOf(fee, rc)
			if d.BlockReason != "" {
				late = append(late, d)
				continue
			}
			items, err := tx.Items.ListByFee(ctx, fee.ID)
			if err != nil {
				return fmt.Errorf("ítems cuota %s: %w", fee.ID, err)
			}
			snaps = append(snaps, entity.FeeSnapshot{Fee: fee, Items: items, ReceiptID: d.ReceiptID, ReceiptStatus: d.ReceiptStatus})
			deleted = append(deleted, d)
		}
		if len(snaps) == 0 {
			return nil
		}

		// 2) Respaldo antes de borrar.
		backup = &entity.RollbackBackup{
			ID:        uuid.New().String(),
			Scope:     scope,
			Actor:     actor,
			Reason:    reason,
			Fees:      snaps,
			CreatedAt: time.Now(),
		}
		if err := tx.Backups.Save(ctx, backup); err != nil {
			return fmt.Errorf("guardar respaldo: %w", err)
		}

		// 3) Ítems, cuota e historial por cada eliminada.
		for _, snap := range snaps {
			if err := tx.Items.DeleteByFee(ctx, snap.Fee.ID); err != nil {
				return fmt.Errorf("borrar ítems cuota %s: %w", snap.Fee.ID, err)
			}
			if err := tx.Fees.Delete(ctx, snap.Fee.ID); err != nil {
				return fmt.Errorf("borrar cuota %s: %w", snap.Fee.ID, err)
			}
			if err := Record(ctx, tx.History, &entity.HistoryEntry{
				Action:   entity.ActionFeeDeleted,
				FeeID:    snap.Fee.ID,
				MemberID: snap.Fee.MemberID,
				Before:   entity.Snapshot(snap),
				Actor:    actor,
				Reason:   reason,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if deleted == nil {
		deleted = []dto.RollbackFeeDetail{}
	}
	resp.Eliminables = deleted
	resp.Bloqueadas = append(resp.Bloqueadas, late...)
	resp.Backup = backup
	resp.Stats.Eliminables = len(deleted)
	resp.Stats.Bloqueadas = len(resp.Bloqueadas)
	resp.Stats.Eliminadas = len(deleted)

	s.metrics.rolledBack(len(deleted), len(resp.Bloqueadas))
	s.log.Info().
		Str("alcance", scope).
		Str("usuario", actor).
		Int("eliminadas", len(deleted)).
		Int("bloqueadas", len(resp.Bloqueadas)).
		Msg("rollback aplicado")
	return resp, nil
}

func detailOf(fee *entity.Fee, rc *entity.Receipt) dto.RollbackFeeDetail {
	d := dto.RollbackFeeDetail{
		FeeID:       fee.ID,
		MemberID:    fee.MemberID,
		Period:      fee.Period,
		Number:      fee.Number,
		Total:       fee.TotalAmount,
		ReceiptID:   fee.ReceiptID,
		BlockReason: blockReason(fee, rc),
	}
	if rc != nil {
		d.ReceiptStatus = rc.Status
	}
	return d
}
