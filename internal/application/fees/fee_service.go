package fees

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/cuotas-api/internal/application/dto"
	"github.com/jhoicas/cuotas-api/internal/domain"
	"github.com/jhoicas/cuotas-api/internal/domain/entity"
	"github.com/jhoicas/cuotas-api/internal/domain/repository"
)

// FeeService consulta de cuotas y vinculación con recibos.
type FeeService struct {
	tx    TxRunner
	fees  repository.FeeRepository
	items repository.LineItemRepository
}

// NewFeeService construye el servicio.
func NewFeeService(tx TxRunner, fees repository.FeeRepository, items repository.LineItemRepository) *FeeService {
	return &FeeService{tx: tx, fees: fees, items: items}
}

// GetFee cuota con sus ítems.
func (s *FeeService) GetFee(ctx context.Context, id string) (*dto.FeeDetailResponse, error) {
	fee, err := s.fees.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("cuota %s: %w", id, err)
	}
	if fee == nil {
		return nil, domain.NewNotFoundError("cuota %s no encontrada", id)
	}
	items, err := s.items.ListByFee(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ítems cuota %s: %w", id, err)
	}
	if items == nil {
		items = []*entity.LineItem{}
	}
	return &dto.FeeDetailResponse{Fee: fee, Items: items}, nil
}

// ListByMember cuotas del socio en el rango (MM-YYYY); vacío = sin límite.
func (s *FeeService) ListByMember(ctx context.Context, memberID, from, to string) ([]*entity.Fee, error) {
	start, end := entity.Period{Month: 1, Year: 2000}, entity.Period{Month: 12, Year: 2100}
	var err error
	if from != "" {
		if start, err = entity.ParsePeriod(from); err != nil {
			return nil, invalid(err)
		}
	}
	if to != "" {
		if end, err = entity.ParsePeriod(to); err != nil {
			return nil, invalid(err)
		}
	}
	list, err := s.fees.ListByMember(ctx, memberID, start, end)
	if err != nil {
		return nil, fmt.Errorf("cuotas socio %s: %w", memberID, err)
	}
	if list == nil {
		list = []*entity.Fee{}
	}
	return list, nil
}

// LinkReceipt vincula un recibo emitido. Un recibo PAGADO marca la cuota como PAGADA.
func (s *FeeService) LinkReceipt(ctx context.Context, actor, feeID string, in dto.LinkReceiptRequest) (*entity.Fee, error) {
	if in.ReceiptID == "" {
		return nil, domain.NewValidationError("recibo_id es obligatorio")
	}
	var out *entity.Fee
	err := s.tx.Run(ctx, func(tx repository.TxRepos) error {
		fee, err := tx.Fees.LockByID(ctx, feeID)
		if err != nil {
			return fmt.Errorf("cuota %s: %w", feeID, err)
		}
		if fee == nil {
			return domain.NewNotFoundError("cuota %s no encontrada", feeID)
		}
		if fee.ReceiptID != "" && fee.ReceiptID != in.ReceiptID {
			return domain.NewConflictError("la cuota %d ya tiene el recibo %s", fee.Number, fee.ReceiptID)
		}
		rc, err := tx.Receipts.LockByID(ctx, in.ReceiptID)
		if err != nil {
			return fmt.Errorf("recibo %s: %w", in.ReceiptID, err)
		}
		if rc == nil {
			return domain.NewNotFoundError("recibo %s no encontrado", in.ReceiptID)
		}
		before := entity.Snapshot(fee)
		fee.ReceiptID = rc.ID
		if rc.Status == entity.ReceiptStatusPaid {
			fee.Status = entity.FeeStatusPaid
		}
		fee.UpdatedAt = time.Now()
		if err := tx.Fees.Update(ctx, fee); err != nil {
			return fmt.Errorf("actualizar cuota %s: %w", fee.ID, err)
		}
		out = fee
		return Record(ctx, tx.History, &entity.HistoryEntry{
			Action:   entity.ActionFeeReceiptLinked,
			FeeID:    fee.ID,
			MemberID: fee.MemberID,
			Before:   before,
			After:    entity.Snapshot(fee),
			Actor:    actor,
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
