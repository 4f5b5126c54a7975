package fees

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/cuotas-api/internal/domain"
	"github.com/jhoicas/cuotas-api/internal/domain/entity"
	"github.com/jhoicas/cuotas-api/internal/domain/repository"
)

func invalid(err error) error {
	return domain.NewValidationError("%v", err)
}

func money(d decimal.Decimal) string { return d.StringFixed(2) }

// blockReason indica por qué la cuota no admite cambios ni eliminación ("" = libre).
func blockReason(fee *entity.Fee, receipt *entity.Receipt) string {
	switch {
	case fee.Status == entity.FeeStatusPaid:
		return "cuota pagada"
	case fee.Status == entity.FeeStatusCanceled:
		return "cuota anulada"
	case receipt.Locked():
		return fmt.Sprintf("recibo %d en estado %s", receipt.Number, receipt.Status)
	}
	return ""
}

// loadReceipt lee el recibo vinculado; lock=true bloquea la fila dentro de la transacción.
func loadReceipt(ctx context.Context, repo repository.ReceiptRepository, fee *entity.Fee, lock bool) (*entity.Receipt, error) {
	if fee.ReceiptID == "" {
		return nil, nil
	}
	var (
		rc  *entity.Receipt
		err error
	)
	if lock {
		rc, err = repo.LockByID(ctx, fee.ReceiptID)
	} else {
		rc, err = repo.GetByID(ctx, fee.ReceiptID)
	}
	if err != nil {
		return nil, fmt.Errorf("recibo %s: %w", fee.ReceiptID, err)
	}
	return rc, nil
}

// ensureEditable bloquea la cuota y su recibo, y devuelve conflicto si están cerrados.
func ensureEditable(ctx context.Context, tx repository.TxRepos, feeID string) (*entity.Fee, error) {
	fee, err := tx.Fees.LockByID(ctx, feeID)
	if err != nil {
		return nil, fmt.Errorf("cuota %s: %w", feeID, err)
	}
	if fee == nil {
		return nil, domain.NewNotFoundError("cuota %s no encontrada", feeID)
	}
	rc, err := loadReceipt(ctx, tx.Receipts, fee, true)
	if err != nil {
		return nil, err
	}
	if reason := blockReason(fee, rc); reason != "" {
		return nil, domain.NewConflictError("cuota %d bloqueada: %s", fee.Number, reason)
	}
	return fee, nil
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
