package fees

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/cuotas-api/internal/domain/entity"
	"github.com/jhoicas/cuotas-api/internal/domain/repository"
)

// Record agrega una entrada al historial usando el repositorio de la transacción en curso.
func Record(ctx context.Context, repo repository.HistoryRepository, entry *entity.HistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if err := repo.Append(ctx, entry); err != nil {
		return fmt.Errorf("historial %s: %w", entry.Action, err)
	}
	return nil
}

// HistoryLedger consulta y retención del historial. Las entradas nunca se modifican.
type HistoryLedger struct {
	repo repository.HistoryRepository
}

// NewHistoryLedger construye el ledger.
func NewHistoryLedger(repo repository.HistoryRepository) *HistoryLedger {
	return &HistoryLedger{repo: repo}
}

func (l *HistoryLedger) ListByFee(ctx context.Context, feeID string) ([]*entity.HistoryEntry, error) {
	return l.repo.ListByFee(ctx, feeID)
}

func (l *HistoryLedger) ListByMember(ctx context.Context, memberID string) ([]*entity.HistoryEntry, error) {
	return l.repo.ListByMember(ctx, memberID)
}

func (l *HistoryLedger) ListByAdjustment(ctx context.Context, adjustmentID string) ([]*entity.HistoryEntry, error) {
	return l.repo.ListByAdjustment(ctx, adjustmentID)
}

// Prune elimina las entradas anteriores a olderThan.
func (l *HistoryLedger) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	n, err := l.repo.DeleteOlderThan(ctx, olderThan)
	if err != nil {
		return 0, fmt.Errorf("podar historial: %w", err)
	}
	return n, nil
}
