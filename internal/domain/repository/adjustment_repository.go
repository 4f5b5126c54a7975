package repository

import (
	"context"
	"time"

	"github.com/jhoicas/cuotas-api/internal/domain/entity"
)

// AdjustmentRepository puerto de persistencia de ajustes.
type AdjustmentRepository interface {
	Create(ctx context.Context, adj *entity.Adjustment) error
	GetByID(ctx context.Context, id string) (*entity.Adjustment, error)
	ListByMember(ctx context.Context, memberID string) ([]*entity.Adjustment, error)
	// FindActive devuelve los ajustes activos cuya ventana contiene date y cuyo ámbito alcanza
	// al socio (INDIVIDUAL), a su categoría (CATEGORIA) o a todos (GLOBAL).
	FindActive(ctx context.Context, memberID, categoryID string, date time.Time) ([]*entity.Adjustment, error)
	List(ctx context.Context) ([]*entity.Adjustment, error)
	Update(ctx context.Context, adj *entity.Adjustment) error
}

// ExemptionRepository puerto de persistencia de exenciones.
type ExemptionRepository interface {
	Create(ctx context.Context, ex *entity.Exemption) error
	GetByID(ctx context.Context, id string) (*entity.Exemption, error)
	Update(ctx context.Context, ex *entity.Exemption) error
	ListByMember(ctx context.Context, memberID string) ([]*entity.Exemption, error)
	ListByState(ctx context.Context, state entity.ExemptionState) ([]*entity.Exemption, error)
	List(ctx context.Context) ([]*entity.Exemption, error)
}

// HistoryRepository puerto del historial append-only.
type HistoryRepository interface {
	Append(ctx context.Context, entry *entity.HistoryEntry) error
	ListByFee(ctx context.Context, feeID string) ([]*entity.HistoryEntry, error)
	ListByMember(ctx context.Context, memberID string) ([]*entity.HistoryEntry, error)
	ListByAdjustment(ctx context.Context, adjustmentID string) ([]*entity.HistoryEntry, error)
	// DeleteOlderThan poda por antigüedad (retención). Es la única eliminación permitida.
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}
