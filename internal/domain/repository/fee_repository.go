package repository

import (
	"context"

	"github.com/jhoicas/cuotas-api/internal/domain/entity"
)

// FeeRepository puerto de persistencia de cuotas.
// No hay restricción de unicidad por (período, categoría): los duplicados son válidos.
type FeeRepository interface {
	Create(ctx context.Context, fee *entity.Fee) error
	GetByID(ctx context.Context, id string) (*entity.Fee, error)
	// LockByID lee la cuota con bloqueo de fila (SELECT ... FOR UPDATE).
	LockByID(ctx context.Context, id string) (*entity.Fee, error)
	ListByIDs(ctx context.Context, ids []string) ([]*entity.Fee, error)
	ListByPeriod(ctx context.Context, period entity.Period, categoryIDs []string) ([]*entity.Fee, error)
	ListByMember(ctx context.Context, memberID string, from, to entity.Period) ([]*entity.Fee, error)
	// UpdateAmounts actualiza montos de varias cuotas en una única sentencia.
	UpdateAmounts(ctx context.Context, fees []*entity.Fee) error
	Update(ctx context.Context, fee *entity.Fee) error
	Delete(ctx context.Context, id string) error
	// NextNumber obtiene el siguiente número de una secuencia atómica.
	NextNumber(ctx context.Context) (int64, error)
}

// LineItemRepository puerto de persistencia de ítems de cuota.
type LineItemRepository interface {
	CreateBatch(ctx context.Context, items []*entity.LineItem) error
	GetByID(ctx context.Context, id string) (*entity.LineItem, error)
	ListByFee(ctx context.Context, feeID string) ([]*entity.LineItem, error)
	Delete(ctx context.Context, id string) error
	DeleteByFee(ctx context.Context, feeID string) error
	// DeleteAutomatic borra solo los ítems AUTO de la cuota; los manuales quedan intactos.
	DeleteAutomatic(ctx context.Context, feeID string) error
}

// BackupRepository respaldos de filas eliminadas por rollback.
type BackupRepository interface {
	Save(ctx context.Context, backup *entity.RollbackBackup) error
	GetByID(ctx context.Context, id string) (*entity.RollbackBackup, error)
}
