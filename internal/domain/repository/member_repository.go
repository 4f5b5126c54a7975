package repository

import (
	"context"

	"github.com/jhoicas/cuotas-api/internal/domain/entity"
)

// MemberRepository puerto de lectura del padrón de socios (colaborador externo).
type MemberRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Member, error)
	// ListActive devuelve los socios activos de las categorías indicadas (todas si está vacío).
	ListActive(ctx context.Context, categoryIDs []string) ([]*entity.Member, error)
}

// CategoryRepository puerto de lectura de categorías y tarifas.
type CategoryRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Category, error)
	GetByCode(ctx context.Context, code string) (*entity.Category, error)
	List(ctx context.Context) ([]*entity.Category, error)
}

// ActivityRepository puerto de lectura de inscripciones a actividades aranceladas.
type ActivityRepository interface {
	ListBillableByMember(ctx context.Context, memberID string) ([]*entity.Activity, error)
}

// ReceiptRepository puerto del colaborador de recibos.
type ReceiptRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Receipt, error)
	// LockByID lee el recibo bloqueando la fila hasta el fin de la transacción.
	LockByID(ctx context.Context, id string) (*entity.Receipt, error)
}
