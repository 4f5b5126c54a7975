package fees

import (
	"context"

	"github.com/jhoicas/cuotas-api/internal/domain/entity"
	"github.com/jhoicas/cuotas-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn devuelve error la transacción se revierte completa.
type TxRunner interface {
	Run(ctx context.Context, fn func(tx repository.TxRepos) error) error
}

// StatementRenderer genera la liquidación en PDF de una cuota.
type StatementRenderer interface {
	RenderFeeStatement(ctx context.Context, data StatementData) ([]byte, error)
}

// StatementData datos ya resueltos para el renderer.
type StatementData struct {
	Fee         *entity.Fee
	Member      *entity.Member
	Category    *entity.Category
	Items       []*entity.LineItem
	Explanation []string
}
