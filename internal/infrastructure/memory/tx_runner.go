package memory

import (
	"context"

	"github.com/jhoicas/cuotas-api/internal/domain/repository"
)

// TxRunner ejecuta callbacks como transacciones serializadas sobre el Store.
type TxRunner struct {
	s *Store
}

// NewTxRunner construye el runner.
func NewTxRunner(s *Store) *TxRunner {
	return &TxRunner{s: s}
}

// Run ejecuta fn; si devuelve error (o el contexto está cancelado) se restaura el estado previo.
// La secuencia de numeración no se restaura, igual que una secuencia de PostgreSQL.
func (r *TxRunner) Run(ctx context.Context, fn func(tx repository.TxRepos) error) error {
	r.s.txMu.Lock()
	defer r.s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	snap := r.s.snapshot()
	if err := fn(r.s.Repos()); err != nil {
		r.s.restore(snap)
		return err
	}
	if err := ctx.Err(); err != nil {
		r.s.restore(snap)
		return err
	}
	return nil
}
