package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/cuotas-api/internal/domain/entity"
	"github.com/jhoicas/cuotas-api/internal/domain/repository"
)

var _ repository.BackupRepository = (*BackupRepo)(nil)

// BackupRepo respaldos de rollback; las cuotas respaldadas viajan como JSONB.
type BackupRepo struct {
	q Querier
}

// NewBackupRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBackupRepository(q Querier) *BackupRepo {
	return &BackupRepo{q: q}
}

func (r *BackupRepo) Save(ctx context.Context, backup *entity.RollbackBackup) error {
	if backup.ID == "" {
		backup.ID = uuid.New().String()
	}
	payload, err := json.Marshal(backup.Fees)
	if err != nil {
		return fmt.Errorf("encode rollback backup: %w", err)
	}
	query := `INSERT INTO rollback_respaldos (id, alcance, usuario, motivo, cuotas, fecha) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err = r.q.Exec(ctx, query, backup.ID, backup.Scope, nullIfEmpty(backup.Actor), nullIfEmpty(backup.Reason),
		payload, backup.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert rollback backup: %w", err)
	}
	return nil
}

// GetByID obtiene un respaldo. Devuelve nil, nil si no existe.
func (r *BackupRepo) GetByID(ctx context.Context, id string) (*entity.RollbackBackup, error) {
	var (
		b       entity.RollbackBackup
		payload []byte
	)
	query := `SELECT id, alcance, COALESCE(usuario, ''), COALESCE(motivo, ''), cuotas, fecha
		FROM rollback_respaldos WHERE id = $1`
	err := r.q.QueryRow(ctx, query, id).Scan(&b.ID, &b.Scope, &b.Actor, &b.Reason, &payload, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get rollback backup: %w", err)
	}
	if err := json.Unmarshal(payload, &b.Fees); err != nil {
		return nil, fmt.Errorf("decode rollback backup: %w", err)
	}
	return &b, nil
}
