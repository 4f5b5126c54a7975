package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/cuotas-api/internal/domain/entity"
	"github.com/jhoicas/cuotas-api/internal/domain/repository"
)

var _ repository.HistoryRepository = (*HistoryRepo)(nil)

const historyColumns = `id, accion, COALESCE(ajuste_id, ''), COALESCE(exencion_id, ''), COALESCE(cuota_id, ''),
	COALESCE(socio_id, ''), antes, despues, COALESCE(usuario, ''), COALESCE(motivo, ''), fecha`

// HistoryRepo historial append-only. No expone Update ni Delete por id.
type HistoryRepo struct {
	q Querier
}

// NewHistoryRepository construye el adaptador. Pasar pool o tx (Querier).
func NewHistoryRepository(q Querier) *HistoryRepo {
	return &HistoryRepo{q: q}
}

func (r *HistoryRepo) Append(ctx context.Context, entry *entity.HistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	query := `
		INSERT INTO historial (id, accion, ajuste_id, exencion_id, cuota_id, socio_id, antes, despues, usuario, motivo, fecha)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		entry.ID, entry.Action, nullIfEmpty(entry.AdjustmentID), nullIfEmpty(entry.ExemptionID),
		nullIfEmpty(entry.FeeID), nullIfEmpty(entry.MemberID), nullJSON(entry.Before), nullJSON(entry.After),
		nullIfEmpty(entry.Actor), nullIfEmpty(entry.Reason), entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}

func (r *HistoryRepo) ListByFee(ctx context.Context, feeID string) ([]*entity.HistoryEntry, error) {
	return r.list(ctx, "list history by fee", `WHERE cuota_id = $1`, feeID)
}

func (r *HistoryRepo) ListByMember(ctx context.Context, memberID string) ([]*entity.HistoryEntry, error) {
	return r.list(ctx, "list history by member", `WHERE socio_id = $1`, memberID)
}

func (r *HistoryRepo) ListByAdjustment(ctx context.Context, adjustmentID string) ([]*entity.HistoryEntry, error) {
	return r.list(ctx, "list history by adjustment", `WHERE ajuste_id = $1`, adjustmentID)
}

// DeleteOlderThan poda por retención. Devuelve la cantidad de filas eliminadas.
func (r *HistoryRepo) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM historial WHERE fecha < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *HistoryRepo) list(ctx context.Context, op, where string, args ...any) ([]*entity.HistoryEntry, error) {
	rows, err := r.q.Query(ctx, `SELECT `+historyColumns+` FROM historial `+where+` ORDER BY seq`, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	var list []*entity.HistoryEntry
	for rows.Next() {
		var (
			h             entity.HistoryEntry
			before, after []byte
		)
		if err := rows.Scan(&h.ID, &h.Action, &h.AdjustmentID, &h.ExemptionID, &h.FeeID, &h.MemberID,
			&before, &after, &h.Actor, &h.Reason, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		h.Before, h.After = before, after
		list = append(list, &h)
	}
	return list, rows.Err()
}

// nullJSON guarda NULL en lugar de un snapshot vacío.
func nullJSON(raw []byte) []byte {
	if len(raw) == 0 {
		return nil
	}
	return raw
}
