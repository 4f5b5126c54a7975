package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/cuotas-api/internal/domain/entity"
	"github.com/jhoicas/cuotas-api/internal/domain/repository"
)

var _ repository.AdjustmentRepository = (*AdjustmentRepo)(nil)

const adjustmentColumns = `id, COALESCE(socio_id, ''), COALESCE(categoria_id, ''), ambito, tipo, origen, valor,
	COALESCE(formula, ''), motivo, fecha_inicio, fecha_fin, activo, eliminado, COALESCE(creado_por, ''),
	created_at, updated_at`

// AdjustmentRepo implementación de AdjustmentRepository (usable con pool o tx).
type AdjustmentRepo struct {
	q Querier
}

// NewAdjustmentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAdjustmentRepository(q Querier) *AdjustmentRepo {
	return &AdjustmentRepo{q: q}
}

func (r *AdjustmentRepo) Create(ctx context.Context, adj *entity.Adjustment) error {
	if adj.ID == "" {
		adj.ID = uuid.New().String()
	}
	query := `
		INSERT INTO ajustes (id, socio_id, categoria_id, ambito, tipo, origen, valor, formula, motivo,
			fecha_inicio, fecha_fin, activo, eliminado, creado_por, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := r.q.Exec(ctx, query,
		adj.ID, nullIfEmpty(adj.MemberID), nullIfEmpty(adj.CategoryID), adj.Scope, adj.Type, adj.Kind,
		adj.Value, nullIfEmpty(adj.Formula), adj.Reason, adj.StartDate, adj.EndDate,
		adj.Active, adj.Deleted, nullIfEmpty(adj.CreatedBy), adj.CreatedAt, adj.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("insert adjustment: socio o categoría inexistente: %w", err)
		}
		return fmt.Errorf("insert adjustment: %w", err)
	}
	return nil
}

// GetByID obtiene un ajuste (incluso eliminado). Devuelve nil, nil si no existe.
func (r *AdjustmentRepo) GetByID(ctx context.Context, id string) (*entity.Adjustment, error) {
	adj, err := scanAdjustment(r.q.QueryRow(ctx, `SELECT `+adjustmentColumns+` FROM ajustes WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get adjustment: %w", err)
	}
	return adj, nil
}

// ListByMember ajustes no eliminados del socio.
func (r *AdjustmentRepo) ListByMember(ctx context.Context, memberID string) ([]*entity.Adjustment, error) {
	query := `SELECT ` + adjustmentColumns + ` FROM ajustes
		WHERE socio_id = $1 AND NOT eliminado ORDER BY created_at, id`
	return r.list(ctx, "list adjustments by member", query, memberID)
}

// FindActive ajustes activos vigentes en date cuyo ámbito alcanza al socio o a su categoría.
func (r *AdjustmentRepo) FindActive(ctx context.Context, memberID, categoryID string, date time.Time) ([]*entity.Adjustment, error) {
	query := `SELECT ` + adjustmentColumns + ` FROM ajustes
		WHERE activo AND NOT eliminado
		  AND fecha_inicio <= $3::date AND (fecha_fin IS NULL OR fecha_fin >= $3::date)
		  AND ((ambito = 'INDIVIDUAL' AND socio_id = $1)
		    OR (ambito = 'CATEGORIA' AND categoria_id = $2)
		    OR ambito = 'GLOBAL')
		ORDER BY created_at, id`
	return r.list(ctx, "find active adjustments", query, memberID, categoryID, date)
}

// List todos los ajustes, incluidos los eliminados.
func (r *AdjustmentRepo) List(ctx context.Context) ([]*entity.Adjustment, error) {
	return r.list(ctx, "list adjustments", `SELECT `+adjustmentColumns+` FROM ajustes ORDER BY created_at, id`)
}

func (r *AdjustmentRepo) Update(ctx context.Context, adj *entity.Adjustment) error {
	query := `
		UPDATE ajustes
		SET tipo = $2, valor = $3, formula = $4, motivo = $5, fecha_inicio = $6, fecha_fin = $7,
		    activo = $8, eliminado = $9, updated_at = $10
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		adj.ID, adj.Type, adj.Value, nullIfEmpty(adj.Formula), adj.Reason, adj.StartDate, adj.EndDate,
		adj.Active, adj.Deleted, adj.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update adjustment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update adjustment: ajuste %s inexistente", adj.ID)
	}
	return nil
}

func (r *AdjustmentRepo) list(ctx context.Context, op, query string, args ...any) ([]*entity.Adjustment, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	var list []*entity.Adjustment
	for rows.Next() {
		adj, err := scanAdjustment(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		list = append(list, adj)
	}
	return list, rows.Err()
}

func scanAdjustment(row pgx.Row) (*entity.Adjustment, error) {
	var a entity.Adjustment
	err := row.Scan(
		&a.ID, &a.MemberID, &a.CategoryID, &a.Scope, &a.Type, &a.Kind, &a.Value,
		&a.Formula, &a.Reason, &a.StartDate, &a.EndDate, &a.Active, &a.Deleted, &a.CreatedBy,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
