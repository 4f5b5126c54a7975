package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/cuotas-api/internal/domain/entity"
	"github.com/jhoicas/cuotas-api/internal/domain/repository"
)

var _ repository.ExemptionRepository = (*ExemptionRepo)(nil)

const exemptionColumns = `id, socio_id, porcentaje, desde_mes, desde_anio, hasta_mes, hasta_anio, estado, motivo,
	COALESCE(solicitado_por, ''), COALESCE(resuelto_por, ''), fecha_solicitud, fecha_aprobacion, fecha_rechazo,
	fecha_revocacion, updated_at`

// ExemptionRepo implementación de ExemptionRepository (usable con pool o tx).
type ExemptionRepo struct {
	q Querier
}

// NewExemptionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewExemptionRepository(q Querier) *ExemptionRepo {
	return &ExemptionRepo{q: q}
}

func (r *ExemptionRepo) Create(ctx context.Context, ex *entity.Exemption) error {
	if ex.ID == "" {
		ex.ID = uuid.New().String()
	}
	query := `
		INSERT INTO exenciones (id, socio_id, porcentaje, desde_mes, desde_anio, hasta_mes, hasta_anio, estado,
			motivo, solicitado_por, resuelto_por, fecha_solicitud, fecha_aprobacion, fecha_rechazo,
			fecha_revocacion, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := r.q.Exec(ctx, query,
		ex.ID, ex.MemberID, ex.Percentage, ex.From.Month, ex.From.Year, ex.To.Month, ex.To.Year, string(ex.State),
		ex.Reason, nullIfEmpty(ex.RequestedBy), nullIfEmpty(ex.ResolvedBy), ex.RequestedAt, ex.ApprovedAt,
		ex.RejectedAt, ex.RevokedAt, ex.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("insert exemption: socio inexistente: %w", err)
		}
		return fmt.Errorf("insert exemption: %w", err)
	}
	return nil
}

// GetByID obtiene una exención. Devuelve nil, nil si no existe.
func (r *ExemptionRepo) GetByID(ctx context.Context, id string) (*entity.Exemption, error) {
	ex, err := scanExemption(r.q.QueryRow(ctx, `SELECT `+exemptionColumns+` FROM exenciones WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get exemption: %w", err)
	}
	return ex, nil
}

// Update persiste estado, resolución y fechas de la exención.
func (r *ExemptionRepo) Update(ctx context.Context, ex *entity.Exemption) error {
	query := `
		UPDATE exenciones
		SET estado = $2, resuelto_por = $3, fecha_aprobacion = $4, fecha_rechazo = $5, fecha_revocacion = $6,
		    motivo = $7, updated_at = $8
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		ex.ID, string(ex.State), nullIfEmpty(ex.ResolvedBy), ex.ApprovedAt, ex.RejectedAt, ex.RevokedAt,
		ex.Reason, ex.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update exemption: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update exemption: exención %s inexistente", ex.ID)
	}
	return nil
}

func (r *ExemptionRepo) ListByMember(ctx context.Context, memberID string) ([]*entity.Exemption, error) {
	query := `SELECT ` + exemptionColumns + ` FROM exenciones WHERE socio_id = $1 ORDER BY fecha_solicitud, id`
	return r.list(ctx, "list exemptions by member", query, memberID)
}

func (r *ExemptionRepo) ListByState(ctx context.Context, state entity.ExemptionState) ([]*entity.Exemption, error) {
	query := `SELECT ` + exemptionColumns + ` FROM exenciones WHERE estado = $1 ORDER BY fecha_solicitud, id`
	return r.list(ctx, "list exemptions by state", query, string(state))
}

func (r *ExemptionRepo) List(ctx context.Context) ([]*entity.Exemption, error) {
	return r.list(ctx, "list exemptions", `SELECT `+exemptionColumns+` FROM exenciones ORDER BY fecha_solicitud, id`)
}

func (r *ExemptionRepo) list(ctx context.Context, op, query string, args ...any) ([]*entity.Exemption, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	var list []*entity.Exemption
	for rows.Next() {
		ex, err := scanExemption(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		list = append(list, ex)
	}
	return list, rows.Err()
}

func scanExemption(row pgx.Row) (*entity.Exemption, error) {
	var (
		e     entity.Exemption
		state string
	)
	err := row.Scan(
		&e.ID, &e.MemberID, &e.Percentage, &e.From.Month, &e.From.Year, &e.To.Month, &e.To.Year, &state,
		&e.Reason, &e.RequestedBy, &e.ResolvedBy, &e.RequestedAt, &e.ApprovedAt, &e.RejectedAt,
		&e.RevokedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.State = entity.ExemptionState(state)
	return &e, nil
}
