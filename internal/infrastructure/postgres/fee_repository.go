package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/cuotas-api/internal/domain/entity"
	"github.com/jhoicas/cuotas-api/internal/domain/repository"
)

var _ repository.FeeRepository = (*FeeRepo)(nil)

const feeColumns = `id, socio_id, mes, anio, categoria_id, monto_base, monto_actividades, monto_descuento,
	monto_total, numero, COALESCE(recibo_id, ''), estado, COALESCE(lote_id, ''), COALESCE(observaciones, ''),
	created_at, updated_at`

// FeeRepo implementación de FeeRepository (usable con pool o tx).
type FeeRepo struct {
	q Querier
}

// NewFeeRepository construye el adaptador. Pasar pool o tx (Querier).
func NewFeeRepository(q Querier) *FeeRepo {
	return &FeeRepo{q: q}
}

// Create persiste la cabecera de la cuota.
func (r *FeeRepo) Create(ctx context.Context, fee *entity.Fee) error {
	if fee.ID == "" {
		fee.ID = uuid.New().String()
	}
	query := `
		INSERT INTO cuotas (id, socio_id, mes, anio, categoria_id, monto_base, monto_actividades, monto_descuento,
			monto_total, numero, recibo_id, estado, lote_id, observaciones, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := r.q.Exec(ctx, query,
		fee.ID, fee.MemberID, fee.Period.Month, fee.Period.Year, fee.CategoryID,
		fee.BaseAmount, fee.ActivitiesAmount, fee.DiscountAmount, fee.TotalAmount, fee.Number,
		nullIfEmpty(fee.ReceiptID), fee.Status, nullIfEmpty(fee.BatchID), nullIfEmpty(fee.Note),
		fee.CreatedAt, fee.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("fee number %d already exists: %w", fee.Number, err)
		}
		return fmt.Errorf("insert fee: %w", err)
	}
	return nil
}

// GetByID obtiene una cuota. Devuelve nil, nil si no existe.
func (r *FeeRepo) GetByID(ctx context.Context, id string) (*entity.Fee, error) {
	fee, err := scanFee(r.q.QueryRow(ctx, `SELECT `+feeColumns+` FROM cuotas WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get fee: %w", err)
	}
	return fee, nil
}

// LockByID igual que GetByID pero bloquea la fila hasta el fin de la transacción.
func (r *FeeRepo) LockByID(ctx context.Context, id string) (*entity.Fee, error) {
	fee, err := scanFee(r.q.QueryRow(ctx, `SELECT `+feeColumns+` FROM cuotas WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, fmt.Errorf("lock fee: %w", err)
	}
	return fee, nil
}

// ListByIDs devuelve las cuotas existentes respetando el orden de ids.
func (r *FeeRepo) ListByIDs(ctx context.Context, ids []string) ([]*entity.Fee, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	list, err := r.list(ctx, `SELECT `+feeColumns+` FROM cuotas WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("list fees by ids: %w", err)
	}
	byID := make(map[string]*entity.Fee, len(list))
	for _, f := range list {
		byID[f.ID] = f
	}
	out := make([]*entity.Fee, 0, len(list))
	for _, id := range ids {
		if f, ok := byID[id]; ok {
			out = append(out, f)
		}
	}
	return out, nil
}

// ListByPeriod cuotas del período, filtradas por categoría si categoryIDs no está vacío.
func (r *FeeRepo) ListByPeriod(ctx context.Context, period entity.Period, categoryIDs []string) ([]*entity.Fee, error) {
	query := `SELECT ` + feeColumns + ` FROM cuotas
		WHERE mes = $1 AND anio = $2 AND ($3::text[] IS NULL OR categoria_id = ANY($3))
		ORDER BY numero`
	list, err := r.list(ctx, query, period.Month, period.Year, emptyAsNil(categoryIDs))
	if err != nil {
		return nil, fmt.Errorf("list fees by period: %w", err)
	}
	return list, nil
}

// ListByMember cuotas del socio en el rango cerrado [from, to].
func (r *FeeRepo) ListByMember(ctx context.Context, memberID string, from, to entity.Period) ([]*entity.Fee, error) {
	query := `SELECT ` + feeColumns + ` FROM cuotas
		WHERE socio_id = $1 AND (anio * 12 + mes - 1) BETWEEN $2 AND $3
		ORDER BY numero`
	list, err := r.list(ctx, query, memberID, from.Index(), to.Index())
	if err != nil {
		return nil, fmt.Errorf("list fees by member: %w", err)
	}
	return list, nil
}

// UpdateAmounts actualiza los montos de todas las cuotas en una sola sentencia (UPDATE ... FROM unnest).
func (r *FeeRepo) UpdateAmounts(ctx context.Context, fees []*entity.Fee) error {
	if len(fees) == 0 {
		return nil
	}
	var (
		ids       = make([]string, len(fees))
		bases     = make([]decimal.Decimal, len(fees))
		acts      = make([]decimal.Decimal, len(fees))
		discounts = make([]decimal.Decimal, len(fees))
		totals    = make([]decimal.Decimal, len(fees))
		updated   = make([]time.Time, len(fees))
	)
	for i, f := range fees {
		ids[i], bases[i], acts[i] = f.ID, f.BaseAmount, f.ActivitiesAmount
		discounts[i], totals[i], updated[i] = f.DiscountAmount, f.TotalAmount, f.UpdatedAt
	}
	query := `
		UPDATE cuotas c
		SET monto_base = v.base,
		    monto_actividades = v.actividades,
		    monto_descuento = v.descuento,
		    monto_total = v.total,
		    updated_at = v.updated_at
		FROM unnest($1::text[], $2::numeric[], $3::numeric[], $4::numeric[], $5::numeric[], $6::timestamptz[])
			AS v(id, base, actividades, descuento, total, updated_at)
		WHERE c.id = v.id`
	tag, err := r.q.Exec(ctx, query, ids, bases, acts, discounts, totals, updated)
	if err != nil {
		return fmt.Errorf("update fee amounts: %w", err)
	}
	if tag.RowsAffected() != int64(len(fees)) {
		return fmt.Errorf("update fee amounts: %d de %d cuotas actualizadas", tag.RowsAffected(), len(fees))
	}
	return nil
}

// Update reescribe la cuota completa.
func (r *FeeRepo) Update(ctx context.Context, fee *entity.Fee) error {
	query := `
		UPDATE cuotas
		SET categoria_id = $2, monto_base = $3, monto_actividades = $4, monto_descuento = $5, monto_total = $6,
		    recibo_id = $7, estado = $8, observaciones = $9, updated_at = $10
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		fee.ID, fee.CategoryID, fee.BaseAmount, fee.ActivitiesAmount, fee.DiscountAmount, fee.TotalAmount,
		nullIfEmpty(fee.ReceiptID), fee.Status, nullIfEmpty(fee.Note), fee.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update fee: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update fee: cuota %s inexistente", fee.ID)
	}
	return nil
}

// Delete elimina la cuota; sus ítems caen por ON DELETE CASCADE.
func (r *FeeRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM cuotas WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete fee: %w", err)
	}
	return nil
}

// NextNumber toma el siguiente valor de la secuencia; los huecos por rollback son esperables.
func (r *FeeRepo) NextNumber(ctx context.Context) (int64, error) {
	var n int64
	if err := r.q.QueryRow(ctx, `SELECT nextval('cuota_numero_seq')`).Scan(&n); err != nil {
		return 0, fmt.Errorf("next fee number: %w", err)
	}
	return n, nil
}

func (r *FeeRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Fee, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*entity.Fee
	for rows.Next() {
		f, err := scanFee(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, f)
	}
	return list, rows.Err()
}

func scanFee(row pgx.Row) (*entity.Fee, error) {
	var f entity.Fee
	err := row.Scan(
		&f.ID, &f.MemberID, &f.Period.Month, &f.Period.Year, &f.CategoryID,
		&f.BaseAmount, &f.ActivitiesAmount, &f.DiscountAmount, &f.TotalAmount, &f.Number,
		&f.ReceiptID, &f.Status, &f.BatchID, &f.Note, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &f, nil
}
