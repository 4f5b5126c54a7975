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

var _ repository.LineItemRepository = (*LineItemRepo)(nil)

const itemColumns = `id, cuota_id, tipo, COALESCE(categoria, ''), descripcion, monto, monto_neto, manual, origen`

// LineItemRepo implementación de LineItemRepository. El orden de lectura es el de inserción.
type LineItemRepo struct {
	q Querier
}

// NewLineItemRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLineItemRepository(q Querier) *LineItemRepo {
	return &LineItemRepo{q: q}
}

// CreateBatch inserta todos los ítems en un único round-trip (pgx.Batch).
func (r *LineItemRepo) CreateBatch(ctx context.Context, items []*entity.LineItem) error {
	if len(items) == 0 {
		return nil
	}
	query := `
		INSERT INTO cuota_items (id, cuota_id, tipo, categoria, descripcion, monto, monto_neto, manual, origen)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	batch := &pgx.Batch{}
	for _, it := range items {
		if it.ID == "" {
			it.ID = uuid.New().String()
		}
		batch.Queue(query, it.ID, it.FeeID, it.Type, nullIfEmpty(it.CategoryCode), it.Description,
			it.Amount, it.NetAmount, it.Manual, it.Source)
	}
	br := r.q.SendBatch(ctx, batch)
	for range items {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			if isForeignKeyViolation(err) {
				return fmt.Errorf("insert fee item: cuota inexistente: %w", err)
			}
			return fmt.Errorf("insert fee item: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("insert fee items: %w", err)
	}
	return nil
}

// GetByID obtiene un ítem. Devuelve nil, nil si no existe.
func (r *LineItemRepo) GetByID(ctx context.Context, id string) (*entity.LineItem, error) {
	it, err := scanItem(r.q.QueryRow(ctx, `SELECT `+itemColumns+` FROM cuota_items WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get fee item: %w", err)
	}
	return it, nil
}

// ListByFee ítems de la cuota en orden de inserción.
func (r *LineItemRepo) ListByFee(ctx context.Context, feeID string) ([]*entity.LineItem, error) {
	rows, err := r.q.Query(ctx, `SELECT `+itemColumns+` FROM cuota_items WHERE cuota_id = $1 ORDER BY orden`, feeID)
	if err != nil {
		return nil, fmt.Errorf("list fee items: %w", err)
	}
	defer rows.Close()
	var list []*entity.LineItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fee item: %w", err)
		}
		list = append(list, it)
	}
	return list, rows.Err()
}

func (r *LineItemRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM cuota_items WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete fee item: %w", err)
	}
	return nil
}

func (r *LineItemRepo) DeleteByFee(ctx context.Context, feeID string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM cuota_items WHERE cuota_id = $1`, feeID); err != nil {
		return fmt.Errorf("delete fee items: %w", err)
	}
	return nil
}

// DeleteAutomatic borra solo los ítems AUTO de la cuota.
func (r *LineItemRepo) DeleteAutomatic(ctx context.Context, feeID string) error {
	query := `DELETE FROM cuota_items WHERE cuota_id = $1 AND origen = $2`
	if _, err := r.q.Exec(ctx, query, feeID, entity.ItemSourceAuto); err != nil {
		return fmt.Errorf("delete automatic fee items: %w", err)
	}
	return nil
}

func scanItem(row pgx.Row) (*entity.LineItem, error) {
	var it entity.LineItem
	err := row.Scan(&it.ID, &it.FeeID, &it.Type, &it.CategoryCode, &it.Description,
		&it.Amount, &it.NetAmount, &it.Manual, &it.Source)
	if err != nil {
		return nil, err
	}
	return &it, nil
}
