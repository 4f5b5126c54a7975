package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/cuotas-api/internal/domain/entity"
	"github.com/jhoicas/cuotas-api/internal/domain/repository"
)

var (
	_ repository.MemberRepository   = (*MemberRepo)(nil)
	_ repository.CategoryRepository = (*CategoryRepo)(nil)
	_ repository.ActivityRepository = (*ActivityRepo)(nil)
	_ repository.ReceiptRepository  = (*ReceiptRepo)(nil)
)

// MemberRepo lectura del padrón de socios.
type MemberRepo struct {
	q Querier
}

// NewMemberRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMemberRepository(q Querier) *MemberRepo {
	return &MemberRepo{q: q}
}

// GetByID obtiene un socio. Devuelve nil, nil si no existe.
func (r *MemberRepo) GetByID(ctx context.Context, id string) (*entity.Member, error) {
	var m entity.Member
	err := r.q.QueryRow(ctx, `SELECT id, nombre, categoria_id, activo FROM socios WHERE id = $1`, id).
		Scan(&m.ID, &m.FullName, &m.CategoryID, &m.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get member: %w", err)
	}
	return &m, nil
}

// ListActive socios activos de las categorías dadas (todas si categoryIDs está vacío), ordenados por id.
func (r *MemberRepo) ListActive(ctx context.Context, categoryIDs []string) ([]*entity.Member, error) {
	query := `SELECT id, nombre, categoria_id, activo FROM socios
		WHERE activo AND ($1::text[] IS NULL OR categoria_id = ANY($1))
		ORDER BY id`
	rows, err := r.q.Query(ctx, query, emptyAsNil(categoryIDs))
	if err != nil {
		return nil, fmt.Errorf("list active members: %w", err)
	}
	defer rows.Close()
	var list []*entity.Member
	for rows.Next() {
		var m entity.Member
		if err := rows.Scan(&m.ID, &m.FullName, &m.CategoryID, &m.Active); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}

// CategoryRepo lectura de categorías y tarifas.
type CategoryRepo struct {
	q Querier
}

// NewCategoryRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCategoryRepository(q Querier) *CategoryRepo {
	return &CategoryRepo{q: q}
}

const categoryColumns = `id, codigo, nombre, monto_base, descuento_defecto`

func (r *CategoryRepo) GetByID(ctx context.Context, id string) (*entity.Category, error) {
	return r.get(ctx, `SELECT `+categoryColumns+` FROM categorias WHERE id = $1`, id)
}

func (r *CategoryRepo) GetByCode(ctx context.Context, code string) (*entity.Category, error) {
	return r.get(ctx, `SELECT `+categoryColumns+` FROM categorias WHERE codigo = $1`, code)
}

func (r *CategoryRepo) List(ctx context.Context) ([]*entity.Category, error) {
	rows, err := r.q.Query(ctx, `SELECT `+categoryColumns+` FROM categorias ORDER BY codigo`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()
	var list []*entity.Category
	for rows.Next() {
		var c entity.Category
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.BaseAmount, &c.DefaultDiscount); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		list = append(list, &c)
	}
	return list, rows.Err()
}

func (r *CategoryRepo) get(ctx context.Context, query string, arg string) (*entity.Category, error) {
	var c entity.Category
	err := r.q.QueryRow(ctx, query, arg).Scan(&c.ID, &c.Code, &c.Name, &c.BaseAmount, &c.DefaultDiscount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &c, nil
}

// ActivityRepo inscripciones a actividades aranceladas.
type ActivityRepo struct {
	q Querier
}

// NewActivityRepository construye el adaptador. Pasar pool o tx (Querier).
func NewActivityRepository(q Querier) *ActivityRepo {
	return &ActivityRepo{q: q}
}

// ListBillableByMember actividades aranceladas del socio, en orden de inscripción.
func (r *ActivityRepo) ListBillableByMember(ctx context.Context, memberID string) ([]*entity.Activity, error) {
	query := `
		SELECT a.id, a.nombre, a.precio, a.arancelada
		FROM socio_actividades sa
		JOIN actividades a ON a.id = sa.actividad_id
		WHERE sa.socio_id = $1 AND a.arancelada
		ORDER BY sa.orden`
	rows, err := r.q.Query(ctx, query, memberID)
	if err != nil {
		return nil, fmt.Errorf("list member activities: %w", err)
	}
	defer rows.Close()
	var list []*entity.Activity
	for rows.Next() {
		var a entity.Activity
		if err := rows.Scan(&a.ID, &a.Name, &a.Price, &a.Billable); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		list = append(list, &a)
	}
	return list, rows.Err()
}

// ReceiptRepo lectura de recibos.
type ReceiptRepo struct {
	q Querier
}

// NewReceiptRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReceiptRepository(q Querier) *ReceiptRepo {
	return &ReceiptRepo{q: q}
}

func (r *ReceiptRepo) GetByID(ctx context.Context, id string) (*entity.Receipt, error) {
	return r.get(ctx, `SELECT id, numero, estado FROM recibos WHERE id = $1`, id)
}

// LockByID bloquea la fila del recibo hasta el fin de la transacción.
func (r *ReceiptRepo) LockByID(ctx context.Context, id string) (*entity.Receipt, error) {
	return r.get(ctx, `SELECT id, numero, estado FROM recibos WHERE id = $1 FOR UPDATE`, id)
}

func (r *ReceiptRepo) get(ctx context.Context, query, id string) (*entity.Receipt, error) {
	var rc entity.Receipt
	if err := r.q.QueryRow(ctx, query, id).Scan(&rc.ID, &rc.Number, &rc.Status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get receipt: %w", err)
	}
	return &rc, nil
}
