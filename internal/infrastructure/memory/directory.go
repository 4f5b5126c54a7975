package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/cuotas-api/internal/domain/entity"
	"github.com/jhoicas/cuotas-api/internal/domain/repository"
)

var (
	_ repository.MemberRepository   = (*MemberRepo)(nil)
	_ repository.CategoryRepository = (*CategoryRepo)(nil)
	_ repository.ActivityRepository = (*ActivityRepo)(nil)
	_ repository.ReceiptRepository  = (*ReceiptRepo)(nil)
)

// AddMember carga un socio en el padrón.
func (s *Store) AddMember(m *entity.Member) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *m
	s.members[m.ID] = &c
}

// AddCategory carga una categoría.
func (s *Store) AddCategory(c *entity.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cc := *c
	s.categories[c.ID] = &cc
}

// AddActivity carga una actividad.
func (s *Store) AddActivity(a *entity.Activity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ac := *a
	s.activities[a.ID] = &ac
}

// Enroll inscribe al socio en la actividad.
func (s *Store) Enroll(memberID, activityID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enrollments[memberID] = append(s.enrollments[memberID], activityID)
}

// PutReceipt crea o reemplaza un recibo.
func (s *Store) PutReceipt(r *entity.Receipt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rc := *r
	s.receipts[r.ID] = &rc
}

// MemberRepo lectura de socios.
type MemberRepo struct{ s *Store }

func (r *MemberRepo) GetByID(_ context.Context, id string) (*entity.Member, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	m, ok := r.s.members[id]
	if !ok {
		return nil, nil
	}
	c := *m
	return &c, nil
}

func (r *MemberRepo) ListActive(_ context.Context, categoryIDs []string) ([]*entity.Member, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.Member
	for _, m := range r.s.members {
		if !m.Active {
			continue
		}
		if len(categoryIDs) > 0 && !containsString(categoryIDs, m.CategoryID) {
			continue
		}
		c := *m
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// CategoryRepo lectura de categorías.
type CategoryRepo struct{ s *Store }

func (r *CategoryRepo) GetByID(_ context.Context, id string) (*entity.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.categories[id]
	if !ok {
		return nil, nil
	}
	cc := *c
	return &cc, nil
}

func (r *CategoryRepo) GetByCode(_ context.Context, code string) (*entity.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, c := range r.s.categories {
		if c.Code == code {
			cc := *c
			return &cc, nil
		}
	}
	return nil, nil
}

func (r *CategoryRepo) List(_ context.Context) ([]*entity.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.Category, 0, len(r.s.categories))
	for _, c := range r.s.categories {
		cc := *c
		out = append(out, &cc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// ActivityRepo lectura de inscripciones.
type ActivityRepo struct{ s *Store }

func (r *ActivityRepo) ListBillableByMember(_ context.Context, memberID string) ([]*entity.Activity, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.Activity
	for _, id := range r.s.enrollments[memberID] {
		a, ok := r.s.activities[id]
		if !ok || !a.Billable {
			continue
		}
		c := *a
		out = append(out, &c)
	}
	return out, nil
}

// ReceiptRepo lectura de recibos.
type ReceiptRepo struct{ s *Store }

func (r *ReceiptRepo) GetByID(_ context.Context, id string) (*entity.Receipt, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rc, ok := r.s.receipts[id]
	if !ok {
		return nil, nil
	}
	c := *rc
	return &c, nil
}

// LockByID en memoria equivale a GetByID: las transacciones ya están serializadas.
func (r *ReceiptRepo) LockByID(ctx context.Context, id string) (*entity.Receipt, error) {
	return r.GetByID(ctx, id)
}
