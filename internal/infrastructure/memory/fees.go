package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/jhoicas/cuotas-api/internal/domain/entity"
	"github.com/jhoicas/cuotas-api/internal/domain/repository"
)

var (
	_ repository.FeeRepository      = (*FeeRepo)(nil)
	_ repository.LineItemRepository = (*LineItemRepo)(nil)
	_ repository.BackupRepository   = (*BackupRepo)(nil)
)

// FeeRepo cuotas en memoria.
type FeeRepo struct{ s *Store }

func (r *FeeRepo) Create(_ context.Context, fee *entity.Fee) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failFeeCreate != nil {
		if err := r.s.failFeeCreate(fee); err != nil {
			return fmt.Errorf("insert fee: %w", err)
		}
	}
	if fee.ID == "" {
		fee.ID = uuid.New().String()
	}
	r.s.data.fees[fee.ID] = copyFee(fee)
	return nil
}

func (r *FeeRepo) GetByID(_ context.Context, id string) (*entity.Fee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return copyFee(r.s.data.fees[id]), nil
}

func (r *FeeRepo) LockByID(ctx context.Context, id string) (*entity.Fee, error) {
	return r.GetByID(ctx, id)
}

func (r *FeeRepo) ListByIDs(_ context.Context, ids []string) ([]*entity.Fee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.Fee
	for _, id := range ids {
		if f, ok := r.s.data.fees[id]; ok {
			out = append(out, copyFee(f))
		}
	}
	return out, nil
}

func (r *FeeRepo) ListByPeriod(_ context.Context, period entity.Period, categoryIDs []string) ([]*entity.Fee, error) {
	return r.filter(func(f *entity.Fee) bool {
		return f.Period == period && (len(categoryIDs) == 0 || containsString(categoryIDs, f.CategoryID))
	}), nil
}

func (r *FeeRepo) ListByMember(_ context.Context, memberID string, from, to entity.Period) ([]*entity.Fee, error) {
	return r.filter(func(f *entity.Fee) bool {
		return f.MemberID == memberID && f.Period.Within(from, to)
	}), nil
}

func (r *FeeRepo) filter(keep func(*entity.Fee) bool) []*entity.Fee {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.Fee
	for _, f := range r.s.data.fees {
		if keep(f) {
			out = append(out, copyFee(f))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

func (r *FeeRepo) UpdateAmounts(_ context.Context, fees []*entity.Fee) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, f := range fees {
		cur, ok := r.s.data.fees[f.ID]
		if !ok {
			return fmt.Errorf("update fee amounts: cuota %s inexistente", f.ID)
		}
		cur.BaseAmount = f.BaseAmount
		cur.ActivitiesAmount = f.ActivitiesAmount
		cur.DiscountAmount = f.DiscountAmount
		cur.TotalAmount = f.TotalAmount
		cur.UpdatedAt = f.UpdatedAt
	}
	return nil
}

func (r *FeeRepo) Update(_ context.Context, fee *entity.Fee) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.fees[fee.ID]; !ok {
		return fmt.Errorf("update fee: cuota %s inexistente", fee.ID)
	}
	r.s.data.fees[fee.ID] = copyFee(fee)
	return nil
}

func (r *FeeRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.data.fees, id)
	return nil
}

// NextNumber contador atómico, equivalente a nextval().
func (r *FeeRepo) NextNumber(_ context.Context) (int64, error) {
	return r.s.seq.Add(1), nil
}

// LineItemRepo ítems en memoria; conserva el orden de inserción.
type LineItemRepo struct{ s *Store }

func (r *LineItemRepo) CreateBatch(_ context.Context, items []*entity.LineItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, it := range items {
		if it.ID == "" {
			it.ID = uuid.New().String()
		}
		r.s.data.items = append(r.s.data.items, copyItem(it))
	}
	return nil
}

func (r *LineItemRepo) GetByID(_ context.Context, id string) (*entity.LineItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, it := range r.s.data.items {
		if it.ID == id {
			return copyItem(it), nil
		}
	}
	return nil, nil
}

func (r *LineItemRepo) ListByFee(_ context.Context, feeID string) ([]*entity.LineItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.LineItem
	for _, it := range r.s.data.items {
		if it.FeeID == feeID {
			out = append(out, copyItem(it))
		}
	}
	return out, nil
}

func (r *LineItemRepo) Delete(_ context.Context, id string) error {
	return r.removeWhere(func(it *entity.LineItem) bool { return it.ID == id })
}

func (r *LineItemRepo) DeleteByFee(_ context.Context, feeID string) error {
	return r.removeWhere(func(it *entity.LineItem) bool { return it.FeeID == feeID })
}

func (r *LineItemRepo) DeleteAutomatic(_ context.Context, feeID string) error {
	return r.removeWhere(func(it *entity.LineItem) bool { return it.FeeID == feeID && it.Automatic() })
}

func (r *LineItemRepo) removeWhere(match func(*entity.LineItem) bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.data.items[:0:0]
	for _, it := range r.s.data.items {
		if !match(it) {
			kept = append(kept, it)
		}
	}
	r.s.data.items = kept
	return nil
}

// BackupRepo respaldos en memoria.
type BackupRepo struct{ s *Store }

func (r *BackupRepo) Save(_ context.Context, backup *entity.RollbackBackup) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if backup.ID == "" {
		backup.ID = uuid.New().String()
	}
	c := *backup
	r.s.data.backups[backup.ID] = &c
	return nil
}

func (r *BackupRepo) GetByID(_ context.Context, id string) (*entity.RollbackBackup, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	b, ok := r.s.data.backups[id]
	if !ok {
		return nil, nil
	}
	c := *b
	return &c, nil
}
