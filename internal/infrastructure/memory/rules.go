package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/cuotas-api/internal/domain/entity"
	"github.com/jhoicas/cuotas-api/internal/domain/repository"
)

var (
	_ repository.AdjustmentRepository = (*AdjustmentRepo)(nil)
	_ repository.ExemptionRepository  = (*ExemptionRepo)(nil)
	_ repository.HistoryRepository    = (*HistoryRepo)(nil)
)

// AdjustmentRepo ajustes en memoria.
type AdjustmentRepo struct{ s *Store }

func (r *AdjustmentRepo) Create(_ context.Context, adj *entity.Adjustment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if adj.ID == "" {
		adj.ID = uuid.New().String()
	}
	r.s.data.adjustments[adj.ID] = copyAdjustment(adj)
	return nil
}

func (r *AdjustmentRepo) GetByID(_ context.Context, id string) (*entity.Adjustment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return copyAdjustment(r.s.data.adjustments[id]), nil
}

func (r *AdjustmentRepo) ListByMember(_ context.Context, memberID string) ([]*entity.Adjustment, error) {
	return r.filter(func(a *entity.Adjustment) bool { return a.MemberID == memberID && !a.Deleted }), nil
}

func (r *AdjustmentRepo) FindActive(_ context.Context, memberID, categoryID string, date time.Time) ([]*entity.Adjustment, error) {
	return r.filter(func(a *entity.Adjustment) bool {
		return a.EffectiveOn(date) && a.AppliesTo(memberID, categoryID)
	}), nil
}

func (r *AdjustmentRepo) List(_ context.Context) ([]*entity.Adjustment, error) {
	return r.filter(func(*entity.Adjustment) bool { return true }), nil
}

func (r *AdjustmentRepo) filter(keep func(*entity.Adjustment) bool) []*entity.Adjustment {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.Adjustment
	for _, a := range r.s.data.adjustments {
		if keep(a) {
			out = append(out, copyAdjustment(a))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *AdjustmentRepo) Update(_ context.Context, adj *entity.Adjustment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.adjustments[adj.ID]; !ok {
		return fmt.Errorf("update adjustment: ajuste %s inexistente", adj.ID)
	}
	r.s.data.adjustments[adj.ID] = copyAdjustment(adj)
	return nil
}

// ExemptionRepo exenciones en memoria.
type ExemptionRepo struct{ s *Store }

func (r *ExemptionRepo) Create(_ context.Context, ex *entity.Exemption) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if ex.ID == "" {
		ex.ID = uuid.New().String()
	}
	r.s.data.exemptions[ex.ID] = copyExemption(ex)
	return nil
}

func (r *ExemptionRepo) GetByID(_ context.Context, id string) (*entity.Exemption, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return copyExemption(r.s.data.exemptions[id]), nil
}

func (r *ExemptionRepo) Update(_ context.Context, ex *entity.Exemption) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.exemptions[ex.ID]; !ok {
		return fmt.Errorf("update exemption: exención %s inexistente", ex.ID)
	}
	r.s.data.exemptions[ex.ID] = copyExemption(ex)
	return nil
}

func (r *ExemptionRepo) ListByMember(_ context.Context, memberID string) ([]*entity.Exemption, error) {
	return r.filter(func(e *entity.Exemption) bool { return e.MemberID == memberID }), nil
}

func (r *ExemptionRepo) ListByState(_ context.Context, st entity.ExemptionState) ([]*entity.Exemption, error) {
	return r.filter(func(e *entity.Exemption) bool { return e.State == st }), nil
}

func (r *ExemptionRepo) List(_ context.Context) ([]*entity.Exemption, error) {
	return r.filter(func(*entity.Exemption) bool { return true }), nil
}

func (r *ExemptionRepo) filter(keep func(*entity.Exemption) bool) []*entity.Exemption {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.Exemption
	for _, e := range r.s.data.exemptions {
		if keep(e) {
			out = append(out, copyExemption(e))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].RequestedAt.Equal(out[j].RequestedAt) {
			return out[i].RequestedAt.Before(out[j].RequestedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// HistoryRepo historial append-only en memoria.
type HistoryRepo struct{ s *Store }

func (r *HistoryRepo) Append(_ context.Context, entry *entity.HistoryEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	c := *entry
	r.s.data.history = append(r.s.data.history, &c)
	return nil
}

func (r *HistoryRepo) ListByFee(_ context.Context, feeID string) ([]*entity.HistoryEntry, error) {
	return r.filter(func(h *entity.HistoryEntry) bool { return h.FeeID == feeID }), nil
}

func (r *HistoryRepo) ListByMember(_ context.Context, memberID string) ([]*entity.HistoryEntry, error) {
	return r.filter(func(h *entity.HistoryEntry) bool { return h.MemberID == memberID }), nil
}

func (r *HistoryRepo) ListByAdjustment(_ context.Context, adjustmentID string) ([]*entity.HistoryEntry, error) {
	return r.filter(func(h *entity.HistoryEntry) bool { return h.AdjustmentID == adjustmentID }), nil
}

func (r *HistoryRepo) filter(keep func(*entity.HistoryEntry) bool) []*entity.HistoryEntry {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.HistoryEntry
	for _, h := range r.s.data.history {
		if keep(h) {
			c := *h
			out = append(out, &c)
		}
	}
	return out
}

func (r *HistoryRepo) DeleteOlderThan(_ context.Context, before time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.data.history[:0:0]
	var n int64
	for _, h := range r.s.data.history {
		if h.CreatedAt.Before(before) {
			n++
			continue
		}
		kept = append(kept, h)
	}
	r.s.data.history = kept
	return n, nil
}
