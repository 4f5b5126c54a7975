// Package memory implementa todos los puertos de persistencia en memoria (modo dev y tests).
// Las transacciones se serializan y un error restaura el snapshot previo.
package memory

import (
	"sync"
	"sync/atomic"

	"github.com/jhoicas/cuotas-api/internal/domain/entity"
	"github.com/jhoicas/cuotas-api/internal/domain/repository"
)

// Store estado compartido de todos los repositorios en memoria.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	members     map[string]*entity.Member
	categories  map[string]*entity.Category
	activities  map[string]*entity.Activity
	enrollments map[string][]string
	receipts    map[string]*entity.Receipt

	data state

	seq atomic.Int64

	failFeeCreate func(*entity.Fee) error
}

// state contiene lo que una transacción puede modificar y por lo tanto restaurar.
type state struct {
	fees        map[string]*entity.Fee
	items       []*entity.LineItem
	adjustments map[string]*entity.Adjustment
	exemptions  map[string]*entity.Exemption
	history     []*entity.HistoryEntry
	backups     map[string]*entity.RollbackBackup
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{
		members:     make(map[string]*entity.Member),
		categories:  make(map[string]*entity.Category),
		activities:  make(map[string]*entity.Activity),
		enrollments: make(map[string][]string),
		receipts:    make(map[string]*entity.Receipt),
		data: state{
			fees:        make(map[string]*entity.Fee),
			adjustments: make(map[string]*entity.Adjustment),
			exemptions:  make(map[string]*entity.Exemption),
			backups:     make(map[string]*entity.RollbackBackup),
		},
	}
}

// Repos devuelve el juego completo de repositorios sobre este store.
func (s *Store) Repos() repository.TxRepos {
	return repository.TxRepos{
		Fees:        s.Fees(),
		Items:       s.Items(),
		Adjustments: s.Adjustments(),
		Exemptions:  s.Exemptions(),
		History:     s.History(),
		Receipts:    s.Receipts(),
		Backups:     s.Backups(),
	}
}

func (s *Store) Fees() *FeeRepo               { return &FeeRepo{s: s} }
func (s *Store) Items() *LineItemRepo         { return &LineItemRepo{s: s} }
func (s *Store) Adjustments() *AdjustmentRepo { return &AdjustmentRepo{s: s} }
func (s *Store) Exemptions() *ExemptionRepo   { return &ExemptionRepo{s: s} }
func (s *Store) History() *HistoryRepo        { return &HistoryRepo{s: s} }
func (s *Store) Receipts() *ReceiptRepo       { return &ReceiptRepo{s: s} }
func (s *Store) Backups() *BackupRepo         { return &BackupRepo{s: s} }
func (s *Store) Members() *MemberRepo         { return &MemberRepo{s: s} }
func (s *Store) Categories() *CategoryRepo    { return &CategoryRepo{s: s} }
func (s *Store) Activities() *ActivityRepo    { return &ActivityRepo{s: s} }

// InjectFeeCreateFailure hace que Create de cuotas falle cuando fn devuelve error. nil lo desactiva.
func (s *Store) InjectFeeCreateFailure(fn func(*entity.Fee) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failFeeCreate = fn
}

func (s *Store) snapshot() state {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := state{
		fees:        make(map[string]*entity.Fee, len(s.data.fees)),
		items:       make([]*entity.LineItem, 0, len(s.data.items)),
		adjustments: make(map[string]*entity.Adjustment, len(s.data.adjustments)),
		exemptions:  make(map[string]*entity.Exemption, len(s.data.exemptions)),
		history:     append([]*entity.HistoryEntry(nil), s.data.history...),
		backups:     make(map[string]*entity.RollbackBackup, len(s.data.backups)),
	}
	for k, v := range s.data.fees {
		snap.fees[k] = copyFee(v)
	}
	for _, it := range s.data.items {
		snap.items = append(snap.items, copyItem(it))
	}
	for k, v := range s.data.adjustments {
		snap.adjustments[k] = copyAdjustment(v)
	}
	for k, v := range s.data.exemptions {
		snap.exemptions[k] = copyExemption(v)
	}
	for k, v := range s.data.backups {
		snap.backups[k] = v
	}
	return snap
}

func (s *Store) restore(snap state) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = snap
}

func copyFee(f *entity.Fee) *entity.Fee {
	if f == nil {
		return nil
	}
	c := *f
	return &c
}

func copyItem(it *entity.LineItem) *entity.LineItem {
	if it == nil {
		return nil
	}
	c := *it
	return &c
}

func copyAdjustment(a *entity.Adjustment) *entity.Adjustment {
	if a == nil {
		return nil
	}
	c := *a
	if a.EndDate != nil {
		end := *a.EndDate
		c.EndDate = &end
	}
	return &c
}

func copyExemption(e *entity.Exemption) *entity.Exemption {
	if e == nil {
		return nil
	}
	c := *e
	return &c
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
