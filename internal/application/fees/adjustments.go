package fees

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/cuotas-api/internal/application/dto"
	"github.com/jhoicas/cuotas-api/internal/domain"
	"github.com/jhoicas/cuotas-api/internal/domain/entity"
	domfees "github.com/jhoicas/cuotas-api/internal/domain/fees"
	"github.com/jhoicas/cuotas-api/internal/domain/repository"
)

const dateLayout = "2006-01-02"

// AdjustmentStore ABM de ajustes con ciclo de vida validado por entity.AdjustmentTransition.
// Cada mutación escribe exactamente una entrada de historial en la misma transacción.
type AdjustmentStore struct {
	tx          TxRunner
	adjustments repository.AdjustmentRepository
	members     repository.MemberRepository
	categories  repository.CategoryRepository
	maxPercent  decimal.Decimal
	now         func() time.Time
}

// NewAdjustmentStore construye el store. maxPercent <= 0 usa el máximo por defecto.
func NewAdjustmentStore(
	tx TxRunner,
	adjustments repository.AdjustmentRepository,
	members repository.MemberRepository,
	categories repository.CategoryRepository,
	maxPercent decimal.Decimal,
) *AdjustmentStore {
	if !maxPercent.IsPositive() {
		maxPercent = domfees.DefaultMaxPercent
	}
	return &AdjustmentStore{
		tx:          tx,
		adjustments: adjustments,
		members:     members,
		categories:  categories,
		maxPercent:  maxPercent,
		now:         time.Now,
	}
}

// Create valida y persiste un ajuste nuevo, activo.
func (s *AdjustmentStore) Create(ctx context.Context, actor string, in dto.CreateAdjustmentRequest) (*entity.Adjustment, error) {
	scope, err := resolveScope(in.Scope, in.MemberID, in.CategoryID)
	if err != nil {
		return nil, err
	}
	kind := in.Kind
	if kind == "" {
		kind = entity.AdjustmentKindManual
	}
	// Sin fecha explícita rige desde el inicio del mes en curso.
	start := entity.PeriodOf(s.now()).FirstDay()
	if in.StartDate != "" {
		if start, err = time.Parse(dateLayout, in.StartDate); err != nil {
			return nil, domain.NewValidationError("fecha_inicio inválida: %s", in.StartDate)
		}
	}
	var end *time.Time
	if in.EndDate != "" {
		t, err := time.Parse(dateLayout, in.EndDate)
		if err != nil {
			return nil, domain.NewValidationError("fecha_fin inválida: %s", in.EndDate)
		}
		end = &t
	}

	now := s.now()
	adj := &entity.Adjustment{
		ID:         uuid.New().String(),
		MemberID:   in.MemberID,
		CategoryID: in.CategoryID,
		Scope:      scope,
		Type:       in.Type,
		Kind:       kind,
		Value:      domfees.Round(in.Value),
		Formula:    strings.TrimSpace(in.Formula),
		Reason:     strings.TrimSpace(in.Reason),
		StartDate:  start,
		EndDate:    end,
		Active:     true,
		CreatedBy:  actor,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.validate(adj); err != nil {
		return nil, err
	}
	if err := s.checkTarget(ctx, adj); err != nil {
		return nil, err
	}

	err = s.tx.Run(ctx, func(tx repository.TxRepos) error {
		if err := tx.Adjustments.Create(ctx, adj); err != nil {
			return fmt.Errorf("crear ajuste: %w", err)
		}
		return Record(ctx, tx.History, &entity.HistoryEntry{
			Action:       entity.ActionAdjustmentCreated,
			AdjustmentID: adj.ID,
			MemberID:     adj.MemberID,
			After:        entity.Snapshot(adj),
			Actor:        actor,
			Reason:       adj.Reason,
		})
	})
	if err != nil {
		return nil, err
	}
	return adj, nil
}

// GetByID devuelve el ajuste o NotFound.
func (s *AdjustmentStore) GetByID(ctx context.Context, id string) (*entity.Adjustment, error) {
	adj, err := s.adjustments.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ajuste %s: %w", id, err)
	}
	if adj == nil {
		return nil, domain.NewNotFoundError("ajuste %s no encontrado", id)
	}
	return adj, nil
}

// List todos los ajustes, incluidos los eliminados.
func (s *AdjustmentStore) List(ctx context.Context) ([]*entity.Adjustment, error) {
	return s.adjustments.List(ctx)
}

// ListByMember ajustes individuales del socio (no eliminados).
func (s *AdjustmentStore) ListByMember(ctx context.Context, memberID string) ([]*entity.Adjustment, error) {
	return s.adjustments.ListByMember(ctx, memberID)
}

// FindActiveForPeriod ajustes vigentes en date que alcanzan al socio por cualquier ámbito.
func (s *AdjustmentStore) FindActiveForPeriod(ctx context.Context, memberID string, date time.Time) ([]*entity.Adjustment, error) {
	member, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("socio %s: %w", memberID, err)
	}
	if member == nil {
		return nil, domain.NewNotFoundError("socio %s no encontrado", memberID)
	}
	return s.adjustments.FindActive(ctx, member.ID, member.CategoryID, date)
}

// Update modifica valor, tipo, motivo o vigencia. El ámbito no se modifica.
func (s *AdjustmentStore) Update(ctx context.Context, actor, id string, in dto.UpdateAdjustmentRequest) (*entity.Adjustment, error) {
	var out *entity.Adjustment
	err := s.tx.Run(ctx, func(tx repository.TxRepos) error {
		adj, err := s.load(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := entity.AdjustmentTransition(adj.State(), entity.AdjustmentEdit); err != nil {
			return domain.NewConflictError("ajuste %s: %v", id, err)
		}
		before := entity.Snapshot(adj)

		if in.Type != nil {
			adj.Type = *in.Type
		}
		if in.Value != nil {
			adj.Value = domfees.Round(*in.Value)
		}
		if in.Formula != nil {
			adj.Formula = strings.TrimSpace(*in.Formula)
		}
		if in.Reason != nil {
			adj.Reason = strings.TrimSpace(*in.Reason)
		}
		if in.StartDate != nil {
			t, err := time.Parse(dateLayout, *in.StartDate)
			if err != nil {
				return domain.NewValidationError("fecha_inicio inválida: %s", *in.StartDate)
			}
			adj.StartDate = t
		}
		if in.EndDate != nil {
			if *in.EndDate == "" {
				adj.EndDate = nil
			} else {
				t, err := time.Parse(dateLayout, *in.EndDate)
				if err != nil {
					return domain.NewValidationError("fecha_fin inválida: %s", *in.EndDate)
				}
				adj.EndDate = &t
			}
		}
		if err := s.validate(adj); err != nil {
			return err
		}
		adj.UpdatedAt = s.now()
		if err := tx.Adjustments.Update(ctx, adj); err != nil {
			return fmt.Errorf("actualizar ajuste: %w", err)
		}
		out = adj
		return Record(ctx, tx.History, &entity.HistoryEntry{
			Action:       entity.ActionAdjustmentUpdated,
			AdjustmentID: adj.ID,
			MemberID:     adj.MemberID,
			Before:       before,
			After:        entity.Snapshot(adj),
			Actor:        actor,
			Reason:       adj.Reason,
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Activate INACTIVO -> ACTIVO.
func (s *AdjustmentStore) Activate(ctx context.Context, actor, id, reason string) (*entity.Adjustment, error) {
	return s.transition(ctx, actor, id, reason, entity.AdjustmentActivate, entity.ActionAdjustmentActivated)
}

// Deactivate ACTIVO -> INACTIVO.
func (s *AdjustmentStore) Deactivate(ctx context.Context, actor, id, reason string) (*entity.Adjustment, error) {
	return s.transition(ctx, actor, id, reason, entity.AdjustmentDeactivate, entity.ActionAdjustmentDeactivated)
}

// Delete baja lógica: el historial sigue referenciando al ajuste.
func (s *AdjustmentStore) Delete(ctx context.Context, actor, id, reason string) (*entity.Adjustment, error) {
	return s.transition(ctx, actor, id, reason, entity.AdjustmentDelete, entity.ActionAdjustmentDeleted)
}

func (s *AdjustmentStore) transition(ctx context.Context, actor, id, reason string, ev entity.AdjustmentEvent, action string) (*entity.Adjustment, error) {
	var out *entity.Adjustment
	err := s.tx.Run(ctx, func(tx repository.TxRepos) error {
		adj, err := s.load(ctx, tx, id)
		if err != nil {
			return err
		}
		to, err := entity.AdjustmentTransition(adj.State(), ev)
		if err != nil {
			return domain.NewConflictError("ajuste %s: %v", id, err)
		}
		before := entity.Snapshot(adj)
		switch to {
		case entity.AdjustmentActive:
			adj.Active = true
		case entity.AdjustmentInactive:
			adj.Active = false
		case entity.AdjustmentDeleted:
			adj.Active = false
			adj.Deleted = true
		}
		adj.UpdatedAt = s.now()
		if err := tx.Adjustments.Update(ctx, adj); err != nil {
			return fmt.Errorf("actualizar ajuste: %w", err)
		}
		out = adj
		return Record(ctx, tx.History, &entity.HistoryEntry{
			Action:       action,
			AdjustmentID: adj.ID,
			MemberID:     adj.MemberID,
			Before:       before,
			After:        entity.Snapshot(adj),
			Actor:        actor,
			Reason:       reason,
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Stats conteos por estado, tipo y ámbito.
func (s *AdjustmentStore) Stats(ctx context.Context) (*dto.AdjustmentStatsResponse, error) {
	list, err := s.adjustments.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listar ajustes: %w", err)
	}
	out := &dto.AdjustmentStatsResponse{ByType: map[string]int{}, ByScope: map[string]int{}}
	for _, a := range list {
		out.Total++
		switch a.State() {
		case entity.AdjustmentActive:
			out.Active++
		case entity.AdjustmentInactive:
			out.Inactive++
		case entity.AdjustmentDeleted:
			out.Deleted++
			continue
		}
		out.ByType[a.Type]++
		out.ByScope[a.Scope]++
	}
	return out, nil
}

func (s *AdjustmentStore) load(ctx context.Context, tx repository.TxRepos, id string) (*entity.Adjustment, error) {
	adj, err := tx.Adjustments.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ajuste %s: %w", id, err)
	}
	if adj == nil {
		return nil, domain.NewNotFoundError("ajuste %s no encontrado", id)
	}
	return adj, nil
}

func (s *AdjustmentStore) validate(a *entity.Adjustment) error {
	if err := validateAdjustmentValue(a, s.maxPercent); err != nil {
		return err
	}
	if a.EndDate != nil && a.EndDate.Before(a.StartDate) {
		return domain.NewValidationError("fecha_fin anterior a fecha_inicio")
	}
	return nil
}

// checkTarget verifica que el socio o la categoría del ámbito existan.
func (s *AdjustmentStore) checkTarget(ctx context.Context, a *entity.Adjustment) error {
	switch a.Scope {
	case entity.ScopeIndividual:
		m, err := s.members.GetByID(ctx, a.MemberID)
		if err != nil {
			return fmt.Errorf("socio %s: %w", a.MemberID, err)
		}
		if m == nil {
			return domain.NewNotFoundError("socio %s no encontrado", a.MemberID)
		}
	case entity.ScopeCategory:
		c, err := s.categories.GetByID(ctx, a.CategoryID)
		if err != nil {
			return fmt.Errorf("categoría %s: %w", a.CategoryID, err)
		}
		if c == nil {
			return domain.NewNotFoundError("categoría %s no encontrada", a.CategoryID)
		}
	}
	return nil
}

// validateAdjustmentValue reglas por tipo: PORCENTAJE es descuento en [-max, 0), FIJO distinto de cero,
// FORMULA compilable. Los recargos se cargan como FIJO o FORMULA.
func validateAdjustmentValue(a *entity.Adjustment, maxPercent decimal.Decimal) error {
	switch a.Kind {
	case entity.AdjustmentKindManual, entity.AdjustmentKindAutomatic:
	default:
		return domain.NewValidationError("origen inválido: %q", a.Kind)
	}
	switch a.Type {
	case entity.AdjustmentTypePercent:
		if a.Value.IsPositive() {
			return domain.NewValidationError("porcentaje positivo no admitido, usar FIJO o FORMULA para recargos: %s", a.Value)
		}
		if a.Value.IsZero() || a.Value.Abs().GreaterThan(maxPercent) {
			return domain.NewValidationError("porcentaje fuera de rango [-%s, 0): %s", maxPercent, a.Value)
		}
	case entity.AdjustmentTypeFixed:
		if a.Value.IsZero() {
			return domain.NewValidationError("monto fijo no puede ser cero")
		}
	case entity.AdjustmentTypeFormula:
		if a.Formula == "" {
			return domain.NewValidationError("formula es obligatoria para ajustes FORMULA")
		}
		if err := domfees.ValidateFormula(a.Formula); err != nil {
			return invalid(err)
		}
	default:
		return domain.NewValidationError("tipo de ajuste inválido: %q", a.Type)
	}
	return nil
}

// resolveScope exige exactamente un destino consistente con el ámbito declarado.
func resolveScope(scope, memberID, categoryID string) (string, error) {
	if memberID != "" && categoryID != "" {
		return "", domain.NewValidationError("indicar socio o categoría, no ambos")
	}
	derived := entity.ScopeGlobal
	switch {
	case memberID != "":
		derived = entity.ScopeIndividual
	case categoryID != "":
		derived = entity.ScopeCategory
	}
	if scope == "" {
		return derived, nil
	}
	switch scope {
	case entity.ScopeIndividual, entity.ScopeCategory, entity.ScopeGlobal:
	default:
		return "", domain.NewValidationError("ámbito inválido: %q", scope)
	}
	if scope != derived {
		return "", domain.NewValidationError("ámbito %s inconsistente con el destino indicado", scope)
	}
	return scope, nil
}
