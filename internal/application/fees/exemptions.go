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

// ExemptionStore circuito de aprobación de exenciones.
// PENDIENTE -> APROBADA -> VIGENTE; RECHAZADA y REVOCADA son terminales.
type ExemptionStore struct {
	tx         TxRunner
	exemptions repository.ExemptionRepository
	members    repository.MemberRepository
	now        func() time.Time
}

// NewExemptionStore construye el store.
func NewExemptionStore(tx TxRunner, exemptions repository.ExemptionRepository, members repository.MemberRepository) *ExemptionStore {
	return &ExemptionStore{tx: tx, exemptions: exemptions, members: members, now: time.Now}
}

// Create registra una solicitud PENDIENTE.
func (s *ExemptionStore) Create(ctx context.Context, actor string, in dto.CreateExemptionRequest) (*entity.Exemption, error) {
	if !in.Percentage.IsPositive() || in.Percentage.GreaterThan(decimal.NewFromInt(100)) {
		return nil, domain.NewValidationError("porcentaje debe estar en (0, 100]")
	}
	from, err := entity.ParsePeriod(in.From)
	if err != nil {
		return nil, invalid(err)
	}
	to, err := entity.ParsePeriod(in.To)
	if err != nil {
		return nil, invalid(err)
	}
	if from.After(to) {
		return nil, domain.NewValidationError("desde %s es posterior a hasta %s", from, to)
	}
	member, err := s.members.GetByID(ctx, in.MemberID)
	if err != nil {
		return nil, fmt.Errorf("socio %s: %w", in.MemberID, err)
	}
	if member == nil {
		return nil, domain.NewNotFoundError("socio %s no encontrado", in.MemberID)
	}

	now := s.now()
	ex := &entity.Exemption{
		ID:          uuid.New().String(),
		MemberID:    member.ID,
		Percentage:  domfees.Round(in.Percentage),
		From:        from,
		To:          to,
		State:       entity.ExemptionPending,
		Reason:      strings.TrimSpace(in.Reason),
		RequestedBy: actor,
		RequestedAt: now,
		UpdatedAt:   now,
	}
	err = s.tx.Run(ctx, func(tx repository.TxRepos) error {
		if err := tx.Exemptions.Create(ctx, ex); err != nil {
			return fmt.Errorf("crear exención: %w", err)
		}
		return Record(ctx, tx.History, &entity.HistoryEntry{
			Action:      entity.ActionExemptionRequested,
			ExemptionID: ex.ID,
			MemberID:    ex.MemberID,
			After:       entity.Snapshot(ex),
			Actor:       actor,
			Reason:      ex.Reason,
		})
	})
	if err != nil {
		return nil, err
	}
	return ex, nil
}

// GetByID devuelve la exención o NotFound.
func (s *ExemptionStore) GetByID(ctx context.Context, id string) (*entity.Exemption, error) {
	ex, err := s.exemptions.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("exención %s: %w", id, err)
	}
	if ex == nil {
		return nil, domain.NewNotFoundError("exención %s no encontrada", id)
	}
	return ex, nil
}

func (s *ExemptionStore) List(ctx context.Context) ([]*entity.Exemption, error) {
	return s.exemptions.List(ctx)
}

func (s *ExemptionStore) ListByMember(ctx context.Context, memberID string) ([]*entity.Exemption, error) {
	return s.exemptions.ListByMember(ctx, memberID)
}

// ListByState filtra por estado; valida el nombre del estado.
func (s *ExemptionStore) ListByState(ctx context.Context, state string) ([]*entity.Exemption, error) {
	st := entity.ExemptionState(strings.ToUpper(state))
	switch st {
	case entity.ExemptionPending, entity.ExemptionApproved, entity.ExemptionActive, entity.ExemptionRejected, entity.ExemptionRevoked:
	default:
		return nil, domain.NewValidationError("estado inválido: %q", state)
	}
	return s.exemptions.ListByState(ctx, st)
}

// Approve PENDIENTE -> APROBADA. Si el período actual está cubierto pasa a VIGENTE en la misma transacción.
func (s *ExemptionStore) Approve(ctx context.Context, actor, id, reason string) (*entity.Exemption, error) {
	var out *entity.Exemption
	err := s.tx.Run(ctx, func(tx repository.TxRepos) error {
		ex, err := s.apply(ctx, tx, actor, id, reason, entity.ExemptionApprove)
		if err != nil {
			return err
		}
		if ex.Covers(entity.PeriodOf(s.now())) {
			if ex, err = s.apply(ctx, tx, actor, id, "", entity.ExemptionActivate); err != nil {
				return err
			}
		}
		out = ex
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Reject PENDIENTE -> RECHAZADA.
func (s *ExemptionStore) Reject(ctx context.Context, actor, id, reason string) (*entity.Exemption, error) {
	return s.single(ctx, actor, id, reason, entity.ExemptionReject)
}

// Revoke APROBADA|VIGENTE -> REVOCADA. No es retroactiva: las cuotas ya generadas no cambian.
func (s *ExemptionStore) Revoke(ctx context.Context, actor, id, reason string) (*entity.Exemption, error) {
	return s.single(ctx, actor, id, reason, entity.ExemptionRevoke)
}

// ActivateDue pasa a VIGENTE las exenciones APROBADAS cuyo rango cubre today. Devuelve cuántas activó.
func (s *ExemptionStore) ActivateDue(ctx context.Context, today time.Time) (int, error) {
	period := entity.PeriodOf(today)
	var n int
	err := s.tx.Run(ctx, func(tx repository.TxRepos) error {
		n = 0
		list, err := tx.Exemptions.ListByState(ctx, entity.ExemptionApproved)
		if err != nil {
			return fmt.Errorf("listar exenciones aprobadas: %w", err)
		}
		for _, ex := range list {
			if !ex.Covers(period) {
				continue
			}
			if _, err := s.apply(ctx, tx, "", ex.ID, "activación automática", entity.ExemptionActivate); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// CheckForPeriod exención efectiva del socio para el período, o nil.
func (s *ExemptionStore) CheckForPeriod(ctx context.Context, memberID string, period entity.Period) (*entity.Exemption, error) {
	list, err := s.exemptions.ListByMember(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("exenciones socio %s: %w", memberID, err)
	}
	return EffectiveExemption(list, period), nil
}

// Stats conteos por estado y por tipo de cobertura.
func (s *ExemptionStore) Stats(ctx context.Context) (*dto.ExemptionStatsResponse, error) {
	list, err := s.exemptions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listar exenciones: %w", err)
	}
	out := &dto.ExemptionStatsResponse{ByState: map[string]int{}}
	for _, ex := range list {
		out.Total++
		out.ByState[string(ex.State)]++
		if ex.Full() {
			out.Full++
		} else {
			out.Partial++
		}
	}
	return out, nil
}

func (s *ExemptionStore) single(ctx context.Context, actor, id, reason string, ev entity.ExemptionEvent) (*entity.Exemption, error) {
	var out *entity.Exemption
	err := s.tx.Run(ctx, func(tx repository.TxRepos) error {
		ex, err := s.apply(ctx, tx, actor, id, reason, ev)
		out = ex
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

var exemptionActions = map[entity.ExemptionEvent]string{
	entity.ExemptionApprove:  entity.ActionExemptionApproved,
	entity.ExemptionReject:   entity.ActionExemptionRejected,
	entity.ExemptionActivate: entity.ActionExemptionActivated,
	entity.ExemptionRevoke:   entity.ActionExemptionRevoked,
}

// apply ejecuta una transición dentro de tx y registra su entrada de historial.
func (s *ExemptionStore) apply(ctx context.Context, tx repository.TxRepos, actor, id, reason string, ev entity.ExemptionEvent) (*entity.Exemption, error) {
	ex, err := tx.Exemptions.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("exención %s: %w", id, err)
	}
	if ex == nil {
		return nil, domain.NewNotFoundError("exención %s no encontrada", id)
	}
	to, err := entity.ExemptionTransition(ex.State, ev)
	if err != nil {
		return nil, domain.NewConflictError("exención %s: %v", id, err)
	}
	before := entity.Snapshot(ex)
	now := s.now()
	ex.State = to
	ex.UpdatedAt = now
	switch ev {
	case entity.ExemptionApprove:
		ex.ApprovedAt = &now
		ex.ResolvedBy = actor
	case entity.ExemptionReject:
		ex.RejectedAt = &now
		ex.ResolvedBy = actor
	case entity.ExemptionRevoke:
		ex.RevokedAt = &now
	}
	if err := tx.Exemptions.Update(ctx, ex); err != nil {
		return nil, fmt.Errorf("actualizar exención: %w", err)
	}
	if err := Record(ctx, tx.History, &entity.HistoryEntry{
		Action:      exemptionActions[ev],
		ExemptionID: ex.ID,
		MemberID:    ex.MemberID,
		Before:      before,
		After:       entity.Snapshot(ex),
		Actor:       actor,
		Reason:      reason,
	}); err != nil {
		return nil, err
	}
	return ex, nil
}
