package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ExemptionState estados del circuito de aprobación de exenciones.
type ExemptionState string

const (
	ExemptionPending  ExemptionState = "PENDIENTE"
	ExemptionApproved ExemptionState = "APROBADA"
	ExemptionActive   ExemptionState = "VIGENTE"
	ExemptionRejected ExemptionState = "RECHAZADA"
	ExemptionRevoked  ExemptionState = "REVOCADA"
)

// ExemptionEvent acción sobre una exención.
type ExemptionEvent string

const (
	ExemptionApprove  ExemptionEvent = "APROBAR"
	ExemptionReject   ExemptionEvent = "RECHAZAR"
	ExemptionActivate ExemptionEvent = "ACTIVAR"
	ExemptionRevoke   ExemptionEvent = "REVOCAR"
)

// RECHAZADA y REVOCADA son terminales: no figuran como origen.
var exemptionTransitions = map[ExemptionState]map[ExemptionEvent]ExemptionState{
	ExemptionPending: {
		ExemptionApprove: ExemptionApproved,
		ExemptionReject:  ExemptionRejected,
	},
	ExemptionApproved: {
		ExemptionActivate: ExemptionActive,
		ExemptionRevoke:   ExemptionRevoked,
	},
	ExemptionActive: {
		ExemptionRevoke: ExemptionRevoked,
	},
}

// ExemptionTransition valida el evento contra la tabla y devuelve el estado destino.
func ExemptionTransition(from ExemptionState, ev ExemptionEvent) (ExemptionState, error) {
	if to, ok := exemptionTransitions[from][ev]; ok {
		return to, nil
	}
	return from, fmt.Errorf("transición %s no permitida desde %s", ev, from)
}

// Terminal indica que no quedan transiciones posibles.
func (s ExemptionState) Terminal() bool {
	return len(exemptionTransitions[s]) == 0
}

// Effective: APROBADA y VIGENTE tienen efecto mientras el período cae en el rango.
func (s ExemptionState) Effective() bool {
	return s == ExemptionApproved || s == ExemptionActive
}

// Exemption es una solicitud de eximición total o parcial de cuotas por un rango de períodos.
type Exemption struct {
	ID          string          `json:"id"`
	MemberID    string          `json:"socio_id"`
	Percentage  decimal.Decimal `json:"porcentaje"`
	From        Period          `json:"desde"`
	To          Period          `json:"hasta"`
	State       ExemptionState  `json:"estado"`
	Reason      string          `json:"motivo"`
	RequestedBy string          `json:"solicitado_por,omitempty"`
	ResolvedBy  string          `json:"resuelto_por,omitempty"`
	RequestedAt time.Time       `json:"fecha_solicitud"`
	ApprovedAt  *time.Time      `json:"fecha_aprobacion,omitempty"`
	RejectedAt  *time.Time      `json:"fecha_rechazo,omitempty"`
	RevokedAt   *time.Time      `json:"fecha_revocacion,omitempty"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Covers indica si el período cae dentro del rango de la exención.
func (e *Exemption) Covers(p Period) bool { return p.Within(e.From, e.To) }

// EffectiveFor combina estado y rango.
func (e *Exemption) EffectiveFor(p Period) bool { return e.State.Effective() && e.Covers(p) }

// Full indica exención del 100%.
func (e *Exemption) Full() bool { return e.Percentage.GreaterThanOrEqual(decimal.NewFromInt(100)) }
