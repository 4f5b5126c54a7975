package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de ajuste.
const (
	AdjustmentTypePercent = "PORCENTAJE"
	AdjustmentTypeFixed   = "FIJO"
	AdjustmentTypeFormula = "FORMULA"
)

// Ámbitos de ajuste: exactamente uno de MemberID / CategoryID / ninguno (global).
const (
	ScopeIndividual = "INDIVIDUAL"
	ScopeCategory   = "CATEGORIA"
	ScopeGlobal     = "GLOBAL"
)

// Origen del ajuste para la prioridad del motor de reglas.
const (
	AdjustmentKindManual    = "AJUSTE_MANUAL"
	AdjustmentKindAutomatic = "REGLA_AUTOMATICA"
)

// Adjustment es un modificador permanente (o acotado en el tiempo) de la cuota.
// Value con signo: negativo = descuento, positivo = recargo. En PORCENTAJE solo se admite descuento (-100 a 0).
// Para FORMULA, Formula es una expresión sobre base, actividades, mes y anio cuyo resultado es un monto con el mismo signo.
type Adjustment struct {
	ID         string          `json:"id"`
	MemberID   string          `json:"socio_id,omitempty"`
	CategoryID string          `json:"categoria_id,omitempty"`
	Scope      string          `json:"ambito"`
	Type       string          `json:"tipo"`
	Kind       string          `json:"origen"`
	Value      decimal.Decimal `json:"valor"`
	Formula    string          `json:"formula,omitempty"`
	Reason     string          `json:"motivo"`
	StartDate  time.Time       `json:"fecha_inicio"`
	EndDate    *time.Time      `json:"fecha_fin,omitempty"`
	Active     bool            `json:"activo"`
	Deleted    bool            `json:"eliminado"`
	CreatedBy  string          `json:"creado_por,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// CoversDate indica si date cae dentro de la ventana [StartDate, EndDate].
func (a *Adjustment) CoversDate(date time.Time) bool {
	d := truncateDay(date)
	if d.Before(truncateDay(a.StartDate)) {
		return false
	}
	if a.EndDate != nil && d.After(truncateDay(*a.EndDate)) {
		return false
	}
	return true
}

// EffectiveOn combina la ventana con el estado activo.
func (a *Adjustment) EffectiveOn(date time.Time) bool {
	return a.Active && !a.Deleted && a.CoversDate(date)
}

// AppliesTo indica si el ámbito del ajuste alcanza al socio/categoría.
func (a *Adjustment) AppliesTo(memberID, categoryID string) bool {
	switch a.Scope {
	case ScopeIndividual:
		return a.MemberID == memberID
	case ScopeCategory:
		return a.CategoryID == categoryID
	case ScopeGlobal:
		return true
	}
	return false
}

// State deriva el estado de ciclo de vida.
func (a *Adjustment) State() AdjustmentState {
	switch {
	case a.Deleted:
		return AdjustmentDeleted
	case a.Active:
		return AdjustmentActive
	default:
		return AdjustmentInactive
	}
}

// AdjustmentState estado del ciclo de vida de un ajuste.
type AdjustmentState string

const (
	AdjustmentActive   AdjustmentState = "ACTIVO"
	AdjustmentInactive AdjustmentState = "INACTIVO"
	AdjustmentDeleted  AdjustmentState = "ELIMINADO"
)

// AdjustmentEvent acción de ciclo de vida.
type AdjustmentEvent string

const (
	AdjustmentActivate   AdjustmentEvent = "ACTIVAR"
	AdjustmentDeactivate AdjustmentEvent = "DESACTIVAR"
	AdjustmentDelete     AdjustmentEvent = "ELIMINAR"
	AdjustmentEdit       AdjustmentEvent = "EDITAR"
)

var adjustmentTransitions = map[AdjustmentState]map[AdjustmentEvent]AdjustmentState{
	AdjustmentActive: {
		AdjustmentDeactivate: AdjustmentInactive,
		AdjustmentDelete:     AdjustmentDeleted,
		AdjustmentEdit:       AdjustmentActive,
	},
	AdjustmentInactive: {
		AdjustmentActivate: AdjustmentActive,
		AdjustmentDelete:   AdjustmentDeleted,
		AdjustmentEdit:     AdjustmentInactive,
	},
}

// AdjustmentTransition valida el evento contra la tabla y devuelve el estado destino.
func AdjustmentTransition(from AdjustmentState, ev AdjustmentEvent) (AdjustmentState, error) {
	if to, ok := adjustmentTransitions[from][ev]; ok {
		return to, nil
	}
	return from, fmt.Errorf("transición %s no permitida desde %s", ev, from)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
