// Package fees contiene los servicios de dominio puros del cálculo de cuotas:
// el motor de reglas de descuento, la evaluación de fórmulas y el redondeo monetario.
package fees

import "github.com/shopspring/decimal"

// EffectKind etiqueta del efecto. El valor numérico es la prioridad (1 = mayor).
type EffectKind int

const (
	KindExemption        EffectKind = 1 // EXENCION
	KindManualAdjustment EffectKind = 2 // AJUSTE_MANUAL
	KindAutomaticRule    EffectKind = 3 // REGLA_AUTOMATICA
	KindCategoryDiscount EffectKind = 4 // DESCUENTO_CATEGORIA
)

func (k EffectKind) String() string {
	switch k {
	case KindExemption:
		return "EXENCION"
	case KindManualAdjustment:
		return "AJUSTE_MANUAL"
	case KindAutomaticRule:
		return "REGLA_AUTOMATICA"
	case KindCategoryDiscount:
		return "DESCUENTO_CATEGORIA"
	}
	return "DESCONOCIDO"
}

// Priority devuelve la prioridad de resolución.
func (k EffectKind) Priority() int { return int(k) }

// Mode indica cómo actúa el efecto sobre el monto.
type Mode string

const (
	ModePercent Mode = "PORCENTAJE"
	ModeFixed   Mode = "FIJO"
	ModeFormula Mode = "FORMULA"
)

// Effect es un efecto heterogéneo sobre la cuota.
// Percent es el descuento (positivo) o recargo (negativo) en 0-100.
// Fixed es el delta con signo sobre el monto (negativo = descuento).
type Effect struct {
	Kind     EffectKind
	Mode     Mode
	SourceID string
	Label    string
	Percent  decimal.Decimal
	Fixed    decimal.Decimal
	Formula  string
}

var hundred = decimal.NewFromInt(100)
