package fees

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Valores por defecto de topes (porcentaje 0-100).
var (
	DefaultMaxPercent = decimal.NewFromInt(100)
	DefaultGlobalCap  = decimal.NewFromInt(80)
)

// Engine es el motor de reglas de descuento: un plegado por prioridad sobre efectos.
// MaxPercent acota cada grupo de prioridad; GlobalCap acota el acumulado de todos los grupos.
type Engine struct {
	MaxPercent decimal.Decimal
	GlobalCap  decimal.Decimal
}

// NewEngine construye el motor; valores cero o negativos toman el default.
func NewEngine(maxPercent, globalCap decimal.Decimal) Engine {
	if !maxPercent.IsPositive() {
		maxPercent = DefaultMaxPercent
	}
	if !globalCap.IsPositive() {
		globalCap = DefaultGlobalCap
	}
	return Engine{MaxPercent: maxPercent, GlobalCap: globalCap}
}

// Contribution aporte individual de un efecto al resultado.
type Contribution struct {
	Kind      EffectKind      `json:"tipo"`
	Mode      Mode            `json:"modo"`
	SourceID  string          `json:"origen_id,omitempty"`
	Label     string          `json:"descripcion"`
	Requested decimal.Decimal `json:"porcentaje_solicitado"`
	Applied   decimal.Decimal `json:"porcentaje_aplicado"`
	Fixed     decimal.Decimal `json:"monto_fijo"`
}

// Result efecto neto del plegado más la traza ordenada de contribuciones.
type Result struct {
	RequestedPercent decimal.Decimal
	AppliedPercent   decimal.Decimal
	Capped           bool
	FixedDelta       decimal.Decimal
	Exempt           bool
	ExemptionID      string
	Trace            []Contribution
}

// NetOf aplica el porcentaje resuelto a un monto bruto.
func (r Result) NetOf(amount decimal.Decimal) decimal.Decimal {
	if r.Exempt {
		return decimal.Zero
	}
	return Round(amount.Mul(hundred.Sub(r.AppliedPercent)).Div(hundred))
}

// Apply devuelve el neto completo: porcentaje, luego delta fijo, nunca negativo.
func (r Result) Apply(amount decimal.Decimal) decimal.Decimal {
	if r.Exempt {
		return decimal.Zero
	}
	return NonNegative(r.NetOf(amount).Add(r.FixedDelta))
}

// Resolve resuelve los efectos en orden EXENCION > AJUSTE_MANUAL > REGLA_AUTOMATICA > DESCUENTO_CATEGORIA.
// Una exención total corta el plegado. Es una función pura: no persiste nada.
func (e Engine) Resolve(effects []Effect, vars FormulaVars) (Result, error) {
	sorted := make([]Effect, len(effects))
	copy(sorted, effects)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Kind != sorted[j].Kind {
			return sorted[i].Kind.Priority() < sorted[j].Kind.Priority()
		}
		return sorted[i].SourceID < sorted[j].SourceID
	})

	res := Result{RequestedPercent: decimal.Zero, AppliedPercent: decimal.Zero, FixedDelta: decimal.Zero}

	for _, ef := range sorted {
		if ef.Kind == KindExemption && ef.Mode == ModePercent && ef.Percent.GreaterThanOrEqual(hundred) {
			res.Exempt = true
			res.ExemptionID = ef.SourceID
			res.RequestedPercent = hundred
			res.AppliedPercent = hundred
			res.Trace = []Contribution{{
				Kind: ef.Kind, Mode: ef.Mode, SourceID: ef.SourceID, Label: ef.Label,
				Requested: hundred, Applied: hundred, Fixed: decimal.Zero,
			}}
			return res, nil
		}
	}

	var fixed []Contribution
	for start := 0; start < len(sorted); {
		end := start
		for end < len(sorted) && sorted[end].Kind == sorted[start].Kind {
			end++
		}
		group := sorted[start:end]
		start = end

		var percent []Effect
		for _, ef := range group {
			switch ef.Mode {
			case ModePercent:
				percent = append(percent, ef)
			case ModeFixed:
				res.FixedDelta = res.FixedDelta.Add(ef.Fixed)
				fixed = append(fixed, Contribution{
					Kind: ef.Kind, Mode: ef.Mode, SourceID: ef.SourceID, Label: ef.Label,
					Requested: decimal.Zero, Applied: decimal.Zero, Fixed: Round(ef.Fixed),
				})
			case ModeFormula:
				delta, err := EvalFormula(ef.Formula, vars)
				if err != nil {
					return Result{}, fmt.Errorf("efecto %s: %w", ef.SourceID, err)
				}
				res.FixedDelta = res.FixedDelta.Add(delta)
				fixed = append(fixed, Contribution{
					Kind: ef.Kind, Mode: ef.Mode, SourceID: ef.SourceID, Label: ef.Label,
					Requested: decimal.Zero, Applied: decimal.Zero, Fixed: delta,
				})
			}
		}
		if len(percent) == 0 {
			continue
		}
		contribs, applied, capped := e.foldGroup(percent, res.AppliedPercent)
		for _, ef := range percent {
			res.RequestedPercent = res.RequestedPercent.Add(ef.Percent)
		}
		res.AppliedPercent = res.AppliedPercent.Add(applied)
		res.Capped = res.Capped || capped
		res.Trace = append(res.Trace, contribs...)
	}
	res.FixedDelta = Round(res.FixedDelta)
	res.Trace = append(res.Trace, fixed...)
	return res, nil
}

// foldGroup combina aditivamente los porcentajes de una misma prioridad, limita el grupo a
// [0, MaxPercent] y al margen restante del tope global, y reparte lo aplicado entre los efectos.
func (e Engine) foldGroup(group []Effect, alreadyApplied decimal.Decimal) ([]Contribution, decimal.Decimal, bool) {
	sumPos, sumNeg := decimal.Zero, decimal.Zero
	for _, ef := range group {
		if ef.Percent.IsNegative() {
			sumNeg = sumNeg.Add(ef.Percent)
		} else {
			sumPos = sumPos.Add(ef.Percent)
		}
	}
	requested := sumPos.Add(sumNeg)
	target := ClampPercent(requested, e.MaxPercent)
	room := NonNegative(e.GlobalCap.Sub(alreadyApplied))
	if target.GreaterThan(room) {
		target = room
	}
	capped := target.LessThan(requested)

	posBudget := decimal.Min(sumPos, target.Sub(sumNeg))
	negBudget := target.Sub(posBudget)

	out := make([]Contribution, 0, len(group))
	for _, ef := range group {
		applied := decimal.Zero
		if ef.Percent.IsNegative() {
			applied = decimal.Max(ef.Percent, negBudget)
			negBudget = negBudget.Sub(applied)
		} else {
			applied = decimal.Min(ef.Percent, posBudget)
			posBudget = posBudget.Sub(applied)
		}
		out = append(out, Contribution{
			Kind: ef.Kind, Mode: ef.Mode, SourceID: ef.SourceID, Label: ef.Label,
			Requested: ef.Percent, Applied: applied, Fixed: decimal.Zero,
		})
	}
	return out, target, capped
}
