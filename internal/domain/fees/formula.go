package fees

import (
	"fmt"

	"github.com/casbin/govaluate"
	"github.com/shopspring/decimal"
)

// FormulaVars variables disponibles para ajustes FORMULA.
type FormulaVars struct {
	Base        decimal.Decimal // monto base de la categoría
	Activities  decimal.Decimal // suma de actividades
	Month, Year int
}

var formulaVarNames = map[string]bool{"base": true, "actividades": true, "mes": true, "anio": true}

// ValidateFormula compila la expresión y verifica que solo use variables conocidas.
func ValidateFormula(expr string) error {
	e, err := govaluate.NewEvaluableExpression(expr)
	if err != nil {
		return fmt.Errorf("fórmula inválida: %w", err)
	}
	for _, v := range e.Vars() {
		if !formulaVarNames[v] {
			return fmt.Errorf("fórmula inválida: variable desconocida %q", v)
		}
	}
	return nil
}

// EvalFormula evalúa la expresión y devuelve un delta monetario redondeado.
func EvalFormula(expr string, vars FormulaVars) (decimal.Decimal, error) {
	e, err := govaluate.NewEvaluableExpression(expr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fórmula inválida: %w", err)
	}
	base, _ := vars.Base.Float64()
	acts, _ := vars.Activities.Float64()
	out, err := e.Evaluate(map[string]interface{}{
		"base":        base,
		"actividades": acts,
		"mes":         float64(vars.Month),
		"anio":        float64(vars.Year),
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("evaluar fórmula: %w", err)
	}
	f, ok := out.(float64)
	if !ok {
		return decimal.Zero, fmt.Errorf("la fórmula no devuelve un número: %v", out)
	}
	return Round(decimal.NewFromFloat(f)), nil
}
