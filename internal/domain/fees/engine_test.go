package fees_test

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/cuotas-api/internal/domain/fees"
)

func pct(kind fees.EffectKind, id string, p int64) fees.Effect {
	return fees.Effect{Kind: kind, Mode: fees.ModePercent, SourceID: id, Label: id, Percent: decimal.NewFromInt(p)}
}

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func defaultEngine() fees.Engine { return fees.NewEngine(decimal.Zero, decimal.Zero) }

// Categoría ESTUDIANTE 15000 con 40% + ajuste manual del 10% = 50% → 7500.
func TestResolve_EstudianteConAjusteManual(t *testing.T) {
	res, err := defaultEngine().Resolve([]fees.Effect{
		pct(fees.KindCategoryDiscount, "cat-estudiante", 40),
		pct(fees.KindManualAdjustment, "aj-1", 10),
	}, fees.FormulaVars{})
	require.NoError(t, err)

	assert.True(t, d(50).Equal(res.AppliedPercent), "descuento combinado: %s", res.AppliedPercent)
	assert.False(t, res.Capped)
	assert.True(t, d(7500).Equal(res.NetOf(d(15000))))

	require.Len(t, res.Trace, 2)
	assert.Equal(t, fees.KindManualAdjustment, res.Trace[0].Kind, "el ajuste manual tiene mayor prioridad que la categoría")
	assert.Equal(t, fees.KindCategoryDiscount, res.Trace[1].Kind)
}

// 40% categoría + 50% manual = 90% se limita al tope global de 80%.
func TestResolve_TopeGlobal(t *testing.T) {
	res, err := defaultEngine().Resolve([]fees.Effect{
		pct(fees.KindCategoryDiscount, "cat", 40),
		pct(fees.KindManualAdjustment, "aj", 50),
	}, fees.FormulaVars{})
	require.NoError(t, err)

	assert.True(t, d(80).Equal(res.AppliedPercent), "aplicado: %s", res.AppliedPercent)
	assert.True(t, d(90).Equal(res.RequestedPercent))
	assert.True(t, res.Capped)
	// El manual entra completo; la categoría recibe solo el margen.
	assert.True(t, d(50).Equal(res.Trace[0].Applied))
	assert.True(t, d(30).Equal(res.Trace[1].Applied))
}

func TestResolve_ExencionTotalCortaElPlegado(t *testing.T) {
	res, err := defaultEngine().Resolve([]fees.Effect{
		pct(fees.KindManualAdjustment, "aj", 20),
		pct(fees.KindExemption, "ex-1", 100),
		{Kind: fees.KindManualAdjustment, Mode: fees.ModeFixed, SourceID: "fijo", Fixed: d(500)},
	}, fees.FormulaVars{})
	require.NoError(t, err)

	assert.True(t, res.Exempt)
	assert.Equal(t, "ex-1", res.ExemptionID)
	require.Len(t, res.Trace, 1)
	assert.Equal(t, fees.KindExemption, res.Trace[0].Kind)
	assert.True(t, res.Apply(d(15000)).IsZero())
}

func TestResolve_ExencionParcialPrecedeAlAjuste(t *testing.T) {
	eng := fees.NewEngine(d(100), d(60))
	res, err := eng.Resolve([]fees.Effect{
		pct(fees.KindManualAdjustment, "aj", 50),
		pct(fees.KindExemption, "ex", 40),
	}, fees.FormulaVars{})
	require.NoError(t, err)

	assert.True(t, d(60).Equal(res.AppliedPercent))
	assert.Equal(t, fees.KindExemption, res.Trace[0].Kind)
	assert.True(t, d(40).Equal(res.Trace[0].Applied), "la exención entra completa antes que el ajuste")
	assert.True(t, d(20).Equal(res.Trace[1].Applied))
}

func TestResolve_MismoNivelSeSumaYSeLimitaAlMaximoPorRegla(t *testing.T) {
	eng := fees.NewEngine(d(30), d(80))
	res, err := eng.Resolve([]fees.Effect{
		pct(fees.KindAutomaticRule, "r1", 20),
		pct(fees.KindAutomaticRule, "r2", 25),
	}, fees.FormulaVars{})
	require.NoError(t, err)
	assert.True(t, d(30).Equal(res.AppliedPercent))
}

func TestResolve_RecargoNoProduceDescuentoNegativo(t *testing.T) {
	res, err := defaultEngine().Resolve([]fees.Effect{
		pct(fees.KindManualAdjustment, "recargo", -15),
		pct(fees.KindManualAdjustment, "desc", 5),
		pct(fees.KindCategoryDiscount, "cat", 10),
	}, fees.FormulaVars{})
	require.NoError(t, err)
	// grupo manual: 5 - 15 = -10 → 0; categoría 10.
	assert.True(t, d(10).Equal(res.AppliedPercent), "aplicado: %s", res.AppliedPercent)
}

func TestResolve_FijoDespuesDelPorcentajeNuncaNegativo(t *testing.T) {
	res, err := defaultEngine().Resolve([]fees.Effect{
		pct(fees.KindCategoryDiscount, "cat", 50),
		{Kind: fees.KindManualAdjustment, Mode: fees.ModeFixed, SourceID: "f", Fixed: d(-9000)},
	}, fees.FormulaVars{})
	require.NoError(t, err)

	assert.True(t, d(-9000).Equal(res.FixedDelta))
	assert.True(t, res.Apply(d(15000)).IsZero(), "7500 - 9000 se trunca en cero")
	assert.True(t, d(1000).Equal(res.Apply(d(20000))))
}

func TestResolve_Formula(t *testing.T) {
	res, err := defaultEngine().Resolve([]fees.Effect{
		{Kind: fees.KindAutomaticRule, Mode: fees.ModeFormula, SourceID: "fx", Formula: "-(actividades * 0.5)"},
	}, fees.FormulaVars{Base: d(10000), Activities: d(3000), Month: 12, Year: 2025})
	require.NoError(t, err)
	assert.True(t, d(-1500).Equal(res.FixedDelta), "delta: %s", res.FixedDelta)
}

func TestResolve_FormulaInvalidaDevuelveError(t *testing.T) {
	_, err := defaultEngine().Resolve([]fees.Effect{
		{Kind: fees.KindAutomaticRule, Mode: fees.ModeFormula, SourceID: "fx", Formula: "base * ("},
	}, fees.FormulaVars{})
	require.Error(t, err)
}

func TestValidateFormula_VariableDesconocida(t *testing.T) {
	require.NoError(t, fees.ValidateFormula("base * 0.1 + actividades"))
	require.Error(t, fees.ValidateFormula("sueldo * 0.1"))
}

// Para toda combinación de reglas el porcentaje resultante queda en [0, tope].
func TestResolve_PorcentajeSiempreDentroDelTope(t *testing.T) {
	eng := defaultEngine()
	values := []int64{-30, 0, 10, 35, 60, 99}
	kinds := []fees.EffectKind{fees.KindExemption, fees.KindManualAdjustment, fees.KindAutomaticRule, fees.KindCategoryDiscount}
	for _, a := range values {
		for _, b := range values {
			for _, c := range values {
				effects := []fees.Effect{
					pct(kinds[int(a+30)%4], "a", a),
					pct(kinds[int(b+30)%4], "b", b),
					pct(kinds[int(c+30)%4], "c", c),
				}
				t.Run(fmt.Sprintf("%d_%d_%d", a, b, c), func(t *testing.T) {
					res, err := eng.Resolve(effects, fees.FormulaVars{})
					require.NoError(t, err)
					assert.False(t, res.AppliedPercent.IsNegative())
					assert.True(t, res.AppliedPercent.LessThanOrEqual(eng.GlobalCap), "aplicado %s", res.AppliedPercent)
					sum := decimal.Zero
					for _, c := range res.Trace {
						sum = sum.Add(c.Applied)
					}
					assert.True(t, sum.Equal(res.AppliedPercent), "la traza suma lo aplicado")
				})
			}
		}
	}
}
