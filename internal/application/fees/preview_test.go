package fees_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/cuotas-api/internal/application/dto"
	"github.com/jhoicas/cuotas-api/internal/domain"
	"github.com/jhoicas/cuotas-api/internal/domain/entity"
)

// La vista previa y la generación comparten pipeline: mismos montos, mismos ítems.
func TestPreviewFee_CoincideConLaCuotaGenerada(t *testing.T) {
	f := newFixture(t)
	f.manualDiscount(t, socioAna, 10)

	pv, err := f.preview.PreviewFee(f.ctx, dto.PreviewFeeRequest{MemberID: socioAna, Month: 12, Year: 2025})
	require.NoError(t, err)

	fees, err := f.store.Fees().ListByPeriod(f.ctx, entity.Period{Month: 12, Year: 2025}, nil)
	require.NoError(t, err)
	assert.Empty(t, fees, "la vista previa no persiste")

	ana := f.feeOf(t, f.generate(t), socioAna)
	assert.True(t, pv.Fee.BaseAmount.Equal(ana.BaseAmount))
	assert.True(t, pv.Fee.ActivitiesAmount.Equal(ana.ActivitiesAmount))
	assert.True(t, pv.Fee.DiscountAmount.Equal(ana.DiscountAmount))
	assert.True(t, pv.Fee.TotalAmount.Equal(ana.TotalAmount))

	items, err := f.store.Items().ListByFee(f.ctx, ana.ID)
	require.NoError(t, err)
	assert.Len(t, pv.Breakdown, len(items))

	assert.Contains(t, pv.Explanation, "Total: $7500.00")
	require.Len(t, pv.Trace, 2)
	assert.Len(t, pv.History, 1, "alta del ajuste")
}

func TestPreviewFee_Errores(t *testing.T) {
	f := newFixture(t)

	_, err := f.preview.PreviewFee(f.ctx, dto.PreviewFeeRequest{Month: 12, Year: 2025})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = f.preview.PreviewFee(f.ctx, dto.PreviewFeeRequest{MemberID: socioAna, Month: 0, Year: 2025})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = f.preview.PreviewFee(f.ctx, dto.PreviewFeeRequest{MemberID: "nadie", Month: 12, Year: 2025})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPreviewFee_CategoriaAlternativa(t *testing.T) {
	f := newFixture(t)

	pv, err := f.preview.PreviewFee(f.ctx, dto.PreviewFeeRequest{MemberID: socioBruno, Month: 12, Year: 2025, CategoryID: catActivo})
	require.NoError(t, err)
	assert.Equal(t, catActivo, pv.Fee.CategoryID)
	assert.True(t, d(20000).Equal(pv.Fee.TotalAmount))
}

func TestPreviewMemberFees_Resumen(t *testing.T) {
	f := newFixture(t)

	out, err := f.preview.PreviewMemberFees(f.ctx, socioBruno, "10-2025", "12-2025")
	require.NoError(t, err)
	require.Len(t, out.Fees, 3)
	assert.Equal(t, entity.Period{Month: 10, Year: 2025}, out.Fees[0].Period)
	assert.Equal(t, 3, out.Summary.Count)
	assert.True(t, d(27000).Equal(out.Summary.Total))
	assert.True(t, d(18000).Equal(out.Summary.Discount))
	assert.True(t, d(9000).Equal(out.Summary.Average))
}

func TestPreviewMemberFees_SinTarifaQuedaComoErrorDeFila(t *testing.T) {
	f := newFixture(t)
	f.store.AddCategory(&entity.Category{ID: catActivo, Code: "ACTIVO", Name: "Activo"})

	out, err := f.preview.PreviewMemberFees(f.ctx, socioCarla, "11-2025", "12-2025")
	require.NoError(t, err)
	require.Len(t, out.Fees, 2)
	assert.NotEmpty(t, out.Fees[0].Error)
	assert.Zero(t, out.Summary.Count)
	assert.True(t, out.Summary.Average.IsZero())
}

func TestPreviewMemberFees_RangosInvalidos(t *testing.T) {
	f := newFixture(t)

	_, err := f.preview.PreviewMemberFees(f.ctx, socioBruno, "12-2025", "10-2025")
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = f.preview.PreviewMemberFees(f.ctx, socioBruno, "01-2020", "12-2025")
	assert.Equal(t, domain.KindValidation, domain.KindOf(err), "más de 24 meses")

	_, err = f.preview.PreviewMemberFees(f.ctx, socioBruno, "2025-10", "12-2025")
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = f.preview.PreviewMemberFees(f.ctx, "nadie", "10-2025", "12-2025")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// CompareFee
// ──────────────────────────────────────────────────────────────────────────────

func TestCompareFee_AjusteHipotetico(t *testing.T) {
	f := newFixture(t)
	bruno := f.feeOf(t, f.generate(t), socioBruno)

	out, err := f.preview.CompareFee(f.ctx, bruno.ID, dto.CompareFeeRequest{
		ExtraAdjustments: []dto.HypotheticalAdjustment{{Type: entity.AdjustmentTypePercent, Value: d(-20), Label: "beca deportiva"}},
	})
	require.NoError(t, err)
	assert.True(t, d(9000).Equal(out.Before.TotalAmount))
	assert.True(t, d(6000).Equal(out.After.TotalAmount), "40% + 20%: %s", out.After.TotalAmount)
	assert.True(t, d(-3000).Equal(out.Diff.Total))
	assert.True(t, d(3000).Equal(out.Diff.Discount))
	assert.Equal(t, bruno.ID, out.After.ID)
	assert.Equal(t, bruno.Number, out.After.Number)

	got, err := f.store.Fees().GetByID(f.ctx, bruno.ID)
	require.NoError(t, err)
	assert.True(t, d(9000).Equal(got.TotalAmount), "la comparación no escribe")
}

func TestCompareFee_QuitarAjusteExistente(t *testing.T) {
	f := newFixture(t)
	adj := f.manualDiscount(t, socioAna, 10)
	ana := f.feeOf(t, f.generate(t), socioAna)

	out, err := f.preview.CompareFee(f.ctx, ana.ID, dto.CompareFeeRequest{DropAdjustmentIDs: []string{adj.ID}})
	require.NoError(t, err)
	assert.True(t, d(9000).Equal(out.After.TotalAmount))
	assert.True(t, d(1500).Equal(out.Diff.Total))
}

func TestCompareFee_ConservaItemsManuales(t *testing.T) {
	f := newFixture(t)
	bruno := f.feeOf(t, f.generate(t), socioBruno)
	_, err := f.composer.AddManualItem(f.ctx, testActor, bruno.ID, dto.ManualItemRequest{Description: "Cuota social extra", Amount: d(500)})
	require.NoError(t, err)

	out, err := f.preview.CompareFee(f.ctx, bruno.ID, dto.CompareFeeRequest{})
	require.NoError(t, err)
	assert.True(t, d(9500).Equal(out.After.TotalAmount))
	assert.True(t, out.Diff.Total.IsZero())
	assert.Len(t, out.AfterItems, 2)
}

func TestCompareFee_Errores(t *testing.T) {
	f := newFixture(t)
	bruno := f.feeOf(t, f.generate(t), socioBruno)

	_, err := f.preview.CompareFee(f.ctx, "no-existe", dto.CompareFeeRequest{})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.preview.CompareFee(f.ctx, bruno.ID, dto.CompareFeeRequest{
		ExtraAdjustments: []dto.HypotheticalAdjustment{{Type: entity.AdjustmentTypePercent, Value: d(-150)}},
	})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = f.preview.CompareFee(f.ctx, bruno.ID, dto.CompareFeeRequest{
		ExtraAdjustments: []dto.HypotheticalAdjustment{{Type: entity.AdjustmentTypeFormula, Formula: "base * desconocida"}},
	})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

// Los ajustes hipotéticos se validan con el máximo configurado, igual que al crearlos.
func TestCompareFee_RespetaMaximoConfigurado(t *testing.T) {
	f := newFixtureMax(t, d(30))
	bruno := f.feeOf(t, f.generate(t), socioBruno)

	_, err := f.preview.CompareFee(f.ctx, bruno.ID, dto.CompareFeeRequest{
		ExtraAdjustments: []dto.HypotheticalAdjustment{{Type: entity.AdjustmentTypePercent, Value: d(-40)}},
	})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = f.adjustments.Create(f.ctx, testActor, dto.CreateAdjustmentRequest{
		MemberID: socioBruno, Type: entity.AdjustmentTypePercent, Value: d(-40), StartDate: "2025-01-01",
	})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = f.preview.CompareFee(f.ctx, bruno.ID, dto.CompareFeeRequest{
		ExtraAdjustments: []dto.HypotheticalAdjustment{{Type: entity.AdjustmentTypePercent, Value: d(-30)}},
	})
	require.NoError(t, err)
}
