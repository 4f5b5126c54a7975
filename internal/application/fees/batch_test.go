package fees_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/cuotas-api/internal/application/dto"
	"github.com/jhoicas/cuotas-api/internal/domain"
	"github.com/jhoicas/cuotas-api/internal/domain/entity"
)

// ESTUDIANTE 15000 con 40% de categoría y un AJUSTE_MANUAL de -10%: 50% combinado, neto 7500.
func TestGenerateBatch_EstudianteConAjusteManual(t *testing.T) {
	f := newFixture(t)
	f.manualDiscount(t, socioAna, 10)

	resp := f.generate(t)

	assert.Equal(t, 3, resp.Generated, "el socio dado de baja no integra la cohorte")
	assert.Empty(t, resp.Errors)
	assert.Equal(t, 3, resp.Performance.Cohort)
	assert.Equal(t, 2, resp.Performance.Chunks)

	ana := f.feeOf(t, resp, socioAna)
	assert.True(t, d(15000).Equal(ana.BaseAmount))
	assert.True(t, d(7500).Equal(ana.DiscountAmount), "descuento: %s", ana.DiscountAmount)
	assert.True(t, d(7500).Equal(ana.TotalAmount), "total: %s", ana.TotalAmount)

	bruno := f.feeOf(t, resp, socioBruno)
	assert.True(t, d(9000).Equal(bruno.TotalAmount), "solo descuento de categoría: %s", bruno.TotalAmount)

	carla := f.feeOf(t, resp, socioCarla)
	assert.True(t, d(3000).Equal(carla.ActivitiesAmount))
	assert.True(t, d(23000).Equal(carla.TotalAmount))

	items, err := f.store.Items().ListByFee(f.ctx, carla.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, entity.ItemTypeBase, items[0].Type)
	assert.Equal(t, entity.ItemTypeActivity, items[1].Type)
	assert.True(t, carla.TotalAmount.Equal(entity.SumNet(items)), "total = Σ ítems")
}

func TestGenerateBatch_SocioSinTarifaNoAbortaElLote(t *testing.T) {
	f := newFixture(t)
	f.store.AddCategory(&entity.Category{ID: catActivo, Code: "ACTIVO", Name: "Activo"})

	resp := f.generate(t, "ACTIVO", "ESTUDIANTE")

	assert.Equal(t, 2, resp.Generated, "cohorte - 1")
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, socioCarla, resp.Errors[0].MemberID)
	assert.Contains(t, resp.Errors[0].Message, "sin tarifa")

	persisted, err := f.store.Fees().ListByPeriod(f.ctx, entity.Period{Month: 12, Year: 2025}, nil)
	require.NoError(t, err)
	assert.Len(t, persisted, 2)

	expected := `
# HELP cuotas_generated_total Cuotas persistidas por la generación masiva.
# TYPE cuotas_generated_total counter
cuotas_generated_total 2
# HELP cuotas_generation_errors_total Socios que fallaron durante la generación masiva.
# TYPE cuotas_generation_errors_total counter
cuotas_generation_errors_total 1
`
	assert.NoError(t, testutil.GatherAndCompare(f.reg, strings.NewReader(expected),
		"cuotas_generated_total", "cuotas_generation_errors_total"))
	assert.Equal(t, 1, testutil.CollectAndCount(f.reg, "cuotas_batch_duration_seconds"))
}

func TestGenerateBatch_DuplicadosSonCuotasIndependientes(t *testing.T) {
	f := newFixture(t)

	first := f.generate(t, "ESTUDIANTE")
	second := f.generate(t, "ESTUDIANTE")

	require.Equal(t, 2, first.Generated)
	require.Equal(t, 2, second.Generated)
	assert.NotEqual(t, first.BatchID, second.BatchID)

	a1, a2 := f.feeOf(t, first, socioAna), f.feeOf(t, second, socioAna)
	assert.NotEqual(t, a1.ID, a2.ID)
	assert.NotEqual(t, a1.Number, a2.Number)
	assert.True(t, a1.TotalAmount.Equal(a2.TotalAmount))

	persisted, err := f.store.Fees().ListByPeriod(f.ctx, entity.Period{Month: 12, Year: 2025}, []string{catEstud})
	require.NoError(t, err)
	assert.Len(t, persisted, 4)
}

func TestGenerateBatch_NumeracionMonotona(t *testing.T) {
	f := newFixture(t)
	resp := f.generate(t)

	seen := map[int64]bool{}
	var last int64
	for _, fee := range resp.Fees {
		assert.False(t, seen[fee.Number], "número repetido %d", fee.Number)
		assert.Greater(t, fee.Number, last)
		seen[fee.Number] = true
		last = fee.Number
	}
}

func TestGenerateBatch_FalloDeBloqueNoRevierteBloquesPrevios(t *testing.T) {
	f := newFixture(t)
	f.store.InjectFeeCreateFailure(func(fee *entity.Fee) error {
		if fee.MemberID == socioCarla {
			return errors.New("disco lleno")
		}
		return nil
	})

	resp := f.generate(t)

	assert.Equal(t, 2, resp.Generated)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, socioCarla, resp.Errors[0].MemberID)
	assert.True(t, strings.HasPrefix(resp.Errors[0].Message, "lote:"), resp.Errors[0].Message)

	persisted, err := f.store.Fees().ListByPeriod(f.ctx, entity.Period{Month: 12, Year: 2025}, nil)
	require.NoError(t, err)
	assert.Len(t, persisted, 2)

	for _, fee := range persisted {
		entries, err := f.ledger.ListByFee(f.ctx, fee.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{entity.ActionFeeGenerated}, actions(entries))
	}
}

func TestGenerateBatch_ContextoCanceladoRegistraPendientes(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp, err := f.batch.GenerateBatch(ctx, testActor, dto.GenerateBatchRequest{Month: 12, Year: 2025})
	require.NoError(t, err)
	assert.Zero(t, resp.Generated)
	assert.Len(t, resp.Errors, 3)
}

func TestGenerateBatch_SinDescuentos(t *testing.T) {
	f := newFixture(t)
	f.manualDiscount(t, socioAna, 10)
	off := false

	resp, err := f.batch.GenerateBatch(f.ctx, testActor, dto.GenerateBatchRequest{
		Month: 12, Year: 2025, Categories: []string{catEstud}, ApplyDiscounts: &off,
	})
	require.NoError(t, err)
	for _, fee := range resp.Fees {
		assert.True(t, d(15000).Equal(fee.TotalAmount))
		assert.True(t, fee.DiscountAmount.IsZero())
	}
}

// Exención 100% VIGENTE en el período: total 0 sin importar ajustes ni categoría.
func TestGenerateBatch_ExencionTotalDejaCuotaEnCero(t *testing.T) {
	f := newFixture(t)
	f.manualDiscount(t, socioAna, 10)
	ex, err := f.exemptions.Create(f.ctx, testActor, dto.CreateExemptionRequest{
		MemberID: socioAna, Percentage: d(100), From: "01-2025", To: "12-2025", Reason: "situación económica",
	})
	require.NoError(t, err)
	_, err = f.exemptions.Approve(f.ctx, "admin", ex.ID, "")
	require.NoError(t, err)
	_, err = f.exemptions.ActivateDue(f.ctx, time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	got, err := f.exemptions.GetByID(f.ctx, ex.ID)
	require.NoError(t, err)
	require.Equal(t, entity.ExemptionActive, got.State)

	resp := f.generate(t)
	ana := f.feeOf(t, resp, socioAna)
	assert.True(t, ana.TotalAmount.IsZero(), "total: %s", ana.TotalAmount)
	assert.True(t, d(15000).Equal(ana.DiscountAmount))
}

func TestGenerateBatch_ErroresDeEntrada(t *testing.T) {
	f := newFixture(t)

	_, err := f.batch.GenerateBatch(f.ctx, testActor, dto.GenerateBatchRequest{Month: 13, Year: 2025})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = f.batch.GenerateBatch(f.ctx, testActor, dto.GenerateBatchRequest{Month: 12, Year: 2025, Categories: []string{"INEXISTENTE"}})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// UpdateBatch
// ──────────────────────────────────────────────────────────────────────────────

func TestUpdateBatch_RecalculaTotalConDescuentoExistente(t *testing.T) {
	f := newFixture(t)
	bruno := f.feeOf(t, f.generate(t), socioBruno)

	out, err := f.batch.UpdateBatch(f.ctx, testActor, dto.UpdateBatchRequest{FeeIDs: []string{bruno.ID}, BaseAmount: dp(16000)})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Updated)

	got, err := f.store.Fees().GetByID(f.ctx, bruno.ID)
	require.NoError(t, err)
	assert.True(t, d(16000).Equal(got.BaseAmount))
	assert.True(t, d(6000).Equal(got.DiscountAmount))
	assert.True(t, d(10000).Equal(got.TotalAmount), "base + actividades - descuento: %s", got.TotalAmount)

	entries, err := f.ledger.ListByFee(f.ctx, bruno.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{entity.ActionFeeGenerated, entity.ActionFeeUpdated}, actions(entries))
	assert.NotEmpty(t, entries[1].Before)
	assert.NotEmpty(t, entries[1].After)
}

func TestUpdateBatch_TotalSobrescritoAjustaElDescuento(t *testing.T) {
	f := newFixture(t)
	resp := f.generate(t, "ESTUDIANTE")
	ids := []string{resp.Fees[0].ID, resp.Fees[1].ID}

	out, err := f.batch.UpdateBatch(f.ctx, testActor, dto.UpdateBatchRequest{FeeIDs: ids, TotalAmount: dp(8000)})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Updated)

	for _, id := range ids {
		got, err := f.store.Fees().GetByID(f.ctx, id)
		require.NoError(t, err)
		assert.True(t, d(8000).Equal(got.TotalAmount))
		assert.True(t, d(7000).Equal(got.DiscountAmount))
	}
}

func TestUpdateBatch_CuotaBloqueadaNoAplicaNada(t *testing.T) {
	f := newFixture(t)
	resp := f.generate(t)
	ana, carla := f.feeOf(t, resp, socioAna), f.feeOf(t, resp, socioCarla)
	f.linkReceipt(t, carla.ID, "rec-1", entity.ReceiptStatusCanceled)

	_, err := f.batch.UpdateBatch(f.ctx, testActor, dto.UpdateBatchRequest{FeeIDs: []string{ana.ID, carla.ID}, BaseAmount: dp(1)})
	assert.ErrorIs(t, err, domain.ErrConflict)

	got, err := f.store.Fees().GetByID(f.ctx, ana.ID)
	require.NoError(t, err)
	assert.True(t, d(15000).Equal(got.BaseAmount), "la transacción se revirtió completa")
}

func TestUpdateBatch_Validaciones(t *testing.T) {
	f := newFixture(t)
	bruno := f.feeOf(t, f.generate(t), socioBruno)

	_, err := f.batch.UpdateBatch(f.ctx, testActor, dto.UpdateBatchRequest{BaseAmount: dp(1)})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = f.batch.UpdateBatch(f.ctx, testActor, dto.UpdateBatchRequest{FeeIDs: []string{bruno.ID}})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = f.batch.UpdateBatch(f.ctx, testActor, dto.UpdateBatchRequest{FeeIDs: []string{bruno.ID}, TotalAmount: dp(-1)})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = f.batch.UpdateBatch(f.ctx, testActor, dto.UpdateBatchRequest{FeeIDs: []string{"no-existe"}, BaseAmount: dp(1)})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
