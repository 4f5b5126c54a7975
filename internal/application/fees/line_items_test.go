package fees_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/cuotas-api/internal/application/dto"
	"github.com/jhoicas/cuotas-api/internal/domain"
	"github.com/jhoicas/cuotas-api/internal/domain/entity"
)

func TestAddManualItem_CargoYCredito(t *testing.T) {
	f := newFixture(t)
	bruno := f.feeOf(t, f.generate(t), socioBruno)

	out, err := f.composer.AddManualItem(f.ctx, testActor, bruno.ID, dto.ManualItemRequest{Description: "Rifa", Amount: d(500), Reason: "evento"})
	require.NoError(t, err)
	assert.True(t, d(9500).Equal(out.Fee.TotalAmount))
	assert.Len(t, out.Items, 2)

	out, err = f.composer.AddManualItem(f.ctx, testActor, bruno.ID, dto.ManualItemRequest{Description: "Bonificación", Amount: d(-1500)})
	require.NoError(t, err)
	assert.True(t, d(8000).Equal(out.Fee.TotalAmount))
	assert.True(t, d(15000).Equal(out.Fee.BaseAmount), "los manuales no tocan base")
	assert.True(t, d(6000).Equal(out.Fee.DiscountAmount), "ni descuento")

	_, err = f.composer.AddManualItem(f.ctx, testActor, bruno.ID, dto.ManualItemRequest{Description: "Crédito excesivo", Amount: d(-9000)})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	entries, err := f.ledger.ListByFee(f.ctx, bruno.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{entity.ActionFeeGenerated, entity.ActionFeeItemAdded, entity.ActionFeeItemAdded}, actions(entries))
}

func TestAddManualItem_Validaciones(t *testing.T) {
	f := newFixture(t)
	resp := f.generate(t)
	bruno, carla := f.feeOf(t, resp, socioBruno), f.feeOf(t, resp, socioCarla)
	f.linkReceipt(t, carla.ID, "rec-1", entity.ReceiptStatusPaid)

	_, err := f.composer.AddManualItem(f.ctx, testActor, bruno.ID, dto.ManualItemRequest{Amount: d(100)})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = f.composer.AddManualItem(f.ctx, testActor, bruno.ID, dto.ManualItemRequest{Description: "Cero"})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = f.composer.AddManualItem(f.ctx, testActor, "no-existe", dto.ManualItemRequest{Description: "x", Amount: d(1)})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.composer.AddManualItem(f.ctx, testActor, carla.ID, dto.ManualItemRequest{Description: "x", Amount: d(1)})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestDeleteItem_QuitaActividad(t *testing.T) {
	f := newFixture(t)
	carla := f.feeOf(t, f.generate(t), socioCarla)
	items, err := f.store.Items().ListByFee(f.ctx, carla.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	activity := items[1]
	require.Equal(t, entity.ItemTypeActivity, activity.Type)

	out, err := f.composer.DeleteItem(f.ctx, testActor, carla.ID, activity.ID)
	require.NoError(t, err)
	assert.True(t, out.Fee.ActivitiesAmount.IsZero())
	assert.True(t, out.Fee.DiscountAmount.IsZero())
	assert.True(t, d(20000).Equal(out.Fee.TotalAmount))
	assert.Len(t, out.Items, 1)

	entries, err := f.ledger.ListByFee(f.ctx, carla.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ActionFeeItemDeleted, entries[len(entries)-1].Action)
}

func TestDeleteItem_ItemDeOtraCuota(t *testing.T) {
	f := newFixture(t)
	resp := f.generate(t)
	ana, carla := f.feeOf(t, resp, socioAna), f.feeOf(t, resp, socioCarla)
	items, err := f.store.Items().ListByFee(f.ctx, carla.ID)
	require.NoError(t, err)

	_, err = f.composer.DeleteItem(f.ctx, testActor, ana.ID, items[0].ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.composer.DeleteItem(f.ctx, testActor, ana.ID, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// RegenerateItems
// ──────────────────────────────────────────────────────────────────────────────

func TestRegenerateItems_AplicaReglasNuevasYConservaManuales(t *testing.T) {
	f := newFixture(t)
	bruno := f.feeOf(t, f.generate(t), socioBruno)
	_, err := f.composer.AddManualItem(f.ctx, testActor, bruno.ID, dto.ManualItemRequest{Description: "Rifa", Amount: d(500)})
	require.NoError(t, err)
	f.manualDiscount(t, socioBruno, 10)

	out, err := f.composer.RegenerateItems(f.ctx, testActor, bruno.ID)
	require.NoError(t, err)
	assert.True(t, d(9500).Equal(out.PreviousTotal))
	assert.True(t, d(8000).Equal(out.NewTotal), "15000 * 50%% + 500: %s", out.NewTotal)
	assert.True(t, d(1500).Equal(out.Drift))
	assert.True(t, out.HasDrift)
	assert.NotEmpty(t, out.Explanation)

	var manual int
	for _, it := range out.Items {
		if it.Manual {
			manual++
		}
	}
	assert.Equal(t, 1, manual)

	stored, err := f.store.Items().ListByFee(f.ctx, bruno.ID)
	require.NoError(t, err)
	assert.Len(t, stored, len(out.Items))
	got, err := f.store.Fees().GetByID(f.ctx, bruno.ID)
	require.NoError(t, err)
	assert.True(t, got.TotalAmount.Equal(entity.SumNet(stored)))
}

func TestRegenerateItems_DetectaDesvioPorEdicionManual(t *testing.T) {
	f := newFixture(t)
	bruno := f.feeOf(t, f.generate(t), socioBruno)
	_, err := f.batch.UpdateBatch(f.ctx, testActor, dto.UpdateBatchRequest{FeeIDs: []string{bruno.ID}, TotalAmount: dp(10000)})
	require.NoError(t, err)

	out, err := f.composer.RegenerateItems(f.ctx, testActor, bruno.ID)
	require.NoError(t, err)
	assert.True(t, d(1000).Equal(out.Drift))
	assert.True(t, d(9000).Equal(out.Fee.TotalAmount))

	again, err := f.composer.RegenerateItems(f.ctx, testActor, bruno.ID)
	require.NoError(t, err)
	assert.False(t, again.HasDrift, "idempotente sin cambios de reglas")

	entries, err := f.ledger.ListByFee(f.ctx, bruno.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{
		entity.ActionFeeGenerated, entity.ActionFeeUpdated, entity.ActionFeeRecomputed, entity.ActionFeeRecomputed,
	}, actions(entries))
}

func TestRegenerateItems_CuotaBloqueada(t *testing.T) {
	f := newFixture(t)
	bruno := f.feeOf(t, f.generate(t), socioBruno)
	f.linkReceipt(t, bruno.ID, "rec-1", entity.ReceiptStatusPaid)

	_, err := f.composer.RegenerateItems(f.ctx, testActor, bruno.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = f.composer.RegenerateItems(f.ctx, testActor, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// ApplyGlobalDiscount
// ──────────────────────────────────────────────────────────────────────────────

func TestApplyGlobalDiscount_DryRunNoEscribe(t *testing.T) {
	f := newFixture(t)
	f.generate(t)

	out, err := f.composer.ApplyGlobalDiscount(f.ctx, testActor, dto.GlobalDiscountRequest{
		Month: 12, Year: 2025, Categories: []string{"ESTUDIANTE"}, Percent: d(20), DryRun: true,
	})
	require.NoError(t, err)
	assert.True(t, out.DryRun)
	assert.Equal(t, 2, out.Applied)
	require.Len(t, out.Results, 2)
	for _, r := range out.Results {
		assert.True(t, d(9000).Equal(r.Before))
		assert.True(t, d(6000).Equal(r.After), "40%% categoría + 20%% global: %s", r.After)
	}

	persisted, err := f.store.Fees().ListByPeriod(f.ctx, entity.Period{Month: 12, Year: 2025}, []string{catEstud})
	require.NoError(t, err)
	for _, fee := range persisted {
		assert.True(t, d(9000).Equal(fee.TotalAmount))
	}
}

// El porcentaje global reemplaza los ajustes cargados y se salta las cuotas bloqueadas.
func TestApplyGlobalDiscount_AplicaYSaltaBloqueadas(t *testing.T) {
	f := newFixture(t)
	f.manualDiscount(t, socioAna, 10)
	resp := f.generate(t)
	ana, bruno := f.feeOf(t, resp, socioAna), f.feeOf(t, resp, socioBruno)
	f.linkReceipt(t, bruno.ID, "rec-1", entity.ReceiptStatusPaid)

	out, err := f.composer.ApplyGlobalDiscount(f.ctx, testActor, dto.GlobalDiscountRequest{
		FeeIDs: []string{ana.ID, bruno.ID}, Percent: d(20), Label: "Aniversario", Reason: "promo",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Applied)
	require.Len(t, out.Results, 2)
	assert.Equal(t, ana.ID, out.Results[0].FeeID)
	assert.True(t, d(6000).Equal(out.Results[0].After))
	assert.Empty(t, out.Results[0].Skipped)
	assert.Equal(t, "cuota pagada", out.Results[1].Skipped)

	got, err := f.store.Fees().GetByID(f.ctx, ana.ID)
	require.NoError(t, err)
	assert.True(t, d(6000).Equal(got.TotalAmount))
	entries, err := f.ledger.ListByFee(f.ctx, ana.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ActionFeeGlobalDisc, entries[len(entries)-1].Action)

	untouched, err := f.store.Fees().GetByID(f.ctx, bruno.ID)
	require.NoError(t, err)
	assert.True(t, d(9000).Equal(untouched.TotalAmount))
}

func TestApplyGlobalDiscount_Validaciones(t *testing.T) {
	f := newFixture(t)
	f.generate(t)

	_, err := f.composer.ApplyGlobalDiscount(f.ctx, testActor, dto.GlobalDiscountRequest{Month: 12, Year: 2025, Percent: d(0)})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = f.composer.ApplyGlobalDiscount(f.ctx, testActor, dto.GlobalDiscountRequest{Month: 12, Year: 2025, Percent: d(101)})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = f.composer.ApplyGlobalDiscount(f.ctx, testActor, dto.GlobalDiscountRequest{FeeIDs: []string{"no-existe"}, Percent: d(10)})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestApplyGlobalDiscount_RespetaMaximoConfigurado(t *testing.T) {
	f := newFixtureMax(t, d(30))
	f.generate(t)

	_, err := f.composer.ApplyGlobalDiscount(f.ctx, testActor, dto.GlobalDiscountRequest{Month: 12, Year: 2025, Percent: d(40), DryRun: true})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	out, err := f.composer.ApplyGlobalDiscount(f.ctx, testActor, dto.GlobalDiscountRequest{Month: 12, Year: 2025, Percent: d(30), DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 3, out.Applied)
}
