package fees_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/cuotas-api/internal/application/dto"
	"github.com/jhoicas/cuotas-api/internal/domain"
	"github.com/jhoicas/cuotas-api/internal/domain/entity"
)

func (f *fixture) requestExemption(t *testing.T, memberID string, pct int64, from, to string) *entity.Exemption {
	t.Helper()
	ex, err := f.exemptions.Create(f.ctx, testActor, dto.CreateExemptionRequest{
		MemberID: memberID, Percentage: d(pct), From: from, To: to, Reason: "situación económica",
	})
	require.NoError(t, err)
	require.Equal(t, entity.ExemptionPending, ex.State)
	return ex
}

func (f *fixture) exemptionActions(t *testing.T, ex *entity.Exemption) []string {
	t.Helper()
	entries, err := f.ledger.ListByMember(f.ctx, ex.MemberID)
	require.NoError(t, err)
	var out []string
	for _, e := range entries {
		if e.ExemptionID == ex.ID {
			out = append(out, e.Action)
		}
	}
	return out
}

func TestExemption_AprobarActivarRevocar(t *testing.T) {
	f := newFixture(t)
	ex := f.requestExemption(t, socioAna, 50, "01-2020", "02-2020")

	got, err := f.exemptions.Approve(f.ctx, "comision", ex.ID, "aprobada en acta 12")
	require.NoError(t, err)
	assert.Equal(t, entity.ExemptionApproved, got.State, "el rango no cubre el mes actual")
	assert.NotNil(t, got.ApprovedAt)
	assert.Equal(t, "comision", got.ResolvedBy)

	n, err := f.exemptions.ActivateDue(f.ctx, time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err = f.exemptions.Revoke(f.ctx, "comision", ex.ID, "regularizó situación")
	require.NoError(t, err)
	assert.Equal(t, entity.ExemptionRevoked, got.State)
	assert.NotNil(t, got.RevokedAt)

	_, err = f.exemptions.Revoke(f.ctx, "comision", ex.ID, "")
	assert.ErrorIs(t, err, domain.ErrConflict)
	_, err = f.exemptions.Approve(f.ctx, "comision", ex.ID, "")
	assert.ErrorIs(t, err, domain.ErrConflict)

	assert.Equal(t, []string{
		entity.ActionExemptionRequested,
		entity.ActionExemptionApproved,
		entity.ActionExemptionActivated,
		entity.ActionExemptionRevoked,
	}, f.exemptionActions(t, ex))
}

func TestExemption_AprobarCubriendoElMesActualLaActiva(t *testing.T) {
	f := newFixture(t)
	now := entity.PeriodOf(time.Now())
	p := fmt.Sprintf("%02d-%d", now.Month, now.Year)
	ex := f.requestExemption(t, socioBruno, 30, p, p)

	got, err := f.exemptions.Approve(f.ctx, "comision", ex.ID, "")
	require.NoError(t, err)
	assert.Equal(t, entity.ExemptionActive, got.State)
	assert.Equal(t, []string{
		entity.ActionExemptionRequested,
		entity.ActionExemptionApproved,
		entity.ActionExemptionActivated,
	}, f.exemptionActions(t, ex))
}

func TestExemption_Rechazo(t *testing.T) {
	f := newFixture(t)
	ex := f.requestExemption(t, socioAna, 100, "01-2025", "12-2025")

	got, err := f.exemptions.Reject(f.ctx, "comision", ex.ID, "documentación incompleta")
	require.NoError(t, err)
	assert.Equal(t, entity.ExemptionRejected, got.State)
	assert.NotNil(t, got.RejectedAt)

	_, err = f.exemptions.Approve(f.ctx, "comision", ex.ID, "")
	assert.ErrorIs(t, err, domain.ErrConflict)
	_, err = f.exemptions.Revoke(f.ctx, "comision", ex.ID, "")
	assert.ErrorIs(t, err, domain.ErrConflict)
	_, err = f.exemptions.Reject(f.ctx, "comision", "no-existe", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestExemption_Validaciones(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name string
		in   dto.CreateExemptionRequest
		kind domain.ErrorKind
	}{
		{"porcentaje cero", dto.CreateExemptionRequest{MemberID: socioAna, From: "01-2025", To: "02-2025"}, domain.KindValidation},
		{"porcentaje mayor a 100", dto.CreateExemptionRequest{MemberID: socioAna, Percentage: d(120), From: "01-2025", To: "02-2025"}, domain.KindValidation},
		{"desde posterior a hasta", dto.CreateExemptionRequest{MemberID: socioAna, Percentage: d(50), From: "03-2025", To: "02-2025"}, domain.KindValidation},
		{"período mal formado", dto.CreateExemptionRequest{MemberID: socioAna, Percentage: d(50), From: "2025", To: "02-2025"}, domain.KindValidation},
		{"socio inexistente", dto.CreateExemptionRequest{MemberID: "nadie", Percentage: d(50), From: "01-2025", To: "02-2025"}, domain.KindNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.exemptions.Create(f.ctx, testActor, tc.in)
			assert.Equal(t, tc.kind, domain.KindOf(err))
		})
	}

	_, err := f.exemptions.ListByState(f.ctx, "CONGELADA")
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestCheckForPeriod_PrefiereVigente(t *testing.T) {
	f := newFixture(t)
	approved := f.requestExemption(t, socioAna, 20, "01-2020", "12-2020")
	active := f.requestExemption(t, socioAna, 50, "06-2020", "06-2020")
	for _, ex := range []*entity.Exemption{approved, active} {
		_, err := f.exemptions.Approve(f.ctx, "comision", ex.ID, "")
		require.NoError(t, err)
	}
	_, err := f.exemptions.ActivateDue(f.ctx, time.Date(2020, 6, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	_, err = f.exemptions.Revoke(f.ctx, "comision", approved.ID, "")
	require.NoError(t, err)
	third := f.requestExemption(t, socioAna, 10, "01-2020", "12-2020")
	_, err = f.exemptions.Approve(f.ctx, "comision", third.ID, "")
	require.NoError(t, err)

	got, err := f.exemptions.CheckForPeriod(f.ctx, socioAna, entity.Period{Month: 6, Year: 2020})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, active.ID, got.ID)

	got, err = f.exemptions.CheckForPeriod(f.ctx, socioAna, entity.Period{Month: 7, Year: 2020})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, third.ID, got.ID, "sin VIGENTE cae a la APROBADA")

	got, err = f.exemptions.CheckForPeriod(f.ctx, socioAna, entity.Period{Month: 1, Year: 2021})
	require.NoError(t, err)
	assert.Nil(t, got)

	pending, err := f.exemptions.ListByState(f.ctx, "aprobada")
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

// Exención parcial 30% + ajuste manual 50%: el grupo de mayor prioridad consume el tope.
func TestExemption_ParcialRespetaPrioridadYTope(t *testing.T) {
	f := newFixture(t)
	f.manualDiscount(t, socioAna, 50)
	ex := f.requestExemption(t, socioAna, 30, "12-2025", "12-2025")
	_, err := f.exemptions.Approve(f.ctx, "comision", ex.ID, "")
	require.NoError(t, err)

	pv, err := f.preview.PreviewFee(f.ctx, dto.PreviewFeeRequest{MemberID: socioAna, Month: 12, Year: 2025})
	require.NoError(t, err)
	assert.True(t, d(3000).Equal(pv.Fee.TotalAmount), "total: %s", pv.Fee.TotalAmount)
	require.Len(t, pv.Trace, 3)
	assert.Equal(t, ex.ID, pv.Trace[0].SourceID)
	assert.True(t, d(30).Equal(pv.Trace[0].Applied))
	assert.True(t, pv.Trace[2].Applied.IsZero(), "el descuento de categoría no entra")

	ignored, err := f.preview.CompareFee(f.ctx, f.feeOf(t, f.generate(t), socioAna).ID, dto.CompareFeeRequest{IgnoreExemption: true})
	require.NoError(t, err)
	assert.True(t, d(3000).Equal(ignored.After.TotalAmount), "50%% + 40%% topeado a 80%%")
}

// Revocar no es retroactivo: la cuota ya emitida conserva su total.
func TestExemption_RevocarNoAlteraCuotasEmitidas(t *testing.T) {
	f := newFixture(t)
	ex := f.requestExemption(t, socioAna, 100, "12-2025", "12-2025")
	_, err := f.exemptions.Approve(f.ctx, "comision", ex.ID, "")
	require.NoError(t, err)
	ana := f.feeOf(t, f.generate(t), socioAna)
	require.True(t, ana.TotalAmount.IsZero())

	_, err = f.exemptions.Revoke(f.ctx, "comision", ex.ID, "")
	require.NoError(t, err)

	got, err := f.store.Fees().GetByID(f.ctx, ana.ID)
	require.NoError(t, err)
	assert.True(t, got.TotalAmount.IsZero())

	again := f.feeOf(t, f.generate(t, "ESTUDIANTE"), socioAna)
	assert.True(t, d(9000).Equal(again.TotalAmount), "las cuotas nuevas ya no la aplican")
}

func TestExemptionStats(t *testing.T) {
	f := newFixture(t)
	f.requestExemption(t, socioAna, 100, "01-2025", "12-2025")
	ex := f.requestExemption(t, socioBruno, 40, "01-2025", "12-2025")
	_, err := f.exemptions.Reject(f.ctx, "comision", ex.ID, "")
	require.NoError(t, err)

	st, err := f.exemptions.Stats(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Total)
	assert.Equal(t, 1, st.Full)
	assert.Equal(t, 1, st.Partial)
	assert.Equal(t, 1, st.ByState[string(entity.ExemptionPending)])
	assert.Equal(t, 1, st.ByState[string(entity.ExemptionRejected)])
}
