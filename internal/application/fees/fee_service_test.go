package fees_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/cuotas-api/internal/application/dto"
	"github.com/jhoicas/cuotas-api/internal/application/fees"
	"github.com/jhoicas/cuotas-api/internal/domain"
	"github.com/jhoicas/cuotas-api/internal/domain/entity"
)

func TestGetFee(t *testing.T) {
	f := newFixture(t)
	carla := f.feeOf(t, f.generate(t), socioCarla)

	out, err := f.feeService.GetFee(f.ctx, carla.ID)
	require.NoError(t, err)
	assert.Equal(t, carla.Number, out.Fee.Number)
	assert.Len(t, out.Items, 2)

	_, err = f.feeService.GetFee(f.ctx, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListByMember_Rango(t *testing.T) {
	f := newFixture(t)
	f.generate(t)
	_, err := f.batch.GenerateBatch(f.ctx, testActor, dto.GenerateBatchRequest{Month: 11, Year: 2025})
	require.NoError(t, err)

	all, err := f.feeService.ListByMember(f.ctx, socioAna, "", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	dec, err := f.feeService.ListByMember(f.ctx, socioAna, "12-2025", "12-2025")
	require.NoError(t, err)
	require.Len(t, dec, 1)
	assert.Equal(t, 12, dec[0].Period.Month)

	none, err := f.feeService.ListByMember(f.ctx, "nadie", "", "")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	_, err = f.feeService.ListByMember(f.ctx, socioAna, "dic-2025", "")
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestLinkReceipt(t *testing.T) {
	f := newFixture(t)
	ana := f.feeOf(t, f.generate(t), socioAna)
	f.store.PutReceipt(&entity.Receipt{ID: "rec-1", Number: 7, Status: entity.ReceiptStatusPaid})
	f.store.PutReceipt(&entity.Receipt{ID: "rec-2", Number: 8, Status: entity.ReceiptStatusPending})

	got, err := f.feeService.LinkReceipt(f.ctx, testActor, ana.ID, dto.LinkReceiptRequest{ReceiptID: "rec-1"})
	require.NoError(t, err)
	assert.Equal(t, "rec-1", got.ReceiptID)
	assert.Equal(t, entity.FeeStatusPaid, got.Status)

	_, err = f.feeService.LinkReceipt(f.ctx, testActor, ana.ID, dto.LinkReceiptRequest{ReceiptID: "rec-2"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = f.feeService.LinkReceipt(f.ctx, testActor, ana.ID, dto.LinkReceiptRequest{})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = f.feeService.LinkReceipt(f.ctx, testActor, "no-existe", dto.LinkReceiptRequest{ReceiptID: "rec-2"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	bruno := f.feeOf(t, f.generate(t, "ESTUDIANTE"), socioBruno)
	_, err = f.feeService.LinkReceipt(f.ctx, testActor, bruno.ID, dto.LinkReceiptRequest{ReceiptID: "rec-x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	entries, err := f.ledger.ListByFee(f.ctx, ana.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{entity.ActionFeeGenerated, entity.ActionFeeReceiptLinked}, actions(entries))
}

type stubRenderer struct {
	got fees.StatementData
	err error
}

func (r *stubRenderer) RenderFeeStatement(_ context.Context, data fees.StatementData) ([]byte, error) {
	r.got = data
	if r.err != nil {
		return nil, r.err
	}
	return []byte("%PDF-1.4"), nil
}

func TestFeeStatement_Render(t *testing.T) {
	f := newFixture(t)
	carla := f.feeOf(t, f.generate(t), socioCarla)
	r := &stubRenderer{}
	uc := fees.NewFeeStatement(f.store.Fees(), f.store.Items(), f.store.Members(), f.store.Categories(), r)

	pdf, name, err := uc.Render(f.ctx, carla.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), pdf)
	assert.Regexp(t, `^cuota-\d{6}-12-2025\.pdf$`, name)
	assert.Equal(t, "Carla Gómez", r.got.Member.FullName)
	assert.Equal(t, "ACTIVO", r.got.Category.Code)
	assert.Len(t, r.got.Items, 2)
	assert.Equal(t, "Total: $23000.00", r.got.Explanation[len(r.got.Explanation)-1])

	_, _, err = uc.Render(f.ctx, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	r.err = errors.New("fuente faltante")
	_, _, err = uc.Render(f.ctx, carla.ID)
	assert.ErrorContains(t, err, "generar pdf")
}
