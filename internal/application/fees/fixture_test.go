package fees_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/cuotas-api/internal/application/dto"
	"github.com/jhoicas/cuotas-api/internal/application/fees"
	"github.com/jhoicas/cuotas-api/internal/domain/entity"
	domfees "github.com/jhoicas/cuotas-api/internal/domain/fees"
	"github.com/jhoicas/cuotas-api/internal/infrastructure/memory"
	"github.com/jhoicas/cuotas-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fixture compartido: padrón en memoria + todos los servicios cableados
// ──────────────────────────────────────────────────────────────────────────────

const (
	testActor   = "tesorero-1"
	catActivo   = "cat-activo"
	catEstud    = "cat-estudiante"
	socioAna    = "socio-ana"
	socioBruno  = "socio-bruno"
	socioCarla  = "socio-carla"
	actNatacion = "act-natacion"
)

type fixture struct {
	ctx   context.Context
	store *memory.Store
	reg   *prometheus.Registry

	metrics     *fees.Metrics
	pipeline    *fees.Pipeline
	batch       *fees.BatchGenerationService
	preview     *fees.PreviewService
	rollback    *fees.RollbackService
	composer    *fees.LineItemComposer
	adjustments *fees.AdjustmentStore
	exemptions  *fees.ExemptionStore
	feeService  *fees.FeeService
	ledger      *fees.HistoryLedger
}

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func dp(v int64) *decimal.Decimal {
	x := decimal.NewFromInt(v)
	return &x
}

// newFixture: ACTIVO 20000 sin descuento; ESTUDIANTE 15000 con 40% por defecto.
// Ana y Bruno son ESTUDIANTE, Carla es ACTIVO y está inscripta en natación (3000).
func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureMax(t, domfees.DefaultMaxPercent)
}

// newFixtureMax mismo padrón con otro máximo por regla (FEES_MAX_DISCOUNT_PERCENT).
func newFixtureMax(t *testing.T, maxPercent decimal.Decimal) *fixture {
	t.Helper()
	store := memory.NewStore()
	store.AddCategory(&entity.Category{ID: catActivo, Code: "ACTIVO", Name: "Activo", BaseAmount: d(20000)})
	store.AddCategory(&entity.Category{ID: catEstud, Code: "ESTUDIANTE", Name: "Estudiante", BaseAmount: d(15000), DefaultDiscount: d(40)})
	store.AddMember(&entity.Member{ID: socioAna, FullName: "Ana Pérez", CategoryID: catEstud, Active: true})
	store.AddMember(&entity.Member{ID: socioBruno, FullName: "Bruno Díaz", CategoryID: catEstud, Active: true})
	store.AddMember(&entity.Member{ID: socioCarla, FullName: "Carla Gómez", CategoryID: catActivo, Active: true})
	store.AddMember(&entity.Member{ID: "socio-baja", FullName: "Socio Baja", CategoryID: catActivo, Active: false})
	store.AddActivity(&entity.Activity{ID: actNatacion, Name: "Natación", Price: d(3000), Billable: true})
	store.Enroll(socioCarla, actNatacion)
	return wire(t, store, 2, maxPercent)
}

func wire(t *testing.T, store *memory.Store, chunkSize int, maxPercent decimal.Decimal) *fixture {
	t.Helper()
	reg := prometheus.NewRegistry()
	svc := fees.NewServices(fees.Stores{
		Tx:          memory.NewTxRunner(store),
		Members:     store.Members(),
		Categories:  store.Categories(),
		Activities:  store.Activities(),
		Fees:        store.Fees(),
		Items:       store.Items(),
		Adjustments: store.Adjustments(),
		Exemptions:  store.Exemptions(),
		History:     store.History(),
		Receipts:    store.Receipts(),
	}, fees.Options{
		MaxPercent: maxPercent,
		GlobalCap:  domfees.DefaultGlobalCap,
		ChunkSize:  chunkSize,
		Registerer: reg,
		Log:        logger.Nop(),
	})

	return &fixture{
		ctx:         context.Background(),
		store:       store,
		reg:         reg,
		metrics:     svc.Metrics,
		pipeline:    svc.Pipeline,
		batch:       svc.Batch,
		preview:     svc.Preview,
		rollback:    svc.Rollback,
		composer:    svc.Composer,
		adjustments: svc.Adjustments,
		exemptions:  svc.Exemptions,
		feeService:  svc.Fees,
		ledger:      svc.History,
	}
}

// generate corre un lote para diciembre 2025 y exige que no falle.
func (f *fixture) generate(t *testing.T, categories ...string) *dto.GenerateBatchResponse {
	t.Helper()
	resp, err := f.batch.GenerateBatch(f.ctx, testActor, dto.GenerateBatchRequest{Month: 12, Year: 2025, Categories: categories})
	require.NoError(t, err)
	return resp
}

func (f *fixture) feeOf(t *testing.T, resp *dto.GenerateBatchResponse, memberID string) *entity.Fee {
	t.Helper()
	for _, fee := range resp.Fees {
		if fee.MemberID == memberID {
			return fee
		}
	}
	t.Fatalf("no se generó cuota para %s", memberID)
	return nil
}

// manualDiscount carga un AJUSTE_MANUAL individual de pct% de descuento desde 2025-01-01.
func (f *fixture) manualDiscount(t *testing.T, memberID string, pct int64) *entity.Adjustment {
	t.Helper()
	adj, err := f.adjustments.Create(f.ctx, testActor, dto.CreateAdjustmentRequest{
		MemberID:  memberID,
		Type:      entity.AdjustmentTypePercent,
		Value:     d(-pct),
		Reason:    "beca",
		StartDate: "2025-01-01",
	})
	require.NoError(t, err)
	return adj
}

func (f *fixture) linkReceipt(t *testing.T, feeID, receiptID, status string) {
	t.Helper()
	f.store.PutReceipt(&entity.Receipt{ID: receiptID, Number: 1001, Status: status})
	_, err := f.feeService.LinkReceipt(f.ctx, testActor, feeID, dto.LinkReceiptRequest{ReceiptID: receiptID})
	require.NoError(t, err)
}

func actions(entries []*entity.HistoryEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Action)
	}
	return out
}
