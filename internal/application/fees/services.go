package fees

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	domfees "github.com/jhoicas/cuotas-api/internal/domain/fees"
	"github.com/jhoicas/cuotas-api/internal/domain/repository"
	"github.com/jhoicas/cuotas-api/pkg/logger"
)

// Stores puertos de persistencia fuera de transacción más el runner transaccional.
type Stores struct {
	Tx          TxRunner
	Members     repository.MemberRepository
	Categories  repository.CategoryRepository
	Activities  repository.ActivityRepository
	Fees        repository.FeeRepository
	Items       repository.LineItemRepository
	Adjustments repository.AdjustmentRepository
	Exemptions  repository.ExemptionRepository
	History     repository.HistoryRepository
	Receipts    repository.ReceiptRepository
}

// Options parámetros del motor y de la tarea de mantenimiento. Los ceros toman los valores por defecto.
type Options struct {
	MaxPercent    decimal.Decimal
	GlobalCap     decimal.Decimal
	ChunkSize     int
	Retention     time.Duration
	PruneInterval time.Duration
	Registerer    prometheus.Registerer
	Renderer      StatementRenderer
	Log           *logger.Logger
}

// Services todos los casos de uso cableados sobre los mismos puertos.
type Services struct {
	Metrics     *Metrics
	Pipeline    *Pipeline
	Batch       *BatchGenerationService
	Preview     *PreviewService
	Rollback    *RollbackService
	Composer    *LineItemComposer
	Adjustments *AdjustmentStore
	Exemptions  *ExemptionStore
	Fees        *FeeService
	Statement   *FeeStatement
	History     *HistoryLedger
	Maintenance *Maintenance
}

// NewServices arma el grafo de casos de uso.
func NewServices(st Stores, opt Options) *Services {
	log := opt.Log
	if log == nil {
		log = logger.Nop()
	}
	metrics := NewMetrics(opt.Registerer)
	engine := domfees.NewEngine(opt.MaxPercent, opt.GlobalCap)
	rates := NewCategoryRateResolver(st.Categories)
	collector := NewEffectCollector(st.Adjustments, st.Exemptions)
	pipeline := NewPipeline(st.Members, st.Activities, rates, collector, engine)
	ledger := NewHistoryLedger(st.History)
	exemptions := NewExemptionStore(st.Tx, st.Exemptions, st.Members)

	return &Services{
		Metrics:     metrics,
		Pipeline:    pipeline,
		Batch:       NewBatchGenerationService(st.Tx, pipeline, st.Members, rates, opt.ChunkSize, metrics, log),
		Preview:     NewPreviewService(pipeline, st.Members, st.Fees, st.Items, st.History),
		Rollback:    NewRollbackService(st.Tx, st.Fees, st.Receipts, rates, metrics, log),
		Composer:    NewLineItemComposer(st.Tx, pipeline, rates, st.Fees, st.Items, st.Receipts, log),
		Adjustments: NewAdjustmentStore(st.Tx, st.Adjustments, st.Members, st.Categories, engine.MaxPercent),
		Exemptions:  exemptions,
		Fees:        NewFeeService(st.Tx, st.Fees, st.Items),
		Statement:   NewFeeStatement(st.Fees, st.Items, st.Members, st.Categories, opt.Renderer),
		History:     ledger,
		Maintenance: NewMaintenance(ledger, exemptions, opt.Retention, opt.PruneInterval, log),
	}
}
