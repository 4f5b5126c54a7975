package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/cuotas-api/internal/application/fees"
	"github.com/jhoicas/cuotas-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Batch      *fees.BatchGenerationService
	Composer   *fees.LineItemComposer
	Fees       *fees.FeeService
	Statement  *fees.FeeStatement
	Preview    *fees.PreviewService
	Rollback   *fees.RollbackService
	Adjustment *fees.AdjustmentStore
	Exemption  *fees.ExemptionStore
	History    *fees.HistoryLedger
	Metrics    prometheus.Gatherer
	JWTSecret  string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	read := RequireRole(entity.RoleAdmin, entity.RoleTesorero, entity.RoleConsulta)
	write := RequireRole(entity.RoleAdmin, entity.RoleTesorero)
	admin := RequireRole(entity.RoleAdmin)

	feeHandler := NewFeeHandler(deps.Batch, deps.Composer, deps.Fees, deps.Statement)
	previewHandler := NewPreviewHandler(deps.Preview)
	rollbackHandler := NewRollbackHandler(deps.Rollback)

	// Cuotas: las rutas fijas van antes que /:id
	cuotas := api.Group("/cuotas")
	cuotas.Post("/lote", write, feeHandler.GenerateBatch)
	cuotas.Patch("/lote", write, feeHandler.UpdateBatch)
	cuotas.Post("/preview", read, previewHandler.PreviewFee)
	cuotas.Post("/descuento-global", admin, feeHandler.GlobalDiscount)
	cuotas.Post("/rollback", admin, rollbackHandler.RollbackBatch)
	cuotas.Get("/:id", read, feeHandler.GetByID)
	cuotas.Get("/:id/pdf", read, feeHandler.PDF)
	cuotas.Post("/:id/regenerar", write, feeHandler.Regenerate)
	cuotas.Post("/:id/items", write, feeHandler.AddItem)
	cuotas.Delete("/:id/items/:itemId", write, feeHandler.DeleteItem)
	cuotas.Post("/:id/recibo", write, feeHandler.LinkReceipt)
	cuotas.Post("/:id/comparar", read, previewHandler.CompareFee)
	cuotas.Post("/:id/rollback", admin, rollbackHandler.RollbackFee)

	socios := api.Group("/socios")
	socios.Get("/:id/cuotas", read, feeHandler.ListByMember)
	socios.Get("/:id/cuotas/preview", read, previewHandler.PreviewMemberFees)

	adjHandler := NewAdjustmentHandler(deps.Adjustment)
	ajustes := api.Group("/ajustes")
	ajustes.Get("/estadisticas", read, adjHandler.Stats)
	ajustes.Get("/socio/:id", read, adjHandler.ListByMember)
	ajustes.Get("/socio/:id/activos", read, adjHandler.ActiveForMember)
	ajustes.Post("/", write, adjHandler.Create)
	ajustes.Get("/", read, adjHandler.List)
	ajustes.Get("/:id", read, adjHandler.GetByID)
	ajustes.Put("/:id", write, adjHandler.Update)
	ajustes.Delete("/:id", write, adjHandler.Delete)
	ajustes.Post("/:id/activar", write, adjHandler.Activate)
	ajustes.Post("/:id/desactivar", write, adjHandler.Deactivate)

	exHandler := NewExemptionHandler(deps.Exemption)
	exenciones := api.Group("/exenciones")
	exenciones.Get("/estadisticas", read, exHandler.Stats)
	exenciones.Get("/socio/:id", read, exHandler.ListByMember)
	exenciones.Get("/socio/:id/periodo", read, exHandler.ForPeriod)
	exenciones.Post("/", write, exHandler.Create)
	exenciones.Get("/", read, exHandler.List)
	exenciones.Get("/:id", read, exHandler.GetByID)
	exenciones.Post("/:id/aprobar", admin, exHandler.Approve)
	exenciones.Post("/:id/rechazar", admin, exHandler.Reject)
	exenciones.Post("/:id/revocar", admin, exHandler.Revoke)

	histHandler := NewHistoryHandler(deps.History)
	historial := api.Group("/historial", read)
	historial.Get("/cuotas/:id", histHandler.ByFee)
	historial.Get("/socios/:id", histHandler.ByMember)
	historial.Get("/ajustes/:id", histHandler.ByAdjustment)
}
