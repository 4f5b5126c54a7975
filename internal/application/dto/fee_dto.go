package dto

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/cuotas-api/internal/domain/entity"
)

// GenerateBatchRequest body para POST /api/cuotas/lote.
// Categories acepta ids o códigos de categoría; vacío = todas.
type GenerateBatchRequest struct {
	Month          int      `json:"mes"`
	Year           int      `json:"anio"`
	Categories     []string `json:"categorias,omitempty"`
	ApplyDiscounts *bool    `json:"aplicar_descuentos,omitempty"` // nil = true
	Note           string   `json:"observaciones,omitempty"`
}

// BatchError falla de un socio dentro del lote.
type BatchError struct {
	MemberID   string `json:"socio_id"`
	MemberName string `json:"socio,omitempty"`
	Message    string `json:"error"`
}

// BatchPerformance métricas de la corrida.
type BatchPerformance struct {
	Cohort      int     `json:"socios_evaluados"`
	Chunks      int     `json:"lotes"`
	DurationMs  int64   `json:"duracion_ms"`
	PerMemberMs float64 `json:"promedio_ms_por_socio"`
}

// GenerateBatchResponse resumen de la generación masiva.
type GenerateBatchResponse struct {
	BatchID     string           `json:"lote_id"`
	Period      entity.Period    `json:"periodo"`
	Generated   int              `json:"generadas"`
	Errors      []BatchError     `json:"errores"`
	Fees        []*entity.Fee    `json:"cuotas"`
	Performance BatchPerformance `json:"performance"`
}

// UpdateBatchRequest body para PATCH /api/cuotas/lote. Los montos nil no se tocan.
type UpdateBatchRequest struct {
	FeeIDs           []string         `json:"cuota_ids"`
	BaseAmount       *decimal.Decimal `json:"monto_base,omitempty"`
	ActivitiesAmount *decimal.Decimal `json:"monto_actividades,omitempty"`
	TotalAmount      *decimal.Decimal `json:"monto_total,omitempty"`
	Reason           string           `json:"motivo,omitempty"`
}

// UpdateBatchResponse cantidad de cuotas actualizadas.
type UpdateBatchResponse struct {
	Updated int `json:"actualizadas"`
}

// FeeDetailResponse cuota con sus ítems.
type FeeDetailResponse struct {
	Fee   *entity.Fee        `json:"cuota"`
	Items []*entity.LineItem `json:"items"`
}

// RegenerateItemsResponse resultado de regenerar los ítems automáticos.
// Drift = total almacenado - total recalculado.
type RegenerateItemsResponse struct {
	Fee           *entity.Fee        `json:"cuota"`
	Items         []*entity.LineItem `json:"items"`
	PreviousTotal decimal.Decimal    `json:"total_anterior"`
	NewTotal      decimal.Decimal    `json:"total_nuevo"`
	Drift         decimal.Decimal    `json:"diferencia"`
	HasDrift      bool               `json:"tiene_diferencia"`
	Explanation   []string           `json:"explicacion"`
}

// GlobalDiscountRequest body para POST /api/cuotas/descuento-global.
// Se eligen cuotas por id o por período (+ categorías opcionales).
type GlobalDiscountRequest struct {
	FeeIDs     []string        `json:"cuota_ids,omitempty"`
	Month      int             `json:"mes,omitempty"`
	Year       int             `json:"anio,omitempty"`
	Categories []string        `json:"categorias,omitempty"`
	Percent    decimal.Decimal `json:"porcentaje"`
	Label      string          `json:"descripcion,omitempty"`
	DryRun     bool            `json:"simulacion"`
	Reason     string          `json:"motivo,omitempty"`
}

// GlobalDiscountResult efecto sobre una cuota.
type GlobalDiscountResult struct {
	FeeID    string          `json:"cuota_id"`
	MemberID string          `json:"socio_id"`
	Before   decimal.Decimal `json:"total_anterior"`
	After    decimal.Decimal `json:"total_nuevo"`
	Skipped  string          `json:"omitida,omitempty"`
}

// GlobalDiscountResponse resumen del descuento global.
type GlobalDiscountResponse struct {
	DryRun  bool                   `json:"simulacion"`
	Applied int                    `json:"aplicadas"`
	Results []GlobalDiscountResult `json:"cuotas"`
}

// ManualItemRequest body para POST /api/cuotas/:id/items. Un monto negativo es un crédito.
type ManualItemRequest struct {
	Description  string          `json:"descripcion"`
	Amount       decimal.Decimal `json:"monto"`
	CategoryCode string          `json:"categoria,omitempty"`
	Reason       string          `json:"motivo,omitempty"`
}

// LinkReceiptRequest vincula un recibo emitido a la cuota.
type LinkReceiptRequest struct {
	ReceiptID string `json:"recibo_id"`
}
