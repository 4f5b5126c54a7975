package dto

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/cuotas-api/internal/domain/entity"
	"github.com/jhoicas/cuotas-api/internal/domain/fees"
)

// PreviewFeeRequest body para POST /api/cuotas/preview.
type PreviewFeeRequest struct {
	MemberID       string `json:"socio_id"`
	Month          int    `json:"mes"`
	Year           int    `json:"anio"`
	CategoryID     string `json:"categoria_id,omitempty"`
	ApplyDiscounts *bool  `json:"aplicar_descuentos,omitempty"`
}

// PreviewFeeResponse cuota simulada, desglose y explicación. No se persiste nada.
type PreviewFeeResponse struct {
	Fee         *entity.Fee            `json:"cuota"`
	Breakdown   []*entity.LineItem     `json:"desglose"`
	Explanation []string               `json:"explicacion"`
	Trace       []fees.Contribution    `json:"reglas"`
	History     []*entity.HistoryEntry `json:"historial"`
}

// MemberFeePreview una fila de la proyección por rango.
type MemberFeePreview struct {
	Period      entity.Period      `json:"periodo"`
	Fee         *entity.Fee        `json:"cuota"`
	Breakdown   []*entity.LineItem `json:"desglose"`
	Explanation []string           `json:"explicacion"`
	Error       string             `json:"error,omitempty"`
}

// PreviewSummary totales de la proyección.
type PreviewSummary struct {
	Count    int             `json:"cantidad"`
	Total    decimal.Decimal `json:"total"`
	Discount decimal.Decimal `json:"descuento"`
	Average  decimal.Decimal `json:"promedio"`
}

// MemberFeesPreviewResponse respuesta de GET /api/socios/:id/cuotas/preview.
type MemberFeesPreviewResponse struct {
	Member  *entity.Member     `json:"socio"`
	Fees    []MemberFeePreview `json:"cuotas"`
	Summary PreviewSummary     `json:"resumen"`
}

// HypotheticalAdjustment ajuste simulado para la comparación.
type HypotheticalAdjustment struct {
	Type    string          `json:"tipo"`   // PORCENTAJE | FIJO | FORMULA
	Kind    string          `json:"origen"` // AJUSTE_MANUAL | REGLA_AUTOMATICA
	Value   decimal.Decimal `json:"valor"`
	Formula string          `json:"formula,omitempty"`
	Label   string          `json:"descripcion,omitempty"`
}

// CompareFeeRequest body para POST /api/cuotas/:id/comparar.
type CompareFeeRequest struct {
	ExtraAdjustments  []HypotheticalAdjustment `json:"ajustes_adicionales,omitempty"`
	DropAdjustmentIDs []string                 `json:"quitar_ajustes,omitempty"`
	CategoryID        string                   `json:"categoria_id,omitempty"`
	IgnoreExemption   bool                     `json:"ignorar_exencion"`
}

// FeeDiff diferencias después - antes.
type FeeDiff struct {
	Base       decimal.Decimal `json:"monto_base"`
	Activities decimal.Decimal `json:"monto_actividades"`
	Discount   decimal.Decimal `json:"monto_descuento"`
	Total      decimal.Decimal `json:"monto_total"`
}

// CompareFeeResponse cuota persistida contra la recalculada con los cambios hipotéticos.
type CompareFeeResponse struct {
	Before      *entity.Fee        `json:"antes"`
	After       *entity.Fee        `json:"despues"`
	AfterItems  []*entity.LineItem `json:"desglose"`
	Diff        FeeDiff            `json:"diferencia"`
	Explanation []string           `json:"explicacion"`
}
