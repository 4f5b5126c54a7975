package dto

import "github.com/shopspring/decimal"

// CreateExemptionRequest body para POST /api/exenciones. Períodos en formato MM-YYYY.
type CreateExemptionRequest struct {
	MemberID   string          `json:"socio_id"`
	Percentage decimal.Decimal `json:"porcentaje"`
	From       string          `json:"desde"`
	To         string          `json:"hasta"`
	Reason     string          `json:"motivo"`
}

// ExemptionStatsResponse respuesta de GET /api/exenciones/estadisticas.
type ExemptionStatsResponse struct {
	Total   int            `json:"total"`
	ByState map[string]int `json:"por_estado"`
	Full    int            `json:"totales"`
	Partial int            `json:"parciales"`
}
