package dto

import "github.com/shopspring/decimal"

// CreateAdjustmentRequest body para POST /api/ajustes. Valor con signo: negativo = descuento.
// Fechas en formato YYYY-MM-DD; StartDate vacío = hoy.
type CreateAdjustmentRequest struct {
	MemberID   string          `json:"socio_id,omitempty"`
	CategoryID string          `json:"categoria_id,omitempty"`
	Scope      string          `json:"ambito,omitempty"`
	Type       string          `json:"tipo"`
	Kind       string          `json:"origen,omitempty"`
	Value      decimal.Decimal `json:"valor"`
	Formula    string          `json:"formula,omitempty"`
	Reason     string          `json:"motivo"`
	StartDate  string          `json:"fecha_inicio,omitempty"`
	EndDate    string          `json:"fecha_fin,omitempty"`
}

// UpdateAdjustmentRequest body para PUT /api/ajustes/:id. Campos nil no se tocan.
type UpdateAdjustmentRequest struct {
	Type      *string          `json:"tipo,omitempty"`
	Value     *decimal.Decimal `json:"valor,omitempty"`
	Formula   *string          `json:"formula,omitempty"`
	Reason    *string          `json:"motivo,omitempty"`
	StartDate *string          `json:"fecha_inicio,omitempty"`
	EndDate   *string          `json:"fecha_fin,omitempty"` // "" quita la fecha de fin
}

// AdjustmentStatsResponse respuesta de GET /api/ajustes/estadisticas.
type AdjustmentStatsResponse struct {
	Total    int            `json:"total"`
	Active   int            `json:"activos"`
	Inactive int            `json:"inactivos"`
	Deleted  int            `json:"eliminados"`
	ByType   map[string]int `json:"por_tipo"`
	ByScope  map[string]int `json:"por_ambito"`
}

// ReasonRequest motivo opcional para transiciones.
type ReasonRequest struct {
	Reason string `json:"motivo,omitempty"`
}
