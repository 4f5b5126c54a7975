package dto

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/cuotas-api/internal/domain/entity"
)

// Modos de rollback.
const (
	RollbackModePreview = "PREVIEW"
	RollbackModeApply   = "APLICAR"
)

// RollbackBatchRequest body para POST /api/cuotas/rollback.
type RollbackBatchRequest struct {
	Month      int      `json:"mes"`
	Year       int      `json:"anio"`
	Categories []string `json:"categorias,omitempty"`
	Mode       string   `json:"modo"`
	Reason     string   `json:"motivo,omitempty"`
}

// RollbackFeeRequest body para POST /api/cuotas/:id/rollback.
type RollbackFeeRequest struct {
	Mode   string `json:"modo"`
	Reason string `json:"motivo,omitempty"`
}

// RollbackFeeDetail cuota clasificada.
type RollbackFeeDetail struct {
	FeeID         string          `json:"cuota_id"`
	MemberID      string          `json:"socio_id"`
	Period        entity.Period   `json:"periodo"`
	Number        int64           `json:"numero"`
	Total         decimal.Decimal `json:"monto_total"`
	ReceiptID     string          `json:"recibo_id,omitempty"`
	ReceiptStatus string          `json:"recibo_estado,omitempty"`
	BlockReason   string          `json:"motivo_bloqueo,omitempty"`
}

// RollbackStats contadores del rollback.
type RollbackStats struct {
	Total       int `json:"total"`
	Eliminables int `json:"eliminables"`
	Bloqueadas  int `json:"bloqueadas"`
	Eliminadas  int `json:"eliminadas"`
}

// RollbackResponse clasificación y, en APLICAR, el respaldo persistido.
type RollbackResponse struct {
	Mode        string                 `json:"modo"`
	Stats       RollbackStats          `json:"estadisticas"`
	Eliminables []RollbackFeeDetail    `json:"cuotas_eliminables"`
	Bloqueadas  []RollbackFeeDetail    `json:"cuotas_bloqueadas"`
	Backup      *entity.RollbackBackup `json:"respaldo,omitempty"`
}
