package entity

import (
	"encoding/json"
	"time"
)

// Acciones registradas en el historial.
const (
	ActionAdjustmentCreated     = "AJUSTE_CREADO"
	ActionAdjustmentUpdated     = "AJUSTE_ACTUALIZADO"
	ActionAdjustmentDeactivated = "AJUSTE_DESACTIVADO"
	ActionAdjustmentActivated   = "AJUSTE_ACTIVADO"
	ActionAdjustmentDeleted     = "AJUSTE_ELIMINADO"

	ActionExemptionRequested = "EXENCION_SOLICITADA"
	ActionExemptionApproved  = "EXENCION_APROBADA"
	ActionExemptionRejected  = "EXENCION_RECHAZADA"
	ActionExemptionActivated = "EXENCION_ACTIVADA"
	ActionExemptionRevoked   = "EXENCION_REVOCADA"

	ActionFeeGenerated     = "CUOTA_GENERADA"
	ActionFeeUpdated       = "CUOTA_ACTUALIZADA"
	ActionFeeRecomputed    = "CUOTA_RECALCULADA"
	ActionFeeGlobalDisc    = "CUOTA_DESCUENTO_GLOBAL"
	ActionFeeItemAdded     = "CUOTA_ITEM_AGREGADO"
	ActionFeeItemDeleted   = "CUOTA_ITEM_ELIMINADO"
	ActionFeeReceiptLinked = "CUOTA_RECIBO_VINCULADO"
	ActionFeeDeleted       = "CUOTA_ELIMINADA"
)

// HistoryEntry registro de auditoría inmutable. Before/After son snapshots JSON.
type HistoryEntry struct {
	ID           string          `json:"id"`
	Action       string          `json:"accion"`
	AdjustmentID string          `json:"ajuste_id,omitempty"`
	ExemptionID  string          `json:"exencion_id,omitempty"`
	FeeID        string          `json:"cuota_id,omitempty"`
	MemberID     string          `json:"socio_id,omitempty"`
	Before       json.RawMessage `json:"antes,omitempty"`
	After        json.RawMessage `json:"despues,omitempty"`
	Actor        string          `json:"usuario,omitempty"`
	Reason       string          `json:"motivo,omitempty"`
	CreatedAt    time.Time       `json:"fecha"`
}

// FeeSnapshot fila respaldada antes de un rollback.
type FeeSnapshot struct {
	Fee           *Fee        `json:"cuota"`
	Items         []*LineItem `json:"items"`
	ReceiptID     string      `json:"recibo_id,omitempty"`
	ReceiptStatus string      `json:"recibo_estado,omitempty"`
}

// RollbackBackup respaldo persistido de todas las filas eliminadas en una corrida APLICAR.
type RollbackBackup struct {
	ID        string        `json:"id"`
	Scope     string        `json:"alcance"`
	Actor     string        `json:"usuario,omitempty"`
	Reason    string        `json:"motivo,omitempty"`
	Fees      []FeeSnapshot `json:"cuotas"`
	CreatedAt time.Time     `json:"fecha"`
}

// Snapshot serializa v para Before/After. Nunca falla con entidades del dominio.
func Snapshot(v any) json.RawMessage {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}
