package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de cuota.
const (
	FeeStatusPending  = "PENDIENTE"
	FeeStatusPaid     = "PAGADA"
	FeeStatusCanceled = "ANULADA"
)

// Fee es la cuota de un socio para un período y categoría.
// TotalAmount = BaseAmount + ActivitiesAmount - DiscountAmount + Σ ítems manuales.
type Fee struct {
	ID               string          `json:"id"`
	MemberID         string          `json:"socio_id"`
	Period           Period          `json:"periodo"`
	CategoryID       string          `json:"categoria_id"`
	BaseAmount       decimal.Decimal `json:"monto_base"`
	ActivitiesAmount decimal.Decimal `json:"monto_actividades"`
	DiscountAmount   decimal.Decimal `json:"monto_descuento"`
	TotalAmount      decimal.Decimal `json:"monto_total"`
	Number           int64           `json:"numero"`
	ReceiptID        string          `json:"recibo_id,omitempty"`
	Status           string          `json:"estado"`
	BatchID          string          `json:"lote_id,omitempty"`
	Note             string          `json:"observaciones,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// Tipos de ítem de cuota.
const (
	ItemTypeBase       = "CUOTA_BASE"
	ItemTypeActivity   = "ACTIVIDAD"
	ItemTypeAdjustment = "AJUSTE_FIJO"
	ItemTypeManual     = "MANUAL"
)

// Origen del ítem.
const (
	ItemSourceAuto   = "AUTO"
	ItemSourceManual = "MANUAL"
)

// LineItem es un componente detallado del total de una cuota.
// Amount es el bruto; NetAmount es lo que efectivamente suma al total.
type LineItem struct {
	ID           string          `json:"id"`
	FeeID        string          `json:"cuota_id"`
	Type         string          `json:"tipo"`
	CategoryCode string          `json:"categoria,omitempty"`
	Description  string          `json:"descripcion"`
	Amount       decimal.Decimal `json:"monto"`
	NetAmount    decimal.Decimal `json:"monto_neto"`
	Manual       bool            `json:"manual"`
	Source       string          `json:"origen"`
}

// Automatic indica si el ítem se recalcula desde las reglas.
func (li *LineItem) Automatic() bool { return li.Source == ItemSourceAuto }

// SumNet suma los montos netos de los ítems.
func SumNet(items []*LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.NetAmount)
	}
	return total
}

// SumManual suma solo los ítems manuales.
func SumManual(items []*LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		if !it.Automatic() {
			total = total.Add(it.NetAmount)
		}
	}
	return total
}
