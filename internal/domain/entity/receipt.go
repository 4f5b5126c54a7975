package entity

// Estados de recibo. PAGADO y ANULADO no admiten ediciones sobre la cuota vinculada.
const (
	ReceiptStatusPending  = "PENDIENTE"
	ReceiptStatusPaid     = "PAGADO"
	ReceiptStatusCanceled = "ANULADO"
)

// Receipt es el recibo externo vinculado a una cuota.
type Receipt struct {
	ID     string
	Number int64
	Status string
}

// Locked indica que el recibo ya no es editable.
func (r *Receipt) Locked() bool {
	return r != nil && (r.Status == ReceiptStatusPaid || r.Status == ReceiptStatusCanceled)
}
