package fees

import (
	"fmt"

	"github.com/jhoicas/cuotas-api/internal/domain/entity"
	domfees "github.com/jhoicas/cuotas-api/internal/domain/fees"
)

// Explain describe en texto el cálculo de una cuota, en el orden en que el motor aplicó las reglas.
func Explain(c *Computation) []string {
	out := []string{fmt.Sprintf("Cuota base %s: $%s", c.Category.Code, money(c.Category.BaseAmount))}
	for _, a := range c.Activities {
		out = append(out, fmt.Sprintf("Actividad %s: $%s", a.Name, money(a.Price)))
	}
	if c.Result.Exempt {
		out = append(out, fmt.Sprintf("Exención total %s: la cuota queda en $0.00", c.Result.ExemptionID))
		return append(out, "Total: $"+money(c.Fee.TotalAmount))
	}
	if len(c.Result.Trace) == 0 {
		out = append(out, "Sin descuentos aplicables")
	}
	for _, tr := range c.Result.Trace {
		label := tr.Label
		if label == "" {
			label = tr.SourceID
		}
		if tr.Mode == domfees.ModePercent {
			out = append(out, fmt.Sprintf("%s %s: solicitado %s%%, aplicado %s%%",
				tr.Kind, label, tr.Requested.StringFixed(2), tr.Applied.StringFixed(2)))
			continue
		}
		out = append(out, fmt.Sprintf("%s %s: monto fijo $%s", tr.Kind, label, money(tr.Fixed)))
	}
	if c.Result.Capped {
		out = append(out, fmt.Sprintf("Tope de descuento alcanzado: solicitado %s%%, aplicado %s%%",
			c.Result.RequestedPercent.StringFixed(2), c.Result.AppliedPercent.StringFixed(2)))
	}
	if !c.Fee.DiscountAmount.IsZero() {
		out = append(out, "Descuento total: $"+money(c.Fee.DiscountAmount))
	}
	return append(out, "Total: $"+money(c.Fee.TotalAmount))
}

// explainItems describe una cuota ya persistida a partir de sus ítems.
func explainItems(fee *entity.Fee, items []*entity.LineItem) []string {
	out := make([]string, 0, len(items)+2)
	for _, it := range items {
		if it.Amount.Equal(it.NetAmount) {
			out = append(out, fmt.Sprintf("%s: $%s", it.Description, money(it.NetAmount)))
			continue
		}
		out = append(out, fmt.Sprintf("%s: $%s (neto $%s)", it.Description, money(it.Amount), money(it.NetAmount)))
	}
	if !fee.DiscountAmount.IsZero() {
		out = append(out, "Descuento total: $"+money(fee.DiscountAmount))
	}
	return append(out, "Total: $"+money(fee.TotalAmount))
}
