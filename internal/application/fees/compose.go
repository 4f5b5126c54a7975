package fees

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/cuotas-api/internal/domain/entity"
	domfees "github.com/jhoicas/cuotas-api/internal/domain/fees"
)

// Compose arma los ítems automáticos: la cuota base, una línea por actividad arancelada y,
// si hay delta fijo, una línea AJUSTE_FIJO acotada para que el total no sea negativo.
func Compose(category *entity.Category, activities []*entity.Activity, res domfees.Result) []*entity.LineItem {
	items := make([]*entity.LineItem, 0, len(activities)+2)
	items = append(items, &entity.LineItem{
		Type:         entity.ItemTypeBase,
		CategoryCode: category.Code,
		Description:  "Cuota social " + category.Name,
		Amount:       domfees.Round(category.BaseAmount),
		NetAmount:    res.NetOf(category.BaseAmount),
		Source:       entity.ItemSourceAuto,
	})
	for _, a := range activities {
		items = append(items, &entity.LineItem{
			Type:         entity.ItemTypeActivity,
			CategoryCode: category.Code,
			Description:  "Actividad " + a.Name,
			Amount:       domfees.Round(a.Price),
			NetAmount:    res.NetOf(a.Price),
			Source:       entity.ItemSourceAuto,
		})
	}
	if res.Exempt || res.FixedDelta.IsZero() {
		return items
	}
	subtotal := entity.SumNet(items)
	delta := res.FixedDelta
	if subtotal.Add(delta).IsNegative() {
		delta = subtotal.Neg()
	}
	if !delta.IsZero() {
		items = append(items, &entity.LineItem{
			Type:         entity.ItemTypeAdjustment,
			CategoryCode: category.Code,
			Description:  "Ajuste de monto fijo",
			Amount:       delta,
			NetAmount:    delta,
			Source:       entity.ItemSourceAuto,
		})
	}
	return items
}

// ApplyTotals recalcula los montos de la cuota desde sus ítems:
// descuento = base + actividades - Σ netos automáticos; total = Σ netos.
func ApplyTotals(fee *entity.Fee, items []*entity.LineItem) {
	base, acts, autoNet, manual := decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero
	for _, it := range items {
		switch it.Type {
		case entity.ItemTypeBase:
			base = base.Add(it.Amount)
		case entity.ItemTypeActivity:
			acts = acts.Add(it.Amount)
		}
		if it.Automatic() {
			autoNet = autoNet.Add(it.NetAmount)
		} else {
			manual = manual.Add(it.NetAmount)
		}
	}
	fee.BaseAmount = domfees.Round(base)
	fee.ActivitiesAmount = domfees.Round(acts)
	fee.DiscountAmount = domfees.Round(base.Add(acts).Sub(autoNet))
	fee.TotalAmount = domfees.Round(autoNet.Add(manual))
}

// cloneItems copia los ítems con ids nuevos atados a feeID.
func cloneItems(items []*entity.LineItem, feeID string) []*entity.LineItem {
	out := make([]*entity.LineItem, 0, len(items))
	for _, it := range items {
		c := *it
		c.ID = uuid.New().String()
		c.FeeID = feeID
		out = append(out, &c)
	}
	return out
}

func manualItems(items []*entity.LineItem) []*entity.LineItem {
	var out []*entity.LineItem
	for _, it := range items {
		if !it.Automatic() {
			out = append(out, it)
		}
	}
	return out
}

// grossOf monto bruto que un ítem aporta a base o actividades.
func grossOf(it *entity.LineItem) decimal.Decimal {
	if it.Type == entity.ItemTypeBase || it.Type == entity.ItemTypeActivity {
		return it.Amount
	}
	return decimal.Zero
}
