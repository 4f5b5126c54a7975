// Package pdf genera la liquidación de cuota en PDF.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Club + Socio          │  N° Cuota + Período         │
//	│  ─────────────────────────────────────────────────────────  │
//	│  SOCIO: Nombre / Categoría / Estado                          │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Concepto | Tipo | Monto | Neto                       │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Base / Actividades / Descuento / TOTAL             │
//	│  DETALLE DEL CÁLCULO + QR de verificación                    │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/cuotas-api/internal/application/fees"
	"github.com/jhoicas/cuotas-api/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorCredit  = &props.Color{Red: 20, Green: 120, Blue: 60}
)

var _ fees.StatementRenderer = (*StatementRenderer)(nil)

// StatementRenderer implementa fees.StatementRenderer usando Maroto v2.
type StatementRenderer struct {
	club string
}

// NewStatementRenderer construye el renderer; club es el nombre que encabeza la liquidación.
func NewStatementRenderer(club string) *StatementRenderer {
	if club == "" {
		club = "Club"
	}
	return &StatementRenderer{club: club}
}

// RenderFeeStatement genera el PDF y devuelve sus bytes.
func (g *StatementRenderer) RenderFeeStatement(ctx context.Context, data fees.StatementData) ([]byte, error) {
	if data.Fee == nil || data.Member == nil {
		return nil, fmt.Errorf("pdf: cuota y socio son obligatorios")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(fmt.Sprintf("Cuota %06d", data.Fee.Number), true).
		WithAuthor(g.club, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(g.club, data.Fee))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(memberRow(data.Member, data.Category, data.Fee))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(itemRows(data.Items)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(data.Fee))

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(explanationRows(data.Fee, data.Explanation)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(club string, fee *entity.Fee) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New(club, props.Text{Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1}),
			text.New("Liquidación de cuota social", props.Text{Size: 9, Top: 9, Color: colorGray}),
		),
		col.New(5).Add(
			text.New("CUOTA N°", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("%06d", fee.Number), props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Período: "+fee.Period.String(), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

func memberRow(member *entity.Member, category *entity.Category, fee *entity.Fee) core.Row {
	categoryName := fee.CategoryID
	if category != nil {
		categoryName = fmt.Sprintf("%s (%s)", category.Name, category.Code)
	}
	return row.New(14).Add(
		col.New(12).Add(
			text.New("SOCIO", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
			text.New(member.FullName, props.Text{Style: fontstyle.Bold, Size: 10, Top: 6}),
			text.New(fmt.Sprintf("N° socio: %s   |   Categoría: %s   |   Estado: %s",
				member.ID, nonEmpty(categoryName, "-"), fee.Status,
			), props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Concepto", 6, align.Left),
		h("Tipo", 2, align.Center),
		h("Monto", 2, align.Right),
		h("Neto", 2, align.Right),
	)
}

// itemRows una fila por ítem; los netos negativos (créditos y descuentos) van en verde.
func itemRows(items []*entity.LineItem) []core.Row {
	rows := make([]core.Row, 0, len(items))
	for _, it := range items {
		netProps := props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1}
		if it.NetAmount.IsNegative() {
			netProps.Color = colorCredit
		}
		rows = append(rows, row.New(7).Add(
			col.New(6).Add(text.New(it.Description, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New(itemKind(it), props.Text{Size: 7, Align: align.Center, Top: 1, Color: colorGray})),
			col.New(2).Add(text.New(formatMoney(it.Amount), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New(formatMoney(it.NetAmount), netProps)),
		))
	}
	return rows
}

func totalsRow(fee *entity.Fee) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2})
	}
	value := func(s string, top float64) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1, Top: top})
	}
	return row.New(26).Add(
		col.New(6),
		col.New(3).Add(
			label("Cuota base:"),
			text.New("Actividades:", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: 5}),
			text.New("Descuentos:", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: 10}),
			text.New("TOTAL:", props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 2, Top: 16,
			}),
		),
		col.New(3).Add(
			value(formatMoney(fee.BaseAmount), 0),
			value(formatMoney(fee.ActivitiesAmount), 5),
			value(formatMoney(fee.DiscountAmount.Neg()), 10),
			text.New(formatMoney(fee.TotalAmount), props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 1, Top: 16,
			}),
		),
	)
}

// explanationRows detalle del cálculo en texto y QR con la referencia de la cuota.
func explanationRows(fee *entity.Fee, explanation []string) []core.Row {
	lines := make([]core.Component, 0, len(explanation)+1)
	lines = append(lines, text.New("DETALLE DEL CÁLCULO", props.Text{
		Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
	}))
	for i, l := range explanation {
		lines = append(lines, text.New(l, props.Text{Size: 7.5, Color: colorGray, Top: float64(6 + i*4), Left: 2}))
	}
	height := float64(10 + 4*len(explanation))
	if height < 35 {
		height = 35
	}
	ref := fmt.Sprintf("cuota:%s:%06d:%s", fee.ID, fee.Number, fee.TotalAmount.StringFixed(2))
	return []core.Row{
		row.New(height).Add(
			col.New(9).Add(lines...),
			col.New(3).Add(code.NewQr(ref, props.Rect{Percent: 90, Center: true})),
		),
		row.New(8).Add(col.New(12).Add(text.New(
			"Conserve esta liquidación como comprobante. Los pagos se registran con el recibo vinculado.",
			props.Text{Size: 6.5, Color: colorGray, Top: 2},
		))),
	}
}

// ── helpers ───────────────────────────────────────────────────────────────────

func itemKind(it *entity.LineItem) string {
	if !it.Automatic() {
		return "manual"
	}
	return strings.ToLower(strings.ReplaceAll(it.Type, "_", " "))
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatMoney formatea con separador de miles y dos decimales: -1234.5 → "-$1.234,50".
func formatMoney(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	fixed := d.StringFixed(2)
	intPart, frac := fixed, "00"
	if i := strings.IndexByte(fixed, '.'); i >= 0 {
		intPart, frac = fixed[:i], fixed[i+1:]
	}
	n := len(intPart)
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return sign + "$" + string(buf) + "," + frac
}
