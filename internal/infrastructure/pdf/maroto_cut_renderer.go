// Package pdf genera el reporte imprimible del cierre Z.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Tienda  │  Cierre Z + fecha de cierre               │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TURNO: apertura / cierre / responsable                      │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Fondo | Apertura | Entradas | Salidas | Final        │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RESUMEN: ventas / anuladas / gastos / consumo interno       │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: QR con el identificador del cierre                  │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
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

	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/pkg/money"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// ── Renderer ──────────────────────────────────────────────────────────────────

// MarotoCutRenderer implementa treasury.CutRenderer usando Maroto v2.
type MarotoCutRenderer struct {
	storeName string
}

// NewMarotoCutRenderer construye el generador con el nombre de la tienda del encabezado.
func NewMarotoCutRenderer(storeName string) *MarotoCutRenderer {
	return &MarotoCutRenderer{storeName: storeName}
}

// RenderCut genera el PDF del cierre y devuelve sus bytes.
func (g *MarotoCutRenderer) RenderCut(cut *entity.Cut) ([]byte, error) {
	if cut == nil {
		return nil, fmt.Errorf("pdf: cierre nulo")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Cierre Z "+cut.ID, true).
		WithAuthor(g.storeName, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(g.storeName, cut))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(shiftRow(cut))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(quadrantRows(cut)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(summaryRow(cut))

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRow(cut))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(store string, cut *entity.Cut) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New(nonEmpty(store, "Punto de venta"), props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Sesión: "+cut.SessionID, props.Text{
				Size: 8, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("CIERRE Z", props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(cut.ClosedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 9, Color: colorGray,
			}),
		),
	)
}

func shiftRow(cut *entity.Cut) core.Row {
	return row.New(12).Add(
		col.New(12).Add(
			text.New("TURNO", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("Apertura: %s   |   Cierre: %s   |   Cerrado por: %s",
				cut.OpenedAt.Format("02/01/2006 15:04"),
				cut.ClosedAt.Format("02/01/2006 15:04"),
				nonEmpty(cut.ClosedBy, "—"),
			), props.Text{Size: 8, Top: 7, Color: colorGray}),
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
		h("Fondo", 3, align.Left),
		h("Apertura", 2, align.Right),
		h("Entradas", 2, align.Right),
		h("Salidas", 2, align.Right),
		h("Final", 3, align.Right),
	)
}

// quadrantRows una fila por fondo en el orden estable de los cuadrantes.
func quadrantRows(cut *entity.Cut) []core.Row {
	cell := func(s string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(s, props.Text{Size: 8, Align: a, Top: 1, Left: 1, Right: 1}))
	}
	rows := make([]core.Row, 0, len(money.AllQuadrants))
	for _, q := range money.AllQuadrants {
		sym := string(q.Currency) + " "
		rows = append(rows, row.New(7).Add(
			cell(quadrantLabel(q), 3, align.Left),
			cell(sym+formatMoney(cut.Opening.Get(q)), 2, align.Right),
			cell(sym+formatMoney(cut.Inflows.Get(q)), 2, align.Right),
			cell(sym+formatMoney(cut.Outflows.Get(q)), 2, align.Right),
			cell(sym+formatMoney(cut.Final.Get(q)), 3, align.Right),
		))
	}
	return rows
}

func summaryRow(cut *entity.Cut) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	return row.New(32).Add(
		col.New(4),
		col.New(4).Add(
			label("Ventas:"),
			label("Anuladas:"),
			label("Total vendido:"),
			label("Gastos USD:"),
			label("Gastos VES:"),
			label("Consumo interno:"),
		),
		col.New(4).Add(
			value(fmt.Sprintf("%d", cut.SalesCount)),
			value(fmt.Sprintf("%d", cut.VoidedCount)),
			value("USD "+formatMoney(cut.SalesTotalUSD)),
			value("USD "+formatMoney(cut.ExpensesUSD)),
			value("VES "+formatMoney(cut.ExpensesVES)),
			value("USD "+formatMoney(cut.ConsumptionCostUSD)),
		),
	)
}

// footerRow QR con el identificador del cierre para cotejarlo contra el libro.
func footerRow(cut *entity.Cut) core.Row {
	return row.New(40).Add(
		col.New(4).Add(code.NewQr("cut:"+cut.ID, props.Rect{Percent: 95, Center: true})),
		col.New(8).Add(
			text.New("Cierre: "+cut.ID, props.Text{Size: 8, Top: 4, Left: 3, Color: colorGray}),
			text.New("Documento interno. No es un comprobante fiscal.", props.Text{
				Style: fontstyle.Bold, Size: 9, Top: 14, Left: 3, Color: colorPrimary,
			}),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func quadrantLabel(q money.Quadrant) string {
	ch := "Efectivo"
	if q.Channel == money.Digital {
		ch = "Digital"
	}
	return ch + " " + string(q.Currency)
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatMoney dos decimales con puntos de miles y coma decimal.
// Ej: 1234567.5 → "1.234.567,50"
func formatMoney(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, _ := strings.Cut(s, ".")
	n := len(intPart)
	buf := make([]byte, 0, n+n/3+3)
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	out := string(buf) + "," + frac
	if neg {
		out = "-" + out
	}
	return out
}
