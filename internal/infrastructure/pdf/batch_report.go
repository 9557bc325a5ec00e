// Package pdf implementa la hoja de costeo de un batch de producción.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: N° Batch + Estado  │  Fecha de producción          │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: # | Lote | Material | Cantidad | Costo U. | Subtotal │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Costo insumos / Unidades producidas / Costo unit.  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  MOVIMIENTOS: traza de decrementos/restauraciones del batch  │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
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

	appproduction "github.com/jhoicas/lotes-api/internal/application/production"
	"github.com/jhoicas/lotes-api/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
)

// ── Generator ─────────────────────────────────────────────────────────────────

var _ appproduction.ReportGenerator = (*MarotoReportGenerator)(nil)

// MarotoReportGenerator implementa production.ReportGenerator usando Maroto v2.
type MarotoReportGenerator struct{}

// NewMarotoReportGenerator construye el generador.
func NewMarotoReportGenerator() *MarotoReportGenerator { return &MarotoReportGenerator{} }

// GenerateBatchReport genera el PDF de costeo y devuelve sus bytes.
func (g *MarotoReportGenerator) GenerateBatchReport(
	_ context.Context,
	batch *entity.ProductionBatch,
	movements []*entity.InventoryTransaction,
) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Hoja de Costeo — Batch "+batch.BatchNumber, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(batch))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	// Tabla de insumos
	m.AddRows(tableHeaderRow())
	for _, r := range inputRows(batch.Inputs) {
		m.AddRows(r)
	}

	// Totales
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(batch))

	// Traza de movimientos
	if len(movements) > 0 {
		m.AddRows(line.NewRow(3))
		m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
		for _, r := range movementRows(movements) {
			m.AddRows(r)
		}
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: N° de batch + estado (izq) y fecha de producción (der).
func headerRow(batch *entity.ProductionBatch) core.Row {
	fecha := batch.ProductionDate.Format("02/01/2006")

	return row.New(18).Add(
		col.New(7).Add(
			text.New("BATCH DE PRODUCCIÓN", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(batch.BatchNumber, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 6,
			}),
			text.New("Estado: "+statusLabel(batch.Status), props.Text{
				Size: 9, Top: 13, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("HOJA DE COSTEO", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New("Fecha producción: "+fecha, props.Text{
				Size: 8, Align: align.Right, Top: 8, Color: colorGray,
			}),
			text.New("Insumos: "+fmt.Sprintf("%d lotes", len(batch.Inputs)), props.Text{
				Size: 8, Align: align.Right, Top: 13, Color: colorGray,
			}),
		),
	)
}

// tableHeaderRow: cabecera de la tabla de insumos.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("#", 1, align.Center),
		h("Lote", 3, align.Left),
		h("Material", 3, align.Left),
		h("Cantidad", 2, align.Right),
		h("Costo Unit.", 1, align.Right),
		h("Subtotal", 2, align.Right),
	)
}

// inputRows: una fila por insumo, en el orden declarado del batch.
func inputRows(inputs []entity.BatchInput) []core.Row {
	result := make([]core.Row, 0, len(inputs))
	for _, in := range inputs {
		subtotal := in.TotalCost()
		result = append(result, row.New(7).Add(
			col.New(1).Add(text.New(
				fmt.Sprintf("%d", in.Position+1),
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(3).Add(text.New(
				in.LotID,
				props.Text{Size: 7, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(3).Add(text.New(
				in.MaterialID,
				props.Text{Size: 7, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(2).Add(text.New(
				in.QuantityUsed.String(),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(1).Add(text.New(
				"$"+formatMoney(in.UnitCost.StringFixed(0)),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(2).Add(text.New(
				"$"+formatMoney(subtotal.StringFixed(0)),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
		))
	}
	return result
}

// totalsRow: bloque de totales alineado a la derecha.
func totalsRow(batch *entity.ProductionBatch) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2,
		})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	grandLabel := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: colorPrimary, Right: 2,
		})
	}
	grandValue := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: colorPrimary, Right: 1,
		})
	}

	return row.New(26).Add(
		col.New(3), // espacio izquierdo
		col.New(4).Add(
			label("Costo total insumos:"),
			label("Unidades producidas:"),
			grandLabel("COSTO POR UNIDAD:"),
		),
		col.New(3).Add(
			value("$"+formatMoney(batch.TotalInputCost.StringFixed(0))),
			value(batch.OutputQuantity.String()),
			grandValue("$"+formatMoney(batch.CostPerUnit.StringFixed(0))),
		),
		col.New(2), // espacio derecho
	)
}

// movementRows: traza de auditoría del batch (decrementos, compensaciones y
// restauraciones) en orden cronológico.
func movementRows(movements []*entity.InventoryTransaction) []core.Row {
	rows := []core.Row{
		row.New(6).Add(col.New(12).Add(
			text.New("MOVIMIENTOS DE INVENTARIO", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
		)),
	}
	for _, mv := range movements {
		linea := fmt.Sprintf("%s   %s   lote %s   %s %s   (%s → %s)",
			mv.CreatedAt.Format("02/01/2006 15:04"),
			kindLabel(mv.Kind),
			mv.LotID,
			deltaSign(mv.Kind),
			mv.Delta.String(),
			mv.QuantityBefore.String(),
			mv.QuantityAfter.String(),
		)
		rows = append(rows, row.New(4).Add(col.New(12).Add(
			text.New(linea, props.Text{Size: 6.5, Color: colorGray, Top: 0.5, Left: 2}),
		)))
	}
	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

func statusLabel(status string) string {
	switch status {
	case entity.BatchStatusDraft:
		return "Borrador"
	case entity.BatchStatusActive:
		return "Activo"
	case entity.BatchStatusCompleted:
		return "Completado"
	case entity.BatchStatusCancelled:
		return "Cancelado"
	}
	return status
}

func kindLabel(kind string) string {
	switch kind {
	case entity.TxKindDecrement:
		return "Consumo"
	case entity.TxKindIncrement:
		return "Restauración"
	case entity.TxKindAdjustment:
		return "Ajuste"
	}
	return kind
}

func deltaSign(kind string) string {
	if kind == entity.TxKindDecrement {
		return "−"
	}
	return "+"
}

// formatMoney inserta puntos de miles en un string numérico sin decimales.
// Ej: "25000" → "25.000", "1000000" → "1.000.000"
func formatMoney(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return string(buf)
}
