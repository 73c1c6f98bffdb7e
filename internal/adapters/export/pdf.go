package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"eddp/analizador_cfdi/internal/core/cfdi"
	"eddp/analizador_cfdi/internal/core/kpi"
)

// WritePDF renders a one-page financial report for a finished scan: the KPI
// card grid, the by-name counterparty rankings and the data-quality footer.
func WritePDF(path, rfc string, records []cfdi.CFDI, snap kpi.Snapshot, generado time.Time) error {
	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr("Reporte Financiero CFDI"), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(100, 100, 100)
	subtitle := fmt.Sprintf("RFC: %s | Generado: %s", rfc, generado.Format("02/01/2006 15:04"))
	pdf.CellFormat(0, 6, tr(subtitle), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	cards := []struct {
		label string
		value string
	}{
		{"Total Ingresos", Money(snap.TotalIngresos)},
		{"Total Egresos", Money(snap.TotalEgresos)},
		{"Neto (I-E)", Money(snap.Neto)},
		{"CFDIs Clasificados", fmt.Sprintf("%d", snap.ConteoCFDI)},
		{"IVA Trasladado", Money(snap.IVATrasladado)},
		{"ISR Retenido", Money(snap.ISRRetenido)},
		{"IVA Retenido", Money(snap.IVARetenido)},
		{"IEPS", Money(snap.IEPS)},
	}
	drawCardGrid(pdf, tr, cards)
	pdf.Ln(6)

	drawMonthTable(pdf, tr, snap)
	pdf.Ln(4)

	drawTopList(pdf, tr, "Top 5 Clientes", kpi.TopClientesPorNombre(records, kpi.TopSize))
	pdf.Ln(4)
	drawTopList(pdf, tr, "Top 5 Proveedores", kpi.TopProveedoresPorNombre(records, kpi.TopSize))

	pdf.SetY(-25)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	footer := fmt.Sprintf("Control de Calidad: %d archivos inválidos | %d duplicados omitidos | %d CFDI Versión 3.3",
		snap.Calidad.Invalidos, snap.Calidad.Duplicados, snap.Calidad.CFDI33)
	pdf.CellFormat(0, 5, tr(footer), "", 1, "C", false, 0, "")

	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write pdf report: %w", err)
	}
	return nil
}

// drawCardGrid lays the KPI cards four per row across the printable width.
func drawCardGrid(pdf *fpdf.Fpdf, tr func(string) string, cards []struct {
	label string
	value string
}) {
	left, _, right, _ := pdf.GetMargins()
	pageW, _ := pdf.GetPageSize()
	usable := pageW - left - right
	const perRow = 4
	cardW := usable / perRow
	const cardH = 18.0

	for i, card := range cards {
		if i > 0 && i%perRow == 0 {
			pdf.Ln(cardH + 2)
		}
		x := left + float64(i%perRow)*cardW
		y := pdf.GetY()

		pdf.SetFillColor(245, 247, 250)
		pdf.SetDrawColor(210, 215, 222)
		pdf.Rect(x+1, y, cardW-2, cardH, "FD")

		pdf.SetXY(x+1, y+3)
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(cardW-2, 4, tr(card.label), "", 2, "C", false, 0, "")

		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetTextColor(30, 30, 30)
		pdf.CellFormat(cardW-2, 7, tr(card.value), "", 0, "C", false, 0, "")

		pdf.SetXY(x+cardW, y)
	}
	pdf.Ln(cardH + 2)
}

func drawMonthTable(pdf *fpdf.Fpdf, tr func(string) string, snap kpi.Snapshot) {
	months := monthKeys(snap)
	if len(months) == 0 {
		return
	}

	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetTextColor(30, 30, 30)
	pdf.CellFormat(0, 7, tr("Ingresos y Egresos por Mes"), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(221, 235, 247)
	pdf.CellFormat(40, 6, tr("Mes"), "1", 0, "L", true, 0, "")
	pdf.CellFormat(45, 6, tr("Ingresos"), "1", 0, "R", true, 0, "")
	pdf.CellFormat(45, 6, tr("Egresos"), "1", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(60, 60, 60)
	for _, m := range months {
		label := m
		if label == "" {
			label = "Sin fecha"
		}
		pdf.CellFormat(40, 6, tr(label), "1", 0, "L", false, 0, "")
		pdf.CellFormat(45, 6, Money(snap.IngresosPorMes[m]), "1", 0, "R", false, 0, "")
		pdf.CellFormat(45, 6, Money(snap.EgresosPorMes[m]), "1", 1, "R", false, 0, "")
	}
}

func drawTopList(pdf *fpdf.Fpdf, tr func(string) string, title string, entries []kpi.Counterparty) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetTextColor(30, 30, 30)
	pdf.CellFormat(0, 7, tr(title), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	if len(entries) == 0 {
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 5, tr("Sin datos"), "", 1, "L", false, 0, "")
		return
	}
	for _, e := range entries {
		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(120, 5, tr(truncate(e.Clave, 60)), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 5, Money(e.Total), "", 1, "R", false, 0, "")
	}
}

// Money formats an amount with a currency sign and thousands separators,
// matching the workbook's number format.
func Money(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := fmt.Sprintf("%.2f", v)
	dot := strings.IndexByte(s, '.')
	intPart, frac := s[:dot], s[dot:]
	var b strings.Builder
	for i, d := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	out := "$" + b.String() + frac
	if neg {
		out = "-" + out
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
