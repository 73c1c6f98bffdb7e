// Package export renders finished scan results as spreadsheet workbooks and
// one-page PDF reports.
package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"eddp/analizador_cfdi/internal/core/cfdi"
	"eddp/analizador_cfdi/internal/core/kpi"
)

// Sheet names of the generated workbook.
const (
	SheetIngresos = "Ingresos"
	SheetEgresos  = "Egresos"
	SheetKPIs     = "KPIs"
)

var documentColumns = []string{
	"UUID", "Fecha", "Tipo", "Serie", "Folio",
	"Emisor RFC", "Emisor Nombre", "Emisor Régimen",
	"Receptor RFC", "Receptor Nombre", "Receptor Régimen",
	"Uso CFDI", "SubTotal", "Descuento", "Total", "Moneda",
	"Tipo Cambio", "Forma Pago", "Método Pago", "Lugar Expedición",
	"IVA Trasladado", "ISR Retenido", "IVA Retenido", "IEPS",
	"Número Conceptos", "Versión", "Advertencias", "Clasificación",
}

// WriteExcel writes the workbook to path: one sheet of income documents, one
// of expense documents and a KPI summary sheet. Unclassified records appear
// on neither document sheet but still shape the KPI figures.
func WriteExcel(path string, records []cfdi.CFDI, snap kpi.Snapshot) error {
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{CustomNumFmt: ptr("#,##0.00")})
	if err != nil {
		return fmt.Errorf("create money style: %w", err)
	}

	if err := writeDocumentSheet(f, SheetIngresos, records, cfdi.ClasificacionIngresos, header); err != nil {
		return err
	}
	if err := writeDocumentSheet(f, SheetEgresos, records, cfdi.ClasificacionEgresos, header); err != nil {
		return err
	}
	if err := writeKPISheet(f, snap, header, money); err != nil {
		return err
	}

	// Drop excelize's default sheet so Ingresos opens first.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("remove default sheet: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func writeDocumentSheet(f *excelize.File, sheet string, records []cfdi.CFDI, want cfdi.Clasificacion, headerStyle int) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}
	for i, col := range documentColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(documentColumns), 1)
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return err
	}

	row := 2
	for i := range records {
		c := &records[i]
		if c.Clasificacion != want {
			continue
		}
		fecha := ""
		if c.TieneFecha() {
			fecha = c.Fecha.Format("2006-01-02")
		}
		values := []any{
			c.UUID, fecha, string(c.Tipo), c.Serie, c.Folio,
			c.EmisorRFC, c.EmisorNombre, c.EmisorRegimen,
			c.ReceptorRFC, c.ReceptorNombre, c.ReceptorRegimen,
			c.UsoCFDI, c.SubTotal, c.Descuento, c.Total, c.Moneda,
			c.TipoCambio, c.FormaPago, c.MetodoPago, c.LugarExpedicion,
			c.IVATrasladado, c.ISRRetenido, c.IVARetenido, c.IEPS,
			c.NumConceptos, c.Version, strings.Join(c.Warnings, " | "), string(c.Clasificacion),
		}
		start, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheet, start, &values); err != nil {
			return err
		}
		row++
	}

	for i, col := range documentColumns {
		width := float64(len(col))
		if width < 12 {
			width = 12
		}
		name, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, name, name, width+2); err != nil {
			return err
		}
	}
	return nil
}

func writeKPISheet(f *excelize.File, snap kpi.Snapshot, headerStyle, moneyStyle int) error {
	if _, err := f.NewSheet(SheetKPIs); err != nil {
		return fmt.Errorf("create sheet %s: %w", SheetKPIs, err)
	}

	row := 1
	setHeader := func(values ...string) error {
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			if err := f.SetCellValue(SheetKPIs, cell, v); err != nil {
				return err
			}
			if err := f.SetCellStyle(SheetKPIs, cell, cell, headerStyle); err != nil {
				return err
			}
		}
		row++
		return nil
	}
	setMoney := func(label string, value float64) error {
		labelCell, _ := excelize.CoordinatesToCellName(1, row)
		valueCell, _ := excelize.CoordinatesToCellName(2, row)
		if err := f.SetCellValue(SheetKPIs, labelCell, label); err != nil {
			return err
		}
		if err := f.SetCellValue(SheetKPIs, valueCell, value); err != nil {
			return err
		}
		if err := f.SetCellStyle(SheetKPIs, valueCell, valueCell, moneyStyle); err != nil {
			return err
		}
		row++
		return nil
	}

	if err := setHeader("Indicador", "Valor"); err != nil {
		return err
	}
	summary := []struct {
		label string
		value float64
	}{
		{"Total Ingresos", snap.TotalIngresos},
		{"Total Egresos", snap.TotalEgresos},
		{"Neto", snap.Neto},
		{"IVA Trasladado", snap.IVATrasladado},
		{"ISR Retenido", snap.ISRRetenido},
		{"IVA Retenido", snap.IVARetenido},
		{"IEPS", snap.IEPS},
	}
	for _, s := range summary {
		if err := setMoney(s.label, s.value); err != nil {
			return err
		}
	}
	row++

	if err := setHeader("Calidad de datos"); err != nil {
		return err
	}
	quality := []struct {
		label string
		value int
	}{
		{"Invalidos", snap.Calidad.Invalidos},
		{"Duplicados", snap.Calidad.Duplicados},
		{"Cfdi33", snap.Calidad.CFDI33},
	}
	for _, q := range quality {
		labelCell, _ := excelize.CoordinatesToCellName(1, row)
		valueCell, _ := excelize.CoordinatesToCellName(2, row)
		if err := f.SetCellValue(SheetKPIs, labelCell, q.label); err != nil {
			return err
		}
		if err := f.SetCellValue(SheetKPIs, valueCell, q.value); err != nil {
			return err
		}
		row++
	}
	row++

	if err := setHeader("Mes", "Ingresos", "Egresos"); err != nil {
		return err
	}
	for _, m := range monthKeys(snap) {
		cells := []any{m, snap.IngresosPorMes[m], snap.EgresosPorMes[m]}
		start, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(SheetKPIs, start, &cells); err != nil {
			return err
		}
		row++
	}
	row++

	if err := writeTopList(f, &row, "Top 5 Clientes", snap.TopClientes, headerStyle, moneyStyle); err != nil {
		return err
	}
	row++
	if err := writeTopList(f, &row, "Top 5 Proveedores", snap.TopProveedores, headerStyle, moneyStyle); err != nil {
		return err
	}

	if err := f.SetColWidth(SheetKPIs, "A", "A", 24); err != nil {
		return err
	}
	return f.SetColWidth(SheetKPIs, "B", "C", 16)
}

func writeTopList(f *excelize.File, row *int, title string, entries []kpi.Counterparty, headerStyle, moneyStyle int) error {
	titleCell, _ := excelize.CoordinatesToCellName(1, *row)
	if err := f.SetCellValue(SheetKPIs, titleCell, title); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetKPIs, titleCell, titleCell, headerStyle); err != nil {
		return err
	}
	*row++

	rfcCell, _ := excelize.CoordinatesToCellName(1, *row)
	totalCell, _ := excelize.CoordinatesToCellName(2, *row)
	if err := f.SetCellValue(SheetKPIs, rfcCell, "RFC"); err != nil {
		return err
	}
	if err := f.SetCellValue(SheetKPIs, totalCell, "Total"); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetKPIs, rfcCell, totalCell, headerStyle); err != nil {
		return err
	}
	*row++

	for _, e := range entries {
		keyCell, _ := excelize.CoordinatesToCellName(1, *row)
		valCell, _ := excelize.CoordinatesToCellName(2, *row)
		if err := f.SetCellValue(SheetKPIs, keyCell, e.Clave); err != nil {
			return err
		}
		if err := f.SetCellValue(SheetKPIs, valCell, e.Total); err != nil {
			return err
		}
		if err := f.SetCellStyle(SheetKPIs, valCell, valCell, moneyStyle); err != nil {
			return err
		}
		*row++
	}
	return nil
}

// monthKeys merges and sorts the month buckets of both directions.
func monthKeys(snap kpi.Snapshot) []string {
	set := make(map[string]struct{})
	for m := range snap.IngresosPorMes {
		set[m] = struct{}{}
	}
	for m := range snap.EgresosPorMes {
		set[m] = struct{}{}
	}
	keys := make([]string, 0, len(set))
	for m := range set {
		keys = append(keys, m)
	}
	sort.Strings(keys)
	return keys
}

func ptr(s string) *string { return &s }
