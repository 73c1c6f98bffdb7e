package export

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"eddp/analizador_cfdi/internal/core/cfdi"
	"eddp/analizador_cfdi/internal/core/kpi"
)

func sampleRecords() []cfdi.CFDI {
	fecha := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	return []cfdi.CFDI{
		{
			UUID:           "AAAAAAAA-BBBB-CCCC-DDDD-EEEEEEEEEE01",
			Fecha:          fecha,
			Tipo:           cfdi.TipoIngreso,
			EmisorRFC:      "AAA010101AAA",
			EmisorNombre:   "Mi Empresa",
			ReceptorRFC:    "XAXX010101000",
			ReceptorNombre: "Cliente Uno",
			SubTotal:       100,
			Total:          116,
			Moneda:         "MXN",
			IVATrasladado:  16,
			NumConceptos:   1,
			Version:        "4.0",
			Warnings:       []string{"CFDI versión 3.3 detectada", "otra advertencia"},
			Clasificacion:  cfdi.ClasificacionIngresos,
		},
		{
			UUID:          "AAAAAAAA-BBBB-CCCC-DDDD-EEEEEEEEEE02",
			Tipo:          cfdi.TipoIngreso,
			EmisorRFC:     "BBB010101BBB",
			EmisorNombre:  "Proveedor Dos",
			ReceptorRFC:   "AAA010101AAA",
			SubTotal:      200,
			Total:         232,
			Moneda:        "MXN",
			IVATrasladado: 32,
			NumConceptos:  2,
			Version:       "4.0",
			Clasificacion: cfdi.ClasificacionEgresos,
		},
		{
			UUID:          "AAAAAAAA-BBBB-CCCC-DDDD-EEEEEEEEEE03",
			Tipo:          cfdi.TipoIngreso,
			EmisorRFC:     "CCC010101CCC",
			ReceptorRFC:   "DDD010101DDD",
			Total:         50,
			Moneda:        "MXN",
			Version:       "4.0",
			Clasificacion: cfdi.ClasificacionNoClasificada,
		},
	}
}

func TestWriteExcelSheets(t *testing.T) {
	records := sampleRecords()
	snap := kpi.Aggregate(records, 2, 1, 1)
	path := filepath.Join(t.TempDir(), "reporte.xlsx")

	if err := WriteExcel(path, records, snap); err != nil {
		t.Fatalf("WriteExcel() error = %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	defer f.Close()

	got := f.GetSheetList()
	want := []string{SheetIngresos, SheetEgresos, SheetKPIs}
	if len(got) != len(want) {
		t.Fatalf("GetSheetList() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sheet[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestWriteExcelDocumentRows(t *testing.T) {
	records := sampleRecords()
	snap := kpi.Aggregate(records, 0, 0, 0)
	path := filepath.Join(t.TempDir(), "reporte.xlsx")

	if err := WriteExcel(path, records, snap); err != nil {
		t.Fatalf("WriteExcel() error = %v", err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	defer f.Close()

	ingresos, err := f.GetRows(SheetIngresos)
	if err != nil {
		t.Fatalf("GetRows(Ingresos) error = %v", err)
	}
	if len(ingresos) != 2 {
		t.Fatalf("Ingresos rows = %d, want 2 (header + 1 record)", len(ingresos))
	}
	if got := ingresos[0][0]; got != "UUID" {
		t.Errorf("header[0] = %q, want UUID", got)
	}
	if got := len(ingresos[0]); got != len(documentColumns) {
		t.Errorf("header columns = %d, want %d", got, len(documentColumns))
	}
	row := ingresos[1]
	if row[0] != "AAAAAAAA-BBBB-CCCC-DDDD-EEEEEEEEEE01" {
		t.Errorf("UUID cell = %q", row[0])
	}
	if row[1] != "2024-03-15" {
		t.Errorf("Fecha cell = %q, want 2024-03-15", row[1])
	}
	if row[26] != "CFDI versión 3.3 detectada | otra advertencia" {
		t.Errorf("Advertencias cell = %q", row[26])
	}
	if row[27] != "Ingresos" {
		t.Errorf("Clasificación cell = %q", row[27])
	}

	egresos, err := f.GetRows(SheetEgresos)
	if err != nil {
		t.Fatalf("GetRows(Egresos) error = %v", err)
	}
	if len(egresos) != 2 {
		t.Fatalf("Egresos rows = %d, want 2", len(egresos))
	}
	// Record without a Fecha renders an empty cell.
	if egresos[1][1] != "" {
		t.Errorf("Fecha cell = %q, want empty", egresos[1][1])
	}
}

func TestWriteExcelExcludesUnclassified(t *testing.T) {
	records := sampleRecords()
	snap := kpi.Aggregate(records, 0, 0, 0)
	path := filepath.Join(t.TempDir(), "reporte.xlsx")

	if err := WriteExcel(path, records, snap); err != nil {
		t.Fatalf("WriteExcel() error = %v", err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	defer f.Close()

	for _, sheet := range []string{SheetIngresos, SheetEgresos} {
		rows, err := f.GetRows(sheet)
		if err != nil {
			t.Fatalf("GetRows(%s) error = %v", sheet, err)
		}
		for _, row := range rows[1:] {
			if row[0] == "AAAAAAAA-BBBB-CCCC-DDDD-EEEEEEEEEE03" {
				t.Errorf("unclassified record leaked into %s", sheet)
			}
		}
	}
}

func TestWriteExcelKPISheet(t *testing.T) {
	records := sampleRecords()
	snap := kpi.Aggregate(records, 3, 2, 1)
	path := filepath.Join(t.TempDir(), "reporte.xlsx")

	if err := WriteExcel(path, records, snap); err != nil {
		t.Fatalf("WriteExcel() error = %v", err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetKPIs, excelize.Options{RawCellValue: true})
	if err != nil {
		t.Fatalf("GetRows(KPIs) error = %v", err)
	}
	flat := make(map[string]string)
	for _, row := range rows {
		if len(row) >= 2 {
			flat[row[0]] = row[1]
		}
	}

	if got := flat["Total Ingresos"]; got != "116" {
		t.Errorf("Total Ingresos = %q, want 116", got)
	}
	if got := flat["Total Egresos"]; got != "232" {
		t.Errorf("Total Egresos = %q, want 232", got)
	}
	if got := flat["Neto"]; got != "-116" {
		t.Errorf("Neto = %q, want -116", got)
	}
	if got := flat["Invalidos"]; got != "3" {
		t.Errorf("Invalidos = %q, want 3", got)
	}
	if got := flat["Duplicados"]; got != "2" {
		t.Errorf("Duplicados = %q, want 2", got)
	}
	// Ingresos record is bucketed under its month; the Egresos record has no
	// Fecha and lands in the empty bucket, so both keys appear in the table.
	if got := flat["2024-03"]; got != "116" {
		t.Errorf("month 2024-03 ingresos = %q, want 116", got)
	}
	if got := flat["XAXX010101000"]; got != "116" {
		t.Errorf("top cliente XAXX010101000 = %q, want 116", got)
	}
	if got := flat["BBB010101BBB"]; got != "232" {
		t.Errorf("top proveedor BBB010101BBB = %q, want 232", got)
	}
}
