package kpi

import (
	"testing"
	"time"

	"eddp/analizador_cfdi/internal/core/cfdi"
)

func fecha(year int, month time.Month) time.Time {
	return time.Date(year, month, 15, 10, 0, 0, 0, time.UTC)
}

func TestAggregateEmpty(t *testing.T) {
	snap := Aggregate(nil, 2, 1, 3)

	if snap.TotalIngresos != 0 || snap.TotalEgresos != 0 || snap.Neto != 0 {
		t.Errorf("expected zero totals, got %+v", snap)
	}
	if snap.ConteoCFDI != 0 {
		t.Errorf("expected zero conteo, got %d", snap.ConteoCFDI)
	}
	if len(snap.TopClientes) != 0 || len(snap.TopProveedores) != 0 {
		t.Error("expected empty rankings")
	}
	if snap.Calidad.Invalidos != 2 || snap.Calidad.Duplicados != 1 || snap.Calidad.CFDI33 != 3 {
		t.Errorf("quality counters not carried: %+v", snap.Calidad)
	}
}

func TestAggregateTotalsAndNeto(t *testing.T) {
	records := []cfdi.CFDI{
		{Clasificacion: cfdi.ClasificacionIngresos, Total: 116, ReceptorRFC: "BBB010101BBB", Fecha: fecha(2023, time.January)},
		{Clasificacion: cfdi.ClasificacionIngresos, Total: 232, ReceptorRFC: "CCC010101CCC", Fecha: fecha(2023, time.February)},
		{Clasificacion: cfdi.ClasificacionEgresos, Total: 58, EmisorRFC: "DDD010101DDD", Fecha: fecha(2023, time.January)},
	}

	snap := Aggregate(records, 0, 0, 0)

	if snap.TotalIngresos != 348 {
		t.Errorf("TotalIngresos = %v, want 348", snap.TotalIngresos)
	}
	if snap.TotalEgresos != 58 {
		t.Errorf("TotalEgresos = %v, want 58", snap.TotalEgresos)
	}
	if snap.Neto != snap.TotalIngresos-snap.TotalEgresos {
		t.Errorf("Neto = %v, want exactly ingresos-egresos", snap.Neto)
	}
	if snap.ConteoCFDI != 3 {
		t.Errorf("ConteoCFDI = %d, want 3", snap.ConteoCFDI)
	}
	if snap.IngresosPorMes["2023-01"] != 116 || snap.IngresosPorMes["2023-02"] != 232 {
		t.Errorf("month buckets wrong: %v", snap.IngresosPorMes)
	}
	if snap.EgresosPorMes["2023-01"] != 58 {
		t.Errorf("egreso month bucket wrong: %v", snap.EgresosPorMes)
	}
}

func TestAggregateUnclassifiedContributesTaxesOnly(t *testing.T) {
	records := []cfdi.CFDI{
		{
			Clasificacion: cfdi.ClasificacionNoClasificada,
			Total:         1000,
			IVATrasladado: 16,
			ISRRetenido:   1,
			IVARetenido:   2,
			IEPS:          3,
		},
	}

	snap := Aggregate(records, 0, 0, 0)

	if snap.TotalIngresos != 0 || snap.TotalEgresos != 0 {
		t.Errorf("unclassified record leaked into totals: %+v", snap)
	}
	if snap.ConteoCFDI != 0 {
		t.Errorf("unclassified record counted: %d", snap.ConteoCFDI)
	}
	if snap.IVATrasladado != 16 || snap.ISRRetenido != 1 || snap.IVARetenido != 2 || snap.IEPS != 3 {
		t.Errorf("tax totals must include unclassified records: %+v", snap)
	}
}

func TestAggregateMissingDateBucket(t *testing.T) {
	records := []cfdi.CFDI{
		{Clasificacion: cfdi.ClasificacionIngresos, Total: 100, ReceptorRFC: "BBB010101BBB"},
	}

	snap := Aggregate(records, 0, 0, 0)

	if snap.IngresosPorMes[""] != 100 {
		t.Errorf("records without Fecha must land in the empty bucket: %v", snap.IngresosPorMes)
	}
}

func TestAggregateRanking(t *testing.T) {
	records := []cfdi.CFDI{
		{Clasificacion: cfdi.ClasificacionIngresos, Total: 10, ReceptorRFC: "C1"},
		{Clasificacion: cfdi.ClasificacionIngresos, Total: 50, ReceptorRFC: "C2"},
		{Clasificacion: cfdi.ClasificacionIngresos, Total: 30, ReceptorRFC: "C3"},
		{Clasificacion: cfdi.ClasificacionIngresos, Total: 20, ReceptorRFC: "C1"},
		{Clasificacion: cfdi.ClasificacionIngresos, Total: 40, ReceptorRFC: "C4"},
		{Clasificacion: cfdi.ClasificacionIngresos, Total: 5, ReceptorRFC: "C5"},
		{Clasificacion: cfdi.ClasificacionIngresos, Total: 1, ReceptorRFC: "C6"},
	}

	snap := Aggregate(records, 0, 0, 0)

	if len(snap.TopClientes) != TopSize {
		t.Fatalf("expected top list capped at %d, got %d", TopSize, len(snap.TopClientes))
	}
	for i := 1; i < len(snap.TopClientes); i++ {
		if snap.TopClientes[i].Total > snap.TopClientes[i-1].Total {
			t.Errorf("ranking not non-increasing at %d: %+v", i, snap.TopClientes)
		}
	}
	if snap.TopClientes[0].Clave != "C2" || snap.TopClientes[0].Total != 50 {
		t.Errorf("unexpected leader: %+v", snap.TopClientes[0])
	}
	// C1 accumulates across records.
	found := false
	for _, c := range snap.TopClientes {
		if c.Clave == "C1" && c.Total == 30 {
			found = true
		}
	}
	if !found {
		t.Errorf("C1 should total 30: %+v", snap.TopClientes)
	}
}

func TestAggregateRankingTieBreakIsStable(t *testing.T) {
	records := []cfdi.CFDI{
		{Clasificacion: cfdi.ClasificacionEgresos, Total: 10, EmisorRFC: "P1"},
		{Clasificacion: cfdi.ClasificacionEgresos, Total: 10, EmisorRFC: "P2"},
		{Clasificacion: cfdi.ClasificacionEgresos, Total: 10, EmisorRFC: "P3"},
	}

	first := Aggregate(records, 0, 0, 0)
	second := Aggregate(records, 0, 0, 0)

	for i := range first.TopProveedores {
		if first.TopProveedores[i] != second.TopProveedores[i] {
			t.Fatalf("tie ordering not reproducible: %+v vs %+v", first.TopProveedores, second.TopProveedores)
		}
	}
	// Insertion order decides ties.
	want := []string{"P1", "P2", "P3"}
	for i, w := range want {
		if first.TopProveedores[i].Clave != w {
			t.Errorf("position %d = %q, want %q", i, first.TopProveedores[i].Clave, w)
		}
	}
}

func TestTopPorNombre(t *testing.T) {
	records := []cfdi.CFDI{
		{Clasificacion: cfdi.ClasificacionIngresos, Total: 100, ReceptorRFC: "BBB010101BBB", ReceptorNombre: "Cliente Uno"},
		{Clasificacion: cfdi.ClasificacionIngresos, Total: 50, ReceptorRFC: "CCC010101CCC"},
		{Clasificacion: cfdi.ClasificacionEgresos, Total: 75, EmisorRFC: "DDD010101DDD", EmisorNombre: "Proveedor Uno"},
	}

	clientes := TopClientesPorNombre(records, 5)
	if len(clientes) != 2 {
		t.Fatalf("expected 2 clientes, got %d", len(clientes))
	}
	if clientes[0].Clave != "Cliente Uno" {
		t.Errorf("expected display name key, got %q", clientes[0].Clave)
	}
	if clientes[1].Clave != "CCC010101CCC" {
		t.Errorf("expected RFC fallback when name missing, got %q", clientes[1].Clave)
	}

	proveedores := TopProveedoresPorNombre(records, 5)
	if len(proveedores) != 1 || proveedores[0].Clave != "Proveedor Uno" || proveedores[0].Total != 75 {
		t.Errorf("unexpected proveedores view: %+v", proveedores)
	}
}

func TestMesClave(t *testing.T) {
	if got := MesClave(time.Time{}); got != "" {
		t.Errorf("MesClave(zero) = %q, want empty", got)
	}
	if got := MesClave(time.Date(2023, time.September, 1, 0, 0, 0, 0, time.UTC)); got != "2023-09" {
		t.Errorf("MesClave = %q, want 2023-09", got)
	}
}
