// Package kpi folds a finished CFDI record set into the financial
// indicators consumed by reporting and export collaborators.
package kpi

import (
	"sort"
	"time"

	"eddp/analizador_cfdi/internal/core/cfdi"
)

// TopSize caps the ranked counterparty lists.
const TopSize = 5

// Counterparty is one entry of a ranked counterparty list.
type Counterparty struct {
	Clave string  `json:"clave"` // RFC for the canonical view, display name for the by-name view
	Total float64 `json:"total"`
}

// Calidad carries the data-quality counters of the batch that produced the
// record set.
type Calidad struct {
	Invalidos  int `json:"invalidos"`
	Duplicados int `json:"duplicados"`
	CFDI33     int `json:"cfdi33"`
}

// Snapshot is the point-in-time aggregate of one finished batch. It is
// recomputed wholesale on every batch completion, never patched.
type Snapshot struct {
	TotalIngresos float64 `json:"total_ingresos"`
	TotalEgresos  float64 `json:"total_egresos"`
	Neto          float64 `json:"neto"`

	// Tax totals sum over ALL records, classified or not.
	IVATrasladado float64 `json:"iva_trasladado"`
	ISRRetenido   float64 `json:"isr_retenido"`
	IVARetenido   float64 `json:"iva_retenido"`
	IEPS          float64 `json:"ieps"`

	// ConteoCFDI counts only classified (Ingresos+Egresos) records.
	ConteoCFDI int `json:"conteo_cfdi"`

	IngresosPorMes map[string]float64 `json:"ingresos_por_mes"`
	EgresosPorMes  map[string]float64 `json:"egresos_por_mes"`

	// Canonical counterparty rankings, keyed by RFC.
	TopClientes    []Counterparty `json:"top_clientes"`
	TopProveedores []Counterparty `json:"top_proveedores"`

	Calidad Calidad `json:"calidad"`
}

// MesClave returns the YYYY-MM bucket key for a date, or "" for the
// zero value (documents without a parseable Fecha).
func MesClave(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01")
}

// Aggregate computes the snapshot in a single pass over the record set.
//
// For Ingresos the counterparty is the receptor (the customer being billed);
// for Egresos it is the emisor (the supplier billing the user). Unclassified
// records contribute nothing to the directional totals but their tax totals
// still count — only the Income/Expense figures are classification-gated.
func Aggregate(records []cfdi.CFDI, invalidos, duplicados, cfdi33 int) Snapshot {
	snap := Snapshot{
		IngresosPorMes: make(map[string]float64),
		EgresosPorMes:  make(map[string]float64),
		Calidad: Calidad{
			Invalidos:  invalidos,
			Duplicados: duplicados,
			CFDI33:     cfdi33,
		},
	}

	clientes := newTally()
	proveedores := newTally()

	for i := range records {
		c := &records[i]
		mes := MesClave(c.Fecha)

		switch c.Clasificacion {
		case cfdi.ClasificacionIngresos:
			snap.TotalIngresos += c.Total
			snap.ConteoCFDI++
			snap.IngresosPorMes[mes] += c.Total
			clientes.add(c.ReceptorRFC, c.Total)
		case cfdi.ClasificacionEgresos:
			snap.TotalEgresos += c.Total
			snap.ConteoCFDI++
			snap.EgresosPorMes[mes] += c.Total
			proveedores.add(c.EmisorRFC, c.Total)
		}

		snap.IVATrasladado += c.IVATrasladado
		snap.ISRRetenido += c.ISRRetenido
		snap.IVARetenido += c.IVARetenido
		snap.IEPS += c.IEPS
	}

	snap.Neto = snap.TotalIngresos - snap.TotalEgresos
	snap.TopClientes = clientes.top(TopSize)
	snap.TopProveedores = proveedores.top(TopSize)

	return snap
}

// TopClientesPorNombre is the by-display-name ranking of customers, kept
// separate from the canonical by-RFC view in the Snapshot. Meant for
// human-facing output where an RFC alone reads poorly.
func TopClientesPorNombre(records []cfdi.CFDI, n int) []Counterparty {
	t := newTally()
	for i := range records {
		if records[i].Clasificacion == cfdi.ClasificacionIngresos {
			t.add(displayName(records[i].ReceptorNombre, records[i].ReceptorRFC), records[i].Total)
		}
	}
	return t.top(n)
}

// TopProveedoresPorNombre is the by-display-name ranking of suppliers.
func TopProveedoresPorNombre(records []cfdi.CFDI, n int) []Counterparty {
	t := newTally()
	for i := range records {
		if records[i].Clasificacion == cfdi.ClasificacionEgresos {
			t.add(displayName(records[i].EmisorNombre, records[i].EmisorRFC), records[i].Total)
		}
	}
	return t.top(n)
}

func displayName(nombre, rfc string) string {
	if nombre != "" {
		return nombre
	}
	return rfc
}

// tally accumulates per-key sums while remembering first-appearance order,
// so that ranking ties break deterministically for identical input.
type tally struct {
	sums  map[string]float64
	order []string
}

func newTally() *tally {
	return &tally{sums: make(map[string]float64)}
}

func (t *tally) add(key string, amount float64) {
	if _, seen := t.sums[key]; !seen {
		t.order = append(t.order, key)
	}
	t.sums[key] += amount
}

func (t *tally) top(n int) []Counterparty {
	out := make([]Counterparty, 0, len(t.order))
	for _, k := range t.order {
		out = append(out, Counterparty{Clave: k, Total: t.sums[k]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total > out[j].Total
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
