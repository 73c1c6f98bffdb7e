package cfdi

import "time"

// TipoComprobante identifies the kind of CFDI document.
type TipoComprobante string

const (
	// TipoIngreso is a regular invoice ("I").
	TipoIngreso TipoComprobante = "I"
	// TipoEgreso is a credit note ("E").
	TipoEgreso TipoComprobante = "E"
	// TipoPago is a payment complement ("P"). These are out of scope and
	// rejected by the parser.
	TipoPago TipoComprobante = "P"
	// TipoNomina is a payroll receipt ("N").
	TipoNomina TipoComprobante = "N"
)

// Impuesto is the SAT three-digit tax code used in Traslado/Retencion nodes.
type Impuesto string

const (
	// ImpuestoISR is income tax withholding ("001").
	ImpuestoISR Impuesto = "001"
	// ImpuestoIVA is value-added tax ("002").
	ImpuestoIVA Impuesto = "002"
	// ImpuestoIEPS is the excise tax ("003").
	ImpuestoIEPS Impuesto = "003"
)

// Clasificacion is the financial direction of a document relative to the
// user's RFC. It is derived, never parsed from the document.
type Clasificacion string

const (
	ClasificacionIngresos      Clasificacion = "Ingresos"
	ClasificacionEgresos       Clasificacion = "Egresos"
	ClasificacionNoClasificada Clasificacion = "No clasificado"
)

// Concepto is one line item inside a CFDI. Concepts are created during
// parsing and never mutated afterwards.
type Concepto struct {
	UUID          string
	ClaveProdServ string
	Cantidad      float64
	ClaveUnidad   string
	Unidad        string
	Descripcion   string
	ValorUnitario float64
	Importe       float64
	Descuento     float64
	// ImpuestosTraslado accumulates transferred tax amounts per tax code.
	ImpuestosTraslado map[Impuesto]float64
	// ImpuestosRetencion accumulates withheld tax amounts per tax code.
	ImpuestosRetencion map[Impuesto]float64
}

// CFDI holds the fields of one parsed invoice document. The UUID comes from
// the TimbreFiscalDigital complement and is the only identity of the
// document: a CFDI without it is never materialized.
type CFDI struct {
	UUID  string
	Fecha time.Time // zero value means the Fecha attribute was absent or unparseable
	Tipo  TipoComprobante
	Serie string
	Folio string

	EmisorRFC       string
	EmisorNombre    string
	EmisorRegimen   string
	ReceptorRFC     string
	ReceptorNombre  string
	ReceptorRegimen string
	UsoCFDI         string

	SubTotal        float64
	Descuento       float64
	Total           float64
	Moneda          string
	TipoCambio      float64
	FormaPago       string
	MetodoPago      string
	LugarExpedicion string

	// Document-level tax totals. The parser accumulates these additively
	// from the comprobante-level Impuestos node and from every concept's
	// own tax nodes.
	IVATrasladado float64
	ISRRetenido   float64
	IVARetenido   float64
	IEPS          float64

	NumConceptos int
	Version      string
	Warnings     []string

	// Clasificacion is set exactly once by the batch scanner, after
	// classification and before the record enters the result set.
	Clasificacion Clasificacion
}

// EsLegacy reports whether the document uses the legacy 3.3 schema family.
func (c *CFDI) EsLegacy() bool {
	return len(c.Version) >= 3 && c.Version[:3] == "3.3"
}

// TieneFecha reports whether the document carried a parseable Fecha.
func (c *CFDI) TieneFecha() bool {
	return !c.Fecha.IsZero()
}
