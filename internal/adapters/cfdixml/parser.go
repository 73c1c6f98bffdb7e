// Package cfdixml decodes CFDI invoice XML files (schema families 3.3 and
// 4.0) into the strongly-typed domain records of internal/core/cfdi.
//
// The decoding contract is deliberately forgiving: a file either yields a
// complete record or it is silently rejected. No error surfaces to the
// caller; a nil record is the only rejection signal. Malformed numeric
// attributes coerce to zero instead of failing the document.
package cfdixml

import (
	"encoding/xml"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"eddp/analizador_cfdi/internal/core/cfdi"
)

// tfdNamespace is the fallback URI for the TimbreFiscalDigital complement,
// used when the document does not declare it.
const tfdNamespace = "http://www.sat.gob.mx/TimbreFiscalDigital"

// Structural limits. A document past these bounds is rejected rather than
// parsed, matching the rejection contract for unsafe input.
const (
	maxDepth    = 64
	maxElements = 500000
)

var (
	errTooDeep  = errors.New("cfdixml: element nesting exceeds limit")
	errTooLarge = errors.New("cfdixml: element count exceeds limit")
)

// node is a minimal DOM used to navigate the document by local element
// names, so that namespace prefix choices in the source file do not matter.
type node struct {
	name     xml.Name
	attrs    []xml.Attr
	children []*node
}

// ParseFile reads one CFDI XML file. It returns the parsed document and its
// line items, or (nil, nil) when the file is rejected: unreadable or
// malformed XML, a Pagos ("P") document, or a document without a
// TimbreFiscalDigital UUID.
func ParseFile(path string) (*cfdi.CFDI, []cfdi.Concepto) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes one CFDI document from r. See ParseFile for the rejection
// contract.
func Parse(r io.Reader) (*cfdi.CFDI, []cfdi.Concepto) {
	root, err := decodeTree(r)
	if err != nil {
		return nil, nil
	}

	version := attr(root, "Version", "version")
	tipo := cfdi.TipoComprobante(strings.ToUpper(attr(root, "TipoDeComprobante", "TipoComprobante")))
	if tipo == cfdi.TipoPago {
		// Payment complements are out of scope.
		return nil, nil
	}

	id := stampUUID(root)
	if id == "" {
		// Without the fiscal stamp UUID the document cannot be
		// deduplicated or referenced.
		return nil, nil
	}

	var warnings []string
	if strings.HasPrefix(version, "3.3") {
		warnings = append(warnings, "CFDI 3.3 detectado: procesado, pero se recomienda CFDI 4.0")
	}

	doc := &cfdi.CFDI{
		UUID:            id,
		Fecha:           parseFecha(attr(root, "Fecha", "fecha")),
		Tipo:            tipo,
		Serie:           attr(root, "Serie"),
		Folio:           attr(root, "Folio"),
		SubTotal:        safeFloat(attr(root, "SubTotal")),
		Descuento:       safeFloat(attr(root, "Descuento")),
		Total:           safeFloat(attr(root, "Total")),
		Moneda:          attr(root, "Moneda"),
		TipoCambio:      safeFloat(attr(root, "TipoCambio")),
		FormaPago:       attr(root, "FormaPago"),
		MetodoPago:      attr(root, "MetodoPago"),
		LugarExpedicion: attr(root, "LugarExpedicion"),
		Version:         version,
		Warnings:        warnings,
		Clasificacion:   cfdi.ClasificacionNoClasificada,
	}

	if emisor := child(root, "Emisor"); emisor != nil {
		doc.EmisorRFC = attr(emisor, "Rfc")
		doc.EmisorNombre = attr(emisor, "Nombre")
		doc.EmisorRegimen = attr(emisor, "RegimenFiscal")
	}
	if receptor := child(root, "Receptor"); receptor != nil {
		doc.ReceptorRFC = attr(receptor, "Rfc")
		doc.ReceptorNombre = attr(receptor, "Nombre")
		// RegimenFiscalReceptor only exists in the 4.0 schema.
		doc.ReceptorRegimen = attr(receptor, "RegimenFiscalReceptor")
		doc.UsoCFDI = attr(receptor, "UsoCFDI")
	}
	if doc.Moneda == "" {
		doc.Moneda = "MXN"
	}

	// Document-level tax totals. At comprobante level only VAT traslados
	// commonly appear, so only "002" is read there; retenciones carry all
	// three codes. Line-item taxes are then ADDED on top: real documents
	// populate one level or the other, and the accumulation must add,
	// never overwrite.
	if impuestos := child(root, "Impuestos"); impuestos != nil {
		for _, tr := range grandchildren(impuestos, "Traslados", "Traslado") {
			if cfdi.Impuesto(attr(tr, "Impuesto")) == cfdi.ImpuestoIVA {
				doc.IVATrasladado += safeFloat(attr(tr, "Importe"))
			}
		}
		for _, rt := range grandchildren(impuestos, "Retenciones", "Retencion") {
			importe := safeFloat(attr(rt, "Importe"))
			switch cfdi.Impuesto(attr(rt, "Impuesto")) {
			case cfdi.ImpuestoISR:
				doc.ISRRetenido += importe
			case cfdi.ImpuestoIVA:
				doc.IVARetenido += importe
			case cfdi.ImpuestoIEPS:
				doc.IEPS += importe
			}
		}
	}

	var conceptos []cfdi.Concepto
	if parent := child(root, "Conceptos"); parent != nil {
		for _, cn := range childAll(parent, "Concepto") {
			c := cfdi.Concepto{
				UUID:               id,
				ClaveProdServ:      attr(cn, "ClaveProdServ"),
				Cantidad:           safeFloat(attr(cn, "Cantidad")),
				ClaveUnidad:        attr(cn, "ClaveUnidad"),
				Unidad:             attr(cn, "Unidad"),
				Descripcion:        attr(cn, "Descripcion"),
				ValorUnitario:      safeFloat(attr(cn, "ValorUnitario")),
				Importe:            safeFloat(attr(cn, "Importe")),
				Descuento:          safeFloat(attr(cn, "Descuento")),
				ImpuestosTraslado:  make(map[cfdi.Impuesto]float64),
				ImpuestosRetencion: make(map[cfdi.Impuesto]float64),
			}
			if imp := child(cn, "Impuestos"); imp != nil {
				for _, tr := range grandchildren(imp, "Traslados", "Traslado") {
					code := cfdi.Impuesto(attr(tr, "Impuesto"))
					importe := safeFloat(attr(tr, "Importe"))
					c.ImpuestosTraslado[code] += importe
					switch code {
					case cfdi.ImpuestoIVA:
						doc.IVATrasladado += importe
					case cfdi.ImpuestoIEPS:
						doc.IEPS += importe
					}
				}
				for _, rt := range grandchildren(imp, "Retenciones", "Retencion") {
					code := cfdi.Impuesto(attr(rt, "Impuesto"))
					importe := safeFloat(attr(rt, "Importe"))
					c.ImpuestosRetencion[code] += importe
					switch code {
					case cfdi.ImpuestoISR:
						doc.ISRRetenido += importe
					case cfdi.ImpuestoIVA:
						doc.IVARetenido += importe
					case cfdi.ImpuestoIEPS:
						doc.IEPS += importe
					}
				}
			}
			conceptos = append(conceptos, c)
		}
	}
	doc.NumConceptos = len(conceptos)

	return doc, conceptos
}

// decodeTree builds the element tree, enforcing depth and size limits.
func decodeTree(r io.Reader) (*node, error) {
	dec := xml.NewDecoder(r)
	var root *node
	var stack []*node
	count := 0

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			count++
			if count > maxElements {
				return nil, errTooLarge
			}
			if len(stack) >= maxDepth {
				return nil, errTooDeep
			}
			n := &node{
				name:  t.Name,
				attrs: append([]xml.Attr(nil), t.Attr...),
			}
			if len(stack) == 0 {
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		}
	}

	if root == nil || len(stack) != 0 {
		return nil, errors.New("cfdixml: no root element")
	}
	return root, nil
}

// stampUUID locates the TimbreFiscalDigital inside the Complemento block and
// returns the canonicalized UUID, or "" when it cannot be resolved.
func stampUUID(root *node) string {
	complemento := child(root, "Complemento")
	if complemento == nil {
		return ""
	}
	for _, n := range complemento.children {
		if !isTimbre(n) {
			continue
		}
		raw := strings.TrimSpace(attr(n, "UUID"))
		if raw == "" {
			return ""
		}
		if u, err := uuid.Parse(raw); err == nil {
			return strings.ToUpper(u.String())
		}
		return raw
	}
	return ""
}

// isTimbre matches the stamp element regardless of prefix spelling: either
// the canonical namespace URI, or an undeclared "tfd" prefix, which the
// decoder leaves unresolved.
func isTimbre(n *node) bool {
	if n.name.Local != "TimbreFiscalDigital" {
		return false
	}
	switch n.name.Space {
	case tfdNamespace, "tfd", "":
		return true
	}
	return false
}

// attr returns the first matching attribute by local name, trying candidate
// spellings in order. Absent attributes resolve to "".
func attr(n *node, names ...string) string {
	for _, want := range names {
		for _, a := range n.attrs {
			if a.Name.Local == want {
				return a.Value
			}
		}
	}
	return ""
}

// child returns the first direct child with the given local name.
func child(n *node, local string) *node {
	for _, c := range n.children {
		if c.name.Local == local {
			return c
		}
	}
	return nil
}

// childAll returns every direct child with the given local name, in
// document order.
func childAll(n *node, local string) []*node {
	var out []*node
	for _, c := range n.children {
		if c.name.Local == local {
			out = append(out, c)
		}
	}
	return out
}

// grandchildren returns the children named inner under the first child named
// outer, e.g. Impuestos -> Traslados -> Traslado.
func grandchildren(n *node, outer, inner string) []*node {
	wrap := child(n, outer)
	if wrap == nil {
		return nil
	}
	return childAll(wrap, inner)
}

// safeFloat parses a numeric attribute with total tolerance: absent or
// unparseable values coerce to 0.
func safeFloat(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

// parseFecha handles the CFDI Fecha attribute: ISO timestamp, optionally
// with a trailing Z or fractional seconds, both ignored.
func parseFecha(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	s = strings.TrimSuffix(s, "Z")
	if i := strings.Index(s, "."); i >= 0 {
		s = s[:i]
	}
	t, err := time.Parse("2006-01-02T15:04:05", s)
	if err != nil {
		return time.Time{}
	}
	return t
}
