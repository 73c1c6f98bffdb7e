package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// CFDIDoc builds CFDI XML fixtures for parser and scanner tests. Zero-value
// fields fall back to a well-formed current-schema Ingreso invoice; tests
// override only what they exercise.
type CFDIDoc struct {
	Prefix       string // cfdi namespace prefix, default "cfdi"
	TimbrePrefix string // stamp namespace prefix, default "tfd"
	// OmitTimbreNS leaves the stamp prefix undeclared, exercising the
	// parser's fallback namespace handling.
	OmitTimbreNS bool
	// OmitTimbre drops the TimbreFiscalDigital element entirely.
	OmitTimbre bool

	Version       string // default "4.0"
	Tipo          string // default "I"
	UUID          string // default fixed sample UUID; "" only when TimbreSinUUID
	TimbreSinUUID bool
	Fecha         string // default "2023-01-31T12:00:00"; "-" means omit attribute
	Serie         string
	Folio         string
	SubTotal      string // default "100"
	Total         string // default "116"
	Moneda        string // "" omits the attribute

	EmisorRFC      string // default "AAA010101AAA"
	EmisorNombre   string
	ReceptorRFC    string // default "BBB010101BBB"
	ReceptorNombre string

	// DocIVA emits a document-level Traslado with Impuesto 002.
	DocIVA string
	// DocISRRet / DocIVARet / DocIEPSRet emit document-level retenciones.
	DocISRRet  string
	DocIVARet  string
	DocIEPSRet string

	// LineIVA emits a per-concept Traslado with Impuesto 002.
	LineIVA string
	// SinConceptos drops the Conceptos block.
	SinConceptos bool
	// BadNumbers replaces the monetary attributes with garbage to exercise
	// the coerce-to-zero policy.
	BadNumbers bool
}

// DefaultUUID is the stamp identifier used by fixtures unless overridden.
const DefaultUUID = "12345678-1234-1234-1234-123456789012"

func (d CFDIDoc) XML() string {
	prefix := orDefault(d.Prefix, "cfdi")
	tfd := orDefault(d.TimbrePrefix, "tfd")
	version := orDefault(d.Version, "4.0")
	tipo := orDefault(d.Tipo, "I")
	id := orDefault(d.UUID, DefaultUUID)
	subtotal := orDefault(d.SubTotal, "100")
	total := orDefault(d.Total, "116")
	emisorRFC := orDefault(d.EmisorRFC, "AAA010101AAA")
	receptorRFC := orDefault(d.ReceptorRFC, "BBB010101BBB")

	if d.BadNumbers {
		subtotal, total = "not-a-number", "###"
	}

	ns := "http://www.sat.gob.mx/cfd/4"
	if strings.HasPrefix(version, "3.3") {
		ns = "http://www.sat.gob.mx/cfd/3"
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<%s:Comprobante Version=%q TipoDeComprobante=%q Serie=%q Folio=%q SubTotal=%q Total=%q`,
		prefix, version, tipo, d.Serie, d.Folio, subtotal, total)
	if d.Fecha != "-" {
		fmt.Fprintf(&b, ` Fecha=%q`, orDefault(d.Fecha, "2023-01-31T12:00:00"))
	}
	if d.Moneda != "" {
		fmt.Fprintf(&b, ` Moneda=%q`, d.Moneda)
	}
	fmt.Fprintf(&b, ` FormaPago="01" MetodoPago="PUE" LugarExpedicion="99999"`)
	fmt.Fprintf(&b, ` xmlns:%s=%q`, prefix, ns)
	if !d.OmitTimbreNS {
		fmt.Fprintf(&b, ` xmlns:%s=%q`, tfd, "http://www.sat.gob.mx/TimbreFiscalDigital")
	}
	b.WriteString(">\n")

	fmt.Fprintf(&b, `  <%s:Emisor Rfc=%q Nombre=%q RegimenFiscal="601"/>`+"\n", prefix, emisorRFC, orDefault(d.EmisorNombre, "Emisor SA de CV"))
	fmt.Fprintf(&b, `  <%s:Receptor Rfc=%q Nombre=%q UsoCFDI="G03" RegimenFiscalReceptor="601"/>`+"\n", prefix, receptorRFC, orDefault(d.ReceptorNombre, "Receptor SA de CV"))

	if !d.SinConceptos {
		importe := subtotal
		fmt.Fprintf(&b, `  <%s:Conceptos>`+"\n", prefix)
		fmt.Fprintf(&b, `    <%s:Concepto ClaveProdServ="01010101" Cantidad="1" ClaveUnidad="E48" Unidad="Servicio" Descripcion="Servicio de prueba" ValorUnitario=%q Importe=%q>`+"\n", prefix, importe, importe)
		if d.LineIVA != "" {
			fmt.Fprintf(&b, `      <%s:Impuestos><%s:Traslados><%s:Traslado Base=%q Impuesto="002" TipoFactor="Tasa" TasaOCuota="0.160000" Importe=%q/></%s:Traslados></%s:Impuestos>`+"\n",
				prefix, prefix, prefix, importe, d.LineIVA, prefix, prefix)
		}
		fmt.Fprintf(&b, `    </%s:Concepto>`+"\n", prefix)
		fmt.Fprintf(&b, `  </%s:Conceptos>`+"\n", prefix)
	}

	if d.DocIVA != "" || d.DocISRRet != "" || d.DocIVARet != "" || d.DocIEPSRet != "" {
		fmt.Fprintf(&b, `  <%s:Impuestos>`+"\n", prefix)
		if d.DocIVA != "" {
			fmt.Fprintf(&b, `    <%s:Traslados><%s:Traslado Impuesto="002" TipoFactor="Tasa" TasaOCuota="0.160000" Importe=%q/></%s:Traslados>`+"\n", prefix, prefix, d.DocIVA, prefix)
		}
		if d.DocISRRet != "" || d.DocIVARet != "" || d.DocIEPSRet != "" {
			fmt.Fprintf(&b, `    <%s:Retenciones>`+"\n", prefix)
			for code, importe := range map[string]string{"001": d.DocISRRet, "002": d.DocIVARet, "003": d.DocIEPSRet} {
				if importe != "" {
					fmt.Fprintf(&b, `      <%s:Retencion Impuesto=%q Importe=%q/>`+"\n", prefix, code, importe)
				}
			}
			fmt.Fprintf(&b, `    </%s:Retenciones>`+"\n", prefix)
		}
		fmt.Fprintf(&b, `  </%s:Impuestos>`+"\n", prefix)
	}

	if !d.OmitTimbre {
		fmt.Fprintf(&b, `  <%s:Complemento>`+"\n", prefix)
		if d.TimbreSinUUID {
			fmt.Fprintf(&b, `    <%s:TimbreFiscalDigital Version="1.1" FechaTimbrado="2023-01-31T12:00:00"/>`+"\n", tfd)
		} else {
			fmt.Fprintf(&b, `    <%s:TimbreFiscalDigital Version="1.1" UUID=%q FechaTimbrado="2023-01-31T12:00:00"/>`+"\n", tfd, id)
		}
		fmt.Fprintf(&b, `  </%s:Complemento>`+"\n", prefix)
	}

	fmt.Fprintf(&b, `</%s:Comprobante>`, prefix)
	return b.String()
}

// WriteXML writes content into dir/name and returns the full path.
func WriteXML(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture %s: %v", name, err)
	}
	return path
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
