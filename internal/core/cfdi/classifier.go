package cfdi

import (
	"regexp"
	"strings"
)

// rfcPattern is a superficial RFC shape check: 3-4 letters, 6 digits of date,
// 2-3 character homoclave. It does not verify the check digit.
var rfcPattern = regexp.MustCompile(`^[A-Z&Ñ]{3,4}[0-9]{6}[A-Z0-9]{2,3}$`)

// NormalizarRFC trims and uppercases an RFC for comparison.
func NormalizarRFC(rfc string) string {
	return strings.ToUpper(strings.TrimSpace(rfc))
}

// ValidarRFC reports whether the RFC has a plausible shape after
// normalization.
func ValidarRFC(rfc string) bool {
	rfc = NormalizarRFC(rfc)
	if rfc == "" {
		return false
	}
	return rfcPattern.MatchString(rfc)
}

// Classify determines the financial direction of a document relative to the
// user's RFC. It is total: it always returns a label and never fails.
//
// Only documents of type "I" participate:
//   - user is the emisor: the user billed someone, Ingresos.
//   - user is the receptor: the user was billed, Egresos.
//
// Credit notes (E), payments (P), payroll (N) and unrecognized types stay
// unclassified; directional treatment of those would require netting logic
// out of scope here.
func Classify(doc *CFDI, userRFC string) Clasificacion {
	if doc == nil {
		return ClasificacionNoClasificada
	}

	user := NormalizarRFC(userRFC)
	if user == "" {
		return ClasificacionNoClasificada
	}

	emisor := NormalizarRFC(doc.EmisorRFC)
	receptor := NormalizarRFC(doc.ReceptorRFC)
	tipo := TipoComprobante(strings.ToUpper(string(doc.Tipo)))

	if tipo == TipoIngreso {
		switch user {
		case emisor:
			return ClasificacionIngresos
		case receptor:
			return ClasificacionEgresos
		}
	}

	return ClasificacionNoClasificada
}
