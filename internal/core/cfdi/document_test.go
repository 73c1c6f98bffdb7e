package cfdi

import (
	"testing"
	"time"
)

func TestEsLegacy(t *testing.T) {
	tests := []struct {
		version string
		legacy  bool
	}{
		{"3.3", true},
		{"3.3.1", true},
		{"4.0", false},
		{"3.2", false},
		{"", false},
		{"3", false},
	}

	for _, tt := range tests {
		doc := &CFDI{Version: tt.version}
		if got := doc.EsLegacy(); got != tt.legacy {
			t.Errorf("EsLegacy() with version %q = %v, want %v", tt.version, got, tt.legacy)
		}
	}
}

func TestTieneFecha(t *testing.T) {
	sin := &CFDI{}
	if sin.TieneFecha() {
		t.Error("zero Fecha should report no date")
	}

	con := &CFDI{Fecha: time.Date(2023, 1, 31, 12, 0, 0, 0, time.UTC)}
	if !con.TieneFecha() {
		t.Error("set Fecha should report a date")
	}
}
