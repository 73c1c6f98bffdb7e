package main

import (
	"path/filepath"
	"testing"
)

func TestResolveExportPath(t *testing.T) {
	abs := filepath.Join(string(filepath.Separator), "tmp", "reporte.xlsx")

	tests := []struct {
		name string
		dir  string
		path string
		want string
	}{
		{"relative joins export dir", "/exports", "reporte.xlsx", filepath.Join("/exports", "reporte.xlsx")},
		{"dot dir keeps cwd", ".", "reporte.pdf", filepath.Join(".", "reporte.pdf")},
		{"absolute wins", "/exports", abs, abs},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveExportPath(tt.dir, tt.path); got != tt.want {
				t.Errorf("resolveExportPath(%q, %q) = %q, want %q", tt.dir, tt.path, got, tt.want)
			}
		})
	}
}
