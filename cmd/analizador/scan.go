package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"eddp/analizador_cfdi/internal/adapters/export"
	"eddp/analizador_cfdi/internal/application/scanner"
	"eddp/analizador_cfdi/internal/core/cfdi"
	"eddp/analizador_cfdi/internal/core/kpi"
	"eddp/analizador_cfdi/internal/infrastructure/config"
	"eddp/analizador_cfdi/internal/infrastructure/logger"
	"eddp/analizador_cfdi/internal/settings"
)

var scanCmd = &cobra.Command{
	Use:   "scan [rutas...]",
	Short: "Scan CFDI XML files and compute the period KPIs",
	Long: `Scan one or more directories (or individual XML files) of CFDIs,
classify every document against the user RFC and print the financial summary.

The RFC comes from --rfc, or from the saved settings when the flag is omitted
(see "analizador rfc set").`,
	Example: `  # Scan a directory using the saved RFC
  analizador scan ~/facturas/2024

  # Scan with an explicit RFC and export both reports
  analizador scan --rfc XAXX010101000 --excel reporte.xlsx --pdf reporte.pdf ~/facturas`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().String("rfc", "", "RFC of the user the documents are classified against")
	scanCmd.Flags().String("excel", "", "Write the Excel workbook to this path (relative paths land in EXPORT_DIR)")
	scanCmd.Flags().String("pdf", "", "Write the PDF report to this path (relative paths land in EXPORT_DIR)")
}

func runScan(cmd *cobra.Command, args []string) error {
	rfcFlag, _ := cmd.Flags().GetString("rfc")
	excelPath, _ := cmd.Flags().GetString("excel")
	pdfPath, _ := cmd.Flags().GetString("pdf")

	rfc, err := resolveRFC(rfcFlag)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.App.Name, cfg.Log.Level, cfg.App.Environment)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	run, err := scanner.New(log).Start(ctx, args, rfc)
	if err != nil {
		return fmt.Errorf("start scan: %w", err)
	}
	fmt.Printf("Escaneando %d archivos...\n", run.Total())

	for p := range run.Progress() {
		fmt.Printf("\r%d/%d procesados (%d inválidos, %d duplicados)",
			p.Procesados, p.Total, p.Invalidos, p.Duplicados)
	}
	fmt.Println()

	res := <-run.Result()
	if res.Canceled {
		fmt.Println("Escaneo cancelado.")
	}

	snap := kpi.Aggregate(res.CFDIs, res.Invalidos, res.Duplicados, res.CFDI33)
	printSummary(rfc, snap)

	if excelPath != "" {
		excelPath = resolveExportPath(cfg.Export.Dir, excelPath)
		if err := export.WriteExcel(excelPath, res.CFDIs, snap); err != nil {
			return fmt.Errorf("export excel: %w", err)
		}
		fmt.Printf("Excel escrito en %s\n", excelPath)
	}
	if pdfPath != "" {
		pdfPath = resolveExportPath(cfg.Export.Dir, pdfPath)
		if err := export.WritePDF(pdfPath, rfc, res.CFDIs, snap, time.Now()); err != nil {
			return fmt.Errorf("export pdf: %w", err)
		}
		fmt.Printf("PDF escrito en %s\n", pdfPath)
	}
	return nil
}

// resolveExportPath places relative export paths under the configured
// export directory; absolute paths are used as given.
func resolveExportPath(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// resolveRFC prefers the flag, then the saved settings.
func resolveRFC(flag string) (string, error) {
	if flag != "" {
		rfc := cfdi.NormalizarRFC(flag)
		if !cfdi.ValidarRFC(rfc) {
			return "", fmt.Errorf("RFC inválido: %q", flag)
		}
		return rfc, nil
	}

	store, err := settings.NewStore()
	if err != nil {
		return "", fmt.Errorf("open settings: %w", err)
	}
	saved, err := store.Load()
	if err != nil {
		return "", fmt.Errorf("load settings: %w", err)
	}
	if saved.RFC == "" {
		return "", fmt.Errorf("no RFC configured: pass --rfc or run \"analizador rfc set\"")
	}
	return saved.RFC, nil
}

func printSummary(rfc string, snap kpi.Snapshot) {
	fmt.Printf("\nResumen para %s\n", rfc)
	fmt.Printf("  Total Ingresos:     %s\n", export.Money(snap.TotalIngresos))
	fmt.Printf("  Total Egresos:      %s\n", export.Money(snap.TotalEgresos))
	fmt.Printf("  Neto:               %s\n", export.Money(snap.Neto))
	fmt.Printf("  IVA Trasladado:     %s\n", export.Money(snap.IVATrasladado))
	fmt.Printf("  ISR Retenido:       %s\n", export.Money(snap.ISRRetenido))
	fmt.Printf("  IVA Retenido:       %s\n", export.Money(snap.IVARetenido))
	fmt.Printf("  IEPS:               %s\n", export.Money(snap.IEPS))
	fmt.Printf("  CFDIs clasificados: %d\n", snap.ConteoCFDI)
	fmt.Printf("  Calidad: %d inválidos, %d duplicados, %d CFDI 3.3\n",
		snap.Calidad.Invalidos, snap.Calidad.Duplicados, snap.Calidad.CFDI33)
}
