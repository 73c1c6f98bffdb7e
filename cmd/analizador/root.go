package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "analizador",
	Short: "Analizador de CFDIs - clasificación y KPIs de facturas SAT",
	Long: `Analizador de CFDIs procesa lotes de facturas electrónicas (CFDI 3.3 y 4.0),
las clasifica como ingresos o egresos respecto al RFC del usuario y calcula
los indicadores financieros del periodo.

Los resultados pueden exportarse a Excel y PDF, o servirse por HTTP con el
subcomando serve.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
