package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"eddp/analizador_cfdi/internal/settings"
)

var rfcCmd = &cobra.Command{
	Use:   "rfc",
	Short: "Manage the saved user RFC",
}

var rfcGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the saved RFC",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		store, err := settings.NewStore()
		if err != nil {
			return err
		}
		cfg, err := store.Load()
		if err != nil {
			return err
		}
		if cfg.RFC == "" {
			fmt.Println("(sin RFC configurado)")
			return nil
		}
		fmt.Println(cfg.RFC)
		return nil
	},
}

var rfcSetCmd = &cobra.Command{
	Use:   "set [rfc]",
	Short: "Save the RFC used to classify documents",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		store, err := settings.NewStore()
		if err != nil {
			return err
		}
		if err := store.SetRFC(args[0]); err != nil {
			if errors.Is(err, settings.ErrRFCInvalido) {
				return fmt.Errorf("RFC inválido: %q", args[0])
			}
			return err
		}
		fmt.Printf("RFC guardado en %s\n", store.Path())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rfcCmd)
	rfcCmd.AddCommand(rfcGetCmd, rfcSetCmd)
}
