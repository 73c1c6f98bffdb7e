package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"eddp/analizador_cfdi/internal/settings"
)

var themeCmd = &cobra.Command{
	Use:   "theme",
	Short: "Manage the saved UI theme preference",
}

var themeGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the saved theme",
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
		fmt.Println(cfg.Theme)
		return nil
	},
}

var themeSetCmd = &cobra.Command{
	Use:   "set [system|light|dark]",
	Short: "Save the theme preference",
	Long: `Save the theme preference used by presentation front-ends.
Unrecognized values are coerced to "system".`,
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		store, err := settings.NewStore()
		if err != nil {
			return err
		}
		if err := store.SetTheme(args[0]); err != nil {
			return err
		}
		cfg, err := store.Load()
		if err != nil {
			return err
		}
		fmt.Printf("Tema %q guardado en %s\n", cfg.Theme, store.Path())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(themeCmd)
	themeCmd.AddCommand(themeGetCmd, themeSetCmd)
}
