package main

import (
	"fmt"

	"vsmm/internal/tui"

	"github.com/spf13/cobra"
)

var tuiKeys string

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Start the terminal user interface",
	Long: `Start the interactive terminal interface for browsing cached mods and
deploying profiles.

Examples:
  vsmm tui
  vsmm tui --keys standard`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().StringVar(&tuiKeys, "keys", "vim", "keybinding help style: vim or standard")

	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	if tuiKeys != "vim" && tuiKeys != "standard" {
		return fmt.Errorf("unknown key style %q (use vim or standard)", tuiKeys)
	}

	// Download progress would draw over the screen
	service, err := initService(nil)
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	return tui.Run(cmd.Context(), service, tuiKeys)
}
