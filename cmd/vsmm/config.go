package main

import (
	"fmt"
	"text/tabwriter"

	"vsmm/internal/storage/config"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change settings",
	Long: `Show or change the settings stored in config.yaml.

Every setting can also be overridden with a VSMM_ environment variable,
e.g. VSMM_GAME_DIR=/opt/vintagestory.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Persist one setting",
	Long: `Persist one setting to config.yaml.

Examples:
  vsmm config set game_dir ~/.local/share/vintagestory
  vsmm config set deploy_method symlink
  vsmm config set http_timeout 1m`,
	Args:      cobra.ExactArgs(2),
	ValidArgs: config.Keys(),
	RunE:      runConfigSet,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)

	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	settings, dir, err := loadSettings()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, settings)
	}

	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	fmt.Fprintf(out, "# %s/config.yaml\n%s", dir, data)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\n# derived\t")
	fmt.Fprintf(w, "mods folder:\t%s\n", settings.ModsPath())
	fmt.Fprintf(w, "archives:\t%s\n", settings.ArchivesDir())
	fmt.Fprintf(w, "log:\t%s\n", settings.LogFile())
	w.Flush()
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	settings, dir, err := loadSettings()
	if err != nil {
		return err
	}
	if err := settings.Set(args[0], args[1]); err != nil {
		return err
	}
	if err := settings.Save(dir); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s = %s\n", colorGreen("✓"), args[0], args[1])
	return nil
}
