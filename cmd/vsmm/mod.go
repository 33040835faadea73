package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"vsmm/internal/domain"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var modCmd = &cobra.Command{
	Use:   "mod",
	Short: "Look up mods in the mod database",
}

var modInfoCmd = &cobra.Command{
	Use:   "info <mod-id>",
	Short: "Show details of a mod",
	Long: `Show the details of a mod as published in the mod database.

Examples:
  vsmm mod info 1234`,
	Args: cobra.ExactArgs(1),
	RunE: runModInfo,
}

var modVersionsCmd = &cobra.Command{
	Use:   "versions <mod-id>",
	Short: "List the released versions of a mod",
	Long: `List every released version of a mod, newest first.

Examples:
  vsmm mod versions 1234`,
	Args: cobra.ExactArgs(1),
	RunE: runModVersions,
}

func init() {
	modCmd.AddCommand(modInfoCmd)
	modCmd.AddCommand(modVersionsCmd)

	rootCmd.AddCommand(modCmd)
}

// parseModID parses a positive numeric mod ID
func parseModID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid mod ID %q: must be a positive number", s)
	}
	return id, nil
}

func runModInfo(cmd *cobra.Command, args []string) error {
	modID, err := parseModID(args[0])
	if err != nil {
		return err
	}

	service, err := initService(nil)
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	detail, err := service.GetModDetail(cmd.Context(), modID)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), detail)
	}
	printModDetail(cmd, detail)
	return nil
}

func printModDetail(cmd *cobra.Command, d *domain.ModDetail) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (ID %d)\n", colorBold(d.Name), d.ModID)
	fmt.Fprintf(out, "  Author: %s\n", d.Author)
	fmt.Fprintf(out, "  Side: %s\n", d.Side)
	if len(d.Tags) > 0 {
		fmt.Fprintf(out, "  Tags: %s\n", strings.Join(d.Tags, ", "))
	}
	if d.Downloads != nil {
		fmt.Fprintf(out, "  Downloads: %s\n", humanize.Comma(int64(*d.Downloads)))
	}
	if d.HomepageURL != "" {
		fmt.Fprintf(out, "  Homepage: %s\n", d.HomepageURL)
	}
	if latest, ok := d.Latest(); ok {
		released := ""
		if !latest.Created.IsZero() {
			released = ", released " + humanize.Time(latest.Created)
		}
		fmt.Fprintf(out, "  Latest: %s%s\n", latest.Version, released)
	} else {
		fmt.Fprintf(out, "  Latest: %s\n", colorYellow("no downloadable releases"))
	}
	fmt.Fprintf(out, "  Releases: %d\n", len(d.Releases))
}

func runModVersions(cmd *cobra.Command, args []string) error {
	modID, err := parseModID(args[0])
	if err != nil {
		return err
	}

	service, err := initService(nil)
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	detail, err := service.GetModDetail(cmd.Context(), modID)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, detail.Releases)
	}
	if len(detail.Releases) == 0 {
		fmt.Fprintf(out, "%s has no downloadable releases.\n", detail.Name)
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tFILE\tRELEASED")
	fmt.Fprintln(w, "-------\t----\t--------")
	for _, r := range detail.Releases {
		released := "-"
		if !r.Created.IsZero() {
			released = r.Created.Format("2006-01-02")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.Version, truncate(r.FileName, 40), released)
	}
	w.Flush()
	return nil
}
