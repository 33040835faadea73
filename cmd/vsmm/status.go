package main

import (
	"fmt"
	"text/tabwriter"

	"vsmm/internal/domain"

	"github.com/spf13/cobra"
)

var historyLimit int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what is deployed",
	Long: `Show the deployed profile and every archive placed in the game folder,
including leftovers from failed deploys and entries whose file has gone missing.

Examples:
  vsmm status
  vsmm status --json`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent deploy and undeploy runs",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of runs to show (0 for all)")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(historyCmd)
}

type statusJSON struct {
	ActiveProfile string                   `json:"activeProfile"`
	ModsDir       string                   `json:"modsDir"`
	Deployed      []domain.DeployedArchive `json:"deployed"`
	Orphans       []domain.DeployedArchive `json:"orphans"`
	Missing       []domain.ProfileModEntry `json:"missing"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	service, err := initService(nil)
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	report, err := service.Status()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	modsDir := service.Settings().ModsPath()

	if jsonOutput {
		return printJSON(out, statusJSON{
			ActiveProfile: report.ActiveProfile,
			ModsDir:       modsDir,
			Deployed:      nonNil(report.Deployed),
			Orphans:       nonNil(report.Orphans),
			Missing:       nonNilEntries(report.Missing),
		})
	}

	if modsDir == "" {
		fmt.Fprintln(out, colorYellow("No game folder configured. Set one with 'vsmm config set game_dir <path>'."))
	} else {
		fmt.Fprintf(out, "Game mods folder: %s\n", modsDir)
	}
	if report.ActiveProfile == "" {
		fmt.Fprintln(out, "Active profile: none")
	} else {
		fmt.Fprintf(out, "Active profile: %s\n", colorBold(report.ActiveProfile))
	}

	if len(report.Deployed) > 0 {
		fmt.Fprintln(out)
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ARCHIVE\tMOD\tVERSION\tPRESENT")
		fmt.Fprintln(w, "-------\t---\t-------\t-------")
		for _, d := range report.Deployed {
			present := colorGreen("yes")
			if !d.Present {
				present = colorRed("no")
			}
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", truncate(d.ArchiveName, 40), d.ModID, d.Version, present)
		}
		w.Flush()
	}

	if len(report.Missing) > 0 {
		fmt.Fprintf(out, "\n%s %d mod(s) missing from the game folder; redeploy to restore:\n", colorRed("!"), len(report.Missing))
		for _, m := range report.Missing {
			fmt.Fprintf(out, "  - %s %s (%s)\n", m.Name, m.Version, m.ArchiveName)
		}
	}
	if len(report.Orphans) > 0 {
		fmt.Fprintf(out, "\n%s %d file(s) left by other profiles:\n", colorYellow("!"), len(report.Orphans))
		for _, o := range report.Orphans {
			fmt.Fprintf(out, "  - %s (from %s)\n", o.ArchiveName, o.Profile)
		}
	}
	return nil
}

func nonNil(a []domain.DeployedArchive) []domain.DeployedArchive {
	if a == nil {
		return []domain.DeployedArchive{}
	}
	return a
}

func nonNilEntries(e []domain.ProfileModEntry) []domain.ProfileModEntry {
	if e == nil {
		return []domain.ProfileModEntry{}
	}
	return e
}

func runHistory(cmd *cobra.Command, args []string) error {
	service, err := initService(nil)
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	runs, err := service.History(historyLimit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if jsonOutput {
		if runs == nil {
			runs = []domain.DeployRun{}
		}
		return printJSON(out, runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No deploys yet.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tKIND\tPROFILE\tSTATUS\tMESSAGE")
	fmt.Fprintln(w, "-------\t----\t-------\t------\t-------")
	for _, r := range runs {
		status := r.Status
		switch r.Status {
		case "succeeded":
			status = colorGreen(status)
		case "failed":
			status = colorRed(status)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.Started, r.Kind, r.Profile, status, truncate(r.Message, 60))
	}
	w.Flush()
	return nil
}
