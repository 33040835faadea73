package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"vsmm/internal/domain"
	"vsmm/internal/storage/config"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	profileDescription string
	profileForce       bool
	profileOutput      string
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage mod profiles",
	Long: `Manage mod profiles for organizing different mod configurations.

A profile is a named, ordered list of mod versions. Deploying a profile
replaces whatever profile is currently in the game's Mods folder.`,
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all profiles",
	Args:  cobra.NoArgs,
	RunE:  runProfileList,
}

var profileShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show the mods in a profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileShow,
}

var profileCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new profile",
	Long: `Create a new empty profile.

Examples:
  vsmm profile create survival
  vsmm profile create creative --description "building only"`,
	Args: cobra.ExactArgs(1),
	RunE: runProfileCreate,
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a profile",
	Long: `Delete a profile. Downloaded archives are kept (see 'vsmm cache prune').

The deployed profile cannot be deleted unless --force is given, in which
case its mods are removed from the game folder first.

Examples:
  vsmm profile delete old-profile
  vsmm profile delete survival --force`,
	Args: cobra.ExactArgs(1),
	RunE: runProfileDelete,
}

var profileAddCmd = &cobra.Command{
	Use:   "add <profile> <mod-id> [version]",
	Short: "Add a mod version to a profile",
	Long: `Add a mod to a profile, downloading its archive. Without a version the
newest release is used. If the profile is deployed, the mod is also placed
in the game folder.

Examples:
  vsmm profile add survival 1234
  vsmm profile add survival 1234 1.2.0`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runProfileAdd,
}

var profileRemoveCmd = &cobra.Command{
	Use:   "remove <profile> <mod-id> <version>",
	Short: "Remove a mod version from a profile",
	Args:  cobra.ExactArgs(3),
	RunE:  runProfileRemove,
}

var profileExportCmd = &cobra.Command{
	Use:   "export <name>",
	Short: "Export a profile",
	Long: `Export a profile to a portable YAML file.

Examples:
  vsmm profile export survival > survival.yaml
  vsmm profile export survival -o survival.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runProfileExport,
}

var profileImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a profile",
	Long: `Import a profile from a YAML file, downloading every mod it lists.

Examples:
  vsmm profile import survival.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runProfileImport,
}

var profileUpdatesCmd = &cobra.Command{
	Use:   "updates <name>",
	Short: "List mods with a newer release",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileUpdates,
}

func init() {
	profileCreateCmd.Flags().StringVarP(&profileDescription, "description", "d", "", "profile description")
	profileDeleteCmd.Flags().BoolVarP(&profileForce, "force", "f", false, "undeploy the profile first if it is deployed")
	profileExportCmd.Flags().StringVarP(&profileOutput, "output", "o", "", "write to file instead of stdout")

	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileCreateCmd)
	profileCmd.AddCommand(profileDeleteCmd)
	profileCmd.AddCommand(profileAddCmd)
	profileCmd.AddCommand(profileRemoveCmd)
	profileCmd.AddCommand(profileExportCmd)
	profileCmd.AddCommand(profileImportCmd)
	profileCmd.AddCommand(profileUpdatesCmd)

	rootCmd.AddCommand(profileCmd)
}

type profileJSON struct {
	Name        string                   `json:"name"`
	Description string                   `json:"description,omitempty"`
	Active      bool                     `json:"active"`
	LastUpdated string                   `json:"lastUpdated"`
	Mods        []domain.ProfileModEntry `json:"mods"`
}

func toProfileJSON(p *domain.Profile) profileJSON {
	return profileJSON{
		Name:        p.Name,
		Description: p.Description,
		Active:      p.Active,
		LastUpdated: p.LastUpdated.UTC().Format("2006-01-02T15:04:05Z"),
		Mods:        p.Mods,
	}
}

func runProfileList(cmd *cobra.Command, args []string) error {
	service, err := initService(nil)
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	profiles := service.ListProfiles()
	out := cmd.OutOrStdout()

	if jsonOutput {
		rows := make([]profileJSON, len(profiles))
		for i, p := range profiles {
			rows[i] = toProfileJSON(p)
		}
		return printJSON(out, rows)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tMODS\tUPDATED\tACTIVE")
	fmt.Fprintln(w, "----\t----\t-------\t------")
	for _, p := range profiles {
		activeMark := ""
		if p.Active {
			activeMark = colorGreen("*")
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", p.Name, len(p.Mods), humanize.Time(p.LastUpdated), activeMark)
	}
	w.Flush()
	return nil
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	service, err := initService(nil)
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	p, err := service.GetProfile(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, toProfileJSON(p))
	}

	state := "not deployed"
	if p.Active {
		state = colorGreen("deployed")
	}
	fmt.Fprintf(out, "Profile: %s (%s)\n", colorBold(p.Name), state)
	if p.Description != "" {
		fmt.Fprintf(out, "  %s\n", p.Description)
	}
	fmt.Fprintln(out)

	if len(p.Mods) == 0 {
		fmt.Fprintln(out, "No mods in this profile.")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tID\tNAME\tVERSION\tARCHIVE")
	fmt.Fprintln(w, "-\t--\t----\t-------\t-------")
	for i, m := range p.Mods {
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\n", i+1, m.ModID, truncate(m.Name, 40), m.Version, m.ArchiveName)
	}
	w.Flush()
	return nil
}

func runProfileCreate(cmd *cobra.Command, args []string) error {
	service, err := initService(nil)
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	p, err := service.CreateProfile(args[0], profileDescription)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Created profile %s\n", colorGreen("✓"), p.Name)
	return nil
}

func runProfileDelete(cmd *cobra.Command, args []string) error {
	service, err := initService(nil)
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	if _, err := service.DeleteProfile(cmd.Context(), args[0], profileForce); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Deleted profile %s\n", colorGreen("✓"), args[0])
	return nil
}

func runProfileAdd(cmd *cobra.Command, args []string) error {
	modID, err := parseModID(args[1])
	if err != nil {
		return err
	}
	version := ""
	if len(args) == 3 {
		version = args[2]
	}

	service, err := initService(cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	entry, err := service.AddModToProfile(cmd.Context(), args[0], modID, version)
	if err != nil {
		var dup *domain.DuplicateModError
		if errors.As(err, &dup) {
			return fmt.Errorf("%w; remove it first with 'vsmm profile remove %s %d %s'", err, args[0], dup.Existing.ModID, dup.Existing.Version)
		}
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Added %s %s to %s\n", colorGreen("✓"), entry.Name, entry.Version, args[0])
	return nil
}

func runProfileRemove(cmd *cobra.Command, args []string) error {
	modID, err := parseModID(args[1])
	if err != nil {
		return err
	}

	service, err := initService(nil)
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	removed, err := service.RemoveModFromProfile(cmd.Context(), args[0], modID, args[2])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if !removed {
		fmt.Fprintf(out, "Mod %d %s is not in %s.\n", modID, args[2], args[0])
		return nil
	}
	fmt.Fprintf(out, "%s Removed mod %d %s from %s\n", colorGreen("✓"), modID, args[2], args[0])
	return nil
}

func runProfileExport(cmd *cobra.Command, args []string) error {
	service, err := initService(nil)
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	data, err := service.ExportProfile(args[0])
	if err != nil {
		return err
	}
	if profileOutput == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(profileOutput, data, 0644); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Exported %s to %s\n", colorGreen("✓"), args[0], profileOutput)
	return nil
}

func runProfileImport(cmd *cobra.Command, args []string) error {
	path, err := config.ParseImportPath(args[0])
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading import file: %w", err)
	}

	service, err := initService(cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	p, err := service.ImportProfile(cmd.Context(), data)
	if p != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Imported profile %s with %d mod(s)\n", p.Name, len(p.Mods))
	}
	return err
}

type updateJSON struct {
	ModID   int    `json:"modId"`
	Name    string `json:"name"`
	Current string `json:"current"`
	Latest  string `json:"latest"`
}

func runProfileUpdates(cmd *cobra.Command, args []string) error {
	service, err := initService(nil)
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	updates, checkErr := service.CheckUpdates(cmd.Context(), args[0])
	if errors.Is(checkErr, domain.ErrProfileNotFound) {
		return checkErr
	}
	out := cmd.OutOrStdout()

	if jsonOutput {
		rows := make([]updateJSON, len(updates))
		for i, u := range updates {
			rows[i] = updateJSON{ModID: u.Entry.ModID, Name: u.Entry.Name, Current: u.Entry.Version, Latest: u.LatestVersion}
		}
		if err := printJSON(out, rows); err != nil {
			return err
		}
		return checkErr
	}

	if len(updates) == 0 {
		fmt.Fprintln(out, "All mods are up to date.")
		return checkErr
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCURRENT\tLATEST")
	fmt.Fprintln(w, "--\t----\t-------\t------")
	for _, u := range updates {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", u.Entry.ModID, truncate(u.Entry.Name, 40), u.Entry.Version, colorYellow(u.LatestVersion))
	}
	w.Flush()

	fmt.Fprintf(out, "\n%d update(s) available. Apply with 'vsmm profile remove' then 'vsmm profile add %s <id>'.\n",
		len(updates), strings.TrimSpace(args[0]))
	return checkErr
}
