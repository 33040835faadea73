package main

import (
	"errors"
	"fmt"
	"io"

	"vsmm/internal/domain"

	"github.com/spf13/cobra"
)

var deployCmd = &cobra.Command{
	Use:   "deploy <profile>",
	Short: "Deploy a profile into the game folder",
	Long: `Deploy a profile into the game's Mods folder.

Every archive is downloaded first; if any cannot be, the game folder is left
as it is. Otherwise the currently deployed profile is removed and the new
profile's archives are copied in order. Deploying the active profile again
resets the folder to match it.

Examples:
  vsmm deploy survival`,
	Args: cobra.ExactArgs(1),
	RunE: runDeploy,
}

var undeployCmd = &cobra.Command{
	Use:   "undeploy [profile]",
	Short: "Remove the deployed profile from the game folder",
	Long: `Remove a deployed profile's mods from the game's Mods folder.

Without a name, the active profile is undeployed.

Examples:
  vsmm undeploy
  vsmm undeploy survival`,
	Args: cobra.MaximumNArgs(1),
	RunE: runUndeploy,
}

func init() {
	rootCmd.AddCommand(deployCmd)
	rootCmd.AddCommand(undeployCmd)
}

func runDeploy(cmd *cobra.Command, args []string) error {
	service, err := initService(cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	name := args[0]
	out := cmd.OutOrStdout()
	if err := service.DeployProfile(cmd.Context(), name); err != nil {
		var derr *domain.DeployError
		if errors.As(err, &derr) && !jsonOutput {
			printDeployFailure(out, derr)
		}
		return err
	}

	p, err := service.GetProfile(name)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s Deployed %s (%d mod(s)) to %s\n", colorGreen("✓"), name, len(p.Mods), service.Settings().ModsPath())
	return nil
}

// printDeployFailure lists what happened to each entry of a failed deploy
func printDeployFailure(w io.Writer, derr *domain.DeployError) {
	for _, e := range derr.Deployed {
		fmt.Fprintf(w, "  %s %s %s\n", colorGreen("✓"), e.Name, e.Version)
	}
	for _, f := range derr.Failed {
		fmt.Fprintf(w, "  %s %s %s: %v\n", colorRed("✗"), f.Entry.Name, f.Entry.Version, f.Err)
	}
	for _, e := range derr.Skipped {
		fmt.Fprintf(w, "  %s %s %s\n", colorYellow("-"), e.Name, e.Version)
	}
	if len(derr.Deployed) > 0 {
		fmt.Fprintln(w, colorYellow("Some mods were already copied; run 'vsmm status' to see leftovers."))
	}
}

func runUndeploy(cmd *cobra.Command, args []string) error {
	service, err := initService(nil)
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	out := cmd.OutOrStdout()
	var name string
	if len(args) == 1 {
		name = args[0]
	} else {
		active, ok := service.ActiveProfile()
		if !ok {
			fmt.Fprintln(out, "No profile is deployed.")
			return nil
		}
		name = active.Name
	}

	if err := service.UndeployProfile(cmd.Context(), name); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s %s is not deployed\n", colorGreen("✓"), name)
	return nil
}
