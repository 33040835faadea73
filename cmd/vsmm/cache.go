package main

import (
	"fmt"
	"text/tabwriter"

	"vsmm/internal/domain"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	cacheSearch string
	cacheTag    string
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the local mod catalog and archive store",
	Long: `Manage the local copy of the mod database listing and the downloaded archives.

The listing is fetched on first use and kept until 'vsmm cache refresh'.`,
}

var cacheRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch the mod listing again",
	Long: `Fetch the full mod listing from the mod database and replace the local copy.

If the fetch fails, the previous copy is kept.

Examples:
  vsmm cache refresh`,
	Args: cobra.NoArgs,
	RunE: runCacheRefresh,
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached mods",
	Long: `List mods from the local catalog copy, optionally filtered.

Examples:
  vsmm cache list
  vsmm cache list --search "carry"
  vsmm cache list --tag QoL --json`,
	Args: cobra.NoArgs,
	RunE: runCacheList,
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show catalog and archive store statistics",
	Args:  cobra.NoArgs,
	RunE:  runCacheStatus,
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete archives no profile uses",
	Long: `Delete every stored archive that is not referenced by any profile.

Examples:
  vsmm cache prune`,
	Args: cobra.NoArgs,
	RunE: runCachePrune,
}

func init() {
	cacheListCmd.Flags().StringVarP(&cacheSearch, "search", "s", "", "match name or author (case-insensitive)")
	cacheListCmd.Flags().StringVarP(&cacheTag, "tag", "t", "", "only mods carrying this tag")

	cacheCmd.AddCommand(cacheRefreshCmd)
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheStatusCmd)
	cacheCmd.AddCommand(cachePruneCmd)

	rootCmd.AddCommand(cacheCmd)
}

func runCacheRefresh(cmd *cobra.Command, args []string) error {
	service, err := initService(nil)
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	snap, err := service.RefreshCache(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %d mods cached\n", colorGreen("✓"), len(snap.Mods))
	return nil
}

type modJSON struct {
	ModID     int      `json:"modId"`
	Name      string   `json:"name"`
	Author    string   `json:"author"`
	Side      string   `json:"side"`
	Downloads int      `json:"downloads"`
	Tags      []string `json:"tags"`
}

func runCacheList(cmd *cobra.Command, args []string) error {
	service, err := initService(nil)
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	if _, err := service.LoadCache(cmd.Context()); err != nil {
		return err
	}
	mods := service.SearchMods(cacheSearch, cacheTag)
	out := cmd.OutOrStdout()

	if jsonOutput {
		rows := make([]modJSON, len(mods))
		for i, m := range mods {
			rows[i] = modJSON{ModID: m.ModID, Name: m.Name, Author: m.Author, Side: string(m.Side), Downloads: downloads(m), Tags: m.Tags}
		}
		return printJSON(out, rows)
	}

	if len(mods) == 0 {
		fmt.Fprintln(out, "No mods found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tAUTHOR\tSIDE\tDOWNLOADS")
	fmt.Fprintln(w, "--\t----\t------\t----\t---------")
	for _, m := range mods {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", m.ModID, truncate(m.Name, 40), truncate(m.Author, 20), m.Side, humanize.Comma(int64(downloads(m))))
	}
	w.Flush()

	if verbose {
		fmt.Fprintf(out, "\nTotal: %d mod(s)\n", len(mods))
	}
	return nil
}

func downloads(m domain.ModMetadata) int {
	if m.Downloads == nil {
		return 0
	}
	return *m.Downloads
}

func runCacheStatus(cmd *cobra.Command, args []string) error {
	service, err := initService(nil)
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	out := cmd.OutOrStdout()
	snap, err := service.LoadCache(cmd.Context())
	if err != nil {
		return err
	}
	archives, err := service.Archives()
	if err != nil {
		return err
	}
	var size int64
	for _, a := range archives {
		size += a.Size
	}

	fmt.Fprintf(out, "Catalog: %d mods, updated %s\n", len(snap.Mods), humanize.Time(snap.LastUpdated))
	fmt.Fprintf(out, "Archives: %d stored, %s\n", len(archives), humanize.Bytes(uint64(size)))
	fmt.Fprintf(out, "Data dir: %s\n", service.Settings().DataDir)
	return nil
}

func runCachePrune(cmd *cobra.Command, args []string) error {
	service, err := initService(nil)
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	removed, err := service.PruneArchives()
	out := cmd.OutOrStdout()
	var freed int64
	for _, a := range removed {
		freed += a.Size
		if verbose {
			fmt.Fprintf(out, "  removed %s (%s)\n", a.Name, a.Version)
		}
	}
	if err != nil {
		return err
	}
	if len(removed) == 0 {
		fmt.Fprintln(out, "Nothing to prune.")
		return nil
	}
	fmt.Fprintf(out, "%s Pruned %d archive(s), freed %s\n", colorGreen("✓"), len(removed), humanize.Bytes(uint64(freed)))
	return nil
}
