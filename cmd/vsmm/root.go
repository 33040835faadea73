package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"vsmm/internal/core"
	"vsmm/internal/logger"
	"vsmm/internal/storage/config"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// ErrCancelled is returned when the user interrupts an operation.
// When returned from a command, Execute exits with code 2.
var ErrCancelled = errors.New("cancelled")

var (
	version = "0.3.0"

	// Global flags
	configDir  string
	dataDir    string
	verbose    bool
	jsonOutput bool
	noColor    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vsmm",
	Short: "Vintage Story Mod Manager - profiles of mods deployed into the game folder",
	Long: `vsmm keeps a local copy of the Vintage Story mod database, downloads mod
archives, and deploys named profiles of mods into the game's Mods folder.

Only one profile is deployed at a time. Run 'vsmm --help' for available commands.`,
	Version:       version,
	SilenceUsage:  true, // Runtime errors should not print usage
	SilenceErrors: true, // We handle error output in Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "config directory (default: ~/.config/vsmm)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "data directory (default: ~/.local/share/vsmm)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug log on stderr)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format (cache list, profile list/show/updates, status, history)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// colorEnabled respects --no-color and the NO_COLOR convention (https://no-color.org)
func colorEnabled() bool {
	if noColor {
		return false
	}
	return os.Getenv("NO_COLOR") == ""
}

var (
	greenStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	redStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	yellowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	boldStyle   = lipgloss.NewStyle().Bold(true)
)

func paint(style lipgloss.Style, s string) string {
	if !colorEnabled() {
		return s
	}
	return style.Render(s)
}

func colorGreen(s string) string  { return paint(greenStyle, s) }
func colorRed(s string) string    { return paint(redStyle, s) }
func colorYellow(s string) string { return paint(yellowStyle, s) }
func colorBold(s string) string   { return paint(boldStyle, s) }

// Execute runs the root command. Exit codes: 0 = success, 1 = error, 2 = interrupted.
// When --json is set and an error occurs, prints {"error":"..."} to stdout before exiting.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "Interrupted.")
			os.Exit(2)
		}
		if jsonOutput {
			fmt.Printf(`{"error":%q}`+"\n", err.Error())
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// resolveConfigDir returns --config or ~/.config/vsmm
func resolveConfigDir() (string, error) {
	if configDir != "" {
		return configDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home directory: %w", err)
	}
	return filepath.Join(home, ".config", "vsmm"), nil
}

// loadSettings reads config.yaml and applies the directory flags
func loadSettings() (*config.Settings, string, error) {
	dir, err := resolveConfigDir()
	if err != nil {
		return nil, "", err
	}
	settings, err := config.Load(dir)
	if err != nil {
		return nil, "", err
	}
	if dataDir != "" {
		settings.DataDir = dataDir
	}
	return settings, dir, nil
}

// session is a service plus the log file it writes to
type session struct {
	*core.Service
	closeLog func()
}

// Close closes the service and flushes the log
func (s *session) Close() error {
	err := s.Service.Close()
	s.closeLog()
	return err
}

// initService creates and initializes the core service. Download progress goes to progressOut.
func initService(progressOut io.Writer) (*session, error) {
	settings, _, err := loadSettings()
	if err != nil {
		return nil, err
	}

	opts := logger.Options{Level: settings.LogLevel, File: settings.LogFile()}
	if verbose {
		opts.Console = os.Stderr
	}
	log, closeLog, err := logger.New(opts)
	if err != nil {
		return nil, err
	}

	cfg := core.ServiceConfig{Settings: settings, Logger: log}
	if progressOut != nil && !jsonOutput {
		cfg.Progress = progressPrinter(progressOut)
	}

	svc, err := core.NewService(cfg)
	if err != nil {
		closeLog()
		return nil, err
	}
	return &session{Service: svc, closeLog: closeLog}, nil
}

// printJSON writes v as indented JSON
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	return nil
}

// truncate shortens s to maxLen, marking the cut with "..."
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
