// Package tui is the bubbletea terminal front-end: a profiles screen and a browser over the cached catalog.
package tui

import (
	"context"
	"fmt"
	"strings"

	"vsmm/internal/domain"
	"vsmm/internal/tui/views"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Backend is the part of the core service the TUI drives
type Backend interface {
	LoadCache(ctx context.Context) (*domain.ModCacheSnapshot, error)
	SearchMods(text, tag string) []domain.ModMetadata
	ListProfiles() []*domain.Profile
	CreateProfile(name, description string) (*domain.Profile, error)
	DeleteProfile(ctx context.Context, name string, force bool) (bool, error)
	AddModToProfile(ctx context.Context, profileName string, modID int, version string) (domain.ProfileModEntry, error)
	RemoveModFromProfile(ctx context.Context, profileName string, modID int, version string) (bool, error)
	DeployProfile(ctx context.Context, name string) error
	UndeployProfile(ctx context.Context, name string) error
}

// ViewType represents different screens in the TUI
type ViewType int

const (
	ViewProfiles ViewType = iota
	ViewModBrowser
)

// NavigateMsg is sent to change views
type NavigateMsg struct {
	View ViewType
}

// ErrorMsg is sent when an error occurs
type ErrorMsg struct {
	Err error
}

// loadedMsg carries fresh state from the backend
type loadedMsg struct {
	profiles []*domain.Profile
	modCount int
	err      error
}

// opDoneMsg reports the end of a backend operation
type opDoneMsg struct {
	status string
	err    error
}

// App is the main TUI application model
type App struct {
	backend     Backend
	ctx         context.Context
	keys        *KeyMap
	currentView ViewType
	width       int
	height      int
	showHelp    bool
	busy        bool
	status      string
	modCount    int
	err         error

	profiles views.Profiles
	browser  views.ModBrowser
}

// NewApp creates a new TUI application. Operations run under ctx.
func NewApp(ctx context.Context, backend Backend, keyMode string) App {
	return App{
		backend:     backend,
		ctx:         ctx,
		keys:        NewKeyMap(keyMode),
		currentView: ViewProfiles,
		width:       80,
		height:      24,
		profiles:    views.NewProfiles(nil),
		browser:     views.NewModBrowser(),
	}
}

// CurrentView returns the current view type
func (a App) CurrentView() ViewType {
	return a.currentView
}

// Status returns the last status line
func (a App) Status() string {
	return a.status
}

// Err returns the last error shown
func (a App) Err() error {
	return a.err
}

// Busy reports whether an operation is in flight
func (a App) Busy() bool {
	return a.busy
}

// Init implements tea.Model
func (a App) Init() tea.Cmd {
	return tea.Batch(a.browser.Init(), a.load(true))
}

// load reads profiles (and the catalog when withCache is set) from the backend
func (a App) load(withCache bool) tea.Cmd {
	backend, ctx := a.backend, a.ctx
	return func() tea.Msg {
		if backend == nil {
			return loadedMsg{}
		}
		msg := loadedMsg{modCount: -1}
		if withCache {
			snap, err := backend.LoadCache(ctx)
			if err != nil {
				msg.err = err
			} else {
				msg.modCount = len(snap.Mods)
			}
		}
		msg.profiles = backend.ListProfiles()
		return msg
	}
}

// run executes op off the update loop and reports its outcome
func (a App) run(status string, op func() (string, error)) (App, tea.Cmd) {
	if a.busy || a.backend == nil {
		return a, nil
	}
	a.busy = true
	a.status = status
	a.err = nil
	return a, func() tea.Msg {
		done, err := op()
		return opDoneMsg{status: done, err: err}
	}
}

// typing reports whether keys belong to a text input
func (a App) typing() bool {
	if a.profiles.IsCreating() {
		return true
	}
	return a.currentView == ViewModBrowser && a.browser.IsSearchFocused()
}

// Update implements tea.Model
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		p, _ := a.profiles.Update(msg)
		b, _ := a.browser.Update(msg)
		a.profiles, a.browser = p.(views.Profiles), b.(views.ModBrowser)
		return a, nil

	case NavigateMsg:
		a.currentView = msg.View
		return a, nil

	case ErrorMsg:
		a.err = msg.Err
		return a, nil

	case loadedMsg:
		a.profiles = a.profiles.SetProfiles(msg.profiles)
		a.syncTarget()
		if msg.modCount >= 0 {
			a.modCount = msg.modCount
		}
		if msg.err != nil {
			a.err = msg.err
		}
		return a, nil

	case opDoneMsg:
		a.busy = false
		a.status = msg.status
		a.err = msg.err
		return a, a.load(false)

	case views.SearchMsg:
		backend := a.backend
		return a, func() tea.Msg {
			if backend == nil {
				return views.SearchResultsMsg{}
			}
			return views.SearchResultsMsg{Mods: backend.SearchMods(msg.Query, "")}
		}

	case views.SearchResultsMsg, views.SearchErrorMsg:
		b, cmd := a.browser.Update(msg)
		a.browser = b.(views.ModBrowser)
		return a, cmd

	case views.DeployProfileMsg:
		return a.run(fmt.Sprintf("Deploying %s...", msg.Name), func() (string, error) {
			if err := a.backend.DeployProfile(a.ctx, msg.Name); err != nil {
				return "", err
			}
			return fmt.Sprintf("Deployed %s", msg.Name), nil
		})

	case views.UndeployProfileMsg:
		return a.run(fmt.Sprintf("Undeploying %s...", msg.Name), func() (string, error) {
			if err := a.backend.UndeployProfile(a.ctx, msg.Name); err != nil {
				return "", err
			}
			return fmt.Sprintf("Undeployed %s", msg.Name), nil
		})

	case views.CreateProfileMsg:
		return a.run("", func() (string, error) {
			if _, err := a.backend.CreateProfile(msg.Name, ""); err != nil {
				return "", err
			}
			return fmt.Sprintf("Created %s", msg.Name), nil
		})

	case views.DeleteProfileMsg:
		return a.run("", func() (string, error) {
			if _, err := a.backend.DeleteProfile(a.ctx, msg.Name, false); err != nil {
				return "", err
			}
			return fmt.Sprintf("Deleted %s", msg.Name), nil
		})

	case views.AddModMsg:
		return a.run(fmt.Sprintf("Adding %s to %s...", msg.Name, msg.Profile), func() (string, error) {
			entry, err := a.backend.AddModToProfile(a.ctx, msg.Profile, msg.ModID, "")
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Added %s %s to %s", entry.Name, entry.Version, msg.Profile), nil
		})

	case views.RemoveModMsg:
		return a.run("", func() (string, error) {
			if _, err := a.backend.RemoveModFromProfile(a.ctx, msg.Profile, msg.ModID, msg.Version); err != nil {
				return "", err
			}
			return fmt.Sprintf("Removed mod %d %s from %s", msg.ModID, msg.Version, msg.Profile), nil
		})
	}

	return a.updateCurrentView(msg)
}

func (a App) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return a, tea.Quit
	}
	if a.typing() {
		return a.updateCurrentView(msg)
	}

	switch {
	case a.keys.IsQuit(msg):
		return a, tea.Quit

	case a.keys.IsHelp(msg):
		a.showHelp = !a.showHelp
		return a, nil

	case a.showHelp && a.keys.IsCancel(msg):
		a.showHelp = false
		return a, nil

	case a.keys.IsNextView(msg):
		a.currentView = (a.currentView + 1) % 2
		return a, nil
	}

	switch msg.String() {
	case "1":
		a.currentView = ViewProfiles
		return a, nil
	case "2":
		a.currentView = ViewModBrowser
		return a, nil
	}

	return a.updateCurrentView(msg)
}

func (a App) updateCurrentView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var m tea.Model

	switch a.currentView {
	case ViewProfiles:
		m, cmd = a.profiles.Update(msg)
		a.profiles = m.(views.Profiles)
		a.syncTarget()
	case ViewModBrowser:
		m, cmd = a.browser.Update(msg)
		a.browser = m.(views.ModBrowser)
	}

	return a, cmd
}

// syncTarget points the browser at the profile selected on the profiles screen
func (a *App) syncTarget() {
	target := ""
	if p := a.profiles.SelectedProfile(); p != nil {
		target = p.Name
	}
	a.browser = a.browser.SetTarget(target)
}

// View implements tea.Model
func (a App) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("205")).
		MarginBottom(1)

	tabStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	activeTabStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("205")).
		Bold(true)

	header := titleStyle.Render("vsmm - Vintage Story Mod Manager")

	tabs := []string{"[1]Profiles", "[2]Browse"}
	var tabBar strings.Builder
	for i, tab := range tabs {
		if ViewType(i) == a.currentView {
			tabBar.WriteString(activeTabStyle.Render(tab) + "  ")
		} else {
			tabBar.WriteString(tabStyle.Render(tab) + "  ")
		}
	}
	if a.modCount > 0 {
		tabBar.WriteString(tabStyle.Render(fmt.Sprintf("(%d mods cached)", a.modCount)))
	}

	content := a.renderCurrentView()
	if a.showHelp {
		content = a.keys.FullHelp()
	}

	statusLine := ""
	switch {
	case a.err != nil:
		statusLine = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(fmt.Sprintf("Error: %v", a.err))
	case a.status != "":
		statusLine = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Render(a.status)
	}

	footerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		MarginTop(1)
	footer := footerStyle.Render(a.keys.NavigationHelp() + "  tab: switch  q: quit  ?: help")

	return fmt.Sprintf("%s\n%s\n\n%s\n\n%s\n%s", header, tabBar.String(), content, statusLine, footer)
}

func (a App) renderCurrentView() string {
	switch a.currentView {
	case ViewProfiles:
		return a.profiles.View()
	case ViewModBrowser:
		return a.browser.View()
	default:
		return "Unknown view"
	}
}

// Run starts the TUI application
func Run(ctx context.Context, backend Backend, keyMode string) error {
	app := NewApp(ctx, backend, keyMode)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
