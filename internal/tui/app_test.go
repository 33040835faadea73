package tui_test

import (
	"context"
	"errors"
	"testing"

	"vsmm/internal/domain"
	"vsmm/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend records calls and keeps profiles in memory
type fakeBackend struct {
	profiles  []*domain.Profile
	mods      []domain.ModMetadata
	deployErr error
	calls     []string
}

func (b *fakeBackend) LoadCache(ctx context.Context) (*domain.ModCacheSnapshot, error) {
	return &domain.ModCacheSnapshot{Mods: b.mods}, nil
}

func (b *fakeBackend) SearchMods(text, tag string) []domain.ModMetadata {
	b.calls = append(b.calls, "search:"+text)
	return b.mods
}

func (b *fakeBackend) ListProfiles() []*domain.Profile {
	return b.profiles
}

func (b *fakeBackend) CreateProfile(name, description string) (*domain.Profile, error) {
	b.calls = append(b.calls, "create:"+name)
	p := &domain.Profile{Name: name}
	b.profiles = append(b.profiles, p)
	return p, nil
}

func (b *fakeBackend) DeleteProfile(ctx context.Context, name string, force bool) (bool, error) {
	b.calls = append(b.calls, "delete:"+name)
	return true, nil
}

func (b *fakeBackend) AddModToProfile(ctx context.Context, profileName string, modID int, version string) (domain.ProfileModEntry, error) {
	b.calls = append(b.calls, "add:"+profileName)
	return domain.ProfileModEntry{ModID: modID, Name: "Carry On", Version: "1.1.0"}, nil
}

func (b *fakeBackend) RemoveModFromProfile(ctx context.Context, profileName string, modID int, version string) (bool, error) {
	b.calls = append(b.calls, "remove:"+profileName+":"+version)
	return true, nil
}

func (b *fakeBackend) DeployProfile(ctx context.Context, name string) error {
	b.calls = append(b.calls, "deploy:"+name)
	return b.deployErr
}

func (b *fakeBackend) UndeployProfile(ctx context.Context, name string) error {
	b.calls = append(b.calls, "undeploy:"+name)
	return nil
}

func newBackend() *fakeBackend {
	return &fakeBackend{
		profiles: []*domain.Profile{{Name: "Default", Active: true}, {Name: "survival"}},
		mods:     []domain.ModMetadata{{ModID: 12, Name: "Carry On", Author: "copygirl"}},
	}
}

// drive feeds msg to the app and then every message its commands produce
func drive(t *testing.T, app tea.Model, msg tea.Msg) tui.App {
	t.Helper()
	queue := []tea.Msg{msg}
	for i := 0; len(queue) > 0 && i < 20; i++ {
		next := queue[0]
		queue = queue[1:]
		var cmd tea.Cmd
		app, cmd = app.Update(next)
		if cmd == nil {
			continue
		}
		if out := cmd(); out != nil {
			if _, isBatch := out.(tea.BatchMsg); !isBatch {
				queue = append(queue, out)
			}
		}
	}
	return app.(tui.App)
}

// typeText sends runes without running the cursor blink commands they return
func typeText(app tui.App, text string) tui.App {
	var model tea.Model = app
	for _, r := range text {
		model, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return model.(tui.App)
}

// loaded returns an app that has processed its initial load
func loaded(t *testing.T, b *fakeBackend) tui.App {
	t.Helper()
	app := tui.NewApp(context.Background(), b, "vim")
	var model tea.Model = app
	switch msg := app.Init()().(type) {
	case tea.BatchMsg:
		for _, cmd := range msg {
			if cmd != nil {
				model, _ = model.Update(cmd())
			}
		}
	default:
		model, _ = model.Update(msg)
	}
	return model.(tui.App)
}

func TestNewApp_InitialState(t *testing.T) {
	app := tui.NewApp(context.Background(), nil, "")

	assert.Equal(t, tui.ViewProfiles, app.CurrentView())
	assert.Contains(t, app.View(), "No profiles")
}

func TestApp_NavigateToView(t *testing.T) {
	app := tui.NewApp(context.Background(), nil, "")

	newApp, _ := app.Update(tui.NavigateMsg{View: tui.ViewModBrowser})
	assert.Equal(t, tui.ViewModBrowser, newApp.(tui.App).CurrentView())

	newApp, _ = newApp.Update(tea.KeyMsg{Type: tea.KeyEsc})
	newApp, _ = newApp.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, tui.ViewProfiles, newApp.(tui.App).CurrentView())
}

func TestApp_QuitOnQ(t *testing.T) {
	app := tui.NewApp(context.Background(), nil, "")

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	_, isQuit := cmd().(tea.QuitMsg)
	assert.True(t, isQuit)
}

func TestApp_QTypesIntoSearch(t *testing.T) {
	app := tui.NewApp(context.Background(), nil, "")
	newApp, _ := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'2'}})
	require.Equal(t, tui.ViewModBrowser, newApp.(tui.App).CurrentView())

	// The cursor blink command is not run here; it only waits
	newApp, _ = newApp.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	assert.Equal(t, tui.ViewModBrowser, newApp.(tui.App).CurrentView())
	assert.Contains(t, newApp.View(), "Search (esc to exit)")

	_, cmd := newApp.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	_, isQuit := cmd().(tea.QuitMsg)
	assert.True(t, isQuit)
}

func TestApp_HelpToggle(t *testing.T) {
	app := tui.NewApp(context.Background(), nil, "")
	newApp, _ := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}})
	assert.Contains(t, newApp.View(), "Toggle help")
	newApp, _ = newApp.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.NotContains(t, newApp.View(), "Toggle help")
}

func TestApp_LoadsProfilesAndCache(t *testing.T) {
	app := loaded(t, newBackend())

	view := app.View()
	assert.Contains(t, view, "survival")
	assert.Contains(t, view, "[deployed]")
	assert.Contains(t, view, "1 mods cached")
}

func TestApp_DeploySelectedProfile(t *testing.T) {
	b := newBackend()
	app := loaded(t, b)

	app = drive(t, app, tea.KeyMsg{Type: tea.KeyDown})
	app = drive(t, app, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Contains(t, b.calls, "deploy:survival")
	assert.Equal(t, "Deployed survival", app.Status())
	assert.NoError(t, app.Err())
	assert.False(t, app.Busy())
}

func TestApp_DeployFailureIsShown(t *testing.T) {
	b := newBackend()
	b.deployErr = &domain.DeployError{Profile: "survival", Cause: errors.New("disk full")}
	app := loaded(t, b)

	app = drive(t, app, tea.KeyMsg{Type: tea.KeyDown})
	app = drive(t, app, tea.KeyMsg{Type: tea.KeyEnter})

	require.Error(t, app.Err())
	assert.ErrorIs(t, app.Err(), domain.ErrDeployFailed)
	assert.Contains(t, app.View(), "disk full")
}

func TestApp_SearchAndAddToSelectedProfile(t *testing.T) {
	b := newBackend()
	app := loaded(t, b)

	app = drive(t, app, tea.KeyMsg{Type: tea.KeyDown}) // select survival
	app = drive(t, app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'2'}})
	app = typeText(app, "carry")
	app = drive(t, app, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Contains(t, b.calls, "search:carry")

	app = drive(t, app, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Contains(t, b.calls, "add:survival")
	assert.Equal(t, "Added Carry On 1.1.0 to survival", app.Status())
}

func TestApp_CreateAndDeleteProfile(t *testing.T) {
	b := newBackend()
	app := loaded(t, b)

	app = drive(t, app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})
	app = typeText(app, "pvp")
	app = drive(t, app, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Contains(t, b.calls, "create:pvp")
	assert.Contains(t, app.View(), "pvp")

	app = drive(t, app, tea.KeyMsg{Type: tea.KeyDown})
	app = drive(t, app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}})
	assert.Contains(t, b.calls, "delete:survival")
}
