package views

import (
	"fmt"
	"strings"

	"vsmm/internal/domain"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// DeployProfileMsg is sent to deploy a profile into the game folder
type DeployProfileMsg struct {
	Name string
}

// UndeployProfileMsg is sent to remove the deployed profile from the game folder
type UndeployProfileMsg struct {
	Name string
}

type DeleteProfileMsg struct {
	Name string
}

// CreateProfileMsg is sent when a new profile is named
type CreateProfileMsg struct {
	Name string
}

// RemoveModMsg is sent to take a mod version out of a profile
type RemoveModMsg struct {
	Profile string
	ModID   int
	Version string
}

// Profiles lists profiles. Right arrow opens the selected profile's mods, left goes back.
type Profiles struct {
	profiles []*domain.Profile
	cursor   int
	inMods   bool
	modRow   int
	naming   bool
	name     textinput.Model
	width    int
	height   int
}

func NewProfiles(profiles []*domain.Profile) Profiles {
	name := textinput.New()
	name.Placeholder = "Profile name..."
	name.CharLimit = 64
	name.Width = 30
	return Profiles{profiles: profiles, name: name, width: 80, height: 24}
}

// SetProfiles replaces the list, keeping the cursor on the same profile when it still exists
func (p Profiles) SetProfiles(profiles []*domain.Profile) Profiles {
	var current string
	if sel := p.SelectedProfile(); sel != nil {
		current = sel.Name
	}

	p.profiles, p.cursor = profiles, 0
	for i, prof := range profiles {
		if prof.Name == current {
			p.cursor = i
			break
		}
	}

	sel := p.SelectedProfile()
	if sel == nil || p.modRow >= len(sel.Mods) {
		p.modRow = 0
	}
	if sel == nil || len(sel.Mods) == 0 {
		p.inMods = false
	}
	return p
}

func (p Profiles) Selected() int { return p.cursor }
func (p Profiles) ProfileCount() int { return len(p.profiles) }
func (p Profiles) IsCreating() bool { return p.naming }

// InMods reports whether the cursor is in the selected profile's mod list
func (p Profiles) InMods() bool { return p.inMods }

// SelectedProfile is the profile under the cursor, or nil
func (p Profiles) SelectedProfile() *domain.Profile {
	if p.cursor < 0 || p.cursor >= len(p.profiles) {
		return nil
	}
	return p.profiles[p.cursor]
}

func (p Profiles) Init() tea.Cmd {
	return nil
}

func (p Profiles) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case p.naming:
			return p.updateName(msg)
		case p.inMods:
			return p.updateMods(msg)
		default:
			return p.updateList(msg)
		}
	case tea.WindowSizeMsg:
		p.width, p.height = msg.Width, msg.Height
	}
	return p, nil
}

func (p Profiles) closePrompt() Profiles {
	p.naming = false
	p.name.Reset()
	p.name.Blur()
	return p
}

func (p Profiles) updateName(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		return p.closePrompt(), nil
	case tea.KeyEnter:
		name := p.name.Value()
		if name == "" {
			return p, nil
		}
		return p.closePrompt(), send(CreateProfileMsg{Name: name})
	}
	var cmd tea.Cmd
	p.name, cmd = p.name.Update(msg)
	return p, cmd
}

func (p Profiles) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	profile := p.SelectedProfile()

	switch msg.String() {
	case "up", "k":
		p.cursor, p.modRow = cycle(p.cursor, -1, len(p.profiles)), 0
	case "down", "j":
		p.cursor, p.modRow = cycle(p.cursor, 1, len(p.profiles)), 0
	case "home", "g":
		p.cursor = 0
	case "end", "G":
		p.cursor = max(0, len(p.profiles)-1)
	case "right", "l":
		p.inMods = profile != nil && len(profile.Mods) > 0
	case "n":
		p.naming = true
		p.name.Focus()
		return p, textinput.Blink
	case "enter":
		if profile != nil {
			return p, send(DeployProfileMsg{Name: profile.Name})
		}
	case "u":
		// Only the deployed profile can be undeployed
		if profile != nil && profile.Active {
			return p, send(UndeployProfileMsg{Name: profile.Name})
		}
	case "d", "delete":
		if profile != nil && !profile.Active {
			return p, send(DeleteProfileMsg{Name: profile.Name})
		}
	}
	return p, nil
}

func (p Profiles) updateMods(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	profile := p.SelectedProfile()
	if profile == nil || len(profile.Mods) == 0 {
		p.inMods = false
		return p, nil
	}

	switch msg.String() {
	case "up", "k":
		p.modRow = cycle(p.modRow, -1, len(profile.Mods))
	case "down", "j":
		p.modRow = cycle(p.modRow, 1, len(profile.Mods))
	case "left", "h", "esc":
		p.inMods = false
	case "d", "delete":
		entry := profile.Mods[p.modRow]
		return p, send(RemoveModMsg{Profile: profile.Name, ModID: entry.ModID, Version: entry.Version})
	}
	return p, nil
}

func (p Profiles) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Profiles") + "\n")

	if p.naming {
		b.WriteString("New profile name: " + p.name.View() + "\n\n")
		b.WriteString(mutedStyle.Render("enter: create  esc: cancel"))
		return b.String()
	}
	if len(p.profiles) == 0 {
		b.WriteString(rowStyle.Render("No profiles.") + "\n\n")
		b.WriteString(mutedStyle.Render("Press 'n' to create a new profile.") + "\n")
		return b.String()
	}

	for i, profile := range p.profiles {
		label := profile.Name
		if profile.Active {
			label += deployedStyle.Render(" [deployed]")
		}
		b.WriteString(line(i == p.cursor, label))
		if i == p.cursor {
			p.writeMods(&b, profile)
		}
	}

	if p.inMods {
		b.WriteString(footerStyle.Render("d: remove mod  ←: back"))
	} else {
		b.WriteString(footerStyle.Render("enter: deploy  u: undeploy  n: new  d: delete  →: mods"))
	}
	return b.String()
}

func (p Profiles) writeMods(b *strings.Builder, profile *domain.Profile) {
	if profile.Description != "" {
		b.WriteString(detailStyle.Render(profile.Description) + "\n")
	}
	if len(profile.Mods) == 0 {
		b.WriteString(detailStyle.Render("No mods") + "\n")
	}
	for j, m := range profile.Mods {
		entry := fmt.Sprintf("%d. %s %s", j+1, m.Name, m.Version)
		if p.inMods && j == p.modRow {
			b.WriteString(subCursor.Render("▸ "+entry) + "\n")
		} else {
			b.WriteString(detailStyle.Render("  "+entry) + "\n")
		}
	}
	b.WriteString("\n")
}
