package views

import (
	"fmt"
	"strings"

	"vsmm/internal/domain"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
)

// maxListed caps how many results are drawn
const maxListed = 20

// SearchMsg asks for the cached mods matching Query
type SearchMsg struct {
	Query string
}

// SearchResultsMsg carries the mods matching the last search
type SearchResultsMsg struct {
	Mods []domain.ModMetadata
}

// SearchErrorMsg reports a failed search
type SearchErrorMsg struct {
	Err error
}

// AddModMsg is sent to add the newest release of a mod to the target profile
type AddModMsg struct {
	Profile string
	ModID   int
	Name    string
}

// ModBrowser searches the cached catalog and adds mods to a profile
type ModBrowser struct {
	query   textinput.Model
	typing  bool
	mods    []domain.ModMetadata
	cursor  int
	target  string
	pending bool
	lastErr error
	width   int
	height  int
}

func NewModBrowser() ModBrowser {
	q := textinput.New()
	q.Placeholder = "Search by name or author..."
	q.CharLimit = 100
	q.Width = 40
	q.Focus()
	return ModBrowser{query: q, typing: true, width: 80, height: 24}
}

// SetTarget sets the profile that added mods go to
func (m ModBrowser) SetTarget(profile string) ModBrowser {
	m.target = profile
	return m
}

func (m ModBrowser) Target() string { return m.target }
func (m ModBrowser) SearchQuery() string { return m.query.Value() }
func (m ModBrowser) IsSearchFocused() bool { return m.typing }
func (m ModBrowser) ResultCount() int { return len(m.mods) }
func (m ModBrowser) Selected() int { return m.cursor }

// SelectedMod is the mod under the cursor, or nil
func (m ModBrowser) SelectedMod() *domain.ModMetadata {
	if m.cursor < 0 || m.cursor >= len(m.mods) {
		return nil
	}
	return &m.mods[m.cursor]
}

func (m ModBrowser) Init() tea.Cmd {
	return textinput.Blink
}

func (m ModBrowser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.typing {
			return m.updateQuery(msg)
		}
		return m.updateResults(msg)
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case SearchResultsMsg:
		m.mods, m.cursor = msg.Mods, 0
		m.pending, m.lastErr = false, nil
	case SearchErrorMsg:
		m.pending, m.lastErr = false, msg.Err
	default:
		if m.typing {
			var cmd tea.Cmd
			m.query, cmd = m.query.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m ModBrowser) updateQuery(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.typing = false
		m.query.Blur()
		return m, nil
	case tea.KeyEnter:
		m.typing, m.pending = false, true
		m.query.Blur()
		return m, send(SearchMsg{Query: strings.TrimSpace(m.query.Value())})
	}
	var cmd tea.Cmd
	m.query, cmd = m.query.Update(msg)
	return m, cmd
}

func (m ModBrowser) updateResults(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "/":
		m.typing = true
		m.query.Focus()
	case "up", "k":
		m.cursor = cycle(m.cursor, -1, len(m.mods))
	case "down", "j":
		m.cursor = cycle(m.cursor, 1, len(m.mods))
	case "enter", "a":
		if mod := m.SelectedMod(); mod != nil && m.target != "" {
			return m, send(AddModMsg{Profile: m.target, ModID: mod.ModID, Name: mod.Name})
		}
	}
	return m, nil
}

func (m ModBrowser) View() string {
	var b strings.Builder

	target := m.target
	if target == "" {
		target = "none (select a profile first)"
	}
	b.WriteString(titleStyle.Render("Browse Mods") + "\n")
	b.WriteString(mutedStyle.Render("Adding to: "+target) + "\n\n")

	label := "Search: "
	if m.typing {
		label = "Search (esc to exit): "
	}
	b.WriteString(label + m.query.View() + "\n\n")

	switch {
	case m.pending:
		b.WriteString(busyStyle.Render("Searching...") + "\n")
		return b.String()
	case m.lastErr != nil:
		b.WriteString(failStyle.Render(fmt.Sprintf("Error: %v", m.lastErr)) + "\n")
		return b.String()
	case len(m.mods) == 0 && m.SearchQuery() != "":
		b.WriteString(rowStyle.Render("No mods found.") + "\n")
	case len(m.mods) == 0:
		b.WriteString(rowStyle.Render("Enter a search term and press Enter.") + "\n")
	default:
		m.writeResults(&b)
	}

	if m.typing {
		b.WriteString(footerStyle.Render("enter: search  esc: exit search"))
	} else {
		b.WriteString(footerStyle.Render("/: search  ↑/↓: navigate  enter: add to profile"))
	}
	return b.String()
}

// writeResults draws a window of at most maxListed mods that keeps the cursor visible
func (m ModBrowser) writeResults(b *strings.Builder) {
	fmt.Fprintf(b, "Found %d mods:\n\n", len(m.mods))

	start := max(0, m.cursor-maxListed+1)
	end := min(start+maxListed, len(m.mods))
	for i := start; i < end; i++ {
		mod := m.mods[i]
		b.WriteString(line(i == m.cursor, mod.Name))
		if i != m.cursor {
			continue
		}
		if mod.Author != "" {
			b.WriteString(detailStyle.Render("by "+mod.Author) + "\n")
		}
		if len(mod.Tags) > 0 {
			b.WriteString(detailStyle.Render(strings.Join(mod.Tags, ", ")) + "\n")
		}
		downloads := 0
		if mod.Downloads != nil {
			downloads = *mod.Downloads
		}
		b.WriteString(detailStyle.Render(fmt.Sprintf("ID: %d  Side: %s  Downloads: %s",
			mod.ModID, mod.Side, humanize.Comma(int64(downloads)))) + "\n\n")
	}
}
