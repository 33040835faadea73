package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// KeyMap defines the global keybindings of the TUI
type KeyMap struct {
	mode string
}

// NewKeyMap creates a new keymap for the given mode ("vim" or "standard")
func NewKeyMap(mode string) *KeyMap {
	if mode == "" {
		mode = "vim"
	}
	return &KeyMap{mode: mode}
}

// Mode returns the current keybinding mode
func (k *KeyMap) Mode() string {
	return k.mode
}

// IsCancel returns true if the key is a cancel/back key
func (k *KeyMap) IsCancel(msg tea.KeyMsg) bool {
	return msg.Type == tea.KeyEsc
}

// IsQuit returns true if the key is a quit key
func (k *KeyMap) IsQuit(msg tea.KeyMsg) bool {
	return msg.String() == "q" || msg.Type == tea.KeyCtrlC
}

// IsHelp returns true if the key should show help
func (k *KeyMap) IsHelp(msg tea.KeyMsg) bool {
	return msg.String() == "?"
}

// IsNextView returns true if the key cycles to the next screen
func (k *KeyMap) IsNextView(msg tea.KeyMsg) bool {
	return msg.Type == tea.KeyTab
}

// NavigationHelp returns help text for navigation keys
func (k *KeyMap) NavigationHelp() string {
	if k.mode == "vim" {
		return "j/k: navigate  h/l: mods"
	}
	return "↑/↓: navigate  ←/→: mods"
}

// FullHelp returns complete help text
func (k *KeyMap) FullHelp() string {
	nav := `  j/k     Move down/up
  l/h     Open/close the profile's mod list
  g/G     Go to first/last profile`
	if k.mode != "vim" {
		nav = `  ↑/↓     Move up/down
  →/←     Open/close the profile's mod list
  Home    Go to first profile
  End     Go to last profile`
	}

	return `Navigation:
` + nav + `
  1/2     Profiles/Browse
  tab     Next screen

Profiles:
  enter   Deploy profile
  u       Undeploy profile
  n       New profile
  d       Delete profile (or remove mod in the mod list)

Browse:
  /       Search
  enter   Add mod to the selected profile

  ?       Toggle help
  q       Quit`
}
