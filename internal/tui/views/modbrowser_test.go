package views_test

import (
	"testing"

	"vsmm/internal/domain"
	"vsmm/internal/tui/views"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleMods() []domain.ModMetadata {
	return []domain.ModMetadata{
		{ModID: 12, Name: "Carry On", Author: "copygirl", Side: domain.SideBoth, Tags: []string{"QoL"}},
		{ModID: 40, Name: "Prospect Info", Author: "someone", Side: domain.SideClient},
	}
}

func TestModBrowser_InitialState(t *testing.T) {
	model := views.NewModBrowser()

	assert.Equal(t, "", model.SearchQuery())
	assert.True(t, model.IsSearchFocused())
	assert.Contains(t, model.View(), "select a profile first")
}

func TestModBrowser_TypeAndSearch(t *testing.T) {
	model := views.NewModBrowser()

	var newModel tea.Model = model
	for _, r := range "carry" {
		newModel, _ = newModel.Update(key(string(r)))
	}
	assert.Equal(t, "carry", newModel.(views.ModBrowser).SearchQuery())

	newModel, cmd := newModel.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, views.SearchMsg{Query: "carry"}, cmd())
	assert.False(t, newModel.(views.ModBrowser).IsSearchFocused())
	assert.Contains(t, newModel.View(), "Searching")
}

func TestModBrowser_SetResults(t *testing.T) {
	model := views.NewModBrowser()

	newModel, _ := model.Update(views.SearchResultsMsg{Mods: sampleMods()})
	updated := newModel.(views.ModBrowser)

	assert.Equal(t, 2, updated.ResultCount())
	assert.Contains(t, updated.View(), "by copygirl")
}

func TestModBrowser_NavigateAndAdd(t *testing.T) {
	model := views.NewModBrowser().SetTarget("survival")

	newModel, _ := model.Update(views.SearchResultsMsg{Mods: sampleMods()})
	newModel, _ = newModel.Update(tea.KeyMsg{Type: tea.KeyEsc})
	newModel, _ = newModel.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, newModel.(views.ModBrowser).Selected())

	_, cmd := newModel.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, views.AddModMsg{Profile: "survival", ModID: 40, Name: "Prospect Info"}, cmd())
}

func TestModBrowser_AddNeedsTarget(t *testing.T) {
	model := views.NewModBrowser()

	newModel, _ := model.Update(views.SearchResultsMsg{Mods: sampleMods()})
	newModel, _ = newModel.Update(tea.KeyMsg{Type: tea.KeyEsc})
	_, cmd := newModel.Update(key("a"))
	assert.Nil(t, cmd)
}

func TestModBrowser_ErrorShown(t *testing.T) {
	model := views.NewModBrowser()

	newModel, _ := model.Update(views.SearchErrorMsg{Err: assert.AnError})
	assert.Contains(t, newModel.View(), assert.AnError.Error())
}
