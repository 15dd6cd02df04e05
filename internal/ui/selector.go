package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/spotexport/internal/models"
)

// PickerSelector runs a [Picker] as a full bubbletea program. It satisfies tasks.Selector.
type PickerSelector struct {
	opts []tea.ProgramOption
}

// NewPickerSelector creates a [PickerSelector]; opts are passed to [tea.NewProgram].
func NewPickerSelector(opts ...tea.ProgramOption) *PickerSelector {
	return &PickerSelector{opts: opts}
}

// Select blocks until the user confirms or cancels.
func (s *PickerSelector) Select(playlists []models.PlaylistSummary) ([]models.PlaylistSummary, error) {
	final, err := tea.NewProgram(NewPicker(playlists), s.opts...).Run()
	if err != nil {
		return nil, fmt.Errorf("playlist picker failed: %w", err)
	}

	picker, ok := final.(*Picker)
	if !ok {
		return nil, fmt.Errorf("playlist picker returned unexpected model %T", final)
	}
	return picker.Result()
}
