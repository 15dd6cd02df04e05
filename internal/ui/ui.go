package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/spotexport/internal/models"
	"github.com/desertthunder/spotexport/internal/shared"
)

// chromeLines is the number of lines the title, filter and help take around the rows.
const chromeLines = 6

// Picker is a multi-select checklist over a playlist listing.
type Picker struct {
	playlists []models.PlaylistSummary
	visible   []int // indices into playlists
	cursor    int   // index into visible
	offset    int
	selected  map[int]bool
	filter    textinput.Model
	filtering bool
	confirmed bool
	cancelled bool
	width     int
	height    int
	help      help.Model
	keys      keyMap
}

var _ tea.Model = (*Picker)(nil)

// NewPicker creates a [Picker] with nothing selected.
func NewPicker(playlists []models.PlaylistSummary) *Picker {
	filter := textinput.New()
	filter.Prompt = "Filter: "
	filter.Placeholder = "playlist name"

	h := help.New()
	h.Styles.ShortDesc = styles.help

	return &Picker{
		playlists: playlists,
		visible:   matchPlaylists(playlists, ""),
		selected:  make(map[int]bool),
		filter:    filter,
		help:      h,
		keys:      newKeyMap(),
	}
}

func (m *Picker) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.scroll()
		return m, nil

	case tea.KeyMsg:
		if m.filtering {
			return m.handleFilterKeys(msg)
		}
		return m.handleListKeys(msg)
	}

	return m, nil
}

func (m *Picker) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		m.cancelled = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		m.confirmed = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.down):
		if m.cursor < len(m.visible)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.toggle):
		if idx, ok := m.current(); ok {
			m.selected[idx] = !m.selected[idx]
		}
	case key.Matches(msg, m.keys.all):
		m.toggleAll()
	case key.Matches(msg, m.keys.filter):
		m.filtering = true
		return m, m.filter.Focus()
	}

	m.scroll()
	return m, nil
}

func (m *Picker) handleFilterKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.filtering = false
		m.filter.Blur()
		return m, nil
	case tea.KeyEsc:
		m.filtering = false
		m.filter.Blur()
		m.filter.Reset()
		m.applyFilter()
		return m, nil
	case tea.KeyCtrlC:
		m.cancelled = true
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyFilter()
	return m, cmd
}

// toggleAll selects every visible row, or clears them when they are all selected already.
func (m *Picker) toggleAll() {
	all := len(m.visible) > 0
	for _, idx := range m.visible {
		if !m.selected[idx] {
			all = false
			break
		}
	}
	for _, idx := range m.visible {
		m.selected[idx] = !all
	}
}

func (m *Picker) applyFilter() {
	m.visible = matchPlaylists(m.playlists, m.filter.Value())
	m.cursor = 0
	m.offset = 0
}

func (m *Picker) current() (int, bool) {
	if m.cursor < 0 || m.cursor >= len(m.visible) {
		return 0, false
	}
	return m.visible[m.cursor], true
}

// rows is how many playlist rows fit on screen. Zero height shows all of them.
func (m *Picker) rows() int {
	if m.height <= chromeLines {
		return len(m.visible)
	}
	return m.height - chromeLines
}

// scroll keeps the cursor inside the rendered window.
func (m *Picker) scroll() {
	n := m.rows()
	if n <= 0 {
		return
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+n {
		m.offset = m.cursor - n + 1
	}
}

// Result returns the chosen playlists in listing order.
//
// Confirming with nothing toggled picks the highlighted row. Quitting without confirming
// returns [shared.ErrSelectionCancelled].
func (m *Picker) Result() ([]models.PlaylistSummary, error) {
	if m.cancelled || !m.confirmed {
		return nil, shared.ErrSelectionCancelled
	}

	chosen := []models.PlaylistSummary{}
	for i, pl := range m.playlists {
		if m.selected[i] {
			chosen = append(chosen, pl)
		}
	}
	if len(chosen) == 0 {
		if idx, ok := m.current(); ok {
			chosen = append(chosen, m.playlists[idx])
		}
	}
	return chosen, nil
}

// View renders the checklist.
func (m *Picker) View() string {
	var b strings.Builder

	title := fmt.Sprintf("Select playlists to export (%d selected)", m.countSelected())
	b.WriteString(styles.title.Render(title))
	b.WriteString("\n")

	if m.filtering || m.filter.Value() != "" {
		b.WriteString(m.filter.View())
		b.WriteString("\n")
	}

	if len(m.visible) == 0 {
		b.WriteString(styles.muted.Render("No playlists match"))
		b.WriteString("\n")
	}

	end := min(m.offset+m.rows(), len(m.visible))
	for i := m.offset; i < end; i++ {
		idx := m.visible[i]
		b.WriteString(m.renderRow(i == m.cursor, m.selected[idx], m.playlists[idx]))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))
	return b.String()
}

func (m *Picker) renderRow(active, checked bool, pl models.PlaylistSummary) string {
	pointer := "  "
	if active {
		pointer = styles.cursor.Render("> ")
	}

	box := "[ ] "
	label := rowLabel(pl)
	if checked {
		box = styles.selected.Render("[x] ")
		label = styles.selected.Render(label)
	}
	return pointer + box + label
}

func (m *Picker) countSelected() int {
	n := 0
	for _, on := range m.selected {
		if on {
			n++
		}
	}
	return n
}
