// Package tui is the terminal front end: a searchable, incrementally loaded
// list and a detail view.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pokedex/internal/catalog"
	"pokedex/internal/loader"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Controller is the part of *loader.Loader the UI drives.
type Controller interface {
	State() loader.State
	Updates() <-chan loader.State
	LoadMore()
	SetQuery(text string)
}

type DetailFetcher interface {
	GetDetail(ctx context.Context, name string) (catalog.Detail, error)
}

type screen int

const (
	listScreen screen = iota
	detailScreen
)

type stateMsg loader.State

type updatesClosedMsg struct{}

type detailMsg struct {
	name   string
	detail catalog.Detail
	err    error
}

const detailTimeout = 20 * time.Second

type Model struct {
	ctrl    Controller
	details DetailFetcher
	styles  Styles

	input  textinput.Model
	state  loader.State
	cursor int
	offset int
	height int
	width  int

	screen        screen
	detailName    string
	detail        *catalog.Detail
	detailErr     error
	detailLoading bool
}

func New(ctrl Controller, details DetailFetcher) Model {
	ti := textinput.New()
	ti.Placeholder = "search by exact name"
	ti.Prompt = "🔍 "
	ti.CharLimit = 64
	ti.Focus()

	return Model{
		ctrl:    ctrl,
		details: details,
		styles:  DefaultStyles(),
		input:   ti,
		state:   ctrl.State(),
		height:  24,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForState(m.ctrl.Updates()))
}

func waitForState(ch <-chan loader.State) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return updatesClosedMsg{}
		}
		return stateMsg(s)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case stateMsg:
		grew := len(msg.Entries) > len(m.state.Entries)
		m.state = loader.State(msg)
		m.clampCursor()
		// Only a page that added rows may pull the next one; a failed fetch
		// waits for the user to scroll again.
		if grew {
			m.maybeLoadMore()
		}
		return m, waitForState(m.ctrl.Updates())

	case updatesClosedMsg:
		return m, nil

	case detailMsg:
		if msg.name != m.detailName {
			return m, nil
		}
		m.detailLoading = false
		m.detailErr = msg.err
		if msg.err == nil {
			d := msg.detail
			m.detail = &d
		}
		return m, nil

	case tea.KeyMsg:
		if m.screen == detailScreen {
			return m.updateDetail(msg)
		}
		return m.updateList(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyUp:
		if m.cursor > 0 {
			m.cursor--
		}
		m.scroll()
		return m, nil
	case tea.KeyDown, tea.KeyTab:
		if m.cursor < len(m.state.Entries)-1 {
			m.cursor++
		}
		m.scroll()
		m.maybeLoadMore()
		return m, nil
	case tea.KeyPgDown:
		m.cursor = min(m.cursor+m.visibleRows(), max(len(m.state.Entries)-1, 0))
		m.scroll()
		m.maybeLoadMore()
		return m, nil
	case tea.KeyPgUp:
		m.cursor = max(m.cursor-m.visibleRows(), 0)
		m.scroll()
		return m, nil
	case tea.KeyEnter:
		if len(m.state.Entries) == 0 {
			return m, nil
		}
		return m.openDetail(m.state.Entries[m.cursor].Name)
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if after := m.input.Value(); after != before {
		m.ctrl.SetQuery(after)
	}
	return m, cmd
}

func (m Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc, tea.KeyBackspace, tea.KeyLeft:
		m.screen = listScreen
		m.detailName = ""
		m.detail = nil
		m.detailErr = nil
		m.detailLoading = false
	}
	return m, nil
}

func (m Model) openDetail(name string) (tea.Model, tea.Cmd) {
	m.screen = detailScreen
	m.detailName = name
	m.detail = nil
	m.detailErr = nil
	m.detailLoading = true

	details := m.details
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), detailTimeout)
		defer cancel()
		d, err := details.GetDetail(ctx, name)
		return detailMsg{name: name, detail: d, err: err}
	}
}

// maybeLoadMore asks for the next page once the end of the list is on
// screen.
func (m *Model) maybeLoadMore() {
	s := m.state
	if s.Mode != loader.Browsing || s.Loading || !s.HasMore {
		return
	}
	if m.offset+m.visibleRows() >= len(s.Entries) {
		m.ctrl.LoadMore()
	}
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.state.Entries) {
		m.cursor = max(len(m.state.Entries)-1, 0)
	}
	m.scroll()
}

func (m *Model) visibleRows() int {
	// header, input, blank line, footer
	return max(m.height-5, 1)
}

func (m *Model) scroll() {
	rows := m.visibleRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+rows {
		m.offset = m.cursor - rows + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func (m Model) View() string {
	if m.screen == detailScreen {
		return m.detailView()
	}
	return m.listView()
}

func (m Model) listView() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Pokédex"))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	s := m.state
	switch {
	case len(s.Entries) == 0 && s.Loading:
		b.WriteString(m.styles.Muted.Render("Loading…"))
		b.WriteString("\n")
	case len(s.Entries) == 0 && s.Mode == loader.Searching:
		b.WriteString(m.styles.Muted.Render(fmt.Sprintf("No Pokémon named %q", s.ActiveQuery)))
		b.WriteString("\n")
	}

	end := min(m.offset+m.visibleRows(), len(s.Entries))
	for i := m.offset; i < end; i++ {
		b.WriteString(m.renderRow(i, s.Entries[i]))
		b.WriteString("\n")
	}

	b.WriteString(m.footer())
	return b.String()
}

func (m Model) renderRow(i int, e catalog.Entry) string {
	badges := make([]string, 0, len(e.Types))
	for _, t := range e.Types {
		badges = append(badges, typeBadge(t))
	}
	line := fmt.Sprintf("%-4d %s  %s", e.ID, nameStyle(e.PrimaryType()).Render(e.Name), strings.Join(badges, " "))
	if i == m.cursor {
		return m.styles.Selected.Render(line)
	}
	return m.styles.Row.Render(line)
}

func (m Model) footer() string {
	s := m.state
	parts := []string{fmt.Sprintf("%d shown", len(s.Entries))}
	if s.Mode == loader.Browsing {
		parts = append(parts, fmt.Sprintf("page %d", s.CurrentPage))
		if !s.HasMore {
			parts = append(parts, "end of list")
		}
	} else {
		parts = append(parts, "search: "+s.ActiveQuery)
	}
	if s.Loading && len(s.Entries) > 0 {
		parts = append(parts, "loading…")
	}
	parts = append(parts, "↑/↓ move · enter details · esc quit")
	return m.styles.Muted.Render(strings.Join(parts, " · "))
}

func (m Model) detailView() string {
	var b strings.Builder
	switch {
	case m.detailLoading:
		b.WriteString(m.styles.Muted.Render("Loading " + m.detailName + "…"))
	case m.detailErr != nil:
		if errors.Is(m.detailErr, catalog.ErrNotFound) {
			b.WriteString(m.styles.Error.Render(m.detailName + " not found"))
		} else {
			b.WriteString(m.styles.Error.Render("Could not load " + m.detailName + ": " + m.detailErr.Error()))
		}
	case m.detail != nil:
		b.WriteString(RenderDetail(*m.detail, m.styles))
	}
	b.WriteString("\n\n")
	b.WriteString(m.styles.Muted.Render("esc back · ctrl+c quit"))
	return b.String()
}

// RenderDetail formats a detail for the terminal. The show command uses it
// too.
func RenderDetail(d catalog.Detail, st Styles) string {
	var b strings.Builder
	b.WriteString(st.Title.Render(d.Title()))
	b.WriteString("\n")

	badges := make([]string, 0, len(d.Types))
	for _, t := range d.Types {
		badges = append(badges, typeBadge(t))
	}
	b.WriteString(strings.Join(badges, " "))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "Base experience: %d\n", d.BaseExperience)
	fmt.Fprintf(&b, "Height: %d\n", d.Height)
	fmt.Fprintf(&b, "Weight: %d\n", d.Weight)

	if len(d.Abilities) > 0 {
		b.WriteString("\n" + st.Header.Render("Abilities") + "\n")
		for _, a := range d.Abilities {
			b.WriteString("• " + a.Name)
			if a.Hidden {
				b.WriteString(st.Muted.Render(" (hidden)"))
			}
			b.WriteString("\n")
		}
	}

	if len(d.Stats) > 0 {
		b.WriteString("\n" + st.Header.Render("Base stats") + "\n")
		for _, s := range d.Stats {
			fmt.Fprintf(&b, "%-16s %3d %s\n", s.Name, s.Base, strings.Repeat("▇", s.Base/10))
		}
	}

	if len(d.EvolutionLines) > 0 {
		b.WriteString("\n" + st.Header.Render("Evolution") + "\n")
		for _, line := range d.EvolutionLines {
			b.WriteString(strings.Join(line, " → "))
			b.WriteString("\n")
		}
	}

	if d.Sprites.Front != "" || d.Sprites.Artwork != "" {
		b.WriteString("\n" + st.Header.Render("Sprites") + "\n")
		for _, u := range []string{d.Sprites.Front, d.Sprites.Back, d.Sprites.Artwork} {
			if u != "" {
				b.WriteString(st.Muted.Render(u) + "\n")
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
