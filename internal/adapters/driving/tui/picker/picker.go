// Package picker provides an interactive suggestion picker for field
// resolution. It debounces typing, fetches suggestion pages in the
// background, and discards responses that arrive for a superseded
// query.
package picker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/timeport-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/timeport-cli/internal/core/domain"
	"github.com/custodia-labs/timeport-cli/internal/core/ports/driven"
)

// DefaultDebounce is how long typing must pause before a fetch fires.
const DefaultDebounce = 250 * time.Millisecond

// maxVisible caps the rendered suggestion rows.
const maxVisible = 10

// debounceMsg fires after the debounce interval for one input edit.
type debounceMsg struct {
	generation int
}

// pageMsg carries a fetched suggestion page back into the model.
type pageMsg struct {
	generation int
	page       *domain.SuggestionPage
	appended   bool
	err        error
}

// Model is the bubbletea model for the suggestion picker.
type Model struct {
	styles *styles.Styles
	input  textinput.Model

	ctx      context.Context
	fetch    domain.PageFunc
	debounce time.Duration

	allowFreeText bool
	label         string
	notice        string

	// generation increases on every input edit. Debounce ticks and
	// fetched pages stamped with an older generation are stale and
	// dropped on arrival.
	generation  int
	cancelFetch context.CancelFunc

	items      []domain.Suggestion
	nextCursor string
	selected   int
	loading    bool
	err        error

	value string
	ok    bool
	done  bool
}

// New creates a picker model for the given request.
func New(ctx context.Context, req driven.PickRequest) *Model {
	ti := textinput.New()
	ti.Placeholder = "Type to filter..."
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 50

	return &Model{
		styles:        styles.DefaultStyles(),
		input:         ti,
		ctx:           ctx,
		fetch:         req.Fetch,
		debounce:      DefaultDebounce,
		allowFreeText: req.AllowFreeText,
		label:         req.Label,
		notice:        req.Notice,
	}
}

// SetDebounce overrides the typing pause before a fetch fires.
func (m *Model) SetDebounce(d time.Duration) {
	if d > 0 {
		m.debounce = d
	}
}

// Init starts the cursor blink and fetches the first page for the
// empty query so the picker opens populated.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.startFetch("", false))
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case debounceMsg:
		if msg.generation != m.generation {
			return m, nil
		}
		return m, m.startFetch(m.input.Value(), false)

	case pageMsg:
		m.handlePage(msg)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleKey processes keyboard input.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	//nolint:exhaustive // handling only relevant key types
	switch msg.Type {
	case tea.KeyEsc, tea.KeyCtrlC:
		m.done = true
		m.stopFetch()
		return m, tea.Quit

	case tea.KeyEnter:
		if m.selected >= 0 && m.selected < len(m.items) {
			m.value = m.items[m.selected].Value
			m.ok = true
		} else if m.allowFreeText && !domain.IsEmpty(m.input.Value()) {
			m.value = strings.TrimSpace(m.input.Value())
			m.ok = true
		} else {
			return m, nil
		}
		m.done = true
		m.stopFetch()
		return m, tea.Quit

	case tea.KeyUp:
		if m.selected > 0 {
			m.selected--
		}
		return m, nil

	case tea.KeyDown:
		if m.selected < len(m.items)-1 {
			m.selected++
			return m, nil
		}
		// At the bottom with more pages available: load the next one.
		if m.nextCursor != "" && !m.loading {
			return m, m.startFetch(m.input.Value(), true)
		}
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)

	if m.input.Value() != before {
		m.generation++
		gen := m.generation
		debounce := tea.Tick(m.debounce, func(time.Time) tea.Msg {
			return debounceMsg{generation: gen}
		})
		return m, tea.Batch(cmd, debounce)
	}
	return m, cmd
}

// startFetch cancels any in-flight fetch and launches one for the
// current generation. With appended set, the fetch continues from the
// stored cursor and its results extend the list instead of replacing
// it.
func (m *Model) startFetch(query string, appended bool) tea.Cmd {
	m.stopFetch()

	ctx, cancel := context.WithCancel(m.ctx)
	m.cancelFetch = cancel
	m.loading = true

	gen := m.generation
	fetch := m.fetch
	cursor := ""
	if appended {
		cursor = m.nextCursor
	}

	return func() tea.Msg {
		page, err := fetch(ctx, query, cursor)
		if ctx.Err() != nil {
			// Superseded; the newer fetch owns the screen.
			return pageMsg{generation: -1}
		}
		return pageMsg{generation: gen, page: page, appended: appended, err: err}
	}
}

// stopFetch cancels the in-flight fetch, if any.
func (m *Model) stopFetch() {
	if m.cancelFetch != nil {
		m.cancelFetch()
		m.cancelFetch = nil
	}
}

// handlePage applies a fetched page, dropping stale generations.
func (m *Model) handlePage(msg pageMsg) {
	if msg.generation != m.generation {
		return
	}
	m.loading = false

	if msg.err != nil {
		m.err = msg.err
		return
	}
	m.err = nil

	if msg.page == nil {
		msg.page = &domain.SuggestionPage{}
	}
	if msg.appended {
		m.items = append(m.items, msg.page.Items...)
	} else {
		m.items = msg.page.Items
		m.selected = 0
	}
	m.nextCursor = msg.page.NextCursor
	if m.selected >= len(m.items) {
		m.selected = len(m.items) - 1
	}
}

// View renders the picker.
func (m *Model) View() string {
	if m.done {
		return ""
	}

	sections := make([]string, 0, maxVisible+5)
	sections = append(sections, m.styles.Title.Render(m.label))
	if m.notice != "" {
		sections = append(sections, m.styles.Warning.Render(m.notice))
	}
	sections = append(sections, m.input.View(), "")

	if m.err != nil {
		sections = append(sections, m.styles.Error.Render("Error: "+m.err.Error()))
	}

	first, last := visibleWindow(m.selected, len(m.items))
	for i := first; i < last; i++ {
		item := m.items[i]
		line := item.Label
		if line == "" {
			line = item.Value
		}
		if item.Detail != "" {
			line += "  " + m.styles.Muted.Render(item.Detail)
		}
		if i == m.selected {
			line = m.styles.Selected.Render("> " + line)
		} else {
			line = m.styles.Normal.Render("  " + line)
		}
		sections = append(sections, line)
	}

	switch {
	case m.loading:
		sections = append(sections, m.styles.Muted.Render("Loading..."))
	case len(m.items) == 0:
		sections = append(sections, m.styles.Muted.Render("No matches"))
	case m.nextCursor != "":
		sections = append(sections, m.styles.Muted.Render(fmt.Sprintf("%d shown, press down for more", len(m.items))))
	}

	hint := "enter select  esc cancel"
	if m.allowFreeText {
		hint = "enter select or use typed text  esc cancel"
	}
	sections = append(sections, "", m.styles.Muted.Render(hint))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// visibleWindow returns the half-open item range to render, keeping
// the selection on screen.
func visibleWindow(selected, total int) (int, int) {
	if total <= maxVisible {
		return 0, total
	}
	first := selected - maxVisible/2
	if first < 0 {
		first = 0
	}
	if first+maxVisible > total {
		first = total - maxVisible
	}
	return first, first + maxVisible
}

// Done reports whether the picker has finished.
func (m *Model) Done() bool { return m.done }

// Result returns the chosen value. ok is false when the user
// cancelled.
func (m *Model) Result() (value string, ok bool) {
	return m.value, m.ok
}

// Items returns the currently loaded suggestions.
func (m *Model) Items() []domain.Suggestion { return m.items }

// Generation returns the current input generation.
func (m *Model) Generation() int { return m.generation }

// Run drives the picker to completion on the terminal.
func Run(ctx context.Context, req driven.PickRequest, debounce time.Duration) (string, bool, error) {
	model := New(ctx, req)
	model.SetDebounce(debounce)

	p := tea.NewProgram(model)
	final, err := p.Run()
	if err != nil {
		return "", false, fmt.Errorf("running picker: %w", err)
	}

	m, _ := final.(*Model)
	if m == nil {
		return "", false, nil
	}
	value, ok := m.Result()
	return value, ok, nil
}
