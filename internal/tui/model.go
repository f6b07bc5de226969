// Package tui provides the Bubble Tea progress tracker interface.
package tui

import (
	"fmt"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/TheLysdexicOne/pitkeeper/internal/catalog"
	"github.com/TheLysdexicOne/pitkeeper/internal/model"
	"github.com/TheLysdexicOne/pitkeeper/internal/progress"
	"github.com/TheLysdexicOne/pitkeeper/internal/summary"
)

type screen int

const (
	screenGrid screen = iota
	screenSlots
)

// RefreshMsg tells the model that another consumer changed storage.
type RefreshMsg struct{}

type orderSavedMsg struct {
	err error
}

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	accentStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	completeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	pendingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
)

// Model implements the Bubble Tea tracker UI.
type Model struct {
	tracker *progress.Tracker
	cat     *catalog.Catalog
	levels  []catalog.Level

	width  int
	height int
	screen screen

	// ids is the local display order. It runs ahead of storage while an
	// order write is pending.
	ids           []string
	row           int
	col           int
	pendingOrders int
	orderSeq      uint64
	orders        *orderWriter

	errMsg string
	slots  slotsView
}

// orderWriter drops order writes that were overtaken by a newer one, so
// concurrently running commands cannot persist an older order last.
type orderWriter struct {
	mu     sync.Mutex
	latest uint64
}

func (w *orderWriter) write(t *progress.Tracker, seq uint64, updates []model.OrderUpdate) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if seq < w.latest {
		return nil
	}
	w.latest = seq
	return t.UpdateCharacterOrders(updates)
}

// NewModel constructs a tracker TUI model.
func NewModel(tracker *progress.Tracker, cat *catalog.Catalog) *Model {
	m := &Model{
		tracker: tracker,
		cat:     cat,
		levels:  cat.AllLevels(),
		orders:  &orderWriter{},
	}
	m.slots = newSlotsView()
	m.reloadRows()
	return m
}

// Run starts the program and forwards tracker change notifications to it.
func Run(tracker *progress.Tracker, cat *catalog.Catalog, opts ...tea.ProgramOption) error {
	m := NewModel(tracker, cat)
	program := tea.NewProgram(m, append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)...)
	tracker.OnChange(func() { program.Send(RefreshMsg{}) })
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.slots.resize(m.width)
		return m, nil
	case RefreshMsg:
		if m.pendingOrders == 0 {
			m.reloadRows()
		}
		if m.screen == screenSlots {
			m.slots.load(m.tracker)
		}
		return m, nil
	case orderSavedMsg:
		m.pendingOrders--
		if msg.err != nil {
			m.errMsg = fmt.Sprintf("failed to save order: %v", msg.err)
		}
		if m.pendingOrders <= 0 {
			m.pendingOrders = 0
			m.reloadRows()
		}
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.screen == screenSlots {
			return m.updateSlots(msg)
		}
		return m.updateGrid(msg)
	}
	return m, nil
}

func (m *Model) updateGrid(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.errMsg = ""
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		m.moveCursor(-1, 0)
	case "down", "j":
		m.moveCursor(1, 0)
	case "left", "h":
		m.moveCursor(0, -1)
	case "right", "l":
		m.moveCursor(0, 1)
	case " ", "space", "enter":
		m.toggle()
	case "[":
		m.report(m.tracker.SetCurrentDifficulty(m.tracker.CurrentDifficulty().Prev()))
	case "]":
		m.report(m.tracker.SetCurrentDifficulty(m.tracker.CurrentDifficulty().Next()))
	case "-":
		m.report(m.tracker.SetCurrentTier(max(model.FastTierNormal, m.tracker.CurrentTier()-1)))
	case "=", "+":
		m.report(m.tracker.SetCurrentTier(min(model.FastTierMax, m.tracker.CurrentTier()+1)))
	case "K":
		return m, m.moveCharacter(-1)
	case "J":
		return m, m.moveCharacter(1)
	case "s":
		m.screen = screenSlots
		m.slots.load(m.tracker)
	}
	return m, nil
}

func (m *Model) report(err error) {
	if err != nil {
		m.errMsg = err.Error()
	}
}

func (m *Model) moveCursor(dRow, dCol int) {
	if len(m.ids) > 0 {
		m.row = clamp(m.row+dRow, 0, len(m.ids)-1)
	}
	if len(m.levels) > 0 {
		m.col = clamp(m.col+dCol, 0, len(m.levels)-1)
	}
}

func (m *Model) toggle() {
	if len(m.ids) == 0 || len(m.levels) == 0 {
		return
	}
	m.report(m.tracker.ToggleLevelCompletion(m.ids[m.row], m.levels[m.col].ID))
}

// moveCharacter swaps the selected character with its neighbour in the local
// list right away and returns the command that persists the new order.
func (m *Model) moveCharacter(delta int) tea.Cmd {
	target := m.row + delta
	if len(m.ids) == 0 || target < 0 || target >= len(m.ids) {
		return nil
	}
	m.ids[m.row], m.ids[target] = m.ids[target], m.ids[m.row]
	m.row = target

	updates := make([]model.OrderUpdate, len(m.ids))
	for i, id := range m.ids {
		updates[i] = model.OrderUpdate{CharacterID: id, CustomIndex: i}
	}
	m.pendingOrders++
	m.orderSeq++
	seq := m.orderSeq
	tracker, orders := m.tracker, m.orders
	return func() tea.Msg {
		return orderSavedMsg{err: orders.write(tracker, seq, updates)}
	}
}

func (m *Model) reloadRows() {
	chars := m.tracker.SortedCharacters()
	m.ids = m.ids[:0]
	for _, c := range chars {
		m.ids = append(m.ids, c.CharacterID)
	}
	if m.row >= len(m.ids) {
		m.row = max(0, len(m.ids)-1)
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	var body string
	if m.screen == screenSlots {
		body = m.viewSlots()
	} else {
		body = m.viewGrid()
	}
	if m.width == 0 || m.height == 0 {
		return body
	}
	return fitLines(body, m.width, m.height)
}

func (m *Model) viewGrid() string {
	data := m.tracker.Data()
	difficulty := data.LastDifficulty
	tier := data.LastTier

	rep := summary.BuildReport(m.tracker.SortedCharacters(), m.cat, difficulty, tier)
	var b strings.Builder
	b.WriteString(titleStyle.Render(data.DisplayName(m.tracker.ActiveSlot())))
	b.WriteString(footerStyle.Render(fmt.Sprintf("  slot %d  ", m.tracker.ActiveSlot())))
	b.WriteString(accentStyle.Render(difficulty.Label() + " · " + tier.Label()))
	b.WriteString(footerStyle.Render(fmt.Sprintf("  %d/%d", rep.Completed(), rep.Total())))
	b.WriteString("\n\n")

	nameWidth := 0
	for _, id := range m.ids {
		nameWidth = max(nameWidth, runewidth.StringWidth(m.cat.Name(id)))
	}
	nameWidth = min(nameWidth, 24)

	header := runewidth.FillRight("", nameWidth) + " "
	for i, l := range m.levels {
		label := fmt.Sprintf(" %d ", l.ID)
		if i == m.col {
			label = selectedStyle.Render(label)
		} else {
			label = footerStyle.Render(label)
		}
		header += label
	}
	b.WriteString(header)
	b.WriteString("\n")

	for r, id := range m.ids {
		complete := make([]bool, len(m.levels))
		for i, l := range m.levels {
			complete[i] = m.tracker.IsLevelComplete(id, l.ID)
		}
		name := runewidth.FillRight(truncateName(m.cat.Name(id), nameWidth), nameWidth)
		cursorCol := -1
		if r == m.row {
			name = selectedStyle.Render(name)
			cursorCol = m.col
		}
		b.WriteString(name + " " + renderCells(buildRowCells(complete, cursorCol)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderStatus(data))
	b.WriteString("\n")
	b.WriteString(m.renderHelp([]string{
		"space toggle", "[ ] difficulty", "- = tier", "K/J move", "s slots", "q quit",
	}))
	return b.String()
}

func (m *Model) renderStatus(data model.SaveSlotData) string {
	if m.errMsg != "" {
		return errorStyle.Render(m.errMsg)
	}
	if len(m.ids) == 0 || len(m.levels) == 0 {
		return footerStyle.Render("No characters.")
	}
	id := m.ids[m.row]
	level := m.levels[m.col]
	stored := model.FastTierNone
	if c, ok := m.tracker.CharacterProgress(id); ok {
		if lc, ok := c.Completion(level.ID, data.LastDifficulty); ok {
			stored = lc.FastTier
		}
	}
	return footerStyle.Render(fmt.Sprintf("%s · %s: %s", m.cat.Name(id), level.Name, stored.Label()))
}

func (m *Model) renderHelp(segments []string) string {
	return footerStyle.Render(wrapSegments(segments, m.width))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
