package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/TheLysdexicOne/pitkeeper/internal/model"
	"github.com/TheLysdexicOne/pitkeeper/internal/progress"
	"github.com/TheLysdexicOne/pitkeeper/internal/summary"
)

type slotsView struct {
	table         table.Model
	input         textinput.Model
	infos         []model.SlotInfo
	renaming      bool
	confirmDelete bool
}

func newSlotsView() slotsView {
	input := textinput.New()
	input.Prompt = "Name: "
	input.CharLimit = 40
	input.Cursor.SetMode(cursor.CursorBlink)

	t := table.New(
		table.WithColumns(slotColumns()),
		table.WithHeight(model.SlotCount+1),
		table.WithFocused(true),
	)
	t.SetStyles(slotTableStyles())
	return slotsView{table: t, input: input}
}

func slotColumns() []table.Column {
	return []table.Column{
		{Title: "Slot", Width: 4},
		{Title: "Name", Width: 18},
		{Title: "Difficulty", Width: 12},
		{Title: "Tier", Width: 8},
		{Title: "Levels", Width: 8},
		{Title: "Modified", Width: 16},
	}
}

func slotTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func (v *slotsView) load(t *progress.Tracker) {
	v.infos = t.AllSaveSlots()
	rows := make([]table.Row, 0, len(v.infos))
	for _, info := range v.infos {
		rows = append(rows, slotRow(info))
	}
	v.table.SetRows(rows)
}

func slotRow(info model.SlotInfo) table.Row {
	return table.Row(summary.SlotFields(info))
}

func (v *slotsView) resize(width int) {
	if width > 0 {
		v.table.SetWidth(width)
		v.input.Width = max(1, width-lipgloss.Width(v.input.Prompt)-1)
	}
}

func (v *slotsView) selected() int {
	idx := v.table.Cursor()
	if idx < 0 || idx >= len(v.infos) {
		return 0
	}
	return v.infos[idx].Slot
}

func (m *Model) updateSlots(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v := &m.slots
	if v.renaming {
		switch msg.Type {
		case tea.KeyEsc:
			v.renaming = false
			v.input.Blur()
			return m, nil
		case tea.KeyEnter:
			v.renaming = false
			v.input.Blur()
			m.report(m.tracker.RenameSlot(v.selected(), v.input.Value()))
			v.load(m.tracker)
			return m, nil
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return m, cmd
	}

	if v.confirmDelete {
		v.confirmDelete = false
		if msg.String() == "y" || msg.String() == "Y" {
			m.tracker.DeleteSaveSlot(v.selected())
			v.load(m.tracker)
			m.reloadRows()
		}
		return m, nil
	}

	m.errMsg = ""
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc":
		m.screen = screenGrid
		return m, nil
	case "enter":
		m.tracker.SwitchSaveSlot(v.selected())
		m.reloadRows()
		m.screen = screenGrid
		return m, nil
	case "d":
		if v.selected() != 0 {
			v.confirmDelete = true
		}
		return m, nil
	case "r":
		slot := v.selected()
		if slot == 0 {
			return m, nil
		}
		v.renaming = true
		v.input.SetValue(v.infos[v.table.Cursor()].Data.DisplayName(slot))
		v.input.CursorEnd()
		return m, v.input.Focus()
	}
	var cmd tea.Cmd
	v.table, cmd = v.table.Update(msg)
	return m, cmd
}

func (m *Model) viewSlots() string {
	v := &m.slots
	var b strings.Builder
	b.WriteString(titleStyle.Render("Save slots"))
	b.WriteString("\n\n")
	b.WriteString(v.table.View())
	b.WriteString("\n\n")
	switch {
	case v.renaming:
		b.WriteString(v.input.View())
		b.WriteString("\n")
		b.WriteString(m.renderHelp([]string{"enter save", "esc cancel"}))
	case v.confirmDelete:
		b.WriteString(errorStyle.Render(fmt.Sprintf("Delete %s? All progress in slot %d is lost. (y/N)",
			v.infos[v.table.Cursor()].Data.DisplayName(v.selected()), v.selected())))
	default:
		if m.errMsg != "" {
			b.WriteString(errorStyle.Render(m.errMsg))
			b.WriteString("\n")
		}
		b.WriteString(m.renderHelp([]string{"enter switch", "d delete", "r rename", "esc back", "q quit"}))
	}
	return b.String()
}
