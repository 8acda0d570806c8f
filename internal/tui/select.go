// Package tui provides interactive terminal UI components.
package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	defaultListWidth  = 60
	defaultListHeight = 16
)

var runProgram = func(m tea.Model) (tea.Model, error) {
	return tea.NewProgram(m).Run()
}

// LotInfo is one selectable production lot with its record counts.
type LotInfo struct {
	LotNumber   string
	DefectCount int
	RepairCount int
}

// SelectionAction represents the user's action in the selection UI.
type SelectionAction int

const (
	// ActionNone indicates no action was taken.
	ActionNone SelectionAction = iota
	// ActionSelected indicates the user selected a lot.
	ActionSelected
	// ActionSkipped indicates the user dismissed the selection.
	ActionSkipped
	// ActionStopped indicates the user stopped processing entirely.
	ActionStopped
)

// SelectionResult holds the result of a TUI selection.
type SelectionResult struct {
	Action    SelectionAction
	Selection *LotInfo
}

type lotItem struct {
	LotInfo
}

func (i lotItem) Title() string {
	return i.LotNumber
}

func (i lotItem) FilterValue() string {
	return i.LotNumber
}

func (i lotItem) Description() string {
	return formatCounts(i.LotInfo)
}

func formatCounts(lot LotInfo) string {
	parts := []string{fmt.Sprintf("%d defects", lot.DefectCount)}
	if lot.RepairCount > 0 {
		parts = append(parts, fmt.Sprintf("%d repairs", lot.RepairCount))
	}
	return strings.Join(parts, " | ")
}

type itemStyles struct {
	normal     lipgloss.Style
	selected   lipgloss.Style
	lotStyle   lipgloss.Style
	countStyle lipgloss.Style
}

func newItemStyles() itemStyles {
	asciiBorder := lipgloss.Border{
		Top:         "-",
		Bottom:      "-",
		Left:        "|",
		Right:       "|",
		TopLeft:     "+",
		TopRight:    "+",
		BottomLeft:  "+",
		BottomRight: "+",
	}

	container := lipgloss.NewStyle().
		Border(asciiBorder).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 1).
		Foreground(lipgloss.Color("252"))

	selected := container.Copy().
		BorderForeground(lipgloss.Color("214")).
		Foreground(lipgloss.Color("230")).
		Background(lipgloss.Color("237"))

	return itemStyles{
		normal:   container,
		selected: selected,
		lotStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("254")),
		countStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("247")).
			Faint(true),
	}
}

type lotDelegate struct {
	styles itemStyles
}

func newDelegate() lotDelegate {
	return lotDelegate{styles: newItemStyles()}
}

func (d lotDelegate) Height() int                         { return 4 }
func (d lotDelegate) Spacing() int                        { return 1 }
func (d lotDelegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }

func (d lotDelegate) Render(w io.Writer, m list.Model, idx int, item list.Item) {
	lot, ok := item.(lotItem)
	if !ok {
		return
	}

	lotLine := d.styles.lotStyle.Render(lot.LotNumber)
	countLine := d.styles.countStyle.Render(formatCounts(lot.LotInfo))
	content := lipgloss.JoinVertical(lipgloss.Left, lotLine, countLine)

	container := d.styles.normal
	if idx == m.Index() {
		container = d.styles.selected
	}
	_, _ = fmt.Fprint(w, container.Render(content))
}

type model struct {
	list   list.Model
	prompt string
	result SelectionResult
}

func newModel(prompt string, items []lotItem) *model {
	listItems := make([]list.Item, len(items))
	for i, item := range items {
		listItems[i] = item
	}

	delegate := newDelegate()
	l := list.New(listItems, delegate, defaultListWidth, defaultListHeight)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.SetShowTitle(false)
	l.SetShowPagination(false)
	l.DisableQuitKeybindings()
	l.Styles.NoItems = lipgloss.NewStyle()

	return &model{
		list:   l,
		prompt: prompt,
		result: SelectionResult{
			Action: ActionNone,
		},
	}
}

func (m *model) Init() tea.Cmd { return nil }

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			if selected, ok := m.list.SelectedItem().(lotItem); ok {
				lot := selected.LotInfo
				m.result = SelectionResult{
					Action:    ActionSelected,
					Selection: &lot,
				}
				return m, tea.Quit
			}
		case "esc":
			m.result = SelectionResult{Action: ActionSkipped}
			return m, tea.Quit
		case "ctrl+c", "q":
			m.result = SelectionResult{Action: ActionStopped}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		width := clamp(defaultListWidth, msg.Width-4, 30)
		height := clamp(defaultListHeight, msg.Height-6, 5)
		m.list.SetSize(width, height)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *model) View() string {
	header := headerStyle.Render(m.prompt)
	listView := m.list.View()
	help := helpStyle.Render("Up/Down navigate | Enter select | Esc cancel | q quit")
	return lipgloss.JoinVertical(lipgloss.Left, header, listView, help)
}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214")).
			MarginBottom(1)

	helpStyle = lipgloss.NewStyle().
			MarginTop(1).
			Foreground(lipgloss.Color("244"))
)

// SelectLot presents an interactive picker over the stored production lots.
// An empty lot list returns ActionSkipped without opening the UI.
func SelectLot(prompt string, lots []LotInfo) (SelectionResult, error) {
	if len(lots) == 0 {
		return SelectionResult{Action: ActionSkipped}, nil
	}

	items := make([]lotItem, len(lots))
	for i, lot := range lots {
		items[i] = lotItem{LotInfo: lot}
	}
	m := newModel(prompt, items)
	finalModel, err := runProgram(m)
	if err != nil {
		return SelectionResult{}, err
	}

	if typed, ok := finalModel.(*model); ok {
		return typed.result, nil
	}

	return SelectionResult{}, fmt.Errorf("unexpected program result")
}

func clamp(defaultValue, available, minimum int) int {
	width := defaultValue
	if available > 0 && available < defaultValue {
		width = available
	}
	if width < minimum {
		width = minimum
	}
	return width
}
