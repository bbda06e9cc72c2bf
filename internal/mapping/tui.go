package mapping

import (
	"fmt"
	"math"
	"sheetRecon/internal/config"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type state int

const (
	stateSelectHeader state = iota
	stateSelectRole
	stateConfirm
)

type model struct {
	headers []string
	mapping Mapping

	state         state
	currentHeader string
	confirmed     bool
	notice        string

	// header grid
	page         int
	row          int
	col          int
	colsPerRow   int
	rowsPerPage  int
	itemsPerPage int

	roleCursor int

	width  int
	height int

	titleStyle    lipgloss.Style
	selectedStyle lipgloss.Style
	normalStyle   lipgloss.Style
	helpStyle     lipgloss.Style
	progressStyle lipgloss.Style
	mappedStyle   lipgloss.Style
	noticeStyle   lipgloss.Style
}

func initialModel(headers []string, initial Mapping, ui config.UIConfig) model {
	cols, rows := ui.ColumnsPerRow, ui.RowsPerPage
	if cols <= 0 {
		cols = 4
	}
	if rows <= 0 {
		rows = 3
	}

	m := Mapping{}
	for r, h := range initial {
		m[r] = h
	}

	return model{
		headers:      headers,
		mapping:      m,
		state:        stateSelectHeader,
		colsPerRow:   cols,
		rowsPerPage:  rows,
		itemsPerPage: cols * rows,
		width:        80,

		titleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			Align(lipgloss.Center),
		selectedStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Background(lipgloss.Color("235")).
			Padding(0, 1),
		normalStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Padding(0, 1),
		helpStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		progressStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true),
		mappedStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("40")).
			Padding(0, 1),
		noticeStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("203")),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tea.KeyMsg:
		switch m.state {
		case stateSelectHeader:
			return m.updateSelectHeader(msg)
		case stateSelectRole:
			return m.updateSelectRole(msg)
		case stateConfirm:
			return m.updateConfirm(msg)
		}
	}
	return m, nil
}

func (m model) updateSelectHeader(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.notice = ""
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "up", "k":
		if m.row > 0 {
			m.row--
		}

	case "down", "j":
		if m.row < m.maxRowForCurrentPage() {
			m.row++
			m.adjustPosition()
		}

	case "left", "h":
		if m.col > 0 {
			m.col--
		} else if m.page > 0 {
			m.page--
			m.col = m.colsPerRow - 1
			m.adjustPosition()
		}

	case "right", "l":
		if m.col < m.maxColForCurrentRow() {
			m.col++
		} else if m.hasNextPage() {
			m.page++
			m.col = 0
			m.row = 0
		}

	case "enter":
		if idx := m.currentIndex(); idx < len(m.headers) {
			m.currentHeader = m.headers[idx]
			m.state = stateSelectRole
			m.roleCursor = 0
			if r, ok := m.mapping.RoleOf(m.currentHeader); ok {
				for i, role := range Roles {
					if role == r {
						m.roleCursor = i
					}
				}
			}
		}

	case "u":
		if idx := m.currentIndex(); idx < len(m.headers) {
			if r, ok := m.mapping.RoleOf(m.headers[idx]); ok {
				delete(m.mapping, r)
			}
		}

	case "s":
		if missing := m.mapping.Missing(); len(missing) > 0 {
			m.notice = fmt.Sprintf("Unassigned roles: %s", roleLabels(missing))
			return m, nil
		}
		m.state = stateConfirm
	}
	return m, nil
}

func (m model) updateSelectRole(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "esc":
		m.state = stateSelectHeader
	case "up", "k":
		if m.roleCursor > 0 {
			m.roleCursor--
		}
	case "down", "j":
		if m.roleCursor < len(Roles)-1 {
			m.roleCursor++
		}
	case "enter":
		m.mapping.Set(Roles[m.roleCursor], m.currentHeader)
		m.state = stateSelectHeader
		m.moveToNextUnassigned()
	}
	return m, nil
}

func (m model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q", "n":
		return m, tea.Quit
	case "y":
		m.confirmed = true
		return m, tea.Quit
	case "esc":
		m.state = stateSelectHeader
	}
	return m, nil
}

func (m model) currentIndex() int {
	return m.page*m.itemsPerPage + m.row*m.colsPerRow + m.col
}

func (m model) maxRowForCurrentPage() int {
	remaining := len(m.headers) - m.page*m.itemsPerPage
	if remaining <= 0 {
		return 0
	}
	needed := int(math.Ceil(float64(remaining) / float64(m.colsPerRow)))
	if needed > m.rowsPerPage {
		return m.rowsPerPage - 1
	}
	return needed - 1
}

func (m model) maxColForCurrentRow() int {
	start := m.page*m.itemsPerPage + m.row*m.colsPerRow
	end := min(start+m.colsPerRow, len(m.headers))
	return end - start - 1
}

func (m model) hasNextPage() bool {
	return (m.page+1)*m.itemsPerPage < len(m.headers)
}

func (m *model) adjustPosition() {
	if m.currentIndex() >= len(m.headers) {
		m.moveTo(len(m.headers) - 1)
	}
}

func (m *model) moveTo(i int) {
	if i < 0 {
		return
	}
	m.page = i / m.itemsPerPage
	rem := i % m.itemsPerPage
	m.row = rem / m.colsPerRow
	m.col = rem % m.colsPerRow
}

// moveToNextUnassigned moves the cursor to the next header without a role,
// wrapping around; it stays put when every header has one.
func (m *model) moveToNextUnassigned() {
	cur := m.currentIndex()
	n := len(m.headers)
	for step := 1; step < n; step++ {
		i := (cur + step) % n
		if _, ok := m.mapping.RoleOf(m.headers[i]); !ok {
			m.moveTo(i)
			return
		}
	}
}

func (m model) View() string {
	switch m.state {
	case stateSelectHeader:
		return m.viewSelectHeader()
	case stateSelectRole:
		return m.viewSelectRole()
	case stateConfirm:
		return m.viewConfirm()
	}
	return ""
}

func (m model) viewSelectHeader() string {
	var b strings.Builder

	b.WriteString(m.titleStyle.Width(m.width).Render("Ledger Column Mapping"))
	b.WriteString("\n\n")

	progress := fmt.Sprintf("Roles assigned: %d/%d", len(Roles)-len(m.mapping.Missing()), len(Roles))
	b.WriteString(m.progressStyle.Render(progress))
	b.WriteString("\n\n")

	totalPages := max(int(math.Ceil(float64(len(m.headers))/float64(m.itemsPerPage))), 1)
	b.WriteString(m.helpStyle.Render(fmt.Sprintf("Page %d/%d", m.page+1, totalPages)))
	b.WriteString("\n\n")

	columnWidth := max((m.width-4)/m.colsPerRow, 10)

	for row := 0; row < m.rowsPerPage; row++ {
		var items []string
		for col := 0; col < m.colsPerRow; col++ {
			idx := m.page*m.itemsPerPage + row*m.colsPerRow + col
			if idx >= len(m.headers) {
				break
			}

			header := m.headers[idx]
			style := m.normalStyle
			text := header
			if r, ok := m.mapping.RoleOf(header); ok {
				text = fmt.Sprintf("%s → %s", header, r.Label())
				style = m.mappedStyle
			}
			if row == m.row && col == m.col {
				style = m.selectedStyle
			}

			text = truncate(text, columnWidth-2)
			items = append(items, style.Width(columnWidth).Render(text))
		}
		if len(items) > 0 {
			b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, items...))
			b.WriteString("\n")
		}
	}

	if m.notice != "" {
		b.WriteString("\n")
		b.WriteString(m.noticeStyle.Render(m.notice))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.helpStyle.Render("↑↓←→: navigate | Enter: assign role | u: unassign | s: save | q: quit"))
	return b.String()
}

func (m model) viewSelectRole() string {
	var b strings.Builder

	b.WriteString(m.titleStyle.Render(fmt.Sprintf("Role of '%s':", m.currentHeader)))
	b.WriteString("\n\n")

	for i, r := range Roles {
		line := r.Label()
		if h := m.mapping[r]; h != "" && h != m.currentHeader {
			line += fmt.Sprintf(" (now %s)", h)
		}
		if i == m.roleCursor {
			b.WriteString(m.selectedStyle.Render("> " + line))
		} else {
			b.WriteString(m.normalStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.helpStyle.Render("↑↓: navigate | Enter: select | Esc: back | q: quit"))
	return b.String()
}

func (m model) viewConfirm() string {
	var b strings.Builder

	b.WriteString(m.titleStyle.Render("Save Ledger Profile?"))
	b.WriteString("\n\n")
	for _, r := range Roles {
		fmt.Fprintf(&b, "%-12s %s\n", r.Label()+":", m.mapping[r])
	}
	b.WriteString("\n")
	b.WriteString(m.helpStyle.Render("y/n to confirm, Esc to go back"))
	return b.String()
}

func truncate(s string, width int) string {
	if width <= 3 || lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+3 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}

func roleLabels(roles []Role) string {
	labels := make([]string, len(roles))
	for i, r := range roles {
		labels[i] = r.Label()
	}
	return strings.Join(labels, ", ")
}

// RunMappingTUI lets the user assign ledger headers to roles, starting from
// initial. It reports whether the user confirmed a complete mapping.
func RunMappingTUI(headers []string, initial Mapping, ui config.UIConfig) (Mapping, bool, error) {
	if len(headers) == 0 {
		return nil, false, fmt.Errorf("no ledger headers to map")
	}

	m := initialModel(headers, initial, ui)
	m.moveToNextUnassigned()

	p := tea.NewProgram(m, tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return nil, false, fmt.Errorf("error running TUI: %w", err)
	}

	final := finalModel.(model)
	return final.mapping, final.confirmed, nil
}
