// Package browse is an interactive terminal browser for stored records.
package browse

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/resumeforge/internal/model"
	"github.com/amishk599/resumeforge/internal/sections"
)

// Lines per record in the list pane (title + subtitle + blank separator).
const itemHeight = 3

type pane int

const (
	paneList pane = iota
	paneDetail
)

var (
	activeBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("39"))

	inactiveBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240"))

	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	itemTitleStyle    = lipgloss.NewStyle().Bold(true)
	itemSubtitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	selectedTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("24"))

	selectedSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Background(lipgloss.Color("24"))

	labelStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).Width(14)
	dividerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// DeleteFunc removes a record by id.
type DeleteFunc func(ctx context.Context, id string) error

type deletedMsg struct {
	id  string
	err error
}

type browserModel struct {
	records []model.Record
	markers []sections.Marker
	remove  DeleteFunc

	list    viewport.Model
	detail  viewport.Model
	focus   pane
	cursor  int
	width   int
	height  int
	ready   bool
	confirm bool // waiting for y/n on delete
	status  string
}

func newBrowser(records []model.Record, markers []sections.Marker, remove DeleteFunc) browserModel {
	sorted := append([]model.Record(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	return browserModel{records: sorted, markers: markers, remove: remove}
}

func (m browserModel) Init() tea.Cmd {
	return nil
}

func (m browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil

	case deletedMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("delete failed: %v", msg.err)
			return m, nil
		}
		for i, r := range m.records {
			if r.ID == msg.id {
				m.records = append(m.records[:i], m.records[i+1:]...)
				break
			}
		}
		m.cursor = clamp(m.cursor, 0, max(len(m.records)-1, 0))
		m.status = "deleted " + msg.id
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if m.confirm {
			return m.updateConfirm(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m browserModel) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.confirm = false
	if msg.String() != "y" || len(m.records) == 0 || m.remove == nil {
		m.status = "delete cancelled"
		return m, nil
	}
	id, remove := m.records[m.cursor].ID, m.remove
	m.status = "deleting " + id + "..."
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return deletedMsg{id: id, err: remove(ctx, id)}
	}
}

func (m browserModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "tab", "left", "right":
		m.focus = 1 - m.focus
		m.refresh()
		return m, nil
	case "d":
		if len(m.records) > 0 && m.remove != nil {
			m.confirm = true
			m.status = fmt.Sprintf("delete %s? (y/n)", m.records[m.cursor].ID)
		}
		return m, nil
	}

	if m.focus == paneList {
		switch msg.String() {
		case "up", "k":
			m.move(-1)
			return m, nil
		case "down", "j":
			m.move(1)
			return m, nil
		}
	}

	var cmd tea.Cmd
	if m.focus == paneList {
		m.list, cmd = m.list.Update(msg)
	} else {
		m.detail, cmd = m.detail.Update(msg)
	}
	return m, cmd
}

func (m *browserModel) move(delta int) {
	next := clamp(m.cursor+delta, 0, max(len(m.records)-1, 0))
	if next == m.cursor {
		return
	}
	m.cursor = next
	m.status = ""
	m.refresh()
	m.detail.GotoTop()

	top := m.cursor * itemHeight
	bottom := top + itemHeight - 1
	if top < m.list.YOffset {
		m.list.SetYOffset(top)
	} else if bottom >= m.list.YOffset+m.list.Height {
		m.list.SetYOffset(bottom - m.list.Height + 1)
	}
}

func (m *browserModel) layout() {
	listWidth := max(m.width/3, 24)
	detailWidth := max(m.width-listWidth-5, 20)
	// Header + borders + status bar.
	height := max(m.height-4, 5)

	if !m.ready {
		m.list = viewport.New(listWidth, height)
		m.detail = viewport.New(detailWidth, height)
		m.ready = true
	} else {
		m.list.Width, m.list.Height = listWidth, height
		m.detail.Width, m.detail.Height = detailWidth, height
	}
	m.refresh()
}

func (m *browserModel) refresh() {
	m.list.SetContent(renderList(m.records, m.cursor, m.focus == paneList))
	if len(m.records) == 0 {
		m.detail.SetContent("  (no records)")
		return
	}
	m.detail.SetContent(renderRecord(m.records[m.cursor], m.markers, m.detail.Width))
}

func (m browserModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	listBorder, detailBorder := activeBorderStyle, inactiveBorderStyle
	if m.focus == paneDetail {
		listBorder, detailBorder = inactiveBorderStyle, activeBorderStyle
	}

	header := lipgloss.JoinHorizontal(lipgloss.Top,
		headerStyle.Width(m.list.Width+2).Render(fmt.Sprintf("Records (%d)", len(m.records))),
		" ",
		headerStyle.Render("Documents"),
	)
	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		listBorder.Width(m.list.Width).Render(m.list.View()),
		" ",
		detailBorder.Width(m.detail.Width).Render(m.detail.View()),
	)

	status := m.status
	if status == "" {
		status = "↑/↓ select  tab switch pane  pgup/pgdn scroll  d delete  q quit"
	}
	return header + "\n" + panes + "\n" + statusBarStyle.Width(m.width).Render(status)
}

func title(r model.Record) string {
	if job := r.String(model.FieldJobName); job != "" {
		return job
	}
	if s := r.String(model.FieldSessionID); s != "" {
		return s
	}
	return r.ID
}

func renderList(records []model.Record, cursor int, active bool) string {
	if len(records) == 0 {
		return "  (no records)"
	}

	var b strings.Builder
	for i, r := range records {
		titleSt, subSt, prefix := itemTitleStyle, itemSubtitleStyle, "  "
		if active && i == cursor {
			titleSt, subSt, prefix = selectedTitleStyle, selectedSubtitleStyle, "> "
		}

		b.WriteString(prefix + titleSt.Render(title(r)) + "\n")
		sub := r.CreatedAt.Local().Format("2006-01-02 15:04")
		if q, ok := r.Number(model.FieldQualityScore); ok {
			sub += fmt.Sprintf(" · %.0f%%", q*100)
		}
		b.WriteString(prefix + subSt.Render(sub) + "\n")
		if i < len(records)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// renderRecord shows the metadata of r followed by each known section in
// marker order.
func renderRecord(r model.Record, markers []sections.Marker, width int) string {
	var b strings.Builder
	field := func(label, value string) {
		if value != "" {
			b.WriteString(labelStyle.Render(label) + value + "\n")
		}
	}

	field("Record", r.ID)
	field("User", r.String(model.FieldUserID))
	field("Session", r.String(model.FieldSessionID))
	field("Job", r.String(model.FieldJobName))
	field("Created", r.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	if !r.UpdatedAt.Equal(r.CreatedAt) {
		field("Updated", r.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
	}
	if q, ok := r.Number(model.FieldQualityScore); ok {
		field("Quality", fmt.Sprintf("%.0f%%", q*100))
	}
	if a, ok := r.Number(model.FieldATSScore); ok {
		field("ATS", fmt.Sprintf("%.0f%%", a*100))
	}

	wrap := max(width-2, 20)
	found := false
	for _, name := range sections.Names(sectionFields(r), markers) {
		found = true
		label := "── " + name + " "
		b.WriteString("\n" + dividerStyle.Render(label+strings.Repeat("─", max(wrap-len(label), 3))) + "\n\n")
		b.WriteString(lipgloss.NewStyle().Width(wrap).Render(r.String(name)) + "\n")
	}
	if !found {
		b.WriteString("\n" + warnStyle.Render("⚠ no document sections stored") + "\n")
	}
	return b.String()
}

func sectionFields(r model.Record) map[string]string {
	out := make(map[string]string)
	for k, v := range r.Fields {
		if s, ok := v.(string); ok && sections.KnownName(k) {
			out[k] = s
		}
	}
	return out
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

// Run launches the full-screen browser. remove may be nil to disable deletion.
func Run(records []model.Record, markers []sections.Marker, remove DeleteFunc) error {
	_, err := tea.NewProgram(newBrowser(records, markers, remove), tea.WithAltScreen()).Run()
	return err
}
