package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/pipboard/internal/daemon"
	"github.com/1broseidon/pipboard/internal/dispatch"
	"github.com/1broseidon/pipboard/internal/platform"
)

const drainInterval = 50 * time.Millisecond

// Cell dimensions of one card's thumbnail area.
const (
	thumbCols = 28
	thumbRows = 8
)

var (
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	selectedCardStyle = cardStyle.
				BorderForeground(lipgloss.Color("86"))

	titleStyle = lipgloss.NewStyle().Bold(true).MaxWidth(thumbCols)

	minimizedDot = lipgloss.NewStyle().Foreground(lipgloss.Color("40")).Render("●")
	visibleDot   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("●")

	statusBarStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	helpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

type tickMsg time.Time

// card is the presentation state for one monitored window. Thumbnails
// are rendered to a string once per image update, not on every frame.
type card struct {
	title      string
	minimized  bool
	cpu        float64
	thumb      string
	lastUpdate time.Time
}

// model is the root bubbletea model for the board view.
type model struct {
	daemon *daemon.Daemon

	cards    map[platform.WindowID]*card
	order    []platform.WindowID
	selected int

	lastError string
	width     int
	height    int
}

func newModel(d *daemon.Daemon) model {
	return model{
		daemon: d,
		cards:  make(map[platform.WindowID]*card),
	}
}

// Run starts the board TUI. Blocks until the user quits.
func Run(d *daemon.Daemon) error {
	p := tea.NewProgram(newModel(d), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func tick() tea.Cmd {
	return tea.Tick(drainInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return tick()
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		m.drainUpdates()
		m.syncOrder()
		return m, tick()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

// drainUpdates applies everything the background loops queued since
// the last tick.
func (m *model) drainUpdates() {
	for _, u := range m.daemon.Queue().Drain() {
		if u.Kind == dispatch.KindRemoval {
			m.daemon.Apply(u)
			delete(m.cards, u.Handle)
			continue
		}
		// Discard stale updates for windows already off the board.
		if !m.daemon.HasClient(u.Handle) {
			continue
		}
		c := m.cards[u.Handle]
		if c == nil {
			c = &card{}
			m.cards[u.Handle] = c
		}
		switch u.Kind {
		case dispatch.KindImage:
			c.thumb = renderThumbnail(u.Image, thumbCols, thumbRows)
			c.lastUpdate = time.Now()
		case dispatch.KindStatus:
			c.minimized = u.Minimized
		case dispatch.KindCPU:
			c.cpu = u.CPUPercent
		}
	}
}

// syncOrder refreshes the card order and titles from the registry.
func (m *model) syncOrder() {
	recs := m.daemon.Registry().Snapshot()
	m.order = m.order[:0]
	for _, rec := range recs {
		m.order = append(m.order, rec.Handle)
		c := m.cards[rec.Handle]
		if c == nil {
			c = &card{}
			m.cards[rec.Handle] = c
		}
		c.title = rec.Title
		c.minimized = rec.Minimized
		c.cpu = rec.CPUUsage
	}
	if m.selected >= len(m.order) {
		m.selected = len(m.order) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "j", "right":
		if m.selected < len(m.order)-1 {
			m.selected++
		}
	case "k", "left":
		if m.selected > 0 {
			m.selected--
		}

	case "J", "+":
		m.moveSelected(1)
	case "K", "-":
		m.moveSelected(-1)

	case "x":
		if h, ok := m.selectedHandle(); ok {
			if err := m.daemon.RemoveClient(uint32(h)); err != nil {
				m.lastError = err.Error()
			} else {
				delete(m.cards, h)
			}
		}

	case "enter":
		if h, ok := m.selectedHandle(); ok {
			if err := m.daemon.Expand(uint32(h)); err != nil {
				m.lastError = err.Error()
			} else {
				m.lastError = ""
			}
		}

	case "m":
		status := m.daemon.Status()
		m.daemon.SetMovieMode(!status.MovieMode)

	case "a":
		status := m.daemon.Status()
		if err := m.daemon.SetAutoMinimize(!status.AutoMinimize); err != nil {
			m.lastError = err.Error()
		}
	}
	return m, nil
}

func (m *model) moveSelected(delta int) {
	h, ok := m.selectedHandle()
	if !ok {
		return
	}
	if err := m.daemon.MoveClient(uint32(h), delta); err != nil {
		m.lastError = err.Error()
		return
	}
	target := m.selected + delta
	if target >= 0 && target < len(m.order) {
		m.selected = target
	}
}

func (m model) selectedHandle() (platform.WindowID, bool) {
	if m.selected < 0 || m.selected >= len(m.order) {
		return 0, false
	}
	return m.order[m.selected], true
}

// View implements tea.Model.
func (m model) View() string {
	var b strings.Builder

	b.WriteString(m.statusBar())
	b.WriteString("\n\n")

	if len(m.order) == 0 {
		b.WriteString(helpStyle.Render("board is empty; use `pipboard add <handle>` to monitor a window"))
		b.WriteString("\n")
	} else {
		b.WriteString(m.grid())
	}

	if m.lastError != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("error: " + m.lastError))
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("j/k select · J/K move · enter expand · x remove · m movie · a auto-min · q quit"))
	return b.String()
}

func (m model) statusBar() string {
	status := m.daemon.Status()
	movie := ""
	if status.MovieMode {
		movie = " · movie"
	}
	auto := "off"
	if status.AutoMinimize {
		auto = "on"
	}
	return statusBarStyle.Render(fmt.Sprintf(
		"pipboard · %d windows · %d fps%s · auto-min %s",
		status.ClientCount, status.FPS, movie, auto,
	))
}

func (m model) grid() string {
	columns := m.daemon.Status().Columns

	var rows []string
	for start := 0; start < len(m.order); start += columns {
		end := start + columns
		if end > len(m.order) {
			end = len(m.order)
		}
		cells := make([]string, 0, end-start)
		for i := start; i < end; i++ {
			cells = append(cells, m.renderCard(i))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return strings.Join(rows, "\n")
}

func (m model) renderCard(index int) string {
	handle := m.order[index]
	c := m.cards[handle]
	if c == nil {
		c = &card{}
	}

	dot := visibleDot
	if c.minimized {
		dot = minimizedDot
	}

	age := "-"
	if !c.lastUpdate.IsZero() {
		age = fmt.Sprintf("%.1fs", time.Since(c.lastUpdate).Seconds())
	}

	header := fmt.Sprintf("%s %s", dot, titleStyle.Render(c.title))
	footer := statusBarStyle.Render(fmt.Sprintf("cpu %4.1f%% · %s", c.cpu, age))

	thumb := c.thumb
	if thumb == "" {
		thumb = helpStyle.Render(strings.TrimSuffix(
			strings.Repeat(strings.Repeat("·", thumbCols)+"\n", thumbRows), "\n"))
	}

	body := lipgloss.JoinVertical(lipgloss.Left, header, thumb, footer)
	if index == m.selected {
		return selectedCardStyle.Render(body)
	}
	return cardStyle.Render(body)
}
