package fleet

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"tidewatch-sim/internal/config"
	"tidewatch-sim/internal/tide"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// logMsg carries a reading log line for the viewport.
type logMsg struct{ line string }

// alertMsg carries an alert log line.
type alertMsg struct{ line string }

// eventMsg carries a lifecycle event log line.
type eventMsg struct{ line string }

// readingMsg carries the raw reading for the station detail section.
type readingMsg struct{ tide.ReadingRow }

// stateMsg carries a fleet aggregate update.
type stateMsg struct{ tide.FleetStateRow }

// adminMsg reports admin UI status.
type adminMsg struct{ active bool }

type setControlsMsg struct{ pause, resume func() }
type setThresholdsFnMsg struct {
	fn func(string, float64, float64)
}

const maxSectionHeightPct = 0.2

// TUIWriter renders readings using a bubbletea TUI.
type TUIWriter struct {
	program       teaProgram
	stationColors map[string]string
	colorIdx      int
	done          chan struct{}
	sendSignal    atomic.Bool
}

// NewTUIWriter starts a bubbletea program and returns a TUIWriter.
func NewTUIWriter(cfg *config.FleetConfig) *TUIWriter {
	sc := make(map[string]string)
	w := &TUIWriter{stationColors: sc, done: make(chan struct{})}
	w.sendSignal.Store(true)
	m := newTUIModel(cfg, sc)
	p := tea.NewProgram(m, tea.WithAltScreen())
	w.program = p
	for _, st := range cfg.Stations {
		w.getStationColor(st.ID)
	}
	go func() {
		_, _ = p.Run()
		close(w.done)
		if w.sendSignal.Load() {
			// Quitting the view interrupts the fleet the same way Ctrl+C would.
			if proc, err := os.FindProcess(os.Getpid()); err == nil {
				_ = proc.Signal(os.Interrupt)
			}
		}
	}()
	return w
}

func (w *TUIWriter) getStationColor(id string) string {
	if c, ok := w.stationColors[id]; ok {
		return c
	}
	c := stationPalette[w.colorIdx%len(stationPalette)]
	w.stationColors[id] = c
	w.colorIdx++
	return c
}

// Write implements ReadingWriter.
func (w *TUIWriter) Write(row tide.ReadingRow) error {
	sColor := w.getStationColor(row.StationID)
	line := fmt.Sprintf("%s[%s]%s %s%s%s %sseq=%d%s %swater=%.3f%s %stemp=%.1f%s %spress=%.1f%s %swind=%.1f%s %s%s%s",
		colorGray, row.Timestamp.Format(time.RFC3339), colorReset,
		sColor, row.StationID, colorReset,
		colorGray, row.Seq, colorReset,
		colorCyan, row.WaterLevel, colorReset,
		colorYellow, row.Temperature, colorReset,
		colorMagenta, row.Pressure, colorReset,
		colorWhite, row.WindSpeed, colorReset,
		levelColor(row.Level), row.Level, colorReset)
	w.program.Send(logMsg{line: line})
	w.program.Send(readingMsg{row})
	return nil
}

// WriteBatch outputs multiple reading rows.
func (w *TUIWriter) WriteBatch(rows []tide.ReadingRow) error {
	for _, r := range rows {
		_ = w.Write(r)
	}
	return nil
}

// WriteAlert implements AlertWriter.
func (w *TUIWriter) WriteAlert(row tide.AlertRow) error {
	line := fmt.Sprintf("%s[%s]%s %sALERT%s %s%s%s %s",
		colorGray, row.Ts.Format(time.RFC3339), colorReset,
		colorRed, colorReset,
		w.getStationColor(row.StationID), row.StationID, colorReset,
		row.Message)
	w.program.Send(alertMsg{line: line})
	return nil
}

// WriteAlerts outputs multiple alert rows.
func (w *TUIWriter) WriteAlerts(rows []tide.AlertRow) error {
	for _, r := range rows {
		_ = w.WriteAlert(r)
	}
	return nil
}

// WriteEvent implements EventWriter.
func (w *TUIWriter) WriteEvent(row tide.EventRow) error {
	line := fmt.Sprintf("%s[%s]%s %sEVENT%s %s%s%s",
		colorGray, row.Ts.Format(time.RFC3339), colorReset,
		colorCyan, colorReset,
		colorBlue, row.Type, colorReset)
	if row.StationID != "" {
		line += fmt.Sprintf(" %s%s%s", w.getStationColor(row.StationID), row.StationID, colorReset)
	}
	if row.Detail != "" {
		line += fmt.Sprintf(" %s%s%s", colorGray, row.Detail, colorReset)
	}
	w.program.Send(eventMsg{line: line})
	return nil
}

// WriteEvents outputs multiple event rows.
func (w *TUIWriter) WriteEvents(rows []tide.EventRow) error {
	for _, r := range rows {
		_ = w.WriteEvent(r)
	}
	return nil
}

// WriteFleetState implements StateWriter.
func (w *TUIWriter) WriteFleetState(row tide.FleetStateRow) error {
	w.program.Send(stateMsg{FleetStateRow: row})
	return nil
}

// SetAdminStatus updates the admin UI indicator.
func (w *TUIWriter) SetAdminStatus(active bool) {
	w.program.Send(adminMsg{active: active})
}

// SetFleetControls registers pause and resume callbacks for the p key.
func (w *TUIWriter) SetFleetControls(pause, resume func()) {
	w.program.Send(setControlsMsg{pause: pause, resume: resume})
}

// SetThresholdUpdater registers a callback for the threshold edit dialog.
func (w *TUIWriter) SetThresholdUpdater(fn func(string, float64, float64)) {
	w.program.Send(setThresholdsFnMsg{fn: fn})
}

// Close shuts down the TUI program and waits for cleanup.
func (w *TUIWriter) Close() error {
	w.sendSignal.Store(false)
	if w.program != nil {
		w.program.Send(tea.Quit())
	}
	if w.done != nil {
		<-w.done
	}
	return nil
}

type tuiModel struct {
	cfg           *config.FleetConfig
	table         table.Model
	vp            viewport.Model
	alertVP       viewport.Model
	eventVP       viewport.Model
	logs          []string
	alertLogs     []string
	eventLogs     []string
	latest        map[string]tide.ReadingRow
	state         tide.FleetStateRow
	admin         bool
	wrap          bool
	autoscroll    bool
	help          bool
	showStations  bool
	header        string
	headerHeight  int
	height        int
	stationColors map[string]string
	pause         func()
	resume        func()
	setThresholds func(string, float64, float64)
	thrInput      textinput.Model
	thrDialog     bool
}

func newTUIModel(cfg *config.FleetConfig, stationColors map[string]string) tuiModel {
	cols := []table.Column{
		{Title: "Config", Width: 20},
		{Title: "Value", Width: 14},
	}
	rows := []table.Row{
		{"Fleet ID", cfg.FleetID},
		{"Tick Interval", cfg.TickInterval.Std().String()},
		{"Debounce Window", cfg.DebounceWindow.Std().String()},
		{"Stations", fmt.Sprintf("%d", len(cfg.Stations))},
	}
	t := table.New(table.WithColumns(cols), table.WithRows(rows), table.WithHeight(len(rows)+1))
	m := tuiModel{
		cfg:           cfg,
		table:         t,
		vp:            viewport.New(0, 0),
		alertVP:       viewport.New(0, 0),
		eventVP:       viewport.New(0, 0),
		latest:        make(map[string]tide.ReadingRow),
		stationColors: stationColors,
		autoscroll:    true,
		showStations:  true,
	}
	return m
}

func (m tuiModel) Init() tea.Cmd { return nil }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		tableWidth := msg.Width
		if m.showStations {
			tableWidth = msg.Width / 2
		}
		m.table.SetWidth(tableWidth)
		m.vp.Width = msg.Width
		m.alertVP.Width = msg.Width
		m.eventVP.Width = msg.Width
		m.height = msg.Height
		m.header = m.renderHeader()
		m.headerHeight = lipgloss.Height(m.header)
		m.updateViewportHeight()
		m.refreshViewport()
		m.refreshAlerts()
		m.refreshEvents()
	case tea.KeyMsg:
		if m.thrDialog {
			switch msg.Type {
			case tea.KeyEnter:
				id, low, high, err := parseThresholdInput(m.thrInput.Value())
				if err == nil && m.setThresholds != nil {
					go m.setThresholds(id, low, high)
				}
				m.thrDialog = false
				m.updateViewportHeight()
			case tea.KeyEsc:
				m.thrDialog = false
				m.updateViewportHeight()
			default:
				var cmd tea.Cmd
				m.thrInput, cmd = m.thrInput.Update(msg)
				return m, cmd
			}
			return m, nil
		}
		if m.help {
			switch msg.String() {
			case "?", "h", "esc":
				m.help = false
				m.updateViewportHeight()
			}
			return m, nil
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "w":
			m.wrap = !m.wrap
			m.refreshViewport()
			m.header = m.renderHeader()
			m.headerHeight = lipgloss.Height(m.header)
			m.updateViewportHeight()
			return m, nil
		case "s":
			m.autoscroll = !m.autoscroll
			if m.autoscroll {
				m.vp.GotoBottom()
				m.alertVP.GotoBottom()
				m.eventVP.GotoBottom()
			}
			return m, nil
		case "p":
			if m.state.Paused > 0 {
				if m.resume != nil {
					go m.resume()
				}
			} else if m.pause != nil {
				go m.pause()
			}
			return m, nil
		case "t":
			m.thrInput = textinput.New()
			m.thrInput.Placeholder = "station,low,high"
			if len(m.cfg.Stations) > 0 {
				st := m.cfg.Stations[0]
				m.thrInput.SetValue(fmt.Sprintf("%s,%.2f,%.2f", st.ID, st.Low, st.High))
			}
			m.thrInput.CursorEnd()
			m.thrInput.Focus()
			m.thrDialog = true
			m.updateViewportHeight()
			return m, nil
		case "n":
			m.showStations = !m.showStations
			width := m.vp.Width
			if m.showStations {
				m.table.SetWidth(width / 2)
			} else {
				m.table.SetWidth(width)
			}
			m.header = m.renderHeader()
			m.headerHeight = lipgloss.Height(m.header)
			m.updateViewportHeight()
			return m, nil
		case "h", "?":
			m.help = !m.help
			m.updateViewportHeight()
			return m, nil
		}
		if !m.autoscroll {
			switch msg.String() {
			case "j", "down":
				m.vp.LineDown(1)
				m.alertVP.LineDown(1)
				m.eventVP.LineDown(1)
			case "k", "up":
				m.vp.LineUp(1)
				m.alertVP.LineUp(1)
				m.eventVP.LineUp(1)
			case "pgdown", "ctrl+n":
				m.vp.LineDown(10)
				m.alertVP.LineDown(10)
				m.eventVP.LineDown(10)
			case "pgup", "ctrl+p":
				m.vp.LineUp(10)
				m.alertVP.LineUp(10)
				m.eventVP.LineUp(10)
			default:
				var cmd tea.Cmd
				m.vp, cmd = m.vp.Update(msg)
				m.alertVP, _ = m.alertVP.Update(msg)
				m.eventVP, _ = m.eventVP.Update(msg)
				return m, cmd
			}
			return m, nil
		}
		return m, nil
	case logMsg:
		m.logs = append(m.logs, msg.line)
		if len(m.logs) > 1000 {
			m.logs = m.logs[len(m.logs)-1000:]
		}
		m.refreshViewport()
	case alertMsg:
		m.alertLogs = append(m.alertLogs, msg.line)
		if len(m.alertLogs) > 1000 {
			m.alertLogs = m.alertLogs[len(m.alertLogs)-1000:]
		}
		m.updateViewportHeight()
		m.refreshAlerts()
		m.refreshViewport()
	case eventMsg:
		m.eventLogs = append(m.eventLogs, msg.line)
		if len(m.eventLogs) > 1000 {
			m.eventLogs = m.eventLogs[len(m.eventLogs)-1000:]
		}
		m.updateViewportHeight()
		m.refreshEvents()
		m.refreshViewport()
	case readingMsg:
		if m.latest == nil {
			m.latest = make(map[string]tide.ReadingRow)
		}
		m.latest[msg.StationID] = msg.ReadingRow
	case stateMsg:
		m.state = msg.FleetStateRow
	case adminMsg:
		m.admin = msg.active
	case setControlsMsg:
		m.pause = msg.pause
		m.resume = msg.resume
	case setThresholdsFnMsg:
		m.setThresholds = msg.fn
	}
	return m, nil
}

func (m *tuiModel) updateViewportHeight() {
	bottomHeight := lipgloss.Height(m.renderBottom())

	maxLines := m.maxSectionLines()

	alertLines := len(m.alertLogs)
	if alertLines == 0 {
		alertLines = 1
	}
	if alertLines > maxLines {
		alertLines = maxLines
	}
	m.alertVP.Height = alertLines

	eventLines := len(m.eventLogs)
	if eventLines == 0 {
		eventLines = 1
	}
	if eventLines > maxLines {
		eventLines = maxLines
	}
	m.eventVP.Height = eventLines

	alertHeight := 1 + m.alertVP.Height
	eventHeight := 1 + m.eventVP.Height
	stationHeight := 0
	if m.showStations || m.thrDialog {
		stationHeight = lipgloss.Height(m.renderStations())
	}
	h := m.height - m.headerHeight - bottomHeight - alertHeight - eventHeight - stationHeight - 5
	if h < 0 {
		h = 0
	}
	m.vp.Height = h
	if m.autoscroll {
		m.alertVP.GotoBottom()
		m.eventVP.GotoBottom()
		m.vp.GotoBottom()
	}
}

func (m *tuiModel) refreshViewport() {
	var lines []string
	for _, l := range m.logs {
		if m.wrap {
			lines = append(lines, wordwrap.String(l, m.vp.Width))
		} else {
			lines = append(lines, l)
		}
	}
	m.vp.SetContent(strings.Join(lines, "\n"))
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m *tuiModel) refreshAlerts() {
	content := "none"
	if len(m.alertLogs) > 0 {
		content = strings.Join(m.alertLogs, "\n")
	}
	m.alertVP.SetContent(content)
	if m.autoscroll {
		m.alertVP.GotoBottom()
	}
}

func (m *tuiModel) refreshEvents() {
	content := "none"
	if len(m.eventLogs) > 0 {
		content = strings.Join(m.eventLogs, "\n")
	}
	m.eventVP.SetContent(content)
	if m.autoscroll {
		m.eventVP.GotoBottom()
	}
}

func (m tuiModel) maxSectionLines() int {
	h := int(float64(m.height) * maxSectionHeightPct)
	if h < 1 {
		h = 1
	}
	return h
}

func (m tuiModel) View() string {
	if m.help {
		return m.renderHelp()
	}
	bottom := m.renderBottom()
	divider := strings.Repeat("─", m.vp.Width)
	sections := []string{
		m.header,
		divider,
		m.vp.View(),
		divider,
		"Alerts:",
		m.alertVP.View(),
		divider,
		"Events:",
		m.eventVP.View(),
	}
	if m.showStations || m.thrDialog {
		sections = append(sections, divider, m.renderStations())
	}
	sections = append(sections, divider, bottom)
	return strings.Join(sections, "\n")
}

func (m tuiModel) renderHeader() string {
	tableView := m.table.View()
	if !m.showStations {
		return tableView
	}
	treeWidth := m.vp.Width/2 - 1
	tree := renderStationTree(m.cfg, m.stationColors, m.wrap, treeWidth)
	sep := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render("│")
	return lipgloss.JoinHorizontal(lipgloss.Top, tableView, sep, tree)
}

func renderStationTree(cfg *config.FleetConfig, colors map[string]string, wrap bool, width int) string {
	var b strings.Builder
	b.WriteString("Stations\n")
	for i, st := range cfg.Stations {
		prefix := "├─"
		if i == len(cfg.Stations)-1 {
			prefix = "└─"
		}
		c := colors[st.ID]
		line := fmt.Sprintf("%s %s%s%s %s [%.2f, %.2f] %s", prefix, c, st.ID, colorReset, st.Name, st.Low, st.High, st.Unit)
		if wrap && width > 0 {
			line = wordwrap.String(line, width)
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m tuiModel) renderStations() string {
	if m.thrDialog {
		return fmt.Sprintf("Update Thresholds (station,low,high) - Enter to apply, Esc to cancel: %s", m.thrInput.View())
	}
	if len(m.latest) == 0 {
		return "Latest: no readings yet"
	}
	var b strings.Builder
	b.WriteString("Latest:\n")
	for _, st := range m.cfg.Stations {
		row, ok := m.latest[st.ID]
		if !ok {
			b.WriteString(fmt.Sprintf("%s%s%s waiting\n", m.stationColors[st.ID], st.ID, colorReset))
			continue
		}
		b.WriteString(fmt.Sprintf("%s%s%s water=%.3f %s seq=%d %s%s%s\n",
			m.stationColors[st.ID], st.ID, colorReset,
			row.WaterLevel, st.Unit, row.Seq,
			levelColor(row.Level), row.Level, colorReset))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m tuiModel) renderBottom() string {
	adminColor := lipgloss.Color("9")
	if m.admin {
		adminColor = lipgloss.Color("10")
	}
	wrapColor := lipgloss.Color("9")
	if m.wrap {
		wrapColor = lipgloss.Color("10")
	}
	scrollColor := lipgloss.Color("10")
	if !m.autoscroll {
		scrollColor = lipgloss.Color("9")
	}
	stationsColor := lipgloss.Color("10")
	if !m.showStations {
		stationsColor = lipgloss.Color("9")
	}
	adminIndicator := lipgloss.NewStyle().Foreground(adminColor).Render("●")
	wrapIndicator := lipgloss.NewStyle().Foreground(wrapColor).Render("●")
	scrollIndicator := lipgloss.NewStyle().Foreground(scrollColor).Render("●")
	stationsIndicator := lipgloss.NewStyle().Foreground(stationsColor).Render("●")
	state := fmt.Sprintf("%sSTATE%s %srunning=%d%s %spaused=%d%s %sstopped=%d%s %salerting=%d%s %sworst=%s%s %sreadings=%d%s %sinterrupts=%d%s",
		colorBlue, colorReset,
		colorGreen, m.state.Running, colorReset,
		colorYellow, m.state.Paused, colorReset,
		colorRed, m.state.Stopped, colorReset,
		colorMagenta, m.state.Alerting, colorReset,
		levelColor(m.state.WorstLevel), m.state.WorstLevel, colorReset,
		colorCyan, m.state.Readings, colorReset,
		colorGray, m.state.Interrupts, colorReset)
	return fmt.Sprintf("%s | Admin UI %s | Wrap %s | Scroll %s | Stations %s", state, adminIndicator, wrapIndicator, scrollIndicator, stationsIndicator)
}

func (m tuiModel) renderHelp() string {
	lines := []string{
		"Key Bindings:",
		" q  quit (interrupts the fleet)",
		" w  toggle wrap for long lines",
		" s  toggle auto-scroll",
		" p  pause or resume the whole fleet",
		" t  update thresholds (station,low,high)",
		" n  toggle station sections",
		" h/? toggle this help view",
		"",
		"When auto-scroll is disabled:",
		" j/k or up/down    scroll one line",
		" pgdown/pgup       scroll a page",
	}
	return strings.Join(lines, "\n")
}

func parseThresholdInput(val string) (string, float64, float64, error) {
	parts := strings.Split(val, ",")
	if len(parts) < 3 {
		return "", 0, 0, fmt.Errorf("expected station,low,high")
	}
	id := strings.TrimSpace(parts[0])
	low, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return "", 0, 0, err
	}
	high, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
	if err != nil {
		return "", 0, 0, err
	}
	return id, low, high, nil
}
