// Package tui provides the Bubble Tea kiosk interface.
package tui

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/swingkiosk/internal/analytics"
	"github.com/verte-zerg/swingkiosk/internal/model"
	"github.com/verte-zerg/swingkiosk/internal/session"
	"github.com/verte-zerg/swingkiosk/internal/stats"
)

var (
	titleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	accentStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#3FA34D")).Bold(true)
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	warnStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	selectedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Underline(true)
	tileStyle      = lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.RoundedBorder(), true).BorderForeground(lipgloss.Color("#4A4A4A"))
	tileLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	tileValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tileUnitStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	barFilledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#3FA34D"))
	barEmptyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#4A4A4A"))
)

const (
	eventBuffer = 64
	plotHeight  = 8
	barWidth    = 30
)

// profileField is one selector on the home screen. Index -1 leaves it unset.
type profileField struct {
	label   string
	options []string
	index   int
}

type eventMsg session.Event

// Model implements the Bubble Tea kiosk UI. All state lives in the engine;
// the model renders the latest snapshot it received.
type Model struct {
	engine *session.Engine
	sub    *session.Subscription
	log    *slog.Logger

	width  int
	height int

	snap    session.Snapshot
	screen  session.Screen
	spinner spinner.Model

	fields    []profileField
	fieldIdx  int
	statusMsg string
}

// NewModel constructs a kiosk TUI model subscribed to the engine's events.
func NewModel(engine *session.Engine, logger *slog.Logger) *Model {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = accentStyle
	return &Model{
		engine:  engine,
		sub:     engine.Bus().Subscribe(eventBuffer),
		log:     logger,
		snap:    engine.Snapshot(),
		screen:  session.ScreenHome,
		spinner: sp,
		fields: []profileField{
			{label: "Gender", options: model.Genders, index: -1},
			{label: "Age", options: model.AgeRanges, index: -1},
			{label: "Handicap", options: model.HandicapRanges, index: -1},
			{label: "Club", options: model.ClubTypes, index: -1},
		},
	}
}

// Close detaches the model from the engine's event bus.
func (m *Model) Close() {
	m.engine.Bus().Unsubscribe(m.sub)
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.waitForEvent(), m.spinner.Tick)
}

func (m *Model) waitForEvent() tea.Cmd {
	sub := m.sub
	return func() tea.Msg {
		ev, ok := <-sub.C
		if !ok {
			return nil
		}
		return eventMsg(ev)
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case eventMsg:
		m.follow(session.Event(msg))
		return m, m.waitForEvent()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		m.handleKey(msg)
		return m, nil
	}
	return m, nil
}

// follow applies an engine event. Step changes move the screen along with the
// flow; any other event leaves it in place unless the step no longer fits, in
// which case the engine guard sends the kiosk home.
func (m *Model) follow(ev session.Event) {
	if ev.Snapshot.Version < m.snap.Version {
		return
	}
	m.snap = ev.Snapshot
	switch ev.Kind {
	case session.EventReset:
		m.screen = session.ScreenHome
	case session.EventStep, session.EventStartSeries, session.EventResetHistory:
		m.screen = session.ScreenFor(m.snap.Step)
	case session.EventRedirect:
	default:
		if !m.screen.Accepts(m.snap.Step) {
			m.screen = m.engine.Guard(m.screen)
		}
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) {
	m.statusMsg = ""
	key := msg.String()
	if key == "x" {
		m.goHome()
		return
	}
	switch m.screen {
	case session.ScreenHome:
		m.handleHomeKey(key)
		return
	case session.ScreenSwing:
		switch key {
		case "enter", " ":
			m.report(m.engine.BeginPhase())
		case "esc":
			if m.engine.LeavePhase() {
				m.statusMsg = "Phase canceled"
			}
		}
	case session.ScreenSolution:
		switch key {
		case "enter", "n":
			if m.snap.Step == model.StepSolutionVideo {
				m.report(m.engine.RequestNextPhase())
			}
		case "r":
			m.report(m.engine.RequestRetryPhase())
		case "s":
			m.report(m.engine.RequestNewSeries())
		case "c":
			m.report(m.engine.RequestComplete())
		}
	case session.ScreenComplete:
		if key == "enter" {
			m.goHome()
			return
		}
	}
	m.snap = m.engine.Snapshot()
	m.screen = session.ScreenFor(m.snap.Step)
}

func (m *Model) goHome() {
	m.engine.ResetSession()
	m.snap = m.engine.Snapshot()
	m.screen = session.ScreenHome
}

func (m *Model) handleHomeKey(key string) {
	switch key {
	case "up", "k":
		m.fieldIdx = (m.fieldIdx - 1 + len(m.fields)) % len(m.fields)
	case "down", "j", "tab":
		m.fieldIdx = (m.fieldIdx + 1) % len(m.fields)
	case "left", "h":
		m.cycleField(-1)
	case "right", "l":
		m.cycleField(1)
	case "enter":
		if err := m.engine.StartSeries(m.profile()); err != nil {
			m.report(err)
			return
		}
		m.snap = m.engine.Snapshot()
		m.screen = session.ScreenSwing
	}
}

// cycleField moves through the options of the selected field, passing through
// unset between the last and first option.
func (m *Model) cycleField(delta int) {
	f := &m.fields[m.fieldIdx]
	n := len(f.options) + 1
	f.index = (f.index+1+delta+n)%n - 1
}

func (m *Model) profile() model.Profile {
	value := func(i int) string {
		f := m.fields[i]
		if f.index < 0 {
			return ""
		}
		return f.options[f.index]
	}
	return model.Profile{Gender: value(0), AgeRange: value(1), Handicap: value(2), Club: value(3)}
}

func (m *Model) report(err error) {
	if err == nil {
		return
	}
	m.log.Warn("kiosk action rejected", "err", err)
	switch {
	case errors.Is(err, session.ErrSequence):
		m.statusMsg = "Not available on this step"
	case errors.Is(err, session.ErrInvalidProfile):
		m.statusMsg = "Invalid profile"
	default:
		m.statusMsg = err.Error()
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	var body string
	switch m.screen {
	case session.ScreenSwing:
		body = m.viewSwing()
	case session.ScreenSolution:
		if m.snap.Step == model.StepSolutionChart {
			body = m.viewChart()
		} else {
			body = m.viewVideo()
		}
	case session.ScreenComplete:
		body = m.viewComplete()
	default:
		body = m.viewHome()
	}
	if m.width == 0 || m.height == 0 {
		return body + "\n" + m.renderFooter()
	}
	footer := m.renderFooter()
	if m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body)
	}
	content := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, body)
	return content + "\n" + lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
}

func (m *Model) contentWidth() int {
	if m.width <= 0 {
		return 80
	}
	return max(20, int(float64(m.width)*0.85))
}

func (m *Model) viewHome() string {
	lines := []string{titleStyle.Render("Swing Analysis"), mutedStyle.Render("Choose your profile, then press enter to start."), ""}
	rows := make([][]string, len(m.fields))
	for i, f := range m.fields {
		value := "-"
		if f.index >= 0 {
			value = f.options[f.index]
		}
		rows[i] = []string{f.label, "< " + value + " >"}
	}
	for i, line := range alignColumns(rows) {
		if i == m.fieldIdx {
			line = selectedStyle.Render(line)
		} else {
			line = mutedStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m *Model) viewSwing() string {
	heading := "First Swing"
	if m.snap.Step == model.StepSwingSecond {
		heading = "Second Swing"
	}
	lines := []string{titleStyle.Render(fmt.Sprintf("%s  ·  Swing #%d", heading, m.snap.SwingCount)), ""}
	count := m.snap.Progress()
	switch m.snap.Phase {
	case model.PhaseIdle:
		lines = append(lines, mutedStyle.Render("Press enter to begin measuring."))
	case model.PhaseAnnounce:
		lines = append(lines, warnStyle.Render("Get ready..."))
	case model.PhaseCollect:
		lines = append(lines, fmt.Sprintf("%s  Shot %d / %d", progressBar(count, m.snap.Shots, barWidth), count, m.snap.Shots))
	case model.PhaseFinalize:
		lines = append(lines, m.spinner.View()+" Analysing swing...")
	}
	if m.snap.Latest != nil && m.snap.Phase != model.PhaseIdle {
		lines = append(lines, "", wrapTiles(readingTiles(*m.snap.Latest), m.contentWidth()))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) viewVideo() string {
	lines := []string{titleStyle.Render("Your Swing Analysis"), ""}
	if m.snap.FirstSwing != nil {
		lines = append(lines, wrapTiles(averageTiles(m.snap.FirstSwing.Averages), m.contentWidth()), "")
	}
	sol := m.snap.Solution
	if sol == nil {
		lines = append(lines, m.spinner.View()+" Loading recommendations...")
		return strings.Join(lines, "\n")
	}
	lines = append(lines, accentStyle.Render(sol.ProblemType), mutedStyle.Render(sol.ProblemDescription), "")
	rows := make([][]string, 0, len(sol.Problems))
	for _, p := range sol.Problems {
		rows = append(rows, []string{p.Title, fmt.Sprintf("%.1f%%", p.Percentage)})
	}
	lines = append(lines, alignColumns(rows)...)
	if len(sol.Videos) > 0 {
		lines = append(lines, "", titleStyle.Render("Recommended practice"))
		for _, v := range sol.Videos {
			lines = append(lines, "  "+v.Title)
		}
	}
	return strings.Join(lines, "\n")
}

func (m *Model) viewChart() string {
	cfg := m.engine.Config()
	lines := []string{titleStyle.Render("Before / After"), ""}
	if cmp, ok := analytics.Compare(m.snap.FirstSwing, m.snap.SecondSwing, cfg.DirectionalMultiplier); ok {
		rows := [][]string{{"Metric", "Before", "After", "Change"}}
		for _, r := range cmp.Metrics {
			rows = append(rows, []string{r.Metric, fmt.Sprintf("%.2f", r.Before), fmt.Sprintf("%.2f", r.After), fmt.Sprintf("%+.1f%%", r.Improvement)})
		}
		lines = append(lines, alignColumns(rows)...)
		lines = append(lines, "")
	}
	view := analytics.Derive(m.snap.Ledger, cfg)
	lines = append(lines, fmt.Sprintf("Distance improvement %s   Direction %s",
		accentStyle.Render(fmt.Sprintf("%+.1f%%", view.ImprovementRate)),
		accentStyle.Render(fmt.Sprintf("%+.1f%%", view.DirectionalImprovement))))
	if plot := renderTrend(view.Trend, m.snap.Ledger, m.contentWidth()); plot != "" {
		lines = append(lines, "", plot)
	}
	return strings.Join(lines, "\n")
}

// renderTrend plots one distance-by-shot line per ledger entry.
func renderTrend(trend []analytics.TrendPoint, ledger []model.SwingData, width int) string {
	if len(trend) == 0 || len(ledger) == 0 {
		return ""
	}
	series := make([]stats.Series, len(ledger))
	for j, entry := range ledger {
		values := make([]float64, len(trend))
		for i, p := range trend {
			values[i] = p.Distances[j]
		}
		series[j] = stats.Series{Name: fmt.Sprintf("Swing %d", entry.SwingNumber), Values: values}
	}
	var buf bytes.Buffer
	if err := stats.PlotSeries(&buf, "Distance by shot", series, stats.PlotWidthFor(width), plotHeight); err != nil {
		return ""
	}
	return strings.TrimRight(buf.String(), "\n")
}

func (m *Model) viewComplete() string {
	lines := []string{titleStyle.Render("Session complete"), ""}
	if len(m.snap.Ledger) > 0 {
		best := m.snap.Ledger[0]
		for _, e := range m.snap.Ledger[1:] {
			if e.Averages.Distance > best.Averages.Distance {
				best = e
			}
		}
		lines = append(lines, fmt.Sprintf("Best swing #%d  %.1f m", best.SwingNumber, best.Averages.Distance))
	}
	lines = append(lines, mutedStyle.Render("Press enter to return home."))
	return strings.Join(lines, "\n")
}

func (m *Model) renderFooter() string {
	var segments []string
	if m.snap.SeriesID != "" && m.screen != session.ScreenHome {
		segments = append(segments, "Series "+stats.ShortID(m.snap.SeriesID))
	}
	if n := len(m.snap.Ledger); n > 0 {
		last := m.snap.Ledger[n-1]
		segments = append(segments, fmt.Sprintf("Last %.1f m", last.Averages.Distance))
		rate := analytics.ImprovementRate(m.snap.Ledger)
		segments = append(segments, fmt.Sprintf("Trend %+.1f%%", rate))
	}
	segments = append(segments, m.keyHelp())
	footer := footerStyle.Render(strings.Join(segments, "  "))
	if m.statusMsg != "" {
		footer = errorStyle.Render(m.statusMsg) + "  " + footer
	}
	return footer
}

func (m *Model) keyHelp() string {
	switch m.screen {
	case session.ScreenSwing:
		if m.snap.Phase == model.PhaseIdle {
			return "enter: begin  x: reset"
		}
		return "esc: cancel  x: reset"
	case session.ScreenSolution:
		if m.snap.Step == model.StepSolutionChart {
			return "r: retry  s: new series  c: finish  x: reset"
		}
		return "enter: next swing  x: reset"
	case session.ScreenComplete:
		return "enter: home"
	}
	return "up/down: field  left/right: change  enter: start"
}
