package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	bar "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	dto "github.com/prometheus/client_model/go"

	"github.com/dd0wney/cluso-gds/pkg/concurrency"
	"github.com/dd0wney/cluso-gds/pkg/config"
	"github.com/dd0wney/cluso-gds/pkg/logging"
	"github.com/dd0wney/cluso-gds/pkg/metrics"
	"github.com/dd0wney/cluso-gds/pkg/parallel"
	"github.com/dd0wney/cluso-gds/pkg/partition"
	"github.com/dd0wney/cluso-gds/pkg/progress"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF00FF")).
			MarginLeft(2).
			MarginTop(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FFFF")).
			Padding(0, 1)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#FF00FF")).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#666666")).
				Padding(0, 2)

	contentStyle = lipgloss.NewStyle().
			MarginLeft(2).
			MarginTop(1)

	boxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FF00")).
			Padding(1, 2).
			MarginRight(2)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1).
			MarginLeft(2)
)

type view int

const (
	tasksView view = iota
	partitionsView
	metricsView
	viewCount
)

var viewNames = []string{"Tasks", "Partitions", "Metrics"}

type keyMap struct {
	Tab      key.Binding
	ShiftTab key.Binding
	Run      key.Binding
	Cancel   key.Binding
	Quit     key.Binding
	Up       key.Binding
	Down     key.Binding
}

var keys = keyMap{
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next view"),
	),
	ShiftTab: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("shift+tab", "prev view"),
	),
	Run: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "run"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "cancel run"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Run, k.Cancel, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.ShiftTab},
		{k.Run, k.Cancel},
		{k.Up, k.Down, k.Quit},
	}
}

// session holds what a run needs. It is shared by every copy of the model.
type session struct {
	cfg      *config.Config
	graph    *parallel.CSR
	kind     string
	store    *progress.MemoryTaskStore
	registry *metrics.Registry
	pools    *concurrency.PoolRegistry
	logger   logging.Logger

	partitionsOnce sync.Once
	partitions     string
}

type model struct {
	session     *session
	currentView view
	taskTable   table.Model
	bar         bar.Model
	help        help.Model
	keys        keyMap
	width       int
	height      int
	message     string
	messageErr  bool
	startTime   time.Time

	root    *progress.Task
	tracker *progress.TaskTracker
	cancel  context.CancelCauseFunc
	running bool
}

type tickMsg time.Time

type runDoneMsg struct {
	report  *parallel.Report
	err     error
	elapsed time.Duration
}

var errCanceledByUser = errors.New("canceled from the terminal")

func tickCmd() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func initialModel(s *session) model {
	columns := []table.Column{
		{Title: "Task", Width: 32},
		{Title: "Status", Width: 10},
		{Title: "Progress", Width: 16},
		{Title: "Elapsed", Width: 10},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	st := table.DefaultStyles()
	st.Header = st.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#00FFFF")).
		BorderBottom(true).
		Bold(true)
	st.Selected = st.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#FF00FF")).
		Bold(false)
	t.SetStyles(st)

	return model{
		session:     s,
		currentView: tasksView,
		taskTable:   t,
		bar:         bar.New(bar.WithDefaultGradient()),
		help:        help.New(),
		keys:        keys,
		startTime:   time.Now(),
	}
}

func (m model) Init() tea.Cmd {
	return tickCmd()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.bar.Width = max(20, min(msg.Width-8, 80))

	case tickMsg:
		m.taskTable.SetRows(m.taskRows())
		return m, tickCmd()

	case runDoneMsg:
		m.running = false
		m.cancel = nil
		switch {
		case errors.Is(msg.err, concurrency.ErrTerminated):
			m.message = fmt.Sprintf("Run stopped after %s: %v", msg.elapsed.Round(time.Millisecond), msg.err)
			m.messageErr = true
		case msg.err != nil:
			m.message = fmt.Sprintf("Run failed: %v", msg.err)
			m.messageErr = true
		default:
			m.message = fmt.Sprintf("Run finished in %s: BFS reached %d nodes, PageRank ran %d iterations",
				msg.elapsed.Round(time.Millisecond), msg.report.BFS.Reached, msg.report.PageRank.Iterations)
			m.messageErr = false
		}
		m.taskTable.SetRows(m.taskRows())

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			if m.cancel != nil {
				m.cancel(errCanceledByUser)
			}
			return m, tea.Quit

		case key.Matches(msg, m.keys.Tab):
			m.currentView = (m.currentView + 1) % viewCount

		case key.Matches(msg, m.keys.ShiftTab):
			m.currentView = (m.currentView + viewCount - 1) % viewCount

		case key.Matches(msg, m.keys.Run):
			if m.running {
				m.message = "A run is already in progress"
				m.messageErr = true
				break
			}
			cmds = append(cmds, m.startRun())

		case key.Matches(msg, m.keys.Cancel):
			if m.cancel == nil {
				m.message = "Nothing to cancel"
				m.messageErr = true
				break
			}
			m.cancel(errCanceledByUser)
		}
	}

	if m.currentView == tasksView {
		m.taskTable, cmd = m.taskTable.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// startRun registers a fresh task tree and runs the pipeline on it in the
// background. The previous run's tree is released first.
func (m *model) startRun() tea.Cmd {
	s := m.session
	if m.tracker != nil {
		m.tracker.Release()
	}

	ex, err := s.cfg.Executor(nil)
	if err != nil {
		m.message = err.Error()
		m.messageErr = true
		return nil
	}
	ex.Registry = s.pools
	ex.Logger = s.logger.With(logging.Component("executor"))

	ctx, cancel := context.WithCancelCause(context.Background())
	ex, release := ex.WithContext(ctx)

	m.root = parallel.PipelineTask(s.kind, s.graph)
	opts := append(s.cfg.TrackerOptions(s.logger),
		progress.WithTaskStore(s.store),
		progress.WithTerminationFlag(ex.Flag),
		progress.WithMetrics(s.registry))
	m.tracker = progress.NewTaskTracker(m.root, opts...)
	m.cancel = cancel
	m.running = true
	m.message = fmt.Sprintf("Started job %s", m.tracker.JobID())
	m.messageErr = false

	tracker, g := m.tracker, s.graph
	return func() tea.Msg {
		defer release()
		defer cancel(nil)
		start := time.Now()
		report, err := parallel.RunPipeline(g, 0, ex, tracker)
		return runDoneMsg{report: report, err: err, elapsed: time.Since(start)}
	}
}

func (m model) taskRows() []table.Row {
	var rows []table.Row
	for _, ut := range m.session.store.All() {
		progress.Walk(ut.Task, func(t *progress.Task, depth int) bool {
			rows = append(rows, table.Row{
				strings.Repeat("  ", depth) + t.Name(),
				t.Status().String(),
				formatProgress(t.Progress()),
				t.Elapsed().Round(time.Millisecond).String(),
			})
			return true
		})
	}
	return rows
}

func formatProgress(p progress.Progress) string {
	if !p.Known() {
		return fmt.Sprintf("%d", p.Progress)
	}
	return fmt.Sprintf("%d/%d", p.Progress, p.Volume)
}

func (m model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var s strings.Builder

	s.WriteString(titleStyle.Render("Cluso GDS - Task Monitor"))
	s.WriteString("\n\n")

	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	switch m.currentView {
	case tasksView:
		s.WriteString(m.renderTasks())
	case partitionsView:
		s.WriteString(m.renderPartitions())
	case metricsView:
		s.WriteString(m.renderMetrics())
	}

	if m.message != "" {
		s.WriteString("\n\n")
		if m.messageErr {
			s.WriteString(errorStyle.Render("✗ " + m.message))
		} else {
			s.WriteString(successStyle.Render("✓ " + m.message))
		}
	}

	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render(m.help.ShortHelpView(m.keys.ShortHelp())))

	return s.String()
}

func (m model) renderTabs() string {
	var renderedTabs []string

	for i, tab := range viewNames {
		if view(i) == m.currentView {
			renderedTabs = append(renderedTabs, activeTabStyle.Render(tab))
		} else {
			renderedTabs = append(renderedTabs, inactiveTabStyle.Render(tab))
		}
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, renderedTabs...)
}

func (m model) renderTasks() string {
	var s strings.Builder

	s.WriteString(headerStyle.Render("Task Tree"))
	s.WriteString("\n\n")

	if m.session.store.Count() == 0 {
		s.WriteString("No registered tasks. Press 'r' to start a run.")
		return contentStyle.Render(s.String())
	}

	if m.root != nil {
		if p := m.root.Progress(); p.Known() {
			s.WriteString(m.bar.ViewAs(p.Percent() / 100))
			s.WriteString("\n\n")
		}
	}
	s.WriteString(m.taskTable.View())

	return contentStyle.Render(s.String())
}

func (m model) renderPartitions() string {
	s := m.session
	s.partitionsOnce.Do(func() {
		s.partitions = s.describePartitions()
	})
	return s.partitions
}

// describePartitions compares range and degree splits of the graph. The
// graph and worker count are fixed for the session, so it runs once.
func (s *session) describePartitions() string {
	workers, err := s.cfg.WorkerCount()
	if err != nil {
		return contentStyle.Render(errorStyle.Render(err.Error()))
	}
	n := s.graph.NodeCount()
	degrees := parallel.Degrees(s.graph)

	var degreeParts []partition.Partition
	for _, p := range partition.DegreePartitions(n, workers, degrees) {
		degreeParts = append(degreeParts, p.Partition)
	}

	describe := func(title string, parts []partition.Partition) string {
		qm := partition.ComputeMetrics(parts, degrees)
		var b strings.Builder
		fmt.Fprintf(&b, "%s\n━━━━━━━━━━━━━━━\n", title)
		fmt.Fprintf(&b, "Partitions:     %d\n", len(parts))
		fmt.Fprintf(&b, "Node balance:   %.3f\n", qm.LoadBalance)
		fmt.Fprintf(&b, "Degree balance: %.3f\n", qm.WeightBalance)
		fmt.Fprintf(&b, "Overloaded:     %d", len(qm.Overloaded(0.1)))
		return boxStyle.Render(b.String())
	}

	var out strings.Builder
	out.WriteString(headerStyle.Render(fmt.Sprintf("%s graph: %d nodes, %d relationships, %d workers",
		s.kind, n, s.graph.RelationshipCount(), workers.Value())))
	out.WriteString("\n\n")
	out.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		describe("Range", partition.RangePartitions(n, workers)),
		describe("Degree", degreeParts)))

	return contentStyle.Render(out.String())
}

func (m model) renderMetrics() string {
	var s strings.Builder

	s.WriteString(headerStyle.Render("Metrics"))
	s.WriteString("\n\n")

	m.session.registry.UpdateSystemMetrics()
	families, err := m.session.registry.GetPrometheusRegistry().Gather()
	if err != nil {
		s.WriteString(errorStyle.Render(err.Error()))
		return contentStyle.Render(s.String())
	}
	sort.Slice(families, func(i, j int) bool { return families[i].GetName() < families[j].GetName() })

	var lines []string
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), "gds_") {
			continue
		}
		lines = append(lines, fmt.Sprintf("%-40s %s", mf.GetName(), summarize(mf)))
	}
	lines = append(lines, fmt.Sprintf("%-40s %s", "uptime", time.Since(m.startTime).Round(time.Second)))
	s.WriteString(boxStyle.Render(strings.Join(lines, "\n")))

	return contentStyle.Render(s.String())
}

// summarize folds every series of a family into one figure: the sum for
// counters and gauges, the observation count for histograms.
func summarize(mf *dto.MetricFamily) string {
	var total float64
	var samples uint64
	for _, metric := range mf.GetMetric() {
		switch mf.GetType() {
		case dto.MetricType_COUNTER:
			total += metric.GetCounter().GetValue()
		case dto.MetricType_GAUGE:
			total += metric.GetGauge().GetValue()
		case dto.MetricType_HISTOGRAM:
			samples += metric.GetHistogram().GetSampleCount()
		}
	}
	if mf.GetType() == dto.MetricType_HISTOGRAM {
		return fmt.Sprintf("%d observations", samples)
	}
	return fmt.Sprintf("%.0f", total)
}

func main() {
	configFile := flag.String("config", "", "YAML config file")
	kind := flag.String("graph", parallel.KindGrid, "Graph kind: path, grid, star, random")
	nodes := flag.Uint64("nodes", 1_000_000, "Node count")
	degree := flag.Uint64("degree", 8, "Average degree for random graphs")
	seed := flag.Uint64("seed", 42, "Random seed")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	opts, err := cfg.CSROptions()
	if err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	g, err := parallel.GenerateWithOptions(*kind, *nodes, *degree, *seed, opts)
	if err != nil {
		log.Fatalf("Failed to generate graph: %v", err)
	}

	// The screen belongs to the TUI, so progress logging is off.
	logger := logging.NewNopLogger()
	registry := metrics.NewRegistry()
	partition.SetMetricsRegistry(registry)

	pools := concurrency.NewPoolRegistry(
		concurrency.WithLogger(logger),
		concurrency.WithMetrics(registry))
	defer pools.Close()

	s := &session{
		cfg:      cfg,
		graph:    g,
		kind:     *kind,
		store:    progress.NewMemoryTaskStore(),
		registry: registry,
		pools:    pools,
		logger:   logger,
	}

	p := tea.NewProgram(initialModel(s), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("Error running program: %v", err)
	}
}
