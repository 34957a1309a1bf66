package cli

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/firstissue/pulse/pkg/models"
)

// Dashboard panel indices.
const (
	panelOverview = iota
	panelEndpoints
	panelErrors
	panelHealth
	panelCount
)

type dashboardModel struct {
	activePanel int
	width       int
	height      int

	// Data.
	snapshot *snapshotData

	// State.
	loading bool
	err     error
}

type snapshotData struct {
	generatedAt time.Time
	overview    models.OverviewMetrics
	endpoints   []models.EndpointMetrics
	errors      models.ErrorMetrics
	health      []models.HealthCheckState
	alerts      []models.AlertRecord
}

// dataLoadedMsg carries loaded data back to the model.
type dataLoadedMsg struct {
	snapshot *snapshotData
	err      error
}

// Style definitions.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2)

	activePanelStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				Padding(1, 2)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			MarginBottom(1)

	statusHealthy   = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	statusDegraded  = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	statusUnhealthy = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	severityCritical = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	severityHigh     = lipgloss.NewStyle().Foreground(lipgloss.Color("202")).Bold(true)
	severityMedium   = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	severityLow      = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func newDashboardModel() dashboardModel {
	return dashboardModel{
		activePanel: panelOverview,
		loading:     true,
	}
}

func (m dashboardModel) Init() tea.Cmd {
	return loadData
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.activePanel = (m.activePanel + 1) % panelCount
			return m, nil
		case "shift+tab":
			m.activePanel = (m.activePanel - 1 + panelCount) % panelCount
			return m, nil
		case "r":
			m.loading = true
			return m, loadData
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case dataLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.snapshot = msg.snapshot
		m.err = nil
		return m, nil
	}

	return m, nil
}

func (m dashboardModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	title := titleStyle.Render(" Pulse Dashboard ")
	help := helpStyle.Render("tab: switch panel | r: refresh | q: quit")

	if m.loading {
		return fmt.Sprintf("%s\n\n  Loading data...\n\n%s", title, help)
	}

	if m.err != nil {
		return fmt.Sprintf("%s\n\n  Error: %s\n\n%s", title, m.err, help)
	}

	overviewPanel := m.renderOverviewPanel()
	endpointsPanel := m.renderEndpointsPanel()
	errorsPanel := m.renderErrorsPanel()
	healthPanel := m.renderHealthPanel()

	// Available width for panels after accounting for margins.
	availableWidth := m.width - 2

	var body string
	if availableWidth > 120 {
		// Horizontal layout: two rows of two columns.
		colWidth := availableWidth / 2
		overviewPanel = m.applyPanelStyle(panelOverview, overviewPanel, colWidth-4)
		endpointsPanel = m.applyPanelStyle(panelEndpoints, endpointsPanel, colWidth-4)
		errorsPanel = m.applyPanelStyle(panelErrors, errorsPanel, colWidth-4)
		healthPanel = m.applyPanelStyle(panelHealth, healthPanel, colWidth-4)
		top := lipgloss.JoinHorizontal(lipgloss.Top, overviewPanel, endpointsPanel)
		bottom := lipgloss.JoinHorizontal(lipgloss.Top, errorsPanel, healthPanel)
		body = lipgloss.JoinVertical(lipgloss.Left, top, bottom)
	} else {
		// Vertical layout: stacked.
		panelWidth := availableWidth - 4
		if panelWidth < 20 {
			panelWidth = 20
		}
		overviewPanel = m.applyPanelStyle(panelOverview, overviewPanel, panelWidth)
		endpointsPanel = m.applyPanelStyle(panelEndpoints, endpointsPanel, panelWidth)
		errorsPanel = m.applyPanelStyle(panelErrors, errorsPanel, panelWidth)
		healthPanel = m.applyPanelStyle(panelHealth, healthPanel, panelWidth)
		body = lipgloss.JoinVertical(lipgloss.Left, overviewPanel, endpointsPanel, errorsPanel, healthPanel)
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", title, body, help)
}

func (m dashboardModel) applyPanelStyle(panel int, content string, width int) string {
	style := panelStyle
	if m.activePanel == panel {
		style = activePanelStyle
	}
	return style.Width(width).Render(content)
}

func (m dashboardModel) renderOverviewPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Overview"))
	b.WriteString("\n")

	if m.snapshot == nil {
		b.WriteString("  No data available.")
		return b.String()
	}

	ov := m.snapshot.overview
	b.WriteString(fmt.Sprintf("  %-16s %d\n", "Requests", ov.TotalRequests))
	b.WriteString(fmt.Sprintf("  %-16s %.1f%%\n", "Error rate", ov.ErrorRate*100))
	b.WriteString(fmt.Sprintf("  %-16s %d\n", "Errors", ov.TotalErrors))
	b.WriteString(fmt.Sprintf("  %-16s %.1fms\n", "Avg response", ov.AverageResponseTime))
	b.WriteString(fmt.Sprintf("  %-16s %.1f/min\n", "Throughput", ov.Throughput))
	b.WriteString(fmt.Sprintf("  %-16s %d/100\n", "Health score", m.snapshot.errors.HealthScore))

	if len(m.snapshot.alerts) > 0 {
		b.WriteString("\n  Recent alerts:\n")
		for i, a := range m.snapshot.alerts {
			if i >= 3 {
				b.WriteString(fmt.Sprintf("  ... and %d more\n", len(m.snapshot.alerts)-i))
				break
			}
			sev := styleForSeverity(string(a.Severity)).Render(fmt.Sprintf("[%s]", strings.ToUpper(string(a.Severity))))
			b.WriteString(fmt.Sprintf("  %s %s\n", sev, a.Message))
		}
	}

	return b.String()
}

func (m dashboardModel) renderEndpointsPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Endpoints"))
	b.WriteString("\n")

	if m.snapshot == nil || len(m.snapshot.endpoints) == 0 {
		b.WriteString("  No traffic recorded.")
		return b.String()
	}

	for i, ep := range m.snapshot.endpoints {
		if i >= 8 {
			b.WriteString(fmt.Sprintf("  ... and %d more\n", len(m.snapshot.endpoints)-i))
			break
		}
		label := fmt.Sprintf("  %-28s %5d  %5.1f%%  %6.0fms",
			ep.Endpoint, ep.TotalRequests, ep.ErrorRate*100, ep.AverageResponseTime)
		if ep.ErrorRate >= 0.05 {
			label = statusUnhealthy.Render(label)
		}
		b.WriteString(label)
		b.WriteString("\n")
	}

	return b.String()
}

func (m dashboardModel) renderErrorsPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Errors"))
	b.WriteString("\n")

	if m.snapshot == nil || m.snapshot.errors.TotalErrors == 0 {
		b.WriteString("  No errors recorded.")
		return b.String()
	}

	em := m.snapshot.errors
	b.WriteString(fmt.Sprintf("  %-16s %d\n", "Total", em.TotalErrors))
	for _, sev := range []string{"critical", "high", "medium", "low"} {
		count, ok := em.ErrorsBySeverity[models.ErrorSeverity(sev)]
		if !ok || count == 0 {
			continue
		}
		label := fmt.Sprintf("  %-16s %d", sev, count)
		b.WriteString(styleForSeverity(sev).Render(label))
		b.WriteString("\n")
	}

	if len(em.TopErrors) > 0 {
		b.WriteString("\n")
		for i, e := range em.TopErrors {
			if i >= 5 {
				break
			}
			b.WriteString(fmt.Sprintf("  %4dx %s\n", e.Count, e.Message))
		}
	}

	return b.String()
}

func (m dashboardModel) renderHealthPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Health"))
	b.WriteString("\n")

	if m.snapshot == nil || len(m.snapshot.health) == 0 {
		b.WriteString("  No health checks registered.")
		return b.String()
	}

	for _, h := range m.snapshot.health {
		label := fmt.Sprintf("  %-24s %-10s %5.1f%%", h.Endpoint, h.Status, h.Uptime)
		b.WriteString(styleForHealth(h.Status).Render(label))
		b.WriteString("\n")
	}

	return b.String()
}

func styleForHealth(status models.HealthStatus) lipgloss.Style {
	switch status {
	case models.StatusHealthy:
		return statusHealthy
	case models.StatusDegraded:
		return statusDegraded
	case models.StatusUnhealthy:
		return statusUnhealthy
	default:
		return lipgloss.NewStyle()
	}
}

func styleForSeverity(severity string) lipgloss.Style {
	switch strings.ToLower(severity) {
	case "critical":
		return severityCritical
	case "high":
		return severityHigh
	case "medium":
		return severityMedium
	case "low":
		return severityLow
	default:
		return lipgloss.NewStyle()
	}
}

func loadData() tea.Msg {
	if Monitor == nil {
		return dataLoadedMsg{err: fmt.Errorf("monitor not initialized")}
	}

	snap := Monitor.GetSnapshot()
	return dataLoadedMsg{snapshot: &snapshotData{
		generatedAt: snap.GeneratedAt,
		overview:    snap.Metrics.Overview,
		endpoints:   snap.Metrics.Endpoints,
		errors:      Monitor.GetErrorMetrics(),
		health:      snap.Health,
		alerts:      snap.Alerts,
	}}
}

var dashboardTraffic string

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive TUI dashboard for metrics, errors, and health",
	Long: `Launch an interactive terminal dashboard showing the request overview,
per-endpoint metrics, the error ledger, and health check state.

Navigate between panels with Tab, refresh with r, quit with q.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Monitor == nil {
			return fmt.Errorf("monitor not initialized")
		}
		if _, err := replayTraffic(dashboardTraffic); err != nil {
			return err
		}
		p := tea.NewProgram(newDashboardModel(), tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}

func init() {
	dashboardCmd.Flags().StringVar(&dashboardTraffic, "traffic", "", "JSONL traffic file to replay before launching")
	rootCmd.AddCommand(dashboardCmd)
}
