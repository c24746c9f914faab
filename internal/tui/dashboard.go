package tui

import (
	"fmt"

	"github.com/Luke-Ashton/trainload/internal/service"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/guptarohit/asciigraph"
)

// DashboardModel is the dashboard screen model
type DashboardModel struct {
	queryService *service.QueryService
	data         *service.DashboardData
	loading      bool
	err          error
}

// NewDashboardModel creates a new dashboard model
func NewDashboardModel(qs *service.QueryService) DashboardModel {
	return DashboardModel{
		queryService: qs,
		loading:      true,
	}
}

// Init initializes the dashboard
func (m DashboardModel) Init() tea.Cmd {
	return m.loadData
}

func (m DashboardModel) loadData() tea.Msg {
	data, err := m.queryService.GetDashboardData()
	if err != nil {
		return dashboardDataMsg{err: err}
	}
	return dashboardDataMsg{data: data}
}

type dashboardDataMsg struct {
	data *service.DashboardData
	err  error
}

// Update handles messages
func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		m.loading = false
		m.err = msg.err
		m.data = msg.data
	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			m.loading = true
			return m, m.loadData
		}
	}
	return m, nil
}

// View renders the dashboard
func (m DashboardModel) View() string {
	if m.loading {
		return "\n  Loading dashboard..."
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	if m.data == nil || m.data.TotalActivities == 0 {
		return "\n  No data yet. Press 's' to sync with Strava."
	}

	var sections []string

	// Top row: training state and this week side by side
	stateCard := m.renderStateCard()
	weekCard := m.renderWeekCard()
	topRow := lipgloss.JoinHorizontal(lipgloss.Top, stateCard, "  ", weekCard)
	sections = append(sections, topRow)

	if len(m.data.CTLHistory) > 2 {
		sections = append(sections, m.renderFitnessChart())
	}

	if len(m.data.WeeklyTRIMP) > 2 {
		sections = append(sections, m.renderWeeklyChart())
	}

	sections = append(sections, m.renderRecentActivities())

	totals := statusStyle.Render(fmt.Sprintf("%s activities - %s table rows",
		humanize.Comma(int64(m.data.TotalActivities)),
		humanize.Comma(int64(m.data.TotalSamples))))
	sections = append(sections, totals)

	help := statusStyle.Render("Press 'r' to refresh, 's' to sync, '2' for activities list")
	sections = append(sections, help)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m DashboardModel) renderStateCard() string {
	title := cardTitleStyle.Render("Training State")

	mutedStyle := lipgloss.NewStyle().Foreground(mutedColor)

	lines := []string{
		RenderMetric("Fitness (CTL)", fmt.Sprintf("%.1f", m.data.CurrentFitness)),
		RenderMetric("Fatigue (ATL)", fmt.Sprintf("%.1f", m.data.CurrentFatigue)),
		RenderMetric("Form (TSB)", fmt.Sprintf("%+.1f", m.data.CurrentForm)),
		"",
		mutedStyle.Render(m.data.FormDescription),
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return cardStyle.Width(42).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}

func (m DashboardModel) renderWeekCard() string {
	title := cardTitleStyle.Render("This Week")

	lines := []string{
		RenderMetric("Runs", fmt.Sprintf("%d", m.data.WeekRunCount)),
		RenderMetric("Distance", formatDistance(m.data.WeekDistance)),
		RenderMetric("Time", formatDuration(m.data.WeekTime)),
		RenderMetric("Load (TRIMP)", fmt.Sprintf("%.0f", m.data.WeekTRIMP)),
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return cardStyle.Width(32).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}

func (m DashboardModel) renderFitnessChart() string {
	title := cardTitleStyle.Render("Fitness (CTL) - Daily Trend")

	graph := asciigraph.Plot(m.data.CTLHistory,
		asciigraph.Height(8),
		asciigraph.Width(60),
		asciigraph.Precision(1),
	)

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, graph))
}

func (m DashboardModel) renderWeeklyChart() string {
	labels := m.data.WeeklyLabels
	caption := "Weekly Load (TRIMP)"
	if len(labels) > 1 {
		caption = fmt.Sprintf("Weekly Load (TRIMP) - weeks of %s to %s", labels[0], labels[len(labels)-1])
	}
	title := cardTitleStyle.Render(caption)

	graph := asciigraph.Plot(m.data.WeeklyTRIMP,
		asciigraph.Height(6),
		asciigraph.Width(60),
		asciigraph.Precision(0),
	)

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, graph))
}

func (m DashboardModel) renderRecentActivities() string {
	title := cardTitleStyle.Render("Recent Activities")

	if len(m.data.RecentActivities) == 0 {
		return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, "No activities yet"))
	}

	lastRun := statusStyle.Render("Last run " + humanize.Time(m.data.RecentActivities[0].StartDateLocal))

	header := tableHeaderStyle.Render(fmt.Sprintf("%-10s  %-22s  %8s  %6s  %7s  %6s",
		"Date", "Name", "Distance", "Pace", "Time", "Load"))

	var rows []string
	rows = append(rows, header)

	for i, a := range m.data.RecentActivities {
		if i >= 5 {
			break
		}

		load := "-"
		if a.SessionTRIMP != nil {
			load = fmt.Sprintf("%.0f", *a.SessionTRIMP)
		}

		row := tableRowStyle.Render(fmt.Sprintf("%-10s  %-22s  %8s  %6s  %7s  %6s",
			a.StartDateLocal.Format("Jan 02"),
			truncateName(a.Name, 22),
			formatDistance(a.Distance),
			formatPace(a.MovingTime, a.Distance),
			formatDuration(a.MovingTime),
			load,
		))
		rows = append(rows, row)
	}

	table := lipgloss.JoinVertical(lipgloss.Left, rows...)
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, table, lastRun))
}
