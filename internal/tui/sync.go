package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/Luke-Ashton/trainload/internal/export"
	"github.com/Luke-Ashton/trainload/internal/service"
	"github.com/Luke-Ashton/trainload/internal/store"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// SyncModel is the sync screen model
type SyncModel struct {
	syncService *service.SyncService
	db          *store.DB

	syncing  bool
	done     bool
	result   *service.SyncResult
	err      error
	progress service.SyncProgress

	progressCh chan service.SyncProgress

	failures viewport.Model
	vpReady  bool
	width    int
	height   int

	exported   bool
	exportPath string
	exportRows int
	exportErr  error

	weeklyPath string
	weeklyErr  error
	weeklyDone bool
}

// NewSyncModel creates a new sync model
func NewSyncModel(ss *service.SyncService, db *store.DB) SyncModel {
	return SyncModel{
		syncService: ss,
		db:          db,
	}
}

// WithSize records the window dimensions, which are needed before the
// failure list viewport can be built
func (m SyncModel) WithSize(width, height int) SyncModel {
	m.width = width
	m.height = height
	if m.vpReady {
		m.failures.Width = m.failureListWidth()
	}
	return m
}

// Init initializes the sync screen
func (m SyncModel) Init() tea.Cmd {
	return nil
}

type syncProgressMsg service.SyncProgress

type syncDoneMsg struct {
	result *service.SyncResult
	err    error
}

type progressClosedMsg struct{}

type exportDoneMsg struct {
	path string
	rows int
	err  error
}

type weeklyExportDoneMsg struct {
	path string
	err  error
}

// waitForProgress relays one progress update from the sync goroutine;
// Update re-issues it until the channel closes
func waitForProgress(ch <-chan service.SyncProgress) tea.Cmd {
	return func() tea.Msg {
		p, ok := <-ch
		if !ok {
			return progressClosedMsg{}
		}
		return syncProgressMsg(p)
	}
}

// Update handles messages
func (m SyncModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case syncProgressMsg:
		m.progress = service.SyncProgress(msg)
		return m, waitForProgress(m.progressCh)

	case progressClosedMsg:
		return m, nil

	case syncDoneMsg:
		m.syncing = false
		m.done = true
		m.result = msg.result
		m.err = msg.err
		if m.result != nil && len(m.result.Failures) > 0 {
			m.setupFailureList()
		}
		return m, nil

	case exportDoneMsg:
		m.exported = true
		m.exportPath = msg.path
		m.exportRows = msg.rows
		m.exportErr = msg.err
		return m, nil

	case weeklyExportDoneMsg:
		m.weeklyDone = true
		m.weeklyPath = msg.path
		m.weeklyErr = msg.err
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.vpReady {
			m.failures.Width = m.failureListWidth()
		}
		return m, nil

	case tea.KeyMsg:
		if !m.syncing {
			switch msg.String() {
			case "enter", "s":
				return m.startSync()
			case "e":
				if m.done && m.result != nil {
					return m, m.runExport
				}
			case "w":
				if m.done && m.result != nil {
					return m, m.runWeeklyExport
				}
			}
		}
	}

	// Scroll the failure list once it exists
	if m.vpReady && m.done {
		var cmd tea.Cmd
		m.failures, cmd = m.failures.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m SyncModel) startSync() (tea.Model, tea.Cmd) {
	m.syncing = true
	m.done = false
	m.err = nil
	m.result = nil
	m.progress = service.SyncProgress{}
	m.exported = false
	m.exportErr = nil
	m.weeklyDone = false
	m.weeklyErr = nil
	m.vpReady = false

	ch := make(chan service.SyncProgress, 64)
	m.progressCh = ch

	svc := m.syncService
	runSync := func() tea.Msg {
		result, err := svc.SyncAll(context.Background(), ch)
		return syncDoneMsg{result: result, err: err}
	}

	return m, tea.Batch(runSync, waitForProgress(ch))
}

func (m SyncModel) runExport() tea.Msg {
	path, rows, err := export.ExportFile(m.db, ".", m.result.RunID.String())
	return exportDoneMsg{path: path, rows: rows, err: err}
}

func (m SyncModel) runWeeklyExport() tea.Msg {
	path, _, err := export.ExportWeeklyFile(m.db, ".", m.result.RunID.String())
	return weeklyExportDoneMsg{path: path, err: err}
}

func (m *SyncModel) setupFailureList() {
	var lines []string
	for _, f := range m.result.Failures {
		lines = append(lines, fmt.Sprintf("%s (%d)", f.Name, f.ActivityID))
		lines = append(lines, "  "+helpDescStyle.Render(f.Reason))
	}

	height := len(lines)
	if height > 8 {
		height = 8
	}

	m.failures = viewport.New(m.failureListWidth(), height)
	m.failures.SetContent(strings.Join(lines, "\n"))
	m.vpReady = true
}

func (m SyncModel) failureListWidth() int {
	if m.width > 4 {
		return m.width - 4
	}
	return 76
}

// View renders the sync screen
func (m SyncModel) View() string {
	var sections []string

	title := cardTitleStyle.Render("Strava Sync")
	sections = append(sections, title)

	switch {
	case m.syncing:
		sections = append(sections, m.renderProgress())
	case m.done:
		if m.err != nil {
			sections = append(sections, errorStyle.Render(fmt.Sprintf("\n  Sync failed: %v", m.err)))
		} else {
			sections = append(sections, successStyle.Render("\n  Sync complete"))
		}
		sections = append(sections, m.renderSummary())
		sections = append(sections, m.renderExportStatus())
		sections = append(sections, "\n"+statusStyle.Render("  Press 'e' to export the table, 'w' for the weekly summary, 's' to sync again"))
	default:
		sections = append(sections, m.renderStartPrompt())
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m SyncModel) renderStartPrompt() string {
	var lines []string

	lines = append(lines, "")
	lines = append(lines, "  This will sync your Strava runs into the local table:")
	lines = append(lines, "")
	lines = append(lines, "  1. List new activities from Strava")
	lines = append(lines, "  2. Download per-second streams, pacing for the rate window")
	lines = append(lines, "  3. Compute per-tick training load")
	lines = append(lines, "")

	short, shortLimit, daily, dailyLimit := m.syncService.APIUsage()
	if shortLimit > 0 {
		lines = append(lines, statusStyle.Render(fmt.Sprintf("  API usage: %d/%d (15 min), %d/%d (daily)",
			short, shortLimit, daily, dailyLimit)))
	} else {
		lines = append(lines, statusStyle.Render("  API usage: reported after the first request"))
	}
	lines = append(lines, "")
	lines = append(lines, statusStyle.Render("  Press 's' or Enter to start"))

	return strings.Join(lines, "\n")
}

func (m SyncModel) renderProgress() string {
	var lines []string
	lines = append(lines, "")

	p := m.progress
	switch p.Phase {
	case service.PhaseActivities:
		lines = append(lines, fmt.Sprintf("  Listing activities... %d fetched", p.Completed))

	case service.PhaseCooldown:
		lines = append(lines, fmt.Sprintf("  Downloading streams (%d pending)", p.Total))
		lines = append(lines, "")
		lines = append(lines, warningStyle.Render(fmt.Sprintf("  Request window spent - cooling down for %s", p.Cooldown)))

	case service.PhaseStreams:
		frac := 0.0
		if p.Total > 0 {
			frac = float64(p.Completed) / float64(p.Total)
		}
		lines = append(lines, fmt.Sprintf("  Downloading streams  %s  %d/%d",
			RenderProgressBar(frac, 30), p.Completed, p.Total))
		if p.CurrentActivity != "" {
			lines = append(lines, statusStyle.Render("  "+truncateName(p.CurrentActivity, 50)))
		}

	default:
		lines = append(lines, "  Starting sync...")
	}

	lines = append(lines, "")
	lines = append(lines, statusStyle.Render("  Keys are disabled until the sync finishes"))

	return strings.Join(lines, "\n")
}

func (m SyncModel) renderSummary() string {
	if m.result == nil {
		return ""
	}

	r := m.result
	var lines []string
	lines = append(lines, "")

	if r.ActivitiesStored > 0 {
		lines = append(lines, successStyle.Render(fmt.Sprintf("  %d new activities (%d listed, %d ineligible)",
			r.ActivitiesStored, r.ActivitiesListed, r.SkippedIneligible)))
	} else {
		lines = append(lines, statusStyle.Render(fmt.Sprintf("  No new activities (%d listed, %d ineligible)",
			r.ActivitiesListed, r.SkippedIneligible)))
	}

	if r.ActivitiesSampled > 0 {
		lines = append(lines, successStyle.Render(fmt.Sprintf("  %d activities sampled, %s table rows added",
			r.ActivitiesSampled, humanize.Comma(int64(r.SamplesComputed)))))
	}

	if len(r.Errors) > 0 {
		lines = append(lines, warningStyle.Render(fmt.Sprintf("  %d errors occurred", len(r.Errors))))
	}

	if len(r.Failures) > 0 {
		lines = append(lines, "")
		lines = append(lines, warningStyle.Render(fmt.Sprintf("  %d activities could not be sampled:", len(r.Failures))))
		if m.vpReady {
			lines = append(lines, m.failures.View())
		}
	}

	return strings.Join(lines, "\n")
}

func (m SyncModel) renderExportStatus() string {
	var lines []string

	if m.exported {
		if m.exportErr != nil {
			lines = append(lines, errorStyle.Render(fmt.Sprintf("\n  Export failed: %v", m.exportErr)))
		} else {
			lines = append(lines, successStyle.Render(fmt.Sprintf("\n  Exported %s rows to %s",
				humanize.Comma(int64(m.exportRows)), m.exportPath)))
		}
	}

	if m.weeklyDone {
		if m.weeklyErr != nil {
			lines = append(lines, errorStyle.Render(fmt.Sprintf("\n  Weekly export failed: %v", m.weeklyErr)))
		} else {
			lines = append(lines, successStyle.Render("\n  Weekly summary written to "+m.weeklyPath))
		}
	}

	return strings.Join(lines, "")
}
