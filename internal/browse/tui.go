// Package browse is a terminal UI for paging through stored jobs.
package browse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/XploY04/jobs.ai/internal/model"
)

// Lines per job item in the list view (title + subtitle + blank separator).
const jobItemHeight = 3

// listPageSize is how many jobs are pulled from the store at once.
const listPageSize = 200

type viewState int

const (
	viewList viewState = iota
	viewDetail
)

var (
	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Foreground(lipgloss.Color("39"))

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	jobTitleStyle = lipgloss.NewStyle().
			Bold(true)

	jobSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245"))

	selectedJobTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("24"))

	selectedJobSubtitleStyle = lipgloss.NewStyle().
					Foreground(lipgloss.Color("252")).
					Background(lipgloss.Color("24"))

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Width(16)

	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				MarginBottom(1)

	descBodyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

type browseModel struct {
	store model.JobStore

	jobs       []model.Job
	cursor     int
	remoteOnly bool
	loadError  string

	view     viewState
	detail   model.Job
	viewport viewport.Model

	width  int
	height int
	ready  bool
}

type jobsLoadedMsg struct {
	jobs []model.Job
	err  error
}

// Run starts the browse TUI over the given store.
func Run(store model.JobStore) error {
	m := browseModel{store: store}
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func (m browseModel) loadJobs() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	jobs, err := m.store.ListJobs(ctx, model.ListQuery{
		Limit:      listPageSize,
		RemoteOnly: m.remoteOnly,
	})
	return jobsLoadedMsg{jobs: jobs, err: err}
}

func (m browseModel) Init() tea.Cmd {
	return m.loadJobs
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.viewport = viewport.New(m.width-4, m.height-4)
		if m.view == viewDetail {
			m.viewport.SetContent(m.renderDetail())
		}
		return m, nil

	case jobsLoadedMsg:
		if msg.err != nil {
			m.loadError = msg.err.Error()
			return m, nil
		}
		m.loadError = ""
		m.jobs = msg.jobs
		if m.cursor >= len(m.jobs) {
			m.cursor = 0
		}
		return m, nil

	case tea.KeyMsg:
		if m.view == viewDetail {
			return m.updateDetail(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m browseModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.jobs)-1 {
			m.cursor++
		}
	case "g":
		m.cursor = 0
	case "G":
		if len(m.jobs) > 0 {
			m.cursor = len(m.jobs) - 1
		}
	case "r":
		m.remoteOnly = !m.remoteOnly
		m.cursor = 0
		return m, m.loadJobs
	case "R":
		return m, m.loadJobs
	case "enter":
		if len(m.jobs) > 0 {
			m.view = viewDetail
			m.detail = m.jobs[m.cursor]
			m.viewport = viewport.New(m.width-4, m.height-4)
			m.viewport.SetContent(m.renderDetail())
		}
	}
	return m, nil
}

func (m browseModel) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc", "backspace":
		m.view = viewList
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m browseModel) View() string {
	if !m.ready {
		return "loading..."
	}
	if m.view == viewDetail {
		header := headerStyle.Render("Job Detail")
		body := borderStyle.Width(m.width - 2).Render(m.viewport.View())
		status := m.statusBar("esc: back • ↑/↓: scroll • q: quit")
		return lipgloss.JoinVertical(lipgloss.Left, header, body, status)
	}
	return m.renderList()
}

func (m browseModel) renderList() string {
	title := fmt.Sprintf("Jobs (%d)", len(m.jobs))
	if m.remoteOnly {
		title += " • remote only"
	}
	header := headerStyle.Render(title)

	var body string
	switch {
	case m.loadError != "":
		body = errorStyle.Render("failed to load jobs: " + m.loadError)
	case len(m.jobs) == 0:
		body = jobSubtitleStyle.Render("no jobs stored yet; run an ingest cycle first")
	default:
		body = m.renderItems()
	}

	bodyHeight := m.height - 4
	if bodyHeight < 3 {
		bodyHeight = 3
	}
	framed := borderStyle.Width(m.width - 2).Height(bodyHeight).Render(body)
	status := m.statusBar("↑/↓: move • enter: detail • r: toggle remote • R: reload • q: quit")
	return lipgloss.JoinVertical(lipgloss.Left, header, framed, status)
}

func (m browseModel) renderItems() string {
	visible := (m.height - 6) / jobItemHeight
	if visible < 1 {
		visible = 1
	}
	start := 0
	if m.cursor >= visible {
		start = m.cursor - visible + 1
	}
	end := start + visible
	if end > len(m.jobs) {
		end = len(m.jobs)
	}

	var b strings.Builder
	for i := start; i < end; i++ {
		job := m.jobs[i]
		subtitle := fmt.Sprintf("%s • %s • %s", job.Company, locationLine(job), job.Source)
		if i == m.cursor {
			b.WriteString(selectedJobTitleStyle.Render(" "+job.Title+" ") + "\n")
			b.WriteString(selectedJobSubtitleStyle.Render(" "+subtitle+" ") + "\n\n")
		} else {
			b.WriteString(jobTitleStyle.Render(job.Title) + "\n")
			b.WriteString(jobSubtitleStyle.Render(subtitle) + "\n\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m browseModel) renderDetail() string {
	job := m.detail
	var b strings.Builder
	b.WriteString(detailTitleStyle.Render(job.Title) + "\n")

	row := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(detailLabelStyle.Render(label) + value + "\n")
	}

	row("Company", job.Company)
	row("Location", locationLine(job))
	row("Employment", job.EmploymentType)
	row("Seniority", job.SeniorityLevel)
	row("Category", job.Category)
	row("Salary", salaryLine(job))
	row("Skills", strings.Join(job.Skills, ", "))
	row("Posted", job.PostedAt.Format("Jan 2, 2006"))
	if job.ApplicationDeadline != nil {
		row("Deadline", job.ApplicationDeadline.Format("Jan 2, 2006"))
	}
	row("Quality", fmt.Sprintf("%d/100", job.QualityScore))
	row("Apply", job.ApplyURL)
	row("Source", fmt.Sprintf("%s (%s)", job.Source, job.ID))

	if job.Description != "" {
		b.WriteString("\n")
		b.WriteString(descBodyStyle.Render(job.Description))
	}
	return b.String()
}

func (m browseModel) statusBar(hint string) string {
	bar := statusBarStyle.Width(m.width)
	return bar.Render(hint)
}

func locationLine(job model.Job) string {
	var parts []string
	if job.City != "" {
		parts = append(parts, job.City)
	}
	if job.Country != "" {
		parts = append(parts, job.Country)
	}
	loc := strings.Join(parts, ", ")
	if job.IsRemote {
		if loc == "" {
			return "Remote"
		}
		return loc + " (remote)"
	}
	if loc == "" {
		return "Unknown"
	}
	return loc
}

func salaryLine(job model.Job) string {
	switch {
	case job.SalaryMin != "" && job.SalaryMax != "":
		return fmt.Sprintf("%s - %s %s", job.SalaryMin, job.SalaryMax, job.SalaryCurrency)
	case job.SalaryMin != "":
		return fmt.Sprintf("from %s %s", job.SalaryMin, job.SalaryCurrency)
	case job.SalaryMax != "":
		return fmt.Sprintf("up to %s %s", job.SalaryMax, job.SalaryCurrency)
	}
	return ""
}
