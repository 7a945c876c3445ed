package ui

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"cs2panel/pkg/sdk"
)

type model struct {
	table     table.Model
	instances []sdk.Instance
	err       error
	width     int
	height    int
	isLoading bool
	message   string
	client    *sdk.Client
}

type instanceDataMsg []sdk.Instance

type errMsg error

// RunDashboard shows the instance table and returns the selected
// instance id, or "" when the user quit.
func RunDashboard(client *sdk.Client) string {
	columns := []table.Column{
		{Title: "Sts", Width: 3},
		{Title: "ID", Width: 36},
		{Title: "Name", Width: 20},
		{Title: "Port", Width: 6},
		{Title: "Mode", Width: 12},
		{Title: "Map", Width: 16},
		{Title: "Players", Width: 8},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	m := model{
		table:     t,
		isLoading: true,
		client:    client,
	}

	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithInput(os.Stdin), tea.WithOutput(os.Stdout))
	finalModel, err := program.Run()
	if err != nil {
		fmt.Printf("Error running dashboard: %v", err)
		os.Exit(1)
	}

	if m, ok := finalModel.(model); ok {
		if m.message == "navigate_console" {
			selectedRow := m.table.SelectedRow()
			if len(selectedRow) > 1 {
				return selectedRow[1]
			}
		}
	}

	return ""
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		fetchInstancesCmd(m.client),
		tickCmd(),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "s":
			if id, status := m.selected(); id != "" {
				if status == "running" || status == "starting" {
					m.message = fmt.Sprintf("Instance %s is already %s", id, status)
				} else {
					go m.client.StartInstance(id)
					m.message = fmt.Sprintf("Starting instance %s...", id)
				}
				return m, clearMessageCmd()
			}
		case "x":
			if id, status := m.selected(); id != "" {
				if status != "running" && status != "starting" {
					m.message = fmt.Sprintf("Instance %s is not running (status: %s)", id, status)
				} else {
					go m.client.StopInstance(id)
					m.message = fmt.Sprintf("Stopping instance %s...", id)
				}
				return m, clearMessageCmd()
			}
		case "r":
			if id, status := m.selected(); id != "" && status == "running" {
				go m.client.RestartInstance(id)
				m.message = fmt.Sprintf("Restarting instance %s...", id)
				return m, clearMessageCmd()
			}
		case "enter":
			m.message = "navigate_console"
			return m, tea.Quit
		}
	case string:
		if msg == "clear_message" {
			m.message = ""
			return m, nil
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetWidth(msg.Width - 10)
		m.table.SetHeight(msg.Height - 10)
	case instanceDataMsg:
		m.isLoading = false
		m.instances = msg
		m.updateTable()
		return m, nil
	case tickMsg:
		return m, tea.Batch(fetchInstancesCmd(m.client), tickCmd())
	case errMsg:
		m.err = msg
		return m, nil
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m model) selected() (id, status string) {
	selectedRow := m.table.SelectedRow()
	if len(selectedRow) < 2 {
		return "", ""
	}
	id = selectedRow[1]
	for _, inst := range m.instances {
		if inst.ID == id {
			return id, inst.Status
		}
	}
	return id, ""
}

func (m *model) updateTable() {
	rows := []table.Row{}
	for _, inst := range m.instances {
		status := "🔴"
		switch inst.Status {
		case "running":
			status = "🟢"
		case "starting", "installing", "updating":
			status = "🟡"
		case "stopping":
			status = "🟠"
		case "crashed":
			status = "💥"
		}

		rows = append(rows, table.Row{
			status,
			inst.ID,
			inst.Name,
			fmt.Sprintf("%d", inst.Port),
			inst.GameMode,
			inst.CurrentMap,
			fmt.Sprintf("%d", inst.MaxPlayers),
		})
	}
	m.table.SetRows(rows)
}

func (m model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	title := headerStyle.Render("CS2 PANEL")
	clock := subHeaderStyle.Render(time.Now().Format("Mon Jan 2 15:04:05"))

	hostInfo := fmt.Sprintf("Daemon: %s  |  Instances: %d", m.client.BaseURL(), len(m.instances))
	headerBox := baseStyle.
		Width(m.width-4).
		Align(lipgloss.Center).
		Padding(0, 1).
		Render(lipgloss.JoinVertical(lipgloss.Center, title, clock, " ", hostInfo))

	tableContainer := baseStyle.
		Width(m.width - 4).
		Height(m.height - 12).
		Render(m.table.View())

	statusLine := "↑/↓: navigate • s: start • x: stop • r: restart • enter: console • q: quit"
	footerText := lipgloss.NewStyle().
		MarginLeft(2).
		Foreground(lipgloss.Color("240")).
		Render(statusLine)

	if m.message != "" && m.message != "navigate_console" {
		footerText = fmt.Sprintf("%s\n%s",
			lipgloss.NewStyle().MarginLeft(2).Foreground(lipgloss.Color("205")).Bold(true).Render(m.message),
			footerText)
	}

	return lipgloss.JoinVertical(lipgloss.Center,
		headerBox,
		tableContainer,
		footerText,
	)
}

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func clearMessageCmd() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg {
		return "clear_message"
	})
}

func fetchInstancesCmd(client *sdk.Client) tea.Cmd {
	return func() tea.Msg {
		instances, err := client.ListInstances()
		if err != nil {
			return errMsg(err)
		}
		return instanceDataMsg(instances)
	}
}
