package ui

import (
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/gorilla/websocket"

	"cs2panel/pkg/sdk"
)

type consoleModel struct {
	sub        chan string
	conn       *websocket.Conn
	viewport   viewport.Model
	textInput  textinput.Model
	err        error
	ready      bool
	instanceID string
	instance   *sdk.Instance
	content    string
	back       bool
	client     *sdk.Client
	width      int
	height     int
}

func initialConsoleModel(id string, conn *websocket.Conn, sub chan string, client *sdk.Client) consoleModel {
	ti := textinput.New()
	ti.Placeholder = "Type an RCON command..."
	ti.Focus()
	ti.CharLimit = 156
	ti.Width = 20

	return consoleModel{
		sub:        sub,
		conn:       conn,
		textInput:  ti,
		instanceID: id,
		client:     client,
	}
}

func (m consoleModel) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		waitForLine(m.sub),
		getInstanceDetails(m.client, m.instanceID),
		tickCmd(),
	)
}

type lineMsg string
type consoleErrMsg error
type instanceDetailsMsg *sdk.Instance

func waitForLine(sub chan string) tea.Cmd {
	return func() tea.Msg {
		if sub == nil {
			return nil
		}
		msg, ok := <-sub
		if !ok {
			return nil
		}
		return lineMsg(msg)
	}
}

func getInstanceDetails(client *sdk.Client, id string) tea.Cmd {
	return func() tea.Msg {
		inst, err := client.GetInstance(id)
		if err != nil {
			return consoleErrMsg(err)
		}
		return instanceDetailsMsg(inst)
	}
}

func (m consoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEsc:
			m.back = true
			return m, tea.Quit
		case tea.KeyEnter:
			if m.textInput.Value() != "" {
				cmd := m.textInput.Value()
				m.textInput.SetValue("")
				if m.conn != nil {
					_ = m.conn.WriteMessage(websocket.TextMessage, []byte(cmd))
				}
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 14
		contentWidth := msg.Width - 6

		if !m.ready {
			m.viewport = viewport.New(contentWidth, msg.Height-headerHeight)
			m.viewport.YPosition = headerHeight
			m.ready = true
		} else {
			m.viewport.Width = contentWidth
			m.viewport.Height = msg.Height - headerHeight
		}

	case lineMsg:
		m.content += string(msg) + "\n"
		m.viewport.SetContent(m.content)
		m.viewport.GotoBottom()
		return m, waitForLine(m.sub)

	case instanceDetailsMsg:
		m.instance = msg

	case consoleErrMsg:
		m.err = msg
		return m, tea.Quit
	case tickMsg:
		return m, tea.Batch(getInstanceDetails(m.client, m.instanceID), tickCmd())
	}

	m.textInput, tiCmd = m.textInput.Update(msg)
	m.viewport, vpCmd = m.viewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd)
}

func (m consoleModel) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	title := headerStyle.Width(m.width).Render("SERVER CONSOLE")

	infoContent := "Loading instance details..."
	if m.instance != nil {
		statusColor := "160"
		statusIcon := "🔴"
		switch m.instance.Status {
		case "running":
			statusColor = "42"
			statusIcon = "🟢"
		case "starting", "installing", "updating":
			statusColor = "220"
			statusIcon = "🟡"
		}

		statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(statusColor))

		infoContent = fmt.Sprintf(
			"Instance: %s %s  •  ID: %s  •  Port: %d\nMode: %s  •  Map: %s  •  Max players: %d",
			statusIcon,
			statusStyle.Render(m.instance.Name),
			m.instance.ID,
			m.instance.Port,
			m.instance.GameMode,
			m.instance.CurrentMap,
			m.instance.MaxPlayers,
		)
	}

	headerBox := baseStyle.
		Width(m.width-4).
		Align(lipgloss.Center).
		Padding(0, 1).
		Render(infoContent)

	console := baseStyle.
		Width(m.width - 4).
		Render(m.viewport.View())

	keys := []string{
		keyStyle.Render("esc") + descStyle.Render(": back"),
		keyStyle.Render("ctrl+c") + descStyle.Render(": quit"),
	}
	helpText := ""
	for i, k := range keys {
		helpText += k
		if i < len(keys)-1 {
			helpText += lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render(" • ")
		}
	}

	inputLine := fmt.Sprintf("→ %s", m.textInput.View())

	helpLine := lipgloss.NewStyle().
		Width(m.width - 6).
		Align(lipgloss.Center).
		Render(helpText)

	footerContent := lipgloss.JoinVertical(lipgloss.Left,
		inputLine,
		"\n",
		helpLine,
	)

	footerBox := footerStyle.
		Width(m.width - 4).
		Align(lipgloss.Left).
		Render(footerContent)

	return lipgloss.JoinVertical(lipgloss.Center,
		title,
		headerBox,
		console,
		footerBox,
	)
}

// RunConsole opens the interactive console for one instance. It
// returns true when the user backed out to the dashboard.
func RunConsole(client *sdk.Client, id string) bool {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	wsURL, err := client.ConsoleSocketURL(id)
	if err != nil {
		log.Fatal("Error parsing base URL:", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		fmt.Printf("Error connecting to console: %v\nPress Enter to continue...", err)
		fmt.Scanln()
		return true
	}
	defer conn.Close()

	sub := make(chan string)

	go func() {
		defer close(sub)
		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				return
			}
			sub <- string(message)
		}
	}()

	p := tea.NewProgram(
		initialConsoleModel(id, conn, sub, client),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	m, err := p.Run()
	if err != nil {
		log.Printf("Error running console UI: %v", err)
		return true
	}

	if cm, ok := m.(consoleModel); ok {
		return cm.back
	}
	return false
}
