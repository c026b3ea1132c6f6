package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"xeon-pwm/internal/client"
	"xeon-pwm/internal/protocol"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Interactive duty cycle control",
	Long: `Interactive terminal UI for the controller.

Keys:
  up/down      duty cycle +1/-1
  pgup/pgdown  duty cycle +10%/-10% of the maximum
  e            type an exact duty cycle (enter applies, esc cancels)
  r            re-read settings and duty cycle
  q            quit`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := openSerialConnection(portName, baudRate, readTimeout)
		if err != nil {
			return err
		}
		defer conn.Close()

		m := newTUIModel(client.New(conn), fmt.Sprintf("Serial: %s @ %d baud", portName, baudRate))
		if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
			return fmt.Errorf("TUI error: %v", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

type refreshedMsg struct {
	settings protocol.SettingsReport
	duty     uint32
}

type dutySetMsg struct {
	duty uint32
}

type errMsg struct {
	err error
}

type tuiModel struct {
	c        *client.Client
	connInfo string

	settings protocol.SettingsReport
	duty     uint32
	loaded   bool

	input   textinput.Model
	editing bool

	status    string
	statusErr bool
	quitting  bool
}

func newTUIModel(c *client.Client, connInfo string) tuiModel {
	ti := textinput.New()
	ti.Placeholder = "170"
	ti.CharLimit = 5
	ti.Width = 8
	return tuiModel{c: c, connInfo: connInfo, input: ti, settings: client.DefaultSettings()}
}

func (m tuiModel) Init() tea.Cmd {
	return refreshCmd(m.c)
}

func refreshCmd(c *client.Client) tea.Cmd {
	return func() tea.Msg {
		s, err := c.Settings()
		if err != nil {
			return errMsg{err}
		}
		d, err := c.DutyCycle()
		if err != nil {
			return errMsg{err}
		}
		return refreshedMsg{settings: s, duty: d}
	}
}

func setDutyCmd(c *client.Client, duty int) tea.Cmd {
	return func() tea.Msg {
		if err := c.SetDutyCycle(duty); err != nil {
			return errMsg{err}
		}
		d, err := c.DutyCycle()
		if err != nil {
			return errMsg{err}
		}
		return dutySetMsg{duty: d}
	}
}

// stepDuty moves cur by delta and keeps the result within [0, max].
func stepDuty(cur uint32, delta int, max uint32) int {
	v := int(cur) + delta
	if v < 0 {
		return 0
	}
	if v > int(max) {
		return int(max)
	}
	return v
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.editing {
			return m.updateEditing(msg)
		}
		return m.handleKey(msg)

	case refreshedMsg:
		m.settings, m.duty, m.loaded = msg.settings, msg.duty, true
		m.status, m.statusErr = "Settings refreshed", false

	case dutySetMsg:
		m.duty = msg.duty
		m.status, m.statusErr = fmt.Sprintf("Duty cycle set to %d", msg.duty), false

	case errMsg:
		m.status, m.statusErr = msg.err.Error(), true
	}
	return m, nil
}

func (m tuiModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	step := int(m.settings.MaxDutyCycle / 10)
	if step == 0 {
		step = 1
	}
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "r":
		return m, refreshCmd(m.c)
	case "up", "+", "k":
		return m, setDutyCmd(m.c, stepDuty(m.duty, 1, m.settings.MaxDutyCycle))
	case "down", "-", "j":
		return m, setDutyCmd(m.c, stepDuty(m.duty, -1, m.settings.MaxDutyCycle))
	case "pgup":
		return m, setDutyCmd(m.c, stepDuty(m.duty, step, m.settings.MaxDutyCycle))
	case "pgdown":
		return m, setDutyCmd(m.c, stepDuty(m.duty, -step, m.settings.MaxDutyCycle))
	case "e", "enter":
		m.editing = true
		m.input.SetValue("")
		return m, m.input.Focus()
	}
	return m, nil
}

func (m tuiModel) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "esc":
		m.editing = false
		m.input.Blur()
		return m, nil
	case "enter":
		m.editing = false
		m.input.Blur()
		v, err := strconv.Atoi(strings.TrimSpace(m.input.Value()))
		if err != nil {
			m.status, m.statusErr = fmt.Sprintf("not a number: %q", m.input.Value()), true
			return m, nil
		}
		return m, setDutyCmd(m.c, v)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m tuiModel) View() string {
	if m.quitting {
		return "Bye.\n"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	var s strings.Builder
	s.WriteString(titleStyle.Render("xeon-pwm"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(m.connInfo))
	s.WriteString("\n\n")

	row := func(label, value string) string {
		return labelStyle.Render(fmt.Sprintf("%-14s", label)) + valueStyle.Render(value) + "\n"
	}

	var body strings.Builder
	if !m.loaded {
		body.WriteString(headerStyle.Render("reading controller...") + "\n")
	}
	body.WriteString(row("Duty cycle", fmt.Sprintf("%d / %d", m.duty, m.settings.MaxDutyCycle)))
	body.WriteString(row("Fan speed", fmt.Sprintf("%d%%", fanPercent(m.duty, m.settings.MaxDutyCycle))))
	body.WriteString(row("Channel", strconv.FormatUint(uint64(m.settings.Channel), 10)))
	body.WriteString(row("Frequency", fmt.Sprintf("%d Hz", m.settings.FrequencyHz)))
	body.WriteString(row("Resolution", fmt.Sprintf("%d bit", m.settings.ResolutionBits)))
	body.WriteString(row("GPIO pin", strconv.FormatUint(uint64(m.settings.Pin), 10)))
	s.WriteString(boxStyle.Render(strings.TrimRight(body.String(), "\n")))
	s.WriteString("\n\n")

	if m.editing {
		s.WriteString("Duty cycle: " + m.input.View() + "\n\n")
	}
	if m.status != "" {
		if m.statusErr {
			s.WriteString(errorStyle.Render(m.status))
		} else {
			s.WriteString(headerStyle.Render(m.status))
		}
		s.WriteString("\n")
	}
	s.WriteString(headerStyle.Render("up/down ±1  pgup/pgdown ±10%  e edit  r refresh  q quit"))
	s.WriteString("\n")
	return s.String()
}

// fanPercent is the fan speed implied by duty; the fan input is inverted.
func fanPercent(duty, max uint32) int {
	if max == 0 {
		return 0
	}
	return int(100 - uint64(duty)*100/uint64(max))
}
