package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zhouzirui/cleantech-assistant/backend/internal/widget"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffffff")).Background(lipgloss.Color("#22c55e")).Padding(0, 1)
	welcomeStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#22c55e"))
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#5C6F81"))
	userStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#145DA0")).Bold(true)
	botStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#16a34a")).Bold(true)
	timeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

const headerHeight, footerHeight = 1, 3

// replyMsg arrives once the widget has appended the bot reply.
type replyMsg widget.Message

type model struct {
	ctx     context.Context
	widget  *widget.Widget
	vp      viewport.Model
	input   textinput.Model
	spinner spinner.Model
	status  string
	width   int
}

func newModel(ctx context.Context, w *widget.Widget) model {
	ti := textinput.New()
	ti.Placeholder = "Type your message... (/category <n>, /attach <path>)"
	ti.CharLimit = 2000
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#22c55e"))

	m := model{
		ctx:     ctx,
		widget:  w,
		vp:      viewport.New(80, 20),
		input:   ti,
		spinner: sp,
		width:   80,
	}
	m.refresh()
	return m
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			cmd := m.handleInput(m.input.Value())
			m.refresh()
			return m, cmd
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.vp.Width = msg.Width
		m.vp.Height = max(msg.Height-headerHeight-footerHeight, 1)
		m.input.Width = max(msg.Width-4, 10)
		m.refresh()
	case replyMsg:
		m.refresh()
		return m, nil
	case spinner.TickMsg:
		if m.widget.State() != widget.StateAwaitingResponse {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.vp, cmd = m.vp.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// handleInput dispatches slash commands or submits the text to the relay.
func (m *model) handleInput(raw string) tea.Cmd {
	m.status = ""
	text := strings.TrimSpace(raw)

	switch {
	case strings.HasPrefix(text, "/category"):
		arg := strings.TrimSpace(strings.TrimPrefix(text, "/category"))
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 || n > len(widget.Categories) {
			m.status = fmt.Sprintf("usage: /category <1-%d>", len(widget.Categories))
			return nil
		}
		m.widget.SelectCategory(widget.Categories[n-1].Label)
		m.input.SetValue("")
		return nil
	case strings.HasPrefix(text, "/attach"):
		path := strings.TrimSpace(strings.TrimPrefix(text, "/attach"))
		if path == "" {
			m.status = "usage: /attach <path>"
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			m.status = fmt.Sprintf("cannot read %s: %v", path, err)
			return nil
		}
		if _, err := m.widget.Attach(filepath.Base(path), data); err != nil {
			m.status = err.Error()
			return nil
		}
		m.input.SetValue("")
		return nil
	}

	pending, err := m.widget.Submit(m.ctx, raw)
	switch {
	case errors.Is(err, widget.ErrEmptyInput):
		return nil
	case errors.Is(err, widget.ErrBusy):
		m.status = "still waiting for the previous reply"
		return nil
	case err != nil:
		m.status = err.Error()
		return nil
	}

	m.input.SetValue("")
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		return replyMsg(pending.Wait())
	})
}

func (m *model) refresh() {
	m.vp.SetContent(renderMessages(m.widget.Messages(), m.width))
	m.vp.GotoBottom()
}

func (m model) View() string {
	header := headerStyle.Render("Cleantech AI Assistant · Online - Ready to help")

	footer := m.status
	if m.widget.State() == widget.StateAwaitingResponse {
		footer = m.spinner.View() + " thinking..."
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.vp.View(),
		statusStyle.Render(footer),
		m.input.View(),
	)
}

func renderMessages(msgs []widget.Message, width int) string {
	wrap := lipgloss.NewStyle().Width(max(width-2, 20))

	var b strings.Builder
	for _, msg := range msgs {
		switch msg.Role {
		case widget.RoleWelcome:
			b.WriteString(welcomeStyle.Render("Welcome to Global Cleantech Directory!"))
			b.WriteString("\n")
			b.WriteString(hintStyle.Render("I'm here to help you discover cleantech solutions, connect with innovative companies, and explore sustainable technologies worldwide."))
			b.WriteString("\n")
			for i, c := range widget.Categories {
				b.WriteString(hintStyle.Render(fmt.Sprintf("  /category %d  %s %s", i+1, c.Icon, c.Label)))
				b.WriteString("\n")
			}
		case widget.RoleUser, widget.RoleBot:
			who := botStyle.Render("Assistant")
			if msg.Role == widget.RoleUser {
				who = userStyle.Render("You")
			}
			b.WriteString(timeStyle.Render(msg.Timestamp.Format("15:04")) + " " + who + "\n")
			b.WriteString(wrap.Render(messageBody(msg)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func messageBody(msg widget.Message) string {
	if msg.Attachment == nil {
		return msg.Text
	}
	if msg.Attachment.ImageDataURI != "" {
		return fmt.Sprintf("[image, %d bytes inline]", len(msg.Attachment.ImageDataURI))
	}
	return "[file] " + msg.Attachment.FileName
}
