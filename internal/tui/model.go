// Package tui is the terminal front end: a bubbletea program that draws the
// conversation and forwards the user's questions to the coordinator.
package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"northwind-chat/internal/store"
	"northwind-chat/internal/viz"
)

const clearCommand = "/clear"

// Submitter is the coordinator surface the terminal drives.
type Submitter interface {
	Submit(text string) bool
	Clear() bool
}

// Conversation is the read side of the store.
type Conversation interface {
	State() store.ConversationState
	Subscribe(func(store.ConversationState)) (cancel func())
}

// stateChangedMsg carries no snapshot; the model re-reads the store.
type stateChangedMsg struct{}

type Model struct {
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	coord      Submitter
	conv       Conversation
	dispatcher *viz.Dispatcher

	changes chan struct{}
	cancel  func()

	state  store.ConversationState
	status string
	width  int
	height int
	ready  bool
}

func New(coord Submitter, conv Conversation, dispatcher *viz.Dispatcher) Model {
	if dispatcher == nil {
		dispatcher = viz.NewDispatcher(viz.DefaultOptions())
	}
	ti := textinput.New()
	ti.Placeholder = "Ask about sales, products, customers..."
	ti.Prompt = "> "
	ti.CharLimit = 2000
	ti.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(assistantLabelStyle))

	// One pending signal is enough: every signal triggers a full re-read.
	changes := make(chan struct{}, 1)
	cancel := conv.Subscribe(func(store.ConversationState) {
		select {
		case changes <- struct{}{}:
		default:
		}
	})

	return Model{
		input:      ti,
		spinner:    sp,
		coord:      coord,
		conv:       conv,
		dispatcher: dispatcher,
		changes:    changes,
		cancel:     cancel,
		state:      conv.State(),
	}
}

// Close stops listening for store changes.
func (m Model) Close() {
	if m.cancel != nil {
		m.cancel()
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForChange())
}

func (m Model) waitForChange() tea.Cmd {
	ch := m.changes
	return func() tea.Msg {
		<-ch
		return stateChangedMsg{}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			return m.handleSubmit()
		case tea.KeyPgUp:
			m.viewport.HalfViewUp()
			return m, nil
		case tea.KeyPgDown:
			m.viewport.HalfViewDown()
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		headerHeight := 2
		footerHeight := 5
		h := msg.Height - headerHeight - footerHeight
		if h < 3 {
			h = 3
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, h)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = h
		}
		m.input.Width = msg.Width - 8
		m.renderer, _ = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(msg.Width-4),
		)
		m.refresh()
		return m, nil

	case stateChangedMsg:
		cmd := m.sync()
		return m, tea.Batch(cmd, m.waitForChange())

	case spinner.TickMsg:
		if !m.state.AwaitingResponse {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}
	if strings.EqualFold(text, clearCommand) {
		if m.coord.Clear() {
			m.input.Reset()
			m.status = ""
		} else {
			m.status = "Wait for the current answer before clearing."
		}
		return m, m.sync()
	}
	if !m.coord.Submit(text) {
		m.status = "Still waiting for the previous answer."
		return m, nil
	}
	m.input.Reset()
	m.status = ""
	return m, m.sync()
}

// sync re-reads the conversation and starts the spinner when a call begins.
func (m *Model) sync() tea.Cmd {
	wasAwaiting := m.state.AwaitingResponse
	m.state = m.conv.State()
	m.refresh()
	if m.state.AwaitingResponse && !wasAwaiting {
		return m.spinner.Tick
	}
	return nil
}

func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Northwind Analytics"))
	b.WriteString("\n\n")
	if m.ready {
		b.WriteString(m.viewport.View())
	} else {
		b.WriteString(m.renderHistory())
	}
	b.WriteString("\n")
	switch {
	case m.state.AwaitingResponse:
		b.WriteString(m.spinner.View() + statusStyle.Render(" Thinking..."))
	case m.status != "":
		b.WriteString(statusStyle.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(inputBoxStyle.Render(m.input.View()))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter: send • /clear: new conversation • pgup/pgdn: scroll • esc: quit"))
	return b.String()
}

func (m Model) renderHistory() string {
	if len(m.state.Messages) == 0 {
		return statusStyle.Render(`Ask a question about your data, for example "top products?"`)
	}
	blocks := make([]string, 0, len(m.state.Messages))
	for _, msg := range m.state.Messages {
		blocks = append(blocks, m.renderMessage(msg))
	}
	return strings.Join(blocks, "\n\n")
}

func (m Model) renderMessage(msg store.Message) string {
	if msg.Origin == store.OriginUser {
		return userLabelStyle.Render("You") + "\n" + msg.Text
	}
	var b strings.Builder
	b.WriteString(assistantLabelStyle.Render("Assistant"))
	b.WriteString("\n")
	if msg.Failed {
		b.WriteString(failedStyle.Render(msg.Text))
		return b.String()
	}
	b.WriteString(m.markdown(msg.Text))
	if msg.Payload != nil {
		plan := m.dispatcher.SelectRenderer(msg.Payload)
		if out := renderPlan(plan, m.width); out != "" {
			b.WriteString("\n\n")
			b.WriteString(out)
		}
	}
	return b.String()
}

func (m Model) markdown(text string) string {
	if m.renderer == nil {
		return text
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}

// RenderMessage draws one turn outside the interactive program, without
// markdown styling.
func RenderMessage(msg store.Message, dispatcher *viz.Dispatcher, width int) string {
	if dispatcher == nil {
		dispatcher = viz.NewDispatcher(viz.DefaultOptions())
	}
	m := Model{dispatcher: dispatcher, width: width}
	return m.renderMessage(msg)
}
