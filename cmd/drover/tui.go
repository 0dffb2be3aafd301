package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/droverhq/drover"
)

var (
	userLabel    = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	workerLabel  = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	toolLabel    = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	partialStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// Messages delivered from the inference goroutine to Update. Partials go
// through the events channel so they can render as they arrive; the final
// message or error closes out the turn.
type (
	partialMsg struct{ msg drover.ChatMessage }
	finalMsg   struct{ msg drover.ChatMessage }
	errMsg     struct{ err error }
)

type chatModel struct {
	engine  *drover.Engine
	session *drover.ChatSession

	input  textinput.Model
	events chan tea.Msg
	save   func(*drover.ChatSession) error

	transcript []string
	partial    []string
	waiting    bool
	cancel     chan struct{}
	cancelSent bool
	totalCost  float64
	width      int
	err        error
}

func newChatModel(engine *drover.Engine, session *drover.ChatSession) *chatModel {
	ti := textinput.New()
	ti.Placeholder = "Ask the worker anything"
	ti.Focus()
	return &chatModel{
		engine:  engine,
		session: session,
		input:   ti,
		events:  make(chan tea.Msg, 16),
	}
}

func (m *chatModel) Init() tea.Cmd {
	return textinput.Blink
}

// listen blocks on the events channel for the next message pushed by the
// inference goroutine. Update re-arms it after every partial.
func listen(ch chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

func (m *chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEsc:
			if m.waiting && !m.cancelSent {
				close(m.cancel)
				m.cancelSent = true
			}
			return m, nil
		case tea.KeyEnter:
			if !m.waiting {
				return m, m.submit()
			}
			return m, nil
		}

	case partialMsg:
		m.applyPartial(msg.msg.Text)
		return m, listen(m.events)

	case finalMsg:
		m.finishTurn(msg.msg)
		return m, nil

	case errMsg:
		m.waiting = false
		m.partial = nil
		m.err = msg.err
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit records the user's line in the session and kicks off an inference
// turn against it.
func (m *chatModel) submit() tea.Cmd {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return nil
	}
	now := time.Now()
	m.session.Messages = append(m.session.Messages, drover.ChatMessage{
		ID:        uuid.NewString(),
		SessionID: m.session.ID,
		Role:      drover.RoleUser,
		Text:      text,
		Timestamp: now,
		Done:      true,
	})
	m.session.UpdatedAt = now
	m.transcript = append(m.transcript, userLabel.Render("you")+"  "+text)
	m.input.Reset()
	m.err = nil
	m.partial = nil
	m.waiting = true
	m.cancelSent = false
	m.cancel = make(chan struct{})
	return tea.Batch(m.startInference(), listen(m.events))
}

// startInference runs the turn on a worker goroutine. Partials stream into
// the events channel; the terminal message (or error) follows them and ends
// the listen loop.
func (m *chatModel) startInference() tea.Cmd {
	engine := m.engine
	session := m.session
	cancel := m.cancel
	events := m.events
	return func() tea.Msg {
		final, err := engine.Inference(context.Background(), drover.InferenceArgs{
			Session: session,
			Cancel:  cancel,
			OnPartial: func(_ context.Context, p drover.ChatMessage) error {
				events <- partialMsg{msg: p}
				return nil
			},
		})
		if err != nil {
			return errMsg{err: err}
		}
		return finalMsg{msg: final}
	}
}

// applyPartial folds the next partial into the streaming preview. A tool
// excerpt grows in place, so a chunk that extends the previous one replaces
// it; a fresh sentence starts a new chunk.
func (m *chatModel) applyPartial(text string) {
	if n := len(m.partial); n > 0 && strings.HasPrefix(text, m.partial[n-1]) {
		m.partial[n-1] = text
		return
	}
	m.partial = append(m.partial, text)
}

func (m *chatModel) finishTurn(final drover.ChatMessage) {
	m.waiting = false
	m.partial = nil
	m.session.Messages = append(m.session.Messages, final)
	m.session.UpdatedAt = time.Now()
	m.totalCost += final.Cost

	if final.Text != "" {
		m.transcript = append(m.transcript, workerLabel.Render("worker")+"\n"+m.renderMarkdown(final.Text))
	}
	for _, tc := range final.ToolCalls {
		m.transcript = append(m.transcript, toolLabel.Render("tool")+"  "+tc.Name+" "+string(tc.Arguments))
	}

	if m.save != nil {
		if err := m.save(m.session); err != nil {
			m.err = fmt.Errorf("save session: %w", err)
		}
	}
}

func (m *chatModel) renderMarkdown(text string) string {
	width := m.width
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width))
	if err != nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

func (m *chatModel) View() string {
	var b strings.Builder
	for _, entry := range m.transcript {
		b.WriteString(entry)
		b.WriteString("\n")
	}
	if m.waiting {
		line := strings.Join(m.partial, "")
		if line == "" {
			line = "…"
		}
		if m.cancelSent {
			line += " (cancelling)"
		}
		b.WriteString(partialStyle.Render(line))
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(errorStyle.Render("error: " + m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(footerStyle.Render(fmt.Sprintf("session cost $%.4f · enter sends · esc cancels · ctrl+c quits", m.totalCost)))
	return b.String()
}
