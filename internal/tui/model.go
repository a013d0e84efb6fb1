package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docdex/internal/answer"
	"docdex/internal/domain"
)

const searchTimeout = 60 * time.Second

// SearchPort is the TUI-facing subset of the query pipeline.
type SearchPort interface {
	Search(ctx context.Context, query string, k int) (domain.QueryOutcome, error)
}

type searchDoneMsg struct {
	query   string
	outcome domain.QueryOutcome
	err     error
}

type turn struct {
	role string // "you", "answer", "meta" or "error"
	text string
}

// Model is the Bubble Tea model for the chat application.
type Model struct {
	searcher SearchPort
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	transcript []turn
	topK       int
	indexSize  int
	generator  string

	searching    bool
	totalQueries int
	ready        bool
}

// New creates the chat model. generatorName may be empty when answers
// come from the templated renderer only.
func New(searcher SearchPort, topK, indexSize int, generatorName string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about the documentation and press Enter"
	ti.Focus()
	ti.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	return Model{
		searcher:  searcher,
		input:     ti,
		viewport:  viewport.New(0, 0),
		spinner:   sp,
		topK:      topK,
		indexSize: indexSize,
		generator: generatorName,
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and search completion events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, th := transcriptBoxStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		reserved := 1 + 1 + ih + 1 // header, footer, input frame, spacer
		vh := msg.Height - reserved - th
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = vh
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		if msg.String() == "enter" {
			query := strings.TrimSpace(m.input.Value())
			if query == "" || m.searching {
				return m, nil
			}
			m.transcript = append(m.transcript, turn{role: "you", text: query})
			m.searching = true
			m.input.Reset()
			m.viewport.SetContent(m.renderTranscript())
			m.viewport.GotoBottom()
			return m, tea.Batch(m.spinner.Tick, runSearch(m.searcher, query, m.topK))
		}

	case searchDoneMsg:
		m.searching = false
		m.totalQueries++
		if msg.err != nil {
			m.transcript = append(m.transcript, turn{role: "error", text: msg.err.Error()})
		} else {
			text := msg.outcome.NaturalResponse
			if text == "" {
				text = answer.Render(msg.outcome)
			}
			m.transcript = append(m.transcript,
				turn{role: "answer", text: text},
				turn{role: "meta", text: describeOutcome(msg.outcome)},
			)
		}
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, nil

	case spinner.TickMsg:
		if !m.searching {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// View renders the chat layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := titleStyle.Render("docdex")
	transcript := transcriptBoxStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())
	return header + "\n" + transcript + "\n" + input + "\n" + m.footer()
}

func (m Model) footer() string {
	if m.searching {
		return m.spinner.View() + " searching..."
	}
	gen := m.generator
	if gen == "" {
		gen = "templated answers"
	}
	return footerStyle.Render(fmt.Sprintf(
		"%d passages indexed | %s | queries: %d | PgUp/PgDn to scroll, Ctrl+C to quit",
		m.indexSize, gen, m.totalQueries,
	))
}

func (m Model) renderTranscript() string {
	if len(m.transcript) == 0 {
		return welcomeStyle.Render(fmt.Sprintf(
			"Ask about the indexed documentation (%d passages).", m.indexSize,
		))
	}
	width := max(20, m.viewport.Width-2)
	var b strings.Builder
	for i, t := range m.transcript {
		if i > 0 {
			b.WriteString("\n")
		}
		switch t.role {
		case "you":
			b.WriteString(userStyle.Render("You: ") + t.text + "\n")
		case "answer":
			b.WriteString(answerStyle.Width(width).Render(t.text) + "\n")
		case "meta":
			b.WriteString(metaStyle.Render(t.text) + "\n")
		case "error":
			b.WriteString(errorStyle.Render("Error: "+t.text) + "\n")
		}
	}
	return b.String()
}

func describeOutcome(o domain.QueryOutcome) string {
	source := "templated answer"
	if o.GeneratorUsed {
		source = "generated answer"
	}
	if !o.Intent.Searchable() {
		return fmt.Sprintf("[intent: %s | no search | %s]", o.Intent, source)
	}
	return fmt.Sprintf("[intent: %s | %d terms | %d results | %s]",
		o.Intent, len(o.SearchTerms), len(o.Results), source)
}

func runSearch(searcher SearchPort, query string, topK int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), searchTimeout)
		defer cancel()
		outcome, err := searcher.Search(ctx, query, topK)
		return searchDoneMsg{query: query, outcome: outcome, err: err}
	}
}

var (
	titleStyle         = lipgloss.NewStyle().Bold(true)
	transcriptBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	userStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	answerStyle        = lipgloss.NewStyle()
	metaStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	footerStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	welcomeStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	spinnerStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)
