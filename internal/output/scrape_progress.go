package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ScrapeProgressUI displays per-article scrape progress
type ScrapeProgressUI interface {
	// Start initializes the UI with article titles
	Start(titles []string)
	// Update records the status of one article; safe for concurrent use
	Update(idx int, status string, err error)
	// Complete finalizes the UI and shows the summary
	Complete()
}

type scrapeItem struct {
	Title  string
	Status string
	Error  error
}

// NewScrapeProgressUI creates the appropriate progress UI based on TTY availability
func NewScrapeProgressUI(splog *Splog) ScrapeProgressUI {
	if IsTerminal(os.Stdout) {
		return NewTTYScrapeProgress(splog, os.Stdout)
	}
	return NewSimpleScrapeProgress(splog)
}

// SimpleScrapeProgress prints one line per finished article (non-TTY)
type SimpleScrapeProgress struct {
	splog *Splog

	mu        sync.Mutex
	items     []scrapeItem
	completed int
	empty     int
	failed    int
}

// NewSimpleScrapeProgress creates a new line-based progress UI
func NewSimpleScrapeProgress(splog *Splog) *SimpleScrapeProgress {
	return &SimpleScrapeProgress{splog: splog}
}

func (p *SimpleScrapeProgress) Start(titles []string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.items = make([]scrapeItem, len(titles))
	for i, title := range titles {
		p.items[i] = scrapeItem{Title: title, Status: "pending"}
	}
	p.completed, p.empty, p.failed = 0, 0, 0
}

func (p *SimpleScrapeProgress) Update(idx int, status string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if idx >= len(p.items) {
		return
	}
	item := &p.items[idx]

	switch status {
	case "done":
		p.completed++
		p.splog.Info("  ✓ %s", item.Title)
	case "empty":
		p.empty++
		p.splog.Info("  ○ %s (no article paragraphs)", item.Title)
	case "error":
		p.failed++
		p.splog.Info("  ✗ %s failed: %v", item.Title, err)
	}

	item.Status = status
	item.Error = err
}

func (p *SimpleScrapeProgress) Complete() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.splog.Newline()
	p.splog.Info("%s", summarize(p.completed, p.empty, p.failed))
}

func summarize(completed, empty, failed int) string {
	if failed == 0 && empty == 0 {
		return fmt.Sprintf("✓ All %d articles scraped", completed)
	}
	return fmt.Sprintf("Scraped: %d, Empty: %d, Failed: %d", completed, empty, failed)
}

// TTYScrapeProgress uses bubbletea for animated progress (TTY).
// Console logging is muted while the program owns the terminal.
type TTYScrapeProgress struct {
	splog   *Splog
	out     io.Writer
	program *tea.Program
	done    chan struct{}
}

// NewTTYScrapeProgress creates a new TTY progress UI
func NewTTYScrapeProgress(splog *Splog, out io.Writer) *TTYScrapeProgress {
	return &TTYScrapeProgress{splog: splog, out: out}
}

func (p *TTYScrapeProgress) Start(titles []string) {
	items := make([]scrapeItem, len(titles))
	for i, title := range titles {
		items[i] = scrapeItem{Title: title, Status: "pending"}
	}

	p.splog.SetQuiet(true)
	p.done = make(chan struct{})
	p.program = tea.NewProgram(newScrapeProgressModel(items), tea.WithInput(nil), tea.WithOutput(p.out))

	go func() {
		defer close(p.done)
		_, _ = p.program.Run()
	}()
}

func (p *TTYScrapeProgress) Update(idx int, status string, err error) {
	if p.program == nil {
		return
	}
	p.program.Send(scrapeUpdateMsg{idx: idx, status: status, err: err})
}

func (p *TTYScrapeProgress) Complete() {
	if p.program == nil {
		return
	}
	p.program.Send(scrapeCompleteMsg{})
	<-p.done
	p.splog.SetQuiet(false)
}

type scrapeUpdateMsg struct {
	idx    int
	status string
	err    error
}

type scrapeCompleteMsg struct{}

type scrapeStyles struct {
	spinnerStyle lipgloss.Style
	doneStyle    lipgloss.Style
	emptyStyle   lipgloss.Style
	errorStyle   lipgloss.Style
	titleStyle   lipgloss.Style
	dimStyle     lipgloss.Style
}

// scrapeProgressModel is the bubbletea model behind TTYScrapeProgress
type scrapeProgressModel struct {
	items   []scrapeItem
	spinner spinner.Model
	done    bool
	styles  scrapeStyles
}

func newScrapeProgressModel(items []scrapeItem) *scrapeProgressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return &scrapeProgressModel{
		items:   items,
		spinner: s,
		styles: scrapeStyles{
			spinnerStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("205")),
			doneStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
			emptyStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
			errorStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
			titleStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
			dimStyle:     lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		},
	}
}

func (m *scrapeProgressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *scrapeProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case scrapeUpdateMsg:
		if msg.idx < len(m.items) {
			m.items[msg.idx].Status = msg.status
			m.items[msg.idx].Error = msg.err
		}
		return m, nil

	case scrapeCompleteMsg:
		m.done = true
		return m, tea.Quit
	}

	return m, nil
}

func (m *scrapeProgressModel) View() string {
	var b strings.Builder
	b.WriteString("\n")

	completed, empty, failed := 0, 0, 0
	for i, item := range m.items {
		var icon, status string

		switch item.Status {
		case "scraping":
			icon = m.spinner.View()
			status = m.styles.spinnerStyle.Render("scraping...")
		case "done":
			completed++
			icon = m.styles.doneStyle.Render("✓")
			status = m.styles.doneStyle.Render("scraped")
		case "empty":
			empty++
			icon = m.styles.emptyStyle.Render("○")
			status = m.styles.emptyStyle.Render("no article paragraphs")
		case "error":
			failed++
			icon = m.styles.errorStyle.Render("✗")
			status = m.styles.errorStyle.Render("failed")
		default:
			icon = m.styles.dimStyle.Render("○")
			status = m.styles.dimStyle.Render("pending")
		}

		line := fmt.Sprintf("  %s %s %s", icon, m.styles.titleStyle.Render(item.Title), status)
		if item.Status == "error" && item.Error != nil {
			line += " " + m.styles.errorStyle.Render(item.Error.Error())
		}

		b.WriteString(line)
		if i < len(m.items)-1 {
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")

	if m.done {
		b.WriteString("\n")
		summary := summarize(completed, empty, failed)
		if failed > 0 {
			b.WriteString(m.styles.errorStyle.Render(summary))
		} else {
			b.WriteString(m.styles.doneStyle.Render(summary))
		}
		b.WriteString("\n")
	}

	return b.String()
}
