package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
)

// reporter receives progress updates from long running work.
type reporter func(stage string, done, total int)

type progressMsg struct {
	stage string
	done  int
	total int
}

type finishedMsg struct{ err error }

// progressModel is the bubbletea model shown while rendering on a terminal.
type progressModel struct {
	title     string
	stage     string
	done      int
	total     int
	err       error
	finished  bool
	cancelled bool
}

func newProgressModel(title string) progressModel {
	return progressModel{title: title, stage: "starting"}
}

func (m progressModel) Init() tea.Cmd {
	return nil
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit
		}
	case progressMsg:
		m.stage, m.done, m.total = msg.stage, msg.done, msg.total
	case finishedMsg:
		m.finished = true
		m.err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m progressModel) View() string {
	if m.finished || m.cancelled {
		return ""
	}
	var b strings.Builder
	b.WriteString(StyleTitle.Render(m.title))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render(m.stage))
	if m.total > 0 {
		b.WriteString(" ")
		b.WriteString(progressBar(m.done, m.total, 30))
		b.WriteString(" ")
		b.WriteString(StyleNumber.Render(fmt.Sprintf("%d/%d", m.done, m.total)))
	}
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("q quit"))
	b.WriteString("\n")
	return b.String()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// withProgress runs work, showing a progress view on out when it is a
// terminal. Quitting the view cancels work.
func withProgress(ctx context.Context, out io.Writer, title string, work func(context.Context, reporter) error) error {
	if !isTerminal(out) {
		return work(ctx, func(string, int, int) {})
	}

	parent := ctx
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newProgressModel(title), tea.WithOutput(out), tea.WithContext(ctx))
	errc := make(chan error, 1)
	go func() {
		err := work(ctx, func(stage string, done, total int) {
			p.Send(progressMsg{stage: stage, done: done, total: total})
		})
		p.Send(finishedMsg{err: err})
		errc <- err
	}()

	final, err := p.Run()
	if err != nil {
		cancel()
		<-errc
		if parent.Err() != nil {
			return parent.Err()
		}
		return err
	}
	if m, ok := final.(progressModel); ok && m.cancelled {
		cancel()
		<-errc
		return context.Canceled
	}
	return <-errc
}
