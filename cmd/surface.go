package cmd

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/pterm/pterm"
	"golang.org/x/term"

	"github.com/kernel/geoshot/internal/locate"
	"github.com/kernel/geoshot/pkg/notice"
)

var errNoTerminal = errors.New("no Gemini API key saved; run 'geoshot setup' or pass --api-key")

var resultStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("10")).
	Padding(0, 1)

func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// terminalSurface draws an activation on the terminal. Progress lines run
// through a spinner when attached to a TTY.
type terminalSurface struct {
	interactive bool
	// quiet suppresses drawing when the outcome is printed as JSON.
	quiet bool
	// prompt reads the API key; defaults to a masked pterm text input.
	prompt func(ctx context.Context) (string, error)

	spinner  *pterm.SpinnerPrinter
	copyText string
}

func (s *terminalSurface) SetResult(text string) {
	s.stopSpinner()
	if s.quiet {
		return
	}

	switch {
	case text == locate.CapturingMessage || text == locate.SendingMessage:
		if s.interactive {
			s.spinner, _ = pterm.DefaultSpinner.Start(text)
			return
		}
		pterm.Info.Println(text)
	case strings.HasPrefix(text, locate.LocationPrefix):
		pterm.Println(resultStyle.Render(text))
	case strings.HasPrefix(text, locate.FallbackMessage):
		pterm.Warning.Println(text)
	default:
		pterm.Error.Println(text)
	}
}

func (s *terminalSurface) ShowCopyAction(text string) {
	s.copyText = text
}

func (s *terminalSurface) HideCopyAction() {
	s.copyText = ""
}

func (s *terminalSurface) PromptCredential(ctx context.Context) (string, error) {
	s.stopSpinner()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.prompt != nil {
		return s.prompt(ctx)
	}
	if !s.interactive {
		return "", errNoTerminal
	}
	pterm.Info.Println("Gemini API key required. Create one at " + apiKeyURL)
	return pterm.DefaultInteractiveTextInput.WithMask("*").Show("Gemini API key")
}

func (s *terminalSurface) stopSpinner() {
	if s.spinner != nil {
		_ = s.spinner.Stop()
		s.spinner = nil
	}
}

// noticeArea renders notices in a live area that disappears when hidden.
// Without a TTY each notice is printed once and Hide does nothing.
type noticeArea struct {
	interactive bool
	quiet       bool

	area *pterm.AreaPrinter
}

func (n *noticeArea) Show(message string, severity notice.Severity) {
	if n.quiet {
		return
	}
	printer := pterm.Success
	if severity == notice.Error {
		printer = pterm.Error
	}
	if !n.interactive {
		printer.Println(message)
		return
	}

	line := printer.Sprint(message)
	if n.area == nil {
		n.area, _ = pterm.DefaultArea.WithRemoveWhenDone().Start(line)
		return
	}
	n.area.Update(line)
}

func (n *noticeArea) Hide() {
	if n.area == nil {
		return
	}
	_ = n.area.Stop()
	n.area = nil
}
