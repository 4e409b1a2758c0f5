package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pkg/browser"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/kernel/geoshot/internal/locate"
	"github.com/kernel/geoshot/pkg/notice"
	"github.com/kernel/geoshot/pkg/settings"
)

const apiKeyURL = "https://aistudio.google.com/app/apikey"

// SetupCmd saves the Gemini API key.
type SetupCmd struct {
	store   settings.Store
	notices Notices
	// prompt reads one submission of the key form.
	prompt  func(ctx context.Context) (string, error)
	openURL func(url string) error
}

// SetupInput holds input for setup.
type SetupInput struct {
	Open        bool
	Interactive bool
}

// Run asks for the key until a non-blank value is saved.
func (s SetupCmd) Run(ctx context.Context, in SetupInput) error {
	defer func() {
		if in.Interactive {
			s.notices.Wait()
			return
		}
		s.notices.Flush()
	}()

	if in.Open && s.openURL != nil {
		if err := s.openURL(apiKeyURL); err != nil {
			pterm.Warning.Printf("Could not open browser: %v\n", err)
			pterm.Info.Printf("Create a key at %s\n", apiKeyURL)
		}
	}

	for {
		value, err := s.prompt(ctx)
		if err != nil {
			return fmt.Errorf("setup cancelled: %w", err)
		}
		err = locate.SaveCredential(s.store, s.notices, value)
		if errors.Is(err, settings.ErrEmptyValue) {
			if !in.Interactive {
				return err
			}
			continue
		}
		return err
	}
}

// readLine reads one line from r, for keys piped in on stdin.
func readLine(r io.Reader) func(ctx context.Context) (string, error) {
	scanner := bufio.NewScanner(r)
	return func(ctx context.Context) (string, error) {
		if scanner.Scan() {
			return scanner.Text(), nil
		}
		if err := scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
}

// --- Cobra wiring ---

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Save your Gemini API key",
	Long: `Prompt for a Gemini API key and save it to the OS keyring (or the settings
file when no keyring is available). Pipe the key on stdin for non-interactive use.`,
	Args: cobra.NoArgs,
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
	setupCmd.Flags().Bool("open", false, "Open the Google AI Studio API key page in your browser")
}

func runSetup(cmd *cobra.Command, args []string) error {
	cfg := getConfig(cmd)
	open, _ := cmd.Flags().GetBool("open")

	store, err := newSettingsStore(cfg)
	if err != nil {
		return err
	}

	interactive := isInteractive()
	surface := &terminalSurface{interactive: interactive}
	prompt := surface.PromptCredential
	if !interactive {
		prompt = readLine(os.Stdin)
	}

	s := SetupCmd{
		store:   store,
		notices: notice.New(&noticeArea{interactive: interactive}, cfg.NoticeDelay),
		prompt:  prompt,
		openURL: browser.OpenURL,
	}
	return s.Run(cmd.Context(), SetupInput{Open: open, Interactive: interactive})
}
