package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/kernel/geoshot/internal/locate"
	"github.com/kernel/geoshot/pkg/capture"
	"github.com/kernel/geoshot/pkg/clipboard"
	"github.com/kernel/geoshot/pkg/notice"
	"github.com/kernel/geoshot/pkg/settings"
	"github.com/kernel/geoshot/pkg/util"
)

// Notices is the subset of notice.Notifier the commands drive.
type Notices interface {
	locate.Notifier
	Wait()
	Flush()
}

// LocateCmd runs one activation and offers to copy the result.
type LocateCmd struct {
	flow    *locate.Flow
	notices Notices
	out     io.Writer
	// confirm asks a yes/no question; defaults to pterm's interactive confirm.
	confirm func(question string) bool
}

// LocateInput holds input for a locate run.
type LocateInput struct {
	Copy        bool
	Output      string
	Interactive bool
}

// Run captures, identifies and renders. A run that ends in the failed state
// returns a *reportedError, since the message has already been drawn.
func (l LocateCmd) Run(ctx context.Context, in LocateInput) error {
	if in.Output != "" && in.Output != "json" {
		return fmt.Errorf("unsupported --output format: %s", in.Output)
	}
	defer l.finish(in.Interactive)

	out, err := l.flow.Run(ctx)
	if in.Output == "json" {
		if perr := util.PrintPrettyJSON(l.out, out); perr != nil {
			return perr
		}
	}
	if err != nil {
		return &reportedError{err: err}
	}
	if !out.Copyable() {
		return nil
	}

	copyResult := in.Copy
	if !copyResult && in.Interactive && in.Output == "" {
		copyResult = l.ask("Copy location to clipboard?")
	}
	if !copyResult {
		return nil
	}
	if err := l.flow.CopyResult(ctx); err != nil {
		return &reportedError{err: fmt.Errorf("failed to copy: %w", err)}
	}
	return nil
}

// finish keeps a live notice on screen until its timer hides it.
func (l LocateCmd) finish(interactive bool) {
	if interactive {
		l.notices.Wait()
		return
	}
	l.notices.Flush()
}

func (l LocateCmd) ask(question string) bool {
	if l.confirm != nil {
		return l.confirm(question)
	}
	pterm.DefaultInteractiveConfirm.DefaultText = question
	ok, _ := pterm.DefaultInteractiveConfirm.Show()
	return ok
}

// --- Cobra wiring ---

var locateCmd = &cobra.Command{
	Use:   "locate",
	Short: "Guess where the active tab's picture was taken",
	Long: `Capture the visible tab of the browser and ask Gemini where it was taken.

The browser is found in this order: --cdp-url (or GEOSHOT_CDP_URL), then
--kernel-browser, then a local Chrome started with --remote-debugging-port.`,
	Args: cobra.NoArgs,
	RunE: runLocate,
}

func init() {
	rootCmd.AddCommand(locateCmd)
	addLocateFlags(locateCmd)
}

func addLocateFlags(cmd *cobra.Command) {
	cmd.Flags().String("cdp-url", "", "DevTools websocket URL of the browser to capture")
	cmd.Flags().String("kernel-browser", "", "Capture from the Kernel browser session with this ID")
	cmd.Flags().String("chrome-user-data-dir", "", "Chrome user data directory to read DevToolsActivePort from")
	cmd.Flags().String("api-key", "", "Gemini API key for this run only; nothing is saved")
	cmd.Flags().Bool("copy", false, "Copy the location to the clipboard without asking")
	cmd.Flags().StringP("output", "o", "", "Output format (json)")
}

func runLocate(cmd *cobra.Command, args []string) error {
	cfg := getConfig(cmd)

	cdpURL, _ := cmd.Flags().GetString("cdp-url")
	kernelBrowser, _ := cmd.Flags().GetString("kernel-browser")
	userDataDir, _ := cmd.Flags().GetString("chrome-user-data-dir")
	apiKey, _ := cmd.Flags().GetString("api-key")
	copyResult, _ := cmd.Flags().GetBool("copy")
	output, _ := cmd.Flags().GetString("output")

	var store settings.Store
	if apiKey != "" {
		store = settings.NewMemoryStore(map[string]string{settings.APIKeyName: apiKey})
	} else {
		var err error
		store, err = newSettingsStore(cfg)
		if err != nil {
			return err
		}
	}

	interactive := isInteractive()
	quiet := output == "json"
	logger := newLogger()
	surface := &terminalSurface{interactive: interactive, quiet: quiet}
	notices := notice.New(&noticeArea{interactive: interactive, quiet: quiet}, cfg.NoticeDelay)

	endpoint := newEndpoint(cfg, EndpointInput{
		CDPURL:        cdpURL,
		KernelBrowser: kernelBrowser,
		UserDataDir:   userDataDir,
	})

	l := LocateCmd{
		flow: &locate.Flow{
			Store:     store,
			Capturer:  capture.NewCDPCapturer(endpoint, logger),
			Generator: newGeminiClient(cfg),
			Clipboard: clipboard.System{},
			Surface:   surface,
			Notices:   notices,
			Logger:    logger,
		},
		notices: notices,
		out:     os.Stdout,
	}
	return exitOnReported(l.Run(cmd.Context(), LocateInput{
		Copy:        copyResult,
		Output:      output,
		Interactive: interactive,
	}))
}
