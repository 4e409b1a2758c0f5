package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pterm/pterm"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/kernel/geoshot/pkg/capture"
	"github.com/kernel/geoshot/pkg/util"
)

// TabLister defines the subset of the capturer used to enumerate tabs.
type TabLister interface {
	ListTabs(ctx context.Context) ([]capture.Tab, error)
}

// TabsCmd lists the tabs geoshot can see.
type TabsCmd struct {
	tabs TabLister
	out  io.Writer
}

// TabsInput holds input for listing tabs.
type TabsInput struct {
	Output string
}

func (t TabsCmd) List(ctx context.Context, in TabsInput) error {
	if in.Output != "" && in.Output != "json" {
		return fmt.Errorf("unsupported --output value: use 'json'")
	}

	tabs, err := t.tabs.ListTabs(ctx)
	if err != nil {
		return err
	}

	if in.Output == "json" {
		if tabs == nil {
			tabs = []capture.Tab{}
		}
		return util.PrintPrettyJSON(t.out, tabs)
	}

	if len(tabs) == 0 {
		pterm.Info.Println("No capturable tabs found")
		return nil
	}

	rows := pterm.TableData{{"ID", "Title", "URL", "Visible"}}
	rows = append(rows, lo.Map(tabs, func(tab capture.Tab, _ int) []string {
		return []string{
			tab.ID,
			util.OrDash(util.Truncate(tab.Title, 40)),
			util.OrDash(util.Truncate(tab.URL, 60)),
			fmt.Sprintf("%t", tab.Visible),
		}
	})...)
	PrintTableNoPad(rows, true)
	return nil
}

// --- Cobra wiring ---

var tabsCmd = &cobra.Command{
	Use:   "tabs",
	Short: "List the browser tabs that can be captured",
	Long:  "List page targets of the configured browser and whether each one is currently visible",
	Args:  cobra.NoArgs,
	RunE:  runTabs,
}

func init() {
	rootCmd.AddCommand(tabsCmd)
	tabsCmd.Flags().String("cdp-url", "", "DevTools websocket URL of the browser")
	tabsCmd.Flags().String("kernel-browser", "", "List tabs of the Kernel browser session with this ID")
	tabsCmd.Flags().String("chrome-user-data-dir", "", "Chrome user data directory to read DevToolsActivePort from")
	tabsCmd.Flags().StringP("output", "o", "", "Output format (json)")
}

func runTabs(cmd *cobra.Command, args []string) error {
	cfg := getConfig(cmd)

	cdpURL, _ := cmd.Flags().GetString("cdp-url")
	kernelBrowser, _ := cmd.Flags().GetString("kernel-browser")
	userDataDir, _ := cmd.Flags().GetString("chrome-user-data-dir")
	output, _ := cmd.Flags().GetString("output")

	endpoint := newEndpoint(cfg, EndpointInput{
		CDPURL:        cdpURL,
		KernelBrowser: kernelBrowser,
		UserDataDir:   userDataDir,
	})
	t := TabsCmd{tabs: capture.NewCDPCapturer(endpoint, newLogger()), out: os.Stdout}
	return t.List(cmd.Context(), TabsInput{Output: output})
}
