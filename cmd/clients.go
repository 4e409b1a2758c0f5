package cmd

import (
	"context"
	"fmt"
	"net/http"

	kernel "github.com/kernel/kernel-go-sdk"
	"github.com/kernel/kernel-go-sdk/option"
	"github.com/pterm/pterm"

	"github.com/kernel/geoshot/internal/config"
	"github.com/kernel/geoshot/pkg/capture"
	"github.com/kernel/geoshot/pkg/gemini"
	"github.com/kernel/geoshot/pkg/settings"
)

// newSettingsStore opens the configured credential backend. The OS keyring is
// preferred; when it cannot be reached the YAML settings file is used instead.
func newSettingsStore(cfg config.Config) (settings.Store, error) {
	if cfg.Settings == config.SettingsKeyring {
		ring := settings.NewKeyringStore(settings.DefaultService)
		if ring.Available() {
			return ring, nil
		}
		pterm.Debug.Println("OS keyring unavailable, using settings file")
	}

	path := cfg.SettingsPath
	if path == "" {
		var err error
		path, err = settings.DefaultFilePath()
		if err != nil {
			return nil, fmt.Errorf("failed to locate settings file: %w", err)
		}
	}
	store := settings.NewFileStore(path)
	pterm.Debug.Printf("Using settings file %s\n", store.Path())
	return store, nil
}

func newGeminiClient(cfg config.Config) *gemini.Client {
	client := gemini.New(gemini.Options{
		BaseURL:    cfg.GeminiBaseURL,
		APIVersion: cfg.GeminiAPIVersion,
		Model:      cfg.GeminiModel,
		HTTPClient: &http.Client{Timeout: cfg.HTTPTimeout},
		Logger:     newLogger(),
	})
	pterm.Debug.Printf("Using Gemini model %s\n", client.Model())
	return client
}

// EndpointInput selects the browser to capture from. An explicit DevTools URL
// wins over a Kernel browser id, which wins over a local Chrome.
type EndpointInput struct {
	CDPURL        string
	KernelBrowser string
	UserDataDir   string
}

func newEndpoint(cfg config.Config, in EndpointInput) capture.EndpointResolver {
	cdpURL := in.CDPURL
	if cdpURL == "" {
		cdpURL = cfg.CDPURL
	}
	if cdpURL != "" {
		return capture.StaticEndpoint(cdpURL)
	}
	if in.KernelBrowser != "" {
		return capture.KernelBrowser{ID: in.KernelBrowser, Lookup: kernelBrowserLookup(cfg)}
	}
	dir := in.UserDataDir
	if dir == "" {
		dir = cfg.ChromeUserDataDir
	}
	return capture.LocalChrome{UserDataDir: dir}
}

// kernelBrowserLookup returns the CDP websocket URL of a Kernel browser session.
func kernelBrowserLookup(cfg config.Config) func(ctx context.Context, id string) (string, error) {
	if cfg.KernelAPIKey == "" {
		return func(ctx context.Context, id string) (string, error) {
			return "", fmt.Errorf("KERNEL_API_KEY environment variable is required for --kernel-browser")
		}
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.KernelAPIKey)}
	if cfg.KernelBaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.KernelBaseURL))
	}
	client := kernel.NewClient(opts...)

	return func(ctx context.Context, id string) (string, error) {
		browser, err := client.Browsers.Get(ctx, id, kernel.BrowserGetParams{})
		if err != nil {
			return "", err
		}
		return browser.CdpWsURL, nil
	}
}
