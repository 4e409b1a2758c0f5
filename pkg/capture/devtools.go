package capture

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// DevToolsActivePortFile is written by Chrome into its user data directory when
// it is started with --remote-debugging-port.
const DevToolsActivePortFile = "DevToolsActivePort"

// EndpointResolver finds the DevTools websocket URL of the browser to capture from.
type EndpointResolver interface {
	Resolve(ctx context.Context) (string, error)
}

// StaticEndpoint is a DevTools URL given explicitly by the user.
type StaticEndpoint string

func (s StaticEndpoint) Resolve(ctx context.Context) (string, error) {
	url := strings.TrimSpace(string(s))
	if url == "" {
		return "", fmt.Errorf("no DevTools URL configured")
	}
	return url, nil
}

// LocalChrome resolves the endpoint of a Chrome running on this machine by
// reading DevToolsActivePort from its user data directory.
type LocalChrome struct {
	// UserDataDir overrides OS detection when set.
	UserDataDir string
}

func (l LocalChrome) Resolve(ctx context.Context) (string, error) {
	dirs := []string{l.UserDataDir}
	if l.UserDataDir == "" {
		var err error
		dirs, err = chromeUserDataDirs()
		if err != nil {
			return "", err
		}
	}

	for _, dir := range dirs {
		url, err := ReadDevToolsActivePort(dir)
		if err == nil {
			return url, nil
		}
	}
	return "", fmt.Errorf("no running Chrome with remote debugging found; start Chrome with --remote-debugging-port=9222 or pass --cdp-url")
}

// ReadDevToolsActivePort turns the DevToolsActivePort file in userDataDir into a
// websocket URL. The file holds the port on its first line and the browser
// target path on its second.
func ReadDevToolsActivePort(userDataDir string) (string, error) {
	path := filepath.Join(userDataDir, DevToolsActivePortFile)
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("DevTools port file not found at %s", path)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() && len(lines) < 2 {
		lines = append(lines, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(lines) == 0 {
		return "", fmt.Errorf("%s is empty", path)
	}

	port, err := strconv.Atoi(lines[0])
	if err != nil || port <= 0 || port > 65535 {
		return "", fmt.Errorf("invalid port %q in %s", lines[0], path)
	}

	if len(lines) < 2 || !strings.HasPrefix(lines[1], "/devtools/browser/") {
		// Without the browser path chromedp discovers it through /json/version.
		return fmt.Sprintf("http://127.0.0.1:%d", port), nil
	}
	return fmt.Sprintf("ws://127.0.0.1:%d%s", port, lines[1]), nil
}

// chromeUserDataDirs returns the user data directories of Chrome-family
// browsers that exist on this machine, in order of preference.
func chromeUserDataDirs() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	var candidates []string
	switch runtime.GOOS {
	case "darwin":
		support := filepath.Join(homeDir, "Library", "Application Support")
		candidates = []string{
			filepath.Join(support, "Google", "Chrome"),
			filepath.Join(support, "Chromium"),
			filepath.Join(support, "BraveSoftware", "Brave-Browser"),
		}
	case "linux":
		config := filepath.Join(homeDir, ".config")
		candidates = []string{
			filepath.Join(config, "google-chrome"),
			filepath.Join(config, "chromium"),
			filepath.Join(config, "BraveSoftware", "Brave-Browser"),
		}
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			localAppData = filepath.Join(homeDir, "AppData", "Local")
		}
		candidates = []string{
			filepath.Join(localAppData, "Google", "Chrome", "User Data"),
			filepath.Join(localAppData, "Chromium", "User Data"),
			filepath.Join(localAppData, "BraveSoftware", "Brave-Browser", "User Data"),
		}
	default:
		return nil, fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}

	var dirs []string
	for _, dir := range candidates {
		if _, err := os.Stat(dir); err == nil {
			dirs = append(dirs, dir)
		}
	}
	if len(dirs) == 0 {
		return nil, fmt.Errorf("Chrome user data directory not found")
	}
	return dirs, nil
}
