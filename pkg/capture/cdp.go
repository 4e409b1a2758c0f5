package capture

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"github.com/samber/lo"
)

// Tab describes a page target that can be captured.
type Tab struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	Visible bool   `json:"visible"`
}

// devtoolsSession is the slice of the DevTools protocol the capturer needs.
type devtoolsSession interface {
	Pages(ctx context.Context) ([]Tab, error)
	Visible(ctx context.Context, id string) (bool, error)
	Screenshot(ctx context.Context, id string) ([]byte, error)
	Close()
}

// CDPCapturer captures the visible tab of a Chrome reachable over the DevTools protocol.
type CDPCapturer struct {
	Endpoint EndpointResolver
	Logger   *slog.Logger

	connect func(ctx context.Context, url string) (devtoolsSession, error)
}

func NewCDPCapturer(endpoint EndpointResolver, logger *slog.Logger) *CDPCapturer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &CDPCapturer{
		Endpoint: endpoint,
		Logger:   logger,
		connect:  dialChrome,
	}
}

// CaptureVisibleTab takes a PNG screenshot of the tab the user is looking at.
// Every failure is reported as *Error.
func (c *CDPCapturer) CaptureVisibleTab(ctx context.Context) (Image, error) {
	sess, err := c.open(ctx)
	if err != nil {
		return Image{}, err
	}
	defer sess.Close()

	tabs, err := sess.Pages(ctx)
	if err != nil {
		return Image{}, newError(err, fmt.Sprintf("Cannot list browser tabs: %v", err))
	}

	tab, err := selectActiveTab(ctx, sess, tabs)
	if err != nil {
		return Image{}, newError(err, err.Error())
	}
	c.Logger.Debug("capturing tab", "id", tab.ID, "url", tab.URL)

	data, err := sess.Screenshot(ctx, tab.ID)
	if err != nil {
		return Image{}, newError(err, fmt.Sprintf("Cannot capture tab %q: %v", tab.Title, err))
	}
	if len(data) == 0 {
		return Image{}, newError(nil, "The browser returned an empty screenshot")
	}
	return Image{Data: data, MimeType: MimePNG}, nil
}

// ListTabs returns the capturable tabs with their visibility filled in.
func (c *CDPCapturer) ListTabs(ctx context.Context) ([]Tab, error) {
	sess, err := c.open(ctx)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	tabs, err := sess.Pages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tabs: %w", err)
	}
	for i := range tabs {
		visible, err := sess.Visible(ctx, tabs[i].ID)
		if err != nil {
			c.Logger.Debug("visibility check failed", "id", tabs[i].ID, "error", err)
			continue
		}
		tabs[i].Visible = visible
	}
	return tabs, nil
}

func (c *CDPCapturer) open(ctx context.Context) (devtoolsSession, error) {
	if c.Endpoint == nil {
		return nil, newError(nil, "No browser configured for capture")
	}
	url, err := c.Endpoint.Resolve(ctx)
	if err != nil {
		return nil, newError(err, err.Error())
	}
	c.Logger.Debug("connecting to browser", "url", url)

	connect := c.connect
	if connect == nil {
		connect = dialChrome
	}
	sess, err := connect(ctx, url)
	if err != nil {
		return nil, newError(err, fmt.Sprintf("Cannot connect to browser at %s: %v", url, err))
	}
	return sess, nil
}

// selectActiveTab picks the first tab whose document is visible, falling back
// to the first tab when none reports visibility.
func selectActiveTab(ctx context.Context, sess devtoolsSession, tabs []Tab) (Tab, error) {
	if len(tabs) == 0 {
		return Tab{}, fmt.Errorf("No active tab to capture")
	}
	for _, tab := range tabs {
		visible, err := sess.Visible(ctx, tab.ID)
		if err != nil {
			continue
		}
		if visible {
			tab.Visible = true
			return tab, nil
		}
	}
	return tabs[0], nil
}

func isCapturablePage(info *target.Info) bool {
	if info == nil || info.Type != "page" {
		return false
	}
	for _, prefix := range []string{"devtools://", "chrome-extension://", "chrome-untrusted://"} {
		if strings.HasPrefix(info.URL, prefix) {
			return false
		}
	}
	return true
}

// chromeSession talks to an already running browser through chromedp.
type chromeSession struct {
	browserCtx context.Context
	cancel     func()
}

func dialChrome(ctx context.Context, url string) (devtoolsSession, error) {
	allocCtx, cancelAlloc := chromedp.NewRemoteAllocator(ctx, url)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	return &chromeSession{
		browserCtx: browserCtx,
		cancel: func() {
			cancelBrowser()
			cancelAlloc()
		},
	}, nil
}

func (s *chromeSession) Pages(ctx context.Context) ([]Tab, error) {
	infos, err := chromedp.Targets(s.browserCtx)
	if err != nil {
		return nil, err
	}
	pages := lo.Filter(infos, func(info *target.Info, _ int) bool {
		return isCapturablePage(info)
	})
	return lo.Map(pages, func(info *target.Info, _ int) Tab {
		return Tab{ID: string(info.TargetID), Title: info.Title, URL: info.URL}
	}), nil
}

func (s *chromeSession) Visible(ctx context.Context, id string) (bool, error) {
	var state string
	if err := s.onTab(id, chromedp.Evaluate(`document.visibilityState`, &state)); err != nil {
		return false, err
	}
	return state == "visible", nil
}

func (s *chromeSession) Screenshot(ctx context.Context, id string) ([]byte, error) {
	var buf []byte
	err := s.onTab(id, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		buf, err = page.CaptureScreenshot().
			WithFormat(page.CaptureScreenshotFormatPng).
			WithFromSurface(true).
			Do(ctx)
		return err
	}))
	return buf, err
}

func (s *chromeSession) Close() {
	s.cancel()
}

func (s *chromeSession) onTab(id string, actions ...chromedp.Action) error {
	tabCtx, cancel := chromedp.NewContext(s.browserCtx, chromedp.WithTargetID(target.ID(id)))
	defer func() {
		detach(tabCtx)
		cancel()
	}()
	return chromedp.Run(tabCtx, actions...)
}

// detach drops chromedp's session on the tab so that cancelling its context
// leaves the user's tab open; chromedp closes targets it holds on cancel.
func detach(tabCtx context.Context) {
	c := chromedp.FromContext(tabCtx)
	if c == nil || c.Target == nil || c.Browser == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = target.DetachFromTarget().WithSessionID(c.Target.SessionID).Do(cdp.WithExecutor(ctx, c.Browser))
	c.Target = nil
}
