// Package locate runs one capture → identify → render activation.
package locate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/kernel/geoshot/pkg/capture"
	"github.com/kernel/geoshot/pkg/clipboard"
	"github.com/kernel/geoshot/pkg/gemini"
	"github.com/kernel/geoshot/pkg/settings"
	"github.com/kernel/geoshot/pkg/util"
)

const (
	MsgEnterKey  = "Please enter an API key"
	MsgKeySaved  = "API key saved"
	MsgCopied    = "Copied to clipboard!"
	MsgCopyError = "Failed to copy: "
)

// ErrNothingToCopy is returned by CopyResult when the last activation produced no location.
var ErrNothingToCopy = errors.New("no location to copy")

// Surface is where an activation is drawn.
type Surface interface {
	// SetResult replaces the single-line result area.
	SetResult(text string)
	ShowCopyAction(text string)
	HideCopyAction()
	// PromptCredential shows the one-field setup form and returns what was submitted.
	PromptCredential(ctx context.Context) (string, error)
}

// Notifier shows transient status notices.
type Notifier interface {
	Success(message string)
	Error(message string)
}

// ContentGenerator sends a generateContent request.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, apiKey string, req gemini.GenerateContentRequest) (*gemini.GenerateContentResponse, error)
}

// Flow wires the collaborators of one activation together.
type Flow struct {
	Store     settings.Store
	Capturer  capture.Capturer
	Generator ContentGenerator
	Clipboard clipboard.Writer
	Surface   Surface
	Notices   Notifier
	Logger    *slog.Logger

	trace    []State
	location string
}

// Run executes the activation from START until it renders or fails. A missing
// credential routes through setup and restarts the activation once saved.
// The returned error is non-nil only when the activation ends in StateFailed.
func (f *Flow) Run(ctx context.Context) (Outcome, error) {
	logger := f.logger().With("activation", uuid.NewString())
	f.trace = nil
	f.location = ""

	for {
		f.enter(logger, StateStart)
		apiKey, err := f.Store.Get(settings.APIKeyName)
		if errors.Is(err, settings.ErrNotFound) {
			f.enter(logger, StateSetup)
			if err := f.setup(ctx); err != nil {
				return f.fail(logger, Outcome{
					State: StateFailed,
					Kind:  KindRuntimeError,
					Text:  err.Error(),
					Err:   err,
				})
			}
			f.enter(logger, StateRestart)
			continue
		}
		if err != nil {
			err = fmt.Errorf("failed to read API key: %w", err)
			return f.fail(logger, Outcome{State: StateFailed, Kind: KindRuntimeError, Text: err.Error(), Err: err})
		}
		return f.identify(ctx, logger, apiKey)
	}
}

// Trace lists the states the last Run passed through.
func (f *Flow) Trace() []State {
	return append([]State(nil), f.trace...)
}

// CopyResult writes the last extracted location to the clipboard and reports
// the result as a notice.
func (f *Flow) CopyResult(ctx context.Context) error {
	if f.location == "" {
		return ErrNothingToCopy
	}
	if err := f.Clipboard.WriteText(ctx, f.location); err != nil {
		f.Notices.Error(MsgCopyError + err.Error())
		return err
	}
	f.Notices.Success(MsgCopied)
	return nil
}

func (f *Flow) setup(ctx context.Context) error {
	for {
		value, err := f.Surface.PromptCredential(ctx)
		if err != nil {
			return fmt.Errorf("setup cancelled: %w", err)
		}
		err = SaveCredential(f.Store, f.Notices, value)
		if errors.Is(err, settings.ErrEmptyValue) {
			continue
		}
		return err
	}
}

// SaveCredential validates and persists an API key, reporting through notices.
// Blank input is rejected without touching the store.
func SaveCredential(store settings.Store, notices Notifier, value string) error {
	key, err := settings.NormalizeCredential(value)
	if err != nil {
		notices.Error(MsgEnterKey)
		return err
	}
	if err := store.Set(settings.APIKeyName, key); err != nil {
		notices.Error("Failed to save API key: " + err.Error())
		return err
	}
	notices.Success(MsgKeySaved)
	return nil
}

func (f *Flow) identify(ctx context.Context, logger *slog.Logger, apiKey string) (Outcome, error) {
	f.Surface.HideCopyAction()

	f.enter(logger, StateCapturing)
	f.Surface.SetResult(CapturingMessage)
	img, err := f.Capturer.CaptureVisibleTab(ctx)
	if err != nil {
		return f.fail(logger, RenderCaptureError(err))
	}
	logger.Debug("captured screenshot", "size", util.FormatBytes(int64(len(img.Data))))

	f.enter(logger, StateRequesting)
	f.Surface.SetResult(SendingMessage)
	req, err := gemini.NewLocationRequest(img.DataURL())
	if err != nil {
		return f.fail(logger, RenderAPIError(err))
	}
	resp, err := f.Generator.GenerateContent(ctx, apiKey, req)
	if err != nil {
		return f.fail(logger, RenderAPIError(err))
	}

	out := RenderResponse(resp)
	f.enter(logger, StateRendered)
	f.Surface.SetResult(out.Text)
	if out.Copyable() {
		f.location = out.Location
		f.Surface.ShowCopyAction(out.Location)
	}
	logger.Debug("rendered result", "kind", out.Kind, "detail", out.Detail)
	return out, nil
}

func (f *Flow) fail(logger *slog.Logger, out Outcome) (Outcome, error) {
	f.enter(logger, StateFailed)
	f.Surface.HideCopyAction()
	f.Surface.SetResult(out.Text)
	logger.Debug("activation failed", "kind", out.Kind, "error", out.Err)
	return out, out.Err
}

func (f *Flow) enter(logger *slog.Logger, s State) {
	f.trace = append(f.trace, s)
	logger.Debug("state", "state", s, "terminal", s.Terminal())
}

func (f *Flow) logger() *slog.Logger {
	if f.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return f.Logger
}
