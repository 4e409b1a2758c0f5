// Package capture takes still screenshots of the visible tab of a running Chrome.
package capture

import (
	"context"
	"encoding/base64"
)

// MimePNG is the only format captures are requested in.
const MimePNG = "image/png"

// Image is one captured frame.
type Image struct {
	Data     []byte
	MimeType string
}

// DataURL encodes the image as a base64 data URI.
func (i Image) DataURL() string {
	mime := i.MimeType
	if mime == "" {
		mime = MimePNG
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// Capturer produces a screenshot of the currently visible tab.
type Capturer interface {
	CaptureVisibleTab(ctx context.Context) (Image, error)
}

// CapturerFunc adapts a function to the Capturer interface.
type CapturerFunc func(ctx context.Context) (Image, error)

func (f CapturerFunc) CaptureVisibleTab(ctx context.Context) (Image, error) {
	return f(ctx)
}

// Error reports that the browser refused or failed to produce a screenshot.
// Message is the browser-facing description, shown to the user as is.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" && e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(err error, message string) *Error {
	return &Error{Message: message, Err: err}
}
