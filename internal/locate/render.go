package locate

import (
	"errors"

	"github.com/kernel/geoshot/pkg/capture"
	"github.com/kernel/geoshot/pkg/gemini"
)

const (
	LocationPrefix     = "Location: "
	FallbackMessage    = "Could not extract location from the response."
	CaptureErrorPrefix = "Error capturing screenshot: "
	APIErrorPrefix     = "Error calling Gemini API: "
	SendingMessage     = "Sending screenshot to Gemini API..."
	CapturingMessage   = "Capturing screenshot..."
)

// RenderResponse turns a successful API response into the text shown to the user.
// A block reason outranks a finish reason in the fallback diagnostic.
func RenderResponse(resp *gemini.GenerateContentResponse) Outcome {
	if text, ok := resp.FirstText(); ok {
		return Outcome{
			State:    StateRendered,
			Kind:     KindSuccess,
			Text:     LocationPrefix + text,
			Location: text,
		}
	}

	out := Outcome{State: StateRendered, Kind: KindEmptyResult, Text: FallbackMessage}
	if reason := resp.BlockReason(); reason != "" {
		out.Detail = reason
		out.Text += " (Blocked: " + reason + ")"
	} else if reason := resp.FinishReason(); reason != "" {
		out.Detail = reason
		out.Text += " (Finish reason: " + reason + ")"
	}
	return out
}

// RenderCaptureError formats a failed capture.
func RenderCaptureError(err error) Outcome {
	message := err.Error()
	var capErr *capture.Error
	if errors.As(err, &capErr) {
		message = capErr.Error()
	}
	return Outcome{
		State: StateFailed,
		Kind:  KindCaptureError,
		Text:  CaptureErrorPrefix + message,
		Err:   err,
	}
}

// RenderAPIError formats any failure after the screenshot was taken.
// Non-2xx responses surface as gemini.HTTPError and are classed as API errors;
// everything else is a runtime error with the same prefix.
func RenderAPIError(err error) Outcome {
	kind := KindRuntimeError
	var httpErr *gemini.HTTPError
	if errors.As(err, &httpErr) {
		kind = KindAPIError
	}
	return Outcome{
		State: StateFailed,
		Kind:  kind,
		Text:  APIErrorPrefix + err.Error(),
		Err:   err,
	}
}
