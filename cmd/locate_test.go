package cmd

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kernel/geoshot/internal/locate"
	"github.com/kernel/geoshot/pkg/capture"
	"github.com/kernel/geoshot/pkg/clipboard"
	"github.com/kernel/geoshot/pkg/gemini"
	"github.com/kernel/geoshot/pkg/notice"
	"github.com/kernel/geoshot/pkg/settings"
)

type FakeGenerator struct {
	GenerateFunc func(ctx context.Context, apiKey string, req gemini.GenerateContentRequest) (*gemini.GenerateContentResponse, error)
	calls        int
}

func (f *FakeGenerator) GenerateContent(ctx context.Context, apiKey string, req gemini.GenerateContentRequest) (*gemini.GenerateContentResponse, error) {
	f.calls++
	if f.GenerateFunc != nil {
		return f.GenerateFunc(ctx, apiKey, req)
	}
	return &gemini.GenerateContentResponse{}, nil
}

func answer(text string) *FakeGenerator {
	return &FakeGenerator{
		GenerateFunc: func(ctx context.Context, apiKey string, req gemini.GenerateContentRequest) (*gemini.GenerateContentResponse, error) {
			return &gemini.GenerateContentResponse{Candidates: []gemini.Candidate{{
				Content: &gemini.ResponseContent{Parts: []gemini.ResponsePart{{Text: text}}},
			}}}, nil
		},
	}
}

func pngCapturer() capture.Capturer {
	return capture.CapturerFunc(func(ctx context.Context) (capture.Image, error) {
		return capture.Image{Data: []byte("png"), MimeType: capture.MimePNG}, nil
	})
}

type locateFixture struct {
	cmd       LocateCmd
	store     *settings.MemoryStore
	generator *FakeGenerator
	copied    []string
	out       *bytes.Buffer
}

func newLocateFixture(t *testing.T, store *settings.MemoryStore, capturer capture.Capturer, gen *FakeGenerator, quiet bool) *locateFixture {
	t.Helper()
	f := &locateFixture{store: store, generator: gen, out: &bytes.Buffer{}}
	notices := notice.New(&noticeArea{quiet: quiet}, time.Millisecond)
	f.cmd = LocateCmd{
		flow: &locate.Flow{
			Store:     store,
			Capturer:  capturer,
			Generator: gen,
			Clipboard: clipboard.WriterFunc(func(ctx context.Context, text string) error {
				f.copied = append(f.copied, text)
				return nil
			}),
			Surface: &terminalSurface{quiet: quiet},
			Notices: notices,
		},
		notices: notices,
		out:     f.out,
	}
	return f
}

func withKey() *settings.MemoryStore {
	return settings.NewMemoryStore(map[string]string{settings.APIKeyName: "test-key"})
}

func TestLocateRun_PrintsLocation(t *testing.T) {
	setupStdoutCapture(t)
	f := newLocateFixture(t, withKey(), pngCapturer(), answer("Eiffel Tower, Paris, France, Europe"), false)

	err := f.cmd.Run(context.Background(), LocateInput{})
	require.NoError(t, err)

	out := outBuf.String()
	assert.Contains(t, out, "Capturing screenshot...")
	assert.Contains(t, out, "Sending screenshot to Gemini API...")
	assert.Contains(t, out, "Location: Eiffel Tower, Paris, France, Europe")
	assert.Empty(t, f.copied)
}

func TestLocateRun_CopyFlagWritesClipboard(t *testing.T) {
	setupStdoutCapture(t)
	f := newLocateFixture(t, withKey(), pngCapturer(), answer("Shibuya Crossing, Tokyo, Japan, Asia"), false)

	err := f.cmd.Run(context.Background(), LocateInput{Copy: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"Shibuya Crossing, Tokyo, Japan, Asia"}, f.copied)
	assert.Contains(t, outBuf.String(), "Copied to clipboard!")
}

func TestLocateRun_InteractiveConfirmDeclined(t *testing.T) {
	setupStdoutCapture(t)
	f := newLocateFixture(t, withKey(), pngCapturer(), answer("Sydney Opera House, Sydney, Australia, Oceania"), false)
	var asked string
	f.cmd.confirm = func(question string) bool {
		asked = question
		return false
	}

	err := f.cmd.Run(context.Background(), LocateInput{Interactive: true})
	require.NoError(t, err)

	assert.Equal(t, "Copy location to clipboard?", asked)
	assert.Empty(t, f.copied)
}

func TestLocateRun_EmptyResultIsNotCopyable(t *testing.T) {
	setupStdoutCapture(t)
	gen := &FakeGenerator{
		GenerateFunc: func(ctx context.Context, apiKey string, req gemini.GenerateContentRequest) (*gemini.GenerateContentResponse, error) {
			return &gemini.GenerateContentResponse{PromptFeedback: &gemini.PromptFeedback{BlockReason: "SAFETY"}}, nil
		},
	}
	f := newLocateFixture(t, withKey(), pngCapturer(), gen, false)
	f.cmd.confirm = func(string) bool {
		t.Fatal("copy must not be offered")
		return false
	}

	err := f.cmd.Run(context.Background(), LocateInput{Copy: true, Interactive: true})
	require.NoError(t, err)

	assert.Contains(t, outBuf.String(), "Could not extract location from the response. (Blocked: SAFETY)")
	assert.Empty(t, f.copied)
}

func TestLocateRun_CaptureFailure(t *testing.T) {
	setupStdoutCapture(t)
	failing := capture.CapturerFunc(func(ctx context.Context) (capture.Image, error) {
		return capture.Image{}, &capture.Error{Message: "No active tab to capture"}
	})
	gen := &FakeGenerator{}
	f := newLocateFixture(t, withKey(), failing, gen, false)

	err := f.cmd.Run(context.Background(), LocateInput{})
	require.Error(t, err)
	var rep *reportedError
	assert.True(t, errors.As(err, &rep))

	assert.Equal(t, 1, strings.Count(outBuf.String(), "Error capturing screenshot: No active tab to capture"))
	assert.Zero(t, gen.calls)
}

func TestExitOnReported(t *testing.T) {
	t.Cleanup(func() { exitCode = 0 })

	plain := errors.New("unsupported --output format: yaml")
	assert.Equal(t, plain, exitOnReported(plain))
	assert.Zero(t, exitCode)

	assert.NoError(t, exitOnReported(nil))
	assert.Zero(t, exitCode)

	assert.NoError(t, exitOnReported(&reportedError{err: errors.New("Error capturing screenshot: boom")}))
	assert.Equal(t, 1, exitCode)
}

func TestLocateRun_APIFailure(t *testing.T) {
	setupStdoutCapture(t)
	gen := &FakeGenerator{
		GenerateFunc: func(ctx context.Context, apiKey string, req gemini.GenerateContentRequest) (*gemini.GenerateContentResponse, error) {
			return nil, &gemini.HTTPError{StatusCode: 400, Message: "API key not valid. Please pass a valid API key."}
		},
	}
	f := newLocateFixture(t, withKey(), pngCapturer(), gen, false)

	err := f.cmd.Run(context.Background(), LocateInput{})
	require.Error(t, err)
	assert.Contains(t, outBuf.String(), "Error calling Gemini API: HTTP error 400: API key not valid. Please pass a valid API key.")
}

func TestLocateRun_JSONOutput(t *testing.T) {
	setupStdoutCapture(t)
	f := newLocateFixture(t, withKey(), pngCapturer(), answer("Machu Picchu, Cusco, Peru, South America"), true)

	err := f.cmd.Run(context.Background(), LocateInput{Output: "json"})
	require.NoError(t, err)

	assert.Empty(t, outBuf.String())
	assert.Contains(t, f.out.String(), `"kind": "success"`)
	assert.Contains(t, f.out.String(), `"location": "Machu Picchu, Cusco, Peru, South America"`)
}

func TestLocateRun_MissingKeyWithoutTerminal(t *testing.T) {
	setupStdoutCapture(t)
	gen := &FakeGenerator{}
	f := newLocateFixture(t, settings.NewMemoryStore(nil), pngCapturer(), gen, false)

	err := f.cmd.Run(context.Background(), LocateInput{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errNoTerminal))
	assert.Zero(t, gen.calls)
}

func TestLocateRun_SetupThenRestart(t *testing.T) {
	setupStdoutCapture(t)
	store := settings.NewMemoryStore(nil)
	f := newLocateFixture(t, store, pngCapturer(), answer("Colosseum, Rome, Italy, Europe"), false)
	answers := []string{"", "fresh-key"}
	f.cmd.flow.Surface.(*terminalSurface).prompt = func(ctx context.Context) (string, error) {
		next := answers[0]
		answers = answers[1:]
		return next, nil
	}

	err := f.cmd.Run(context.Background(), LocateInput{})
	require.NoError(t, err)

	key, err := store.Get(settings.APIKeyName)
	require.NoError(t, err)
	assert.Equal(t, "fresh-key", key)

	out := outBuf.String()
	assert.Contains(t, out, "Please enter an API key")
	assert.Contains(t, out, "API key saved")
	assert.Contains(t, out, "Location: Colosseum, Rome, Italy, Europe")
}

func TestLocateRun_RejectsUnknownOutput(t *testing.T) {
	setupStdoutCapture(t)
	f := newLocateFixture(t, withKey(), pngCapturer(), &FakeGenerator{}, false)

	err := f.cmd.Run(context.Background(), LocateInput{Output: "yaml"})
	assert.ErrorContains(t, err, "unsupported --output format")
	assert.Zero(t, f.generator.calls)
}
