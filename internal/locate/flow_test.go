package locate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kernel/geoshot/pkg/capture"
	"github.com/kernel/geoshot/pkg/clipboard"
	"github.com/kernel/geoshot/pkg/gemini"
	"github.com/kernel/geoshot/pkg/settings"
)

type FakeSurface struct {
	Results     []string
	CopyVisible bool
	CopyText    string
	Prompts     int

	PromptCredentialFunc func(ctx context.Context) (string, error)
}

func (f *FakeSurface) SetResult(text string) {
	f.Results = append(f.Results, text)
}

func (f *FakeSurface) ShowCopyAction(text string) {
	f.CopyVisible = true
	f.CopyText = text
}

func (f *FakeSurface) HideCopyAction() {
	f.CopyVisible = false
	f.CopyText = ""
}

func (f *FakeSurface) PromptCredential(ctx context.Context) (string, error) {
	f.Prompts++
	if f.PromptCredentialFunc != nil {
		return f.PromptCredentialFunc(ctx)
	}
	return "", errors.New("no input")
}

func (f *FakeSurface) last() string {
	if len(f.Results) == 0 {
		return ""
	}
	return f.Results[len(f.Results)-1]
}

type notice struct {
	ok      bool
	message string
}

type FakeNotices struct {
	Shown []notice
}

func (f *FakeNotices) Success(message string) {
	f.Shown = append(f.Shown, notice{ok: true, message: message})
}

func (f *FakeNotices) Error(message string) {
	f.Shown = append(f.Shown, notice{ok: false, message: message})
}

type FakeGenerator struct {
	Calls  int
	APIKey string

	GenerateContentFunc func(ctx context.Context, apiKey string, req gemini.GenerateContentRequest) (*gemini.GenerateContentResponse, error)
}

func (f *FakeGenerator) GenerateContent(ctx context.Context, apiKey string, req gemini.GenerateContentRequest) (*gemini.GenerateContentResponse, error) {
	f.Calls++
	f.APIKey = apiKey
	if f.GenerateContentFunc != nil {
		return f.GenerateContentFunc(ctx, apiKey, req)
	}
	return &gemini.GenerateContentResponse{}, nil
}

func okCapturer() capture.Capturer {
	return capture.CapturerFunc(func(ctx context.Context) (capture.Image, error) {
		return capture.Image{Data: []byte("png-bytes"), MimeType: capture.MimePNG}, nil
	})
}

func textResponse(text string) *gemini.GenerateContentResponse {
	return &gemini.GenerateContentResponse{
		Candidates: []gemini.Candidate{{
			Content:      &gemini.ResponseContent{Parts: []gemini.ResponsePart{{Text: text}}},
			FinishReason: "STOP",
		}},
	}
}

func newFlow(store settings.Store, gen *FakeGenerator) (*Flow, *FakeSurface, *FakeNotices) {
	surface := &FakeSurface{}
	notices := &FakeNotices{}
	return &Flow{
		Store:     store,
		Capturer:  okCapturer(),
		Generator: gen,
		Clipboard: clipboard.WriterFunc(func(ctx context.Context, text string) error { return nil }),
		Surface:   surface,
		Notices:   notices,
	}, surface, notices
}

func TestRun_SuccessRendersLocationAndEnablesCopy(t *testing.T) {
	gen := &FakeGenerator{
		GenerateContentFunc: func(ctx context.Context, apiKey string, req gemini.GenerateContentRequest) (*gemini.GenerateContentResponse, error) {
			blob := req.Contents[0].Parts[1].InlineData
			require.NotNil(t, blob)
			assert.Equal(t, "image/png", blob.MimeType)
			assert.Equal(t, "cG5nLWJ5dGVz", blob.Data)
			return textResponse("Colosseum, Rome, Italy, Europe"), nil
		},
	}
	store := settings.NewMemoryStore(map[string]string{settings.APIKeyName: "key-1"})
	flow, surface, _ := newFlow(store, gen)

	out, err := flow.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Location: Colosseum, Rome, Italy, Europe", out.Text)
	assert.Equal(t, "Location: Colosseum, Rome, Italy, Europe", surface.last())
	assert.Equal(t, KindSuccess, out.Kind)
	assert.True(t, surface.CopyVisible)
	assert.Equal(t, "Colosseum, Rome, Italy, Europe", surface.CopyText)
	assert.Equal(t, "key-1", gen.APIKey)
	assert.Equal(t, 0, surface.Prompts)
	assert.Equal(t, []State{StateStart, StateCapturing, StateRequesting, StateRendered}, flow.Trace())
}

func TestRun_CopyWritesExactLocation(t *testing.T) {
	gen := &FakeGenerator{
		GenerateContentFunc: func(ctx context.Context, apiKey string, req gemini.GenerateContentRequest) (*gemini.GenerateContentResponse, error) {
			return textResponse("Machu Picchu, Cusco, Peru, South America"), nil
		},
	}
	flow, _, notices := newFlow(settings.NewMemoryStore(map[string]string{settings.APIKeyName: "k"}), gen)

	var written string
	flow.Clipboard = clipboard.WriterFunc(func(ctx context.Context, text string) error {
		written = text
		return nil
	})

	_, err := flow.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, flow.CopyResult(context.Background()))

	assert.Equal(t, "Machu Picchu, Cusco, Peru, South America", written)
	require.Len(t, notices.Shown, 1)
	assert.Equal(t, notice{ok: true, message: MsgCopied}, notices.Shown[0])
}

func TestCopyResult_Failure(t *testing.T) {
	gen := &FakeGenerator{
		GenerateContentFunc: func(ctx context.Context, apiKey string, req gemini.GenerateContentRequest) (*gemini.GenerateContentResponse, error) {
			return textResponse("Oslo, Norway, Europe"), nil
		},
	}
	flow, _, notices := newFlow(settings.NewMemoryStore(map[string]string{settings.APIKeyName: "k"}), gen)
	flow.Clipboard = clipboard.WriterFunc(func(ctx context.Context, text string) error {
		return errors.New("no display")
	})

	_, err := flow.Run(context.Background())
	require.NoError(t, err)
	assert.Error(t, flow.CopyResult(context.Background()))
	require.Len(t, notices.Shown, 1)
	assert.Equal(t, notice{ok: false, message: "Failed to copy: no display"}, notices.Shown[0])
}

func TestCopyResult_NothingToCopy(t *testing.T) {
	flow, _, _ := newFlow(settings.NewMemoryStore(map[string]string{settings.APIKeyName: "k"}), &FakeGenerator{})
	_, err := flow.Run(context.Background())
	require.NoError(t, err)
	assert.ErrorIs(t, flow.CopyResult(context.Background()), ErrNothingToCopy)
}

func TestRun_BlockedResponseKeepsCopyHidden(t *testing.T) {
	gen := &FakeGenerator{
		GenerateContentFunc: func(ctx context.Context, apiKey string, req gemini.GenerateContentRequest) (*gemini.GenerateContentResponse, error) {
			return &gemini.GenerateContentResponse{PromptFeedback: &gemini.PromptFeedback{BlockReason: "SAFETY"}}, nil
		},
	}
	flow, surface, _ := newFlow(settings.NewMemoryStore(map[string]string{settings.APIKeyName: "k"}), gen)

	out, err := flow.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Could not extract location from the response. (Blocked: SAFETY)", out.Text)
	assert.Equal(t, KindEmptyResult, out.Kind)
	assert.False(t, surface.CopyVisible)
	assert.ErrorIs(t, flow.CopyResult(context.Background()), ErrNothingToCopy)
}

func TestRun_HTTPErrorRendered(t *testing.T) {
	gen := &FakeGenerator{
		GenerateContentFunc: func(ctx context.Context, apiKey string, req gemini.GenerateContentRequest) (*gemini.GenerateContentResponse, error) {
			return nil, &gemini.HTTPError{StatusCode: 429, Message: "quota exceeded"}
		},
	}
	flow, surface, _ := newFlow(settings.NewMemoryStore(map[string]string{settings.APIKeyName: "k"}), gen)

	out, err := flow.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Error calling Gemini API: HTTP error 429: quota exceeded", out.Text)
	assert.Equal(t, "Error calling Gemini API: HTTP error 429: quota exceeded", surface.last())
	assert.Equal(t, KindAPIError, out.Kind)
	assert.Equal(t, StateFailed, out.State)
	assert.False(t, surface.CopyVisible)
}

func TestRun_TransportErrorIsRuntimeError(t *testing.T) {
	gen := &FakeGenerator{
		GenerateContentFunc: func(ctx context.Context, apiKey string, req gemini.GenerateContentRequest) (*gemini.GenerateContentResponse, error) {
			return nil, errors.New("request: dial tcp: connection refused")
		},
	}
	flow, _, _ := newFlow(settings.NewMemoryStore(map[string]string{settings.APIKeyName: "k"}), gen)

	out, err := flow.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, KindRuntimeError, out.Kind)
	assert.Equal(t, "Error calling Gemini API: request: dial tcp: connection refused", out.Text)
}

func TestRun_CaptureFailureSkipsRequest(t *testing.T) {
	gen := &FakeGenerator{}
	flow, surface, _ := newFlow(settings.NewMemoryStore(map[string]string{settings.APIKeyName: "k"}), gen)
	flow.Capturer = capture.CapturerFunc(func(ctx context.Context) (capture.Image, error) {
		return capture.Image{}, &capture.Error{Message: "No active tab to capture"}
	})

	out, err := flow.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Error capturing screenshot: No active tab to capture", out.Text)
	assert.Equal(t, KindCaptureError, out.Kind)
	assert.Equal(t, 0, gen.Calls)
	assert.False(t, surface.CopyVisible)
	assert.Equal(t, []State{StateStart, StateCapturing, StateFailed}, flow.Trace())
}

func TestRun_NoCredentialShowsSetupThenRestarts(t *testing.T) {
	gen := &FakeGenerator{
		GenerateContentFunc: func(ctx context.Context, apiKey string, req gemini.GenerateContentRequest) (*gemini.GenerateContentResponse, error) {
			return textResponse("Sydney, Australia, Oceania"), nil
		},
	}
	store := settings.NewMemoryStore(nil)
	flow, surface, notices := newFlow(store, gen)

	inputs := []string{"   ", "  new-key  "}
	surface.PromptCredentialFunc = func(ctx context.Context) (string, error) {
		v := inputs[0]
		inputs = inputs[1:]
		return v, nil
	}

	out, err := flow.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, surface.Prompts)
	assert.Equal(t, []notice{
		{ok: false, message: MsgEnterKey},
		{ok: true, message: MsgKeySaved},
	}, notices.Shown)

	stored, err := store.Get(settings.APIKeyName)
	require.NoError(t, err)
	assert.Equal(t, "new-key", stored)
	assert.Equal(t, "new-key", gen.APIKey)
	assert.Equal(t, KindSuccess, out.Kind)
	assert.Equal(t, []State{
		StateStart, StateSetup, StateRestart,
		StateStart, StateCapturing, StateRequesting, StateRendered,
	}, flow.Trace())
}

func TestRun_SetupCancelled(t *testing.T) {
	gen := &FakeGenerator{}
	store := settings.NewMemoryStore(nil)
	flow, surface, _ := newFlow(store, gen)
	surface.PromptCredentialFunc = func(ctx context.Context) (string, error) {
		return "", context.Canceled
	}

	out, err := flow.Run(context.Background())
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateFailed, out.State)
	assert.Equal(t, 0, gen.Calls)

	_, err = store.Get(settings.APIKeyName)
	assert.ErrorIs(t, err, settings.ErrNotFound)
}

type brokenStore struct {
	settings.Store
	err error
}

func (b brokenStore) Get(key string) (string, error) {
	return "", b.err
}

func TestRun_StoreReadError(t *testing.T) {
	flow, surface, _ := newFlow(brokenStore{err: errors.New("keychain locked")}, &FakeGenerator{})

	out, err := flow.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, "failed to read API key: keychain locked", out.Text)
	assert.Equal(t, 0, surface.Prompts)
}

func TestSaveCredential(t *testing.T) {
	store := settings.NewMemoryStore(nil)
	notices := &FakeNotices{}

	err := SaveCredential(store, notices, "\t")
	assert.ErrorIs(t, err, settings.ErrEmptyValue)
	_, getErr := store.Get(settings.APIKeyName)
	assert.ErrorIs(t, getErr, settings.ErrNotFound)

	require.NoError(t, SaveCredential(store, notices, "abc"))
	v, err := store.Get(settings.APIKeyName)
	require.NoError(t, err)
	assert.Equal(t, "abc", v)

	assert.Equal(t, []notice{
		{ok: false, message: MsgEnterKey},
		{ok: true, message: MsgKeySaved},
	}, notices.Shown)
}
