package locate

// State is a step of one activation.
type State string

const (
	StateStart      State = "start"
	StateSetup      State = "setup"
	StateRestart    State = "restart"
	StateCapturing  State = "capturing"
	StateRequesting State = "requesting"
	StateRendered   State = "rendered"
	StateFailed     State = "failed"
)

// Terminal reports whether the activation ends in this state.
func (s State) Terminal() bool {
	return s == StateRendered || s == StateFailed
}

// Kind classifies how an activation ended.
type Kind string

const (
	KindSuccess      Kind = "success"
	KindEmptyResult  Kind = "empty_result"
	KindCaptureError Kind = "capture_error"
	KindAPIError     Kind = "api_error"
	KindRuntimeError Kind = "runtime_error"
)

// Outcome is what an activation rendered.
type Outcome struct {
	State State  `json:"state"`
	Kind  Kind   `json:"kind"`
	Text  string `json:"text"`
	// Location is the extracted guess; empty unless Kind is KindSuccess.
	Location string `json:"location,omitempty"`
	// Detail holds the block or finish reason behind an empty result.
	Detail string `json:"detail,omitempty"`
	Err    error  `json:"-"`
}

// Copyable reports whether the copy action is offered for this outcome.
func (o Outcome) Copyable() bool {
	return o.Kind == KindSuccess && o.Location != ""
}
