// Package notice shows short-lived status messages that hide themselves.
package notice

import (
	"sync"
	"time"
)

// DefaultDelay is how long a notice stays visible.
const DefaultDelay = 3 * time.Second

type Severity string

const (
	Success Severity = "success"
	Error   Severity = "error"
)

// Element is the surface a notice is drawn on.
type Element interface {
	Show(message string, severity Severity)
	Hide()
}

// Notifier shows a message on its element and hides the element after Delay.
// A new notice replaces whatever is shown; each notice keeps its own hide timer.
type Notifier struct {
	element Element
	delay   time.Duration

	// afterFunc is time.AfterFunc outside of tests.
	afterFunc func(d time.Duration, f func()) *time.Timer

	mu      sync.Mutex
	pending []*time.Timer
	wg      sync.WaitGroup
}

func New(element Element, delay time.Duration) *Notifier {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Notifier{
		element:   element,
		delay:     delay,
		afterFunc: time.AfterFunc,
	}
}

// Show displays message immediately and schedules the element to be hidden.
func (n *Notifier) Show(message string, severity Severity) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.element.Show(message, severity)
	n.wg.Add(1)
	timer := n.afterFunc(n.delay, func() {
		defer n.wg.Done()
		n.mu.Lock()
		defer n.mu.Unlock()
		n.element.Hide()
	})
	n.pending = append(n.pending, timer)
}

func (n *Notifier) Success(message string) {
	n.Show(message, Success)
}

func (n *Notifier) Error(message string) {
	n.Show(message, Error)
}

// Wait blocks until every notice shown so far has been hidden.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

// Flush hides the element now and cancels pending timers.
func (n *Notifier) Flush() {
	n.mu.Lock()
	defer n.mu.Unlock()

	stopped := false
	for _, t := range n.pending {
		if t != nil && t.Stop() {
			stopped = true
			n.wg.Done()
		}
	}
	n.pending = nil
	if stopped {
		n.element.Hide()
	}
}
