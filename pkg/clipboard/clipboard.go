// Package clipboard writes plain text to the system clipboard.
package clipboard

import (
	"context"

	"github.com/atotto/clipboard"
)

// Writer accepts plain-text clipboard writes.
type Writer interface {
	WriteText(ctx context.Context, text string) error
}

// System is the operating system clipboard.
type System struct{}

func (System) WriteText(ctx context.Context, text string) error {
	if clipboard.Unsupported {
		return ErrUnsupported
	}
	return clipboard.WriteAll(text)
}

// WriterFunc adapts a function to the Writer interface.
type WriterFunc func(ctx context.Context, text string) error

func (f WriterFunc) WriteText(ctx context.Context, text string) error {
	return f(ctx, text)
}
