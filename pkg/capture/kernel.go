package capture

import (
	"context"
	"fmt"
)

// KernelBrowser resolves the DevTools endpoint of a Kernel cloud browser session.
// Lookup returns the session's CDP websocket URL; it is usually backed by the
// Kernel SDK's Browsers.Get.
type KernelBrowser struct {
	ID     string
	Lookup func(ctx context.Context, id string) (string, error)
}

func (k KernelBrowser) Resolve(ctx context.Context) (string, error) {
	if k.ID == "" {
		return "", fmt.Errorf("no Kernel browser id given")
	}
	if k.Lookup == nil {
		return "", fmt.Errorf("Kernel client is not configured")
	}
	url, err := k.Lookup(ctx, k.ID)
	if err != nil {
		return "", fmt.Errorf("failed to get browser %s: %w", k.ID, err)
	}
	if url == "" {
		return "", fmt.Errorf("browser %s has no CDP URL", k.ID)
	}
	return url, nil
}
