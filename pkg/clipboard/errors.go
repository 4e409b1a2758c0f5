package clipboard

import "errors"

// ErrUnsupported is returned when no clipboard utility is available, e.g. a
// headless Linux box without xclip, xsel or wl-copy.
var ErrUnsupported = errors.New("clipboard is not available on this system")
