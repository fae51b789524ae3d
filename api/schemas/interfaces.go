package schemas

import "context"

// KeyInput carries the CDP-level identity of a single key for raw key event
// dispatch. Text is empty for keys that do not produce characters.
type KeyInput struct {
	Key                   string `json:"key"`
	Code                  string `json:"code"`
	Text                  string `json:"text,omitempty"`
	WindowsVirtualKeyCode int    `json:"windowsVirtualKeyCode"`
}

// Driver is the remote browser capability the session layer is built on. A
// Driver owns exactly one browser process; it is not safe for concurrent use
// and callers are expected to serialize operations per handle. Quit tears the
// process down and causes any in-flight call on the handle to fail.
type Driver interface {
	// Open navigates the active tab to url and blocks until the load settles.
	Open(ctx context.Context, url string) error
	Back(ctx context.Context) error
	Forward(ctx context.Context) error
	Refresh(ctx context.Context) error

	// ExecuteScript evaluates fn, a JavaScript function expression, applied
	// to arg in the page context of the active tab: `(fn)(arg)`. The arg
	// value crosses the boundary as JSON data, never as interpolated source
	// text. When res is non-nil the return value is unmarshaled into it.
	ExecuteScript(ctx context.Context, fn string, arg, res any) error

	// Screenshot captures the active tab as PNG bytes.
	Screenshot(ctx context.Context) ([]byte, error)
	CurrentURL(ctx context.Context) (string, error)
	Title(ctx context.Context) (string, error)

	// KeyDown and KeyUp dispatch raw key transitions to the active tab.
	// SendText synthesizes full press/release sequences for a string of
	// printable characters.
	KeyDown(ctx context.Context, key KeyInput) error
	KeyUp(ctx context.Context, key KeyInput) error
	SendText(ctx context.Context, text string) error

	// Targets enumerates the open page targets (tabs).
	Targets(ctx context.Context) ([]TabInfo, error)
	// ActivateTarget makes the given target the active tab for subsequent
	// operations.
	ActivateTarget(ctx context.Context, targetID string) error
	// CloseTarget closes the given target. Closing the active tab requires a
	// subsequent ActivateTarget before further page operations.
	CloseTarget(ctx context.Context, targetID string) error

	// Quit terminates the browser process. Safe to call more than once.
	Quit() error
}
