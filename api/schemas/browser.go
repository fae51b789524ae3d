package schemas

import (
	"fmt"
	"time"
)

// -- Action Result Schemas --

// ActionStatus is the outcome marker carried by every action result.
type ActionStatus string

const (
	StatusOK    ActionStatus = "ok"
	StatusError ActionStatus = "error"
)

// ActionResult is the uniform record returned by every session operation.
// Failures are payloads: an action never propagates an error past its own
// boundary, it reports one here instead.
type ActionResult struct {
	Status  ActionStatus   `json:"status"`
	Message string         `json:"message,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

// OK builds a success result with a human readable message.
func OK(format string, args ...any) ActionResult {
	return ActionResult{Status: StatusOK, Message: fmt.Sprintf(format, args...)}
}

// Errorf builds an error result with a human readable message.
func Errorf(format string, args ...any) ActionResult {
	return ActionResult{Status: StatusError, Message: fmt.Sprintf(format, args...)}
}

// WithData attaches a payload value to a copy of the result.
func (r ActionResult) WithData(key string, value any) ActionResult {
	if r.Data == nil {
		r.Data = make(map[string]any, 1)
	}
	r.Data[key] = value
	return r
}

// Failed reports whether the result carries an error status.
func (r ActionResult) Failed() bool { return r.Status == StatusError }

// -- Element Schemas --

// Rect is a viewport relative bounding box.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ElementDescriptor describes one interactive element found by a discovery
// pass. IDs are contiguous from 0 within a single pass and are invalidated by
// the next pass; holding on to one across an UpdateState call yields a
// resolution error, not a crash.
type ElementDescriptor struct {
	ID         int               `json:"id"`
	TagName    string            `json:"tagName"`
	Text       string            `json:"text"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Rect       Rect              `json:"rect"`
}

// ScanOptions configures a discovery pass.
type ScanOptions struct {
	// HighlightElements draws the overlay boxes for discovered elements.
	HighlightElements bool `json:"highlightElements"`
	// FocusElement restricts highlighting to a single id. FocusNone (-1)
	// highlights every match.
	FocusElement int `json:"focusElement"`
	// ViewportExpansion pads the viewport bounds before membership testing,
	// in pixels. ExpansionDisabled (-1) disables viewport filtering entirely.
	ViewportExpansion int `json:"viewportExpansion"`
}

const (
	// FocusNone highlights all discovered elements rather than one.
	FocusNone = -1
	// ExpansionDisabled turns off viewport filtering for a pass.
	ExpansionDisabled = -1
)

// DefaultScanOptions mirrors the documented defaults: highlight everything,
// exact current-viewport membership.
func DefaultScanOptions() ScanOptions {
	return ScanOptions{
		HighlightElements: true,
		FocusElement:      FocusNone,
		ViewportExpansion: 0,
	}
}

// PageState is the full state snapshot returned by UpdateState.
type PageState struct {
	Status     ActionStatus        `json:"status"`
	Message    string              `json:"message,omitempty"`
	URL        string              `json:"url,omitempty"`
	Title      string              `json:"title,omitempty"`
	Elements   []ElementDescriptor `json:"elements,omitempty"`
	Screenshot []byte              `json:"screenshot,omitempty"`
}

// -- Session Schemas --

// SessionInfo is the metadata view of a live session exposed to callers.
type SessionInfo struct {
	ID         string    `json:"id"`
	Key        string    `json:"key"`
	StartedAt  time.Time `json:"startedAt"`
	CurrentURL string    `json:"currentUrl,omitempty"`
}

// TabInfo describes one open page target in the browser.
type TabInfo struct {
	TargetID string `json:"targetId"`
	URL      string `json:"url"`
	Title    string `json:"title"`
	Active   bool   `json:"active"`
}
