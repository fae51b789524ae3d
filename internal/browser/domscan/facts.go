// File: internal/browser/domscan/facts.go
package domscan

import (
	"github.com/xkilldash9x/webpilot-cli/api/schemas"
)

// Strategy identifies which discovery pass produced a candidate.
type Strategy string

const (
	// StrategyStructural marks candidates matched by the fixed selector union.
	StrategyStructural Strategy = "structural"
	// StrategyBehavioral marks candidates flagged by click handlers, pointer
	// cursors or probed event listeners.
	StrategyBehavioral Strategy = "behavioral"
)

// StyleFacts carries the computed-style values visibility decisions depend on.
type StyleFacts struct {
	Display    string  `json:"display"`
	Visibility string  `json:"visibility"`
	Opacity    float64 `json:"opacity"`
}

// Candidate is the raw, driver-serializable view of one DOM node collected by
// the in-page script. Index is the node's slot in the page-side candidate
// array; it is the only link back to the live node and is meaningless outside
// the pass that produced it.
type Candidate struct {
	Index           int               `json:"index"`
	Tag             string            `json:"tag"`
	Text            string            `json:"text"`
	Attrs           map[string]string `json:"attrs,omitempty"`
	Rect            schemas.Rect      `json:"rect"`
	Style           StyleFacts        `json:"style"`
	Cursor          string            `json:"cursor"`
	HasClickHandler bool              `json:"hasClickHandler"`
	ListenerEvents  []string          `json:"listenerEvents,omitempty"`
	Strategy        Strategy          `json:"strategy"`
}

// Viewport is the current window geometry reported by the collect call.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Visible reports whether a candidate passes the rendered-visibility check:
// display none, visibility hidden, exactly-zero opacity and zero-area boxes
// are all invisible. Ancestor clipping and scroll occlusion are not checked.
func Visible(c Candidate) bool {
	if c.Style.Display == "none" || c.Style.Visibility == "hidden" {
		return false
	}
	if c.Style.Opacity == 0 {
		return false
	}
	if c.Rect.Width == 0 || c.Rect.Height == 0 {
		return false
	}
	return true
}

// InExpandedViewport reports whether rect intersects the viewport after
// padding every edge outward by expansion pixels. An expansion of
// schemas.ExpansionDisabled (-1) admits every rect; 0 means exact
// current-viewport membership.
func InExpandedViewport(r schemas.Rect, vp Viewport, expansion int) bool {
	if expansion == schemas.ExpansionDisabled {
		return true
	}
	e := float64(expansion)
	if r.Top > vp.Height+e { // entirely below
		return false
	}
	if r.Top+r.Height < -e { // entirely above
		return false
	}
	if r.Left > vp.Width+e { // entirely right
		return false
	}
	if r.Left+r.Width < -e { // entirely left
		return false
	}
	return true
}
