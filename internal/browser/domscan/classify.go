// File: internal/browser/domscan/classify.go
package domscan

// StructuralSelector is the fixed selector union for the structural discovery
// strategy: natively interactive tags, explicit interactive roles, focusable
// and click-wired elements, disclosure widgets, media with controls, editable
// regions, SVG graphical primitives and image-map areas.
const StructuralSelector = `a, button, input, select, textarea, ` +
	`[role="button"], [role="link"], [role="checkbox"], [role="radio"], ` +
	`[role="tab"], [role="menuitem"], [role="menuitemcheckbox"], [role="menuitemradio"], ` +
	`[role="option"], [role="switch"], [role="combobox"], [role="slider"], ` +
	`[role="spinbutton"], [role="searchbox"], [role="textbox"], ` +
	`[tabindex="0"], [onclick], [contenteditable="true"], [contenteditable=""], ` +
	`details, summary, audio[controls], video[controls], embed, object, ` +
	`svg a, svg circle, svg ellipse, svg rect, svg path, svg polygon, svg polyline, svg text, ` +
	`area`

// standardInteractiveTags are the tags the behavioral strategy skips: they are
// interactive by definition and already covered by the structural pass.
var standardInteractiveTags = map[string]struct{}{
	"a":        {},
	"button":   {},
	"input":    {},
	"select":   {},
	"textarea": {},
}

// clickListenerEvents are the probed listener types that mark a node as
// behaviorally interactive.
var clickListenerEvents = map[string]struct{}{
	"click":      {},
	"mousedown":  {},
	"mouseup":    {},
	"touchstart": {},
	"touchend":   {},
}

// clickBindingAttributes are the inline and framework click-binding attribute
// conventions treated as direct click handlers. Mirrors the collect script's
// list.
var clickBindingAttributes = []string{
	"onclick", "ng-click", "v-on:click", "@click", "data-onclick", "data-click",
}

// HasClickBinding reports whether a candidate's attributes carry a click
// handler by attribute convention.
func HasClickBinding(attrs map[string]string) bool {
	for _, name := range clickBindingAttributes {
		if _, ok := attrs[name]; ok {
			return true
		}
	}
	return false
}

// Interactive decides whether a candidate counts as interactive. Structural
// candidates qualify by construction. Behavioral candidates qualify when they
// carry a direct click handler, render a pointer cursor, or the listener probe
// reported a click-family listener.
func Interactive(c Candidate) bool {
	if c.Strategy == StrategyStructural {
		return true
	}
	if c.HasClickHandler || HasClickBinding(c.Attrs) {
		return true
	}
	if c.Cursor == "pointer" {
		return true
	}
	for _, ev := range c.ListenerEvents {
		if _, ok := clickListenerEvents[ev]; ok {
			return true
		}
	}
	return false
}

// IsStandardInteractiveTag reports whether tag belongs to the set the
// behavioral strategy never rescans.
func IsStandardInteractiveTag(tag string) bool {
	_, ok := standardInteractiveTags[tag]
	return ok
}
