// File: internal/browser/domscan/pass.go
package domscan

import (
	"github.com/xkilldash9x/webpilot-cli/api/schemas"
)

// maxFieldLength bounds descriptor text and url/value-like attribute values.
const maxFieldLength = 200

// AttributeAllowlist is the fixed set of attribute names carried into element
// descriptors, in collection order.
var AttributeAllowlist = []string{
	"title", "type", "name", "role", "aria-label", "placeholder",
	"value", "alt", "href", "src", "for", "tabindex",
	"contenteditable", "checked", "selected", "disabled",
	"data-testid", "data-test-id",
}

// truncatedAttributes are the url-like and value-like attributes whose values
// are clipped to maxFieldLength.
var truncatedAttributes = map[string]struct{}{
	"href":  {},
	"src":   {},
	"value": {},
}

// Pass is the host-side outcome of one discovery pass: the descriptor list in
// id order, and Keep, the page-side candidate index backing each id
// (Keep[i] backs id i). Keep is what the commit call sends back into the page
// to build the handle table and draw overlays.
type Pass struct {
	Elements []schemas.ElementDescriptor
	Keep     []int
}

// BuildPass runs the filter and ordering logic over collected candidates.
// Candidates arrive already ordered (structural matches in document order,
// then behavioral matches in document order, de-duplicated by node identity in
// the page); this function drops non-interactive, invisible and out-of-
// viewport candidates and assigns contiguous ids from 0 to the survivors.
func BuildPass(candidates []Candidate, vp Viewport, opts schemas.ScanOptions) Pass {
	pass := Pass{
		Elements: make([]schemas.ElementDescriptor, 0, len(candidates)),
		Keep:     make([]int, 0, len(candidates)),
	}

	for _, c := range candidates {
		if !Interactive(c) {
			continue
		}
		if !Visible(c) {
			continue
		}
		if !InExpandedViewport(c.Rect, vp, opts.ViewportExpansion) {
			continue
		}

		id := len(pass.Elements)
		pass.Elements = append(pass.Elements, schemas.ElementDescriptor{
			ID:         id,
			TagName:    c.Tag,
			Text:       truncate(c.Text, maxFieldLength),
			Attributes: descriptorAttributes(c.Attrs),
			Rect:       c.Rect,
		})
		pass.Keep = append(pass.Keep, c.Index)
	}

	return pass
}

// descriptorAttributes filters raw attributes through the allowlist and clips
// url/value-like values.
func descriptorAttributes(raw map[string]string) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	attrs := make(map[string]string, len(raw))
	for _, name := range AttributeAllowlist {
		value, ok := raw[name]
		if !ok {
			continue
		}
		if _, clip := truncatedAttributes[name]; clip {
			value = truncate(value, maxFieldLength)
		}
		attrs[name] = value
	}
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
