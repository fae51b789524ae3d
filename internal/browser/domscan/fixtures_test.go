// File: internal/browser/domscan/fixtures_test.go
package domscan

import (
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/xkilldash9x/webpilot-cli/api/schemas"
)

var testViewport = Viewport{Width: 1280, Height: 800}

func visibleRect(index int) schemas.Rect {
	return schemas.Rect{Left: 10, Top: float64(20 * index), Width: 120, Height: 18}
}

func visibleStyle() StyleFacts {
	return StyleFacts{Display: "block", Visibility: "visible", Opacity: 1}
}

// candidatesFromHTML parses a document fragment and builds one candidate per
// element in document order, mirroring what the in-page collector produces.
// Geometry and computed style default to a visible on-screen box; tests mutate
// individual candidates to exercise the filters.
func candidatesFromHTML(t *testing.T, fragment string) []Candidate {
	t.Helper()

	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		t.Fatalf("parsing fixture: %v", err)
	}

	var out []Candidate
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && !isScaffoldTag(n.Data) {
			out = append(out, candidateFromNode(n, len(out)))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out
}

func isScaffoldTag(tag string) bool {
	switch tag {
	case "html", "head", "body":
		return true
	}
	return false
}

func candidateFromNode(n *html.Node, index int) Candidate {
	attrs := make(map[string]string, len(n.Attr))
	for _, a := range n.Attr {
		attrs[a.Key] = a.Val
	}

	strategy := StrategyBehavioral
	if IsStandardInteractiveTag(n.Data) || attrs["role"] != "" || attrs["onclick"] != "" {
		strategy = StrategyStructural
	}

	return Candidate{
		Index:           index,
		Tag:             n.Data,
		Text:            strings.TrimSpace(nodeText(n)),
		Attrs:           attrs,
		Rect:            visibleRect(index),
		Style:           visibleStyle(),
		Cursor:          "auto",
		HasClickHandler: attrs["onclick"] != "",
		Strategy:        strategy,
	}
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
