// File: internal/browser/session/mock_driver_test.go
package session

import (
	"context"
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/webpilot-cli/api/schemas"
)

// mockDriver records every call in order and answers ExecuteScript from a
// queue of canned JSON payloads. Tests assert on the recorded sequence.
type mockDriver struct {
	calls []string

	scriptReplies []string
	scriptArgs    []any

	targetsQueue [][]schemas.TabInfo

	failOn map[string]error

	url   string
	title string
	quits int
}

func newMockDriver() *mockDriver {
	return &mockDriver{
		url:    "https://example.test/",
		title:  "Example",
		failOn: map[string]error{},
	}
}

func (d *mockDriver) record(call string) error {
	d.calls = append(d.calls, call)
	if err, ok := d.failOn[call]; ok {
		return err
	}
	return nil
}

// queueScript appends one canned ExecuteScript reply payload.
func (d *mockDriver) queueScript(payload string) {
	d.scriptReplies = append(d.scriptReplies, payload)
}

// queueScan enqueues the collect and commit replies for one discovery pass
// over n candidates that all survive filtering.
func (d *mockDriver) queueScan(n int) {
	candidates := make([]map[string]any, n)
	for i := range candidates {
		candidates[i] = map[string]any{
			"index":    i,
			"tag":      "button",
			"text":     fmt.Sprintf("button %d", i),
			"attrs":    map[string]string{"type": "button"},
			"rect":     map[string]float64{"left": 10, "top": float64(30 * i), "width": 100, "height": 24},
			"style":    map[string]any{"display": "block", "visibility": "visible", "opacity": 1},
			"cursor":   "pointer",
			"strategy": "structural",
		}
	}
	collect, _ := jsoniter.Marshal(map[string]any{
		"candidates": candidates,
		"viewport":   map[string]float64{"width": 1280, "height": 800},
	})
	d.queueScript(string(collect))
	d.queueScript(fmt.Sprintf(`{"count":%d}`, n))
}

func (d *mockDriver) Open(_ context.Context, url string) error {
	return d.record("open " + url)
}

func (d *mockDriver) Back(context.Context) error    { return d.record("back") }
func (d *mockDriver) Forward(context.Context) error { return d.record("forward") }
func (d *mockDriver) Refresh(context.Context) error { return d.record("refresh") }

func (d *mockDriver) ExecuteScript(_ context.Context, _ string, arg, res any) error {
	if err := d.record("script"); err != nil {
		return err
	}
	d.scriptArgs = append(d.scriptArgs, arg)
	if len(d.scriptReplies) == 0 {
		if res != nil {
			return jsoniter.Unmarshal([]byte(`{"ok":true}`), res)
		}
		return nil
	}
	payload := d.scriptReplies[0]
	d.scriptReplies = d.scriptReplies[1:]
	if res == nil {
		return nil
	}
	return jsoniter.Unmarshal([]byte(payload), res)
}

func (d *mockDriver) Screenshot(context.Context) ([]byte, error) {
	if err := d.record("screenshot"); err != nil {
		return nil, err
	}
	return []byte{0x89, 'P', 'N', 'G'}, nil
}

func (d *mockDriver) CurrentURL(context.Context) (string, error) {
	if err := d.record("url"); err != nil {
		return "", err
	}
	return d.url, nil
}

func (d *mockDriver) Title(context.Context) (string, error) {
	if err := d.record("title"); err != nil {
		return "", err
	}
	return d.title, nil
}

func (d *mockDriver) KeyDown(_ context.Context, key schemas.KeyInput) error {
	return d.record("keydown " + key.Key)
}

func (d *mockDriver) KeyUp(_ context.Context, key schemas.KeyInput) error {
	return d.record("keyup " + key.Key)
}

func (d *mockDriver) SendText(_ context.Context, text string) error {
	return d.record("sendtext " + text)
}

func (d *mockDriver) Targets(context.Context) ([]schemas.TabInfo, error) {
	if err := d.record("targets"); err != nil {
		return nil, err
	}
	if len(d.targetsQueue) == 0 {
		return nil, nil
	}
	tabs := d.targetsQueue[0]
	if len(d.targetsQueue) > 1 {
		d.targetsQueue = d.targetsQueue[1:]
	}
	return tabs, nil
}

func (d *mockDriver) ActivateTarget(_ context.Context, targetID string) error {
	return d.record("activate " + targetID)
}

func (d *mockDriver) CloseTarget(_ context.Context, targetID string) error {
	return d.record("close " + targetID)
}

func (d *mockDriver) Quit() error {
	d.quits++
	d.calls = append(d.calls, "quit")
	return nil
}
