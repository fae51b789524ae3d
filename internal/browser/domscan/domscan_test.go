// File: internal/browser/domscan/domscan_test.go
package domscan

import (
	"context"
	"errors"
	"strings"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/webpilot-cli/api/schemas"
)

type scriptCall struct {
	fn  string
	arg any
}

// scriptDriver is a Driver stub that only answers ExecuteScript, replaying
// canned replies in call order.
type scriptDriver struct {
	schemas.Driver

	calls   []scriptCall
	replies []any
	err     error
}

func (d *scriptDriver) ExecuteScript(_ context.Context, fn string, arg, res any) error {
	d.calls = append(d.calls, scriptCall{fn: fn, arg: arg})
	if d.err != nil {
		return d.err
	}
	if len(d.replies) == 0 {
		return nil
	}
	reply := d.replies[0]
	d.replies = d.replies[1:]
	if res == nil || reply == nil {
		return nil
	}
	raw, err := jsoniter.Marshal(reply)
	if err != nil {
		return err
	}
	return jsoniter.Unmarshal(raw, res)
}

func TestScanCollectsBuildsAndCommits(t *testing.T) {
	candidates := candidatesFromHTML(t, `
		<a href="/docs">Docs</a>
		<p>filler</p>
		<button>Run</button>
	`)

	drv := &scriptDriver{replies: []any{
		collectReply{Candidates: candidates, Viewport: testViewport},
		commitReply{Count: 2},
	}}

	opts := schemas.DefaultScanOptions()
	opts.HighlightElements = true
	opts.FocusElement = 1

	pass, err := NewScanner(drv).Scan(context.Background(), opts)
	require.NoError(t, err)
	require.Len(t, pass.Elements, 2)

	require.Len(t, drv.calls, 2)
	assert.Equal(t, collectScript, drv.calls[0].fn)
	assert.Equal(t, collectArgs{Selector: StructuralSelector}, drv.calls[0].arg)

	assert.Equal(t, commitScript, drv.calls[1].fn)
	commit, ok := drv.calls[1].arg.(commitArgs)
	require.True(t, ok)
	assert.Equal(t, pass.Keep, commit.Keep)
	assert.True(t, commit.Highlight)
	assert.Equal(t, 1, commit.Focus)
}

func TestScanPropagatesCollectFailure(t *testing.T) {
	drv := &scriptDriver{err: errors.New("target crashed")}

	_, err := NewScanner(drv).Scan(context.Background(), schemas.DefaultScanOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collecting candidates")
}

func TestActReturnsPageVerdict(t *testing.T) {
	drv := &scriptDriver{replies: []any{
		ActionReply{OK: false, Message: "no element with id 7 in the current pass"},
	}}

	reply, err := NewScanner(drv).Act(context.Background(), ActionRequest{ID: 7, Op: "click"})
	require.NoError(t, err)
	assert.False(t, reply.OK)
	assert.Contains(t, reply.Message, "id 7")

	require.Len(t, drv.calls, 1)
	assert.Equal(t, actionScript, drv.calls[0].fn)
}

func TestActWrapsTransportFailure(t *testing.T) {
	drv := &scriptDriver{err: errors.New("connection reset")}

	_, err := NewScanner(drv).Act(context.Background(), ActionRequest{ID: 0, Op: "click"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "executing click on element 0")
}

func TestResetClearsPageState(t *testing.T) {
	drv := &scriptDriver{replies: []any{ActionReply{OK: true}}}

	err := NewScanner(drv).Reset(context.Background())
	require.NoError(t, err)
	require.Len(t, drv.calls, 1)
	assert.Equal(t, resetScript, drv.calls[0].fn)
}

func TestCollectScriptInspectsNodesUnderGuard(t *testing.T) {
	// A node that throws while being inspected must be skipped, never abort
	// the pass, so admit has to call facts inside its own guard.
	idx := strings.Index(collectScript, "function admit")
	require.GreaterOrEqual(t, idx, 0)
	body := collectScript[idx:]

	tryIdx := strings.Index(body, "try {")
	factsIdx := strings.Index(body, "facts(el, strategy)")
	require.GreaterOrEqual(t, tryIdx, 0)
	require.GreaterOrEqual(t, factsIdx, 0)
	assert.Less(t, tryIdx, factsIdx)
}

func TestClickBindingAttributesMirroredInCollectScript(t *testing.T) {
	// The classifier and the collect script must agree on which attributes
	// mark a click binding, or host-side filtering drifts from the page.
	for _, name := range clickBindingAttributes {
		assert.Contains(t, collectScript, "'"+name+"'", "attribute %s missing from collect script", name)
	}
}

func TestScrollByRejectsPageRefusal(t *testing.T) {
	drv := &scriptDriver{replies: []any{ActionReply{OK: false, Message: "detached frame"}}}

	err := NewScanner(drv).ScrollBy(context.Background(), 0, 400)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "detached frame")
}
