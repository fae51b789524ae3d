// File: internal/browser/session/tabs_test.go
package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/webpilot-cli/api/schemas"
)

func TestListTabs(t *testing.T) {
	drv := newMockDriver()
	drv.targetsQueue = [][]schemas.TabInfo{{
		{TargetID: "t1", URL: "https://example.test/", Active: true},
		{TargetID: "t2", URL: "https://example.test/other"},
	}}
	s := newTestSession(drv)

	res := s.ListTabs(context.Background())

	require.False(t, res.Failed())
	tabs, ok := res.Data["tabs"].([]schemas.TabInfo)
	require.True(t, ok)
	assert.Len(t, tabs, 2)
}

func TestSwitchToTabInvalidatesPass(t *testing.T) {
	drv := newMockDriver()
	s := newTestSession(drv)

	drv.queueScan(1)
	s.UpdateState(context.Background())

	res := s.SwitchToTab(context.Background(), "t2")
	require.False(t, res.Failed())
	assert.Contains(t, drv.calls, "activate t2")

	res = s.Click(context.Background(), 0)
	require.True(t, res.Failed())
	assert.Contains(t, res.Message, "updateState")
}

func TestSwitchToNewestTab(t *testing.T) {
	drv := newMockDriver()
	drv.targetsQueue = [][]schemas.TabInfo{{
		{TargetID: "t1", Active: true},
		{TargetID: "t2"},
		{TargetID: "t3", URL: "https://example.test/new"},
	}}
	s := newTestSession(drv)

	res := s.SwitchToNewestTab(context.Background())

	require.False(t, res.Failed())
	assert.Contains(t, drv.calls, "activate t3")
	assert.Equal(t, "https://example.test/new", res.Data["url"])
}

func TestCloseCurrentTabActivatesRemaining(t *testing.T) {
	drv := newMockDriver()
	drv.targetsQueue = [][]schemas.TabInfo{{
		{TargetID: "t1"},
		{TargetID: "t2", Active: true},
	}}
	s := newTestSession(drv)

	res := s.CloseCurrentTab(context.Background())

	require.False(t, res.Failed(), res.Message)
	assert.Contains(t, drv.calls, "close t2")
	assert.Contains(t, drv.calls, "activate t1")
}

func TestCloseCurrentTabLastTab(t *testing.T) {
	drv := newMockDriver()
	drv.targetsQueue = [][]schemas.TabInfo{{
		{TargetID: "t1", Active: true},
	}}
	s := newTestSession(drv)

	res := s.CloseCurrentTab(context.Background())

	require.False(t, res.Failed())
	assert.Contains(t, drv.calls, "close t1")
	assert.NotContains(t, drv.calls, "activate t1")
}

func TestClickAndSwitchTab(t *testing.T) {
	drv := newMockDriver()
	// First Targets call sees one tab, the post-click poll sees the new one.
	drv.targetsQueue = [][]schemas.TabInfo{
		{{TargetID: "t1", Active: true}},
		{{TargetID: "t1", Active: true}, {TargetID: "t2"}},
	}
	s := newTestSession(drv)

	drv.queueScan(1)
	s.UpdateState(context.Background())

	drv.queueScript(`{"ok":true}`)
	res := s.ClickAndSwitchTab(context.Background(), 0)

	require.False(t, res.Failed(), res.Message)
	assert.Contains(t, res.Message, "t2")
	assert.Contains(t, drv.calls, "activate t2")

	// The switch invalidated the pass.
	click := s.Click(context.Background(), 0)
	require.True(t, click.Failed())
}
