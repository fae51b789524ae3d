// File: internal/browser/session/tabs.go
package session

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/webpilot-cli/api/schemas"
	"github.com/xkilldash9x/webpilot-cli/internal/browser/domscan"
)

// newTabPollInterval and newTabWait bound the wait for a click-opened tab to
// appear in the target list.
const (
	newTabPollInterval = 100 * time.Millisecond
	newTabWait         = 3 * time.Second
)

// ListTabs enumerates the open page targets.
func (s *Session) ListTabs(ctx context.Context) schemas.ActionResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	tabs, err := s.driver.Targets(ctx)
	if err != nil {
		return schemas.Errorf("failed to list tabs: %v", err)
	}
	return schemas.OK("%d open tabs", len(tabs)).WithData("tabs", tabs)
}

// SwitchToTab makes the given target the active tab. A switch invalidates the
// current discovery pass, the handle table belongs to the previous tab.
func (s *Session) SwitchToTab(ctx context.Context, targetID string) schemas.ActionResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if targetID == "" {
		return schemas.Errorf("switch tab requires a target id")
	}
	if err := s.driver.ActivateTarget(ctx, targetID); err != nil {
		return schemas.Errorf("failed to switch to tab %s: %v", targetID, err)
	}
	s.invalidatePass()
	return schemas.OK("switched to tab %s", targetID)
}

// SwitchToNewestTab activates the most recently opened page target.
func (s *Session) SwitchToNewestTab(ctx context.Context) schemas.ActionResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	tabs, err := s.driver.Targets(ctx)
	if err != nil {
		return schemas.Errorf("failed to list tabs: %v", err)
	}
	if len(tabs) == 0 {
		return schemas.Errorf("no open tabs")
	}
	newest := tabs[len(tabs)-1]
	if err := s.driver.ActivateTarget(ctx, newest.TargetID); err != nil {
		return schemas.Errorf("failed to switch to tab %s: %v", newest.TargetID, err)
	}
	s.invalidatePass()
	return schemas.OK("switched to newest tab %s", newest.TargetID).WithData("url", newest.URL)
}

// CloseCurrentTab closes the active tab and activates the first remaining
// page target, if any.
func (s *Session) CloseCurrentTab(ctx context.Context) schemas.ActionResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	tabs, err := s.driver.Targets(ctx)
	if err != nil {
		return schemas.Errorf("failed to list tabs: %v", err)
	}

	var active *schemas.TabInfo
	remaining := make([]schemas.TabInfo, 0, len(tabs))
	for i := range tabs {
		if tabs[i].Active {
			active = &tabs[i]
		} else {
			remaining = append(remaining, tabs[i])
		}
	}
	if active == nil {
		return schemas.Errorf("no active tab to close")
	}

	if err := s.driver.CloseTarget(ctx, active.TargetID); err != nil {
		return schemas.Errorf("failed to close tab %s: %v", active.TargetID, err)
	}
	s.invalidatePass()

	if len(remaining) == 0 {
		return schemas.OK("closed last tab %s", active.TargetID)
	}
	next := remaining[0]
	if err := s.driver.ActivateTarget(ctx, next.TargetID); err != nil {
		return schemas.Errorf("closed tab %s but failed to activate %s: %v", active.TargetID, next.TargetID, err)
	}
	return schemas.OK("closed tab %s, now on %s", active.TargetID, next.TargetID)
}

// ClickAndSwitchTab clicks an element expected to open a new tab, waits for a
// fresh page target to appear, and switches to it. When no new target shows
// up within the wait window the click result is returned as-is.
func (s *Session) ClickAndSwitchTab(ctx context.Context, id int) schemas.ActionResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if res, ok := s.resolve(id); !ok {
		return res
	}

	before, err := s.driver.Targets(ctx)
	if err != nil {
		return schemas.Errorf("failed to list tabs: %v", err)
	}
	known := make(map[string]struct{}, len(before))
	for _, t := range before {
		known[t.TargetID] = struct{}{}
	}

	reply, err := s.scanner.Act(ctx, domscan.ActionRequest{ID: id, Op: "click"})
	if err != nil {
		return schemas.Errorf("failed to click element %d: %v", id, err)
	}
	if !reply.OK {
		return schemas.Errorf("%s", reply.Message)
	}

	fresh, err := s.waitForNewTarget(ctx, known)
	if err != nil {
		return schemas.Errorf("clicked element %d but failed waiting for a new tab: %v", id, err)
	}
	if fresh == "" {
		s.logger.Debug("click opened no new tab", zap.Int("element_id", id))
		return schemas.OK("clicked element %d, no new tab appeared", id)
	}

	if err := s.driver.ActivateTarget(ctx, fresh); err != nil {
		return schemas.Errorf("clicked element %d but failed to switch to new tab %s: %v", id, fresh, err)
	}
	s.invalidatePass()
	return schemas.OK("clicked element %d and switched to new tab %s", id, fresh)
}

// waitForNewTarget polls the target list until a page target outside known
// appears or the wait window elapses. An empty id with nil error means no new
// target showed up. Callers hold mu.
func (s *Session) waitForNewTarget(ctx context.Context, known map[string]struct{}) (string, error) {
	deadline := time.Now().Add(newTabWait)
	for {
		tabs, err := s.driver.Targets(ctx)
		if err != nil {
			return "", err
		}
		for _, t := range tabs {
			if _, seen := known[t.TargetID]; !seen {
				return t.TargetID, nil
			}
		}
		if time.Now().After(deadline) {
			return "", nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(newTabPollInterval):
		}
	}
}
