// File: internal/browser/session/session.go

// Package session implements the per-identity browser session: one driver
// handle, one scanner, and the uniform action surface built on them. Every
// operation returns a schemas.ActionResult; failures are reported in the
// result and never escape as panics or raw errors.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webpilot-cli/api/schemas"
	"github.com/xkilldash9x/webpilot-cli/internal/browser/domscan"
	"github.com/xkilldash9x/webpilot-cli/internal/config"
	"github.com/xkilldash9x/webpilot-cli/internal/observability"
)

// defaultScrollAmount is used when a scroll request omits the pixel amount.
const defaultScrollAmount = 500

// Session owns exactly one driver handle. The mutex serializes every
// operation: the handle is not safe for concurrent use and ids from a
// discovery pass are only coherent between two UpdateState calls.
type Session struct {
	id        string
	key       string
	driver    schemas.Driver
	scanner   *domscan.Scanner
	logger    *zap.Logger
	scanCfg   config.ScanConfig
	startedAt time.Time

	mu       sync.Mutex
	lastPass domscan.Pass
	hasPass  bool
}

// New wraps a live driver handle in a session.
func New(key string, driver schemas.Driver, scanCfg config.ScanConfig) *Session {
	id := uuid.NewString()
	return &Session{
		id:        id,
		key:       key,
		driver:    driver,
		scanner:   domscan.NewScanner(driver),
		logger:    observability.GetLogger().Named("session").With(zap.String("session_key", key), zap.String("session_id", id)),
		scanCfg:   scanCfg,
		startedAt: time.Now(),
	}
}

// Info returns the metadata view of the session. The current URL is fetched
// best effort and left empty on failure.
func (s *Session) Info(ctx context.Context) schemas.SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	info := schemas.SessionInfo{
		ID:        s.id,
		Key:       s.key,
		StartedAt: s.startedAt,
	}
	if url, err := s.driver.CurrentURL(ctx); err == nil {
		info.CurrentURL = url
	}
	return info
}

// Key returns the registry key the session was created under.
func (s *Session) Key() string { return s.key }

// Close releases the driver handle. Any in-flight call on the handle fails
// once the browser is gone.
func (s *Session) Close() error {
	s.logger.Info("closing session")
	return s.driver.Quit()
}

// -- Navigation --

func (s *Session) Navigate(ctx context.Context, url string) schemas.ActionResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if url == "" {
		return schemas.Errorf("navigate requires a url")
	}
	if err := s.driver.Open(ctx, url); err != nil {
		s.logger.Warn("navigation failed", zap.String("url", url), zap.Error(err))
		return schemas.Errorf("failed to navigate to %s: %v", url, err)
	}
	s.invalidatePass()
	return schemas.OK("navigated to %s", url)
}

func (s *Session) GoBack(ctx context.Context) schemas.ActionResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.driver.Back(ctx); err != nil {
		return schemas.Errorf("failed to go back: %v", err)
	}
	s.invalidatePass()
	return schemas.OK("went back")
}

func (s *Session) GoForward(ctx context.Context) schemas.ActionResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.driver.Forward(ctx); err != nil {
		return schemas.Errorf("failed to go forward: %v", err)
	}
	s.invalidatePass()
	return schemas.OK("went forward")
}

func (s *Session) Refresh(ctx context.Context) schemas.ActionResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.driver.Refresh(ctx); err != nil {
		return schemas.Errorf("failed to refresh: %v", err)
	}
	s.invalidatePass()
	return schemas.OK("page refreshed")
}

// invalidatePass drops the host-side view of the last discovery pass. The
// page-side handle table dies with the navigation itself. Callers hold mu.
func (s *Session) invalidatePass() {
	s.lastPass = domscan.Pass{}
	s.hasPass = false
}

// -- State --

// UpdateState runs a discovery pass with highlighting per config, captures a
// screenshot and returns the full snapshot. Ids in the returned elements
// supersede those of any earlier pass.
func (s *Session) UpdateState(ctx context.Context) schemas.PageState {
	s.mu.Lock()
	defer s.mu.Unlock()

	opts := schemas.ScanOptions{
		HighlightElements: s.scanCfg.Highlight,
		FocusElement:      schemas.FocusNone,
		ViewportExpansion: s.scanCfg.ViewportExpansion,
	}

	pass, err := s.scanner.Scan(ctx, opts)
	if err != nil {
		s.invalidatePass()
		s.logger.Warn("discovery pass failed", zap.Error(err))
		return schemas.PageState{Status: schemas.StatusError, Message: "failed to scan page: " + err.Error()}
	}
	s.lastPass = pass
	s.hasPass = true

	state := schemas.PageState{
		Status:   schemas.StatusOK,
		Elements: pass.Elements,
	}
	if url, err := s.driver.CurrentURL(ctx); err == nil {
		state.URL = url
	} else {
		s.logger.Debug("could not read current url", zap.Error(err))
	}
	if title, err := s.driver.Title(ctx); err == nil {
		state.Title = title
	}
	if shot, err := s.driver.Screenshot(ctx); err == nil {
		state.Screenshot = shot
	} else {
		s.logger.Warn("screenshot failed", zap.Error(err))
	}
	return state
}

// -- Element actions --

func (s *Session) Click(ctx context.Context, id int) schemas.ActionResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if res, ok := s.resolve(id); !ok {
		return res
	}
	reply, err := s.scanner.Act(ctx, domscan.ActionRequest{ID: id, Op: "click"})
	if err != nil {
		return schemas.Errorf("failed to click element %d: %v", id, err)
	}
	if !reply.OK {
		return schemas.Errorf("%s", reply.Message)
	}
	res := schemas.OK("clicked element %d", id)
	if reply.Href != "" {
		res = res.WithData("href", reply.Href)
	}
	return res
}

func (s *Session) DoubleClick(ctx context.Context, id int) schemas.ActionResult {
	return s.simpleElementAction(ctx, id, "dblclick", "double clicked element %d")
}

func (s *Session) RightClick(ctx context.Context, id int) schemas.ActionResult {
	return s.simpleElementAction(ctx, id, "rightclick", "right clicked element %d")
}

func (s *Session) Hover(ctx context.Context, id int) schemas.ActionResult {
	return s.simpleElementAction(ctx, id, "hover", "hovering element %d")
}

func (s *Session) ScrollToElement(ctx context.Context, id int) schemas.ActionResult {
	return s.simpleElementAction(ctx, id, "scroll_into_view", "scrolled element %d into view")
}

func (s *Session) simpleElementAction(ctx context.Context, id int, op, okFormat string) schemas.ActionResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if res, ok := s.resolve(id); !ok {
		return res
	}
	reply, err := s.scanner.Act(ctx, domscan.ActionRequest{ID: id, Op: op})
	if err != nil {
		return schemas.Errorf("failed to %s element %d: %v", op, id, err)
	}
	if !reply.OK {
		return schemas.Errorf("%s", reply.Message)
	}
	return schemas.OK(okFormat, id)
}

func (s *Session) DragAndDrop(ctx context.Context, sourceID, targetID int) schemas.ActionResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if res, ok := s.resolve(sourceID); !ok {
		return res
	}
	if res, ok := s.resolve(targetID); !ok {
		return res
	}
	reply, err := s.scanner.Act(ctx, domscan.ActionRequest{ID: sourceID, Op: "dragdrop", TargetID: targetID})
	if err != nil {
		return schemas.Errorf("failed to drag element %d onto %d: %v", sourceID, targetID, err)
	}
	if !reply.OK {
		return schemas.Errorf("%s", reply.Message)
	}
	return schemas.OK("dragged element %d onto element %d", sourceID, targetID)
}

func (s *Session) TypeText(ctx context.Context, id int, text string) schemas.ActionResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if res, ok := s.resolve(id); !ok {
		return res
	}
	reply, err := s.scanner.Act(ctx, domscan.ActionRequest{ID: id, Op: "input", Text: text})
	if err != nil {
		return schemas.Errorf("failed to type into element %d: %v", id, err)
	}
	if !reply.OK {
		return schemas.Errorf("%s", reply.Message)
	}
	return schemas.OK("typed %d characters into element %d", len([]rune(text)), id)
}

func (s *Session) SetCheckbox(ctx context.Context, id int, checked bool) schemas.ActionResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if res, ok := s.resolve(id); !ok {
		return res
	}
	reply, err := s.scanner.Act(ctx, domscan.ActionRequest{ID: id, Op: "checkbox", Checked: checked})
	if err != nil {
		return schemas.Errorf("failed to set checkbox %d: %v", id, err)
	}
	if !reply.OK {
		return schemas.Errorf("%s", reply.Message)
	}
	if checked {
		return schemas.OK("checked element %d", id)
	}
	return schemas.OK("unchecked element %d", id)
}

// SelectOption picks an option by its value attribute or by its visible text.
// Exactly one selector is used: value when set, text otherwise.
func (s *Session) SelectOption(ctx context.Context, id int, value, text string) schemas.ActionResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if value == "" && text == "" {
		return schemas.Errorf("select requires an option value or text")
	}
	if res, ok := s.resolve(id); !ok {
		return res
	}
	reply, err := s.scanner.Act(ctx, domscan.ActionRequest{ID: id, Op: "select", Value: value, Text: text})
	if err != nil {
		return schemas.Errorf("failed to select option on element %d: %v", id, err)
	}
	if !reply.OK {
		return schemas.Errorf("%s", reply.Message)
	}
	if value != "" {
		return schemas.OK("selected option with value %q on element %d", value, id)
	}
	return schemas.OK("selected option with text %q on element %d", text, id)
}

func (s *Session) GetText(ctx context.Context, id int) schemas.ActionResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if res, ok := s.resolve(id); !ok {
		return res
	}
	reply, err := s.scanner.Act(ctx, domscan.ActionRequest{ID: id, Op: "get_text"})
	if err != nil {
		return schemas.Errorf("failed to read text of element %d: %v", id, err)
	}
	if !reply.OK {
		return schemas.Errorf("%s", reply.Message)
	}
	return schemas.OK("read text of element %d", id).WithData("text", reply.Text)
}

func (s *Session) GetAttribute(ctx context.Context, id int, name string) schemas.ActionResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if name == "" {
		return schemas.Errorf("get attribute requires an attribute name")
	}
	if res, ok := s.resolve(id); !ok {
		return res
	}
	reply, err := s.scanner.Act(ctx, domscan.ActionRequest{ID: id, Op: "get_attribute", Name: name})
	if err != nil {
		return schemas.Errorf("failed to read attribute %q of element %d: %v", name, id, err)
	}
	if !reply.OK {
		return schemas.Errorf("%s", reply.Message)
	}
	res := schemas.OK("read attribute %q of element %d", name, id).WithData("found", reply.Found)
	if reply.Found {
		res = res.WithData("value", reply.Value)
	}
	return res
}

// resolve checks an element id against the current pass. Callers hold mu. The
// page performs the authoritative lookup; this check catches stale and
// out-of-range ids before a round trip.
func (s *Session) resolve(id int) (schemas.ActionResult, bool) {
	if !s.hasPass {
		return schemas.Errorf("no discovery pass available, call updateState first"), false
	}
	if id < 0 || id >= len(s.lastPass.Elements) {
		return schemas.Errorf("no element with id %d in the current pass", id), false
	}
	return schemas.ActionResult{}, true
}

// -- Keyboard --

// PressKey presses and releases one named key.
func (s *Session) PressKey(ctx context.Context, name string) schemas.ActionResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if name == "" {
		return schemas.Errorf("press key requires a key name")
	}
	key := ResolveKey(name)
	if err := s.driver.KeyDown(ctx, key); err != nil {
		return schemas.Errorf("failed to press %s: %v", name, err)
	}
	if err := s.driver.KeyUp(ctx, key); err != nil {
		return schemas.Errorf("failed to release %s: %v", name, err)
	}
	return schemas.OK("pressed %s", name)
}

// KeyCombination holds every key except the last down in order, presses and
// releases the final key, then releases the held keys in reverse order.
func (s *Session) KeyCombination(ctx context.Context, keys []string) schemas.ActionResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(keys) == 0 {
		return schemas.Errorf("key combination requires at least one key")
	}

	resolved := make([]schemas.KeyInput, len(keys))
	for i, name := range keys {
		resolved[i] = ResolveKey(name)
	}

	held := resolved[:len(resolved)-1]
	final := resolved[len(resolved)-1]

	for i, key := range held {
		if err := s.driver.KeyDown(ctx, key); err != nil {
			s.releaseHeld(ctx, held[:i])
			return schemas.Errorf("failed to hold %s: %v", keys[i], err)
		}
	}
	if err := s.driver.KeyDown(ctx, final); err != nil {
		s.releaseHeld(ctx, held)
		return schemas.Errorf("failed to press %s: %v", keys[len(keys)-1], err)
	}
	if err := s.driver.KeyUp(ctx, final); err != nil {
		s.releaseHeld(ctx, held)
		return schemas.Errorf("failed to release %s: %v", keys[len(keys)-1], err)
	}
	s.releaseHeld(ctx, held)
	return schemas.OK("sent key combination %v", keys)
}

// KeyCombinationString accepts a "+"-joined combination like "ctrl+shift+a".
func (s *Session) KeyCombinationString(ctx context.Context, combo string) schemas.ActionResult {
	keys := ParseCombo(combo)
	if len(keys) == 0 {
		return schemas.Errorf("key combination requires at least one key")
	}
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.Key
	}
	return s.KeyCombination(ctx, names)
}

// releaseHeld releases held modifiers in reverse order, best effort. Callers
// hold mu.
func (s *Session) releaseHeld(ctx context.Context, held []schemas.KeyInput) {
	for i := len(held) - 1; i >= 0; i-- {
		if err := s.driver.KeyUp(ctx, held[i]); err != nil {
			s.logger.Warn("failed to release held key", zap.String("key", held[i].Key), zap.Error(err))
		}
	}
}

// SendText synthesizes keystrokes for a string against the focused element.
func (s *Session) SendText(ctx context.Context, text string) schemas.ActionResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if text == "" {
		return schemas.Errorf("send text requires a non-empty string")
	}
	if err := s.driver.SendText(ctx, text); err != nil {
		return schemas.Errorf("failed to send text: %v", err)
	}
	return schemas.OK("sent %d characters", len([]rune(text)))
}

// -- Scrolling --

// Scroll moves the window by amount pixels in the named direction. Unknown
// directions scroll down; a non-positive amount uses the default.
func (s *Session) Scroll(ctx context.Context, direction string, amount int) schemas.ActionResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if amount <= 0 {
		amount = defaultScrollAmount
	}
	var dx, dy int
	switch direction {
	case "up":
		dy = -amount
	case "left":
		dx = -amount
	case "right":
		dx = amount
	default:
		dy = amount
	}
	if err := s.scanner.ScrollBy(ctx, dx, dy); err != nil {
		return schemas.Errorf("failed to scroll %s: %v", direction, err)
	}
	return schemas.OK("scrolled %s by %d pixels", direction, amount)
}
