// File: internal/server/handlers.go
package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webpilot-cli/api/schemas"
	"github.com/xkilldash9x/webpilot-cli/internal/browser/session"
)

// Named session and element operations dispatched by the generic handlers.
type sessionOp func(ctx context.Context, s *session.Session) schemas.ActionResult

type elementOp func(ctx context.Context, s *session.Session, id int) schemas.ActionResult

func navBack(ctx context.Context, s *session.Session) schemas.ActionResult    { return s.GoBack(ctx) }
func navForward(ctx context.Context, s *session.Session) schemas.ActionResult { return s.GoForward(ctx) }
func navRefresh(ctx context.Context, s *session.Session) schemas.ActionResult { return s.Refresh(ctx) }

func elClick(ctx context.Context, s *session.Session, id int) schemas.ActionResult {
	return s.Click(ctx, id)
}
func elDoubleClick(ctx context.Context, s *session.Session, id int) schemas.ActionResult {
	return s.DoubleClick(ctx, id)
}
func elRightClick(ctx context.Context, s *session.Session, id int) schemas.ActionResult {
	return s.RightClick(ctx, id)
}
func elHover(ctx context.Context, s *session.Session, id int) schemas.ActionResult {
	return s.Hover(ctx, id)
}
func elScrollTo(ctx context.Context, s *session.Session, id int) schemas.ActionResult {
	return s.ScrollToElement(ctx, id)
}
func elClickSwitchTab(ctx context.Context, s *session.Session, id int) schemas.ActionResult {
	return s.ClickAndSwitchTab(ctx, id)
}
func elGetText(ctx context.Context, s *session.Session, id int) schemas.ActionResult {
	return s.GetText(ctx, id)
}

// -- Request bodies --

type navigateRequest struct {
	URL string `json:"url"`
}

type scrollRequest struct {
	Direction string `json:"direction"`
	Amount    int    `json:"amount"`
}

type pressKeyRequest struct {
	Key string `json:"key"`
}

type keysRequest struct {
	// Keys as a list, or Combo as a "+"-joined string. Keys wins when both
	// are set.
	Keys  []string `json:"keys,omitempty"`
	Combo string   `json:"combo,omitempty"`
}

type textRequest struct {
	Text string `json:"text"`
}

type checkboxRequest struct {
	Checked bool `json:"checked"`
}

type selectRequest struct {
	// Value selects by the option's value attribute, Text by its visible
	// text. Value wins when both are set.
	Value string `json:"value,omitempty"`
	Text  string `json:"text,omitempty"`
}

type dragDropRequest struct {
	SourceID int `json:"sourceId"`
	TargetID int `json:"targetId"`
}

type switchTabRequest struct {
	TargetID string `json:"targetId"`
}

// -- Plumbing --

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to encode response", zap.Error(err))
	}
}

// writeResult always answers 200: the payload's status field carries the
// outcome.
func (s *Server) writeResult(w http.ResponseWriter, res schemas.ActionResult) {
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeJSON(w, http.StatusBadRequest, schemas.Errorf("invalid request body: %v", err))
		return false
	}
	return true
}

// resolveSession throttles the identity and returns its session, creating one
// on demand. A nil session means the response has been written.
func (s *Server) resolveSession(w http.ResponseWriter, r *http.Request) (*session.Session, string) {
	identity := chi.URLParam(r, "identity")
	if err := s.throttle(r.Context(), identity); err != nil {
		s.writeResult(w, schemas.Errorf("request cancelled while throttled: %v", err))
		return nil, identity
	}
	sess, err := s.manager.GetOrCreate(r.Context(), identity)
	if err != nil {
		s.writeResult(w, schemas.Errorf("failed to obtain browser session: %v", err))
		return nil, identity
	}
	return sess, identity
}

func (s *Server) elementID(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, schemas.Errorf("invalid element id %q", raw))
		return 0, false
	}
	return id, true
}

// -- Session lifecycle --

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.manager.List(r.Context()))
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	identity := chi.URLParam(r, "identity")
	s.writeResult(w, s.manager.Start(r.Context(), identity))
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	identity := chi.URLParam(r, "identity")
	s.writeResult(w, s.manager.Stop(r.Context(), identity))
}

// -- State --

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	sess, _ := s.resolveSession(w, r)
	if sess == nil {
		return
	}
	// PageState carries its own status field; the screenshot bytes become
	// base64 in the JSON encoding.
	s.writeJSON(w, http.StatusOK, sess.UpdateState(r.Context()))
}

// -- Navigation and input --

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var req navigateRequest
	if !s.decode(w, r, &req) {
		return
	}
	sess, _ := s.resolveSession(w, r)
	if sess == nil {
		return
	}
	s.writeResult(w, sess.Navigate(r.Context(), req.URL))
}

func (s *Server) sessionAction(op sessionOp) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := s.resolveSession(w, r)
		if sess == nil {
			return
		}
		s.writeResult(w, op(r.Context(), sess))
	}
}

func (s *Server) handleScroll(w http.ResponseWriter, r *http.Request) {
	var req scrollRequest
	if !s.decode(w, r, &req) {
		return
	}
	sess, _ := s.resolveSession(w, r)
	if sess == nil {
		return
	}
	s.writeResult(w, sess.Scroll(r.Context(), req.Direction, req.Amount))
}

func (s *Server) handlePressKey(w http.ResponseWriter, r *http.Request) {
	var req pressKeyRequest
	if !s.decode(w, r, &req) {
		return
	}
	sess, _ := s.resolveSession(w, r)
	if sess == nil {
		return
	}
	s.writeResult(w, sess.PressKey(r.Context(), req.Key))
}

func (s *Server) handleKeys(w http.ResponseWriter, r *http.Request) {
	var req keysRequest
	if !s.decode(w, r, &req) {
		return
	}
	sess, _ := s.resolveSession(w, r)
	if sess == nil {
		return
	}
	if len(req.Keys) > 0 {
		s.writeResult(w, sess.KeyCombination(r.Context(), req.Keys))
		return
	}
	s.writeResult(w, sess.KeyCombinationString(r.Context(), req.Combo))
}

func (s *Server) handleSendText(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !s.decode(w, r, &req) {
		return
	}
	sess, _ := s.resolveSession(w, r)
	if sess == nil {
		return
	}
	s.writeResult(w, sess.SendText(r.Context(), req.Text))
}

// -- Element actions --

func (s *Server) elementAction(op elementOp) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.elementID(w, r)
		if !ok {
			return
		}
		sess, _ := s.resolveSession(w, r)
		if sess == nil {
			return
		}
		s.writeResult(w, op(r.Context(), sess, id))
	}
}

func (s *Server) handleTypeText(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !s.decode(w, r, &req) {
		return
	}
	id, ok := s.elementID(w, r)
	if !ok {
		return
	}
	sess, _ := s.resolveSession(w, r)
	if sess == nil {
		return
	}
	s.writeResult(w, sess.TypeText(r.Context(), id, req.Text))
}

func (s *Server) handleCheckbox(w http.ResponseWriter, r *http.Request) {
	var req checkboxRequest
	if !s.decode(w, r, &req) {
		return
	}
	id, ok := s.elementID(w, r)
	if !ok {
		return
	}
	sess, _ := s.resolveSession(w, r)
	if sess == nil {
		return
	}
	s.writeResult(w, sess.SetCheckbox(r.Context(), id, req.Checked))
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if !s.decode(w, r, &req) {
		return
	}
	id, ok := s.elementID(w, r)
	if !ok {
		return
	}
	sess, _ := s.resolveSession(w, r)
	if sess == nil {
		return
	}
	s.writeResult(w, sess.SelectOption(r.Context(), id, req.Value, req.Text))
}

func (s *Server) handleGetAttribute(w http.ResponseWriter, r *http.Request) {
	id, ok := s.elementID(w, r)
	if !ok {
		return
	}
	name := chi.URLParam(r, "name")
	sess, _ := s.resolveSession(w, r)
	if sess == nil {
		return
	}
	s.writeResult(w, sess.GetAttribute(r.Context(), id, name))
}

func (s *Server) handleDragDrop(w http.ResponseWriter, r *http.Request) {
	var req dragDropRequest
	if !s.decode(w, r, &req) {
		return
	}
	sess, _ := s.resolveSession(w, r)
	if sess == nil {
		return
	}
	s.writeResult(w, sess.DragAndDrop(r.Context(), req.SourceID, req.TargetID))
}

// -- Tabs --

func (s *Server) handleListTabs(w http.ResponseWriter, r *http.Request) {
	sess, _ := s.resolveSession(w, r)
	if sess == nil {
		return
	}
	s.writeResult(w, sess.ListTabs(r.Context()))
}

func (s *Server) handleSwitchTab(w http.ResponseWriter, r *http.Request) {
	var req switchTabRequest
	if !s.decode(w, r, &req) {
		return
	}
	sess, _ := s.resolveSession(w, r)
	if sess == nil {
		return
	}
	s.writeResult(w, sess.SwitchToTab(r.Context(), req.TargetID))
}

func (s *Server) handleSwitchNewestTab(w http.ResponseWriter, r *http.Request) {
	sess, _ := s.resolveSession(w, r)
	if sess == nil {
		return
	}
	s.writeResult(w, sess.SwitchToNewestTab(r.Context()))
}

func (s *Server) handleCloseCurrentTab(w http.ResponseWriter, r *http.Request) {
	sess, _ := s.resolveSession(w, r)
	if sess == nil {
		return
	}
	s.writeResult(w, sess.CloseCurrentTab(r.Context()))
}
