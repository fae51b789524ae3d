// File: internal/server/server.go

// Package server exposes the browser action surface over HTTP. Every action
// endpoint answers with the uniform ActionResult payload; an action failure
// is a 200 with status "error", never a 5xx.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/webpilot-cli/internal/browser"
	"github.com/xkilldash9x/webpilot-cli/internal/config"
	"github.com/xkilldash9x/webpilot-cli/internal/observability"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Server hosts the HTTP action surface in front of a session registry.
type Server struct {
	cfg     config.ServerConfig
	manager *browser.Manager
	logger  *zap.Logger

	httpServer *http.Server

	limitMu  sync.Mutex
	limiters map[string]*rate.Limiter
}

// New builds a server around an existing registry.
func New(cfg config.ServerConfig, manager *browser.Manager) *Server {
	return &Server{
		cfg:      cfg,
		manager:  manager,
		logger:   observability.GetLogger().Named("server"),
		limiters: make(map[string]*rate.Limiter),
	}
}

// Router assembles the chi router for the action surface.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/sessions", s.handleListSessions)
		r.Route("/sessions/{identity}", func(r chi.Router) {
			r.Post("/start", s.handleStart)
			r.Post("/stop", s.handleStop)
			r.Get("/state", s.handleState)

			r.Post("/navigate", s.handleNavigate)
			r.Post("/back", s.sessionAction(navBack))
			r.Post("/forward", s.sessionAction(navForward))
			r.Post("/refresh", s.sessionAction(navRefresh))
			r.Post("/scroll", s.handleScroll)
			r.Post("/press_key", s.handlePressKey)
			r.Post("/keys", s.handleKeys)
			r.Post("/text", s.handleSendText)

			r.Route("/elements", func(r chi.Router) {
				r.Post("/dragdrop", s.handleDragDrop)
				r.Route("/{id}", func(r chi.Router) {
					r.Post("/click", s.elementAction(elClick))
					r.Post("/dblclick", s.elementAction(elDoubleClick))
					r.Post("/rightclick", s.elementAction(elRightClick))
					r.Post("/hover", s.elementAction(elHover))
					r.Post("/scroll_to", s.elementAction(elScrollTo))
					r.Post("/click_switch_tab", s.elementAction(elClickSwitchTab))
					r.Post("/type", s.handleTypeText)
					r.Post("/checkbox", s.handleCheckbox)
					r.Post("/select", s.handleSelect)
					r.Get("/text", s.elementAction(elGetText))
					r.Get("/attributes/{name}", s.handleGetAttribute)
				})
			})

			r.Route("/tabs", func(r chi.Router) {
				r.Get("/", s.handleListTabs)
				r.Post("/switch", s.handleSwitchTab)
				r.Post("/newest", s.handleSwitchNewestTab)
				r.Post("/close_current", s.handleCloseCurrentTab)
			})
		})
	})

	return r
}

// Start begins serving and blocks until the listener stops. A closed-server
// error is reported as a clean exit.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("action server listening", zap.String("addr", s.cfg.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains the listener and closes every browser session.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()

	var firstErr error
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	if err := s.manager.CloseAll(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	s.logger.Info("server shut down")
	return firstErr
}

// limiter returns the per-identity rate limiter, creating it on first use.
func (s *Server) limiter(identity string) *rate.Limiter {
	s.limitMu.Lock()
	defer s.limitMu.Unlock()
	if l, ok := s.limiters[identity]; ok {
		return l
	}
	limit := rate.Limit(s.cfg.ActionsPerSecond)
	if limit <= 0 {
		limit = rate.Inf
	}
	l := rate.NewLimiter(limit, 1)
	s.limiters[identity] = l
	return l
}

// throttle blocks until the identity's limiter admits one action.
func (s *Server) throttle(ctx context.Context, identity string) error {
	return s.limiter(identity).Wait(ctx)
}
