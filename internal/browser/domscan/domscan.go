// File: internal/browser/domscan/domscan.go

// Package domscan discovers the interactive elements of the active page and
// gives each one a small integer id that holds for exactly one pass. The
// page-side half collects raw facts and later materializes the id-to-node
// handle table; the host-side half owns all filtering, classification and id
// assignment, so the numbering logic stays testable without a browser.
package domscan

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/webpilot-cli/api/schemas"
	"github.com/xkilldash9x/webpilot-cli/internal/observability"
)

// Scanner runs discovery passes against one driver handle. It carries no
// state between passes beyond what lives in the page, so a Scanner is as
// cheap to hold as the driver it wraps.
type Scanner struct {
	driver schemas.Driver
	logger *zap.Logger
}

// NewScanner binds a scanner to a driver handle.
func NewScanner(driver schemas.Driver) *Scanner {
	return &Scanner{
		driver: driver,
		logger: observability.GetLogger().Named("domscan"),
	}
}

// Scan performs one full discovery pass: collect facts from the page, build
// the pass on the host, then commit the surviving candidates back into the
// page as the handle table (and overlays, when requested). The returned pass
// supersedes any previous one; ids from older passes are dead after this
// call.
func (s *Scanner) Scan(ctx context.Context, opts schemas.ScanOptions) (Pass, error) {
	var collected collectReply
	err := s.driver.ExecuteScript(ctx, collectScript, collectArgs{Selector: StructuralSelector}, &collected)
	if err != nil {
		return Pass{}, fmt.Errorf("collecting candidates: %w", err)
	}

	pass := BuildPass(collected.Candidates, collected.Viewport, opts)

	var committed commitReply
	err = s.driver.ExecuteScript(ctx, commitScript, commitArgs{
		Keep:      pass.Keep,
		Highlight: opts.HighlightElements,
		Focus:     opts.FocusElement,
	}, &committed)
	if err != nil {
		return Pass{}, fmt.Errorf("committing pass: %w", err)
	}

	s.logger.Debug("discovery pass complete",
		zap.Int("candidates", len(collected.Candidates)),
		zap.Int("elements", len(pass.Elements)),
		zap.Int("committed", committed.Count),
		zap.Bool("highlight", opts.HighlightElements))

	return pass, nil
}

// Act runs one interaction against an element id from the current pass. A
// failed lookup or a page-side refusal comes back in the reply, not as an
// error; err is reserved for transport failures.
func (s *Scanner) Act(ctx context.Context, req ActionRequest) (ActionReply, error) {
	var reply ActionReply
	if err := s.driver.ExecuteScript(ctx, actionScript, req, &reply); err != nil {
		return ActionReply{}, fmt.Errorf("executing %s on element %d: %w", req.Op, req.ID, err)
	}
	return reply, nil
}

// ScrollBy scrolls the window by signed pixel deltas.
func (s *Scanner) ScrollBy(ctx context.Context, dx, dy int) error {
	return s.scroll(ctx, map[string]any{"x": dx, "y": dy})
}

// ScrollToEdge scrolls to the top or bottom of the document.
func (s *Scanner) ScrollToEdge(ctx context.Context, edge string) error {
	return s.scroll(ctx, map[string]any{"edge": edge})
}

func (s *Scanner) scroll(ctx context.Context, req map[string]any) error {
	var reply ActionReply
	if err := s.driver.ExecuteScript(ctx, scrollScript, req, &reply); err != nil {
		return fmt.Errorf("scrolling: %w", err)
	}
	if !reply.OK {
		return fmt.Errorf("scrolling: %s", reply.Message)
	}
	return nil
}

// Reset clears the page-side handle table and overlay container. Called when
// navigation invalidates the current pass.
func (s *Scanner) Reset(ctx context.Context) error {
	var reply ActionReply
	if err := s.driver.ExecuteScript(ctx, resetScript, nil, &reply); err != nil {
		return fmt.Errorf("resetting pass state: %w", err)
	}
	return nil
}
