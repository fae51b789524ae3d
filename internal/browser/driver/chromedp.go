// File: internal/browser/driver/chromedp.go

// Package driver holds the chromedp-backed implementation of the
// schemas.Driver capability. One Chrome instance, launched and owned by a
// Chrome value, with the active tab tracked as a chromedp target context.
package driver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/input"
	cdpruntime "github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webpilot-cli/api/schemas"
	"github.com/xkilldash9x/webpilot-cli/internal/config"
	"github.com/xkilldash9x/webpilot-cli/internal/observability"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Chrome drives one locally launched Chrome process over CDP. The active tab
// is a chromedp context attached to one target; ActivateTarget swaps it.
// Chrome is not safe for concurrent use, callers serialize per handle.
type Chrome struct {
	cfg    config.BrowserConfig
	logger *zap.Logger

	allocCtx    context.Context
	allocCancel context.CancelFunc
	browserCtx  context.Context
	tabCtx      context.Context

	quitOnce sync.Once
	quitErr  error
}

// compile-time interface check
var _ schemas.Driver = (*Chrome)(nil)

// New launches a Chrome process per cfg and attaches to its initial tab. The
// ctx bounds the lifetime of the whole browser; cancelling it is equivalent
// to Quit.
func New(ctx context.Context, cfg config.BrowserConfig) (*Chrome, error) {
	logger := observability.GetLogger().Named("driver")

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, execAllocatorOptions(cfg)...)
	browserCtx, _ := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, args ...any) {
		logger.Debug(fmt.Sprintf(format, args...))
	}))

	// Starting the first Run launches the process and opens the initial tab.
	if err := chromedp.Run(browserCtx); err != nil {
		allocCancel()
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	logger.Info("browser launched",
		zap.Bool("headless", cfg.Headless),
		zap.Int("width", cfg.WindowWidth),
		zap.Int("height", cfg.WindowHeight))

	return &Chrome{
		cfg:         cfg,
		logger:      logger,
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		browserCtx:  browserCtx,
		tabCtx:      browserCtx,
	}, nil
}

// run executes actions against the active tab, bounded by both the caller's
// ctx and the handle's lifetime.
func (c *Chrome) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := c.tabCtx.Err(); err != nil {
		return fmt.Errorf("browser handle closed: %w", err)
	}
	done := make(chan error, 1)
	go func() {
		done <- chromedp.Run(c.tabCtx, actions...)
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Chrome) Open(ctx context.Context, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, c.cfg.NavigationTimeout)
	defer cancel()

	err := c.run(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}

	// Give late-loading scripts a moment to settle before callers scan.
	if c.cfg.PostLoadWait > 0 {
		select {
		case <-time.After(c.cfg.PostLoadWait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (c *Chrome) Back(ctx context.Context) error {
	return c.run(ctx, chromedp.NavigateBack())
}

func (c *Chrome) Forward(ctx context.Context) error {
	return c.run(ctx, chromedp.NavigateForward())
}

func (c *Chrome) Refresh(ctx context.Context) error {
	return c.run(ctx, chromedp.Reload())
}

// ExecuteScript applies fn to arg in the active tab: the expression evaluated
// is `(fn)(arg)` where arg crosses as JSON data. Scripts return a
// JSON.stringify'd payload, which is decoded into res when res is non-nil.
func (c *Chrome) ExecuteScript(ctx context.Context, fn string, arg, res any) error {
	encoded := "null"
	if arg != nil {
		raw, err := json.Marshal(arg)
		if err != nil {
			return fmt.Errorf("encoding script argument: %w", err)
		}
		encoded = string(raw)
	}
	expr := fn + "(" + encoded + ")"

	var payload string
	err := c.run(ctx, chromedp.Evaluate(expr, &payload, func(p *cdpruntime.EvaluateParams) *cdpruntime.EvaluateParams {
		return p.WithReturnByValue(true).WithAwaitPromise(true)
	}))
	if err != nil {
		return fmt.Errorf("evaluating script: %w", err)
	}
	if res == nil {
		return nil
	}
	if err := json.Unmarshal([]byte(payload), res); err != nil {
		return fmt.Errorf("decoding script result: %w", err)
	}
	return nil
}

func (c *Chrome) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := c.run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("capturing screenshot: %w", err)
	}
	return buf, nil
}

func (c *Chrome) CurrentURL(ctx context.Context) (string, error) {
	var url string
	if err := c.run(ctx, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("reading location: %w", err)
	}
	return url, nil
}

func (c *Chrome) Title(ctx context.Context) (string, error) {
	var title string
	if err := c.run(ctx, chromedp.Title(&title)); err != nil {
		return "", fmt.Errorf("reading title: %w", err)
	}
	return title, nil
}

// keyEventType picks the down-event type: keys that produce text use keyDown
// so the page sees input events, bare modifiers and navigation keys use
// rawKeyDown.
func keyEventType(key schemas.KeyInput) input.KeyType {
	if key.Text != "" {
		return input.KeyDown
	}
	return input.KeyRawDown
}

func (c *Chrome) KeyDown(ctx context.Context, key schemas.KeyInput) error {
	return c.run(ctx, chromedp.ActionFunc(func(cdp context.Context) error {
		return input.DispatchKeyEvent(keyEventType(key)).
			WithKey(key.Key).
			WithCode(key.Code).
			WithText(key.Text).
			WithWindowsVirtualKeyCode(int64(key.WindowsVirtualKeyCode)).
			WithNativeVirtualKeyCode(int64(key.WindowsVirtualKeyCode)).
			Do(cdp)
	}))
}

func (c *Chrome) KeyUp(ctx context.Context, key schemas.KeyInput) error {
	return c.run(ctx, chromedp.ActionFunc(func(cdp context.Context) error {
		return input.DispatchKeyEvent(input.KeyUp).
			WithKey(key.Key).
			WithCode(key.Code).
			WithWindowsVirtualKeyCode(int64(key.WindowsVirtualKeyCode)).
			WithNativeVirtualKeyCode(int64(key.WindowsVirtualKeyCode)).
			Do(cdp)
	}))
}

func (c *Chrome) SendText(ctx context.Context, text string) error {
	return c.run(ctx, chromedp.KeyEvent(text))
}

func (c *Chrome) Targets(ctx context.Context) ([]schemas.TabInfo, error) {
	if err := c.tabCtx.Err(); err != nil {
		return nil, fmt.Errorf("browser handle closed: %w", err)
	}
	targets, err := chromedp.Targets(c.tabCtx)
	if err != nil {
		return nil, fmt.Errorf("listing targets: %w", err)
	}

	active := c.activeTargetID()
	tabs := make([]schemas.TabInfo, 0, len(targets))
	for _, t := range targets {
		if t.Type != "page" {
			continue
		}
		tabs = append(tabs, schemas.TabInfo{
			TargetID: string(t.TargetID),
			URL:      t.URL,
			Title:    t.Title,
			Active:   string(t.TargetID) == active,
		})
	}
	return tabs, nil
}

func (c *Chrome) activeTargetID() string {
	if cc := chromedp.FromContext(c.tabCtx); cc != nil && cc.Target != nil {
		return string(cc.Target.TargetID)
	}
	return ""
}

// ActivateTarget brings the target to the foreground and rebinds the active
// tab context to it. The previous tab context is abandoned rather than
// cancelled: cancelling a target context closes its tab.
func (c *Chrome) ActivateTarget(ctx context.Context, targetID string) error {
	tabCtx, _ := chromedp.NewContext(c.browserCtx, chromedp.WithTargetID(target.ID(targetID)))

	done := make(chan error, 1)
	go func() {
		done <- chromedp.Run(tabCtx, chromedp.ActionFunc(func(cdp context.Context) error {
			return target.ActivateTarget(target.ID(targetID)).Do(cdp)
		}))
	}()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("activating target %s: %w", targetID, err)
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	c.tabCtx = tabCtx
	c.logger.Debug("switched active tab", zap.String("target_id", targetID))
	return nil
}

func (c *Chrome) CloseTarget(ctx context.Context, targetID string) error {
	done := make(chan error, 1)
	go func() {
		done <- chromedp.Run(c.browserCtx, chromedp.ActionFunc(func(cdp context.Context) error {
			return target.CloseTarget(target.ID(targetID)).Do(cdp)
		}))
	}()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("closing target %s: %w", targetID, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Quit tears the browser process down. Safe to call more than once; the
// first call's outcome is returned thereafter.
func (c *Chrome) Quit() error {
	c.quitOnce.Do(func() {
		// chromedp.Cancel waits for the browser to exit gracefully before
		// the allocator cleanup removes its temp profile.
		c.quitErr = chromedp.Cancel(c.browserCtx)
		c.allocCancel()
		c.logger.Info("browser terminated")
	})
	return c.quitErr
}
