package browser

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"go.uber.org/zap"

	"github.com/nbenliogludev/go-research-agent/internal/config"
)

// cdpControlKeys translates normalized key names to the raw characters the
// kb package encodes into proper CDP key events.
var cdpControlKeys = map[string]string{
	"Enter":  kb.Enter,
	"Tab":    kb.Tab,
	"Escape": kb.Escape,
}

var cdpModifiers = map[string]input.Modifier{
	"Control": input.ModifierCtrl,
	"Meta":    input.ModifierMeta,
	"Alt":     input.ModifierAlt,
	"Shift":   input.ModifierShift,
}

// CDPExecutor drives a Chrome tab over the DevTools protocol. Same primitive
// contract as the playwright executor; the session here is the chromedp
// context pair (tab context on top of an exec allocator).
type CDPExecutor struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	width       int
	height      int
	log         *zap.Logger

	turns   int
	actions []ActionLogEntry
}

// NewCDPExecutor launches Chrome through an exec allocator and opens one tab.
func NewCDPExecutor(parent context.Context, cfg config.BrowserConfig, log *zap.Logger) (*CDPExecutor, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(cfg.Width, cfg.Height),
		chromedp.UserAgent(cfg.UserAgent),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	// Spawns the browser process; without this the first primitive would
	// pay the startup cost.
	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("start chrome: %w", err)
	}

	return &CDPExecutor{
		ctx:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
		width:       cfg.Width,
		height:      cfg.Height,
		log:         log,
	}, nil
}

// Close tears down the tab and the allocator. chromedp.Cancel waits for a
// graceful browser shutdown; the plain cancels still run if it fails.
func (e *CDPExecutor) Close() error {
	if e.ctx == nil {
		return nil
	}
	ctx := e.ctx
	e.ctx = nil
	return releaseAll(e.log, []releaseStep{
		{"tab", func() error { return chromedp.Cancel(ctx) }},
		{"tab context", func() error { e.cancelTab(); return nil }},
		{"allocator", func() error { e.cancelAlloc(); return nil }},
	})
}

func (e *CDPExecutor) run(actions ...chromedp.Action) error {
	if e.ctx == nil {
		return ErrSessionNotReady
	}
	return chromedp.Run(e.ctx, actions...)
}

func (e *CDPExecutor) record(action string) {
	e.actions = append(e.actions, ActionLogEntry{Turn: e.turns, Action: action})
}

func (e *CDPExecutor) Screenshot(ctx context.Context) (string, error) {
	if e.ctx == nil {
		return "", ErrSessionNotReady
	}
	e.turns++
	e.log.Debug("taking screenshot", zap.Int("turn", e.turns))

	var buf []byte
	err := e.run(chromedp.ActionFunc(func(ctx context.Context) error {
		b, err := page.CaptureScreenshot().
			WithFormat(page.CaptureScreenshotFormatJpeg).
			WithQuality(70).
			Do(ctx)
		buf = b
		return err
	}))
	if err != nil {
		e.log.Warn("primary screenshot failed, retrying with defaults", zap.Error(err))
		if err = e.run(chromedp.CaptureScreenshot(&buf)); err != nil {
			return "", fmt.Errorf("%w: %w", ErrScreenshotFailed, err)
		}
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

func (e *CDPExecutor) Click(ctx context.Context, x, y int, button string) error {
	btn, coerced := normalizeButton(button)
	if coerced {
		e.log.Warn("invalid mouse button, defaulting to left", zap.String("button", button))
	}
	if err := e.run(chromedp.MouseClickXY(float64(x), float64(y), chromedp.Button(btn))); err != nil {
		e.log.Error("click failed", zap.Int("x", x), zap.Int("y", y), zap.Error(err))
		return fmt.Errorf("click at (%d, %d): %w", x, y, err)
	}
	e.record(fmt.Sprintf("Clicked at (%d, %d) with %s button", x, y, btn))
	return settle(ctx, inputSettle)
}

func (e *CDPExecutor) DoubleClick(ctx context.Context, x, y int, button string) error {
	btn, coerced := normalizeButton(button)
	if coerced {
		e.log.Warn("invalid mouse button, defaulting to left", zap.String("button", button))
	}
	if err := e.run(chromedp.MouseClickXY(float64(x), float64(y),
		chromedp.Button(btn), chromedp.ClickCount(2))); err != nil {
		e.log.Error("double click failed", zap.Int("x", x), zap.Int("y", y), zap.Error(err))
		return fmt.Errorf("double click at (%d, %d): %w", x, y, err)
	}
	return settle(ctx, inputSettle)
}

func (e *CDPExecutor) Type(ctx context.Context, text string, delayMs int) error {
	if e.ctx == nil {
		return ErrSessionNotReady
	}
	if delayMs <= 0 {
		if err := e.run(chromedp.KeyEvent(text)); err != nil {
			e.log.Error("type failed", zap.Error(err))
			return fmt.Errorf("type text: %w", err)
		}
	} else {
		delay := time.Duration(delayMs) * time.Millisecond
		for _, r := range text {
			if err := e.run(chromedp.KeyEvent(string(r))); err != nil {
				e.log.Error("type failed", zap.Error(err))
				return fmt.Errorf("type text: %w", err)
			}
			if err := settle(ctx, delay); err != nil {
				return err
			}
		}
	}
	e.record(fmt.Sprintf("Typed: %s", text))
	return nil
}

func (e *CDPExecutor) Press(ctx context.Context, key string) error {
	if err := e.run(chromedp.KeyEvent(cdpKey(normalizeKey(key)))); err != nil {
		e.log.Error("key press failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("press %q: %w", key, err)
	}
	return nil
}

// Keypress dispatches the final key with all preceding modifier names folded
// into one modifier mask — a simultaneous chord, not sequential presses.
func (e *CDPExecutor) Keypress(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	var mods input.Modifier
	final := ""
	for _, k := range keys {
		name := normalizeKey(k)
		if m, ok := cdpModifiers[name]; ok {
			mods |= m
			continue
		}
		final = name
	}
	if final == "" {
		// Chord of bare modifiers; nothing meaningful to dispatch.
		return nil
	}
	if err := e.run(chromedp.KeyEvent(cdpKey(final), chromedp.KeyModifiers(mods))); err != nil {
		e.log.Error("keypress failed", zap.Strings("keys", keys), zap.Error(err))
		return fmt.Errorf("keypress %v: %w", keys, err)
	}
	return nil
}

func (e *CDPExecutor) Drag(ctx context.Context, fromX, fromY, toX, toY int) error {
	err := e.run(chromedp.ActionFunc(func(ctx context.Context) error {
		if err := input.DispatchMouseEvent(input.MousePressed, float64(fromX), float64(fromY)).
			WithButton(input.Left).WithClickCount(1).Do(ctx); err != nil {
			return err
		}
		if err := input.DispatchMouseEvent(input.MouseMoved, float64(toX), float64(toY)).
			WithButton(input.Left).Do(ctx); err != nil {
			return err
		}
		return input.DispatchMouseEvent(input.MouseReleased, float64(toX), float64(toY)).
			WithButton(input.Left).WithClickCount(1).Do(ctx)
	}))
	if err != nil {
		e.log.Error("drag failed", zap.Error(err))
		return fmt.Errorf("drag from (%d, %d) to (%d, %d): %w", fromX, fromY, toX, toY, err)
	}
	return settle(ctx, inputSettle)
}

func (e *CDPExecutor) Scroll(ctx context.Context, x, y, dx, dy int) error {
	err := e.run(chromedp.ActionFunc(func(ctx context.Context) error {
		return input.DispatchMouseEvent(input.MouseWheel, float64(x), float64(y)).
			WithDeltaX(float64(dx)).
			WithDeltaY(float64(dy)).
			Do(ctx)
	}))
	if err != nil {
		e.log.Error("scroll failed", zap.Error(err))
		return fmt.Errorf("scroll by (%d, %d): %w", dx, dy, err)
	}
	return settle(ctx, inputSettle)
}

func (e *CDPExecutor) Navigate(ctx context.Context, url string) error {
	if err := e.run(chromedp.Navigate(url)); err != nil {
		e.log.Error("navigation failed", zap.String("url", url), zap.Error(err))
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	e.log.Info("navigated", zap.String("url", url))
	return settle(ctx, navigateSettle)
}

func (e *CDPExecutor) Move(ctx context.Context, x, y int) error {
	err := e.run(chromedp.ActionFunc(func(ctx context.Context) error {
		return input.DispatchMouseEvent(input.MouseMoved, float64(x), float64(y)).Do(ctx)
	}))
	if err != nil {
		return fmt.Errorf("move mouse to (%d, %d): %w", x, y, err)
	}
	return nil
}

func (e *CDPExecutor) Wait(ctx context.Context, ms int) error {
	if e.ctx == nil {
		return ErrSessionNotReady
	}
	return settle(ctx, time.Duration(ms)*time.Millisecond)
}

func (e *CDPExecutor) Dimensions() (int, int) { return e.width, e.height }

func (e *CDPExecutor) Environment() string { return platformTag() }

func (e *CDPExecutor) TurnCount() int { return e.turns }

func (e *CDPExecutor) ActionLog() []ActionLogEntry {
	out := make([]ActionLogEntry, len(e.actions))
	copy(out, e.actions)
	return out
}

// cdpKey maps normalized control-key names to their raw characters; plain
// characters pass through to KeyEvent untouched.
func cdpKey(name string) string {
	if raw, ok := cdpControlKeys[name]; ok {
		return raw
	}
	return name
}
