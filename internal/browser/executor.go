package browser

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

var playwrightButtons = map[string]*playwright.MouseButton{
	"left":   playwright.MouseButtonLeft,
	"right":  playwright.MouseButtonRight,
	"middle": playwright.MouseButtonMiddle,
}

// PlaywrightExecutor maps the primitive action vocabulary onto a playwright
// page. It owns the turn counter and the diagnostic action log; it holds no
// business logic.
type PlaywrightExecutor struct {
	session *Session
	width   int
	height  int
	log     *zap.Logger

	// One cooperative control flow drives the session, so plain fields
	// suffice; no locking.
	turns   int
	actions []ActionLogEntry
}

// NewPlaywrightExecutor wraps an acquired session. The executor does not own
// the session's lifetime; the caller releases it.
func NewPlaywrightExecutor(s *Session, width, height int, log *zap.Logger) *PlaywrightExecutor {
	return &PlaywrightExecutor{session: s, width: width, height: height, log: log}
}

func (e *PlaywrightExecutor) page() (playwright.Page, error) {
	if e.session == nil || e.session.Page() == nil {
		return nil, ErrSessionNotReady
	}
	return e.session.Page(), nil
}

func (e *PlaywrightExecutor) record(action string) {
	e.actions = append(e.actions, ActionLogEntry{Turn: e.turns, Action: action})
}

// Screenshot captures the page as base64 JPEG (quality 70 — fast and small
// enough for a vision model). It ticks the turn counter as its first effect.
// One fallback to the driver's default encoding before giving up.
func (e *PlaywrightExecutor) Screenshot(ctx context.Context) (string, error) {
	page, err := e.page()
	if err != nil {
		return "", err
	}
	e.turns++
	e.log.Debug("taking screenshot", zap.Int("turn", e.turns))

	buf, err := page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(false),
		Type:     playwright.ScreenshotTypeJpeg,
		Quality:  playwright.Int(70),
	})
	if err != nil {
		e.log.Warn("primary screenshot failed, retrying with defaults", zap.Error(err))
		buf, err = page.Screenshot()
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrScreenshotFailed, err)
		}
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

func (e *PlaywrightExecutor) Click(ctx context.Context, x, y int, button string) error {
	page, err := e.page()
	if err != nil {
		return err
	}
	btn, coerced := normalizeButton(button)
	if coerced {
		e.log.Warn("invalid mouse button, defaulting to left", zap.String("button", button))
	}
	if err := page.Mouse().Click(float64(x), float64(y), playwright.MouseClickOptions{
		Button: playwrightButtons[btn],
	}); err != nil {
		e.log.Error("click failed", zap.Int("x", x), zap.Int("y", y), zap.Error(err))
		return fmt.Errorf("click at (%d, %d): %w", x, y, err)
	}
	e.record(fmt.Sprintf("Clicked at (%d, %d) with %s button", x, y, btn))
	return settle(ctx, inputSettle)
}

func (e *PlaywrightExecutor) DoubleClick(ctx context.Context, x, y int, button string) error {
	page, err := e.page()
	if err != nil {
		return err
	}
	btn, coerced := normalizeButton(button)
	if coerced {
		e.log.Warn("invalid mouse button, defaulting to left", zap.String("button", button))
	}
	if err := page.Mouse().Dblclick(float64(x), float64(y), playwright.MouseDblclickOptions{
		Button: playwrightButtons[btn],
	}); err != nil {
		e.log.Error("double click failed", zap.Int("x", x), zap.Int("y", y), zap.Error(err))
		return fmt.Errorf("double click at (%d, %d): %w", x, y, err)
	}
	return settle(ctx, inputSettle)
}

func (e *PlaywrightExecutor) Type(ctx context.Context, text string, delayMs int) error {
	page, err := e.page()
	if err != nil {
		return err
	}
	var opts playwright.KeyboardTypeOptions
	if delayMs > 0 {
		opts.Delay = playwright.Float(float64(delayMs))
	}
	if err := page.Keyboard().Type(text, opts); err != nil {
		e.log.Error("type failed", zap.Error(err))
		return fmt.Errorf("type text: %w", err)
	}
	e.record(fmt.Sprintf("Typed: %s", text))
	return nil
}

func (e *PlaywrightExecutor) Press(ctx context.Context, key string) error {
	page, err := e.page()
	if err != nil {
		return err
	}
	if err := page.Keyboard().Press(normalizeKey(key)); err != nil {
		e.log.Error("key press failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("press %q: %w", key, err)
	}
	return nil
}

// Keypress presses a single key or a simultaneous chord — "CTRL"+"a" becomes
// one Control+a press, not two sequential ones.
func (e *PlaywrightExecutor) Keypress(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	page, err := e.page()
	if err != nil {
		return err
	}
	combo := chord(keys)
	if err := page.Keyboard().Press(combo); err != nil {
		e.log.Error("keypress failed", zap.String("chord", combo), zap.Error(err))
		return fmt.Errorf("keypress %q: %w", combo, err)
	}
	return nil
}

func (e *PlaywrightExecutor) Drag(ctx context.Context, fromX, fromY, toX, toY int) error {
	page, err := e.page()
	if err != nil {
		return err
	}
	mouse := page.Mouse()
	if err := mouse.Move(float64(fromX), float64(fromY)); err != nil {
		return fmt.Errorf("drag: move to origin: %w", err)
	}
	if err := mouse.Down(); err != nil {
		return fmt.Errorf("drag: button down: %w", err)
	}
	if err := mouse.Move(float64(toX), float64(toY)); err != nil {
		return fmt.Errorf("drag: move to target: %w", err)
	}
	if err := mouse.Up(); err != nil {
		return fmt.Errorf("drag: button up: %w", err)
	}
	return settle(ctx, inputSettle)
}

func (e *PlaywrightExecutor) Scroll(ctx context.Context, x, y, dx, dy int) error {
	page, err := e.page()
	if err != nil {
		return err
	}
	if x > 0 && y > 0 {
		if err := page.Mouse().Move(float64(x), float64(y)); err != nil {
			return fmt.Errorf("scroll: position mouse: %w", err)
		}
	}
	if err := page.Mouse().Wheel(float64(dx), float64(dy)); err != nil {
		e.log.Error("scroll failed", zap.Error(err))
		return fmt.Errorf("scroll by (%d, %d): %w", dx, dy, err)
	}
	return settle(ctx, inputSettle)
}

func (e *PlaywrightExecutor) Navigate(ctx context.Context, url string) error {
	page, err := e.page()
	if err != nil {
		return err
	}
	if _, err := page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		e.log.Error("navigation failed", zap.String("url", url), zap.Error(err))
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	e.log.Info("navigated", zap.String("url", url))
	return settle(ctx, navigateSettle)
}

func (e *PlaywrightExecutor) Move(ctx context.Context, x, y int) error {
	page, err := e.page()
	if err != nil {
		return err
	}
	if err := page.Mouse().Move(float64(x), float64(y)); err != nil {
		return fmt.Errorf("move mouse to (%d, %d): %w", x, y, err)
	}
	return nil
}

func (e *PlaywrightExecutor) Wait(ctx context.Context, ms int) error {
	if _, err := e.page(); err != nil {
		return err
	}
	return settle(ctx, time.Duration(ms)*time.Millisecond)
}

func (e *PlaywrightExecutor) Dimensions() (int, int) { return e.width, e.height }

func (e *PlaywrightExecutor) Environment() string { return platformTag() }

func (e *PlaywrightExecutor) TurnCount() int { return e.turns }

func (e *PlaywrightExecutor) ActionLog() []ActionLogEntry {
	out := make([]ActionLogEntry, len(e.actions))
	copy(out, e.actions)
	return out
}
