package browser

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// SimExecutor satisfies the primitive contract without any browser: actions
// are logged, screenshots are a canned placeholder. Used for dry runs and as
// the test double for turn-counting and coercion behavior.
type SimExecutor struct {
	width    int
	height   int
	log      *zap.Logger
	released bool

	turns    int
	actions  []ActionLogEntry
	warnings []string
}

func NewSimExecutor(width, height int, log *zap.Logger) *SimExecutor {
	return &SimExecutor{width: width, height: height, log: log}
}

// Close releases the simulated session; primitives fail afterwards, matching
// the real executors' contract.
func (e *SimExecutor) Close() error {
	e.released = true
	return nil
}

func (e *SimExecutor) ready() error {
	if e.released {
		return ErrSessionNotReady
	}
	return nil
}

func (e *SimExecutor) record(action string) {
	e.actions = append(e.actions, ActionLogEntry{Turn: e.turns, Action: action})
}

func (e *SimExecutor) Screenshot(ctx context.Context) (string, error) {
	if err := e.ready(); err != nil {
		return "", err
	}
	e.turns++
	e.log.Debug("taking screenshot (simulated)", zap.Int("turn", e.turns))
	return base64.StdEncoding.EncodeToString([]byte("simulated screenshot")), nil
}

func (e *SimExecutor) Click(ctx context.Context, x, y int, button string) error {
	if err := e.ready(); err != nil {
		return err
	}
	btn, coerced := normalizeButton(button)
	if coerced {
		warning := fmt.Sprintf("invalid mouse button %q, defaulting to left", button)
		e.warnings = append(e.warnings, warning)
		e.log.Warn("invalid mouse button, defaulting to left", zap.String("button", button))
	}
	e.record(fmt.Sprintf("Clicked at (%d, %d) with %s button", x, y, btn))
	return nil
}

func (e *SimExecutor) DoubleClick(ctx context.Context, x, y int, button string) error {
	if err := e.ready(); err != nil {
		return err
	}
	btn, coerced := normalizeButton(button)
	if coerced {
		e.warnings = append(e.warnings, fmt.Sprintf("invalid mouse button %q, defaulting to left", button))
	}
	e.log.Debug("double click (simulated)", zap.Int("x", x), zap.Int("y", y), zap.String("button", btn))
	return nil
}

func (e *SimExecutor) Type(ctx context.Context, text string, delayMs int) error {
	if err := e.ready(); err != nil {
		return err
	}
	e.record(fmt.Sprintf("Typed: %s", text))
	return nil
}

func (e *SimExecutor) Press(ctx context.Context, key string) error {
	if err := e.ready(); err != nil {
		return err
	}
	e.log.Debug("press (simulated)", zap.String("key", normalizeKey(key)))
	return nil
}

func (e *SimExecutor) Keypress(ctx context.Context, keys []string) error {
	if err := e.ready(); err != nil {
		return err
	}
	e.log.Debug("keypress (simulated)", zap.String("chord", chord(keys)))
	return nil
}

func (e *SimExecutor) Drag(ctx context.Context, fromX, fromY, toX, toY int) error {
	return e.ready()
}

func (e *SimExecutor) Scroll(ctx context.Context, x, y, dx, dy int) error {
	return e.ready()
}

func (e *SimExecutor) Navigate(ctx context.Context, url string) error {
	if err := e.ready(); err != nil {
		return err
	}
	e.log.Debug("navigate (simulated)", zap.String("url", url))
	return nil
}

func (e *SimExecutor) Move(ctx context.Context, x, y int) error {
	return e.ready()
}

func (e *SimExecutor) Wait(ctx context.Context, ms int) error {
	if err := e.ready(); err != nil {
		return err
	}
	return settle(ctx, time.Duration(ms)*time.Millisecond)
}

func (e *SimExecutor) Dimensions() (int, int) { return e.width, e.height }

func (e *SimExecutor) Environment() string { return platformTag() }

func (e *SimExecutor) TurnCount() int { return e.turns }

func (e *SimExecutor) ActionLog() []ActionLogEntry {
	out := make([]ActionLogEntry, len(e.actions))
	copy(out, e.actions)
	return out
}

// Warnings reports the lenient-degradation warnings recorded so far.
func (e *SimExecutor) Warnings() []string {
	out := make([]string, len(e.warnings))
	copy(out, e.warnings)
	return out
}
