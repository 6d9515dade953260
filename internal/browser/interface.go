// Package browser exposes the primitive action surface the computer-use
// agent drives, backed by a real browser (playwright or CDP) or a simulator.
package browser

import "context"

// ActionLogEntry is one diagnostic line of the action log, tagged with the
// turn it happened in. The log is never consulted for control decisions.
type ActionLogEntry struct {
	Turn   int    `json:"turn"`
	Action string `json:"action"`
}

// Executor is the bounded action surface handed to the autonomous agent:
// one method per primitive, plus read-only dimensions and platform tag.
//
// Screenshot is the control loop's tick: it increments the turn count by
// exactly one as its first effect. No other operation touches the counter.
type Executor interface {
	Screenshot(ctx context.Context) (string, error)
	Click(ctx context.Context, x, y int, button string) error
	DoubleClick(ctx context.Context, x, y int, button string) error
	Type(ctx context.Context, text string, delayMs int) error
	Press(ctx context.Context, key string) error
	Keypress(ctx context.Context, keys []string) error
	Drag(ctx context.Context, fromX, fromY, toX, toY int) error
	Scroll(ctx context.Context, x, y, dx, dy int) error
	Navigate(ctx context.Context, url string) error
	Move(ctx context.Context, x, y int) error
	Wait(ctx context.Context, ms int) error

	Dimensions() (width, height int)
	Environment() string

	TurnCount() int
	ActionLog() []ActionLogEntry
}
