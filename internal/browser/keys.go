package browser

import (
	"context"
	"runtime"
	"strings"
	"time"
)

// Settle delays after page-mutating actions. A deliberate robustness-over-
// latency trade-off: pages update asynchronously after input.
const (
	inputSettle    = 500 * time.Millisecond
	navigateSettle = 2 * time.Second
)

var validButtons = map[string]bool{"left": true, "right": true, "middle": true}

// normalizeButton coerces an invalid mouse button to "left". The only
// parameter with lenient degradation: agents frequently emit junk here and a
// left click is always a sane interpretation.
func normalizeButton(button string) (name string, coerced bool) {
	b := strings.ToLower(strings.TrimSpace(button))
	if validButtons[b] {
		return b, false
	}
	return "left", true
}

// symbolicKeys maps the agent's case-insensitive symbolic names to platform
// key identifiers (playwright naming; the CDP executor translates further).
var symbolicKeys = map[string]string{
	"CTRL":    "Control",
	"CONTROL": "Control",
	"CMD":     "Meta",
	"META":    "Meta",
	"ALT":     "Alt",
	"SHIFT":   "Shift",
	"ENTER":   "Enter",
	"RETURN":  "Enter",
	"TAB":     "Tab",
	"ESCAPE":  "Escape",
	"ESC":     "Escape",
}

// normalizeKey resolves one symbolic key name; unknown names pass through.
func normalizeKey(key string) string {
	if mapped, ok := symbolicKeys[strings.ToUpper(strings.TrimSpace(key))]; ok {
		return mapped
	}
	return key
}

// chord normalizes a key sequence into a single simultaneous combination
// ("Control+Shift+a"), not sequential presses.
func chord(keys []string) string {
	mapped := make([]string, 0, len(keys))
	for _, k := range keys {
		mapped = append(mapped, normalizeKey(k))
	}
	return strings.Join(mapped, "+")
}

// platformTag reports the environment string the computer-use API expects.
func platformTag() string {
	switch runtime.GOOS {
	case "darwin":
		return "mac"
	case "windows":
		return "windows"
	default:
		return "linux"
	}
}

// settle pauses for d, honoring context cancellation.
func settle(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
