package browser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeButton(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		coerced bool
	}{
		{"left", "left", false},
		{"Right", "right", false},
		{" MIDDLE ", "middle", false},
		{"up", "left", true},
		{"", "left", true},
		{"primary", "left", true},
	}
	for _, tt := range tests {
		got, coerced := normalizeButton(tt.in)
		assert.Equal(t, tt.want, got, "button %q", tt.in)
		assert.Equal(t, tt.coerced, coerced, "button %q", tt.in)
	}
}

func TestNormalizeKeySymbolicNames(t *testing.T) {
	tests := []struct{ in, want string }{
		{"CTRL", "Control"},
		{"ctrl", "Control"},
		{"Control", "Control"},
		{"CMD", "Meta"},
		{"meta", "Meta"},
		{"RETURN", "Enter"},
		{"esc", "Escape"},
		{"a", "a"},
		{"F5", "F5"}, // unknown names pass through
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeKey(tt.in), "key %q", tt.in)
	}
}

func TestChordIsSimultaneousCombination(t *testing.T) {
	assert.Equal(t, "Control+a", chord([]string{"CTRL", "a"}))
	assert.Equal(t, "Control+Shift+Tab", chord([]string{"ctrl", "shift", "TAB"}))
	assert.Equal(t, "Enter", chord([]string{"enter"}))
}

func TestSettleHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	err := settle(ctx, 5*time.Second)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}
