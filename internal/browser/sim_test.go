package browser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSimExecutorTurnCountFollowsScreenshots(t *testing.T) {
	exec := NewSimExecutor(1280, 720, zap.NewNop())
	ctx := context.Background()

	assert.Equal(t, 0, exec.TurnCount())

	// Only screenshots tick the counter; interleaved actions do not.
	for i := 1; i <= 3; i++ {
		_, err := exec.Screenshot(ctx)
		require.NoError(t, err)
		require.NoError(t, exec.Click(ctx, 10, 10, "left"))
		require.NoError(t, exec.Type(ctx, "hello", 0))
		assert.Equal(t, i, exec.TurnCount())
	}
}

func TestSimExecutorActionLogTaggedWithTurn(t *testing.T) {
	exec := NewSimExecutor(1280, 720, zap.NewNop())
	ctx := context.Background()

	_, err := exec.Screenshot(ctx)
	require.NoError(t, err)
	require.NoError(t, exec.Click(ctx, 5, 7, "left"))
	_, err = exec.Screenshot(ctx)
	require.NoError(t, err)
	require.NoError(t, exec.Type(ctx, "query", 0))

	log := exec.ActionLog()
	require.Len(t, log, 2)
	assert.Equal(t, 1, log[0].Turn)
	assert.Equal(t, "Clicked at (5, 7) with left button", log[0].Action)
	assert.Equal(t, 2, log[1].Turn)
	assert.Equal(t, "Typed: query", log[1].Action)
}

func TestSimExecutorCoercesInvalidButton(t *testing.T) {
	exec := NewSimExecutor(1280, 720, zap.NewNop())

	err := exec.Click(context.Background(), 1, 2, "up")
	require.NoError(t, err)

	warnings := exec.Warnings()
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], `"up"`)
	assert.Contains(t, warnings[0], "defaulting to left")

	log := exec.ActionLog()
	require.Len(t, log, 1)
	assert.Contains(t, log[0].Action, "left button")
}

func TestSimExecutorRejectsActionsAfterClose(t *testing.T) {
	exec := NewSimExecutor(1280, 720, zap.NewNop())
	require.NoError(t, exec.Close())

	ctx := context.Background()
	_, err := exec.Screenshot(ctx)
	assert.ErrorIs(t, err, ErrSessionNotReady)
	assert.ErrorIs(t, exec.Click(ctx, 0, 0, "left"), ErrSessionNotReady)
	assert.ErrorIs(t, exec.Navigate(ctx, "https://example.com"), ErrSessionNotReady)
}

func TestSimExecutorDimensionsAndEnvironment(t *testing.T) {
	exec := NewSimExecutor(800, 600, zap.NewNop())
	w, h := exec.Dimensions()
	assert.Equal(t, 800, w)
	assert.Equal(t, 600, h)
	assert.Contains(t, []string{"linux", "mac", "windows"}, exec.Environment())
}
