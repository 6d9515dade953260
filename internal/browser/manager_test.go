package browser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestReleaseAllContinuesPastFailures(t *testing.T) {
	var order []string
	boom := errors.New("page is stuck")

	err := releaseAll(zap.NewNop(), []releaseStep{
		{"page", func() error { order = append(order, "page"); return boom }},
		{"context", func() error { order = append(order, "context"); return nil }},
		{"browser", func() error { order = append(order, "browser"); return errors.New("browser hung") }},
		{"driver", func() error { order = append(order, "driver"); return nil }},
	})

	// Every step ran despite the first failure.
	assert.Equal(t, []string{"page", "context", "browser", "driver"}, order)

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "release page")
	assert.Contains(t, err.Error(), "release browser")
}

func TestReleaseAllNilOnCleanRun(t *testing.T) {
	err := releaseAll(zap.NewNop(), []releaseStep{
		{"page", func() error { return nil }},
		{"driver", func() error { return nil }},
	})
	assert.NoError(t, err)
}
