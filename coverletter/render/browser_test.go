package render

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewBrowserEngineDefaultsTimeout(t *testing.T) {
	e := NewBrowserEngine(BrowserConfig{})
	require.Equal(t, 30*time.Second, e.cfg.Timeout)
}

func TestBrowserEngineCloseStopsLocalProcessOnce(t *testing.T) {
	e := NewBrowserEngine(BrowserConfig{})
	stops := 0
	e.stopLocal = func() { stops++ }

	require.NoError(t, e.Close())
	require.NoError(t, e.Close())
	require.Equal(t, 1, stops)
	require.Nil(t, e.stopLocal)
}

func TestBrowserEngineResetBeforeRelaunchStopsPreviousProcess(t *testing.T) {
	e := NewBrowserEngine(BrowserConfig{})
	var stopped []string
	e.stopLocal = func() { stopped = append(stopped, "first") }

	e.mu.Lock()
	require.NoError(t, e.resetLocked())
	e.stopLocal = func() { stopped = append(stopped, "second") }
	e.mu.Unlock()

	require.NoError(t, e.Close())
	require.Equal(t, []string{"first", "second"}, stopped)
}
