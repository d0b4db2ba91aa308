package browser

import (
	"context"
	"testing"
	"time"

	"github.com/chromedp/chromedp/kb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"host-bot/config"
)

func TestKeyFor(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{name: "ESC", want: kb.Escape},
		{name: "escape", want: kb.Escape},
		{name: "Enter", want: kb.Enter},
		{name: "RETURN", want: kb.Enter},
		{name: "space", want: " "},
		{name: "TAB", want: kb.Tab},
		{name: "BACKSPACE", want: kb.Backspace},
		{name: "DELETE", want: kb.Delete},
		{name: "Q", want: "q"},
		{name: "x", want: "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, keyFor(tt.name))
		})
	}
}

func TestSkipActionsShape(t *testing.T) {
	// focus click, then a key event and a pause per key
	assert.Len(t, skipActions([]string{"ESCAPE", "ESCAPE"}), 5)
	assert.Len(t, skipActions([]string{"q"}), 3)
}

func TestVolumeScript(t *testing.T) {
	script := volumeScript(40)
	assert.Contains(t, script, "s.value = 40;")
	assert.Contains(t, script, "vol-control")
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Config{
		VideoURL:     "https://example.test/video",
		UserDataDir:  "/tmp/profile",
		StepTimeout:  3 * time.Second,
		AutoRelay:    true,
		VolumeLevel:  25,
		SkipSequence: []string{"ESC"},
	}
	opts := OptionsFromConfig(cfg)

	assert.Equal(t, cfg.VideoURL, opts.URL)
	assert.Equal(t, cfg.UserDataDir, opts.UserDataDir)
	assert.True(t, opts.AutoRelay)
	assert.Equal(t, 25, opts.VolumeLevel)

	cfg.SkipSequence[0] = "TAB"
	assert.Equal(t, []string{"ESC"}, opts.SkipSequence)
}

func TestOperationsBeforeInitialize(t *testing.T) {
	b := New(Options{URL: "https://example.test"}, zaptest.NewLogger(t))
	ctx := context.Background()

	require.ErrorIs(t, b.Skip(ctx), ErrNotInitialized)
	require.ErrorIs(t, b.Refresh(ctx), ErrNotInitialized)
	require.ErrorIs(t, b.Report(ctx), ErrNotInitialized)

	// no-op when nothing was launched
	b.Shutdown()
}

func TestAllocatorOptions(t *testing.T) {
	b := New(Options{UserDataDir: "/tmp/p", ExecPath: "/usr/bin/chromium"}, zaptest.NewLogger(t))
	withPaths := len(b.allocatorOptions())

	b = New(Options{}, zaptest.NewLogger(t))
	assert.Equal(t, withPaths-2, len(b.allocatorOptions()))
}
