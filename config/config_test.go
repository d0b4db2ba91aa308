package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requiredViper() *viper.Viper {
	v := viper.New()
	v.Set(KeyToken, "token")
	v.Set(KeyGuildID, "1")
	v.Set(KeyCommandChannelID, "2")
	v.Set(KeyStreamingVCID, "3")
	return v
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(requiredViper())
	require.NoError(t, err)

	assert.Equal(t, "https://umingle.com/video", cfg.VideoURL)
	assert.Equal(t, 5*time.Second, cfg.CommandCooldown)
	assert.Equal(t, 30*time.Second, cfg.PanelInterval)
	assert.Equal(t, 5, cfg.PanelPurgeLimit)
	assert.Equal(t, 40, cfg.VolumeLevel)
	assert.Equal(t, []string{"ESCAPE", "ESCAPE"}, cfg.SkipSequence)
	assert.Equal(t, "!", cfg.CommandPrefix)
	assert.True(t, cfg.EmptyVCPause)
	assert.False(t, cfg.AutoVCStart)
	assert.True(t, cfg.ReportFeedback)
	assert.Equal(t, "8080", cfg.Port)
}

func TestLoadMissingRequired(t *testing.T) {
	_, err := Load(viper.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissing)
	assert.Contains(t, err.Error(), KeyToken)
	assert.Contains(t, err.Error(), KeyStreamingVCID)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DISCORD_BOT_TOKEN", "env-token")
	t.Setenv("GUILD_ID", "10")
	t.Setenv("COMMAND_CHANNEL_ID", "20")
	t.Setenv("STREAMING_VC_ID", "30")
	t.Setenv("COMMAND_COOLDOWN", "2.5")
	t.Setenv("SKIP_SEQUENCE", "ESC,q")
	t.Setenv("PANEL_INTERVAL", "45s")

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.Token)
	assert.Equal(t, "30", cfg.StreamingVCID)
	assert.Equal(t, 2500*time.Millisecond, cfg.CommandCooldown)
	assert.Equal(t, []string{"ESC", "q"}, cfg.SkipSequence)
	assert.Equal(t, 45*time.Second, cfg.PanelInterval)
}

func TestValidateRanges(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
	}{
		{name: "volume too high", key: KeyVolumeLevel, val: 101},
		{name: "volume negative", key: KeyVolumeLevel, val: -1},
		{name: "negative cooldown", key: KeyCommandCooldown, val: -1},
		{name: "zero interval", key: KeyPanelInterval, val: "0s"},
		{name: "empty skip sequence", key: KeySkipSequence, val: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := requiredViper()
			v.Set(tt.key, tt.val)
			_, err := Load(v)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestRedacted(t *testing.T) {
	cfg, err := Load(requiredViper())
	require.NoError(t, err)

	red := cfg.Redacted()
	assert.Equal(t, "********", red.Token)
	assert.Equal(t, "token", cfg.Token)

	red.SkipSequence[0] = "TAB"
	assert.Equal(t, "ESCAPE", cfg.SkipSequence[0])
}
