// Package config holds the static settings of the bot. Everything is read
// once at startup and never mutated afterwards.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrMissing is wrapped by Validate when a required key has no value.
var ErrMissing = errors.New("missing required configuration")

const (
	KeyToken            = "discord_bot_token"
	KeyGuildID          = "guild_id"
	KeyCommandChannelID = "command_channel_id"
	KeyStreamingVCID    = "streaming_vc_id"
	KeyVideoURL         = "video_url"
	KeyUserDataDir      = "browser_user_data_dir"
	KeyExecPath         = "browser_exec_path"
	KeyHeadless         = "browser_headless"
	KeyStepTimeout      = "browser_step_timeout"
	KeyCommandCooldown  = "command_cooldown"
	KeyCommandPrefix    = "command_prefix"
	KeyAutoVCStart      = "auto_vc_start"
	KeyEmptyVCPause     = "empty_vc_pause"
	KeyClickCheckbox    = "click_checkbox"
	KeyAutoRelay        = "auto_relay"
	KeyAutoVolume       = "auto_volume"
	KeyVolumeLevel      = "volume_level"
	KeySkipSequence     = "skip_sequence"
	KeyReportFeedback   = "report_feedback"
	KeyPanelInterval    = "panel_interval"
	KeyPanelPurgeLimit  = "panel_purge_limit"
	KeyPort             = "port"
	KeyLogLevel         = "log_level"
	KeyLogProduction    = "log_production"
)

// Config is the full set of recognized options.
type Config struct {
	Token            string
	GuildID          string
	CommandChannelID string
	StreamingVCID    string

	VideoURL    string
	UserDataDir string
	ExecPath    string
	Headless    bool
	StepTimeout time.Duration

	CommandCooldown time.Duration
	CommandPrefix   string

	AutoVCStart  bool
	EmptyVCPause bool

	ClickCheckbox bool
	AutoRelay     bool
	AutoVolume    bool
	VolumeLevel   int
	SkipSequence  []string

	ReportFeedback bool

	PanelInterval   time.Duration
	PanelPurgeLimit int

	Port          string
	LogLevel      string
	LogProduction bool
}

// SetDefaults registers the fallback value of every optional key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyVideoURL, "https://umingle.com/video")
	v.SetDefault(KeyHeadless, false)
	v.SetDefault(KeyStepTimeout, 10*time.Second)
	v.SetDefault(KeyCommandCooldown, 5.0)
	v.SetDefault(KeyCommandPrefix, "!")
	v.SetDefault(KeyAutoVCStart, false)
	v.SetDefault(KeyEmptyVCPause, true)
	v.SetDefault(KeyClickCheckbox, true)
	v.SetDefault(KeyAutoRelay, true)
	v.SetDefault(KeyAutoVolume, true)
	v.SetDefault(KeyVolumeLevel, 40)
	v.SetDefault(KeySkipSequence, []string{"ESCAPE", "ESCAPE"})
	v.SetDefault(KeyReportFeedback, true)
	v.SetDefault(KeyPanelInterval, 30*time.Second)
	v.SetDefault(KeyPanelPurgeLimit, 5)
	v.SetDefault(KeyPort, "8080")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogProduction, false)
}

// Load reads a Config out of v. Environment variables named after the
// upper-cased keys take precedence over any config file already read into v.
func Load(v *viper.Viper) (Config, error) {
	if v == nil {
		v = viper.New()
	}
	SetDefaults(v)
	v.AutomaticEnv()

	cfg := Config{
		Token:            strings.TrimSpace(v.GetString(KeyToken)),
		GuildID:          strings.TrimSpace(v.GetString(KeyGuildID)),
		CommandChannelID: strings.TrimSpace(v.GetString(KeyCommandChannelID)),
		StreamingVCID:    strings.TrimSpace(v.GetString(KeyStreamingVCID)),
		VideoURL:         strings.TrimSpace(v.GetString(KeyVideoURL)),
		UserDataDir:      v.GetString(KeyUserDataDir),
		ExecPath:         v.GetString(KeyExecPath),
		Headless:         v.GetBool(KeyHeadless),
		StepTimeout:      v.GetDuration(KeyStepTimeout),
		CommandCooldown:  time.Duration(v.GetFloat64(KeyCommandCooldown) * float64(time.Second)),
		CommandPrefix:    v.GetString(KeyCommandPrefix),
		AutoVCStart:      v.GetBool(KeyAutoVCStart),
		EmptyVCPause:     v.GetBool(KeyEmptyVCPause),
		ClickCheckbox:    v.GetBool(KeyClickCheckbox),
		AutoRelay:        v.GetBool(KeyAutoRelay),
		AutoVolume:       v.GetBool(KeyAutoVolume),
		VolumeLevel:      v.GetInt(KeyVolumeLevel),
		SkipSequence:     splitSequence(v.GetStringSlice(KeySkipSequence)),
		ReportFeedback:   v.GetBool(KeyReportFeedback),
		PanelInterval:    v.GetDuration(KeyPanelInterval),
		PanelPurgeLimit:  v.GetInt(KeyPanelPurgeLimit),
		Port:             v.GetString(KeyPort),
		LogLevel:         v.GetString(KeyLogLevel),
		LogProduction:    v.GetBool(KeyLogProduction),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks required keys and value ranges.
func (c Config) Validate() error {
	var missing []string
	for key, val := range map[string]string{
		KeyToken:            c.Token,
		KeyGuildID:          c.GuildID,
		KeyCommandChannelID: c.CommandChannelID,
		KeyStreamingVCID:    c.StreamingVCID,
		KeyVideoURL:         c.VideoURL,
	} {
		if val == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return fmt.Errorf("%w: %s", ErrMissing, strings.Join(missing, ", "))
	}

	if c.CommandCooldown < 0 {
		return fmt.Errorf("%s must not be negative", KeyCommandCooldown)
	}
	if c.VolumeLevel < 0 || c.VolumeLevel > 100 {
		return fmt.Errorf("%s must be within 0..100, got %d", KeyVolumeLevel, c.VolumeLevel)
	}
	if c.PanelInterval <= 0 {
		return fmt.Errorf("%s must be positive", KeyPanelInterval)
	}
	if c.StepTimeout <= 0 {
		return fmt.Errorf("%s must be positive", KeyStepTimeout)
	}
	if c.CommandPrefix == "" {
		return fmt.Errorf("%s must not be empty", KeyCommandPrefix)
	}
	if len(c.SkipSequence) == 0 {
		return fmt.Errorf("%s must name at least one key", KeySkipSequence)
	}
	return nil
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	out := c
	out.SkipSequence = append([]string(nil), c.SkipSequence...)
	if out.Token != "" {
		out.Token = "********"
	}
	return out
}

// splitSequence accepts both list values from a config file and a single
// "ESCAPE,ESCAPE" string coming from the environment.
func splitSequence(raw []string) []string {
	var keys []string
	for _, item := range raw {
		for _, k := range strings.FieldsFunc(item, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t'
		}) {
			keys = append(keys, k)
		}
	}
	return keys
}
