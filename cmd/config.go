package cmd

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"host-bot/config"
)

// configFile mirrors config.Config with the keys viper reads, so the output
// of `host-bot config` can be fed back through --config.
type configFile struct {
	DiscordBotToken    string   `toml:"discord_bot_token"`
	GuildID            string   `toml:"guild_id"`
	CommandChannelID   string   `toml:"command_channel_id"`
	StreamingVCID      string   `toml:"streaming_vc_id"`
	VideoURL           string   `toml:"video_url"`
	BrowserUserDataDir string   `toml:"browser_user_data_dir"`
	BrowserExecPath    string   `toml:"browser_exec_path"`
	BrowserHeadless    bool     `toml:"browser_headless"`
	BrowserStepTimeout string   `toml:"browser_step_timeout"`
	CommandCooldown    float64  `toml:"command_cooldown"`
	CommandPrefix      string   `toml:"command_prefix"`
	AutoVCStart        bool     `toml:"auto_vc_start"`
	EmptyVCPause       bool     `toml:"empty_vc_pause"`
	ClickCheckbox      bool     `toml:"click_checkbox"`
	AutoRelay          bool     `toml:"auto_relay"`
	AutoVolume         bool     `toml:"auto_volume"`
	VolumeLevel        int      `toml:"volume_level"`
	SkipSequence       []string `toml:"skip_sequence"`
	ReportFeedback     bool     `toml:"report_feedback"`
	PanelInterval      string   `toml:"panel_interval"`
	PanelPurgeLimit    int      `toml:"panel_purge_limit"`
	Port               string   `toml:"port"`
	LogLevel           string   `toml:"log_level"`
	LogProduction      bool     `toml:"log_production"`
}

func toConfigFile(cfg config.Config) configFile {
	return configFile{
		DiscordBotToken:    cfg.Token,
		GuildID:            cfg.GuildID,
		CommandChannelID:   cfg.CommandChannelID,
		StreamingVCID:      cfg.StreamingVCID,
		VideoURL:           cfg.VideoURL,
		BrowserUserDataDir: cfg.UserDataDir,
		BrowserExecPath:    cfg.ExecPath,
		BrowserHeadless:    cfg.Headless,
		BrowserStepTimeout: cfg.StepTimeout.String(),
		CommandCooldown:    cfg.CommandCooldown.Seconds(),
		CommandPrefix:      cfg.CommandPrefix,
		AutoVCStart:        cfg.AutoVCStart,
		EmptyVCPause:       cfg.EmptyVCPause,
		ClickCheckbox:      cfg.ClickCheckbox,
		AutoRelay:          cfg.AutoRelay,
		AutoVolume:         cfg.AutoVolume,
		VolumeLevel:        cfg.VolumeLevel,
		SkipSequence:       cfg.SkipSequence,
		ReportFeedback:     cfg.ReportFeedback,
		PanelInterval:      cfg.PanelInterval.String(),
		PanelPurgeLimit:    cfg.PanelPurgeLimit,
		Port:               cfg.Port,
		LogLevel:           cfg.LogLevel,
		LogProduction:      cfg.LogProduction,
	}
}

func newConfigCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as TOML (token redacted)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(opts)
			if err != nil {
				return err
			}
			out, err := toml.Marshal(toConfigFile(cfg.Redacted()))
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}
