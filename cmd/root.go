package cmd

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"host-bot/config"
)

func Execute() error {
	return newRootCmd().Execute()
}

type globalOptions struct {
	configFile string
	envFile    string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "host-bot",
		Short: "Discord remote control for a video-chat browser tab",
		Long: "host-bot keeps a control panel in a Discord text channel and drives a " +
			"browser tab (skip, refresh, report) for members who sit in the streaming " +
			"voice channel with their camera on.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBot(cmd.Context(), opts)
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (toml, yaml or json)")
	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	rootCmd.AddCommand(
		newRunCmd(opts),
		newConfigCmd(opts),
	)

	return rootCmd
}

// loadConfig reports whether the dotenv file was found so the caller can
// log it once a logger exists.
func loadConfig(opts *globalOptions) (config.Config, bool, error) {
	envLoaded := true
	if err := godotenv.Load(opts.envFile); err != nil {
		envLoaded = false
	}

	v := viper.New()
	if opts.configFile != "" {
		v.SetConfigFile(opts.configFile)
		if err := v.ReadInConfig(); err != nil {
			return config.Config{}, envLoaded, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg, err := config.Load(v)
	if err != nil {
		return config.Config{}, envLoaded, fmt.Errorf("load config: %w", err)
	}
	return cfg, envLoaded, nil
}
