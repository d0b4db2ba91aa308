package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"host-bot/browser"
	"host-bot/gate"
	"host-bot/handler"
	"host-bot/logging"
	"host-bot/panel"
)

const (
	readyTimeout    = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

func newRunCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Connect to Discord, launch the browser and serve the control panel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBot(cmd.Context(), opts)
		},
	}
}

func runBot(parent context.Context, opts *globalOptions) error {
	if parent == nil {
		parent = context.Background()
	}

	cfg, envLoaded, err := loadConfig(opts)
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.LogProduction, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if !envLoaded {
		log.Info("Note: No .env file found.", zap.String("path", opts.envFile))
	}

	dg, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return fmt.Errorf("create discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsGuildMembers

	// 1. Build components
	br := browser.New(browser.OptionsFromConfig(cfg), log.Named("browser"))
	cooldown := gate.NewCooldown(cfg.CommandCooldown)
	dispatcher := handler.NewDispatcher(br, cooldown, handler.DispatcherConfig{
		StreamingVCID:  cfg.StreamingVCID,
		Prefix:         cfg.CommandPrefix,
		ReportFeedback: cfg.ReportFeedback,
	}, log.Named("dispatcher"))
	watcher := handler.NewVoiceWatcher(br, handler.VoiceWatcherConfig{
		GuildID:       cfg.GuildID,
		StreamingVCID: cfg.StreamingVCID,
		AutoStart:     cfg.AutoVCStart,
		AutoPause:     cfg.EmptyVCPause,
	}, log.Named("voice"))
	reconciler := panel.NewReconciler(
		panel.NewDiscordStore(dg, cfg.CommandChannelID, cfg.CommandPrefix),
		log.Named("panel"),
		cfg.PanelInterval,
		cfg.PanelPurgeLimit,
	)
	set := handler.Settings{
		GuildID:          cfg.GuildID,
		CommandChannelID: cfg.CommandChannelID,
		StreamingVCID:    cfg.StreamingVCID,
		Prefix:           cfg.CommandPrefix,
	}

	// 2. Register handlers
	ready := make(chan struct{})
	var readyOnce sync.Once
	dg.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		log.Info("Logged in", zap.String("user", r.User.Username))
		readyOnce.Do(func() { close(ready) })
	})
	dg.AddHandler(handler.MessageCreate(dispatcher, set, log.Named("message")))
	dg.AddHandler(handler.InteractionCreate(dispatcher, set, log.Named("interaction")))
	dg.AddHandler(watcher.Handle)

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := dg.Open(); err != nil {
		return fmt.Errorf("open discord connection: %w", err)
	}

	select {
	case <-ready:
	case <-time.After(readyTimeout):
		_ = dg.Close()
		return errors.New("discord session never became ready")
	case <-ctx.Done():
		_ = dg.Close()
		return nil
	}

	// 3. Slash commands, browser, panel loop
	handler.RegisterCommands(dg, cfg.GuildID, log)

	if err := br.Initialize(ctx); err != nil {
		log.Error("Browser initialization failed", zap.Error(err))
	}

	loopCtx, cancelLoop := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		reconciler.Run(loopCtx)
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           healthHandler(reconciler, cooldown),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Health server stopped", zap.Error(err))
		}
	}()

	log.Info("✅ Bot is running. Press Ctrl+C to stop.")
	<-ctx.Done()

	// 4. Shutdown: panel, browser, Discord
	log.Info("Initiating shutdown cleanup...")
	cancelLoop()
	wg.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	reconciler.Close(shutdownCtx)

	log.Info("Closing browser...")
	br.Shutdown()

	log.Info("Disconnecting bot...")
	if err := dg.Close(); err != nil {
		log.Warn("Error closing discord session", zap.Error(err))
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("Error stopping health server", zap.Error(err))
	}
	log.Info("Goodbye.")
	return nil
}
