package handler

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// VoiceExecutor is what the watcher needs from the browser.
type VoiceExecutor interface {
	Skip(ctx context.Context) error
	Refresh(ctx context.Context) error
}

// VoiceWatcher starts the stream when the first camera shows up in the
// streaming channel and pauses it when the last one goes away. Both
// behaviors are opt-in.
type VoiceWatcher struct {
	exec          VoiceExecutor
	guildID       string
	streamingVCID string
	autoStart     bool
	autoPause     bool
	log           *zap.Logger
}

type VoiceWatcherConfig struct {
	GuildID       string
	StreamingVCID string
	AutoStart     bool
	AutoPause     bool
}

func NewVoiceWatcher(exec VoiceExecutor, cfg VoiceWatcherConfig, log *zap.Logger) *VoiceWatcher {
	return &VoiceWatcher{
		exec:          exec,
		guildID:       cfg.GuildID,
		streamingVCID: cfg.StreamingVCID,
		autoStart:     cfg.AutoStart,
		autoPause:     cfg.AutoPause,
		log:           log,
	}
}

// voiceSide is one half of a voice state transition, seen from the
// streaming channel.
type voiceSide struct {
	inChannel bool
	camera    bool
}

func (w *VoiceWatcher) side(vs *discordgo.VoiceState) voiceSide {
	if vs == nil || vs.ChannelID != w.streamingVCID {
		return voiceSide{}
	}
	return voiceSide{inChannel: true, camera: vs.SelfVideo}
}

// decideVoiceAction returns the action a voice transition triggers, or ""
// for none. camCount is the number of human cameras in the channel after
// the transition.
func decideVoiceAction(autoStart, autoPause bool, before, after voiceSide, camCount int) Action {
	cameraBefore := before.inChannel && before.camera
	cameraAfter := after.inChannel && after.camera

	if autoStart && camCount == 1 && cameraAfter && !cameraBefore {
		return ActionSkip
	}
	if autoPause && camCount == 0 && cameraBefore && !cameraAfter {
		return ActionRefresh
	}
	return ""
}

// Handle is registered as a discordgo VoiceStateUpdate handler.
func (w *VoiceWatcher) Handle(s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
	if !w.autoStart && !w.autoPause {
		return
	}
	if v.VoiceState == nil || v.GuildID != w.guildID {
		return
	}
	before, after := w.side(v.BeforeUpdate), w.side(v.VoiceState)
	if !before.inChannel && !after.inChannel {
		return
	}
	if isBot(s, v.GuildID, v.VoiceState) {
		return
	}

	action := decideVoiceAction(w.autoStart, w.autoPause, before, after, w.camCount(s))
	w.apply(action, v.UserID)
}

func (w *VoiceWatcher) apply(action Action, userID string) {
	log := w.log.With(zap.String("user_id", userID))
	switch action {
	case ActionSkip:
		log.Info("Auto-starting stream (first camera user joined)")
		if err := w.exec.Skip(context.Background()); err != nil {
			log.Error("Auto-start failed", zap.Error(err))
		}
	case ActionRefresh:
		log.Info("Auto-pausing stream (no cameras left)")
		if err := w.exec.Refresh(context.Background()); err != nil {
			log.Error("Auto-pause failed", zap.Error(err))
		}
	}
}

// camCount counts human members in the streaming channel with video on.
func (w *VoiceWatcher) camCount(s *discordgo.Session) int {
	if s.State == nil {
		return 0
	}
	guild, err := s.State.Guild(w.guildID)
	if err != nil {
		w.log.Debug("Guild not in state", zap.Error(err))
		return 0
	}

	s.State.RLock()
	var cams []*discordgo.VoiceState
	for _, vs := range guild.VoiceStates {
		if vs.ChannelID == w.streamingVCID && vs.SelfVideo {
			cams = append(cams, vs)
		}
	}
	s.State.RUnlock()

	count := 0
	for _, vs := range cams {
		if !isBot(s, w.guildID, vs) {
			count++
		}
	}
	return count
}

func isBot(s *discordgo.Session, guildID string, vs *discordgo.VoiceState) bool {
	if vs.Member != nil && vs.Member.User != nil {
		return vs.Member.User.Bot
	}
	if s.State == nil {
		return false
	}
	m, err := s.State.Member(guildID, vs.UserID)
	if err != nil || m.User == nil {
		return false
	}
	return m.User.Bot
}
