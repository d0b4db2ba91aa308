package handler

import (
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"host-bot/gate"
)

// Settings is the part of the configuration the Discord handlers need.
type Settings struct {
	GuildID          string
	CommandChannelID string
	StreamingVCID    string
	Prefix           string
}

// presenceOf reads the user's voice state from the session cache.
func presenceOf(s *discordgo.Session, guildID, userID string) gate.Presence {
	if s.State == nil {
		return gate.Presence{}
	}
	vs, err := s.State.VoiceState(guildID, userID)
	if err != nil || vs == nil {
		return gate.Presence{}
	}
	return gate.Presence{ChannelID: vs.ChannelID, CameraOn: vs.SelfVideo}
}

func displayName(m *discordgo.Member, u *discordgo.User) string {
	if m != nil && m.Nick != "" {
		return m.Nick
	}
	if u == nil && m != nil {
		u = m.User
	}
	if u == nil {
		return "someone"
	}
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

// sendTransient posts content and deletes it after ttl.
func sendTransient(s *discordgo.Session, channelID, content string, ttl time.Duration) error {
	msg, err := s.ChannelMessageSend(channelID, content)
	if err != nil {
		return err
	}
	time.AfterFunc(ttl, func() {
		_ = s.ChannelMessageDelete(channelID, msg.ID)
	})
	return nil
}

// messageResponder answers text commands. Discord has no private reply to a
// normal message, so replies are short-lived channel messages instead.
type messageResponder struct {
	s         *discordgo.Session
	channelID string
	userID    string
}

func (r *messageResponder) Reply(msg string, ttl time.Duration) error {
	return sendTransient(r.s, r.channelID, "<@"+r.userID+"> "+msg, ttl)
}

func (r *messageResponder) Announce(msg string, ttl time.Duration) error {
	return sendTransient(r.s, r.channelID, msg, ttl)
}

// interactionResponder answers buttons and slash commands. The first call
// must answer the interaction itself; later calls become followups.
type interactionResponder struct {
	s         *discordgo.Session
	i         *discordgo.Interaction
	component bool

	mu        sync.Mutex
	responded bool
}

func (r *interactionResponder) Reply(msg string, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.responded {
		_, err := r.s.FollowupMessageCreate(r.i, true, &discordgo.WebhookParams{
			Content: msg,
			Flags:   discordgo.MessageFlagsEphemeral,
		})
		return err
	}
	r.responded = true
	return r.s.InteractionRespond(r.i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: msg,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

func (r *interactionResponder) Announce(msg string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.responded {
		return sendTransient(r.s, r.i.ChannelID, msg, ttl)
	}
	r.responded = true

	// A button press is acknowledged without touching the panel.
	if r.component {
		if err := r.s.InteractionRespond(r.i, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseDeferredMessageUpdate,
		}); err != nil {
			return err
		}
		return sendTransient(r.s, r.i.ChannelID, msg, ttl)
	}

	if err := r.s.InteractionRespond(r.i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: msg},
	}); err != nil {
		return err
	}
	time.AfterFunc(ttl, func() {
		_ = r.s.InteractionResponseDelete(r.i)
	})
	return nil
}
