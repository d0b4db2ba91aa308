package handler

import (
	"context"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MessageCreate returns a function that handles prefixed text commands in
// the command channel.
func MessageCreate(d *Dispatcher, set Settings, log *zap.Logger) func(*discordgo.Session, *discordgo.MessageCreate) {
	return func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author == nil || m.Author.Bot {
			return
		}
		// Ignore messages from the bot itself
		if s.State != nil && s.State.User != nil && m.Author.ID == s.State.User.ID {
			return
		}

		action, ok := parseCommand(m.Content, set.Prefix)
		if !ok {
			return
		}
		if m.GuildID != set.GuildID || m.ChannelID != set.CommandChannelID {
			log.Debug("Command outside command channel",
				zap.String("channel_id", m.ChannelID),
				zap.String("user_id", m.Author.ID))
			return
		}

		d.Dispatch(context.Background(), Request{
			ID:          uuid.NewString(),
			UserID:      m.Author.ID,
			DisplayName: displayName(m.Member, m.Author),
			Action:      action,
			Presence:    presenceOf(s, m.GuildID, m.Author.ID),
			Responder: &messageResponder{
				s:         s,
				channelID: m.ChannelID,
				userID:    m.Author.ID,
			},
		})
	}
}

// parseCommand extracts the action from "!skip" style content. Anything
// after the command word is ignored.
func parseCommand(content, prefix string) (Action, bool) {
	content = strings.TrimSpace(content)
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return "", false
	}
	fields := strings.Fields(strings.TrimPrefix(content, prefix))
	if len(fields) == 0 {
		return "", false
	}
	return ParseAction(fields[0])
}
