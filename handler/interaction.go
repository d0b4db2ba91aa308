package handler

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"host-bot/panel"
)

// Commands are the slash-command twins of the panel buttons.
var Commands = []*discordgo.ApplicationCommand{
	{
		Name:        string(ActionSkip),
		Description: "Skip to the next peer",
	},
	{
		Name:        string(ActionRefresh),
		Description: "Reload the video page (pauses the stream)",
	},
	{
		Name:        string(ActionReport),
		Description: "Report the current peer",
	},
}

var buttonActions = map[string]Action{
	panel.CustomIDSkip:    ActionSkip,
	panel.CustomIDRefresh: ActionRefresh,
	panel.CustomIDReport:  ActionReport,
}

// InteractionCreate returns a function that handles panel buttons and slash
// commands.
func InteractionCreate(d *Dispatcher, set Settings, log *zap.Logger) func(*discordgo.Session, *discordgo.InteractionCreate) {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		if i.GuildID != set.GuildID {
			return
		}

		var (
			action    Action
			ok        bool
			component bool
		)
		switch i.Type {
		case discordgo.InteractionMessageComponent:
			action, ok = buttonActions[i.MessageComponentData().CustomID]
			component = true
		case discordgo.InteractionApplicationCommand:
			action, ok = ParseAction(i.ApplicationCommandData().Name)
		}
		if !ok {
			return
		}

		user := interactionUser(i.Interaction)
		if user == nil {
			log.Warn("Interaction without user", zap.String("interaction_id", i.ID))
			return
		}

		d.Dispatch(context.Background(), Request{
			ID:          uuid.NewString(),
			UserID:      user.ID,
			DisplayName: displayName(i.Member, user),
			Action:      action,
			Presence:    presenceOf(s, i.GuildID, user.ID),
			Responder: &interactionResponder{
				s:         s,
				i:         i.Interaction,
				component: component,
			},
		})
	}
}

func interactionUser(i *discordgo.Interaction) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

// RegisterCommands creates the slash commands in the configured guild.
func RegisterCommands(s *discordgo.Session, guildID string, log *zap.Logger) {
	for _, v := range Commands {
		if _, err := s.ApplicationCommandCreate(s.State.User.ID, guildID, v); err != nil {
			log.Warn("Cannot create command", zap.String("command", v.Name), zap.Error(err))
		}
	}
}
