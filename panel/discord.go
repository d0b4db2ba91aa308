package panel

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"
)

// Button custom IDs. They stay stable across restarts so buttons on an old
// panel still route correctly.
const (
	CustomIDSkip    = "host_skip"
	CustomIDRefresh = "host_refresh"
	CustomIDReport  = "host_report"
)

const embedColor = 0x3498db

// DiscordStore posts the panel into a single text channel.
type DiscordStore struct {
	s         *discordgo.Session
	channelID string
	prefix    string
}

func NewDiscordStore(s *discordgo.Session, channelID, prefix string) *DiscordStore {
	return &DiscordStore{s: s, channelID: channelID, prefix: prefix}
}

// Message builds the panel embed and its three buttons.
func Message(prefix string) *discordgo.MessageSend {
	return &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       "🎥 Stream Controls",
			Description: "Must be in **Streaming VC** with **Camera ON** to use.",
			Color:       embedColor,
			Fields: []*discordgo.MessageEmbedField{{
				Name:   "Commands",
				Value:  fmt.Sprintf("`%[1]sskip` `%[1]srefresh` `%[1]sreport`", prefix),
				Inline: false,
			}},
		}},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    "Skip",
						Style:    discordgo.SuccessButton,
						Emoji:    &discordgo.ComponentEmoji{Name: "⏭️"},
						CustomID: CustomIDSkip,
					},
					discordgo.Button{
						Label:    "Refresh/Pause",
						Style:    discordgo.DangerButton,
						Emoji:    &discordgo.ComponentEmoji{Name: "🔄"},
						CustomID: CustomIDRefresh,
					},
					discordgo.Button{
						Label:    "Report",
						Style:    discordgo.SecondaryButton,
						Emoji:    &discordgo.ComponentEmoji{Name: "🚩"},
						CustomID: CustomIDReport,
					},
				},
			},
		},
	}
}

func (d *DiscordStore) Post(ctx context.Context) (string, error) {
	msg, err := d.s.ChannelMessageSendComplex(d.channelID, Message(d.prefix), discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("send panel: %w", err)
	}
	return msg.ID, nil
}

func (d *DiscordStore) Fetch(ctx context.Context, messageID string) error {
	if _, err := d.s.ChannelMessage(d.channelID, messageID, discordgo.WithContext(ctx)); err != nil {
		return wrapNotFound(err)
	}
	return nil
}

func (d *DiscordStore) Delete(ctx context.Context, messageID string) error {
	if err := d.s.ChannelMessageDelete(d.channelID, messageID, discordgo.WithContext(ctx)); err != nil {
		return wrapNotFound(err)
	}
	return nil
}

func (d *DiscordStore) PurgeOwn(ctx context.Context, limit int) error {
	msgs, err := d.s.ChannelMessages(d.channelID, limit, "", "", "", discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("list recent messages: %w", err)
	}

	selfID := ""
	if d.s.State != nil && d.s.State.User != nil {
		selfID = d.s.State.User.ID
	}

	var errs []error
	for _, m := range msgs {
		if m.Author == nil || m.Author.ID != selfID {
			continue
		}
		if err := d.s.ChannelMessageDelete(d.channelID, m.ID, discordgo.WithContext(ctx)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// wrapNotFound turns Discord's "Unknown Message" into ErrNotFound.
func wrapNotFound(err error) error {
	if IsNotFound(err) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return err
}

// IsNotFound reports whether err is a Discord REST error for a missing
// message.
func IsNotFound(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return false
	}
	if restErr.Message != nil && restErr.Message.Code == discordgo.ErrCodeUnknownMessage {
		return true
	}
	return restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound
}
