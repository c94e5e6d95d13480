package notify

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"
)

// embedSender is the part of *discordgo.Session the notifier uses.
type embedSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordNotifier posts lead and conversion embeds to an ops channel.
type DiscordNotifier struct {
	session   embedSender
	closer    func() error
	channelID string
	now       func() time.Time
}

// NewDiscordNotifier creates a notifier using a bot token.
func NewDiscordNotifier(botToken, channelID string) (*DiscordNotifier, error) {
	if botToken == "" || channelID == "" {
		return nil, fmt.Errorf("discord bot token and channel id are required")
	}
	session, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	return &DiscordNotifier{
		session:   session,
		closer:    session.Close,
		channelID: channelID,
		now:       time.Now,
	}, nil
}

// Notify implements Notifier.
func (d *DiscordNotifier) Notify(ctx context.Context, event Event) error {
	embed := d.buildEmbed(event)
	if _, err := d.session.ChannelMessageSendEmbed(d.channelID, embed, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send discord notification: %w", err)
	}
	return nil
}

// Close closes the discord session.
func (d *DiscordNotifier) Close() error {
	if d.closer != nil {
		return d.closer()
	}
	return nil
}

func (d *DiscordNotifier) buildEmbed(event Event) *discordgo.MessageEmbed {
	title := "New labour pipeline lead"
	if event.Kind == EventConverted {
		title = "Lead followed up"
	}
	name := event.BuilderName
	if name == "" {
		name = "(unnamed builder)"
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "Builder", Value: name, Inline: true},
		{Name: "Email", Value: orDash(event.Email), Inline: true},
	}
	if event.Kind == EventNewLead {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   "Score",
			Value:  strconv.Itoa(event.Score) + "/100 (" + orDash(event.Color) + ")",
			Inline: true,
		})
	}

	return &discordgo.MessageEmbed{
		Title:     title,
		URL:       event.URL,
		Color:     embedColor(event),
		Fields:    fields,
		Timestamp: d.now().Format(time.RFC3339),
		Footer:    &discordgo.MessageEmbedFooter{Text: "session " + event.SessionID},
	}
}

func embedColor(event Event) int {
	if event.Kind == EventConverted {
		return 0x9B59B6
	}
	switch event.Color {
	case "green":
		return 0x2ECC71
	case "amber":
		return 0xF39C12
	case "red":
		return 0xE74C3C
	}
	return 0x3498DB
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
