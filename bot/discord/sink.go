// bot/discord/sink.go

// Package discord delivers display pages to Discord channels.
package discord

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Ftotnem/DAYZ-BOT/shared/display"
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const (
	// PurgeWindow is how far back bulk delete can reach.
	PurgeWindow = 14 * 24 * time.Hour
	// purgeFetchLimit is the most messages one history request returns.
	purgeFetchLimit = 100

	DefaultColor = 0x2ecc71
)

// ErrInvalidChannelID marks a destination whose channel ID is not a snowflake.
var ErrInvalidChannelID = errors.New("invalid channel id")

// Session is the part of *discordgo.Session the sink uses.
type Session interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
	ChannelMessagesBulkDelete(channelID string, messages []string, options ...discordgo.RequestOption) error
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	Guild(guildID string, options ...discordgo.RequestOption) (*discordgo.Guild, error)
}

// GuildInfo is what a page header shows about the guild.
type GuildInfo struct {
	Name    string
	IconURL string
}

// Sink converts pages to embeds and sends them.
type Sink struct {
	session   Session
	botUserID string
	color     int
	logger    *zap.SugaredLogger
}

func NewSink(session Session, botUserID string, color int, logger *zap.Logger) *Sink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sink{session: session, botUserID: botUserID, color: color, logger: logger.Sugar()}
}

// ValidateChannelID checks that id looks like a Discord snowflake.
func ValidateChannelID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty", ErrInvalidChannelID)
	}
	if _, err := strconv.ParseUint(id, 10, 64); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidChannelID, id)
	}
	return nil
}

// Embed renders one page.
func (s *Sink) Embed(page display.Page) *discordgo.MessageEmbed {
	return Embed(page, s.color)
}

// Embed renders one page with the given color.
func Embed(page display.Page, color int) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Color:       color,
		Description: page.Description,
	}
	if page.Header != nil {
		embed.Author = &discordgo.MessageEmbedAuthor{
			Name:    page.Header.Title,
			IconURL: page.Header.IconURL,
		}
	}
	if page.Footer != nil {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: page.Footer.Text}
	}
	for _, row := range page.Rows {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   row.Label,
			Value:  row.Value,
			Inline: row.Inline,
		})
	}
	return embed
}

// Send posts each page as its own message, in order. It stops at the first failure.
func (s *Sink) Send(ctx context.Context, channelID string, pages []display.Page) (int, error) {
	for i, page := range pages {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		_, err := s.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
			Embeds: []*discordgo.MessageEmbed{s.Embed(page)},
		}, discordgo.WithContext(ctx))
		if err != nil {
			return i, fmt.Errorf("failed to send page %d/%d to channel %s: %w", i+1, len(pages), channelID, err)
		}
	}
	return len(pages), nil
}

// Purge deletes this bot's messages newer than cutoff among the channel's
// most recent messages. It returns how many were deleted.
func (s *Sink) Purge(ctx context.Context, channelID string, cutoff time.Time) (int, error) {
	messages, err := s.session.ChannelMessages(channelID, purgeFetchLimit, "", "", "", discordgo.WithContext(ctx))
	if err != nil {
		return 0, fmt.Errorf("failed to fetch messages in channel %s: %w", channelID, err)
	}

	var ids []string
	for _, m := range messages {
		if m.Author == nil || m.Author.ID != s.botUserID {
			continue
		}
		if !m.Timestamp.After(cutoff) {
			continue
		}
		ids = append(ids, m.ID)
	}

	switch len(ids) {
	case 0:
		return 0, nil
	case 1:
		// Bulk delete requires at least two messages.
		if err := s.session.ChannelMessageDelete(channelID, ids[0], discordgo.WithContext(ctx)); err != nil {
			return 0, fmt.Errorf("failed to delete message in channel %s: %w", channelID, err)
		}
	default:
		if err := s.session.ChannelMessagesBulkDelete(channelID, ids, discordgo.WithContext(ctx)); err != nil {
			return 0, fmt.Errorf("failed to bulk delete %d messages in channel %s: %w", len(ids), channelID, err)
		}
	}
	s.logger.Debugw("Purged old messages", "channel", channelID, "count", len(ids))
	return len(ids), nil
}

// ChannelGuild resolves the guild a channel belongs to.
func (s *Sink) ChannelGuild(ctx context.Context, channelID string) (GuildInfo, error) {
	ch, err := s.session.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return GuildInfo{}, fmt.Errorf("failed to resolve channel %s: %w", channelID, err)
	}
	if ch.GuildID == "" {
		return GuildInfo{}, nil
	}
	return s.Guild(ctx, ch.GuildID)
}

// Guild looks up a guild's name and icon.
func (s *Sink) Guild(ctx context.Context, guildID string) (GuildInfo, error) {
	g, err := s.session.Guild(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return GuildInfo{}, fmt.Errorf("failed to resolve guild %s: %w", guildID, err)
	}
	info := GuildInfo{Name: g.Name}
	if g.Icon != "" {
		info.IconURL = g.IconURL("")
	}
	return info, nil
}
