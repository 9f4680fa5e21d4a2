// bot/commands/interactions.go
package commands

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/Ftotnem/DAYZ-BOT/bot/discord"
	"github.com/bwmarrin/discordgo"
)

const commandTimeout = 30 * time.Second

// InteractionSession is the part of *discordgo.Session the dispatcher uses.
type InteractionSession interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// OnInteraction is registered with discordgo's AddHandler.
func (h *Handler) OnInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	h.Dispatch(ctx, s, i, discord.DefaultColor)
}

// Dispatch defers the reply, runs the command and edits the deferred reply
// with the result. Panics are logged and never reach the gateway loop.
func (h *Handler) Dispatch(ctx context.Context, s InteractionSession, i *discordgo.InteractionCreate, color int) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	data := i.ApplicationCommandData()
	if data.Name != LeaderboardCommand && data.Name != StatsCommand {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			h.logger.Errorw("Panic while handling command", "command", data.Name, "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
		}
	}()

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}, discordgo.WithContext(ctx))
	if err != nil {
		h.logger.Errorw("Failed to defer interaction reply", "command", data.Name, "error", err)
		return
	}

	options := make(map[string]string, len(data.Options))
	for _, opt := range data.Options {
		if opt.Type == discordgo.ApplicationCommandOptionString {
			options[opt.Name] = opt.StringValue()
		}
	}
	mention := invokerMention(i)

	var reply Reply
	switch data.Name {
	case LeaderboardCommand:
		reply = h.Leaderboard(ctx, mention, i.GuildID, options[optionType], options[optionServer])
	case StatsCommand:
		reply = h.Stats(ctx, mention, options[optionID], options[optionServer])
	}

	edit := &discordgo.WebhookEdit{}
	if reply.Page != nil {
		embeds := []*discordgo.MessageEmbed{discord.Embed(*reply.Page, color)}
		edit.Embeds = &embeds
	} else {
		edit.Content = &reply.Content
	}
	if _, err := s.InteractionResponseEdit(i.Interaction, edit, discordgo.WithContext(ctx)); err != nil {
		h.logger.Errorw("Failed to edit interaction reply", "command", data.Name, "error", err)
	}
}

func invokerMention(i *discordgo.InteractionCreate) string {
	switch {
	case i.Member != nil && i.Member.User != nil:
		return i.Member.User.Mention()
	case i.User != nil:
		return i.User.Mention()
	}
	return "Survivor"
}
