package discord

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Ftotnem/DAYZ-BOT/shared/display"
	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSession struct {
	sent        []*discordgo.MessageSend
	sendErrAt   int
	history     []*discordgo.Message
	bulkDeleted []string
	deleted     []string
	channels    map[string]*discordgo.Channel
	guilds      map[string]*discordgo.Guild
}

func (f *fakeSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	if f.sendErrAt > 0 && len(f.sent)+1 == f.sendErrAt {
		return nil, errors.New("missing access")
	}
	f.sent = append(f.sent, data)
	return &discordgo.Message{ChannelID: channelID}, nil
}

func (f *fakeSession) ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error) {
	return f.history, nil
}

func (f *fakeSession) ChannelMessagesBulkDelete(channelID string, messages []string, options ...discordgo.RequestOption) error {
	f.bulkDeleted = append(f.bulkDeleted, messages...)
	return nil
}

func (f *fakeSession) ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error {
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeSession) Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error) {
	ch, ok := f.channels[channelID]
	if !ok {
		return nil, errors.New("unknown channel")
	}
	return ch, nil
}

func (f *fakeSession) Guild(guildID string, options ...discordgo.RequestOption) (*discordgo.Guild, error) {
	g, ok := f.guilds[guildID]
	if !ok {
		return nil, errors.New("unknown guild")
	}
	return g, nil
}

func pages(n int) []display.Page {
	out := make([]display.Page, n)
	for i := range out {
		out[i] = display.Page{Rows: []display.Row{{Label: "row", Value: string(rune('a' + i)), Inline: true}}}
	}
	out[0].Header = &display.Header{Title: "Overall Leaderboard", IconURL: "https://cdn/icon.png"}
	out[n-1].Footer = &display.Footer{Text: "hint"}
	return out
}

func TestEmbed(t *testing.T) {
	p := pages(1)[0]
	embed := Embed(p, DefaultColor)
	require.NotNil(t, embed.Author)
	assert.Equal(t, "Overall Leaderboard", embed.Author.Name)
	assert.Equal(t, "https://cdn/icon.png", embed.Author.IconURL)
	require.NotNil(t, embed.Footer)
	assert.Equal(t, "hint", embed.Footer.Text)
	require.Len(t, embed.Fields, 1)
	assert.True(t, embed.Fields[0].Inline)
	assert.Equal(t, DefaultColor, embed.Color)

	bare := Embed(display.Page{Description: "text"}, 0)
	assert.Nil(t, bare.Author)
	assert.Nil(t, bare.Footer)
	assert.Equal(t, "text", bare.Description)
}

func TestSendInOrder(t *testing.T) {
	fs := &fakeSession{}
	sink := NewSink(fs, "bot", DefaultColor, zap.NewNop())

	n, err := sink.Send(context.Background(), "123", pages(3))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	require.Len(t, fs.sent, 3)
	for i, msg := range fs.sent {
		require.Len(t, msg.Embeds, 1)
		assert.Equal(t, string(rune('a'+i)), msg.Embeds[0].Fields[0].Value)
	}
	assert.NotNil(t, fs.sent[0].Embeds[0].Author)
	assert.Nil(t, fs.sent[1].Embeds[0].Author)
	assert.NotNil(t, fs.sent[2].Embeds[0].Footer)
}

func TestSendStopsAtFailure(t *testing.T) {
	fs := &fakeSession{sendErrAt: 2}
	sink := NewSink(fs, "bot", DefaultColor, zap.NewNop())

	n, err := sink.Send(context.Background(), "123", pages(3))
	require.Error(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, fs.sent, 1)
}

func TestPurgeOnlyRecentBotMessages(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	cutoff := now.Add(-PurgeWindow)
	fs := &fakeSession{history: []*discordgo.Message{
		{ID: "1", Author: &discordgo.User{ID: "bot"}, Timestamp: now.Add(-time.Hour)},
		{ID: "2", Author: &discordgo.User{ID: "someone"}, Timestamp: now.Add(-time.Hour)},
		{ID: "3", Author: &discordgo.User{ID: "bot"}, Timestamp: now.Add(-15 * 24 * time.Hour)},
		{ID: "4", Author: &discordgo.User{ID: "bot"}, Timestamp: now.Add(-13 * 24 * time.Hour)},
		{ID: "5", Timestamp: now},
	}}
	sink := NewSink(fs, "bot", DefaultColor, zap.NewNop())

	n, err := sink.Purge(context.Background(), "123", cutoff)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"1", "4"}, fs.bulkDeleted)
	assert.Empty(t, fs.deleted)
}

func TestPurgeSingleMessage(t *testing.T) {
	now := time.Now()
	fs := &fakeSession{history: []*discordgo.Message{
		{ID: "9", Author: &discordgo.User{ID: "bot"}, Timestamp: now},
	}}
	sink := NewSink(fs, "bot", DefaultColor, zap.NewNop())

	n, err := sink.Purge(context.Background(), "123", now.Add(-PurgeWindow))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"9"}, fs.deleted)
	assert.Empty(t, fs.bulkDeleted)
}

func TestChannelGuild(t *testing.T) {
	fs := &fakeSession{
		channels: map[string]*discordgo.Channel{"123": {ID: "123", GuildID: "g1"}},
		guilds:   map[string]*discordgo.Guild{"g1": {ID: "g1", Name: "Survivors"}},
	}
	sink := NewSink(fs, "bot", DefaultColor, zap.NewNop())

	info, err := sink.ChannelGuild(context.Background(), "123")
	require.NoError(t, err)
	assert.Equal(t, "Survivors", info.Name)
	assert.Empty(t, info.IconURL)

	_, err = sink.ChannelGuild(context.Background(), "404")
	assert.Error(t, err)
}

func TestValidateChannelID(t *testing.T) {
	assert.NoError(t, ValidateChannelID("806479539110674472"))
	assert.ErrorIs(t, ValidateChannelID(""), ErrInvalidChannelID)
	assert.ErrorIs(t, ValidateChannelID("general"), ErrInvalidChannelID)
}
