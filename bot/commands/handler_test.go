package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Ftotnem/DAYZ-BOT/bot/discord"
	"github.com/Ftotnem/DAYZ-BOT/shared/cftools"
	"github.com/Ftotnem/DAYZ-BOT/shared/config"
	"github.com/Ftotnem/DAYZ-BOT/shared/leaderboard"
	"github.com/Ftotnem/DAYZ-BOT/shared/models"
	"github.com/Ftotnem/DAYZ-BOT/shared/playerstats"
	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSource struct {
	entries   []models.LeaderboardEntry
	lbErr     error
	players   map[string]*models.PlayerStats
	detailErr error
	mapping   map[string]string
	lookupErr error

	mu           sync.Mutex
	statRequests []string
	detailIDs    []string
}

func (f *fakeSource) Leaderboard(ctx context.Context, order cftools.Order, statistic string, limit int) ([]models.LeaderboardEntry, error) {
	f.mu.Lock()
	f.statRequests = append(f.statRequests, fmt.Sprintf("%s/%s/%d", order, statistic, limit))
	f.mu.Unlock()
	return f.entries, f.lbErr
}

func (f *fakeSource) PlayerDetails(ctx context.Context, cftoolsID string) (*models.PlayerStats, error) {
	f.mu.Lock()
	f.detailIDs = append(f.detailIDs, cftoolsID)
	f.mu.Unlock()
	if f.detailErr != nil {
		return nil, f.detailErr
	}
	p, ok := f.players[cftoolsID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", cftools.ErrPlayerNotFound, cftoolsID)
	}
	return p, nil
}

func (f *fakeSource) LookupCanonicalID(ctx context.Context, identifier string) (string, bool, error) {
	if f.lookupErr != nil {
		return "", false, f.lookupErr
	}
	id, ok := f.mapping[identifier]
	return id, ok, nil
}

type fakeServers map[string]Source

func (f fakeServers) Source(name string) (Source, error) {
	if name == "" {
		name = "default"
	}
	src, ok := f[name]
	if !ok {
		return nil, cftools.ErrUnknownServer
	}
	return src, nil
}

type fakeGuilds struct{}

func (fakeGuilds) Guild(ctx context.Context, guildID string) (discord.GuildInfo, error) {
	return discord.GuildInfo{Name: "Survivors", IconURL: "https://cdn/icon.png"}, nil
}

func makeEntries(n int) []models.LeaderboardEntry {
	out := make([]models.LeaderboardEntry, n)
	for i := range out {
		out[i] = models.LeaderboardEntry{ID: fmt.Sprintf("id-%d", i), Name: fmt.Sprintf("P%d", i), Kills: 100 - i}
	}
	return out
}

func newHandler(src *fakeSource, production bool) *Handler {
	return NewHandler(Options{
		Servers:     fakeServers{"default": src},
		Guilds:      fakeGuilds{},
		Blacklist:   leaderboard.NewBlacklist([]string{"id-1"}),
		Formatter:   playerstats.NewFormatter(time.UTC),
		PlayerLimit: 15,
		Hint:        leaderboard.DefaultHint,
		ShowHint:    true,
		Production:  production,
	}, zap.NewNop())
}

func TestLeaderboardKillsSinglePage(t *testing.T) {
	src := &fakeSource{entries: makeEntries(30)}
	h := newHandler(src, true)

	reply := h.Leaderboard(context.Background(), "<@1>", "g1", "KILLS", "")
	require.NotNil(t, reply.Page)
	assert.Empty(t, reply.Content)
	assert.Equal(t, []string{"ASC/kills/100"}, src.statRequests)

	page := reply.Page
	require.Len(t, page.Rows, 15)
	assert.Equal(t, "Kills Leaderboard for Survivors", page.Header.Title)
	assert.Equal(t, "https://cdn/icon.png", page.Header.IconURL)
	require.NotNil(t, page.Footer)
	for _, row := range page.Rows {
		assert.True(t, strings.HasSuffix(row.Value, " kills```"), row.Value)
	}
	// id-1 is blacklisted.
	assert.Equal(t, "2. P2", page.Rows[1].Label)
}

func TestLeaderboardDefaultsPlayerLimit(t *testing.T) {
	src := &fakeSource{entries: makeEntries(40)}
	h := NewHandler(Options{Servers: fakeServers{"default": src}}, zap.NewNop())

	reply := h.Leaderboard(context.Background(), "<@1>", "", "KILLS", "")
	require.NotNil(t, reply.Page)
	assert.Len(t, reply.Page.Rows, config.DefaultPlayerDataCount)
}

func TestLeaderboardOverallIsDefault(t *testing.T) {
	src := &fakeSource{entries: makeEntries(3)}
	h := newHandler(src, true)

	reply := h.Leaderboard(context.Background(), "<@1>", "", "", "")
	require.NotNil(t, reply.Page)
	assert.Equal(t, []string{"ASC/kills/100"}, src.statRequests)
	assert.Equal(t, "Overall Leaderboard", reply.Page.Header.Title)
	assert.Contains(t, reply.Page.Rows[0].Value, "Kills: **100**")
}

func TestLeaderboardErrors(t *testing.T) {
	boom := errors.New("dial tcp: timeout")

	reply := newHandler(&fakeSource{lbErr: boom}, true).Leaderboard(context.Background(), "<@1>", "g1", "DEATHS", "")
	assert.Nil(t, reply.Page)
	assert.Equal(t, "❌ <@1>, something went wrong. Please try again later.", reply.Content)

	reply = newHandler(&fakeSource{lbErr: boom}, false).Leaderboard(context.Background(), "<@1>", "g1", "DEATHS", "")
	assert.Contains(t, reply.Content, "||dial tcp: timeout||")

	reply = newHandler(&fakeSource{}, true).Leaderboard(context.Background(), "<@1>", "g1", "DEATHS", "")
	assert.Equal(t, "❌ <@1>, we don't have any data for that statistic yet.", reply.Content)

	reply = newHandler(&fakeSource{}, true).Leaderboard(context.Background(), "<@1>", "g1", "DEATHS", "livonia")
	assert.Contains(t, reply.Content, "isn't configured")

	reply = newHandler(&fakeSource{}, true).Leaderboard(context.Background(), "<@1>", "g1", "HEADSHOTS", "")
	assert.Contains(t, reply.Content, "isn't available")
}

func samplePlayer(id string) *models.PlayerStats {
	return &models.PlayerStats{
		ID:          id,
		NameHistory: []string{"Old", "New"},
		Kills:       7,
		Playtime:    90061,
		Sessions:    10,
		Weapons:     models.WeaponKills{{Weapon: "ak", Kills: 5}, {Weapon: "m4", Kills: 9}, {Weapon: "knife", Kills: 9}},
		UpdatedAt:   time.Date(2024, 3, 5, 18, 30, 0, 0, time.UTC),
	}
}

func TestStatsFallsBackToRawID(t *testing.T) {
	src := &fakeSource{players: map[string]*models.PlayerStats{"cft-raw": samplePlayer("cft-raw")}}
	h := newHandler(src, true)

	reply := h.Stats(context.Background(), "<@1>", "cft-raw", "")
	require.NotNil(t, reply.Page)
	assert.Equal(t, []string{"cft-raw"}, src.detailIDs)
	assert.Equal(t, "Stats for New", reply.Page.Header.Title)
	assert.Contains(t, reply.Page.Description, "**Favorite Weapon:** M4 with 9 kills")
}

func TestStatsResolvesSteamID(t *testing.T) {
	src := &fakeSource{
		mapping: map[string]string{"76561198000000000": "cft-1"},
		players: map[string]*models.PlayerStats{"cft-1": samplePlayer("cft-1")},
	}
	h := newHandler(src, true)

	reply := h.Stats(context.Background(), "<@1>", "76561198000000000", "")
	require.NotNil(t, reply.Page)
	assert.Equal(t, []string{"cft-1"}, src.detailIDs)
}

func TestStatsErrors(t *testing.T) {
	src := &fakeSource{lookupErr: errors.New("connection reset")}
	reply := newHandler(src, true).Stats(context.Background(), "<@1>", "abc", "")
	assert.Equal(t, "❌ <@1>, encountered an error while fetching data, please try again later.", reply.Content)
	assert.Empty(t, src.detailIDs, "strict resolution never fetches details")

	reply = newHandler(&fakeSource{}, true).Stats(context.Background(), "<@1>", "unknown", "")
	assert.Contains(t, reply.Content, "either the ID you provided is invalid")

	reply = newHandler(&fakeSource{detailErr: errors.New("HTTP error 502")}, true).Stats(context.Background(), "<@1>", "x", "")
	assert.Contains(t, reply.Content, "please try again later")
}

type fakeInteractionSession struct {
	responded []*discordgo.InteractionResponse
	edits     []*discordgo.WebhookEdit
}

func (f *fakeInteractionSession) InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error {
	f.responded = append(f.responded, resp)
	return nil
}

func (f *fakeInteractionSession) InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.edits = append(f.edits, newresp)
	return &discordgo.Message{}, nil
}

func commandInteraction(name string, opts map[string]string) *discordgo.InteractionCreate {
	var options []*discordgo.ApplicationCommandInteractionDataOption
	for k, v := range opts {
		options = append(options, &discordgo.ApplicationCommandInteractionDataOption{
			Name:  k,
			Type:  discordgo.ApplicationCommandOptionString,
			Value: v,
		})
	}
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:    discordgo.InteractionApplicationCommand,
		GuildID: "g1",
		Member:  &discordgo.Member{User: &discordgo.User{ID: "42"}},
		Data:    discordgo.ApplicationCommandInteractionData{Name: name, Options: options},
	}}
}

func TestDispatchLeaderboard(t *testing.T) {
	src := &fakeSource{entries: makeEntries(5)}
	h := newHandler(src, true)
	fs := &fakeInteractionSession{}

	h.Dispatch(context.Background(), fs, commandInteraction(LeaderboardCommand, map[string]string{"type": "PLAYTIME"}), discord.DefaultColor)

	require.Len(t, fs.responded, 1)
	assert.Equal(t, discordgo.InteractionResponseDeferredChannelMessageWithSource, fs.responded[0].Type)
	require.Len(t, fs.edits, 1)
	require.NotNil(t, fs.edits[0].Embeds)
	embeds := *fs.edits[0].Embeds
	require.Len(t, embeds, 1)
	assert.Equal(t, "Playtime Leaderboard for Survivors", embeds[0].Author.Name)
	assert.Equal(t, []string{"ASC/playtime/100"}, src.statRequests)
}

func TestDispatchStatsNotFound(t *testing.T) {
	h := newHandler(&fakeSource{}, true)
	fs := &fakeInteractionSession{}

	h.Dispatch(context.Background(), fs, commandInteraction(StatsCommand, map[string]string{"id": "nobody"}), discord.DefaultColor)

	require.Len(t, fs.edits, 1)
	require.NotNil(t, fs.edits[0].Content)
	assert.True(t, strings.HasPrefix(*fs.edits[0].Content, "❌ <@42>, either the ID"))
}

func TestDispatchIgnoresOtherCommands(t *testing.T) {
	h := newHandler(&fakeSource{}, true)
	fs := &fakeInteractionSession{}
	h.Dispatch(context.Background(), fs, commandInteraction("ping", nil), discord.DefaultColor)
	assert.Empty(t, fs.responded)
}

func TestDefinitions(t *testing.T) {
	cmds := Definitions([]leaderboard.Statistic{leaderboard.Overall, leaderboard.Kills}, []string{"default"})
	require.Len(t, cmds, 2)
	assert.Equal(t, LeaderboardCommand, cmds[0].Name)
	require.Len(t, cmds[0].Options, 1)
	assert.Len(t, cmds[0].Options[0].Choices, 2)
	assert.Equal(t, "KILLS", cmds[0].Options[0].Choices[1].Value)
	assert.True(t, cmds[1].Options[0].Required)

	multi := Definitions(leaderboard.Statistics, []string{"chernarus", "livonia"})
	assert.Len(t, multi[0].Options, 2)
	assert.Len(t, multi[1].Options, 2)
	assert.Equal(t, optionServer, multi[1].Options[1].Name)
}
