// bot/commands/handler.go

// Package commands implements the /leaderboard and /stats slash commands.
package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/Ftotnem/DAYZ-BOT/bot/discord"
	"github.com/Ftotnem/DAYZ-BOT/shared/cftools"
	"github.com/Ftotnem/DAYZ-BOT/shared/config"
	"github.com/Ftotnem/DAYZ-BOT/shared/display"
	"github.com/Ftotnem/DAYZ-BOT/shared/identity"
	"github.com/Ftotnem/DAYZ-BOT/shared/leaderboard"
	"github.com/Ftotnem/DAYZ-BOT/shared/metrics"
	"github.com/Ftotnem/DAYZ-BOT/shared/models"
	"github.com/Ftotnem/DAYZ-BOT/shared/playerstats"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	fetchLimit = 100

	errorEmoji = "❌"
)

// Source is one server's stats provider. *cftools.Client satisfies it.
type Source interface {
	Leaderboard(ctx context.Context, order cftools.Order, statistic string, limit int) ([]models.LeaderboardEntry, error)
	PlayerDetails(ctx context.Context, cftoolsID string) (*models.PlayerStats, error)
	LookupCanonicalID(ctx context.Context, identifier string) (string, bool, error)
}

// Servers resolves a server option to its source. An empty name is the default server.
type Servers interface {
	Source(name string) (Source, error)
}

type registryServers struct {
	registry *cftools.Registry
}

func (r registryServers) Source(name string) (Source, error) {
	client, err := r.registry.Get(name)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// RegistryServers adapts a cftools registry.
func RegistryServers(r *cftools.Registry) Servers {
	return registryServers{registry: r}
}

// Guilds looks up guild header info. *discord.Sink satisfies it.
type Guilds interface {
	Guild(ctx context.Context, guildID string) (discord.GuildInfo, error)
}

// Options configure a Handler.
type Options struct {
	Servers     Servers
	Guilds      Guilds
	Blacklist   leaderboard.Blacklist
	Formatter   *playerstats.Formatter
	Store       identity.Store // optional
	PlayerLimit int
	Hint        string
	ShowHint    bool
	Production  bool

	DebugLeaderboardData bool
	DebugStatData        bool
}

// Reply is the outcome of one command: a text message or one page.
type Reply struct {
	Content string
	Page    *display.Page
}

type Handler struct {
	opts   Options
	logger *zap.SugaredLogger
}

func NewHandler(opts Options, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Formatter == nil {
		opts.Formatter = playerstats.NewFormatter(nil)
	}
	if opts.PlayerLimit <= 0 {
		opts.PlayerLimit = config.DefaultPlayerDataCount
	}
	return &Handler{opts: opts, logger: logger.Sugar()}
}

// Leaderboard renders the single page reply for /leaderboard.
func (h *Handler) Leaderboard(ctx context.Context, mention, guildID, statOption, server string) Reply {
	stat, err := leaderboard.ParseStatistic(statOption)
	if err != nil {
		h.count(LeaderboardCommand, metrics.ResultError)
		return h.errorReply(mention, "that leaderboard type isn't available.", nil)
	}
	src, err := h.opts.Servers.Source(server)
	if err != nil {
		h.count(LeaderboardCommand, metrics.ResultError)
		return h.errorReply(mention, "that server isn't configured.", nil)
	}

	// The guild header and the leaderboard are fetched together.
	var guild discord.GuildInfo
	var entries []models.LeaderboardEntry
	g, gctx := errgroup.WithContext(ctx)
	if h.opts.Guilds != nil && guildID != "" {
		g.Go(func() error {
			info, err := h.opts.Guilds.Guild(gctx, guildID)
			if err != nil {
				h.logger.Warnw("Failed to resolve guild for leaderboard header", "guild", guildID, "error", err)
				return nil
			}
			guild = info
			return nil
		})
	}
	g.Go(func() error {
		var err error
		entries, err = src.Leaderboard(gctx, cftools.Ascending, stat.APIName(), fetchLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		h.logger.Errorw("Encountered an error while fetching leaderboard data", "stat", stat, "server", server, "error", err)
		h.count(LeaderboardCommand, metrics.ResultError)
		return h.errorReply(mention, "something went wrong. Please try again later.", err)
	}

	if h.opts.DebugLeaderboardData {
		h.logger.Debugw("Leaderboard API data", "stat", stat, "server", server, "entries", entries)
	}

	if len(entries) == 0 {
		h.count(LeaderboardCommand, metrics.ResultEmpty)
		return h.errorReply(mention, "we don't have any data for that statistic yet.", nil)
	}
	entries = leaderboard.Filter(entries, h.opts.Blacklist)
	if len(entries) == 0 {
		h.count(LeaderboardCommand, metrics.ResultEmpty)
		return h.errorReply(mention, "we don't have any data for that statistic yet.", nil)
	}

	pages := leaderboard.BuildPages(entries, stat, h.opts.PlayerLimit, false, leaderboard.Options{
		Header:   display.Header{Title: leaderboard.Title(stat, guild.Name), IconURL: guild.IconURL},
		Hint:     h.opts.Hint,
		ShowHint: h.opts.ShowHint,
	})
	h.count(LeaderboardCommand, metrics.ResultOK)
	return Reply{Page: &pages[0]}
}

// Stats resolves identifier and renders the player's detail page. A
// resolution failure aborts the command rather than guessing the ID.
func (h *Handler) Stats(ctx context.Context, mention, identifier, server string) Reply {
	if identifier == "" {
		h.count(StatsCommand, metrics.ResultError)
		return h.errorReply(mention, "please provide a player ID.", nil)
	}
	src, err := h.opts.Servers.Source(server)
	if err != nil {
		h.count(StatsCommand, metrics.ResultError)
		return h.errorReply(mention, "that server isn't configured.", nil)
	}

	resolver := identity.NewResolver(src, h.opts.Store, h.logger.Desugar())
	cftoolsID, err := resolver.Resolve(ctx, identifier)
	if err != nil {
		h.logger.Errorw("Failed to resolve player identifier", "identifier", identifier, "error", err)
		h.count(StatsCommand, metrics.ResultError)
		return h.errorReply(mention, "encountered an error while fetching data, please try again later.", err)
	}

	stats, err := src.PlayerDetails(ctx, cftoolsID)
	switch {
	case errors.Is(err, cftools.ErrPlayerNotFound):
		h.count(StatsCommand, metrics.ResultNotFound)
		return h.errorReply(mention, "either the ID you provided is invalid or that player isn't currently known to the client. This command has been cancelled.", nil)
	case err != nil:
		h.logger.Errorw("Failed to fetch player details", "cftools_id", cftoolsID, "error", err)
		h.count(StatsCommand, metrics.ResultError)
		return h.errorReply(mention, "encountered an error while fetching data, please try again later.", err)
	}

	if h.opts.DebugStatData {
		h.logger.Debugw("Stat command data", "cftools_id", cftoolsID, "stats", stats)
	}

	page := h.opts.Formatter.Format(stats)
	h.count(StatsCommand, metrics.ResultOK)
	return Reply{Page: &page}
}

// errorReply appends the error detail outside production.
func (h *Handler) errorReply(mention, message string, err error) Reply {
	content := fmt.Sprintf("%s %s, %s", errorEmoji, mention, message)
	if err != nil && !h.opts.Production {
		content += fmt.Sprintf("\n\n||%s||", err)
	}
	return Reply{Content: content}
}

func (h *Handler) count(command, result string) {
	metrics.CommandsTotal.WithLabelValues(command, result).Inc()
}
