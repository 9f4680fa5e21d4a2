// bot/autopost/scheduler.go

// Package autopost posts the overall leaderboard to configured channels on a timer.
package autopost

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/Ftotnem/DAYZ-BOT/bot/discord"
	"github.com/Ftotnem/DAYZ-BOT/shared/cftools"
	"github.com/Ftotnem/DAYZ-BOT/shared/display"
	"github.com/Ftotnem/DAYZ-BOT/shared/leaderboard"
	"github.com/Ftotnem/DAYZ-BOT/shared/metrics"
	"github.com/Ftotnem/DAYZ-BOT/shared/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	fetchLimit          = 100
	defaultCycleTimeout = 2 * time.Minute
	defaultInterval     = 60 * time.Minute
)

// ErrNoData is returned by RunCycle when there is nothing to post.
var ErrNoData = errors.New("no leaderboard data")

// Fetcher is the leaderboard source of one destination. *cftools.Client satisfies it.
type Fetcher interface {
	Leaderboard(ctx context.Context, order cftools.Order, statistic string, limit int) ([]models.LeaderboardEntry, error)
}

// Sink delivers pages. *discord.Sink satisfies it.
type Sink interface {
	Send(ctx context.Context, channelID string, pages []display.Page) (int, error)
	Purge(ctx context.Context, channelID string, cutoff time.Time) (int, error)
	ChannelGuild(ctx context.Context, channelID string) (discord.GuildInfo, error)
}

// Responsibility decides which instance runs a destination. *cluster.AssignmentManager satisfies it.
type Responsibility interface {
	IsResponsible(destination string) (bool, error)
}

// Destination is one server's scheduled post target.
type Destination struct {
	Name              string
	ChannelID         string
	Interval          time.Duration
	RemoveOldMessages bool
	PlayerLimit       int
	Fetcher           Fetcher
}

// Options configure a Scheduler. Assignment may be nil for a single instance.
type Options struct {
	Destinations []Destination
	Sink         Sink
	Blacklist    leaderboard.Blacklist
	Assignment   Responsibility
	Hint         string
	ShowHint     bool
	CycleTimeout time.Duration
}

// Scheduler runs one independent loop per destination.
type Scheduler struct {
	opts   Options
	logger *zap.SugaredLogger
	now    func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

func NewScheduler(opts Options, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.CycleTimeout <= 0 {
		opts.CycleTimeout = defaultCycleTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		opts:   opts,
		logger: logger.Sugar(),
		now:    time.Now,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start runs every valid destination until Stop is called. It blocks.
func (s *Scheduler) Start() error {
	g, ctx := errgroup.WithContext(s.ctx)

	started := 0
	for _, d := range s.opts.Destinations {
		if err := discord.ValidateChannelID(d.ChannelID); err != nil {
			s.logger.Warnw("Skipping auto leaderboard destination", "destination", d.Name, "error", err)
			metrics.AutoPostCyclesTotal.WithLabelValues(d.Name, metrics.ResultSkipped).Inc()
			continue
		}
		if d.Interval <= 0 {
			d.Interval = defaultInterval
		}
		started++
		d := d // per-iteration copy; the module builds with go 1.21 loop semantics
		g.Go(func() error {
			s.loop(ctx, d)
			return nil
		})
	}

	if started == 0 {
		s.logger.Info("Automatic leaderboard posting disabled, no destinations")
	}
	return g.Wait()
}

// Stop ends every destination loop. In-flight cycles are cancelled.
func (s *Scheduler) Stop() {
	s.cancel()
}

func (s *Scheduler) loop(ctx context.Context, d Destination) {
	s.logger.Infow("Auto leaderboard scheduled", "destination", d.Name, "channel", d.ChannelID, "interval", d.Interval)

	ticker := time.NewTicker(d.Interval)
	defer ticker.Stop()

	s.tick(ctx, d)
	for {
		select {
		case <-ctx.Done():
			s.logger.Infow("Auto leaderboard stopping", "destination", d.Name)
			return
		case <-ticker.C:
			s.tick(ctx, d)
		}
	}
}

// tick runs one guarded cycle when this instance owns the destination.
func (s *Scheduler) tick(ctx context.Context, d Destination) {
	if s.opts.Assignment != nil {
		ok, err := s.opts.Assignment.IsResponsible(d.Name)
		if err != nil {
			s.logger.Warnw("Failed to check destination ownership", "destination", d.Name, "error", err)
			return
		}
		if !ok {
			s.logger.Debugw("Destination owned by another instance", "destination", d.Name)
			return
		}
	}

	cycleID := uuid.New().String()
	log := s.logger.With("destination", d.Name, "cycle", cycleID)
	start := s.now()

	sent, err := s.safeCycle(ctx, d)
	switch {
	case errors.Is(err, ErrNoData):
		log.Infow("No leaderboard data to post")
		metrics.AutoPostCyclesTotal.WithLabelValues(d.Name, metrics.ResultEmpty).Inc()
	case err != nil:
		log.Errorw("Auto leaderboard cycle failed", "error", err, "pages_sent", sent)
		metrics.AutoPostCyclesTotal.WithLabelValues(d.Name, metrics.ResultError).Inc()
	default:
		log.Infow("Auto leaderboard posted", "pages", sent, "duration", s.now().Sub(start))
		metrics.AutoPostCyclesTotal.WithLabelValues(d.Name, metrics.ResultOK).Inc()
	}
	metrics.AutoPostPagesSent.Add(float64(sent))
}

// safeCycle bounds a cycle by the cycle timeout and turns a panic into an error.
func (s *Scheduler) safeCycle(ctx context.Context, d Destination) (sent int, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.CycleTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in auto leaderboard cycle: %v\n%s", r, debug.Stack())
		}
	}()
	return s.RunCycle(ctx, d)
}

// RunCycle purges (when enabled), fetches, filters and posts the overall
// leaderboard for d. It returns the number of pages sent.
func (s *Scheduler) RunCycle(ctx context.Context, d Destination) (int, error) {
	if d.RemoveOldMessages {
		n, err := s.opts.Sink.Purge(ctx, d.ChannelID, s.now().Add(-discord.PurgeWindow))
		if err != nil {
			// A failed purge does not block the new post.
			s.logger.Warnw("Failed to clean channel", "destination", d.Name, "channel", d.ChannelID, "error", err)
		} else {
			s.logger.Debugw("Cleaned channel", "destination", d.Name, "deleted", n)
		}
	}

	entries, err := d.Fetcher.Leaderboard(ctx, cftools.Ascending, leaderboard.Overall.APIName(), fetchLimit)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch leaderboard data: %w", err)
	}
	if len(entries) == 0 {
		return 0, ErrNoData
	}

	entries = leaderboard.Filter(entries, s.opts.Blacklist)
	if len(entries) == 0 {
		return 0, ErrNoData
	}
	if d.PlayerLimit > 0 && len(entries) > d.PlayerLimit {
		entries = entries[:d.PlayerLimit]
	}

	guild, err := s.opts.Sink.ChannelGuild(ctx, d.ChannelID)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve channel: %w", err)
	}

	pages := leaderboard.BuildPages(entries, leaderboard.Overall, leaderboard.MaxRowsPerPage, true, leaderboard.Options{
		Header:   display.Header{Title: leaderboard.Title(leaderboard.Overall, guild.Name), IconURL: guild.IconURL},
		Hint:     s.opts.Hint,
		ShowHint: s.opts.ShowHint,
	})
	return s.opts.Sink.Send(ctx, d.ChannelID, pages)
}
