package autopost

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
	"github.com/Ftotnem/DAYZ-BOT/shared/display"
	"github.com/Ftotnem/DAYZ-BOT/shared/leaderboard"
	"github.com/Ftotnem/DAYZ-BOT/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeFetcher struct {
	entries []models.LeaderboardEntry
	err     error
	panics  bool

	mu    sync.Mutex
	calls []string
}

func (f *fakeFetcher) Leaderboard(ctx context.Context, order cftools.Order, statistic string, limit int) ([]models.LeaderboardEntry, error) {
	f.mu.Lock()
	f.calls = append(f.calls, fmt.Sprintf("%s/%s/%d", order, statistic, limit))
	f.mu.Unlock()
	if f.panics {
		panic("decoder blew up")
	}
	return f.entries, f.err
}

type fakeSink struct {
	mu      sync.Mutex
	sent    map[string][]display.Page
	purged  []string
	cutoffs []time.Time
	notify  chan string
}

func newFakeSink() *fakeSink {
	return &fakeSink{sent: map[string][]display.Page{}, notify: make(chan string, 16)}
}

func (f *fakeSink) Send(ctx context.Context, channelID string, pages []display.Page) (int, error) {
	f.mu.Lock()
	f.sent[channelID] = append(f.sent[channelID], pages...)
	f.mu.Unlock()
	f.notify <- channelID
	return len(pages), nil
}

func (f *fakeSink) Purge(ctx context.Context, channelID string, cutoff time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.purged = append(f.purged, channelID)
	f.cutoffs = append(f.cutoffs, cutoff)
	return 0, nil
}

func (f *fakeSink) ChannelGuild(ctx context.Context, channelID string) (discord.GuildInfo, error) {
	return discord.GuildInfo{Name: "Survivors", IconURL: "https://cdn/icon.png"}, nil
}

func makeEntries(n int) []models.LeaderboardEntry {
	out := make([]models.LeaderboardEntry, n)
	for i := range out {
		out[i] = models.LeaderboardEntry{
			ID:     fmt.Sprintf("id-%d", i),
			Name:   fmt.Sprintf("Player%d", i),
			Kills:  100 - i,
			Deaths: i,
		}
	}
	return out
}

func countRows(pages []display.Page) int {
	n := 0
	for _, p := range pages {
		n += len(p.Rows)
	}
	return n
}

func TestRunCyclePostsAllPages(t *testing.T) {
	sink := newFakeSink()
	fetcher := &fakeFetcher{entries: makeEntries(100)}
	s := NewScheduler(Options{
		Sink:      sink,
		Blacklist: leaderboard.NewBlacklist([]string{"id-0", "id-5"}),
		Hint:      leaderboard.DefaultHint,
		ShowHint:  true,
	}, zap.NewNop())
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	d := Destination{Name: "chernarus", ChannelID: "123", RemoveOldMessages: true, PlayerLimit: 100, Fetcher: fetcher}
	sent, err := s.RunCycle(context.Background(), d)
	require.NoError(t, err)

	pages := sink.sent["123"]
	assert.Equal(t, len(pages), sent)
	assert.Equal(t, 4, len(pages))
	assert.Equal(t, 98, countRows(pages))
	for _, p := range pages {
		assert.LessOrEqual(t, len(p.Rows), leaderboard.MaxRowsPerPage)
		assert.Less(t, p.Len(), leaderboard.MaxPageChars)
	}

	require.NotNil(t, pages[0].Header)
	assert.Equal(t, "Overall Leaderboard for Survivors", pages[0].Header.Title)
	assert.Nil(t, pages[1].Header)
	require.NotNil(t, pages[3].Footer)
	assert.Nil(t, pages[0].Footer)
	assert.True(t, strings.HasSuffix(pages[0].Rows[0].Label, "Player1"))

	assert.Equal(t, []string{"ASC/kills/100"}, fetcher.calls)
	assert.Equal(t, []string{"123"}, sink.purged)
	assert.Equal(t, now.Add(-discord.PurgeWindow), sink.cutoffs[0])
}

func TestRunCycleRespectsPlayerLimit(t *testing.T) {
	sink := newFakeSink()
	s := NewScheduler(Options{Sink: sink}, zap.NewNop())

	d := Destination{Name: "a", ChannelID: "1", PlayerLimit: 30, Fetcher: &fakeFetcher{entries: makeEntries(100)}}
	_, err := s.RunCycle(context.Background(), d)
	require.NoError(t, err)

	pages := sink.sent["1"]
	require.Len(t, pages, 2)
	assert.Len(t, pages[0].Rows, 25)
	assert.Len(t, pages[1].Rows, 5)
	assert.Empty(t, sink.purged)
}

func TestRunCycleEmptyAndErrors(t *testing.T) {
	sink := newFakeSink()
	s := NewScheduler(Options{Sink: sink, Blacklist: leaderboard.NewBlacklist([]string{"id-0"})}, zap.NewNop())

	_, err := s.RunCycle(context.Background(), Destination{ChannelID: "1", Fetcher: &fakeFetcher{}})
	assert.ErrorIs(t, err, ErrNoData)

	_, err = s.RunCycle(context.Background(), Destination{ChannelID: "1", Fetcher: &fakeFetcher{entries: makeEntries(1)}})
	assert.ErrorIs(t, err, ErrNoData)

	boom := errors.New("provider down")
	_, err = s.RunCycle(context.Background(), Destination{ChannelID: "1", Fetcher: &fakeFetcher{err: boom}})
	assert.ErrorIs(t, err, boom)

	assert.Empty(t, sink.sent)
}

func TestSafeCycleRecoversPanic(t *testing.T) {
	s := NewScheduler(Options{Sink: newFakeSink()}, zap.NewNop())
	_, err := s.safeCycle(context.Background(), Destination{ChannelID: "1", Fetcher: &fakeFetcher{panics: true}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoder blew up")
}

type denyAll struct{}

func (denyAll) IsResponsible(string) (bool, error) { return false, nil }

func TestStartRunsDestinationsIndependently(t *testing.T) {
	sink := newFakeSink()
	good := &fakeFetcher{entries: makeEntries(10)}
	broken := &fakeFetcher{panics: true}

	s := NewScheduler(Options{
		Sink: sink,
		Destinations: []Destination{
			{Name: "broken", ChannelID: "111", Interval: time.Hour, Fetcher: broken},
			{Name: "good", ChannelID: "222", Interval: time.Hour, Fetcher: good},
			{Name: "misconfigured", ChannelID: "not-a-channel", Interval: time.Hour, Fetcher: good},
		},
	}, zap.NewNop())

	done := make(chan error, 1)
	go func() { done <- s.Start() }()

	select {
	case ch := <-sink.notify:
		assert.Equal(t, "222", ch)
	case <-time.After(5 * time.Second):
		t.Fatal("first cycle did not run immediately")
	}

	s.Stop()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}

	good.mu.Lock()
	assert.Len(t, good.calls, 1)
	good.mu.Unlock()
}

func TestTickSkipsForeignDestination(t *testing.T) {
	sink := newFakeSink()
	fetcher := &fakeFetcher{entries: makeEntries(10)}
	s := NewScheduler(Options{Sink: sink, Assignment: denyAll{}}, zap.NewNop())

	s.tick(context.Background(), Destination{Name: "a", ChannelID: "1", Fetcher: fetcher})
	assert.Empty(t, fetcher.calls)
	assert.Empty(t, sink.sent)
}
