// shared/cftools/client.go

// Package cftools talks to the CFTools Data API.
package cftools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Ftotnem/DAYZ-BOT/shared/api"
	"github.com/Ftotnem/DAYZ-BOT/shared/metrics"
	"github.com/Ftotnem/DAYZ-BOT/shared/models"
	sharedredis "github.com/Ftotnem/DAYZ-BOT/shared/redis"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrPlayerNotFound means the provider has no accessible record for the ID.
var ErrPlayerNotFound = errors.New("player not found")

// Order is the leaderboard sort direction.
type Order string

const (
	Ascending  Order = "ASC"
	Descending Order = "DESC"
)

// param maps the direction to the provider's order parameter. The provider
// ranks best-first when asked for -1.
func (o Order) param() string {
	if o == Descending {
		return "1"
	}
	return "-1"
}

// Cache stores decoded responses. *redis.ResponseCache satisfies it.
type Cache interface {
	Get(ctx context.Context, key string, dst interface{}) error
	Set(ctx context.Context, key string, value interface{}) error
}

// Client is scoped to one provider server.
type Client struct {
	api      *api.Client
	tokens   *TokenCache
	serverID string
	limiter  *rate.Limiter
	cache    Cache
	loc      *time.Location
	logger   *zap.SugaredLogger
}

// NewClient builds a server scoped client. The api client, token cache and
// limiter may be shared between servers. cache may be nil. loc is used for
// provider timestamps that carry no zone; nil means time.Local.
func NewClient(apiClient *api.Client, tokens *TokenCache, serverID string, limiter *rate.Limiter, cache Cache, loc *time.Location, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &Client{
		api:      apiClient,
		tokens:   tokens,
		serverID: serverID,
		limiter:  limiter,
		cache:    cache,
		loc:      loc,
		logger:   logger.Sugar().With("server_api_id", serverID),
	}
}

// ServerID returns the provider scope of this client.
func (c *Client) ServerID() string {
	return c.serverID
}

type leaderboardResponse struct {
	Status      bool                      `json:"status"`
	Error       string                    `json:"error"`
	Leaderboard []models.LeaderboardEntry `json:"leaderboard"`
}

// Leaderboard fetches up to limit ranked entries for the statistic.
func (c *Client) Leaderboard(ctx context.Context, order Order, statistic string, limit int) ([]models.LeaderboardEntry, error) {
	key := sharedredis.LeaderboardKey(c.serverID, statistic, order.param(), limit)
	var entries []models.LeaderboardEntry
	if c.cached(ctx, key, &entries) {
		return entries, nil
	}

	query := url.Values{}
	query.Set("stat", statistic)
	query.Set("order", order.param())
	query.Set("limit", strconv.Itoa(limit))

	var resp leaderboardResponse
	path := fmt.Sprintf("/v1/server/%s/leaderboard", url.PathEscape(c.serverID))
	if err := c.get(ctx, "leaderboard", path, query, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch %s leaderboard: %w", statistic, err)
	}
	if !resp.Status && resp.Error != "" {
		return nil, fmt.Errorf("failed to fetch %s leaderboard: %s", statistic, resp.Error)
	}

	c.store(ctx, key, resp.Leaderboard)
	return resp.Leaderboard, nil
}

type playerWire struct {
	Omega struct {
		NameHistory []string `json:"name_history"`
		Playtime    int64    `json:"playtime"`
		Sessions    int      `json:"sessions"`
	} `json:"omega"`
	Game struct {
		General struct {
			Deaths      int                `json:"deaths"`
			Hits        int                `json:"hits"`
			KDRatio     float64            `json:"kdratio"`
			Kills       int                `json:"kills"`
			Suicides    int                `json:"suicides"`
			LongestKill float64            `json:"longest_kill"`
			LongestShot float64            `json:"longest_shot"`
			Weapons     models.WeaponKills `json:"weapons"`
		} `json:"general"`
	} `json:"game"`
	UpdatedAt string `json:"updated_at"`
}

// Zone-less layouts are read in the client's location.
var updatedAtLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// parseUpdatedAt reports false when value matches none of the known layouts.
func parseUpdatedAt(value string, loc *time.Location) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, true
	}
	for _, layout := range updatedAtLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func (w playerWire) toModel(id string) *models.PlayerStats {
	g := w.Game.General
	stats := &models.PlayerStats{
		ID:          id,
		NameHistory: w.Omega.NameHistory,
		Deaths:      g.Deaths,
		Hits:        g.Hits,
		KDRatio:     g.KDRatio,
		Kills:       g.Kills,
		Suicides:    g.Suicides,
		LongestKill: g.LongestKill,
		LongestShot: g.LongestShot,
		Weapons:     g.Weapons,
		Playtime:    w.Omega.Playtime,
		Sessions:    w.Omega.Sessions,
	}
	return stats
}

// PlayerDetails fetches the detailed record for a canonical ID.
// Unknown or private players yield ErrPlayerNotFound.
func (c *Client) PlayerDetails(ctx context.Context, cftoolsID string) (*models.PlayerStats, error) {
	key := sharedredis.PlayerKey(c.serverID, cftoolsID)
	var cachedStats models.PlayerStats
	if c.cached(ctx, key, &cachedStats) {
		return &cachedStats, nil
	}

	query := url.Values{}
	query.Set("cftools_id", cftoolsID)

	// The body is keyed by the requested ID, next to a "status" flag.
	var body map[string]json.RawMessage
	path := fmt.Sprintf("/v2/server/%s/player", url.PathEscape(c.serverID))
	err := c.get(ctx, "player", path, query, &body)
	switch {
	case errors.Is(err, api.ErrNotFound), errors.Is(err, api.ErrBadRequest), errors.Is(err, api.ErrForbidden):
		return nil, fmt.Errorf("%w: %s", ErrPlayerNotFound, cftoolsID)
	case err != nil:
		return nil, fmt.Errorf("failed to fetch player %s: %w", cftoolsID, err)
	}

	if rawStatus, ok := body["status"]; ok {
		var status bool
		if err := json.Unmarshal(rawStatus, &status); err == nil && !status {
			return nil, fmt.Errorf("%w: %s", ErrPlayerNotFound, cftoolsID)
		}
	}
	rawPlayer, ok := body[cftoolsID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPlayerNotFound, cftoolsID)
	}

	var wire playerWire
	if err := json.Unmarshal(rawPlayer, &wire); err != nil {
		return nil, fmt.Errorf("failed to decode player %s: %w", cftoolsID, err)
	}
	stats := wire.toModel(cftoolsID)
	if wire.UpdatedAt != "" {
		t, ok := parseUpdatedAt(wire.UpdatedAt, c.loc)
		if ok {
			stats.UpdatedAt = t
		} else {
			c.logger.Warnw("Unrecognized player updated_at timestamp", "cftools_id", cftoolsID, "updated_at", wire.UpdatedAt)
		}
	}

	c.store(ctx, key, stats)
	return stats, nil
}

type lookupResponse struct {
	Status    bool   `json:"status"`
	CFToolsID string `json:"cftools_id"`
}

// LookupCanonicalID maps a platform identifier (Steam64, BattlEye GUID, ...)
// to a CFTools ID. An unknown identifier is ("", false, nil).
func (c *Client) LookupCanonicalID(ctx context.Context, identifier string) (string, bool, error) {
	query := url.Values{}
	query.Set("identifier", identifier)

	var resp lookupResponse
	err := c.get(ctx, "lookup", "/v1/users/lookup", query, &resp)
	switch {
	case errors.Is(err, api.ErrNotFound), errors.Is(err, api.ErrBadRequest):
		return "", false, nil
	case err != nil:
		return "", false, fmt.Errorf("failed to look up identifier %s: %w", identifier, err)
	}
	if !resp.Status || resp.CFToolsID == "" {
		return "", false, nil
	}
	return resp.CFToolsID, true, nil
}

// get sends an authenticated GET, re-registering the token once on 401.
func (c *Client) get(ctx context.Context, endpoint, path string, query url.Values, result interface{}) error {
	err := c.getOnce(ctx, path, query, result)
	if errors.Is(err, errRetryAuth) {
		c.logger.Infow("API token rejected, registering a new one", "endpoint", endpoint)
		err = c.getOnce(ctx, path, query, result)
		if errors.Is(err, errRetryAuth) {
			err = fmt.Errorf("API token rejected after refresh: %w", api.ErrUnauthorized)
		}
	}

	outcome := metrics.ResultOK
	switch {
	case errors.Is(err, api.ErrNotFound):
		outcome = metrics.ResultNotFound
	case err != nil:
		outcome = metrics.ResultError
	}
	metrics.APIRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	return err
}

var errRetryAuth = errors.New("token rejected")

func (c *Client) getOnce(ctx context.Context, path string, query url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	err = c.api.Get(ctx, path, query, header, result)
	if errors.Is(err, api.ErrUnauthorized) {
		c.tokens.Invalidate(token)
		return errRetryAuth
	}
	return err
}

func (c *Client) cached(ctx context.Context, key string, dst interface{}) bool {
	if c.cache == nil {
		return false
	}
	err := c.cache.Get(ctx, key, dst)
	if err == nil {
		metrics.APICacheHitsTotal.Inc()
		return true
	}
	if !errors.Is(err, sharedredis.ErrRedisKeyNotFound) {
		c.logger.Warnw("Response cache read failed", "key", key, "error", err)
	}
	return false
}

func (c *Client) store(ctx context.Context, key string, value interface{}) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Set(ctx, key, value); err != nil {
		c.logger.Warnw("Response cache write failed", "key", key, "error", err)
	}
}
