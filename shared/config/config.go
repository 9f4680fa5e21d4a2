// shared/config/config.go
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Ftotnem/DAYZ-BOT/shared/leaderboard"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIBaseURL      = "https://data.cfcloud.net"
	DefaultPlayerDataCount = 15
	MinPlayerDataCount     = 10
	MaxPlayerDataCount     = 25

	DefaultAutoPostPlayerLimit = 100
	MinAutoPostPlayerLimit     = 10
	MaxAutoPostPlayerLimit     = 100
	DefaultAutoPostInterval    = 60 // minutes

	// LegacyServerName names the server synthesized from CFTOOLS_SERVER_API_ID.
	LegacyServerName = "default"
)

var (
	ErrMissingDiscordToken = errors.New("DISCORD_BOT_TOKEN is not set")
	ErrMissingCredentials  = errors.New("CFTOOLS_API_APPLICATION_ID and CFTOOLS_API_SECRET must be set")
	ErrNoServers           = errors.New("no servers configured")
)

// AutoPost configures the scheduled leaderboard for one server.
type AutoPost struct {
	Enabled           bool   `yaml:"enabled"`
	ChannelID         string `yaml:"channel_id"`
	IntervalMinutes   int    `yaml:"interval_minutes"`
	RemoveOldMessages bool   `yaml:"remove_old_messages"`
	PlayerLimit       int    `yaml:"player_limit"`
}

// Interval returns the configured tick interval.
func (a AutoPost) Interval() time.Duration {
	return time.Duration(a.IntervalMinutes) * time.Minute
}

// Server is one named stats-provider scope plus its auto-post destination.
type Server struct {
	Name        string   `yaml:"name"`
	ServerAPIID string   `yaml:"server_api_id"`
	AutoPost    AutoPost `yaml:"auto_lb"`
}

// serverFile accepts the upper-case key used by older servers.json files.
type serverFile struct {
	Server            Server `yaml:",inline"`
	LegacyServerAPIID string `yaml:"CFTOOLS_SERVER_API_ID"`
}

// Config is assembled once by Load and passed down to every component.
type Config struct {
	DiscordToken       string
	DiscordTestGuildID string

	APIApplicationID string
	APISecret        string
	APIBaseURL       string
	PlayerDataCount  int
	CacheTTL         time.Duration

	StatOptions []leaderboard.Statistic
	ShowHint    bool

	Debug                bool
	DebugLeaderboardData bool
	DebugStatData        bool
	Production           bool

	HealthListenAddr string
	Location         *time.Location

	RedisAddrs    []string
	RedisPassword string

	MongoDBConnStr            string
	MongoDBDatabase           string
	MongoDBIdentityCollection string

	HeartbeatInterval time.Duration
	HeartbeatTTL      time.Duration

	Servers   []Server
	Blacklist []string
}

// Options are the file locations and overrides collected from flags.
type Options struct {
	ServersFile   string
	BlacklistFile string
	ListenAddr    string
}

// Load reads the environment and the optional server and blacklist files.
func Load(opts Options) (*Config, error) {
	cfg := &Config{
		DiscordToken:              os.Getenv("DISCORD_BOT_TOKEN"),
		DiscordTestGuildID:        os.Getenv("DISCORD_TEST_GUILD_ID"),
		APIApplicationID:          os.Getenv("CFTOOLS_API_APPLICATION_ID"),
		APISecret:                 os.Getenv("CFTOOLS_API_SECRET"),
		APIBaseURL:                os.Getenv("CFTOOLS_API_BASE_URL"),
		RedisPassword:             os.Getenv("REDIS_PASSWORD"),
		MongoDBConnStr:            os.Getenv("MONGODB_CONN_STR"),
		MongoDBDatabase:           os.Getenv("MONGODB_DATABASE"),
		MongoDBIdentityCollection: os.Getenv("MONGODB_IDENTITY_COLLECTION"),
		Production:                os.Getenv("ENV") == "production",
	}
	var err error

	if cfg.DiscordToken == "" {
		return nil, ErrMissingDiscordToken
	}
	if cfg.APIApplicationID == "" || cfg.APISecret == "" {
		return nil, ErrMissingCredentials
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = DefaultAPIBaseURL
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")

	count, err := getInt("CFTOOLS_API_PLAYER_DATA_COUNT", DefaultPlayerDataCount)
	if err != nil || count < MinPlayerDataCount || count > MaxPlayerDataCount {
		// Out of range values fall back to the default rather than failing startup.
		count = DefaultPlayerDataCount
	}
	cfg.PlayerDataCount = count

	cfg.CacheTTL, err = getDuration("CACHE_TTL", 60*time.Second)
	if err != nil {
		return nil, err
	}

	cfg.StatOptions, err = parseStatOptions(os.Getenv("STAT_OPTIONS"))
	if err != nil {
		return nil, err
	}
	if cfg.ShowHint, err = getBool("LEADERBOARD_HINT_ENABLED", true); err != nil {
		return nil, err
	}
	if cfg.Debug, err = getBool("DEBUG_ENABLED", false); err != nil {
		return nil, err
	}
	if cfg.DebugLeaderboardData, err = getBool("DEBUG_LEADERBOARD_API_DATA", false); err != nil {
		return nil, err
	}
	if cfg.DebugStatData, err = getBool("DEBUG_STAT_COMMAND_DATA", false); err != nil {
		return nil, err
	}

	cfg.HealthListenAddr = opts.ListenAddr
	if cfg.HealthListenAddr == "" {
		cfg.HealthListenAddr = os.Getenv("HEALTH_LISTEN_ADDR")
	}
	if cfg.HealthListenAddr == "" {
		if port := os.Getenv("PORT"); port != "" {
			cfg.HealthListenAddr = net.JoinHostPort("", port)
		}
	}

	cfg.Location = time.Local
	if tz := os.Getenv("TIMEZONE"); tz != "" {
		cfg.Location, err = time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
		}
	}

	if addrs := os.Getenv("REDIS_ADDRS"); addrs != "" {
		for _, addr := range strings.Split(addrs, ",") {
			if addr = strings.TrimSpace(addr); addr != "" {
				cfg.RedisAddrs = append(cfg.RedisAddrs, addr)
			}
		}
	}
	if cfg.MongoDBConnStr != "" {
		if cfg.MongoDBDatabase == "" {
			cfg.MongoDBDatabase = "dayz_bot"
		}
		if cfg.MongoDBIdentityCollection == "" {
			cfg.MongoDBIdentityCollection = "identities"
		}
	}

	cfg.HeartbeatInterval, err = getDuration("HEARTBEAT_INTERVAL", 5*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.HeartbeatTTL, err = getDuration("HEARTBEAT_TTL", 15*time.Second)
	if err != nil {
		return nil, err
	}

	cfg.Servers, err = loadServers(opts.ServersFile)
	if err != nil {
		return nil, err
	}
	if len(cfg.Servers) == 0 {
		return nil, ErrNoServers
	}

	cfg.Blacklist, err = LoadBlacklist(opts.BlacklistFile)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadServers reads the servers file, or synthesizes one server from the
// legacy single-server variables when the file does not exist.
func loadServers(path string) ([]Server, error) {
	var raw []serverFile
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &raw); err != nil {
				return nil, fmt.Errorf("failed to parse servers file %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
			raw = nil
		default:
			return nil, fmt.Errorf("failed to read servers file %s: %w", path, err)
		}
	}

	if raw == nil {
		legacy, err := legacyServer()
		if err != nil {
			return nil, err
		}
		if legacy == nil {
			return nil, nil
		}
		return []Server{normalizeServer(*legacy)}, nil
	}

	servers := make([]Server, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, entry := range raw {
		s := entry.Server
		if s.ServerAPIID == "" {
			s.ServerAPIID = entry.LegacyServerAPIID
		}
		s.Name = strings.TrimSpace(s.Name)
		if s.Name == "" || s.ServerAPIID == "" {
			continue
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("duplicate server name %q in %s", s.Name, path)
		}
		seen[s.Name] = true
		servers = append(servers, normalizeServer(s))
	}
	return servers, nil
}

func legacyServer() (*Server, error) {
	id := os.Getenv("CFTOOLS_SERVER_API_ID")
	if id == "" {
		return nil, nil
	}
	s := &Server{Name: LegacyServerName, ServerAPIID: id}
	var err error
	if s.AutoPost.Enabled, err = getBool("AUTO_LB_ENABLED", false); err != nil {
		return nil, err
	}
	if s.AutoPost.RemoveOldMessages, err = getBool("AUTO_LB_REMOVE_OLD_MESSAGES", false); err != nil {
		return nil, err
	}
	s.AutoPost.ChannelID = os.Getenv("AUTO_LB_CHANNEL_ID")
	if s.AutoPost.IntervalMinutes, err = getInt("AUTO_LB_INTERVAL_IN_MINUTES", DefaultAutoPostInterval); err != nil {
		return nil, err
	}
	// An unparsable player limit is reset to the default during normalization.
	s.AutoPost.PlayerLimit, _ = getInt("AUTO_LB_PLAYER_LIMIT", DefaultAutoPostPlayerLimit)
	return s, nil
}

func normalizeServer(s Server) Server {
	s.AutoPost.ChannelID = strings.TrimSpace(s.AutoPost.ChannelID)
	if s.AutoPost.IntervalMinutes <= 0 {
		s.AutoPost.IntervalMinutes = DefaultAutoPostInterval
	}
	if s.AutoPost.PlayerLimit < MinAutoPostPlayerLimit || s.AutoPost.PlayerLimit > MaxAutoPostPlayerLimit {
		s.AutoPost.PlayerLimit = DefaultAutoPostPlayerLimit
	}
	return s
}

// LoadBlacklist reads a flat list of player IDs. A missing file yields an empty list.
func LoadBlacklist(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read blacklist file %s: %w", path, err)
	}
	var ids []string
	if err := yaml.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("failed to parse blacklist file %s: %w", path, err)
	}
	return ids, nil
}

func parseStatOptions(value string) ([]leaderboard.Statistic, error) {
	if strings.TrimSpace(value) == "" {
		return append([]leaderboard.Statistic(nil), leaderboard.Statistics...), nil
	}
	var stats []leaderboard.Statistic
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		stat, err := leaderboard.ParseStatistic(part)
		if err != nil {
			return nil, fmt.Errorf("invalid STAT_OPTIONS entry: %w", err)
		}
		stats = append(stats, stat)
	}
	return stats, nil
}

// Helper function to parse duration from environment variable
func getDuration(envKey string, defaultVal time.Duration) (time.Duration, error) {
	valStr := os.Getenv(envKey)
	if valStr == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(valStr)
	if err != nil {
		return 0, fmt.Errorf("invalid duration format for %s: %w", envKey, err)
	}
	return d, nil
}

// Helper function to parse int from environment variable
func getInt(envKey string, defaultVal int) (int, error) {
	valStr := os.Getenv(envKey)
	if valStr == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(strings.TrimSpace(valStr))
	if err != nil {
		return defaultVal, fmt.Errorf("invalid integer format for %s: %w", envKey, err)
	}
	return i, nil
}

func getBool(envKey string, defaultVal bool) (bool, error) {
	valStr := os.Getenv(envKey)
	if valStr == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(valStr))
	if err != nil {
		return false, fmt.Errorf("invalid boolean format for %s: %w", envKey, err)
	}
	return b, nil
}
