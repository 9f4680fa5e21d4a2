// bot/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Ftotnem/DAYZ-BOT/bot/autopost"
	"github.com/Ftotnem/DAYZ-BOT/bot/commands"
	"github.com/Ftotnem/DAYZ-BOT/bot/discord"
	"github.com/Ftotnem/DAYZ-BOT/shared/api"
	"github.com/Ftotnem/DAYZ-BOT/shared/cftools"
	"github.com/Ftotnem/DAYZ-BOT/shared/cluster"
	"github.com/Ftotnem/DAYZ-BOT/shared/config"
	"github.com/Ftotnem/DAYZ-BOT/shared/identity"
	"github.com/Ftotnem/DAYZ-BOT/shared/leaderboard"
	"github.com/Ftotnem/DAYZ-BOT/shared/logging"
	mongodbu "github.com/Ftotnem/DAYZ-BOT/shared/mongodb"
	"github.com/Ftotnem/DAYZ-BOT/shared/playerstats"
	redisu "github.com/Ftotnem/DAYZ-BOT/shared/redis"
	"github.com/Ftotnem/DAYZ-BOT/shared/registry"
	"github.com/bwmarrin/discordgo"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// Provider requests shared across every server.
	apiRequestsPerSecond = 5
	apiBurst             = 10

	readyTimeout    = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	serversFile := pflag.String("servers", "config/servers.json", "path to the servers file")
	blacklistFile := pflag.String("blacklist", "config/blacklist.json", "path to the blacklist file")
	listenAddr := pflag.String("listen", "", "health and metrics listen address (overrides HEALTH_LISTEN_ADDR)")
	pflag.Parse()

	// --- 1. Load Configuration ---
	cfg, err := config.Load(config.Options{
		ServersFile:   *serversFile,
		BlacklistFile: *blacklistFile,
		ListenAddr:    *listenAddr,
	})
	if err != nil {
		// The logger depends on config, so this one goes to stderr.
		os.Stderr.WriteString("Failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Debug)
	if err != nil {
		os.Stderr.WriteString("Failed to build logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()
	sugar := logger.Sugar()
	sugar.Infow("Configuration loaded", "servers", len(cfg.Servers), "blacklisted", len(cfg.Blacklist), "production", cfg.Production)

	// --- 2. Optional Redis: response cache and instance coordination ---
	var cache cftools.Cache
	var assignment autopost.Responsibility
	if len(cfg.RedisAddrs) > 0 {
		rdb, err := redisu.NewUniversalClient(cfg.RedisAddrs, cfg.RedisPassword, logger)
		if err != nil {
			sugar.Fatalw("Failed to connect to Redis", "error", err)
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				sugar.Errorw("Error closing Redis client", "error", err)
			}
		}()
		cache = redisu.NewResponseCache(rdb, cfg.CacheTTL)

		registrar := registry.NewInstanceRegistrar(rdb, registry.ServiceType, cfg.HeartbeatInterval, cfg.HeartbeatTTL, logger)
		registrar.Start()
		defer registrar.Stop()

		registryClient := registry.NewRegistryClient(rdb, registry.ServiceType, cfg.HeartbeatTTL, logger)
		manager := cluster.NewAssignmentManager(registryClient, registrar.InstanceID(), cfg.HeartbeatInterval, logger)
		go manager.Start()
		defer manager.Stop()
		assignment = manager
		sugar.Infow("Instance coordination enabled", "instance_id", registrar.InstanceID())
	}

	// --- 3. Optional MongoDB: remembered identifier mappings ---
	var identities identity.Store
	if cfg.MongoDBConnStr != "" {
		mongoClient, err := mongodbu.NewClient(cfg.MongoDBConnStr, cfg.MongoDBDatabase, logger)
		if err != nil {
			sugar.Fatalw("Failed to connect to MongoDB", "error", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := mongoClient.Disconnect(ctx); err != nil {
				sugar.Errorw("Failed to disconnect from MongoDB", "error", err)
			}
		}()
		identities = identity.NewMongoStore(mongoClient.Collection(cfg.MongoDBIdentityCollection))
	}

	// --- 4. Stats provider clients, one per server ---
	apiClient := api.NewClient(cfg.APIBaseURL, nil, logger)
	tokens := cftools.NewTokenCache(apiClient, cftools.Credentials{
		ApplicationID: cfg.APIApplicationID,
		Secret:        cfg.APISecret,
	})
	limiter := rate.NewLimiter(rate.Limit(apiRequestsPerSecond), apiBurst)
	servers := cftools.NewRegistry()
	for _, srv := range cfg.Servers {
		client := cftools.NewClient(apiClient, tokens, srv.ServerAPIID, limiter, cache, cfg.Location, logger.With(zap.String("server", srv.Name)))
		if err := servers.Add(srv.Name, client); err != nil {
			sugar.Fatalw("Failed to register server", "server", srv.Name, "error", err)
		}
	}

	// --- 5. Discord session ---
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		sugar.Fatalw("Failed to create Discord session", "error", err)
	}
	session.Client = &http.Client{Timeout: 20 * time.Second}
	session.Identify.Intents = discordgo.IntentsGuilds

	ready := make(chan struct{})
	session.AddHandlerOnce(func(s *discordgo.Session, r *discordgo.Ready) {
		sugar.Infow("Connected to Discord", "user", r.User.String(), "guilds", len(r.Guilds))
		close(ready)
	})
	if err := session.Open(); err != nil {
		sugar.Fatalw("Failed to open Discord gateway", "error", err)
	}
	defer session.Close()

	select {
	case <-ready:
	case <-time.After(readyTimeout):
		sugar.Fatalw("Timed out waiting for the Discord ready event", "timeout", readyTimeout)
	}
	botUserID := session.State.User.ID

	sink := discord.NewSink(session, botUserID, discord.DefaultColor, logger)
	handler := commands.NewHandler(commands.Options{
		Servers:              commands.RegistryServers(servers),
		Guilds:               sink,
		Blacklist:            leaderboard.NewBlacklist(cfg.Blacklist),
		Formatter:            playerstats.NewFormatter(cfg.Location),
		Store:                identities,
		PlayerLimit:          cfg.PlayerDataCount,
		Hint:                 leaderboard.DefaultHint,
		ShowHint:             cfg.ShowHint,
		Production:           cfg.Production,
		DebugLeaderboardData: cfg.DebugLeaderboardData,
		DebugStatData:        cfg.DebugStatData,
	}, logger)
	session.AddHandler(handler.OnInteraction)

	definitions := commands.Definitions(cfg.StatOptions, servers.Names())
	if _, err := session.ApplicationCommandBulkOverwrite(botUserID, cfg.DiscordTestGuildID, definitions); err != nil {
		sugar.Fatalw("Failed to register slash commands", "error", err)
	}
	sugar.Infow("Slash commands registered", "count", len(definitions), "guild", cfg.DiscordTestGuildID)

	// --- 6. Automatic leaderboard posting ---
	var destinations []autopost.Destination
	for _, srv := range cfg.Servers {
		if !srv.AutoPost.Enabled {
			continue
		}
		client, err := servers.Get(srv.Name)
		if err != nil {
			sugar.Fatalw("Failed to resolve auto leaderboard server", "server", srv.Name, "error", err)
		}
		destinations = append(destinations, autopost.Destination{
			Name:              srv.Name,
			ChannelID:         srv.AutoPost.ChannelID,
			Interval:          srv.AutoPost.Interval(),
			RemoveOldMessages: srv.AutoPost.RemoveOldMessages,
			PlayerLimit:       srv.AutoPost.PlayerLimit,
			Fetcher:           client,
		})
	}
	scheduler := autopost.NewScheduler(autopost.Options{
		Destinations: destinations,
		Sink:         sink,
		Blacklist:    leaderboard.NewBlacklist(cfg.Blacklist),
		Assignment:   assignment,
		Hint:         leaderboard.DefaultHint,
		ShowHint:     cfg.ShowHint,
	}, logger)
	go func() {
		if err := scheduler.Start(); err != nil {
			sugar.Errorw("Auto leaderboard scheduler stopped", "error", err)
		}
	}()

	// --- 7. Health and metrics endpoint ---
	var baseServer *api.BaseServer
	if cfg.HealthListenAddr != "" {
		baseServer = api.NewBaseServer(cfg.HealthListenAddr, logger)
		baseServer.RegisterHealthRoutes()
		go func() {
			sugar.Infow("HTTP server starting", "addr", cfg.HealthListenAddr)
			if err := baseServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				sugar.Fatalw("HTTP server failed", "error", err)
			}
		}()
	}

	// --- 8. Graceful Shutdown ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	sugar.Info("Shutting down bot...")
	scheduler.Stop()

	if baseServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := baseServer.Shutdown(shutdownCtx); err != nil {
			sugar.Errorw("HTTP server graceful shutdown failed", "error", err)
		}
	}
	sugar.Info("Bot gracefully shut down")
}
