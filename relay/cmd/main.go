package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/soundbus/audio-relay/internal/config"
	"github.com/soundbus/audio-relay/internal/httputil"
	"github.com/soundbus/audio-relay/internal/jwt"
	"github.com/soundbus/audio-relay/internal/log"
	"github.com/soundbus/audio-relay/internal/otel"
	"github.com/soundbus/audio-relay/internal/redisutil"
	"github.com/soundbus/audio-relay/internal/retry"
	"github.com/soundbus/audio-relay/internal/rpc/wsrpc"
	"github.com/soundbus/audio-relay/internal/workflow"
	"github.com/soundbus/audio-relay/relay"
	"github.com/soundbus/audio-relay/relay/directory"
	"github.com/soundbus/audio-relay/relay/session"
	"github.com/soundbus/audio-relay/relay/signal"
	"github.com/soundbus/audio-relay/relay/transport"
)

type Config struct {
	App       config.App       `mapstructure:"app"`
	WSHttp    httputil.Config  `mapstructure:"ws_http"`
	AdminHttp httputil.Config  `mapstructure:"admin_http"`
	Redis     redisutil.Config `mapstructure:"redis"`
	Otel      otel.Config      `mapstructure:"otel"`

	// Directory selects room membership storage: "memory" or "redis".
	Directory   string `mapstructure:"directory"`
	RedisPrefix string `mapstructure:"redis_prefix"`

	// JWTSecret enables connection auth when non-empty.
	JWTSecret string `mapstructure:"jwt_secret"`

	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func loadConfig() (*Config, error) {
	return config.Load(&Config{}, func(v *viper.Viper) {
		v.SetDefault("directory", "memory")
		v.SetDefault("redis_prefix", "relay")
		v.SetDefault("jwt_secret", "")
		v.SetDefault("allowed_origins", []string{"*"})

		config.Setup(v, "app")
		httputil.Setup(v, "ws_http")
		httputil.Setup(v, "admin_http")
		redisutil.Setup(v, "redis")
		otel.Setup(v, "otel")

		v.SetDefault("ws_http.addr", "0.0.0.0:8081")
		v.SetDefault("admin_http.addr", "0.0.0.0:8080")
	})
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatal("Failed to load configuration", err)
	}

	logger, err := log.New(cfg.App.LogConfigFile)
	if err != nil {
		log.Fatal("Failed to create logger", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	otelShutdown, err := otel.Init(ctx, &cfg.Otel, logger)
	if err != nil {
		logger.Fatal("Failed to initialize OTEL provider", log.Error(err))
	}

	logger.Info("Starting audio relay...")

	var dir relay.Directory
	var closeRedis func() error
	switch cfg.Directory {
	case "redis":
		client := redisutil.NewClient(&cfg.Redis)
		probe := retry.New(logger.Module("Redis"), 500*time.Millisecond, 5*time.Second, 30*time.Second)
		if err := probe.Do(ctx, func() error { return redisutil.Ping(client) }); err != nil {
			logger.Fatal("Failed to connect to Redis", log.Error(err))
		}
		dir = directory.NewRedis(client, cfg.RedisPrefix)
		closeRedis = client.Close
	case "memory":
		dir = directory.NewMemory()
	default:
		logger.Fatal("Unknown directory backend", log.String("directory", cfg.Directory))
	}

	var auth jwt.Auth
	if cfg.JWTSecret != "" {
		auth = jwt.NewAuth(cfg.JWTSecret)
	}

	sess := session.NewState()
	connMgr := signal.NewConnManager(dir, logger.Module("ConnMgr"))
	hook := signal.NewWSHook(auth, sess, dir, connMgr, logger.Module("WSHook"))
	wsRPCServer := wsrpc.NewServer(hook, cfg.AllowedOrigins, logger.Module("WSRPC"))
	signal.NewServer(wsRPCServer, sess, dir, connMgr, logger.Module("Signal"))

	wsMux := http.NewServeMux()
	wsMux.HandleFunc("/ws", wsRPCServer.HandleWebSocket)
	wsServer := httputil.NewServer(&cfg.WSHttp, wsMux)

	router := transport.NewRouter(sess, dir, logger.Module("AdminAPI"))
	adminServer := httputil.NewServer(&cfg.AdminHttp, router.Handler())

	reporter := signal.NewReporter(clockwork.NewRealClock(), sess, dir, logger.Module("Reporter"))

	runCtx, cancel := context.WithCancel(ctx)
	g, runCtx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		logger.Info("WebSocket server listening", log.String("addr", cfg.WSHttp.Addr))
		if err := wsServer.Listen(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("Admin API listening", log.String("addr", cfg.AdminHttp.Addr))
		if err := adminServer.Listen(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		reporter.Run(runCtx)
		return nil
	})

	cleanup := func(ctx context.Context) {
		cancel()
		_ = wsServer.Shutdown(ctx)
		_ = adminServer.Shutdown(ctx)
		if err := g.Wait(); err != nil {
			logger.Error("Server stopped with error", log.Error(err))
		}
		if closeRedis != nil {
			if err := closeRedis(); err != nil {
				logger.Error("Error closing Redis client", log.Error(err))
			}
		}
		if err := otelShutdown(ctx); err != nil {
			logger.Error("Failed to shutdown OTEL", log.Error(err))
		}
	}
	workflow.WaitGracefulShutdown(ctx, logger.Module("CleanUp"), cleanup, cfg.App.ShutdownTimeout)
}
