package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/SAMIHZS/mafia-game/internal/auth"
	"github.com/SAMIHZS/mafia-game/internal/config"
	"github.com/SAMIHZS/mafia-game/internal/game"
	"github.com/SAMIHZS/mafia-game/internal/httpapi"
	"github.com/SAMIHZS/mafia-game/internal/storage"
	"github.com/SAMIHZS/mafia-game/internal/storage/migrations"
	"github.com/SAMIHZS/mafia-game/internal/ws"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	zerologlog "github.com/rs/zerolog/log"
)

const (
	version       = "v1.0.0-dev"
	sweepInterval = 5 * time.Minute
)

func main() {
	var (
		showHelp    = flag.Bool("help", false, "Show help message")
		showVersion = flag.Bool("version", false, "Show version information")
		portFlag    = flag.String("port", "", "Port to listen on (overrides PORT env var)")
		configFlag  = flag.String("config", "", "Path to a YAML config file")
	)
	flag.BoolVar(showHelp, "h", false, "Show help message (shorthand)")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	flag.Parse()

	if *showHelp {
		fmt.Printf(`Mafia - Real-time social deduction game server

Usage: %s [options]

Options:
  -h, --help       Show this help message
  -v, --version    Show version information
  --port PORT      Port to listen on (default: 8080 or PORT env var)
  --config FILE    YAML config file; environment variables override it

Environment Variables:
  PORT                        Port to listen on (default: 8080)
  LOG_LEVEL                   debug, info, warn or error (default: info)
  FRONTEND_URL                Allowed CORS origins, comma separated
  DEV_MODE                    Allow any origin (default: false)
  MIN_PLAYERS, MAX_PLAYERS    Room size bounds (default: 6, 20)
  NIGHT_DURATION_SECONDS      Night length (default: 30)
  DAY_DURATION_SECONDS        Day length (default: 60)
  ROLE_REVEAL_DELAY_SECONDS   Delay before the first night (default: 3)
  GRACE_PERIOD_SECONDS        Reconnect window after a drop (default: 10)
  ROOM_EXPIRY_MINUTES         Idle room lifetime (default: 30)
  ENABLE_DOCTOR               Deal doctor roles (default: true)
  ENABLE_DETECTIVE            Deal detective roles (default: true)
  JWT_SECRET                  Rejoin token key (random per process if unset)
  JWT_TTL_HOURS               Rejoin token lifetime (default: 24)
  DATABASE_URL                Postgres URL for game history (optional)
  REDIS_ADDR                  Redis address for live room snapshots (optional)
  EXPORT_ENABLED              Append finished games to a text file (default: false)
  EXPORT_FILE                 Export path (default: ./mafia-results.txt)
  JOIN_RATE_PER_MINUTE        Join attempts per client address (default: 10)

Examples:
  %s                  Start server with default settings
  %s --port 3000      Start server on port 3000

Visit http://localhost:8080 after starting the server.
`, os.Args[0], os.Args[0], os.Args[0])
		return
	}

	if *showVersion {
		fmt.Printf("Mafia %s\n", version)
		return
	}

	// zerolog setup (human-friendly console)
	zerolog.TimeFieldFormat = time.RFC3339
	cw := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	zerologlog.Logger = zerologlog.Output(cw)

	cfg, err := config.Load(*configFlag)
	if err != nil {
		zerologlog.Fatal().Err(err).Msg("load config")
	}
	if *portFlag != "" {
		cfg.Port = *portFlag
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && lvl != zerolog.NoLevel {
		zerolog.SetGlobalLevel(lvl)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	history, reader, closeStores := openHistory(ctx, cfg)
	defer closeStores()
	rooms, closeRooms := openRooms(ctx, cfg)
	defer closeRooms()

	// Socket hub + room directory
	hub := ws.NewHub()
	env := game.Env{
		Channel: hub,
		History: history,
		Timing:  cfg.Timing(),
		Logger:  &zerologlog.Logger,
	}
	if rooms != nil {
		env.Rooms = rooms
	}
	dir := game.NewDirectory(cfg.RoomSettings(), env)
	go dir.Run(ctx, sweepInterval)

	tokens, err := auth.NewTokenManager(jwtSecret(cfg), cfg.JWTTTL())
	if err != nil {
		zerologlog.Fatal().Err(err).Msg("token manager")
	}

	// Gin setup with custom logger (skip /socket.io noise)
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/socket.io") {
			return
		}
		status := c.Writer.Status()
		dur := time.Since(start)
		zerologlog.Info().Str("path", path).Int("status", status).Dur("dur", dur).Msg("http")
	})

	sock := ws.New(dir, hub, tokens, ws.NewJoinLimiter(cfg.JoinRatePerMinute))
	io := sock.Mount(r)
	defer io.Close()

	httpapi.New(dir, reader).Register(r, httpapi.CORS(cfg.AllowedOrigins()))

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zerologlog.Error().Err(err).Msg("shutdown")
		}
	}()

	zerologlog.Info().Str("port", cfg.Port).Str("version", version).Msg("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		zerologlog.Fatal().Err(err).Msg("serve")
	}
	for _, code := range dir.Codes() {
		dir.Delete(code)
	}
}

// openHistory wires every configured history sink. reader is nil unless
// Postgres is configured.
func openHistory(ctx context.Context, cfg config.Config) (game.HistoryStore, game.HistoryReader, func()) {
	var (
		sinks  storage.MultiHistory
		reader game.HistoryReader
	)
	closer := func() {}
	if cfg.DatabaseURL != "" {
		if err := migrations.Migrate(cfg.DatabaseURL); err != nil {
			zerologlog.Fatal().Err(err).Msg("migrate database")
		}
		pg, err := storage.NewPostgresHistory(ctx, cfg.DatabaseURL)
		if err != nil {
			zerologlog.Fatal().Err(err).Msg("connect database")
		}
		sinks = append(sinks, pg)
		reader = pg
		closer = pg.Close
	}
	if cfg.ExportEnabled {
		sinks = append(sinks, game.NewFileExporter(cfg.ExportFile))
		zerologlog.Info().Str("file", cfg.ExportFile).Msg("exporting finished games")
	}
	if len(sinks) == 0 {
		return nil, nil, closer
	}
	return sinks, reader, closer
}

func openRooms(ctx context.Context, cfg config.Config) (*storage.RedisRooms, func()) {
	if cfg.RedisAddr == "" {
		return nil, func() {}
	}
	rooms, err := storage.NewRedisRooms(ctx, storage.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		zerologlog.Fatal().Err(err).Msg("connect redis")
	}
	return rooms, func() {
		if err := rooms.Close(); err != nil {
			zerologlog.Warn().Err(err).Msg("close redis")
		}
	}
}

func jwtSecret(cfg config.Config) string {
	if cfg.JWTSecret != "" {
		return cfg.JWTSecret
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		zerologlog.Fatal().Err(err).Msg("generate jwt secret")
	}
	zerologlog.Warn().Msg("JWT_SECRET not set; rejoin tokens will not survive a restart")
	return hex.EncodeToString(b)
}
