// Command invite-rooms runs the invite-attribution and private-room bot.
// It:
//   - Loads configuration and initializes structured logging and optional tracing.
//   - Opens the invite ledger and room registry on Postgres (running migrations) or in memory.
//   - Connects the Discord gateway and serves slash commands, buttons and forms.
//   - Schedules the idle-room reaper and database pool metrics.
//   - Exposes an HTTP server with /healthz, /readyz, /metrics and admin endpoints.
//
// Shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/onnwee/invite-rooms/bot"
	"github.com/onnwee/invite-rooms/config"
	"github.com/onnwee/invite-rooms/db"
	"github.com/onnwee/invite-rooms/invites"
	"github.com/onnwee/invite-rooms/locale"
	"github.com/onnwee/invite-rooms/present"
	"github.com/onnwee/invite-rooms/rooms"
	"github.com/onnwee/invite-rooms/scheduler"
	"github.com/onnwee/invite-rooms/server"
	"github.com/onnwee/invite-rooms/telemetry"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", slog.Any("err", err))
		os.Exit(1)
	}
}

func run() error {
	migrateDown := flag.Bool("migrate-down", false, "Roll back the most recent schema migration and exit (postgres only)")
	flag.Parse()

	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	telemetry.SetupLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	// Tracing is a no-op unless OTEL_EXPORTER_OTLP_ENDPOINT is set
	shutdownTracing, err := telemetry.InitTracing(cfg.OTLPEndpoint, cfg.ServiceName, version)
	if err != nil {
		return err
	}
	defer shutdownTracing()

	if *migrateDown && cfg.StoreBackend != config.BackendPostgres {
		return fmt.Errorf("-migrate-down requires STORE_BACKEND=%s", config.BackendPostgres)
	}
	if !*migrateDown {
		if err := cfg.ValidateDiscordReady(); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		database   *sql.DB
		inviteData invites.Store
		roomData   rooms.Store
	)
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		database, err = db.Connect(ctx, cfg.DBDsn)
		if err != nil {
			return err
		}
		defer func() {
			if err := database.Close(); err != nil {
				slog.Error("failed to close database", slog.Any("err", err))
			}
		}()
		if *migrateDown {
			return rollback(database)
		}
		if err := migrate(ctx, database); err != nil {
			return err
		}
		inviteData, roomData = db.NewInviteStore(database), db.NewRoomStore(database)
	default:
		slog.Warn("using in-memory store, invite records and rooms are lost on restart", slog.String("component", "store"))
		inviteData, roomData = invites.NewMemoryStore(), rooms.NewMemoryRegistry()
	}

	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return err
	}

	platform := bot.NewPlatform(session)
	view := present.NewBuilder(locale.New(cfg.DefaultLocale), present.Options{
		PanelImageURL: cfg.PanelImageURL,
		RoomImageURL:  cfg.RoomImageURL,
		Threshold:     cfg.RoomInviteThreshold,
	})
	poster := bot.NewPoster(session, view, cfg.LogChannelID)
	ledger := invites.NewLedger(inviteData)
	tracker := invites.NewTracker(platform, invites.NewSnapshotStore(), ledger, poster)
	manager := rooms.NewManager(roomData, platform, ledger, poster, rooms.Options{
		Threshold:  cfg.RoomInviteThreshold,
		CategoryID: cfg.RoomCategoryID,
	})
	reaper := rooms.NewReaper(manager, cfg.RoomIdleTimeout)

	b := bot.New(session, tracker, ledger, manager, view, poster, bot.Options{
		PanelChannelID: cfg.PanelChannelID,
		CommandGuildID: cfg.GuildID,
		EventTimeout:   cfg.EventTimeout,
	})

	jobs := scheduler.New()
	if err := jobs.Add("room_reaper", cfg.RoomSweepSchedule, func(ctx context.Context) error {
		_, err := reaper.Sweep(ctx)
		return err
	}); err != nil {
		return err
	}
	if database != nil {
		if err := jobs.Add("db_pool_metrics", "@every 30s", func(context.Context) error {
			db.ReportPoolMetrics(database)
			return nil
		}); err != nil {
			return err
		}
	}

	handler := server.NewMux(ctx, server.Options{
		AdminEnabled:           cfg.AdminAuthConfigured(),
		AdminUsername:          cfg.AdminUsername,
		AdminPassword:          cfg.AdminPassword,
		AdminToken:             cfg.AdminToken,
		AdminRequestsPerMinute: cfg.AdminRateLimit,
	}, server.Deps{
		DB:        database,
		Ledger:    ledger,
		GatewayUp: telemetry.GatewayConnected,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return b.Run(gctx) })
	g.Go(func() error { return jobs.Run(gctx) })
	g.Go(func() error { return server.Start(gctx, cfg.HTTPAddr, handler) })

	slog.Info("invite-rooms started", slog.String("version", version), slog.String("store", cfg.StoreBackend))
	err = g.Wait()
	slog.Info("shutting down")
	return err
}

// migrate runs versioned migrations and falls back to the embedded idempotent schema.
func migrate(ctx context.Context, database *sql.DB) error {
	slog.Info("running database migrations", slog.String("component", "db_migrate"))
	if err := db.RunMigrations(database); err != nil {
		slog.Warn("versioned migrations failed, attempting fallback to embedded SQL",
			slog.Any("err", err),
			slog.String("component", "db_migrate"))
		if err := db.Migrate(ctx, database); err != nil {
			return err
		}
		slog.Info("embedded SQL migration completed", slog.String("component", "db_migrate"))
		return nil
	}
	logSchemaVersion(database)
	return nil
}

// rollback reverts the latest migration for -migrate-down.
func rollback(database *sql.DB) error {
	slog.Warn("rolling back the latest migration", slog.String("component", "db_migrate"))
	if err := db.MigrateDown(database); err != nil {
		return err
	}
	logSchemaVersion(database)
	return nil
}

func logSchemaVersion(database *sql.DB) {
	v, dirty, err := db.GetMigrationVersion(database)
	if err != nil {
		slog.Warn("could not read schema version", slog.Any("err", err), slog.String("component", "db_migrate"))
		return
	}
	slog.Info("schema version", slog.Uint64("version", uint64(v)), slog.Bool("dirty", dirty), slog.String("component", "db_migrate"))
}
