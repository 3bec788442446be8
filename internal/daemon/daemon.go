package daemon

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/powergram/powergram/internal/api"
	"github.com/powergram/powergram/internal/app/monitor"
	"github.com/powergram/powergram/internal/app/shell"
	"github.com/powergram/powergram/internal/bot"
	"github.com/powergram/powergram/internal/infra/sensors"
	"github.com/powergram/powergram/internal/infra/sqlite"
)

// Daemon is the core powergram runtime. It wires together all services.
type Daemon struct {
	Config  Config
	DB      *sqlite.DB
	Sensors *sensors.Reader
	Shell   *shell.Manager
	Engine  *monitor.Engine
	Bot     *bot.Bot
	Server  *api.Server
	cancel  context.CancelFunc
}

// New creates and initializes a Daemon with all services wired.
func New() (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return NewWithConfig(cfg)
}

// NewWithConfig creates a Daemon with the given configuration. A
// missing bot token is the only fatal bootstrap condition; every
// runtime failure after this point degrades instead.
func NewWithConfig(cfg Config) (*Daemon, error) {
	if cfg.Bot.Token == "" {
		return nil, fmt.Errorf("no bot token configured (set bot.token in config.toml or BOT_TOKEN)")
	}

	db, err := sqlite.Open(Home())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	reader := sensors.New(cfg.Sensors.Disable)
	manager := shell.NewManager(db, shell.ExecRunner{}, cfg.Bot.AdminChatID, cfg.Bot.EnableShell)

	b, err := bot.New(cfg.Bot.Token, db, reader, manager)
	if err != nil {
		db.Close()
		return nil, err
	}

	engine := monitor.New(monitor.Config{
		AlertThreshold:  cfg.Monitor.AlertThreshold,
		AlertHysteresis: cfg.Monitor.AlertHysteresis,
		Interval:        cfg.Monitor.Interval(),
	}, reader, db, b)

	srv := api.NewServer(engine, db)
	if cfg.API.Metrics {
		srv.EnableMetrics()
	}

	return &Daemon{
		Config:  cfg,
		DB:      db,
		Sensors: reader,
		Shell:   manager,
		Engine:  engine,
		Bot:     b,
		Server:  srv,
	}, nil
}

// Serve starts the poll loop, the Telegram update loop and (when
// enabled) the HTTP status server, and blocks until shutdown.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	go d.Engine.Run(ctx)
	go d.Bot.Run(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	if !d.Config.API.Enabled {
		log.Printf("[daemon] powergram running (interval %s)", d.Config.Monitor.Interval())
		select {
		case <-sigCh:
		case <-ctx.Done():
		}
		cancel()
		return d.DB.Close()
	}

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      d.Server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
		}
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = httpServer.Shutdown(shutdownCtx)
		_ = d.DB.Close()
	}()

	log.Printf("[daemon] powergram serving on http://%s (poll interval %s)", addr, d.Config.Monitor.Interval())
	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close shuts down all daemon resources.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
}
