// Package bot parses bot command configuration and composes the ordering
// core with its stores, notifiers, and gateway transport.
package bot

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"

	entrypoint "github.com/louisbranch/restobot/internal/platform/cmd"
	i18ncatalog "github.com/louisbranch/restobot/internal/platform/i18n/catalog"
	"github.com/louisbranch/restobot/internal/platform/telemetry/metrics"
	"github.com/louisbranch/restobot/internal/platform/timeouts"
	"github.com/louisbranch/restobot/internal/services/ordering/app"
	"github.com/louisbranch/restobot/internal/services/ordering/menu"
	"github.com/louisbranch/restobot/internal/services/ordering/notify"
	"github.com/louisbranch/restobot/internal/services/ordering/session"
	"github.com/louisbranch/restobot/internal/services/ordering/storage"
	"github.com/louisbranch/restobot/internal/services/ordering/storage/jsonfile"
	"github.com/louisbranch/restobot/internal/services/ordering/storage/sqlite"
	"github.com/louisbranch/restobot/internal/services/ordering/transport"
)

const (
	storeJSON   = "json"
	storeSQLite = "sqlite"

	sessionsMemory = "memory"
	sessionsRedis  = "redis"
)

// Config holds bot command configuration.
type Config struct {
	BotToken       string        `env:"RESTOBOT_BOT_TOKEN"`
	AdminIDs       string        `env:"RESTOBOT_ADMIN_IDS"`
	HTTPAddr       string        `env:"RESTOBOT_HTTP_ADDR"       envDefault:":8090"`
	OrderStore     string        `env:"RESTOBOT_ORDER_STORE"     envDefault:"json"`
	OrdersPath     string        `env:"RESTOBOT_ORDERS_PATH"     envDefault:"data/orders.json"`
	SQLitePath     string        `env:"RESTOBOT_SQLITE_PATH"     envDefault:"data/orders.db"`
	SessionBackend string        `env:"RESTOBOT_SESSION_BACKEND" envDefault:"memory"`
	RedisAddr      string        `env:"RESTOBOT_REDIS_ADDR"      envDefault:"localhost:6379"`
	RedisPassword  string        `env:"RESTOBOT_REDIS_PASSWORD"`
	RedisDB        int           `env:"RESTOBOT_REDIS_DB"        envDefault:"0"`
	SessionTTL     time.Duration `env:"RESTOBOT_SESSION_TTL"     envDefault:"0s"`
	NATSURL        string        `env:"RESTOBOT_NATS_URL"`
	Locale         string        `env:"RESTOBOT_LOCALE"          envDefault:"id-ID"`
	Timezone       string        `env:"RESTOBOT_TIMEZONE"        envDefault:"Asia/Jakarta"`
	RateLimit      float64       `env:"RESTOBOT_RATE_LIMIT"      envDefault:"5"`
	RateBurst      int           `env:"RESTOBOT_RATE_BURST"      envDefault:"10"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.BotToken, "token", cfg.BotToken, "shared secret gateways present in X-Bot-Token")
	fs.StringVar(&cfg.AdminIDs, "admin-ids", cfg.AdminIDs, "comma-separated staff sender ids")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "gateway HTTP listen address")
	fs.StringVar(&cfg.OrderStore, "order-store", cfg.OrderStore, "order store backend (json|sqlite)")
	fs.StringVar(&cfg.OrdersPath, "orders-path", cfg.OrdersPath, "JSON order document path")
	fs.StringVar(&cfg.SQLitePath, "sqlite-path", cfg.SQLitePath, "SQLite order database path")
	fs.StringVar(&cfg.SessionBackend, "session-backend", cfg.SessionBackend, "session backend (memory|redis)")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "Redis address for sessions")
	fs.IntVar(&cfg.RedisDB, "redis-db", cfg.RedisDB, "Redis database for sessions")
	fs.DurationVar(&cfg.SessionTTL, "session-ttl", cfg.SessionTTL, "idle session expiry (0 keeps sessions)")
	fs.StringVar(&cfg.NATSURL, "nats-url", cfg.NATSURL, "NATS URL for order events")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "default display locale")
	fs.StringVar(&cfg.Timezone, "timezone", cfg.Timezone, "restaurant time zone")
	fs.Float64Var(&cfg.RateLimit, "rate-limit", cfg.RateLimit, "per-sender updates per second (0 disables)")
	fs.IntVar(&cfg.RateBurst, "rate-burst", cfg.RateBurst, "per-sender update burst")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg Config) validate() error {
	if strings.TrimSpace(cfg.BotToken) == "" {
		return errors.New("bot token is required (RESTOBOT_BOT_TOKEN or -token)")
	}
	switch cfg.OrderStore {
	case storeJSON, storeSQLite:
	default:
		return fmt.Errorf("unsupported order store %q", cfg.OrderStore)
	}
	switch cfg.SessionBackend {
	case sessionsMemory, sessionsRedis:
	default:
		return fmt.Errorf("unsupported session backend %q", cfg.SessionBackend)
	}
	if cfg.SessionTTL < 0 {
		return errors.New("session ttl must not be negative")
	}
	if cfg.RateLimit < 0 {
		return errors.New("rate limit must not be negative")
	}
	return nil
}

// Admins returns the trimmed staff allow-list with blanks dropped.
func (cfg Config) Admins() []string {
	var out []string
	for _, id := range strings.Split(cfg.AdminIDs, ",") {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}

// Location resolves the configured time zone, falling back to the process
// zone when it cannot be loaded.
func (cfg Config) Location() *time.Location {
	name := strings.TrimSpace(cfg.Timezone)
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("load time zone %q: %v; using local time", name, err)
		return time.Local
	}
	return loc
}

// Run builds the bot and serves the gateway until ctx ends.
func Run(ctx context.Context, cfg Config) error {
	options := entrypoint.RunOptions{ShutdownTimeout: timeouts.Shutdown}
	return entrypoint.RunWithTelemetryAndOptions(ctx, entrypoint.ServiceBot, options, func(ctx context.Context) error {
		server, closeAll, err := build(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeAll()
		if err := server.ListenAndServe(ctx); err != nil {
			return fmt.Errorf("serve bot: %w", err)
		}
		return nil
	})
}

// build opens every dependency. The returned func releases them in reverse
// order and is safe to call once.
func build(ctx context.Context, cfg Config) (*transport.Server, func(), error) {
	var closers []func() error
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				log.Printf("close dependency: %v", err)
			}
		}
	}
	fail := func(err error) (*transport.Server, func(), error) {
		closeAll()
		return nil, func() {}, err
	}

	loc := cfg.Location()
	orders, err := openOrderStore(ctx, cfg, loc)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, orders.Close)
	existing, err := orders.LoadAll(ctx)
	if err != nil {
		return fail(fmt.Errorf("load orders: %w", err))
	}

	sessions, closeSessions, err := openSessions(ctx, cfg)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, closeSessions)

	notifier, closeNotifier, err := openNotifier(cfg)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, closeNotifier)

	botMetrics, err := metrics.NewBotMetrics()
	if err != nil {
		return fail(fmt.Errorf("init metrics: %w", err))
	}

	svc, err := app.NewService(app.Config{
		AdminIDs: cfg.Admins(),
		Catalog:  menu.Default(),
		Sessions: sessions,
		Orders:   orders,
		Notifier: notifier,
		Metrics:  botMetrics,
		Location: loc,
	})
	if err != nil {
		return fail(fmt.Errorf("init ordering service: %w", err))
	}

	limit := rate.Limit(cfg.RateLimit)
	server, err := transport.NewServer(transport.Config{
		HTTPAddr:      cfg.HTTPAddr,
		Token:         cfg.BotToken,
		Service:       svc,
		Renderer:      transport.NewRenderer(i18ncatalog.Default(), loc),
		DefaultLocale: cfg.Locale,
		Metrics:       botMetrics.Handler(),
		RateLimit:     limit,
		RateBurst:     cfg.RateBurst,
	})
	if err != nil {
		return fail(fmt.Errorf("init bot server: %w", err))
	}
	closers = append(closers, func() error {
		server.Close()
		return nil
	})
	log.Printf("bot ready: store=%s orders=%d sessions=%s admins=%d", cfg.OrderStore, existing.Len(), cfg.SessionBackend, len(cfg.Admins()))
	return server, closeAll, nil
}

func openOrderStore(ctx context.Context, cfg Config, loc *time.Location) (storage.OrderStore, error) {
	switch cfg.OrderStore {
	case storeSQLite:
		if err := ensureParentDir(cfg.SQLitePath); err != nil {
			return nil, err
		}
		store, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite order store: %w", err)
		}
		return store, nil
	default:
		if err := ensureParentDir(cfg.OrdersPath); err != nil {
			return nil, err
		}
		store, err := jsonfile.Open(cfg.OrdersPath, jsonfile.WithLocation(loc))
		if err != nil {
			return nil, fmt.Errorf("open json order store: %w", err)
		}
		return store, nil
	}
}

func openSessions(ctx context.Context, cfg Config) (session.Store, func() error, error) {
	if cfg.SessionBackend != sessionsRedis {
		return session.NewMemoryStore(session.WithTTL(cfg.SessionTTL)), func() error { return nil }, nil
	}
	store := session.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.SessionTTL)
	pingCtx, cancel := context.WithTimeout(ctx, timeouts.BrokerConnect)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return store, store.Close, nil
}

func openNotifier(cfg Config) (notify.Notifier, func() error, error) {
	logNotifier := notify.LogNotifier{}
	if strings.TrimSpace(cfg.NATSURL) == "" {
		return logNotifier, func() error { return nil }, nil
	}
	publisher, err := notify.DialNATS(cfg.NATSURL)
	if err != nil {
		return nil, nil, err
	}
	return notify.Multi{logNotifier, publisher}, publisher.Close, nil
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(filepath.Clean(path))
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return nil
}
