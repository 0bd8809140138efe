package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Spok95/stock-ledger/internal/config"
	"github.com/Spok95/stock-ledger/internal/domain/materials"
	"github.com/Spok95/stock-ledger/internal/domain/purchases"
	"github.com/Spok95/stock-ledger/internal/domain/suppliers"
	"github.com/Spok95/stock-ledger/internal/infra/db"
	httpx "github.com/Spok95/stock-ledger/internal/infra/http"
	"github.com/Spok95/stock-ledger/internal/infra/logger"
	"github.com/Spok95/stock-ledger/internal/infra/metrics"
	"github.com/Spok95/stock-ledger/internal/infra/notify"
	"github.com/Spok95/stock-ledger/internal/reconcile"
	"github.com/Spok95/stock-ledger/internal/storage/memory"
	"github.com/Spok95/stock-ledger/internal/storage/postgres"
	"github.com/Spok95/stock-ledger/internal/storage/sqlite"
)

// store всё, что нужно доменным сервисам от хранилища.
type store interface {
	materials.Store
	purchases.Store
	suppliers.Store
}

func openStore(ctx context.Context, cfg config.Config, log *slog.Logger) (store, func(), error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		if err := db.Migrate(cfg.Postgres.DSN, log); err != nil {
			return nil, nil, err
		}
		pool, err := db.Connect(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, nil, err
		}
		log.Info("db connected", "driver", cfg.Storage.Driver)
		return postgres.New(pool), pool.Close, nil
	case config.DriverSQLite:
		s, err := sqlite.Open(cfg.SQLite.Path, log)
		if err != nil {
			return nil, nil, err
		}
		log.Info("db opened", "driver", cfg.Storage.Driver, "path", cfg.SQLite.Path)
		return s, func() { _ = s.Close() }, nil
	default:
		log.Warn("in-memory storage: data is lost on restart")
		return memory.New(), func() {}, nil
	}
}

func main() {
	cfgPath := flag.String("config", "config/example.yaml", "path to YAML config (empty: env only)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.App.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Error("storage init failed", "driver", cfg.Storage.Driver, "err", err)
		return
	}
	defer closeStore()

	mats := materials.NewRegistry(st)
	ledger := purchases.NewLedger(st)
	dir := suppliers.NewDirectory(st)

	var (
		reg      prometheus.Registerer
		gatherer prometheus.Gatherer
	)
	if cfg.Metrics.Enabled {
		reg, gatherer = prometheus.DefaultRegisterer, prometheus.DefaultGatherer
	}
	opts := []reconcile.Option{reconcile.WithMetrics(metrics.NewReconcile(reg))}

	if cfg.Telegram.Token != "" {
		api, err := notify.Connect(cfg.Telegram.Token, cfg.Telegram.SendTimeout)
		if err != nil {
			log.Error("telegram init failed, alerts disabled", "err", err)
		} else {
			log.Info("telegram authorized", "bot", api.Self.UserName)
			opts = append(opts, reconcile.WithNotifier(
				notify.NewTelegram(api, log, cfg.Telegram.AdminChatID, cfg.Telegram.Recipients...).
					WithTimeout(cfg.Telegram.SendTimeout)))
		}
	}

	engine := reconcile.New(log, mats, ledger, dir, reconcile.Config{
		Compensate: cfg.Reconcile.Compensate,
		AlertLimit: cfg.Reconcile.AlertLimit,
	}, opts...)
	if !cfg.Reconcile.Compensate {
		log.Warn("reconcile compensation disabled: partial writes are left in place")
	}

	srv := httpx.New(cfg.HTTP.Addr, httpx.NewAPI(log, engine, ledger, mats, dir), gatherer)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "err", err)
			stop()
		}
	}()
	log.Info("HTTP server started", "addr", cfg.HTTP.Addr)

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("graceful shutdown complete")
}
