package voucheragent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/hotel-vouchers/internal/cache"
	"github.com/magabrotheeeer/hotel-vouchers/internal/config"
	"github.com/magabrotheeeer/hotel-vouchers/internal/http/middlewarectx"
	"github.com/magabrotheeeer/hotel-vouchers/internal/lib/jwt"
	"github.com/magabrotheeeer/hotel-vouchers/internal/lib/metrics"
	"github.com/magabrotheeeer/hotel-vouchers/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/hotel-vouchers/internal/lib/sl"
	"github.com/magabrotheeeer/hotel-vouchers/internal/migrations"
	"github.com/magabrotheeeer/hotel-vouchers/internal/scraper"
	"github.com/magabrotheeeer/hotel-vouchers/internal/services/auth"
	"github.com/magabrotheeeer/hotel-vouchers/internal/services/voucher"
	"github.com/magabrotheeeer/hotel-vouchers/internal/storage/repository"
)

const shutdownTimeout = 15 * time.Second

// App HTTP-сервер агента ваучеров вместе с внешними подключениями.
type App struct {
	server  *http.Server
	logger  *slog.Logger
	agent   *voucher.Agent
	closers []func() error
}

// New подключается к внешним сервисам, создаёт агента и запускает его расписание.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.New"
	app := &App{logger: logger}

	var redisCache *cache.Cache
	if cfg.AddressRedis != "" {
		c, err := cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		redisCache = c
		app.closers = append(app.closers, c.Close)
	}

	authenticator, err := app.newAuthenticator(ctx, cfg, redisCache)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var publisher *rabbitmq.UpdatePublisher
	if cfg.RabbitMQ.URL != "" {
		conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.MaxRetries, cfg.RetryDelay)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.closers = append(app.closers, conn.Close)
		ch, err := rabbitmq.SetupChannel(conn, cfg.Exchange, rabbitmq.GetVoucherQueues())
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		publisher = rabbitmq.NewUpdatePublisher(ch, cfg.Exchange, logger)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.New(reg)

	fetcher := scraper.NewHTTPFetcher(cfg.Collector)
	extractor := scraper.NewExtractor(cfg.Collector.Extractor, logger)

	app.agent = voucher.GetInstance(ctx, func() *voucher.Agent {
		a := voucher.New(voucher.Settings{
			Sources:        cfg.Sources,
			Interval:       cfg.Interval,
			Staleness:      cfg.Staleness,
			RefreshTimeout: cfg.RefreshTimeout,
			SkipInitialRun: cfg.SkipInitialRun,
		}, fetcher, extractor, authenticator, logger, voucher.WithMetrics(collector))

		if redisCache != nil {
			snapshot := cache.NewVoucherSnapshot(redisCache, cfg.Staleness, logger)
			restoreSnapshot(ctx, a, snapshot, logger)
			a.Subscribe(snapshot.Save)
		}
		if publisher != nil {
			a.Subscribe(publisher.Publish)
		}
		return a
	})

	router := chi.NewRouter()
	RegisterRoutes(router, logger, app.agent,
		middlewarectx.NewClientLimiter(rate.Limit(cfg.RevealRPS), cfg.RevealBurst, cfg.RevealClientTTL),
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	)

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

func (a *App) newAuthenticator(ctx context.Context, cfg *config.Config, redisCache *cache.Cache) (voucher.Authenticator, error) {
	switch cfg.Auth.Mode {
	case config.AuthModeStatic:
		a.logger.Warn("static authenticator in use, do not run this in production",
			slog.Bool("allow", cfg.StaticAllow))
		return auth.StaticAuthenticator{Allow: cfg.StaticAllow}, nil
	case config.AuthModeToken:
		return auth.NewTokenAuthenticator(jwt.NewJWTParser(cfg.Secret), a.logger), nil
	case config.AuthModeRepository:
		db, err := repository.New(ctx, cfg.StorageConnectionString)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		if err := migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
			return nil, err
		}
		if err := repository.CheckDatabaseReady(ctx, db); err != nil {
			return nil, err
		}
		var results auth.ResultCache
		if redisCache != nil {
			results = redisCache
		}
		return auth.NewRepositoryAuthenticator(db, results, cfg.CacheTTL, cfg.CheckTimeout, a.logger), nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.Auth.Mode)
	}
}

func restoreSnapshot(ctx context.Context, agent *voucher.Agent, snapshot *cache.VoucherSnapshot, logger *slog.Logger) {
	vouchers, err := snapshot.Load(ctx)
	if err != nil {
		logger.Warn("failed to load vouchers snapshot", sl.Err(err))
		return
	}
	if len(vouchers) == 0 {
		return
	}
	logger.Info("vouchers restored from snapshot", slog.Int("count", agent.Restore(vouchers)))
}

// Run обслуживает HTTP до отмены ctx, затем останавливает сервер
// и закрывает подключения.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("failed to close resource", sl.Err(err))
		}
	}
	a.closers = nil
}
