package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"

	"keeptrack/internal/article"
	articlehandler "keeptrack/internal/article/handler"
	"keeptrack/internal/feed"
	feedhandler "keeptrack/internal/feed/handler"
	jwttoken "keeptrack/internal/jwt_token"
	"keeptrack/internal/platform/config"
	"keeptrack/internal/platform/httpserver"
	"keeptrack/internal/platform/logger"
	"keeptrack/internal/platform/metrics"
	"keeptrack/internal/platform/middleware"
	activitykafka "keeptrack/pkg/activity/store/kafka"
	"keeptrack/pkg/i18n"
	"keeptrack/pkg/platform/httputil"
	"keeptrack/pkg/platform/middleware/caller"
	"keeptrack/pkg/platform/middleware/metadata"
)

// main wires dependencies from configuration, serves the HTTP API and runs
// the optional stream projector until a signal arrives.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	d, err := build(ctx, cfg, log, reg)
	if err != nil {
		return err
	}
	defer d.close(log)

	router, err := newHandler(cfg, log, reg, d)
	if err != nil {
		return err
	}
	srv := httpserver.New(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting keeptrack", "addr", cfg.Server.Addr, "store", cfg.Store.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	if d.consumer != nil {
		projector := feed.NewProjector(d.feedCache, log)
		consumer := activitykafka.NewConsumer(d.consumer, projector.Handle, log)
		g.Go(func() error {
			log.Info("starting activity projector", "topic", cfg.Kafka.Topic, "group", cfg.Kafka.ConsumerGroup)
			return consumer.Run(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return d.drain(shutdownCtx)
	})
	return g.Wait()
}

// newHandler builds the services on top of deps and returns the HTTP API.
func newHandler(cfg config.Config, log *slog.Logger, reg *prometheus.Registry, d *deps) (http.Handler, error) {
	articles, err := article.NewService(article.NewInMemoryRepository(), d.recorder, article.WithLogger(log))
	if err != nil {
		return nil, err
	}
	feedOpts := []feed.Option{feed.WithLogger(log)}
	if d.feedCache != nil {
		feedOpts = append(feedOpts, feed.WithCache(d.feedCache))
	}
	feeds, err := feed.NewService(d.primary, d.renderer, feedOpts...)
	if err != nil {
		return nil, err
	}

	return newRouter(routerDeps{
		logger:   log,
		registry: reg,
		metrics:  metrics.New(reg),
		locales:  supportedLocales(d.catalog, cfg.Render.DefaultLocale),
		tokens:   jwttoken.NewService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer),
		articles: articlehandler.New(articles, log),
		feeds:    feedhandler.New(feeds, log),
		health:   d.health,
	}), nil
}

type routerDeps struct {
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	locales  []language.Tag
	tokens   caller.TokenValidator
	articles *articlehandler.Handler
	feeds    *feedhandler.Handler
	health   func(ctx context.Context) error
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recover(d.logger))
	r.Use(metadata.ClientMetadata)
	r.Use(metadata.Locale(d.locales...))
	r.Use(middleware.AccessLog(d.logger))
	r.Use(d.metrics.Middleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := d.health(r.Context()); err != nil {
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "error": err.Error()})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(d.registry, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(caller.Store(d.tokens, d.logger))
		d.articles.Register(r)
		d.feeds.Register(r)
	})
	return r
}

// supportedLocales puts the default locale first so it wins when nothing
// in Accept-Language matches.
func supportedLocales(catalog *i18n.Catalog, defaultLocale string) []language.Tag {
	def := language.Make(defaultLocale)
	tags := []language.Tag{def}
	for _, tag := range catalog.Locales() {
		if tag != def {
			tags = append(tags, tag)
		}
	}
	return tags
}
