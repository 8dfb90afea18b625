package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.opentelemetry.io/otel"
	"golang.org/x/text/language"

	"keeptrack/internal/article"
	"keeptrack/internal/platform/config"
	platformkafka "keeptrack/internal/platform/kafka"
	platformredis "keeptrack/internal/platform/redis"
	"keeptrack/internal/platform/storage"
	"keeptrack/pkg/activity"
	"keeptrack/pkg/activity/render"
	"keeptrack/pkg/activity/store/async"
	activitykafka "keeptrack/pkg/activity/store/kafka"
	activityredis "keeptrack/pkg/activity/store/redis"
	"keeptrack/pkg/i18n"
	"keeptrack/pkg/platform/circuit"
)

// deps are the long-lived resources of the server.
type deps struct {
	primary   activity.Repository
	feedCache *activityredis.FeedStore
	asyncBuf  *async.Store
	recorder  *activity.Recorder
	catalog   *i18n.Catalog
	renderer  *render.Renderer
	consumer  *kgo.Client

	store    *storage.Primary
	redis    *platformredis.Client
	producer *kgo.Client
}

func build(ctx context.Context, cfg config.Config, log *slog.Logger, reg prometheus.Registerer) (_ *deps, err error) {
	d := &deps{}
	defer func() {
		if err != nil {
			d.close(log)
		}
	}()

	d.store, err = storage.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	d.primary = d.store.Repository

	d.redis, err = platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	if d.redis != nil {
		d.feedCache = activityredis.NewFeedStore(d.redis.Client,
			activityredis.WithPrefix(cfg.Redis.Prefix),
			activityredis.WithFeedLength(cfg.Redis.FeedLength),
		)
	}

	var secondaries []activity.Store
	d.producer, err = platformkafka.NewProducer(ctx, cfg.Kafka)
	if err != nil {
		return nil, err
	}
	if d.producer != nil {
		publisher, err := activitykafka.NewPublisher(d.producer, cfg.Kafka.Topic,
			activitykafka.WithBreaker(circuit.New("kafka")),
			activitykafka.WithLogger(log),
		)
		if err != nil {
			return nil, err
		}
		secondaries = append(secondaries, publisher)
	}
	if d.feedCache != nil {
		d.consumer, err = platformkafka.NewConsumer(cfg.Kafka)
		if err != nil {
			return nil, err
		}
		// Without a projector the cache is fed inline.
		if d.consumer == nil {
			secondaries = append(secondaries, d.feedCache)
		}
	}

	var store activity.Store = activity.Tee(log, d.primary, secondaries...)
	if cfg.Activity.AsyncBuffer > 0 {
		d.asyncBuf = async.New(store, async.WithBuffer(cfg.Activity.AsyncBuffer), async.WithLogger(log))
		store = d.asyncBuf
	}

	registry := activity.NewRegistry(activity.WithRegistryLogger(log))
	registry.SetEnabled(cfg.Activity.Enabled)
	article.Register(registry)

	policy := activity.BestEffort
	if cfg.Activity.StoragePolicy == config.PolicyPropagate {
		policy = activity.Propagate
	}
	d.recorder, err = activity.NewRecorder(registry, activity.NewStoreAdapter(store),
		activity.WithLogger(log),
		activity.WithMetrics(activity.NewMetrics(reg)),
		activity.WithTracer(otel.Tracer("keeptrack/activity")),
		activity.WithStoragePolicy(policy),
	)
	if err != nil {
		return nil, err
	}

	if err := d.loadRendering(cfg.Render, log); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *deps) loadRendering(cfg config.RenderConfig, log *slog.Logger) error {
	d.catalog = i18n.NewCatalog(language.Make(cfg.DefaultLocale), i18n.WithLogger(log))
	if cfg.LocaleDir != "" {
		if err := d.catalog.LoadFS(os.DirFS(cfg.LocaleDir), "*.yml"); err != nil {
			return fmt.Errorf("load locales: %w", err)
		}
	}

	var backend render.Backend
	if cfg.TemplateDir != "" {
		backend = render.NewFSBackend(os.DirFS(cfg.TemplateDir))
	}
	var err error
	d.renderer, err = render.New(backend, d.catalog,
		render.WithRoot(cfg.Root),
		render.WithLayoutRoot(cfg.LayoutRoot),
		render.WithLogger(log),
	)
	return err
}

// health reports the first unreachable backend.
func (d *deps) health(ctx context.Context) error {
	if d.store != nil && d.store.DB != nil {
		if err := d.store.DB.PingContext(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}
	if d.redis != nil {
		if err := d.redis.Health(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

// drain flushes buffered activities before the stores close.
func (d *deps) drain(ctx context.Context) error {
	if d.asyncBuf == nil {
		return nil
	}
	return d.asyncBuf.Close(ctx)
}

func (d *deps) close(log *slog.Logger) {
	var errs []error
	if d.consumer != nil {
		d.consumer.Close()
	}
	if d.producer != nil {
		d.producer.Close()
	}
	if d.redis != nil {
		errs = append(errs, d.redis.Close())
	}
	errs = append(errs, d.store.Close())
	if err := errors.Join(errs...); err != nil {
		log.Warn("failed to release resources", "error", err)
	}
}
