package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/niksmo/catalog-cache/config"
	"github.com/niksmo/catalog-cache/internal/adapter"
	"github.com/niksmo/catalog-cache/internal/adapter/httphandler"
	"github.com/niksmo/catalog-cache/internal/adapter/kafka"
	"github.com/niksmo/catalog-cache/internal/adapter/remote"
	"github.com/niksmo/catalog-cache/internal/adapter/storage"
	"github.com/niksmo/catalog-cache/internal/core/port"
	"github.com/niksmo/catalog-cache/internal/core/service"
	"github.com/niksmo/catalog-cache/internal/metrics"
	"github.com/niksmo/catalog-cache/pkg/schema"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sr"
)

const (
	backendFile     = "file"
	backendPostgres = "postgres"
)

type App struct {
	ctx        context.Context
	cfg        config.Config
	store      port.CatalogStore
	storeClose func()
	feed       port.ChangeFeed
	syncer     service.SyncService
	httpServer httphandler.HTTPServer
}

func New(ctx context.Context, cfg config.Config) *App {
	app := &App{ctx: ctx, cfg: cfg}

	app.initLogger()
	app.initStore()
	app.initChangeFeed()
	app.initServices()

	return app
}

func (app *App) initLogger() {
	opts := &slog.HandlerOptions{Level: app.cfg.LogLevel}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, opts))
	slog.SetDefault(logger)
}

func (app *App) initStore() {
	const op = "App.initStore"

	switch app.cfg.Storage.Backend {
	case backendPostgres:
		s, err := storage.NewSQLStore(app.ctx, app.cfg.Storage.SQLDB)
		if err != nil {
			app.fallDown(op, err)
		}
		app.store = s
		app.storeClose = s.Close
	case backendFile, "":
		app.store = storage.NewFileStore(app.cfg.Storage.FilePath)
	default:
		app.fallDown(op, fmt.Errorf(
			"unknown storage backend %q", app.cfg.Storage.Backend))
	}

	if err := app.store.Load(app.ctx); err != nil {
		app.fallDown(op, err)
	}
}

// initChangeFeed wires the kafka producer when seed brokers are
// configured. Without brokers the replica runs standalone.
func (app *App) initChangeFeed() {
	const op = "App.initChangeFeed"

	if !app.cfg.FeedEnabled() {
		slog.Info("change feed is disabled")
		return
	}

	srClient, err := sr.NewClient(
		sr.URLs(app.cfg.Broker.SchemaRegistryURLs...),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	schemaCreater := schema.NewSchemaCreater(srClient)

	topic := app.cfg.Broker.Topics.ProductEvents
	eventSerde, err := schema.NewSerdeProductEventV1(
		app.ctx,
		schema.SubjectOpt(topic+"-value"),
		schema.SchemaIdentifierOpt(schemaCreater),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	var kgoOpts []kgo.Opt
	if tls := app.cfg.Broker.TLS; tls.Enabled() {
		kgoOpts = append(kgoOpts, kgo.DialTLSConfig(
			adapter.MakeTLSConfig(tls.CAPath, tls.CertPath, tls.KeyPath),
		))
	}

	feed, err := kafka.NewProductEventsProducer(
		kafka.ProducerClientOpt(
			app.ctx, app.cfg.Broker.SeedBrokers, topic, kgoOpts...,
		),
		kafka.ProducerEncoderOpt(eventSerde),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.feed = feed
}

func (app *App) initServices() {
	remoteClient := remote.New(remote.Config{
		BaseURL:   app.cfg.Remote.BaseURL,
		APIKey:    app.cfg.Remote.APIKey,
		Timeout:   app.cfg.Remote.Timeout,
		RateLimit: app.cfg.Remote.RateLimit,
	})

	app.syncer = service.NewSync(remoteClient, app.store, app.feed,
		service.SyncConfig{
			PageSize:     app.cfg.Sync.PageSize,
			MaxPages:     app.cfg.Sync.MaxPages,
			FetchRetries: app.cfg.Sync.FetchRetries,
		},
	)

	querier := service.NewQuery(app.store, service.QueryConfig{
		FuzzyMaxDistance: app.cfg.Query.FuzzyMaxDistance,
		FuzzyLimit:       app.cfg.Query.FuzzyLimit,
		UpsellLimit:      app.cfg.Query.UpsellLimit,
		SkuImages:        app.cfg.Query.SkuImages,
	})
	ingester := service.NewIngest(app.syncer)

	mux := http.NewServeMux()
	httphandler.RegisterHealth(mux)
	httphandler.RegisterWebhook(mux, ingester)
	httphandler.RegisterQueries(mux, querier)
	httphandler.RegisterSync(mux, app.syncer)
	mux.Handle("GET /metrics", metrics.Handler())

	handler := httphandler.Metrics(
		httphandler.RequestID(httphandler.AllowJSON(mux)),
	)
	app.httpServer = httphandler.NewHTTPServer(app.cfg.HTTPServerAddr, handler)
}

func (app *App) Run(stopFn context.CancelFunc) {
	go app.httpServer.Run(stopFn)
	go app.syncer.RunPeriodic(app.ctx, app.cfg.Sync.Interval)

	slog.Info("application is running")
}

func (app *App) Close(ctx context.Context) {
	slog.Info("application is closing...")

	app.httpServer.Close(ctx)

	// best-effort flush so no applied mutation outlives the process
	// only in memory
	if err := app.store.Save(ctx); err != nil {
		slog.Error("failed to flush replica on shutdown", "err", err)
	}

	if app.feed != nil {
		app.feed.Close()
	}
	if app.storeClose != nil {
		app.storeClose()
	}

	slog.Info("application is closed")
}

func (app *App) fallDown(op string, err error) {
	panic(fmt.Errorf("%s: %w", op, err))
}
