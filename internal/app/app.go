package app

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/niksmo/kiksniks/config"
	"github.com/niksmo/kiksniks/internal/adapter"
	"github.com/niksmo/kiksniks/internal/adapter/content"
	"github.com/niksmo/kiksniks/internal/adapter/httphandler"
	"github.com/niksmo/kiksniks/internal/adapter/kafka"
	"github.com/niksmo/kiksniks/internal/adapter/mail"
	"github.com/niksmo/kiksniks/internal/adapter/sheets"
	"github.com/niksmo/kiksniks/internal/adapter/storage"
	"github.com/niksmo/kiksniks/internal/core/port"
	"github.com/niksmo/kiksniks/internal/core/service"
	"github.com/niksmo/kiksniks/pkg/schema"
	"github.com/robfig/cron/v3"
	"github.com/sourcegraph/conc"
	"github.com/twmb/franz-go/pkg/sr"
	"gopkg.in/natefinch/lumberjack.v2"
)

type sessionStore struct {
	storage port.SessionStorage
	purger  port.SessionPurger
	close   func()
}

type eventsProducer interface {
	port.EventProducer
	Close()
}

type App struct {
	ctx        context.Context
	cfg        config.Config
	logFile    *lumberjack.Logger
	sessions   sessionStore
	events     eventsProducer
	mailer     port.Mailer
	storefront *service.Storefront
	pages      *content.Pages
	handler    http.Handler
	httpServer httphandler.HTTPServer
	scheduler  *cron.Cron
	wg         conc.WaitGroup
}

func New(ctx context.Context, cfg config.Config) *App {
	app := &App{ctx: ctx, cfg: cfg}

	app.initLogger()
	app.initSessionStorage()
	app.initEvents()
	app.initMailer()
	app.initCoreService()
	app.initInboundAdapters()
	app.initScheduler()

	return app
}

func (app *App) initLogger() {
	var w io.Writer = os.Stderr
	if file := app.cfg.Log.File; file != "" {
		app.logFile = &lumberjack.Logger{
			Filename:   file,
			MaxSize:    app.cfg.Log.MaxSizeMB,
			MaxBackups: app.cfg.Log.MaxBackups,
			Compress:   true,
		}
		w = io.MultiWriter(os.Stderr, app.logFile)
	}
	opts := &slog.HandlerOptions{Level: app.cfg.Log.SlogLevel()}
	logger := slog.New(slog.NewJSONHandler(w, opts))
	slog.SetDefault(logger)
}

func (app *App) initSessionStorage() {
	const op = "App.initSessionStorage"

	switch app.cfg.Session.Driver {
	case config.SessionDriverPostgres:
		sqldb, err := storage.NewSQLDB(app.ctx, app.cfg.Storage.DSN)
		if err != nil {
			app.fallDown(op, err)
		}
		repo := storage.NewSessionRepository(sqldb)
		app.sessions = sessionStore{repo, repo, sqldb.Close}
	case config.SessionDriverBolt:
		db, err := storage.NewBolt(app.cfg.Storage.BoltPath)
		if err != nil {
			app.fallDown(op, err)
		}
		app.sessions = sessionStore{db, db, db.Close}
	default:
		m := storage.NewMemory()
		app.sessions = sessionStore{m, m, func() {}}
	}
	slog.Info("session storage is ready", "op", op, "driver", app.cfg.Session.Driver)
}

func (app *App) initEvents() {
	const op = "App.initEvents"

	if !app.cfg.BrokerEnabled() {
		app.events = kafka.NopProducer{}
		return
	}

	brokerCfg := app.cfg.Broker
	topic := brokerCfg.Topics.StorefrontEvents

	srClient, err := sr.NewClient(sr.URLs(brokerCfg.SchemaRegistryURLs...))
	if err != nil {
		app.fallDown(op, err)
	}
	serde, err := schema.NewSerdeStorefrontEventV1(
		app.ctx,
		schema.SubjectOpt(topic+"-value"),
		schema.SchemaIdentifierOpt(schema.NewSchemaCreater(srClient)),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	p, err := kafka.NewEventsProducer(
		kafka.ProducerClientOpt(app.ctx, brokerCfg.SeedBrokers, topic, app.brokerTLS()),
		kafka.ProducerEncoderOpt(serde),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.events = p
}

func (app *App) brokerTLS() *tls.Config {
	const op = "App.brokerTLS"

	t := app.cfg.Broker.TLS
	files := adapter.TLSFiles{CA: t.CA, Cert: t.Cert, Key: t.Key}
	if !files.Enabled() {
		return nil
	}
	cfg, err := adapter.ClientTLSConfig(files)
	if err != nil {
		app.fallDown(op, err)
	}
	return cfg
}

func (app *App) initMailer() {
	if !app.cfg.MailEnabled() {
		app.mailer = mail.NopMailer{}
		return
	}
	m := app.cfg.Mail
	app.mailer = mail.New(mail.Config{
		Host:     m.Host,
		Port:     m.Port,
		Username: m.Username,
		Password: m.Password,
		From:     m.From,
		FromName: m.FromName,
	})
}

func (app *App) initCoreService() {
	const op = "App.initCoreService"

	sc := app.cfg.Sheets
	source := sheets.New(sheets.Config{
		ProductsURL:  sc.ProductsURL,
		SubmitURL:    sc.SubmitURL,
		Format:       sc.Format,
		Strict:       sc.Strict,
		UseMockData:  sc.UseMockData,
		FetchTimeout: sc.FetchTimeout,
		MaxAttempts:  sc.MaxAttempts,
		Backoff:      sc.Backoff,
		DemoSeed:     sc.DemoSeed,
	})

	app.storefront = service.New(
		source,
		source,
		app.sessions.storage,
		app.events,
		app.mailer,
		service.WithPageSize(app.cfg.Catalog.PageSize),
		service.WithSubmitTimeout(sc.SubmitTimeout),
	)

	pages, err := content.New(app.cfg.Storage.PagesLRU)
	if err != nil {
		app.fallDown(op, err)
	}
	app.pages = pages
}

func (app *App) initInboundAdapters() {
	const op = "App.initInboundAdapters"

	sc := app.cfg.Session
	handler, err := httphandler.New(httphandler.Config{
		SessionSecret: sc.Secret,
		SecureCookie:  sc.Secure,
		SessionMaxAge: sc.MaxAge,
		FormRate:      sc.FormRate,
		FormBurst:     sc.FormBurst,
		Featured:      app.cfg.Catalog.Featured,
	}, app.storefront, app.pages)
	if err != nil {
		app.fallDown(op, err)
	}
	app.handler = handler

	hc := app.cfg.HTTP
	app.httpServer = httphandler.NewHTTPServer(httphandler.ServerConfig{
		Addr:              hc.Addr,
		HandlerTimeout:    hc.HandlerTimeout,
		ReadHeaderTimeout: hc.ReadHeaderTimeout,
		IdleTimeout:       hc.IdleTimeout,
	}, handler)
}

func (app *App) initScheduler() {
	const op = "App.initScheduler"

	app.scheduler = cron.New()
	if _, err := app.scheduler.AddFunc(app.cfg.Refresh.Schedule, app.refresh); err != nil {
		app.fallDown(op, fmt.Errorf("refresh schedule: %w", err))
	}
	if _, err := app.scheduler.AddFunc(app.cfg.Refresh.PurgeSchedule, app.purgeSessions); err != nil {
		app.fallDown(op, fmt.Errorf("purge schedule: %w", err))
	}
}

func (app *App) refresh() {
	const op = "App.refresh"

	if err := app.storefront.Refresh(app.ctx); err != nil {
		slog.Error("failed to refresh products", "op", op, "err", err)
	}
}

func (app *App) purgeSessions() {
	const op = "App.purgeSessions"
	log := slog.With("op", op)

	before := time.Now().Add(-app.cfg.Refresh.SessionTTL)
	n, err := app.sessions.purger.PurgeSessions(app.ctx, before)
	if err != nil {
		log.Error("failed to purge sessions", "err", err)
		return
	}
	log.Info("sessions purged", "entries", n)
}

// Handler returns the storefront router.
func (app *App) Handler() http.Handler {
	return app.handler
}

// Run loads the products and starts the http server and the scheduled
// jobs. stopFn is called when the server stops on its own.
func (app *App) Run(stopFn context.CancelFunc) {
	app.wg.Go(app.refresh)
	app.wg.Go(func() { app.httpServer.Run(stopFn) })
	app.scheduler.Start()

	slog.Info("application is running")
}

func (app *App) Close(ctx context.Context) {
	slog.Info("application is closing...")

	app.httpServer.Close(ctx)

	select {
	case <-app.scheduler.Stop().Done():
	case <-ctx.Done():
		slog.Warn("scheduled jobs are still running")
	}
	app.wg.Wait()

	app.events.Close()
	app.sessions.close()

	slog.Info("application is closed")
	if app.logFile != nil {
		_ = app.logFile.Close()
	}
}

func (app *App) fallDown(op string, err error) {
	panic(fmt.Errorf("%s: %w", op, err))
}
