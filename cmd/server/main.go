// Command server runs the share subscription site: the form, the settlement
// note, the delivery to the company and the mail relay endpoint.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/auxesispharma/emission/handler"
	"github.com/auxesispharma/emission/modules/offering"
	"github.com/auxesispharma/emission/pkg/config"
	"github.com/auxesispharma/emission/pkg/email"
	"github.com/auxesispharma/emission/pkg/httpserver"
	"github.com/auxesispharma/emission/pkg/logger"
	"github.com/auxesispharma/emission/pkg/redis"
	"github.com/auxesispharma/emission/pkg/requestid"
	"github.com/auxesispharma/emission/pkg/session"
	"github.com/auxesispharma/emission/svc/delivery"
	"github.com/auxesispharma/emission/svc/document"
	"github.com/auxesispharma/emission/svc/mailrelay"
	"github.com/auxesispharma/emission/svc/metrics"
	"github.com/auxesispharma/emission/svc/submission"
	"github.com/auxesispharma/emission/web/views"
)

const (
	storeMemory = "memory"
	storeRedis  = "redis"
)

type appConfig struct {
	Env          string        `env:"APP_ENV" envDefault:"development"`
	Service      string        `env:"SERVICE_NAME" envDefault:"emission"`
	Store        string        `env:"SUBMISSION_STORE" envDefault:"memory"`
	CleanupEvery time.Duration `env:"SUBMISSION_CLEANUP_INTERVAL" envDefault:"5m"`
	RedisPrefix  string        `env:"SUBMISSION_REDIS_PREFIX" envDefault:"emission:submission:"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	app, err := config.Load[appConfig]()
	if err != nil {
		return err
	}

	log := logger.New(
		logger.WithEnvironment(app.Env, app.Service),
		logger.WithContextExtractors(requestid.Extractor, session.Extractor),
	)

	httpCfg := config.MustLoad[httpserver.Config]()
	emailCfg := config.MustLoad[email.Config]()
	sessionCfg := config.MustLoad[session.Config]()
	deliveryCfg := config.MustLoad[delivery.Config]()
	documentCfg := config.MustLoad[document.Config]()
	relayCfg := config.MustLoad[mailrelay.Config]()
	offeringCfg := config.MustLoad[offering.Config]()

	m := metrics.New()
	hooks := []httpserver.Option{}
	var checks []httpserver.Check

	var store submission.Store
	switch app.Store {
	case storeRedis:
		client, err := redis.Connect(ctx, config.MustLoad[redis.Config]())
		if err != nil {
			return err
		}
		store = submission.NewRedisStore(client, submission.WithKeyPrefix(app.RedisPrefix))
		checks = append(checks, redis.Healthcheck(client))
		hooks = append(hooks, httpserver.WithShutdownHook(func(context.Context) error {
			return client.Close()
		}))
	case storeMemory:
		mem := submission.NewMemoryStore(app.CleanupEvery)
		store = mem
		hooks = append(hooks, httpserver.WithShutdownHook(func(context.Context) error {
			return mem.Close()
		}))
	default:
		return fmt.Errorf("unknown submission store %q", app.Store)
	}

	sessions, err := session.NewManager(sessionCfg)
	if err != nil {
		return err
	}

	sender, err := email.New(emailCfg)
	if err != nil {
		return err
	}
	if emailCfg.PostmarkServerToken == "" {
		log.Warn("postmark token not set, mail is written to disk", logger.Component("email"), slog.String("dir", emailCfg.DevDir))
	}

	raster := document.NewRodRasterizer(documentCfg, document.WithRodLogger(log))
	hooks = append(hooks, httpserver.WithShutdownHook(func(context.Context) error {
		return raster.Close()
	}))
	renderer := document.NewRenderer(raster, documentCfg, document.WithLogger(log))

	dispatcher := delivery.New(deliveryCfg, store, renderer,
		delivery.WithLogger(log),
		delivery.WithMetrics(m),
	)

	relaySvc := mailrelay.New(relayCfg, sender,
		mailrelay.WithLogger(log),
		mailrelay.WithMetrics(m),
	)

	v := views.Must(views.New())
	svc := offering.NewService(offeringCfg, store, dispatcher, renderer, sessions, v.Offering(),
		offering.WithLogger(log),
		offering.WithMetrics(m),
		offering.WithErrorHandler(handler.NewErrorHandler(log, v.ErrorHandlerConfig())),
	)
	// Registered last so it runs before the browser and the store go away.
	hooks = append(hooks, httpserver.WithShutdownHook(svc.Wait))

	r := chi.NewRouter()
	r.Use(middleware.RealIP, requestid.Middleware, middleware.Recoverer, m.Middleware)

	r.Get("/healthz", httpserver.HealthCheckHandler(log))
	r.Get("/readyz", httpserver.HealthCheckHandler(log, checks...))
	r.Handle("/metrics", m.Handler())

	r.Mount("/", offering.Router(offering.RouterOptions{
		Offering:  svc,
		MailRelay: relaySvc.Handler(),
		Sessions:  sessions.Middleware,
	}))

	opts := append([]httpserver.Option{httpserver.WithLogger(log)}, reverse(hooks)...)
	if err := httpserver.New(httpCfg, opts...).Run(ctx, r); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// reverse orders shutdown hooks so that later dependencies stop first.
func reverse(opts []httpserver.Option) []httpserver.Option {
	out := make([]httpserver.Option, 0, len(opts))
	for i := len(opts) - 1; i >= 0; i-- {
		out = append(out, opts[i])
	}
	return out
}
