package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/labstack/echo/v4"
	"github.com/unionhall/ledgerhub/db"
	"github.com/unionhall/ledgerhub/db/migrations"
	"github.com/unionhall/ledgerhub/events"
	"github.com/unionhall/ledgerhub/events/kafka"
	"github.com/unionhall/ledgerhub/lib/logging"
	"github.com/unionhall/ledgerhub/lib/service"
	"github.com/unionhall/ledgerhub/lib/transport"
	"github.com/unionhall/ledgerhub/plugins"
	"github.com/unionhall/ledgerhub/rabbitmq"
	"github.com/uptrace/bun/migrate"
	ddEcho "gopkg.in/DataDog/dd-trace-go.v1/contrib/labstack/echo.v4"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

func main() {

	c := &service.Config{}

	// Load configruation from environment variables
	err := godotenv.Load(".env")
	if err != nil {
		fmt.Println("Failed to load .env file")
	}
	err = envconfig.Process("", c)
	if err != nil {
		log.Fatalf("Error loading environment variables: %v", err)
	}

	// Setup logging to STDOUT or a configrued log file
	logger := logging.Logger(c.LogFilePath, c.LogLevel)

	// Open a DB connection based on the configured DATABASE_URI
	dbConn, err := db.Open(c)
	if err != nil {
		logger.Fatalf("Error initializing db connection: %v", err)
	}

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), time.Duration(c.DatabaseTimeout)*time.Second)
	migrator := migrate.NewMigrator(dbConn, migrations.Migrations)
	err = migrator.Init(startupCtx)
	if err != nil {
		logger.Fatalf("Error initializing db migrator: %v", err)
	}
	group, err := migrator.Migrate(startupCtx)
	if err != nil {
		logger.Fatalf("Error migrating database: %v", err)
	}
	cancelStartup()
	if !group.IsZero() {
		logger.Infof("Migrated database to %s", group)
	}

	// sentry init needs to happen before the echo middlewares are added
	if c.SentryDSN != "" {
		if err = sentry.Init(sentry.ClientOptions{
			Dsn:              c.SentryDSN,
			EnableTracing:    c.SentryTracesSampleRate > 0,
			TracesSampleRate: c.SentryTracesSampleRate,
		}); err != nil {
			logger.Errorf("sentry init error: %v", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	emitters := events.Multi{}

	// If no RABBITMQ_URI was provided we will not attempt to create a client
	// Ledger events are not published and domain events are not consumed in this case.
	var rabbitmqClient rabbitmq.Client
	if c.RabbitMQUri != "" {
		amqpClient, err := rabbitmq.DialAMQP(c.RabbitMQUri, rabbitmq.WithAmqpLogger(logger))
		if err != nil {
			logger.Fatal(err)
		}

		rabbitmqClient, err = rabbitmq.NewClient(amqpClient,
			rabbitmq.WithLogger(logger),
			rabbitmq.WithLedgerExchange(c.RabbitMQLedgerExchange),
			rabbitmq.WithDomainExchange(c.RabbitMQDomainExchange),
			rabbitmq.WithDomainConsumerQueueName(c.RabbitMQDomainConsumerQueueName),
		)
		if err != nil {
			logger.Fatal(err)
		}

		// close the connection gently at the end of the runtime
		defer rabbitmqClient.Close()
		emitters = append(emitters, rabbitmqClient)
	}

	if len(c.KafkaBrokers) > 0 {
		publisher := kafka.NewPublisher(c.KafkaBrokers, c.KafkaTopic)
		defer publisher.Close()
		emitters = append(emitters, publisher)
	}

	svc := &service.LedgerService{
		Config:  c,
		DB:      dbConn,
		Logger:  logger,
		Plugins: plugins.DefaultRegistry(),
	}
	if len(emitters) > 0 {
		emitter := &events.Async{Emitter: emitters, Logger: logger}
		svc.PostCommitHooks = append(svc.PostCommitHooks, events.LedgerChangeHook(emitter, logger))
	}

	//init echo server
	e := transport.InitEcho(c, logger)
	//if Datadog is configured, add datadog middleware
	if c.DatadogAgentUrl != "" {
		tracer.Start(tracer.WithAgentAddr(c.DatadogAgentUrl))
		defer tracer.Stop()
		e.Use(ddEcho.Middleware(ddEcho.WithServiceName("ledgerhub")))
	}

	logMw := transport.CreateLoggingMiddleware(logger)
	// strict rate limit for requests that write
	strictRateLimitMiddleware := transport.CreateRateLimitMiddleware(c.StrictRateLimit, c.BurstRateLimit)
	transport.RegisterV2Endpoints(svc, e, logMw, strictRateLimitMiddleware)

	var backgroundWg sync.WaitGroup
	backGroundCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Run charge plugins for domain events in the background
	if rabbitmqClient != nil {
		backgroundWg.Add(1)
		go func() {
			defer backgroundWg.Done()
			err := rabbitmqClient.ConsumeDomainEvents(backGroundCtx, svc)
			if err != nil && backGroundCtx.Err() == nil {
				sentry.CaptureException(err)
				//we want to restart in case of an error here
				svc.Logger.Fatal(err)
			}
			svc.Logger.Info("Domain event consumer done")
		}()
	}

	//Start Prometheus server if necessary
	var echoPrometheus *echo.Echo
	if c.EnablePrometheus {
		echoPrometheus = transport.NewPrometheusEcho(logger, e)
		go transport.ServePrometheus(echoPrometheus, c.PrometheusPort)
	}

	// Start server
	go func() {
		if err := e.Start(fmt.Sprintf(":%v", c.Port)); err != nil && err != http.ErrServerClosed {
			e.Logger.Fatal("shutting down the server")
		}
	}()

	<-backGroundCtx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		e.Logger.Fatal(err)
	}
	if echoPrometheus != nil {
		if err := echoPrometheus.Shutdown(ctx); err != nil {
			e.Logger.Fatal(err)
		}
	}
	//Wait for graceful shutdown of background routines
	backgroundWg.Wait()
	svc.Logger.Info("Ledgerhub exiting gracefully. Goodbye.")
}
