// Command server runs the dokflyt process: the HTTP API for deviation,
// distribution, and amendment requests, plus the kafka consumer loop for
// task-created and journal-registered events.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"dokflyt/internal/amendment"
	amendmenthandler "dokflyt/internal/amendment/handler"
	archiveclient "dokflyt/internal/archive/client"
	"dokflyt/internal/avvik"
	avvikhandler "dokflyt/internal/avvik/handler"
	avvikmetrics "dokflyt/internal/avvik/metrics"
	dispatchclient "dokflyt/internal/dispatch/client"
	"dokflyt/internal/distribution"
	distributionhandler "dokflyt/internal/distribution/handler"
	distributionmetrics "dokflyt/internal/distribution/metrics"
	"dokflyt/internal/events"
	"dokflyt/internal/metadata"
	personclient "dokflyt/internal/person/client"
	"dokflyt/internal/platform/config"
	"dokflyt/internal/platform/httpserver"
	"dokflyt/internal/platform/kafka"
	"dokflyt/internal/platform/logger"
	"dokflyt/internal/platform/redis"
	taskclient "dokflyt/internal/task/client"
	"dokflyt/internal/task/reconcile"
	reconcilemetrics "dokflyt/internal/task/reconcile/metrics"
	httptransport "dokflyt/internal/transport/http"
	audit "dokflyt/pkg/platform/audit"
	auditpublisher "dokflyt/pkg/platform/audit/publisher"
	auditmemory "dokflyt/pkg/platform/audit/store/memory"
	auditpostgres "dokflyt/pkg/platform/audit/store/postgres"
	"dokflyt/pkg/platform/retry"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connect failed", "error", err.Error())
		os.Exit(1)
	}

	producer, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		log.Error("kafka producer failed", "error", err.Error())
		os.Exit(1)
	}
	defer producer.Close()

	if err := kafka.EnsureTopics(ctx, producer,
		cfg.Kafka.TopicJournalpostUpdated,
		cfg.Kafka.TopicTaskCreated,
		cfg.Kafka.TopicJournalRegistered,
	); err != nil {
		log.Error("topic provisioning failed", "error", err.Error())
		os.Exit(1)
	}

	consumerClient, err := kafka.NewConsumer(cfg.Kafka,
		cfg.Kafka.TopicTaskCreated,
		cfg.Kafka.TopicJournalRegistered,
	)
	if err != nil {
		log.Error("kafka consumer failed", "error", err.Error())
		os.Exit(1)
	}
	defer consumerClient.Close()

	var auditStore audit.Store
	var pool *pgxpool.Pool
	if cfg.PostgresURL != "" {
		pool, err = pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			log.Error("postgres connect failed", "error", err.Error())
			os.Exit(1)
		}
		defer pool.Close()
		auditStore = auditpostgres.New(pool)
	} else {
		log.Warn("postgres not configured, audit trail kept in memory")
		auditStore = auditmemory.NewInMemoryStore()
	}
	auditor := auditpublisher.NewPublisher(auditStore, auditpublisher.WithAsyncBuffer(256))
	defer auditor.Close()

	archiveClient := archiveclient.New(cfg.ArchiveURL)
	taskStore := taskclient.New(cfg.TaskURL)
	persons := personclient.New(cfg.PersonURL)
	sender := dispatchclient.New(cfg.DispatchURL)

	codec := metadata.NewCodec(cfg.MetadataValueLimit)
	publisher := events.NewKafkaPublisher(producer, cfg.Kafka.TopicJournalpostUpdated, log)

	distributionService := distribution.NewService(
		archiveClient, archiveClient, sender, persons,
		codec, auditor, distributionmetrics.New(), log,
	)
	avvikService := avvik.NewService(avvik.Params{
		Reader:        archiveClient,
		Writer:        archiveClient,
		Tasks:         taskStore,
		Persons:       persons,
		Redistributor: distributionService,
		Publisher:     publisher,
		Codec:         codec,
		Auditor:       auditor,
		Metrics:       avvikmetrics.New(),
		Logger:        log,
		Options: avvik.Options{
			BackOfficeUnit: cfg.BackOfficeUnit,
			OwnThemes:      cfg.OwnThemes,
		},
	})
	amendmentService := amendment.NewService(archiveClient, archiveClient, publisher, codec, auditor, log)

	reconciler := reconcile.NewReconciler(
		archiveClient, archiveClient, taskStore,
		codec, auditor, reconcilemetrics.New(), log, retry.Default,
	)

	var inbox events.Inbox
	if redisClient != nil {
		inbox = events.NewRedisInbox(redisClient.Client)
	} else {
		log.Warn("redis not configured, consumer dedup kept in memory")
		inbox = events.NewMemoryInbox()
	}
	consumer := events.NewConsumer(consumerClient, inbox, reconciler, publisher, log, events.ConsumerConfig{
		TopicTaskCreated:       cfg.Kafka.TopicTaskCreated,
		TopicJournalRegistered: cfg.Kafka.TopicJournalRegistered,
		Themes:                 cfg.OwnThemes,
		Workers:                cfg.Kafka.Workers,
		MaxRedeliveries:        cfg.ConsumerMaxRedeliveries,
	})

	router := httptransport.NewRouter(
		httptransport.RouterConfig{JWTSigningKey: cfg.JWTSigningKey},
		log,
		avvikhandler.New(avvikService, log),
		distributionhandler.New(distributionService, log),
		amendmenthandler.New(amendmentService, log),
	)
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting dokflyt", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return consumer.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("shutdown with error", "error", err.Error())
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
