// Command server runs the petition moderation service: identity, the
// moderation workflow, the public justice index, consultations, depositions
// and the audit trail behind one HTTP listener.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"justicerollon/internal/audit"
	consultationhandler "justicerollon/internal/consultation/handler"
	consultationsvc "justicerollon/internal/consultation/service"
	consultationstore "justicerollon/internal/consultation/store"
	depositionhandler "justicerollon/internal/deposition/handler"
	depositionsvc "justicerollon/internal/deposition/service"
	depositionstore "justicerollon/internal/deposition/store"
	identityhandler "justicerollon/internal/identity/handler"
	identitysvc "justicerollon/internal/identity/service"
	identitystore "justicerollon/internal/identity/store"
	"justicerollon/internal/identity/token"
	indexhandler "justicerollon/internal/justiceindex/handler"
	indexsvc "justicerollon/internal/justiceindex/service"
	indexstore "justicerollon/internal/justiceindex/store"
	petitionhandler "justicerollon/internal/petition/handler"
	petitionsvc "justicerollon/internal/petition/service"
	petitionstore "justicerollon/internal/petition/store"
	"justicerollon/internal/platform/config"
	"justicerollon/internal/platform/httpserver"
	"justicerollon/internal/platform/kafka"
	"justicerollon/internal/platform/logger"
	"justicerollon/internal/platform/metrics"
	"justicerollon/internal/platform/middleware"
	"justicerollon/internal/platform/postgres"
	platformredis "justicerollon/internal/platform/redis"
)

const auditConsumerGroup = "justicerollon-audit"

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	db, err := postgres.Open(cfg.PostgresDSN)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		log.Info("postgres connected")
	} else {
		log.Info("postgres not configured, using in-memory stores")
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		log.Info("redis connected")
	}

	// Stores.
	var (
		userStore     identitystore.UserStore
		petitionStore petitionstore.PetitionStore
		evidenceStore petitionstore.EvidenceStore
		entryStore    indexstore.EntryStore
		slotStore     consultationstore.SlotStore
		bookingStore  consultationstore.BookingStore
		depoStore     depositionstore.DepositionStore
		auditStore    audit.Store
	)
	if db != nil {
		userStore = identitystore.NewPostgresUserStore(db)
		petitionStore = petitionstore.NewPostgresPetitionStore(db)
		evidenceStore = petitionstore.NewPostgresEvidenceStore(db)
		entryStore = indexstore.NewPostgresEntryStore(db)
		slotStore = consultationstore.NewPostgresSlotStore(db)
		bookingStore = consultationstore.NewPostgresBookingStore(db)
		depoStore = depositionstore.NewPostgresDepositionStore(db)
		auditStore = audit.NewPostgresStore(db)
	} else {
		userStore = identitystore.NewInMemoryUserStore()
		petitionStore = petitionstore.NewInMemoryPetitionStore()
		evidenceStore = petitionstore.NewInMemoryEvidenceStore()
		entryStore = indexstore.NewInMemoryEntryStore()
		slotStore = consultationstore.NewInMemorySlotStore()
		bookingStore = consultationstore.NewInMemoryBookingStore()
		depoStore = depositionstore.NewInMemoryDepositionStore()
		auditStore = audit.NewInMemoryStore()
	}
	entryStore = indexstore.NewCachedEntryStore(entryStore, redisClient, cfg.IndexCacheTTL, log)

	g, ctx := errgroup.WithContext(ctx)

	// Audit pipeline: Kafka when brokers are configured, otherwise an
	// in-process channel drained by a worker.
	var auditPublisher interface {
		Emit(ctx context.Context, base audit.Event) error
	}
	producer, err := kafka.NewProducer(ctx, cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
	if err != nil {
		return err
	}
	if producer != nil {
		defer producer.Close()
		auditPublisher = audit.NewKafkaPublisher(producer, cfg.Kafka.AuditTopic)

		consumer, err := kafka.NewConsumer(cfg.Kafka.Brokers, auditConsumerGroup, cfg.Kafka.AuditTopic)
		if err != nil {
			return err
		}
		defer consumer.Close()
		g.Go(func() error {
			err := consumer.Run(ctx, audit.NewConsumerHandler(auditStore, log))
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
		log.Info("audit pipeline on kafka", "topic", cfg.Kafka.AuditTopic)
	} else {
		inbox := make(chan audit.Event, 1024)
		auditPublisher = audit.NewChannelPublisher(inbox, log)
		worker := audit.NewWorker(auditStore, inbox, log)
		g.Go(func() error {
			err := worker.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	// Services.
	tokens := token.NewService(cfg.JWT.SigningKey, cfg.JWT.Issuer, cfg.JWT.Audience)
	identity := identitysvc.New(userStore, tokens, cfg.JWT.AccessTTL,
		identitysvc.WithLogger(log),
		identitysvc.WithAuditPublisher(auditPublisher),
		identitysvc.WithMetrics(m),
	)
	index := indexsvc.New(entryStore, indexsvc.WithLogger(log))
	petitions := petitionsvc.New(petitionStore, evidenceStore, index,
		petitionsvc.WithLogger(log),
		petitionsvc.WithAuditPublisher(auditPublisher),
		petitionsvc.WithMetrics(m),
		petitionsvc.WithDB(db),
	)
	consultations := consultationsvc.New(slotStore, bookingStore,
		consultationsvc.WithLogger(log),
		consultationsvc.WithAuditPublisher(auditPublisher),
		consultationsvc.WithDB(db),
	)
	depositions := depositionsvc.New(depoStore, petitions,
		depositionsvc.WithLogger(log),
		depositionsvc.WithAuditPublisher(auditPublisher),
	)

	// Router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log))
	r.Use(middleware.LatencyMiddleware(m))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", promhttp.Handler())

	identityhandler.New(identity, log, tokens).Register(r)
	petitionhandler.New(petitions, log, tokens).Register(r)
	indexhandler.New(index, log).Register(r)
	consultationhandler.New(consultations, log, tokens).Register(r)
	depositionhandler.New(depositions, log, tokens).Register(r)
	audit.NewHandler(auditStore, log, tokens).Register(r)

	srv := httpserver.New(cfg.Addr, r)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
