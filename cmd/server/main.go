// Command server runs the custodia evidence custody service.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"custodia/internal/admin"
	"custodia/internal/attachment"
	"custodia/internal/audit"
	"custodia/internal/cases"
	"custodia/internal/custody"
	"custodia/internal/evidence"
	"custodia/internal/identity"
	"custodia/internal/notify"
	"custodia/internal/platform/config"
	"custodia/internal/platform/httpserver"
	"custodia/internal/platform/logger"
	"custodia/internal/platform/metrics"
	"custodia/internal/platform/postgres"
	"custodia/internal/platform/redis"
	transporthttp "custodia/internal/transport/http"
	id "custodia/pkg/domain"
)

const shutdownTimeout = 15 * time.Second

func main() {
	log := logger.New()
	if err := run(log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg := config.FromEnv()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	var (
		db            *sql.DB
		identityStore identity.Store
		caseStore     cases.Store
		custodyStore  custody.Store
		evidenceStore evidence.Store
		notifyStore   notify.Store
		auditStore    audit.Store
	)
	if cfg.Postgres.DSN != "" {
		var err error
		db, err = postgres.Open(ctx, cfg.Postgres.DSN)
		if err != nil {
			return err
		}
		defer db.Close()
		identityStore = identity.NewPostgres(db)
		caseStore = cases.NewPostgres(db)
		custodyStore = custody.NewPostgres(db)
		evidenceStore = evidence.NewPostgres(db, cfg.EvidenceCodePrefix)
		notifyStore = notify.NewPostgres(db)
		auditStore = audit.NewPostgres(db)
	} else {
		log.Warn("no postgres DSN configured, running on in-memory stores")
		custodyMem := custody.NewInMemoryStore()
		identityStore = identity.NewInMemoryStore()
		caseStore = cases.NewInMemoryStore()
		custodyStore = custodyMem
		evidenceStore = evidence.NewInMemoryStore(custodyMem, cfg.EvidenceCodePrefix)
		notifyStore = notify.NewInMemoryStore()
		auditStore = audit.NewInMemoryStore()
	}

	cache, err := redis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if cache != nil {
		defer cache.Close()
	}

	attachments, err := attachment.FromConfig(ctx, cfg.Blob)
	if err != nil {
		return err
	}

	var transport notify.Transport = notify.NoopTransport{}
	if cfg.SMTP.Host != "" {
		transport = notify.NewSMTPTransport(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From)
	} else {
		log.Warn("no SMTP host configured, notifications use the no-op transport")
	}
	notifier := notify.NewRecorder(transport, notifyStore, log, m)

	var auditWorker *audit.Worker
	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err := audit.NewStreamPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return err
		}
		defer publisher.Close()
		auditWorker = audit.NewWorker(publisher, log)
	}
	auditor := audit.NewRecorder(auditStore, auditWorker, log, m)

	identitySvc := identity.NewService(identityStore)
	caseRegistry := cases.NewRegistry(caseStore)
	evidenceSvc := evidence.NewService(evidenceStore, attachments, caseRegistry,
		identitySvc, auditor, notifier, m, log, cfg.NotifyTimeout)
	custodyCache := custody.NewStateCache(cache, log)
	custodySvc := custody.NewService(custodyStore, evidenceSvc, identitySvc,
		custodyCache, auditor, notifier, m, log, cfg.NotifyTimeout)
	adminSvc := admin.NewService(evidenceSvc, custodySvc, auditor)

	jwtSvc := identity.NewJWTService(cfg.JWTSigningKey, "custodia")
	if cfg.Postgres.DSN == "" {
		if err := seedDev(ctx, log, identityStore, caseStore, jwtSvc); err != nil {
			return err
		}
	}

	router := transporthttp.NewRouter(transporthttp.Deps{
		Evidence:  evidenceSvc,
		Custody:   custodySvc,
		Admin:     adminSvc,
		Validator: jwtSvc,
		Metrics:   m,
		Logger:    log,
		DB:        db,
		Cache:     cache,
	})
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", slog.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if auditWorker != nil {
		g.Go(func() error {
			if err := auditWorker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// seedDev loads development accounts and a sample case, then logs bearer
// tokens so the API is exercisable immediately.
func seedDev(ctx context.Context, log *slog.Logger, accounts identity.Store, caseStore cases.Store, jwtSvc *identity.JWTService) error {
	seeded, err := identity.SeedDevAccounts(ctx, accounts)
	if err != nil {
		return err
	}
	for _, account := range seeded {
		token, err := jwtSvc.GenerateToken(account, 24*time.Hour)
		if err != nil {
			return err
		}
		log.Info("dev account seeded",
			slog.String("email", account.Email),
			slog.String("role", string(account.Role)),
			slog.String("token", token))
	}

	devCase := &cases.Case{
		ID:        id.NewCaseID(),
		Number:    "CASE-2026-0001",
		Title:     "Development sample case",
		Status:    "open",
		CreatedAt: time.Now().UTC(),
	}
	if err := caseStore.Create(ctx, devCase); err != nil {
		return err
	}
	log.Info("dev case seeded", slog.String("case_id", devCase.ID.String()),
		slog.String("number", devCase.Number))
	return nil
}
