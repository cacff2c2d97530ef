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

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/twmb/franz-go/pkg/kgo"
	"golang.org/x/sync/errgroup"

	"deedflow/internal/admin"
	"deedflow/internal/audit"
	"deedflow/internal/determination"
	"deedflow/internal/filing"
	"deedflow/internal/notification"
	notifmetrics "deedflow/internal/notification/metrics"
	partyhandler "deedflow/internal/party/handler"
	"deedflow/internal/party/securelink"
	partyservice "deedflow/internal/party/service"
	partystore "deedflow/internal/party/store"
	"deedflow/internal/platform/config"
	"deedflow/internal/platform/httpserver"
	"deedflow/internal/platform/logger"
	platformmetrics "deedflow/internal/platform/metrics"
	platformredis "deedflow/internal/platform/redis"
	"deedflow/internal/reconciliation"
	reconmetrics "deedflow/internal/reconciliation/metrics"
	reporthandler "deedflow/internal/report/handler"
	reportmetrics "deedflow/internal/report/metrics"
	reportservice "deedflow/internal/report/service"
	reportstore "deedflow/internal/report/store"
	submissionhandler "deedflow/internal/submission/handler"
	submissionservice "deedflow/internal/submission/service"
	submissionstore "deedflow/internal/submission/store"
	"deedflow/internal/sweep"
	httptransport "deedflow/internal/transport/http"
	id "deedflow/pkg/domain"
)

// main wires storage, services, sweeps, and the HTTP router, then runs
// everything under one errgroup. Business logic lives in the internal
// service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Postgres is optional for local development; without it every store
	// falls back to its in-memory implementation.
	var db *sql.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			fatal(log, "open database", err)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			fatal(log, "ping database", err)
		}
	}

	rdb, err := platformredis.New(cfg.Redis)
	if err != nil {
		fatal(log, "connect redis", err)
	}
	if rdb != nil {
		defer rdb.Close()
	}

	registry := platformmetrics.NewRegistry()

	var (
		auditStore audit.Store
		subStore   submissionstore.Store
		repStore   reportstore.Store
		ptyStore   partystore.Store
		ledger     notification.Ledger
	)
	if db != nil {
		auditStore = audit.NewPostgres(db)
		subStore = submissionstore.NewPostgresStore(db)
		repStore = reportstore.NewPostgresStore(db)
		ptyStore = partystore.NewPostgresStore(db)
		ledger = notification.NewPostgresLedger(db)
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		auditStore = audit.NewInMemoryStore()
		subStore = submissionstore.NewInMemoryStore()
		repStore = reportstore.NewInMemoryStore()
		ptyStore = partystore.NewInMemoryStore()
		ledger = notification.NewInMemoryLedger()
	}
	auditor := audit.NewPublisher(auditStore)

	var links securelink.ActiveLinkStore
	if rdb != nil {
		links = securelink.NewRedisStore(rdb.Client)
	} else {
		links = securelink.NewInMemoryStore()
	}
	issuer := securelink.NewIssuer([]byte(cfg.LinkSigningKey), cfg.LinkTTL)

	dispatcher := &notification.LogDispatcher{Logger: log}

	filingChannel, err := filing.NewDropDirectory(cfg.FilingDropDir)
	if err != nil {
		fatal(log, "prepare filing drop directory", err)
	}
	ackSource, err := reconciliation.NewDropDirectory(cfg.AckDropDir)
	if err != nil {
		fatal(log, "prepare acknowledgment drop directory", err)
	}

	// The report service needs the party roster and the party service needs
	// the report gate; the adapter breaks the construction cycle.
	roster := &rosterAdapter{}
	reportSvc := reportservice.New(repStore, roster, filingChannel, auditor, cfg.FilingWindow,
		reportservice.WithLogger(log),
		reportservice.WithMetrics(reportmetrics.New(registry)),
	)
	partySvc := partyservice.New(ptyStore, issuer, links, reportSvc, dispatcher, auditor,
		partyservice.WithLogger(log),
	)
	roster.parties = partySvc

	submissionSvc := submissionservice.New(subStore, determination.NewEngine(), reportSvc, auditor,
		submissionservice.WithLogger(log),
	)

	notifier := notification.NewNotifier(ledger, dispatcher, auditor,
		notification.WithLogger(log),
		notification.WithMetrics(notifmetrics.New(registry)),
	)
	poller := reconciliation.New(ackSource, reportSvc, notifier, auditor, cfg.Sweeps.FetchTimeout,
		reconciliation.WithLogger(log),
		reconciliation.WithMetrics(reconmetrics.New(registry)),
		reconciliation.WithOutcomeRecipient(cfg.ComplianceInbox),
	)

	runner := sweep.NewRunner(log)
	runner.Register(notification.NewReminderSweep(reportSvc, notifier, cfg.ComplianceInbox, log), cfg.Sweeps.ReminderInterval)
	runner.Register(notification.NewNudgeSweep(ptyStore, notifier, log), cfg.Sweeps.NudgeInterval)
	runner.Register(poller, cfg.Sweeps.ReconcileInterval)

	router := httptransport.NewRouter(httptransport.Deps{
		Submissions: submissionhandler.New(submissionSvc, log),
		Reports:     reporthandler.New(reportSvc, log),
		Parties:     partyhandler.New(partySvc, log),
		Admin:       admin.New(runner, log),
		Registry:    registry,
		StaffToken:  cfg.StaffToken,
		Logger:      log,
		Health:      healthCheck(db, rdb),
	})
	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return runner.Run(ctx)
	})
	if db != nil && len(cfg.Kafka.Brokers) > 0 {
		client, err := kgo.NewClient(kgo.SeedBrokers(cfg.Kafka.Brokers...))
		if err != nil {
			fatal(log, "connect kafka", err)
		}
		defer client.Close()
		worker := audit.NewOutboxWorker(db, client, cfg.Kafka.AuditTopic, log)
		g.Go(func() error {
			if err := worker.Run(ctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		log.Info("starting deedflow", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
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

	if err := g.Wait(); err != nil {
		fatal(log, "shutdown", err)
	}
	log.Info("deedflow stopped")
}

// rosterAdapter breaks the report-party construction cycle: the report
// service reads the roster summary while the party service asks the report
// service whether the roster is still open.
type rosterAdapter struct {
	parties reportservice.PartyRoster
}

func (a *rosterAdapter) Summary(ctx context.Context, repID id.ReportID) (reportservice.RosterSummary, error) {
	return a.parties.Summary(ctx, repID)
}

func healthCheck(db *sql.DB, rdb *platformredis.Client) func() error {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				return err
			}
		}
		if rdb != nil {
			return rdb.Health(ctx)
		}
		return nil
	}
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, "error", err)
	os.Exit(1)
}
