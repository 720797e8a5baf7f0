// cmd/orchestrator/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	commonaws "intake-orchestrator/internal/common/aws"
	"intake-orchestrator/internal/common/config"
	"intake-orchestrator/internal/common/database"
	"intake-orchestrator/internal/common/logger"
	"intake-orchestrator/internal/common/observability"
	"intake-orchestrator/internal/consent"
	"intake-orchestrator/internal/dispatch"
	"intake-orchestrator/internal/escalation"
	"intake-orchestrator/internal/intake"
	"intake-orchestrator/internal/orchestrator"
	"intake-orchestrator/internal/reporting"
	"intake-orchestrator/internal/scoring"
	"intake-orchestrator/internal/session"

	casestatus "intake-orchestrator/internal/tools/case-status"
	casesubmit "intake-orchestrator/internal/tools/case-submit"
	customerprofile "intake-orchestrator/internal/tools/customer-profile"
	followupschedule "intake-orchestrator/internal/tools/followup-schedule"
	resourcelookup "intake-orchestrator/internal/tools/resource-lookup"
	scoringcalculate "intake-orchestrator/internal/tools/scoring-calculate"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting intake orchestrator...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Redis (session store) with retry ---
	var redisClient *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redisClient, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redisClient.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redisClient.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init PostgreSQL (cases, follow-ups, scoring audit) with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch (reporting) with retry ---
	var esClient *database.ElasticsearchClient
	if cfg.Reporting.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping()
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		zapLog.Info("Elasticsearch connected successfully")
	}

	// --- Init AWS service clients ---
	var emailer casesubmit.Emailer
	if cfg.Integrations.AWS.SES.Enabled {
		sesClient, err := commonaws.NewSESClient(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Fatal("SES client failed", zap.Error(err))
		}
		emailer = sesClient
	}

	var smsSender followupschedule.SMSSender
	if cfg.Integrations.AWS.SNS.Enabled {
		snsClient, err := commonaws.NewSNSClient(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Fatal("SNS client failed", zap.Error(err))
		}
		smsSender = snsClient
	}

	var profilesClient customerprofile.ProfilesAPI
	if cfg.Integrations.AWS.CustomerProfiles.Enabled {
		cp, err := commonaws.NewCustomerProfilesClient(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Fatal("Customer Profiles client failed", zap.Error(err))
		}
		profilesClient = cp
	}

	zapLog.Info("All external service clients initialized")

	// --- Core components ---
	store := session.NewStore(redisClient.Client, cfg.Session.KeyPrefix,
		time.Duration(cfg.Session.TTLMinutes)*time.Minute, log)
	gate := consent.NewGate()
	collector := intake.NewCollector(cfg.Intake, log)
	engine := scoring.NewEngine(cfg.Scoring)

	router, err := escalation.NewRouter(cfg.Escalation, log)
	if err != nil {
		zapLog.Fatal("escalation router failed", zap.Error(err))
	}

	var indexer *reporting.Indexer
	if esClient != nil {
		indexer = reporting.NewIndexer(esClient.Client, cfg.Reporting, log)
	}

	// --- Tool adapters ---
	dispatcher := dispatch.NewDispatcher(gate,
		config.GetDuration(cfg.Tools.ExecutionBudget), log)
	dispatcher.Register(scoringcalculate.NewAdapter(engine, pg.DB, log))
	dispatcher.Register(resourcelookup.NewAdapter(resourcelookup.FromAppConfig(cfg), log))
	dispatcher.Register(casesubmit.NewAdapter(casesubmit.FromAppConfig(cfg), pg.DB, emailer, log))
	dispatcher.Register(followupschedule.NewAdapter(followupschedule.FromAppConfig(cfg), pg.DB, smsSender, log))
	dispatcher.Register(casestatus.NewAdapter(pg.DB, log))
	if profilesClient != nil {
		dispatcher.Register(customerprofile.NewAdapter(profilesClient,
			cfg.Integrations.AWS.CustomerProfiles.DomainName, log))
	}

	orch := orchestrator.New(store, gate, collector, dispatcher, router, indexer, obs, log)
	server := orchestrator.NewServer(orch, cfg.Server, log)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Millisecond)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("HTTP server shutdown failed", zap.Error(err))
	}

	zapLog.Info("Intake orchestrator stopped gracefully")
}
