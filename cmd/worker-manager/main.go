// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"quote-workers/internal/common/aws"
	"quote-workers/internal/common/camunda"
	"quote-workers/internal/common/config"
	"quote-workers/internal/common/database"
	apperrors "quote-workers/internal/common/errors"
	"quote-workers/internal/common/logger"
	"quote-workers/internal/common/observability"
	"quote-workers/internal/proposal"
	"quote-workers/internal/repository"
	"quote-workers/pkg/registry"

	// Matching workers
	cms "quote-workers/internal/workers/matching/calculate-match-score"
	fmc "quote-workers/internal/workers/matching/find-matching-companies"
	rcc "quote-workers/internal/workers/matching/refresh-company-cache"

	// Proposal workers
	cp "quote-workers/internal/workers/proposal/compare-proposals"
	rp "quote-workers/internal/workers/proposal/reject-proposal"
	slp "quote-workers/internal/workers/proposal/select-proposal"
	sbp "quote-workers/internal/workers/proposal/submit-proposal"

	// Communication workers
	sdn "quote-workers/internal/workers/communication/send-decision-notification"
)

const (
	shutdownTimeout             = 30 * time.Second
	defaultActivityRegistryPath = "configs/activity-registry.json"
)

// deps holds the shared clients every worker is built from.
type deps struct {
	cfg        *config.Config
	log        logger.Logger
	obs        *observability.Observability
	reader     repository.Reader
	cache      *repository.CachedReader
	candidates repository.CandidateSource
	proposals  *proposal.Service
	mailer     *aws.Mailer
	sms        *aws.SMSSender
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.Observability.ServiceName, log.Named("observability"),
		observability.WithTracing(cfg.Observability.TracingEnabled))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Zeebe ---
	zeebe, err := camunda.Connect(ctx, camunda.ClientConfigFrom(cfg.Camunda), log)
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- PostgreSQL ---
	pg, err := database.Connect(ctx, cfg.Database.Postgres, log)
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	zapLog.Info("PostgreSQL connected successfully")

	// --- Redis ---
	rdb := database.NewRedis(cfg.Database.Redis)
	if err := rdb.Ping(ctx); err != nil {
		// The company cache falls through to Postgres while Redis is down.
		zapLog.Warn("redis unavailable, company cache degraded", zap.Error(err))
	} else {
		zapLog.Info("Redis connected successfully")
	}

	// --- Elasticsearch (optional) ---
	var es *database.ElasticsearchClient
	if cfg.Database.Elasticsearch.Enabled {
		es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err == nil {
			err = es.Ping(ctx)
		}
		if err != nil {
			zapLog.Fatal("elasticsearch failed", zap.Error(err))
		}
		zapLog.Info("Elasticsearch connected successfully")
	}

	// --- Domain wiring ---
	d := &deps{cfg: cfg, log: log, obs: obs}

	repo := repository.NewPostgresRepository(pg.DB)
	d.cache = repository.NewCachedReader(repo, rdb.Client,
		time.Duration(cfg.Matching.CacheTTL)*time.Second, log)
	d.reader = d.cache

	if cfg.Matching.CandidateSource == repository.SourceElasticsearch {
		search := repository.NewCompanySearch(es.Client, es.Index,
			cfg.Database.Elasticsearch.CandidateSize)
		d.candidates = repository.NewSearchCandidates(search, d.reader, cfg.Matching.Scoring.MinScore)
	} else {
		d.candidates = repository.NewAllCandidates(d.reader)
	}

	d.proposals = proposal.NewService(proposal.NewPostgresStore(pg.DB), log.Named("proposal"),
		proposal.WithTracer(obs.Tracer()))

	if cfg.Notifications.Email.Enabled || cfg.Notifications.SMS.Enabled {
		awsCfg, err := aws.LoadConfig(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("aws config failed", zap.Error(err))
		}
		d.mailer = aws.NewMailer(awsCfg, cfg.Notifications.Email.FromEmail)
		if cfg.Notifications.SMS.Enabled {
			d.sms = aws.NewSMSSender(awsCfg, cfg.Notifications.SMS.SenderID)
		}
	}

	// --- Workers ---
	workers := camunda.NewRegistry(zeebe.Zeebe(), log)
	registerWorkers(workers, d)
	zapLog.Info("Workers registered", zap.Strings("taskTypes", workers.Started()))
	checkActivityRegistry(activityRegistryPath(), workers.Started(), log)

	// --- Health & Metrics Server ---
	srv := newHealthServer(cfg.App.HealthPort, func(ctx context.Context) map[string]error {
		checks := map[string]error{
			"zeebe":    zeebe.HealthCheck(ctx),
			"postgres": pg.Ping(ctx),
			"redis":    rdb.Ping(ctx),
		}
		if es != nil {
			checks["elasticsearch"] = es.Ping(ctx)
		}
		return checks
	})
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	zapLog.Info("Shutdown signal received, stopping workers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	workers.Close(shutdownTimeout)

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}
	if err := pg.Close(); err != nil {
		zapLog.Error("Error closing PostgreSQL", zap.Error(err))
	}
	if err := rdb.Close(); err != nil {
		zapLog.Error("Error closing Redis", zap.Error(err))
	}
	obs.Shutdown(shutdownCtx)

	zapLog.Info("Worker manager stopped gracefully")
}

func activityRegistryPath() string {
	if p := os.Getenv("ACTIVITY_REGISTRY_PATH"); p != "" {
		return p
	}
	return defaultActivityRegistryPath
}

func knownErrorCode(code string) bool {
	_, ok := apperrors.BPMNErrorMapping[apperrors.ErrorCode(code)]
	return ok
}

// checkActivityRegistry compares the activity catalog with the workers that
// actually started. Problems are logged; the manager keeps running.
func checkActivityRegistry(path string, started []string, log logger.Logger) []string {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		log.Warn("activity registry not loaded", map[string]interface{}{"path": path, "error": err.Error()})
		return nil
	}
	if err := reg.Validate(knownErrorCode); err != nil {
		log.Warn("activity registry invalid", map[string]interface{}{"path": path, "error": err.Error()})
	}
	missing := reg.Missing(started)
	if len(missing) > 0 {
		log.Warn("registered activities without a running worker", map[string]interface{}{"taskTypes": missing})
	}
	return missing
}

// workerTimeout is the per-job handler deadline from the worker's config.
func workerTimeout(cfg *config.Config, taskType string) time.Duration {
	return config.GetDuration(config.GetWorkerConfig(cfg, taskType).Timeout)
}

func registerWorkers(workers *camunda.Registry, d *deps) {
	cfg := d.cfg

	// --- Matching ---
	{
		wc := fmc.LoadConfig()
		wc.Timeout = workerTimeout(cfg, fmc.TaskType)
		wc.Scoring = &cfg.Matching.Scoring
		wc.EnsurePending = cfg.Matching.EnsurePending
		workers.Start(fmc.TaskType, config.GetWorkerConfig(cfg, fmc.TaskType),
			fmc.NewHandler(wc, d.reader, d.candidates, d.proposals, d.obs, d.log))
	}
	{
		wc := cms.LoadConfig()
		wc.Timeout = workerTimeout(cfg, cms.TaskType)
		wc.Scoring = &cfg.Matching.Scoring
		workers.Start(cms.TaskType, config.GetWorkerConfig(cfg, cms.TaskType),
			cms.NewHandler(wc, d.reader, d.obs, d.log))
	}
	{
		wc := rcc.LoadConfig()
		wc.Timeout = workerTimeout(cfg, rcc.TaskType)
		workers.Start(rcc.TaskType, config.GetWorkerConfig(cfg, rcc.TaskType),
			rcc.NewHandler(wc, d.cache, d.obs, d.log))
	}

	// --- Proposals ---
	{
		wc := sbp.LoadConfig()
		wc.Timeout = workerTimeout(cfg, sbp.TaskType)
		wc.MinContentLength = cfg.Proposal.MinContentLength
		workers.Start(sbp.TaskType, config.GetWorkerConfig(cfg, sbp.TaskType),
			sbp.NewHandler(wc, d.proposals, d.obs, d.log))
	}
	{
		wc := slp.LoadConfig()
		wc.Timeout = workerTimeout(cfg, slp.TaskType)
		workers.Start(slp.TaskType, config.GetWorkerConfig(cfg, slp.TaskType),
			slp.NewHandler(wc, d.proposals, d.obs, d.log))
	}
	{
		wc := rp.LoadConfig()
		wc.Timeout = workerTimeout(cfg, rp.TaskType)
		workers.Start(rp.TaskType, config.GetWorkerConfig(cfg, rp.TaskType),
			rp.NewHandler(wc, d.proposals, d.obs, d.log))
	}
	{
		wc := cp.LoadConfig()
		wc.Timeout = workerTimeout(cfg, cp.TaskType)
		workers.Start(cp.TaskType, config.GetWorkerConfig(cfg, cp.TaskType),
			cp.NewHandler(wc, d.reader, d.obs, d.log))
	}

	// --- Communication ---
	{
		wc := sdn.ConfigFrom(cfg.Notifications)
		wc.Timeout = workerTimeout(cfg, sdn.TaskType)
		if err := wc.Validate(); err != nil {
			d.log.Warn("decision notifications not started", map[string]interface{}{"reason": err.Error()})
			return
		}
		sd := sdn.ServiceDependencies{Reader: d.reader, Email: d.mailer, Logger: d.log.Named(sdn.TaskType)}
		if d.sms != nil {
			sd.SMS = d.sms
		}
		workers.Start(sdn.TaskType, config.GetWorkerConfig(cfg, sdn.TaskType),
			sdn.NewHandler(wc, sdn.NewService(sd, wc), d.obs, d.log))
	}
}

func newHealthServer(port int, ready func(context.Context) map[string]error) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status, code := "ready", http.StatusOK
		checks := make(map[string]string)
		for name, err := range ready(ctx) {
			if err != nil {
				checks[name] = err.Error()
				status, code = "not ready", http.StatusServiceUnavailable
				continue
			}
			checks[name] = "ok"
		}
		writeJSON(w, code, map[string]interface{}{
			"status": status,
			"checks": checks,
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.Handle("/metrics", promhttp.Handler())

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
