// cmd/engine/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/DeividBruno15/eventoplus-sub000/internal/common/config"
	"github.com/DeividBruno15/eventoplus-sub000/internal/common/database"
	apperrors "github.com/DeividBruno15/eventoplus-sub000/internal/common/errors"
	"github.com/DeividBruno15/eventoplus-sub000/internal/common/logger"
	"github.com/DeividBruno15/eventoplus-sub000/internal/common/observability"
	"github.com/DeividBruno15/eventoplus-sub000/internal/lifecycle"
	"github.com/DeividBruno15/eventoplus-sub000/internal/models"
	"github.com/DeividBruno15/eventoplus-sub000/internal/notify"
	"github.com/DeividBruno15/eventoplus-sub000/internal/store"
	"github.com/DeividBruno15/eventoplus-sub000/pkg/registry"
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
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting lifecycle engine...",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name, cfg.Metrics.JaegerEndpoint)
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Init PostgreSQL with retry ---
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

	// --- Init Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
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

	// --- Stores ---
	apps := store.NewPostgresApplicationStore(pg.DB)
	events := store.NewPostgresEventStore(pg.DB)
	convs := store.NewPostgresConversationStore(pg.DB)
	contacts := store.NewPostgresContactStore(pg.DB)
	audit := store.NewElasticAuditStore(esClient.Client, cfg.Database.Elasticsearch.AuditIndex)

	// --- Notification dispatcher ---
	var dispatcher notify.Dispatcher
	if cfg.AWS.NotifyDisabled {
		dispatcher = notify.NewLogDispatcher(log)
		zapLog.Info("Notifications disabled, logging only")
	} else {
		sesClient, err := notify.NewSESClient(ctx, cfg.AWS.Region)
		if err != nil {
			zapLog.Fatal("ses client failed", zap.Error(err))
		}
		snsClient, err := notify.NewSNSClient(ctx, cfg.AWS.Region)
		if err != nil {
			zapLog.Fatal("sns client failed", zap.Error(err))
		}
		templates, err := registry.LoadRegistry(cfg.Notifications.TemplatePath)
		if err != nil {
			zapLog.Warn("template registry load failed, sending raw content", zap.Error(err))
			templates = nil
		}
		dispatcher = notify.NewAWSDispatcher(sesClient, snsClient, contacts, templates, cfg.AWS.SenderEmail, log)
	}

	// --- Lifecycle engine ---
	ledger := lifecycle.NewRedisLedger(rdb.Client, cfg.Engine.LedgerNamespace, log)
	reconciler := lifecycle.NewListReconciler(ledger)
	verifier := lifecycle.NewStatusVerifier(apps, log)
	approval := lifecycle.NewApprovalOrchestrator(apps, events, convs, dispatcher, log)
	rejection := lifecycle.NewRejectionOrchestrator(apps, apps, audit, ledger, dispatcher, log)
	submission := lifecycle.NewSubmissionOrchestrator(apps, apps, events, audit, dispatcher, log)
	engine := lifecycle.NewEngine(apps, events, approval, rejection, submission, reconciler, verifier, obs, log)

	refresher := lifecycle.NewRefresher(
		apps, reconciler, rdb.Client,
		cfg.Engine.InvalidationChannel,
		time.Duration(cfg.Engine.RefreshIntervalSeconds)*time.Second,
		func(eventID string, apps []models.Application) {
			log.Debug("event list refreshed", map[string]interface{}{
				"eventId": eventID,
				"count":   len(apps),
			})
		},
		log,
	)
	go refresher.Run(ctx)

	registerAPI(engine, refresher, log)
	zapLog.Info("Lifecycle engine initialized")

	// --- API, Health & Metrics Server ---
	srv := &http.Server{Addr: cfg.Metrics.Address}
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		if cfg.Metrics.Enabled {
			http.Handle("/metrics", promhttp.Handler())
		}
		zapLog.Info("API server listening", zap.String("address", cfg.Metrics.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("API server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLog.Info("Shutdown signal received, stopping engine...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("API server shutdown failed", zap.Error(err))
	}

	zapLog.Info("Lifecycle engine stopped gracefully")
}

// registerAPI wires the lifecycle operations onto the default mux.
func registerAPI(engine *lifecycle.Engine, refresher *lifecycle.Refresher, log logger.Logger) {
	http.HandleFunc("POST /api/events/{eventID}/applications", func(w http.ResponseWriter, r *http.Request) {
		var input lifecycle.SubmitInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			writeError(w, apperrors.NewValidationFailedError(err.Error()))
			return
		}
		input.EventID = r.PathValue("eventID")
		app, err := engine.Submit(r.Context(), input)
		if err != nil {
			writeError(w, err)
			return
		}
		refresher.Invalidate(r.Context(), input.EventID)
		writeJSON(w, http.StatusCreated, app)
	})

	http.HandleFunc("GET /api/events/{eventID}/applications", func(w http.ResponseWriter, r *http.Request) {
		eventID := r.PathValue("eventID")
		refresher.Watch(r.Context(), eventID)
		apps, err := engine.Render(r.Context(), eventID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, apps)
	})

	http.HandleFunc("POST /api/applications/{id}/approve", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			EventID    string `json:"eventId"`
			ProviderID string `json:"providerId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, apperrors.NewValidationFailedError(err.Error()))
			return
		}
		result, err := engine.Approve(r.Context(), r.PathValue("id"), body.ProviderID, body.EventID)
		if err != nil {
			writeError(w, err)
			return
		}
		refresher.Invalidate(r.Context(), body.EventID)
		writeJSON(w, http.StatusOK, result)
	})

	http.HandleFunc("POST /api/applications/{id}/reject", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			EventID    string `json:"eventId"`
			ProviderID string `json:"providerId"`
			Reason     string `json:"reason"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, apperrors.NewValidationFailedError(err.Error()))
			return
		}
		result, err := engine.Reject(r.Context(), body.EventID, r.PathValue("id"), body.ProviderID, body.Reason)
		if err != nil {
			writeError(w, err)
			return
		}
		refresher.Invalidate(r.Context(), body.EventID)
		writeJSON(w, http.StatusOK, result)
	})

	http.HandleFunc("POST /api/applications/{id}/cancel", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			ProviderID string `json:"providerId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, apperrors.NewValidationFailedError(err.Error()))
			return
		}
		result, err := engine.Cancel(r.Context(), r.PathValue("id"), body.ProviderID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	})

	http.HandleFunc("POST /api/applications/{id}/verify", func(w http.ResponseWriter, r *http.Request) {
		status, err := engine.Reverify(r.Context(), r.PathValue("id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]models.ApplicationStatus{"status": status})
	})

	log.Info("API routes registered", nil)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var de *apperrors.DomainError
	if errors.As(err, &de) {
		switch de.Code {
		case apperrors.ErrCodeNotFound:
			status = http.StatusNotFound
		case apperrors.ErrCodeValidationFailed:
			status = http.StatusBadRequest
		case apperrors.ErrCodeDuplicate, apperrors.ErrCodeAlreadyTerminal, apperrors.ErrCodeOperationInProgress:
			status = http.StatusConflict
		}
		writeJSON(w, status, de)
		return
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
