package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/accountflow/reminder-service/internal/api"
	"github.com/accountflow/reminder-service/internal/cache"
	"github.com/accountflow/reminder-service/internal/client"
	"github.com/accountflow/reminder-service/internal/config"
	"github.com/accountflow/reminder-service/internal/dispatch"
	"github.com/accountflow/reminder-service/internal/events"
	"github.com/accountflow/reminder-service/internal/repo"
	"github.com/accountflow/reminder-service/internal/schedule"
	"github.com/accountflow/reminder-service/internal/scheduler"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadAll()
	if err != nil {
		log.Fatal(err)
	}

	slog.Info("reminder service starting",
		"addr", cfg.Server.Address,
		"interval", cfg.Scheduler.Interval.String(),
		"redis", cfg.Redis.Enabled,
		"events", cfg.Events.Enabled,
	)

	db, err := sql.Open("pgx", cfg.Database.PostgresURL)
	if err != nil {
		log.Fatalf("opening postgres: %v", err)
	}
	defer db.Close()

	reminders := repo.NewPostgresReminderRepo(db)
	settings := repo.NewPostgresSettingsRepo(db)
	clients := repo.NewPostgresClientDirectory(db)
	emailLog := repo.NewPostgresEmailLogRepo(db)

	sender := client.NewNotifyClient(cfg.Notifier.URL, cfg.Notifier.From, cfg.Notifier.Timeout)

	var receipts cache.ReceiptCache
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		receipts = cache.NewRedisCache(rdb, cfg.Redis.TTL)
	}

	dispatcher := dispatch.NewDispatcher(reminders, clients, sender).
		WithHooks(dispatchHooks(receipts, emailLog))

	planner := schedule.NewPlanner(reminders, settings, clients)

	sched, err := scheduler.New(cfg.Scheduler.Interval, func(ctx context.Context, now time.Time) {
		if _, err := planner.EnsureScheduled(ctx, now); err != nil {
			slog.Error("planning sweep failed", "err", err)
		}
		batch, err := dispatcher.DispatchDue(ctx, now, "")
		if err != nil {
			slog.Error("dispatch sweep failed", "err", err)
			return
		}
		if batch.Processed > 0 {
			slog.Info("dispatch sweep finished",
				"processed", batch.Processed,
				"succeeded", batch.Succeeded,
				"failed", batch.Failed,
			)
		}
	})
	if err != nil {
		log.Fatalf("creating scheduler: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Events.Enabled {
		conn, err := amqp.Dial(cfg.Events.AMQPURL)
		if err != nil {
			log.Fatalf("connecting to amqp: %v", err)
		}
		defer conn.Close()

		consumer := events.NewConsumer(conn, cfg.Events.Queue, sender, emailLog)
		go func() {
			if err := consumer.Run(ctx); err != nil {
				slog.Error("document event consumer exited", "err", err)
			}
		}()
	}

	handler := api.NewHandler(sched, dispatcher, reminders, settings, emailLog, receipts)
	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: loggingMiddleware(api.Router(handler)),
	}

	go func() {
		slog.Info("http server listening", "addr", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown failed", "err", err)
	}
}

// dispatchHooks records each settled dispatch attempt in the email log
// and, when Redis is configured, stores a delivery receipt.
func dispatchHooks(receipts cache.ReceiptCache, emailLog repo.EmailLogRepository) (
	func(ctx context.Context, o dispatch.Outcome) error,
	func(ctx context.Context, o dispatch.Outcome) error,
) {
	onSent := func(ctx context.Context, o dispatch.Outcome) error {
		if receipts != nil {
			if err := receipts.StoreReceipt(ctx, o.Reminder.ID, o.RemoteID, time.Now()); err != nil {
				slog.Error("storing receipt failed", "reminder_id", o.Reminder.ID, "err", err)
			}
		}
		remoteID := o.RemoteID
		return emailLog.Insert(ctx, repo.EmailLog{
			ID:       uuid.NewString(),
			To:       o.To,
			Subject:  o.Reminder.Title,
			Body:     o.Body,
			Kind:     "reminder",
			Status:   "sent",
			RemoteID: &remoteID,
		})
	}

	onFailed := func(ctx context.Context, o dispatch.Outcome) error {
		reason := o.Reason
		return emailLog.Insert(ctx, repo.EmailLog{
			ID:      uuid.NewString(),
			To:      o.To,
			Subject: o.Reminder.Title,
			Body:    o.Body,
			Kind:    "reminder",
			Status:  "failed",
			Error:   &reason,
		})
	}

	return onSent, onFailed
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		slog.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
