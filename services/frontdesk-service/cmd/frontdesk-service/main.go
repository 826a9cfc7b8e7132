package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fusionprime/frontdesk/libs/auth"
	"github.com/fusionprime/frontdesk/libs/config"
	"github.com/fusionprime/frontdesk/libs/db"
	"github.com/fusionprime/frontdesk/libs/httpx"
	"github.com/fusionprime/frontdesk/libs/kafkax"
	otelx "github.com/fusionprime/frontdesk/libs/otel"
	"github.com/fusionprime/frontdesk/libs/outbox"
	"github.com/fusionprime/frontdesk/libs/runtime"
	"github.com/fusionprime/frontdesk/services/frontdesk-service/internal/booking"
	"github.com/fusionprime/frontdesk/services/frontdesk-service/internal/handlers"
	"github.com/fusionprime/frontdesk/services/frontdesk-service/internal/notify"
	"github.com/fusionprime/frontdesk/services/frontdesk-service/internal/storage"
)

func main() {
	service := config.String("SERVICE_NAME", "frontdesk-service")
	port, err := config.Port("PORT", "8081")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	bookingRepo := storage.NewBookingRepository(pool)
	directoryRepo := storage.NewDirectoryRepository(pool)

	var notifier booking.Notifier = booking.NopNotifier{}
	if smsURL := config.String("SMS_WEBHOOK_URL", ""); smsURL != "" {
		notifier = notify.NewSMSNotifier(smsURL, config.String("SMS_WEBHOOK_TOKEN", ""))
	} else {
		logger.Warn("SMS_WEBHOOK_URL not set; confirmations will not be sent")
	}
	bookingSvc := booking.NewService(bookingRepo, directoryRepo, notifier, logger)

	outboxPublisher := outbox.NewPublisher(pool, outbox.NewRepository(pool), logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	bookingHandler := handlers.NewBookingHandler(bookingSvc, bookingRepo, logger)
	directoryHandler := handlers.NewDirectoryHandler(directoryRepo, logger)

	api := http.NewServeMux()
	api.HandleFunc("/api/v1/appointments", bookingHandler.Appointments)
	api.HandleFunc("/api/v1/appointments/reserve", bookingHandler.Reserve)
	api.HandleFunc("/api/v1/appointments/reschedule", bookingHandler.Reschedule)
	api.HandleFunc("/api/v1/appointments/cancel", bookingHandler.Cancel)
	api.HandleFunc("/api/v1/slots", bookingHandler.Slots)
	api.HandleFunc("/api/v1/doctors", directoryHandler.Doctors)
	api.HandleFunc("/api/v1/patients", directoryHandler.Patients)
	api.HandleFunc("/api/v1/dashboard", directoryHandler.Dashboard)

	var apiHandler http.Handler = api
	if secret := config.String("JWT_SECRET", ""); secret != "" {
		apiHandler = auth.RequireHS256(secret)(apiHandler)
	} else {
		logger.Warn("JWT_SECRET not set; API is unauthenticated")
	}

	var limit httpx.Middleware
	if redisAddr := config.String("REDIS_ADDR", ""); redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
		defer rdb.Close()
		limiter := httpx.NewRedisRateLimiter(rdb, config.Int("RATE_LIMIT", 120), time.Minute, service)
		limit = limiter.Middleware(logger, true)
	} else {
		limit = httpx.NewRateLimiter(config.Int("RATE_LIMIT", 120), time.Minute).Middleware()
	}

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)
	mux.Handle("/api/", apiHandler)

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: strings.Split(config.String("CORS_ALLOWED_ORIGINS", "*"), ","),
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-Id"},
		}),
		httpx.WithBodyLimit(1<<20),
		httpx.WithTimeout(15*time.Second),
		limit,
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "frontdesk")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
