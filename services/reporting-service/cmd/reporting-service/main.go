package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fusionprime/frontdesk/libs/config"
	"github.com/fusionprime/frontdesk/libs/consumer"
	"github.com/fusionprime/frontdesk/libs/db"
	"github.com/fusionprime/frontdesk/libs/httpx"
	"github.com/fusionprime/frontdesk/libs/inbox"
	"github.com/fusionprime/frontdesk/libs/kafkax"
	otelx "github.com/fusionprime/frontdesk/libs/otel"
	"github.com/fusionprime/frontdesk/libs/runtime"
	"github.com/fusionprime/frontdesk/services/reporting-service/internal/warehouse"
)

func main() {
	service := config.String("SERVICE_NAME", "reporting-service")
	port, err := config.Port("PORT", "8083")
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

	repo := warehouse.NewRepository(pool)
	inboxRepo := inbox.NewRepository(pool)
	brokers := config.String("KAFKA_BROKERS", "")
	groupID := config.String("KAFKA_GROUP_ID", "reporting-service")

	bookedConsumer := consumer.New(logger, inboxRepo, consumer.Config{
		Brokers: brokers,
		GroupID: groupID,
		Topic:   config.String("TOPIC_BOOKED", "frontdesk.appointment.booked.v1"),
	}, func(ctx context.Context, msg kafka.Message) error {
		var payload struct {
			AppointmentID  string `json:"appointment_id"`
			DoctorID       string `json:"doctor_id"`
			Specialization string `json:"specialization"`
			PatientID      string `json:"patient_id"`
			PatientGender  string `json:"patient_gender"`
			PatientAge     int    `json:"patient_age"`
			Date           string `json:"date"`
		}
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			logger.Error("invalid booked payload", "err", err)
			return nil
		}
		if payload.AppointmentID == "" || payload.DoctorID == "" || payload.PatientID == "" || payload.Date == "" {
			logger.Error("missing booked fields")
			return nil
		}
		if err := repo.RecordBooking(ctx, warehouse.BookedFact{
			DoctorID:       payload.DoctorID,
			Specialization: payload.Specialization,
			PatientID:      payload.PatientID,
			Gender:         payload.PatientGender,
			Age:            payload.PatientAge,
			Date:           payload.Date,
		}); err != nil {
			logger.Error("failed to record booking", "err", err)
			return err
		}
		logger.Info("booking recorded", "appointment_id", payload.AppointmentID)
		return nil
	})
	go bookedConsumer.Run(ctx)

	cancelledConsumer := consumer.New(logger, inboxRepo, consumer.Config{
		Brokers: brokers,
		GroupID: groupID,
		Topic:   config.String("TOPIC_CANCELLED", "frontdesk.appointment.cancelled.v1"),
	}, func(ctx context.Context, msg kafka.Message) error {
		var payload struct {
			AppointmentID string `json:"appointment_id"`
		}
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			logger.Error("invalid cancelled payload", "err", err)
			return nil
		}
		if payload.AppointmentID == "" {
			logger.Error("missing appointment_id")
			return nil
		}
		if err := repo.RecordCancellation(ctx); err != nil {
			logger.Error("failed to record cancellation", "err", err)
			return err
		}
		logger.Info("cancellation recorded", "appointment_id", payload.AppointmentID)
		return nil
	})
	go cancelledConsumer.Run(ctx)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)},
	)
	mux.HandleFunc("/api/v1/reports/summary", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		summary, err := repo.Summary(r.Context())
		if err != nil {
			logger.Error("summary query failed", "err", err)
			http.Error(w, "failed to load summary", http.StatusInternalServerError)
			return
		}
		writeJSON(w, summary)
	})
	mux.HandleFunc("/api/v1/reports/monthly", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		volumes, err := repo.VolumeByMonth(r.Context())
		if err != nil {
			logger.Error("monthly volume query failed", "err", err)
			http.Error(w, "failed to load monthly volume", http.StatusInternalServerError)
			return
		}
		writeJSON(w, volumes)
	})
	mux.HandleFunc("/api/v1/reports/specializations", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		volumes, err := repo.VolumeBySpecialization(r.Context())
		if err != nil {
			logger.Error("specialization volume query failed", "err", err)
			http.Error(w, "failed to load specialization volume", http.StatusInternalServerError)
			return
		}
		writeJSON(w, volumes)
	})

	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	handler = otelhttp.NewHandler(handler, "reporting")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
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

func writeJSON(w http.ResponseWriter, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
