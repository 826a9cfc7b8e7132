package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
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
	"github.com/fusionprime/frontdesk/libs/outbox"
	"github.com/fusionprime/frontdesk/libs/runtime"
	"github.com/fusionprime/frontdesk/services/notification-service/internal/email"
	"github.com/fusionprime/frontdesk/services/notification-service/internal/message"
	"github.com/fusionprime/frontdesk/services/notification-service/internal/storage"
)

type deps struct {
	pool       *db.Pool
	repo       *storage.Repository
	outboxRepo *outbox.Repository
	sender     email.Sender
	providerID string
	logger     *slog.Logger
	failSuffix string
}

// deliver sends one email and records the outcome: a notifications row
// plus a notification.sent.v1 or notification.failed.v1 outbox event.
// Send failures are terminal for this message, not retried.
func (d *deps) deliver(ctx context.Context, appointmentID, recipient, subject, body string) error {
	status := "sent"
	failureReason := ""
	providerID := d.providerID

	switch {
	case strings.TrimSpace(recipient) == "":
		status = "failed"
		failureReason = "no recipient address"
	case d.failSuffix != "" && strings.HasSuffix(recipient, d.failSuffix):
		status = "failed"
		failureReason = "simulated failure"
	default:
		if err := d.sender.Send(recipient, subject, body); err != nil {
			status = "failed"
			failureReason = err.Error()
			d.logger.Error("email send failed", "err", err, "recipient", recipient)
		}
	}
	if status == "failed" {
		providerID = ""
	}

	if err := d.repo.Insert(ctx, storage.Notification{
		AppointmentID: appointmentID,
		Channel:       "email",
		Recipient:     recipient,
		Body:          body,
		Status:        status,
		ProviderID:    providerID,
	}); err != nil {
		d.logger.Error("failed to persist notification", "err", err)
		return err
	}

	if err := d.writeOutcome(ctx, appointmentID, status, providerID, failureReason); err != nil {
		d.logger.Error("failed to enqueue notification outcome", "err", err)
		return err
	}

	d.logger.Info("notification processed", "appointment_id", appointmentID, "status", status)
	return nil
}

func (d *deps) writeOutcome(ctx context.Context, appointmentID, status, providerID, reason string) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	eventType := "notification.sent.v1"
	fields := map[string]any{
		"appointment_id": appointmentID,
		"channel":        "email",
	}
	if status == "failed" {
		eventType = "notification.failed.v1"
		fields["error_reason"] = reason
		fields["failed_at"] = time.Now().UTC().Format(time.RFC3339)
	} else {
		fields["provider_id"] = providerID
		fields["sent_at"] = time.Now().UTC().Format(time.RFC3339)
	}
	payload, err := json.Marshal(fields)
	if err != nil {
		return err
	}

	if err := d.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "notification",
		AggregateID:   appointmentID,
		EventType:     eventType,
		Payload:       payload,
	}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func main() {
	service := config.String("SERVICE_NAME", "notification-service")
	port, err := config.Port("PORT", "8082")
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

	outboxRepo := outbox.NewRepository(pool)
	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	var sender email.Sender
	providerID := "smtp"
	if host := config.String("SMTP_HOST", ""); host != "" {
		sender = email.NewSMTPSender(host, config.String("SMTP_PORT", "1025"), config.String("SMTP_FROM", ""))
	} else {
		logger.Warn("SMTP_HOST not set; emails will be discarded")
		sender = email.NoopSender{}
		providerID = "noop"
	}

	d := &deps{
		pool:       pool,
		repo:       storage.NewRepository(pool),
		outboxRepo: outboxRepo,
		sender:     sender,
		providerID: providerID,
		logger:     logger,
		failSuffix: config.String("NOTIFICATION_FAIL_SUFFIX", ""),
	}

	inboxRepo := inbox.NewRepository(pool)
	brokers := config.String("KAFKA_BROKERS", "")
	groupID := config.String("KAFKA_GROUP_ID", "notification-service")
	startConsumer := func(topic string, handler consumer.Handler) {
		if strings.TrimSpace(topic) == "" {
			return
		}
		c := consumer.New(logger, inboxRepo, consumer.Config{
			Brokers: brokers,
			GroupID: groupID,
			Topic:   topic,
		}, handler)
		go c.Run(ctx)
	}

	appointmentHandler := func(render func(message.Appointment) (string, string)) consumer.Handler {
		return func(ctx context.Context, msg kafka.Message) error {
			var appt message.Appointment
			if err := json.Unmarshal(msg.Value, &appt); err != nil {
				logger.Error("invalid appointment payload", "err", err, "topic", msg.Topic)
				return nil
			}
			if appt.AppointmentID == "" {
				logger.Error("missing appointment_id", "topic", msg.Topic)
				return nil
			}
			subject, body := render(appt)
			return d.deliver(ctx, appt.AppointmentID, appt.PatientEmail, subject, body)
		}
	}

	startConsumer(config.String("TOPIC_BOOKED", "frontdesk.appointment.booked.v1"),
		appointmentHandler(message.Booked))
	startConsumer(config.String("TOPIC_RESCHEDULED", "frontdesk.appointment.rescheduled.v1"),
		appointmentHandler(message.Rescheduled))
	startConsumer(config.String("TOPIC_CANCELLED", "frontdesk.appointment.cancelled.v1"),
		func(ctx context.Context, msg kafka.Message) error {
			var c message.Cancellation
			if err := json.Unmarshal(msg.Value, &c); err != nil {
				logger.Error("invalid cancellation payload", "err", err)
				return nil
			}
			if c.AppointmentID == "" {
				logger.Error("missing appointment_id", "topic", msg.Topic)
				return nil
			}
			subject, body := message.Cancelled(c)
			return d.deliver(ctx, c.AppointmentID, c.PatientEmail, subject, body)
		})

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)},
	)
	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	handler = otelhttp.NewHandler(handler, "notification")
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
