package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fusionprime/frontdesk/services/frontdesk-service/internal/booking"
)

const hospitalName = "Fusion Prime Care Hospital"

// SMSNotifier pushes booking confirmations to an SMS gateway webhook.
type SMSNotifier struct {
	url   string
	token string
	http  *http.Client
}

func NewSMSNotifier(url string, token string) *SMSNotifier {
	return &SMSNotifier{
		url:   strings.TrimSpace(url),
		token: strings.TrimSpace(token),
		http: &http.Client{
			Timeout:   5 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (n *SMSNotifier) Notify(ctx context.Context, c booking.Confirmation) error {
	if n.url == "" {
		return errors.New("sms webhook url not configured")
	}
	if strings.TrimSpace(c.PatientPhone) == "" {
		return errors.New("patient has no phone number")
	}
	raw, err := json.Marshal(map[string]string{
		"to":   c.PatientPhone,
		"body": ConfirmationText(c),
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if n.token != "" {
		req.Header.Set("Authorization", "Bearer "+n.token)
	}
	resp, err := n.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sms webhook returned %d", resp.StatusCode)
	}
	return nil
}

// ConfirmationText renders the message the front desk sends after a
// booking lands.
func ConfirmationText(c booking.Confirmation) string {
	return fmt.Sprintf("Dear %s, your appointment with %s at %s is confirmed for %s at %s.",
		c.PatientName, c.DoctorName, hospitalName, c.Date, c.Time)
}
