package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fusionprime/frontdesk/services/frontdesk-service/internal/booking"
)

func testConfirmation() booking.Confirmation {
	return booking.Confirmation{
		AppointmentID: "a-1",
		PatientName:   "Salma Khatun",
		PatientPhone:  "+8801811111111",
		DoctorName:    "Dr. Karim",
		Date:          "2026-09-15",
		Time:          "10:00",
	}
}

func TestSMSNotifierPostsToWebhook(t *testing.T) {
	var got map[string]string
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode webhook body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewSMSNotifier(srv.URL, "test-token")
	if err := n.Notify(context.Background(), testConfirmation()); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if got["to"] != "+8801811111111" {
		t.Errorf("to = %q", got["to"])
	}
	if !strings.Contains(got["body"], "Dr. Karim") || !strings.Contains(got["body"], "2026-09-15") {
		t.Errorf("body = %q", got["body"])
	}
	if auth != "Bearer test-token" {
		t.Errorf("auth header = %q", auth)
	}
}

func TestSMSNotifierGatewayFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewSMSNotifier(srv.URL, "")
	if err := n.Notify(context.Background(), testConfirmation()); err == nil {
		t.Fatal("want error on non-2xx gateway response")
	}
}

func TestSMSNotifierRequiresPhone(t *testing.T) {
	n := NewSMSNotifier("http://localhost:0", "")
	c := testConfirmation()
	c.PatientPhone = ""
	if err := n.Notify(context.Background(), c); err == nil {
		t.Fatal("want error when patient has no phone")
	}
}
