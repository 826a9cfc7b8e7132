package message

import (
	"strings"
	"testing"
)

func TestBooked(t *testing.T) {
	subject, body := Booked(Appointment{
		PatientName: "Rahim Uddin",
		DoctorName:  "Dr. Asha Rao",
		Date:        "2026-09-10",
		Time:        "09:00",
	})
	if subject == "" {
		t.Fatal("empty subject")
	}
	for _, want := range []string{"Rahim Uddin", "Dr. Asha Rao", "2026-09-10", "09:00", "Fusion Prime Care Hospital"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
}

func TestRescheduled(t *testing.T) {
	_, body := Rescheduled(Appointment{
		PatientName: "Rahim Uddin",
		DoctorName:  "Dr. Asha Rao",
		Date:        "2026-09-12",
		Time:        "14:00",
	})
	if !strings.Contains(body, "moved to 2026-09-12 at 14:00") {
		t.Errorf("body = %q", body)
	}
}

func TestCancelled(t *testing.T) {
	_, body := Cancelled(Cancellation{
		PatientName: "Rahim Uddin",
		DoctorName:  "Dr. Asha Rao",
		Date:        "2026-09-10",
	})
	if !strings.Contains(body, "cancelled") || !strings.Contains(body, "2026-09-10") {
		t.Errorf("body = %q", body)
	}
}
