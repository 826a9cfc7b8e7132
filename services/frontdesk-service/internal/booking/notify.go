package booking

import "context"

// Confirmation carries everything the front desk reads back to the
// patient after a booking lands.
type Confirmation struct {
	AppointmentID string
	PatientName   string
	PatientPhone  string
	DoctorName    string
	Date          string
	Time          string
}

// Notifier delivers a booking confirmation out of band. Failures are
// logged and swallowed; a confirmed appointment never rolls back
// because a text message did not go out.
type Notifier interface {
	Notify(ctx context.Context, c Confirmation) error
}

// NopNotifier discards confirmations.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Confirmation) error { return nil }
