package booking

import (
	"context"

	"github.com/fusionprime/frontdesk/libs/outbox"
	"github.com/fusionprime/frontdesk/services/frontdesk-service/internal/model"
)

// Tx is a storage transaction. Commit and Rollback follow pgx
// semantics: Rollback after Commit is a no-op.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Store is the transactional surface the booking service drives. Row
// lookups that feed a mutation take the open Tx and must lock the row
// for the life of the transaction.
type Store interface {
	Begin(ctx context.Context) (Tx, error)

	InsertSlot(ctx context.Context, slot model.Slot) error
	AvailableSlots(ctx context.Context, doctorID, date string) ([]model.Slot, error)
	SlotForUpdate(ctx context.Context, tx Tx, slotID, doctorID, date string) (model.Slot, error)
	SetSlotAvailability(ctx context.Context, tx Tx, slotID string, available bool) error

	InsertAppointment(ctx context.Context, tx Tx, appt model.Appointment) error
	AppointmentForUpdate(ctx context.Context, tx Tx, appointmentID string) (model.Appointment, error)
	UpdateAppointment(ctx context.Context, tx Tx, appt model.Appointment) error
	// DeleteAppointment removes the row and returns the slot id it
	// referenced, empty when the slot was already gone.
	DeleteAppointment(ctx context.Context, tx Tx, appointmentID string) (string, error)

	InsertEvent(ctx context.Context, tx Tx, evt outbox.Event) error
}

// Directory resolves the people a booking refers to. Backed by the
// doctors and patients tables in production, by a fake in tests.
type Directory interface {
	GetDoctor(ctx context.Context, id string) (model.Doctor, error)
	GetPatient(ctx context.Context, id string) (model.Patient, error)
}
