package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/fusionprime/frontdesk/libs/db"
	"github.com/fusionprime/frontdesk/libs/outbox"
	"github.com/fusionprime/frontdesk/services/frontdesk-service/internal/booking"
	"github.com/fusionprime/frontdesk/services/frontdesk-service/internal/model"
)

// BookingRepository is the Postgres implementation of booking.Store.
// Not-found conditions come back as the booking package's sentinel
// errors so callers never see pgx internals.
type BookingRepository struct {
	pool   *db.Pool
	events *outbox.Repository
}

func NewBookingRepository(pool *db.Pool) *BookingRepository {
	return &BookingRepository{pool: pool, events: outbox.NewRepository(pool)}
}

func (r *BookingRepository) Begin(ctx context.Context) (booking.Tx, error) {
	return r.pool.Begin(ctx)
}

func pgxTx(tx booking.Tx) (pgx.Tx, error) {
	t, ok := tx.(pgx.Tx)
	if !ok {
		return nil, fmt.Errorf("unexpected tx type %T", tx)
	}
	return t, nil
}

func (r *BookingRepository) InsertSlot(ctx context.Context, slot model.Slot) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO slots (id, doctor_id, slot_date, start_time, end_time, is_available)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, slot.ID, slot.DoctorID, slot.Date, slot.Start, slot.End, slot.Available)
	return err
}

func (r *BookingRepository) AvailableSlots(ctx context.Context, doctorID, date string) ([]model.Slot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, doctor_id::text, slot_date::text, start_time, end_time, is_available
		FROM slots
		WHERE doctor_id = $1 AND slot_date = $2 AND is_available
		ORDER BY start_time
	`, doctorID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSlots(rows)
}

// Slots lists every slot for a doctor, taken ones included. Used by
// the staff views.
func (r *BookingRepository) Slots(ctx context.Context, doctorID string) ([]model.Slot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, doctor_id::text, slot_date::text, start_time, end_time, is_available
		FROM slots
		WHERE doctor_id = $1
		ORDER BY slot_date, start_time
	`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSlots(rows)
}

func scanSlots(rows pgx.Rows) ([]model.Slot, error) {
	var out []model.Slot
	for rows.Next() {
		var s model.Slot
		if err := rows.Scan(&s.ID, &s.DoctorID, &s.Date, &s.Start, &s.End, &s.Available); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *BookingRepository) SlotForUpdate(ctx context.Context, tx booking.Tx, slotID, doctorID, date string) (model.Slot, error) {
	t, err := pgxTx(tx)
	if err != nil {
		return model.Slot{}, err
	}
	var s model.Slot
	err = t.QueryRow(ctx, `
		SELECT id::text, doctor_id::text, slot_date::text, start_time, end_time, is_available
		FROM slots
		WHERE id = $1 AND doctor_id = $2 AND slot_date = $3
		FOR UPDATE
	`, slotID, doctorID, date).Scan(&s.ID, &s.DoctorID, &s.Date, &s.Start, &s.End, &s.Available)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Slot{}, booking.ErrSlotNotFound
	}
	if err != nil {
		return model.Slot{}, err
	}
	return s, nil
}

func (r *BookingRepository) SetSlotAvailability(ctx context.Context, tx booking.Tx, slotID string, available bool) error {
	t, err := pgxTx(tx)
	if err != nil {
		return err
	}
	tag, err := t.Exec(ctx, `UPDATE slots SET is_available = $2 WHERE id = $1`, slotID, available)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return booking.ErrSlotNotFound
	}
	return nil
}

func (r *BookingRepository) InsertAppointment(ctx context.Context, tx booking.Tx, appt model.Appointment) error {
	t, err := pgxTx(tx)
	if err != nil {
		return err
	}
	_, err = t.Exec(ctx, `
		INSERT INTO appointments (id, patient_id, doctor_id, slot_id, appt_date, appt_time, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, appt.ID, appt.PatientID, appt.DoctorID, appt.SlotID, appt.Date, appt.Time, appt.Status, appt.CreatedAt)
	return err
}

func (r *BookingRepository) AppointmentForUpdate(ctx context.Context, tx booking.Tx, appointmentID string) (model.Appointment, error) {
	t, err := pgxTx(tx)
	if err != nil {
		return model.Appointment{}, err
	}
	appt, err := scanAppointment(t.QueryRow(ctx, appointmentSelect+`
		WHERE id = $1
		FOR UPDATE
	`, appointmentID))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Appointment{}, booking.ErrAppointmentNotFound
	}
	return appt, err
}

func (r *BookingRepository) UpdateAppointment(ctx context.Context, tx booking.Tx, appt model.Appointment) error {
	t, err := pgxTx(tx)
	if err != nil {
		return err
	}
	tag, err := t.Exec(ctx, `
		UPDATE appointments
		SET patient_id = $2, doctor_id = $3, slot_id = $4, appt_date = $5, appt_time = $6, status = $7
		WHERE id = $1
	`, appt.ID, appt.PatientID, appt.DoctorID, nullableID(appt.SlotID), appt.Date, appt.Time, appt.Status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return booking.ErrAppointmentNotFound
	}
	return nil
}

func (r *BookingRepository) DeleteAppointment(ctx context.Context, tx booking.Tx, appointmentID string) (string, error) {
	t, err := pgxTx(tx)
	if err != nil {
		return "", err
	}
	var slotID string
	err = t.QueryRow(ctx, `
		DELETE FROM appointments
		WHERE id = $1
		RETURNING COALESCE(slot_id::text, '')
	`, appointmentID).Scan(&slotID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", booking.ErrAppointmentNotFound
	}
	return slotID, err
}

func (r *BookingRepository) InsertEvent(ctx context.Context, tx booking.Tx, evt outbox.Event) error {
	t, err := pgxTx(tx)
	if err != nil {
		return err
	}
	return r.events.Insert(ctx, t, evt)
}

const appointmentSelect = `
	SELECT id::text, patient_id::text, doctor_id::text, COALESCE(slot_id::text, ''),
	       appt_date::text, appt_time, status, created_at
	FROM appointments
`

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var a model.Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.SlotID, &a.Date, &a.Time, &a.Status, &a.CreatedAt)
	return a, err
}

// GetAppointment reads a single appointment outside any transaction.
func (r *BookingRepository) GetAppointment(ctx context.Context, appointmentID string) (model.Appointment, error) {
	appt, err := scanAppointment(r.pool.QueryRow(ctx, appointmentSelect+`WHERE id = $1`, appointmentID))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Appointment{}, booking.ErrAppointmentNotFound
	}
	return appt, err
}

// ListAppointments returns appointments newest first, optionally
// filtered by doctor.
func (r *BookingRepository) ListAppointments(ctx context.Context, doctorID string) ([]model.Appointment, error) {
	query := appointmentSelect + `ORDER BY created_at DESC`
	args := []any{}
	if doctorID != "" {
		query = appointmentSelect + `WHERE doctor_id = $1 ORDER BY created_at DESC`
		args = append(args, doctorID)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Appointment
	for rows.Next() {
		var a model.Appointment
		if err := rows.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.SlotID, &a.Date, &a.Time, &a.Status, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// nullableID maps the empty string to SQL NULL for uuid columns.
func nullableID(id string) any {
	if id == "" {
		return nil
	}
	return id
}
