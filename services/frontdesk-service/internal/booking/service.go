package booking

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/fusionprime/frontdesk/services/frontdesk-service/internal/model"
)

// Service implements the front-desk booking protocols. Every mutation
// runs inside a single storage transaction with the touched slot row
// locked, so two desks racing for the last opening cannot both win.
type Service struct {
	store    Store
	dir      Directory
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(store Store, dir Directory, notifier Notifier, logger *slog.Logger) *Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Service{
		store:    store,
		dir:      dir,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

type ReserveRequest struct {
	PatientID string
	DoctorID  string
	SlotID    string
	Date      string
}

type RescheduleRequest struct {
	AppointmentID string
	PatientID     string
	DoctorID      string
	SlotID        string
	Date          string
	Status        string
}

// Reserve books an available slot for a patient. The availability
// check, the appointment insert and the slot flip commit together or
// not at all; the confirmation notification fires only after commit
// and its failure is swallowed.
func (s *Service) Reserve(ctx context.Context, req ReserveRequest) (Confirmation, error) {
	if err := validateUUIDs(map[string]string{
		"patient_id": req.PatientID,
		"doctor_id":  req.DoctorID,
		"slot_id":    req.SlotID,
	}); err != nil {
		return Confirmation{}, err
	}
	if !model.ValidDate(req.Date) {
		return Confirmation{}, invalid("date", "want YYYY-MM-DD")
	}

	pat, err := s.dir.GetPatient(ctx, req.PatientID)
	if err != nil {
		return Confirmation{}, err
	}
	doc, err := s.dir.GetDoctor(ctx, req.DoctorID)
	if err != nil {
		return Confirmation{}, err
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return Confirmation{}, err
	}
	defer tx.Rollback(ctx)

	slot, err := s.store.SlotForUpdate(ctx, tx, req.SlotID, req.DoctorID, req.Date)
	if err != nil {
		return Confirmation{}, err
	}
	if !slot.Available {
		return Confirmation{}, ErrSlotUnavailable
	}

	appt := model.Appointment{
		ID:        uuid.NewString(),
		PatientID: pat.ID,
		DoctorID:  doc.ID,
		SlotID:    slot.ID,
		Date:      slot.Date,
		Time:      slot.Start,
		Status:    model.StatusConfirmed,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.InsertAppointment(ctx, tx, appt); err != nil {
		return Confirmation{}, err
	}
	if err := s.store.SetSlotAvailability(ctx, tx, slot.ID, false); err != nil {
		return Confirmation{}, err
	}
	if err := s.store.InsertEvent(ctx, tx, appointmentEvent(EventAppointmentBooked, appt, doc, pat)); err != nil {
		return Confirmation{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Confirmation{}, err
	}

	conf := Confirmation{
		AppointmentID: appt.ID,
		PatientName:   pat.Name,
		PatientPhone:  pat.Phone,
		DoctorName:    doc.Name,
		Date:          appt.Date,
		Time:          appt.Time,
	}
	s.notify(ctx, conf)
	return conf, nil
}

// Reschedule moves an existing appointment onto another slot. The
// target may be unavailable only when it is the slot the appointment
// already holds, which lets staff re-confirm a booking in place. The
// old slot is released before the new one is taken.
func (s *Service) Reschedule(ctx context.Context, req RescheduleRequest) (Confirmation, error) {
	if err := validateUUIDs(map[string]string{
		"appointment_id": req.AppointmentID,
		"patient_id":     req.PatientID,
		"doctor_id":      req.DoctorID,
		"slot_id":        req.SlotID,
	}); err != nil {
		return Confirmation{}, err
	}
	if !model.ValidDate(req.Date) {
		return Confirmation{}, invalid("date", "want YYYY-MM-DD")
	}
	status := req.Status
	if status == "" {
		status = model.StatusConfirmed
	}
	if !model.ValidStatus(status) {
		return Confirmation{}, invalid("status", "want CONFIRMED or CANCELLED")
	}

	pat, err := s.dir.GetPatient(ctx, req.PatientID)
	if err != nil {
		return Confirmation{}, err
	}
	doc, err := s.dir.GetDoctor(ctx, req.DoctorID)
	if err != nil {
		return Confirmation{}, err
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return Confirmation{}, err
	}
	defer tx.Rollback(ctx)

	appt, err := s.store.AppointmentForUpdate(ctx, tx, req.AppointmentID)
	if err != nil {
		return Confirmation{}, err
	}
	slot, err := s.store.SlotForUpdate(ctx, tx, req.SlotID, req.DoctorID, req.Date)
	if err != nil {
		return Confirmation{}, err
	}
	if !slot.Available && slot.ID != appt.SlotID {
		return Confirmation{}, ErrSlotUnavailable
	}

	if appt.SlotID != "" && appt.SlotID != slot.ID {
		if err := s.store.SetSlotAvailability(ctx, tx, appt.SlotID, true); err != nil {
			return Confirmation{}, err
		}
	}

	appt.PatientID = pat.ID
	appt.DoctorID = doc.ID
	appt.SlotID = slot.ID
	appt.Date = slot.Date
	appt.Time = slot.Start
	appt.Status = status
	if err := s.store.UpdateAppointment(ctx, tx, appt); err != nil {
		return Confirmation{}, err
	}
	if err := s.store.SetSlotAvailability(ctx, tx, slot.ID, false); err != nil {
		return Confirmation{}, err
	}
	if err := s.store.InsertEvent(ctx, tx, appointmentEvent(EventAppointmentRescheduled, appt, doc, pat)); err != nil {
		return Confirmation{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Confirmation{}, err
	}

	conf := Confirmation{
		AppointmentID: appt.ID,
		PatientName:   pat.Name,
		PatientPhone:  pat.Phone,
		DoctorName:    doc.Name,
		Date:          appt.Date,
		Time:          appt.Time,
	}
	if status == model.StatusConfirmed {
		s.notify(ctx, conf)
	}
	return conf, nil
}

// Cancel deletes the appointment and releases its slot, if the slot
// still exists.
func (s *Service) Cancel(ctx context.Context, appointmentID string) error {
	if err := validateUUIDs(map[string]string{"appointment_id": appointmentID}); err != nil {
		return err
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	appt, err := s.store.AppointmentForUpdate(ctx, tx, appointmentID)
	if err != nil {
		return err
	}
	slotID, err := s.store.DeleteAppointment(ctx, tx, appointmentID)
	if err != nil {
		return err
	}
	if slotID != "" {
		if err := s.store.SetSlotAvailability(ctx, tx, slotID, true); err != nil {
			return err
		}
	}
	// Best effort; the people may have been removed from the registry
	// and the cancellation still has to go through.
	doc, _ := s.dir.GetDoctor(ctx, appt.DoctorID)
	pat, _ := s.dir.GetPatient(ctx, appt.PatientID)
	if err := s.store.InsertEvent(ctx, tx, cancellationEvent(appt, doc, pat, slotID)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// AvailableSlots lists a doctor's open slots on a date, ordered by
// start time.
func (s *Service) AvailableSlots(ctx context.Context, doctorID, date string) ([]model.Slot, error) {
	if err := validateUUIDs(map[string]string{"doctor_id": doctorID}); err != nil {
		return nil, err
	}
	if !model.ValidDate(date) {
		return nil, invalid("date", "want YYYY-MM-DD")
	}
	return s.store.AvailableSlots(ctx, doctorID, date)
}

// CreateSlot opens a new bookable window for a doctor.
func (s *Service) CreateSlot(ctx context.Context, doctorID, date, start, end string) (model.Slot, error) {
	if err := validateUUIDs(map[string]string{"doctor_id": doctorID}); err != nil {
		return model.Slot{}, err
	}
	if !model.ValidDate(date) {
		return model.Slot{}, invalid("date", "want YYYY-MM-DD")
	}
	if !model.ValidClock(start) {
		return model.Slot{}, invalid("start_time", "want HH:MM")
	}
	if !model.ValidClock(end) {
		return model.Slot{}, invalid("end_time", "want HH:MM")
	}
	if !model.ClockBefore(start, end) {
		return model.Slot{}, invalid("end_time", "must be after start_time")
	}
	if _, err := s.dir.GetDoctor(ctx, doctorID); err != nil {
		return model.Slot{}, err
	}

	slot := model.Slot{
		ID:        uuid.NewString(),
		DoctorID:  doctorID,
		Date:      date,
		Start:     start,
		End:       end,
		Available: true,
	}
	if err := s.store.InsertSlot(ctx, slot); err != nil {
		return model.Slot{}, err
	}
	return slot, nil
}

func (s *Service) notify(ctx context.Context, conf Confirmation) {
	if err := s.notifier.Notify(ctx, conf); err != nil {
		s.logger.Warn("confirmation notification failed",
			"appointment_id", conf.AppointmentID, "error", err)
	}
}

func validateUUIDs(fields map[string]string) error {
	for field, value := range fields {
		if _, err := uuid.Parse(value); err != nil {
			return invalid(field, "want a UUID")
		}
	}
	return nil
}
