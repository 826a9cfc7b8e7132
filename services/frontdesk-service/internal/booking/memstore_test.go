package booking

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/fusionprime/frontdesk/libs/outbox"
	"github.com/fusionprime/frontdesk/services/frontdesk-service/internal/model"
)

// memStore is a transactional in-memory Store. Begin takes the store
// lock and holds it until Commit or Rollback, so transactions are
// fully serialized just like row locks serialize them in Postgres.
// Rollback restores the snapshot taken at Begin.
type memStore struct {
	mu    sync.Mutex
	slots map[string]model.Slot
	appts map[string]model.Appointment
	evts  []outbox.Event

	failInsertEvent bool
}

func newMemStore() *memStore {
	return &memStore{
		slots: make(map[string]model.Slot),
		appts: make(map[string]model.Appointment),
	}
}

type memTx struct {
	store *memStore
	snap  struct {
		slots map[string]model.Slot
		appts map[string]model.Appointment
		evts  []outbox.Event
	}
	done bool
}

func (s *memStore) Begin(context.Context) (Tx, error) {
	s.mu.Lock()
	tx := &memTx{store: s}
	tx.snap.slots = cloneMap(s.slots)
	tx.snap.appts = cloneMap(s.appts)
	tx.snap.evts = append([]outbox.Event(nil), s.evts...)
	return tx, nil
}

func (tx *memTx) Commit(context.Context) error {
	if tx.done {
		return errors.New("tx is closed")
	}
	tx.done = true
	tx.store.mu.Unlock()
	return nil
}

func (tx *memTx) Rollback(context.Context) error {
	if tx.done {
		return nil
	}
	tx.done = true
	tx.store.slots = tx.snap.slots
	tx.store.appts = tx.snap.appts
	tx.store.evts = tx.snap.evts
	tx.store.mu.Unlock()
	return nil
}

func (s *memStore) InsertSlot(_ context.Context, slot model.Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[slot.ID] = slot
	return nil
}

func (s *memStore) AvailableSlots(_ context.Context, doctorID, date string) ([]model.Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Slot
	for _, slot := range s.slots {
		if slot.DoctorID == doctorID && slot.Date == date && slot.Available {
			out = append(out, slot)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out, nil
}

func (s *memStore) SlotForUpdate(_ context.Context, _ Tx, slotID, doctorID, date string) (model.Slot, error) {
	slot, ok := s.slots[slotID]
	if !ok || slot.DoctorID != doctorID || slot.Date != date {
		return model.Slot{}, ErrSlotNotFound
	}
	return slot, nil
}

func (s *memStore) SetSlotAvailability(_ context.Context, _ Tx, slotID string, available bool) error {
	slot, ok := s.slots[slotID]
	if !ok {
		return ErrSlotNotFound
	}
	slot.Available = available
	s.slots[slotID] = slot
	return nil
}

func (s *memStore) InsertAppointment(_ context.Context, _ Tx, appt model.Appointment) error {
	s.appts[appt.ID] = appt
	return nil
}

func (s *memStore) AppointmentForUpdate(_ context.Context, _ Tx, appointmentID string) (model.Appointment, error) {
	appt, ok := s.appts[appointmentID]
	if !ok {
		return model.Appointment{}, ErrAppointmentNotFound
	}
	return appt, nil
}

func (s *memStore) UpdateAppointment(_ context.Context, _ Tx, appt model.Appointment) error {
	if _, ok := s.appts[appt.ID]; !ok {
		return ErrAppointmentNotFound
	}
	s.appts[appt.ID] = appt
	return nil
}

func (s *memStore) DeleteAppointment(_ context.Context, _ Tx, appointmentID string) (string, error) {
	appt, ok := s.appts[appointmentID]
	if !ok {
		return "", ErrAppointmentNotFound
	}
	delete(s.appts, appointmentID)
	return appt.SlotID, nil
}

func (s *memStore) InsertEvent(_ context.Context, _ Tx, evt outbox.Event) error {
	if s.failInsertEvent {
		return errors.New("outbox insert failed")
	}
	s.evts = append(s.evts, evt)
	return nil
}

func (s *memStore) slot(id string) model.Slot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slots[id]
}

func (s *memStore) appointmentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.appts)
}

func (s *memStore) appointment(id string) (model.Appointment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	appt, ok := s.appts[id]
	return appt, ok
}

func (s *memStore) events() []outbox.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]outbox.Event(nil), s.evts...)
}

func cloneMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

type memDirectory struct {
	doctors  map[string]model.Doctor
	patients map[string]model.Patient
}

func (d *memDirectory) GetDoctor(_ context.Context, id string) (model.Doctor, error) {
	doc, ok := d.doctors[id]
	if !ok {
		return model.Doctor{}, ErrDoctorNotFound
	}
	return doc, nil
}

func (d *memDirectory) GetPatient(_ context.Context, id string) (model.Patient, error) {
	pat, ok := d.patients[id]
	if !ok {
		return model.Patient{}, ErrPatientNotFound
	}
	return pat, nil
}

type recordNotifier struct {
	mu   sync.Mutex
	sent []Confirmation
	err  error
}

func (n *recordNotifier) Notify(_ context.Context, c Confirmation) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, c)
	return nil
}

func (n *recordNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}
