package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/fusionprime/frontdesk/libs/outbox"
	"github.com/fusionprime/frontdesk/services/frontdesk-service/internal/booking"
	"github.com/fusionprime/frontdesk/services/frontdesk-service/internal/model"
	"github.com/fusionprime/frontdesk/services/frontdesk-service/internal/storage"
)

// fakeStore backs the handler tests. Transactions are no-ops; the
// transactional rollback behavior is covered in the booking package.
type fakeStore struct {
	slots    map[string]model.Slot
	appts    map[string]model.Appointment
	doctors  map[string]model.Doctor
	patients map[string]model.Patient
	evts     []outbox.Event
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		slots:    make(map[string]model.Slot),
		appts:    make(map[string]model.Appointment),
		doctors:  make(map[string]model.Doctor),
		patients: make(map[string]model.Patient),
	}
}

type nopTx struct{}

func (nopTx) Commit(context.Context) error   { return nil }
func (nopTx) Rollback(context.Context) error { return nil }

func (s *fakeStore) Begin(context.Context) (booking.Tx, error) { return nopTx{}, nil }

func (s *fakeStore) InsertSlot(_ context.Context, slot model.Slot) error {
	s.slots[slot.ID] = slot
	return nil
}

func (s *fakeStore) AvailableSlots(_ context.Context, doctorID, date string) ([]model.Slot, error) {
	var out []model.Slot
	for _, slot := range s.slots {
		if slot.DoctorID == doctorID && slot.Date == date && slot.Available {
			out = append(out, slot)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out, nil
}

func (s *fakeStore) SlotForUpdate(_ context.Context, _ booking.Tx, slotID, doctorID, date string) (model.Slot, error) {
	slot, ok := s.slots[slotID]
	if !ok || slot.DoctorID != doctorID || slot.Date != date {
		return model.Slot{}, booking.ErrSlotNotFound
	}
	return slot, nil
}

func (s *fakeStore) SetSlotAvailability(_ context.Context, _ booking.Tx, slotID string, available bool) error {
	slot, ok := s.slots[slotID]
	if !ok {
		return booking.ErrSlotNotFound
	}
	slot.Available = available
	s.slots[slotID] = slot
	return nil
}

func (s *fakeStore) InsertAppointment(_ context.Context, _ booking.Tx, appt model.Appointment) error {
	s.appts[appt.ID] = appt
	return nil
}

func (s *fakeStore) AppointmentForUpdate(_ context.Context, _ booking.Tx, id string) (model.Appointment, error) {
	appt, ok := s.appts[id]
	if !ok {
		return model.Appointment{}, booking.ErrAppointmentNotFound
	}
	return appt, nil
}

func (s *fakeStore) UpdateAppointment(_ context.Context, _ booking.Tx, appt model.Appointment) error {
	s.appts[appt.ID] = appt
	return nil
}

func (s *fakeStore) DeleteAppointment(_ context.Context, _ booking.Tx, id string) (string, error) {
	appt, ok := s.appts[id]
	if !ok {
		return "", booking.ErrAppointmentNotFound
	}
	delete(s.appts, id)
	return appt.SlotID, nil
}

func (s *fakeStore) InsertEvent(_ context.Context, _ booking.Tx, evt outbox.Event) error {
	s.evts = append(s.evts, evt)
	return nil
}

// AppointmentReader

func (s *fakeStore) GetAppointment(_ context.Context, id string) (model.Appointment, error) {
	appt, ok := s.appts[id]
	if !ok {
		return model.Appointment{}, booking.ErrAppointmentNotFound
	}
	return appt, nil
}

func (s *fakeStore) ListAppointments(_ context.Context, doctorID string) ([]model.Appointment, error) {
	var out []model.Appointment
	for _, appt := range s.appts {
		if doctorID == "" || appt.DoctorID == doctorID {
			out = append(out, appt)
		}
	}
	return out, nil
}

func (s *fakeStore) Slots(_ context.Context, doctorID string) ([]model.Slot, error) {
	var out []model.Slot
	for _, slot := range s.slots {
		if slot.DoctorID == doctorID {
			out = append(out, slot)
		}
	}
	return out, nil
}

// booking.Directory and DirectoryStore

func (s *fakeStore) GetDoctor(_ context.Context, id string) (model.Doctor, error) {
	doc, ok := s.doctors[id]
	if !ok {
		return model.Doctor{}, booking.ErrDoctorNotFound
	}
	return doc, nil
}

func (s *fakeStore) GetPatient(_ context.Context, id string) (model.Patient, error) {
	pat, ok := s.patients[id]
	if !ok {
		return model.Patient{}, booking.ErrPatientNotFound
	}
	return pat, nil
}

func (s *fakeStore) CreateDoctor(_ context.Context, d model.Doctor) error {
	for _, existing := range s.doctors {
		if existing.HospitalCode == d.HospitalCode {
			return errors.New("duplicate hospital code")
		}
	}
	s.doctors[d.ID] = d
	return nil
}

func (s *fakeStore) ListDoctors(_ context.Context) ([]model.Doctor, error) {
	var out []model.Doctor
	for _, d := range s.doctors {
		out = append(out, d)
	}
	return out, nil
}

func (s *fakeStore) UpdateDoctor(_ context.Context, d model.Doctor) error {
	if _, ok := s.doctors[d.ID]; !ok {
		return booking.ErrDoctorNotFound
	}
	s.doctors[d.ID] = d
	return nil
}

func (s *fakeStore) DeleteDoctor(_ context.Context, id string) error {
	if _, ok := s.doctors[id]; !ok {
		return booking.ErrDoctorNotFound
	}
	delete(s.doctors, id)
	for slotID, slot := range s.slots {
		if slot.DoctorID == id {
			delete(s.slots, slotID)
		}
	}
	return nil
}

func (s *fakeStore) CreatePatient(_ context.Context, p model.Patient) error {
	s.patients[p.ID] = p
	return nil
}

func (s *fakeStore) ListPatients(_ context.Context) ([]model.Patient, error) {
	var out []model.Patient
	for _, p := range s.patients {
		out = append(out, p)
	}
	return out, nil
}

func (s *fakeStore) UpdatePatient(_ context.Context, p model.Patient) error {
	if _, ok := s.patients[p.ID]; !ok {
		return booking.ErrPatientNotFound
	}
	s.patients[p.ID] = p
	return nil
}

func (s *fakeStore) DeletePatient(_ context.Context, id string) error {
	if _, ok := s.patients[id]; !ok {
		return booking.ErrPatientNotFound
	}
	delete(s.patients, id)
	return nil
}

func (s *fakeStore) CountDashboard(_ context.Context) (storage.DashboardCounts, error) {
	return storage.DashboardCounts{
		Doctors:      int64(len(s.doctors)),
		Patients:     int64(len(s.patients)),
		Appointments: int64(len(s.appts)),
	}, nil
}

type env struct {
	store   *fakeStore
	booking *BookingHandler
	dir     *DirectoryHandler
	doctor  model.Doctor
	patient model.Patient
	slot    model.Slot
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := newFakeStore()
	doc := model.Doctor{ID: uuid.NewString(), Name: "Dr. Karim", HospitalCode: "FPC-001"}
	pat := model.Patient{ID: uuid.NewString(), Name: "Salma Khatun", Phone: "+8801811111111"}
	slot := model.Slot{
		ID: uuid.NewString(), DoctorID: doc.ID,
		Date: "2026-09-15", Start: "10:00", End: "10:30", Available: true,
	}
	store.doctors[doc.ID] = doc
	store.patients[pat.ID] = pat
	store.slots[slot.ID] = slot

	logger := slog.New(slog.DiscardHandler)
	svc := booking.NewService(store, store, booking.NopNotifier{}, logger)
	return &env{
		store:   store,
		booking: NewBookingHandler(svc, store, logger),
		dir:     NewDirectoryHandler(store, logger),
		doctor:  doc,
		patient: pat,
		slot:    slot,
	}
}

func doJSON(t *testing.T, h http.HandlerFunc, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = strings.NewReader(string(raw))
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestReserveEndpoint(t *testing.T) {
	e := newEnv(t)
	rec := doJSON(t, e.booking.Reserve, http.MethodPost, "/api/v1/appointments", reserveRequest{
		PatientID: e.patient.ID,
		DoctorID:  e.doctor.ID,
		SlotID:    e.slot.ID,
		Date:      e.slot.Date,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp confirmationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.AppointmentID == "" || resp.DoctorName != e.doctor.Name {
		t.Errorf("response = %+v", resp)
	}

	// The same slot again must conflict.
	rec = doJSON(t, e.booking.Reserve, http.MethodPost, "/api/v1/appointments", reserveRequest{
		PatientID: e.patient.ID,
		DoctorID:  e.doctor.ID,
		SlotID:    e.slot.ID,
		Date:      e.slot.Date,
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("second reserve status = %d, want 409", rec.Code)
	}
}

func TestReserveEndpointValidation(t *testing.T) {
	e := newEnv(t)

	rec := doJSON(t, e.booking.Reserve, http.MethodPost, "/api/v1/appointments", reserveRequest{
		PatientID: e.patient.ID,
		DoctorID:  e.doctor.ID,
		SlotID:    "nonsense",
		Date:      e.slot.Date,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad slot id status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, e.booking.Reserve, http.MethodPost, "/api/v1/appointments", reserveRequest{
		PatientID: uuid.NewString(),
		DoctorID:  e.doctor.ID,
		SlotID:    e.slot.ID,
		Date:      e.slot.Date,
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown patient status = %d, want 404", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments", strings.NewReader("{"))
	rec2 := httptest.NewRecorder()
	e.booking.Reserve(rec2, req)
	if rec2.Code != http.StatusBadRequest {
		t.Errorf("malformed body status = %d, want 400", rec2.Code)
	}
}

func TestCancelEndpoint(t *testing.T) {
	e := newEnv(t)
	rec := doJSON(t, e.booking.Reserve, http.MethodPost, "/api/v1/appointments", reserveRequest{
		PatientID: e.patient.ID,
		DoctorID:  e.doctor.ID,
		SlotID:    e.slot.ID,
		Date:      e.slot.Date,
	})
	var conf confirmationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &conf); err != nil {
		t.Fatalf("decode: %v", err)
	}

	rec = doJSON(t, e.booking.Cancel, http.MethodPost, "/api/v1/appointments/cancel",
		cancelRequest{AppointmentID: conf.AppointmentID})
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !e.store.slots[e.slot.ID].Available {
		t.Error("slot not released after cancel")
	}

	rec = doJSON(t, e.booking.Cancel, http.MethodPost, "/api/v1/appointments/cancel",
		cancelRequest{AppointmentID: conf.AppointmentID})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("repeat cancel status = %d, want 404", rec.Code)
	}
}

func TestSlotsEndpoint(t *testing.T) {
	e := newEnv(t)
	rec := doJSON(t, e.booking.Slots, http.MethodGet,
		"/api/v1/slots?doctor_id="+e.doctor.ID+"&date="+e.slot.Date, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var items []slotItem
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 1 || items[0].SlotID != e.slot.ID {
		t.Errorf("items = %+v", items)
	}

	rec = doJSON(t, e.booking.Slots, http.MethodPost, "/api/v1/slots", createSlotRequest{
		DoctorID:  e.doctor.ID,
		Date:      "2026-09-16",
		StartTime: "11:00",
		EndTime:   "11:30",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create slot status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, e.booking.Slots, http.MethodPost, "/api/v1/slots", createSlotRequest{
		DoctorID:  e.doctor.ID,
		Date:      "2026-09-16",
		StartTime: "12:00",
		EndTime:   "11:30",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("inverted window status = %d, want 400", rec.Code)
	}
}

func TestDoctorsEndpoint(t *testing.T) {
	e := newEnv(t)

	rec := doJSON(t, e.dir.Doctors, http.MethodPost, "/api/v1/doctors", doctorPayload{
		Name:           "Dr. Nusrat Jahan",
		Specialization: "Dermatology",
		HospitalCode:   "FPC-002",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var created map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	id := created["doctor_id"]

	rec = doJSON(t, e.dir.Doctors, http.MethodGet, "/api/v1/doctors?id="+id, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}

	rec = doJSON(t, e.dir.Doctors, http.MethodPost, "/api/v1/doctors", doctorPayload{
		Name: "No Code",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing hospital_code status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, e.dir.Doctors, http.MethodDelete, "/api/v1/doctors?id="+id, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = doJSON(t, e.dir.Doctors, http.MethodGet, "/api/v1/doctors?id="+id, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestPatientsEndpoint(t *testing.T) {
	e := newEnv(t)
	rec := doJSON(t, e.dir.Patients, http.MethodPost, "/api/v1/patients", patientPayload{
		Name:  "Anika Akter",
		Phone: "+8801922222222",
		DOB:   "1994-05-20",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, e.dir.Patients, http.MethodPost, "/api/v1/patients", patientPayload{
		Name:  "Bad DOB",
		Phone: "+8801933333333",
		DOB:   "20-05-1994",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad dob status = %d, want 400", rec.Code)
	}
}

func TestDashboardEndpoint(t *testing.T) {
	e := newEnv(t)
	rec := doJSON(t, e.dir.Dashboard, http.MethodGet, "/api/v1/dashboard", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var counts storage.DashboardCounts
	if err := json.Unmarshal(rec.Body.Bytes(), &counts); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if counts.Doctors != 1 || counts.Patients != 1 {
		t.Errorf("counts = %+v", counts)
	}
}
