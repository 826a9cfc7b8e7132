package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/fusionprime/frontdesk/services/frontdesk-service/internal/booking"
	"github.com/fusionprime/frontdesk/services/frontdesk-service/internal/model"
	"github.com/fusionprime/frontdesk/services/frontdesk-service/internal/storage"
)

// AppointmentReader is the non-transactional read surface behind the
// list and detail endpoints.
type AppointmentReader interface {
	GetAppointment(ctx context.Context, appointmentID string) (model.Appointment, error)
	ListAppointments(ctx context.Context, doctorID string) ([]model.Appointment, error)
	Slots(ctx context.Context, doctorID string) ([]model.Slot, error)
}

type BookingHandler struct {
	svc    *booking.Service
	repo   AppointmentReader
	logger *slog.Logger
}

func NewBookingHandler(svc *booking.Service, repo AppointmentReader, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{svc: svc, repo: repo, logger: logger}
}

type reserveRequest struct {
	PatientID string `json:"patient_id"`
	DoctorID  string `json:"doctor_id"`
	SlotID    string `json:"slot_id"`
	Date      string `json:"date"`
}

type rescheduleRequest struct {
	AppointmentID string `json:"appointment_id"`
	PatientID     string `json:"patient_id"`
	DoctorID      string `json:"doctor_id"`
	SlotID        string `json:"slot_id"`
	Date          string `json:"date"`
	Status        string `json:"status"`
}

type cancelRequest struct {
	AppointmentID string `json:"appointment_id"`
}

type confirmationResponse struct {
	AppointmentID string `json:"appointment_id"`
	PatientName   string `json:"patient_name"`
	DoctorName    string `json:"doctor_name"`
	Date          string `json:"date"`
	Time          string `json:"time"`
}

type appointmentItem struct {
	AppointmentID string `json:"appointment_id"`
	PatientID     string `json:"patient_id"`
	DoctorID      string `json:"doctor_id"`
	SlotID        string `json:"slot_id,omitempty"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	Status        string `json:"status"`
	CreatedAt     string `json:"created_at"`
}

type slotItem struct {
	SlotID    string `json:"slot_id"`
	DoctorID  string `json:"doctor_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Available bool   `json:"available"`
}

func (h *BookingHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req reserveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	conf, err := h.svc.Reserve(r.Context(), booking.ReserveRequest{
		PatientID: strings.TrimSpace(req.PatientID),
		DoctorID:  strings.TrimSpace(req.DoctorID),
		SlotID:    strings.TrimSpace(req.SlotID),
		Date:      strings.TrimSpace(req.Date),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, confirmationOf(conf))
}

func (h *BookingHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req rescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	conf, err := h.svc.Reschedule(r.Context(), booking.RescheduleRequest{
		AppointmentID: strings.TrimSpace(req.AppointmentID),
		PatientID:     strings.TrimSpace(req.PatientID),
		DoctorID:      strings.TrimSpace(req.DoctorID),
		SlotID:        strings.TrimSpace(req.SlotID),
		Date:          strings.TrimSpace(req.Date),
		Status:        strings.TrimSpace(req.Status),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, confirmationOf(conf))
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if err := h.svc.Cancel(r.Context(), strings.TrimSpace(req.AppointmentID)); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// Appointments serves the staff list view, newest first, with an
// optional doctor_id filter. A single appointment comes back when
// appointment_id is given.
func (h *BookingHandler) Appointments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if id := strings.TrimSpace(r.URL.Query().Get("appointment_id")); id != "" {
		appt, err := h.repo.GetAppointment(r.Context(), id)
		if err != nil {
			h.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, appointmentOf(appt))
		return
	}

	appts, err := h.repo.ListAppointments(r.Context(), strings.TrimSpace(r.URL.Query().Get("doctor_id")))
	if err != nil {
		h.logger.Error("list appointments failed", "error", err)
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}
	items := make([]appointmentItem, 0, len(appts))
	for _, appt := range appts {
		items = append(items, appointmentOf(appt))
	}
	writeJSON(w, http.StatusOK, items)
}

// Slots lists a doctor's open slots for a date, or creates a new slot.
func (h *BookingHandler) Slots(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listSlots(w, r)
	case http.MethodPost:
		h.createSlot(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *BookingHandler) listSlots(w http.ResponseWriter, r *http.Request) {
	doctorID := strings.TrimSpace(r.URL.Query().Get("doctor_id"))
	date := strings.TrimSpace(r.URL.Query().Get("date"))

	var (
		slots []model.Slot
		err   error
	)
	if date == "" {
		if doctorID == "" {
			http.Error(w, "doctor_id required", http.StatusBadRequest)
			return
		}
		slots, err = h.repo.Slots(r.Context(), doctorID)
	} else {
		slots, err = h.svc.AvailableSlots(r.Context(), doctorID, date)
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	items := make([]slotItem, 0, len(slots))
	for _, s := range slots {
		items = append(items, slotItem{
			SlotID:    s.ID,
			DoctorID:  s.DoctorID,
			Date:      s.Date,
			StartTime: s.Start,
			EndTime:   s.End,
			Available: s.Available,
		})
	}
	writeJSON(w, http.StatusOK, items)
}

type createSlotRequest struct {
	DoctorID  string `json:"doctor_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

func (h *BookingHandler) createSlot(w http.ResponseWriter, r *http.Request) {
	var req createSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	slot, err := h.svc.CreateSlot(r.Context(),
		strings.TrimSpace(req.DoctorID),
		strings.TrimSpace(req.Date),
		strings.TrimSpace(req.StartTime),
		strings.TrimSpace(req.EndTime))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, slotItem{
		SlotID:    slot.ID,
		DoctorID:  slot.DoctorID,
		Date:      slot.Date,
		StartTime: slot.Start,
		EndTime:   slot.End,
		Available: slot.Available,
	})
}

func (h *BookingHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case booking.IsValidation(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, booking.ErrSlotNotFound),
		errors.Is(err, booking.ErrAppointmentNotFound),
		errors.Is(err, booking.ErrDoctorNotFound),
		errors.Is(err, booking.ErrPatientNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, booking.ErrSlotUnavailable):
		http.Error(w, "slot is no longer available", http.StatusConflict)
	case storage.IsConflict(err):
		http.Error(w, "conflicting booking", http.StatusConflict)
	default:
		h.logger.Error("booking request failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func confirmationOf(c booking.Confirmation) confirmationResponse {
	return confirmationResponse{
		AppointmentID: c.AppointmentID,
		PatientName:   c.PatientName,
		DoctorName:    c.DoctorName,
		Date:          c.Date,
		Time:          c.Time,
	}
}

func appointmentOf(a model.Appointment) appointmentItem {
	return appointmentItem{
		AppointmentID: a.ID,
		PatientID:     a.PatientID,
		DoctorID:      a.DoctorID,
		SlotID:        a.SlotID,
		Date:          a.Date,
		Time:          a.Time,
		Status:        a.Status,
		CreatedAt:     a.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
