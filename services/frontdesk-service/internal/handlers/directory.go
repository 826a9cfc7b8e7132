package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/fusionprime/frontdesk/services/frontdesk-service/internal/booking"
	"github.com/fusionprime/frontdesk/services/frontdesk-service/internal/model"
	"github.com/fusionprime/frontdesk/services/frontdesk-service/internal/storage"
)

// DirectoryStore is the registry surface behind the doctor and patient
// endpoints.
type DirectoryStore interface {
	CreateDoctor(ctx context.Context, d model.Doctor) error
	GetDoctor(ctx context.Context, id string) (model.Doctor, error)
	ListDoctors(ctx context.Context) ([]model.Doctor, error)
	UpdateDoctor(ctx context.Context, d model.Doctor) error
	DeleteDoctor(ctx context.Context, id string) error

	CreatePatient(ctx context.Context, p model.Patient) error
	GetPatient(ctx context.Context, id string) (model.Patient, error)
	ListPatients(ctx context.Context) ([]model.Patient, error)
	UpdatePatient(ctx context.Context, p model.Patient) error
	DeletePatient(ctx context.Context, id string) error

	CountDashboard(ctx context.Context) (storage.DashboardCounts, error)
}

type DirectoryHandler struct {
	store  DirectoryStore
	logger *slog.Logger
}

func NewDirectoryHandler(store DirectoryStore, logger *slog.Logger) *DirectoryHandler {
	return &DirectoryHandler{store: store, logger: logger}
}

type doctorPayload struct {
	DoctorID       string `json:"doctor_id,omitempty"`
	Name           string `json:"name"`
	Gender         string `json:"gender"`
	Phone          string `json:"phone"`
	Specialization string `json:"specialization"`
	Age            int    `json:"age"`
	DateOfJoining  string `json:"date_of_joining"`
	HospitalCode   string `json:"hospital_code"`
	Email          string `json:"email"`
}

type patientPayload struct {
	PatientID string `json:"patient_id,omitempty"`
	Name      string `json:"name"`
	Gender    string `json:"gender"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	Age       int    `json:"age"`
	Disease   string `json:"disease"`
	DOB       string `json:"dob,omitempty"`
	Email     string `json:"email"`
}

// Doctors multiplexes the doctor registry: GET lists (or fetches one
// by id), POST creates, PUT updates, DELETE removes. Deleting a doctor
// takes their slots with them.
func (h *DirectoryHandler) Doctors(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if id := queryID(r); id != "" {
			doc, err := h.store.GetDoctor(r.Context(), id)
			if err != nil {
				h.writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, doctorOf(doc))
			return
		}
		docs, err := h.store.ListDoctors(r.Context())
		if err != nil {
			h.writeError(w, err)
			return
		}
		items := make([]doctorPayload, 0, len(docs))
		for _, d := range docs {
			items = append(items, doctorOf(d))
		}
		writeJSON(w, http.StatusOK, items)

	case http.MethodPost:
		req, ok := h.decodeDoctor(w, r)
		if !ok {
			return
		}
		doc := doctorFrom(req)
		doc.ID = uuid.NewString()
		if err := h.store.CreateDoctor(r.Context(), doc); err != nil {
			h.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"doctor_id": doc.ID})

	case http.MethodPut:
		req, ok := h.decodeDoctor(w, r)
		if !ok {
			return
		}
		id := queryID(r)
		if id == "" {
			id = strings.TrimSpace(req.DoctorID)
		}
		if id == "" {
			http.Error(w, "id required", http.StatusBadRequest)
			return
		}
		doc := doctorFrom(req)
		doc.ID = id
		if err := h.store.UpdateDoctor(r.Context(), doc); err != nil {
			h.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"doctor_id": doc.ID})

	case http.MethodDelete:
		id := queryID(r)
		if id == "" {
			http.Error(w, "id required", http.StatusBadRequest)
			return
		}
		if err := h.store.DeleteDoctor(r.Context(), id); err != nil {
			h.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *DirectoryHandler) Patients(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if id := queryID(r); id != "" {
			pat, err := h.store.GetPatient(r.Context(), id)
			if err != nil {
				h.writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, patientOf(pat))
			return
		}
		pats, err := h.store.ListPatients(r.Context())
		if err != nil {
			h.writeError(w, err)
			return
		}
		items := make([]patientPayload, 0, len(pats))
		for _, p := range pats {
			items = append(items, patientOf(p))
		}
		writeJSON(w, http.StatusOK, items)

	case http.MethodPost:
		req, ok := h.decodePatient(w, r)
		if !ok {
			return
		}
		pat := patientFrom(req)
		pat.ID = uuid.NewString()
		if err := h.store.CreatePatient(r.Context(), pat); err != nil {
			h.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"patient_id": pat.ID})

	case http.MethodPut:
		req, ok := h.decodePatient(w, r)
		if !ok {
			return
		}
		id := queryID(r)
		if id == "" {
			id = strings.TrimSpace(req.PatientID)
		}
		if id == "" {
			http.Error(w, "id required", http.StatusBadRequest)
			return
		}
		pat := patientFrom(req)
		pat.ID = id
		if err := h.store.UpdatePatient(r.Context(), pat); err != nil {
			h.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"patient_id": pat.ID})

	case http.MethodDelete:
		id := queryID(r)
		if id == "" {
			http.Error(w, "id required", http.StatusBadRequest)
			return
		}
		if err := h.store.DeletePatient(r.Context(), id); err != nil {
			h.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// Dashboard serves the landing page counters.
func (h *DirectoryHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	counts, err := h.store.CountDashboard(r.Context())
	if err != nil {
		h.logger.Error("dashboard counts failed", "error", err)
		http.Error(w, "failed to load dashboard", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func (h *DirectoryHandler) decodeDoctor(w http.ResponseWriter, r *http.Request) (doctorPayload, bool) {
	var req doctorPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return req, false
	}
	req.Name = strings.TrimSpace(req.Name)
	req.HospitalCode = strings.TrimSpace(req.HospitalCode)
	if req.Name == "" || req.HospitalCode == "" {
		http.Error(w, "name and hospital_code required", http.StatusBadRequest)
		return req, false
	}
	if req.DateOfJoining != "" && !model.ValidDate(req.DateOfJoining) {
		http.Error(w, "invalid date_of_joining", http.StatusBadRequest)
		return req, false
	}
	return req, true
}

func (h *DirectoryHandler) decodePatient(w http.ResponseWriter, r *http.Request) (patientPayload, bool) {
	var req patientPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return req, false
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	if req.Name == "" || req.Phone == "" {
		http.Error(w, "name and phone required", http.StatusBadRequest)
		return req, false
	}
	if req.DOB != "" && !model.ValidDate(req.DOB) {
		http.Error(w, "invalid dob", http.StatusBadRequest)
		return req, false
	}
	return req, true
}

func (h *DirectoryHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrDoctorNotFound), errors.Is(err, booking.ErrPatientNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case storage.IsConflict(err):
		http.Error(w, "duplicate record", http.StatusConflict)
	default:
		h.logger.Error("directory request failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func queryID(r *http.Request) string {
	return strings.TrimSpace(r.URL.Query().Get("id"))
}

func doctorOf(d model.Doctor) doctorPayload {
	return doctorPayload{
		DoctorID:       d.ID,
		Name:           d.Name,
		Gender:         d.Gender,
		Phone:          d.Phone,
		Specialization: d.Specialization,
		Age:            d.Age,
		DateOfJoining:  d.DateOfJoining,
		HospitalCode:   d.HospitalCode,
		Email:          d.Email,
	}
}

func doctorFrom(p doctorPayload) model.Doctor {
	return model.Doctor{
		Name:           p.Name,
		Gender:         strings.TrimSpace(p.Gender),
		Phone:          strings.TrimSpace(p.Phone),
		Specialization: strings.TrimSpace(p.Specialization),
		Age:            p.Age,
		DateOfJoining:  strings.TrimSpace(p.DateOfJoining),
		HospitalCode:   p.HospitalCode,
		Email:          strings.TrimSpace(p.Email),
	}
}

func patientOf(p model.Patient) patientPayload {
	return patientPayload{
		PatientID: p.ID,
		Name:      p.Name,
		Gender:    p.Gender,
		Phone:     p.Phone,
		Address:   p.Address,
		Age:       p.Age,
		Disease:   p.Disease,
		DOB:       p.DOB,
		Email:     p.Email,
	}
}

func patientFrom(p patientPayload) model.Patient {
	return model.Patient{
		Name:    p.Name,
		Gender:  strings.TrimSpace(p.Gender),
		Phone:   p.Phone,
		Address: strings.TrimSpace(p.Address),
		Age:     p.Age,
		Disease: strings.TrimSpace(p.Disease),
		DOB:     strings.TrimSpace(p.DOB),
		Email:   strings.TrimSpace(p.Email),
	}
}
