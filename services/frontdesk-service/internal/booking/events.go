package booking

import (
	"encoding/json"
	"time"

	"github.com/fusionprime/frontdesk/libs/outbox"
	"github.com/fusionprime/frontdesk/services/frontdesk-service/internal/model"
)

const (
	EventAppointmentBooked      = "frontdesk.appointment.booked.v1"
	EventAppointmentRescheduled = "frontdesk.appointment.rescheduled.v1"
	EventAppointmentCancelled   = "frontdesk.appointment.cancelled.v1"
)

func appointmentEvent(eventType string, appt model.Appointment, doc model.Doctor, pat model.Patient) outbox.Event {
	payload, _ := json.Marshal(map[string]any{
		"appointment_id": appt.ID,
		"status":         appt.Status,
		"slot_id":        appt.SlotID,
		"date":           appt.Date,
		"time":           appt.Time,
		"doctor_id":      doc.ID,
		"doctor_name":    doc.Name,
		"specialization": doc.Specialization,
		"patient_id":     pat.ID,
		"patient_name":   pat.Name,
		"patient_phone":  pat.Phone,
		"patient_email":  pat.Email,
		"patient_gender": pat.Gender,
		"patient_age":    pat.Age,
		"occurred_at":    time.Now().UTC().Format(time.RFC3339),
	})
	return outbox.Event{
		AggregateType: "appointment",
		AggregateID:   appt.ID,
		EventType:     eventType,
		Payload:       payload,
	}
}

func cancellationEvent(appt model.Appointment, doc model.Doctor, pat model.Patient, slotID string) outbox.Event {
	payload, _ := json.Marshal(map[string]any{
		"appointment_id": appt.ID,
		"doctor_id":      appt.DoctorID,
		"doctor_name":    doc.Name,
		"patient_id":     appt.PatientID,
		"patient_name":   pat.Name,
		"patient_email":  pat.Email,
		"slot_id":        slotID,
		"date":           appt.Date,
		"occurred_at":    time.Now().UTC().Format(time.RFC3339),
	})
	return outbox.Event{
		AggregateType: "appointment",
		AggregateID:   appt.ID,
		EventType:     EventAppointmentCancelled,
		Payload:       payload,
	}
}
