package message

import "fmt"

const hospitalName = "Fusion Prime Care Hospital"

// Appointment is the slice of the appointment event payload the
// renderers need.
type Appointment struct {
	AppointmentID string `json:"appointment_id"`
	Status        string `json:"status"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	DoctorName    string `json:"doctor_name"`
	PatientName   string `json:"patient_name"`
	PatientEmail  string `json:"patient_email"`
	PatientPhone  string `json:"patient_phone"`
}

func Booked(a Appointment) (subject, body string) {
	subject = "Your appointment is confirmed"
	body = fmt.Sprintf("Dear %s,\n\nYour appointment with %s at %s is confirmed for %s at %s.\n\nPlease arrive 15 minutes early and bring your previous reports.\n",
		a.PatientName, a.DoctorName, hospitalName, a.Date, a.Time)
	return subject, body
}

func Rescheduled(a Appointment) (subject, body string) {
	subject = "Your appointment has been rescheduled"
	body = fmt.Sprintf("Dear %s,\n\nYour appointment with %s at %s has been moved to %s at %s.\n",
		a.PatientName, a.DoctorName, hospitalName, a.Date, a.Time)
	return subject, body
}

// Cancellation is the slim payload carried by cancellation events.
type Cancellation struct {
	AppointmentID string `json:"appointment_id"`
	Date          string `json:"date"`
	DoctorName    string `json:"doctor_name"`
	PatientName   string `json:"patient_name"`
	PatientEmail  string `json:"patient_email"`
}

func Cancelled(c Cancellation) (subject, body string) {
	subject = "Your appointment has been cancelled"
	body = fmt.Sprintf("Dear %s,\n\nYour appointment with %s at %s on %s has been cancelled. The slot is open again if you wish to rebook.\n",
		c.PatientName, c.DoctorName, hospitalName, c.Date)
	return subject, body
}
