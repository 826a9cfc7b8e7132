package model

import "time"

const (
	StatusConfirmed = "CONFIRMED"
	StatusCancelled = "CANCELLED"
)

// Slot is one bookable time window for a doctor on a calendar date.
// The availability flag is the inverse of "held by a confirmed
// appointment" and is mutated only inside booking transactions.
type Slot struct {
	ID        string
	DoctorID  string
	Date      string // 2006-01-02
	Start     string // 15:04
	End       string // 15:04
	Available bool
}

// Appointment binds a patient to a doctor's slot. Date and Time are a
// denormalized copy of the slot's date and start time so the record
// survives slot removal (SlotID becomes empty then).
type Appointment struct {
	ID        string
	PatientID string
	DoctorID  string
	SlotID    string
	Date      string
	Time      string
	Status    string
	CreatedAt time.Time
}

type Doctor struct {
	ID             string
	Name           string
	Gender         string
	Phone          string
	Specialization string
	Age            int
	DateOfJoining  string
	HospitalCode   string
	Email          string
	CreatedAt      time.Time
}

type Patient struct {
	ID        string
	Name      string
	Gender    string
	Phone     string
	Address   string
	Age       int
	Disease   string
	DOB       string
	Email     string
	CreatedAt time.Time
}
