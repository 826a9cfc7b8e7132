package warehouse

import (
	"context"
	"time"

	"github.com/fusionprime/frontdesk/libs/db"
)

// Repository maintains the appointment star schema: dim_time,
// dim_doctor and dim_patient around fact_appointments, plus the
// dw_summary running totals.
type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

// BookedFact carries the dimensional attributes of one booking.
type BookedFact struct {
	DoctorID       string
	Specialization string
	PatientID      string
	Gender         string
	Age            int
	Date           string // 2006-01-02
}

// RecordBooking upserts the three dimensions, appends the fact row and
// bumps the appointment total, all in one transaction.
func (r *Repository) RecordBooking(ctx context.Context, f BookedFact) error {
	day, err := time.Parse("2006-01-02", f.Date)
	if err != nil {
		return err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO dim_time (date_key, month, year)
		VALUES ($1, $2, $3)
		ON CONFLICT (date_key) DO NOTHING
	`, f.Date, day.Month().String(), day.Year()); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO dim_doctor (doctor_id, specialization)
		VALUES ($1, $2)
		ON CONFLICT (doctor_id) DO UPDATE SET specialization = EXCLUDED.specialization
	`, f.DoctorID, f.Specialization); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO dim_patient (patient_id, gender, age_group)
		VALUES ($1, $2, $3)
		ON CONFLICT (patient_id) DO UPDATE SET gender = EXCLUDED.gender, age_group = EXCLUDED.age_group
	`, f.PatientID, f.Gender, AgeGroup(f.Age)); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO fact_appointments (doctor_id, patient_id, date_key)
		VALUES ($1, $2, $3)
	`, f.DoctorID, f.PatientID, f.Date); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		UPDATE dw_summary SET total_appointments = total_appointments + 1 WHERE id = 1
	`); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repository) RecordCancellation(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE dw_summary SET total_cancellations = total_cancellations + 1 WHERE id = 1
	`)
	return err
}

type Summary struct {
	TotalAppointments  int64 `json:"total_appointments"`
	TotalCancellations int64 `json:"total_cancellations"`
}

func (r *Repository) Summary(ctx context.Context) (Summary, error) {
	var s Summary
	err := r.pool.QueryRow(ctx, `
		SELECT total_appointments, total_cancellations FROM dw_summary WHERE id = 1
	`).Scan(&s.TotalAppointments, &s.TotalCancellations)
	return s, err
}

type MonthlyVolume struct {
	Year         int    `json:"year"`
	Month        string `json:"month"`
	Appointments int64  `json:"appointments"`
}

func (r *Repository) VolumeByMonth(ctx context.Context) ([]MonthlyVolume, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT t.year, t.month, count(*)
		FROM fact_appointments f
		JOIN dim_time t ON t.date_key = f.date_key
		GROUP BY t.year, t.month
		ORDER BY t.year, min(t.date_key)
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MonthlyVolume
	for rows.Next() {
		var v MonthlyVolume
		if err := rows.Scan(&v.Year, &v.Month, &v.Appointments); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

type SpecializationVolume struct {
	Specialization string `json:"specialization"`
	Appointments   int64  `json:"appointments"`
}

func (r *Repository) VolumeBySpecialization(ctx context.Context) ([]SpecializationVolume, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT d.specialization, count(*)
		FROM fact_appointments f
		JOIN dim_doctor d ON d.doctor_id = f.doctor_id
		GROUP BY d.specialization
		ORDER BY count(*) DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SpecializationVolume
	for rows.Next() {
		var v SpecializationVolume
		if err := rows.Scan(&v.Specialization, &v.Appointments); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
