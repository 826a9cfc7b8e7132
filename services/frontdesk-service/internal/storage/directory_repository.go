package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/fusionprime/frontdesk/libs/db"
	"github.com/fusionprime/frontdesk/services/frontdesk-service/internal/booking"
	"github.com/fusionprime/frontdesk/services/frontdesk-service/internal/model"
)

// DirectoryRepository holds the doctor and patient registries.
type DirectoryRepository struct {
	pool *db.Pool
}

func NewDirectoryRepository(pool *db.Pool) *DirectoryRepository {
	return &DirectoryRepository{pool: pool}
}

const doctorSelect = `
	SELECT id::text, name, gender, phone, specialization, COALESCE(age, 0),
	       COALESCE(date_of_joining::text, ''), hospital_code, email, created_at
	FROM doctors
`

func scanDoctor(row pgx.Row) (model.Doctor, error) {
	var d model.Doctor
	err := row.Scan(&d.ID, &d.Name, &d.Gender, &d.Phone, &d.Specialization,
		&d.Age, &d.DateOfJoining, &d.HospitalCode, &d.Email, &d.CreatedAt)
	return d, err
}

func (r *DirectoryRepository) CreateDoctor(ctx context.Context, d model.Doctor) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO doctors (id, name, gender, phone, specialization, age, date_of_joining, hospital_code, email)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, '')::date, $8, $9)
	`, d.ID, d.Name, d.Gender, d.Phone, d.Specialization, d.Age, d.DateOfJoining, d.HospitalCode, d.Email)
	return err
}

func (r *DirectoryRepository) GetDoctor(ctx context.Context, id string) (model.Doctor, error) {
	d, err := scanDoctor(r.pool.QueryRow(ctx, doctorSelect+`WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Doctor{}, booking.ErrDoctorNotFound
	}
	return d, err
}

func (r *DirectoryRepository) ListDoctors(ctx context.Context) ([]model.Doctor, error) {
	rows, err := r.pool.Query(ctx, doctorSelect+`ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Doctor
	for rows.Next() {
		var d model.Doctor
		if err := rows.Scan(&d.ID, &d.Name, &d.Gender, &d.Phone, &d.Specialization,
			&d.Age, &d.DateOfJoining, &d.HospitalCode, &d.Email, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *DirectoryRepository) UpdateDoctor(ctx context.Context, d model.Doctor) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE doctors
		SET name = $2, gender = $3, phone = $4, specialization = $5, age = $6,
		    date_of_joining = NULLIF($7, '')::date, hospital_code = $8, email = $9
		WHERE id = $1
	`, d.ID, d.Name, d.Gender, d.Phone, d.Specialization, d.Age, d.DateOfJoining, d.HospitalCode, d.Email)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return booking.ErrDoctorNotFound
	}
	return nil
}

// DeleteDoctor removes the doctor; the slots foreign key cascades so
// their slots go with them, and appointments keep their denormalized
// schedule with slot_id set to NULL.
func (r *DirectoryRepository) DeleteDoctor(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return booking.ErrDoctorNotFound
	}
	return nil
}

const patientSelect = `
	SELECT id::text, name, gender, phone, address, COALESCE(age, 0), disease,
	       COALESCE(dob::text, ''), email, created_at
	FROM patients
`

func (r *DirectoryRepository) CreatePatient(ctx context.Context, p model.Patient) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO patients (id, name, gender, phone, address, age, disease, dob, email)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, '')::date, $9)
	`, p.ID, p.Name, p.Gender, p.Phone, p.Address, p.Age, p.Disease, p.DOB, p.Email)
	return err
}

func (r *DirectoryRepository) GetPatient(ctx context.Context, id string) (model.Patient, error) {
	var p model.Patient
	err := r.pool.QueryRow(ctx, patientSelect+`WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Gender, &p.Phone, &p.Address, &p.Age, &p.Disease, &p.DOB, &p.Email, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Patient{}, booking.ErrPatientNotFound
	}
	return p, err
}

func (r *DirectoryRepository) ListPatients(ctx context.Context) ([]model.Patient, error) {
	rows, err := r.pool.Query(ctx, patientSelect+`ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Patient
	for rows.Next() {
		var p model.Patient
		if err := rows.Scan(&p.ID, &p.Name, &p.Gender, &p.Phone, &p.Address,
			&p.Age, &p.Disease, &p.DOB, &p.Email, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *DirectoryRepository) UpdatePatient(ctx context.Context, p model.Patient) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE patients
		SET name = $2, gender = $3, phone = $4, address = $5, age = $6,
		    disease = $7, dob = NULLIF($8, '')::date, email = $9
		WHERE id = $1
	`, p.ID, p.Name, p.Gender, p.Phone, p.Address, p.Age, p.Disease, p.DOB, p.Email)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return booking.ErrPatientNotFound
	}
	return nil
}

func (r *DirectoryRepository) DeletePatient(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return booking.ErrPatientNotFound
	}
	return nil
}

// DashboardCounts feeds the landing page tiles.
type DashboardCounts struct {
	Doctors      int64 `json:"doctors"`
	Patients     int64 `json:"patients"`
	Appointments int64 `json:"appointments"`
}

func (r *DirectoryRepository) CountDashboard(ctx context.Context) (DashboardCounts, error) {
	var c DashboardCounts
	err := r.pool.QueryRow(ctx, `
		SELECT (SELECT count(*) FROM doctors),
		       (SELECT count(*) FROM patients),
		       (SELECT count(*) FROM appointments)
	`).Scan(&c.Doctors, &c.Patients, &c.Appointments)
	return c, err
}
