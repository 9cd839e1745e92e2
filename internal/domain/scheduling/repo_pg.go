package scheduling

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medilab/lis/internal/platform/db"
)

type pgRepo struct {
	pool *pgxpool.Pool
}

// NewPGRepository returns a Repository backed by Postgres.
func NewPGRepository(pool *pgxpool.Pool) Repository {
	return &pgRepo{pool: pool}
}

func (r *pgRepo) conn(ctx context.Context) db.Querier {
	if q := db.ConnFromContext(ctx); q != nil {
		return q
	}
	return r.pool
}

const appointmentCols = `id, patient_reg, doctor_name, visit_date, visit_time, reason, created_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientReg, &a.DoctorName, &a.Date, &a.Time, &a.Reason, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan appointment: %w", err)
	}
	return &a, nil
}

func (r *pgRepo) CreateAppointment(ctx context.Context, a *Appointment) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO emr_appointments (patient_reg, doctor_name, visit_date, visit_time, reason)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		a.PatientReg, a.DoctorName, a.Date, a.Time, a.Reason).
		Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

func (r *pgRepo) GetAppointment(ctx context.Context, id int64) (*Appointment, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+appointmentCols+` FROM emr_appointments WHERE id = $1`, id)
	return scanAppointment(row)
}

func (r *pgRepo) ListAppointments(ctx context.Context, date string, limit, offset int) ([]*Appointment, int, error) {
	where := ""
	args := []interface{}{}
	n := 1
	if date != "" {
		where = fmt.Sprintf(" WHERE visit_date = $%d", n)
		args = append(args, date)
		n++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM emr_appointments`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count appointments: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM emr_appointments%s
		ORDER BY visit_date DESC, visit_time LIMIT $%d OFFSET $%d`,
		appointmentCols, where, n, n+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	appts, err := collectAppointments(rows)
	if err != nil {
		return nil, 0, err
	}
	return appts, total, nil
}

func (r *pgRepo) ListAppointmentsForPatient(ctx context.Context, regNo string) ([]*Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+appointmentCols+` FROM emr_appointments
		WHERE patient_reg = $1 ORDER BY visit_date DESC, visit_time`, regNo)
	if err != nil {
		return nil, fmt.Errorf("list patient appointments: %w", err)
	}
	defer rows.Close()
	return collectAppointments(rows)
}

func collectAppointments(rows pgx.Rows) ([]*Appointment, error) {
	var out []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *pgRepo) CreateVitals(ctx context.Context, v *Vitals) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO emr_vitals (appointment_id, temp_celsius, pulse_bpm,
			systolic_bp, diastolic_bp, weight_kg, height_cm, recorded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, recorded_at`,
		v.AppointmentID, v.TempCelsius, v.PulseBpm, v.SystolicBP, v.DiastolicBP,
		v.WeightKg, v.HeightCm, v.RecordedBy).
		Scan(&v.ID, &v.RecordedAt)
	if err != nil {
		return fmt.Errorf("insert vitals: %w", err)
	}
	return nil
}

func (r *pgRepo) GetVitalsForAppointment(ctx context.Context, appointmentID int64) (*Vitals, error) {
	var v Vitals
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, appointment_id, temp_celsius, pulse_bpm, systolic_bp,
			diastolic_bp, weight_kg, height_cm, recorded_by, recorded_at
		FROM emr_vitals WHERE appointment_id = $1`, appointmentID).
		Scan(&v.ID, &v.AppointmentID, &v.TempCelsius, &v.PulseBpm, &v.SystolicBP,
			&v.DiastolicBP, &v.WeightKg, &v.HeightCm, &v.RecordedBy, &v.RecordedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get vitals: %w", err)
	}
	return &v, nil
}
