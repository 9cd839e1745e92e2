package patient

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

const patientCols = `reg_no, surname, first_name, other_name, sex, marital_status,
	dob_day, dob_month, dob_year, phone, address, email, created_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.RegNo, &p.Surname, &p.FirstName, &p.OtherName, &p.Sex,
		&p.MaritalStatus, &p.DOBDay, &p.DOBMonth, &p.DOBYear, &p.Phone,
		&p.Address, &p.Email, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan patient: %w", err)
	}
	return &p, nil
}

func (r *pgRepo) Create(ctx context.Context, p *Patient) error {
	row := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO emr_patients (reg_no, surname, first_name, other_name, sex,
			marital_status, dob_day, dob_month, dob_year, phone, address, email)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at`,
		p.RegNo, p.Surname, p.FirstName, p.OtherName, p.Sex, p.MaritalStatus,
		p.DOBDay, p.DOBMonth, p.DOBYear, p.Phone, p.Address, p.Email)
	if err := row.Scan(&p.CreatedAt); err != nil {
		return fmt.Errorf("insert patient: %w", err)
	}
	return nil
}

func (r *pgRepo) CreateKin(ctx context.Context, k *NextOfKin) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO emr_next_of_kin (reg_no, name, phone, address, relationship)
		VALUES ($1, $2, $3, $4, $5)`,
		k.RegNo, k.Name, k.Phone, k.Address, k.Relationship)
	if err != nil {
		return fmt.Errorf("insert next of kin: %w", err)
	}
	return nil
}

func (r *pgRepo) CreateGuardian(ctx context.Context, g *Guardian) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO emr_guardians (reg_no, name, phone, address)
		VALUES ($1, $2, $3, $4)`,
		g.RegNo, g.Name, g.Phone, g.Address)
	if err != nil {
		return fmt.Errorf("insert guardian: %w", err)
	}
	return nil
}

func (r *pgRepo) CreateHistory(ctx context.Context, h *MedicalHistory) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO emr_medical_history (reg_no, allergies, chronic_conditions, medications, notes)
		VALUES ($1, $2, $3, $4, $5)`,
		h.RegNo, h.Allergies, h.ChronicConditions, h.Medications, h.Notes)
	if err != nil {
		return fmt.Errorf("insert medical history: %w", err)
	}
	return nil
}

func (r *pgRepo) GetByRegNo(ctx context.Context, regNo string) (*Patient, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM emr_patients WHERE reg_no = $1`, regNo)
	return scanPatient(row)
}

func (r *pgRepo) GetKin(ctx context.Context, regNo string) (*NextOfKin, error) {
	var k NextOfKin
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT reg_no, name, phone, address, relationship
		FROM emr_next_of_kin WHERE reg_no = $1`, regNo).
		Scan(&k.RegNo, &k.Name, &k.Phone, &k.Address, &k.Relationship)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get next of kin: %w", err)
	}
	return &k, nil
}

func (r *pgRepo) GetGuardian(ctx context.Context, regNo string) (*Guardian, error) {
	var g Guardian
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT reg_no, name, phone, address
		FROM emr_guardians WHERE reg_no = $1`, regNo).
		Scan(&g.RegNo, &g.Name, &g.Phone, &g.Address)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get guardian: %w", err)
	}
	return &g, nil
}

func (r *pgRepo) GetHistory(ctx context.Context, regNo string) (*MedicalHistory, error) {
	var h MedicalHistory
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT reg_no, allergies, chronic_conditions, medications, notes
		FROM emr_medical_history WHERE reg_no = $1`, regNo).
		Scan(&h.RegNo, &h.Allergies, &h.ChronicConditions, &h.Medications, &h.Notes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get medical history: %w", err)
	}
	return &h, nil
}

func (r *pgRepo) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM emr_patients`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count patients: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+patientCols+` FROM emr_patients
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	patients, err := collectPatients(rows)
	if err != nil {
		return nil, 0, err
	}
	return patients, total, nil
}

func (r *pgRepo) Search(ctx context.Context, query string, limit, offset int) ([]*Patient, int, error) {
	pattern := "%" + query + "%"
	where := `WHERE reg_no ILIKE $1 OR surname ILIKE $1 OR first_name ILIKE $1 OR phone ILIKE $1`

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM emr_patients `+where, pattern).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count patient search: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+patientCols+` FROM emr_patients `+where+`
		ORDER BY surname, first_name LIMIT $2 OFFSET $3`, pattern, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("search patients: %w", err)
	}
	defer rows.Close()

	patients, err := collectPatients(rows)
	if err != nil {
		return nil, 0, err
	}
	return patients, total, nil
}

func collectPatients(rows pgx.Rows) ([]*Patient, error) {
	var patients []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		patients = append(patients, p)
	}
	return patients, rows.Err()
}

func (r *pgRepo) UpdateKin(ctx context.Context, k *NextOfKin) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE emr_next_of_kin
		SET name = $2, phone = $3, address = $4, relationship = $5
		WHERE reg_no = $1`,
		k.RegNo, k.Name, k.Phone, k.Address, k.Relationship)
	if err != nil {
		return fmt.Errorf("update next of kin: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgRepo) UpdateGuardian(ctx context.Context, g *Guardian) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE emr_guardians
		SET name = $2, phone = $3, address = $4
		WHERE reg_no = $1`,
		g.RegNo, g.Name, g.Phone, g.Address)
	if err != nil {
		return fmt.Errorf("update guardian: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgRepo) UpdateHistory(ctx context.Context, h *MedicalHistory) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE emr_medical_history
		SET allergies = $2, chronic_conditions = $3, medications = $4, notes = $5
		WHERE reg_no = $1`,
		h.RegNo, h.Allergies, h.ChronicConditions, h.Medications, h.Notes)
	if err != nil {
		return fmt.Errorf("update medical history: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
