package identity

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medilab/lis/internal/platform/db"
)

// uniqueViolation is the Postgres error code for duplicate keys.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// =========== EMRUser Repository ===========

type emrUserRepoPG struct{ pool *pgxpool.Pool }

func NewEMRUserRepoPG(pool *pgxpool.Pool) EMRUserRepository {
	return &emrUserRepoPG{pool: pool}
}

func (r *emrUserRepoPG) conn(ctx context.Context) db.Querier {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const emrUserCols = `id, username, password_hash, role, created_at`

func scanEMRUser(row pgx.Row) (*EMRUser, error) {
	var u EMRUser
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *emrUserRepoPG) Create(ctx context.Context, u *EMRUser) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO emr_users (username, password_hash, role)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		u.Username, u.PasswordHash, u.Role).Scan(&u.ID, &u.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateUsername
	}
	return err
}

func (r *emrUserRepoPG) GetByID(ctx context.Context, id int64) (*EMRUser, error) {
	return scanEMRUser(r.conn(ctx).QueryRow(ctx,
		`SELECT `+emrUserCols+` FROM emr_users WHERE id = $1`, id))
}

func (r *emrUserRepoPG) GetByUsername(ctx context.Context, username string) (*EMRUser, error) {
	return scanEMRUser(r.conn(ctx).QueryRow(ctx,
		`SELECT `+emrUserCols+` FROM emr_users WHERE username = $1`, username))
}

// =========== LISUser Repository ===========

type lisUserRepoPG struct{ pool *pgxpool.Pool }

func NewLISUserRepoPG(pool *pgxpool.Pool) LISUserRepository {
	return &lisUserRepoPG{pool: pool}
}

func (r *lisUserRepoPG) conn(ctx context.Context) db.Querier {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

func scanLISUser(row pgx.Row) (*LISUser, error) {
	var u LISUser
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *lisUserRepoPG) Create(ctx context.Context, u *LISUser) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO lis_users (username, password_hash, role)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		u.Username, u.PasswordHash, u.Role).Scan(&u.ID, &u.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateUsername
	}
	return err
}

func (r *lisUserRepoPG) GetByID(ctx context.Context, id int64) (*LISUser, error) {
	return scanLISUser(r.conn(ctx).QueryRow(ctx,
		`SELECT id, username, password_hash, role, created_at FROM lis_users WHERE id = $1`, id))
}

func (r *lisUserRepoPG) GetByUsername(ctx context.Context, username string) (*LISUser, error) {
	return scanLISUser(r.conn(ctx).QueryRow(ctx,
		`SELECT id, username, password_hash, role, created_at FROM lis_users WHERE username = $1`, username))
}

// =========== Doctor Repository ===========

type doctorRepoPG struct{ pool *pgxpool.Pool }

func NewDoctorRepoPG(pool *pgxpool.Pool) DoctorRepository {
	return &doctorRepoPG{pool: pool}
}

func (r *doctorRepoPG) conn(ctx context.Context) db.Querier {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const doctorCols = `id, name, email, user_id`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.Name, &d.Email, &d.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *doctorRepoPG) Create(ctx context.Context, d *Doctor) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO emr_doctors (name, email, user_id)
		VALUES ($1, $2, $3)
		RETURNING id`,
		d.Name, d.Email, d.UserID).Scan(&d.ID)
}

func (r *doctorRepoPG) GetByID(ctx context.Context, id int64) (*Doctor, error) {
	return scanDoctor(r.conn(ctx).QueryRow(ctx,
		`SELECT `+doctorCols+` FROM emr_doctors WHERE id = $1`, id))
}

func (r *doctorRepoPG) List(ctx context.Context) ([]*Doctor, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+doctorCols+` FROM emr_doctors ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

// =========== LabAttendant Repository ===========

type labAttendantRepoPG struct{ pool *pgxpool.Pool }

func NewLabAttendantRepoPG(pool *pgxpool.Pool) LabAttendantRepository {
	return &labAttendantRepoPG{pool: pool}
}

func (r *labAttendantRepoPG) conn(ctx context.Context) db.Querier {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

func scanAttendant(row pgx.Row) (*LabAttendant, error) {
	var a LabAttendant
	err := row.Scan(&a.ID, &a.Name, &a.Email, &a.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *labAttendantRepoPG) Create(ctx context.Context, a *LabAttendant) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO lab_attendants (name, email, user_id)
		VALUES ($1, $2, $3)
		RETURNING id`,
		a.Name, a.Email, a.UserID).Scan(&a.ID)
}

func (r *labAttendantRepoPG) GetByUserID(ctx context.Context, userID int64) (*LabAttendant, error) {
	return scanAttendant(r.conn(ctx).QueryRow(ctx,
		`SELECT id, name, email, user_id FROM lab_attendants WHERE user_id = $1`, userID))
}

func (r *labAttendantRepoPG) List(ctx context.Context) ([]*LabAttendant, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT id, name, email, user_id FROM lab_attendants ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*LabAttendant
	for rows.Next() {
		a, err := scanAttendant(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}
