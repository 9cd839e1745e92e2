package requisition

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
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

const reqCols = `id, sample_id, patient_reg, patient_name, request_format, physician_id,
	physician, lab_test_id, test_name, category_name, sample_type_name, collected_at,
	priority, clinical_notes, officer_id, officer_role, order_id, status,
	created_at, updated_at`

func scanRequisition(row pgx.Row) (*Requisition, error) {
	var q Requisition
	err := row.Scan(&q.ID, &q.SampleID, &q.PatientReg, &q.PatientName, &q.RequestFormat,
		&q.PhysicianID, &q.Physician, &q.LabTestID, &q.TestName, &q.CategoryName,
		&q.SampleTypeName, &q.CollectedAt, &q.Priority, &q.ClinicalNotes,
		&q.OfficerID, &q.OfficerRole, &q.OrderID, &q.Status, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan requisition: %w", err)
	}
	return &q, nil
}

func (r *pgRepo) Create(ctx context.Context, q *Requisition) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO requisitions (sample_id, patient_reg, patient_name, request_format,
			physician_id, physician, lab_test_id, test_name, category_name,
			sample_type_name, collected_at, priority, clinical_notes, officer_id,
			officer_role, order_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id, created_at, updated_at`,
		q.SampleID, q.PatientReg, q.PatientName, q.RequestFormat, q.PhysicianID,
		q.Physician, q.LabTestID, q.TestName, q.CategoryName, q.SampleTypeName,
		q.CollectedAt, q.Priority, q.ClinicalNotes, q.OfficerID, q.OfficerRole,
		q.OrderID, q.Status).
		Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateSample
		}
		return fmt.Errorf("insert requisition: %w", err)
	}
	return nil
}

func (r *pgRepo) GetByID(ctx context.Context, id int64) (*Requisition, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+reqCols+` FROM requisitions WHERE id = $1`, id)
	return scanRequisition(row)
}

func (r *pgRepo) GetBySampleID(ctx context.Context, sampleID string) (*Requisition, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+reqCols+` FROM requisitions WHERE sample_id = $1`, sampleID)
	return scanRequisition(row)
}

func (r *pgRepo) List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Requisition, int, error) {
	var where string
	switch filter {
	case FilterPending:
		where = fmt.Sprintf(" WHERE status = %d", StatusPending)
	case FilterProcessed:
		where = fmt.Sprintf(" WHERE status = %d", StatusPublished)
	case FilterArchived:
		where = fmt.Sprintf(" WHERE status = %d", StatusArchived)
	case FilterAll:
		where = fmt.Sprintf(" WHERE status <> %d", StatusArchived)
	default:
		return nil, 0, fmt.Errorf("unknown requisition filter %q", filter)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM requisitions`+where).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count requisitions: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+reqCols+` FROM requisitions`+where+`
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list requisitions: %w", err)
	}
	defer rows.Close()

	var out []*Requisition
	for rows.Next() {
		q, err := scanRequisition(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *pgRepo) PendingCount(ctx context.Context) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM requisitions WHERE status = $1`, StatusPending).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count pending requisitions: %w", err)
	}
	return n, nil
}

func (r *pgRepo) SetStatus(ctx context.Context, id int64, next Status, from ...Status) (bool, error) {
	if len(from) == 0 {
		tag, err := r.conn(ctx).Exec(ctx, `
			UPDATE requisitions SET status = $2, updated_at = now()
			WHERE id = $1`, id, next)
		if err != nil {
			return false, fmt.Errorf("set requisition status: %w", err)
		}
		return tag.RowsAffected() > 0, nil
	}

	fromInts := make([]int, len(from))
	for i, s := range from {
		fromInts[i] = int(s)
	}
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE requisitions SET status = $2, updated_at = now()
		WHERE id = $1 AND status = ANY($3)`,
		id, next, fromInts)
	if err != nil {
		return false, fmt.Errorf("set requisition status: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
