package laborder

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

const orderCols = `id, patient_reg, lab_test_id, test_name, ordered_by, clinical_note,
	status, requisition_id, created_at, updated_at`

func scanOrder(row pgx.Row) (*LabOrder, error) {
	var o LabOrder
	err := row.Scan(&o.ID, &o.PatientReg, &o.LabTestID, &o.TestName, &o.OrderedBy,
		&o.ClinicalNote, &o.Status, &o.RequisitionID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan lab order: %w", err)
	}
	return &o, nil
}

func (r *pgRepo) Create(ctx context.Context, o *LabOrder) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO lab_orders (patient_reg, lab_test_id, test_name, ordered_by, clinical_note, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		o.PatientReg, o.LabTestID, o.TestName, o.OrderedBy, o.ClinicalNote, o.Status).
		Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert lab order: %w", err)
	}
	return nil
}

func (r *pgRepo) GetByID(ctx context.Context, id int64) (*LabOrder, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+orderCols+` FROM lab_orders WHERE id = $1`, id)
	return scanOrder(row)
}

func (r *pgRepo) List(ctx context.Context, status Status, patientReg string, limit, offset int) ([]*OrderView, int, error) {
	where := " WHERE 1=1"
	args := []interface{}{}
	n := 1
	if status != "" {
		where += fmt.Sprintf(" AND o.status = $%d", n)
		args = append(args, status)
		n++
	}
	if patientReg != "" {
		where += fmt.Sprintf(" AND o.patient_reg = $%d", n)
		args = append(args, patientReg)
		n++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM lab_orders o`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count lab orders: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT o.id, o.patient_reg, o.lab_test_id, o.test_name, o.ordered_by,
			o.clinical_note, o.status, o.requisition_id, o.created_at, o.updated_at,
			COALESCE(p.surname || ' ' || p.first_name, '')
		FROM lab_orders o
		LEFT JOIN emr_patients p ON p.reg_no = o.patient_reg
		%s ORDER BY o.created_at DESC LIMIT $%d OFFSET $%d`, where, n, n+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list lab orders: %w", err)
	}
	defer rows.Close()

	var out []*OrderView
	for rows.Next() {
		var v OrderView
		err := rows.Scan(&v.ID, &v.PatientReg, &v.LabTestID, &v.TestName, &v.OrderedBy,
			&v.ClinicalNote, &v.Status, &v.RequisitionID, &v.CreatedAt, &v.UpdatedAt,
			&v.PatientName)
		if err != nil {
			return nil, 0, fmt.Errorf("scan lab order view: %w", err)
		}
		out = append(out, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *pgRepo) PendingCount(ctx context.Context) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM lab_orders WHERE status = $1`, StatusPending).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count pending orders: %w", err)
	}
	return n, nil
}

func (r *pgRepo) UpdateStatus(ctx context.Context, id int64, next Status, from ...Status) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE lab_orders SET status = $2, updated_at = now()
		WHERE id = $1 AND status = ANY($3)`,
		id, next, statusStrings(from))
	if err != nil {
		return false, fmt.Errorf("update order status: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *pgRepo) AttachRequisition(ctx context.Context, id, requisitionID int64) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE lab_orders SET requisition_id = $2, updated_at = now()
		WHERE id = $1`, id, requisitionID)
	if err != nil {
		return fmt.Errorf("attach requisition: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func statusStrings(in []Status) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = string(s)
	}
	return out
}
