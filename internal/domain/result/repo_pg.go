package result

import (
	"context"
	"encoding/json"
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

func (r *pgRepo) GetByRequisition(ctx context.Context, requisitionID int64) (*LabResult, error) {
	var (
		res         LabResult
		valuesRaw   []byte
		commentsRaw []byte
	)
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, requisition_id, param_values, comments, entered_by, created_at, updated_at
		FROM lab_results WHERE requisition_id = $1`, requisitionID).
		Scan(&res.ID, &res.RequisitionID, &valuesRaw, &commentsRaw,
			&res.EnteredBy, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get lab result: %w", err)
	}
	if err := json.Unmarshal(valuesRaw, &res.Values); err != nil {
		return nil, fmt.Errorf("decode result values: %w", err)
	}
	if err := json.Unmarshal(commentsRaw, &res.Comments); err != nil {
		return nil, fmt.Errorf("decode result comments: %w", err)
	}
	return &res, nil
}

func (r *pgRepo) Upsert(ctx context.Context, res *LabResult) error {
	valuesRaw, err := json.Marshal(res.Values)
	if err != nil {
		return fmt.Errorf("encode result values: %w", err)
	}
	commentsRaw, err := json.Marshal(res.Comments)
	if err != nil {
		return fmt.Errorf("encode result comments: %w", err)
	}

	err = r.conn(ctx).QueryRow(ctx, `
		INSERT INTO lab_results (requisition_id, param_values, comments, entered_by)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (requisition_id) DO UPDATE
		SET param_values = EXCLUDED.param_values,
			comments = EXCLUDED.comments,
			entered_by = EXCLUDED.entered_by,
			updated_at = now()
		RETURNING id, created_at, updated_at`,
		res.RequisitionID, valuesRaw, commentsRaw, res.EnteredBy).
		Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert lab result: %w", err)
	}
	return nil
}

func (r *pgRepo) SetComments(ctx context.Context, requisitionID int64, comments []Comment) error {
	commentsRaw, err := json.Marshal(comments)
	if err != nil {
		return fmt.Errorf("encode result comments: %w", err)
	}
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE lab_results SET comments = $2, updated_at = now()
		WHERE requisition_id = $1`, requisitionID, commentsRaw)
	if err != nil {
		return fmt.Errorf("update result comments: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
