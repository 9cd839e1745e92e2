package biohazard

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

const incidentCols = `id, description, location, severity, sample_id, reported_by,
	resolved, resolved_at, created_at`

func scanIncident(row pgx.Row) (*Incident, error) {
	var i Incident
	err := row.Scan(&i.ID, &i.Description, &i.Location, &i.Severity, &i.SampleID,
		&i.ReportedBy, &i.Resolved, &i.ResolvedAt, &i.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan incident: %w", err)
	}
	return &i, nil
}

func (r *pgRepo) Create(ctx context.Context, i *Incident) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO biohazard_incidents (description, location, severity, sample_id, reported_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		i.Description, i.Location, i.Severity, i.SampleID, i.ReportedBy).
		Scan(&i.ID, &i.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert incident: %w", err)
	}
	return nil
}

func (r *pgRepo) GetByID(ctx context.Context, id int64) (*Incident, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+incidentCols+` FROM biohazard_incidents WHERE id = $1`, id)
	return scanIncident(row)
}

func (r *pgRepo) List(ctx context.Context, unresolvedOnly bool, limit, offset int) ([]*Incident, int, error) {
	where := ""
	if unresolvedOnly {
		where = " WHERE resolved = false"
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM biohazard_incidents`+where).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count incidents: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+incidentCols+` FROM biohazard_incidents`+where+`
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list incidents: %w", err)
	}
	defer rows.Close()

	var out []*Incident
	for rows.Next() {
		i, err := scanIncident(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, i)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *pgRepo) MarkResolved(ctx context.Context, id int64) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE biohazard_incidents SET resolved = true, resolved_at = now()
		WHERE id = $1 AND resolved = false`, id)
	if err != nil {
		return false, fmt.Errorf("resolve incident: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
