package catalog

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

func (r *pgRepo) CreateCategory(ctx context.Context, c *TestCategory) error {
	err := r.conn(ctx).QueryRow(ctx,
		`INSERT INTO test_categories (name) VALUES ($1) RETURNING id`, c.Name).
		Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (r *pgRepo) GetCategory(ctx context.Context, id int64) (*TestCategory, error) {
	var c TestCategory
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT id, name FROM test_categories WHERE id = $1`, id).
		Scan(&c.ID, &c.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &c, nil
}

func (r *pgRepo) ListCategories(ctx context.Context) ([]*TestCategory, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT id, name FROM test_categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []*TestCategory
	for rows.Next() {
		var c TestCategory
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (r *pgRepo) CreateSampleType(ctx context.Context, s *SampleType) error {
	err := r.conn(ctx).QueryRow(ctx,
		`INSERT INTO sample_types (name) VALUES ($1) RETURNING id`, s.Name).
		Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("insert sample type: %w", err)
	}
	return nil
}

func (r *pgRepo) GetSampleType(ctx context.Context, id int64) (*SampleType, error) {
	var s SampleType
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT id, name FROM sample_types WHERE id = $1`, id).
		Scan(&s.ID, &s.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get sample type: %w", err)
	}
	return &s, nil
}

func (r *pgRepo) ListSampleTypes(ctx context.Context) ([]*SampleType, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT id, name FROM sample_types ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list sample types: %w", err)
	}
	defer rows.Close()
	return collectSampleTypes(rows)
}

const testCols = `id, name, category_id, biosafety_level, price, turnaround_hrs`

func scanTest(row pgx.Row) (*LabTest, error) {
	var t LabTest
	err := row.Scan(&t.ID, &t.Name, &t.CategoryID, &t.BiosafetyLevel, &t.Price, &t.TurnaroundHrs)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan lab test: %w", err)
	}
	return &t, nil
}

func (r *pgRepo) CreateTest(ctx context.Context, t *LabTest) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO lab_tests (name, category_id, biosafety_level, price, turnaround_hrs)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		t.Name, t.CategoryID, t.BiosafetyLevel, t.Price, t.TurnaroundHrs).
		Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("insert lab test: %w", err)
	}
	return nil
}

func (r *pgRepo) GetTest(ctx context.Context, id int64) (*LabTest, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+testCols+` FROM lab_tests WHERE id = $1`, id)
	return scanTest(row)
}

func (r *pgRepo) ListTests(ctx context.Context) ([]*LabTest, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+testCols+` FROM lab_tests ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list lab tests: %w", err)
	}
	defer rows.Close()
	return collectTests(rows)
}

func (r *pgRepo) ListTestsByCategory(ctx context.Context, categoryID int64) ([]*LabTest, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+testCols+` FROM lab_tests WHERE category_id = $1 ORDER BY name`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list lab tests by category: %w", err)
	}
	defer rows.Close()
	return collectTests(rows)
}

func collectTests(rows pgx.Rows) ([]*LabTest, error) {
	var out []*LabTest
	for rows.Next() {
		t, err := scanTest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *pgRepo) LinkSample(ctx context.Context, testID, sampleTypeID int64) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO lab_test_samples (lab_test_id, sample_type_id)
		VALUES ($1, $2) ON CONFLICT DO NOTHING`, testID, sampleTypeID)
	if err != nil {
		return fmt.Errorf("link sample type: %w", err)
	}
	return nil
}

func (r *pgRepo) ListSamplesForTest(ctx context.Context, testID int64) ([]*SampleType, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT st.id, st.name
		FROM sample_types st
		JOIN lab_test_samples lts ON lts.sample_type_id = st.id
		WHERE lts.lab_test_id = $1
		ORDER BY st.name`, testID)
	if err != nil {
		return nil, fmt.Errorf("list samples for test: %w", err)
	}
	defer rows.Close()
	return collectSampleTypes(rows)
}

func collectSampleTypes(rows pgx.Rows) ([]*SampleType, error) {
	var out []*SampleType
	for rows.Next() {
		var s SampleType
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, fmt.Errorf("scan sample type: %w", err)
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

func (r *pgRepo) CreateUnit(ctx context.Context, u *Unit) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO lab_units (name, base_unit, conversion_factor)
		VALUES ($1, $2, $3) RETURNING id`,
		u.Name, u.BaseUnit, u.ConversionFactor).
		Scan(&u.ID)
	if err != nil {
		return fmt.Errorf("insert unit: %w", err)
	}
	return nil
}

func (r *pgRepo) GetUnit(ctx context.Context, id int64) (*Unit, error) {
	var u Unit
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, name, base_unit, conversion_factor
		FROM lab_units WHERE id = $1`, id).
		Scan(&u.ID, &u.Name, &u.BaseUnit, &u.ConversionFactor)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get unit: %w", err)
	}
	return &u, nil
}

func (r *pgRepo) ListUnits(ctx context.Context) ([]*Unit, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, name, base_unit, conversion_factor
		FROM lab_units ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	defer rows.Close()

	var out []*Unit
	for rows.Next() {
		var u Unit
		if err := rows.Scan(&u.ID, &u.Name, &u.BaseUnit, &u.ConversionFactor); err != nil {
			return nil, fmt.Errorf("scan unit: %w", err)
		}
		out = append(out, &u)
	}
	return out, rows.Err()
}

func (r *pgRepo) CreateParameter(ctx context.Context, p *Parameter) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO lab_test_parameters (lab_test_id, name, unit_id, ref_range)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		p.LabTestID, p.Name, p.UnitID, p.RefRange).
		Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("insert parameter: %w", err)
	}
	return nil
}

func (r *pgRepo) ListParametersForTest(ctx context.Context, testID int64) ([]*Parameter, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT p.id, p.lab_test_id, p.name, p.unit_id,
			COALESCE(u.name, ''), COALESCE(u.base_unit, ''),
			COALESCE(u.conversion_factor, 1), p.ref_range
		FROM lab_test_parameters p
		LEFT JOIN lab_units u ON u.id = p.unit_id
		WHERE p.lab_test_id = $1 ORDER BY p.id`, testID)
	if err != nil {
		return nil, fmt.Errorf("list parameters: %w", err)
	}
	defer rows.Close()

	var out []*Parameter
	for rows.Next() {
		var p Parameter
		if err := rows.Scan(&p.ID, &p.LabTestID, &p.Name, &p.UnitID,
			&p.Unit, &p.BaseUnit, &p.ConversionFactor, &p.RefRange); err != nil {
			return nil, fmt.Errorf("scan parameter: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (r *pgRepo) CreateCommentTemplate(ctx context.Context, t *CommentTemplate) error {
	err := r.conn(ctx).QueryRow(ctx,
		`INSERT INTO comment_templates (text) VALUES ($1) RETURNING id`, t.Text).
		Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("insert comment template: %w", err)
	}
	return nil
}

func (r *pgRepo) ListCommentTemplates(ctx context.Context) ([]*CommentTemplate, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT id, text FROM comment_templates ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list comment templates: %w", err)
	}
	defer rows.Close()

	var out []*CommentTemplate
	for rows.Next() {
		var t CommentTemplate
		if err := rows.Scan(&t.ID, &t.Text); err != nil {
			return nil, fmt.Errorf("scan comment template: %w", err)
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

func (r *pgRepo) DeleteCommentTemplate(ctx context.Context, id int64) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM comment_templates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete comment template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
