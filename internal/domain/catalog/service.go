package catalog

import (
	"context"
	"fmt"
)

// Service holds catalog business logic. Catalog data is administered by
// the lab and read by everything else in the LIS, so the service is
// mostly thin validation in front of the repository.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateCategory(ctx context.Context, c *TestCategory) error {
	if err := c.Validate(); err != nil {
		return err
	}
	return s.repo.CreateCategory(ctx, c)
}

func (s *Service) ListCategories(ctx context.Context) ([]*TestCategory, error) {
	return s.repo.ListCategories(ctx)
}

func (s *Service) CreateSampleType(ctx context.Context, st *SampleType) error {
	if err := st.Validate(); err != nil {
		return err
	}
	return s.repo.CreateSampleType(ctx, st)
}

func (s *Service) ListSampleTypes(ctx context.Context) ([]*SampleType, error) {
	return s.repo.ListSampleTypes(ctx)
}

// CreateTest validates the test, confirms the category exists and
// links the accepted sample types in one go.
func (s *Service) CreateTest(ctx context.Context, t *LabTest, sampleTypeIDs []int64) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if _, err := s.repo.GetCategory(ctx, t.CategoryID); err != nil {
		return err
	}
	for _, id := range sampleTypeIDs {
		if _, err := s.repo.GetSampleType(ctx, id); err != nil {
			return err
		}
	}
	if err := s.repo.CreateTest(ctx, t); err != nil {
		return err
	}
	for _, id := range sampleTypeIDs {
		if err := s.repo.LinkSample(ctx, t.ID, id); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) GetTest(ctx context.Context, id int64) (*LabTest, error) {
	return s.repo.GetTest(ctx, id)
}

func (s *Service) ListTests(ctx context.Context, categoryID int64) ([]*LabTest, error) {
	if categoryID > 0 {
		return s.repo.ListTestsByCategory(ctx, categoryID)
	}
	return s.repo.ListTests(ctx)
}

func (s *Service) ListSamplesForTest(ctx context.Context, testID int64) ([]*SampleType, error) {
	return s.repo.ListSamplesForTest(ctx, testID)
}

func (s *Service) CreateUnit(ctx context.Context, u *Unit) error {
	if err := u.Validate(); err != nil {
		return err
	}
	return s.repo.CreateUnit(ctx, u)
}

func (s *Service) ListUnits(ctx context.Context) ([]*Unit, error) {
	return s.repo.ListUnits(ctx)
}

func (s *Service) CreateParameter(ctx context.Context, p *Parameter) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if _, err := s.repo.GetTest(ctx, p.LabTestID); err != nil {
		return err
	}
	if p.UnitID != nil {
		if _, err := s.repo.GetUnit(ctx, *p.UnitID); err != nil {
			return err
		}
	}
	return s.repo.CreateParameter(ctx, p)
}

func (s *Service) ListParametersForTest(ctx context.Context, testID int64) ([]*Parameter, error) {
	return s.repo.ListParametersForTest(ctx, testID)
}

func (s *Service) CreateCommentTemplate(ctx context.Context, t *CommentTemplate) error {
	if t.Text == "" {
		return fmt.Errorf("template text is required")
	}
	return s.repo.CreateCommentTemplate(ctx, t)
}

func (s *Service) ListCommentTemplates(ctx context.Context) ([]*CommentTemplate, error) {
	return s.repo.ListCommentTemplates(ctx)
}

func (s *Service) DeleteCommentTemplate(ctx context.Context, id int64) error {
	return s.repo.DeleteCommentTemplate(ctx, id)
}

// Resolve loads the denormalized names a requisition snapshots at
// creation time. Any broken reference surfaces as ErrNotFound.
func (s *Service) Resolve(ctx context.Context, testID, categoryID, sampleTypeID int64) (test *LabTest, category *TestCategory, sample *SampleType, err error) {
	test, err = s.repo.GetTest(ctx, testID)
	if err != nil {
		return nil, nil, nil, err
	}
	category, err = s.repo.GetCategory(ctx, categoryID)
	if err != nil {
		return nil, nil, nil, err
	}
	sample, err = s.repo.GetSampleType(ctx, sampleTypeID)
	if err != nil {
		return nil, nil, nil, err
	}
	return test, category, sample, nil
}
