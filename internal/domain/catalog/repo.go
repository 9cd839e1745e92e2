package catalog

import "context"

// Repository is the persistence port for the test catalog.
type Repository interface {
	CreateCategory(ctx context.Context, c *TestCategory) error
	GetCategory(ctx context.Context, id int64) (*TestCategory, error)
	ListCategories(ctx context.Context) ([]*TestCategory, error)

	CreateSampleType(ctx context.Context, s *SampleType) error
	GetSampleType(ctx context.Context, id int64) (*SampleType, error)
	ListSampleTypes(ctx context.Context) ([]*SampleType, error)

	CreateTest(ctx context.Context, t *LabTest) error
	GetTest(ctx context.Context, id int64) (*LabTest, error)
	ListTests(ctx context.Context) ([]*LabTest, error)
	ListTestsByCategory(ctx context.Context, categoryID int64) ([]*LabTest, error)
	LinkSample(ctx context.Context, testID, sampleTypeID int64) error
	ListSamplesForTest(ctx context.Context, testID int64) ([]*SampleType, error)

	CreateUnit(ctx context.Context, u *Unit) error
	GetUnit(ctx context.Context, id int64) (*Unit, error)
	ListUnits(ctx context.Context) ([]*Unit, error)

	CreateParameter(ctx context.Context, p *Parameter) error
	ListParametersForTest(ctx context.Context, testID int64) ([]*Parameter, error)

	CreateCommentTemplate(ctx context.Context, t *CommentTemplate) error
	ListCommentTemplates(ctx context.Context) ([]*CommentTemplate, error)
	DeleteCommentTemplate(ctx context.Context, id int64) error
}
