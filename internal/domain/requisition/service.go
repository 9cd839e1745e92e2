package requisition

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medilab/lis/internal/platform/db"
)

// createAttempts bounds sample id regeneration when the random draw
// collides with an existing label.
const createAttempts = 5

// CatalogNames is the snapshot a requisition takes from the catalog.
type CatalogNames struct {
	TestName       string
	CategoryName   string
	SampleTypeName string
	BiosafetyLevel int
}

// CatalogResolver resolves the catalog references on a requisition. A
// broken reference comes back as an error.
type CatalogResolver interface {
	Resolve(ctx context.Context, testID, categoryID, sampleTypeID int64) (*CatalogNames, error)
	BiosafetyLevel(ctx context.Context, testID int64) (int, error)
}

// PatientDirectory looks up a patient's display name by registration
// number.
type PatientDirectory interface {
	FullName(ctx context.Context, regNo string) (string, error)
}

type PatientDirectoryFunc func(ctx context.Context, regNo string) (string, error)

func (f PatientDirectoryFunc) FullName(ctx context.Context, regNo string) (string, error) {
	return f(ctx, regNo)
}

// OfficerNamer resolves the display name of the officer who opened a
// requisition.
type OfficerNamer interface {
	OfficerName(ctx context.Context, userID int64, role string) string
}

type OfficerNamerFunc func(ctx context.Context, userID int64, role string) string

func (f OfficerNamerFunc) OfficerName(ctx context.Context, userID int64, role string) string {
	return f(ctx, userID, role)
}

// PhysicianNamer resolves a requesting physician's display name from
// the doctor directory.
type PhysicianNamer interface {
	PhysicianName(ctx context.Context, doctorID int64) (string, error)
}

type PhysicianNamerFunc func(ctx context.Context, doctorID int64) (string, error)

func (f PhysicianNamerFunc) PhysicianName(ctx context.Context, doctorID int64) (string, error) {
	return f(ctx, doctorID)
}

// OrderLinker marks a linked lab order as received when its sample is
// requisitioned.
type OrderLinker interface {
	MarkReceived(ctx context.Context, orderID, requisitionID int64) error
}

type OrderLinkerFunc func(ctx context.Context, orderID, requisitionID int64) error

func (f OrderLinkerFunc) MarkReceived(ctx context.Context, orderID, requisitionID int64) error {
	return f(ctx, orderID, requisitionID)
}

// Service holds requisition business logic.
type Service struct {
	repo       Repository
	catalog    CatalogResolver
	patients   PatientDirectory
	officers   OfficerNamer
	physicians PhysicianNamer
	orders     OrderLinker
	pool       *pgxpool.Pool
}

func NewService(repo Repository, cat CatalogResolver, patients PatientDirectory,
	officers OfficerNamer, physicians PhysicianNamer, orders OrderLinker,
	pool *pgxpool.Pool) *Service {
	return &Service{
		repo:       repo,
		catalog:    cat,
		patients:   patients,
		officers:   officers,
		physicians: physicians,
		orders:     orders,
		pool:       pool,
	}
}

// Create opens a requisition for a received sample. Catalog names and
// the patient name are snapshotted, a fresh six digit sample id is
// assigned, and a linked lab order moves to received in the same
// transaction. A sample id collision aborts the transaction and the
// whole attempt is retried with a new id.
func (s *Service) Create(ctx context.Context, in *CreateInput, officerID int64, officerRole string) (*Requisition, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	patientName, err := s.patients.FullName(ctx, in.PatientReg)
	if err != nil {
		return nil, ErrReference
	}
	names, err := s.catalog.Resolve(ctx, in.LabTestID, in.CategoryID, in.SampleTypeID)
	if err != nil {
		return nil, ErrReference
	}
	var physician string
	if in.PhysicianID != nil {
		physician, err = s.physicians.PhysicianName(ctx, *in.PhysicianID)
		if err != nil {
			return nil, ErrReference
		}
	}
	collectedAt, err := in.CollectionTime()
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < createAttempts; attempt++ {
		sampleID, err := newSampleID()
		if err != nil {
			return nil, err
		}

		q := &Requisition{
			SampleID:       sampleID,
			PatientReg:     in.PatientReg,
			PatientName:    patientName,
			RequestFormat:  in.RequestFormat,
			PhysicianID:    in.PhysicianID,
			Physician:      physician,
			LabTestID:      in.LabTestID,
			TestName:       names.TestName,
			CategoryName:   names.CategoryName,
			SampleTypeName: names.SampleTypeName,
			CollectedAt:    collectedAt,
			Priority:       in.Priority,
			ClinicalNotes:  in.ClinicalNotes,
			OfficerID:      officerID,
			OfficerRole:    officerRole,
			OrderID:        in.OrderID,
			Status:         StatusPending,
		}

		err = db.WithTx(ctx, s.pool, func(ctx context.Context) error {
			if err := s.repo.Create(ctx, q); err != nil {
				return err
			}
			if in.OrderID != nil {
				return s.orders.MarkReceived(ctx, *in.OrderID, q.ID)
			}
			return nil
		})
		if errors.Is(err, ErrDuplicateSample) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return q, nil
	}
	return nil, ErrDuplicateSample
}

// List returns a worklist page for a filter. Unknown filters are the
// caller's error to report.
func (s *Service) List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Requisition, int, error) {
	if !filter.Valid() {
		return nil, 0, errors.New("unknown requisition filter")
	}
	return s.repo.List(ctx, filter, limit, offset)
}

// Get returns the bench detail projection, resolving the officer's
// display name and the test's biosafety level.
func (s *Service) Get(ctx context.Context, id int64) (*Detail, error) {
	q, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, q), nil
}

// LookupBySampleID finds a requisition by its specimen label.
func (s *Service) LookupBySampleID(ctx context.Context, sampleID string) (*Detail, error) {
	q, err := s.repo.GetBySampleID(ctx, sampleID)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, q), nil
}

func (s *Service) detail(ctx context.Context, q *Requisition) *Detail {
	bsl, err := s.catalog.BiosafetyLevel(ctx, q.LabTestID)
	if err != nil {
		bsl = 0
	}
	return &Detail{
		ID:             q.ID,
		SampleID:       q.SampleID,
		PatientReg:     orNA(q.PatientReg),
		PatientName:    orNA(q.PatientName),
		Physician:      orNA(q.Physician),
		RequestFormat:  orNA(q.RequestFormat),
		TestName:       orNA(q.TestName),
		CategoryName:   orNA(q.CategoryName),
		SampleTypeName: orNA(q.SampleTypeName),
		CollectedAt:    q.CollectedAt.Format("2006-01-02 15:04"),
		Priority:       orNA(q.Priority),
		ClinicalNotes:  orNA(q.ClinicalNotes),
		OfficerName:    s.officers.OfficerName(ctx, q.OfficerID, q.OfficerRole),
		BiosafetyLevel: bsl,
		StatusLabel:    q.Status.Label(),
		CreatedAt:      q.CreatedAt.Format("2006-01-02 15:04"),
	}
}

// Raw returns the stored requisition row without projection. The
// result workflow uses it.
func (s *Service) Raw(ctx context.Context, id int64) (*Requisition, error) {
	return s.repo.GetByID(ctx, id)
}

// Publish moves a requisition to published. Publishing again is a
// no-op on the status; an amended result simply republishes.
func (s *Service) Publish(ctx context.Context, id int64) error {
	return s.setStatus(ctx, id, StatusPublished)
}

// Archive hides a requisition from the live worklists. Archiving an
// already archived record succeeds without change.
func (s *Service) Archive(ctx context.Context, id int64) error {
	return s.setStatus(ctx, id, StatusArchived)
}

// Unarchive restores an archived requisition to the pending worklist.
func (s *Service) Unarchive(ctx context.Context, id int64) error {
	return s.setStatus(ctx, id, StatusPending)
}

func (s *Service) setStatus(ctx context.Context, id int64, next Status) error {
	moved, err := s.repo.SetStatus(ctx, id, next)
	if err != nil {
		return err
	}
	if !moved {
		return ErrNotFound
	}
	return nil
}

// PendingCount powers the LIS dashboard badge.
func (s *Service) PendingCount(ctx context.Context) (int, error) {
	return s.repo.PendingCount(ctx)
}
