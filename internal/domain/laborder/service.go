package laborder

import (
	"context"
	"errors"
)

// ErrReference is returned when an order points at a patient or
// catalog entry that does not exist.
var ErrReference = errors.New("laborder: broken reference")

// PatientVerifier confirms a registration number is real.
type PatientVerifier interface {
	Exists(ctx context.Context, regNo string) (bool, error)
}

type PatientVerifierFunc func(ctx context.Context, regNo string) (bool, error)

func (f PatientVerifierFunc) Exists(ctx context.Context, regNo string) (bool, error) {
	return f(ctx, regNo)
}

// TestResolver resolves a catalog test id to its display name.
type TestResolver interface {
	TestName(ctx context.Context, id int64) (string, error)
}

type TestResolverFunc func(ctx context.Context, id int64) (string, error)

func (f TestResolverFunc) TestName(ctx context.Context, id int64) (string, error) {
	return f(ctx, id)
}

// Service holds lab order business logic.
type Service struct {
	repo     Repository
	patients PatientVerifier
	tests    TestResolver
}

func NewService(repo Repository, patients PatientVerifier, tests TestResolver) *Service {
	return &Service{repo: repo, patients: patients, tests: tests}
}

// Create validates the order, snapshots the test name from the catalog
// and persists it as pending.
func (s *Service) Create(ctx context.Context, o *LabOrder) error {
	if err := o.Validate(); err != nil {
		return err
	}

	ok, err := s.patients.Exists(ctx, o.PatientReg)
	if err != nil {
		return err
	}
	if !ok {
		return ErrReference
	}

	name, err := s.tests.TestName(ctx, o.LabTestID)
	if err != nil {
		return ErrReference
	}
	o.TestName = name
	o.Status = StatusPending
	return s.repo.Create(ctx, o)
}

func (s *Service) Get(ctx context.Context, id int64) (*LabOrder, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns the joined order view, optionally filtered by status
// and patient.
func (s *Service) List(ctx context.Context, status Status, patientReg string, limit, offset int) ([]*OrderView, int, error) {
	if status != "" && !status.Valid() {
		return nil, 0, errors.New("unknown order status")
	}
	return s.repo.List(ctx, status, patientReg, limit, offset)
}

// PendingCount powers the lab dashboard badge.
func (s *Service) PendingCount(ctx context.Context) (int, error) {
	return s.repo.PendingCount(ctx)
}

// MarkReceived records that the lab took the sample for a pending
// order and links the requisition raised for it.
func (s *Service) MarkReceived(ctx context.Context, orderID, requisitionID int64) error {
	moved, err := s.repo.UpdateStatus(ctx, orderID, StatusReceived, StatusPending)
	if err != nil {
		return err
	}
	if !moved {
		if _, err := s.repo.GetByID(ctx, orderID); err != nil {
			return err
		}
		return ErrStateTransition
	}
	return s.repo.AttachRequisition(ctx, orderID, requisitionID)
}

// MarkProcessing moves an order to processing once result entry
// starts. Orders already processing stay put, and a published order
// is never demoted by a later draft save.
func (s *Service) MarkProcessing(ctx context.Context, orderID int64) error {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if o.Status == StatusProcessing || o.Status == StatusPublished {
		return nil
	}
	moved, err := s.repo.UpdateStatus(ctx, orderID, StatusProcessing, StatusPending, StatusReceived)
	if err != nil {
		return err
	}
	if !moved {
		// Lost a race to another writer; the order already moved on.
		return nil
	}
	return nil
}

// MarkPublished is called when the linked requisition's results go
// out. Republishing an amended result hits an already published order,
// which stays put without error.
func (s *Service) MarkPublished(ctx context.Context, orderID int64) error {
	moved, err := s.repo.UpdateStatus(ctx, orderID, StatusPublished,
		StatusPending, StatusReceived, StatusProcessing)
	if err != nil {
		return err
	}
	if !moved {
		o, err := s.repo.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if o.Status == StatusPublished {
			return nil
		}
		return ErrStateTransition
	}
	return nil
}
