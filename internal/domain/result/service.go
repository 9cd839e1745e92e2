package result

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medilab/lis/internal/domain/catalog"
	"github.com/medilab/lis/internal/domain/requisition"
	"github.com/medilab/lis/internal/platform/db"
)

// RequisitionStore is the slice of the requisition service the result
// workflow drives.
type RequisitionStore interface {
	Raw(ctx context.Context, id int64) (*requisition.Requisition, error)
	Publish(ctx context.Context, id int64) error
}

// OrderUpdater moves a linked lab order along as results come in.
type OrderUpdater interface {
	MarkProcessing(ctx context.Context, orderID int64) error
	MarkPublished(ctx context.Context, orderID int64) error
}

// ParameterSource lists the catalog parameters a test measures.
type ParameterSource interface {
	ListParametersForTest(ctx context.Context, testID int64) ([]*catalog.Parameter, error)
}

// Notifier queues the results-ready email when a requisition
// publishes. It runs inside the publish transaction, so a queueing
// failure rolls the publication back.
type Notifier interface {
	EnqueueResultReady(ctx context.Context, req *requisition.Requisition) error
}

type NotifierFunc func(ctx context.Context, req *requisition.Requisition) error

func (f NotifierFunc) EnqueueResultReady(ctx context.Context, req *requisition.Requisition) error {
	return f(ctx, req)
}

// Service holds result entry and publication logic.
type Service struct {
	repo     Repository
	reqs     RequisitionStore
	orders   OrderUpdater
	params   ParameterSource
	notifier Notifier
	pool     *pgxpool.Pool
}

func NewService(repo Repository, reqs RequisitionStore, orders OrderUpdater,
	params ParameterSource, notifier Notifier, pool *pgxpool.Pool) *Service {
	return &Service{
		repo:     repo,
		reqs:     reqs,
		orders:   orders,
		params:   params,
		notifier: notifier,
		pool:     pool,
	}
}

// Submit saves result values for a requisition. Values replace any
// previous submission wholesale; comments accumulate. With Publish set
// the requisition moves to published, the linked order follows, and
// the notification email is queued, all in one transaction. Without it
// the linked order moves to processing.
func (s *Service) Submit(ctx context.Context, in *SubmitInput, enteredBy int64) (*LabResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	req, err := s.reqs.Raw(ctx, in.RequisitionID)
	if err != nil {
		return nil, err
	}

	res := &LabResult{
		RequisitionID: in.RequisitionID,
		Values:        in.Values,
		EnteredBy:     enteredBy,
	}

	err = db.WithTx(ctx, s.pool, func(ctx context.Context) error {
		existing, err := s.repo.GetByRequisition(ctx, in.RequisitionID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		var nextID int64 = 1
		if existing != nil {
			res.Comments = existing.Comments
			for _, c := range existing.Comments {
				if c.ID >= nextID {
					nextID = c.ID + 1
				}
			}
		}
		now := time.Now().UTC()
		for _, text := range in.Comments {
			res.Comments = append(res.Comments, Comment{ID: nextID, Text: text, CreatedAt: now})
			nextID++
		}

		if err := s.repo.Upsert(ctx, res); err != nil {
			return err
		}

		if in.Publish {
			if err := s.reqs.Publish(ctx, in.RequisitionID); err != nil {
				return err
			}
			if req.OrderID != nil {
				if err := s.orders.MarkPublished(ctx, *req.OrderID); err != nil {
					return err
				}
			}
			return s.notifier.EnqueueResultReady(ctx, req)
		}

		if req.OrderID != nil {
			return s.orders.MarkProcessing(ctx, *req.OrderID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Get returns the stored result for a requisition.
func (s *Service) Get(ctx context.Context, requisitionID int64) (*LabResult, error) {
	return s.repo.GetByRequisition(ctx, requisitionID)
}

// DeleteComment removes one comment by id. It reports false only when
// the requisition has no result row at all; an unknown comment id
// leaves the trail untouched.
func (s *Service) DeleteComment(ctx context.Context, requisitionID, commentID int64) (bool, error) {
	res, err := s.repo.GetByRequisition(ctx, requisitionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	kept := make([]Comment, 0, len(res.Comments))
	for _, c := range res.Comments {
		if c.ID != commentID {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(res.Comments) {
		return true, nil
	}
	if err := s.repo.SetComments(ctx, requisitionID, kept); err != nil {
		return false, err
	}
	return true, nil
}

// ParametersWithValues overlays the test's catalog parameters with the
// values entered so far. Used to render the entry form.
func (s *Service) ParametersWithValues(ctx context.Context, requisitionID int64) ([]ParameterValue, error) {
	req, err := s.reqs.Raw(ctx, requisitionID)
	if err != nil {
		return nil, err
	}
	params, err := s.params.ListParametersForTest(ctx, req.LabTestID)
	if err != nil {
		return nil, err
	}

	entered := make(map[int64]string)
	if res, err := s.repo.GetByRequisition(ctx, requisitionID); err == nil {
		for _, v := range res.Values {
			entered[v.ParameterID] = v.Value
		}
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	out := make([]ParameterValue, 0, len(params))
	for _, p := range params {
		out = append(out, ParameterValue{
			ParameterID:      p.ID,
			Name:             p.Name,
			Unit:             p.Unit,
			BaseUnit:         p.BaseUnit,
			ConversionFactor: p.ConversionFactor,
			RefRange:         p.RefRange,
			Value:            entered[p.ID],
		})
	}
	return out, nil
}

// BuildPrintout assembles the report payload for a requisition.
func (s *Service) BuildPrintout(ctx context.Context, requisitionID int64) (*Printout, error) {
	req, err := s.reqs.Raw(ctx, requisitionID)
	if err != nil {
		return nil, err
	}
	params, err := s.ParametersWithValues(ctx, requisitionID)
	if err != nil {
		return nil, err
	}

	p := &Printout{
		SampleID:       req.SampleID,
		PatientReg:     req.PatientReg,
		PatientName:    req.PatientName,
		TestName:       req.TestName,
		CategoryName:   req.CategoryName,
		SampleTypeName: req.SampleTypeName,
		Physician:      req.Physician,
		StatusLabel:    req.Status.Label(),
		RequestedAt:    req.CreatedAt.Format("2006-01-02 15:04"),
		Parameters:     params,
	}
	if res, err := s.repo.GetByRequisition(ctx, requisitionID); err == nil {
		p.Comments = res.Comments
		if req.Status == requisition.StatusPublished {
			p.PublishedAt = res.UpdatedAt.Format("2006-01-02 15:04")
		}
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return p, nil
}
