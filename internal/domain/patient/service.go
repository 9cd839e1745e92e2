package patient

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medilab/lis/internal/platform/db"
)

// ErrDuplicateRegNo is returned when a registration number is already
// taken.
var ErrDuplicateRegNo = errors.New("patient: registration number already exists")

// Service holds patient business logic.
type Service struct {
	repo Repository
	pool *pgxpool.Pool
}

func NewService(repo Repository, pool *pgxpool.Pool) *Service {
	return &Service{repo: repo, pool: pool}
}

// Register validates and persists a new patient. The satellite rows are
// created empty in the same transaction so every later update is a
// plain UPDATE. Validation problems come back as the first return value
// with a nil error.
func (s *Service) Register(ctx context.Context, p *Patient) ([]string, error) {
	if errs := p.Validate(); len(errs) > 0 {
		return errs, nil
	}

	if _, err := s.repo.GetByRegNo(ctx, p.RegNo); err == nil {
		return nil, ErrDuplicateRegNo
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	err := db.WithTx(ctx, s.pool, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, p); err != nil {
			return err
		}
		if err := s.repo.CreateKin(ctx, &NextOfKin{RegNo: p.RegNo}); err != nil {
			return err
		}
		if err := s.repo.CreateGuardian(ctx, &Guardian{RegNo: p.RegNo}); err != nil {
			return err
		}
		return s.repo.CreateHistory(ctx, &MedicalHistory{RegNo: p.RegNo})
	})
	if err != nil {
		return nil, err
	}
	return nil, nil
}

// Get returns the patient together with all satellite rows.
func (s *Service) Get(ctx context.Context, regNo string) (*Record, error) {
	p, err := s.repo.GetByRegNo(ctx, regNo)
	if err != nil {
		return nil, err
	}
	rec := &Record{Patient: *p}

	if k, err := s.repo.GetKin(ctx, regNo); err == nil {
		rec.Kin = *k
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if g, err := s.repo.GetGuardian(ctx, regNo); err == nil {
		rec.Guard = *g
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if h, err := s.repo.GetHistory(ctx, regNo); err == nil {
		rec.History = *h
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return rec, nil
}

// List returns patients newest first, or a fuzzy search across
// registration number, names and phone when query is non-empty.
func (s *Service) List(ctx context.Context, query string, limit, offset int) ([]*Patient, int, error) {
	if query != "" {
		return s.repo.Search(ctx, query, limit, offset)
	}
	return s.repo.List(ctx, limit, offset)
}

// Identify is the lean lookup the lab uses to confirm a sample belongs
// to a registered patient before raising a requisition.
func (s *Service) Identify(ctx context.Context, regNo string) (*Patient, error) {
	return s.repo.GetByRegNo(ctx, regNo)
}

func (s *Service) UpdateNextOfKin(ctx context.Context, k *NextOfKin) error {
	return s.repo.UpdateKin(ctx, k)
}

func (s *Service) UpdateGuardian(ctx context.Context, g *Guardian) error {
	return s.repo.UpdateGuardian(ctx, g)
}

func (s *Service) UpdateMedicalHistory(ctx context.Context, h *MedicalHistory) error {
	return s.repo.UpdateHistory(ctx, h)
}
