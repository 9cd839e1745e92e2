package biohazard

import (
	"context"
	"errors"
)

// ErrAlreadyResolved is returned when resolving an incident twice.
var ErrAlreadyResolved = errors.New("biohazard: incident already resolved")

// Service holds incident business logic.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Report files a new incident.
func (s *Service) Report(ctx context.Context, i *Incident) error {
	if err := i.Validate(); err != nil {
		return err
	}
	return s.repo.Create(ctx, i)
}

func (s *Service) Get(ctx context.Context, id int64) (*Incident, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, unresolvedOnly bool, limit, offset int) ([]*Incident, int, error) {
	return s.repo.List(ctx, unresolvedOnly, limit, offset)
}

// Resolve closes an open incident.
func (s *Service) Resolve(ctx context.Context, id int64) error {
	moved, err := s.repo.MarkResolved(ctx, id)
	if err != nil {
		return err
	}
	if !moved {
		if _, err := s.repo.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrAlreadyResolved
	}
	return nil
}
