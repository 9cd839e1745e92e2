package biohazard

import "context"

// Repository is the persistence port for incidents.
type Repository interface {
	Create(ctx context.Context, i *Incident) error
	GetByID(ctx context.Context, id int64) (*Incident, error)
	List(ctx context.Context, unresolvedOnly bool, limit, offset int) ([]*Incident, int, error)
	MarkResolved(ctx context.Context, id int64) (bool, error)
}
