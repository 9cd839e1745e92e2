package requisition

import "context"

// ListFilter selects which requisitions a worklist shows. "all" still
// hides archived records; they only appear under "archived".
type ListFilter string

const (
	FilterPending   ListFilter = "pending"
	FilterProcessed ListFilter = "processed"
	FilterArchived  ListFilter = "archived"
	FilterAll       ListFilter = "all"
)

func (f ListFilter) Valid() bool {
	switch f {
	case FilterPending, FilterProcessed, FilterArchived, FilterAll:
		return true
	}
	return false
}

// Repository is the persistence port for requisitions.
type Repository interface {
	// Create inserts and fills in the generated id. A sample id
	// collision returns ErrDuplicateSample.
	Create(ctx context.Context, r *Requisition) error
	GetByID(ctx context.Context, id int64) (*Requisition, error)
	GetBySampleID(ctx context.Context, sampleID string) (*Requisition, error)
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Requisition, int, error)
	PendingCount(ctx context.Context) (int, error)

	// SetStatus moves a requisition to next and reports whether a row
	// changed. With no from statuses the move is unconditional; given
	// some, only a requisition currently in one of them moves.
	SetStatus(ctx context.Context, id int64, next Status, from ...Status) (bool, error)
}
