package laborder

import "context"

// Repository is the persistence port for lab orders.
type Repository interface {
	Create(ctx context.Context, o *LabOrder) error
	GetByID(ctx context.Context, id int64) (*LabOrder, error)
	List(ctx context.Context, status Status, patientReg string, limit, offset int) ([]*OrderView, int, error)
	PendingCount(ctx context.Context) (int, error)

	// UpdateStatus moves an order to next only if it currently holds
	// one of the from statuses, and reports whether a row changed.
	UpdateStatus(ctx context.Context, id int64, next Status, from ...Status) (bool, error)
	AttachRequisition(ctx context.Context, id, requisitionID int64) error
}
