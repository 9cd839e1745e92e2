package result

import "context"

// Repository is the persistence port for lab results. One row per
// requisition; Upsert replaces values and comments wholesale, the
// service owns the append semantics for comments.
type Repository interface {
	GetByRequisition(ctx context.Context, requisitionID int64) (*LabResult, error)
	Upsert(ctx context.Context, r *LabResult) error
	SetComments(ctx context.Context, requisitionID int64, comments []Comment) error
}
