package patient

import "context"

// Repository is the persistence port for patients and their satellite
// rows. Registration inserts all four rows, so Create takes the empty
// satellites alongside the patient and relies on the caller to run it
// inside a transaction.
type Repository interface {
	Create(ctx context.Context, p *Patient) error
	CreateKin(ctx context.Context, k *NextOfKin) error
	CreateGuardian(ctx context.Context, g *Guardian) error
	CreateHistory(ctx context.Context, h *MedicalHistory) error

	GetByRegNo(ctx context.Context, regNo string) (*Patient, error)
	GetKin(ctx context.Context, regNo string) (*NextOfKin, error)
	GetGuardian(ctx context.Context, regNo string) (*Guardian, error)
	GetHistory(ctx context.Context, regNo string) (*MedicalHistory, error)

	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)
	Search(ctx context.Context, query string, limit, offset int) ([]*Patient, int, error)

	UpdateKin(ctx context.Context, k *NextOfKin) error
	UpdateGuardian(ctx context.Context, g *Guardian) error
	UpdateHistory(ctx context.Context, h *MedicalHistory) error
}
