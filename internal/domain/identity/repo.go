package identity

import "context"

type EMRUserRepository interface {
	Create(ctx context.Context, u *EMRUser) error
	GetByID(ctx context.Context, id int64) (*EMRUser, error)
	GetByUsername(ctx context.Context, username string) (*EMRUser, error)
}

type LISUserRepository interface {
	Create(ctx context.Context, u *LISUser) error
	GetByID(ctx context.Context, id int64) (*LISUser, error)
	GetByUsername(ctx context.Context, username string) (*LISUser, error)
}

type DoctorRepository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id int64) (*Doctor, error)
	List(ctx context.Context) ([]*Doctor, error)
}

type LabAttendantRepository interface {
	Create(ctx context.Context, a *LabAttendant) error
	GetByUserID(ctx context.Context, userID int64) (*LabAttendant, error)
	List(ctx context.Context) ([]*LabAttendant, error)
}
