package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/medilab/lis/internal/platform/db"
	"github.com/medilab/lis/internal/platform/session"
)

// UnknownOfficer is shown on a requisition when the authorizing user
// cannot be resolved to a display name.
const UnknownOfficer = "Unknown Officer"

type Service struct {
	emrUsers   EMRUserRepository
	lisUsers   LISUserRepository
	doctors    DoctorRepository
	attendants LabAttendantRepository
	pool       *pgxpool.Pool
}

func NewService(emr EMRUserRepository, lis LISUserRepository, doctors DoctorRepository, attendants LabAttendantRepository, pool *pgxpool.Pool) *Service {
	return &Service{emrUsers: emr, lisUsers: lis, doctors: doctors, attendants: attendants, pool: pool}
}

func hashPassword(password string) (string, error) {
	if len(password) < 8 {
		return "", fmt.Errorf("password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func checkPassword(hash, password string) error {
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// LoginEMR verifies EMR credentials and returns the account.
func (s *Service) LoginEMR(ctx context.Context, username, password string) (*EMRUser, error) {
	u, err := s.emrUsers.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := checkPassword(u.PasswordHash, password); err != nil {
		return nil, err
	}
	return u, nil
}

// LoginLIS verifies LIS credentials and returns the account.
func (s *Service) LoginLIS(ctx context.Context, username, password string) (*LISUser, error) {
	u, err := s.lisUsers.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := checkPassword(u.PasswordHash, password); err != nil {
		return nil, err
	}
	return u, nil
}

// CreateEMRUser registers an EMR staff account.
func (s *Service) CreateEMRUser(ctx context.Context, username, password, role string) (*EMRUser, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	switch role {
	case session.RoleDoctor, session.RoleNurse, session.RoleRecords, session.RoleAdmin:
	default:
		return nil, fmt.Errorf("invalid EMR role: %s", role)
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &EMRUser{Username: username, PasswordHash: hash, Role: role}
	if err := s.emrUsers.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// CreateDoctor adds a doctor to the directory, optionally linked to an
// EMR account.
func (s *Service) CreateDoctor(ctx context.Context, name, email string, userID *int64) (*Doctor, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	d := &Doctor{Name: name, Email: email, UserID: userID}
	if err := s.doctors.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// CreateAdmin registers a LIS administrator account.
func (s *Service) CreateAdmin(ctx context.Context, username, password string) (*LISUser, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &LISUser{Username: username, PasswordHash: hash, Role: session.RoleAdmin}
	if err := s.lisUsers.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// CreateLabAttendant registers a lab attendant: the LIS login and the
// attendant directory row are written together or not at all.
func (s *Service) CreateLabAttendant(ctx context.Context, username, password, name, email string) (*LabAttendant, error) {
	username = strings.TrimSpace(username)
	name = strings.TrimSpace(name)
	if username == "" || name == "" {
		return nil, fmt.Errorf("username and name are required")
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	attendant := &LabAttendant{Name: name, Email: email}
	err = db.WithTx(ctx, s.pool, func(ctx context.Context) error {
		u := &LISUser{Username: username, PasswordHash: hash, Role: session.RoleLabAttendant}
		if err := s.lisUsers.Create(ctx, u); err != nil {
			return err
		}
		attendant.UserID = u.ID
		return s.attendants.Create(ctx, attendant)
	})
	if err != nil {
		return nil, err
	}
	return attendant, nil
}

// ListLabOfficers returns the lab attendant directory.
func (s *Service) ListLabOfficers(ctx context.Context) ([]*LabAttendant, error) {
	return s.attendants.List(ctx)
}

// ListPhysicians returns the doctor directory.
func (s *Service) ListPhysicians(ctx context.Context) ([]*Doctor, error) {
	return s.doctors.List(ctx)
}

// PhysicianName looks up a doctor's display name by directory id.
func (s *Service) PhysicianName(ctx context.Context, doctorID int64) (string, error) {
	d, err := s.doctors.GetByID(ctx, doctorID)
	if err != nil {
		return "", err
	}
	return d.Name, nil
}

// PhysicianEmail looks up a doctor's email by directory id.
func (s *Service) PhysicianEmail(ctx context.Context, doctorID int64) (string, error) {
	d, err := s.doctors.GetByID(ctx, doctorID)
	if err != nil {
		return "", err
	}
	return d.Email, nil
}

// OfficerName resolves the display name of the LIS user who authorized
// a requisition. Attendants show their directory name, admins their
// username; anything else falls back to UnknownOfficer.
func (s *Service) OfficerName(ctx context.Context, userID int64, role string) string {
	switch role {
	case session.RoleLabAttendant:
		a, err := s.attendants.GetByUserID(ctx, userID)
		if err != nil {
			return UnknownOfficer
		}
		return a.Name
	case session.RoleAdmin:
		u, err := s.lisUsers.GetByID(ctx, userID)
		if err != nil {
			return UnknownOfficer
		}
		return u.Username
	default:
		return UnknownOfficer
	}
}
