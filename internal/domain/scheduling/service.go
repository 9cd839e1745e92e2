package scheduling

import (
	"context"
	"errors"
)

// ErrUnknownPatient is returned when an appointment names a
// registration number no patient holds.
var ErrUnknownPatient = errors.New("scheduling: unknown patient")

// PatientVerifier confirms a registration number belongs to a
// registered patient. The patient service satisfies it.
type PatientVerifier interface {
	Exists(ctx context.Context, regNo string) (bool, error)
}

// PatientVerifierFunc adapts a function to PatientVerifier.
type PatientVerifierFunc func(ctx context.Context, regNo string) (bool, error)

func (f PatientVerifierFunc) Exists(ctx context.Context, regNo string) (bool, error) {
	return f(ctx, regNo)
}

// Service holds appointment and vitals business logic.
type Service struct {
	repo     Repository
	patients PatientVerifier
}

func NewService(repo Repository, patients PatientVerifier) *Service {
	return &Service{repo: repo, patients: patients}
}

// Book validates and persists an appointment after confirming the
// patient exists.
func (s *Service) Book(ctx context.Context, a *Appointment) error {
	if err := a.Validate(); err != nil {
		return err
	}
	ok, err := s.patients.Exists(ctx, a.PatientReg)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnknownPatient
	}
	return s.repo.CreateAppointment(ctx, a)
}

func (s *Service) Get(ctx context.Context, id int64) (*Appointment, error) {
	return s.repo.GetAppointment(ctx, id)
}

// List returns appointments, optionally restricted to one visit date.
func (s *Service) List(ctx context.Context, date string, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.ListAppointments(ctx, date, limit, offset)
}

func (s *Service) ListForPatient(ctx context.Context, regNo string) ([]*Appointment, error) {
	return s.repo.ListAppointmentsForPatient(ctx, regNo)
}

// RecordVitals attaches one set of vitals to an appointment. The
// appointment must exist and must not already have vitals.
func (s *Service) RecordVitals(ctx context.Context, v *Vitals) error {
	if err := v.Validate(); err != nil {
		return err
	}
	if _, err := s.repo.GetAppointment(ctx, v.AppointmentID); err != nil {
		return err
	}
	if _, err := s.repo.GetVitalsForAppointment(ctx, v.AppointmentID); err == nil {
		return errors.New("vitals already recorded for this appointment")
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	return s.repo.CreateVitals(ctx, v)
}

func (s *Service) VitalsForAppointment(ctx context.Context, appointmentID int64) (*Vitals, error) {
	return s.repo.GetVitalsForAppointment(ctx, appointmentID)
}
