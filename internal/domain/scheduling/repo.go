package scheduling

import "context"

// Repository is the persistence port for appointments and vitals.
type Repository interface {
	CreateAppointment(ctx context.Context, a *Appointment) error
	GetAppointment(ctx context.Context, id int64) (*Appointment, error)
	ListAppointments(ctx context.Context, date string, limit, offset int) ([]*Appointment, int, error)
	ListAppointmentsForPatient(ctx context.Context, regNo string) ([]*Appointment, error)

	CreateVitals(ctx context.Context, v *Vitals) error
	GetVitalsForAppointment(ctx context.Context, appointmentID int64) (*Vitals, error)
}
