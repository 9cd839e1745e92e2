// Package scheduling covers EMR appointments and the vitals a nurse
// records when the patient arrives for one.
package scheduling

import (
	"errors"
	"regexp"
	"time"
)

var ErrNotFound = errors.New("scheduling: not found")

// Appointment is a booked visit for a registered patient. Time is wall
// clock "HH:mm" because booking happens in clinic-local time.
type Appointment struct {
	ID         int64     `db:"id" json:"id"`
	PatientReg string    `db:"patient_reg" json:"patient_reg"`
	DoctorName string    `db:"doctor_name" json:"doctor_name"`
	Date       string    `db:"visit_date" json:"date"`
	Time       string    `db:"visit_time" json:"time"`
	Reason     string    `db:"reason" json:"reason"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Vitals is what the nurse captures at the start of the visit.
type Vitals struct {
	ID            int64     `db:"id" json:"id"`
	AppointmentID int64     `db:"appointment_id" json:"appointment_id"`
	TempCelsius   float64   `db:"temp_celsius" json:"temp_celsius"`
	PulseBpm      int       `db:"pulse_bpm" json:"pulse_bpm"`
	SystolicBP    int       `db:"systolic_bp" json:"systolic_bp"`
	DiastolicBP   int       `db:"diastolic_bp" json:"diastolic_bp"`
	WeightKg      float64   `db:"weight_kg" json:"weight_kg"`
	HeightCm      float64   `db:"height_cm" json:"height_cm"`
	RecordedBy    string    `db:"recorded_by" json:"recorded_by"`
	RecordedAt    time.Time `db:"recorded_at" json:"recorded_at"`
}

var timePattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

func (a *Appointment) Validate() error {
	if a.PatientReg == "" {
		return errors.New("patient registration number is required")
	}
	if a.DoctorName == "" {
		return errors.New("doctor name is required")
	}
	if _, err := time.Parse("2006-01-02", a.Date); err != nil {
		return errors.New("date must be in YYYY-MM-DD format")
	}
	if !timePattern.MatchString(a.Time) {
		return errors.New("time must be in HH:mm format")
	}
	return nil
}

func (v *Vitals) Validate() error {
	if v.AppointmentID == 0 {
		return errors.New("appointment is required")
	}
	if v.TempCelsius < 25 || v.TempCelsius > 45 {
		return errors.New("temperature out of range")
	}
	if v.PulseBpm < 20 || v.PulseBpm > 300 {
		return errors.New("pulse out of range")
	}
	if v.SystolicBP <= 0 || v.DiastolicBP <= 0 || v.DiastolicBP >= v.SystolicBP {
		return errors.New("blood pressure readings are invalid")
	}
	return nil
}
