// Package patient covers EMR patient registration and the satellite
// records (next of kin, guardian, medical history) that hang off a
// registration number.
package patient

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

var ErrNotFound = errors.New("patient: not found")

// Patient maps to the emr_patients table. RegNo is the hospital
// registration number, always exactly 11 digits, and is the key every
// satellite table and the LIS use to refer to a patient.
type Patient struct {
	RegNo          string    `db:"reg_no" json:"reg_no"`
	Surname        string    `db:"surname" json:"surname"`
	FirstName      string    `db:"first_name" json:"first_name"`
	OtherName      string    `db:"other_name" json:"other_name,omitempty"`
	Sex            string    `db:"sex" json:"sex"`
	MaritalStatus  string    `db:"marital_status" json:"marital_status"`
	DOBDay         int       `db:"dob_day" json:"dob_day"`
	DOBMonth       int       `db:"dob_month" json:"dob_month"`
	DOBYear        int       `db:"dob_year" json:"dob_year"`
	Phone          string    `db:"phone" json:"phone"`
	Address        string    `db:"address" json:"address,omitempty"`
	Email          string    `db:"email" json:"email,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// FullName renders "Surname Firstname [Othername]".
func (p *Patient) FullName() string {
	name := p.Surname + " " + p.FirstName
	if p.OtherName != "" {
		name += " " + p.OtherName
	}
	return name
}

// NextOfKin maps to the emr_next_of_kin table, one row per patient.
type NextOfKin struct {
	RegNo        string `db:"reg_no" json:"reg_no"`
	Name         string `db:"name" json:"name"`
	Phone        string `db:"phone" json:"phone"`
	Address      string `db:"address" json:"address"`
	Relationship string `db:"relationship" json:"relationship"`
}

// Guardian maps to the emr_guardians table, one row per patient.
type Guardian struct {
	RegNo   string `db:"reg_no" json:"reg_no"`
	Name    string `db:"name" json:"name"`
	Phone   string `db:"phone" json:"phone"`
	Address string `db:"address" json:"address"`
}

// MedicalHistory maps to the emr_medical_history table, one row per
// patient.
type MedicalHistory struct {
	RegNo             string `db:"reg_no" json:"reg_no"`
	Allergies         string `db:"allergies" json:"allergies"`
	ChronicConditions string `db:"chronic_conditions" json:"chronic_conditions"`
	Medications       string `db:"medications" json:"medications"`
	Notes             string `db:"notes" json:"notes"`
}

// Record bundles a patient with their satellite rows.
type Record struct {
	Patient Patient        `json:"patient"`
	Kin     NextOfKin      `json:"next_of_kin"`
	Guard   Guardian       `json:"guardian"`
	History MedicalHistory `json:"medical_history"`
}

var (
	regNoPattern = regexp.MustCompile(`^\d{11}$`)
	namePattern  = regexp.MustCompile(`^[A-Za-z][A-Za-z'\- ]*$`)
	phonePattern = regexp.MustCompile(`^\d{10,15}$`)
)

var validSexes = map[string]bool{"Male": true, "Female": true}

var validMaritalStatuses = map[string]bool{
	"Single": true, "Married": true, "Divorced": true, "Widowed": true,
}

// Validate checks a registration and returns every problem found, not
// just the first, so the front desk can fix the whole form at once.
func (p *Patient) Validate() []string {
	var errs []string

	if !regNoPattern.MatchString(p.RegNo) {
		errs = append(errs, "registration number must be exactly 11 digits")
	}
	if p.Surname == "" || !namePattern.MatchString(p.Surname) {
		errs = append(errs, "surname must contain only letters")
	}
	if p.FirstName == "" || !namePattern.MatchString(p.FirstName) {
		errs = append(errs, "first name must contain only letters")
	}
	if p.OtherName != "" && !namePattern.MatchString(p.OtherName) {
		errs = append(errs, "other name must contain only letters")
	}
	if !phonePattern.MatchString(p.Phone) {
		errs = append(errs, "phone number must be 10 to 15 digits")
	}
	if p.DOBDay < 1 || p.DOBDay > 31 {
		errs = append(errs, "day of birth must be between 1 and 31")
	}
	if p.DOBMonth < 1 || p.DOBMonth > 12 {
		errs = append(errs, "month of birth must be between 1 and 12")
	}
	if year := time.Now().Year(); p.DOBYear < 1900 || p.DOBYear > year {
		errs = append(errs, fmt.Sprintf("year of birth must be between 1900 and %d", year))
	}
	if !validSexes[p.Sex] {
		errs = append(errs, "sex must be Male or Female")
	}
	if !validMaritalStatuses[p.MaritalStatus] {
		errs = append(errs, "marital status must be Single, Married, Divorced or Widowed")
	}

	return errs
}
