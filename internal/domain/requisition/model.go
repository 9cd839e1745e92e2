// Package requisition covers lab test requisitions: the LIS record
// opened when a sample reaches the bench. Each requisition snapshots
// its catalog names and carries the six digit sample id printed on the
// specimen label.
package requisition

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"
)

var (
	ErrNotFound        = errors.New("requisition: not found")
	ErrReference       = errors.New("requisition: broken reference")
	ErrDuplicateSample = errors.New("requisition: sample id already in use")
)

// Status is the requisition lifecycle state. The zero value is
// Archived so an accidentally unset status never masquerades as live
// work.
type Status int

const (
	StatusArchived  Status = 0
	StatusPending   Status = 1
	StatusPublished Status = 2
)

// Label is the display text shown on worklists and printouts.
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "Pending Results"
	case StatusPublished:
		return "Results Published"
	case StatusArchived:
		return "Archived"
	default:
		return "Unknown"
	}
}

func (s Status) Valid() bool {
	return s >= StatusArchived && s <= StatusPublished
}

// Requisition maps to the requisitions table. The catalog names are
// copied in at creation so the record stays readable after catalog
// edits, while the ids keep the live links.
type Requisition struct {
	ID             int64     `db:"id" json:"id"`
	SampleID       string    `db:"sample_id" json:"sample_id"`
	PatientReg     string    `db:"patient_reg" json:"patient_reg"`
	PatientName    string    `db:"patient_name" json:"patient_name"`
	RequestFormat  string    `db:"request_format" json:"request_format"`
	PhysicianID    *int64    `db:"physician_id" json:"physician_id,omitempty"`
	Physician      string    `db:"physician" json:"physician"`
	LabTestID      int64     `db:"lab_test_id" json:"lab_test_id"`
	TestName       string    `db:"test_name" json:"test_name"`
	CategoryName   string    `db:"category_name" json:"category_name"`
	SampleTypeName string    `db:"sample_type_name" json:"sample_type_name"`
	CollectedAt    time.Time `db:"collected_at" json:"collected_at"`
	Priority       string    `db:"priority" json:"priority"`
	ClinicalNotes  string    `db:"clinical_notes" json:"clinical_notes"`
	OfficerID      int64     `db:"officer_id" json:"officer_id"`
	OfficerRole    string    `db:"officer_role" json:"officer_role"`
	OrderID        *int64    `db:"order_id" json:"order_id,omitempty"`
	Status         Status    `db:"status" json:"status"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Detail is the requisition projection the bench detail view renders.
// Fields without data show "N/A" rather than an empty cell.
type Detail struct {
	ID             int64  `json:"id"`
	SampleID       string `json:"sample_id"`
	PatientReg     string `json:"patient_reg"`
	PatientName    string `json:"patient_name"`
	Physician      string `json:"physician"`
	RequestFormat  string `json:"request_format"`
	TestName       string `json:"test_name"`
	CategoryName   string `json:"category_name"`
	SampleTypeName string `json:"sample_type_name"`
	CollectedAt    string `json:"collected_at"`
	Priority       string `json:"priority"`
	ClinicalNotes  string `json:"clinical_notes"`
	OfficerName    string `json:"officer_name"`
	BiosafetyLevel int    `json:"biosafety_level"`
	StatusLabel    string `json:"status_label"`
	CreatedAt      string `json:"created_at"`
}

// CreateInput is what the bench submits to open a requisition.
type CreateInput struct {
	PatientReg    string `json:"patient_reg"`
	RequestFormat string `json:"request_format,omitempty"`
	PhysicianID   *int64 `json:"physician_id,omitempty"`
	LabTestID     int64  `json:"lab_test_id"`
	CategoryID    int64  `json:"category_id"`
	SampleTypeID  int64  `json:"sample_type_id"`
	CollectedAt   string `json:"collected_at,omitempty"`
	Priority      string `json:"priority,omitempty"`
	ClinicalNotes string `json:"clinical_notes,omitempty"`
	OrderID       *int64 `json:"order_id,omitempty"`
}

// CollectionTime parses the RFC 3339 collection timestamp, defaulting
// to the current time when the bench leaves it blank.
func (in *CreateInput) CollectionTime() (time.Time, error) {
	if in.CollectedAt == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, in.CollectedAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("collection time must be RFC 3339: %w", err)
	}
	return t, nil
}

func (in *CreateInput) Validate() error {
	if in.PatientReg == "" {
		return fmt.Errorf("patient registration number is required")
	}
	if in.LabTestID == 0 {
		return fmt.Errorf("lab test is required")
	}
	if in.CategoryID == 0 {
		return fmt.Errorf("test category is required")
	}
	if in.SampleTypeID == 0 {
		return fmt.Errorf("sample type is required")
	}
	return nil
}

var sampleIDRange = big.NewInt(900000)

// newSampleID draws a random six digit id (100000 to 999999). The
// column is UNIQUE, so collisions are caught on insert and retried.
func newSampleID() (string, error) {
	n, err := rand.Int(rand.Reader, sampleIDRange)
	if err != nil {
		return "", fmt.Errorf("generate sample id: %w", err)
	}
	return strconv.FormatInt(n.Int64()+100000, 10), nil
}

// orNA substitutes the placeholder the detail view shows for missing
// data.
func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
