// Package result covers lab result entry and publication. A
// requisition holds at most one result row; submitting again replaces
// the measured values and appends to the comment trail.
package result

import (
	"errors"
	"fmt"
	"time"
)

var ErrNotFound = errors.New("result: not found")

// ValueEntry is one measured value, keyed by the catalog parameter it
// answers. New catalog parameters added after entry simply show up
// blank.
type ValueEntry struct {
	ParameterID int64  `json:"parameter_id"`
	Value       string `json:"value"`
}

// Comment is one remark on a result. Ids are sequential within the
// requisition and never reused, so a deleted comment's id stays dead.
type Comment struct {
	ID        int64     `json:"id"`
	Text      string    `json:"comment"`
	CreatedAt time.Time `json:"time"`
}

// LabResult maps to the lab_results table. Values and comments are
// both stored as JSONB.
type LabResult struct {
	ID            int64        `db:"id" json:"id"`
	RequisitionID int64        `db:"requisition_id" json:"requisition_id"`
	Values        []ValueEntry `db:"values" json:"values"`
	Comments      []Comment    `db:"comments" json:"comments"`
	EnteredBy     int64        `db:"entered_by" json:"entered_by"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at" json:"updated_at"`
}

// SubmitInput is what the bench posts from the result entry form.
// Comments are bare text; the service assigns ids and timestamps.
type SubmitInput struct {
	RequisitionID int64        `json:"requisition_id"`
	Values        []ValueEntry `json:"values"`
	Comments      []string     `json:"comments"`
	Publish       bool         `json:"publish"`
}

func (in *SubmitInput) Validate() error {
	if in.RequisitionID == 0 {
		return fmt.Errorf("requisition is required")
	}
	if len(in.Values) == 0 && len(in.Comments) == 0 {
		return fmt.Errorf("a result value or comment is required")
	}
	seen := make(map[int64]bool, len(in.Values))
	for _, v := range in.Values {
		if v.ParameterID == 0 {
			return fmt.Errorf("every value needs a parameter")
		}
		if seen[v.ParameterID] {
			return fmt.Errorf("duplicate value for parameter %d", v.ParameterID)
		}
		seen[v.ParameterID] = true
	}
	return nil
}

// ParameterValue is a catalog parameter overlaid with its entered
// value, in catalog order. Parameters without a value render blank.
type ParameterValue struct {
	ParameterID      int64   `json:"parameter_id"`
	Name             string  `json:"name"`
	Unit             string  `json:"unit"`
	BaseUnit         string  `json:"base_unit,omitempty"`
	ConversionFactor float64 `json:"conversion_factor,omitempty"`
	RefRange         string  `json:"ref_range"`
	Value            string  `json:"value"`
}

// Printout is the report payload handed to the PDF renderer on the
// client.
type Printout struct {
	SampleID       string           `json:"sample_id"`
	PatientReg     string           `json:"patient_reg"`
	PatientName    string           `json:"patient_name"`
	TestName       string           `json:"test_name"`
	CategoryName   string           `json:"category_name"`
	SampleTypeName string           `json:"sample_type_name"`
	Physician      string           `json:"physician"`
	StatusLabel    string           `json:"status_label"`
	RequestedAt    string           `json:"requested_at"`
	Parameters     []ParameterValue `json:"parameters"`
	Comments       []Comment        `json:"comments"`
	PublishedAt    string           `json:"published_at,omitempty"`
}
