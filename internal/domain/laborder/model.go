// Package laborder covers lab test orders raised on the EMR side. An
// order tracks a requested test from the doctor's desk to the published
// result, and is the bridge the LIS links its requisitions back to.
package laborder

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound        = errors.New("laborder: not found")
	ErrStateTransition = errors.New("laborder: invalid status transition")
)

// Status is the lifecycle state of a lab order.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusReceived   Status = "received"
	StatusPublished  Status = "published"
)

// transitions lists the statuses each status may move to. Published is
// terminal.
var transitions = map[Status][]Status{
	StatusPending:    {StatusReceived, StatusProcessing},
	StatusReceived:   {StatusProcessing, StatusPublished},
	StatusProcessing: {StatusPublished},
	StatusPublished:  {},
}

// CanTransition reports whether moving from s to next is allowed.
func (s Status) CanTransition(next Status) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// LabOrder maps to the lab_orders table. TestName is snapshotted from
// the catalog at creation so the order reads the same even if the
// catalog entry is later renamed.
type LabOrder struct {
	ID            int64     `db:"id" json:"id"`
	PatientReg    string    `db:"patient_reg" json:"patient_reg"`
	LabTestID     int64     `db:"lab_test_id" json:"lab_test_id"`
	TestName      string    `db:"test_name" json:"test_name"`
	OrderedBy     string    `db:"ordered_by" json:"ordered_by"`
	ClinicalNote  string    `db:"clinical_note" json:"clinical_note,omitempty"`
	Status        Status    `db:"status" json:"status"`
	RequisitionID *int64    `db:"requisition_id" json:"requisition_id,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// OrderView is the joined listing the lab work queue shows, with the
// patient's name pulled from the EMR.
type OrderView struct {
	LabOrder
	PatientName string `json:"patient_name"`
}

func (o *LabOrder) Validate() error {
	if o.PatientReg == "" {
		return fmt.Errorf("patient registration number is required")
	}
	if o.LabTestID == 0 {
		return fmt.Errorf("lab test is required")
	}
	if o.OrderedBy == "" {
		return fmt.Errorf("ordering doctor is required")
	}
	return nil
}
