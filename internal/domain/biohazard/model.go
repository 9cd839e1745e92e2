// Package biohazard tracks exposure and spill incidents reported on
// the lab floor.
package biohazard

import (
	"errors"
	"fmt"
	"time"
)

var ErrNotFound = errors.New("biohazard: not found")

// Severity grades an incident.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityModerate, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Incident maps to the biohazard_incidents table. SampleID optionally
// ties the incident to the specimen involved.
type Incident struct {
	ID          int64      `db:"id" json:"id"`
	Description string     `db:"description" json:"description"`
	Location    string     `db:"location" json:"location"`
	Severity    Severity   `db:"severity" json:"severity"`
	SampleID    string     `db:"sample_id" json:"sample_id,omitempty"`
	ReportedBy  int64      `db:"reported_by" json:"reported_by"`
	Resolved    bool       `db:"resolved" json:"resolved"`
	ResolvedAt  *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

func (i *Incident) Validate() error {
	if i.Description == "" {
		return fmt.Errorf("description is required")
	}
	if i.Location == "" {
		return fmt.Errorf("location is required")
	}
	if !i.Severity.Valid() {
		return fmt.Errorf("severity must be low, moderate, high or critical")
	}
	return nil
}
