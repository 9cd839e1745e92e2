// Package catalog holds the laboratory test catalog: test categories,
// sample types, the tests themselves with their measured parameters,
// and reusable result comment templates.
package catalog

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("catalog: not found")

// TestCategory groups lab tests, e.g. Haematology or Microbiology.
type TestCategory struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// SampleType is the specimen kind a test is run on, e.g. Whole Blood.
type SampleType struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// LabTest is a billable catalog entry. BiosafetyLevel (1 to 4) drives
// the handling banner shown on requisitions.
type LabTest struct {
	ID             int64   `db:"id" json:"id"`
	Name           string  `db:"name" json:"name"`
	CategoryID     int64   `db:"category_id" json:"category_id"`
	BiosafetyLevel int     `db:"biosafety_level" json:"biosafety_level"`
	Price          float64 `db:"price" json:"price"`
	TurnaroundHrs  int     `db:"turnaround_hrs" json:"turnaround_hrs"`
}

// Unit is a measurement unit parameters report in. ConversionFactor
// converts a reading into the base unit, so mg/dL with base g/L and
// factor 0.01 reads back as grams per litre.
type Unit struct {
	ID               int64   `db:"id" json:"id"`
	Name             string  `db:"name" json:"name"`
	BaseUnit         string  `db:"base_unit" json:"base_unit"`
	ConversionFactor float64 `db:"conversion_factor" json:"conversion_factor"`
}

// Parameter is one measured value of a lab test, with its unit and
// reference range. The unit fields are resolved from the units table
// on read.
type Parameter struct {
	ID               int64   `db:"id" json:"id"`
	LabTestID        int64   `db:"lab_test_id" json:"lab_test_id"`
	Name             string  `db:"name" json:"name"`
	UnitID           *int64  `db:"unit_id" json:"unit_id,omitempty"`
	Unit             string  `db:"unit" json:"unit"`
	BaseUnit         string  `db:"base_unit" json:"base_unit"`
	ConversionFactor float64 `db:"conversion_factor" json:"conversion_factor"`
	RefRange         string  `db:"ref_range" json:"ref_range"`
}

// CommentTemplate is boilerplate attendants can drop into result
// comments.
type CommentTemplate struct {
	ID   int64  `db:"id" json:"id"`
	Text string `db:"text" json:"text"`
}

func (c *TestCategory) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("category name is required")
	}
	return nil
}

func (s *SampleType) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("sample type name is required")
	}
	return nil
}

func (t *LabTest) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("test name is required")
	}
	if t.CategoryID == 0 {
		return fmt.Errorf("category is required")
	}
	if t.BiosafetyLevel < 1 || t.BiosafetyLevel > 4 {
		return fmt.Errorf("biosafety level must be between 1 and 4")
	}
	if t.Price < 0 {
		return fmt.Errorf("price cannot be negative")
	}
	return nil
}

func (p *Parameter) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("parameter name is required")
	}
	if p.LabTestID == 0 {
		return fmt.Errorf("lab test is required")
	}
	return nil
}

func (u *Unit) Validate() error {
	if u.Name == "" {
		return fmt.Errorf("unit name is required")
	}
	if u.ConversionFactor <= 0 {
		return fmt.Errorf("conversion factor must be positive")
	}
	return nil
}
