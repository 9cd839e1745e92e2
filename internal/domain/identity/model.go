// Package identity holds the user accounts on both sides of the house:
// EMR staff (doctors, nurses, records clerks) and LIS staff (the lab
// admin and lab attendants), plus the doctor and attendant directories.
package identity

import (
	"errors"
	"time"
)

var (
	ErrNotFound           = errors.New("identity: not found")
	ErrInvalidCredentials = errors.New("identity: invalid credentials")
	ErrDuplicateUsername  = errors.New("identity: username already taken")
)

// EMRUser maps to the emr_users table.
type EMRUser struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// LISUser maps to the lis_users table.
type LISUser struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Doctor maps to the emr_doctors table. UserID links the directory
// entry to a login account when the doctor has one.
type Doctor struct {
	ID     int64  `db:"id" json:"id"`
	Name   string `db:"name" json:"name"`
	Email  string `db:"email" json:"email"`
	UserID *int64 `db:"user_id" json:"user_id,omitempty"`
}

// LabAttendant maps to the lab_attendants table. Every attendant has a
// LIS login; the row carries the display name shown on requisitions.
type LabAttendant struct {
	ID     int64  `db:"id" json:"id"`
	Name   string `db:"name" json:"name"`
	Email  string `db:"email" json:"email"`
	UserID int64  `db:"user_id" json:"user_id"`
}
