package enums

import "fmt"

// EnrollmentStatus maps to the enrollment_status enum in Postgres.
type EnrollmentStatus string

const (
	EnrollmentStatusActive   EnrollmentStatus = "active"
	EnrollmentStatusCanceled EnrollmentStatus = "canceled"
)

var validEnrollmentStatuses = []EnrollmentStatus{
	EnrollmentStatusActive,
	EnrollmentStatusCanceled,
}

// String implements fmt.Stringer.
func (s EnrollmentStatus) String() string {
	return string(s)
}

// IsValid reports whether the value matches the canonical enrollment_status enum.
func (s EnrollmentStatus) IsValid() bool {
	for _, candidate := range validEnrollmentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseEnrollmentStatus converts raw input into an EnrollmentStatus.
func ParseEnrollmentStatus(value string) (EnrollmentStatus, error) {
	for _, candidate := range validEnrollmentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid enrollment status %q", value)
}

// EnrollmentSource records which path granted the enrollment.
type EnrollmentSource string

const (
	EnrollmentSourceCheckout EnrollmentSource = "checkout"
	EnrollmentSourceAdmin    EnrollmentSource = "admin"
)

func (s EnrollmentSource) String() string {
	return string(s)
}

func (s EnrollmentSource) IsValid() bool {
	return s == EnrollmentSourceCheckout || s == EnrollmentSourceAdmin
}
