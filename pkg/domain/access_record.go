package domain

import "time"

// AccessRecord binds an opaque gateway token to a verified upstream identity.
// One identity may own several records: every device registers independently.
type AccessRecord struct {
	Token      string
	PersonID   int64
	DeviceName string
	FullName   string
	GradeClass string
	CreatedAt  time.Time
}

// VerificationMetadata is the client-supplied context persisted with a
// successful verification.
type VerificationMetadata struct {
	DeviceName string
	FullName   string
	GradeClass string
}
