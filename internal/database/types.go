package database

import (
	"time"
)

// Class is a taught class; students belong to exactly one class.
type Class struct {
	ID          string
	Name        string
	Grade       string
	Section     string
	TeacherName string
	CreatedAt   time.Time
}

// Student is a roster member. Enrolled flips to true once a face template has
// been stored for the student.
type Student struct {
	ID         string
	ClassID    string
	Name       string
	RollNumber string
	Enrolled   bool
	CreatedAt  time.Time
}

// StoredTemplate is the persisted face template for one student, replaced
// wholesale on re-enrollment. Model and Dim identify the extraction scheme so
// templates from an incompatible scheme are never compared.
type StoredTemplate struct {
	StudentID string
	Embedding []float32
	Dim       int
	Model     string
	BoxWidth  int
	BoxHeight int
	CreatedAt time.Time
}

// AttendanceRecord is one presence decision. At most one record exists per
// (student, class, day); it is immutable for the rest of that day.
type AttendanceRecord struct {
	ID         string
	StudentID  string
	ClassID    string
	Day        string // YYYY-MM-DD
	Present    bool
	Confidence float64
	MarkedAt   time.Time
}

// MarkResult reports the outcome of a ledger mark. When AlreadyMarked is
// true, Record is the pre-existing record and carries its original
// confidence.
type MarkResult struct {
	AlreadyMarked bool
	Record        AttendanceRecord
}

// AttendanceEntry is one roster member's state for a reporting query.
// Confidence and MarkedAt are nil for students never recognized that day.
type AttendanceEntry struct {
	Student    Student
	Present    bool
	Confidence *float64
	MarkedAt   *time.Time
}

// ValidDay reports whether day is a calendar date in YYYY-MM-DD form.
func ValidDay(day string) bool {
	_, err := time.Parse(time.DateOnly, day)
	return err == nil
}
