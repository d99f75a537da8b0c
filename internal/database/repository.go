package database

import (
	"context"
)

// ClassStore provides access to the class registry.
type ClassStore interface {
	// CreateClass persists a new class.
	CreateClass(ctx context.Context, class Class) error
	// GetClass retrieves a class by id, returns nil if not found.
	GetClass(ctx context.Context, id string) (*Class, error)
	// ListClasses returns all classes ordered by name.
	ListClasses(ctx context.Context) ([]Class, error)
}

// StudentStore provides access to the student registry.
type StudentStore interface {
	// CreateStudent persists a new student. The (class, roll number) pair
	// must be unique.
	CreateStudent(ctx context.Context, student Student) error
	// GetStudent retrieves a student by id, returns nil if not found.
	GetStudent(ctx context.Context, id string) (*Student, error)
	// ListClassStudents returns every student of a class ordered by roll number.
	ListClassStudents(ctx context.Context, classID string) ([]Student, error)
	// SetStudentEnrolled updates the enrollment flag.
	SetStudentEnrolled(ctx context.Context, id string, enrolled bool) error
}

// TemplateStore persists one face template per enrolled student.
type TemplateStore interface {
	// SaveTemplate stores the template for a student, overwriting any
	// previous one.
	SaveTemplate(ctx context.Context, tpl StoredTemplate) error
	// GetTemplate retrieves a student's template, returns nil if not enrolled.
	GetTemplate(ctx context.Context, studentID string) (*StoredTemplate, error)
	// GetTemplatesByStudents retrieves the templates for the given students.
	// Students without a template are simply absent from the result.
	GetTemplatesByStudents(ctx context.Context, studentIDs []string) ([]StoredTemplate, error)
}

// AttendanceLedger is the durable record of daily attendance decisions.
type AttendanceLedger interface {
	// Mark records presence for (student, class, day) if no record exists
	// yet. The existence check and the write are atomic: under concurrent
	// invocation exactly one caller creates the record and every other
	// caller observes AlreadyMarked with the stored confidence.
	Mark(ctx context.Context, studentID, classID, day string, confidence float64) (MarkResult, error)
	// Query returns every roster member of the class with their presence
	// state for the day.
	Query(ctx context.Context, classID, day string) ([]AttendanceEntry, error)
}
