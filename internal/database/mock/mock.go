// Package mock provides mock implementations of database interfaces for testing.
package mock

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kozaktomas/face-attendance/internal/database"
)

// MockClassStore is a mock implementation of database.ClassStore
type MockClassStore struct {
	mu      sync.RWMutex
	classes map[string]*database.Class

	// Error injection
	CreateClassError error
	GetClassError    error
	ListClassesError error
}

// NewMockClassStore creates a new mock class store
func NewMockClassStore() *MockClassStore {
	return &MockClassStore{
		classes: make(map[string]*database.Class),
	}
}

// AddClass adds a class to the mock store
func (m *MockClassStore) AddClass(class database.Class) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.classes[class.ID] = &class
}

// CreateClass persists a new class
func (m *MockClassStore) CreateClass(ctx context.Context, class database.Class) error {
	if m.CreateClassError != nil {
		return m.CreateClassError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.classes[class.ID]; exists {
		return fmt.Errorf("class %s already exists", class.ID)
	}
	m.classes[class.ID] = &class
	return nil
}

// GetClass retrieves a class by id, returns nil if not found
func (m *MockClassStore) GetClass(ctx context.Context, id string) (*database.Class, error) {
	if m.GetClassError != nil {
		return nil, m.GetClassError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.classes[id], nil
}

// ListClasses returns all classes ordered by name
func (m *MockClassStore) ListClasses(ctx context.Context) ([]database.Class, error) {
	if m.ListClassesError != nil {
		return nil, m.ListClassesError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []database.Class
	for _, c := range m.classes {
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].Section < result[j].Section
	})
	return result, nil
}

// MockStudentStore is a mock implementation of database.StudentStore
type MockStudentStore struct {
	mu       sync.RWMutex
	students map[string]*database.Student

	// Error injection
	CreateStudentError      error
	GetStudentError         error
	ListClassStudentsError  error
	SetStudentEnrolledError error
}

// NewMockStudentStore creates a new mock student store
func NewMockStudentStore() *MockStudentStore {
	return &MockStudentStore{
		students: make(map[string]*database.Student),
	}
}

// AddStudent adds a student to the mock store
func (m *MockStudentStore) AddStudent(student database.Student) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.students[student.ID] = &student
}

// CreateStudent persists a new student
func (m *MockStudentStore) CreateStudent(ctx context.Context, student database.Student) error {
	if m.CreateStudentError != nil {
		return m.CreateStudentError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.students {
		if s.ClassID == student.ClassID && s.RollNumber == student.RollNumber {
			return fmt.Errorf("roll number %s already taken in class %s", student.RollNumber, student.ClassID)
		}
	}
	m.students[student.ID] = &student
	return nil
}

// GetStudent retrieves a student by id, returns nil if not found
func (m *MockStudentStore) GetStudent(ctx context.Context, id string) (*database.Student, error) {
	if m.GetStudentError != nil {
		return nil, m.GetStudentError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.students[id], nil
}

// ListClassStudents returns every student of a class ordered by roll number
func (m *MockStudentStore) ListClassStudents(ctx context.Context, classID string) ([]database.Student, error) {
	if m.ListClassStudentsError != nil {
		return nil, m.ListClassStudentsError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []database.Student
	for _, s := range m.students {
		if s.ClassID == classID {
			result = append(result, *s)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].RollNumber < result[j].RollNumber
	})
	return result, nil
}

// SetStudentEnrolled updates the enrollment flag
func (m *MockStudentStore) SetStudentEnrolled(ctx context.Context, id string, enrolled bool) error {
	if m.SetStudentEnrolledError != nil {
		return m.SetStudentEnrolledError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	student, ok := m.students[id]
	if !ok {
		return fmt.Errorf("student %s not found", id)
	}
	student.Enrolled = enrolled
	return nil
}

// MockTemplateStore is a mock implementation of database.TemplateStore
type MockTemplateStore struct {
	mu        sync.RWMutex
	templates map[string]*database.StoredTemplate // keyed by StudentID

	// Track calls
	SaveTemplateCalls []database.StoredTemplate

	// Error injection
	SaveTemplateError           error
	GetTemplateError            error
	GetTemplatesByStudentsError error
}

// NewMockTemplateStore creates a new mock template store
func NewMockTemplateStore() *MockTemplateStore {
	return &MockTemplateStore{
		templates: make(map[string]*database.StoredTemplate),
	}
}

// AddTemplate adds a template to the mock store
func (m *MockTemplateStore) AddTemplate(tpl database.StoredTemplate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.templates[tpl.StudentID] = &tpl
}

// SaveTemplate stores the template for a student, overwriting any previous one
func (m *MockTemplateStore) SaveTemplate(ctx context.Context, tpl database.StoredTemplate) error {
	if m.SaveTemplateError != nil {
		return m.SaveTemplateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveTemplateCalls = append(m.SaveTemplateCalls, tpl)
	m.templates[tpl.StudentID] = &tpl
	return nil
}

// GetTemplate retrieves a student's template, returns nil if not enrolled
func (m *MockTemplateStore) GetTemplate(ctx context.Context, studentID string) (*database.StoredTemplate, error) {
	if m.GetTemplateError != nil {
		return nil, m.GetTemplateError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.templates[studentID], nil
}

// GetTemplatesByStudents retrieves templates for the given students
func (m *MockTemplateStore) GetTemplatesByStudents(ctx context.Context, studentIDs []string) ([]database.StoredTemplate, error) {
	if m.GetTemplatesByStudentsError != nil {
		return nil, m.GetTemplatesByStudentsError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []database.StoredTemplate
	for _, id := range studentIDs {
		if tpl, ok := m.templates[id]; ok {
			result = append(result, *tpl)
		}
	}
	return result, nil
}

// MockAttendanceLedger is a mock implementation of database.AttendanceLedger.
// Mark holds the write lock across check and insert so concurrent callers see
// the same single-record-per-day behavior the real ledger enforces.
type MockAttendanceLedger struct {
	mu       sync.RWMutex
	records  map[string]*database.AttendanceRecord // keyed by student|class|day
	students *MockStudentStore

	recordCounter int

	// Error injection
	MarkError  error
	QueryError error
}

// NewMockAttendanceLedger creates a new mock attendance ledger. The student
// store backs roster queries the same way the LEFT JOIN does in PostgreSQL.
func NewMockAttendanceLedger(students *MockStudentStore) *MockAttendanceLedger {
	return &MockAttendanceLedger{
		records:  make(map[string]*database.AttendanceRecord),
		students: students,
	}
}

func ledgerKey(studentID, classID, day string) string {
	return studentID + "|" + classID + "|" + day
}

// Mark records presence for (student, class, day) if no record exists yet
func (m *MockAttendanceLedger) Mark(ctx context.Context, studentID, classID, day string, confidence float64) (database.MarkResult, error) {
	if m.MarkError != nil {
		return database.MarkResult{}, m.MarkError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := ledgerKey(studentID, classID, day)
	if existing, ok := m.records[key]; ok {
		return database.MarkResult{AlreadyMarked: true, Record: *existing}, nil
	}

	m.recordCounter++
	record := database.AttendanceRecord{
		ID:         fmt.Sprintf("record-%d", m.recordCounter),
		StudentID:  studentID,
		ClassID:    classID,
		Day:        day,
		Present:    true,
		Confidence: confidence,
		MarkedAt:   time.Now().UTC(),
	}
	m.records[key] = &record
	return database.MarkResult{AlreadyMarked: false, Record: record}, nil
}

// Query returns every roster member of the class with their presence state
func (m *MockAttendanceLedger) Query(ctx context.Context, classID, day string) ([]database.AttendanceEntry, error) {
	if m.QueryError != nil {
		return nil, m.QueryError
	}

	students, err := m.students.ListClassStudents(ctx, classID)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var entries []database.AttendanceEntry
	for _, student := range students {
		entry := database.AttendanceEntry{Student: student}
		if record, ok := m.records[ledgerKey(student.ID, classID, day)]; ok {
			entry.Present = record.Present
			c := record.Confidence
			entry.Confidence = &c
			ts := record.MarkedAt
			entry.MarkedAt = &ts
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Verify interface compliance
var _ database.ClassStore = (*MockClassStore)(nil)
var _ database.StudentStore = (*MockStudentStore)(nil)
var _ database.TemplateStore = (*MockTemplateStore)(nil)
var _ database.AttendanceLedger = (*MockAttendanceLedger)(nil)
