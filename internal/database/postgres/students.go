package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kozaktomas/face-attendance/internal/database"
)

// StudentRepository provides PostgreSQL-backed student storage.
type StudentRepository struct {
	pool *Pool
}

// NewStudentRepository creates a new PostgreSQL student repository.
func NewStudentRepository(pool *Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

// CreateStudent persists a new student. The (class_id, roll_number) unique
// constraint rejects duplicate roll numbers within a class.
func (r *StudentRepository) CreateStudent(ctx context.Context, student database.Student) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO students (id, class_id, name, roll_number, enrolled)
		VALUES ($1, $2, $3, $4, $5)
	`, student.ID, student.ClassID, student.Name, student.RollNumber, student.Enrolled)
	if err != nil {
		return fmt.Errorf("insert student: %w", err)
	}
	return nil
}

// GetStudent retrieves a student by id, returns nil if not found.
func (r *StudentRepository) GetStudent(ctx context.Context, id string) (*database.Student, error) {
	var student database.Student
	err := r.pool.QueryRow(ctx, `
		SELECT id, class_id, name, roll_number, enrolled, created_at
		FROM students
		WHERE id = $1
	`, id).Scan(&student.ID, &student.ClassID, &student.Name,
		&student.RollNumber, &student.Enrolled, &student.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query student: %w", err)
	}
	return &student, nil
}

// ListClassStudents returns every student of a class ordered by roll number.
func (r *StudentRepository) ListClassStudents(ctx context.Context, classID string) ([]database.Student, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, class_id, name, roll_number, enrolled, created_at
		FROM students
		WHERE class_id = $1
		ORDER BY roll_number
	`, classID)
	if err != nil {
		return nil, fmt.Errorf("query class students: %w", err)
	}
	defer rows.Close()

	var students []database.Student
	for rows.Next() {
		var student database.Student
		if err := rows.Scan(&student.ID, &student.ClassID, &student.Name,
			&student.RollNumber, &student.Enrolled, &student.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		students = append(students, student)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate students: %w", err)
	}
	return students, nil
}

// SetStudentEnrolled updates the enrollment flag.
func (r *StudentRepository) SetStudentEnrolled(ctx context.Context, id string, enrolled bool) error {
	result, err := r.pool.Exec(ctx, "UPDATE students SET enrolled = $2 WHERE id = $1", id, enrolled)
	if err != nil {
		return fmt.Errorf("update enrollment flag: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("enrollment rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("student %s not found", id)
	}
	return nil
}
