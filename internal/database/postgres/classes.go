package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kozaktomas/face-attendance/internal/database"
)

// ClassRepository provides PostgreSQL-backed class storage.
type ClassRepository struct {
	pool *Pool
}

// NewClassRepository creates a new PostgreSQL class repository.
func NewClassRepository(pool *Pool) *ClassRepository {
	return &ClassRepository{pool: pool}
}

// CreateClass persists a new class.
func (r *ClassRepository) CreateClass(ctx context.Context, class database.Class) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO classes (id, name, grade, section, teacher_name)
		VALUES ($1, $2, $3, $4, $5)
	`, class.ID, class.Name, class.Grade, class.Section, class.TeacherName)
	if err != nil {
		return fmt.Errorf("insert class: %w", err)
	}
	return nil
}

// GetClass retrieves a class by id, returns nil if not found.
func (r *ClassRepository) GetClass(ctx context.Context, id string) (*database.Class, error) {
	var class database.Class
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, grade, section, teacher_name, created_at
		FROM classes
		WHERE id = $1
	`, id).Scan(&class.ID, &class.Name, &class.Grade, &class.Section, &class.TeacherName, &class.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query class: %w", err)
	}
	return &class, nil
}

// ListClasses returns all classes ordered by name.
func (r *ClassRepository) ListClasses(ctx context.Context) ([]database.Class, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, grade, section, teacher_name, created_at
		FROM classes
		ORDER BY name, section
	`)
	if err != nil {
		return nil, fmt.Errorf("query classes: %w", err)
	}
	defer rows.Close()

	var classes []database.Class
	for rows.Next() {
		var class database.Class
		if err := rows.Scan(&class.ID, &class.Name, &class.Grade, &class.Section,
			&class.TeacherName, &class.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan class: %w", err)
		}
		classes = append(classes, class)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate classes: %w", err)
	}
	return classes, nil
}
