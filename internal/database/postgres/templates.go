package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

// TemplateRepository provides PostgreSQL-backed face template storage with a
// pgvector column for the template itself.
type TemplateRepository struct {
	pool *Pool
}

// NewTemplateRepository creates a new PostgreSQL template repository.
func NewTemplateRepository(pool *Pool) *TemplateRepository {
	return &TemplateRepository{pool: pool}
}

// SaveTemplate stores the template for a student, overwriting any previous
// one. Re-enrollment is an idempotent overwrite, never a merge.
func (r *TemplateRepository) SaveTemplate(ctx context.Context, tpl database.StoredTemplate) error {
	vec := pgvector.NewVector(tpl.Embedding)
	_, err := r.pool.Exec(ctx, `
		INSERT INTO face_templates (student_id, embedding, dim, model, box_width, box_height)
		VALUES ($1, $2::vector, $3, $4, $5, $6)
		ON CONFLICT (student_id) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			dim = EXCLUDED.dim,
			model = EXCLUDED.model,
			box_width = EXCLUDED.box_width,
			box_height = EXCLUDED.box_height,
			created_at = NOW()
	`, tpl.StudentID, vec, tpl.Dim, tpl.Model, tpl.BoxWidth, tpl.BoxHeight)
	if err != nil {
		return fmt.Errorf("upsert template: %w", err)
	}
	return nil
}

// GetTemplate retrieves a student's template, returns nil if not enrolled.
func (r *TemplateRepository) GetTemplate(ctx context.Context, studentID string) (*database.StoredTemplate, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT student_id, embedding, dim, model, box_width, box_height, created_at
		FROM face_templates
		WHERE student_id = $1
	`, studentID)

	tpl, err := scanTemplate(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return tpl, nil
}

// GetTemplatesByStudents retrieves templates for the given students. Students
// without a template are absent from the result.
func (r *TemplateRepository) GetTemplatesByStudents(ctx context.Context, studentIDs []string) ([]database.StoredTemplate, error) {
	if len(studentIDs) == 0 {
		return nil, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT student_id, embedding, dim, model, box_width, box_height, created_at
		FROM face_templates
		WHERE student_id = ANY($1)
		ORDER BY student_id
	`, pq.Array(studentIDs))
	if err != nil {
		return nil, fmt.Errorf("query templates: %w", err)
	}
	defer rows.Close()

	var templates []database.StoredTemplate
	for rows.Next() {
		tpl, err := scanTemplate(rows.Scan)
		if err != nil {
			return nil, err
		}
		templates = append(templates, *tpl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate templates: %w", err)
	}
	return templates, nil
}

// scanTemplate scans one face_templates row.
func scanTemplate(scan func(...any) error) (*database.StoredTemplate, error) {
	var tpl database.StoredTemplate
	var vec pgvector.Vector
	err := scan(&tpl.StudentID, &vec, &tpl.Dim, &tpl.Model, &tpl.BoxWidth, &tpl.BoxHeight, &tpl.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan template: %w", err)
	}
	tpl.Embedding = vec.Slice()
	return &tpl, nil
}
