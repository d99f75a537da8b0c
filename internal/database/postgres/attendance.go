package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/kozaktomas/face-attendance/internal/database"
)

// AttendanceRepository provides PostgreSQL-backed attendance storage. The
// one-record-per-day guarantee is the UNIQUE (student_id, class_id, day)
// constraint, so it holds across processes, not just request handlers.
type AttendanceRepository struct {
	pool *Pool
}

// NewAttendanceRepository creates a new PostgreSQL attendance repository.
func NewAttendanceRepository(pool *Pool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

// Mark records presence for (student, class, day) with a conditional insert.
// A racing caller whose insert hits the unique constraint falls through to
// reading the winning row and reports AlreadyMarked.
func (r *AttendanceRepository) Mark(
	ctx context.Context, studentID, classID, day string, confidence float64,
) (database.MarkResult, error) {
	var record database.AttendanceRecord
	err := r.pool.QueryRow(ctx, `
		INSERT INTO attendance (id, student_id, class_id, day, present, confidence)
		VALUES ($1, $2, $3, $4, TRUE, $5)
		ON CONFLICT (student_id, class_id, day) DO NOTHING
		RETURNING id, student_id, class_id, to_char(day, 'YYYY-MM-DD'), present, confidence, marked_at
	`, uuid.NewString(), studentID, classID, day, confidence).Scan(
		&record.ID, &record.StudentID, &record.ClassID, &record.Day,
		&record.Present, &record.Confidence, &record.MarkedAt,
	)
	if err == nil {
		return database.MarkResult{AlreadyMarked: false, Record: record}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return database.MarkResult{}, fmt.Errorf("insert attendance: %w", err)
	}

	// Insert did nothing, so a record already exists for the day.
	existing, err := r.getRecord(ctx, studentID, classID, day)
	if err != nil {
		return database.MarkResult{}, err
	}
	if existing == nil {
		return database.MarkResult{}, fmt.Errorf("attendance record vanished for student %s on %s", studentID, day)
	}
	return database.MarkResult{AlreadyMarked: true, Record: *existing}, nil
}

// getRecord fetches the record for (student, class, day), nil if absent.
func (r *AttendanceRepository) getRecord(
	ctx context.Context, studentID, classID, day string,
) (*database.AttendanceRecord, error) {
	var record database.AttendanceRecord
	err := r.pool.QueryRow(ctx, `
		SELECT id, student_id, class_id, to_char(day, 'YYYY-MM-DD'), present, confidence, marked_at
		FROM attendance
		WHERE student_id = $1 AND class_id = $2 AND day = $3
	`, studentID, classID, day).Scan(
		&record.ID, &record.StudentID, &record.ClassID, &record.Day,
		&record.Present, &record.Confidence, &record.MarkedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query attendance record: %w", err)
	}
	return &record, nil
}

// Query returns every roster member of the class with their presence state
// for the day. Students never recognized that day come back present=false
// with no confidence.
func (r *AttendanceRepository) Query(ctx context.Context, classID, day string) ([]database.AttendanceEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.id, s.class_id, s.name, s.roll_number, s.enrolled, s.created_at,
		       a.present, a.confidence, a.marked_at
		FROM students s
		LEFT JOIN attendance a
		       ON a.student_id = s.id AND a.class_id = s.class_id AND a.day = $2
		WHERE s.class_id = $1
		ORDER BY s.roll_number
	`, classID, day)
	if err != nil {
		return nil, fmt.Errorf("query attendance: %w", err)
	}
	defer rows.Close()

	var entries []database.AttendanceEntry
	for rows.Next() {
		var entry database.AttendanceEntry
		var present sql.NullBool
		var confidence sql.NullFloat64
		var markedAt sql.NullTime
		if err := rows.Scan(
			&entry.Student.ID, &entry.Student.ClassID, &entry.Student.Name,
			&entry.Student.RollNumber, &entry.Student.Enrolled, &entry.Student.CreatedAt,
			&present, &confidence, &markedAt,
		); err != nil {
			return nil, fmt.Errorf("scan attendance entry: %w", err)
		}
		entry.Present = present.Valid && present.Bool
		if confidence.Valid {
			c := confidence.Float64
			entry.Confidence = &c
		}
		if markedAt.Valid {
			ts := markedAt.Time.UTC()
			entry.MarkedAt = &ts
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance entries: %w", err)
	}
	return entries, nil
}
