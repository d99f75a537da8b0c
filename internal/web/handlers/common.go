// Package handlers implements the HTTP endpoints of the attendance API.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/recognition"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

// Engine is the recognition pipeline the handlers delegate to.
type Engine interface {
	Enroll(ctx context.Context, studentID, imageB64 string) (recognition.EnrollResult, error)
	Recognize(ctx context.Context, classID, day, imageB64 string) (recognition.RecognizeResult, error)
}

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// ClassResponse represents a class in API responses.
type ClassResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Grade       string `json:"grade"`
	Section     string `json:"section"`
	TeacherName string `json:"teacher_name"`
	CreatedAt   string `json:"created_at"`
}

func classToResponse(c database.Class) ClassResponse {
	return ClassResponse{
		ID:          c.ID,
		Name:        c.Name,
		Grade:       c.Grade,
		Section:     c.Section,
		TeacherName: c.TeacherName,
		CreatedAt:   c.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// StudentResponse represents a student in API responses.
type StudentResponse struct {
	ID         string `json:"id"`
	ClassID    string `json:"class_id"`
	Name       string `json:"name"`
	RollNumber string `json:"roll_number"`
	Enrolled   bool   `json:"enrolled"`
	CreatedAt  string `json:"created_at"`
}

func studentToResponse(s database.Student) StudentResponse {
	return StudentResponse{
		ID:         s.ID,
		ClassID:    s.ClassID,
		Name:       s.Name,
		RollNumber: s.RollNumber,
		Enrolled:   s.Enrolled,
		CreatedAt:  s.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
