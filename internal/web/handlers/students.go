package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kozaktomas/face-attendance/internal/database"
)

// StudentsHandler handles student registry endpoints.
type StudentsHandler struct {
	classes  database.ClassStore
	students database.StudentStore
}

// NewStudentsHandler creates a new students handler.
func NewStudentsHandler(classes database.ClassStore, students database.StudentStore) *StudentsHandler {
	return &StudentsHandler{classes: classes, students: students}
}

// CreateStudentRequest represents the request body for adding a student to a
// class roster.
type CreateStudentRequest struct {
	Name       string `json:"name"`
	RollNumber string `json:"roll_number"`
}

// Create adds a student to the class roster.
func (h *StudentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	classID := chi.URLParam(r, "id")
	if classID == "" {
		respondError(w, http.StatusBadRequest, "class id is required")
		return
	}

	var req CreateStudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.RollNumber == "" {
		respondError(w, http.StatusBadRequest, "roll_number is required")
		return
	}

	class, err := h.classes.GetClass(r.Context(), classID)
	if err != nil {
		log.Printf("failed to get class %s: %v", sanitizeForLog(classID), err)
		respondError(w, http.StatusInternalServerError, "failed to get class")
		return
	}
	if class == nil {
		respondError(w, http.StatusNotFound, "class not found")
		return
	}

	student := database.Student{
		ID:         uuid.NewString(),
		ClassID:    classID,
		Name:       req.Name,
		RollNumber: req.RollNumber,
	}
	if err := h.students.CreateStudent(r.Context(), student); err != nil {
		// Most likely a duplicate roll number within the class.
		log.Printf("failed to create student %s in class %s: %v",
			sanitizeForLog(req.Name), sanitizeForLog(classID), err)
		respondError(w, http.StatusConflict, "failed to create student, roll number may already be taken")
		return
	}

	respondJSON(w, http.StatusCreated, studentToResponse(student))
}

// List returns the roster of a class ordered by roll number.
func (h *StudentsHandler) List(w http.ResponseWriter, r *http.Request) {
	classID := chi.URLParam(r, "id")
	if classID == "" {
		respondError(w, http.StatusBadRequest, "class id is required")
		return
	}

	class, err := h.classes.GetClass(r.Context(), classID)
	if err != nil {
		log.Printf("failed to get class %s: %v", sanitizeForLog(classID), err)
		respondError(w, http.StatusInternalServerError, "failed to get class")
		return
	}
	if class == nil {
		respondError(w, http.StatusNotFound, "class not found")
		return
	}

	students, err := h.students.ListClassStudents(r.Context(), classID)
	if err != nil {
		log.Printf("failed to list students of class %s: %v", sanitizeForLog(classID), err)
		respondError(w, http.StatusInternalServerError, "failed to list students")
		return
	}

	response := make([]StudentResponse, len(students))
	for i, s := range students {
		response[i] = studentToResponse(s)
	}
	respondJSON(w, http.StatusOK, response)
}
