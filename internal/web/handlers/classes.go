package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kozaktomas/face-attendance/internal/database"
)

// ClassesHandler handles class registry endpoints.
type ClassesHandler struct {
	classes database.ClassStore
}

// NewClassesHandler creates a new classes handler.
func NewClassesHandler(classes database.ClassStore) *ClassesHandler {
	return &ClassesHandler{classes: classes}
}

// CreateClassRequest represents the request body for creating a class.
type CreateClassRequest struct {
	Name        string `json:"name"`
	Grade       string `json:"grade"`
	Section     string `json:"section"`
	TeacherName string `json:"teacher_name"`
}

// Create registers a new class.
func (h *ClassesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateClassRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	class := database.Class{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Grade:       req.Grade,
		Section:     req.Section,
		TeacherName: req.TeacherName,
	}
	if err := h.classes.CreateClass(r.Context(), class); err != nil {
		log.Printf("failed to create class %s: %v", sanitizeForLog(req.Name), err)
		respondError(w, http.StatusInternalServerError, "failed to create class")
		return
	}

	stored, err := h.classes.GetClass(r.Context(), class.ID)
	if err != nil || stored == nil {
		// The insert succeeded, fall back to what we wrote.
		stored = &class
	}
	respondJSON(w, http.StatusCreated, classToResponse(*stored))
}

// List returns all classes.
func (h *ClassesHandler) List(w http.ResponseWriter, r *http.Request) {
	classes, err := h.classes.ListClasses(r.Context())
	if err != nil {
		log.Printf("failed to list classes: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list classes")
		return
	}

	response := make([]ClassResponse, len(classes))
	for i, c := range classes {
		response[i] = classToResponse(c)
	}
	respondJSON(w, http.StatusOK, response)
}

// Get returns a single class by id.
func (h *ClassesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "id is required")
		return
	}

	class, err := h.classes.GetClass(r.Context(), id)
	if err != nil {
		log.Printf("failed to get class %s: %v", sanitizeForLog(id), err)
		respondError(w, http.StatusInternalServerError, "failed to get class")
		return
	}
	if class == nil {
		respondError(w, http.StatusNotFound, "class not found")
		return
	}

	respondJSON(w, http.StatusOK, classToResponse(*class))
}
