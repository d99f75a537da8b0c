package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/face-attendance/internal/faceid"
	"github.com/kozaktomas/face-attendance/internal/recognition"
)

// EnrollHandler handles face enrollment endpoints.
type EnrollHandler struct {
	engine Engine
}

// NewEnrollHandler creates a new enrollment handler.
func NewEnrollHandler(engine Engine) *EnrollHandler {
	return &EnrollHandler{engine: engine}
}

// EnrollRequest represents the request body for enrolling a student's face.
// Image is base64 encoded, with or without a data URL prefix.
type EnrollRequest struct {
	Image string `json:"image"`
}

// EnrollResponse represents a successful enrollment.
type EnrollResponse struct {
	Enrolled  bool            `json:"enrolled"`
	Message   string          `json:"message"`
	Student   StudentResponse `json:"student"`
	BoxWidth  int             `json:"box_width"`
	BoxHeight int             `json:"box_height"`
	Dim       int             `json:"dim"`
}

// Enroll extracts a face template from the uploaded photo and stores it for
// the student. Re-enrollment overwrites the previous template.
func (h *EnrollHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "id")
	if studentID == "" {
		respondError(w, http.StatusBadRequest, "student id is required")
		return
	}

	var req EnrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.Image == "" {
		respondError(w, http.StatusBadRequest, "image is required")
		return
	}

	result, err := h.engine.Enroll(r.Context(), studentID, req.Image)
	if err != nil {
		switch {
		case errors.Is(err, recognition.ErrStudentNotFound):
			respondError(w, http.StatusNotFound, "student not found")
		case errors.Is(err, faceid.ErrDecode):
			respondError(w, http.StatusBadRequest, "invalid image data")
		case errors.Is(err, faceid.ErrNoFace):
			respondError(w, http.StatusUnprocessableEntity, "no face detected in the enrollment photo")
		case errors.Is(err, faceid.ErrUnusableRegion):
			respondError(w, http.StatusUnprocessableEntity, "detected face region is unusable")
		default:
			log.Printf("enrollment failed for student %s: %v", sanitizeForLog(studentID), err)
			respondError(w, http.StatusInternalServerError, "enrollment failed")
		}
		return
	}

	respondJSON(w, http.StatusOK, EnrollResponse{
		Enrolled:  true,
		Message:   fmt.Sprintf("face enrolled for %s", result.Student.Name),
		Student:   studentToResponse(result.Student),
		BoxWidth:  result.BoxWidth,
		BoxHeight: result.BoxHeight,
		Dim:       result.Dim,
	})
}
