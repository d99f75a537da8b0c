package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/faceid"
	"github.com/kozaktomas/face-attendance/internal/recognition"
)

// AttendanceHandler handles recognition capture and attendance reporting.
type AttendanceHandler struct {
	engine  Engine
	classes database.ClassStore
	ledger  database.AttendanceLedger
}

// NewAttendanceHandler creates a new attendance handler.
func NewAttendanceHandler(engine Engine, classes database.ClassStore, ledger database.AttendanceLedger) *AttendanceHandler {
	return &AttendanceHandler{engine: engine, classes: classes, ledger: ledger}
}

// MarkRequest represents a recognition capture. Date defaults to today when
// empty.
type MarkRequest struct {
	ClassID string `json:"class_id"`
	Date    string `json:"date"`
	Image   string `json:"image"`
}

// MarkResponse represents the outcome of a recognition capture. Recognized
// is true when a student was identified (freshly marked or already marked);
// student, confidence and marked_at are only present in that case.
type MarkResponse struct {
	Recognized    bool             `json:"recognized"`
	AlreadyMarked bool             `json:"already_marked"`
	Status        string           `json:"status"`
	Message       string           `json:"message"`
	Student       *StudentResponse `json:"student,omitempty"`
	Confidence    *float64         `json:"confidence,omitempty"`
	MarkedAt      string           `json:"marked_at,omitempty"`
}

// markMessage renders the capture outcome for API consumers.
func markMessage(result recognition.RecognizeResult) string {
	switch result.Status {
	case recognition.StatusMarked:
		return fmt.Sprintf("attendance marked for %s", result.Student.Name)
	case recognition.StatusAlreadyMarked:
		return fmt.Sprintf("%s is already marked present for this day", result.Student.Name)
	case recognition.StatusNoFace:
		return "no usable face found in the capture"
	case recognition.StatusNoMatch:
		return "no enrolled student matched with enough confidence"
	case recognition.StatusNoEnrolledStudents:
		return "no students in this class have enrolled faces"
	default:
		return string(result.Status)
	}
}

// Mark runs the recognition pipeline on a capture and records attendance for
// the recognized student.
func (h *AttendanceHandler) Mark(w http.ResponseWriter, r *http.Request) {
	var req MarkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.ClassID == "" {
		respondError(w, http.StatusBadRequest, "class_id is required")
		return
	}
	if req.Image == "" {
		respondError(w, http.StatusBadRequest, "image is required")
		return
	}
	if req.Date == "" {
		req.Date = time.Now().UTC().Format(time.DateOnly)
	}

	result, err := h.engine.Recognize(r.Context(), req.ClassID, req.Date, req.Image)
	if err != nil {
		switch {
		case errors.Is(err, recognition.ErrInvalidDay):
			respondError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		case errors.Is(err, recognition.ErrClassNotFound):
			respondError(w, http.StatusNotFound, "class not found")
		case errors.Is(err, faceid.ErrDecode):
			respondError(w, http.StatusBadRequest, "invalid image data")
		default:
			log.Printf("recognition failed for class %s: %v", sanitizeForLog(req.ClassID), err)
			respondError(w, http.StatusInternalServerError, "recognition failed")
		}
		return
	}

	response := MarkResponse{
		Recognized:    result.Status == recognition.StatusMarked || result.Status == recognition.StatusAlreadyMarked,
		AlreadyMarked: result.Status == recognition.StatusAlreadyMarked,
		Status:        string(result.Status),
		Message:       markMessage(result),
	}
	if result.Student != nil {
		student := studentToResponse(*result.Student)
		response.Student = &student
		confidence := result.Confidence
		response.Confidence = &confidence
	}
	if result.Record != nil {
		response.MarkedAt = result.Record.MarkedAt.UTC().Format(time.RFC3339)
	}
	respondJSON(w, http.StatusOK, response)
}

// AttendanceEntryResponse is one roster member's state in a report.
type AttendanceEntryResponse struct {
	Student    StudentResponse `json:"student"`
	Present    bool            `json:"present"`
	Confidence *float64        `json:"confidence,omitempty"`
	MarkedAt   string          `json:"marked_at,omitempty"`
}

// ReportResponse represents a full class attendance report for one day.
type ReportResponse struct {
	ClassID      string                    `json:"class_id"`
	Date         string                    `json:"date"`
	PresentCount int                       `json:"present_count"`
	TotalCount   int                       `json:"total_count"`
	Entries      []AttendanceEntryResponse `json:"entries"`
}

// Report returns the attendance of every roster member for one day.
func (h *AttendanceHandler) Report(w http.ResponseWriter, r *http.Request) {
	classID := chi.URLParam(r, "classID")
	date := chi.URLParam(r, "date")
	if classID == "" {
		respondError(w, http.StatusBadRequest, "class id is required")
		return
	}
	if !database.ValidDay(date) {
		respondError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
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

	entries, err := h.ledger.Query(r.Context(), classID, date)
	if err != nil {
		log.Printf("failed to query attendance for class %s on %s: %v",
			sanitizeForLog(classID), sanitizeForLog(date), err)
		respondError(w, http.StatusInternalServerError, "failed to query attendance")
		return
	}

	response := ReportResponse{
		ClassID: classID,
		Date:    date,
		Entries: make([]AttendanceEntryResponse, len(entries)),
	}
	for i, entry := range entries {
		item := AttendanceEntryResponse{
			Student:    studentToResponse(entry.Student),
			Present:    entry.Present,
			Confidence: entry.Confidence,
		}
		if entry.MarkedAt != nil {
			item.MarkedAt = entry.MarkedAt.UTC().Format(time.RFC3339)
		}
		if entry.Present {
			response.PresentCount++
		}
		response.Entries[i] = item
	}
	response.TotalCount = len(entries)

	respondJSON(w, http.StatusOK, response)
}
