// Package recognition orchestrates the face pipeline: decode, detect, crop,
// extract, match, and record the attendance decision.
package recognition

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/faceid"
)

// Lookup failures the web layer maps to 404s.
var (
	ErrClassNotFound   = errors.New("class not found")
	ErrStudentNotFound = errors.New("student not found")
	ErrInvalidDay      = errors.New("invalid date, expected YYYY-MM-DD")
)

// Status classifies a recognition outcome. Everything here is an expected
// result of pointing a camera at a classroom, not a failure.
type Status string

const (
	// StatusMarked means a student was recognized and a new attendance
	// record was written.
	StatusMarked Status = "marked"
	// StatusAlreadyMarked means the recognized student already had a record
	// for the day; the stored record is returned untouched.
	StatusAlreadyMarked Status = "already_marked"
	// StatusNoFace means no usable face was found in the image.
	StatusNoFace Status = "no_face"
	// StatusNoMatch means a face was found but nobody on the roster cleared
	// the confidence threshold, or the top candidates tied.
	StatusNoMatch Status = "no_confident_match"
	// StatusNoEnrolledStudents means the class roster has no face templates
	// to match against.
	StatusNoEnrolledStudents Status = "no_enrolled_students"
)

// EnrollResult describes a stored face template.
type EnrollResult struct {
	Student   database.Student
	BoxWidth  int
	BoxHeight int
	Dim       int
}

// RecognizeResult is the outcome of one recognition attempt. Student, Record
// and Confidence are only set when a student was recognized.
type RecognizeResult struct {
	Status     Status
	Student    *database.Student
	Confidence float64
	Record     *database.AttendanceRecord
}

// Stores bundles the persistence interfaces the engine needs.
type Stores struct {
	Classes   database.ClassStore
	Students  database.StudentStore
	Templates database.TemplateStore
	Ledger    database.AttendanceLedger
}

// Engine runs the recognition pipeline. It is stateless between calls and
// safe for concurrent use; the single-record-per-day guarantee lives in the
// ledger, not here.
type Engine struct {
	detector  faceid.Detector
	cropper   *faceid.Cropper
	extractor faceid.Extractor
	stores    Stores
	threshold float64
	logger    *log.Logger
}

// NewEngine creates a recognition engine. Threshold is the minimum confidence
// to accept a match; values at or above it are accepted.
func NewEngine(detector faceid.Detector, cropper *faceid.Cropper, extractor faceid.Extractor, stores Stores, threshold float64, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{
		detector:  detector,
		cropper:   cropper,
		extractor: extractor,
		stores:    stores,
		threshold: threshold,
		logger:    logger,
	}
}

// Threshold returns the configured acceptance threshold.
func (e *Engine) Threshold() float64 {
	return e.threshold
}

// Enroll extracts a face template from the image and stores it for the
// student, overwriting any previous template. The enrollment photo must
// contain exactly one usable face, so faceid.ErrNoFace and
// faceid.ErrUnusableRegion come back as errors here.
func (e *Engine) Enroll(ctx context.Context, studentID, imageB64 string) (EnrollResult, error) {
	student, err := e.stores.Students.GetStudent(ctx, studentID)
	if err != nil {
		return EnrollResult{}, fmt.Errorf("looking up student: %w", err)
	}
	if student == nil {
		return EnrollResult{}, ErrStudentNotFound
	}

	template, box, err := e.extractTemplate(imageB64)
	if err != nil {
		return EnrollResult{}, err
	}

	stored := database.StoredTemplate{
		StudentID: studentID,
		Embedding: template,
		Dim:       len(template),
		Model:     faceid.TemplateModel,
		BoxWidth:  box.Dx(),
		BoxHeight: box.Dy(),
	}
	if err := e.stores.Templates.SaveTemplate(ctx, stored); err != nil {
		return EnrollResult{}, fmt.Errorf("saving template: %w", err)
	}
	if err := e.stores.Students.SetStudentEnrolled(ctx, studentID, true); err != nil {
		return EnrollResult{}, fmt.Errorf("updating enrollment flag: %w", err)
	}

	e.logger.Printf("enrolled student %s (%s), face box %dx%d", student.Name, studentID, box.Dx(), box.Dy())
	student.Enrolled = true
	return EnrollResult{
		Student:   *student,
		BoxWidth:  box.Dx(),
		BoxHeight: box.Dy(),
		Dim:       len(template),
	}, nil
}

// Recognize matches the face in the image against the enrolled students of a
// class and marks attendance for the best match. A duplicate capture on the
// same day returns the original record with StatusAlreadyMarked.
func (e *Engine) Recognize(ctx context.Context, classID, day, imageB64 string) (RecognizeResult, error) {
	if !database.ValidDay(day) {
		return RecognizeResult{}, ErrInvalidDay
	}

	class, err := e.stores.Classes.GetClass(ctx, classID)
	if err != nil {
		return RecognizeResult{}, fmt.Errorf("looking up class: %w", err)
	}
	if class == nil {
		return RecognizeResult{}, ErrClassNotFound
	}

	candidates, err := e.loadCandidates(ctx, classID)
	if err != nil {
		return RecognizeResult{}, err
	}
	if len(candidates) == 0 {
		return RecognizeResult{Status: StatusNoEnrolledStudents}, nil
	}

	query, _, err := e.extractTemplate(imageB64)
	if err != nil {
		// An image without a usable face is an expected outcome during
		// classroom capture, not a pipeline failure.
		if errors.Is(err, faceid.ErrNoFace) || errors.Is(err, faceid.ErrUnusableRegion) {
			return RecognizeResult{Status: StatusNoFace}, nil
		}
		return RecognizeResult{}, err
	}

	matches := faceid.Rank(query, candidates)
	best, found, ambiguous := faceid.Best(matches)
	if !found || ambiguous || best.Confidence < e.threshold {
		e.logger.Printf("no confident match in class %s: best %.3f, threshold %.3f, ambiguous %t",
			classID, best.Confidence, e.threshold, ambiguous)
		return RecognizeResult{Status: StatusNoMatch, Confidence: best.Confidence}, nil
	}

	student, err := e.stores.Students.GetStudent(ctx, best.StudentID)
	if err != nil {
		return RecognizeResult{}, fmt.Errorf("looking up matched student: %w", err)
	}
	if student == nil {
		return RecognizeResult{}, fmt.Errorf("matched student %s no longer exists", best.StudentID)
	}

	mark, err := e.stores.Ledger.Mark(ctx, best.StudentID, classID, day, best.Confidence)
	if err != nil {
		return RecognizeResult{}, fmt.Errorf("marking attendance: %w", err)
	}

	status := StatusMarked
	confidence := best.Confidence
	if mark.AlreadyMarked {
		status = StatusAlreadyMarked
		confidence = mark.Record.Confidence
	}
	e.logger.Printf("recognized %s (%s) in class %s with confidence %.3f, status %s",
		student.Name, student.ID, classID, best.Confidence, status)

	return RecognizeResult{
		Status:     status,
		Student:    student,
		Confidence: confidence,
		Record:     &mark.Record,
	}, nil
}

// loadCandidates fetches the templates of every enrolled roster member,
// dropping templates from an incompatible extraction scheme.
func (e *Engine) loadCandidates(ctx context.Context, classID string) ([]faceid.Candidate, error) {
	roster, err := e.stores.Students.ListClassStudents(ctx, classID)
	if err != nil {
		return nil, fmt.Errorf("listing class students: %w", err)
	}

	var enrolled []string
	for _, s := range roster {
		if s.Enrolled {
			enrolled = append(enrolled, s.ID)
		}
	}
	if len(enrolled) == 0 {
		return nil, nil
	}

	templates, err := e.stores.Templates.GetTemplatesByStudents(ctx, enrolled)
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}

	candidates := make([]faceid.Candidate, 0, len(templates))
	for _, tpl := range templates {
		if tpl.Model != faceid.TemplateModel || tpl.Dim != len(tpl.Embedding) {
			e.logger.Printf("skipping template for student %s: model %s dim %d", tpl.StudentID, tpl.Model, tpl.Dim)
			continue
		}
		candidates = append(candidates, faceid.Candidate{
			StudentID: tpl.StudentID,
			Template:  faceid.Template(tpl.Embedding),
		})
	}
	return candidates, nil
}

// extractTemplate runs decode, detect, crop, extract and returns the template
// with the detected face box.
func (e *Engine) extractTemplate(imageB64 string) (faceid.Template, image.Rectangle, error) {
	img, err := faceid.DecodeBase64Image(imageB64)
	if err != nil {
		return nil, image.Rectangle{}, err
	}

	box, err := e.detector.Detect(img)
	if err != nil {
		return nil, image.Rectangle{}, err
	}

	crop, err := e.cropper.Crop(img, box)
	if err != nil {
		return nil, image.Rectangle{}, err
	}

	return e.extractor.Extract(crop), box, nil
}
