package recognition

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/database/mock"
	"github.com/kozaktomas/face-attendance/internal/faceid"
)

// stubDetector returns a fixed box or error, bypassing the real cascade.
type stubDetector struct {
	box image.Rectangle
	err error
}

func (d *stubDetector) Detect(img image.Image) (image.Rectangle, error) {
	if d.err != nil {
		return image.Rectangle{}, d.err
	}
	return d.box, nil
}

// stubExtractor returns a canned template regardless of the crop.
type stubExtractor struct {
	template faceid.Template
}

func (e *stubExtractor) Extract(crop *image.RGBA) faceid.Template {
	return e.template
}

func testImageB64(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 4), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

type testStores struct {
	classes   *mock.MockClassStore
	students  *mock.MockStudentStore
	templates *mock.MockTemplateStore
	ledger    *mock.MockAttendanceLedger
}

func newTestStores() testStores {
	students := mock.NewMockStudentStore()
	return testStores{
		classes:   mock.NewMockClassStore(),
		students:  students,
		templates: mock.NewMockTemplateStore(),
		ledger:    mock.NewMockAttendanceLedger(students),
	}
}

func (s testStores) stores() Stores {
	return Stores{
		Classes:   s.classes,
		Students:  s.students,
		Templates: s.templates,
		Ledger:    s.ledger,
	}
}

func newTestEngine(s testStores, detector faceid.Detector, extractor faceid.Extractor) *Engine {
	return NewEngine(detector, faceid.NewCropper(0.2, 64), extractor, s.stores(), 0.60, nil)
}

// seedEnrolledStudent adds a class with one enrolled student whose stored
// template equals tpl.
func seedEnrolledStudent(s testStores, classID, studentID string, tpl faceid.Template) {
	s.classes.AddClass(database.Class{ID: classID, Name: "5A"})
	s.students.AddStudent(database.Student{
		ID: studentID, ClassID: classID, Name: "Alice", RollNumber: "01", Enrolled: true,
	})
	s.templates.AddTemplate(database.StoredTemplate{
		StudentID: studentID,
		Embedding: tpl,
		Dim:       len(tpl),
		Model:     faceid.TemplateModel,
	})
}

func TestEnroll(t *testing.T) {
	stores := newTestStores()
	stores.students.AddStudent(database.Student{
		ID: "stu-1", ClassID: "cls-1", Name: "Alice", RollNumber: "01",
	})

	engine := newTestEngine(stores,
		&stubDetector{box: image.Rect(4, 4, 60, 60)},
		&stubExtractor{template: faceid.Template{1, 2, 3, 4}},
	)

	result, err := engine.Enroll(context.Background(), "stu-1", testImageB64(t))
	if err != nil {
		t.Fatalf("Enroll failed: %v", err)
	}

	if result.Dim != 4 {
		t.Errorf("expected template dim 4, got %d", result.Dim)
	}
	if result.BoxWidth != 56 || result.BoxHeight != 56 {
		t.Errorf("expected 56x56 face box, got %dx%d", result.BoxWidth, result.BoxHeight)
	}
	if !result.Student.Enrolled {
		t.Error("expected returned student to be enrolled")
	}

	if len(stores.templates.SaveTemplateCalls) != 1 {
		t.Fatalf("expected 1 SaveTemplate call, got %d", len(stores.templates.SaveTemplateCalls))
	}
	saved := stores.templates.SaveTemplateCalls[0]
	if saved.Model != faceid.TemplateModel {
		t.Errorf("expected model '%s', got '%s'", faceid.TemplateModel, saved.Model)
	}

	student, _ := stores.students.GetStudent(context.Background(), "stu-1")
	if !student.Enrolled {
		t.Error("expected enrollment flag to be persisted")
	}
}

func TestEnroll_UnknownStudent(t *testing.T) {
	stores := newTestStores()
	engine := newTestEngine(stores,
		&stubDetector{box: image.Rect(0, 0, 64, 64)},
		&stubExtractor{template: faceid.Template{1}},
	)

	_, err := engine.Enroll(context.Background(), "missing", testImageB64(t))
	if !errors.Is(err, ErrStudentNotFound) {
		t.Errorf("expected ErrStudentNotFound, got %v", err)
	}
}

func TestEnroll_NoFace(t *testing.T) {
	stores := newTestStores()
	stores.students.AddStudent(database.Student{ID: "stu-1", ClassID: "cls-1"})

	engine := newTestEngine(stores,
		&stubDetector{err: faceid.ErrNoFace},
		&stubExtractor{template: faceid.Template{1}},
	)

	_, err := engine.Enroll(context.Background(), "stu-1", testImageB64(t))
	if !errors.Is(err, faceid.ErrNoFace) {
		t.Errorf("expected ErrNoFace, got %v", err)
	}
	if len(stores.templates.SaveTemplateCalls) != 0 {
		t.Error("expected no template saved when no face was found")
	}
}

func TestEnroll_InvalidImage(t *testing.T) {
	stores := newTestStores()
	stores.students.AddStudent(database.Student{ID: "stu-1", ClassID: "cls-1"})

	engine := newTestEngine(stores,
		&stubDetector{box: image.Rect(0, 0, 64, 64)},
		&stubExtractor{template: faceid.Template{1}},
	)

	_, err := engine.Enroll(context.Background(), "stu-1", "definitely-not-an-image")
	if !errors.Is(err, faceid.ErrDecode) {
		t.Errorf("expected ErrDecode, got %v", err)
	}
}

func TestEnroll_SaveError(t *testing.T) {
	stores := newTestStores()
	stores.students.AddStudent(database.Student{ID: "stu-1", ClassID: "cls-1"})
	stores.templates.SaveTemplateError = errors.New("disk full")

	engine := newTestEngine(stores,
		&stubDetector{box: image.Rect(0, 0, 64, 64)},
		&stubExtractor{template: faceid.Template{1}},
	)

	_, err := engine.Enroll(context.Background(), "stu-1", testImageB64(t))
	if err == nil {
		t.Fatal("expected error from failing template store")
	}

	student, _ := stores.students.GetStudent(context.Background(), "stu-1")
	if student.Enrolled {
		t.Error("enrollment flag must not flip when the template save failed")
	}
}

func TestRecognize_InvalidDay(t *testing.T) {
	stores := newTestStores()
	engine := newTestEngine(stores,
		&stubDetector{box: image.Rect(0, 0, 64, 64)},
		&stubExtractor{template: faceid.Template{1}},
	)

	_, err := engine.Recognize(context.Background(), "cls-1", "28-08-2026", testImageB64(t))
	if !errors.Is(err, ErrInvalidDay) {
		t.Errorf("expected ErrInvalidDay, got %v", err)
	}
}

func TestRecognize_UnknownClass(t *testing.T) {
	stores := newTestStores()
	engine := newTestEngine(stores,
		&stubDetector{box: image.Rect(0, 0, 64, 64)},
		&stubExtractor{template: faceid.Template{1}},
	)

	_, err := engine.Recognize(context.Background(), "missing", "2026-08-28", testImageB64(t))
	if !errors.Is(err, ErrClassNotFound) {
		t.Errorf("expected ErrClassNotFound, got %v", err)
	}
}

func TestRecognize_NoEnrolledStudents(t *testing.T) {
	stores := newTestStores()
	stores.classes.AddClass(database.Class{ID: "cls-1", Name: "5A"})
	stores.students.AddStudent(database.Student{
		ID: "stu-1", ClassID: "cls-1", Name: "Alice", RollNumber: "01", Enrolled: false,
	})

	engine := newTestEngine(stores,
		&stubDetector{box: image.Rect(0, 0, 64, 64)},
		&stubExtractor{template: faceid.Template{1}},
	)

	result, err := engine.Recognize(context.Background(), "cls-1", "2026-08-28", testImageB64(t))
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if result.Status != StatusNoEnrolledStudents {
		t.Errorf("expected status %s, got %s", StatusNoEnrolledStudents, result.Status)
	}
}

func TestRecognize_NoFace(t *testing.T) {
	stores := newTestStores()
	seedEnrolledStudent(stores, "cls-1", "stu-1", faceid.Template{1, 0, 0})

	engine := newTestEngine(stores,
		&stubDetector{err: faceid.ErrNoFace},
		&stubExtractor{template: faceid.Template{1, 0, 0}},
	)

	result, err := engine.Recognize(context.Background(), "cls-1", "2026-08-28", testImageB64(t))
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if result.Status != StatusNoFace {
		t.Errorf("expected status %s, got %s", StatusNoFace, result.Status)
	}
}

func TestRecognize_BelowThreshold(t *testing.T) {
	stores := newTestStores()
	seedEnrolledStudent(stores, "cls-1", "stu-1", faceid.Template{1, 0, 0})

	// Orthogonal query scores 0 against the stored template.
	engine := newTestEngine(stores,
		&stubDetector{box: image.Rect(0, 0, 64, 64)},
		&stubExtractor{template: faceid.Template{0, 1, 0}},
	)

	result, err := engine.Recognize(context.Background(), "cls-1", "2026-08-28", testImageB64(t))
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if result.Status != StatusNoMatch {
		t.Errorf("expected status %s, got %s", StatusNoMatch, result.Status)
	}
	if result.Student != nil {
		t.Error("expected no student for a rejected match")
	}
}

func TestRecognize_AmbiguousTie(t *testing.T) {
	stores := newTestStores()
	tpl := faceid.Template{1, 0, 0}
	seedEnrolledStudent(stores, "cls-1", "stu-1", tpl)
	stores.students.AddStudent(database.Student{
		ID: "stu-2", ClassID: "cls-1", Name: "Bob", RollNumber: "02", Enrolled: true,
	})
	stores.templates.AddTemplate(database.StoredTemplate{
		StudentID: "stu-2",
		Embedding: tpl,
		Dim:       len(tpl),
		Model:     faceid.TemplateModel,
	})

	// The query matches both stored templates exactly, a perfect tie.
	engine := newTestEngine(stores,
		&stubDetector{box: image.Rect(0, 0, 64, 64)},
		&stubExtractor{template: tpl},
	)

	result, err := engine.Recognize(context.Background(), "cls-1", "2026-08-28", testImageB64(t))
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if result.Status != StatusNoMatch {
		t.Errorf("expected ambiguous tie to report %s, got %s", StatusNoMatch, result.Status)
	}
}

func TestRecognize_MarksAttendance(t *testing.T) {
	stores := newTestStores()
	tpl := faceid.Template{1, 2, 3, 4}
	seedEnrolledStudent(stores, "cls-1", "stu-1", tpl)

	engine := newTestEngine(stores,
		&stubDetector{box: image.Rect(0, 0, 64, 64)},
		&stubExtractor{template: tpl},
	)

	result, err := engine.Recognize(context.Background(), "cls-1", "2026-08-28", testImageB64(t))
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if result.Status != StatusMarked {
		t.Fatalf("expected status %s, got %s", StatusMarked, result.Status)
	}
	if result.Student == nil || result.Student.ID != "stu-1" {
		t.Fatal("expected matched student stu-1")
	}
	if result.Confidence != 1.0 {
		t.Errorf("expected confidence 1.0 for identical templates, got %f", result.Confidence)
	}
	if result.Record == nil || !result.Record.Present {
		t.Error("expected a present attendance record")
	}
}

func TestRecognize_AlreadyMarked(t *testing.T) {
	stores := newTestStores()
	tpl := faceid.Template{1, 2, 3, 4}
	seedEnrolledStudent(stores, "cls-1", "stu-1", tpl)

	engine := newTestEngine(stores,
		&stubDetector{box: image.Rect(0, 0, 64, 64)},
		&stubExtractor{template: tpl},
	)

	first, err := engine.Recognize(context.Background(), "cls-1", "2026-08-28", testImageB64(t))
	if err != nil {
		t.Fatalf("first Recognize failed: %v", err)
	}

	second, err := engine.Recognize(context.Background(), "cls-1", "2026-08-28", testImageB64(t))
	if err != nil {
		t.Fatalf("second Recognize failed: %v", err)
	}
	if second.Status != StatusAlreadyMarked {
		t.Errorf("expected status %s, got %s", StatusAlreadyMarked, second.Status)
	}
	if second.Record.ID != first.Record.ID {
		t.Error("expected the original attendance record to be returned")
	}

	// A new day starts a fresh record.
	third, err := engine.Recognize(context.Background(), "cls-1", "2026-08-29", testImageB64(t))
	if err != nil {
		t.Fatalf("third Recognize failed: %v", err)
	}
	if third.Status != StatusMarked {
		t.Errorf("expected a new day to mark fresh, got %s", third.Status)
	}
}

func TestRecognize_SkipsIncompatibleTemplates(t *testing.T) {
	stores := newTestStores()
	stores.classes.AddClass(database.Class{ID: "cls-1", Name: "5A"})
	stores.students.AddStudent(database.Student{
		ID: "stu-1", ClassID: "cls-1", Name: "Alice", RollNumber: "01", Enrolled: true,
	})
	stores.templates.AddTemplate(database.StoredTemplate{
		StudentID: "stu-1",
		Embedding: []float32{1, 2, 3},
		Dim:       3,
		Model:     "legacy-v0",
	})

	engine := newTestEngine(stores,
		&stubDetector{box: image.Rect(0, 0, 64, 64)},
		&stubExtractor{template: faceid.Template{1, 2, 3}},
	)

	result, err := engine.Recognize(context.Background(), "cls-1", "2026-08-28", testImageB64(t))
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if result.Status != StatusNoEnrolledStudents {
		t.Errorf("expected incompatible templates to leave no candidates, got %s", result.Status)
	}
}

func TestRecognize_LedgerError(t *testing.T) {
	stores := newTestStores()
	tpl := faceid.Template{1, 2, 3, 4}
	seedEnrolledStudent(stores, "cls-1", "stu-1", tpl)
	stores.ledger.MarkError = errors.New("connection lost")

	engine := newTestEngine(stores,
		&stubDetector{box: image.Rect(0, 0, 64, 64)},
		&stubExtractor{template: tpl},
	)

	_, err := engine.Recognize(context.Background(), "cls-1", "2026-08-28", testImageB64(t))
	if err == nil {
		t.Fatal("expected error from failing ledger")
	}
}
