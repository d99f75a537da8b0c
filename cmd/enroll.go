package cmd

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/recognition"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll",
	Short: "Enroll student faces from reference photos",
	Long: `Enroll student faces from reference photos.

Single student:
  face-attendance enroll --student <id> --image photo.jpg

Whole class from a directory of photos:
  face-attendance enroll --class <id> --dir ./photos

In directory mode each photo is matched to a roster member by its file
name (without extension): first as an exact roll number, then as the
student name. Name matching ignores case, diacritics, and treats dashes
and underscores as spaces, so "jan-novak.jpg" enrolls "Jan Novák".`,
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)

	enrollCmd.Flags().String("student", "", "Student ID for single enrollment")
	enrollCmd.Flags().String("image", "", "Path to the reference photo for single enrollment")
	enrollCmd.Flags().String("class", "", "Class ID for directory enrollment")
	enrollCmd.Flags().String("dir", "", "Directory of reference photos for directory enrollment")
}

// photoExtensions are the raster formats the decoder accepts.
var photoExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".bmp": true,
}

func runEnroll(cmd *cobra.Command, args []string) error {
	studentID := mustGetString(cmd, "student")
	imagePath := mustGetString(cmd, "image")
	classID := mustGetString(cmd, "class")
	dir := mustGetString(cmd, "dir")

	single := studentID != "" || imagePath != ""
	batch := classID != "" || dir != ""
	if single == batch {
		return errors.New("use either --student with --image, or --class with --dir")
	}
	if single && (studentID == "" || imagePath == "") {
		return errors.New("single enrollment needs both --student and --image")
	}
	if batch && (classID == "" || dir == "") {
		return errors.New("directory enrollment needs both --class and --dir")
	}

	cfg := config.Load()
	pool, stores, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	engine, err := buildEngine(cfg, stores)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if single {
		return enrollOne(ctx, engine, studentID, imagePath)
	}
	return enrollDirectory(ctx, engine, stores, classID, dir)
}

// enrollOne enrolls a single student from one photo.
func enrollOne(ctx context.Context, engine *recognition.Engine, studentID, imagePath string) error {
	imageB64, err := readImageBase64(imagePath)
	if err != nil {
		return err
	}

	result, err := engine.Enroll(ctx, studentID, imageB64)
	if err != nil {
		return fmt.Errorf("enrolling student %s: %w", studentID, err)
	}

	fmt.Printf("Enrolled %s (roll %s), face box %dx%d, template %d values\n",
		result.Student.Name, result.Student.RollNumber, result.BoxWidth, result.BoxHeight, result.Dim)
	return nil
}

// enrollDirectory enrolls every photo in dir that matches a roster member.
func enrollDirectory(ctx context.Context, engine *recognition.Engine, stores recognition.Stores, classID, dir string) error {
	class, err := stores.Classes.GetClass(ctx, classID)
	if err != nil {
		return fmt.Errorf("looking up class: %w", err)
	}
	if class == nil {
		return fmt.Errorf("class %s not found", classID)
	}

	roster, err := stores.Students.ListClassStudents(ctx, classID)
	if err != nil {
		return fmt.Errorf("listing class students: %w", err)
	}
	if len(roster) == 0 {
		return fmt.Errorf("class %s has no students", classID)
	}

	byRoll := make(map[string]database.Student, len(roster))
	byName := make(map[string]database.Student, len(roster))
	for _, s := range roster {
		byRoll[s.RollNumber] = s
		byName[database.NormalizeStudentName(s.Name)] = s
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading photo directory: %w", err)
	}

	var photos []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if photoExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			photos = append(photos, entry.Name())
		}
	}
	if len(photos) == 0 {
		return fmt.Errorf("no photos found in %s", dir)
	}

	bar := progressbar.NewOptions(len(photos),
		progressbar.OptionSetDescription("Enrolling faces"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("photos"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	enrolled := 0
	var unmatched, failed []string
	for _, name := range photos {
		key := strings.TrimSuffix(name, filepath.Ext(name))
		student, ok := byRoll[key]
		if !ok {
			student, ok = byName[database.NormalizeStudentName(key)]
		}
		if !ok {
			unmatched = append(unmatched, name)
			bar.Add(1)
			continue
		}

		imageB64, err := readImageBase64(filepath.Join(dir, name))
		if err != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", name, err))
			bar.Add(1)
			continue
		}
		if _, err := engine.Enroll(ctx, student.ID, imageB64); err != nil {
			failed = append(failed, fmt.Sprintf("%s (%s): %v", name, student.Name, err))
			bar.Add(1)
			continue
		}
		enrolled++
		bar.Add(1)
	}
	fmt.Println()

	fmt.Printf("Enrolled %d of %d students in class %s\n", enrolled, len(roster), class.Name)
	if len(unmatched) > 0 {
		fmt.Printf("Unmatched photos (%d):\n", len(unmatched))
		for _, name := range unmatched {
			fmt.Printf("  %s\n", name)
		}
	}
	if len(failed) > 0 {
		fmt.Printf("Failed enrollments (%d):\n", len(failed))
		for _, msg := range failed {
			fmt.Printf("  %s\n", msg)
		}
	}
	return nil
}

// readImageBase64 reads an image file and encodes it for the pipeline.
func readImageBase64(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading image %s: %w", path, err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}
