package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/recognition"
	"github.com/spf13/cobra"
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize",
	Short: "Recognize a student from a capture and mark attendance",
	Long: `Run the recognition pipeline on a capture image and mark attendance
for the recognized student:

  face-attendance recognize --class <id> --image capture.jpg

The date defaults to today.`,
	RunE: runRecognize,
}

func init() {
	rootCmd.AddCommand(recognizeCmd)

	recognizeCmd.Flags().String("class", "", "Class ID to match against")
	recognizeCmd.Flags().String("image", "", "Path to the capture image")
	recognizeCmd.Flags().String("date", "", "Attendance date as YYYY-MM-DD (defaults to today)")
}

func runRecognize(cmd *cobra.Command, args []string) error {
	classID := mustGetString(cmd, "class")
	imagePath := mustGetString(cmd, "image")
	date := mustGetString(cmd, "date")

	if classID == "" || imagePath == "" {
		return errors.New("both --class and --image are required")
	}
	if date == "" {
		date = time.Now().UTC().Format(time.DateOnly)
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

	imageB64, err := readImageBase64(imagePath)
	if err != nil {
		return err
	}

	result, err := engine.Recognize(context.Background(), classID, date, imageB64)
	if err != nil {
		return fmt.Errorf("recognition failed: %w", err)
	}

	switch result.Status {
	case recognition.StatusMarked:
		fmt.Printf("Marked %s (roll %s) present on %s, confidence %.3f\n",
			result.Student.Name, result.Student.RollNumber, date, result.Confidence)
	case recognition.StatusAlreadyMarked:
		fmt.Printf("%s (roll %s) was already marked present on %s at %s (confidence %.3f)\n",
			result.Student.Name, result.Student.RollNumber, date,
			result.Record.MarkedAt.Local().Format("15:04:05"), result.Confidence)
	case recognition.StatusNoFace:
		fmt.Println("No usable face found in the capture")
	case recognition.StatusNoMatch:
		fmt.Printf("No confident match (best confidence %.3f, threshold %.3f)\n",
			result.Confidence, engine.Threshold())
	case recognition.StatusNoEnrolledStudents:
		fmt.Println("No enrolled students in this class, enroll faces first")
	}
	return nil
}
