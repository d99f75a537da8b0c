// Package cmd implements the face-attendance command line interface.
package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database/postgres"
	"github.com/kozaktomas/face-attendance/internal/faceid"
	"github.com/kozaktomas/face-attendance/internal/recognition"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "face-attendance",
	Short: "Face recognition attendance engine for classrooms",
	Long: `Face Attendance is a classroom attendance engine. Students enroll once
with a reference photo; afterwards a single camera capture recognizes a
student against the class roster and marks them present for the day.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}

// openStores connects to PostgreSQL, migrates the schema and wires the
// repositories. The caller owns the returned pool.
func openStores(cfg *config.Config) (*postgres.Pool, recognition.Stores, error) {
	if cfg.Database.URL == "" {
		return nil, recognition.Stores{}, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.Initialize(&cfg.Database)
	if err != nil {
		return nil, recognition.Stores{}, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}

	stores := recognition.Stores{
		Classes:   postgres.NewClassRepository(pool),
		Students:  postgres.NewStudentRepository(pool),
		Templates: postgres.NewTemplateRepository(pool),
		Ledger:    postgres.NewAttendanceRepository(pool),
	}
	return pool, stores, nil
}

// buildEngine loads the face cascade and assembles the recognition pipeline.
func buildEngine(cfg *config.Config, stores recognition.Stores) (*recognition.Engine, error) {
	cascade, err := os.ReadFile(cfg.Face.CascadePath)
	if err != nil {
		return nil, fmt.Errorf("reading face cascade %s: %w", cfg.Face.CascadePath, err)
	}

	detector, err := faceid.NewPigoDetector(cascade, cfg.Recognition.MinQuality)
	if err != nil {
		return nil, err
	}

	cropper := faceid.NewCropper(cfg.Recognition.CropMargin, cfg.Recognition.TemplateSize)
	extractor := faceid.NewPixelExtractor()

	return recognition.NewEngine(detector, cropper, extractor, stores, cfg.Recognition.Threshold, nil), nil
}
