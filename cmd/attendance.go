package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/spf13/cobra"
)

var attendanceCmd = &cobra.Command{
	Use:   "attendance",
	Short: "Print the attendance report of a class for one day",
	Long: `Print the attendance report of a class for one day:

  face-attendance attendance --class <id> --date 2026-08-28

The date defaults to today.`,
	RunE: runAttendance,
}

func init() {
	rootCmd.AddCommand(attendanceCmd)

	attendanceCmd.Flags().String("class", "", "Class ID to report on")
	attendanceCmd.Flags().String("date", "", "Report date as YYYY-MM-DD (defaults to today)")
}

func runAttendance(cmd *cobra.Command, args []string) error {
	classID := mustGetString(cmd, "class")
	date := mustGetString(cmd, "date")

	if classID == "" {
		return errors.New("--class is required")
	}
	if date == "" {
		date = time.Now().UTC().Format(time.DateOnly)
	} else if !database.ValidDay(date) {
		return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", date)
	}

	cfg := config.Load()
	pool, stores, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	ctx := context.Background()
	class, err := stores.Classes.GetClass(ctx, classID)
	if err != nil {
		return fmt.Errorf("looking up class: %w", err)
	}
	if class == nil {
		return fmt.Errorf("class %s not found", classID)
	}

	entries, err := stores.Ledger.Query(ctx, classID, date)
	if err != nil {
		return fmt.Errorf("querying attendance: %w", err)
	}
	if len(entries) == 0 {
		fmt.Printf("Class %s has no students\n", class.Name)
		return nil
	}

	present := 0
	fmt.Printf("Attendance for %s on %s\n\n", class.Name, date)
	fmt.Printf("%-6s %-30s %-8s %s\n", "Roll", "Name", "Status", "Marked at")
	for _, entry := range entries {
		status := "absent"
		markedAt := "-"
		if entry.Present {
			present++
			status = "present"
			if entry.MarkedAt != nil {
				markedAt = entry.MarkedAt.Local().Format("15:04:05")
			}
		}
		fmt.Printf("%-6s %-30s %-8s %s\n", entry.Student.RollNumber, entry.Student.Name, status, markedAt)
	}
	fmt.Printf("\nPresent: %d / %d\n", present, len(entries))
	return nil
}
