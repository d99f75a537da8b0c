package cmd

import (
	"strings"
	"testing"
)

func TestRunAttendance_InvalidDate(t *testing.T) {
	if err := attendanceCmd.Flags().Set("class", "cls-1"); err != nil {
		t.Fatalf("failed to set flag: %v", err)
	}
	if err := attendanceCmd.Flags().Set("date", "28-08-2026"); err != nil {
		t.Fatalf("failed to set flag: %v", err)
	}
	t.Cleanup(func() {
		_ = attendanceCmd.Flags().Set("class", "")
		_ = attendanceCmd.Flags().Set("date", "")
	})

	// Flag validation runs before any database connection is attempted.
	err := runAttendance(attendanceCmd, nil)
	if err == nil {
		t.Fatal("expected an error for a malformed date")
	}
	if !strings.Contains(err.Error(), "invalid date") {
		t.Errorf("expected an invalid date error, got %v", err)
	}
}

func TestRunAttendance_MissingClass(t *testing.T) {
	t.Cleanup(func() {
		_ = attendanceCmd.Flags().Set("class", "")
	})

	err := runAttendance(attendanceCmd, nil)
	if err == nil {
		t.Fatal("expected an error when --class is missing")
	}
	if !strings.Contains(err.Error(), "--class is required") {
		t.Errorf("expected a missing class error, got %v", err)
	}
}
