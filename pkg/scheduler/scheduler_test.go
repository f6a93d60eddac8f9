package scheduler

import (
	"testing"
	"time"

	"github.com/arnavshah/staffmonitr-go/pkg/models"
)

func at(hour int) models.Timestamp {
	return models.NewTimestamp(time.Date(2024, 5, 1, hour, 0, 0, 0, time.UTC))
}

func TestSummarize(t *testing.T) {
	shifts := []models.ShiftEvent{
		{ID: "s1", RatioMin: models.Int(2), Assignments: []models.Assignment{{ID: "a1"}, {ID: "a2"}}, Kids: []models.KidDetails{{ID: "k1"}}},
		{ID: "s2", RatioMin: models.Int(3), Assignments: []models.Assignment{{ID: "a3"}}},
		{ID: "s3", Assignments: []models.Assignment{{ID: "a4"}}, Kids: []models.KidDetails{{ID: "k2"}, {ID: "k3"}}},
		{ID: "s4"},
	}

	got := Summarize(shifts)
	want := Stats{TotalShifts: 4, TotalKids: 3, RatioMet: 2}
	if got != want {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
}

func TestRatioMet_DefaultsToOne(t *testing.T) {
	if (models.ShiftEvent{}).RatioMet() {
		t.Error("Expected a shift without assignments to miss the default ratio of 1")
	}
	if !(models.ShiftEvent{Assignments: []models.Assignment{{ID: "a"}}}).RatioMet() {
		t.Error("Expected one assignment to meet the default ratio")
	}
	if !(models.ShiftEvent{RatioMin: models.Int(0)}).RatioMet() {
		t.Error("Expected ratio_min 0 to be met by an empty shift")
	}
}

func TestOverlap(t *testing.T) {
	if !Overlap(at(8).Time, at(12).Time, at(11).Time, at(14).Time) {
		t.Error("Expected 8-12 and 11-14 to overlap")
	}
	if Overlap(at(8).Time, at(12).Time, at(12).Time, at(14).Time) {
		t.Error("Expected touching ranges not to overlap")
	}
	if DurationHours(at(8).Time, at(12).Time) != 4.0 {
		t.Errorf("Expected 4 hours, got %f", DurationHours(at(8).Time, at(12).Time))
	}
}

func TestGroupByDay(t *testing.T) {
	day2 := models.NewTimestamp(time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC))
	shifts := []models.ShiftEvent{
		{ID: "late", StartTime: day2},
		{ID: "early-a", StartTime: at(8)},
		{ID: "early-b", StartTime: at(15)},
	}

	days := GroupByDay(shifts, time.UTC)
	if len(days) != 2 {
		t.Fatalf("Expected 2 days, got %d", len(days))
	}
	if days[0].Label != "Wednesday, May 1" || len(days[0].Shifts) != 2 {
		t.Errorf("Unexpected first day %q with %d shifts", days[0].Label, len(days[0].Shifts))
	}
	if days[0].Shifts[0].ID != "early-a" || days[1].Shifts[0].ID != "late" {
		t.Error("Expected input order within a day and earliest day first")
	}
}

func TestKidsByRatio(t *testing.T) {
	kids := []models.KidDetails{
		{ID: "k1", Ratio: "1:1"},
		{ID: "k2", Ratio: "1:3"},
		{ID: "k3", Ratio: "1:1"},
	}

	groups := KidsByRatio(kids)
	if len(groups) != 2 || groups[0].Ratio != "1:1" || len(groups[0].Kids) != 2 || groups[1].Ratio != "1:3" {
		t.Errorf("Unexpected grouping %+v", groups)
	}
}

func TestSites(t *testing.T) {
	got := Sites([]models.ShiftEvent{{Site: "North"}, {Site: "South"}, {Site: "North"}})
	if len(got) != 2 || got[0] != "North" || got[1] != "South" {
		t.Errorf("Unexpected sites %v", got)
	}
}

func TestUtilization(t *testing.T) {
	shifts := []models.ShiftEvent{
		{ID: "s1", RatioMin: models.Int(1), Assignments: []models.Assignment{{ID: "a1"}, {ID: "a2"}}},
		{ID: "s2", RatioMin: models.Int(2), Assignments: []models.Assignment{{ID: "a3"}}},
		{ID: "s3", RatioMin: models.Int(1)},
	}

	got := Utilization(shifts, 5)
	if got.TotalShifts != 3 || got.RatioCompliant != 1 || got.OpenShifts != 5 {
		t.Errorf("Unexpected report %+v", got)
	}
	if got.Averages.AssignmentsPerShift != 1.0 {
		t.Errorf("Expected 1.0 assignments per shift, got %f", got.Averages.AssignmentsPerShift)
	}

	empty := Utilization(nil, 0)
	if empty.Averages.AssignmentsPerShift != 0 {
		t.Errorf("Expected 0 for no shifts, got %f", empty.Averages.AssignmentsPerShift)
	}
}

func TestRatioCompliance(t *testing.T) {
	report := RatioCompliance([]models.Assignment{
		{ID: "a1", StaffID: "st1", StaffRole: models.RoleLead, Difficulty: 4},
		{ID: "a2", StaffID: "st2", StaffRole: models.RoleLead, Difficulty: 2},
		{ID: "a3", Difficulty: 5},
	})

	if report.ByRole["Lead"] != (models.RoleLoad{Count: 2, Hard: 1}) {
		t.Errorf("Unexpected Lead load %+v", report.ByRole["Lead"])
	}
	if report.ByRole[UnassignedRole] != (models.RoleLoad{Count: 1, Hard: 1}) {
		t.Errorf("Unexpected Unassigned load %+v", report.ByRole[UnassignedRole])
	}
}

func TestCalculateFairnessScore(t *testing.T) {
	if score := CalculateFairnessScore(nil); score != 100.0 {
		t.Errorf("Expected 100 for no staff, got %f", score)
	}
	if score := CalculateFairnessScore(map[string]float64{"a": 4, "b": 4}); score != 100.0 {
		t.Errorf("Expected 100 for equal hours, got %f", score)
	}
	if score := CalculateFairnessScore(map[string]float64{"a": 8, "b": 0}); score != 0.0 {
		t.Errorf("Expected 0 when one person holds everything, got %f", score)
	}
}

func TestStaffHoursAndDoubleBookings(t *testing.T) {
	shifts := []models.ShiftEvent{
		{ID: "s1", StartTime: at(8), EndTime: at(12), Assignments: []models.Assignment{{ID: "a1", StaffID: "st1"}, {ID: "a2"}}},
		{ID: "s2", StartTime: at(11), EndTime: at(14), Assignments: []models.Assignment{{ID: "a3", StaffID: "st1"}}},
		{ID: "s3", StartTime: at(14), EndTime: at(16), Assignments: []models.Assignment{{ID: "a4", StaffID: "st2"}}},
	}

	hours := StaffHours(shifts)
	if hours["st1"] != 7.0 || hours["st2"] != 2.0 {
		t.Errorf("Unexpected hours %v", hours)
	}

	conflicts := DoubleBookings(shifts)
	if len(conflicts) != 1 {
		t.Fatalf("Expected 1 conflict, got %d", len(conflicts))
	}
	if conflicts[0] != (Conflict{StaffID: "st1", ShiftA: "s1", ShiftB: "s2"}) {
		t.Errorf("Unexpected conflict %+v", conflicts[0])
	}
}
