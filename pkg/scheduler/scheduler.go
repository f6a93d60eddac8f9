package scheduler

import (
	"math"
	"sort"
	"time"

	"github.com/arnavshah/staffmonitr-go/pkg/models"
)

// UnassignedRole groups assignments nobody holds yet
const UnassignedRole = "Unassigned"

// HardDifficulty is the assignment difficulty from which a slot counts as hard
const HardDifficulty = 4

// Stats are the dashboard counters for a set of shifts
type Stats struct {
	TotalShifts int `json:"totalShifts"`
	TotalKids   int `json:"totalKids"`
	RatioMet    int `json:"ratioMet"`
}

// Summarize counts shifts, shift-level kids and ratio-compliant shifts
func Summarize(shifts []models.ShiftEvent) Stats {
	stats := Stats{TotalShifts: len(shifts)}
	for _, sh := range shifts {
		stats.TotalKids += len(sh.Kids)
		if sh.RatioMet() {
			stats.RatioMet++
		}
	}
	return stats
}

// DurationHours calculates the duration between two times in hours
func DurationHours(start, end time.Time) float64 {
	return end.Sub(start).Hours()
}

// Overlap checks if two time ranges overlap
func Overlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// Day is one calendar day of shifts
type Day struct {
	Label  string
	Date   time.Time
	Shifts []models.ShiftEvent
}

// GroupByDay buckets shifts by their local start day, earliest day first.
// Shifts keep their input order within a day.
func GroupByDay(shifts []models.ShiftEvent, loc *time.Location) []Day {
	if loc == nil {
		loc = time.Local
	}

	index := make(map[time.Time]int)
	var days []Day
	for _, sh := range shifts {
		local := sh.StartTime.In(loc)
		date := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
		i, ok := index[date]
		if !ok {
			i = len(days)
			index[date] = i
			days = append(days, Day{Label: date.Format("Monday, Jan 2"), Date: date})
		}
		days[i].Shifts = append(days[i].Shifts, sh)
	}

	sort.SliceStable(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })
	return days
}

// RatioGroup is the kids sharing one ratio label
type RatioGroup struct {
	Ratio string
	Kids  []models.KidDetails
}

// KidsByRatio groups kids by ratio label in order of first appearance
func KidsByRatio(kids []models.KidDetails) []RatioGroup {
	index := make(map[string]int)
	var groups []RatioGroup
	for _, kid := range kids {
		i, ok := index[kid.Ratio]
		if !ok {
			i = len(groups)
			index[kid.Ratio] = i
			groups = append(groups, RatioGroup{Ratio: kid.Ratio})
		}
		groups[i].Kids = append(groups[i].Kids, kid)
	}
	return groups
}

// Sites returns the distinct sites of shifts in order of first appearance
func Sites(shifts []models.ShiftEvent) []string {
	seen := make(map[string]bool)
	var sites []string
	for _, sh := range shifts {
		if !seen[sh.Site] {
			seen[sh.Site] = true
			sites = append(sites, sh.Site)
		}
	}
	return sites
}

// Utilization builds the staff-utilization report. openShifts is the number
// of open shifts overall, which is not limited to shifts.
func Utilization(shifts []models.ShiftEvent, openShifts int) models.UtilizationReport {
	report := models.UtilizationReport{TotalShifts: len(shifts), OpenShifts: openShifts}

	assignments := 0
	for _, sh := range shifts {
		if sh.RatioMet() {
			report.RatioCompliant++
		}
		assignments += len(sh.Assignments)
	}

	total := len(shifts)
	if total == 0 {
		total = 1
	}
	report.Averages.AssignmentsPerShift = math.Round(float64(assignments)/float64(total)*100) / 100
	return report
}

// RatioCompliance counts assignments per holder role and how many are hard
func RatioCompliance(assignments []models.Assignment) models.RatioComplianceReport {
	byRole := make(map[string]models.RoleLoad)
	for _, a := range assignments {
		role := UnassignedRole
		if a.Filled() && a.StaffRole != "" {
			role = string(a.StaffRole)
		}
		load := byRole[role]
		load.Count++
		if a.Difficulty >= HardDifficulty {
			load.Hard++
		}
		byRole[role] = load
	}
	return models.RatioComplianceReport{ByRole: byRole}
}

// StaffHours sums the hours each staff member holds across shifts
func StaffHours(shifts []models.ShiftEvent) map[string]float64 {
	hours := make(map[string]float64)
	for _, sh := range shifts {
		duration := DurationHours(sh.StartTime.Time, sh.EndTime.Time)
		for _, a := range sh.Assignments {
			if a.Filled() {
				hours[a.StaffID] += duration
			}
		}
	}
	return hours
}

// CalculateFairnessScore returns a percentage (0-100) representing how evenly
// hours are distributed. 100% is perfectly fair (Standard Deviation = 0).
func CalculateFairnessScore(hours map[string]float64) float64 {
	if len(hours) == 0 {
		return 100.0
	}

	var sum float64
	for _, h := range hours {
		sum += h
	}

	if sum == 0 {
		return 100.0
	}

	mean := sum / float64(len(hours))

	var varianceSum float64
	for _, h := range hours {
		diff := h - mean
		varianceSum += diff * diff
	}
	stdDev := math.Sqrt(varianceSum / float64(len(hours)))

	// 100% means SD is 0. 0% means SD is >= mean.
	score := (1.0 - (stdDev / mean)) * 100.0
	if score < 0 {
		return 0.0
	}
	return score
}

// Conflict is a staff member holding assignments on two overlapping shifts
type Conflict struct {
	StaffID string
	ShiftA  string
	ShiftB  string
}

// DoubleBookings finds staff assigned to overlapping shifts
func DoubleBookings(shifts []models.ShiftEvent) []Conflict {
	byStaff := make(map[string][]models.ShiftEvent)
	var staffOrder []string
	for _, sh := range shifts {
		for _, a := range sh.Assignments {
			if !a.Filled() {
				continue
			}
			if _, ok := byStaff[a.StaffID]; !ok {
				staffOrder = append(staffOrder, a.StaffID)
			}
			byStaff[a.StaffID] = append(byStaff[a.StaffID], sh)
		}
	}

	var conflicts []Conflict
	for _, staffID := range staffOrder {
		held := byStaff[staffID]
		for i := 0; i < len(held); i++ {
			for j := i + 1; j < len(held); j++ {
				if held[i].ID == held[j].ID {
					continue
				}
				if Overlap(held[i].StartTime.Time, held[i].EndTime.Time, held[j].StartTime.Time, held[j].EndTime.Time) {
					conflicts = append(conflicts, Conflict{StaffID: staffID, ShiftA: held[i].ID, ShiftB: held[j].ID})
				}
			}
		}
	}
	return conflicts
}
