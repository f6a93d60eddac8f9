package devserver

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/arnavshah/staffmonitr-go/pkg/auth"
)

// DemoAccountName names the seeded campus
const DemoAccountName = "StaffMonitr Demo Campus"

// Credential is a seeded sign-in
type Credential struct {
	FullName string
	Email    string
	Password string
	Role     string
}

// DemoCredentials are created by Seed
var DemoCredentials = []Credential{
	{FullName: "Javier Admin", Email: "demo-admin@staffmonitr.dev", Password: "AdminSafe123!", Role: "Owner_admin"},
	{FullName: "Javier Lead", Email: "demo-lead@staffmonitr.dev", Password: "LeadSafe123!", Role: "Lead"},
	{FullName: "Javier Staff", Email: "demo-staff@staffmonitr.dev", Password: "StaffSafe123!", Role: "Staff"},
}

type seedShift struct {
	site       string
	dayOffset  int
	startHour  int
	hours      int
	ratioMin   int
	leads      int
	difficulty string
	special    bool
	open       bool
	// staff index into DemoCredentials per assignment, -1 leaves it unfilled
	staff []int
	kids  []seedKid
}

type seedKid struct {
	name  string
	ratio string
	oneOn bool
	note  string
}

var demoShifts = []seedShift{
	{
		site: "Harbor Rec Center", dayOffset: 0, startHour: 8, hours: 8,
		ratioMin: 2, leads: 1, difficulty: "standard",
		staff: []int{1, 2},
		kids: []seedKid{
			{name: "Avery Chen", ratio: "1:2", note: "Needs a quiet corner after lunch"},
			{name: "Mateo Ruiz", ratio: "1:3"},
		},
	},
	{
		site: "Harbor Rec Center", dayOffset: 1, startHour: 9, hours: 7,
		ratioMin: 1, leads: 1, difficulty: "challenging", special: true,
		staff: []int{2},
		kids: []seedKid{
			{name: "Noah Patel", ratio: "1:1", oneOn: true, note: "Personal trainer required for pool time"},
		},
	},
	{
		site: "Eastside Gym", dayOffset: 2, startHour: 12, hours: 6,
		ratioMin: 2, leads: 2, difficulty: "special", open: true,
		staff: []int{1, -1},
		kids: []seedKid{
			{name: "Lena Okafor", ratio: "1:2"},
			{name: "Sam Rivera", ratio: "1:4"},
			{name: "Ivy Brooks", ratio: "1:2", note: "Allergic to peanuts"},
		},
	},
	{
		site: "Eastside Gym", dayOffset: 4, startHour: 7, hours: 9,
		ratioMin: 3, leads: 1, difficulty: "standard",
		staff: []int{0},
	},
}

// Seed creates the demo campus, its three sign-ins and a week of shifts.
// It does nothing when the campus already exists.
func Seed(ctx context.Context, db *gorm.DB, bcryptCost int) error {
	var count int64
	if err := db.WithContext(ctx).Model(&AccountRecord{}).Where(&AccountRecord{Name: DemoAccountName}).Count(&count).Error; err != nil {
		return fmt.Errorf("devserver.Seed -> %w", err)
	}
	if count > 0 {
		return nil
	}

	now := time.Now().UTC()
	day := now.Truncate(24 * time.Hour)

	account := AccountRecord{
		ID:             uuid.NewString(),
		Name:           DemoAccountName,
		Timezone:       "America/Los_Angeles",
		BrandPrimary:   "#0ea5e9",
		GeofenceLat:    34.052235,
		GeofenceLon:    -118.243683,
		GeofenceRadius: 1600,
	}

	staff := make([]StaffRecord, 0, len(DemoCredentials))
	for _, cred := range DemoCredentials {
		hash, err := auth.HashPassword(cred.Password, bcryptCost)
		if err != nil {
			return fmt.Errorf("devserver.Seed -> %w", err)
		}
		expires := now.Add(30 * 24 * time.Hour)
		invited := now
		staff = append(staff, StaffRecord{
			ID:              uuid.NewString(),
			FullName:        cred.FullName,
			Email:           cred.Email,
			Role:            cred.Role,
			Status:          "active",
			PasswordHash:    hash,
			InvitedAt:       &invited,
			InviteExpiresAt: &expires,
		})
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&account).Error; err != nil {
			return err
		}
		for i := range staff {
			if err := tx.Create(&staff[i]).Error; err != nil {
				return err
			}
			if err := tx.Create(&MembershipRecord{StaffID: staff[i].ID, AccountID: account.ID}).Error; err != nil {
				return err
			}
		}

		for _, plan := range demoShifts {
			start := day.Add(time.Duration(plan.dayOffset)*24*time.Hour + time.Duration(plan.startHour)*time.Hour)
			shift := ShiftRecord{
				ID:             uuid.NewString(),
				AccountGroupID: account.ID,
				Site:           plan.site,
				StartTime:      start,
				EndTime:        start.Add(time.Duration(plan.hours) * time.Hour),
				RatioMin:       plan.ratioMin,
				LeadsRequired:  plan.leads,
				IsSpecial:      plan.special,
				Difficulty:     plan.difficulty,
				OpenShift:      plan.open,
			}
			if err := tx.Create(&shift).Error; err != nil {
				return err
			}

			var firstAssignment string
			for i, idx := range plan.staff {
				assignment := AssignmentRecord{
					ID:               uuid.NewString(),
					ShiftID:          shift.ID,
					Title:            "Kid assignment",
					DifficultyRating: 2 + i,
					CreatedAt:        start.Add(time.Duration(i) * time.Second),
				}
				if idx >= 0 {
					assignment.StaffID = &staff[idx].ID
				}
				if err := tx.Create(&assignment).Error; err != nil {
					return err
				}
				if firstAssignment == "" {
					firstAssignment = assignment.ID
				}
			}

			for _, k := range plan.kids {
				shiftID := shift.ID
				kid := KidRecord{
					ID:                      uuid.NewString(),
					FullName:                k.name,
					Ratio:                   k.ratio,
					SpecialInstructions:     k.note,
					BannedStaff:             []string{},
					RequiresPersonalTrainer: k.oneOn,
					AccountGroupID:          account.ID,
					ShiftID:                 &shiftID,
				}
				if firstAssignment != "" {
					assignmentID := firstAssignment
					kid.AssignmentID = &assignmentID
				}
				if err := tx.Create(&kid).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("devserver.Seed -> %w", err)
	}
	return nil
}
