package devserver

import (
	"time"

	"github.com/arnavshah/staffmonitr-go/pkg/models"
)

// AccountRecord represents the accounts table
type AccountRecord struct {
	ID             string `gorm:"primaryKey"`
	Name           string `gorm:"not null"`
	Timezone       string
	BrandPrimary   string
	LogoURL        string
	GeofenceLat    float64
	GeofenceLon    float64
	GeofenceRadius float64
	CreatedAt      time.Time
}

func (AccountRecord) TableName() string { return "accounts" }

// StaffRecord represents the staff_members table
type StaffRecord struct {
	ID              string `gorm:"primaryKey"`
	FullName        string `gorm:"not null"`
	Email           string `gorm:"uniqueIndex;not null"`
	Role            string `gorm:"not null"`
	Status          string
	PasswordHash    string
	InvitedAt       *time.Time
	InviteExpiresAt *time.Time
	CreatedAt       time.Time
}

func (StaffRecord) TableName() string { return "staff_members" }

// MembershipRecord links staff to the accounts they may work in
type MembershipRecord struct {
	StaffID   string `gorm:"primaryKey"`
	AccountID string `gorm:"primaryKey"`
}

func (MembershipRecord) TableName() string { return "memberships" }

// ShiftRecord represents the shifts table
type ShiftRecord struct {
	ID             string    `gorm:"primaryKey"`
	AccountGroupID string    `gorm:"index;not null"`
	Site           string
	StartTime      time.Time `gorm:"index"`
	EndTime        time.Time
	RatioMin       int
	LeadsRequired  int
	IsSpecial      bool
	Difficulty     string
	OpenShift      bool `gorm:"index"`
}

func (ShiftRecord) TableName() string { return "shifts" }

// AssignmentRecord represents the assignments table
type AssignmentRecord struct {
	ID               string  `gorm:"primaryKey"`
	ShiftID          string  `gorm:"index;not null"`
	StaffID          *string `gorm:"index"`
	Title            string
	DifficultyRating int
	Instructions     string
	RequiresOneOnOne bool
	CreatedAt        time.Time
}

func (AssignmentRecord) TableName() string { return "assignments" }

// KidRecord represents the kids table
type KidRecord struct {
	ID                      string `gorm:"primaryKey"`
	FullName                string `gorm:"not null"`
	Ratio                   string
	SpecialInstructions     string
	BannedStaff             []string `gorm:"serializer:json"`
	RequiresPersonalTrainer bool
	AccountGroupID          string  `gorm:"index"`
	ShiftID                 *string `gorm:"index"`
	AssignmentID            *string `gorm:"index"`
	CreatedAt               time.Time
}

func (KidRecord) TableName() string { return "kids" }

// PushTokenRecord holds the latest device token per staff member
type PushTokenRecord struct {
	StaffID   string `gorm:"primaryKey"`
	Token     string `gorm:"not null"`
	UpdatedAt time.Time
}

func (PushTokenRecord) TableName() string { return "push_tokens" }

// Models lists every table the server migrates
func Models() []interface{} {
	return []interface{}{
		&AccountRecord{},
		&StaffRecord{},
		&MembershipRecord{},
		&ShiftRecord{},
		&AssignmentRecord{},
		&KidRecord{},
		&PushTokenRecord{},
	}
}

func accountPayload(a AccountRecord) models.AccountGroup {
	return models.AccountGroup{
		ID:       a.ID,
		Name:     a.Name,
		Timezone: a.Timezone,
		Branding: models.Branding{PrimaryColor: a.BrandPrimary, LogoURL: a.LogoURL},
		Geofence: models.Geofence{Lat: a.GeofenceLat, Lon: a.GeofenceLon, RadiusMeters: a.GeofenceRadius},
	}
}

func staffPayload(s StaffRecord, accountIDs []string) models.StaffMember {
	out := models.StaffMember{
		ID:                 s.ID,
		FullName:           s.FullName,
		Role:               models.Role(s.Role),
		Email:              s.Email,
		Status:             s.Status,
		AssignedAccountIDs: accountIDs,
	}
	if s.InviteExpiresAt != nil {
		ts := models.NewTimestamp(*s.InviteExpiresAt)
		out.InviteExpiresAt = &ts
	}
	return out
}

func kidPayload(k KidRecord) models.KidDetails {
	return models.KidDetails{
		ID:                  k.ID,
		Name:                k.FullName,
		Ratio:               k.Ratio,
		RequiresOneOnOne:    k.RequiresPersonalTrainer,
		Bans:                k.BannedStaff,
		SpecialInstructions: k.SpecialInstructions,
		ShiftID:             deref(k.ShiftID),
		AssignmentID:        deref(k.AssignmentID),
		AccountGroupID:      k.AccountGroupID,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
