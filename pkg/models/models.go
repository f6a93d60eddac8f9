package models

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// Role is the staff role enum shared by staff members, shifts and assignments
type Role string

const (
	RoleOwnerAdmin               Role = "Owner_admin"
	RoleAdmin                    Role = "Admin"
	RoleStaff                    Role = "Staff"
	RoleDriver                   Role = "Driver"
	RoleTrainer                  Role = "Trainer"
	RoleAssistantLead            Role = "Assistant Lead"
	RoleLead                     Role = "Lead"
	RoleResidenceManager         Role = "Residence Manager"
	RoleAssistantProgramDirector Role = "Assistant Program Director"
	RoleDirector                 Role = "Director"
)

// Roles lists every supported role in display order
var Roles = []Role{
	RoleOwnerAdmin,
	RoleAdmin,
	RoleStaff,
	RoleDriver,
	RoleTrainer,
	RoleAssistantLead,
	RoleLead,
	RoleResidenceManager,
	RoleAssistantProgramDirector,
	RoleDirector,
}

// Valid reports whether r is one of the supported roles
func (r Role) Valid() bool {
	for _, role := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// CanManage reports whether the role may manage staff and account settings
func (r Role) CanManage() bool {
	switch r {
	case RoleOwnerAdmin, RoleAdmin, RoleAssistantProgramDirector:
		return true
	}
	return false
}

// CanSchedule reports whether the role may view and work scheduled assignments
func (r Role) CanSchedule() bool {
	return r.Valid() && r != RoleDriver
}

func roleRules() []interface{} {
	values := make([]interface{}, len(Roles))
	for i, role := range Roles {
		values[i] = role
	}
	return values
}

// Branding holds the tenant's display colors
type Branding struct {
	PrimaryColor string `json:"primaryColor"`
	LogoURL      string `json:"logoUrl,omitempty"`
}

// Geofence is the circular on-site boundary of a tenant
type Geofence struct {
	Lat          float64 `json:"lat"`
	Lon          float64 `json:"lon"`
	RadiusMeters float64 `json:"radiusMeters"`
}

// Validate checks coordinate ranges and the radius
func (g Geofence) Validate() error {
	return validation.ValidateStruct(&g,
		validation.Field(&g.Lat, validation.Min(-90.0), validation.Max(90.0)),
		validation.Field(&g.Lon, validation.Min(-180.0), validation.Max(180.0)),
		validation.Field(&g.RadiusMeters, validation.Min(0.0)),
	)
}

// AccountGroup represents a tenant (care site) with its own staff, shifts and geofence
type AccountGroup struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Timezone string   `json:"timezone,omitempty"`
	Branding Branding `json:"branding"`
	Geofence Geofence `json:"geofence"`
}

// Key returns the identity used for list reconciliation
func (a AccountGroup) Key() string { return a.ID }

// Validate checks the fields the console relies on
func (a AccountGroup) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.ID, validation.Required),
		validation.Field(&a.Geofence),
	)
}

// StaffMember represents an authenticated user or a roster entry
type StaffMember struct {
	ID                 string     `json:"id"`
	FullName           string     `json:"full_name"`
	Role               Role       `json:"role"`
	Email              string     `json:"email"`
	Status             string     `json:"status,omitempty"`
	AssignedAccountIDs []string   `json:"assigned_account_ids,omitempty"`
	InviteExpiresAt    *Timestamp `json:"invite_expires_at,omitempty"`
}

// Key returns the identity used for list reconciliation
func (s StaffMember) Key() string { return s.ID }

// Validate checks identity, role and email format
func (s StaffMember) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.ID, validation.Required),
		validation.Field(&s.Role, validation.In(roleRules()...)),
		validation.Field(&s.Email, is.Email),
	)
}

// KidDetails represents a kid placed on a shift or assignment
type KidDetails struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	Ratio               string   `json:"ratio"`
	RequiresOneOnOne    bool     `json:"requiresOneOnOne"`
	Bans                []string `json:"bans,omitempty"`
	SpecialInstructions string   `json:"specialInstructions,omitempty"`
	AssignmentID        string   `json:"assignment_id,omitempty"`
	ShiftID             string   `json:"shift_id,omitempty"`
	AccountGroupID      string   `json:"account_group_id,omitempty"`
}

// Key returns the identity used for list reconciliation
func (k KidDetails) Key() string { return k.ID }

// Validate checks the kid identity
func (k KidDetails) Validate() error {
	return validation.ValidateStruct(&k,
		validation.Field(&k.ID, validation.Required),
	)
}

// Assignment represents one staff slot on a shift
type Assignment struct {
	ID               string       `json:"id"`
	ShiftID          string       `json:"shift_id,omitempty"`
	StaffID          string       `json:"staff_id,omitempty"`
	Site             string       `json:"site,omitempty"`
	Title            string       `json:"title"`
	Difficulty       int          `json:"difficulty"`
	Kids             []KidDetails `json:"kids"`
	Instructions     string       `json:"instructions,omitempty"`
	RequiresOneOnOne bool         `json:"requiresOneOnOne"`
	KidsCount        *int         `json:"kidsCount,omitempty"`
	StaffRole        Role         `json:"staff_role,omitempty"`
}

// Key returns the identity used for list reconciliation
func (a Assignment) Key() string { return a.ID }

// Filled reports whether a staff member holds the slot
func (a Assignment) Filled() bool { return a.StaffID != "" }

// Validate checks identity, difficulty range and nested kids
func (a Assignment) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.ID, validation.Required),
		validation.Field(&a.Difficulty, validation.Min(1), validation.Max(5)),
		validation.Field(&a.Kids),
	)
}

// ShiftEvent represents a scheduled shift with its assignments
type ShiftEvent struct {
	ID                  string       `json:"id"`
	AccountGroupID      string       `json:"account_group_id,omitempty"`
	StartTime           Timestamp    `json:"start_time"`
	EndTime             Timestamp    `json:"end_time"`
	RatioMin            *int         `json:"ratio_min,omitempty"`
	Role                Role         `json:"role,omitempty"`
	Difficulty          string       `json:"difficulty,omitempty"`
	Site                string       `json:"site"`
	IsSpecial           *bool        `json:"is_special,omitempty"`
	LeadsRequired       int          `json:"leadsRequired"`
	Assignments         []Assignment `json:"assignments"`
	OpenShift           *bool        `json:"openShift,omitempty"`
	Kids                []KidDetails `json:"kids,omitempty"`
	PendingAssignmentID string       `json:"pendingAssignmentId,omitempty"`
	DurationHours       *float64     `json:"durationHours,omitempty"`
}

// Key returns the identity used for list reconciliation
func (s ShiftEvent) Key() string { return s.ID }

// MinimumRatio returns ratio_min, defaulting to 1 when the server omitted it
func (s ShiftEvent) MinimumRatio() int {
	if s.RatioMin == nil {
		return 1
	}
	return *s.RatioMin
}

// RatioMet reports whether the shift has at least ratio_min assignments.
// Read-only; enforcement happens server-side.
func (s ShiftEvent) RatioMet() bool {
	return len(s.Assignments) >= s.MinimumRatio()
}

// IsOpen reports whether the shift is flagged for open-shift broadcast
func (s ShiftEvent) IsOpen() bool {
	return s.OpenShift != nil && *s.OpenShift
}

// Validate checks identity, role and nested assignments and kids
func (s ShiftEvent) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.ID, validation.Required),
		validation.Field(&s.Role, validation.In(roleRules()...)),
		validation.Field(&s.RatioMin, validation.Min(0)),
		validation.Field(&s.Assignments),
		validation.Field(&s.Kids),
	)
}

// Int returns a pointer to v
func Int(v int) *int { return &v }

// Bool returns a pointer to v
func Bool(v bool) *bool { return &v }
