package models

import (
	"encoding/json"

	validation "github.com/go-ozzo/ozzo-validation"
)

// ShiftDraft is a partial shift used for optimistic updates and PATCH bodies.
// Nil fields are left untouched when merged into a cached shift.
type ShiftDraft struct {
	ID            string `json:"-"`
	RatioMin      *int   `json:"ratio_min,omitempty"`
	LeadsRequired *int   `json:"leads_required,omitempty"`
	IsSpecial     *bool  `json:"is_special,omitempty"`
	OpenShift     *bool  `json:"openShift,omitempty"`
}

// Key returns the id of the shift the draft targets
func (d ShiftDraft) Key() string { return d.ID }

// Merge overlays the set draft fields on existing and returns the result
func (d ShiftDraft) Merge(existing ShiftEvent) ShiftEvent {
	merged := existing
	merged.ID = d.ID
	if d.RatioMin != nil {
		merged.RatioMin = d.RatioMin
	}
	if d.LeadsRequired != nil {
		merged.LeadsRequired = *d.LeadsRequired
	}
	if d.IsSpecial != nil {
		merged.IsSpecial = d.IsSpecial
	}
	if d.OpenShift != nil {
		merged.OpenShift = d.OpenShift
	}
	return merged
}

// Materialize builds a shift holding only the draft's fields
func (d ShiftDraft) Materialize() ShiftEvent {
	return d.Merge(ShiftEvent{})
}

// Empty reports whether the draft changes nothing
func (d ShiftDraft) Empty() bool {
	return d.RatioMin == nil && d.LeadsRequired == nil && d.IsSpecial == nil && d.OpenShift == nil
}

// SignupPayload is the body of POST /auth/signup
type SignupPayload struct {
	FullName    string    `json:"full_name"`
	Email       string    `json:"email"`
	Password    string    `json:"password"`
	Company     string    `json:"company,omitempty"`
	AccountName string    `json:"account_name,omitempty"`
	Timezone    string    `json:"timezone,omitempty"`
	Branding    *Branding `json:"branding,omitempty"`
	Geofence    *Geofence `json:"geofence,omitempty"`
}

// AuthResponse is returned by login and signup
type AuthResponse struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type,omitempty"`
	ExpiresAt   *Timestamp     `json:"expires_at,omitempty"`
	Staff       StaffMember    `json:"staff"`
	Accounts    []AccountGroup `json:"accounts"`
}

// Validate checks the token and the embedded identity
func (r AuthResponse) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.AccessToken, validation.Required),
		validation.Field(&r.Staff),
		validation.Field(&r.Accounts),
	)
}

// SessionPayload is returned by GET /auth/me
type SessionPayload struct {
	Staff    StaffMember    `json:"staff"`
	Accounts []AccountGroup `json:"accounts"`
}

// Validate checks the embedded identity
func (p SessionPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Staff),
		validation.Field(&p.Accounts),
	)
}

// NewStaff is the body of POST /accounts/:id/staff
type NewStaff struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	Password string `json:"password"`
}

// NewShift is the body of POST /shifts
type NewShift struct {
	AccountGroupID string    `json:"account_group_id"`
	Site           string    `json:"site,omitempty"`
	StartTime      Timestamp `json:"start_time"`
	EndTime        Timestamp `json:"end_time"`
	RatioMin       *int      `json:"ratio_min,omitempty"`
	LeadsRequired  *int      `json:"leads_required,omitempty"`
	IsSpecial      bool      `json:"is_special,omitempty"`
	Difficulty     string    `json:"difficulty,omitempty"`
	OpenShift      bool      `json:"openShift,omitempty"`
}

// MarshalJSON sends naive ISO timestamps, which the API parses with fromisoformat
func (n NewShift) MarshalJSON() ([]byte, error) {
	type alias NewShift
	return json.Marshal(struct {
		alias
		StartTime string `json:"start_time"`
		EndTime   string `json:"end_time"`
	}{
		alias:     alias(n),
		StartTime: n.StartTime.UTC().Format("2006-01-02T15:04:05"),
		EndTime:   n.EndTime.UTC().Format("2006-01-02T15:04:05"),
	})
}

// NewKid is the body of POST /accounts/:id/kids
type NewKid struct {
	Name                string   `json:"name"`
	Ratio               string   `json:"ratio,omitempty"`
	RequiresOneOnOne    bool     `json:"requiresOneOnOne"`
	Bans                []string `json:"bans,omitempty"`
	SpecialInstructions string   `json:"specialInstructions,omitempty"`
	ShiftID             string   `json:"shift_id,omitempty"`
	AssignmentID        string   `json:"assignment_id,omitempty"`
}

// UtilizationAverages holds per-shift averages of the utilization report
type UtilizationAverages struct {
	AssignmentsPerShift float64 `json:"assignments_per_shift"`
}

// UtilizationReport is returned by GET /reports/staff-utilization
type UtilizationReport struct {
	TotalShifts    int                 `json:"total_shifts"`
	RatioCompliant int                 `json:"ratio_compliant"`
	OpenShifts     int                 `json:"open_shifts"`
	Averages       UtilizationAverages `json:"averages"`
}

// RoleLoad counts assignments held by one role and how many are hard (difficulty >= 4)
type RoleLoad struct {
	Count int `json:"count"`
	Hard  int `json:"hard"`
}

// RatioComplianceReport is returned by GET /reports/ratio-compliance
type RatioComplianceReport struct {
	ByRole map[string]RoleLoad `json:"by_role"`
}

// APIMessage is the generic {"message": "..."} acknowledgement
type APIMessage struct {
	Message string `json:"message"`
}

// Created is the {"id": "..."} body returned when a resource is created
type Created struct {
	ID string `json:"id"`
}

// RequestReceipt acknowledges an open-shift request
type RequestReceipt struct {
	Message      string `json:"message"`
	AssignmentID string `json:"assignment_id"`
}

// GeofenceCheck is the server-side geofence verdict for an assignment
type GeofenceCheck struct {
	Allowed bool `json:"allowed"`
}

// PushRegistration is the body of POST /notifications/register
type PushRegistration struct {
	StaffID string `json:"staff_id"`
	Token   string `json:"token"`
}

// StaffRoster is returned by GET /accounts/:id/staff
type StaffRoster struct {
	Staff []StaffMember `json:"staff"`
}

// Validate checks every roster member
func (r StaffRoster) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Staff),
	)
}
