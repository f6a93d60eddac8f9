package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/arnavshah/staffmonitr-go/pkg/models"
)

// Me returns the identity behind the current token
func (c *Client) Me(ctx context.Context) (models.SessionPayload, error) {
	var out models.SessionPayload
	err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &out)
	return out, err
}

// Login exchanges credentials for a token
func (c *Client) Login(ctx context.Context, email, password string) (models.AuthResponse, error) {
	var out models.AuthResponse
	in := map[string]string{"email": email, "password": password}
	err := c.do(ctx, http.MethodPost, "/auth/login", nil, in, &out)
	return out, err
}

// Signup creates a workspace and its owner
func (c *Client) Signup(ctx context.Context, payload models.SignupPayload) (models.AuthResponse, error) {
	var out models.AuthResponse
	err := c.do(ctx, http.MethodPost, "/auth/signup", nil, payload, &out)
	return out, err
}

// ListShifts returns the account's shifts with assignments and kids expanded.
// role optionally restricts to shifts staffed by that role.
func (c *Client) ListShifts(ctx context.Context, accountID string, role models.Role) ([]models.ShiftEvent, error) {
	q := url.Values{}
	q.Set("account_id", accountID)
	q.Set("expand", "assignments,kids")
	if role != "" {
		q.Set("role", string(role))
	}

	var out []models.ShiftEvent
	if err := c.do(ctx, http.MethodGet, "/shifts", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateShift creates a shift and returns its id
func (c *Client) CreateShift(ctx context.Context, shift models.NewShift) (string, error) {
	var out models.Created
	err := c.do(ctx, http.MethodPost, "/shifts", nil, shift, &out)
	return out.ID, err
}

// UpdateShift sends the draft's set fields as a PATCH
func (c *Client) UpdateShift(ctx context.Context, draft models.ShiftDraft) error {
	return c.do(ctx, http.MethodPatch, "/shifts/"+url.PathEscape(draft.ID), nil, draft, nil)
}

// ListOpenShifts returns every shift flagged open
func (c *Client) ListOpenShifts(ctx context.Context) ([]models.ShiftEvent, error) {
	var out []models.ShiftEvent
	if err := c.do(ctx, http.MethodGet, "/assignments/open", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RequestOpenShift asks for the assignment on behalf of staffID; an empty
// staffID sends an empty body.
func (c *Client) RequestOpenShift(ctx context.Context, assignmentID, staffID string) (models.RequestReceipt, error) {
	in := map[string]string{}
	if staffID != "" {
		in["staff_id"] = staffID
	}

	var out models.RequestReceipt
	err := c.do(ctx, http.MethodPost, "/assignments/"+url.PathEscape(assignmentID)+"/request", nil, in, &out)
	return out, err
}

// ValidateGeofence asks the server whether the point is inside the
// assignment's site geofence.
func (c *Client) ValidateGeofence(ctx context.Context, assignmentID string, lat, lon float64) (bool, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))

	var out models.GeofenceCheck
	err := c.do(ctx, http.MethodGet, "/assignments/"+url.PathEscape(assignmentID)+"/validate-geofence", q, nil, &out)
	return out.Allowed, err
}

// ListAccountStaff returns the account's roster
func (c *Client) ListAccountStaff(ctx context.Context, accountID string) ([]models.StaffMember, error) {
	var out models.StaffRoster
	if err := c.do(ctx, http.MethodGet, "/accounts/"+url.PathEscape(accountID)+"/staff", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Staff, nil
}

// CreateAccountStaff adds a staff member to the account
func (c *Client) CreateAccountStaff(ctx context.Context, accountID string, staff models.NewStaff) (models.StaffMember, error) {
	var out models.StaffMember
	err := c.do(ctx, http.MethodPost, "/accounts/"+url.PathEscape(accountID)+"/staff", nil, staff, &out)
	return out, err
}

// ListKids returns the account's kids ordered by name
func (c *Client) ListKids(ctx context.Context, accountID string) ([]models.KidDetails, error) {
	var out []models.KidDetails
	if err := c.do(ctx, http.MethodGet, "/accounts/"+url.PathEscape(accountID)+"/kids", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateKid adds a kid to the account
func (c *Client) CreateKid(ctx context.Context, accountID string, kid models.NewKid) (models.KidDetails, error) {
	var out models.KidDetails
	err := c.do(ctx, http.MethodPost, "/accounts/"+url.PathEscape(accountID)+"/kids", nil, kid, &out)
	return out, err
}

// RegisterPushToken records a device token for staffID
func (c *Client) RegisterPushToken(ctx context.Context, staffID, token string) error {
	in := models.PushRegistration{StaffID: staffID, Token: token}
	return c.do(ctx, http.MethodPost, "/notifications/register", nil, in, nil)
}

// SendAssignmentAlert asks the server to notify the assignment's holder
func (c *Client) SendAssignmentAlert(ctx context.Context, assignmentID string) error {
	return c.do(ctx, http.MethodPost, "/notifications/assignment/"+url.PathEscape(assignmentID), nil, nil, nil)
}

// StaffUtilization returns shift totals; a zero since covers every shift
func (c *Client) StaffUtilization(ctx context.Context, since time.Time) (models.UtilizationReport, error) {
	var q url.Values
	if !since.IsZero() {
		q = url.Values{"since": {since.UTC().Format("2006-01-02T15:04:05")}}
	}

	var out models.UtilizationReport
	err := c.do(ctx, http.MethodGet, "/reports/staff-utilization", q, nil, &out)
	return out, err
}

// RatioCompliance returns assignment load grouped by staff role
func (c *Client) RatioCompliance(ctx context.Context) (models.RatioComplianceReport, error) {
	var out models.RatioComplianceReport
	err := c.do(ctx, http.MethodGet, "/reports/ratio-compliance", nil, nil, &out)
	return out, err
}
