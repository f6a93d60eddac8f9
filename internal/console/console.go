package console

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/arnavshah/staffmonitr-go/pkg/account"
	"github.com/arnavshah/staffmonitr-go/pkg/api"
	"github.com/arnavshah/staffmonitr-go/pkg/auth"
	"github.com/arnavshah/staffmonitr-go/pkg/geofence"
	"github.com/arnavshah/staffmonitr-go/pkg/models"
	"github.com/arnavshah/staffmonitr-go/pkg/optimistic"
	"github.com/arnavshah/staffmonitr-go/pkg/scheduler"
	"github.com/arnavshah/staffmonitr-go/pkg/store"
)

var (
	ErrNotAuthenticated = errors.New("not signed in")
	ErrShiftNotLoaded   = errors.New("shift is not loaded")
	ErrNoOpenSpot       = errors.New("shift has no open assignment")
	ErrNotOwnerAdmin    = errors.New("only owner administrators can manage the team")
	ErrCannotManage     = errors.New("your role cannot change the schedule")
	ErrCannotSchedule   = errors.New("your role cannot take scheduled shifts")
	ErrNoAssignment     = errors.New("no assignment held in the loaded shifts")
)

// API is the part of the staffing API the console talks to
type API interface {
	ListShifts(ctx context.Context, accountID string, role models.Role) ([]models.ShiftEvent, error)
	CreateShift(ctx context.Context, shift models.NewShift) (string, error)
	UpdateShift(ctx context.Context, draft models.ShiftDraft) error
	ListOpenShifts(ctx context.Context) ([]models.ShiftEvent, error)
	RequestOpenShift(ctx context.Context, assignmentID, staffID string) (models.RequestReceipt, error)
	ValidateGeofence(ctx context.Context, assignmentID string, lat, lon float64) (bool, error)
	ListAccountStaff(ctx context.Context, accountID string) ([]models.StaffMember, error)
	CreateAccountStaff(ctx context.Context, accountID string, staff models.NewStaff) (models.StaffMember, error)
	ListKids(ctx context.Context, accountID string) ([]models.KidDetails, error)
	CreateKid(ctx context.Context, accountID string, kid models.NewKid) (models.KidDetails, error)
	RegisterPushToken(ctx context.Context, staffID, token string) error
	SendAssignmentAlert(ctx context.Context, assignmentID string) error
	StaffUtilization(ctx context.Context, since time.Time) (models.UtilizationReport, error)
	RatioCompliance(ctx context.Context) (models.RatioComplianceReport, error)
}

// ActionError carries a message fit for display next to the cause
type ActionError struct {
	Message string
	Err     error
}

func (e *ActionError) Error() string { return e.Message }

func (e *ActionError) Unwrap() error { return e.Err }

// Options tunes a Console
type Options struct {
	// DefaultStaffID is sent with open-shift requests instead of the
	// signed-in staff member when set.
	DefaultStaffID string
	Logger         *zap.Logger
}

// Console drives the scheduling workflows for the selected account
type Console struct {
	api      API
	session  *auth.Session
	selector *account.Selector
	store    *store.ScheduleStore
	opts     Options
	logger   *zap.Logger
}

// New wires a console to its collaborators
func New(client API, session *auth.Session, selector *account.Selector, st *store.ScheduleStore, opts Options) *Console {
	logger := opts.Logger
	if logger == nil {
		logger = zap.L()
	}
	return &Console{
		api:      client,
		session:  session,
		selector: selector,
		store:    st,
		opts:     opts,
		logger:   logger,
	}
}

func (c *Console) requireStaff() (models.StaffMember, error) {
	state := c.session.State()
	if !state.IsAuthenticated() {
		return models.StaffMember{}, ErrNotAuthenticated
	}
	return *state.CurrentStaff, nil
}

func (c *Console) requireManager() error {
	staff, err := c.requireStaff()
	if err != nil {
		return err
	}
	if !staff.Role.CanManage() {
		return ErrCannotManage
	}
	return nil
}

// LoadDashboard fetches the selected account's shifts into the store and
// returns the dashboard counters.
func (c *Console) LoadDashboard(ctx context.Context) (scheduler.Stats, error) {
	if _, err := c.requireStaff(); err != nil {
		return scheduler.Stats{}, err
	}

	shifts, err := c.api.ListShifts(ctx, c.selector.Selected().ID, "")
	if err != nil {
		return scheduler.Stats{}, fmt.Errorf("console.LoadDashboard -> %w", err)
	}
	c.store.LoadShifts(shifts)
	return scheduler.Summarize(shifts), nil
}

// Insights are derived workload figures for the loaded shifts
type Insights struct {
	FairnessScore float64
	Conflicts     []scheduler.Conflict
}

// Insights scores how evenly hours are spread and lists double bookings
func (c *Console) Insights() Insights {
	shifts := c.store.Shifts()
	return Insights{
		FairnessScore: scheduler.CalculateFairnessScore(scheduler.StaffHours(shifts)),
		Conflicts:     scheduler.DoubleBookings(shifts),
	}
}

// CalendarDays groups the loaded shifts by start day in the account's timezone
func (c *Console) CalendarDays() []scheduler.Day {
	return scheduler.GroupByDay(c.store.Shifts(), c.location())
}

func (c *Console) location() *time.Location {
	tz := c.selector.Selected().Timezone
	if tz == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		c.logger.Debug("unknown account timezone", zap.String("timezone", tz), zap.Error(err))
		return time.Local
	}
	return loc
}

// SetRatio applies ratio_min to the cached shift at once and persists it.
// A failed update restores the shift list as it was before the call.
func (c *Console) SetRatio(ctx context.Context, shiftID string, ratio int) error {
	draft := models.ShiftDraft{ID: shiftID, RatioMin: models.Int(ratio)}
	err := optimistic.Mutate(ctx, c.store.Shifts(), c.store.SetShifts, draft, func(ctx context.Context) error {
		return c.api.UpdateShift(ctx, draft)
	})
	if err != nil {
		c.logger.Warn("ratio update rolled back", zap.String("shift_id", shiftID), zap.Error(err))
		return fmt.Errorf("console.SetRatio -> %w", err)
	}
	return nil
}

// CreateShift adds a shift to the selected account and appends it to the
// cached calendar. Managers only.
func (c *Console) CreateShift(ctx context.Context, shift models.NewShift) (models.ShiftEvent, error) {
	if err := c.requireManager(); err != nil {
		return models.ShiftEvent{}, err
	}
	if shift.AccountGroupID == "" {
		shift.AccountGroupID = c.selector.Selected().ID
	}

	id, err := c.api.CreateShift(ctx, shift)
	if err != nil {
		return models.ShiftEvent{}, &ActionError{Message: api.Message(err, "Unable to create shift."), Err: err}
	}

	created := models.ShiftEvent{
		ID:             id,
		AccountGroupID: shift.AccountGroupID,
		StartTime:      shift.StartTime,
		EndTime:        shift.EndTime,
		RatioMin:       shift.RatioMin,
		Site:           shift.Site,
		Difficulty:     shift.Difficulty,
		IsSpecial:      models.Bool(shift.IsSpecial),
		OpenShift:      models.Bool(shift.OpenShift),
		Assignments:    []models.Assignment{},
	}
	if shift.LeadsRequired != nil {
		created.LeadsRequired = *shift.LeadsRequired
	}
	c.store.AppendShift(created)
	return created, nil
}

// IncreaseRatio raises the shift's ratio_min by one and returns the new value
func (c *Console) IncreaseRatio(ctx context.Context, shiftID string) (int, error) {
	shift, ok := c.store.Shift(shiftID)
	if !ok {
		return 0, ErrShiftNotLoaded
	}
	next := shift.MinimumRatio() + 1
	if err := c.SetRatio(ctx, shiftID, next); err != nil {
		return 0, err
	}
	return next, nil
}

// LoadOpenShifts fetches the open-shift pool into the store
func (c *Console) LoadOpenShifts(ctx context.Context) ([]models.ShiftEvent, error) {
	if _, err := c.requireStaff(); err != nil {
		return nil, err
	}
	shifts, err := c.api.ListOpenShifts(ctx)
	if err != nil {
		return nil, fmt.Errorf("console.LoadOpenShifts -> %w", err)
	}
	c.store.SetOpenShifts(shifts)
	return shifts, nil
}

// OpenShiftSites lists the distinct sites among loaded open shifts
func (c *Console) OpenShiftSites() []string {
	return scheduler.Sites(c.store.OpenShifts())
}

// RequestOpenShift claims the pending assignment of a loaded open shift and
// drops the shift from the pool once the API accepts. The assignment holder
// is then alerted; a failed alert does not undo the claim.
func (c *Console) RequestOpenShift(ctx context.Context, shiftID string) (models.RequestReceipt, error) {
	staff, err := c.requireStaff()
	if err != nil {
		return models.RequestReceipt{}, err
	}
	if !staff.Role.CanSchedule() {
		return models.RequestReceipt{}, ErrCannotSchedule
	}
	shift, ok := c.store.OpenShift(shiftID)
	if !ok {
		return models.RequestReceipt{}, ErrShiftNotLoaded
	}
	if shift.PendingAssignmentID == "" {
		return models.RequestReceipt{}, ErrNoOpenSpot
	}

	staffID := c.opts.DefaultStaffID
	if staffID == "" {
		staffID = staff.ID
	}

	receipt, err := c.api.RequestOpenShift(ctx, shift.PendingAssignmentID, staffID)
	if err != nil {
		return models.RequestReceipt{}, &ActionError{Message: api.Message(err, "Unable to request shift."), Err: err}
	}
	c.store.RemoveOpenShift(shiftID)

	if err := c.api.SendAssignmentAlert(ctx, receipt.AssignmentID); err != nil {
		c.logger.Warn("assignment alert failed", zap.String("assignment_id", receipt.AssignmentID), zap.Error(err))
	}
	return receipt, nil
}

// LoadKids fetches the selected account's kids into the store
func (c *Console) LoadKids(ctx context.Context) ([]models.KidDetails, error) {
	if _, err := c.requireStaff(); err != nil {
		return nil, err
	}
	kids, err := c.api.ListKids(ctx, c.selector.Selected().ID)
	if err != nil {
		return nil, fmt.Errorf("console.LoadKids -> %w", err)
	}
	c.store.SetKids(kids)
	return kids, nil
}

// AddKid creates a kid in the selected account and adds it to the cached
// kids. Managers only.
func (c *Console) AddKid(ctx context.Context, kid models.NewKid) (models.KidDetails, error) {
	if err := c.requireManager(); err != nil {
		return models.KidDetails{}, err
	}
	created, err := c.api.CreateKid(ctx, c.selector.Selected().ID, kid)
	if err != nil {
		return models.KidDetails{}, &ActionError{Message: api.Message(err, "Unable to add kid."), Err: err}
	}
	c.store.SetKids(append(c.store.Kids(), created))
	return created, nil
}

// KidsByRatio groups the cached kids by ratio label
func (c *Console) KidsByRatio() []scheduler.RatioGroup {
	return scheduler.KidsByRatio(c.store.Kids())
}

func (c *Console) requireOwnerAdmin() error {
	staff, err := c.requireStaff()
	if err != nil {
		return err
	}
	if staff.Role != models.RoleOwnerAdmin {
		return ErrNotOwnerAdmin
	}
	return nil
}

// Team returns the selected account's roster. Owner admins only.
func (c *Console) Team(ctx context.Context) ([]models.StaffMember, error) {
	if err := c.requireOwnerAdmin(); err != nil {
		return nil, err
	}
	staff, err := c.api.ListAccountStaff(ctx, c.selector.Selected().ID)
	if err != nil {
		return nil, fmt.Errorf("console.Team -> %w", err)
	}
	return staff, nil
}

// AddTeamMember creates a staff account scoped to the selected account
func (c *Console) AddTeamMember(ctx context.Context, member models.NewStaff) (models.StaffMember, error) {
	if err := c.requireOwnerAdmin(); err != nil {
		return models.StaffMember{}, err
	}
	if member.Role == "" {
		member.Role = models.RoleStaff
	}
	created, err := c.api.CreateAccountStaff(ctx, c.selector.Selected().ID, member)
	if err != nil {
		return models.StaffMember{}, &ActionError{Message: api.Message(err, "Unable to create staff account."), Err: err}
	}
	return created, nil
}

// OnSite checks a position against the selected account's geofence
func (c *Console) OnSite(lat, lon *float64) geofence.Result {
	return geofence.Evaluate(lat, lon, c.selector.Selected().Geofence)
}

// ConfirmOnSite asks the API whether the position is inside the geofence of
// the first loaded assignment held by the signed-in staff member.
func (c *Console) ConfirmOnSite(ctx context.Context, lat, lon float64) (assignmentID string, allowed bool, err error) {
	staff, err := c.requireStaff()
	if err != nil {
		return "", false, err
	}
	for _, a := range c.store.Assignments() {
		if a.StaffID == staff.ID {
			assignmentID = a.ID
			break
		}
	}
	if assignmentID == "" {
		return "", false, ErrNoAssignment
	}

	allowed, err = c.api.ValidateGeofence(ctx, assignmentID, lat, lon)
	if err != nil {
		return assignmentID, false, fmt.Errorf("console.ConfirmOnSite -> %w", err)
	}
	return assignmentID, allowed, nil
}

// RegisterDevice records a push token for the signed-in staff member
func (c *Console) RegisterDevice(ctx context.Context, token string) error {
	staff, err := c.requireStaff()
	if err != nil {
		return err
	}
	if err := c.api.RegisterPushToken(ctx, staff.ID, token); err != nil {
		return &ActionError{Message: api.Message(err, "Unable to register device."), Err: err}
	}
	return nil
}

// SimulatedPosition is a point a few dozen meters from the selected
// account's geofence center, used when no real position is available.
func (c *Console) SimulatedPosition() (lat, lon float64) {
	fence := c.selector.Selected().Geofence
	return fence.Lat + 0.0002, fence.Lon + 0.0007
}

// Report bundles both API reports
type Report struct {
	Utilization models.UtilizationReport
	Compliance  models.RatioComplianceReport
}

// Reports fetches utilization for shifts since the given time and the
// per-role compliance counts.
func (c *Console) Reports(ctx context.Context, since time.Time) (Report, error) {
	if _, err := c.requireStaff(); err != nil {
		return Report{}, err
	}
	util, err := c.api.StaffUtilization(ctx, since)
	if err != nil {
		return Report{}, fmt.Errorf("console.Reports -> %w", err)
	}
	compliance, err := c.api.RatioCompliance(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("console.Reports -> %w", err)
	}
	return Report{Utilization: util, Compliance: compliance}, nil
}
