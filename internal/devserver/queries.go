package devserver

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/arnavshah/staffmonitr-go/pkg/models"
)

func (s *Server) findStaff(ctx context.Context, id string) (*StaffRecord, error) {
	var staff StaffRecord
	if err := s.db.WithContext(ctx).First(&staff, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &staff, nil
}

func (s *Server) staffAccountIDs(ctx context.Context, staffID string) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&MembershipRecord{}).
		Where("staff_id = ?", staffID).
		Order("account_id").
		Pluck("account_id", &ids).Error
	return ids, err
}

func (s *Server) staffAccounts(ctx context.Context, staffID string) ([]AccountRecord, error) {
	ids, err := s.staffAccountIDs(ctx, staffID)
	if err != nil || len(ids) == 0 {
		return nil, err
	}
	var accounts []AccountRecord
	err = s.db.WithContext(ctx).Where("id IN ?", ids).Order("name").Find(&accounts).Error
	return accounts, err
}

func (s *Server) isMember(ctx context.Context, staffID, accountID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&MembershipRecord{}).
		Where("staff_id = ? AND account_id = ?", staffID, accountID).
		Count(&count).Error
	return count > 0, err
}

// sessionPayload builds the staff and account view returned by the auth routes
func (s *Server) sessionPayload(ctx context.Context, staff StaffRecord) (models.SessionPayload, error) {
	accounts, err := s.staffAccounts(ctx, staff.ID)
	if err != nil {
		return models.SessionPayload{}, err
	}

	out := models.SessionPayload{Accounts: make([]models.AccountGroup, 0, len(accounts))}
	ids := make([]string, 0, len(accounts))
	for _, a := range accounts {
		out.Accounts = append(out.Accounts, accountPayload(a))
		ids = append(ids, a.ID)
	}
	out.Staff = staffPayload(staff, ids)
	return out, nil
}

// shiftPayloads expands shifts with their assignments, kids and staff roles
// using one query per table.
func (s *Server) shiftPayloads(ctx context.Context, shifts []ShiftRecord) ([]models.ShiftEvent, error) {
	out := make([]models.ShiftEvent, 0, len(shifts))
	if len(shifts) == 0 {
		return out, nil
	}

	db := s.db.WithContext(ctx)
	shiftIDs := make([]string, len(shifts))
	for i, sh := range shifts {
		shiftIDs[i] = sh.ID
	}

	var assignments []AssignmentRecord
	if err := db.Where("shift_id IN ?", shiftIDs).Order("created_at, id").Find(&assignments).Error; err != nil {
		return nil, err
	}

	assignmentIDs := make([]string, 0, len(assignments))
	staffIDs := make([]string, 0, len(assignments))
	for _, a := range assignments {
		assignmentIDs = append(assignmentIDs, a.ID)
		if a.StaffID != nil {
			staffIDs = append(staffIDs, *a.StaffID)
		}
	}

	var kids []KidRecord
	query := db.Where("shift_id IN ?", shiftIDs)
	if len(assignmentIDs) > 0 {
		query = query.Or("assignment_id IN ?", assignmentIDs)
	}
	if err := query.Order("full_name").Find(&kids).Error; err != nil {
		return nil, err
	}

	roles := make(map[string]string)
	if len(staffIDs) > 0 {
		var staff []StaffRecord
		if err := db.Select("id", "role").Where("id IN ?", staffIDs).Find(&staff).Error; err != nil {
			return nil, err
		}
		for _, st := range staff {
			roles[st.ID] = st.Role
		}
	}

	kidsByShift := make(map[string][]models.KidDetails)
	kidsByAssignment := make(map[string][]models.KidDetails)
	for _, k := range kids {
		if k.ShiftID != nil {
			kidsByShift[*k.ShiftID] = append(kidsByShift[*k.ShiftID], kidPayload(k))
		}
		if k.AssignmentID != nil {
			kidsByAssignment[*k.AssignmentID] = append(kidsByAssignment[*k.AssignmentID], kidPayload(k))
		}
	}

	assignmentsByShift := make(map[string][]AssignmentRecord)
	for _, a := range assignments {
		assignmentsByShift[a.ShiftID] = append(assignmentsByShift[a.ShiftID], a)
	}

	for _, sh := range shifts {
		out = append(out, shiftPayload(sh, assignmentsByShift[sh.ID], kidsByAssignment, kidsByShift[sh.ID], roles))
	}
	return out, nil
}

func shiftPayload(sh ShiftRecord, assignments []AssignmentRecord, kidsByAssignment map[string][]models.KidDetails, kids []models.KidDetails, roles map[string]string) models.ShiftEvent {
	event := models.ShiftEvent{
		ID:             sh.ID,
		AccountGroupID: sh.AccountGroupID,
		Site:           sh.Site,
		StartTime:      models.NewTimestamp(sh.StartTime),
		EndTime:        models.NewTimestamp(sh.EndTime),
		RatioMin:       models.Int(sh.RatioMin),
		LeadsRequired:  sh.LeadsRequired,
		Difficulty:     sh.Difficulty,
		Role:           models.RoleStaff,
		IsSpecial:      models.Bool(sh.IsSpecial),
		OpenShift:      models.Bool(sh.OpenShift),
		Assignments:    make([]models.Assignment, 0, len(assignments)),
		Kids:           kids,
	}
	hours := sh.EndTime.Sub(sh.StartTime).Hours()
	event.DurationHours = &hours

	roleSet := false
	for _, a := range assignments {
		assignmentKids := kidsByAssignment[a.ID]
		if assignmentKids == nil {
			assignmentKids = []models.KidDetails{}
		}
		payload := models.Assignment{
			ID:               a.ID,
			ShiftID:          a.ShiftID,
			StaffID:          deref(a.StaffID),
			Site:             sh.Site,
			Title:            a.Title,
			Difficulty:       a.DifficultyRating,
			Kids:             assignmentKids,
			Instructions:     a.Instructions,
			RequiresOneOnOne: a.RequiresOneOnOne,
			KidsCount:        models.Int(len(assignmentKids)),
		}
		if a.StaffID != nil {
			if role, ok := roles[*a.StaffID]; ok {
				payload.StaffRole = models.Role(role)
				if !roleSet && role != "" {
					event.Role = models.Role(role)
					roleSet = true
				}
			}
		}
		if a.StaffID == nil && event.PendingAssignmentID == "" {
			event.PendingAssignmentID = a.ID
		}
		event.Assignments = append(event.Assignments, payload)
	}
	return event
}

func (s *Server) assignmentsWithRoles(ctx context.Context) ([]models.Assignment, error) {
	var assignments []AssignmentRecord
	if err := s.db.WithContext(ctx).Find(&assignments).Error; err != nil {
		return nil, err
	}

	roles := make(map[string]string)
	var staff []StaffRecord
	if err := s.db.WithContext(ctx).Select("id", "role").Find(&staff).Error; err != nil {
		return nil, err
	}
	for _, st := range staff {
		roles[st.ID] = st.Role
	}

	out := make([]models.Assignment, 0, len(assignments))
	for _, a := range assignments {
		item := models.Assignment{ID: a.ID, ShiftID: a.ShiftID, Difficulty: a.DifficultyRating, StaffID: deref(a.StaffID)}
		if a.StaffID != nil {
			item.StaffRole = models.Role(roles[*a.StaffID])
		}
		out = append(out, item)
	}
	return out, nil
}

func notFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
