package devserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/arnavshah/staffmonitr-go/pkg/auth"
	"github.com/arnavshah/staffmonitr-go/pkg/models"
)

// ListAccounts returns every account group
func (s *Server) ListAccounts(c *gin.Context) {
	var accounts []AccountRecord
	if err := s.db.WithContext(c.Request.Context()).Order("name").Find(&accounts).Error; err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]gin.H, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, gin.H{"id": a.ID, "name": a.Name, "timezone": a.Timezone})
	}
	c.JSON(http.StatusOK, out)
}

// ListAccountStaff returns the roster of one account group
func (s *Server) ListAccountStaff(c *gin.Context) {
	ctx := c.Request.Context()
	accountID := c.Param("id")
	if _, ok := s.loadAccount(c, accountID); !ok {
		return
	}

	var staff []StaffRecord
	err := s.db.WithContext(ctx).
		Joins("JOIN memberships ON memberships.staff_id = staff_members.id").
		Where("memberships.account_id = ?", accountID).
		Order("staff_members.full_name").
		Find(&staff).Error
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	roster := models.StaffRoster{Staff: make([]models.StaffMember, 0, len(staff))}
	for _, member := range staff {
		ids, err := s.staffAccountIDs(ctx, member.ID)
		if err != nil {
			abortWithError(c, http.StatusInternalServerError, err.Error())
			return
		}
		roster.Staff = append(roster.Staff, staffPayload(member, ids))
	}
	c.JSON(http.StatusOK, roster)
}

// CreateAccountStaff adds a staff member to an account group. Owner admins only.
func (s *Server) CreateAccountStaff(c *gin.Context) {
	ctx := c.Request.Context()
	accountID := c.Param("id")
	actor := currentStaff(c)

	if _, ok := s.loadAccount(c, accountID); !ok {
		return
	}
	member, err := s.isMember(ctx, actor.ID, accountID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	if !member {
		abortWithError(c, http.StatusForbidden, "Not assigned to the requested account")
		return
	}

	var req models.NewStaff
	_ = c.ShouldBindJSON(&req)
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.TrimSpace(req.Email)
	if req.FullName == "" || req.Email == "" || req.Password == "" {
		abortWithError(c, http.StatusBadRequest, "full_name, email, and password are required")
		return
	}
	if req.Role == "" {
		req.Role = models.RoleStaff
	}
	if !req.Role.Valid() {
		abortWithError(c, http.StatusBadRequest, "Unsupported role")
		return
	}

	if taken, err := s.emailTaken(ctx, req.Email); err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	} else if taken {
		abortWithError(c, http.StatusConflict, "Email already registered")
		return
	}

	hash, err := auth.HashPassword(req.Password, s.opts.BcryptCost)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Unable to create staff account")
		return
	}

	now := time.Now().UTC()
	staff := StaffRecord{
		ID:           uuid.NewString(),
		FullName:     req.FullName,
		Email:        req.Email,
		Role:         string(req.Role),
		Status:       "active",
		PasswordHash: hash,
		InvitedAt:    &now,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&staff).Error; err != nil {
			return err
		}
		return tx.Create(&MembershipRecord{StaffID: staff.ID, AccountID: accountID}).Error
	})
	if err != nil {
		abortWithError(c, http.StatusUnprocessableEntity, "Unable to create staff account")
		return
	}

	c.JSON(http.StatusCreated, staffPayload(staff, []string{accountID}))
}

// ListKids returns the kids of one account group ordered by name
func (s *Server) ListKids(c *gin.Context) {
	var kids []KidRecord
	err := s.db.WithContext(c.Request.Context()).
		Where(&KidRecord{AccountGroupID: c.Param("id")}).
		Order("full_name").
		Find(&kids).Error
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]models.KidDetails, 0, len(kids))
	for _, k := range kids {
		out = append(out, kidPayload(k))
	}
	c.JSON(http.StatusOK, out)
}

// CreateKid registers a kid in an account group
func (s *Server) CreateKid(c *gin.Context) {
	accountID := c.Param("id")
	if _, ok := s.loadAccount(c, accountID); !ok {
		return
	}

	var req models.NewKid
	_ = c.ShouldBindJSON(&req)
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		abortWithError(c, http.StatusBadRequest, "name is required")
		return
	}

	kid := KidRecord{
		ID:                      uuid.NewString(),
		FullName:                req.Name,
		Ratio:                   req.Ratio,
		SpecialInstructions:     req.SpecialInstructions,
		BannedStaff:             req.Bans,
		RequiresPersonalTrainer: req.RequiresOneOnOne,
		AccountGroupID:          accountID,
	}
	if kid.Ratio == "" {
		kid.Ratio = "1:1"
	}
	if kid.BannedStaff == nil {
		kid.BannedStaff = []string{}
	}
	if req.ShiftID != "" {
		kid.ShiftID = &req.ShiftID
	}
	if req.AssignmentID != "" {
		kid.AssignmentID = &req.AssignmentID
	}

	if err := s.db.WithContext(c.Request.Context()).Create(&kid).Error; err != nil {
		abortWithError(c, http.StatusUnprocessableEntity, "Unable to create kid")
		return
	}
	c.JSON(http.StatusCreated, kidPayload(kid))
}

func (s *Server) loadAccount(c *gin.Context, id string) (*AccountRecord, bool) {
	var account AccountRecord
	err := s.db.WithContext(c.Request.Context()).First(&account, "id = ?", id).Error
	if notFound(err) {
		abortWithError(c, http.StatusNotFound, "Account not found")
		return nil, false
	}
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return &account, true
}
