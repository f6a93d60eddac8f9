package devserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/arnavshah/staffmonitr-go/pkg/auth"
	"github.com/arnavshah/staffmonitr-go/pkg/models"
)

type signupRequest struct {
	models.SignupPayload
	Role string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup creates an account group and its first staff member
func (s *Server) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "full_name, email, and password are required")
		return
	}
	if req.FullName == "" || req.Email == "" || req.Password == "" {
		abortWithError(c, http.StatusBadRequest, "full_name, email, and password are required")
		return
	}
	if req.Role == "" {
		req.Role = string(models.RoleOwnerAdmin)
	}
	if !models.Role(req.Role).Valid() {
		abortWithError(c, http.StatusBadRequest, "Unsupported role")
		return
	}

	ctx := c.Request.Context()
	if taken, err := s.emailTaken(ctx, req.Email); err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	} else if taken {
		abortWithError(c, http.StatusConflict, "Email already registered")
		return
	}

	hash, err := auth.HashPassword(req.Password, s.opts.BcryptCost)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Unable to register account")
		return
	}

	account := newAccount(req.SignupPayload)
	now := time.Now().UTC()
	staff := StaffRecord{
		ID:           uuid.NewString(),
		FullName:     req.FullName,
		Email:        req.Email,
		Role:         req.Role,
		Status:       "active",
		PasswordHash: hash,
		InvitedAt:    &now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&account).Error; err != nil {
			return err
		}
		if err := tx.Create(&staff).Error; err != nil {
			return err
		}
		return tx.Create(&MembershipRecord{StaffID: staff.ID, AccountID: account.ID}).Error
	})
	if err != nil {
		s.logger.Warn("signup failed", zap.Error(err))
		abortWithError(c, http.StatusUnprocessableEntity, "Unable to register account")
		return
	}

	s.respondWithToken(c, staff, http.StatusCreated)
}

func newAccount(p models.SignupPayload) AccountRecord {
	name := p.AccountName
	if name == "" {
		name = p.Company
	}
	if name == "" {
		leadName := "Workspace"
		if fields := strings.Fields(p.FullName); len(fields) > 0 {
			leadName = fields[0]
		}
		name = leadName + "'s workspace"
	}

	account := AccountRecord{
		ID:             uuid.NewString(),
		Name:           name,
		Timezone:       p.Timezone,
		BrandPrimary:   "#1d4ed8",
		GeofenceRadius: 900,
	}
	if account.Timezone == "" {
		account.Timezone = "UTC"
	}
	if p.Branding != nil {
		if p.Branding.PrimaryColor != "" {
			account.BrandPrimary = p.Branding.PrimaryColor
		}
		account.LogoURL = p.Branding.LogoURL
	}
	if p.Geofence != nil {
		account.GeofenceLat = p.Geofence.Lat
		account.GeofenceLon = p.Geofence.Lon
		if p.Geofence.RadiusMeters > 0 {
			account.GeofenceRadius = p.Geofence.RadiusMeters
		}
	}
	return account
}

// Login checks credentials and issues a token
func (s *Server) Login(c *gin.Context) {
	var req loginRequest
	_ = c.ShouldBindJSON(&req)
	if req.Email == "" || req.Password == "" {
		abortWithError(c, http.StatusBadRequest, "Email and password are required")
		return
	}

	var staff StaffRecord
	err := s.db.WithContext(c.Request.Context()).Where("email = ?", req.Email).First(&staff).Error
	if err != nil || !auth.CheckPasswordHash(req.Password, staff.PasswordHash) {
		abortWithError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	s.respondWithToken(c, staff, http.StatusOK)
}

// Me returns the identity behind the bearer token
func (s *Server) Me(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		abortWithError(c, http.StatusUnauthorized, "Authorization token required")
		return
	}
	claims, err := auth.VerifyToken(s.opts.JWTSecret, token)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	ctx := c.Request.Context()
	staff, err := s.findStaff(ctx, claims.Subject)
	if err != nil {
		abortWithError(c, http.StatusNotFound, "Staff member not found")
		return
	}

	payload, err := s.sessionPayload(ctx, *staff)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, payload)
}

func (s *Server) respondWithToken(c *gin.Context, staff StaffRecord, status int) {
	token, expiresAt, err := auth.CreateToken(s.opts.JWTSecret, staff.ID, models.Role(staff.Role), s.opts.TokenTTL)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Unable to issue token")
		return
	}

	payload, err := s.sessionPayload(c.Request.Context(), staff)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	exp := models.NewTimestamp(expiresAt.UTC())
	c.JSON(status, models.AuthResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   &exp,
		Staff:       payload.Staff,
		Accounts:    payload.Accounts,
	})
}

func (s *Server) emailTaken(ctx context.Context, email string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&StaffRecord{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}
