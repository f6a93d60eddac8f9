package devserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/arnavshah/staffmonitr-go/pkg/geofence"
	"github.com/arnavshah/staffmonitr-go/pkg/models"
)

var errAlreadyFilled = errors.New("assignment already filled")

type assignmentRequest struct {
	ShiftID          string `json:"shift_id"`
	StaffID          string `json:"staff_id"`
	Title            string `json:"title"`
	DifficultyRating int    `json:"difficulty_rating"`
	Instructions     string `json:"instructions"`
	RequiresOneOnOne bool   `json:"requiresOneOnOne"`
}

type openShiftRequest struct {
	StaffID string `json:"staff_id"`
}

// ListOpenShifts returns shifts flagged for open-shift broadcast
func (s *Server) ListOpenShifts(c *gin.Context) {
	ctx := c.Request.Context()
	query := s.db.WithContext(ctx).Where("open_shift = ?", true).Order("start_time")
	if accountID := c.Query("account_id"); accountID != "" {
		query = query.Where(&ShiftRecord{AccountGroupID: accountID})
	}

	var shifts []ShiftRecord
	if err := query.Find(&shifts).Error; err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	events, err := s.shiftPayloads(ctx, shifts)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, events)
}

// CreateAssignment adds a slot to a shift, optionally already staffed
func (s *Server) CreateAssignment(c *gin.Context) {
	ctx := c.Request.Context()
	var req assignmentRequest
	_ = c.ShouldBindJSON(&req)
	if req.ShiftID == "" {
		abortWithError(c, http.StatusBadRequest, "shift_id is required")
		return
	}

	var shift ShiftRecord
	if err := s.db.WithContext(ctx).First(&shift, "id = ?", req.ShiftID).Error; err != nil {
		abortWithError(c, http.StatusNotFound, "Shift not found")
		return
	}

	assignment := AssignmentRecord{
		ID:               uuid.NewString(),
		ShiftID:          shift.ID,
		Title:            req.Title,
		DifficultyRating: req.DifficultyRating,
		Instructions:     req.Instructions,
		RequiresOneOnOne: req.RequiresOneOnOne,
	}
	if assignment.Title == "" {
		assignment.Title = "Kid assignment"
	}
	if assignment.DifficultyRating == 0 {
		assignment.DifficultyRating = 2
	}
	if assignment.DifficultyRating < 1 || assignment.DifficultyRating > 5 {
		abortWithError(c, http.StatusBadRequest, "difficulty_rating must be between 1 and 5")
		return
	}
	if req.StaffID != "" {
		if _, err := s.findStaff(ctx, req.StaffID); err != nil {
			abortWithError(c, http.StatusNotFound, "Staff not found")
			return
		}
		assignment.StaffID = &req.StaffID
	}

	if err := s.db.WithContext(ctx).Create(&assignment).Error; err != nil {
		abortWithError(c, http.StatusUnprocessableEntity, "Unable to create assignment")
		return
	}
	c.JSON(http.StatusCreated, models.Created{ID: assignment.ID})
}

// RequestOpenShift fills an unstaffed assignment with the requesting staff
// member. The shift leaves the open pool once every slot is filled.
func (s *Server) RequestOpenShift(c *gin.Context) {
	ctx := c.Request.Context()
	var assignment AssignmentRecord
	err := s.db.WithContext(ctx).First(&assignment, "id = ?", c.Param("id")).Error
	if notFound(err) {
		abortWithError(c, http.StatusNotFound, "Assignment not found")
		return
	}
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	if assignment.StaffID != nil {
		abortWithError(c, http.StatusConflict, "Assignment already filled")
		return
	}

	var req openShiftRequest
	_ = c.ShouldBindJSON(&req)
	if req.StaffID == "" {
		abortWithError(c, http.StatusBadRequest, "staff_id is required")
		return
	}
	staff, err := s.findStaff(ctx, req.StaffID)
	if err != nil {
		abortWithError(c, http.StatusNotFound, "Staff not found")
		return
	}
	if !models.Role(staff.Role).CanSchedule() {
		abortWithError(c, http.StatusForbidden, "Role cannot take scheduled shifts")
		return
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&AssignmentRecord{}).
			Where("id = ? AND staff_id IS NULL", assignment.ID).
			Update("staff_id", req.StaffID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errAlreadyFilled
		}

		var remaining int64
		err := tx.Model(&AssignmentRecord{}).
			Where("shift_id = ? AND staff_id IS NULL", assignment.ShiftID).
			Count(&remaining).Error
		if err != nil {
			return err
		}
		if remaining == 0 {
			return tx.Model(&ShiftRecord{}).Where("id = ?", assignment.ShiftID).Update("open_shift", false).Error
		}
		return nil
	})
	if errors.Is(err, errAlreadyFilled) {
		abortWithError(c, http.StatusConflict, "Assignment already filled")
		return
	}
	if err != nil {
		abortWithError(c, http.StatusUnprocessableEntity, "Unable to request assignment")
		return
	}

	s.logger.Info("open shift requested",
		zap.String("assignment_id", assignment.ID),
		zap.String("staff_id", req.StaffID),
	)
	c.JSON(http.StatusOK, models.RequestReceipt{Message: "Request received", AssignmentID: assignment.ID})
}

// ValidateGeofence reports whether lat/lon fall inside the geofence of the
// account that owns the assignment's shift.
func (s *Server) ValidateGeofence(c *gin.Context) {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lon, lonErr := strconv.ParseFloat(c.Query("lon"), 64)
	if latErr != nil || lonErr != nil {
		abortWithError(c, http.StatusBadRequest, "lat and lon are required")
		return
	}

	ctx := c.Request.Context()
	var assignment AssignmentRecord
	if err := s.db.WithContext(ctx).First(&assignment, "id = ?", c.Param("id")).Error; err != nil {
		abortWithError(c, http.StatusNotFound, "Assignment not found")
		return
	}
	var shift ShiftRecord
	if err := s.db.WithContext(ctx).First(&shift, "id = ?", assignment.ShiftID).Error; err != nil {
		abortWithError(c, http.StatusNotFound, "Shift not found")
		return
	}
	var account AccountRecord
	if err := s.db.WithContext(ctx).First(&account, "id = ?", shift.AccountGroupID).Error; err != nil {
		abortWithError(c, http.StatusNotFound, "Account not found")
		return
	}

	result := geofence.Evaluate(&lat, &lon, accountPayload(account).Geofence)
	s.logger.Debug("geofence check",
		zap.String("assignment_id", assignment.ID),
		zap.Float64("distance_m", result.DistanceMeters),
		zap.Bool("allowed", result.IsOnSite),
	)
	c.JSON(http.StatusOK, models.GeofenceCheck{Allowed: result.IsOnSite})
}
