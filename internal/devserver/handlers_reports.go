package devserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm/clause"

	"github.com/arnavshah/staffmonitr-go/pkg/models"
	"github.com/arnavshah/staffmonitr-go/pkg/scheduler"
)

// RegisterPushToken stores the latest device token for a staff member
func (s *Server) RegisterPushToken(c *gin.Context) {
	ctx := c.Request.Context()
	var req models.PushRegistration
	_ = c.ShouldBindJSON(&req)
	req.Token = strings.TrimSpace(req.Token)
	if req.StaffID == "" || req.Token == "" {
		abortWithError(c, http.StatusBadRequest, "staff_id and token are required")
		return
	}
	if _, err := s.findStaff(ctx, req.StaffID); err != nil {
		abortWithError(c, http.StatusNotFound, "Staff not found")
		return
	}

	record := PushTokenRecord{StaffID: req.StaffID, Token: req.Token, UpdatedAt: time.Now().UTC()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "staff_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"token", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		abortWithError(c, http.StatusUnprocessableEntity, "Unable to record push token")
		return
	}
	c.JSON(http.StatusCreated, models.APIMessage{Message: "Push token recorded"})
}

// AssignmentAlert queues a notification for the holder of an assignment.
// Delivery is out of scope for the dev server, so the alert is only logged.
func (s *Server) AssignmentAlert(c *gin.Context) {
	var assignment AssignmentRecord
	if err := s.db.WithContext(c.Request.Context()).First(&assignment, "id = ?", c.Param("id")).Error; err != nil {
		abortWithError(c, http.StatusNotFound, "Assignment not found")
		return
	}
	s.logger.Info("assignment notification queued",
		zap.String("assignment_id", assignment.ID),
		zap.String("staff_id", deref(assignment.StaffID)),
	)
	c.JSON(http.StatusOK, models.APIMessage{Message: "Assignment notification queued"})
}

// StaffUtilization reports ratio compliance and staffing density for shifts
// starting at or after since. Without since every shift is counted.
func (s *Server) StaffUtilization(c *gin.Context) {
	ctx := c.Request.Context()
	query := s.db.WithContext(ctx).Order("start_time")
	if raw := c.Query("since"); raw != "" {
		since, err := models.ParseTimestamp(raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "since must be an ISO timestamp")
			return
		}
		query = query.Where("start_time >= ?", since.UTC())
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

	var open int64
	if err := s.db.WithContext(ctx).Model(&ShiftRecord{}).Where("open_shift = ?", true).Count(&open).Error; err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, scheduler.Utilization(events, int(open)))
}

// RatioCompliance groups assignments by the role of their holder
func (s *Server) RatioCompliance(c *gin.Context) {
	assignments, err := s.assignmentsWithRoles(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, scheduler.RatioCompliance(assignments))
}
