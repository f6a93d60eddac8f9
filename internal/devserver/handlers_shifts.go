package devserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arnavshah/staffmonitr-go/pkg/models"
)

// ListShifts returns the shifts of an account group with assignments and kids
// expanded. An optional role query narrows the result.
func (s *Server) ListShifts(c *gin.Context) {
	ctx := c.Request.Context()
	query := s.db.WithContext(ctx).Order("start_time")
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

	if role := models.Role(c.Query("role")); role != "" {
		filtered := events[:0]
		for _, e := range events {
			if e.Role == role {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}
	c.JSON(http.StatusOK, events)
}

// CreateShift schedules a new shift
func (s *Server) CreateShift(c *gin.Context) {
	var req models.NewShift
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid shift payload")
		return
	}
	if req.AccountGroupID == "" || req.StartTime.IsZero() || req.EndTime.IsZero() {
		abortWithError(c, http.StatusBadRequest, "account_group_id, start_time, and end_time are required")
		return
	}
	if !req.EndTime.After(req.StartTime.Time) {
		abortWithError(c, http.StatusBadRequest, "end_time must be after start_time")
		return
	}
	if _, ok := s.loadAccount(c, req.AccountGroupID); !ok {
		return
	}

	shift := ShiftRecord{
		ID:             uuid.NewString(),
		AccountGroupID: req.AccountGroupID,
		Site:           req.Site,
		StartTime:      req.StartTime.UTC(),
		EndTime:        req.EndTime.UTC(),
		RatioMin:       1,
		LeadsRequired:  1,
		IsSpecial:      req.IsSpecial,
		Difficulty:     req.Difficulty,
		OpenShift:      req.OpenShift,
	}
	if shift.Site == "" {
		shift.Site = "Main Hall"
	}
	if shift.Difficulty == "" {
		shift.Difficulty = "standard"
	}
	if req.RatioMin != nil {
		shift.RatioMin = *req.RatioMin
	}
	if req.LeadsRequired != nil {
		shift.LeadsRequired = *req.LeadsRequired
	}

	if err := s.db.WithContext(c.Request.Context()).Create(&shift).Error; err != nil {
		abortWithError(c, http.StatusUnprocessableEntity, "Unable to create shift")
		return
	}
	c.JSON(http.StatusCreated, models.Created{ID: shift.ID})
}

// UpdateShift applies a partial update. Only the draft fields are writable.
func (s *Server) UpdateShift(c *gin.Context) {
	ctx := c.Request.Context()
	var shift ShiftRecord
	err := s.db.WithContext(ctx).First(&shift, "id = ?", c.Param("id")).Error
	if notFound(err) {
		abortWithError(c, http.StatusNotFound, "Shift not found")
		return
	}
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	var draft models.ShiftDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid shift payload")
		return
	}

	wasOpen := shift.OpenShift
	updates := map[string]interface{}{}
	if draft.RatioMin != nil {
		if *draft.RatioMin < 0 {
			abortWithError(c, http.StatusBadRequest, "ratio_min must not be negative")
			return
		}
		updates["ratio_min"] = *draft.RatioMin
	}
	if draft.LeadsRequired != nil {
		updates["leads_required"] = *draft.LeadsRequired
	}
	if draft.IsSpecial != nil {
		updates["is_special"] = *draft.IsSpecial
	}
	if draft.OpenShift != nil {
		updates["open_shift"] = *draft.OpenShift
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&shift).Updates(updates).Error; err != nil {
			abortWithError(c, http.StatusUnprocessableEntity, "Unable to update shift")
			return
		}
	}

	if draft.OpenShift != nil && *draft.OpenShift && !wasOpen {
		s.logger.Info("open shift broadcast queued", zap.String("shift_id", shift.ID))
	}
	c.JSON(http.StatusOK, models.APIMessage{Message: "Shift updated"})
}
