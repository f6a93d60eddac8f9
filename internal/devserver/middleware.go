package devserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/arnavshah/staffmonitr-go/pkg/auth"
)

const staffKey = "staff"

func bearerToken(c *gin.Context) string {
	parts := strings.Fields(c.GetHeader("Authorization"))
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	return ""
}

// AuthMiddleware verifies the bearer token and loads the staff member
func (s *Server) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
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

		staff, err := s.findStaff(c.Request.Context(), claims.Subject)
		if err != nil {
			abortWithError(c, http.StatusNotFound, "Staff member not found")
			return
		}

		c.Set(staffKey, staff)
		c.Next()
	}
}

// RequireRole rejects staff whose role is not listed. It must run after AuthMiddleware.
func (s *Server) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		staff := currentStaff(c)
		for _, role := range roles {
			if staff != nil && staff.Role == role {
				c.Next()
				return
			}
		}
		abortWithError(c, http.StatusForbidden, "Insufficient permissions")
	}
}

func currentStaff(c *gin.Context) *StaffRecord {
	v, ok := c.Get(staffKey)
	if !ok {
		return nil
	}
	staff, _ := v.(*StaffRecord)
	return staff
}
