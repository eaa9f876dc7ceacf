package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apierrors "github.com/tuanemuy/okr-manager-2-sub001/internal/errors"
)

// RequireIDParams rejects requests whose named path parameters are not valid IDs
func RequireIDParams(names ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, name := range names {
			if _, err := uuid.Parse(c.Param(name)); err != nil {
				apierrors.BadRequestWithDetails(c, "Invalid ID", map[string]string{name: "must be a valid id"})
				return
			}
		}
		c.Next()
	}
}
