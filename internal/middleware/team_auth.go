package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/authz"
	apierrors "github.com/tuanemuy/okr-manager-2-sub001/internal/errors"
)

// RequireTeamMember checks that the user is an active member of the team in
// the :id parameter. Non-members get 404 so team existence is not leaked.
func RequireTeamMember(authorizer *authz.Authorizer, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			return
		}

		if _, err := authorizer.Membership(c.Request.Context(), userID, c.Param("id")); err != nil {
			apierrors.Respond(c, log, err, "Failed to load team membership")
			return
		}

		c.Next()
	}
}
