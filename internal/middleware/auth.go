package middleware

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/apperr"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/constants"
	apierrors "github.com/tuanemuy/okr-manager-2-sub001/internal/errors"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/models"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/services"
)

// RequireAuth resolves the session token stored in the cookie session and
// puts the signed-in user into the context.
func RequireAuth(authService *services.AuthService, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		token, _ := session.Get(constants.SessionTokenKey).(string)

		if token == "" {
			apierrors.Unauthorized(c, "")
			return
		}

		user, _, err := authService.ValidateSession(c.Request.Context(), token)
		if err != nil {
			if apperr.IsAuthentication(err) {
				session.Delete(constants.SessionTokenKey)
				_ = session.Save()
			}
			apierrors.Respond(c, log, err, "Failed to validate session")
			return
		}

		// Store user in context for easy access in handlers
		c.Set(constants.ContextKeyUserID, user.ID)
		c.Set(constants.ContextKeyUser, user)
		c.Next()
	}
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return "", false
	}
	id, ok := userID.(string)
	return id, ok && id != ""
}

// GetUser retrieves the current user from context
func GetUser(c *gin.Context) (*models.User, bool) {
	user, exists := c.Get(constants.ContextKeyUser)
	if !exists {
		return nil, false
	}
	u, ok := user.(*models.User)
	return u, ok
}
