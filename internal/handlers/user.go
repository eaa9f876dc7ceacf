package handlers

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/dto"
	apierrors "github.com/tuanemuy/okr-manager-2-sub001/internal/errors"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/middleware"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/services"
)

// UserHandler serves the signed-in user's account endpoints.
type UserHandler struct {
	userService *services.UserService
	log         logrus.FieldLogger
}

func NewUserHandler(userService *services.UserService, log logrus.FieldLogger) *UserHandler {
	return &UserHandler{userService: userService, log: log}
}

func (h *UserHandler) ChangePassword(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req services.ChangePasswordInput
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.userService.ChangePassword(c.Request.Context(), userID, req); err != nil {
		apierrors.Respond(c, h.log, err, "Failed to change password")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password changed"})
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req services.UpdateProfileInput
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), userID, req)
	if err != nil {
		apierrors.Respond(c, h.log, err, "Failed to update profile")
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// UploadAvatar accepts a multipart "avatar" file.
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	header, err := c.FormFile("avatar")
	if err != nil {
		apierrors.BadRequestWithDetails(c, "Validation failed", map[string]string{"avatar": "is required"})
		return
	}

	file, err := header.Open()
	if err != nil {
		apierrors.BadRequest(c, "Invalid upload")
		return
	}
	defer file.Close()

	user, err := h.userService.UploadAvatar(c.Request.Context(), userID, services.AvatarUpload{
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		apierrors.Respond(c, h.log, err, "Failed to upload avatar")
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// DeleteAccount removes the account and ends the session.
func (h *UserHandler) DeleteAccount(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	if err := h.userService.DeleteAccount(c.Request.Context(), userID); err != nil {
		apierrors.Respond(c, h.log, err, "Failed to delete account")
		return
	}

	session := sessions.Default(c)
	session.Clear()
	_ = session.Save()

	c.Status(http.StatusNoContent)
}
