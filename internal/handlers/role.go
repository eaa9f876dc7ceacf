package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/dto"
	apierrors "github.com/tuanemuy/okr-manager-2-sub001/internal/errors"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/middleware"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/services"
)

type RoleHandler struct {
	roleService *services.RoleService
	log         logrus.FieldLogger
}

func NewRoleHandler(roleService *services.RoleService, log logrus.FieldLogger) *RoleHandler {
	return &RoleHandler{roleService: roleService, log: log}
}

func (h *RoleHandler) ListRoles(c *gin.Context) {
	roles, err := h.roleService.ListRoles(c.Request.Context())
	if err != nil {
		apierrors.Respond(c, h.log, err, "Failed to fetch roles")
		return
	}

	out := make([]dto.RoleDTO, len(roles))
	for i, role := range roles {
		out[i] = dto.ToRoleDTO(role)
	}
	c.JSON(http.StatusOK, gin.H{"roles": out})
}

// MyPermissions lists the caller's permissions, optionally for one team (?team_id=)
func (h *RoleHandler) MyPermissions(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var teamID *string
	if id := c.Query("team_id"); id != "" {
		teamID = &id
	}

	permissions, err := h.roleService.GetUserPermissions(c.Request.Context(), userID, teamID)
	if err != nil {
		apierrors.Respond(c, h.log, err, "Failed to fetch permissions")
		return
	}

	c.JSON(http.StatusOK, gin.H{"permissions": permissions})
}
