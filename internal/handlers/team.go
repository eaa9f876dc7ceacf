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

// TeamHandler serves teams, their members and invitations.
type TeamHandler struct {
	teamService *services.TeamService
	log         logrus.FieldLogger
}

func NewTeamHandler(teamService *services.TeamService, log logrus.FieldLogger) *TeamHandler {
	return &TeamHandler{teamService: teamService, log: log}
}

// ListTeams returns the teams the user belongs to
func (h *TeamHandler) ListTeams(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	teams, err := h.teamService.ListTeamsForUser(c.Request.Context(), userID)
	if err != nil {
		apierrors.Respond(c, h.log, err, "Failed to fetch teams")
		return
	}

	c.JSON(http.StatusOK, gin.H{"teams": dto.ToTeamDTOs(teams)})
}

// CreateTeam creates a team with the user as admin
func (h *TeamHandler) CreateTeam(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req services.CreateTeamInput
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	team, err := h.teamService.CreateTeam(c.Request.Context(), userID, req)
	if err != nil {
		apierrors.Respond(c, h.log, err, "Failed to create team")
		return
	}

	c.JSON(http.StatusCreated, dto.ToTeamDTO(*team))
}

func (h *TeamHandler) GetTeam(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	team, err := h.teamService.GetTeam(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		apierrors.Respond(c, h.log, err, "Failed to fetch team")
		return
	}

	c.JSON(http.StatusOK, dto.ToTeamDTO(*team))
}

func (h *TeamHandler) UpdateTeam(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req services.UpdateTeamInput
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	team, err := h.teamService.UpdateTeam(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		apierrors.Respond(c, h.log, err, "Failed to update team")
		return
	}

	c.JSON(http.StatusOK, dto.ToTeamDTO(*team))
}

func (h *TeamHandler) DeleteTeam(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	if err := h.teamService.DeleteTeam(c.Request.Context(), userID, c.Param("id")); err != nil {
		apierrors.Respond(c, h.log, err, "Failed to delete team")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *TeamHandler) ListMembers(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	members, err := h.teamService.ListMembers(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		apierrors.Respond(c, h.log, err, "Failed to fetch members")
		return
	}

	out := make([]dto.TeamMemberDTO, len(members))
	for i, m := range members {
		out[i] = dto.ToMemberDetailDTO(m)
	}
	c.JSON(http.StatusOK, gin.H{"members": out})
}

func (h *TeamHandler) AddMember(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req services.AddMemberInput
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	member, err := h.teamService.AddMember(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		apierrors.Respond(c, h.log, err, "Failed to add member")
		return
	}

	out := dto.ToTeamMemberDTO(*member)
	out.Role = req.Role
	c.JSON(http.StatusCreated, out)
}

func (h *TeamHandler) UpdateMemberRole(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req services.UpdateMemberRoleInput
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	member, err := h.teamService.UpdateMemberRole(c.Request.Context(), userID, c.Param("id"), c.Param("user_id"), req)
	if err != nil {
		apierrors.Respond(c, h.log, err, "Failed to update member")
		return
	}

	out := dto.ToTeamMemberDTO(*member)
	out.Role = req.Role
	c.JSON(http.StatusOK, out)
}

func (h *TeamHandler) RemoveMember(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	if err := h.teamService.RemoveMember(c.Request.Context(), userID, c.Param("id"), c.Param("user_id")); err != nil {
		apierrors.Respond(c, h.log, err, "Failed to remove member")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *TeamHandler) ListInvitations(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	invitations, err := h.teamService.ListInvitations(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		apierrors.Respond(c, h.log, err, "Failed to fetch invitations")
		return
	}

	out := make([]dto.InvitationDTO, len(invitations))
	for i, inv := range invitations {
		out[i] = dto.ToInvitationDTO(inv)
	}
	c.JSON(http.StatusOK, gin.H{"invitations": out})
}

func (h *TeamHandler) InviteMember(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req services.InviteInput
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	invitation, err := h.teamService.InviteToTeam(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		apierrors.Respond(c, h.log, err, "Failed to create invitation")
		return
	}

	c.JSON(http.StatusCreated, dto.ToInvitationDTO(*invitation))
}

func (h *TeamHandler) CancelInvitation(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	if err := h.teamService.CancelInvitation(c.Request.Context(), userID, c.Param("id"), c.Param("invitation_id")); err != nil {
		apierrors.Respond(c, h.log, err, "Failed to cancel invitation")
		return
	}

	c.Status(http.StatusNoContent)
}

// AcceptInvitation joins the team of the invitation identified by :token
func (h *TeamHandler) AcceptInvitation(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	member, err := h.teamService.AcceptInvitation(c.Request.Context(), userID, c.Param("token"))
	if err != nil {
		apierrors.Respond(c, h.log, err, "Failed to accept invitation")
		return
	}

	c.JSON(http.StatusOK, dto.ToTeamMemberDTO(*member))
}
