package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/authz"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/middleware"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/services"
)

// Services bundles the use cases exposed over HTTP.
type Services struct {
	Auth  *services.AuthService
	Users *services.UserService
	Teams *services.TeamService
	OKRs  *services.OKRService
	Roles *services.RoleService
}

// RegisterRoutes mounts the JSON API under /api. Session middleware must
// already be installed on r.
func RegisterRoutes(r gin.IRouter, svc Services, authorizer *authz.Authorizer, log logrus.FieldLogger) {
	authHandler := NewAuthHandler(svc.Auth, log)
	userHandler := NewUserHandler(svc.Users, log)
	teamHandler := NewTeamHandler(svc.Teams, log)
	okrHandler := NewOKRHandler(svc.OKRs, log)
	roleHandler := NewRoleHandler(svc.Roles, log)

	requireAuth := middleware.RequireAuth(svc.Auth, log)
	teamMember := middleware.RequireTeamMember(authorizer, log)
	id := middleware.RequireIDParams("id")

	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", requireAuth, authHandler.GetCurrentUser)
			auth.POST("/verify-email", authHandler.VerifyEmail)
			auth.POST("/password-reset", authHandler.RequestPasswordReset)
			auth.POST("/password-reset/confirm", authHandler.ResetPassword)
		}

		users := api.Group("/users/me")
		users.Use(requireAuth)
		{
			users.PATCH("", userHandler.UpdateProfile)
			users.DELETE("", userHandler.DeleteAccount)
			users.PUT("/password", userHandler.ChangePassword)
			users.PUT("/avatar", userHandler.UploadAvatar)
		}

		teams := api.Group("/teams")
		teams.Use(requireAuth)
		{
			teams.GET("", teamHandler.ListTeams)
			teams.POST("", teamHandler.CreateTeam)

			team := teams.Group("/:id")
			team.Use(id, teamMember)
			{
				team.GET("", teamHandler.GetTeam)
				team.PATCH("", teamHandler.UpdateTeam)
				team.DELETE("", teamHandler.DeleteTeam)
				team.GET("/members", teamHandler.ListMembers)
				team.POST("/members", teamHandler.AddMember)
				team.PATCH("/members/:user_id", middleware.RequireIDParams("user_id"), teamHandler.UpdateMemberRole)
				team.DELETE("/members/:user_id", middleware.RequireIDParams("user_id"), teamHandler.RemoveMember)
				team.GET("/invitations", teamHandler.ListInvitations)
				team.POST("/invitations", teamHandler.InviteMember)
				team.DELETE("/invitations/:invitation_id", middleware.RequireIDParams("invitation_id"), teamHandler.CancelInvitation)
			}
		}

		api.POST("/invitations/:token/accept", requireAuth, teamHandler.AcceptInvitation)

		api.GET("/roles", requireAuth, roleHandler.ListRoles)
		api.GET("/permissions", requireAuth, roleHandler.MyPermissions)

		objectives := api.Group("/objectives")
		objectives.Use(requireAuth)
		{
			objectives.GET("", okrHandler.ListObjectives)
			objectives.POST("", okrHandler.CreateObjective)
			objectives.GET("/:id", id, okrHandler.GetObjective)
			objectives.PATCH("/:id", id, okrHandler.UpdateObjective)
			objectives.DELETE("/:id", id, okrHandler.DeleteObjective)
			objectives.GET("/:id/key-results", id, okrHandler.ListKeyResults)
			objectives.POST("/:id/key-results", id, okrHandler.CreateKeyResult)
			objectives.POST("/:id/suggestions", id, okrHandler.SuggestKeyResults)
		}

		keyResults := api.Group("/key-results")
		keyResults.Use(requireAuth, id)
		{
			keyResults.GET("/:id", okrHandler.GetKeyResult)
			keyResults.PATCH("/:id", okrHandler.UpdateKeyResult)
			keyResults.DELETE("/:id", okrHandler.DeleteKeyResult)
			keyResults.PUT("/:id/progress", okrHandler.UpdateProgress)
		}

		api.GET("/dashboard", requireAuth, okrHandler.Dashboard)
	}
}
