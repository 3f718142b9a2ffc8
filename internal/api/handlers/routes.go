package handlers

import (
	"github.com/gin-gonic/gin"

	"signoff.io/signoff/internal/api/middleware"
)

// RegisterRoutes mounts the full API surface on the engine. Health
// probes and login are public; everything else requires a bearer token
// and the admin group additionally requires the ADMIN role.
func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/healthz", s.Healthz)
	r.GET("/readyz", s.Readyz)

	v1 := r.Group("/api/v1")
	v1.POST("/auth/login", s.Login)

	authed := v1.Group("")
	authed.Use(middleware.JWTAuth(s.jwtCfg.SigningKey))
	{
		approvals := authed.Group("/approvals")
		approvals.POST("/leave", s.CreateLeave)
		approvals.POST("/expense", s.CreateExpense)
		approvals.GET("/pending", s.ListPending)
		approvals.GET("/mine", s.ListMine)
		approvals.GET("/:id", s.GetRequest)
		approvals.POST("/:id/approve", s.ApproveRequest)
		approvals.POST("/:id/reject", s.RejectRequest)
		approvals.POST("/:id/cancel", s.CancelRequest)

		notifications := authed.Group("/notifications")
		notifications.GET("", s.ListNotifications)
		notifications.POST("/read-all", s.MarkAllNotificationsRead)
		notifications.POST("/:id/read", s.MarkNotificationRead)
	}

	admin := authed.Group("/admin")
	admin.Use(middleware.RequireAdmin())
	{
		admin.POST("/employees", s.CreateEmployee)
		admin.GET("/employees", s.ListEmployees)
		admin.GET("/employees/:id", s.GetEmployee)
		admin.PUT("/employees/:id", s.UpdateEmployee)
		admin.DELETE("/employees/:id", s.DeleteEmployee)
	}
}
