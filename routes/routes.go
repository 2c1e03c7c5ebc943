package routes

import (
	"github.com/gin-gonic/gin"

	"heritage-api/handlers"
	"heritage-api/middleware"
)

// SetupRoutes mounts every route. auth authenticates bearer tokens and
// limit throttles the credential endpoints.
func SetupRoutes(r *gin.Engine, h *handlers.Handler, auth, limit gin.HandlerFunc) {
	r.GET("/health", h.Health)

	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		public.GET("/pillars", h.GetPillars)
		public.GET("/workflow", h.GetWorkflowInfo)
	}

	// ── Auth ───────────────────────────────────────────────────────
	authGroup := r.Group("/api/auth")
	{
		authGroup.POST("/register", limit, h.Register)
		authGroup.POST("/login", limit, h.Login)
		authGroup.POST("/admin-login", limit, h.AdminLogin)
		authGroup.GET("/profile", auth, h.GetProfile)
		authGroup.PUT("/password", limit, auth, middleware.AdminRequired(), h.ChangePassword)
	}

	// ── Submissions ────────────────────────────────────────────────
	submissions := r.Group("/api/submissions")
	submissions.Use(auth)
	{
		submissions.POST("", h.CreateSubmission)
		submissions.GET("/my", h.GetMySubmissions)
		submissions.PUT("/:id", h.UpdateSubmission)
		submissions.DELETE("/:id", h.DeleteSubmission)

		review := submissions.Group("")
		review.Use(middleware.AdminRequired())
		{
			review.GET("", h.ListSubmissions)
			review.GET("/:id", h.GetSubmission)
			review.GET("/:id/history", h.GetSubmissionHistory)
			review.PUT("/:id/status", h.UpdateSubmissionStatus)
		}
	}

	// ── Admin routes ───────────────────────────────────────────────
	admin := r.Group("/api/admin")
	admin.Use(auth, middleware.AdminRequired())
	{
		admin.GET("/users", h.AdminGetUsers)
		admin.DELETE("/users/:id", h.AdminDeleteUser)
		admin.GET("/stats", h.AdminGetStats)
		admin.GET("/export", h.AdminExport)
	}
}
