package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/aulalink/aula-backend/internal/config"
	"github.com/aulalink/aula-backend/internal/handler"
	"github.com/aulalink/aula-backend/internal/middleware"
	"github.com/aulalink/aula-backend/internal/response"
	"github.com/aulalink/aula-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth          *handler.AuthHandler
	Session       *handler.SessionHandler
	Message       *handler.MessageHandler
	Simulation    *handler.SimulationHandler
	Question      *handler.QuestionHandler
	StudentMgmt   *handler.StudentManagementHandler
	StudentPortal *handler.StudentPortalHandler
	WS            *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// A configured origin list restricts CORS; an empty one allows all
	// so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Request ID first so every response carries metadata.
	router.Use(response.RequestIDMiddleware())

	// Brotli compression, skipped automatically for WebSocket upgrades.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/student/login", handlers.Auth.StudentLogin)
		auth.POST("/staff/login", handlers.Auth.StaffLogin)

		// Authenticated profile routes
		auth.POST("/student/logout", middleware.RequireStudentJWT(authService), handlers.Auth.StudentLogout)
		auth.GET("/student/me", middleware.RequireStudentJWT(authService), handlers.Auth.GetStudentProfile)
		auth.GET("/staff/me", middleware.RequireStaffJWT(authService), handlers.Auth.GetStaffProfile)
	}

	// ─── 2. Student Group (JWT + Single Device) ────────────────────────
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(
		middleware.RequireStudentJWT(authService),
		middleware.CheckSingleDeviceLogin(authService),
	)
	{
		studentAPI.GET("/session", handlers.StudentPortal.ActiveSession)
		studentAPI.POST("/sessions/:id/attach", handlers.StudentPortal.Attach)
		studentAPI.GET("/sessions/:id/state", handlers.StudentPortal.State)
		studentAPI.GET("/sessions/:id/paper", handlers.StudentPortal.Paper)
		studentAPI.POST("/sessions/:id/ready", handlers.StudentPortal.Ready)
		studentAPI.POST("/sessions/:id/progress", handlers.StudentPortal.Progress)
		studentAPI.POST("/sessions/:id/answers", handlers.StudentPortal.SaveAnswer)
		studentAPI.POST("/sessions/:id/cheats", handlers.StudentPortal.ReportCheat)
		studentAPI.POST("/sessions/:id/submit", handlers.StudentPortal.Submit)
		studentAPI.GET("/sessions/:id/messages", handlers.StudentPortal.Messages)
		studentAPI.POST("/sessions/:id/messages/read", handlers.StudentPortal.MarkMessagesRead)
	}

	// ─── 3. WebSocket Group (Student WS Auth) ──────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireStudentWSAuth(authService))
	{
		ws.GET("/student/sessions/:id/stream", handlers.WS.RoomStream)
	}

	// ─── 4. Staff Group (JWT + Role) ───────────────────────────────────
	staffAPI := router.Group("/api/v1/staff")
	staffAPI.Use(middleware.RequireStaffJWT(authService))
	{
		// Simulations: collaborators may read, writing needs ADMIN.
		staffAPI.GET("/simulations", handlers.Simulation.List)
		staffAPI.GET("/simulations/:id", handlers.Simulation.Get)
		staffAPI.POST("/simulations", middleware.RequireAdminRole(), handlers.Simulation.Create)
		staffAPI.PUT("/simulations/:id", middleware.RequireAdminRole(), handlers.Simulation.Update)
		staffAPI.DELETE("/simulations/:id", middleware.RequireAdminRole(), handlers.Simulation.Delete)
		staffAPI.POST("/simulations/:id/publish", middleware.RequireAdminRole(), handlers.Simulation.Publish)
		staffAPI.POST("/simulations/:id/archive", middleware.RequireAdminRole(), handlers.Simulation.Archive)

		// Questions
		staffAPI.GET("/simulations/:id/questions", handlers.Question.List)
		staffAPI.POST("/simulations/:id/questions", middleware.RequireAdminRole(), handlers.Question.Add)
		staffAPI.PUT("/simulations/:id/questions", middleware.RequireAdminRole(), handlers.Question.ReplaceAll)

		// Room sessions: any staff member can run a room.
		staffAPI.POST("/simulations/:id/session", handlers.Session.GetOrCreate)
		staffAPI.GET("/sessions/:id/state", handlers.Session.State)
		staffAPI.POST("/sessions/:id/start", handlers.Session.Start)
		staffAPI.POST("/sessions/:id/end", handlers.Session.End)
		staffAPI.POST("/sessions/:id/invites", handlers.Session.Invite)

		// Participant messaging
		staffAPI.POST("/participants/:id/messages", handlers.Message.Send)
		staffAPI.GET("/participants/:id/messages", handlers.Message.List)

		// Student accounts: managed by ADMIN only.
		staffAPI.GET("/students", handlers.StudentMgmt.List)
		staffAPI.POST("/students", middleware.RequireAdminRole(), handlers.StudentMgmt.Create)
		staffAPI.PUT("/students/:id", middleware.RequireAdminRole(), handlers.StudentMgmt.Update)
		staffAPI.DELETE("/students/:id", middleware.RequireAdminRole(), handlers.StudentMgmt.Delete)
		staffAPI.POST("/students/:id/reset-login", handlers.StudentMgmt.ResetLogin)
	}

	return router
}
