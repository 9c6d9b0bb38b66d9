package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/openexam/examportal-backend/internal/config"
	"github.com/openexam/examportal-backend/internal/handler"
	"github.com/openexam/examportal-backend/internal/middleware"
	"github.com/openexam/examportal-backend/internal/response"
	"github.com/openexam/examportal-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth      *handler.AuthHandler
	Exam      *handler.ExamHandler
	Dashboard *handler.DashboardHandler
	Admin     *handler.AdminHandler
	Translate *handler.TranslateHandler
	WS        *handler.WSHandler
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
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Request ID on every response, brotli where the client accepts it.
	router.Use(response.RequestIDMiddleware())
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
		auth.POST("/register", handlers.Auth.Register)
		auth.POST("/login", handlers.Auth.Login)
	}

	// Courses are public: the registration form lists them before login.
	// Reference data, so clients may cache it briefly.
	router.GET("/api/v1/courses", middleware.CacheControl(300), handlers.Admin.ListCourses)

	// ─── 2. Authenticated Group (any role) ─────────────────────────────
	api := router.Group("/api/v1")
	api.Use(middleware.RequireJWT(authService))
	{
		api.GET("/dashboard", handlers.Dashboard.GetDashboard)
		api.GET("/exam/:paper_id", handlers.Exam.GetExam)
		api.POST("/exam/submit", handlers.Exam.SubmitExam)
		api.POST("/translate", handlers.Translate.Translate)
	}

	// ─── 3. WebSocket Group (query-token auth) ─────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireWSAuth(authService))
	{
		ws.GET("/exam/:paper_id/clock", handlers.WS.ExamClockStream)
	}

	// ─── 4. Admin Group (JWT + admin role) ─────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService))
	{
		adminAPI.POST("/courses", handlers.Admin.CreateCourse)

		adminAPI.GET("/papers", handlers.Admin.ListPapers)
		adminAPI.POST("/papers", handlers.Admin.CreatePaper)
		adminAPI.GET("/papers/:id", handlers.Admin.GetPaper)
		adminAPI.DELETE("/papers/:id", handlers.Admin.DeletePaper)

		adminAPI.POST("/questions", handlers.Admin.AddQuestion)
		adminAPI.PUT("/questions/:id", handlers.Admin.UpdateQuestion)
		adminAPI.DELETE("/questions/:id", handlers.Admin.DeleteQuestion)

		adminAPI.GET("/students", handlers.Admin.ListStudents)
		adminAPI.GET("/students/:id", handlers.Admin.GetStudent)
		adminAPI.GET("/students/:id/results", handlers.Admin.GetStudentResults)
	}

	return router
}
