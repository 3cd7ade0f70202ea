package routes

import (
	"log/slog"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"auto-uc2-dashboard/controllers"
	"auto-uc2-dashboard/middlewares"
	"auto-uc2-dashboard/models"
	"auto-uc2-dashboard/session"
	"auto-uc2-dashboard/utils"
)

// Controllers bundles every handler set the router mounts.
type Controllers struct {
	Auth        *controllers.AuthController
	Dashboard   *controllers.DashboardController
	Negotiation *controllers.NegotiationController
	Vehicles    *controllers.VehicleController
	Clients     *controllers.ClientController
	Admin       *controllers.AdminController
	Users       *controllers.UserController
	WS          *controllers.WSController
}

// RegisterRoutes builds the dashboard router.
func RegisterRoutes(h Controllers, sessions *session.Manager, allowOrigins []string, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middlewares.RequestID(), middlewares.Logger(logger))

	corsConfig := cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", utils.ConfirmHeader, "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
	}
	if len(allowOrigins) == 0 || (len(allowOrigins) == 1 && allowOrigins[0] == "*") {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowOriginFunc = func(string) bool { return true }
	}
	r.Use(cors.New(corsConfig))

	public := r.Group("/api")
	public.POST("/login", h.Auth.Login)
	public.GET("/health", h.Admin.Health)
	public.GET("/routes", h.Auth.Routes)

	r.GET("/ws", middlewares.SessionRequired(sessions), h.WS.Serve)

	protected := r.Group("/api", middlewares.SessionRequired(sessions))
	{
		protected.POST("/logout", h.Auth.Logout)
		protected.GET("/me", h.Auth.Me)
		protected.GET("/menu", h.Auth.Menu)
		protected.POST("/menu/toggle", h.Auth.ToggleMenu)

		protected.GET("/dashboard/overview", h.Dashboard.Overview)

		protected.GET("/negotiation", h.Negotiation.Get)
		protected.POST("/negotiations/ai", h.Negotiation.StartAI)
		protected.POST("/conversations", h.Negotiation.Start)
		protected.POST("/conversations/:id/select", h.Negotiation.Select)
		protected.POST("/conversations/:id/messages", h.Negotiation.SendMessage)
		protected.POST("/conversations/:id/typing", h.Negotiation.Typing)
		protected.DELETE("/conversations/:id", h.Negotiation.Delete)

		protected.GET("/vehicles", h.Vehicles.List)
		protected.POST("/vehicles", h.Vehicles.Create)
		protected.GET("/vehicles/search", h.Vehicles.Search)
		protected.GET("/vehicles/:id", h.Vehicles.Get)
		protected.PUT("/vehicles/:id", h.Vehicles.Update)
		protected.PATCH("/vehicles/:id/status", h.Vehicles.SetStatus)
		protected.DELETE("/vehicles/:id", h.Vehicles.Delete)
		protected.POST("/vehicles/:id/save", h.Vehicles.ToggleSaved)
		protected.GET("/saved-vehicles", h.Vehicles.Saved)

		protected.GET("/clients", h.Clients.List)
		protected.POST("/clients", h.Clients.Create)
		protected.GET("/clients/search", h.Clients.Search)
		protected.PUT("/clients/:id", h.Clients.Update)
		protected.DELETE("/clients/:id", h.Clients.Delete)
	}

	admin := protected.Group("", middlewares.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin))
	{
		admin.GET("/agencies", h.Admin.ListAgencies)
		admin.POST("/agencies", h.Admin.CreateAgency)
		admin.GET("/agencies/:id", h.Admin.GetAgency)
		admin.PUT("/agencies/:id", h.Admin.UpdateAgency)
		admin.DELETE("/agencies/:id", h.Admin.DeleteAgency)
		admin.GET("/agencies/:id/kiosks", h.Admin.Kiosks)
		admin.POST("/agencies/:id/kiosks", h.Admin.CreateKiosk)
		admin.DELETE("/agencies/:id/kiosks/:kioskId", h.Admin.DeleteKiosk)

		admin.GET("/users", h.Users.List)
		admin.POST("/users", h.Users.Create)
		admin.PUT("/users/:id", h.Users.Update)
		admin.DELETE("/users/:id", h.Users.Delete)
		admin.POST("/users/:id/impersonate", h.Users.Impersonate)

		admin.GET("/system/health", h.Admin.Health)
		admin.GET("/system/metrics", h.Admin.Metrics)
		admin.GET("/system/logs", h.Admin.Logs)
	}

	return r
}
