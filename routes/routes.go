package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"order-desk/controllers"
	"order-desk/metrics"
	"order-desk/middleware"
	"order-desk/services"
)

type Dependencies struct {
	Auth           *services.AuthService
	Users          *services.UserService
	Orders         *services.OrderService
	Redis          *redis.Client
	LoginRateLimit int
}

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(services.JSONTagName)
	}
}

// SetupRoutes mounts the API at the root and again under /api, the prefix
// the dashboard frontend calls.
func SetupRoutes(router *gin.Engine, deps Dependencies) {
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	mountAPI(router.Group("/"), deps)
	mountAPI(router.Group("/api"), deps)
}

func mountAPI(api *gin.RouterGroup, deps Dependencies) {
	authCtrl := controllers.NewAuthController(deps.Auth)
	userCtrl := controllers.NewUserController(deps.Users)
	orderCtrl := controllers.NewOrderController(deps.Orders)

	requireAuth := middleware.AuthMiddleware(deps.Auth)
	requireAdmin := middleware.AdminMiddleware()
	loginLimit := middleware.RateLimit(deps.Redis, middleware.DefaultRateLimitConfig("login", deps.LoginRateLimit))

	users := api.Group("/users")
	{
		users.POST("/register", middleware.OptionalAuth(deps.Auth), authCtrl.Register)
		users.POST("/login", loginLimit, authCtrl.Login)
		users.POST("/logout", requireAuth, authCtrl.Logout)

		users.GET("", requireAuth, requireAdmin, userCtrl.GetAllUsers)
		users.GET("/:id", requireAuth, userCtrl.GetUserByID)
		users.PUT("/:id", requireAuth, userCtrl.UpdateUser)
		users.DELETE("/:id", requireAuth, requireAdmin, userCtrl.DeleteUser)
	}

	orders := api.Group("/orders")
	orders.Use(requireAuth)
	{
		orders.POST("", orderCtrl.CreateOrder)
		orders.GET("", requireAdmin, orderCtrl.GetAllOrders)
		orders.GET("/my-orders", orderCtrl.GetMyOrders)
		orders.GET("/:id", orderCtrl.GetOrderByID)
		orders.PUT("/:id", orderCtrl.UpdateOrder)
		orders.DELETE("/:id", orderCtrl.DeleteOrder)
	}
}
