package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/Ziroworld/ailav-client/devserver/controllers"
	"github.com/Ziroworld/ailav-client/devserver/middleware"
	"github.com/Ziroworld/ailav-client/devserver/services"
)

// Controllers bundles everything the route table needs.
type Controllers struct {
	Auth    *controllers.AuthController
	Cart    *controllers.CartController
	Catalog *controllers.CatalogController
	Order   *controllers.OrderController
	User    *controllers.UserController
	Tokens  *services.TokenService
	CSRF    *services.CSRFService
}

// Register wires the storefront contract under /api/v3.
func Register(router *gin.Engine, c Controllers) {
	api := router.Group("/api/v3")

	auth := api.Group("/auth")
	{
		auth.POST("/login", middleware.RateLimit(), c.Auth.Login)
		auth.POST("/register", c.Auth.Register)
		auth.POST("/refresh-token", c.Auth.RefreshToken)
		auth.POST("/logout", c.Auth.Logout)
		auth.GET("/csrf-token", c.Auth.CSRFToken)
		auth.GET("/currentuser", middleware.RequireAuth(c.Tokens), c.Auth.CurrentUser)
		auth.POST("/request-otp", c.Auth.RequestOTP)
		auth.POST("/verify-otp", c.Auth.VerifyOTP)
		auth.POST("/reset-password", c.Auth.ResetPassword)
	}

	cart := api.Group("/cart", middleware.RequireAuth(c.Tokens), middleware.RequireCSRF(c.CSRF))
	{
		cart.GET("/:user_id", c.Cart.GetCart)
		cart.POST("/add", c.Cart.AddItem)
		cart.POST("/remove", c.Cart.RemoveItem)
		cart.POST("/clear", c.Cart.ClearCart)
	}

	product := api.Group("/product")
	{
		product.GET("/findall", c.Catalog.ListProducts)
		product.GET("/:product_id", c.Catalog.GetProduct)

		adminOnly := product.Group("", middleware.RequireAuth(c.Tokens),
			middleware.RequireCSRF(c.CSRF), middleware.RequireRole("admin"))
		adminOnly.POST("/save", c.Catalog.SaveProduct)
		adminOnly.PUT("/:product_id", c.Catalog.UpdateProduct)
		adminOnly.DELETE("/:product_id", c.Catalog.DeleteProduct)
	}

	category := api.Group("/category")
	{
		category.GET("/findall", c.Catalog.ListCategories)
		category.POST("/save", middleware.RequireAuth(c.Tokens),
			middleware.RequireCSRF(c.CSRF), middleware.RequireRole("admin"), c.Catalog.SaveCategory)
	}

	order := api.Group("/order", middleware.RequireAuth(c.Tokens), middleware.RequireCSRF(c.CSRF))
	{
		order.POST("/create", c.Order.Create)
		order.GET("/", middleware.RequireRole("admin"), c.Order.ListAll)
		order.GET("/user/:user_id", c.Order.ListByUser)
		order.PUT("/update/:order_id", middleware.RequireRole("admin"), c.Order.UpdateStatus)
		order.DELETE("/delete/:order_id", middleware.RequireRole("admin"), c.Order.Delete)
	}

	users := api.Group("/users", middleware.RequireAuth(c.Tokens), middleware.RequireCSRF(c.CSRF))
	{
		users.GET("/", middleware.RequireRole("admin"), c.User.List)
		users.PUT("/:user_id", c.User.Update)
		users.DELETE("/:user_id", middleware.RequireRole("admin"), c.User.Delete)
	}
}
