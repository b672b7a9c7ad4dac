// Package devserver assembles a local backend implementing the
// storefront REST contract, so the SDK can be exercised end to end
// without the production services.
package devserver

import (
	"context"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Ziroworld/ailav-client/config"
	"github.com/Ziroworld/ailav-client/devserver/controllers"
	"github.com/Ziroworld/ailav-client/devserver/database"
	"github.com/Ziroworld/ailav-client/devserver/middleware"
	dsmodels "github.com/Ziroworld/ailav-client/devserver/models"
	"github.com/Ziroworld/ailav-client/devserver/routes"
	"github.com/Ziroworld/ailav-client/devserver/services"
	"github.com/Ziroworld/ailav-client/logger"
	"github.com/Ziroworld/ailav-client/models"
)

// Options overrides pieces of the default wiring. Zero values mean
// "pick from config": Redis and Postgres are used when their URLs are
// configured, in-memory repositories otherwise.
type Options struct {
	Users     database.UserRepository
	Carts     database.CartRepository
	AccessTTL time.Duration
}

// New builds a ready-to-serve gin engine from cfg.
func New(cfg config.ServerConfig, opts Options) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	users := opts.Users
	if users == nil {
		if cfg.DatabaseURL != "" {
			users = database.NewGormUserRepository(database.ConnectPostgres(cfg.DatabaseURL))
		} else {
			users = database.NewMemoryUserRepository()
		}
	}

	carts := opts.Carts
	if carts == nil {
		if cfg.RedisURL != "" {
			carts = database.NewRedisCartRepository(database.NewRedisClient(cfg.RedisURL), cfg.CartTTL)
		} else {
			carts = database.NewMemoryCartRepository()
		}
	}

	tokens := services.NewTokenService(cfg.JWTSecret, opts.AccessTTL)
	csrf := services.NewCSRFService(time.Hour)
	catalog := database.NewCatalogRepository()
	orders := database.NewOrderRepository()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.RequestLogger())
	router.Use(middleware.SecurityHeaders())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Split(cfg.CORSOrigins, ","),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Csrf-Token"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.Register(router, routes.Controllers{
		Auth:    controllers.NewAuthController(users, tokens, csrf),
		Cart:    controllers.NewCartController(carts, catalog),
		Catalog: controllers.NewCatalogController(catalog),
		Order:   controllers.NewOrderController(orders, carts),
		User:    controllers.NewUserController(users),
		Tokens:  tokens,
		CSRF:    csrf,
	})

	seedCatalog(catalog)

	return router
}

// SeedUser creates an account directly in the repository; used by the
// CLI demo and tests.
func SeedUser(users database.UserRepository, name, email, password, role string) (*dsmodels.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &dsmodels.User{
		ID:       uuid.New(),
		Name:     name,
		Email:    email,
		Password: string(hashed),
		Role:     role,
	}
	if err := users.Create(context.Background(), user); err != nil {
		return nil, err
	}
	return user, nil
}

// seedCatalog loads a small fixture catalogue so a fresh devserver has
// something to sell.
func seedCatalog(catalog *database.CatalogRepository) {
	fixtures := []models.Product{
		{ID: "p-espresso", Name: "Espresso Beans 1kg", Price: 18.50, Stock: 40, CategoryID: "c-coffee"},
		{ID: "p-grinder", Name: "Burr Grinder", Price: 89.00, Stock: 12, CategoryID: "c-gear"},
		{ID: "p-mug", Name: "Stoneware Mug", Price: 12.00, Stock: 100, CategoryID: "c-gear"},
	}
	for _, p := range fixtures {
		_ = catalog.SaveProduct(context.Background(), p)
	}
	_ = catalog.SaveCategory(context.Background(), models.Category{ID: "c-coffee", Name: "Coffee"})
	_ = catalog.SaveCategory(context.Background(), models.Category{ID: "c-gear", Name: "Equipment"})
}
