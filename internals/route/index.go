// file: internals/route/index.go
package routes

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	authMiddleware "studioku_backend/internals/middlewares/auth"
	routeDetails "studioku_backend/internals/route/details"
)

var startTime time.Time

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	startTime = time.Now()

	log.Println("[INFO] Setting up BaseRoutes...")
	BaseRoutes(app, db)

	// ===================== ADMIN (per studio) =====================
	log.Println("[INFO] Setting up ADMIN group...")
	admin := app.Group("/api/a", authMiddleware.AuthMiddleware())

	log.Println("[INFO] Setting up StudioRoutes...")
	routeDetails.StudioRoutes(admin, db)

	log.Println("[INFO] Setting up ContractRoutes...")
	routeDetails.ContractRoutes(admin, db)

	log.Println("[INFO] Setting up FinanceRoutes...")
	routeDetails.FinanceRoutes(admin, db)
}
