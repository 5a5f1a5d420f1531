// file: internals/route/details/finance_routes.go
package details

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	receivableController "studioku_backend/internals/features/finance/receivables/controller"
)

func FinanceRoutes(admin fiber.Router, db *gorm.DB) {
	rcv := receivableController.NewReceivableController(db)
	receivables := admin.Group("/receivables")
	receivables.Post("/", rcv.CreateReceivable)
	receivables.Get("/", rcv.ListReceivables)
	receivables.Post("/:id/pay", rcv.PayReceivable)
	receivables.Post("/:id/cancel", rcv.CancelReceivable)
}
