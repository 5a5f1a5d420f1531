// file: internals/route/details/contract_routes.go
package details

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	contractController "studioku_backend/internals/features/contracts/contracts/controller"
	sweepController "studioku_backend/internals/features/contracts/scheduler/controller"
)

// ContractRoutes lifecycle kontrak + endpoint sweep manual.
func ContractRoutes(admin fiber.Router, db *gorm.DB) {
	ctl := contractController.NewContractController(db)
	contracts := admin.Group("/contracts")
	contracts.Post("/", ctl.CreateContract)
	contracts.Get("/:id", ctl.GetContract)
	contracts.Post("/:id/suspensions", ctl.ScheduleSuspension)
	contracts.Post("/:id/suspensions/:suspensionId/stop", ctl.StopSuspension)
	contracts.Post("/:id/cancel", ctl.CancelContract)

	sweep := sweepController.NewSweepController(db)
	sweeps := admin.Group("/sweeps")
	sweeps.Post("/run-all", sweep.RunAll)
	sweeps.Post("/expire-contracts", sweep.ExpireContracts)
	sweeps.Post("/archive-cancellations", sweep.ArchiveOldCancellations)
	sweeps.Post("/cancel-delinquent", sweep.CancelDelinquent)
	sweeps.Post("/process-events", sweep.ProcessEvents)
}
