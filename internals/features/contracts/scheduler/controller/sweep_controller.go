// file: internals/features/contracts/scheduler/controller/sweep_controller.go
package controller

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"studioku_backend/internals/features/contracts/scheduler"
	helper "studioku_backend/internals/helpers"
	"studioku_backend/internals/helpers/dates"
)

// Endpoint admin untuk menjalankan sweep di luar cadence goroutine
// (ops/debug). Tanpa parameter; semantik sama persis dengan run terjadwal.
type SweepController struct {
	Runner *scheduler.SweepRunner
}

func NewSweepController(db *gorm.DB) *SweepController {
	return &SweepController{Runner: scheduler.NewSweepRunner(db)}
}

// 🔁 POST /api/a/sweeps/run-all
func (ctl *SweepController) RunAll(c *fiber.Ctx) error {
	ctl.Runner.RunAll(c.Context())
	return helper.JsonOK(c, "Sweep selesai", nil)
}

// ⏲️ POST /api/a/sweeps/expire-contracts
func (ctl *SweepController) ExpireContracts(c *fiber.Ctx) error {
	n, err := ctl.Runner.Ledger.ExpireContracts(c.Context(), dates.Today())
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Sweep expire gagal")
	}
	return helper.JsonOK(c, "Sweep expire selesai", fiber.Map{"expired": n})
}

// 🗄️ POST /api/a/sweeps/archive-cancellations
func (ctl *SweepController) ArchiveOldCancellations(c *fiber.Ctx) error {
	n, err := ctl.Runner.Ledger.ArchiveOldCancellations(c.Context(), dates.Today(), ctl.Runner.RetentionDays)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Sweep arsip gagal")
	}
	return helper.JsonOK(c, "Sweep arsip selesai", fiber.Map{"archived": n})
}

// 💸 POST /api/a/sweeps/cancel-delinquent
func (ctl *SweepController) CancelDelinquent(c *fiber.Ctx) error {
	n, err := ctl.Runner.CancelDelinquentContracts(c.Context(), dates.Today())
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Sweep delinquency gagal")
	}
	return helper.JsonOK(c, "Sweep delinquency selesai", fiber.Map{"canceled": n})
}

// 📬 POST /api/a/sweeps/process-events
func (ctl *SweepController) ProcessEvents(c *fiber.Ctx) error {
	n, err := ctl.Runner.Cascade.ProcessPending(c.Context(), 100)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Drain outbox gagal")
	}
	return helper.JsonOK(c, "Outbox diproses", fiber.Map{"processed": n})
}
