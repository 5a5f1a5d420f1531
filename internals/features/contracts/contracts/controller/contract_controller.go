// file: internals/features/contracts/contracts/controller/contract_controller.go
package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"studioku_backend/internals/features/contracts/contracts/dto"
	"studioku_backend/internals/features/contracts/contracts/model"
	"studioku_backend/internals/features/contracts/contracts/service"
	eventService "studioku_backend/internals/features/contracts/events/service"
	helper "studioku_backend/internals/helpers"
	"studioku_backend/internals/helpers/audit"
)

type ContractController struct {
	DB     *gorm.DB
	Ledger *service.ContractLedger
}

func NewContractController(db *gorm.DB) *ContractController {
	return &ContractController{
		DB:     db,
		Ledger: &service.ContractLedger{DB: db, Sink: &eventService.Cascade{DB: db}},
	}
}

// =============================
// ➕ POST /api/a/contracts
// =============================
func (ctl *ContractController) CreateContract(c *fiber.Ctx) error {
	studioID, err := helper.GetStudioIDFromToken(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Studio tidak ditemukan di token")
	}

	var req dto.CreateContractRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Payload tidak valid")
	}
	if err := helper.ValidateStruct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	ct, err := req.ToModel(studioID)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	if err := ctl.DB.Create(ct).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal menyimpan kontrak")
	}

	actorID, _ := helper.GetUserIDFromToken(c)
	audit.Record(ctl.DB, studioID, &actorID, "contract.create", "client_contract",
		ct.ClientContractID.String(), "Kontrak dibuat", nil)

	return helper.JsonOKWithCode(c, fiber.StatusCreated, "Kontrak dibuat", dto.NewClientContractResponse(ct))
}

// =============================
// 🔍 GET /api/a/contracts/:id  (+ riwayat suspensi)
// =============================
func (ctl *ContractController) GetContract(c *fiber.Ctx) error {
	studioID, err := helper.GetStudioIDFromToken(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Studio tidak ditemukan di token")
	}
	contractID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "ID kontrak tidak valid")
	}

	var ct model.ClientContractModel
	if err := ctl.DB.
		Where("client_contract_id = ? AND client_contract_studio_id = ?", contractID, studioID).
		Take(&ct).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.JsonError(c, fiber.StatusNotFound, "Kontrak tidak ditemukan")
		}
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal membaca kontrak")
	}

	var susps []model.ContractSuspensionModel
	if err := ctl.DB.
		Where("contract_suspension_contract_id = ?", contractID).
		Order("contract_suspension_start_date DESC").
		Find(&susps).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal membaca suspensi")
	}

	suspItems := make([]dto.ContractSuspensionResponse, 0, len(susps))
	for i := range susps {
		suspItems = append(suspItems, dto.NewContractSuspensionResponse(&susps[i]))
	}
	return helper.JsonOK(c, "OK", fiber.Map{
		"contract":    dto.NewClientContractResponse(&ct),
		"suspensions": suspItems,
	})
}

// =============================
// ⏸️ POST /api/a/contracts/:id/suspensions
// =============================
func (ctl *ContractController) ScheduleSuspension(c *fiber.Ctx) error {
	studioID, err := helper.GetStudioIDFromToken(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Studio tidak ditemukan di token")
	}
	contractID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "ID kontrak tidak valid")
	}

	var req dto.ScheduleSuspensionRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Payload tidak valid")
	}
	if err := helper.ValidateStruct(&req); err != nil {
		return helper.ValidationError(c, err)
	}
	start, end, err := req.ParsedRange()
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	result, err := ctl.Ledger.ScheduleSuspension(c.Context(), contractID, start, end, req.Reason)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	actorID, _ := helper.GetUserIDFromToken(c)
	audit.Record(ctl.DB, studioID, &actorID, "contract.suspend", "client_contract",
		contractID.String(), "Suspensi kontrak diajukan", datatypes.JSONMap{
			"status":    result.Status,
			"days_used": result.DaysUsed,
		})

	return helper.JsonOKWithCode(c, fiber.StatusCreated, "Suspensi dicatat", result)
}

// =============================
// ▶️ POST /api/a/contracts/:id/suspensions/:suspensionId/stop
// =============================
func (ctl *ContractController) StopSuspension(c *fiber.Ctx) error {
	studioID, err := helper.GetStudioIDFromToken(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Studio tidak ditemukan di token")
	}
	contractID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "ID kontrak tidak valid")
	}
	suspensionID, err := uuid.Parse(c.Params("suspensionId"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "ID suspensi tidak valid")
	}

	result, err := ctl.Ledger.StopSuspension(c.Context(), contractID, suspensionID)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	actorID, _ := helper.GetUserIDFromToken(c)
	audit.Record(ctl.DB, studioID, &actorID, "contract.stop_suspension", "client_contract",
		contractID.String(), "Suspensi kontrak dihentikan", datatypes.JSONMap{
			"type":        result.Type,
			"unused_days": result.UnusedDays,
		})

	return helper.JsonOK(c, "Suspensi dihentikan", result)
}

// =============================
// ❌ POST /api/a/contracts/:id/cancel
// =============================
func (ctl *ContractController) CancelContract(c *fiber.Ctx) error {
	studioID, err := helper.GetStudioIDFromToken(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Studio tidak ditemukan di token")
	}
	contractID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "ID kontrak tidak valid")
	}

	var req dto.CancelContractRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Payload tidak valid")
	}
	if err := helper.ValidateStruct(&req); err != nil {
		return helper.ValidationError(c, err)
	}
	date, err := req.ParsedDate()
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	result, err := ctl.Ledger.Cancel(c.Context(), contractID, service.CancelMode(req.Mode), date, req.ToOptions())
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	actorID, _ := helper.GetUserIDFromToken(c)
	audit.Record(ctl.DB, studioID, &actorID, "contract.cancel", "client_contract",
		contractID.String(), "Kontrak dibatalkan", datatypes.JSONMap{
			"mode":   req.Mode,
			"status": result.Status,
		})

	return helper.JsonOK(c, "Pembatalan diproses", result)
}
