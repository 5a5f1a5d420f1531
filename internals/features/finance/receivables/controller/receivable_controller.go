// file: internals/features/finance/receivables/controller/receivable_controller.go
package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"studioku_backend/internals/features/finance/receivables/dto"
	"studioku_backend/internals/features/finance/receivables/model"
	"studioku_backend/internals/features/finance/receivables/service"
	txService "studioku_backend/internals/features/finance/transactions/service"
	helper "studioku_backend/internals/helpers"
)

type ReceivableController struct {
	DB *gorm.DB
}

func NewReceivableController(db *gorm.DB) *ReceivableController {
	return &ReceivableController{DB: db}
}

// =============================
// ➕ POST /api/a/receivables
// =============================
func (ctl *ReceivableController) CreateReceivable(c *fiber.Ctx) error {
	studioID, err := helper.GetStudioIDFromToken(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Studio tidak ditemukan di token")
	}

	var req dto.CreateReceivableRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Payload tidak valid")
	}
	if err := helper.ValidateStruct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	row, err := req.ToModel(studioID)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	if err := ctl.DB.Create(row).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal menyimpan piutang")
	}
	return helper.JsonOKWithCode(c, fiber.StatusCreated, "Piutang dibuat", dto.NewReceivableResponse(row))
}

// =============================
// 📄 GET /api/a/receivables?client_id=&contract_id=&status=
// =============================
func (ctl *ReceivableController) ListReceivables(c *fiber.Ctx) error {
	studioID, err := helper.GetStudioIDFromToken(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Studio tidak ditemukan di token")
	}

	p := helper.ParseFiber(c, "receivable_due_date", "asc", helper.DefaultOpts)

	q := ctl.DB.Model(&model.ReceivableModel{}).
		Where("receivable_studio_id = ?", studioID)
	if cid := c.Query("client_id"); cid != "" {
		q = q.Where("receivable_client_id = ?", cid)
	}
	if ctid := c.Query("contract_id"); ctid != "" {
		q = q.Where("receivable_contract_id = ?", ctid)
	}
	if st := c.Query("status"); st != "" {
		q = q.Where("receivable_status = ?", st)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal menghitung piutang")
	}

	var rows []model.ReceivableModel
	if err := q.Order("receivable_due_date ASC").
		Limit(p.Limit()).Offset(p.Offset()).
		Find(&rows).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mengambil piutang")
	}

	items := make([]dto.ReceivableResponse, 0, len(rows))
	for i := range rows {
		items = append(items, dto.NewReceivableResponse(&rows[i]))
	}
	return helper.JsonOK(c, "OK", fiber.Map{
		"items":      items,
		"pagination": helper.BuildPagination(p, total, len(items)),
	})
}

// =============================
// 💸 POST /api/a/receivables/:id/pay
// =============================
func (ctl *ReceivableController) PayReceivable(c *fiber.Ctx) error {
	studioID, err := helper.GetStudioIDFromToken(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Studio tidak ditemukan di token")
	}
	receivableID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "ID piutang tidak valid")
	}

	var req dto.PayReceivableRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Payload tidak valid")
	}
	if err := helper.ValidateStruct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	intent := txService.PaymentIntent{DB: ctl.DB}
	row, token, err := intent.StartReceivablePayment(c.Context(), studioID, receivableID, req.ClientName, req.ClientEmail)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOKWithCode(c, fiber.StatusCreated, "Pembayaran dimulai", fiber.Map{
		"financial_transaction_id": row.FinancialTransactionID,
		"gateway_order_id":         row.FinancialTransactionGatewayOrderID,
		"snap_token":               token,
	})
}

// =============================
// ❌ POST /api/a/receivables/:id/cancel
// =============================
func (ctl *ReceivableController) CancelReceivable(c *fiber.Ctx) error {
	if _, err := helper.GetStudioIDFromToken(c); err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Studio tidak ditemukan di token")
	}
	receivableID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "ID piutang tidak valid")
	}

	store := service.ReceivableStore{DB: ctl.DB}
	n, err := store.CancelAll(c.Context(), []uuid.UUID{receivableID}, "manual_cancel")
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal membatalkan piutang")
	}
	if n == 0 {
		return helper.JsonError(c, fiber.StatusUnprocessableEntity, "Piutang tidak ada atau tidak bisa dibatalkan")
	}
	return helper.JsonOK(c, "Piutang dibatalkan", fiber.Map{"receivable_id": receivableID})
}
