// file: internals/route/details/studio_routes.go
package details

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	occController "studioku_backend/internals/features/studio/class_occurrences/controller"
	tplController "studioku_backend/internals/features/studio/class_templates/controller"
	enrController "studioku_backend/internals/features/studio/enrollments/controller"
)

// StudioRoutes jadwal kelas: template, occurrence, enrollment.
func StudioRoutes(admin fiber.Router, db *gorm.DB) {
	tpl := tplController.NewClassTemplateController(db)
	templates := admin.Group("/class-templates")
	templates.Post("/", tpl.CreateClassTemplate)
	templates.Get("/", tpl.ListClassTemplates)
	templates.Get("/:id", tpl.GetClassTemplate)
	templates.Put("/:id", tpl.UpdateClassTemplate)
	templates.Delete("/:id", tpl.DeleteClassTemplate)

	occ := occController.NewClassOccurrenceController(db)
	occurrences := admin.Group("/class-occurrences")
	occurrences.Post("/generate", occ.GenerateOccurrences)
	occurrences.Get("/", occ.ListOccurrences)

	enr := enrController.NewEnrollmentController(db)
	enrollments := admin.Group("/enrollments")
	enrollments.Post("/", enr.CreateEnrollment)
	enrollments.Get("/", enr.ListEnrollments)
	enrollments.Post("/:id/cancel", enr.CancelEnrollment)
}
