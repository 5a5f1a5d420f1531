package seeds

import (
	class_templates "studioku_backend/internals/seeds/studio/class_templates"

	"gorm.io/gorm"
)

func RunAllSeeds(db *gorm.DB) {

	//* Studio
	class_templates.SeedClassTemplatesFromJSON(db, "internals/seeds/studio/class_templates/data_class_templates.json")
}
