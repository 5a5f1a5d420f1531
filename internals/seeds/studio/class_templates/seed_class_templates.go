package class_templates

import (
	"encoding/json"
	"log"
	"os"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"studioku_backend/internals/features/studio/class_templates/model"
	"studioku_backend/internals/helpers/dates"
)

// Struktur sesuai dengan dto.CreateClassTemplateRequest
type ClassTemplateSeed struct {
	ClassTemplateStudioID        string `json:"class_template_studio_id"`
	ClassTemplateWeekday         int    `json:"class_template_weekday"`
	ClassTemplateStartTime       string `json:"class_template_start_time"`
	ClassTemplateDurationMinutes int    `json:"class_template_duration_minutes"`
	ClassTemplateMaxCapacity     int    `json:"class_template_max_capacity"`
	ClassTemplateStartDate       string `json:"class_template_start_date"`
}

func SeedClassTemplatesFromJSON(db *gorm.DB, filePath string) {
	log.Println("📥 Membaca file:", filePath)

	file, err := os.ReadFile(filePath)
	if err != nil {
		log.Printf("❌ Gagal membaca file JSON: %v", err)
		return
	}

	var templates []ClassTemplateSeed
	if err := json.Unmarshal(file, &templates); err != nil {
		log.Printf("❌ Gagal decode JSON: %v", err)
		return
	}

	for _, m := range templates {
		studioID, err := uuid.Parse(m.ClassTemplateStudioID)
		if err != nil {
			log.Printf("❌ studio_id tidak valid (%s), lewati...", m.ClassTemplateStudioID)
			continue
		}
		startDate, err := dates.ParseISODate(m.ClassTemplateStartDate)
		if err != nil {
			log.Printf("❌ start_date tidak valid (%s), lewati...", m.ClassTemplateStartDate)
			continue
		}
		endTime, err := dates.AddMinutesToClock(m.ClassTemplateStartTime, m.ClassTemplateDurationMinutes)
		if err != nil {
			log.Printf("❌ start_time tidak valid (%s), lewati...", m.ClassTemplateStartTime)
			continue
		}

		var existing model.ClassTemplateModel
		if err := db.Where(
			"class_template_studio_id = ? AND class_template_weekday = ? AND class_template_start_time = ?",
			studioID, m.ClassTemplateWeekday, m.ClassTemplateStartTime,
		).First(&existing).Error; err == nil {
			log.Printf("ℹ️ Template weekday %d jam %s sudah ada, lewati...",
				m.ClassTemplateWeekday, m.ClassTemplateStartTime)
			continue
		}

		newTemplate := model.ClassTemplateModel{
			ClassTemplateStudioID:        studioID,
			ClassTemplateWeekday:         m.ClassTemplateWeekday,
			ClassTemplateStartTime:       m.ClassTemplateStartTime,
			ClassTemplateEndTime:         endTime,
			ClassTemplateDurationMinutes: m.ClassTemplateDurationMinutes,
			ClassTemplateMaxCapacity:     m.ClassTemplateMaxCapacity,
			ClassTemplateStartDate:       startDate,
		}

		if err := db.Create(&newTemplate).Error; err != nil {
			log.Printf("❌ Gagal insert template weekday %d jam %s: %v",
				m.ClassTemplateWeekday, m.ClassTemplateStartTime, err)
		} else {
			log.Printf("✅ Berhasil insert template weekday %d jam %s (%s)",
				newTemplate.ClassTemplateWeekday, newTemplate.ClassTemplateStartTime, newTemplate.ClassTemplateID)
		}
	}
}
