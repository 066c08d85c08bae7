package services

import (
	"encoding/json"

	"github.com/dimasprakoso/penagihan-app/models"
	"github.com/dimasprakoso/penagihan-app/utils"
	"gorm.io/gorm"
)

// LogActivity menulis satu jejak audit. Kegagalan hanya dilog supaya tidak
// menggagalkan operasi utamanya.
func LogActivity(db *gorm.DB, entry models.ActivityLog) {
	if err := db.Create(&entry).Error; err != nil {
		utils.ErrorLogger.Printf("Gagal menulis activity log (%s %s): %v", entry.Action, entry.RefID, err)
	}
}

// Snapshot mengubah nilai menjadi JSON string untuk kolom before/after.
func Snapshot(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
