package database

import (
	"time"

	"github.com/dimasprakoso/penagihan-app/models"
	"github.com/dimasprakoso/penagihan-app/utils"
	"gorm.io/gorm"
)

// CleanupOldData membersihkan data lama: notifikasi yang sudah di-soft-delete
// lebih dari 30 hari dan activity log lebih dari 6 bulan.
func CleanupOldData(db *gorm.DB) error {
	notifCutoff := time.Now().AddDate(0, 0, -30)
	result := db.Unscoped().
		Where("deleted_at IS NOT NULL AND deleted_at < ?", notifCutoff).
		Delete(&models.Notification{})
	if result.Error != nil {
		utils.ErrorLogger.Printf("Gagal membersihkan notifikasi lama: %v", result.Error)
		return result.Error
	}
	deletedNotifs := result.RowsAffected

	logCutoff := time.Now().AddDate(0, -6, 0)
	result = db.Where("created_at < ?", logCutoff).Delete(&models.ActivityLog{})
	if result.Error != nil {
		utils.ErrorLogger.Printf("Gagal membersihkan activity log lama: %v", result.Error)
		return result.Error
	}

	utils.InfoLogger.Printf("Pembersihan data selesai: %d notifikasi, %d activity log",
		deletedNotifs, result.RowsAffected)
	return nil
}
