package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/dimasprakoso/penagihan-app/models"
	"github.com/dimasprakoso/penagihan-app/services"
	"github.com/dimasprakoso/penagihan-app/utils"
	"gorm.io/gorm"
)

type NotificationController struct {
	DB   *gorm.DB
	Sync *services.NotificationSync
}

func NewNotificationController(db *gorm.DB, sync *services.NotificationSync) *NotificationController {
	return &NotificationController{DB: db, Sync: sync}
}

// GetMyNotifications menjalankan sync interaktif dulu supaya daftar yang
// dikembalikan selalu mencerminkan kondisi project terkini.
func (nc *NotificationController) GetMyNotifications(c *gin.Context) {
	userID := c.GetUint("userID")

	if err := nc.Sync.SyncForUser(userID); err != nil {
		utils.ErrorLogger.Printf("Sync notifikasi user %d gagal: %v", userID, err)
		// Daftar tetap ditampilkan dari kondisi terakhir yang tersimpan.
	}

	var notifs []models.Notification
	if err := nc.DB.Where("user_id = ?", userID).
		Order("priority DESC, created_at DESC").
		Find(&notifs).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "My notifications", notifs)
}

// MarkAsRead menandai satu notifikasi milik user sebagai sudah dibaca.
// Status read bersifat lengket: sync berikutnya tidak akan mengembalikannya.
func (nc *NotificationController) MarkAsRead(c *gin.Context) {
	userID := c.GetUint("userID")
	id, err := strconv.Atoi(c.Param("notif_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("notif_id tidak valid"))
		return
	}

	var notif models.Notification
	if err := nc.DB.Where("id = ? AND user_id = ?", id, userID).First(&notif).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":  models.NotifStatusRead,
		"read_at": now,
	}
	if err := nc.DB.Model(&notif).Updates(updates).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Notification marked as read", gin.H{"notif_id": id})
}

// MarkAllRead menandai semua notifikasi user sebagai sudah dibaca
func (nc *NotificationController) MarkAllRead(c *gin.Context) {
	userID := c.GetUint("userID")

	now := time.Now()
	result := nc.DB.Model(&models.Notification{}).
		Where("user_id = ? AND status <> ?", userID, models.NotifStatusRead).
		Updates(map[string]interface{}{
			"status":  models.NotifStatusRead,
			"read_at": now,
		})
	if result.Error != nil {
		utils.RespondError(c, http.StatusInternalServerError, result.Error)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "All notifications marked as read", gin.H{
		"updated": result.RowsAffected,
	})
}

// DeleteNotification soft delete notifikasi milik user
func (nc *NotificationController) DeleteNotification(c *gin.Context) {
	userID := c.GetUint("userID")
	id, err := strconv.Atoi(c.Param("notif_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("notif_id tidak valid"))
		return
	}

	result := nc.DB.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Notification{})
	if result.Error != nil {
		utils.RespondError(c, http.StatusInternalServerError, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondError(c, http.StatusNotFound, errors.New("notifikasi tidak ditemukan"))
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Notification deleted", gin.H{"notif_id": id})
}
