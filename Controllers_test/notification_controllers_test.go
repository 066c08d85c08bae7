package Controllers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dimasprakoso/penagihan-app/controllers"
	"github.com/dimasprakoso/penagihan-app/models"
	"github.com/dimasprakoso/penagihan-app/services"
	"github.com/dimasprakoso/penagihan-app/utils"
)

func setupTestDBForNotifications(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	err = db.AutoMigrate(&models.User{}, &models.Project{}, &models.Notification{})
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func setupNotificationRouter(db *gorm.DB, userID uint) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("userID", userID)
		c.Set("role", models.RoleAdmin)
		c.Next()
	})

	notifCtrl := controllers.NewNotificationController(db, services.NewNotificationSync(db))
	router.GET("/notifications", notifCtrl.GetMyNotifications)
	router.PATCH("/notifications/:notif_id/read", notifCtrl.MarkAsRead)
	router.PATCH("/notifications/read-all", notifCtrl.MarkAllRead)
	router.DELETE("/notifications/:notif_id", notifCtrl.DeleteNotification)
	return router
}

func seedPendingProject(t *testing.T, db *gorm.DB, idProject string, daysToDue int) {
	t.Helper()
	due := time.Now().AddDate(0, 0, daysToDue)
	project := models.Project{
		IDProject:         idProject,
		NamaProject:       "Project " + idProject,
		Status:            models.ProjectStatusPending,
		NilaiPenagihan:    50000000,
		TanggalJatuhTempo: &due,
		PriorityLevel:     models.PriorityNone,
	}
	if err := db.Create(&project).Error; err != nil {
		t.Fatalf("failed to seed project: %v", err)
	}
}

type notifListResponse struct {
	Data []models.Notification `json:"data"`
}

func getNotifications(t *testing.T, router *gin.Engine) []models.Notification {
	t.Helper()
	w := doJSON(t, router, "GET", "/notifications", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var resp notifListResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Data
}

func TestGetMyNotificationsSyncsFirst(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForNotifications(t)
	router := setupNotificationRouter(db, 1)

	seedPendingProject(t, db, "PRJ-SYNC01", 2)

	notifs := getNotifications(t, router)
	if assert.Len(t, notifs, 1) {
		assert.Equal(t, models.NotifHMinus3, notifs[0].Jenis)
		assert.Equal(t, models.NotifStatusSent, notifs[0].Status)
		assert.Contains(t, notifs[0].Pesan, "dalam 2 hari")
	}

	// Sync berulang tidak menduplikasi tuple yang sama.
	notifs = getNotifications(t, router)
	assert.Len(t, notifs, 1)
}

func TestMarkAsReadIsSticky(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForNotifications(t)
	router := setupNotificationRouter(db, 1)

	seedPendingProject(t, db, "PRJ-READ01", 2)
	notifs := getNotifications(t, router)
	if !assert.Len(t, notifs, 1) {
		return
	}

	w := doJSON(t, router, "PATCH", fmt.Sprintf("/notifications/%d/read", notifs[0].ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Sync berikutnya memperbarui isi notifikasi unread saja; status read
	// tidak boleh dikembalikan ke sent.
	notifs = getNotifications(t, router)
	if assert.Len(t, notifs, 1) {
		assert.Equal(t, models.NotifStatusRead, notifs[0].Status)
		assert.NotNil(t, notifs[0].ReadAt)
	}
}

func TestMarkAsReadRejectsOtherUsers(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForNotifications(t)

	ownerRouter := setupNotificationRouter(db, 1)
	seedPendingProject(t, db, "PRJ-OWN01", 2)
	notifs := getNotifications(t, ownerRouter)
	if !assert.Len(t, notifs, 1) {
		return
	}

	intruderRouter := setupNotificationRouter(db, 2)
	w := doJSON(t, intruderRouter, "PATCH", fmt.Sprintf("/notifications/%d/read", notifs[0].ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMarkAllReadAndDelete(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForNotifications(t)
	router := setupNotificationRouter(db, 1)

	seedPendingProject(t, db, "PRJ-ALL01", 0)
	seedPendingProject(t, db, "PRJ-ALL02", 5)
	notifs := getNotifications(t, router)
	if !assert.Len(t, notifs, 2) {
		return
	}

	w := doJSON(t, router, "PATCH", "/notifications/read-all", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var unread int64
	db.Model(&models.Notification{}).
		Where("user_id = ? AND status <> ?", 1, models.NotifStatusRead).
		Count(&unread)
	assert.Equal(t, int64(0), unread)

	// Delete oleh user bersifat soft: barisnya tetap ada dengan deleted_at.
	w = doJSON(t, router, "DELETE", fmt.Sprintf("/notifications/%d", notifs[0].ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var deleted models.Notification
	assert.NoError(t, db.Unscoped().First(&deleted, notifs[0].ID).Error)
	assert.True(t, deleted.DeletedAt.Valid)

	w = doJSON(t, router, "DELETE", "/notifications/999999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCompletedProjectNotificationsRemoved(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForNotifications(t)
	router := setupNotificationRouter(db, 1)

	seedPendingProject(t, db, "PRJ-DONE01", 1)
	notifs := getNotifications(t, router)
	if !assert.Len(t, notifs, 1) {
		return
	}

	// Project dibayar: semua notifikasinya ikut hilang pada sync berikutnya.
	assert.NoError(t, db.Model(&models.Project{}).
		Where("id_project = ?", "PRJ-DONE01").
		Update("status", models.ProjectStatusPaid).Error)

	notifs = getNotifications(t, router)
	assert.Len(t, notifs, 0)
}
