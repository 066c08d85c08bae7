package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/dimasprakoso/penagihan-app/models"
	"github.com/dimasprakoso/penagihan-app/services"
	"github.com/dimasprakoso/penagihan-app/utils"
	"gorm.io/gorm"
)

type AdminController struct {
	DB    *gorm.DB
	Stats *services.CardStatsCache
}

func NewAdminController(db *gorm.DB, stats *services.CardStatsCache) *AdminController {
	return &AdminController{DB: db, Stats: stats}
}

// GetDashboardStats mengambil statistik kartu untuk dashboard
func (ac *AdminController) GetDashboardStats(c *gin.Context) {
	stats, err := ac.Stats.Get()
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Dashboard stats", stats)
}

// GetActivityLogs daftar jejak audit, terbaru dulu
func (ac *AdminController) GetActivityLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := ac.DB.Model(&models.ActivityLog{}).Order("created_at DESC").Limit(limit)
	if refID := c.Query("ref_id"); refID != "" {
		query = query.Where("ref_id = ?", refID)
	}

	var logs []models.ActivityLog
	if err := query.Find(&logs).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Activity logs", logs)
}
