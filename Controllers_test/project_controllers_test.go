package Controllers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
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

func setupTestDBForProjects(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	err = db.AutoMigrate(&models.User{}, &models.Project{}, &models.Notification{}, &models.ActivityLog{})
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func setupProjectRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	// Identitas user disuntik langsung; middleware auth diuji terpisah.
	router.Use(func(c *gin.Context) {
		c.Set("userID", uint(1))
		c.Set("role", models.RoleAdmin)
		c.Next()
	})

	priority := services.NewPriorityService(db)
	stats := services.NewCardStatsCache(db)
	projectCtrl := controllers.NewProjectController(db, priority, stats)

	router.POST("/projects", projectCtrl.CreateProject)
	router.GET("/projects", projectCtrl.GetAllProjects)
	router.GET("/projects/:project_id", projectCtrl.GetProjectByID)
	router.PUT("/projects/:project_id", projectCtrl.UpdateProject)
	router.PATCH("/projects/:project_id/priority", projectCtrl.SetManualPriority)
	router.DELETE("/projects/:project_id/priority", projectCtrl.ClearPriority)
	router.POST("/projects/priority/recalculate", projectCtrl.RecalculatePriorities)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, url string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		assert.NoError(t, err)
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}
	req, err := http.NewRequest(method, url, body)
	assert.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestProjectPriorityFlow(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForProjects(t)
	router := setupProjectRouter(db)

	// Create: project dengan jatuh tempo 2 hari lagi langsung dihitung
	// prioritas awalnya.
	due := time.Now().AddDate(0, 0, 2).Format(time.RFC3339)
	w := doJSON(t, router, "POST", "/projects", map[string]interface{}{
		"nama_project":        "Instalasi FO Ruas Timur",
		"nilai_penagihan":     125000000,
		"tanggal_jatuh_tempo": due,
		"status_ct1":          "Belum CT",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	var createResp struct {
		Data struct {
			IDProject     string `json:"id_project"`
			PriorityLevel string `json:"priority_level"`
			Prioritas     *int   `json:"prioritas"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &createResp))
	idProject := createResp.Data.IDProject
	assert.NotEmpty(t, idProject)
	assert.Equal(t, models.PriorityHigh, createResp.Data.PriorityLevel)
	if assert.NotNil(t, createResp.Data.Prioritas) {
		assert.Equal(t, 2, *createResp.Data.Prioritas)
	}

	// Set manual priority.
	w = doJSON(t, router, "PATCH", "/projects/"+idProject+"/priority", map[string]interface{}{
		"level":  "critical",
		"reason": "eskalasi pelanggan",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	var manualResp struct {
		Data struct {
			PriorityLevel  string  `json:"priority_level"`
			PrioritySource *string `json:"priority_source"`
			Prioritas      *int    `json:"prioritas"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &manualResp))
	assert.Equal(t, models.PriorityCritical, manualResp.Data.PriorityLevel)
	if assert.NotNil(t, manualResp.Data.PrioritySource) {
		assert.Equal(t, models.PrioritySourceManual, *manualResp.Data.PrioritySource)
	}
	if assert.NotNil(t, manualResp.Data.Prioritas) {
		assert.Equal(t, 1, *manualResp.Data.Prioritas)
	}

	// Recalculate: project manual dilewati.
	w = doJSON(t, router, "POST", "/projects/priority/recalculate", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var recalcResp struct {
		Data services.RecalcSummary `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &recalcResp))
	assert.Equal(t, 1, recalcResp.Data.Total)
	assert.Equal(t, 1, recalcResp.Data.SkippedManual)
	assert.Equal(t, 0, recalcResp.Data.Updated)

	// Clear: kembali tanpa prioritas dan bisa dihitung otomatis lagi.
	w = doJSON(t, router, "DELETE", "/projects/"+idProject+"/priority", map[string]interface{}{
		"reason": "sudah ditindaklanjuti",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, "POST", "/projects/priority/recalculate", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &recalcResp))
	assert.Equal(t, 1, recalcResp.Data.Updated)

	// Audit trail menyertai mutasi prioritas.
	var logs int64
	db.Model(&models.ActivityLog{}).Where("ref_id = ?", idProject).Count(&logs)
	assert.GreaterOrEqual(t, logs, int64(3))
}

func TestProjectStageNormalization(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForProjects(t)
	router := setupProjectRouter(db)

	w := doJSON(t, router, "POST", "/projects", map[string]interface{}{
		"nama_project": "Relokasi Tiang",
		"status_ct1":   "  Sudah CT  ",
		"status_ct2":   "SUDAH CT",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Data struct {
			IDProject string `json:"id_project"`
			StatusCT1 string `json:"status_ct1"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "sudah ct", resp.Data.StatusCT1)

	var saved models.Project
	assert.NoError(t, db.Where("id_project = ?", resp.Data.IDProject).First(&saved).Error)
	flags := saved.StageFlags()
	assert.True(t, flags[0])
	assert.True(t, flags[1])
	assert.False(t, flags[2])
}
