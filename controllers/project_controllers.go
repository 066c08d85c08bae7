package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/dimasprakoso/penagihan-app/models"
	"github.com/dimasprakoso/penagihan-app/realtime"
	"github.com/dimasprakoso/penagihan-app/services"
	"github.com/dimasprakoso/penagihan-app/utils"
	"gorm.io/gorm"
)

type ProjectController struct {
	DB       *gorm.DB
	Priority *services.PriorityService
	Stats    *services.CardStatsCache
}

func NewProjectController(db *gorm.DB, priority *services.PriorityService, stats *services.CardStatsCache) *ProjectController {
	return &ProjectController{DB: db, Priority: priority, Stats: stats}
}

// projectResponse menambahkan field prioritas legacy turunan di boundary
// serialisasi; field terstruktur tetap satu-satunya sumber kebenaran.
type projectResponse struct {
	models.Project
	Prioritas *int `json:"prioritas"`
}

func toResponse(p models.Project) projectResponse {
	return projectResponse{Project: p, Prioritas: p.LegacyPrioritas()}
}

type projectRequest struct {
	NamaProject         string     `json:"nama_project" binding:"required"`
	Status              string     `json:"status" binding:"omitempty,oneof=pending paid closed cancelled"`
	NilaiPenagihan      float64    `json:"nilai_penagihan"`
	TanggalMulai        *time.Time `json:"tanggal_mulai"`
	DurasiHari          *int       `json:"durasi_hari"`
	TanggalJatuhTempo   *time.Time `json:"tanggal_jatuh_tempo"`
	StatusCT1           string     `json:"status_ct1"`
	StatusCT2           string     `json:"status_ct2"`
	StatusRekonBOQ      string     `json:"status_rekon_boq"`
	StatusRekonMaterial string     `json:"status_rekon_material"`
	StatusAlignMaterial string     `json:"status_align_material"`
	TahapPengadaan      string     `json:"tahap_pengadaan"`
}

// applyStages menormalisasi nilai tahapan di boundary supaya core selalu
// bekerja dengan bentuk kanonik.
func applyStages(p *models.Project, req projectRequest) {
	p.StatusCT1 = models.NormalizeStage(req.StatusCT1)
	p.StatusCT2 = models.NormalizeStage(req.StatusCT2)
	p.StatusRekonBOQ = models.NormalizeStage(req.StatusRekonBOQ)
	p.StatusRekonMaterial = models.NormalizeStage(req.StatusRekonMaterial)
	p.StatusAlignMaterial = models.NormalizeStage(req.StatusAlignMaterial)
	p.TahapPengadaan = models.NormalizeStage(req.TahapPengadaan)
}

// CreateProject membuat project penagihan baru
func (pc *ProjectController) CreateProject(c *gin.Context) {
	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	status := req.Status
	if status == "" {
		status = models.ProjectStatusPending
	}

	project := models.Project{
		IDProject:         "PRJ-" + strings.ToUpper(uuid.NewString()[:8]),
		NamaProject:       req.NamaProject,
		Status:            status,
		NilaiPenagihan:    req.NilaiPenagihan,
		TanggalMulai:      req.TanggalMulai,
		DurasiHari:        req.DurasiHari,
		TanggalJatuhTempo: req.TanggalJatuhTempo,
		PriorityLevel:     models.PriorityNone,
	}
	applyStages(&project, req)

	if err := pc.DB.Create(&project).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	// Hitung prioritas awal dari data yang baru masuk.
	if _, _, err := pc.Priority.CalculateAutoPriority(&project); err != nil {
		utils.ErrorLogger.Printf("Gagal menghitung prioritas awal project %s: %v", project.IDProject, err)
	}

	pc.Stats.Invalidate()
	actorID := c.GetUint("userID")
	services.LogActivity(pc.DB, models.ActivityLog{
		UserID:      &actorID,
		Action:      "create_project",
		Kind:        models.ActivityKindCreate,
		Description: "Project " + project.NamaProject + " dibuat",
		RefTable:    "projects",
		RefID:       project.IDProject,
		After:       services.Snapshot(project),
	})
	realtime.BroadcastProjectUpdate(project)

	utils.RespondJSON(c, http.StatusCreated, "Project created", toResponse(project))
}

// GetAllProjects dengan filter status dan priority_level
func (pc *ProjectController) GetAllProjects(c *gin.Context) {
	query := pc.DB.Model(&models.Project{})

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if level := c.Query("priority_level"); level != "" {
		query = query.Where("priority_level = ?", level)
	}

	var projects []models.Project
	if err := query.Order("priority_score DESC, id ASC").Find(&projects).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	responses := make([]projectResponse, len(projects))
	for i, p := range projects {
		responses[i] = toResponse(p)
	}
	utils.RespondJSON(c, http.StatusOK, "All projects", responses)
}

// GetProjectByID berdasarkan id_project
func (pc *ProjectController) GetProjectByID(c *gin.Context) {
	var project models.Project
	if err := pc.DB.Where("id_project = ?", c.Param("project_id")).First(&project).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Project detail", toResponse(project))
}

// UpdateProject memperbarui data project lalu menghitung ulang prioritasnya
func (pc *ProjectController) UpdateProject(c *gin.Context) {
	var project models.Project
	if err := pc.DB.Where("id_project = ?", c.Param("project_id")).First(&project).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	before := services.Snapshot(project)

	project.NamaProject = req.NamaProject
	if req.Status != "" {
		project.Status = req.Status
	}
	project.NilaiPenagihan = req.NilaiPenagihan
	project.TanggalMulai = req.TanggalMulai
	project.DurasiHari = req.DurasiHari
	project.TanggalJatuhTempo = req.TanggalJatuhTempo
	applyStages(&project, req)

	if err := pc.DB.Save(&project).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	if _, _, err := pc.Priority.CalculateAutoPriority(&project); err != nil {
		utils.ErrorLogger.Printf("Gagal menghitung ulang prioritas project %s: %v", project.IDProject, err)
	}

	pc.Stats.Invalidate()
	actorID := c.GetUint("userID")
	services.LogActivity(pc.DB, models.ActivityLog{
		UserID:      &actorID,
		Action:      "update_project",
		Kind:        models.ActivityKindUpdate,
		Description: "Project " + project.NamaProject + " diperbarui",
		RefTable:    "projects",
		RefID:       project.IDProject,
		Before:      before,
		After:       services.Snapshot(project),
	})
	realtime.BroadcastProjectUpdate(project)

	utils.RespondJSON(c, http.StatusOK, "Project updated", toResponse(project))
}

// DeleteProject menghapus project (khusus super_admin, diatur di router)
func (pc *ProjectController) DeleteProject(c *gin.Context) {
	idProject := c.Param("project_id")

	var project models.Project
	if err := pc.DB.Where("id_project = ?", idProject).First(&project).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	if err := pc.DB.Delete(&project).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	pc.Stats.Invalidate()
	actorID := c.GetUint("userID")
	services.LogActivity(pc.DB, models.ActivityLog{
		UserID:      &actorID,
		Action:      "delete_project",
		Kind:        models.ActivityKindDelete,
		Description: "Project " + project.NamaProject + " dihapus",
		RefTable:    "projects",
		RefID:       project.IDProject,
		Before:      services.Snapshot(project),
	})

	utils.RespondJSON(c, http.StatusOK, "Project deleted", gin.H{"id_project": idProject})
}

// SetManualPriority mengunci prioritas project ke level pilihan user
func (pc *ProjectController) SetManualPriority(c *gin.Context) {
	type request struct {
		Level  string `json:"level" binding:"required,oneof=critical high medium low none"`
		Reason string `json:"reason"`
	}
	var req request
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	idProject := c.Param("project_id")
	actorID := c.GetUint("userID")

	var before models.Project
	if err := pc.DB.Where("id_project = ?", idProject).First(&before).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	if err := pc.Priority.SetManualPriority(idProject, req.Level, actorID, req.Reason); err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	var after models.Project
	pc.DB.Where("id_project = ?", idProject).First(&after)

	pc.Stats.Invalidate()
	services.LogActivity(pc.DB, models.ActivityLog{
		UserID:      &actorID,
		Action:      "set_manual_priority",
		Kind:        models.ActivityKindUpdate,
		Description: "Prioritas project " + after.NamaProject + " diatur manual ke " + req.Level,
		RefTable:    "projects",
		RefID:       idProject,
		Before:      services.Snapshot(before),
		After:       services.Snapshot(after),
	})
	realtime.BroadcastPriorityUpdate(after)

	utils.RespondJSON(c, http.StatusOK, "Manual priority set", toResponse(after))
}

// ClearPriority mengembalikan project ke tanpa prioritas
func (pc *ProjectController) ClearPriority(c *gin.Context) {
	type request struct {
		Reason string `json:"reason"`
	}
	var req request
	// Body opsional
	_ = c.ShouldBindJSON(&req)

	idProject := c.Param("project_id")
	actorID := c.GetUint("userID")

	var before models.Project
	if err := pc.DB.Where("id_project = ?", idProject).First(&before).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	if err := pc.Priority.ClearPriority(idProject, actorID, req.Reason); err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	var after models.Project
	pc.DB.Where("id_project = ?", idProject).First(&after)

	pc.Stats.Invalidate()
	services.LogActivity(pc.DB, models.ActivityLog{
		UserID:      &actorID,
		Action:      "clear_priority",
		Kind:        models.ActivityKindUpdate,
		Description: "Prioritas project " + after.NamaProject + " dihapus",
		RefTable:    "projects",
		RefID:       idProject,
		Before:      services.Snapshot(before),
		After:       services.Snapshot(after),
	})
	realtime.BroadcastPriorityUpdate(after)

	utils.RespondJSON(c, http.StatusOK, "Priority cleared", toResponse(after))
}

// RecalculatePriorities menjalankan recalculation massal on demand
func (pc *ProjectController) RecalculatePriorities(c *gin.Context) {
	summary, err := pc.Priority.RecalculateAll()
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	pc.Stats.Invalidate()
	actorID := c.GetUint("userID")
	services.LogActivity(pc.DB, models.ActivityLog{
		UserID:      &actorID,
		Action:      "recalculate_priorities",
		Kind:        models.ActivityKindSystem,
		Description: "Recalculation prioritas massal dijalankan",
		RefTable:    "projects",
		After:       services.Snapshot(summary),
	})

	utils.RespondJSON(c, http.StatusOK, "Recalculation finished", summary)
}
