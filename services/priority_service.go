package services

import (
	"fmt"

	"github.com/dimasprakoso/penagihan-app/models"
	"github.com/dimasprakoso/penagihan-app/utils"
	"gorm.io/gorm"
)

// Skor representatif untuk level yang diatur manual
var manualScores = map[string]int{
	models.PriorityCritical: 100,
	models.PriorityHigh:     75,
	models.PriorityMedium:   45,
	models.PriorityLow:      15,
	models.PriorityNone:     0,
}

// PriorityService mengatur penulisan field prioritas project: set manual,
// hitung otomatis, clear, dan recalculation massal.
type PriorityService struct {
	DB    *gorm.DB
	Clock Clock
}

func NewPriorityService(db *gorm.DB) *PriorityService {
	return &PriorityService{DB: db, Clock: SystemClock}
}

// RecalcSummary ringkasan hasil recalculation massal.
type RecalcSummary struct {
	Total         int `json:"total"`
	Updated       int `json:"updated"`
	SkippedManual int `json:"skipped_manual"`
}

// SetManualPriority mengunci prioritas sebuah project ke level yang dipilih
// user. Transaksional: gagal berarti tidak ada field yang berubah.
func (s *PriorityService) SetManualPriority(idProject, level string, actorID uint, reason string) error {
	if _, ok := manualScores[level]; !ok {
		return fmt.Errorf("level prioritas tidak dikenal: %s", level)
	}
	if reason == "" {
		reason = "prioritas diatur manual"
	}

	tx := s.DB.Begin()
	if tx.Error != nil {
		return fmt.Errorf("gagal memulai transaksi: %w", tx.Error)
	}

	var project models.Project
	if err := tx.Where("id_project = ?", idProject).First(&project).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("project %s tidak ditemukan: %w", idProject, err)
	}

	now := s.Clock.Now()
	updates := map[string]interface{}{
		"priority_level":      level,
		"priority_source":     models.PrioritySourceManual,
		"priority_reason":     reason,
		"priority_score":      manualScores[level],
		"priority_updated_at": now,
		"priority_updated_by": actorID,
	}
	if err := tx.Model(&project).Updates(updates).Error; err != nil {
		tx.Rollback()
		utils.ErrorLogger.Printf("Gagal set prioritas manual project %s: %v", idProject, err)
		return fmt.Errorf("gagal menyimpan prioritas manual: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		utils.ErrorLogger.Printf("Gagal commit prioritas manual project %s: %v", idProject, err)
		return fmt.Errorf("gagal commit transaksi: %w", err)
	}

	utils.InfoLogger.Printf("Prioritas project %s diatur manual ke %s oleh user %d", idProject, level, actorID)
	return nil
}

// ClearPriority menghapus prioritas (manual maupun otomatis): level kembali
// none, source dikosongkan, skor nol. Transaksional seperti SetManualPriority.
func (s *PriorityService) ClearPriority(idProject string, actorID uint, reason string) error {
	if reason == "" {
		reason = "prioritas dihapus"
	}

	tx := s.DB.Begin()
	if tx.Error != nil {
		return fmt.Errorf("gagal memulai transaksi: %w", tx.Error)
	}

	var project models.Project
	if err := tx.Where("id_project = ?", idProject).First(&project).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("project %s tidak ditemukan: %w", idProject, err)
	}

	now := s.Clock.Now()
	updates := map[string]interface{}{
		"priority_level":      models.PriorityNone,
		"priority_source":     nil,
		"priority_reason":     reason,
		"priority_score":      0,
		"priority_updated_at": now,
		"priority_updated_by": actorID,
	}
	if err := tx.Model(&project).Updates(updates).Error; err != nil {
		tx.Rollback()
		utils.ErrorLogger.Printf("Gagal clear prioritas project %s: %v", idProject, err)
		return fmt.Errorf("gagal menghapus prioritas: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		utils.ErrorLogger.Printf("Gagal commit clear prioritas project %s: %v", idProject, err)
		return fmt.Errorf("gagal commit transaksi: %w", err)
	}

	utils.InfoLogger.Printf("Prioritas project %s dihapus oleh user %d", idProject, actorID)
	return nil
}

// CalculateAutoPriority menghitung ulang prioritas otomatis dan menulisnya
// hanya kalau level atau source benar-benar berubah, supaya tidak ada
// penulisan (dan audit) yang sia-sia. Project manual tidak pernah disentuh.
// Mengembalikan level akhir dan apakah terjadi penulisan.
func (s *PriorityService) CalculateAutoPriority(project *models.Project) (string, bool, error) {
	if project.IsManualPriority() {
		return project.PriorityLevel, false, nil
	}

	result := ScorePriority(project, s.Clock)

	currentSource := ""
	if project.PrioritySource != nil {
		currentSource = *project.PrioritySource
	}
	if result.Level == project.PriorityLevel && result.Source == currentSource {
		return result.Level, false, nil
	}

	now := s.Clock.Now()
	updates := map[string]interface{}{
		"priority_level":      result.Level,
		"priority_source":     result.Source,
		"priority_reason":     result.Reason,
		"priority_score":      result.Score,
		"priority_updated_at": now,
		"priority_updated_by": nil,
	}
	if err := s.DB.Model(&models.Project{}).
		Where("id_project = ?", project.IDProject).
		Updates(updates).Error; err != nil {
		utils.ErrorLogger.Printf("Gagal menyimpan prioritas otomatis project %s: %v", project.IDProject, err)
		return project.PriorityLevel, false, fmt.Errorf("gagal menyimpan prioritas otomatis: %w", err)
	}

	project.PriorityLevel = result.Level
	source := result.Source
	project.PrioritySource = &source
	project.PriorityReason = result.Reason
	project.PriorityScore = result.Score
	project.PriorityUpdatedAt = &now
	project.PriorityUpdatedBy = nil

	return result.Level, true, nil
}

// RecalculateAll menghitung ulang prioritas semua project pending.
// Project manual dilewati dan dihitung sebagai skipped_manual. Idempoten:
// dijalankan dua kali berturut-turut tanpa perubahan data, run kedua
// menghasilkan updated == 0.
func (s *PriorityService) RecalculateAll() (RecalcSummary, error) {
	var summary RecalcSummary

	// Proses per halaman supaya sweep tidak menahan satu transaksi panjang
	// di dataset besar.
	const pageSize = 200
	for offset := 0; ; offset += pageSize {
		var projects []models.Project
		if err := s.DB.Where("status = ?", models.ProjectStatusPending).
			Order("id ASC").
			Limit(pageSize).Offset(offset).
			Find(&projects).Error; err != nil {
			return summary, fmt.Errorf("gagal mengambil project pending: %w", err)
		}
		if len(projects) == 0 {
			break
		}

		for i := range projects {
			summary.Total++
			if projects[i].IsManualPriority() {
				summary.SkippedManual++
				continue
			}
			_, changed, err := s.CalculateAutoPriority(&projects[i])
			if err != nil {
				// Sudah dilog, lanjut ke project berikutnya.
				continue
			}
			if changed {
				summary.Updated++
			}
		}

		if len(projects) < pageSize {
			break
		}
	}

	utils.InfoLogger.Printf("Recalculate prioritas: total=%d updated=%d skipped_manual=%d",
		summary.Total, summary.Updated, summary.SkippedManual)
	return summary, nil
}
