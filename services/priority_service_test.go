package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dimasprakoso/penagihan-app/models"
	"github.com/dimasprakoso/penagihan-app/utils"
)

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	utils.InitLogger()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open in-memory sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Project{}, &models.Notification{}, &models.ActivityLog{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func newTestPriorityService(db *gorm.DB, now time.Time) *PriorityService {
	svc := NewPriorityService(db)
	svc.Clock = fakeClock{t: now}
	return svc
}

func seedProject(t *testing.T, db *gorm.DB, p models.Project) models.Project {
	t.Helper()
	if p.Status == "" {
		p.Status = models.ProjectStatusPending
	}
	if p.PriorityLevel == "" {
		p.PriorityLevel = models.PriorityNone
	}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("failed to seed project: %v", err)
	}
	return p
}

func TestSetManualPriority(t *testing.T) {
	db := setupServiceTestDB(t)
	now := time.Now()
	svc := newTestPriorityService(db, now)

	project := seedProject(t, db, models.Project{IDProject: "PRJ-MAN1", NamaProject: "Gedung A"})

	err := svc.SetManualPriority(project.IDProject, models.PriorityHigh, 7, "eskalasi direksi")
	assert.NoError(t, err)

	var saved models.Project
	assert.NoError(t, db.Where("id_project = ?", project.IDProject).First(&saved).Error)
	assert.Equal(t, models.PriorityHigh, saved.PriorityLevel)
	assert.NotNil(t, saved.PrioritySource)
	assert.Equal(t, models.PrioritySourceManual, *saved.PrioritySource)
	assert.Equal(t, "eskalasi direksi", saved.PriorityReason)
	assert.Equal(t, 75, saved.PriorityScore)
	assert.NotNil(t, saved.PriorityUpdatedBy)
	assert.Equal(t, uint(7), *saved.PriorityUpdatedBy)
}

func TestSetManualPriority_UnknownLevel(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := newTestPriorityService(db, time.Now())

	err := svc.SetManualPriority("PRJ-X", "urgent", 1, "")
	assert.Error(t, err)
}

func TestCalculateAutoPriority_ManualImmune(t *testing.T) {
	db := setupServiceTestDB(t)
	now := time.Now()
	svc := newTestPriorityService(db, now)

	due := now.AddDate(0, 0, -5) // jauh terlewat
	source := models.PrioritySourceManual
	project := seedProject(t, db, models.Project{
		IDProject:         "PRJ-MAN2",
		NamaProject:       "Gedung B",
		TanggalJatuhTempo: &due,
		PriorityLevel:     models.PriorityLow,
		PrioritySource:    &source,
		PriorityScore:     15,
	})

	level, changed, err := svc.CalculateAutoPriority(&project)
	assert.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, models.PriorityLow, level)

	var saved models.Project
	assert.NoError(t, db.Where("id_project = ?", project.IDProject).First(&saved).Error)
	assert.Equal(t, models.PriorityLow, saved.PriorityLevel)
	assert.Equal(t, models.PrioritySourceManual, *saved.PrioritySource)
	assert.Equal(t, 15, saved.PriorityScore)
}

func TestCalculateAutoPriority_WritesOnlyOnChange(t *testing.T) {
	db := setupServiceTestDB(t)
	now := time.Now()
	svc := newTestPriorityService(db, now)

	due := now.AddDate(0, 0, 2)
	project := seedProject(t, db, models.Project{
		IDProject:         "PRJ-AUTO1",
		NamaProject:       "Gedung C",
		TanggalJatuhTempo: &due,
	})

	level, changed, err := svc.CalculateAutoPriority(&project)
	assert.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.PriorityHigh, level)

	// Hitung kedua tanpa perubahan data: tidak ada penulisan.
	_, changed, err = svc.CalculateAutoPriority(&project)
	assert.NoError(t, err)
	assert.False(t, changed)
}

func TestClearPriority(t *testing.T) {
	db := setupServiceTestDB(t)
	now := time.Now()
	svc := newTestPriorityService(db, now)

	project := seedProject(t, db, models.Project{IDProject: "PRJ-CLR1", NamaProject: "Gedung D"})
	assert.NoError(t, svc.SetManualPriority(project.IDProject, models.PriorityCritical, 3, ""))

	assert.NoError(t, svc.ClearPriority(project.IDProject, 3, "sudah ditangani"))

	var saved models.Project
	assert.NoError(t, db.Where("id_project = ?", project.IDProject).First(&saved).Error)
	assert.Equal(t, models.PriorityNone, saved.PriorityLevel)
	assert.Nil(t, saved.PrioritySource)
	assert.Equal(t, 0, saved.PriorityScore)
	assert.Equal(t, "sudah ditangani", saved.PriorityReason)
	assert.Nil(t, saved.LegacyPrioritas())
}

func TestRecalculateAll_Idempotent(t *testing.T) {
	db := setupServiceTestDB(t)
	now := time.Now()
	svc := newTestPriorityService(db, now)

	dueSoon := now.AddDate(0, 0, 2)
	dueLater := now.AddDate(0, 0, 20)
	seedProject(t, db, models.Project{IDProject: "PRJ-R1", NamaProject: "P1", TanggalJatuhTempo: &dueSoon})
	seedProject(t, db, models.Project{IDProject: "PRJ-R2", NamaProject: "P2", TanggalJatuhTempo: &dueLater})
	seedProject(t, db, models.Project{IDProject: "PRJ-R3", NamaProject: "P3", Status: models.ProjectStatusPaid, TanggalJatuhTempo: &dueSoon})

	first, err := svc.RecalculateAll()
	assert.NoError(t, err)
	assert.Equal(t, 2, first.Total) // project paid tidak ikut
	assert.Equal(t, 2, first.Updated)
	assert.Equal(t, 0, first.SkippedManual)

	second, err := svc.RecalculateAll()
	assert.NoError(t, err)
	assert.Equal(t, 2, second.Total)
	assert.Equal(t, 0, second.Updated)
}

func TestRecalculateAll_SkipsManual(t *testing.T) {
	db := setupServiceTestDB(t)
	now := time.Now()
	svc := newTestPriorityService(db, now)

	due := now.AddDate(0, 0, 1)
	source := models.PrioritySourceManual
	manual := seedProject(t, db, models.Project{
		IDProject:         "PRJ-P2",
		NamaProject:       "Legacy manual",
		TanggalJatuhTempo: &due,
		PriorityLevel:     models.PriorityHigh,
		PrioritySource:    &source,
		PriorityScore:     75,
	})

	summary, err := svc.RecalculateAll()
	assert.NoError(t, err)
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, summary.SkippedManual)
	assert.Equal(t, 0, summary.Updated)

	// Field prioritas tidak tersentuh dan representasi legacy tetap 1.
	var saved models.Project
	assert.NoError(t, db.Where("id_project = ?", manual.IDProject).First(&saved).Error)
	assert.Equal(t, models.PriorityHigh, saved.PriorityLevel)
	assert.Equal(t, 75, saved.PriorityScore)
	if assert.NotNil(t, saved.LegacyPrioritas()) {
		assert.Equal(t, 1, *saved.LegacyPrioritas())
	}
}
