package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dimasprakoso/penagihan-app/models"
)

func TestCardStatsCache_ComputeAndTTL(t *testing.T) {
	db := setupServiceTestDB(t)
	now := time.Now()

	overdue := now.AddDate(0, 0, -1)
	soon := now.AddDate(0, 0, 5)
	later := now.AddDate(0, 0, 30)

	seedProject(t, db, models.Project{IDProject: "PRJ-S1", NamaProject: "A", NilaiPenagihan: 1000, TanggalJatuhTempo: &overdue, PriorityLevel: models.PriorityCritical})
	seedProject(t, db, models.Project{IDProject: "PRJ-S2", NamaProject: "B", NilaiPenagihan: 500, TanggalJatuhTempo: &soon, PriorityLevel: models.PriorityHigh})
	seedProject(t, db, models.Project{IDProject: "PRJ-S3", NamaProject: "C", TanggalJatuhTempo: &later})
	seedProject(t, db, models.Project{IDProject: "PRJ-S4", NamaProject: "D", Status: models.ProjectStatusPaid})

	cache := NewCardStatsCache(db)
	cache.Clock = fakeClock{t: now}

	stats, err := cache.Get()
	assert.NoError(t, err)
	assert.Equal(t, int64(4), stats.TotalProject)
	assert.Equal(t, int64(3), stats.TotalPending)
	assert.Equal(t, int64(1), stats.TotalPaid)
	assert.Equal(t, float64(1500), stats.NilaiPending)
	assert.Equal(t, int64(1), stats.PriorityStats.Critical)
	assert.Equal(t, int64(1), stats.PriorityStats.High)
	assert.Equal(t, int64(1), stats.Overdue)
	assert.Equal(t, int64(1), stats.DeadlineSoon)

	// Penulisan baru tidak terlihat selama TTL masih berlaku.
	seedProject(t, db, models.Project{IDProject: "PRJ-S5", NamaProject: "E"})
	cached, err := cache.Get()
	assert.NoError(t, err)
	assert.Equal(t, int64(4), cached.TotalProject)

	// Invalidate memaksa hitung ulang.
	cache.Invalidate()
	fresh, err := cache.Get()
	assert.NoError(t, err)
	assert.Equal(t, int64(5), fresh.TotalProject)
}

func TestCardStatsCache_ExpiresAfterTTL(t *testing.T) {
	db := setupServiceTestDB(t)
	now := time.Now()

	seedProject(t, db, models.Project{IDProject: "PRJ-T1", NamaProject: "A"})

	cache := NewCardStatsCache(db)
	cache.Clock = fakeClock{t: now}

	stats, err := cache.Get()
	assert.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalProject)

	seedProject(t, db, models.Project{IDProject: "PRJ-T2", NamaProject: "B"})

	// Maju melewati TTL tanpa Invalidate eksplisit.
	cache.Clock = fakeClock{t: now.Add(2 * time.Minute)}
	fresh, err := cache.Get()
	assert.NoError(t, err)
	assert.Equal(t, int64(2), fresh.TotalProject)
}
