package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/dimasprakoso/penagihan-app/models"
	"gorm.io/gorm"
)

// CardStats agregat kartu dashboard.
type CardStats struct {
	TotalProject  int64   `json:"total_project"`
	TotalPending  int64   `json:"total_pending"`
	TotalPaid     int64   `json:"total_paid"`
	NilaiPending  float64 `json:"nilai_pending"`
	PriorityStats struct {
		Critical int64 `json:"critical"`
		High     int64 `json:"high"`
		Medium   int64 `json:"medium"`
		Low      int64 `json:"low"`
	} `json:"priority_stats"`
	DeadlineSoon int64     `json:"deadline_soon"` // jatuh tempo dalam <= 7 hari
	Overdue      int64     `json:"overdue"`
	GeneratedAt  time.Time `json:"generated_at"`
}

// CardStatsCache fungsi agregat murni atas tabel project dengan memoization
// ber-TTL. Di-invalidate setiap ada penulisan project supaya kartu dashboard
// tidak pernah menampilkan data basi terlalu lama.
type CardStatsCache struct {
	DB    *gorm.DB
	TTL   time.Duration
	Clock Clock

	mu      sync.RWMutex
	cached  *CardStats
	expires time.Time
}

func NewCardStatsCache(db *gorm.DB) *CardStatsCache {
	return &CardStatsCache{
		DB:    db,
		TTL:   1 * time.Minute,
		Clock: SystemClock,
	}
}

// Get mengembalikan statistik dari cache selama masih segar, kalau tidak
// menghitung ulang dari database.
func (c *CardStatsCache) Get() (CardStats, error) {
	c.mu.RLock()
	if c.cached != nil && c.Clock.Now().Before(c.expires) {
		stats := *c.cached
		c.mu.RUnlock()
		return stats, nil
	}
	c.mu.RUnlock()

	stats, err := c.compute()
	if err != nil {
		return CardStats{}, err
	}

	c.mu.Lock()
	c.cached = &stats
	c.expires = c.Clock.Now().Add(c.TTL)
	c.mu.Unlock()

	return stats, nil
}

// Invalidate dipanggil setiap kali ada penulisan project.
func (c *CardStatsCache) Invalidate() {
	c.mu.Lock()
	c.cached = nil
	c.mu.Unlock()
}

func (c *CardStatsCache) compute() (CardStats, error) {
	var stats CardStats

	c.DB.Model(&models.Project{}).Count(&stats.TotalProject)
	c.DB.Model(&models.Project{}).Where("status = ?", models.ProjectStatusPending).Count(&stats.TotalPending)
	c.DB.Model(&models.Project{}).Where("status = ?", models.ProjectStatusPaid).Count(&stats.TotalPaid)

	c.DB.Model(&models.Project{}).
		Where("status = ?", models.ProjectStatusPending).
		Select("COALESCE(SUM(nilai_penagihan), 0)").
		Row().Scan(&stats.NilaiPending)

	c.DB.Model(&models.Project{}).Where("priority_level = ?", models.PriorityCritical).Count(&stats.PriorityStats.Critical)
	c.DB.Model(&models.Project{}).Where("priority_level = ?", models.PriorityHigh).Count(&stats.PriorityStats.High)
	c.DB.Model(&models.Project{}).Where("priority_level = ?", models.PriorityMedium).Count(&stats.PriorityStats.Medium)
	c.DB.Model(&models.Project{}).Where("priority_level = ?", models.PriorityLow).Count(&stats.PriorityStats.Low)

	// Band deadline dihitung di aplikasi karena jatuh tempo bisa turunan
	// dari tanggal mulai + durasi.
	var pending []models.Project
	if err := c.DB.Where("status = ?", models.ProjectStatusPending).Find(&pending).Error; err != nil {
		return stats, fmt.Errorf("gagal mengambil project pending: %w", err)
	}
	for i := range pending {
		deadline, ok := CalculateDeadline(&pending[i], c.Clock)
		if !ok {
			continue
		}
		switch {
		case deadline.DaysRemaining < 0:
			stats.Overdue++
		case deadline.DaysRemaining <= 7:
			stats.DeadlineSoon++
		}
	}

	stats.GeneratedAt = c.Clock.Now()
	return stats, nil
}
