package services

import (
	"log"
	"sync/atomic"
	"time"

	"github.com/dimasprakoso/penagihan-app/database"
	"github.com/dimasprakoso/penagihan-app/utils"
	"gorm.io/gorm"
)

// Scheduler menjalankan tugas harian: recalculation prioritas, sweep
// pengingat notifikasi untuk semua pengelola, dan pembersihan data lama.
// Eksekusi dijaga supaya tidak pernah tumpang tindih.
type Scheduler struct {
	DB       *gorm.DB
	Interval time.Duration
	StopChan chan struct{}

	sync     *NotificationSync
	priority *PriorityService
	running  int32
	lastRun  time.Time
}

func NewScheduler(db *gorm.DB) *Scheduler {
	return &Scheduler{
		DB:       db,
		Interval: 1 * time.Hour,
		StopChan: make(chan struct{}),
		sync:     NewNotificationSync(db),
		priority: NewPriorityService(db),
	}
}

func (s *Scheduler) Start() {
	go func() {
		ticker := time.NewTicker(s.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.runDaily()
			case <-s.StopChan:
				return
			}
		}
	}()
	log.Println("Scheduler started")
}

func (s *Scheduler) Stop() {
	close(s.StopChan)
}

// runDaily mengeksekusi tugas harian paling banyak sekali per hari kalender.
// Kalau eksekusi sebelumnya masih berjalan, tick ini dilewati.
func (s *Scheduler) runDaily() {
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		log.Println("Scheduler masih berjalan, eksekusi dilewati")
		return
	}
	defer atomic.StoreInt32(&s.running, 0)

	now := time.Now()
	if !s.lastRun.IsZero() && sameDay(s.lastRun, now) {
		return
	}

	if _, err := s.priority.RecalculateAll(); err != nil {
		utils.ErrorLogger.Printf("Recalculate prioritas harian gagal: %v", err)
	}

	if err := s.sync.SyncAllAdmins(); err != nil {
		utils.ErrorLogger.Printf("Sweep notifikasi harian gagal: %v", err)
	}

	if err := database.CleanupOldData(s.DB); err != nil {
		utils.ErrorLogger.Printf("Pembersihan data harian gagal: %v", err)
	}

	s.lastRun = now
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
