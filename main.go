package main

import (
	"fmt"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/dimasprakoso/penagihan-app/config"
	"github.com/dimasprakoso/penagihan-app/middlewares"
	"github.com/dimasprakoso/penagihan-app/models"
	"github.com/dimasprakoso/penagihan-app/router"
	"github.com/dimasprakoso/penagihan-app/services"
	"github.com/dimasprakoso/penagihan-app/utils"
	"gorm.io/gorm"
)

func init() {
	// Load .env di awal sebelum apapun
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or error loading: %v", err)
	}

	utils.InitLogger()
}

func main() {
	db, err := config.InitDB()
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}

	// Simpan koneksi database untuk dipakai lintas package
	utils.InitDB(db)

	autoMigrate(db)

	// Mode CLI: `penagihan-app recalculate` menjalankan recalculation
	// prioritas sekali lalu keluar. Dipakai operator dan cron eksternal.
	if len(os.Args) > 1 && os.Args[1] == "recalculate" {
		svc := services.NewPriorityService(db)
		summary, err := svc.RecalculateAll()
		if err != nil {
			utils.ErrorLogger.Fatalf("Recalculation gagal: %v", err)
		}
		fmt.Printf("total=%d updated=%d skipped_manual=%d\n",
			summary.Total, summary.Updated, summary.SkippedManual)
		return
	}

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Scheduler harian: recalculation prioritas, sweep notifikasi pengelola,
	// dan pembersihan data lama
	scheduler := services.NewScheduler(db)
	scheduler.Start()
	defer scheduler.Stop()

	// Rate limiter global per IP
	rateLimiter := middlewares.NewRateLimiter(50, 1)

	r := router.SetupRouter(db)
	r.Use(rateLimiter.RateLimit())

	r.SetTrustedProxies([]string{"127.0.0.1", "localhost"})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	utils.InfoLogger.Printf("Listening on port %s", port)
	if err := r.Run(":" + port); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}

func autoMigrate(db *gorm.DB) {
	err := db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.Notification{},
		&models.ActivityLog{},
	)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")
}
