package services

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dimasprakoso/penagihan-app/models"
	"github.com/dimasprakoso/penagihan-app/realtime"
	"github.com/dimasprakoso/penagihan-app/utils"
	"gorm.io/gorm"
)

const refTableProjects = "projects"

// deadlineBand satu baris tabel banding pengingat deadline. Tabel ini dipakai
// bersama oleh sync interaktif dan sweep harian supaya keduanya konsisten.
type deadlineBand struct {
	MaxDays int
	Jenis   string
	Weight  int
}

// Diurutkan dari paling mendesak; band pertama yang cocok yang dipakai.
var deadlineBands = []deadlineBand{
	{MaxDays: 1, Jenis: models.NotifHMinus1, Weight: 4},
	{MaxDays: 3, Jenis: models.NotifHMinus3, Weight: 3},
	{MaxDays: 5, Jenis: models.NotifHMinus5, Weight: 2},
	{MaxDays: 7, Jenis: models.NotifHMinus7, Weight: 1},
}

const overdueWeight = 4

var deadlineJenis = []string{
	models.NotifJatuhTempo,
	models.NotifHMinus1,
	models.NotifHMinus3,
	models.NotifHMinus5,
	models.NotifHMinus7,
}

var syncedJenis = append(append([]string{}, deadlineJenis...), models.NotifPrioritasBerubah)

// matchDeadlineBand memilih jenis pengingat untuk sisa hari tertentu.
// Hari negatif berarti jatuh tempo sudah terlewat.
func matchDeadlineBand(days int) (deadlineBand, bool) {
	if days < 0 {
		return deadlineBand{Jenis: models.NotifJatuhTempo, Weight: overdueWeight}, true
	}
	for _, band := range deadlineBands {
		if days <= band.MaxDays {
			return band, true
		}
	}
	return deadlineBand{}, false
}

// deadlineLabel label tenggat yang ramah dibaca untuk isi notifikasi.
func deadlineLabel(days int) string {
	switch {
	case days < 0:
		return fmt.Sprintf("terlewat %d hari", -days)
	case days == 0:
		return "hari ini"
	case days == 1:
		return "besok"
	default:
		return fmt.Sprintf("dalam %d hari", days)
	}
}

// notifMetadata snapshot kondisi project saat notifikasi dibuat/diperbarui.
type notifMetadata struct {
	IDProject     string `json:"id_project"`
	NamaProject   string `json:"nama_project"`
	Progress      int    `json:"progress"`
	DaysRemaining *int   `json:"days_remaining,omitempty"`
	JatuhTempo    string `json:"jatuh_tempo,omitempty"`
	PriorityLevel string `json:"priority_level"`
}

// NotificationSync merekonsiliasi notifikasi deadline/prioritas seorang
// penerima terhadap kondisi project terkini: buat yang kurang, perbarui isi
// yang masih berlaku, hapus yang kondisinya sudah tidak terpenuhi.
type NotificationSync struct {
	DB    *gorm.DB
	Clock Clock
}

func NewNotificationSync(db *gorm.DB) *NotificationSync {
	return &NotificationSync{DB: db, Clock: SystemClock}
}

// SyncForUser menjalankan satu siklus rekonsiliasi untuk satu penerima.
// Dipanggil saat user membuka daftar notifikasinya, dan per-user oleh sweep
// harian. Notifikasi milik penerima lain tidak disentuh.
func (ns *NotificationSync) SyncForUser(userID uint) error {
	var projects []models.Project
	if err := ns.DB.Find(&projects).Error; err != nil {
		utils.ErrorLogger.Printf("Sync notifikasi user %d gagal mengambil project: %v", userID, err)
		return fmt.Errorf("gagal mengambil project: %w", err)
	}

	for i := range projects {
		ns.syncProject(userID, &projects[i])
	}

	ns.cleanupVanished(userID, projects)
	return nil
}

// SyncAllAdmins sweep untuk semua user pengelola (super_admin dan admin).
// Dipanggil oleh scheduler sekali sehari.
func (ns *NotificationSync) SyncAllAdmins() error {
	var users []models.User
	if err := ns.DB.Where("role IN ?", []string{models.RoleSuperAdmin, models.RoleAdmin}).
		Find(&users).Error; err != nil {
		utils.ErrorLogger.Printf("Sweep notifikasi gagal mengambil user pengelola: %v", err)
		return fmt.Errorf("gagal mengambil user pengelola: %w", err)
	}

	for _, user := range users {
		if err := ns.SyncForUser(user.ID); err != nil {
			// Kegagalan satu penerima tidak menghentikan penerima lain.
			utils.ErrorLogger.Printf("Sweep notifikasi user %d gagal: %v", user.ID, err)
		}
	}
	return nil
}

// syncProject mengevaluasi kedua famili trigger (deadline dan prioritas)
// untuk satu project dan satu penerima.
func (ns *NotificationSync) syncProject(userID uint, p *models.Project) {
	if ns.excluded(p) {
		ns.deleteJenis(userID, p.IDProject, syncedJenis...)
		return
	}

	// Famili deadline: paling banyak satu jenis yang hidup per project.
	deadline, hasDeadline := CalculateDeadline(p, ns.Clock)
	if !hasDeadline {
		ns.deleteJenis(userID, p.IDProject, deadlineJenis...)
	} else if band, ok := matchDeadlineBand(deadline.DaysRemaining); ok {
		others := make([]string, 0, len(deadlineJenis)-1)
		for _, jenis := range deadlineJenis {
			if jenis != band.Jenis {
				others = append(others, jenis)
			}
		}
		ns.deleteJenis(userID, p.IDProject, others...)

		title, pesan := composeDeadlineNotif(p, deadline)
		ns.upsert(userID, p, band.Jenis, band.Weight, title, pesan, ns.metadata(p, &deadline))
	} else {
		ns.deleteJenis(userID, p.IDProject, deadlineJenis...)
	}

	// Famili prioritas: mengikuti representasi legacy turunan.
	if prioritas := p.LegacyPrioritas(); prioritas != nil {
		weight := 2
		if *prioritas == 1 {
			weight = 3
		}
		title := fmt.Sprintf("Prioritas project %s: %s", p.NamaProject, p.PriorityLevel)
		pesan := fmt.Sprintf("Project %s (%s) sekarang berprioritas %s. %s",
			p.NamaProject, p.IDProject, p.PriorityLevel, p.PriorityReason)
		var meta notifMetadata
		if hasDeadline {
			meta = ns.metadata(p, &deadline)
		} else {
			meta = ns.metadata(p, nil)
		}
		ns.upsert(userID, p, models.NotifPrioritasBerubah, weight, title, pesan, meta)
	} else {
		ns.deleteJenis(userID, p.IDProject, models.NotifPrioritasBerubah)
	}
}

// excluded menentukan project yang tidak boleh punya notifikasi sama sekali:
// bukan pending, semua tahapan selesai, progress penuh, atau tahap pengadaan
// sudah di label akhir.
func (ns *NotificationSync) excluded(p *models.Project) bool {
	if p.Status != models.ProjectStatusPending {
		return true
	}
	if p.IsComplete() {
		return true
	}
	if p.ProgressPercent() >= 100 {
		return true
	}
	if p.TahapPengadaanFinal() {
		return true
	}
	return false
}

func composeDeadlineNotif(p *models.Project, deadline DeadlineInfo) (string, string) {
	label := deadlineLabel(deadline.DaysRemaining)
	title := fmt.Sprintf("Penagihan %s jatuh tempo %s", p.NamaProject, label)
	pesan := fmt.Sprintf("Project %s (%s) senilai %s jatuh tempo %s pada %s. Progress saat ini %d%%.",
		p.NamaProject, p.IDProject, utils.FormatRupiah(p.NilaiPenagihan),
		label, deadline.DueDate.Format("02-01-2006"), p.ProgressPercent())
	return title, pesan
}

func (ns *NotificationSync) metadata(p *models.Project, deadline *DeadlineInfo) notifMetadata {
	meta := notifMetadata{
		IDProject:     p.IDProject,
		NamaProject:   p.NamaProject,
		Progress:      p.ProgressPercent(),
		PriorityLevel: p.PriorityLevel,
	}
	if deadline != nil {
		days := deadline.DaysRemaining
		meta.DaysRemaining = &days
		meta.JatuhTempo = deadline.DueDate.Format("2006-01-02")
	}
	return meta
}

// upsert membuat atau memperbarui satu notifikasi untuk tuple
// (penerima, jenis, project). Saat memperbarui hanya isi yang ditulis ulang;
// status dan sent_at milik aksi baca user, bukan milik sync.
func (ns *NotificationSync) upsert(userID uint, p *models.Project, jenis string, weight int, title, pesan string, meta notifMetadata) {
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		utils.ErrorLogger.Printf("Gagal membuat metadata notifikasi project %s: %v", p.IDProject, err)
		return
	}

	var existing models.Notification
	err = ns.DB.Where("user_id = ? AND jenis = ? AND ref_table = ? AND ref_id = ?",
		userID, jenis, refTableProjects, p.IDProject).
		First(&existing).Error

	if err == nil {
		// Notifikasi yang sudah dibaca tidak diubah isinya, hanya bisa
		// terhapus kalau kondisinya berhenti berlaku.
		if existing.Status == models.NotifStatusRead {
			return
		}
		updates := map[string]interface{}{
			"title":    title,
			"pesan":    pesan,
			"metadata": string(metaJSON),
			"priority": weight,
		}
		if err := ns.DB.Model(&existing).Updates(updates).Error; err != nil {
			utils.ErrorLogger.Printf("Gagal memperbarui notifikasi %s project %s: %v", jenis, p.IDProject, err)
		}
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.ErrorLogger.Printf("Gagal mencari notifikasi %s project %s: %v", jenis, p.IDProject, err)
		return
	}

	now := ns.Clock.Now()
	notif := models.Notification{
		UserID:   userID,
		Jenis:    jenis,
		RefTable: refTableProjects,
		RefID:    p.IDProject,
		Title:    title,
		Pesan:    pesan,
		Status:   models.NotifStatusSent,
		Priority: weight,
		Link:     "/projects/" + p.IDProject,
		Metadata: string(metaJSON),
		SentAt:   &now,
	}
	if err := ns.DB.Create(&notif).Error; err != nil {
		utils.ErrorLogger.Printf("Gagal membuat notifikasi %s project %s: %v", jenis, p.IDProject, err)
		return
	}

	realtime.BroadcastNotification(notif)
}

// deleteJenis menghapus permanen notifikasi milik penerima untuk jenis-jenis
// tertentu dari satu project, termasuk yang sudah dibaca.
func (ns *NotificationSync) deleteJenis(userID uint, refID string, jenis ...string) {
	if len(jenis) == 0 {
		return
	}
	result := ns.DB.Unscoped().
		Where("user_id = ? AND ref_table = ? AND ref_id = ? AND jenis IN ?",
			userID, refTableProjects, refID, jenis).
		Delete(&models.Notification{})
	if result.Error != nil {
		utils.ErrorLogger.Printf("Gagal menghapus notifikasi project %s: %v", refID, result.Error)
		return
	}
	if result.RowsAffected > 0 {
		for _, j := range jenis {
			realtime.BroadcastNotificationDelete(userID, j, refID)
		}
	}
}

// cleanupVanished menghapus notifikasi yang project-nya sudah tidak ada lagi.
func (ns *NotificationSync) cleanupVanished(userID uint, projects []models.Project) {
	query := ns.DB.Unscoped().
		Where("user_id = ? AND ref_table = ? AND jenis IN ?", userID, refTableProjects, syncedJenis)

	if len(projects) > 0 {
		ids := make([]string, len(projects))
		for i := range projects {
			ids[i] = projects[i].IDProject
		}
		query = query.Where("ref_id NOT IN ?", ids)
	}

	if err := query.Delete(&models.Notification{}).Error; err != nil {
		utils.ErrorLogger.Printf("Gagal membersihkan notifikasi project yang sudah hilang: %v", err)
	}
}
