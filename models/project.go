package models

import (
	"math"
	"strings"
	"time"
)

// Status project penagihan
const (
	ProjectStatusPending   = "pending"
	ProjectStatusPaid      = "paid"
	ProjectStatusClosed    = "closed"
	ProjectStatusCancelled = "cancelled"
)

// Level prioritas
const (
	PriorityCritical = "critical"
	PriorityHigh     = "high"
	PriorityMedium   = "medium"
	PriorityLow      = "low"
	PriorityNone     = "none"
)

// Sumber prioritas
const (
	PrioritySourceManual   = "manual"
	PrioritySourceDeadline = "auto_deadline"
	PrioritySourceOverdue  = "auto_overdue"
	PrioritySourceBlocked  = "auto_blocked"
	PrioritySourceSystem   = "system"
)

type Project struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	IDProject         string     `gorm:"type:varchar(50);uniqueIndex;not null" json:"id_project"`
	NamaProject       string     `gorm:"type:varchar(255);not null" json:"nama_project"`
	Status            string     `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	NilaiPenagihan    float64    `gorm:"type:decimal(15,2);not null;default:0.00" json:"nilai_penagihan"`
	TanggalMulai      *time.Time `json:"tanggal_mulai,omitempty"`
	DurasiHari        *int       `json:"durasi_hari,omitempty"`
	TanggalJatuhTempo *time.Time `json:"tanggal_jatuh_tempo,omitempty"`

	// Enam tahapan pekerjaan. Nilainya dinormalisasi lowercase di boundary
	// (controller/seed) dan dibandingkan terhadap sentinel selesai per tahapan.
	StatusCT1           string `gorm:"type:varchar(50)" json:"status_ct1"`
	StatusCT2           string `gorm:"type:varchar(50)" json:"status_ct2"`
	StatusRekonBOQ      string `gorm:"type:varchar(50)" json:"status_rekon_boq"`
	StatusRekonMaterial string `gorm:"type:varchar(50)" json:"status_rekon_material"`
	StatusAlignMaterial string `gorm:"type:varchar(50)" json:"status_align_material"`
	TahapPengadaan      string `gorm:"type:varchar(50)" json:"tahap_pengadaan"`

	PriorityLevel     string     `gorm:"type:varchar(10);not null;default:'none'" json:"priority_level"`
	PrioritySource    *string    `gorm:"type:varchar(20)" json:"priority_source,omitempty"`
	PriorityReason    string     `gorm:"type:text" json:"priority_reason"`
	PriorityScore     int        `gorm:"not null;default:0" json:"priority_score"`
	PriorityUpdatedAt *time.Time `json:"priority_updated_at,omitempty"`
	PriorityUpdatedBy *uint      `json:"priority_updated_by,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// Sentinel "selesai" per tahapan
const (
	StageDoneCT        = "sudah ct"
	StageDoneRekon     = "sudah rekon"
	StageDoneAlign     = "sudah align"
	StageDonePengadaan = "selesai"
)

// Label tahap pengadaan yang berarti project secara efektif sudah tutup
var finalPengadaanLabels = []string{"selesai", "bast", "serah terima"}

// NormalizeStage merapikan nilai tahapan dari input bebas menjadi bentuk
// kanonik lowercase tanpa spasi pinggir ("Sudah CT" -> "sudah ct").
func NormalizeStage(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func stageDone(value, sentinel string) bool {
	return NormalizeStage(value) == sentinel
}

// StageFlags mengembalikan status selesai keenam tahapan, berurutan:
// CT1, CT2, rekon BOQ, rekon material, align material, pengadaan.
func (p *Project) StageFlags() [6]bool {
	return [6]bool{
		stageDone(p.StatusCT1, StageDoneCT),
		stageDone(p.StatusCT2, StageDoneCT),
		stageDone(p.StatusRekonBOQ, StageDoneRekon),
		stageDone(p.StatusRekonMaterial, StageDoneRekon),
		stageDone(p.StatusAlignMaterial, StageDoneAlign),
		stageDone(p.TahapPengadaan, StageDonePengadaan),
	}
}

// ProgressPercent menghitung persentase tahapan yang sudah selesai (0-100).
func (p *Project) ProgressPercent() int {
	done := 0
	for _, ok := range p.StageFlags() {
		if ok {
			done++
		}
	}
	return int(math.Round(float64(done) / 6.0 * 100))
}

// IsComplete true kalau keenam tahapan sudah selesai semua.
func (p *Project) IsComplete() bool {
	for _, ok := range p.StageFlags() {
		if !ok {
			return false
		}
	}
	return true
}

// TahapPengadaanFinal true kalau label pengadaan termasuk nilai akhir
// (selesai / BAST / serah terima), artinya project sudah tutup.
func (p *Project) TahapPengadaanFinal() bool {
	value := NormalizeStage(p.TahapPengadaan)
	for _, label := range finalPengadaanLabels {
		if value == label {
			return true
		}
	}
	return false
}

// IsManualPriority true kalau prioritas diatur manual oleh user.
// Project manual tidak boleh dihitung ulang otomatis sampai di-clear.
func (p *Project) IsManualPriority() bool {
	return p.PrioritySource != nil && *p.PrioritySource == PrioritySourceManual
}

// LegacyPrioritas menurunkan field integer lama dari representasi terstruktur:
// 1 = prioritas manual, 2 = prioritas otomatis, nil = tanpa prioritas.
// Field terstruktur (level/source/score) adalah satu-satunya sumber kebenaran;
// integer ini hanya dihitung di boundary serialisasi.
func (p *Project) LegacyPrioritas() *int {
	if p.PriorityLevel == "" || p.PriorityLevel == PriorityNone {
		return nil
	}
	v := 2
	if p.IsManualPriority() {
		v = 1
	}
	return &v
}
