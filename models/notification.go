package models

import (
	"time"

	"gorm.io/gorm"
)

// Jenis notifikasi yang dikelola oleh sinkronisasi deadline/prioritas
const (
	NotifJatuhTempo       = "jatuh_tempo"
	NotifHMinus1          = "h_minus_1"
	NotifHMinus3          = "h_minus_3"
	NotifHMinus5          = "h_minus_5"
	NotifHMinus7          = "h_minus_7"
	NotifPrioritasBerubah = "prioritas_berubah"
)

// Status notifikasi
const (
	NotifStatusPending = "pending"
	NotifStatusSent    = "sent"
	NotifStatusRead    = "read"
	NotifStatusFailed  = "failed"
)

// Notification direkonsiliasi oleh NotificationSync: paling banyak satu baris
// hidup per tuple (user_id, jenis, ref_table, ref_id).
type Notification struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"not null;index:idx_notif_tuple" json:"user_id"`
	User      User           `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Jenis     string         `gorm:"type:varchar(30);not null;index:idx_notif_tuple" json:"jenis"`
	RefTable  string         `gorm:"type:varchar(30);not null;index:idx_notif_tuple" json:"ref_table"`
	RefID     string         `gorm:"type:varchar(50);not null;index:idx_notif_tuple" json:"ref_id"`
	Title     string         `gorm:"type:varchar(150);not null" json:"title"`
	Pesan     string         `gorm:"type:text;not null" json:"pesan"`
	Status    string         `gorm:"type:varchar(10);not null;default:'sent'" json:"status"`
	Priority  int            `gorm:"not null;default:1" json:"priority"`
	Link      string         `gorm:"type:varchar(255)" json:"link"`
	Metadata  string         `gorm:"type:text" json:"metadata"`
	SentAt    *time.Time     `json:"sent_at,omitempty"`
	ReadAt    *time.Time     `json:"read_at,omitempty"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
