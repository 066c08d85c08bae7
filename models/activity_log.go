package models

import "time"

// Kind activity log
const (
	ActivityKindCreate = "create"
	ActivityKindUpdate = "update"
	ActivityKindDelete = "delete"
	ActivityKindSystem = "system"
)

// ActivityLog jejak audit perubahan data. Snapshot before/after disimpan
// sebagai JSON string untuk keperluan tampilan riwayat.
type ActivityLog struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      *uint     `gorm:"index" json:"user_id,omitempty"`
	Action      string    `gorm:"type:varchar(100);not null" json:"action"`
	Kind        string    `gorm:"type:varchar(30);not null" json:"kind"`
	Description string    `gorm:"type:text" json:"description"`
	RefTable    string    `gorm:"type:varchar(30);index" json:"ref_table"`
	RefID       string    `gorm:"type:varchar(50);index" json:"ref_id"`
	Before      string    `gorm:"type:text" json:"before,omitempty"`
	After       string    `gorm:"type:text" json:"after,omitempty"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
}
