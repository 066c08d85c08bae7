package services

import (
	"time"

	"github.com/dimasprakoso/penagihan-app/models"
)

// Clock menyediakan waktu sekarang. Bisa diganti di test supaya perhitungan
// deadline dan skor deterministik.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock dipakai semua service di runtime normal.
var SystemClock Clock = systemClock{}

// DeadlineInfo hasil perhitungan jatuh tempo sebuah project.
type DeadlineInfo struct {
	DueDate       time.Time
	DaysRemaining int // negatif berarti sudah terlewat
}

// CalculateDeadline menentukan tanggal jatuh tempo: pakai tanggal jatuh tempo
// eksplisit kalau ada, kalau tidak tanggal mulai + durasi hari.
// Mengembalikan false kalau keduanya tidak tersedia (project tanpa deadline).
func CalculateDeadline(p *models.Project, clock Clock) (DeadlineInfo, bool) {
	var due time.Time
	switch {
	case p.TanggalJatuhTempo != nil:
		due = *p.TanggalJatuhTempo
	case p.TanggalMulai != nil && p.DurasiHari != nil:
		due = p.TanggalMulai.AddDate(0, 0, *p.DurasiHari)
	default:
		return DeadlineInfo{}, false
	}

	due = truncateToDay(due)
	today := truncateToDay(clock.Now())
	days := int(due.Sub(today).Hours() / 24)

	return DeadlineInfo{DueDate: due, DaysRemaining: days}, true
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
