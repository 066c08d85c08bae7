package services

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dimasprakoso/penagihan-app/models"
)

// Ambang pemetaan skor -> level
const (
	scoreCritical = 90
	scoreHigh     = 60
	scoreMedium   = 30
)

// PriorityResult hasil perhitungan prioritas otomatis sebuah project.
type PriorityResult struct {
	Level            string
	Source           string
	Score            int
	Reason           string
	ActualProgress   int
	ExpectedProgress int
}

// ScorePriority menghitung skor urgensi dari faktor-faktor berbobot:
// kedekatan deadline, selisih progress terhadap ekspektasi, lamanya tanpa
// update, dan tahapan awal yang belum selesai. Project dengan prioritas
// manual dikembalikan apa adanya, tidak pernah dihitung ulang.
func ScorePriority(p *models.Project, clock Clock) PriorityResult {
	if p.IsManualPriority() {
		return PriorityResult{
			Level:          p.PriorityLevel,
			Source:         models.PrioritySourceManual,
			Score:          p.PriorityScore,
			Reason:         p.PriorityReason,
			ActualProgress: p.ProgressPercent(),
		}
	}

	score := 0
	source := ""
	reasons := make([]string, 0, 4)

	deadline, hasDeadline := CalculateDeadline(p, clock)

	// Faktor 1: kedekatan deadline. Band pertama yang cocok yang dipakai.
	if hasDeadline {
		switch {
		case deadline.DaysRemaining < 0:
			score += 100
			source = models.PrioritySourceOverdue
			reasons = append(reasons, fmt.Sprintf("jatuh tempo terlewat %d hari", -deadline.DaysRemaining))
		case deadline.DaysRemaining <= 1:
			score += 90
			source = models.PrioritySourceDeadline
			reasons = append(reasons, "jatuh tempo dalam 1 hari")
		case deadline.DaysRemaining <= 3:
			score += 70
			source = models.PrioritySourceDeadline
			reasons = append(reasons, fmt.Sprintf("jatuh tempo dalam %d hari", deadline.DaysRemaining))
		case deadline.DaysRemaining <= 7:
			score += 50
			source = models.PrioritySourceDeadline
			reasons = append(reasons, fmt.Sprintf("jatuh tempo dalam %d hari", deadline.DaysRemaining))
		}
	}

	// Faktor 2: selisih progress aktual terhadap ekspektasi linier.
	actual := p.ProgressPercent()
	expected := expectedProgress(p, deadline, hasDeadline, clock)
	gap := expected - actual
	switch {
	case gap >= 30:
		score += 40
		reasons = append(reasons, fmt.Sprintf("progress tertinggal %d%% dari ekspektasi", gap))
	case gap >= 15:
		score += 20
		reasons = append(reasons, fmt.Sprintf("progress tertinggal %d%% dari ekspektasi", gap))
	}

	// Faktor 3: lama tanpa update padahal belum selesai.
	if actual < 100 {
		if stale := daysSince(p.UpdatedAt, clock); stale >= 7 {
			score += 30
			if source == "" {
				source = models.PrioritySourceBlocked
			}
			reasons = append(reasons, fmt.Sprintf("tanpa update selama %d hari", stale))
		}
	}

	// Faktor 4: CT pertama belum selesai sementara sudah ada faktor lain.
	if score > 0 && !p.StageFlags()[0] {
		score += 10
		reasons = append(reasons, "CT pertama belum selesai")
	}

	level := levelForScore(score)
	if source == "" {
		source = models.PrioritySourceSystem
	}
	reason := strings.Join(reasons, "; ")
	if reason == "" {
		reason = "tanpa faktor urgensi"
	}

	return PriorityResult{
		Level:            level,
		Source:           source,
		Score:            score,
		Reason:           reason,
		ActualProgress:   actual,
		ExpectedProgress: expected,
	}
}

func levelForScore(score int) string {
	switch {
	case score >= scoreCritical:
		return models.PriorityCritical
	case score >= scoreHigh:
		return models.PriorityHigh
	case score >= scoreMedium:
		return models.PriorityMedium
	case score > 0:
		return models.PriorityLow
	default:
		return models.PriorityNone
	}
}

// expectedProgress interpolasi linier fraksi waktu berjalan antara tanggal
// mulai dan deadline, di-clamp ke [0,100]. Tanpa tanggal mulai atau deadline
// hasilnya 0, bukan error.
func expectedProgress(p *models.Project, deadline DeadlineInfo, hasDeadline bool, clock Clock) int {
	if !hasDeadline || p.TanggalMulai == nil {
		return 0
	}

	start := truncateToDay(*p.TanggalMulai)
	today := truncateToDay(clock.Now())

	total := deadline.DueDate.Sub(start).Hours() / 24
	if total <= 0 {
		return 100
	}

	elapsed := today.Sub(start).Hours() / 24
	frac := elapsed / total
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	return int(math.Round(frac * 100))
}

func daysSince(t time.Time, clock Clock) int {
	return int(clock.Now().Sub(t).Hours() / 24)
}
