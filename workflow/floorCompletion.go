package workflow

import (
	"bitbucket.org/mmdatafocus/production_backend/models"
)

// advanceFloors moves the article past every consecutive complete floor starting at its
// current floor. On the terminal floor it completes the article once no floor holds
// unfinished work. Returns the number of floors advanced.
func advanceFloors(r *articleRun) int {
	advanced := 0
	lastInspection := lastInspectionFloor(r.seq)
	for {
		cur := r.article.CurrentFloor
		rec := r.record(cur)
		if rec == nil {
			return advanced
		}
		role := r.role(cur)
		if !rec.IsComplete(role) {
			return advanced
		}

		next, ok := r.seq.Next(cur)
		if !ok || role.Terminal {
			completeArticle(r, cur, rec)
			return advanced
		}

		r.article.CurrentFloor = next
		if cur != lastInspection {
			r.article.FloorStartedAt = nil
			r.article.FloorRemarks = ""
		}
		r.emit(models.TransferKindFloorAdvance, cur, next, rec.Completed, "")
		r.trace("floor complete", cur)
		advanced++
	}
}

func completeArticle(r *articleRun, terminal models.Floor, rec *models.FloorQuantity) {
	if r.article.Status == models.ArticleStatusCompleted || hasOpenWork(r) {
		return
	}
	completedAt := r.now
	r.article.Status = models.ArticleStatusCompleted
	r.article.CompletedAt = &completedAt
	r.emit(models.TransferKindCompleted, terminal, terminal, rec.Completed, "")
}

// hasOpenWork reports whether any floor still holds units it has not finished with.
// Reworked units coming back from a repair keep the article open.
func hasOpenWork(r *articleRun) bool {
	for _, f := range r.seq {
		rec := r.record(f)
		if rec == nil {
			continue
		}
		if rec.Remaining > 0 || rec.Backlog(r.role(f)) > 0 {
			return true
		}
	}
	return false
}

// reopenArticle puts a completed article back in progress when units re-enter production.
func reopenArticle(r *articleRun) {
	if r.article.Status != models.ArticleStatusCompleted {
		return
	}
	r.article.Status = models.ArticleStatusInProgress
	r.article.CompletedAt = nil
	r.trace("article reopened", r.article.CurrentFloor)
}

func lastInspectionFloor(seq models.FloorSequence) models.Floor {
	floors := seq.InspectionFloors()
	if len(floors) == 0 {
		return ""
	}
	return floors[len(floors)-1]
}
