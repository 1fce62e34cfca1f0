package workflow

import (
	"bitbucket.org/mmdatafocus/production_backend/models"
)

// refreshArticleState recomputes progress and the Pending -> InProgress transition.
// A PROGRESS_CHANGE entry is emitted only when the percentage actually moved.
func refreshArticleState(r *articleRun) {
	for i := range r.article.FloorQuantities {
		rec := &r.article.FloorQuantities[i]
		if r.seq.Contains(rec.Floor) {
			rec.Recalculate(r.role(rec.Floor))
		}
	}

	progress := r.article.ComputeProgress(r.seq)
	if !progress.Equal(r.article.Progress) {
		r.emit(models.TransferKindProgressChange, r.article.CurrentFloor, r.article.CurrentFloor, 0,
			r.article.Progress.StringFixed(2)+" -> "+progress.StringFixed(2))
		r.article.Progress = progress
	}

	if r.article.Status == "" {
		r.article.Status = models.ArticleStatusPending
	}
	if r.article.Status == models.ArticleStatusPending {
		for _, rec := range r.article.FloorQuantities {
			if rec.Completed > 0 {
				r.article.Status = models.ArticleStatusInProgress
				break
			}
		}
	}
}
