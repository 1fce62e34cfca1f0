package workflow

import (
	"context"

	"bitbucket.org/mmdatafocus/production_backend/models"
	"golang.org/x/sync/errgroup"
)

type ProgressItem struct {
	ArticleId int              `json:"article_id" validate:"gt=0"`
	Floor     models.Floor     `json:"floor" validate:"required"`
	Quantity  int              `json:"quantity" validate:"gt=0"`
	Metadata  ProgressMetadata `json:"metadata"`
}

type ProgressResult struct {
	ArticleId int             `json:"article_id"`
	Floor     models.Floor    `json:"floor"`
	Article   *models.Article `json:"article,omitempty"`
	Err       error           `json:"-"`
	Error     string          `json:"error,omitempty"`
	Warning   string          `json:"warning,omitempty"`
}

// BulkUpdateProgress applies many progress updates. Different articles run concurrently;
// items for the same article run one after another in input order. Every item gets its own
// result, a failing item does not stop the others.
func (c *ArticleLifecycle) BulkUpdateProgress(ctx context.Context, items []ProgressItem) []ProgressResult {
	results := make([]ProgressResult, len(items))
	byArticle := make(map[int][]int)
	var articleOrder []int
	for i, item := range items {
		if _, ok := byArticle[item.ArticleId]; !ok {
			articleOrder = append(articleOrder, item.ArticleId)
		}
		byArticle[item.ArticleId] = append(byArticle[item.ArticleId], i)
	}

	var g errgroup.Group
	g.SetLimit(c.bulkLimit)
	for _, articleId := range articleOrder {
		indexes := byArticle[articleId]
		g.Go(func() error {
			for _, i := range indexes {
				item := items[i]
				res := ProgressResult{ArticleId: item.ArticleId, Floor: item.Floor}
				if err := ctx.Err(); err != nil {
					res.Err, res.Error = err, err.Error()
					results[i] = res
					continue
				}
				article, err := c.UpdateProgress(ctx, item.ArticleId, item.Floor, item.Quantity, item.Metadata)
				res.Article = article
				switch {
				case err == nil:
				case IsAuditWarning(err):
					res.Warning = err.Error()
				default:
					res.Err, res.Error = err, err.Error()
				}
				results[i] = res
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
