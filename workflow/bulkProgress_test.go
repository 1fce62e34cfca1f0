package workflow

import (
	"context"
	"errors"
	"testing"

	"bitbucket.org/mmdatafocus/production_backend/models"
)

func TestBulkUpdateProgress_PerItemResults(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, twoFloors, WithBulkConcurrency(2))
	h.addArticle(t, 1, 1000)
	h.addArticle(t, 2, 1000)

	items := []ProgressItem{
		{ArticleId: 1, Floor: models.FloorKnitting, Quantity: 400},
		{ArticleId: 2, Floor: models.FloorKnitting, Quantity: 1000},
		{ArticleId: 1, Floor: models.FloorKnitting, Quantity: 600},
		{ArticleId: 3, Floor: models.FloorKnitting, Quantity: 10},
		{ArticleId: 2, Floor: models.FloorLinking, Quantity: 2000},
	}
	results := h.lc.BulkUpdateProgress(ctx, items)
	if len(results) != len(items) {
		t.Fatalf("expected %d results, got %d", len(items), len(results))
	}
	for _, i := range []int{0, 1, 2} {
		if results[i].Err != nil {
			t.Fatalf("item %d: unexpected error %v", i, results[i].Err)
		}
	}
	if results[2].Article == nil || results[2].Article.CurrentFloor != models.FloorLinking {
		t.Fatalf("expected article 1 to reach Linking after its second item")
	}
	if !errors.Is(results[3].Err, ErrArticleNotFound) || results[3].Error == "" {
		t.Fatalf("item 3: expected ErrArticleNotFound, got %v", results[3].Err)
	}
	if !errors.Is(results[4].Err, ErrExceedsReceived) {
		t.Fatalf("item 4: expected ErrExceedsReceived, got %v", results[4].Err)
	}

	if got := mustRecord(t, h.store.get(t, 1), models.FloorKnitting).Completed; got != 1000 {
		t.Fatalf("article 1: expected completed=1000, got %d", got)
	}
	if got := mustRecord(t, h.store.get(t, 2), models.FloorLinking).Completed; got != 0 {
		t.Fatalf("article 2: rejected item must not apply, completed=%d", got)
	}
}

func TestBulkUpdateProgress_AuditWarningPerItem(t *testing.T) {
	h := newHarness(t, twoFloors)
	h.addArticle(t, 1, 100)
	h.sink.fail = errSinkDown

	results := h.lc.BulkUpdateProgress(context.Background(), []ProgressItem{
		{ArticleId: 1, Floor: models.FloorKnitting, Quantity: 10},
	})
	if results[0].Err != nil || results[0].Warning == "" || results[0].Article == nil {
		t.Fatalf("expected success with warning, got %+v", results[0])
	}
}
