package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/production_backend/models"
	"bitbucket.org/mmdatafocus/production_backend/utils"
)

// NOTE: engine tests are DB-free. memoryStore mimics GormArticleStore's version check and
// order floor mirror; recordingSink stands in for the transfer_events ledger.

type memoryStore struct {
	mu          sync.Mutex
	articles    map[int]*models.Article
	orderFloors map[int]models.Floor
	saves       int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		articles:    map[int]*models.Article{},
		orderFloors: map[int]models.Floor{},
	}
}

func (s *memoryStore) put(a *models.Article) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.articles[a.ID] = a.Clone()
}

func (s *memoryStore) get(t *testing.T, id int) *models.Article {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.articles[id]
	if !ok {
		t.Fatalf("article %d not in store", id)
	}
	return a.Clone()
}

func (s *memoryStore) GetArticle(_ context.Context, id int) (*models.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.articles[id]
	if !ok {
		return nil, utils.ErrorRecordNotFound
	}
	return a.Clone(), nil
}

func (s *memoryStore) SaveArticle(_ context.Context, article *models.Article) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.articles[article.ID]
	if !ok {
		return utils.ErrorRecordNotFound
	}
	if stored.Version != article.Version {
		return models.ErrVersionConflict
	}
	article.Version++
	s.articles[article.ID] = article.Clone()
	if cur, ok := s.orderFloors[article.OrderId]; !ok || article.CurrentFloor.Rank() > cur.Rank() {
		s.orderFloors[article.OrderId] = article.CurrentFloor
	}
	s.saves++
	return nil
}

func (s *memoryStore) DeleteArticle(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.articles[id]; !ok {
		return utils.ErrorRecordNotFound
	}
	delete(s.articles, id)
	return nil
}

type recordingSink struct {
	mu     sync.Mutex
	events []models.TransferEvent
	fail   error
}

func (s *recordingSink) Record(_ context.Context, events []models.TransferEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.events = append(s.events, events...)
	return nil
}

func (s *recordingSink) ofKind(kind models.TransferKind) []models.TransferEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.TransferEvent
	for _, e := range s.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

var errSinkDown = errors.New("ledger unavailable")

var fixedNow = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

type harness struct {
	store *memoryStore
	sink  *recordingSink
	lc    *ArticleLifecycle
	seq   models.FloorSequence
}

func newHarness(t *testing.T, seq []models.Floor, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		store: newMemoryStore(),
		sink:  &recordingSink{},
		seq:   models.FloorSequence(seq),
	}
	opts = append([]Option{WithSinglePass(false), WithClock(func() time.Time { return fixedNow })}, opts...)
	h.lc = NewArticleLifecycle(h.store, StaticFloorSequence(seq), h.sink, opts...)
	return h
}

// addArticle stores a fresh article with planned units allocated to the first floor.
func (h *harness) addArticle(t *testing.T, id, planned int) *models.Article {
	t.Helper()
	a, err := models.NewArticleRecord("factory-1", 100, models.NewArticle{ArticleNo: "ART-1", PlannedQuantity: planned}, h.seq)
	if err != nil {
		t.Fatalf("NewArticleRecord: %v", err)
	}
	a.ID = id
	for i := range a.FloorQuantities {
		a.FloorQuantities[i].ArticleId = id
	}
	h.store.put(a)
	return a
}

// seed edits a stored article directly, bypassing the engine, and re-derives the counters.
func (h *harness) seed(t *testing.T, id int, fn func(a *models.Article)) {
	t.Helper()
	a := h.store.get(t, id)
	fn(a)
	for i := range a.FloorQuantities {
		rec := &a.FloorQuantities[i]
		rec.Recalculate(h.seq.Role(rec.Floor))
	}
	h.store.put(a)
}

func mustRecord(t *testing.T, a *models.Article, f models.Floor) *models.FloorQuantity {
	t.Helper()
	rec := a.Record(f)
	if rec == nil {
		t.Fatalf("article %d has no %s record", a.ID, f)
	}
	return rec
}

// assertInvariants checks the counter invariants on every floor of a.
func assertInvariants(t *testing.T, a *models.Article, seq models.FloorSequence) {
	t.Helper()
	for _, f := range seq {
		rec := mustRecord(t, a, f)
		role := seq.Role(f)
		for name, v := range map[string]int{
			"received": rec.Received, "completed": rec.Completed, "transferred": rec.Transferred,
			"remaining": rec.Remaining, "m1": rec.M1Quantity, "m2": rec.M2Quantity, "m3": rec.M3Quantity,
			"m4": rec.M4Quantity, "m1_transferred": rec.M1Transferred, "m2_transferred": rec.M2Transferred,
		} {
			if v < 0 {
				t.Fatalf("%s.%s = %d, want >= 0", f, name, v)
			}
		}
		if rec.Transferred > rec.Completed {
			t.Fatalf("%s: transferred %d > completed %d", f, rec.Transferred, rec.Completed)
		}
		if !role.First && rec.Completed > rec.Received {
			t.Fatalf("%s: completed %d > received %d", f, rec.Completed, rec.Received)
		}
		if rec.M1Transferred > rec.M1Quantity {
			t.Fatalf("%s: m1 transferred %d > m1 %d", f, rec.M1Transferred, rec.M1Quantity)
		}
		if role.Inspection {
			if rec.Completed != rec.M1Quantity {
				t.Fatalf("%s: completed %d != m1 %d", f, rec.Completed, rec.M1Quantity)
			}
			if rec.Graded() > rec.Received {
				t.Fatalf("%s: graded %d > received %d", f, rec.Graded(), rec.Received)
			}
		}
		check := *rec
		check.Recalculate(role)
		if check.Remaining != rec.Remaining || check.M1Remaining != rec.M1Remaining {
			t.Fatalf("%s: stored remaining %d/%d, derived %d/%d", f, rec.Remaining, rec.M1Remaining, check.Remaining, check.M1Remaining)
		}
	}
}
