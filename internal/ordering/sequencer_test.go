package ordering_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/goliatone/go-cms-admin/internal/adapters/storage"
	"github.com/goliatone/go-cms-admin/internal/domain"
	"github.com/goliatone/go-cms-admin/internal/entities"
	"github.com/goliatone/go-cms-admin/internal/ordering"
	"github.com/goliatone/go-cms-admin/pkg/testsupport"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

func newSequencer(t *testing.T, opts ...ordering.Option) (*ordering.Sequencer, *storage.Store) {
	t.Helper()
	store := storage.NewStore(testsupport.NewBunDB(t))
	return ordering.NewSequencer(store, opts...), store
}

func appendBlog(t *testing.T, seq *ordering.Sequencer, store *storage.Store) (uuid.UUID, int) {
	t.Helper()
	id := uuid.New()
	pos, err := seq.Append(context.Background(), entities.BlogDescriptor(), func(ctx context.Context, tx bun.Tx, position int) error {
		return store.Insert(ctx, tx, &entities.Blog{ID: id, Title: "blog", Slug: id.String(), Position: position})
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	return id, pos
}

func positions(t *testing.T, store *storage.Store, d entities.Descriptor) map[uuid.UUID]int {
	t.Helper()
	ids, err := store.IDs(context.Background(), store.DB(), d)
	if err != nil {
		t.Fatalf("ids: %v", err)
	}
	records, err := store.FindMany(context.Background(), store.DB(), d, ids)
	if err != nil {
		t.Fatalf("find many: %v", err)
	}
	out := map[uuid.UUID]int{}
	for _, r := range records {
		out[r.RecordID()] = r.(entities.Orderable).GetPosition()
	}
	return out
}

func TestAppendStartsAtZeroAndIncrements(t *testing.T) {
	seq, store := newSequencer(t)

	for want := 0; want < 3; want++ {
		if _, got := appendBlog(t, seq, store); got != want {
			t.Fatalf("expected position %d, got %d", want, got)
		}
	}
}

func TestConcurrentAppendsReceiveDistinctContiguousPositions(t *testing.T) {
	seq, store := newSequencer(t)
	appendBlog(t, seq, store)
	appendBlog(t, seq, store)

	const workers = 20
	var wg sync.WaitGroup
	results := make(chan int, workers)
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := uuid.New()
			pos, err := seq.Append(context.Background(), entities.BlogDescriptor(), func(ctx context.Context, tx bun.Tx, position int) error {
				return store.Insert(ctx, tx, &entities.Blog{ID: id, Title: "c", Slug: id.String(), Position: position})
			})
			if err != nil {
				errs <- err
				return
			}
			results <- pos
		}()
	}
	wg.Wait()
	close(results)
	close(errs)

	for err := range errs {
		t.Fatalf("concurrent append: %v", err)
	}
	got := []int{}
	for pos := range results {
		got = append(got, pos)
	}
	sort.Ints(got)
	if len(got) != workers {
		t.Fatalf("expected %d positions, got %d", workers, len(got))
	}
	for i, pos := range got {
		if pos != i+2 {
			t.Fatalf("expected contiguous positions starting at 2, got %v", got)
		}
	}
}

func TestAppendRollsBackOnError(t *testing.T) {
	seq, store := newSequencer(t)
	boom := errors.New("boom")

	_, err := seq.Append(context.Background(), entities.BlogDescriptor(), func(ctx context.Context, tx bun.Tx, position int) error {
		id := uuid.New()
		if err := store.Insert(ctx, tx, &entities.Blog{ID: id, Title: "x", Slug: id.String(), Position: position}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if got := positions(t, store, entities.BlogDescriptor()); len(got) != 0 {
		t.Fatalf("expected rollback, found %d rows", len(got))
	}
}

func TestReorderAssignsIndexPositions(t *testing.T) {
	seq, store := newSequencer(t)
	id1, _ := appendBlog(t, seq, store)
	id2, _ := appendBlog(t, seq, store)
	id3, _ := appendBlog(t, seq, store)

	result, err := seq.Reorder(context.Background(), entities.BlogDescriptor(), []uuid.UUID{id3, id1, id2})
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if result.Updated != 3 || len(result.Ignored) != 0 {
		t.Fatalf("unexpected result %+v", result)
	}

	got := positions(t, store, entities.BlogDescriptor())
	if got[id3] != 0 || got[id1] != 1 || got[id2] != 2 {
		t.Fatalf("unexpected positions %v", got)
	}
}

func TestReorderIgnoresUnknownAndKeepsOmitted(t *testing.T) {
	seq, store := newSequencer(t)
	id1, _ := appendBlog(t, seq, store)
	id2, _ := appendBlog(t, seq, store)
	id3, _ := appendBlog(t, seq, store)
	ghost := uuid.New()

	result, err := seq.Reorder(context.Background(), entities.BlogDescriptor(), []uuid.UUID{id2, ghost, id1})
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if result.Updated != 2 || len(result.Ignored) != 1 || result.Ignored[0] != ghost {
		t.Fatalf("unexpected result %+v", result)
	}
	got := positions(t, store, entities.BlogDescriptor())
	if got[id2] != 0 || got[id1] != 2 || got[id3] != 2 {
		t.Fatalf("unexpected positions %v", got)
	}
}

func TestReorderRequireCompleteRejectsPartialList(t *testing.T) {
	seq, store := newSequencer(t, ordering.WithRequireComplete(true))
	id1, _ := appendBlog(t, seq, store)
	id2, _ := appendBlog(t, seq, store)

	_, err := seq.Reorder(context.Background(), entities.BlogDescriptor(), []uuid.UUID{id2})
	if domain.KindOf(err) != domain.ErrorKindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	got := positions(t, store, entities.BlogDescriptor())
	if got[id1] != 0 || got[id2] != 1 {
		t.Fatalf("expected positions untouched, got %v", got)
	}

	if _, err := seq.Reorder(context.Background(), entities.BlogDescriptor(), []uuid.UUID{id2, id1}); err != nil {
		t.Fatalf("complete reorder: %v", err)
	}
}

func TestReorderRequireCompleteRejectsEmptyList(t *testing.T) {
	seq, store := newSequencer(t, ordering.WithRequireComplete(true))
	empty, err := seq.Reorder(context.Background(), entities.BlogDescriptor(), nil)
	if err != nil || empty.Updated != 0 {
		t.Fatalf("expected empty type to accept empty list, got %+v %v", empty, err)
	}

	id1, _ := appendBlog(t, seq, store)
	id2, _ := appendBlog(t, seq, store)

	_, err = seq.Reorder(context.Background(), entities.BlogDescriptor(), nil)
	if domain.KindOf(err) != domain.ErrorKindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	got := positions(t, store, entities.BlogDescriptor())
	if got[id1] != 0 || got[id2] != 1 {
		t.Fatalf("expected positions untouched, got %v", got)
	}
}

func TestReorderRejectsDuplicatesAndUnorderableTypes(t *testing.T) {
	seq, store := newSequencer(t)
	id1, _ := appendBlog(t, seq, store)

	_, err := seq.Reorder(context.Background(), entities.BlogDescriptor(), []uuid.UUID{id1, id1})
	if domain.KindOf(err) != domain.ErrorKindValidation {
		t.Fatalf("expected duplicate rejection, got %v", err)
	}
	_, err = seq.Reorder(context.Background(), entities.UserDescriptor(), []uuid.UUID{id1})
	if domain.KindOf(err) != domain.ErrorKindValidation {
		t.Fatalf("expected unorderable rejection, got %v", err)
	}
}

func TestReorderHonoursCancelledContext(t *testing.T) {
	seq, store := newSequencer(t)
	id1, _ := appendBlog(t, seq, store)
	id2, _ := appendBlog(t, seq, store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := seq.Reorder(ctx, entities.BlogDescriptor(), []uuid.UUID{id2, id1}); err == nil {
		t.Fatalf("expected cancelled context to fail")
	}
	got := positions(t, store, entities.BlogDescriptor())
	if got[id1] != 0 || got[id2] != 1 {
		t.Fatalf("expected positions untouched, got %v", got)
	}
}

func TestParseIDs(t *testing.T) {
	id := uuid.New()
	got, err := ordering.ParseIDs([]string{" " + id.String() + " "})
	if err != nil || len(got) != 1 || got[0] != id {
		t.Fatalf("unexpected parse result %v %v", got, err)
	}
	if _, err := ordering.ParseIDs([]string{"nope"}); domain.KindOf(err) != domain.ErrorKindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
