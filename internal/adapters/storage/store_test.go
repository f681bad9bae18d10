package storage_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-cms-admin/internal/adapters/storage"
	"github.com/goliatone/go-cms-admin/internal/domain"
	"github.com/goliatone/go-cms-admin/internal/entities"
	"github.com/goliatone/go-cms-admin/pkg/testsupport"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

func seedArticle(t *testing.T, store *storage.Store, title, slug string, position int, active bool) *entities.Article {
	t.Helper()
	article := &entities.Article{
		ID:       uuid.New(),
		Title:    title,
		Slug:     slug,
		IsActive: active,
		Position: position,
	}
	if err := store.Insert(context.Background(), store.DB(), article); err != nil {
		t.Fatalf("insert %s: %v", title, err)
	}
	return article
}

func TestStoreFindAndNotFound(t *testing.T) {
	store := storage.NewStore(testsupport.NewBunDB(t))
	ctx := context.Background()
	d := entities.ArticleDescriptor()
	a := seedArticle(t, store, "First", "first", 0, true)

	record, err := store.Find(ctx, store.DB(), d, a.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if record.DisplayName() != "First" {
		t.Fatalf("unexpected record: %+v", record)
	}

	_, err = store.Find(ctx, store.DB(), d, uuid.New())
	if domain.KindOf(err) != domain.ErrorKindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestStoreToggleManyAndDeleteManyCountOnlyExisting(t *testing.T) {
	store := storage.NewStore(testsupport.NewBunDB(t))
	ctx := context.Background()
	d := entities.ArticleDescriptor()
	a := seedArticle(t, store, "A", "a", 0, true)
	b := seedArticle(t, store, "B", "b", 1, false)

	count, err := store.ToggleMany(ctx, store.DB(), d, []uuid.UUID{a.ID, b.ID, uuid.New()})
	if err != nil {
		t.Fatalf("toggle many: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 toggled, got %d", count)
	}
	records, err := store.FindMany(ctx, store.DB(), d, []uuid.UUID{a.ID, b.ID})
	if err != nil {
		t.Fatalf("find many: %v", err)
	}
	for _, r := range records {
		switch r.RecordID() {
		case a.ID:
			if r.ActiveFlag() {
				t.Fatalf("expected A inactive after toggle")
			}
		case b.ID:
			if !r.ActiveFlag() {
				t.Fatalf("expected B active after toggle")
			}
		}
	}

	deleted, err := store.DeleteMany(ctx, store.DB(), d, []uuid.UUID{a.ID, uuid.New(), b.ID})
	if err != nil {
		t.Fatalf("delete many: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 deleted, got %d", deleted)
	}
}

func TestStoreSlugExistsHonoursExclude(t *testing.T) {
	store := storage.NewStore(testsupport.NewBunDB(t))
	ctx := context.Background()
	d := entities.ArticleDescriptor()
	a := seedArticle(t, store, "My Title", "my-title", 0, true)

	exists, err := store.SlugExists(ctx, store.DB(), d, "my-title", uuid.Nil)
	if err != nil || !exists {
		t.Fatalf("expected slug to exist, got %v %v", exists, err)
	}
	exists, err = store.SlugExists(ctx, store.DB(), d, "my-title", a.ID)
	if err != nil || exists {
		t.Fatalf("expected own slug excluded, got %v %v", exists, err)
	}

	_, err = store.SlugExists(ctx, store.DB(), entities.UserDescriptor(), "x", uuid.Nil)
	if domain.KindOf(err) != domain.ErrorKindValidation {
		t.Fatalf("expected validation error for user slug, got %v", err)
	}
}

func TestStoreInsertDuplicateSlugIsConflict(t *testing.T) {
	store := storage.NewStore(testsupport.NewBunDB(t))
	seedArticle(t, store, "One", "dup", 0, true)

	err := store.Insert(context.Background(), store.DB(), &entities.Article{ID: uuid.New(), Title: "Two", Slug: "dup"})
	if domain.KindOf(err) != domain.ErrorKindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestStoreMaxPositionAndSetPositions(t *testing.T) {
	store := storage.NewStore(testsupport.NewBunDB(t))
	ctx := context.Background()
	d := entities.BlogDescriptor()

	_, ok, err := store.MaxPosition(ctx, store.DB(), d)
	if err != nil || ok {
		t.Fatalf("expected empty type, got ok=%v err=%v", ok, err)
	}

	ids := []uuid.UUID{}
	for i := 0; i < 3; i++ {
		blog := &entities.Blog{ID: uuid.New(), Title: "b", Slug: uuid.NewString(), Position: i}
		if err := store.Insert(ctx, store.DB(), blog); err != nil {
			t.Fatalf("insert: %v", err)
		}
		ids = append(ids, blog.ID)
	}

	highest, ok, err := store.MaxPosition(ctx, store.DB(), d)
	if err != nil || !ok || highest != 2 {
		t.Fatalf("expected max 2, got %d ok=%v err=%v", highest, ok, err)
	}

	err = store.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		_, err := store.SetPositions(ctx, tx, d, map[uuid.UUID]int{ids[2]: 0, ids[0]: 1, ids[1]: 2})
		return err
	})
	if err != nil {
		t.Fatalf("set positions: %v", err)
	}

	ordered, err := store.IDs(ctx, store.DB(), d)
	if err != nil {
		t.Fatalf("ids: %v", err)
	}
	want := []uuid.UUID{ids[2], ids[0], ids[1]}
	for i := range want {
		if ordered[i] != want[i] {
			t.Fatalf("position %d: expected %s got %s", i, want[i], ordered[i])
		}
	}
}

func TestStoreReferencesAsset(t *testing.T) {
	store := storage.NewStore(testsupport.NewBunDB(t))
	ctx := context.Background()
	d := entities.ArticleDescriptor()
	image := "articles/cover.jpg"

	owner := seedArticle(t, store, "Owner", "owner", 0, true)
	owner.Image = &image
	if err := store.Update(ctx, store.DB(), owner, "image"); err != nil {
		t.Fatalf("update image: %v", err)
	}

	ref := storage.Reference{URL: "/media/" + image, Path: image, Exclude: owner.ID}
	used, err := store.ReferencesAsset(ctx, store.DB(), d, ref)
	if err != nil || used {
		t.Fatalf("expected no other reference, got %v %v", used, err)
	}

	other := &entities.Article{ID: uuid.New(), Title: "Other", Slug: "other", Content: `<p><img src="/media/articles/cover.jpg"></p>`}
	if err := store.Insert(ctx, store.DB(), other); err != nil {
		t.Fatalf("insert other: %v", err)
	}
	used, err = store.ReferencesAsset(ctx, store.DB(), d, ref)
	if err != nil || !used {
		t.Fatalf("expected embedded reference to be found, got %v %v", used, err)
	}
}
