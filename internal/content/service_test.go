package content_test

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-cms-admin/internal/adapters/storage"
	"github.com/goliatone/go-cms-admin/internal/assets"
	"github.com/goliatone/go-cms-admin/internal/content"
	"github.com/goliatone/go-cms-admin/internal/domain"
	"github.com/goliatone/go-cms-admin/internal/entities"
	"github.com/goliatone/go-cms-admin/internal/ordering"
	"github.com/goliatone/go-cms-admin/pkg/activity"
	"github.com/goliatone/go-cms-admin/pkg/testsupport"
)

type harness struct {
	articles content.ArticleService
	blogs    content.BlogService
	media    *assets.MemoryStore
	hook     *activity.CaptureHook
}

func newHarness(t *testing.T) harness {
	t.Helper()
	store := storage.NewStore(testsupport.NewBunDB(t))
	sequencer := ordering.NewSequencer(store)
	media := assets.NewMemoryStore()
	hook := &activity.CaptureHook{}
	opts := []content.ServiceOption{
		content.WithReclaimer(assets.NewReclaimer(entities.DefaultRegistry(), store, media)),
		content.WithActivityEmitter(activity.NewEmitter(activity.Hooks{hook}, activity.Config{Enabled: true})),
	}
	return harness{
		articles: content.NewArticleService(store, sequencer, opts...),
		blogs:    content.NewBlogService(store, sequencer, opts...),
		media:    media,
		hook:     hook,
	}
}

func strptr(s string) *string { return &s }

func TestCreateAssignsSlugsAndPositions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	want := []struct {
		slug     string
		position int
	}{
		{"hello-world", 0},
		{"hello-world-1", 1},
		{"hello-world-2", 2},
	}
	for i, expected := range want {
		article, err := h.articles.Create(ctx, content.CreateArticleRequest{Title: "Hello World"})
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		if article.Slug != expected.slug || article.Position != expected.position {
			t.Fatalf("create %d: expected %s@%d, got %s@%d", i, expected.slug, expected.position, article.Slug, article.Position)
		}
		if !article.IsActive {
			t.Fatalf("expected new articles to default to active")
		}
	}

	blog, err := h.blogs.Create(ctx, content.CreateBlogRequest{Title: "Hello World"})
	if err != nil {
		t.Fatalf("create blog: %v", err)
	}
	if blog.Slug != "hello-world" || blog.Position != 0 {
		t.Fatalf("expected blogs to have their own slug space and sequence, got %s@%d", blog.Slug, blog.Position)
	}
	if len(h.hook.Events) != 4 || h.hook.Events[0].Verb != "create" {
		t.Fatalf("expected create events, got %+v", h.hook.Events)
	}
}

func TestCreateValidatesInput(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.articles.Create(ctx, content.CreateArticleRequest{Title: "   "})
	if domain.KindOf(err) != domain.ErrorKindValidation {
		t.Fatalf("expected validation error for blank title, got %v", err)
	}
	_, err = h.blogs.Create(ctx, content.CreateBlogRequest{Title: "$$$"})
	if domain.KindOf(err) != domain.ErrorKindValidation {
		t.Fatalf("expected validation error for unsluggable title, got %v", err)
	}
}

func TestExplicitSlugMustBeUnique(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, err := h.articles.Create(ctx, content.CreateArticleRequest{Title: "First", Slug: "Custom Slug"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.Slug != "custom-slug" {
		t.Fatalf("expected normalized explicit slug, got %s", first.Slug)
	}

	_, err = h.articles.Create(ctx, content.CreateArticleRequest{Title: "Second", Slug: "custom-slug"})
	if domain.KindOf(err) != domain.ErrorKindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}

	second, err := h.articles.Create(ctx, content.CreateArticleRequest{Title: "Second"})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	_, err = h.articles.Update(ctx, content.UpdateArticleRequest{ID: second.ID, Title: "Second", Slug: "custom-slug", IsActive: true})
	if domain.KindOf(err) != domain.ErrorKindConflict {
		t.Fatalf("expected conflict on update, got %v", err)
	}
}

func TestUpdateRegeneratesSlugExcludingSelf(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	blog, err := h.blogs.Create(ctx, content.CreateBlogRequest{Title: "Draft Title"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	same, err := h.blogs.Update(ctx, content.UpdateBlogRequest{ID: blog.ID, Title: "Draft Title", Content: "body", Active: true})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if same.Slug != "draft-title" {
		t.Fatalf("expected slug kept, got %s", same.Slug)
	}

	renamed, err := h.blogs.Update(ctx, content.UpdateBlogRequest{ID: blog.ID, Title: "Final Title", Active: true})
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if renamed.Slug != "final-title" {
		t.Fatalf("expected regenerated slug, got %s", renamed.Slug)
	}

	loaded, err := h.blogs.GetBySlug(ctx, "final-title")
	if err != nil || loaded.ID != blog.ID || loaded.Position != blog.Position {
		t.Fatalf("expected persisted rename with unchanged position, got %+v %v", loaded, err)
	}
	if _, err := h.blogs.GetBySlug(ctx, "draft-title"); domain.KindOf(err) != domain.ErrorKindNotFound {
		t.Fatalf("expected old slug to be gone, got %v", err)
	}
}

func TestUpdateKeepsPositionAssignedByConcurrentReorder(t *testing.T) {
	ctx := context.Background()
	store := storage.NewStore(testsupport.NewBunDB(t))
	sequencer := ordering.NewSequencer(store)

	var interleave func()
	clock := func() time.Time {
		if interleave != nil {
			fn := interleave
			interleave = nil
			fn()
		}
		return time.Now()
	}
	articles := content.NewArticleService(store, sequencer, content.WithClock(clock))

	first, err := articles.Create(ctx, content.CreateArticleRequest{Title: "First"})
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := articles.Create(ctx, content.CreateArticleRequest{Title: "Second"})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}

	// The update has already read first at position 0 when the clock runs.
	interleave = func() {
		if _, err := sequencer.Reorder(ctx, entities.ArticleDescriptor(), []uuid.UUID{second.ID, first.ID}); err != nil {
			t.Errorf("reorder: %v", err)
		}
	}
	updated, err := articles.Update(ctx, content.UpdateArticleRequest{ID: first.ID, Title: "First", IsActive: true})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Position != 1 {
		t.Fatalf("expected update to report reordered position 1, got %d", updated.Position)
	}

	a, err := articles.Get(ctx, first.ID)
	if err != nil {
		t.Fatalf("get first: %v", err)
	}
	b, err := articles.Get(ctx, second.ID)
	if err != nil {
		t.Fatalf("get second: %v", err)
	}
	if a.Position != 1 || b.Position != 0 {
		t.Fatalf("expected positions first=1 second=0, got first=%d second=%d", a.Position, b.Position)
	}
}

func TestUpdateReclaimsReplacedImage(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.media.Put("articles/old.jpg", nil)
	h.media.Put("articles/new.jpg", nil)

	article, err := h.articles.Create(ctx, content.CreateArticleRequest{Title: "Cover", Image: strptr("articles/old.jpg")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := h.articles.Update(ctx, content.UpdateArticleRequest{
		ID:       article.ID,
		Title:    "Cover",
		Image:    strptr("articles/new.jpg"),
		IsActive: true,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Image == nil || *updated.Image != "articles/new.jpg" {
		t.Fatalf("expected new image, got %v", updated.Image)
	}
	paths := h.media.Paths()
	if len(paths) != 1 || paths[0] != "articles/new.jpg" {
		t.Fatalf("expected old image reclaimed, got %v", paths)
	}
}

func TestConcurrentCreatesGetContiguousPositions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	const n = 12

	var wg sync.WaitGroup
	positions := make(chan int, n)
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			article, err := h.articles.Create(ctx, content.CreateArticleRequest{Title: "Parallel"})
			if err != nil {
				errs <- err
				return
			}
			positions <- article.Position
		}()
	}
	wg.Wait()
	close(positions)
	close(errs)

	for err := range errs {
		t.Fatalf("create: %v", err)
	}
	got := make([]int, 0, n)
	for p := range positions {
		got = append(got, p)
	}
	sort.Ints(got)
	for i, p := range got {
		if p != i {
			t.Fatalf("expected contiguous positions, got %v", got)
		}
	}
}

func TestListFiltersAndPaginates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := h.articles.Create(ctx, content.CreateArticleRequest{
			Title:          "Story",
			ShowOnHomepage: i%2 == 0,
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if _, err := h.articles.Create(ctx, content.CreateArticleRequest{Title: "Gardening", Subtitle: "Tomatoes"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	page, err := h.articles.List(ctx, content.ListOptions{Page: 2, PerPage: 4})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 6 || len(page.Items) != 2 || page.Pages != 2 {
		t.Fatalf("unexpected page %+v", page)
	}
	if page.Items[0].Position != 4 || page.Items[1].Position != 5 {
		t.Fatalf("expected items ordered by position, got %d,%d", page.Items[0].Position, page.Items[1].Position)
	}

	homepage := true
	featured, err := h.articles.List(ctx, content.ListOptions{Homepage: &homepage})
	if err != nil || featured.Total != 3 {
		t.Fatalf("expected 3 homepage articles, got %+v %v", featured, err)
	}

	found, err := h.articles.List(ctx, content.ListOptions{Query: "tomato"})
	if err != nil || found.Total != 1 || found.Items[0].Title != "Gardening" {
		t.Fatalf("expected subtitle search hit, got %+v %v", found, err)
	}

	defaulted, err := h.articles.List(ctx, content.ListOptions{})
	if err != nil || defaulted.PerPage != content.DefaultPerPage || defaulted.Pages != 1 {
		t.Fatalf("expected default page size, got %+v %v", defaulted, err)
	}

	all, err := h.articles.List(ctx, content.ListOptions{PerPage: -1})
	if err != nil || len(all.Items) != 6 || all.Pages != 1 {
		t.Fatalf("expected every row, got %+v %v", all, err)
	}

	clamped, err := h.articles.List(ctx, content.ListOptions{PerPage: 1000})
	if err != nil || clamped.PerPage != content.MaxPerPage {
		t.Fatalf("expected per page clamp, got %+v %v", clamped, err)
	}
}

func TestGetMissingArticle(t *testing.T) {
	h := newHarness(t)
	_, err := h.articles.Get(context.Background(), uuid.New())
	if domain.KindOf(err) != domain.ErrorKindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	_, err = h.articles.Get(context.Background(), uuid.Nil)
	if domain.KindOf(err) != domain.ErrorKindValidation {
		t.Fatalf("expected validation error for nil id, got %v", err)
	}
}
