package entitiescmd

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	"github.com/google/uuid"

	"github.com/goliatone/go-cms-admin/internal/commands"
	"github.com/goliatone/go-cms-admin/internal/dispatch"
	"github.com/goliatone/go-cms-admin/internal/domain"
	"github.com/goliatone/go-cms-admin/internal/entities"
)

// flakyService fails the first n toggles with a storage error, then
// delegates to the real dispatcher.
type flakyService struct {
	dispatch.Service
	failures int
	calls    int
}

func (s *flakyService) ToggleActive(ctx context.Context, req dispatch.ToggleRequest) (dispatch.ToggleOutcome, error) {
	s.calls++
	if s.calls <= s.failures {
		return dispatch.ToggleOutcome{}, domain.StorageError(errors.New("connection reset"), "toggle article")
	}
	return s.Service.ToggleActive(ctx, req)
}

func TestDispatchedToggleRetriesTransientFailure(t *testing.T) {
	service, store := newDispatcher(t)
	article := seedArticle(t, store, "Retry Me", "retry-me", 0)
	flaky := &flakyService{Service: service, failures: 1}
	rec := &recorder{}

	handler := NewToggleEntityHandler(flaky, nil, rec.sink, commands.WithTimeout[ToggleEntityCommand](time.Second))
	sub := dispatcher.SubscribeCommand(handler, runner.WithMaxRetries(1))
	t.Cleanup(sub.Unsubscribe)

	err := dispatcher.Dispatch(staffContext(), ToggleEntityCommand{EntityType: "article", ID: article.ID.String()})
	if err != nil {
		t.Fatalf("dispatch: expected success after retry, got %v", err)
	}
	if flaky.calls != 2 {
		t.Fatalf("expected initial attempt plus one retry, got %d calls", flaky.calls)
	}

	if len(rec.results) != 2 {
		t.Fatalf("expected a result per attempt, got %+v", rec.results)
	}
	if first := rec.results[0].result; first.OK || first.ErrorKind != domain.ErrorKindInternal {
		t.Fatalf("expected masked internal failure first, got %+v", first)
	}
	if second := rec.results[1].result; !second.OK {
		t.Fatalf("expected retried toggle to succeed, got %+v", second)
	}

	record, err := store.Find(context.Background(), store.DB(), entities.ArticleDescriptor(), article.ID)
	if err != nil || record.ActiveFlag() {
		t.Fatalf("expected exactly one persisted toggle, got %+v %v", record, err)
	}
}

func TestDispatchedDeleteExhaustsRetriesOnMissingRecord(t *testing.T) {
	service, _ := newDispatcher(t)
	rec := &recorder{}

	handler := NewDeleteEntityHandler(service, nil, rec.sink, commands.WithTimeout[DeleteEntityCommand](time.Second))
	sub := dispatcher.SubscribeCommand(handler, runner.WithMaxRetries(2))
	t.Cleanup(sub.Unsubscribe)

	err := dispatcher.Dispatch(staffContext(), DeleteEntityCommand{EntityType: "article", ID: uuid.NewString()})
	if err == nil {
		t.Fatal("expected dispatch to fail once retries are exhausted")
	}
	if len(rec.results) != 3 {
		t.Fatalf("expected initial attempt plus two retries, got %d results", len(rec.results))
	}
	for _, got := range rec.results {
		if got.result.OK || got.result.ErrorKind != domain.ErrorKindNotFound {
			t.Fatalf("expected not found on every attempt, got %+v", got.result)
		}
	}
}
