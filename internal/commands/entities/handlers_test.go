package entitiescmd

import (
	"context"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"

	"github.com/goliatone/go-cms-admin/internal/adapters/storage"
	"github.com/goliatone/go-cms-admin/internal/commands"
	"github.com/goliatone/go-cms-admin/internal/dispatch"
	"github.com/goliatone/go-cms-admin/internal/domain"
	"github.com/goliatone/go-cms-admin/internal/entities"
	"github.com/goliatone/go-cms-admin/internal/ordering"
	"github.com/goliatone/go-cms-admin/pkg/interfaces"
	"github.com/goliatone/go-cms-admin/pkg/testsupport"
)

type recordedResult struct {
	messageType string
	result      dispatch.Result
}

type recorder struct {
	results []recordedResult
}

func (r *recorder) sink(_ context.Context, messageType string, result dispatch.Result) {
	r.results = append(r.results, recordedResult{messageType: messageType, result: result})
}

type stubService struct {
	dispatch.Service
	bulkCalls []string
}

func (s *stubService) BulkToggle(context.Context, dispatch.BulkRequest) (dispatch.BulkOutcome, error) {
	s.bulkCalls = append(s.bulkCalls, "toggle")
	return dispatch.BulkOutcome{Count: 1}, nil
}

func (s *stubService) BulkSetActive(_ context.Context, _ dispatch.BulkRequest, active bool) (dispatch.BulkOutcome, error) {
	if active {
		s.bulkCalls = append(s.bulkCalls, "activate")
	} else {
		s.bulkCalls = append(s.bulkCalls, "deactivate")
	}
	return dispatch.BulkOutcome{Count: 1}, nil
}

func (s *stubService) BulkDelete(context.Context, dispatch.BulkRequest) (dispatch.BulkOutcome, error) {
	s.bulkCalls = append(s.bulkCalls, "delete")
	return dispatch.BulkOutcome{Count: 1}, nil
}

func seedArticle(t *testing.T, store *storage.Store, title, slug string, position int) *entities.Article {
	t.Helper()
	record := &entities.Article{ID: uuid.New(), Title: title, Slug: slug, Position: position, IsActive: true}
	if err := store.Insert(context.Background(), store.DB(), record); err != nil {
		t.Fatalf("insert article: %v", err)
	}
	return record
}

func newDispatcher(t *testing.T) (dispatch.Service, *storage.Store) {
	t.Helper()
	store := storage.NewStore(testsupport.NewBunDB(t))
	return dispatch.NewService(entities.DefaultRegistry(), store, ordering.NewSequencer(store)), store
}

func staffContext() context.Context {
	return commands.WithActor(context.Background(), interfaces.StaticActor{ID: uuid.New(), Authenticated: true})
}

func TestMessagesValidateEnvelope(t *testing.T) {
	cases := []struct {
		name string
		msg  interface{ Validate() error }
		ok   bool
	}{
		{"toggle ok", ToggleEntityCommand{EntityType: "article", ID: "x"}, true},
		{"toggle missing id", ToggleEntityCommand{EntityType: "article"}, false},
		{"delete missing type", DeleteEntityCommand{ID: "x"}, false},
		{"bulk ok", BulkEntityCommand{EntityType: "blog", Action: "Activate"}, true},
		{"bulk bad action", BulkEntityCommand{EntityType: "blog", Action: "archive"}, false},
		{"reorder ok", ReorderEntityCommand{EntityType: "blog"}, true},
		{"check slug missing value", CheckSlugCommand{EntityType: "blog", Value: "  "}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.msg.Validate()
			if tc.ok && err != nil {
				t.Fatalf("expected valid message, got %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestToggleHandlerPublishesResult(t *testing.T) {
	service, store := newDispatcher(t)
	article := seedArticle(t, store, "Hello", "hello", 0)
	rec := &recorder{}

	handler := NewToggleEntityHandler(service, nil, rec.sink)
	if err := handler.Execute(staffContext(), ToggleEntityCommand{EntityType: "article", ID: article.ID.String()}); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if len(rec.results) != 1 || rec.results[0].messageType != toggleMessageType {
		t.Fatalf("expected one toggle result, got %+v", rec.results)
	}
	got := rec.results[0].result
	outcome, ok := got.Value.(dispatch.ToggleOutcome)
	if !got.OK || !ok || outcome.Status {
		t.Fatalf("expected deactivated article, got %+v", got)
	}
}

func TestHandlerWithoutActorIsRejected(t *testing.T) {
	service, store := newDispatcher(t)
	article := seedArticle(t, store, "Hello", "hello", 0)
	rec := &recorder{}

	handler := NewDeleteEntityHandler(service, nil, rec.sink)
	err := handler.Execute(context.Background(), DeleteEntityCommand{EntityType: "article", ID: article.ID.String()})
	if domain.KindOf(err) != domain.ErrorKindPermission {
		t.Fatalf("expected permission error, got %v", err)
	}
	if len(rec.results) != 1 || rec.results[0].result.ErrorKind != domain.ErrorKindPermission {
		t.Fatalf("expected failure result, got %+v", rec.results)
	}
}

func TestInvalidMessagePublishesValidationResult(t *testing.T) {
	rec := &recorder{}
	stub := &stubService{}
	handler := NewBulkEntityHandler(stub, nil, rec.sink)
	err := handler.Execute(staffContext(), BulkEntityCommand{Action: "toggle"})
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(stub.bulkCalls) != 0 {
		t.Fatalf("expected service untouched, got %v", stub.bulkCalls)
	}
	if len(rec.results) != 1 || rec.results[0].messageType != bulkMessageType {
		t.Fatalf("expected one bulk result, got %+v", rec.results)
	}
	got := rec.results[0].result
	if got.OK || got.ErrorKind != domain.ErrorKindValidation || got.Message == "" {
		t.Fatalf("expected validation envelope, got %+v", got)
	}
}

func TestBulkHandlerRoutesActions(t *testing.T) {
	stub := &stubService{}
	handler := NewBulkEntityHandler(stub, nil, nil)
	for _, action := range []string{"toggle", "ACTIVATE", "deactivate", "delete"} {
		msg := BulkEntityCommand{EntityType: "article", Action: action, IDs: []string{uuid.NewString()}}
		if err := handler.Execute(staffContext(), msg); err != nil {
			t.Fatalf("execute %s: %v", action, err)
		}
	}
	want := []string{"toggle", "activate", "deactivate", "delete"}
	for i, call := range want {
		if stub.bulkCalls[i] != call {
			t.Fatalf("expected %v, got %v", want, stub.bulkCalls)
		}
	}
}

func TestCheckSlugHandlerReportsSuggestion(t *testing.T) {
	service, store := newDispatcher(t)
	seedArticle(t, store, "My Title", "my-title", 0)
	rec := &recorder{}

	handler := NewCheckSlugHandler(service, nil, rec.sink)
	if err := handler.Execute(staffContext(), CheckSlugCommand{EntityType: "article", Value: "My Title"}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	check, ok := rec.results[0].result.Value.(dispatch.SlugCheck)
	if !ok || !check.Exists || check.Suggestion != "my-title-1" {
		t.Fatalf("unexpected slug check %+v", rec.results[0].result)
	}
}

func TestHandlersBundle(t *testing.T) {
	if got := len(Handlers(&stubService{}, nil, nil)); got != 5 {
		t.Fatalf("expected five handlers, got %d", got)
	}
}
