package usersink_test

import (
	"context"
	"errors"
	"testing"
	"time"

	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"

	"github.com/goliatone/go-cms-admin/internal/adapters/storage"
	"github.com/goliatone/go-cms-admin/internal/dispatch"
	"github.com/goliatone/go-cms-admin/internal/entities"
	"github.com/goliatone/go-cms-admin/internal/ordering"
	"github.com/goliatone/go-cms-admin/pkg/activity"
	"github.com/goliatone/go-cms-admin/pkg/activity/usersink"
	"github.com/goliatone/go-cms-admin/pkg/interfaces"
	"github.com/goliatone/go-cms-admin/pkg/testsupport"
)

type recordingSink struct {
	records []usertypes.ActivityRecord
	err     error
}

func (s *recordingSink) Log(_ context.Context, record usertypes.ActivityRecord) error {
	s.records = append(s.records, record)
	return s.err
}

func TestDispatcherToggleIsLoggedToSink(t *testing.T) {
	ctx := context.Background()
	store := storage.NewStore(testsupport.NewBunDB(t))
	blog := &entities.Blog{ID: uuid.New(), Title: "Field Notes", Slug: "field-notes", Active: true}
	if err := store.Insert(ctx, store.DB(), blog); err != nil {
		t.Fatalf("insert blog: %v", err)
	}

	sink := &recordingSink{}
	emitter := activity.NewEmitter(activity.Hooks{usersink.Hook{Sink: sink}}, activity.Config{Enabled: true, Channel: "cms.admin"})
	svc := dispatch.NewService(entities.DefaultRegistry(), store, ordering.NewSequencer(store),
		dispatch.WithActivityEmitter(emitter),
	)

	actor := interfaces.StaticActor{ID: uuid.New(), Authenticated: true}
	if _, err := svc.ToggleActive(ctx, dispatch.ToggleRequest{Type: "blog", ID: blog.ID.String(), Actor: actor}); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	if len(sink.records) != 1 {
		t.Fatalf("expected one activity record, got %d", len(sink.records))
	}
	record := sink.records[0]
	if record.ActorID != actor.ID || record.Verb != "toggle" {
		t.Fatalf("unexpected actor or verb: %+v", record)
	}
	if record.ObjectType != "blog" || record.ObjectID != blog.ID.String() {
		t.Fatalf("unexpected object: %+v", record)
	}
	if record.Channel != "cms.admin" || record.OccurredAt.IsZero() {
		t.Fatalf("expected emitter to stamp channel and time, got %+v", record)
	}
	if record.Data["active"] != false || record.Data["operation"] != dispatch.OpToggleActive {
		t.Fatalf("unexpected record data %v", record.Data)
	}
	if record.UserID != uuid.Nil || record.TenantID != uuid.Nil {
		t.Fatalf("expected no user or tenant for staff toggle, got %+v", record)
	}
}

func TestHookCopiesDefinitionCodeAndRecipients(t *testing.T) {
	sink := &recordingSink{}
	recipients := []string{"editors@example.com"}
	at := time.Date(2025, 3, 9, 8, 30, 0, 0, time.UTC)

	err := usersink.Hook{Sink: sink}.Notify(context.Background(), activity.Event{
		Verb:           "bulk_delete",
		ActorID:        "not-a-uuid",
		ObjectType:     "article",
		DefinitionCode: "article:delete",
		Recipients:     recipients,
		Metadata:       map[string]any{"count": int64(3)},
		OccurredAt:     at,
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	recipients[0] = "changed@example.com"

	record := sink.records[0]
	if record.ActorID != uuid.Nil {
		t.Fatalf("expected malformed actor id to map to nil, got %s", record.ActorID)
	}
	if record.Data["definition_code"] != "article:delete" || record.Data["count"] != int64(3) {
		t.Fatalf("unexpected record data %v", record.Data)
	}
	copied, ok := record.Data["recipients"].([]string)
	if !ok || len(copied) != 1 || copied[0] != "editors@example.com" {
		t.Fatalf("expected recipients copied, got %v", record.Data["recipients"])
	}
	if !record.OccurredAt.Equal(at) {
		t.Fatalf("expected occurred_at %v, got %v", at, record.OccurredAt)
	}
}

func TestHookSkipsEmptyVerbAndReturnsSinkErrors(t *testing.T) {
	failure := errors.New("sink offline")
	sink := &recordingSink{err: failure}
	hook := usersink.Hook{Sink: sink}

	if err := hook.Notify(context.Background(), activity.Event{ObjectType: "article"}); err != nil || len(sink.records) != 0 {
		t.Fatalf("expected verb-less event to be skipped, got %v %d", err, len(sink.records))
	}
	if err := hook.Notify(context.Background(), activity.Event{Verb: "delete"}); !errors.Is(err, failure) {
		t.Fatalf("expected sink error, got %v", err)
	}
	if err := (usersink.Hook{}).Notify(context.Background(), activity.Event{Verb: "delete"}); err != nil {
		t.Fatalf("expected nil sink to be a no-op, got %v", err)
	}
}
