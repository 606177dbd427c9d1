package usersink_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-treestate/pkg/activity"
	"github.com/goliatone/go-treestate/pkg/activity/usersink"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

type recordingSink struct {
	records []usertypes.ActivityRecord
	err     error
}

func (s *recordingSink) Log(_ context.Context, record usertypes.ActivityRecord) error {
	s.records = append(s.records, record)
	return s.err
}

func TestHookNotifyMapsEditorEvent(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	actorID := uuid.New()
	userID := uuid.New()
	tenantID := uuid.New()
	sessionID := uuid.New().String()

	event := activity.BuildEditorEvent(activity.VerbSaved, activity.EditorEventInput{
		ActorID:    actorID.String(),
		UserID:     userID.String(),
		TenantID:   tenantID.String(),
		SessionID:  sessionID,
		Path:       "/srv/layout.json",
		OccurredAt: now,
	})
	event.Channel = activity.DefaultChannel

	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	record := sink.records[0]
	if record.ActorID != actorID || record.UserID != userID || record.TenantID != tenantID {
		t.Fatalf("unexpected ids: %+v", record)
	}
	if record.Verb != activity.VerbSaved || record.ObjectType != activity.ObjectTypeDocument || record.ObjectID != sessionID {
		t.Fatalf("unexpected record payload: %+v", record)
	}
	if record.Channel != "editor" {
		t.Fatalf("expected channel editor got %q", record.Channel)
	}
	if !record.OccurredAt.Equal(now) {
		t.Fatalf("expected occurred_at %v got %v", now, record.OccurredAt)
	}
	if record.Data["path"] != "/srv/layout.json" {
		t.Fatalf("expected path metadata got %v", record.Data["path"])
	}
	if record.Data["session_id"] != sessionID {
		t.Fatalf("expected session_id metadata got %v", record.Data["session_id"])
	}
}

func TestHookNotifyInvalidIDsBecomeNil(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	err := hook.Notify(context.Background(), activity.BuildEditorEvent(activity.VerbUndo, activity.EditorEventInput{
		ActorID:   "not-a-uuid",
		SessionID: "plain-session",
	}))
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	record := sink.records[0]
	if record.ActorID != uuid.Nil {
		t.Fatalf("expected nil actor, got %s", record.ActorID)
	}
	if _, ok := record.Data["session_id"]; ok {
		t.Fatalf("expected no session_id for non uuid object id")
	}
}

func TestHookNotifySkipsMissingVerb(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	_ = hook.Notify(context.Background(), activity.Event{})

	if len(sink.records) != 0 {
		t.Fatalf("expected no records for empty event, got %d", len(sink.records))
	}
}

func TestHookNotifyFiltersVerbs(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink, Verbs: []string{activity.VerbSaved}}
	ctx := context.Background()

	_ = hook.Notify(ctx, activity.BuildEditorEvent(activity.VerbUndo, activity.EditorEventInput{SessionID: "s"}))
	_ = hook.Notify(ctx, activity.BuildEditorEvent(activity.VerbSaved, activity.EditorEventInput{SessionID: "s"}))

	if len(sink.records) != 1 || sink.records[0].Verb != activity.VerbSaved {
		t.Fatalf("expected only saved verb forwarded, got %+v", sink.records)
	}
}

func TestHookNotifyDefaultsTimestamp(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	err := hook.Notify(context.Background(), activity.Event{
		Verb:       activity.VerbReset,
		ObjectType: activity.ObjectTypeDocument,
		ObjectID:   "1",
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if sink.records[0].OccurredAt.IsZero() {
		t.Fatalf("expected occurred_at to be defaulted")
	}
}
