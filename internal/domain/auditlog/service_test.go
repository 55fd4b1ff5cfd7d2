package auditlog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinic/waitlist/internal/platform/metrics"
)

// failingStore rejects every write and read.
type failingStore struct{ err error }

func (f failingStore) Append(context.Context, *Entry) error { return f.err }
func (f failingStore) Recent(context.Context, Query) ([]*Entry, error) {
	return nil, f.err
}

func newTestRecorder(primary, fallback Store) *Recorder {
	r := NewRecorder(primary, fallback, metrics.New("test"), zerolog.Nop())
	r.now = func() time.Time { return time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC) }
	return r
}

func TestRecorder_RecordStampsEntry(t *testing.T) {
	primary := NewMemoryStore(0)
	r := newTestRecorder(primary, nil)

	e := &Entry{Action: ActionAdd, Actor: Actor{Name: "Dr. Lee", Role: "surgeon"}}
	if err := r.Record(context.Background(), e); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if e.ID == uuid.Nil {
		t.Error("expected id to be assigned")
	}
	if !e.Timestamp.Equal(time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected timestamp %v", e.Timestamp)
	}
	if primary.Len() != 1 {
		t.Errorf("expected 1 entry in primary, got %d", primary.Len())
	}
}

func TestRecorder_InvalidAction(t *testing.T) {
	r := newTestRecorder(NewMemoryStore(0), nil)
	err := r.Record(context.Background(), &Entry{Action: "RENAME"})
	if !errors.Is(err, ErrInvalidAction) {
		t.Errorf("expected ErrInvalidAction, got %v", err)
	}
}

func TestRecorder_FallbackOnPrimaryFailure(t *testing.T) {
	fallback := NewMemoryStore(0)
	r := newTestRecorder(failingStore{err: errors.New("db down")}, fallback)

	if err := r.Record(context.Background(), &Entry{Action: ActionDelete}); err != nil {
		t.Fatalf("expected fallback to absorb the failure, got %v", err)
	}
	if fallback.Len() != 1 {
		t.Errorf("expected 1 entry in fallback, got %d", fallback.Len())
	}
}

func TestRecorder_BothStoresFail(t *testing.T) {
	r := newTestRecorder(failingStore{err: errors.New("db down")}, failingStore{err: errors.New("redis down")})
	if err := r.Record(context.Background(), &Entry{Action: ActionEdit}); err == nil {
		t.Error("expected error when both stores fail")
	}
}

func TestRecorder_NoFallback(t *testing.T) {
	r := newTestRecorder(failingStore{err: errors.New("db down")}, nil)
	if err := r.Record(context.Background(), &Entry{Action: ActionEdit}); err == nil {
		t.Error("expected error without a fallback store")
	}
}

func TestRecorder_ListMergesFallback(t *testing.T) {
	ctx := context.Background()
	primary := NewMemoryStore(0)
	fallback := NewMemoryStore(0)
	r := newTestRecorder(primary, fallback)

	base := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	shared := uuid.New()
	primary.Append(ctx, &Entry{ID: uuid.New(), Action: ActionAdd, Timestamp: base})
	primary.Append(ctx, &Entry{ID: shared, Action: ActionEdit, Timestamp: base.Add(2 * time.Minute)})
	fallback.Append(ctx, &Entry{ID: uuid.New(), Action: ActionDelete, Timestamp: base.Add(time.Minute)})
	fallback.Append(ctx, &Entry{ID: shared, Action: ActionEdit, Timestamp: base.Add(2 * time.Minute)})

	got, err := r.List(ctx, Query{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 merged entries, got %d", len(got))
	}
	want := []Action{ActionEdit, ActionDelete, ActionAdd}
	for i, a := range want {
		if got[i].Action != a {
			t.Errorf("entry %d: expected %s, got %s", i, a, got[i].Action)
		}
	}
}

func TestRecorder_ListServesFallbackWhenPrimaryFails(t *testing.T) {
	ctx := context.Background()
	fallback := NewMemoryStore(0)
	fallback.Append(ctx, &Entry{ID: uuid.New(), Action: ActionExport, Timestamp: time.Now()})
	r := newTestRecorder(failingStore{err: errors.New("db down")}, fallback)

	got, err := r.List(ctx, Query{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].Action != ActionExport {
		t.Errorf("unexpected entries %+v", got)
	}
}

func TestRecorder_ListBothFail(t *testing.T) {
	r := newTestRecorder(failingStore{err: errors.New("db down")}, nil)
	if _, err := r.List(context.Background(), Query{}); err == nil {
		t.Error("expected error when no store can be read")
	}
}

func TestRecorder_ListLimit(t *testing.T) {
	ctx := context.Background()
	primary := NewMemoryStore(0)
	for i := 0; i < 150; i++ {
		primary.Append(ctx, &Entry{ID: uuid.New(), Action: ActionEdit, Timestamp: time.Now().Add(time.Duration(i) * time.Second)})
	}
	r := newTestRecorder(primary, nil)

	got, err := r.List(ctx, Query{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != DefaultListLimit {
		t.Errorf("expected %d entries, got %d", DefaultListLimit, len(got))
	}
}

func TestNewDiffEntry(t *testing.T) {
	before := baseSnapshot()
	after := baseSnapshot()
	after[FieldStatus] = "Ready"
	id := uuid.New()

	e := NewDiffEntry(ActionStatusChange, Actor{Name: "Nurse Kim", Role: "nurse"}, id, "Jane Roe", before, after)
	if e.EntityID == nil || *e.EntityID != id {
		t.Error("expected entity id to be set")
	}
	if len(e.Changes) != 1 {
		t.Fatalf("expected 1 change, got %d", len(e.Changes))
	}
	if e.Changes[FieldStatus].To != "Ready" {
		t.Errorf("unexpected change %+v", e.Changes[FieldStatus])
	}

	same := NewDiffEntry(ActionEdit, Actor{}, id, "Jane Roe", before, baseSnapshot())
	if same.Changes != nil {
		t.Error("expected nil changes for an unchanged record")
	}
}
