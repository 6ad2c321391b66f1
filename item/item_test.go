package item_test

import (
	"context"
	"testing"
	"time"

	"github.com/chescoreloaded/SistemaExamenes-sub001/id"
	"github.com/chescoreloaded/SistemaExamenes-sub001/item"
)

func noop(context.Context) error { return nil }

func TestNew_Defaults(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("x", 3600))
	it := item.New("", noop, 3, now)

	if it.ID.Prefix() != id.PrefixItem {
		t.Errorf("prefix = %q, want %q", it.ID.Prefix(), id.PrefixItem)
	}
	if it.Name != item.DefaultName {
		t.Errorf("name = %q, want %q", it.Name, item.DefaultName)
	}
	if it.Retries != 0 {
		t.Errorf("retries = %d, want 0", it.Retries)
	}
	if !it.AddedAt.Equal(now) || it.AddedAt.Location() != time.UTC {
		t.Errorf("added_at = %v, want %v in UTC", it.AddedAt, now)
	}
}

func TestExhausted(t *testing.T) {
	it := item.New("save", noop, 3, time.Now())
	for i := 0; i < 3; i++ {
		if it.Exhausted() {
			t.Fatalf("exhausted after %d retries", it.Retries)
		}
		it.Retries++
	}
	if !it.Exhausted() {
		t.Fatal("expected exhausted at 3 retries")
	}
}

func TestSnapshot(t *testing.T) {
	it := item.New("save", noop, 3, time.Now())
	it.Retries = 2
	s := it.Snapshot()
	if s.ID.String() != it.ID.String() || s.Retries != 2 || s.Name != "save" || !s.AddedAt.Equal(it.AddedAt) {
		t.Errorf("snapshot mismatch: %+v", s)
	}
}
