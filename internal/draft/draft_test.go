package draft

import (
	"context"
	"errors"
	"testing"
)

func TestStageCommit(t *testing.T) {
	v := NewValue("a")
	if v.Current() != "a" || v.Pending() {
		t.Fatalf("fresh value: Current=%q Pending=%v", v.Current(), v.Pending())
	}

	v.Stage("b")
	if !v.Pending() {
		t.Error("expected pending after Stage")
	}
	if v.Current() != "b" {
		t.Errorf("Current should show the staged value, got %q", v.Current())
	}
	if v.Committed() != "a" {
		t.Errorf("Committed must stay at the old value, got %q", v.Committed())
	}

	var saved string
	err := v.Commit(context.Background(), func(_ context.Context, s string) error {
		saved = s
		return nil
	})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if saved != "b" {
		t.Errorf("save received %q, want %q", saved, "b")
	}
	if v.Pending() || v.Current() != "b" || v.Committed() != "b" {
		t.Errorf("after commit: Pending=%v Current=%q Committed=%q",
			v.Pending(), v.Current(), v.Committed())
	}
}

func TestDiscard(t *testing.T) {
	v := NewValue("a")
	v.Stage("b")
	v.Discard()
	if v.Pending() || v.Current() != "a" {
		t.Errorf("after discard: Pending=%v Current=%q", v.Pending(), v.Current())
	}
}

func TestCommitFailureKeepsPending(t *testing.T) {
	v := NewValue("a")
	v.Stage("b")

	wantErr := errors.New("save failed")
	err := v.Commit(context.Background(), func(context.Context, string) error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected the save error, got %v", err)
	}
	if !v.Pending() || v.Current() != "b" || v.Committed() != "a" {
		t.Errorf("failed commit must keep the edit staged: Pending=%v Current=%q Committed=%q",
			v.Pending(), v.Current(), v.Committed())
	}

	// A retry with a working save succeeds.
	if err := v.Commit(context.Background(), func(context.Context, string) error { return nil }); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if v.Committed() != "b" {
		t.Errorf("retry did not commit, got %q", v.Committed())
	}
}

func TestCommitCleanIsNoop(t *testing.T) {
	v := NewValue("a")
	called := false
	err := v.Commit(context.Background(), func(context.Context, string) error {
		called = true
		return nil
	})
	if err != nil || called {
		t.Errorf("clean commit: err=%v called=%v", err, called)
	}
}

func TestRestage(t *testing.T) {
	v := NewValue(1)
	v.Stage(2)
	v.Stage(3)
	if v.Current() != 3 {
		t.Errorf("restage: Current=%d, want 3", v.Current())
	}
	if err := v.Commit(context.Background(), nil); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if v.Committed() != 3 {
		t.Errorf("Committed=%d, want 3", v.Committed())
	}
}
