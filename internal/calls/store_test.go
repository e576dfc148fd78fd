package calls

import (
	"context"
	"testing"
	"time"
)

func seedCall(t *testing.T, s *MemoryStore) Call {
	t.Helper()
	now := time.Unix(1700000000, 0).UTC()
	c := Call{
		ID:             "call-1",
		AccountID:      "acct-1",
		ProviderCallID: "CA123",
		From:           "+15557770000",
		To:             "+15550001111",
		Status:         StatusRinging,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.Create(context.Background(), c); err != nil {
		t.Fatalf("create: %v", err)
	}
	return c
}

func TestStatusFromProvider(t *testing.T) {
	cases := []struct {
		in   string
		want Status
	}{
		{"completed", StatusCompleted},
		{"busy", StatusBusy},
		{"no-answer", StatusNoAnswer},
		{"in-progress", StatusInProgress},
		{"ringing", StatusRinging},
		{"canceled", StatusCanceled},
		{"something-new", StatusFailed},
	}
	for _, tc := range cases {
		if got := StatusFromProvider(tc.in); got != tc.want {
			t.Fatalf("StatusFromProvider(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestFinish_TransitionsOnce(t *testing.T) {
	s := NewMemoryStore()
	seedCall(t, s)
	ctx := context.Background()

	c, transitioned, err := s.Finish(ctx, "CA123", StatusCompleted, 245)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if !transitioned {
		t.Fatalf("expected first finish to transition")
	}
	if c.Status != StatusCompleted || c.DurationSeconds != 245 {
		t.Fatalf("unexpected call state: %+v", c)
	}

	// Redelivered callback: same terminal state, no second transition.
	c, transitioned, err = s.Finish(ctx, "CA123", StatusCompleted, 245)
	if err != nil {
		t.Fatalf("second finish: %v", err)
	}
	if transitioned {
		t.Fatalf("duplicate finish must not transition again")
	}
	if c.Status != StatusCompleted {
		t.Fatalf("status = %s", c.Status)
	}
}

func TestFinish_RejectsNonTerminalStatus(t *testing.T) {
	s := NewMemoryStore()
	seedCall(t, s)
	if _, _, err := s.Finish(context.Background(), "CA123", StatusRinging, 0); err == nil {
		t.Fatalf("expected error for non-terminal status")
	}
}

func TestFinish_UnknownCall(t *testing.T) {
	s := NewMemoryStore()
	if _, _, err := s.Finish(context.Background(), "CA999", StatusCompleted, 10); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAppendIVRStep(t *testing.T) {
	s := NewMemoryStore()
	seedCall(t, s)
	ctx := context.Background()

	if err := s.AppendIVRStep(ctx, "CA123", "menu"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.AppendIVRStep(ctx, "CA123", "forward"); err != nil {
		t.Fatalf("append: %v", err)
	}

	c, _ := s.FindByProviderCallID(ctx, "CA123")
	if len(c.IVRPath) != 2 || c.IVRPath[0] != "menu" || c.IVRPath[1] != "forward" {
		t.Fatalf("unexpected ivr path: %v", c.IVRPath)
	}
}
