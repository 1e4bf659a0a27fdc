package usage

import (
	"context"
	"errors"
	"testing"
)

func TestConsumeEnforcesLimit(t *testing.T) {
	svc := NewService()
	ctx := context.Background()

	u, err := svc.Consume(ctx, "user-1", defaultLimit)
	if err != nil {
		t.Fatalf("consume up to limit: %v", err)
	}
	if u.Used != defaultLimit {
		t.Fatalf("expected used=%d, got %d", defaultLimit, u.Used)
	}

	if _, err := svc.Consume(ctx, "user-1", 1); !errors.Is(err, ErrLimitReached) {
		t.Fatalf("expected ErrLimitReached, got %v", err)
	}
}

func TestCanConsumeBoundary(t *testing.T) {
	svc := NewService()
	ctx := context.Background()

	if _, err := svc.Consume(ctx, "user-1", defaultLimit-1); err != nil {
		t.Fatalf("consume: %v", err)
	}

	ok, _, err := svc.CanConsume(ctx, "user-1", 1)
	if err != nil {
		t.Fatalf("can consume: %v", err)
	}
	if !ok {
		t.Fatal("expected last unit to be consumable")
	}

	ok, u, err := svc.CanConsume(ctx, "user-1", 2)
	if err != nil {
		t.Fatalf("can consume: %v", err)
	}
	if ok {
		t.Fatalf("expected over-limit request to be refused, usage %+v", u)
	}
}

func TestResetClearsUsage(t *testing.T) {
	svc := NewService()
	ctx := context.Background()

	if _, err := svc.Consume(ctx, "user-1", 5); err != nil {
		t.Fatalf("consume: %v", err)
	}
	u, err := svc.Reset(ctx, "user-1")
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if u.Used != 0 {
		t.Fatalf("expected used=0 after reset, got %d", u.Used)
	}
	if u.Plan != defaultPlan || u.Limit != defaultLimit {
		t.Fatalf("defaults not preserved: %+v", u)
	}
}

func TestUsersAreIsolated(t *testing.T) {
	svc := NewService()
	ctx := context.Background()

	if _, err := svc.Consume(ctx, "user-1", defaultLimit); err != nil {
		t.Fatalf("consume: %v", err)
	}
	u, err := svc.Get(ctx, "user-2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if u.Used != 0 {
		t.Fatalf("expected fresh usage for second user, got %+v", u)
	}
}
