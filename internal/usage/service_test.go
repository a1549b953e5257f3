package usage

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func testPolicy(limit int, clock *fakeClock) Policy {
	return Policy{Plan: "Free", Limit: limit, Now: clock.now}
}

func TestConsumeStopsAtLimit(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2024, time.May, 10, 12, 0, 0, 0, time.UTC)}
	svc := NewService(testPolicy(2, clock))

	for i := 0; i < 2; i++ {
		if _, err := svc.Consume(ctx, "u1", 1); err != nil {
			t.Fatalf("consume %d: %v", i, err)
		}
	}
	u, err := svc.Consume(ctx, "u1", 1)
	if !errors.Is(err, ErrLimitReached) {
		t.Fatalf("expected ErrLimitReached, got %v", err)
	}
	if u.Used != 2 || u.Remaining() != 0 {
		t.Fatalf("unexpected usage %+v", u)
	}
	ok, _, err := svc.CanConsume(ctx, "u1", 1)
	if err != nil || ok {
		t.Fatalf("CanConsume = %v, %v", ok, err)
	}
}

func TestWindowRollsAtMonthBoundary(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2024, time.December, 31, 23, 0, 0, 0, time.UTC)}
	svc := NewService(testPolicy(1, clock))

	u, err := svc.Consume(ctx, "u1", 1)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if want := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC); !u.ResetsAt.Equal(want) {
		t.Fatalf("ResetsAt = %s, want %s", u.ResetsAt, want)
	}

	clock.t = time.Date(2025, time.January, 1, 0, 0, 1, 0, time.UTC)
	u, err = svc.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if u.Used != 0 || !u.ResetsAt.Equal(time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("window not rolled: %+v", u)
	}
}

func TestTransferMovesGuestUsage(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2024, time.May, 10, 0, 0, 0, 0, time.UTC)}
	svc := NewService(testPolicy(5, clock))

	_, _ = svc.Consume(ctx, "guest:g1", 2)
	_, _ = svc.Consume(ctx, "user-1", 1)
	if err := svc.Transfer(ctx, "guest:g1", "user-1"); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	u, _ := svc.Get(ctx, "user-1")
	if u.Used != 3 {
		t.Fatalf("used = %d, want 3", u.Used)
	}
	g, _ := svc.Get(ctx, "guest:g1")
	if g.Used != 0 {
		t.Fatalf("guest usage not cleared: %+v", g)
	}
}

func TestGetUsageHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	clock := &fakeClock{t: time.Date(2024, time.May, 10, 0, 0, 0, 0, time.UTC)}
	svc := NewService(testPolicy(3, clock))
	_, _ = svc.Consume(context.Background(), "guest:abc", 1)

	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("userId", "guest:abc"); c.Next() })
	NewHandler(svc).RegisterRoutes(r.Group("/api/v1"))

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/usage", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	body := resp.Body.String()
	for _, want := range []string{`"limit":3`, `"used":1`, `"remaining":2`, `"plan":"Free"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %s in %s", want, body)
		}
	}
}
