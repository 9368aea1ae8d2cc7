package sharecache

import (
	"context"
	"testing"
)

func TestCache_LocalFallback_RemembersWithoutRedis(t *testing.T) {
	c := New(nil, "test")
	ctx := context.Background()

	if c.Verified(ctx, "tok", "1.2.3.4") {
		t.Fatal("expected no verification remembered yet")
	}

	c.Remember(ctx, "tok", "1.2.3.4")

	if !c.Verified(ctx, "tok", "1.2.3.4") {
		t.Fatal("expected the local fallback to remember a verification")
	}
	if c.Verified(ctx, "tok", "5.6.7.8") {
		t.Fatal("expected verification to be scoped to the client IP")
	}
}

func TestCache_NilCache_NeverPanics(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	if c.Verified(ctx, "tok", "1.2.3.4") {
		t.Fatal("expected a nil cache to report false")
	}
	c.Remember(ctx, "tok", "1.2.3.4")
}
