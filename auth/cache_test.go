package auth

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	if _, ok, err := c.Load(ctx, "aud"); ok || err != nil {
		t.Fatalf("expected empty cache, got ok=%v err=%v", ok, err)
	}

	tok := Token{AccessToken: "abc", TokenType: "Bearer", ExpiresAt: time.Unix(100, 0)}
	if err := c.Save(ctx, "aud", tok); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok, err := c.Load(ctx, "aud")
	if err != nil || !ok || got.AccessToken != "abc" {
		t.Fatalf("unexpected load %+v ok=%v err=%v", got, ok, err)
	}

	if err := c.Delete(ctx, "aud"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := c.Load(ctx, "aud"); ok {
		t.Fatal("expected token to be deleted")
	}
}

func TestTokenExpired(t *testing.T) {
	now := time.Unix(1000, 0)

	testCases := []struct {
		token   Token
		expired bool
	}{
		// case 0
		{
			token:   Token{},
			expired: false,
		},
		// case 1
		{
			token:   Token{ExpiresAt: now.Add(time.Second)},
			expired: false,
		},
		// case 2
		{
			token:   Token{ExpiresAt: now.Add(-time.Second)},
			expired: true,
		},
	}

	for i, tc := range testCases {
		if got := tc.token.Expired(now); got != tc.expired {
			t.Fatalf("case %d: expected %v got %v", i, tc.expired, got)
		}
	}
}
