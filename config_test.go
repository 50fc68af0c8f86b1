package poapmint

import (
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/hedeqiang/poapmint/retry"
)

func TestConfigFromEnvDefaults(t *testing.T) {
	if diff := cmp.Diff(DefaultConfig(), ConfigFromEnv()); diff != "" {
		t.Fatalf("config (-want +got):\n%s", diff)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("POAP_API_KEY", "key")
	t.Setenv("POAP_CLIENT_ID", "id")
	t.Setenv("POAP_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("POAP_MAX_RETRIES", "5")
	t.Setenv("POAP_INITIAL_DELAY", "1500")
	t.Setenv("POAP_BACKOFF_FACTOR", "1.5")
	t.Setenv("POAP_LOG_LEVEL", "debug")

	cfg := ConfigFromEnv()
	if cfg.APIKey != "key" || cfg.ClientID != "id" || cfg.RedisURL != "redis://localhost:6379/0" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	want := retry.Config{MaxRetries: 5, InitialDelay: 1500 * time.Millisecond, BackoffFactor: 1.5}
	if diff := cmp.Diff(want, cfg.Retry); diff != "" {
		t.Fatalf("retry (-want +got):\n%s", diff)
	}
	if cfg.level() != slog.LevelDebug {
		t.Fatalf("expected debug level got %v", cfg.level())
	}
}

func TestGetEnvDuration(t *testing.T) {
	testCases := []struct {
		val  string
		want time.Duration
	}{
		// case 0
		{val: "2s", want: 2 * time.Second},
		// case 1
		{val: "250", want: 250 * time.Millisecond},
		// case 2
		{val: "soon", want: time.Second},
	}

	for i, tc := range testCases {
		t.Setenv("POAP_TEST_DURATION", tc.val)
		if got := getEnvDuration("POAP_TEST_DURATION", time.Second); got != tc.want {
			t.Fatalf("case %d: expected %v got %v", i, tc.want, got)
		}
	}
}
