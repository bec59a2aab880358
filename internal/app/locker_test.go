package app

import (
	"context"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/storeops/internal/locking"
)

func TestInitLocker(t *testing.T) {
	tests := []struct {
		name    string
		mode    string
		wantErr bool
		check   func(t *testing.T, l locking.Locker)
	}{
		{
			name: "none",
			mode: LockModeNone,
			check: func(t *testing.T, l locking.Locker) {
				if _, ok := l.(locking.Noop); !ok {
					t.Errorf("expected Noop locker, got %T", l)
				}
			},
		},
		{
			name: "local",
			mode: LockModeLocal,
			check: func(t *testing.T, l locking.Locker) {
				if _, ok := l.(*locking.Local); !ok {
					t.Errorf("expected Local locker, got %T", l)
				}
			},
		},
		{name: "unreachable redis", mode: LockModeRedis, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.LockMode = tt.mode
			cfg.RedisAddr = "127.0.0.1:1"
			cfg.LockTTL = time.Second

			locker, client, err := initLocker(context.Background(), cfg, testLogger())
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if client != nil {
				t.Errorf("expected no redis client for mode %s", tt.mode)
			}
			tt.check(t, locker)
		})
	}
}
